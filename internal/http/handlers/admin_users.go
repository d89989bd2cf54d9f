package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mockmate/api/internal/domain/user"
	"github.com/mockmate/api/internal/repo/postgres"
	"github.com/mockmate/api/internal/security"
)

type AdminUserStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	Create(ctx context.Context, u user.User) error
	Update(ctx context.Context, u user.User) (user.User, error)
	Delete(ctx context.Context, id string) error
	CountAdmins(ctx context.Context) (int, error)
}

// AdminUsersHandler is the admin-only user management surface. All routes
// sit behind RequireAuth + RequireRole(admin).
type AdminUsersHandler struct {
	users AdminUserStore
	log   *slog.Logger
}

func NewAdminUsersHandler(users AdminUserStore, log *slog.Logger) *AdminUsersHandler {
	return &AdminUsersHandler{users: users, log: log}
}

// userIDParam validates the :id path segment. A malformed id is a 400, not
// a 404: the resource was never addressed.
func userIDParam(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid user ID format")
		return "", false
	}

	return id, true
}

func (h *AdminUsersHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)

	if err != nil {
		h.log.Error("list users failed", "err", err)
		RespondInternal(ctx, "Server Error")
		return
	}

	out := make([]user.Public, 0, len(users))

	for _, u := range users {
		out = append(out, u.Public())
	}

	ctx.JSON(http.StatusOK, out)
}

func (h *AdminUsersHandler) GetUser(ctx *gin.Context) {
	id, ok := userIDParam(ctx)

	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("get user failed", "err", err)
		RespondInternal(ctx, "Server Error")
		return
	}

	ctx.JSON(http.StatusOK, u.Public())
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

func (h *AdminUsersHandler) CreateUser(ctx *gin.Context) {
	var req CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role := user.Role(req.Role)

	if !user.ValidRole(role) {
		RespondBadRequest(ctx, "Invalid role specified.")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	email := user.NormalizeEmail(req.Email)

	if _, err := h.users.GetByEmail(cctx, email); err == nil {
		RespondBadRequest(ctx, "User already exists with this email.")
		return
	} else if !errors.Is(err, postgres.ErrUserNotFound) {
		RespondInternal(ctx, "Server Error creating user.")
		return
	}

	if _, err := h.users.GetByUsername(cctx, req.Username); err == nil {
		RespondBadRequest(ctx, "Username is already taken.")
		return
	} else if !errors.Is(err, postgres.ErrUserNotFound) {
		RespondInternal(ctx, "Server Error creating user.")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Server Error creating user.")
		return
	}

	u := user.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.Create(cctx, u); err != nil {
		switch {
		case errors.Is(err, postgres.ErrDuplicateEmail):
			RespondBadRequest(ctx, "Email already exists.")
		case errors.Is(err, postgres.ErrDuplicateUsername):
			RespondBadRequest(ctx, "Username already exists.")
		default:
			h.log.Error("create user failed", "err", err)
			RespondInternal(ctx, "Server Error creating user.")
		}
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"user":    u.Public(),
		"message": "User created successfully.",
	})
}

type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *string `json:"role" binding:"omitempty"`
}

func (h *AdminUsersHandler) UpdateUser(ctx *gin.Context) {
	caller, ok := currentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	id, ok := userIDParam(ctx)

	if !ok {
		return
	}

	var req UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	target, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("get user failed", "err", err)
		RespondInternal(ctx, "Server Error updating user")
		return
	}

	if req.Username != nil && *req.Username != "" {
		target.Username = *req.Username
	}

	if req.Email != nil && *req.Email != "" {
		target.Email = user.NormalizeEmail(*req.Email)
	}

	if req.Role != nil && *req.Role != "" {
		newRole := user.Role(*req.Role)

		if !user.ValidRole(newRole) {
			RespondBadRequest(ctx, "Invalid role specified.")
			return
		}

		if newRole != target.Role {
			// An admin demoting themself must not empty the admin set.
			// The count and the write are not transactional; a concurrent
			// demotion can still race past this check.
			if caller.ID == target.ID && target.Role == user.RoleAdmin && newRole != user.RoleAdmin {
				adminCount, err := h.users.CountAdmins(cctx)

				if err != nil {
					h.log.Error("admin count failed", "err", err)
					RespondInternal(ctx, "Server Error updating user")
					return
				}

				if adminCount <= 1 {
					RespondBadRequest(ctx, "Cannot remove the role from the last admin.")
					return
				}
			}

			target.Role = newRole
		}
	}

	updated, err := h.users.Update(cctx, target)

	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrDuplicateEmail):
			RespondBadRequest(ctx, "Email already in use.")
		case errors.Is(err, postgres.ErrDuplicateUsername):
			RespondBadRequest(ctx, "Username already in use.")
		case errors.Is(err, postgres.ErrUserNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			h.log.Error("update user failed", "err", err)
			RespondInternal(ctx, "Server Error updating user")
		}
		return
	}

	ctx.JSON(http.StatusOK, updated.Public())
}

func (h *AdminUsersHandler) DeleteUser(ctx *gin.Context) {
	caller, ok := currentUser(ctx)

	if !ok {
		RespondUnauthorized(ctx, "Missing identity context")
		return
	}

	id, ok := userIDParam(ctx)

	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	target, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("get user failed", "err", err)
		RespondInternal(ctx, "Server Error deleting user")
		return
	}

	if target.ID == caller.ID {
		RespondBadRequest(ctx, "You cannot delete your own admin account.")
		return
	}

	if target.Role == user.RoleAdmin {
		adminCount, err := h.users.CountAdmins(cctx)

		if err != nil {
			h.log.Error("admin count failed", "err", err)
			RespondInternal(ctx, "Server Error deleting user")
			return
		}

		if adminCount <= 1 {
			RespondBadRequest(ctx, "Cannot delete the last admin account.")
			return
		}
	}

	if err := h.users.Delete(cctx, target.ID); err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		h.log.Error("delete user failed", "err", err)
		RespondInternal(ctx, "Server Error deleting user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User removed successfully",
	})
}
