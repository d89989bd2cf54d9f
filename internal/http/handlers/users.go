package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mockmate/api/internal/domain/user"
	"github.com/mockmate/api/internal/repo/postgres"
)

type ProfileStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
}

// UsersHandler serves the self-service profile endpoints.
type UsersHandler struct {
	users ProfileStore
	log   *slog.Logger
}

func NewUsersHandler(users ProfileStore, log *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, log: log}
}

func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	u, ok := currentUser(ctx)

	if !ok {
		RespondNotFound(ctx, "User not found")
		return
	}

	ctx.JSON(http.StatusOK, u.Public())
}

type UpdateProfileRequest struct {
	Username *string `json:"username" binding:"omitempty,min=1"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// UpdateProfile applies only the fields present in the patch. Role and
// password are out of reach here on purpose.
func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	caller, ok := currentUser(ctx)

	if !ok {
		RespondNotFound(ctx, "User not found")
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Username != nil && *req.Username != "" {
		caller.Username = *req.Username
	}

	if req.Email != nil && *req.Email != "" {
		caller.Email = user.NormalizeEmail(*req.Email)
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.users.Update(cctx, caller)

	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrDuplicateEmail):
			RespondBadRequest(ctx, "Email already exists.")
		case errors.Is(err, postgres.ErrDuplicateUsername):
			RespondBadRequest(ctx, "Username already exists.")
		case errors.Is(err, postgres.ErrUserNotFound):
			RespondNotFound(ctx, "User not found")
		default:
			h.log.Error("profile update failed", "err", err)
			RespondInternal(ctx, "Server Error updating profile")
		}
		return
	}

	ctx.JSON(http.StatusOK, updated.Public())
}
