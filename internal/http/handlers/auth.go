package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mockmate/api/internal/auth"
	"github.com/mockmate/api/internal/domain/user"
	"github.com/mockmate/api/internal/repo/postgres"
	"github.com/mockmate/api/internal/security"
)

type AuthUserStore interface {
	Create(ctx context.Context, u user.User) error
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	SetResetToken(ctx context.Context, id string, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	GetByResetTokenHash(ctx context.Context, tokenHash string) (user.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type AuthHandler struct {
	users    AuthUserStore
	jwt      TokenIssuer
	resetTTL time.Duration
	log      *slog.Logger
}

func NewAuthHandler(users AuthUserStore, jwt TokenIssuer, resetTTL time.Duration, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:    users,
		jwt:      jwt,
		resetTTL: resetTTL,
		log:      log,
	}
}

type SignUpRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	email := user.NormalizeEmail(req.Email)

	// check both uniqueness dimensions up front for friendlier messages;
	// the unique constraints stay as the backstop

	if _, err := h.users.GetByEmail(cctx, email); err == nil {
		RespondBadRequest(ctx, "User already exists with this email")
		return
	} else if !errors.Is(err, postgres.ErrUserNotFound) {
		RespondInternal(ctx, "Server error during signup")
		return
	}

	if _, err := h.users.GetByUsername(cctx, req.Username); err == nil {
		RespondBadRequest(ctx, "Username is already taken")
		return
	} else if !errors.Is(err, postgres.ErrUserNotFound) {
		RespondInternal(ctx, "Server error during signup")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Server error during signup")
		return
	}

	u := user.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleUser, // public signup never grants admin
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.Create(cctx, u); err != nil {
		switch {
		case errors.Is(err, postgres.ErrDuplicateEmail):
			RespondBadRequest(ctx, "Email already exists.")
		case errors.Is(err, postgres.ErrDuplicateUsername):
			RespondBadRequest(ctx, "Username already exists.")
		default:
			h.log.Error("signup failed", "err", err)
			RespondInternal(ctx, "Server error during signup")
		}
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully. Please login.",
	})
}

func (h *AuthHandler) SignIn(ctx *gin.Context) {
	var req SignInRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))

	if err != nil {
		// unknown email and wrong password are indistinguishable on purpose
		RespondUnauthorized(ctx, "Invalid credentials")
		return
	}

	if err := security.CheckPassword(u.PasswordHash, req.Password); err != nil {
		RespondUnauthorized(ctx, "Invalid credentials")
		return
	}

	token, err := h.jwt.Issue(u.ID)

	if err != nil {
		h.log.Error("token issue failed", "err", err)
		RespondInternal(ctx, "Server error during signin")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    u.Public(),
	})
}

// Me returns the authenticated caller. The auth middleware already looked
// the user up, so this is a pure read of the request context.
func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := currentUser(ctx)

	if !ok {
		RespondNotFound(ctx, "User not found")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    u.Public(),
	})
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword generates a reset token and returns the raw value to the
// caller; the frontend is responsible for delivering it by email. Unknown
// addresses get the same generic success to prevent account enumeration.
func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, user.NormalizeEmail(req.Email))

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			ctx.JSON(http.StatusOK, gin.H{
				"success": true,
				"message": "If an account with that email exists, password reset instructions will be processed.",
			})
			return
		}

		h.log.Error("forgot password lookup failed", "err", err)
		RespondInternal(ctx, "Server error processing forgot password request")
		return
	}

	raw, tokenHash, err := auth.NewResetToken()

	if err != nil {
		RespondInternal(ctx, "Server error processing forgot password request")
		return
	}

	if err := h.users.SetResetToken(cctx, u.ID, tokenHash, time.Now().UTC().Add(h.resetTTL)); err != nil {
		// never leave a half-written token behind that the caller cannot use
		if clearErr := h.users.ClearResetToken(cctx, u.ID); clearErr != nil {
			h.log.Error("failed to clear reset token after error", "err", clearErr)
		}

		h.log.Error("forgot password persist failed", "err", err)
		RespondInternal(ctx, "Server error processing forgot password request")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Password reset token generated.",
		"resetToken": raw,
	})
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	tokenHash := auth.HashResetToken(ctx.Param("resettoken"))

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.GetByResetTokenHash(cctx, tokenHash)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondBadRequest(ctx, "Invalid or expired reset token")
			return
		}

		h.log.Error("reset token lookup failed", "err", err)
		RespondInternal(ctx, "Error resetting password")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Error resetting password")
		return
	}

	// UpdatePassword also clears the reset token fields: single use.
	if err := h.users.UpdatePassword(cctx, u.ID, hash); err != nil {
		h.log.Error("password update failed", "err", err)
		RespondInternal(ctx, "Error resetting password")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password has been reset successfully. Please login.",
	})
}
