package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mockmate/api/internal/domain/user"
	"github.com/mockmate/api/internal/repo/postgres"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func newUUID() string {
	return uuid.NewString()
}

// fakeUserStore satisfies every handler-facing store interface with
// overridable fn fields. Getters default to not-found so the uniqueness
// pre-checks pass unless a test says otherwise.

type fakeUserStore struct {
	createFn          func(ctx context.Context, u user.User) error
	getByIDFn         func(ctx context.Context, id string) (user.User, error)
	getByEmailFn      func(ctx context.Context, email string) (user.User, error)
	getByUsernameFn   func(ctx context.Context, username string) (user.User, error)
	listFn            func(ctx context.Context) ([]user.User, error)
	updateFn          func(ctx context.Context, u user.User) (user.User, error)
	updatePasswordFn  func(ctx context.Context, id string, hash string) error
	deleteFn          func(ctx context.Context, id string) error
	countAdminsFn     func(ctx context.Context) (int, error)
	setResetTokenFn   func(ctx context.Context, id string, hash string, expiresAt time.Time) error
	clearResetTokenFn func(ctx context.Context, id string) error
	getByResetHashFn  func(ctx context.Context, hash string) (user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, u user.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}

	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (user.User, error) {
	if f.getByUsernameFn != nil {
		return f.getByUsernameFn(ctx, username)
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUserStore) List(ctx context.Context) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return []user.User{}, nil
}

func (f *fakeUserStore) Update(ctx context.Context, u user.User) (user.User, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, u)
	}

	return u, nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id string, hash string) error {
	if f.updatePasswordFn != nil {
		return f.updatePasswordFn(ctx, id, hash)
	}

	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

func (f *fakeUserStore) CountAdmins(ctx context.Context) (int, error) {
	if f.countAdminsFn != nil {
		return f.countAdminsFn(ctx)
	}

	return 1, nil
}

func (f *fakeUserStore) SetResetToken(ctx context.Context, id string, hash string, expiresAt time.Time) error {
	if f.setResetTokenFn != nil {
		return f.setResetTokenFn(ctx, id, hash, expiresAt)
	}

	return nil
}

func (f *fakeUserStore) ClearResetToken(ctx context.Context, id string) error {
	if f.clearResetTokenFn != nil {
		return f.clearResetTokenFn(ctx, id)
	}

	return nil
}

func (f *fakeUserStore) GetByResetTokenHash(ctx context.Context, hash string) (user.User, error) {
	if f.getByResetHashFn != nil {
		return f.getByResetHashFn(ctx, hash)
	}

	return user.User{}, postgres.ErrUserNotFound
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

// setupRouterAs mounts a handler behind a stub that injects the given
// user into the request context, standing in for the auth middleware.
func setupRouterAs(method, path string, caller user.User, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, func(c *gin.Context) {
		c.Set("auth.user", caller)
		c.Next()
	}, h)

	return r
}
