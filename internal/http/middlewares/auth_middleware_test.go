package middlewares_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mockmate/api/internal/domain/user"
	"github.com/mockmate/api/internal/http/middlewares"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	verifyFn func(token string) (string, error)
}

func (s *stubVerifier) Verify(token string) (string, error) {
	if s.verifyFn != nil {
		return s.verifyFn(token)
	}

	return "", errors.New("invalid")
}

type stubLoader struct {
	getFn func(ctx context.Context, id string) (user.User, error)
}

func (s *stubLoader) GetByID(ctx context.Context, id string) (user.User, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}

	return user.User{}, errors.New("not found")
}

func protectedRouter(mw *middlewares.AuthMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	chain := append([]gin.HandlerFunc{mw.RequireAuth()}, extra...)
	chain = append(chain, func(c *gin.Context) {
		u, _ := middlewares.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID})
	})

	r.GET("/protected", chain...)

	return r
}

func TestRequireAuth(t *testing.T) {
	known := user.User{ID: "user-1", Username: "alice", Role: user.RoleUser}

	okVerifier := &stubVerifier{
		verifyFn: func(token string) (string, error) {
			if token == "good-token" {
				return known.ID, nil
			}
			return "", errors.New("bad token")
		},
	}
	okLoader := &stubLoader{
		getFn: func(ctx context.Context, id string) (user.User, error) {
			if id == known.ID {
				return known, nil
			}
			return user.User{}, errors.New("not found")
		},
	}

	tests := []struct {
		name           string
		header         string
		verifier       middlewares.TokenVerifier
		loader         middlewares.UserLoader
		wantStatusCode int
	}{
		{
			name:           "success",
			header:         "Bearer good-token",
			verifier:       okVerifier,
			loader:         okLoader,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "no_header",
			header:         "",
			verifier:       okVerifier,
			loader:         okLoader,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "wrong_scheme",
			header:         "Basic abc123",
			verifier:       okVerifier,
			loader:         okLoader,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "empty_bearer",
			header:         "Bearer ",
			verifier:       okVerifier,
			loader:         okLoader,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "bad_token",
			header:         "Bearer forged",
			verifier:       okVerifier,
			loader:         okLoader,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// valid token whose user has been deleted since issuance
			name:     "vanished_user",
			header:   "Bearer good-token",
			verifier: okVerifier,
			loader: &stubLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					return user.User{}, errors.New("not found")
				},
			},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			mw := middlewares.NewAuthMiddleware(tt.verifier, tt.loader)
			r := protectedRouter(mw)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)

			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name           string
		role           user.Role
		allowed        []user.Role
		wantStatusCode int
	}{
		{
			name:           "admin_allowed",
			role:           user.RoleAdmin,
			allowed:        []user.Role{user.RoleAdmin},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "user_forbidden",
			role:           user.RoleUser,
			allowed:        []user.Role{user.RoleAdmin},
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "either_role_allowed",
			role:           user.RoleUser,
			allowed:        []user.Role{user.RoleAdmin, user.RoleUser},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			caller := user.User{ID: "user-1", Role: tt.role}

			verifier := &stubVerifier{
				verifyFn: func(token string) (string, error) {
					return caller.ID, nil
				},
			}
			loader := &stubLoader{
				getFn: func(ctx context.Context, id string) (user.User, error) {
					return caller, nil
				},
			}

			mw := middlewares.NewAuthMiddleware(verifier, loader)
			r := protectedRouter(mw, mw.RequireRole(tt.allowed...))

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer any")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
