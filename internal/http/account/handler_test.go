package account

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kittyapp/kitty/internal/auth"
	"github.com/kittyapp/kitty/internal/http/middleware"
	"github.com/kittyapp/kitty/internal/user"
)

func newTestRouter(t *testing.T, repo *user.MockRepository) (http.Handler, *auth.JWTManager) {
	t.Helper()

	users := user.NewService(repo)
	authn := auth.NewAuthenticator(users)
	jwt := auth.NewJWTManager("test-secret", time.Hour)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwt))
		r.Route("/account", NewHandler(users, authn).Routes)
	})

	return r, jwt
}

func bearer(t *testing.T, jwt *auth.JWTManager, u *user.User) string {
	t.Helper()

	token, err := jwt.Generate(u)
	require.NoError(t, err)

	return "Bearer " + token
}

func TestHandler_Show(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := user.NewMockRepository(ctrl)

	u := &user.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	repo.EXPECT().UserByID(gomock.Any(), u.ID).Return(u, nil)

	router, jwt := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.Header.Set("Authorization", bearer(t, jwt, u))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)
}

func TestHandler_ShowRequiresToken(t *testing.T) {
	router, _ := newTestRouter(t, user.NewMockRepository(gomock.NewController(t)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/account", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := user.NewMockRepository(ctrl)

	u := &user.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	repo.EXPECT().UserByID(gomock.Any(), u.ID).Return(u, nil)
	repo.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, got *user.User) error {
			assert.Equal(t, "alice2", got.Username)
			assert.Equal(t, "alice@example.com", got.Email, "email must not change")
			return nil
		})

	router, jwt := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodPut, "/account", strings.NewReader(`{"username":"alice2"}`))
	req.Header.Set("Authorization", bearer(t, jwt, u))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice2"`)
}

func TestHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := user.NewMockRepository(ctrl)

	u := &user.User{ID: uuid.New(), Username: "alice"}
	repo.EXPECT().DeleteUser(gomock.Any(), u.ID).Return(nil)

	router, jwt := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodDelete, "/account", nil)
	req.Header.Set("Authorization", bearer(t, jwt, u))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_SetPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := user.NewMockRepository(ctrl)

	u := &user.User{ID: uuid.New(), Username: "alice"}
	repo.EXPECT().UserByID(gomock.Any(), u.ID).Return(u, nil)
	repo.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, got *user.User) error {
			assert.NotEmpty(t, got.PasswordHash)
			assert.NotEqual(t, "battery staple", got.PasswordHash)
			return nil
		})

	router, jwt := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodPut, "/account/password", strings.NewReader(`{"password":"battery staple"}`))
	req.Header.Set("Authorization", bearer(t, jwt, u))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_SetPasswordTooShort(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := user.NewMockRepository(ctrl)

	u := &user.User{ID: uuid.New(), Username: "alice"}

	router, jwt := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodPut, "/account/password", strings.NewReader(`{"password":"short"}`))
	req.Header.Set("Authorization", bearer(t, jwt, u))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
