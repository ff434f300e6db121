package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/userbase/userbase/internal/middleware"
	"github.com/userbase/userbase/internal/models"
	"golang.org/x/crypto/bcrypt"
)

func newAuthHandlers(t *testing.T, store *fakeUserStore, limiter *fakeLimiter) *AuthHandlers {
	t.Helper()
	return NewAuthHandlers(testTokenService(t), store, limiter, testLogger())
}

func sessionCookies(rec *httptest.ResponseRecorder) (access, refresh *http.Cookie) {
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case middleware.AccessTokenCookie:
			access = c
		case middleware.RefreshTokenCookie:
			refresh = c
		}
	}
	return access, refresh
}

func seedUser(t *testing.T, store *fakeUserStore, id, email, password string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	store.users[id] = &models.User{
		ID:           id,
		Email:        email,
		Name:         "Seeded",
		PasswordHash: string(hash),
	}
}

func TestRegister_Success(t *testing.T) {
	store := newFakeUserStore()
	h := newAuthHandlers(t, store, &fakeLimiter{allow: true})

	body := `{"email":"Alice@Example.com","name":"Alice","password":"correct horse"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.Equal(t, "Alice", resp.Name)
	assert.NotEmpty(t, resp.ID)

	stored := store.users[resp.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct horse")))

	access, refresh := sessionCookies(rec)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
}

func TestRegister_Validation(t *testing.T) {
	h := newAuthHandlers(t, newFakeUserStore(), &fakeLimiter{allow: true})

	cases := []struct {
		name string
		body string
	}{
		{"bad json", `{`},
		{"bad email", `{"email":"nope","password":"long enough"}`},
		{"short password", `{"email":"a@b.co","password":"short"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.Register(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegister_EmailTaken(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "u1", "alice@example.com", "password1")
	h := newAuthHandlers(t, store, &fakeLimiter{allow: true})

	body := `{"email":"alice@example.com","password":"another pass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "u1", "alice@example.com", "password1")
	limiter := &fakeLimiter{allow: true}
	h := newAuthHandlers(t, store, limiter)

	body := `{"email":"alice@example.com","password":"password1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	access, refresh := sessionCookies(rec)
	assert.NotNil(t, access)
	assert.NotNil(t, refresh)
	assert.Equal(t, []string{"alice@example.com"}, limiter.resets)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "u1", "alice@example.com", "password1")
	h := newAuthHandlers(t, store, &fakeLimiter{allow: true})

	cases := []struct {
		name string
		body string
	}{
		{"unknown email", `{"email":"bob@example.com","password":"password1"}`},
		{"wrong password", `{"email":"alice@example.com","password":"wrong"}`},
	}

	var bodies []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.Login(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			access, refresh := sessionCookies(rec)
			assert.Nil(t, access)
			assert.Nil(t, refresh)
			bodies = append(bodies, rec.Body.String())
		})
	}

	// Unknown email and wrong password must be indistinguishable.
	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
}

func TestLogin_RateLimited(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "u1", "alice@example.com", "password1")
	h := newAuthHandlers(t, store, &fakeLimiter{allow: false})

	body := `{"email":"alice@example.com","password":"password1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLogout_ExpiresCookies(t *testing.T) {
	h := newAuthHandlers(t, newFakeUserStore(), &fakeLimiter{allow: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	access, refresh := sessionCookies(rec)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.Equal(t, -1, access.MaxAge)
	assert.Equal(t, -1, refresh.MaxAge)
	assert.Empty(t, access.Value)
	assert.Empty(t, refresh.Value)
}
