package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/userbase/userbase/internal/service"
)

const (
	// AccessTokenCookie and RefreshTokenCookie are the two credential
	// cookies the authenticator reads and writes.
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// ErrUnauthenticated is the single failure outcome of the authenticator.
// Internal causes (no tokens, expired access, invalid refresh) are collapsed
// into it so the client cannot tell which credential failed.
var ErrUnauthenticated = errors.New("unauthenticated")

// Session is the request-scoped result of a successful authentication.
type Session struct {
	UserID string
}

type sessionContextKey struct{}

func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFrom returns the session attached by RequireAuth. Absence in a
// protected handler means the middleware did not run, which is a programming
// error.
func SessionFrom(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}

type SessionMiddleware struct {
	tokens *service.TokenService
	logger *logrus.Logger
}

func NewSessionMiddleware(tokens *service.TokenService, logger *logrus.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate decides whether the given credentials identify a subject.
// Access verification is always attempted first; a valid access token
// short-circuits and never mints. When access verification fails and the
// refresh token verifies, a fresh access token for the refresh token's
// subject is returned as renewedAccess for cookie replacement. Refresh
// tokens are never rotated here.
//
// The function is pure apart from reading the clock: no I/O, no shared
// state.
func (m *SessionMiddleware) Authenticate(accessToken, refreshToken string) (Session, string, error) {
	if accessToken == "" && refreshToken == "" {
		return Session{}, "", ErrUnauthenticated
	}

	if accessToken != "" {
		if userID, err := m.tokens.VerifyAccess(accessToken); err == nil {
			return Session{UserID: userID}, "", nil
		}
	}

	if refreshToken != "" {
		userID, err := m.tokens.VerifyRefresh(refreshToken)
		if err == nil {
			renewedAccess, err := m.tokens.MintAccess(userID)
			if err != nil {
				m.logger.WithError(err).Error("Failed to mint renewed access token")
				return Session{}, "", ErrUnauthenticated
			}
			return Session{UserID: userID}, renewedAccess, nil
		}
	}

	return Session{}, "", ErrUnauthenticated
}

// RequireAuth protects a route: it authenticates the request's cookies,
// writes the renewed access cookie when the refresh path was taken, and
// attaches the session to the request context.
func (m *SessionMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, renewedAccess, err := m.Authenticate(
			cookieValue(r, AccessTokenCookie),
			cookieValue(r, RefreshTokenCookie),
		)
		if err != nil {
			m.respondUnauthorized(w)
			return
		}

		if renewedAccess != "" {
			http.SetCookie(w, NewAccessCookie(renewedAccess, m.tokens.AccessExpiry()))
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func cookieValue(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// NewAccessCookie builds the access credential cookie: site root path, not
// readable by scripts, secure transport only, never sent cross-site.
func NewAccessCookie(value string, maxAge time.Duration) *http.Cookie {
	return newTokenCookie(AccessTokenCookie, value, maxAge)
}

func NewRefreshCookie(value string, maxAge time.Duration) *http.Cookie {
	return newTokenCookie(RefreshTokenCookie, value, maxAge)
}

// ExpiredCookie overwrites a credential cookie with an immediately expiring
// one, for logout.
func ExpiredCookie(name string) *http.Cookie {
	cookie := newTokenCookie(name, "", 0)
	cookie.MaxAge = -1
	return cookie
}

func newTokenCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (m *SessionMiddleware) respondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Authentication required"}}`))
}
