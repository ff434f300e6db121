package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/userbase/userbase/internal/middleware"
	"github.com/userbase/userbase/internal/models"
	"github.com/userbase/userbase/internal/repository"
	"github.com/userbase/userbase/internal/service"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandlers struct {
	tokens       *service.TokenService
	userStore    UserStore
	loginLimiter LoginLimiter
	logger       *logrus.Logger
}

func NewAuthHandlers(
	tokens *service.TokenService,
	userStore UserStore,
	loginLimiter LoginLimiter,
	logger *logrus.Logger,
) *AuthHandlers {
	return &AuthHandlers{
		tokens:       tokens,
		userStore:    userStore,
		loginLimiter: loginLimiter,
		logger:       logger,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !isValidEmail(email) {
		respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
		return
	}

	if len(req.Password) < 8 {
		respondWithError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		respondWithError(w, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register user")
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(passwordHash),
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			respondWithError(w, http.StatusConflict, "EMAIL_TAKEN", "Email address already registered")
			return
		}
		h.logger.WithError(err).Error("Failed to create user")
		respondWithError(w, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register user")
		return
	}

	if !h.issueSessionCookies(w, user.ID) {
		return
	}

	respondWithJSON(w, http.StatusCreated, UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Email and password are required")
		return
	}

	allowed, _ := h.loginLimiter.AllowLogin(r.Context(), email)
	if !allowed {
		respondWithError(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many login attempts, try again later")
		return
	}

	user, err := h.userStore.GetByEmail(r.Context(), email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to look up user")
		respondWithError(w, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to log in")
		return
	}

	// Unknown email and wrong password produce the same response.
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondWithError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		return
	}

	h.loginLimiter.ResetLogin(r.Context(), email)

	if !h.issueSessionCookies(w, user.ID) {
		return
	}

	respondWithJSON(w, http.StatusOK, UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
}

func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, middleware.ExpiredCookie(middleware.AccessTokenCookie))
	http.SetCookie(w, middleware.ExpiredCookie(middleware.RefreshTokenCookie))

	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// issueSessionCookies mints a fresh token pair for the user and sets both
// credential cookies. Reports false after writing an error response.
func (h *AuthHandlers) issueSessionCookies(w http.ResponseWriter, userID string) bool {
	pair, err := h.tokens.MintPair(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to mint token pair")
		respondWithError(w, http.StatusInternalServerError, "TOKEN_GENERATION_FAILED", "Failed to generate tokens")
		return false
	}

	http.SetCookie(w, middleware.NewAccessCookie(pair.AccessToken, h.tokens.AccessExpiry()))
	http.SetCookie(w, middleware.NewRefreshCookie(pair.RefreshToken, h.tokens.RefreshExpiry()))
	return true
}

func isValidEmail(email string) bool {
	matched, _ := regexp.MatchString(`^[^@\s]+@[^@\s]+\.[^@\s]+$`, email)
	return matched
}
