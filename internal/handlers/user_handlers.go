package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/userbase/userbase/internal/middleware"
	"github.com/userbase/userbase/internal/repository"
)

const defaultListLimit = 50

type UserHandlers struct {
	userStore UserStore
	logger    *logrus.Logger
}

func NewUserHandlers(userStore UserStore, logger *logrus.Logger) *UserHandlers {
	return &UserHandlers{
		userStore: userStore,
		logger:    logger,
	}
}

type UpdateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *UserHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit := int32(defaultListLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "INVALID_LIMIT", "Limit must be a positive integer")
			return
		}
		limit = int32(parsed)
	}

	users, err := h.userStore.List(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list users")
		respondWithError(w, http.StatusInternalServerError, "LIST_FAILED", "Failed to list users")
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		})
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"users": responses,
	})
}

func (h *UserHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	user, err := h.userStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user")
		respondWithError(w, http.StatusInternalServerError, "LOOKUP_FAILED", "Failed to look up user")
		return
	}

	if user == nil {
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	respondWithJSON(w, http.StatusOK, UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
}

func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "NO_SESSION", "Session missing from request")
		return
	}

	if session.UserID != id {
		respondWithError(w, http.StatusForbidden, "FORBIDDEN", "Cannot modify another user")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.userStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user")
		respondWithError(w, http.StatusInternalServerError, "LOOKUP_FAILED", "Failed to look up user")
		return
	}

	if user == nil {
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	previousEmail := user.Email

	if req.Name != "" {
		user.Name = strings.TrimSpace(req.Name)
	}

	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if !isValidEmail(email) {
			respondWithError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
			return
		}
		user.Email = email
	}

	if err := h.userStore.Update(r.Context(), user, previousEmail); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			respondWithError(w, http.StatusConflict, "EMAIL_TAKEN", "Email address already registered")
			return
		}
		h.logger.WithError(err).Error("Failed to update user")
		respondWithError(w, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update user")
		return
	}

	respondWithJSON(w, http.StatusOK, UserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
}

func (h *UserHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "NO_SESSION", "Session missing from request")
		return
	}

	if session.UserID != id {
		respondWithError(w, http.StatusForbidden, "FORBIDDEN", "Cannot delete another user")
		return
	}

	user, err := h.userStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get user")
		respondWithError(w, http.StatusInternalServerError, "LOOKUP_FAILED", "Failed to look up user")
		return
	}

	if user == nil {
		respondWithError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
		return
	}

	if err := h.userStore.Delete(r.Context(), user); err != nil {
		h.logger.WithError(err).Error("Failed to delete user")
		respondWithError(w, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete user")
		return
	}

	// The account is gone; clear its credentials too.
	http.SetCookie(w, middleware.ExpiredCookie(middleware.AccessTokenCookie))
	http.SetCookie(w, middleware.ExpiredCookie(middleware.RefreshTokenCookie))

	w.WriteHeader(http.StatusNoContent)
}
