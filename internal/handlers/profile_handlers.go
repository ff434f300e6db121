package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/userbase/userbase/internal/middleware"
	"github.com/userbase/userbase/internal/models"
)

// ProfileHandlers is the profile loader: it resolves the authenticated
// subject id to a full user record plus profile.
type ProfileHandlers struct {
	userStore    UserStore
	profileStore ProfileStore
	logger       *logrus.Logger
}

func NewProfileHandlers(userStore UserStore, profileStore ProfileStore, logger *logrus.Logger) *ProfileHandlers {
	return &ProfileHandlers{
		userStore:    userStore,
		profileStore: profileStore,
		logger:       logger,
	}
}

type ProfileResponse struct {
	User    UserResponse   `json:"user"`
	Profile ProfileDetails `json:"profile"`
}

type ProfileDetails struct {
	DisplayName string `json:"display_name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

func (h *ProfileHandlers) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveSubject(w, r)
	if !ok {
		return
	}

	profile, err := h.profileStore.Get(r.Context(), user.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get profile")
		respondWithError(w, http.StatusInternalServerError, "PROFILE_LOOKUP_FAILED", "Failed to load profile")
		return
	}

	if profile == nil {
		profile = &models.Profile{UserID: user.ID}
	}

	respondWithJSON(w, http.StatusOK, ProfileResponse{
		User: UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
		Profile: ProfileDetails{
			DisplayName: profile.DisplayName,
			Bio:         profile.Bio,
			AvatarURL:   profile.AvatarURL,
		},
	})
}

func (h *ProfileHandlers) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveSubject(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	profile := &models.Profile{
		UserID:      user.ID,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Bio:         strings.TrimSpace(req.Bio),
		AvatarURL:   strings.TrimSpace(req.AvatarURL),
	}

	if err := h.profileStore.Upsert(r.Context(), profile); err != nil {
		h.logger.WithError(err).Error("Failed to store profile")
		respondWithError(w, http.StatusInternalServerError, "PROFILE_UPDATE_FAILED", "Failed to update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, ProfileResponse{
		User: UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
		Profile: ProfileDetails{
			DisplayName: profile.DisplayName,
			Bio:         profile.Bio,
			AvatarURL:   profile.AvatarURL,
		},
	})
}

// resolveSubject loads the authenticated subject's user record. A subject
// whose token outlived the account gets 401, the same generic body the
// session middleware uses. Reports false after writing an error response.
func (h *ProfileHandlers) resolveSubject(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "NO_SESSION", "Session missing from request")
		return nil, false
	}

	user, err := h.userStore.GetByID(r.Context(), session.UserID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to resolve subject")
		respondWithError(w, http.StatusInternalServerError, "LOOKUP_FAILED", "Failed to look up user")
		return nil, false
	}

	if user == nil {
		respondWithError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return nil, false
	}

	return user, true
}
