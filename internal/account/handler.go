// Package account serves the profile endpoints of the authenticated user
// and the administrator's account management surface.
package account

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"

	"stocktrack/internal/auth"
	"stocktrack/internal/httputil"
	"stocktrack/internal/logging"
	"stocktrack/internal/user"
)

// Handler contains HTTP handlers for account management
type Handler struct {
	users       UserStore
	authService *auth.Service
	logger      *logging.Logger
}

func NewHandler(users UserStore, authService *auth.Service, logger *logging.Logger) *Handler {
	return &Handler{
		users:       users,
		authService: authService,
		logger:      logger,
	}
}

// UpdateProfileRequest carries a profile change. Password fields are
// optional; when NewPassword is set, CurrentPassword must match and
// ConfirmPassword must equal NewPassword.
type UpdateProfileRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Me returns the authenticated user's profile
// @Summary      Get own profile
// @Tags         account
// @Produce      json
// @Success      200 {object} user.User
// @Failure      401 {object} httputil.ErrorResponse
// @Security     BearerAuth
// @Router       /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	account, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, account, http.StatusOK)
}

// UpdateMe updates the authenticated user's email and, optionally, password
// @Summary      Update own profile
// @Description  Change email, and optionally the password. A password change requires the current password and a confirmation.
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        request body UpdateProfileRequest true "Profile changes"
// @Success      200 {object} user.User
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Wrong current password"
// @Failure      409 {object} httputil.ErrorResponse "Email already registered"
// @Security     BearerAuth
// @Router       /me [put]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid profile update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Email == "" {
		httputil.RespondErrorWithCode(w, "email is required", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		httputil.RespondErrorWithCode(w, "invalid email format", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	account, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		logger.Error("failed to load profile for update", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	var newHash string
	if req.NewPassword != "" {
		if !auth.VerifyPassword(account.PasswordHash, req.CurrentPassword) {
			logger.Warn("profile update rejected: wrong current password", "user_id", userID)
			httputil.RespondErrorWithCode(w, "current password is incorrect", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		if len(req.NewPassword) < 6 {
			httputil.RespondErrorWithCode(w, "password must be at least 6 characters", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}
		if req.NewPassword != req.ConfirmPassword {
			httputil.RespondErrorWithCode(w, "passwords do not match", httputil.CodeValidationFailed, http.StatusBadRequest)
			return
		}

		newHash, err = auth.HashPassword(req.NewPassword)
		if err != nil {
			logger.Error("failed to hash new password", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}
	}

	if err := h.users.UpdateProfile(r.Context(), userID, req.Email, newHash); err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			httputil.RespondErrorWithCode(w, "email already registered, please use a different email", httputil.CodeEmailExists, http.StatusConflict)
			return
		}
		logger.Error("failed to update profile", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	updated, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		logger.Error("failed to reload profile after update", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update profile", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("profile updated", "user_id", userID, "password_changed", newHash != "")

	httputil.RespondJSON(w, updated, http.StatusOK)
}
