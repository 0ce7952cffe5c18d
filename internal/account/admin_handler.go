package account

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"stocktrack/internal/auth"
	"stocktrack/internal/httputil"
	"stocktrack/internal/logging"
	"stocktrack/internal/user"
)

// CreateAdminRequest carries the fields for a new administrator account
type CreateAdminRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// StatsResponse summarises the account base for the admin dashboard
type StatsResponse struct {
	TotalUsers    int `json:"total_users"`
	PendingUsers  int `json:"pending_users"`
	ApprovedUsers int `json:"approved_users"`
	RejectedUsers int `json:"rejected_users"`
	AdminUsers    int `json:"admin_users"`
}

// ListUsers returns every account
// @Summary      List all accounts
// @Tags         admin
// @Produce      json
// @Success      200 {array} user.User
// @Failure      403 {object} httputil.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	users, err := h.users.ListAll(r.Context())
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, users, http.StatusOK)
}

// ListPending returns the accounts awaiting review, oldest first
// @Summary      List pending registrations
// @Tags         admin
// @Produce      json
// @Success      200 {array} user.User
// @Failure      403 {object} httputil.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/pending [get]
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	pending, err := h.users.ListPending(r.Context())
	if err != nil {
		logger.Error("failed to list pending users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list pending users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, pending, http.StatusOK)
}

// Approve moves an account to approved status
// @Summary      Approve a registration
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id}/approve [post]
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, user.StatusApproved, "user approved")
}

// Reject moves an account to rejected status
// @Summary      Reject a registration
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id}/reject [post]
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, user.StatusRejected, "user rejected")
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request, status, message string) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user ID", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if err := h.users.SetStatus(r.Context(), id, status); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to set user status", "user_id", id, "status", status, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update user status", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info(message, "user_id", id)

	httputil.RespondJSON(w, map[string]string{"message": message}, http.StatusOK)
}

// DeleteUser removes an account permanently. Administrators cannot delete
// their own account.
// @Summary      Delete an account
// @Tags         admin
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Cannot delete own account"
// @Failure      404 {object} httputil.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/users/{id} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user ID", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if callerID, ok := auth.GetUserIDFromContext(r.Context()); ok && callerID == id {
		httputil.RespondErrorWithCode(w, "cannot delete your own account", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete user", "user_id", id, "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user deleted", "user_id", id)

	httputil.RespondJSON(w, map[string]string{"message": "user deleted"}, http.StatusOK)
}

// CreateAdmin creates an administrator account that skips the approval queue
// @Summary      Create an administrator
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body CreateAdminRequest true "Administrator details"
// @Success      201 {object} user.User
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Username or email already exists"
// @Security     BearerAuth
// @Router       /admin/users [post]
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid create admin request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	admin, err := h.authService.CreateAdmin(r.Context(), req.Username, req.Email, req.FullName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateUsername):
			httputil.RespondErrorWithCode(w, "username already exists, please choose a different one", httputil.CodeUsernameExists, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicateEmail):
			httputil.RespondErrorWithCode(w, "email already registered, please use a different email", httputil.CodeEmailExists, http.StatusConflict)
		case errors.Is(err, auth.ErrMissingFields),
			errors.Is(err, auth.ErrInvalidEmailFormat),
			errors.Is(err, auth.ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("failed to create admin", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to create admin", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("admin account created", "user_id", admin.ID, "username", admin.Username)

	httputil.RespondJSON(w, admin, http.StatusCreated)
}

// Stats returns the account base breakdown for the admin dashboard
// @Summary      Account statistics
// @Tags         admin
// @Produce      json
// @Success      200 {object} StatsResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	counts, err := h.users.CountByStatus(r.Context())
	if err != nil {
		logger.Error("failed to count users by status", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load statistics", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	admins, err := h.users.CountAdmins(r.Context())
	if err != nil {
		logger.Error("failed to count admins", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load statistics", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	stats := StatsResponse{
		PendingUsers:  counts[user.StatusPending],
		ApprovedUsers: counts[user.StatusApproved],
		RejectedUsers: counts[user.StatusRejected],
		AdminUsers:    admins,
	}
	for _, n := range counts {
		stats.TotalUsers += n
	}

	httputil.RespondJSON(w, stats, http.StatusOK)
}

// SweepResetCodes deletes expired password reset codes
// @Summary      Sweep expired reset codes
// @Description  Remove reset codes past their expiry. Safe to run repeatedly.
// @Tags         admin
// @Produce      json
// @Success      200 {object} map[string]int64
// @Failure      403 {object} httputil.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/password-resets/sweep [post]
func (h *Handler) SweepResetCodes(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	removed, err := h.authService.SweepExpiredCodes(r.Context())
	if err != nil {
		logger.Error("failed to sweep expired reset codes", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to sweep reset codes", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("expired reset codes swept", "removed", removed)

	httputil.RespondJSON(w, map[string]int64{"removed": removed}, http.StatusOK)
}
