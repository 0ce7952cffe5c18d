package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"stocktrack/internal/httputil"
	"stocktrack/internal/logging"
	"stocktrack/internal/user"
)

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service         *Service
	rateLimiter     RateLimiter
	logger          *logging.Logger
	isProduction    bool
	accessDuration  time.Duration
	refreshDuration time.Duration
}

func NewHandler(service *Service, rateLimiter RateLimiter, logger *logging.Logger, isProduction bool, accessDuration, refreshDuration time.Duration) *Handler {
	return &Handler{
		service:         service,
		rateLimiter:     rateLimiter,
		logger:          logger,
		isProduction:    isProduction,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Department      string `json:"department"`
	Reason          string `json:"reason"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest represents the token refresh request body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest starts the reset code flow
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyResetCodeRequest carries the emailed 6-digit code
type VerifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordRequest completes the reset with the ticket from verification
type ResetPasswordRequest struct {
	Ticket          string `json:"ticket"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// LoginResponse pairs the authenticated user with its tokens
type LoginResponse struct {
	User   UserResponse `json:"user"`
	Tokens *AuthTokens  `json:"tokens,omitempty"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		Status:   u.Status,
	}
}

// Register handles user registration
// @Summary      Register a new account
// @Description  Create an account that waits in the pending queue until an administrator approves it.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Username or email already exists"
// @Router       /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.limitExceeded(w, r, ip, "register") {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		FullName:        req.FullName,
		Department:      req.Department,
		Reason:          req.Reason,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateUsername):
			logger.Warn("registration failed: username already exists")
			respondError(w, "username already exists, please choose a different one", httputil.CodeUsernameExists, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already registered")
			respondError(w, "email already registered, please use a different email", httputil.CodeEmailExists, http.StatusConflict)
		case errors.Is(err, ErrMissingFields),
			errors.Is(err, ErrInvalidEmailFormat),
			errors.Is(err, ErrPasswordTooShort),
			errors.Is(err, ErrPasswordMismatch):
			logger.Warn("registration failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			respondError(w, "failed to register", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered, awaiting approval", "user_id", newUser.ID)

	respondJSON(w, RegisterResponse{
		User:    toUserResponse(newUser),
		Message: "Account created. Your account is pending admin approval.",
	}, http.StatusCreated)
}

// Login handles user login
// @Summary      Log in
// @Description  Authenticate with username and password. Pending and rejected accounts are blocked.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} LoginResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "Account pending or rejected"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.limitExceeded(w, r, ip, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	account, tokens, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid username or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrAccountPending):
			logger.Warn("login blocked: account pending approval")
			respondError(w, "your account is pending admin approval", httputil.CodeAccountPending, http.StatusForbidden)
		case errors.Is(err, ErrAccountRejected):
			logger.Warn("login blocked: account rejected")
			respondError(w, "your account has been rejected, contact the administrator", httputil.CodeAccountRejected, http.StatusForbidden)
		default:
			logger.Error("login failed: internal error", "error", err.Error())
			respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user logged in", "user_id", account.ID)

	if ShouldUseCookies(r) {
		SetAuthCookies(w, tokens.AccessToken, tokens.RefreshToken, h.isProduction, h.accessDuration, h.refreshDuration)
		respondJSON(w, LoginResponse{User: toUserResponse(account)}, http.StatusOK)
	} else {
		respondJSON(w, LoginResponse{User: toUserResponse(account), Tokens: tokens}, http.StatusOK)
	}
}

// Refresh handles access token refresh
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Refresh token (cookie fallback)"
// @Success      200 {object} AuthTokens
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired refresh token"
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var refreshToken string
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		refreshToken = req.RefreshToken
	}
	if refreshToken == "" {
		cookieToken, err := GetRefreshTokenFromCookie(r)
		if err == nil {
			refreshToken = cookieToken
		}
	}

	if refreshToken == "" {
		logger.Warn("refresh token missing from both body and cookie")
		respondError(w, "refresh token required", httputil.CodeRefreshTokenMissing, http.StatusBadRequest)
		return
	}

	refreshToken = strings.TrimSpace(refreshToken)

	tokens, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionInvalid) {
			logger.Warn("token refresh failed: invalid or expired token")
			respondError(w, "invalid or expired refresh token", httputil.CodeRefreshTokenInvalid, http.StatusUnauthorized)
			return
		}
		logger.Error("token refresh failed: internal error", "error", err.Error())
		respondError(w, "failed to refresh token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("access token refreshed")

	if ShouldUseCookies(r) {
		SetAuthCookies(w, tokens.AccessToken, tokens.RefreshToken, h.isProduction, h.accessDuration, h.refreshDuration)
		respondJSON(w, map[string]string{"message": "token refreshed"}, http.StatusOK)
	} else {
		respondJSON(w, tokens, http.StatusOK)
	}
}

// Logout handles user logout
// @Summary      Log out
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest false "Optional refresh token"
// @Success      200 {object} map[string]string
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var refreshToken string
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
		refreshToken = req.RefreshToken
	}
	if refreshToken == "" {
		cookieToken, _ := GetRefreshTokenFromCookie(r)
		refreshToken = cookieToken
	}

	if refreshToken != "" {
		if err := h.service.Logout(r.Context(), refreshToken); err != nil {
			logger.Warn("failed to revoke refresh token", "error", err)
			// Continue - still clear cookies
		}
	}

	ClearAuthCookies(w)

	logger.Info("user logged out")

	respondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// ForgotPassword handles reset code requests
// @Summary      Request a password reset code
// @Description  Email a 6-digit reset code valid for 15 minutes. Unknown emails are reported as such.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse "No account for that email"
// @Failure      502 {object} httputil.ErrorResponse "Email delivery failed"
// @Router       /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ip := getClientIP(r)
	if h.limitExceeded(w, r, ip, "forgot-password") {
		return
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
		// Continue despite error
	} else if onCooldown {
		logger.Warn("email on cooldown", "email", req.Email)
		respondError(w, "please wait before requesting another reset code", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	err = h.service.RequestPasswordReset(r.Context(), req.Email)

	// The cooldown starts only once a code was actually stored. Delivery
	// failures still count, the code stays valid; unknown emails and
	// internal failures do not block an immediate retry.
	if err == nil || errors.Is(err, ErrEmailDelivery) {
		if cdErr := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); cdErr != nil {
			logger.Error("failed to set email cooldown", "error", cdErr.Error())
		}
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			logger.Warn("reset requested for unknown email")
			respondError(w, "no account found for that email", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrEmailDelivery):
			// The code was stored and is still valid; only delivery failed
			logger.Error("reset code email delivery failed", "error", err.Error())
			respondError(w, "failed to send reset email, please contact support", httputil.CodeEmailDeliveryError, http.StatusBadGateway)
		default:
			logger.Error("reset request failed: internal error", "error", err.Error())
			respondError(w, "failed to request password reset", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("reset code issued")

	respondJSON(w, map[string]string{
		"message": "A reset code has been sent to your email. It expires in 15 minutes.",
	}, http.StatusOK)
}

// VerifyResetCode handles reset code verification
// @Summary      Verify a password reset code
// @Description  Check the emailed code. Success consumes the code and returns a one-time ticket for the password change.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyResetCodeRequest true "Email and code"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired code"
// @Failure      404 {object} httputil.ErrorResponse "No account for that email"
// @Router       /auth/verify-reset-code [post]
func (h *Handler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyResetCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify reset code request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	ticket, err := h.service.VerifyResetCode(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			logger.Warn("code verification for unknown email")
			respondError(w, "no account found for that email", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrResetCodeExpired):
			logger.Warn("code verification failed: code expired")
			respondError(w, "reset code has expired, please request a new one", httputil.CodeResetCodeExpired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidResetCode):
			logger.Warn("code verification failed: invalid code")
			respondError(w, "invalid reset code", httputil.CodeInvalidResetCode, http.StatusBadRequest)
		default:
			logger.Error("code verification failed: internal error", "error", err.Error())
			respondError(w, "failed to verify reset code", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("reset code verified")

	respondJSON(w, map[string]string{
		"message": "Code verified. Use the ticket to set a new password.",
		"ticket":  ticket,
	}, http.StatusOK)
}

// ResetPassword completes a password reset
// @Summary      Set a new password
// @Description  Redeem the ticket from code verification and overwrite the password. The ticket works once.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Ticket and new password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid ticket or password"
// @Router       /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		respondError(w, "passwords do not match", httputil.CodeValidationFailed, http.StatusBadRequest)
		return
	}

	err := h.service.CompleteReset(r.Context(), req.Ticket, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrResetTicketNotFound):
			logger.Warn("password reset failed: invalid or expired ticket")
			respondError(w, "invalid or expired reset ticket", httputil.CodeInvalidResetTicket, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			logger.Warn("password reset failed: validation error", "error", err.Error())
			respondError(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
		default:
			logger.Error("password reset failed: internal error", "error", err.Error())
			respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset completed")

	respondJSON(w, map[string]string{
		"message": "Password reset successfully. You can now login with your new password.",
	}, http.StatusOK)
}

// limitExceeded applies the per-IP rate limit for a purpose and writes the
// 429 response when the caller is over it
func (h *Handler) limitExceeded(w http.ResponseWriter, r *http.Request, ip, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		// Continue despite error to avoid blocking legitimate requests
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	return false
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	// RemoteAddr format is "IP:port", extract just the IP
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
