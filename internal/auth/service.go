package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"stocktrack/internal/logging"
	"stocktrack/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountPending     = errors.New("account is pending admin approval")
	ErrAccountRejected    = errors.New("account has been rejected")

	ErrMissingFields      = errors.New("all required fields must be filled in")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")

	ErrUserNotFound     = errors.New("no account found for that email")
	ErrInvalidResetCode = errors.New("invalid reset code")
	ErrResetCodeExpired = errors.New("reset code has expired")
	ErrEmailDelivery    = errors.New("failed to deliver reset email")
	ErrSessionInvalid   = errors.New("invalid or expired refresh token")
)

const minPasswordLen = 6

// RegisterInput is the payload of a self-service registration
type RegisterInput struct {
	Username        string
	Email           string
	FullName        string
	Department      string
	Reason          string
	Password        string
	ConfirmPassword string
}

// AuthTokens is an access/refresh token pair
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Service handles authentication, account registration, and the password
// reset code lifecycle
type Service struct {
	users    UserStore
	sessions SessionStore
	codes    ResetCodeStore
	tickets  TicketStore
	tokens   *PasetoService
	email    EmailSender
	logger   *logging.Logger

	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
	resetCodeDuration    time.Duration
	resetTicketDuration  time.Duration
}

func NewService(
	users UserStore,
	sessions SessionStore,
	codes ResetCodeStore,
	tickets TicketStore,
	tokens *PasetoService,
	email EmailSender,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
	refreshTokenDuration time.Duration,
	resetCodeDuration time.Duration,
	resetTicketDuration time.Duration,
) *Service {
	return &Service{
		users:                users,
		sessions:             sessions,
		codes:                codes,
		tickets:              tickets,
		tokens:               tokens,
		email:                email,
		logger:               logger,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
		resetCodeDuration:    resetCodeDuration,
		resetTicketDuration:  resetTicketDuration,
	}
}

// Register creates a pending account awaiting administrator approval
func (s *Service) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	if in.Username == "" || in.Email == "" || in.FullName == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if len(in.Password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	passwordHash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, user.NewAccount{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		Department:   in.Department,
		Reason:       in.Reason,
		PasswordHash: passwordHash,
		Role:         user.RoleUser,
		Status:       user.StatusPending,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUsername) || errors.Is(err, user.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// CreateAdmin creates an administrator account that skips the approval
// queue entirely
func (s *Service) CreateAdmin(ctx context.Context, username, email, fullName, password string) (*user.User, error) {
	if username == "" || email == "" || fullName == "" || password == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, user.NewAccount{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         user.RoleAdmin,
		Status:       user.StatusApproved,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUsername) || errors.Is(err, user.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	return newUser, nil
}

// Login authenticates credentials and applies the approval status gate.
// Unknown usernames and wrong passwords collapse into the same error.
func (s *Service) Login(ctx context.Context, username, password string) (*user.User, *AuthTokens, error) {
	if username == "" || password == "" {
		return nil, nil, ErrInvalidCredentials
	}

	account, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(account.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	if !account.CanLogin() {
		switch account.Status {
		case user.StatusPending:
			return nil, nil, ErrAccountPending
		case user.StatusRejected:
			return nil, nil, ErrAccountRejected
		default:
			return nil, nil, ErrInvalidCredentials
		}
	}

	tokens, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	return account, tokens, nil
}

// Refresh rotates a refresh token and returns a fresh token pair
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	userID, err := s.sessions.Lookup(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	// Rotate before issuing so a leaked token cannot be replayed
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to revoke session: %w", err)
	}

	account, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	tokens, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	return tokens, nil
}

// Logout revokes a refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	err := s.sessions.Revoke(ctx, refreshToken)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

// RequestPasswordReset issues a 6-digit code, persists it with a 15-minute
// expiry, and emails it. The stored code stays valid even when delivery
// fails; the delivery error is surfaced so support can intervene.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("failed to generate reset code: %w", err)
	}

	expiresAt := time.Now().Add(s.resetCodeDuration)
	if _, err := s.codes.Create(ctx, account.ID, code, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}

	if err := s.email.SendResetCode(ctx, account.Email, account.Username, code); err != nil {
		s.logger.Warn("reset code stored but email delivery failed",
			"user_id", account.ID, "error", err)
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	return nil
}

// VerifyResetCode checks a code against the stored records. A code is
// accepted only if it matches, is unconsumed, and is not past its expiry;
// acceptance consumes it and returns a one-time ticket that authorizes a
// single password change.
func (s *Service) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	account, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	record, err := s.codes.FindByUserAndCode(ctx, account.ID, code)
	if err != nil {
		if errors.Is(err, ErrResetCodeNotFound) {
			return "", ErrInvalidResetCode
		}
		return "", fmt.Errorf("failed to find reset code: %w", err)
	}

	// Expired codes are rejected but left unconsumed; the sweep reclaims them
	if !time.Now().Before(record.ExpiresAt) {
		return "", ErrResetCodeExpired
	}

	consumed, err := s.codes.Consume(ctx, record.ID)
	if err != nil {
		return "", fmt.Errorf("failed to consume reset code: %w", err)
	}
	if !consumed {
		// A concurrent verification won the conditional update
		return "", ErrInvalidResetCode
	}

	ticket, err := generateRandomToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate reset ticket: %w", err)
	}

	if err := s.tickets.Store(ctx, ticket, account.ID, s.resetTicketDuration); err != nil {
		return "", fmt.Errorf("failed to store reset ticket: %w", err)
	}

	return ticket, nil
}

// CompleteReset redeems a ticket from VerifyResetCode and overwrites the
// password. The ticket is single-use; all refresh tokens of the user are
// revoked afterwards.
func (s *Service) CompleteReset(ctx context.Context, ticket, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	userID, err := s.tickets.Redeem(ctx, ticket)
	if err != nil {
		if errors.Is(err, ErrResetTicketNotFound) {
			return ErrResetTicketNotFound
		}
		return fmt.Errorf("failed to redeem reset ticket: %w", err)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password reset",
			"user_id", userID, "error", err)
	}

	return nil
}

// SweepExpiredCodes deletes all reset codes past their expiration and
// returns how many were removed. Safe to invoke repeatedly.
func (s *Service) SweepExpiredCodes(ctx context.Context) (int64, error) {
	return s.codes.SweepExpired(ctx)
}

func (s *Service) issueTokens(ctx context.Context, account *user.User) (*AuthTokens, error) {
	accessToken, err := s.tokens.CreateToken(account.ID, account.Username, account.Role, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshTokenDuration)
	if err := s.sessions.Store(ctx, account.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
	}, nil
}
