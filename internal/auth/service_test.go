package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"stocktrack/internal/logging"
	"stocktrack/internal/user"
)

// fakeUserStore is an in-memory UserStore with the same duplicate semantics
// as the Postgres repository
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*user.User)}
}

func (s *fakeUserStore) Create(_ context.Context, acc user.NewAccount) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == acc.Username {
			return nil, user.ErrDuplicateUsername
		}
		if u.Email == acc.Email {
			return nil, user.ErrDuplicateEmail
		}
	}

	u := &user.User{
		ID:           uuid.New(),
		Username:     acc.Username,
		Email:        acc.Email,
		FullName:     acc.FullName,
		Department:   acc.Department,
		Reason:       acc.Reason,
		PasswordHash: acc.PasswordHash,
		Role:         acc.Role,
		Status:       acc.Status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// fakeResetCodeStore mirrors the conditional-update consumption of the
// Postgres repository
type fakeResetCodeStore struct {
	mu    sync.Mutex
	codes []*ResetCode
}

func (s *fakeResetCodeStore) Create(_ context.Context, userID uuid.UUID, code string, expiresAt time.Time) (*ResetCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc := &ResetCode{
		ID:        uuid.New(),
		UserID:    userID,
		Code:      code,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	s.codes = append(s.codes, rc)
	return rc, nil
}

func (s *fakeResetCodeStore) FindByUserAndCode(_ context.Context, userID uuid.UUID, code string) (*ResetCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rc := range s.codes {
		if rc.UserID == userID && rc.Code == code && !rc.Consumed {
			copied := *rc
			return &copied, nil
		}
	}
	return nil, ErrResetCodeNotFound
}

func (s *fakeResetCodeStore) Consume(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rc := range s.codes {
		if rc.ID == id && !rc.Consumed {
			rc.Consumed = true
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeResetCodeStore) SweepExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	var kept []*ResetCode
	var removed int64
	for _, rc := range s.codes {
		if rc.ExpiresAt.Before(now) {
			removed++
			continue
		}
		kept = append(kept, rc)
	}
	s.codes = kept
	return removed, nil
}

// fakeTicketStore redeems each ticket at most once
type fakeTicketStore struct {
	mu      sync.Mutex
	tickets map[string]uuid.UUID
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{tickets: make(map[string]uuid.UUID)}
}

func (s *fakeTicketStore) Store(_ context.Context, ticket string, userID uuid.UUID, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket] = userID
	return nil
}

func (s *fakeTicketStore) Redeem(_ context.Context, ticket string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tickets[ticket]
	if !ok {
		return uuid.Nil, ErrResetTicketNotFound
	}
	delete(s.tickets, ticket)
	return userID, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]uuid.UUID
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]uuid.UUID)}
}

func (s *fakeSessionStore) Store(_ context.Context, userID uuid.UUID, token string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = userID
	return nil
}

func (s *fakeSessionStore) Lookup(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[token]
	if !ok {
		return uuid.Nil, ErrSessionNotFound
	}
	return userID, nil
}

func (s *fakeSessionStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, token)
	return nil
}

func (s *fakeSessionStore) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, id := range s.sessions {
		if id == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

func (s *fakeSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type fakeEmailSender struct {
	mu        sync.Mutex
	sent      []string // codes in send order
	failWith  error
	lastEmail string
}

func (s *fakeEmailSender) SendResetCode(_ context.Context, toEmail, _, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.sent = append(s.sent, code)
	s.lastEmail = toEmail
	return nil
}

func (s *fakeEmailSender) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return ""
	}
	return s.sent[len(s.sent)-1]
}

type serviceFixture struct {
	service  *Service
	users    *fakeUserStore
	sessions *fakeSessionStore
	codes    *fakeResetCodeStore
	tickets  *fakeTicketStore
	email    *fakeEmailSender
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	pasetoService, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	f := &serviceFixture{
		users:    newFakeUserStore(),
		sessions: newFakeSessionStore(),
		codes:    &fakeResetCodeStore{},
		tickets:  newFakeTicketStore(),
		email:    &fakeEmailSender{},
	}
	f.service = NewService(
		f.users,
		f.sessions,
		f.codes,
		f.tickets,
		pasetoService,
		f.email,
		logging.NewLogger(true),
		15*time.Minute,
		7*24*time.Hour,
		15*time.Minute,
		10*time.Minute,
	)
	return f
}

func (f *serviceFixture) registerApproved(t *testing.T, username, email, password string) *user.User {
	t.Helper()

	u, err := f.service.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           email,
		FullName:        "Test User",
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)
	u.Status = user.StatusApproved
	return u
}

func TestRegister_CreatesPendingUser(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	u, err := f.service.Register(context.Background(), RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		FullName:        "Alice Doe",
		Department:      "Warehouse",
		Reason:          "need inventory access",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	require.NoError(t, err)
	require.Equal(t, user.StatusPending, u.Status)
	require.Equal(t, user.RoleUser, u.Role)
	require.NotEqual(t, "secret123", u.PasswordHash)
	require.True(t, VerifyPassword(u.PasswordHash, "secret123"))
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{
			name:    "missing username",
			input:   RegisterInput{Email: "a@b.com", FullName: "A", Password: "secret1", ConfirmPassword: "secret1"},
			wantErr: ErrMissingFields,
		},
		{
			name:    "missing email",
			input:   RegisterInput{Username: "a", FullName: "A", Password: "secret1", ConfirmPassword: "secret1"},
			wantErr: ErrMissingFields,
		},
		{
			name:    "bad email",
			input:   RegisterInput{Username: "a", Email: "not-an-email", FullName: "A", Password: "secret1", ConfirmPassword: "secret1"},
			wantErr: ErrInvalidEmailFormat,
		},
		{
			name:    "short password",
			input:   RegisterInput{Username: "a", Email: "a@b.com", FullName: "A", Password: "1234", ConfirmPassword: "1234"},
			wantErr: ErrPasswordTooShort,
		},
		{
			name:    "password mismatch",
			input:   RegisterInput{Username: "a", Email: "a@b.com", FullName: "A", Password: "secret1", ConfirmPassword: "secret2"},
			wantErr: ErrPasswordMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Register(ctx, tc.input)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestRegister_Duplicates(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.service.Register(ctx, RegisterInput{
		Username: "alice", Email: "alice@example.com", FullName: "Alice",
		Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)

	_, err = f.service.Register(ctx, RegisterInput{
		Username: "alice", Email: "other@example.com", FullName: "Alice Two",
		Password: "secret1", ConfirmPassword: "secret1",
	})
	require.ErrorIs(t, err, user.ErrDuplicateUsername)

	_, err = f.service.Register(ctx, RegisterInput{
		Username: "alice2", Email: "alice@example.com", FullName: "Alice Two",
		Password: "secret1", ConfirmPassword: "secret1",
	})
	require.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestCreateAdmin_SkipsApprovalQueue(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	admin, err := f.service.CreateAdmin(context.Background(), "boss", "boss@example.com", "The Boss", "secret1")
	require.NoError(t, err)
	require.Equal(t, user.RoleAdmin, admin.Role)
	require.Equal(t, user.StatusApproved, admin.Status)
}

func TestLogin_StatusGate(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	pending, err := f.service.Register(ctx, RegisterInput{
		Username: "pending", Email: "p@example.com", FullName: "P",
		Password: "secret1", ConfirmPassword: "secret1",
	})
	require.NoError(t, err)

	_, _, err = f.service.Login(ctx, "pending", "secret1")
	require.ErrorIs(t, err, ErrAccountPending)

	pending.Status = user.StatusRejected
	_, _, err = f.service.Login(ctx, "pending", "secret1")
	require.ErrorIs(t, err, ErrAccountRejected)

	pending.Status = user.StatusApproved
	account, tokens, err := f.service.Login(ctx, "pending", "secret1")
	require.NoError(t, err)
	require.Equal(t, pending.ID, account.ID)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.Equal(t, "Bearer", tokens.TokenType)
	require.Equal(t, 1, f.sessions.count())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	f.registerApproved(t, "alice", "alice@example.com", "secret1")

	// Unknown username and wrong password look identical to the caller
	_, _, err := f.service.Login(ctx, "nobody", "secret1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.service.Login(ctx, "alice", "wrongpass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = f.service.Login(ctx, "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_AdminBypassesStatusGate(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	admin, err := f.service.CreateAdmin(ctx, "boss", "boss@example.com", "The Boss", "secret1")
	require.NoError(t, err)

	// Even a non-approved status does not lock out an administrator
	admin.Status = user.StatusPending
	_, _, err = f.service.Login(ctx, "boss", "secret1")
	require.NoError(t, err)
}

func TestRefresh_RotatesToken(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	f.registerApproved(t, "alice", "alice@example.com", "secret1")
	_, tokens, err := f.service.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	fresh, err := f.service.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, tokens.RefreshToken, fresh.RefreshToken)

	// The old token is dead after rotation
	_, err = f.service.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrSessionInvalid)

	// The new one works
	_, err = f.service.Refresh(ctx, fresh.RefreshToken)
	require.NoError(t, err)
}

func TestLogout_RevokesSession(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	f.registerApproved(t, "alice", "alice@example.com", "secret1")
	_, tokens, err := f.service.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, tokens.RefreshToken))
	_, err = f.service.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrSessionInvalid)

	// Logging out an already dead token is not an error
	require.NoError(t, f.service.Logout(ctx, tokens.RefreshToken))
}

func TestRequestPasswordReset_StoresAndEmailsCode(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	u := f.registerApproved(t, "alice", "alice@example.com", "secret1")

	require.NoError(t, f.service.RequestPasswordReset(ctx, "alice@example.com"))

	code := f.email.lastCode()
	require.Len(t, code, 6)
	require.Equal(t, "alice@example.com", f.email.lastEmail)

	stored, err := f.codes.FindByUserAndCode(ctx, u.ID, code)
	require.NoError(t, err)
	require.False(t, stored.Consumed)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), stored.ExpiresAt, 5*time.Second)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)

	err := f.service.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestRequestPasswordReset_DeliveryFailureKeepsCode(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	u := f.registerApproved(t, "alice", "alice@example.com", "secret1")
	f.email.failWith = context.DeadlineExceeded

	err := f.service.RequestPasswordReset(ctx, "alice@example.com")
	require.ErrorIs(t, err, ErrEmailDelivery)

	// The code was stored before the send attempt and stays valid
	f.codes.mu.Lock()
	require.Len(t, f.codes.codes, 1)
	require.Equal(t, u.ID, f.codes.codes[0].UserID)
	f.codes.mu.Unlock()
}

func TestVerifyResetCode_FullFlow(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	u := f.registerApproved(t, "alice", "alice@example.com", "oldpassword")
	_, tokens, err := f.service.Login(ctx, "alice", "oldpassword")
	require.NoError(t, err)

	require.NoError(t, f.service.RequestPasswordReset(ctx, "alice@example.com"))
	code := f.email.lastCode()

	ticket, err := f.service.VerifyResetCode(ctx, "alice@example.com", code)
	require.NoError(t, err)
	require.NotEmpty(t, ticket)

	// Verification consumed the code; a second attempt fails
	_, err = f.service.VerifyResetCode(ctx, "alice@example.com", code)
	require.ErrorIs(t, err, ErrInvalidResetCode)

	require.NoError(t, f.service.CompleteReset(ctx, ticket, "newpassword"))

	account, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, VerifyPassword(account.PasswordHash, "newpassword"))
	require.False(t, VerifyPassword(account.PasswordHash, "oldpassword"))

	// All sessions are revoked after the password change
	_, err = f.service.Refresh(ctx, tokens.RefreshToken)
	require.ErrorIs(t, err, ErrSessionInvalid)

	// The ticket works exactly once
	err = f.service.CompleteReset(ctx, ticket, "anotherpassword")
	require.ErrorIs(t, err, ErrResetTicketNotFound)
}

func TestVerifyResetCode_WrongCode(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	f.registerApproved(t, "alice", "alice@example.com", "secret1")
	require.NoError(t, f.service.RequestPasswordReset(ctx, "alice@example.com"))

	_, err := f.service.VerifyResetCode(ctx, "alice@example.com", "000000")
	if f.email.lastCode() == "000000" {
		t.Skip("generated code collided with the guess")
	}
	require.ErrorIs(t, err, ErrInvalidResetCode)
}

func TestVerifyResetCode_Expired(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	u := f.registerApproved(t, "alice", "alice@example.com", "secret1")
	expired, err := f.codes.Create(ctx, u.ID, "123456", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = f.service.VerifyResetCode(ctx, "alice@example.com", "123456")
	require.ErrorIs(t, err, ErrResetCodeExpired)

	// Expired codes are rejected without being consumed
	stored, err := f.codes.FindByUserAndCode(ctx, u.ID, "123456")
	require.NoError(t, err)
	require.Equal(t, expired.ID, stored.ID)
	require.False(t, stored.Consumed)
}

func TestCompleteReset_ShortPasswordKeepsTicket(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	f.registerApproved(t, "alice", "alice@example.com", "secret1")
	require.NoError(t, f.service.RequestPasswordReset(ctx, "alice@example.com"))

	ticket, err := f.service.VerifyResetCode(ctx, "alice@example.com", f.email.lastCode())
	require.NoError(t, err)

	// Password validation happens before the ticket is redeemed
	err = f.service.CompleteReset(ctx, ticket, "123")
	require.ErrorIs(t, err, ErrPasswordTooShort)

	require.NoError(t, f.service.CompleteReset(ctx, ticket, "longenough"))
}

func TestSweepExpiredCodes(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	u := f.registerApproved(t, "alice", "alice@example.com", "secret1")

	_, err := f.codes.Create(ctx, u.ID, "111111", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = f.codes.Create(ctx, u.ID, "222222", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = f.codes.Create(ctx, u.ID, "333333", time.Now().Add(time.Hour))
	require.NoError(t, err)

	removed, err := f.service.SweepExpiredCodes(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	// Live codes survive the sweep; a second pass removes nothing
	removed, err = f.service.SweepExpiredCodes(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, removed)

	_, err = f.codes.FindByUserAndCode(ctx, u.ID, "333333")
	require.NoError(t, err)
}

func TestRegister_ConcurrentDuplicates(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	const attempts = 16
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.service.Register(ctx, RegisterInput{
				Username:        "alice",
				Email:           "alice@example.com",
				FullName:        "Alice",
				Password:        "secret1",
				ConfirmPassword: "secret1",
			})
		}()
	}
	wg.Wait()

	// Exactly one registration wins; the rest hit the uniqueness check
	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		require.ErrorIs(t, err, user.ErrDuplicateUsername)
	}
	require.Equal(t, 1, created)

	f.users.mu.Lock()
	require.Len(t, f.users.users, 1)
	f.users.mu.Unlock()
}

func TestVerifyResetCode_ConcurrentConsumesOnce(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	f.registerApproved(t, "alice", "alice@example.com", "secret1")
	require.NoError(t, f.service.RequestPasswordReset(ctx, "alice@example.com"))
	code := f.email.lastCode()

	const attempts = 16
	tickets := make([]string, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets[i], errs[i] = f.service.VerifyResetCode(ctx, "alice@example.com", code)
		}()
	}
	wg.Wait()

	// The code is consumed exactly once; a single ticket is issued
	var issued []string
	for i, err := range errs {
		if err == nil {
			issued = append(issued, tickets[i])
			continue
		}
		require.ErrorIs(t, err, ErrInvalidResetCode)
	}
	require.Len(t, issued, 1)

	require.NoError(t, f.service.CompleteReset(ctx, issued[0], "newpassword"))
}
