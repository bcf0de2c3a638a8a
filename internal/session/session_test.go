package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"auction-marketplace/internal/biddingerrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// captureMailer remembers the last code sent to each address
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendOTP(email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[email] = code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

func newTestService() (*Service, *captureMailer) {
	mailer := &captureMailer{}
	svc := NewService(Options{
		OTPTTL:     5 * time.Minute,
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, mailer)
	return svc, mailer
}

// register runs the otp + signup flow for email
func register(t *testing.T, svc *Service, mailer *captureMailer, name, email, password string) {
	t.Helper()
	require.NoError(t, svc.SendOTP(email))
	require.NoError(t, svc.VerifyOTP(email, mailer.code(email)))
	_, err := svc.Signup(name, email, password)
	require.NoError(t, err)
}

func TestService_OTP(t *testing.T) {
	t.Parallel()

	svc, mailer := newTestService()
	require.NoError(t, svc.SendOTP("Alice@Example.com"))

	code := mailer.code("alice@example.com")
	require.Len(t, code, 6)

	err := svc.VerifyOTP("alice@example.com", "not-it")
	require.True(t, errors.Is(err, biddingerrors.ErrInvalidOTP))

	require.NoError(t, svc.VerifyOTP("alice@example.com", code))

	// codes are single use
	err = svc.VerifyOTP("alice@example.com", code)
	require.True(t, errors.Is(err, biddingerrors.ErrInvalidOTP))

	t.Run("expired_code", func(t *testing.T) {
		svc, mailer := newTestService()
		require.NoError(t, svc.SendOTP("bob@example.com"))
		svc.now = func() time.Time { return time.Now().Add(10 * time.Minute) }

		err := svc.VerifyOTP("bob@example.com", mailer.code("bob@example.com"))
		require.True(t, errors.Is(err, biddingerrors.ErrInvalidOTP))
	})

	t.Run("empty_email", func(t *testing.T) {
		err := svc.SendOTP("  ")
		require.True(t, errors.Is(err, biddingerrors.ErrInvalidOTP))
	})
}

func TestService_Signup(t *testing.T) {
	t.Parallel()

	svc, mailer := newTestService()
	register(t, svc, mailer, "Alice", "alice@example.com", "secret")

	tests := []struct {
		name      string
		setup     func()
		email     string
		password  string
		wantError error
	}{
		{name: "unverified_email", email: "carol@example.com", password: "pw", wantError: biddingerrors.ErrEmailNotVerified},
		{
			name: "duplicate_email",
			setup: func() {
				require.NoError(t, svc.SendOTP("alice@example.com"))
				require.NoError(t, svc.VerifyOTP("alice@example.com", mailer.code("alice@example.com")))
			},
			email:     "alice@example.com",
			password:  "pw",
			wantError: biddingerrors.ErrUserExists,
		},
		{name: "missing_password", email: "dave@example.com", wantError: biddingerrors.ErrInvalidCredentials},
	}

	for _, tc := range tests {
		if tc.setup != nil {
			tc.setup()
		}
		_, err := svc.Signup("Someone", tc.email, tc.password)
		require.True(t, errors.Is(err, tc.wantError), "%s: expected error: %v, got: %v", tc.name, tc.wantError, err)
	}
}

func TestService_LoginLogoutVerify(t *testing.T) {
	t.Parallel()

	svc, mailer := newTestService()
	register(t, svc, mailer, "Alice", "alice@example.com", "secret")

	_, _, err := svc.Login("alice@example.com", "wrong")
	require.True(t, errors.Is(err, biddingerrors.ErrInvalidCredentials))

	_, _, err = svc.Login("nobody@example.com", "secret")
	require.True(t, errors.Is(err, biddingerrors.ErrInvalidCredentials))

	token, user, err := svc.Login("ALICE@example.com", "secret")
	require.NoError(t, err)
	_, err = uuid.Parse(token)
	require.NoError(t, err, "token should be a valid UUID")
	require.Equal(t, "Alice", user.Name)

	verified, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, user.UserID, verified.UserID)

	updated, err := svc.SetProfileImage(user.UserID, "http://localhost/uploads/p.png")
	require.NoError(t, err)
	require.Equal(t, "http://localhost/uploads/p.png", updated.ProfileImageURL)

	svc.Logout(token)
	svc.Logout(token)
	_, err = svc.Verify(token)
	require.True(t, errors.Is(err, biddingerrors.ErrUnauthenticated))

	_, err = svc.Verify("")
	require.True(t, errors.Is(err, biddingerrors.ErrUnauthenticated))

	t.Run("expired_session", func(t *testing.T) {
		token, _, err := svc.Login("alice@example.com", "secret")
		require.NoError(t, err)

		svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err = svc.Verify(token)
		require.True(t, errors.Is(err, biddingerrors.ErrUnauthenticated))
	})
}
