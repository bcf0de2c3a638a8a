package session

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/utils"

	"golang.org/x/crypto/bcrypt"
)

// Mailer delivers one-time passwords to users
type Mailer interface {
	SendOTP(email, code string) error
}

// LogMailer writes the one-time password to the application log
type LogMailer struct{}

// SendOTP logs the code instead of emailing it
func (LogMailer) SendOTP(email, code string) error {
	utils.Info("otp issued", map[string]any{"email": email, "otp": code})
	return nil
}

// Options tune the identity service
type Options struct {
	OTPTTL     time.Duration
	SessionTTL time.Duration
	BcryptCost int
}

type otpEntry struct {
	code      string
	expiresAt time.Time
}

type sessionEntry struct {
	userID    string
	expiresAt time.Time
}

// Service keeps users, pending email verifications and login sessions
type Service struct {
	mu       sync.Mutex
	opts     Options
	mailer   Mailer
	now      func() time.Time
	users    map[string]*models.User // key: userID
	byEmail  map[string]string       // key: normalized email -> userID
	otps     map[string]otpEntry     // key: normalized email
	verified map[string]bool         // key: normalized email
	sessions map[string]sessionEntry // key: token
}

// NewService creates an identity service
func NewService(opts Options, mailer Mailer) *Service {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Service{
		opts:     opts,
		mailer:   mailer,
		now:      time.Now,
		users:    make(map[string]*models.User),
		byEmail:  make(map[string]string),
		otps:     make(map[string]otpEntry),
		verified: make(map[string]bool),
		sessions: make(map[string]sessionEntry),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SendOTP issues a fresh six digit code for email
func (s *Service) SendOTP(email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("session: %w - empty email", biddingerrors.ErrInvalidOTP)
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return fmt.Errorf("session: generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	s.mu.Lock()
	s.otps[email] = otpEntry{code: code, expiresAt: s.now().Add(s.opts.OTPTTL)}
	s.mu.Unlock()

	if err := s.mailer.SendOTP(email, code); err != nil {
		return fmt.Errorf("session: deliver otp to %s: %w", email, err)
	}
	return nil
}

// VerifyOTP marks email as verified when code matches an unexpired otp
func (s *Service) VerifyOTP(email, code string) error {
	email = normalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.otps[email]
	if !ok || s.now().After(entry.expiresAt) ||
		subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) != 1 {
		return fmt.Errorf("session: %w", biddingerrors.ErrInvalidOTP)
	}

	delete(s.otps, email)
	s.verified[email] = true
	return nil
}

// Signup registers a user whose email has been verified
func (s *Service) Signup(name, email, password string) (models.User, error) {
	email = normalizeEmail(email)
	if strings.TrimSpace(name) == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("session: %w - name, email and password are required", biddingerrors.ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("session: hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.verified[email] {
		return models.User{}, fmt.Errorf("session: %w - %s", biddingerrors.ErrEmailNotVerified, email)
	}
	if _, exists := s.byEmail[email]; exists {
		return models.User{}, fmt.Errorf("session: %w - %s", biddingerrors.ErrUserExists, email)
	}

	user := &models.User{
		UserID:       utils.GenerateID(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	s.users[user.UserID] = user
	s.byEmail[email] = user.UserID
	delete(s.verified, email)

	return *user, nil
}

// Login checks credentials and opens a session, returning its token
func (s *Service) Login(email, password string) (string, models.User, error) {
	email = normalizeEmail(email)

	s.mu.Lock()
	userID, ok := s.byEmail[email]
	var user models.User
	if ok {
		user = *s.users[userID]
	}
	s.mu.Unlock()

	if !ok {
		return "", models.User{}, fmt.Errorf("session: %w", biddingerrors.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", models.User{}, fmt.Errorf("session: %w", biddingerrors.ErrInvalidCredentials)
	}

	token := utils.GenerateID()

	s.mu.Lock()
	s.sessions[token] = sessionEntry{userID: userID, expiresAt: s.now().Add(s.opts.SessionTTL)}
	s.mu.Unlock()

	return token, user, nil
}

// Logout ends the session behind token. Unknown tokens are ignored.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
}

// Verify resolves token to the signed-in user
func (s *Service) Verify(token string) (models.User, error) {
	if token == "" {
		return models.User{}, fmt.Errorf("session: %w - missing token", biddingerrors.ErrUnauthenticated)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return models.User{}, fmt.Errorf("session: %w - unknown token", biddingerrors.ErrUnauthenticated)
	}
	if s.now().After(entry.expiresAt) {
		delete(s.sessions, token)
		return models.User{}, fmt.Errorf("session: %w - token expired", biddingerrors.ErrUnauthenticated)
	}

	user, ok := s.users[entry.userID]
	if !ok {
		return models.User{}, fmt.Errorf("session: %w - user removed", biddingerrors.ErrUnauthenticated)
	}
	return *user, nil
}

// SetProfileImage records the profile picture URL for userID
func (s *Service) SetProfileImage(userID, url string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return models.User{}, fmt.Errorf("session: %w - unknown user %s", biddingerrors.ErrUnauthenticated, userID)
	}
	user.ProfileImageURL = url
	return *user, nil
}
