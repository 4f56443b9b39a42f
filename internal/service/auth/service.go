package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"donorlink/internal/config"
	"donorlink/internal/domain"
	"donorlink/internal/repository"
	"donorlink/internal/service/email"
)

var (
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrInvalidInput          = errors.New("email and password are required")
	ErrInvalidRole           = errors.New("unknown role")
	ErrRegistrationRejected  = errors.New("registration rejected")
	ErrOTPMismatch           = errors.New("verification code does not match")
	ErrOTPExpired            = errors.New("verification code has expired")
	ErrNoPendingRegistration = errors.New("no registration is pending verification")
	ErrNotAuthenticated      = errors.New("no authenticated session")
	ErrInvalidToken          = errors.New("invalid or expired token")
)

// State is the session lifecycle phase. Loading only exists between
// construction and the first Hydrate; every operation leaves the manager in
// one of the other three states.
type State string

const (
	StateLoading             State = "loading"
	StateAnonymous           State = "anonymous"
	StatePendingVerification State = "pending_verification"
	StateAuthenticated       State = "authenticated"
)

type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult is returned by every operation that ends in an authenticated
// session. RedirectTo carries the role's landing destination.
type LoginResult struct {
	Session     *domain.Session `json:"session"`
	AccessToken string          `json:"access_token"`
	ExpiresIn   int64           `json:"expires_in"`
	RedirectTo  string          `json:"redirect_to"`
}

// RegisterResult carries the generated OTP back to the caller for
// out-of-band display. A production deployment delivers it by email only.
type RegisterResult struct {
	Email     string    `json:"email"`
	OTP       string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service interface {
	Hydrate(ctx context.Context) (State, error)
	Login(ctx context.Context, input domain.LoginInput) (*LoginResult, error)
	Register(ctx context.Context, input domain.RegisterInput) (*RegisterResult, error)
	VerifyOTP(ctx context.Context, code string) (*LoginResult, error)
	Logout(ctx context.Context) error
	UpdateUser(ctx context.Context, input domain.UpdateSessionInput) (*domain.Session, error)
	CurrentSession() *domain.Session
	State() State
	ValidateAccessToken(token string) (*Claims, error)
}

// service owns the authentication state machine. A single mutex serializes
// every mutating call so the durable write and the in-memory transition are
// observed as one atomic step.
type service struct {
	mu       sync.Mutex
	store    repository.KVStore
	gateway  Gateway
	emailSvc email.Service
	cfg      *config.Config

	state   State
	session *domain.Session
}

func NewService(store repository.KVStore, gateway Gateway, emailSvc email.Service, cfg *config.Config) Service {
	return &service{
		store:    store,
		gateway:  gateway,
		emailSvc: emailSvc,
		cfg:      cfg,
		state:    StateLoading,
	}
}

// Hydrate restores state from the durable store at startup. A malformed
// session record is discarded rather than treated as fatal.
func (s *service) Hydrate(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.store.Get(ctx, repository.KeySession)
	if err != nil {
		// Never leave the manager in Loading, not even on store failure.
		s.session = nil
		s.state = StateAnonymous
		return s.state, fmt.Errorf("failed to read session record: %w", err)
	}

	if blob != nil {
		var sess domain.Session
		if jsonErr := json.Unmarshal(blob, &sess); jsonErr == nil && sess.Role.IsValid() && sess.UserID != uuid.Nil {
			s.session = &sess
			s.state = StateAuthenticated
			return s.state, nil
		}
		if err := s.store.Delete(ctx, repository.KeySession); err != nil {
			s.session = nil
			s.state = StateAnonymous
			return s.state, fmt.Errorf("failed to discard corrupt session record: %w", err)
		}
	}

	s.session = nil
	s.state = StateAnonymous

	// A pending registration surviving a restart keeps the OTP flow resumable.
	pending, err := s.store.Get(ctx, repository.KeyPendingRegistration)
	if err != nil {
		return s.state, fmt.Errorf("failed to read pending registration: %w", err)
	}
	if pending != nil {
		s.state = StatePendingVerification
	}

	return s.state, nil
}

func (s *service) Login(ctx context.Context, input domain.LoginInput) (*LoginResult, error) {
	if input.Email == "" || !strings.Contains(input.Email, "@") || input.Password == "" {
		return nil, ErrInvalidInput
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	result, err := s.gateway.Login(ctx, input)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, ErrInvalidCredentials
	}
	// The role set is closed; a gateway-supplied session is a trust boundary
	// like any other and gets the same validation.
	if result.User != nil && !result.User.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := result.User
	if sess == nil {
		sess = &domain.Session{
			UserID:      uuid.New(),
			DisplayName: displayNameFromEmail(input.Email),
			Email:       input.Email,
			Role:        role,
			Verified:    true,
			Status:      domain.StatusActive,
			CreatedAt:   time.Now().UTC(),
		}
	}

	if err := s.persistSession(ctx, sess); err != nil {
		return nil, err
	}
	s.session = sess
	s.state = StateAuthenticated

	return s.loginResult(sess)
}

// Register stores a pending registration plus its one-time code. The session
// state machine is untouched beyond entering the pending phase; only a
// successful VerifyOTP produces a Session.
func (s *service) Register(ctx context.Context, input domain.RegisterInput) (*RegisterResult, error) {
	if input.Email == "" || !strings.Contains(input.Email, "@") || input.Password == "" {
		return nil, ErrInvalidInput
	}
	role, err := domain.ParseRole(input.Role)
	if err != nil {
		return nil, ErrInvalidRole
	}

	result, err := s.gateway.Register(ctx, input)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrRegistrationRejected, result.Message)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	code, err := generateOTP()
	if err != nil {
		return nil, err
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = displayNameFromEmail(input.Email)
	}

	now := time.Now().UTC()
	pending := &domain.PendingRegistration{
		UserID:       uuid.New(),
		DisplayName:  displayName,
		Email:        input.Email,
		Phone:        input.Phone,
		Role:         role,
		Location:     input.Location,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
	}
	otp := &domain.PendingOTP{
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, repository.KeyPendingRegistration, pending); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, repository.KeyPendingOTP, otp); err != nil {
		// Roll back the first write so a registration without a code to
		// verify it against cannot survive a partial failure.
		_ = s.store.Delete(ctx, repository.KeyPendingRegistration)
		return nil, err
	}
	if s.state != StateAuthenticated {
		s.state = StatePendingVerification
	}

	if s.emailSvc != nil {
		go func(toEmail, name, code string, ttl time.Duration) {
			if err := s.emailSvc.SendOTPEmail(context.Background(), toEmail, name, code, ttl); err != nil {
				log.Printf("Failed to send OTP email: %v", err)
			}
		}(pending.Email, pending.DisplayName, code, s.cfg.OTPTTL)
	}

	return &RegisterResult{
		Email:     pending.Email,
		OTP:       code,
		ExpiresAt: otp.ExpiresAt,
	}, nil
}

// VerifyOTP compares the submitted code against the stored one and, on a
// match, promotes the pending registration with a compare-and-clear so a
// racing second call cannot promote twice. A mismatch leaves both records in
// place for retry; expiry invalidates them together.
func (s *service) VerifyOTP(ctx context.Context, code string) (*LoginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	otp, err := s.loadOTP(ctx)
	if err != nil {
		return nil, err
	}

	if otp.Expired(time.Now()) {
		if err := s.store.Delete(ctx, repository.KeyPendingRegistration, repository.KeyPendingOTP); err != nil {
			return nil, fmt.Errorf("failed to discard expired registration: %w", err)
		}
		// Only a session-less verification falls back to anonymous; a user
		// who registered while already signed in keeps their session.
		if s.session == nil {
			s.state = StateAnonymous
		}
		return nil, ErrOTPExpired
	}

	if code != otp.Code {
		return nil, ErrOTPMismatch
	}

	pending, err := s.loadPendingRegistration(ctx)
	if err != nil {
		return nil, err
	}

	sess := pending.Promote()
	if err := s.persistSession(ctx, sess); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, repository.KeyPendingRegistration, repository.KeyPendingOTP); err != nil {
		return nil, fmt.Errorf("failed to clear pending registration: %w", err)
	}
	s.session = sess
	s.state = StateAuthenticated

	if s.emailSvc != nil {
		go func(toEmail, name string) {
			if err := s.emailSvc.SendWelcomeEmail(context.Background(), toEmail, name); err != nil {
				log.Printf("Failed to send welcome email: %v", err)
			}
		}(sess.Email, sess.DisplayName)
	}

	return s.loginResult(sess)
}

// Logout clears the session in memory and in the durable store. Idempotent.
func (s *service) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, repository.KeySession); err != nil {
		return fmt.Errorf("failed to clear session record: %w", err)
	}
	s.session = nil
	s.state = StateAnonymous
	return nil
}

// UpdateUser merges the whitelisted mutable fields into the current session
// and re-persists it. Role and UserID are not part of the input type, so they
// cannot change without re-authentication.
func (s *service) UpdateUser(ctx context.Context, input domain.UpdateSessionInput) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAuthenticated || s.session == nil {
		return nil, ErrNotAuthenticated
	}

	updated := *s.session
	if input.DisplayName != nil {
		updated.DisplayName = *input.DisplayName
	}
	if input.Email != nil {
		if !strings.Contains(*input.Email, "@") {
			return nil, ErrInvalidInput
		}
		updated.Email = *input.Email
	}
	if input.Phone != nil {
		updated.Phone = *input.Phone
	}
	if input.Location != nil {
		updated.Location = *input.Location
	}

	if err := s.persistSession(ctx, &updated); err != nil {
		return nil, err
	}
	s.session = &updated

	out := updated
	return &out, nil
}

func (s *service) CurrentSession() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	out := *s.session
	return &out
}

func (s *service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *service) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *service) loginResult(sess *domain.Session) (*LoginResult, error) {
	claims := &Claims{
		UserID: sess.UserID,
		Email:  sess.Email,
		Role:   sess.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.JWTAccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   sess.UserID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}

	out := *sess
	return &LoginResult{
		Session:     &out,
		AccessToken: signed,
		ExpiresIn:   int64(s.cfg.JWTAccessExpiry.Seconds()),
		RedirectTo:  sess.Role.DashboardPath(),
	}, nil
}

func (s *service) persistSession(ctx context.Context, sess *domain.Session) error {
	return s.persist(ctx, repository.KeySession, sess)
}

func (s *service) persist(ctx context.Context, key string, record any) error {
	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}
	if err := s.store.Set(ctx, key, blob); err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

func (s *service) loadOTP(ctx context.Context) (*domain.PendingOTP, error) {
	blob, err := s.store.Get(ctx, repository.KeyPendingOTP)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending code: %w", err)
	}
	if blob == nil {
		return nil, ErrNoPendingRegistration
	}

	var otp domain.PendingOTP
	if err := json.Unmarshal(blob, &otp); err != nil {
		// Corrupt record: treat as absent and drop its companion too.
		_ = s.store.Delete(ctx, repository.KeyPendingRegistration, repository.KeyPendingOTP)
		return nil, ErrNoPendingRegistration
	}
	return &otp, nil
}

func (s *service) loadPendingRegistration(ctx context.Context) (*domain.PendingRegistration, error) {
	blob, err := s.store.Get(ctx, repository.KeyPendingRegistration)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending registration: %w", err)
	}
	if blob == nil {
		return nil, ErrNoPendingRegistration
	}

	var pending domain.PendingRegistration
	if err := json.Unmarshal(blob, &pending); err != nil {
		_ = s.store.Delete(ctx, repository.KeyPendingRegistration, repository.KeyPendingOTP)
		return nil, ErrNoPendingRegistration
	}
	return &pending, nil
}

// generateOTP returns a uniformly random zero-padded 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// displayNameFromEmail derives a human name from the email local-part:
// dots and underscores become spaces, each word is capitalized.
func displayNameFromEmail(emailAddr string) string {
	local := emailAddr
	if at := strings.Index(emailAddr, "@"); at >= 0 {
		local = emailAddr[:at]
	}

	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_'
	})
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
