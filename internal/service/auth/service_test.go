package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"donorlink/internal/config"
	"donorlink/internal/domain"
	"donorlink/internal/repository"
	"donorlink/internal/service/auth"
	"donorlink/tests/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		JWTAccessExpiry: 15 * time.Minute,
		OTPTTL:          10 * time.Minute,
	}
}

func newTestService(store repository.KVStore, cfg *config.Config) auth.Service {
	return auth.NewService(store, auth.NewSimGateway(0), nil, cfg)
}

var otpPattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

func TestService_RegisterAndVerifyOTP(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newTestService(store, testConfig())

	result, err := svc.Register(ctx, domain.RegisterInput{
		Email:    "jane.doe@x.com",
		Password: "secret-password",
		Role:     "patient",
	})
	require.NoError(t, err)
	assert.Regexp(t, otpPattern, result.OTP)
	assert.Equal(t, auth.StatePendingVerification, svc.State())

	t.Run("mismatch leaves registration intact", func(t *testing.T) {
		_, err := svc.VerifyOTP(ctx, "000000")
		assert.ErrorIs(t, err, auth.ErrOTPMismatch)

		pending, err := store.Get(ctx, repository.KeyPendingRegistration)
		require.NoError(t, err)
		assert.NotNil(t, pending)
	})

	t.Run("match promotes exactly once", func(t *testing.T) {
		login, err := svc.VerifyOTP(ctx, result.OTP)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", login.Session.DisplayName)
		assert.Equal(t, domain.RolePatient, login.Session.Role)
		assert.True(t, login.Session.Verified)
		assert.Equal(t, domain.StatusActive, login.Session.Status)
		assert.Equal(t, "/patient", login.RedirectTo)
		assert.NotEmpty(t, login.AccessToken)
		assert.Equal(t, auth.StateAuthenticated, svc.State())

		_, err = svc.VerifyOTP(ctx, result.OTP)
		assert.ErrorIs(t, err, auth.ErrNoPendingRegistration)
	})

	t.Run("pending records cleared together", func(t *testing.T) {
		pending, err := store.Get(ctx, repository.KeyPendingRegistration)
		require.NoError(t, err)
		assert.Nil(t, pending)

		otp, err := store.Get(ctx, repository.KeyPendingOTP)
		require.NoError(t, err)
		assert.Nil(t, otp)
	})
}

func TestService_RegisterStoresHashedPassword(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newTestService(store, testConfig())

	_, err := svc.Register(ctx, domain.RegisterInput{
		Email:    "mary_ann@x.com",
		Password: "plain-password",
		Role:     "donor",
	})
	require.NoError(t, err)

	blob, err := store.Get(ctx, repository.KeyPendingRegistration)
	require.NoError(t, err)

	var pending domain.PendingRegistration
	require.NoError(t, json.Unmarshal(blob, &pending))
	assert.Equal(t, "Mary Ann", pending.DisplayName)
	assert.NotEmpty(t, pending.PasswordHash)
	assert.NotContains(t, pending.PasswordHash, "plain-password")
}

func TestService_VerifyOTPExpired(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	cfg := testConfig()
	cfg.OTPTTL = -time.Minute
	svc := newTestService(store, cfg)

	result, err := svc.Register(ctx, domain.RegisterInput{
		Email:    "late@x.com",
		Password: "secret-password",
		Role:     "donor",
	})
	require.NoError(t, err)

	_, err = svc.VerifyOTP(ctx, result.OTP)
	assert.ErrorIs(t, err, auth.ErrOTPExpired)

	pending, err := store.Get(ctx, repository.KeyPendingRegistration)
	require.NoError(t, err)
	assert.Nil(t, pending)

	otp, err := store.Get(ctx, repository.KeyPendingOTP)
	require.NoError(t, err)
	assert.Nil(t, otp)
	assert.Equal(t, auth.StateAnonymous, svc.State())
}

func TestService_VerifyOTPExpiredKeepsActiveSession(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	cfg := testConfig()
	cfg.OTPTTL = -time.Minute
	svc := newTestService(store, cfg)

	login, err := svc.Login(ctx, domain.LoginInput{Email: "a@b.c", Password: "x", Role: "donor"})
	require.NoError(t, err)

	// Registering a second account while signed in; its code has already
	// lapsed by the time it is submitted.
	result, err := svc.Register(ctx, domain.RegisterInput{
		Email:    "late@x.com",
		Password: "secret-password",
		Role:     "patient",
	})
	require.NoError(t, err)

	_, err = svc.VerifyOTP(ctx, result.OTP)
	assert.ErrorIs(t, err, auth.ErrOTPExpired)

	assert.Equal(t, auth.StateAuthenticated, svc.State())
	assert.Equal(t, login.Session, svc.CurrentSession())

	blob, err := store.Get(ctx, repository.KeySession)
	require.NoError(t, err)
	assert.NotNil(t, blob)
}

func TestService_VerifyOTPWithoutRegistration(t *testing.T) {
	svc := newTestService(repository.NewMemoryStore(), testConfig())

	_, err := svc.VerifyOTP(context.Background(), "123456")
	assert.ErrorIs(t, err, auth.ErrNoPendingRegistration)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc := newTestService(repository.NewMemoryStore(), testConfig())

		result, err := svc.Login(ctx, domain.LoginInput{
			Email:    "john_smith@hospital.org",
			Password: "secret",
			Role:     "hospital",
		})
		require.NoError(t, err)
		assert.Equal(t, "John Smith", result.Session.DisplayName)
		assert.Equal(t, domain.RoleHospital, result.Session.Role)
		assert.True(t, result.Session.Verified)
		assert.Equal(t, "/hospital", result.RedirectTo)
		assert.Equal(t, auth.StateAuthenticated, svc.State())

		claims, err := svc.ValidateAccessToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, result.Session.UserID, claims.UserID)
		assert.Equal(t, domain.RoleHospital, claims.Role)
	})

	t.Run("Malformed Input", func(t *testing.T) {
		svc := newTestService(repository.NewMemoryStore(), testConfig())

		_, err := svc.Login(ctx, domain.LoginInput{Email: "no-at-sign", Password: "x", Role: "patient"})
		assert.ErrorIs(t, err, auth.ErrInvalidInput)

		_, err = svc.Login(ctx, domain.LoginInput{Email: "a@b.c", Password: "x", Role: "superuser"})
		assert.ErrorIs(t, err, auth.ErrInvalidRole)
	})

	t.Run("Gateway Rejection", func(t *testing.T) {
		gateway := new(mocks.AuthGateway)
		gateway.On("Login", ctx, mock.Anything).Return(&auth.Result{Success: false, Message: "bad credentials"}, nil).Once()

		svc := auth.NewService(repository.NewMemoryStore(), gateway, nil, testConfig())

		_, err := svc.Login(ctx, domain.LoginInput{Email: "a@b.c", Password: "wrong", Role: "patient"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		gateway.AssertExpectations(t)
	})

	t.Run("Unknown Gateway Role", func(t *testing.T) {
		gateway := new(mocks.AuthGateway)
		gateway.On("Login", ctx, mock.Anything).Return(&auth.Result{
			Success: true,
			User:    &domain.Session{Role: domain.Role("superuser")},
		}, nil).Once()

		store := repository.NewMemoryStore()
		svc := auth.NewService(store, gateway, nil, testConfig())

		_, err := svc.Login(ctx, domain.LoginInput{Email: "a@b.c", Password: "x", Role: "patient"})
		assert.ErrorIs(t, err, auth.ErrInvalidRole)
		assert.NotEqual(t, auth.StateAuthenticated, svc.State())
		assert.Nil(t, svc.CurrentSession())

		blob, err := store.Get(ctx, repository.KeySession)
		require.NoError(t, err)
		assert.Nil(t, blob)
		gateway.AssertExpectations(t)
	})

	t.Run("Cancellation", func(t *testing.T) {
		svc := auth.NewService(repository.NewMemoryStore(), auth.NewSimGateway(time.Minute), nil, testConfig())

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.Login(cancelled, domain.LoginInput{Email: "a@b.c", Password: "x", Role: "patient"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestService_RegisterRollsBackPartialWrite(t *testing.T) {
	ctx := context.Background()

	store := new(mocks.KVStore)
	store.On("Set", ctx, repository.KeyPendingRegistration, mock.Anything).Return(nil).Once()
	store.On("Set", ctx, repository.KeyPendingOTP, mock.Anything).Return(errors.New("write failed")).Once()
	// A registration without its companion code must not be left behind.
	store.On("Delete", ctx, []string{repository.KeyPendingRegistration}).Return(nil).Once()

	svc := auth.NewService(store, auth.NewSimGateway(0), nil, testConfig())

	_, err := svc.Register(ctx, domain.RegisterInput{
		Email:    "partial@x.com",
		Password: "secret-password",
		Role:     "patient",
	})
	require.Error(t, err)
	store.AssertExpectations(t)
}

func TestService_HydrateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	cfg := testConfig()

	svc := newTestService(store, cfg)
	result, err := svc.Login(ctx, domain.LoginInput{
		Email:    "ngo.contact@relief.org",
		Password: "secret",
		Role:     "ngo",
	})
	require.NoError(t, err)

	// A fresh manager over the same store simulates a process restart.
	restarted := newTestService(store, cfg)
	state, err := restarted.Hydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.StateAuthenticated, state)
	assert.Equal(t, result.Session, restarted.CurrentSession())
}

func TestService_Hydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Store", func(t *testing.T) {
		svc := newTestService(repository.NewMemoryStore(), testConfig())

		state, err := svc.Hydrate(ctx)
		require.NoError(t, err)
		assert.Equal(t, auth.StateAnonymous, state)
		assert.Nil(t, svc.CurrentSession())
	})

	t.Run("Corrupt Record Discarded", func(t *testing.T) {
		store := repository.NewMemoryStore()
		require.NoError(t, store.Set(ctx, repository.KeySession, []byte("{not json")))

		svc := newTestService(store, testConfig())
		state, err := svc.Hydrate(ctx)
		require.NoError(t, err)
		assert.Equal(t, auth.StateAnonymous, state)

		blob, err := store.Get(ctx, repository.KeySession)
		require.NoError(t, err)
		assert.Nil(t, blob)
	})

	t.Run("Store Failure Ends Loading", func(t *testing.T) {
		store := new(mocks.KVStore)
		store.On("Get", ctx, repository.KeySession).Return(nil, errors.New("store down")).Once()

		svc := auth.NewService(store, auth.NewSimGateway(0), nil, testConfig())

		state, err := svc.Hydrate(ctx)
		require.Error(t, err)
		assert.Equal(t, auth.StateAnonymous, state)
		assert.Equal(t, auth.StateAnonymous, svc.State())
		store.AssertExpectations(t)
	})

	t.Run("Pending Registration Survives Restart", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newTestService(store, testConfig())

		_, err := svc.Register(ctx, domain.RegisterInput{
			Email:    "pending@x.com",
			Password: "secret-password",
			Role:     "patient",
		})
		require.NoError(t, err)

		restarted := newTestService(store, testConfig())
		state, err := restarted.Hydrate(ctx)
		require.NoError(t, err)
		assert.Equal(t, auth.StatePendingVerification, state)
	})
}

func TestService_LogoutIdempotent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := newTestService(store, testConfig())

	_, err := svc.Login(ctx, domain.LoginInput{Email: "a@b.c", Password: "x", Role: "admin"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, auth.StateAnonymous, svc.State())
	assert.Nil(t, svc.CurrentSession())

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, auth.StateAnonymous, svc.State())

	blob, err := store.Get(ctx, repository.KeySession)
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestService_UpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Requires Authentication", func(t *testing.T) {
		svc := newTestService(repository.NewMemoryStore(), testConfig())

		_, err := svc.UpdateUser(ctx, domain.UpdateSessionInput{})
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("Merges And Persists Whitelisted Fields", func(t *testing.T) {
		store := repository.NewMemoryStore()
		svc := newTestService(store, testConfig())

		login, err := svc.Login(ctx, domain.LoginInput{Email: "a@b.c", Password: "x", Role: "donor"})
		require.NoError(t, err)

		phone := "+31 6 1234 5678"
		location := "Rotterdam"
		updated, err := svc.UpdateUser(ctx, domain.UpdateSessionInput{Phone: &phone, Location: &location})
		require.NoError(t, err)
		assert.Equal(t, phone, updated.Phone)
		assert.Equal(t, location, updated.Location)
		assert.Equal(t, login.Session.UserID, updated.UserID)
		assert.Equal(t, domain.RoleDonor, updated.Role)

		restarted := newTestService(store, testConfig())
		_, err = restarted.Hydrate(ctx)
		require.NoError(t, err)
		assert.Equal(t, updated, restarted.CurrentSession())
	})

	t.Run("Rejects Malformed Email", func(t *testing.T) {
		svc := newTestService(repository.NewMemoryStore(), testConfig())

		_, err := svc.Login(ctx, domain.LoginInput{Email: "a@b.c", Password: "x", Role: "donor"})
		require.NoError(t, err)

		bad := "not-an-email"
		_, err = svc.UpdateUser(ctx, domain.UpdateSessionInput{Email: &bad})
		assert.ErrorIs(t, err, auth.ErrInvalidInput)
	})
}
