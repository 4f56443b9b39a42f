package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donorlink/internal/domain"
	"donorlink/internal/service/auth"
)

func TestHTTPGateway_NormalizesFailures(t *testing.T) {
	ctx := context.Background()
	input := domain.LoginInput{Email: "a@b.c", Password: "x", Role: "patient"}

	t.Run("Success Response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/login", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":true}`))
		}))
		defer srv.Close()

		result, err := auth.NewHTTPGateway(srv.URL).Login(ctx, input)
		require.NoError(t, err)
		assert.True(t, result.Success)
	})

	t.Run("Rejection Response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success":false,"message":"invalid credentials"}`))
		}))
		defer srv.Close()

		result, err := auth.NewHTTPGateway(srv.URL).Login(ctx, input)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "invalid credentials", result.Message)
	})

	t.Run("Unreachable Service", func(t *testing.T) {
		result, err := auth.NewHTTPGateway("http://127.0.0.1:1").Login(ctx, input)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Message)
	})

	t.Run("Garbage Body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>upstream error</html>"))
		}))
		defer srv.Close()

		result, err := auth.NewHTTPGateway(srv.URL).Register(ctx, domain.RegisterInput{Email: "a@b.c", Password: "x", Role: "donor"})
		require.NoError(t, err)
		assert.False(t, result.Success)
	})
}

func TestSimGateway_Latency(t *testing.T) {
	gateway := auth.NewSimGateway(20 * time.Millisecond)

	start := time.Now()
	result, err := gateway.Login(context.Background(), domain.LoginInput{Email: "a@b.c", Password: "x", Role: "patient"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
