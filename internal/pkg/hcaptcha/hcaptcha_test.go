package hcaptcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withSiteverify(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	prev := verifyURL
	verifyURL = srv.URL
	t.Cleanup(func() {
		verifyURL = prev
		srv.Close()
	})
}

func TestVerify(t *testing.T) {
	t.Setenv("HCAPTCHA_SECRET", "0x0000")
	ctx := context.Background()

	t.Run("solved", func(t *testing.T) {
		withSiteverify(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "0x0000", r.PostForm.Get("secret"))
			assert.Equal(t, "tok", r.PostForm.Get("response"))
			assert.Equal(t, "203.0.113.7", r.PostForm.Get("remoteip"))
			_, _ = w.Write([]byte(`{"success":true,"hostname":"portal.example.net"}`))
		})
		assert.NoError(t, Verify(ctx, "tok", "203.0.113.7"))
	})

	t.Run("rejected with error codes", func(t *testing.T) {
		withSiteverify(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
		})
		assert.ErrorContains(t, Verify(ctx, "tok", ""), "invalid-input-response")
	})

	t.Run("upstream error", func(t *testing.T) {
		withSiteverify(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		assert.ErrorContains(t, Verify(ctx, "tok", ""), "status 502")
	})

	t.Run("unsolved", func(t *testing.T) {
		assert.ErrorIs(t, Verify(ctx, "", ""), ErrMissingResponse)
	})
}

func TestVerifyWithoutSecret(t *testing.T) {
	t.Setenv("HCAPTCHA_SECRET", "")
	assert.ErrorIs(t, Verify(context.Background(), "tok", ""), ErrNotConfigured)
	assert.False(t, Enabled())
}
