package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPersonalAccessToken(t *testing.T) {
	pat, secret, err := NewPersonalAccessToken(7, "mobile", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, secret)

	assert.Equal(t, uint(7), pat.UserID)
	assert.Len(t, secret, accessTokenLength)
	assert.Equal(t, HashAccessToken(secret), pat.Token)
	assert.NotEqual(t, secret, pat.Token)
	require.NotNil(t, pat.ExpiresAt)
	assert.False(t, pat.IsExpired(time.Now()))
	assert.True(t, pat.IsExpired(time.Now().Add(2*time.Hour)))
}

func TestPersonalAccessTokenWithoutTTLNeverExpires(t *testing.T) {
	pat, _, err := NewPersonalAccessToken(1, "mobile", 0)
	require.NoError(t, err)

	assert.Nil(t, pat.ExpiresAt)
	assert.False(t, pat.IsExpired(time.Now().Add(24*365*time.Hour)))
}

func TestSplitAccessToken(t *testing.T) {
	tests := []struct {
		raw        string
		wantID     uint
		wantSecret string
	}{
		{"12|abc", 12, "abc"},
		{" 3|xyz ", 3, "xyz"},
		{"plain", 0, "plain"},
		{"x|abc", 0, "x|abc"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, secret := SplitAccessToken(tt.raw)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantSecret, secret)
		})
	}
}

func TestPlainTextTokenRoundTrip(t *testing.T) {
	pat, secret, err := NewPersonalAccessToken(5, "mobile", 0)
	require.NoError(t, err)
	pat.ID = 44

	id, got := SplitAccessToken(pat.PlainTextToken(secret))
	assert.Equal(t, uint(44), id)
	assert.Equal(t, pat.Token, HashAccessToken(got))
}
