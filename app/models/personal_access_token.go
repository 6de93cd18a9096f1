package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// PersonalAccessToken is a bearer token issued to the mobile client.
// Only the sha256 of the plain token is stored.
type PersonalAccessToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	Name       string     `gorm:"type:varchar(191);not null" json:"name"`
	Token      string     `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	Abilities  string     `gorm:"type:text" json:"abilities"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

const accessTokenLength = 40

// NewPersonalAccessToken builds an unsaved token row for the user and
// returns the plain text value, which is shown to the client only once.
// The plain value has the form "<id>|<secret>" after the row is saved,
// see PlainTextToken.
func NewPersonalAccessToken(userID uint, name string, ttl time.Duration) (*PersonalAccessToken, string, error) {
	secret, err := randomHex(accessTokenLength / 2)
	if err != nil {
		return nil, "", fmt.Errorf("generate access token: %w", err)
	}
	pat := &PersonalAccessToken{
		UserID:    userID,
		Name:      name,
		Token:     HashAccessToken(secret),
		Abilities: `["*"]`,
	}
	if ttl > 0 {
		exp := time.Now().Add(ttl)
		pat.ExpiresAt = &exp
	}
	return pat, secret, nil
}

// PlainTextToken joins the row id and secret the way clients send it back.
func (t *PersonalAccessToken) PlainTextToken(secret string) string {
	return fmt.Sprintf("%d|%s", t.ID, secret)
}

// SplitAccessToken separates an "<id>|<secret>" bearer value. Tokens
// without an id part are returned with id 0.
func SplitAccessToken(raw string) (uint, string) {
	raw = strings.TrimSpace(raw)
	idPart, secret, found := strings.Cut(raw, "|")
	if !found {
		return 0, raw
	}
	var id uint
	if _, err := fmt.Sscanf(idPart, "%d", &id); err != nil {
		return 0, raw
	}
	return id, secret
}

// HashAccessToken returns the SHA-256 hex digest stored for a token secret.
func HashAccessToken(secret string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(secret)))
	return hex.EncodeToString(sum[:])
}

// IsExpired reports whether the token has passed its expiry time.
func (t *PersonalAccessToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}

// TouchUsage updates the last-used timestamp.
func (t *PersonalAccessToken) TouchUsage() {
	now := time.Now()
	t.LastUsedAt = &now
}
