package models

import (
	"encoding/json"
	"time"
)

// Binding event kinds.
const (
	BindingKindAccountBound   = "account_bound"
	BindingKindAccountUnbound = "account_unbound"
	// BindingKindLegacyLink marks rows imported from the old mbt link log.
	BindingKindLegacyLink = "mbt_link"
)

const (
	BindingEventInactive = 0
	BindingEventActive   = 1
)

// BindingLink associates a portal user with a subscriber account.
type BindingLink struct {
	ID                  uint               `gorm:"primaryKey" json:"id"`
	UserID              uint               `gorm:"not null;uniqueIndex:ux_binding_links_user_account,priority:1" json:"user_id"`
	SubscriberAccountID uint               `gorm:"not null;uniqueIndex:ux_binding_links_user_account,priority:2;index" json:"subscriber_account_id"`
	Active              bool               `gorm:"default:true" json:"active"`
	SubscriberAccount   *SubscriberAccount `gorm:"foreignKey:SubscriberAccountID" json:"subscriber_account,omitempty"`
	CreatedAt           time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// BindingEvent is an append-only log row of a bind or unbind action.
// Payload is decoded per kind by the binding package.
type BindingEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:idx_binding_events_user_status,priority:1" json:"user_id"`
	BindingLinkID *uint     `gorm:"index" json:"binding_link_id"`
	Kind          string    `gorm:"type:varchar(32);not null;default:'account_bound'" json:"kind"`
	Payload       string    `gorm:"type:text" json:"payload"`
	Status        int       `gorm:"not null;default:1;index:idx_binding_events_user_status,priority:2" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AccountRefPayload is the payload shape of bind and unbind events.
type AccountRefPayload struct {
	MbtUserID string `json:"mbt_user_id"`
}

// NewBindingEvent builds an active event carrying the account reference.
func NewBindingEvent(userID uint, linkID *uint, kind string, mbtUserID string) (*BindingEvent, error) {
	raw, err := json.Marshal(AccountRefPayload{MbtUserID: mbtUserID})
	if err != nil {
		return nil, err
	}
	return &BindingEvent{
		UserID:        userID,
		BindingLinkID: linkID,
		Kind:          kind,
		Payload:       string(raw),
		Status:        BindingEventActive,
	}, nil
}
