package binding

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ManuelReschke/NetPortal/app/models"
)

var (
	ErrMissingAccountRef = errors.New("binding payload has no account reference")
	ErrMalformedPayload  = errors.New("binding payload is not valid json")
	ErrUnknownKind       = errors.New("unknown binding event kind")
)

// Payload is the decoded body of a binding event.
type Payload interface {
	// AccountRef is the external subscriber id the event refers to.
	AccountRef() string
	// Links reports whether the event associates the user with the account.
	Links() bool
}

// AccountBound is written when a user binds an account, and for legacy
// link rows.
type AccountBound struct {
	MbtUserID string
}

func (p AccountBound) AccountRef() string { return p.MbtUserID }
func (p AccountBound) Links() bool        { return true }

// AccountUnbound is written when a user removes a binding.
type AccountUnbound struct {
	MbtUserID string
}

func (p AccountUnbound) AccountRef() string { return p.MbtUserID }
func (p AccountUnbound) Links() bool        { return false }

// DecodePayload decodes raw according to kind. An empty kind is treated as
// account_bound, matching rows written before kinds existed.
func DecodePayload(kind, raw string) (Payload, error) {
	switch kind {
	case models.BindingKindAccountBound, models.BindingKindLegacyLink, "":
		ref, err := decodeAccountRef(raw)
		if err != nil {
			return nil, err
		}
		return AccountBound{MbtUserID: ref}, nil
	case models.BindingKindAccountUnbound:
		ref, err := decodeAccountRef(raw)
		if err != nil {
			return nil, err
		}
		return AccountUnbound{MbtUserID: ref}, nil
	default:
		return nil, ErrUnknownKind
	}
}

func decodeAccountRef(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrMissingAccountRef
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return "", ErrMalformedPayload
	}
	val, ok := body["mbt_user_id"]
	if !ok {
		return "", ErrMissingAccountRef
	}

	// Old rows store the id as a number.
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		if s == "" {
			return "", ErrMissingAccountRef
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(val, &n); err == nil {
		return n.String(), nil
	}
	return "", ErrMissingAccountRef
}
