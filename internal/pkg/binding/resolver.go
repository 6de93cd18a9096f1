// Package binding resolves and mutates the association between portal users
// and ISP subscriber accounts.
//
// A user reaches an account either through the direct reference on the user
// row or through the binding event log. Resolve merges both sources and
// returns each account once.
package binding

import (
	"context"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/gofiber/fiber/v2/log"
)

type Source string

const (
	SourceDirect Source = "direct"
	SourceEvent  Source = "event"
)

// Entry is one resolved account.
type Entry struct {
	Account *models.SubscriberAccount
	BindID  *uint
	Source  Source
}

type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the accounts associated with the user, keyed by account id.
// Events with undecodable payloads and unresolvable references are skipped.
func (r *Resolver) Resolve(ctx context.Context, user *models.User) ([]Entry, error) {
	var entries []Entry
	seen := make(map[uint]struct{})

	if user.HasPrimaryBinding() {
		account, err := r.repo.FindAccountByID(ctx, *user.BindUserID)
		if err != nil {
			return nil, apperr.Internal(err, "resolve direct binding")
		}
		if account != nil {
			entry := Entry{Account: account, Source: SourceDirect}
			link, err := r.repo.FindLink(ctx, user.ID, account.ID)
			if err != nil {
				return nil, apperr.Internal(err, "resolve direct binding link")
			}
			if link != nil {
				id := link.ID
				entry.BindID = &id
			}
			entries = append(entries, entry)
			seen[account.ID] = struct{}{}
		}
	}

	events, err := r.repo.ListActiveEvents(ctx, user.ID)
	if err != nil {
		return nil, apperr.Internal(err, "list binding events")
	}

	for _, ev := range events {
		payload, err := DecodePayload(ev.Kind, ev.Payload)
		if err != nil {
			log.Debugf("[Binding] skip event %d of user %d: %v", ev.ID, user.ID, err)
			continue
		}
		if !payload.Links() {
			continue
		}
		account, err := r.repo.FindAccountByMbtUserID(ctx, payload.AccountRef())
		if err != nil {
			return nil, apperr.Internal(err, "resolve binding event")
		}
		if account == nil {
			log.Debugf("[Binding] event %d references unknown account %q", ev.ID, payload.AccountRef())
			continue
		}
		if _, dup := seen[account.ID]; dup {
			continue
		}

		// Only link rows can be unbound. Legacy events without one carry no
		// bind id, since their event id would address an unrelated link.
		entry := Entry{Account: account, Source: SourceEvent}
		if ev.BindingLinkID != nil {
			id := *ev.BindingLinkID
			entry.BindID = &id
		}
		entries = append(entries, entry)
		seen[account.ID] = struct{}{}
	}

	return entries, nil
}

// linkedByEvent reports whether an active event ties the user to mbtUserID.
func (r *Resolver) linkedByEvent(ctx context.Context, userID uint, mbtUserID string) (bool, error) {
	events, err := r.repo.ListActiveEvents(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, ev := range events {
		payload, err := DecodePayload(ev.Kind, ev.Payload)
		if err != nil || !payload.Links() {
			continue
		}
		if payload.AccountRef() == mbtUserID {
			return true, nil
		}
	}
	return false, nil
}
