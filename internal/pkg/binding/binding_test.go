package binding

import (
	"context"
	"testing"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/ManuelReschke/NetPortal/internal/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	repo    Repository
	service *Service
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	repo := NewRepository(db)
	return &fixture{
		db:      db,
		repo:    repo,
		service: NewService(repo, NewPackageNamer(repo.FindPackageNameBySpeed, nil, DefaultBusinessThreshold)),
		ctx:     context.Background(),
	}
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test User", Email: email, Password: "x", Role: models.ROLE_USER, Status: models.STATUS_ACTIVE}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) account(t *testing.T, id uint, accountID, mbtUserID, password string) *models.SubscriberAccount {
	t.Helper()
	a := &models.SubscriberAccount{
		ID:          id,
		AccountID:   accountID,
		MbtUserID:   mbtUserID,
		Password:    password,
		UserName:    accountID,
		Bandwidth:   "30 Mbps",
		MonthlyCost: decimal.NewFromInt(25000),
	}
	require.NoError(t, f.db.Create(a).Error)
	return a
}

func (f *fixture) event(t *testing.T, userID uint, kind, payload string) *models.BindingEvent {
	t.Helper()
	ev := &models.BindingEvent{UserID: userID, Kind: kind, Payload: payload, Status: models.BindingEventActive}
	require.NoError(t, f.db.Create(ev).Error)
	return ev
}

func (f *fixture) reload(t *testing.T, u *models.User) *models.User {
	t.Helper()
	var fresh models.User
	require.NoError(t, f.db.First(&fresh, u.ID).Error)
	return &fresh
}

func TestResolveDirectReferenceOnly(t *testing.T) {
	f := newFixture(t)
	f.account(t, 42, "ACC-42", "M-42", "secret")
	u := f.user(t, "direct@example.com")
	id := uint(42)
	u.BindUserID = &id

	entries, err := NewResolver(f.repo).Resolve(f.ctx, u)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint(42), entries[0].Account.ID)
	assert.Equal(t, SourceDirect, entries[0].Source)
	assert.Nil(t, entries[0].BindID)
}

func TestResolveDeduplicatesDirectAndEvent(t *testing.T) {
	f := newFixture(t)
	f.account(t, 7, "ACC-7", "M-7", "secret")
	f.account(t, 8, "ACC-8", "M-8", "secret")
	u := f.user(t, "dedup@example.com")
	id := uint(7)
	u.BindUserID = &id

	f.event(t, u.ID, models.BindingKindAccountBound, `{"mbt_user_id":"M-7"}`)
	f.event(t, u.ID, models.BindingKindLegacyLink, `{"mbt_user_id":"M-8"}`)
	f.event(t, u.ID, models.BindingKindAccountBound, `{"mbt_user_id":"M-8"}`)

	entries, err := NewResolver(f.repo).Resolve(f.ctx, u)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint(7), entries[0].Account.ID)
	assert.Equal(t, uint(8), entries[1].Account.ID)
	assert.Equal(t, SourceEvent, entries[1].Source)
}

func TestResolveSkipsBadEvents(t *testing.T) {
	f := newFixture(t)
	f.account(t, 3, "ACC-3", "M-3", "secret")
	u := f.user(t, "skip@example.com")

	f.event(t, u.ID, models.BindingKindAccountBound, `{not json`)
	f.event(t, u.ID, models.BindingKindAccountBound, `{"other":1}`)
	f.event(t, u.ID, models.BindingKindAccountBound, ``)
	f.event(t, u.ID, "mystery", `{"mbt_user_id":"M-3"}`)
	f.event(t, u.ID, models.BindingKindAccountBound, `{"mbt_user_id":"M-404"}`)
	good := f.event(t, u.ID, models.BindingKindAccountBound, `{"mbt_user_id":"M-3"}`)

	inactive := &models.BindingEvent{UserID: u.ID, Kind: models.BindingKindAccountBound, Payload: `{"mbt_user_id":"M-3"}`}
	require.NoError(t, f.db.Create(inactive).Error)
	require.NoError(t, f.db.Model(inactive).Update("status", models.BindingEventInactive).Error)

	entries, err := NewResolver(f.repo).Resolve(f.ctx, u)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint(3), entries[0].Account.ID)
	assert.Equal(t, SourceEvent, entries[0].Source)
	assert.NotZero(t, good.ID)
	assert.Nil(t, entries[0].BindID, "events without a link row cannot be unbound by id")
}

// A legacy event whose id equals an unrelated link id must not expose that
// id, or unbinding it would remove the other account.
func TestLegacyEventIDNeverAddressesALink(t *testing.T) {
	f := newFixture(t)
	f.account(t, 10, "ACC-10", "M-10", "pw10")
	f.account(t, 20, "ACC-20", "M-20", "pw20")
	u := f.user(t, "legacy@example.com")

	legacy := f.event(t, u.ID, models.BindingKindLegacyLink, `{"mbt_user_id":"M-10"}`)
	link, _, err := f.service.Bind(f.ctx, u, "ACC-20", "pw20")
	require.NoError(t, err)
	require.Equal(t, legacy.ID, link.ID)

	list, err := f.service.List(f.ctx, f.reload(t, u))
	require.NoError(t, err)
	require.Len(t, list, 2)
	byAccount := map[string]Summary{}
	for _, s := range list {
		byAccount[s.AccountID] = s
	}
	require.NotNil(t, byAccount["ACC-20"].BindID)
	assert.Equal(t, link.ID, *byAccount["ACC-20"].BindID)
	assert.Nil(t, byAccount["ACC-10"].BindID)

	require.NoError(t, f.service.Unbind(f.ctx, f.reload(t, u), link.ID))
	list, err = f.service.List(f.ctx, f.reload(t, u))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ACC-10", list[0].AccountID)
}

// staleLinkRepo hides existing links, as a concurrent request would see
// them before the other one commits.
type staleLinkRepo struct {
	Repository
}

func (staleLinkRepo) FindLink(context.Context, uint, uint) (*models.BindingLink, error) {
	return nil, nil
}

func TestBindRaceReportsAlreadyBound(t *testing.T) {
	f := newFixture(t)
	f.account(t, 1, "ACC-1", "M-1", "pw1")
	f.account(t, 2, "ACC-2", "M-2", "pw2")
	u := f.user(t, "race@example.com")

	_, _, err := f.service.Bind(f.ctx, u, "ACC-1", "pw1")
	require.NoError(t, err)
	_, _, err = f.service.Bind(f.ctx, u, "ACC-2", "pw2")
	require.NoError(t, err)

	racing := NewService(staleLinkRepo{f.repo}, f.service.Namer())
	_, _, err = racing.Bind(f.ctx, f.reload(t, u), "ACC-2", "pw2")
	assert.ErrorIs(t, err, ErrAlreadyBound)
	assert.Equal(t, 400, apperr.HTTPStatus(err))
	assert.Equal(t, "This account is already bound to your profile.", apperr.UserMessage(err, ""))
}

func TestSentinelsOfOneCategoryStayDistinct(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "distinct@example.com")

	_, err := f.service.Authorize(f.ctx, u, 404)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.False(t, apperr.Is(err, ErrBindingNotFound))
	assert.Equal(t, 404, apperr.HTTPStatus(err))

	err = f.service.Unbind(f.ctx, u, 404)
	assert.ErrorIs(t, err, ErrBindingNotFound)
	assert.False(t, apperr.Is(err, ErrAccountNotFound))
	assert.Equal(t, "Binding not found.", apperr.UserMessage(err, ""))
}

func TestBindSetsPrimaryWhenEmpty(t *testing.T) {
	f := newFixture(t)
	acc := f.account(t, 9, "ACC-9", "M-9", "hunter2")
	u := f.user(t, "bind@example.com")

	link, summary, err := f.service.Bind(f.ctx, u, "ACC-9", "hunter2")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, acc.ID, link.SubscriberAccountID)
	assert.Equal(t, "ACC-9", summary.AccountID)
	require.NotNil(t, summary.BindID)
	assert.Equal(t, link.ID, *summary.BindID)

	fresh := f.reload(t, u)
	require.NotNil(t, fresh.BindUserID)
	assert.Equal(t, acc.ID, *fresh.BindUserID)

	var events []models.BindingEvent
	require.NoError(t, f.db.Where("user_id = ?", u.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.BindingKindAccountBound, events[0].Kind)
	assert.JSONEq(t, `{"mbt_user_id":"M-9"}`, events[0].Payload)
}

func TestBindKeepsExistingPrimary(t *testing.T) {
	f := newFixture(t)
	f.account(t, 1, "ACC-1", "M-1", "pw1")
	f.account(t, 2, "ACC-2", "M-2", "pw2")
	u := f.user(t, "keep@example.com")

	_, _, err := f.service.Bind(f.ctx, u, "ACC-1", "pw1")
	require.NoError(t, err)
	_, _, err = f.service.Bind(f.ctx, u, "ACC-2", "pw2")
	require.NoError(t, err)

	fresh := f.reload(t, u)
	require.NotNil(t, fresh.BindUserID)
	assert.Equal(t, uint(1), *fresh.BindUserID)

	list, err := f.service.List(f.ctx, fresh)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBindErrors(t *testing.T) {
	f := newFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("bcrypt-pw"), bcrypt.MinCost)
	require.NoError(t, err)
	f.account(t, 5, "ACC-5", "M-5", "plain")
	f.account(t, 6, "ACC-6", "M-6", string(hash))
	u := f.user(t, "errors@example.com")

	_, _, err = f.service.Bind(f.ctx, u, "ACC-404", "x")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, 404, apperr.HTTPStatus(err))

	_, _, err = f.service.Bind(f.ctx, u, "ACC-5", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	assert.Equal(t, "Invalid password.", apperr.UserMessage(err, ""))

	_, _, err = f.service.Bind(f.ctx, u, "ACC-6", "bcrypt-pw")
	require.NoError(t, err)

	_, _, err = f.service.Bind(f.ctx, u, "ACC-6", "bcrypt-pw")
	assert.ErrorIs(t, err, ErrAlreadyBound)
	assert.Equal(t, 400, apperr.HTTPStatus(err))
}

func TestUnbindPrimaryClearsReference(t *testing.T) {
	f := newFixture(t)
	f.account(t, 1, "ACC-1", "M-1", "pw1")
	f.account(t, 2, "ACC-2", "M-2", "pw2")
	u := f.user(t, "unbind@example.com")

	first, _, err := f.service.Bind(f.ctx, u, "ACC-1", "pw1")
	require.NoError(t, err)
	second, _, err := f.service.Bind(f.ctx, u, "ACC-2", "pw2")
	require.NoError(t, err)

	require.NoError(t, f.service.Unbind(f.ctx, u, second.ID))
	fresh := f.reload(t, u)
	require.NotNil(t, fresh.BindUserID)
	assert.Equal(t, uint(1), *fresh.BindUserID)

	require.NoError(t, f.service.Unbind(f.ctx, fresh, first.ID))
	fresh = f.reload(t, u)
	assert.Nil(t, fresh.BindUserID)

	list, err := f.service.List(f.ctx, fresh)
	require.NoError(t, err)
	assert.Empty(t, list)

	err = f.service.Unbind(f.ctx, fresh, first.ID)
	assert.ErrorIs(t, err, ErrBindingNotFound)
}

func TestUnbindOtherUsersLink(t *testing.T) {
	f := newFixture(t)
	f.account(t, 1, "ACC-1", "M-1", "pw1")
	owner := f.user(t, "owner@example.com")
	other := f.user(t, "other@example.com")

	link, _, err := f.service.Bind(f.ctx, owner, "ACC-1", "pw1")
	require.NoError(t, err)

	err = f.service.Unbind(f.ctx, other, link.ID)
	assert.ErrorIs(t, err, ErrBindingNotFound)
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	f.account(t, 1, "ACC-1", "M-1", "pw1")
	f.account(t, 2, "ACC-2", "M-2", "pw2")
	f.account(t, 3, "ACC-3", "M-3", "pw3")
	u := f.user(t, "auth@example.com")
	primary := uint(1)
	u.BindUserID = &primary
	f.event(t, u.ID, models.BindingKindLegacyLink, `{"mbt_user_id":"M-2"}`)

	acc, err := f.service.Authorize(f.ctx, u, 1)
	require.NoError(t, err)
	assert.Equal(t, "ACC-1", acc.AccountID)

	acc, err = f.service.Authorize(f.ctx, u, 2)
	require.NoError(t, err)
	assert.Equal(t, "ACC-2", acc.AccountID)

	_, err = f.service.Authorize(f.ctx, u, 3)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 403, apperr.HTTPStatus(err))

	_, err = f.service.Authorize(f.ctx, u, 99)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	detail, err := f.service.Detail(f.ctx, u, 2)
	require.NoError(t, err)
	assert.Equal(t, "Standard Home", detail.Package)
}
