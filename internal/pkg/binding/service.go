package binding

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Sentinels for failed binding operations. Returned errors wrap one of them
// together with an apperr category and the text shown to the user.
var (
	ErrAccountNotFound   = errors.New("subscriber account not found")
	ErrInvalidCredential = errors.New("subscriber credential mismatch")
	ErrAlreadyBound      = errors.New("subscriber account already bound")
	ErrBindingNotFound   = errors.New("binding link not found")
	ErrForbidden         = errors.New("subscriber account not linked to user")
)

var failures = map[error]struct {
	category error
	hint     string
}{
	ErrAccountNotFound:   {apperr.ErrNotFound, "Account not found. Please check your account ID."},
	ErrInvalidCredential: {apperr.ErrUnauthorized, "Invalid password."},
	ErrAlreadyBound:      {apperr.ErrConflict, "This account is already bound to your profile."},
	ErrBindingNotFound:   {apperr.ErrNotFound, "Binding not found."},
	ErrForbidden:         {apperr.ErrForbidden, "You do not have access to this account."},
}

func fail(sentinel error) error {
	f := failures[sentinel]
	return apperr.Classify(sentinel, f.category, f.hint)
}

// Service lists, binds and unbinds subscriber accounts for portal users.
type Service struct {
	repo     Repository
	resolver *Resolver
	namer    *PackageNamer
}

// NewService wires a service. A nil namer is replaced by one that reads its
// table from the environment and looks names up in the package catalog.
func NewService(repo Repository, namer *PackageNamer) *Service {
	if namer == nil {
		namer = NewPackageNamerFromEnv(repo.FindPackageNameBySpeed)
	}
	return &Service{
		repo:     repo,
		resolver: NewResolver(repo),
		namer:    namer,
	}
}

func (s *Service) Namer() *PackageNamer {
	return s.namer
}

// List resolves and formats the user's accounts.
func (s *Service) List(ctx context.Context, user *models.User) ([]Summary, error) {
	entries, err := s.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		out = append(out, Format(ctx, s.namer, e.Account, e.BindID))
	}
	return out, nil
}

// Authorize loads an account the user may view: either the direct
// reference or one linked through an active event.
func (s *Service) Authorize(ctx context.Context, user *models.User, accountID uint) (*models.SubscriberAccount, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, apperr.Internal(err, "load subscriber account")
	}
	if account == nil {
		return nil, fail(ErrAccountNotFound)
	}
	if user.BindUserID != nil && *user.BindUserID == account.ID {
		return account, nil
	}

	linked, err := s.resolver.linkedByEvent(ctx, user.ID, account.MbtUserID)
	if err != nil {
		return nil, apperr.Internal(err, "check binding events")
	}
	if !linked {
		return nil, fail(ErrForbidden)
	}
	return account, nil
}

// Detail returns the detailed view of an authorized account.
func (s *Service) Detail(ctx context.Context, user *models.User, accountID uint) (Detail, error) {
	account, err := s.Authorize(ctx, user, accountID)
	if err != nil {
		return Detail{}, err
	}
	return FormatDetailed(ctx, s.namer, account), nil
}

// Bind links the account identified by accountID after checking its
// credential. The user's primary reference is set only when empty.
func (s *Service) Bind(ctx context.Context, user *models.User, accountID, password string) (*models.BindingLink, Summary, error) {
	account, err := s.repo.FindAccountByAccountID(ctx, strings.TrimSpace(accountID))
	if err != nil {
		return nil, Summary{}, apperr.Internal(err, "load subscriber account")
	}
	if account == nil {
		return nil, Summary{}, fail(ErrAccountNotFound)
	}
	if !credentialMatches(account.Password, password) {
		return nil, Summary{}, fail(ErrInvalidCredential)
	}

	existing, err := s.repo.FindLink(ctx, user.ID, account.ID)
	if err != nil {
		return nil, Summary{}, apperr.Internal(err, "check existing binding")
	}
	if existing != nil || (user.BindUserID != nil && *user.BindUserID == account.ID) {
		return nil, Summary{}, fail(ErrAlreadyBound)
	}

	link, err := s.repo.Bind(ctx, user, account)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent request created the link after the check above.
		return nil, Summary{}, fail(ErrAlreadyBound)
	}
	if err != nil {
		return nil, Summary{}, apperr.Internal(err, "create binding")
	}

	log.Infof("[Binding] user %d bound account %s (link %d)", user.ID, account.AccountID, link.ID)
	return link, Format(ctx, s.namer, account, &link.ID), nil
}

// Unbind removes one of the user's binding links.
func (s *Service) Unbind(ctx context.Context, user *models.User, bindID uint) error {
	link, err := s.repo.FindUserLink(ctx, user.ID, bindID)
	if err != nil {
		return apperr.Internal(err, "load binding")
	}
	if link == nil {
		return fail(ErrBindingNotFound)
	}

	account, err := s.repo.FindAccountByID(ctx, link.SubscriberAccountID)
	if err != nil {
		return apperr.Internal(err, "load subscriber account")
	}

	if err := s.repo.Unbind(ctx, user, link, account); err != nil {
		return apperr.Internal(err, "remove binding")
	}

	log.Infof("[Binding] user %d removed binding %d", user.ID, link.ID)
	return nil
}

// credentialMatches compares in constant time, or via bcrypt when the
// stored value is a bcrypt hash.
func credentialMatches(stored, given string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
