package binding

import (
	"context"
	"errors"

	"github.com/ManuelReschke/NetPortal/app/models"
	"gorm.io/gorm"
)

// Repository provides the DB operations used by the resolver and service.
// Finders return (nil, nil) when no row matches.
type Repository interface {
	FindAccountByID(ctx context.Context, id uint) (*models.SubscriberAccount, error)
	FindAccountByAccountID(ctx context.Context, accountID string) (*models.SubscriberAccount, error)
	FindAccountByMbtUserID(ctx context.Context, mbtUserID string) (*models.SubscriberAccount, error)
	FindLink(ctx context.Context, userID, accountID uint) (*models.BindingLink, error)
	FindUserLink(ctx context.Context, userID, linkID uint) (*models.BindingLink, error)
	ListActiveEvents(ctx context.Context, userID uint) ([]models.BindingEvent, error)
	FindPackageNameBySpeed(ctx context.Context, speed string) (string, bool, error)

	// Bind creates the link and its event, and sets the primary reference
	// when the user has none.
	Bind(ctx context.Context, user *models.User, account *models.SubscriberAccount) (*models.BindingLink, error)
	// Unbind removes the link, deactivates its bound events, appends an
	// unbound event and clears the primary reference when it matches.
	Unbind(ctx context.Context, user *models.User, link *models.BindingLink, account *models.SubscriberAccount) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a binding repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func firstOrNil[T any](tx *gorm.DB) (*T, error) {
	var row T
	err := tx.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *gormRepository) FindAccountByID(ctx context.Context, id uint) (*models.SubscriberAccount, error) {
	return firstOrNil[models.SubscriberAccount](r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *gormRepository) FindAccountByAccountID(ctx context.Context, accountID string) (*models.SubscriberAccount, error) {
	return firstOrNil[models.SubscriberAccount](r.db.WithContext(ctx).Where("account_id = ?", accountID))
}

func (r *gormRepository) FindAccountByMbtUserID(ctx context.Context, mbtUserID string) (*models.SubscriberAccount, error) {
	return firstOrNil[models.SubscriberAccount](r.db.WithContext(ctx).Where("mbt_user_id = ?", mbtUserID))
}

func (r *gormRepository) FindLink(ctx context.Context, userID, accountID uint) (*models.BindingLink, error) {
	return firstOrNil[models.BindingLink](r.db.WithContext(ctx).
		Where("user_id = ? AND subscriber_account_id = ?", userID, accountID))
}

func (r *gormRepository) FindUserLink(ctx context.Context, userID, linkID uint) (*models.BindingLink, error) {
	return firstOrNil[models.BindingLink](r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, linkID))
}

func (r *gormRepository) ListActiveEvents(ctx context.Context, userID uint) ([]models.BindingEvent, error) {
	var events []models.BindingEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.BindingEventActive).
		Order("id ASC").
		Find(&events).Error
	return events, err
}

func (r *gormRepository) FindPackageNameBySpeed(ctx context.Context, speed string) (string, bool, error) {
	pkg, err := firstOrNil[models.Package](r.db.WithContext(ctx).Where("speed = ?", speed))
	if err != nil || pkg == nil {
		return "", false, err
	}
	return pkg.Name, true, nil
}

func (r *gormRepository) Bind(ctx context.Context, user *models.User, account *models.SubscriberAccount) (*models.BindingLink, error) {
	link := &models.BindingLink{
		UserID:              user.ID,
		SubscriberAccountID: account.ID,
		Active:              true,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(link).Error; err != nil {
			return err
		}
		event, err := models.NewBindingEvent(user.ID, &link.ID, models.BindingKindAccountBound, account.MbtUserID)
		if err != nil {
			return err
		}
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		if !user.HasPrimaryBinding() {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
				Update("bind_user_id", account.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !user.HasPrimaryBinding() {
		id := account.ID
		user.BindUserID = &id
	}
	return link, nil
}

func (r *gormRepository) Unbind(ctx context.Context, user *models.User, link *models.BindingLink, account *models.SubscriberAccount) error {
	clearPrimary := user.BindUserID != nil && *user.BindUserID == link.SubscriberAccountID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clearPrimary {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
				Update("bind_user_id", nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.BindingLink{}, link.ID).Error; err != nil {
			return err
		}
		if account == nil {
			return nil
		}

		// Deactivate every bound event that points at the account, including
		// legacy rows without a link id.
		var events []models.BindingEvent
		if err := tx.Where("user_id = ? AND status = ? AND kind <> ?",
			user.ID, models.BindingEventActive, models.BindingKindAccountUnbound).
			Find(&events).Error; err != nil {
			return err
		}
		for _, ev := range events {
			p, err := DecodePayload(ev.Kind, ev.Payload)
			if err != nil || p.AccountRef() != account.MbtUserID {
				continue
			}
			if err := tx.Model(&models.BindingEvent{}).Where("id = ?", ev.ID).
				Update("status", models.BindingEventInactive).Error; err != nil {
				return err
			}
		}

		unbound, err := models.NewBindingEvent(user.ID, nil, models.BindingKindAccountUnbound, account.MbtUserID)
		if err != nil {
			return err
		}
		return tx.Create(unbound).Error
	})
	if err != nil {
		return err
	}

	if clearPrimary {
		user.BindUserID = nil
	}
	return nil
}
