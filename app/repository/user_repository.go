package repository

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/models"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) GetByID(id uint) (*models.User, error) {
	user := new(models.User)
	if err := r.db.Take(user, id).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail matches the address as typed, minus surrounding blanks.
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	user := new(models.User)
	if err := r.db.Where("email = ?", strings.TrimSpace(email)).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// UpdatePassword stores a new bcrypt hash for the user with the given email.
func (r *userRepository) UpdatePassword(email, hash string) error {
	res := r.db.Model(&models.User{}).Where("email = ?", email).Update("password", hash)
	switch {
	case res.Error != nil:
		return res.Error
	case res.RowsAffected == 0:
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) TouchLogin(id uint) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Update("last_login_at", time.Now()).Error
}

// Delete soft deletes the account. Bills and bindings stay for the books.
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// newestFirst orders the admin user list.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Scopes(newestFirst).Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

func (r *userRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).Count(&n).Error
	return n, err
}

// Search matches name, email or phone anywhere in the value.
func (r *userRepository) Search(query string) ([]models.User, error) {
	like := "%" + strings.TrimSpace(query) + "%"
	var users []models.User
	err := r.db.Scopes(newestFirst).
		Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like).
		Find(&users).Error
	return users, err
}

func (r *userRepository) GetWithStats(offset, limit int) ([]UserWithStats, error) {
	users, err := r.List(offset, limit)
	if err != nil {
		return nil, err
	}
	return r.withStats(users)
}

func (r *userRepository) SearchWithStats(query string) ([]UserWithStats, error) {
	users, err := r.Search(query)
	if err != nil {
		return nil, err
	}
	return r.withStats(users)
}

type userCount struct {
	UserID uint
	N      int64
}

// withStats adds binding and bill totals with one query per table for the
// whole page. Amounts are summed in Go to keep decimal precision.
func (r *userRepository) withStats(users []models.User) ([]UserWithStats, error) {
	if len(users) == 0 {
		return []UserWithStats{}, nil
	}
	ids := lo.Map(users, func(u models.User, _ int) uint { return u.ID })

	var bindings []userCount
	if err := r.db.Model(&models.BindingLink{}).
		Select("user_id, COUNT(*) AS n").
		Where("user_id IN ?", ids).
		Group("user_id").
		Scan(&bindings).Error; err != nil {
		return nil, fmt.Errorf("count bindings: %w", err)
	}
	bindingCount := lo.SliceToMap(bindings, func(b userCount) (uint, int64) { return b.UserID, b.N })

	var bills []models.BillPaid
	if err := r.db.Select("user_id", "package_cost").Where("user_id IN ?", ids).Find(&bills).Error; err != nil {
		return nil, fmt.Errorf("load bills: %w", err)
	}
	billsByUser := lo.GroupBy(bills, func(b models.BillPaid) uint { return b.UserID })

	return lo.Map(users, func(u models.User, _ int) UserWithStats {
		paid := billsByUser[u.ID]
		return UserWithStats{
			User:         u,
			BindingCount: bindingCount[u.ID],
			BillCount:    int64(len(paid)),
			TotalPaid: lo.Reduce(paid, func(sum decimal.Decimal, b models.BillPaid, _ int) decimal.Decimal {
				return sum.Add(b.PackageCost)
			}, decimal.Zero),
		}
	}), nil
}

// GetDailyStats counts registrations per day between start and end. Days are
// bucketed in Go so the query runs on MySQL and SQLite alike.
func (r *userRepository) GetDailyStats(start, end time.Time) ([]models.DailyStats, error) {
	var created []time.Time
	if err := r.db.Model(&models.User{}).
		Where("created_at BETWEEN ? AND ?", start, end).
		Pluck("created_at", &created).Error; err != nil {
		return nil, fmt.Errorf("daily registrations: %w", err)
	}

	perDay := lo.CountValuesBy(created, func(t time.Time) string { return t.Format("2006-01-02") })
	days := lo.Keys(perDay)
	sort.Strings(days)
	return lo.Map(days, func(day string, _ int) models.DailyStats {
		return models.DailyStats{Date: day, Count: perDay[day]}
	}), nil
}

// ListEmails returns the distinct addresses of customer accounts, optionally
// only the active ones.
func (r *userRepository) ListEmails(activeOnly bool) ([]string, error) {
	q := r.db.Model(&models.User{}).Where("role = ?", models.ROLE_USER)
	if activeOnly {
		q = q.Where("status = ?", models.STATUS_ACTIVE)
	}
	var emails []string
	if err := q.Order("id ASC").Pluck("email", &emails).Error; err != nil {
		return nil, err
	}
	normalized := lo.FilterMap(emails, func(e string, _ int) (string, bool) {
		e = strings.ToLower(strings.TrimSpace(e))
		return e, e != ""
	})
	return lo.Uniq(normalized), nil
}
