package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type contentRepository[T any] struct {
	db    *gorm.DB
	order string
}

// NewContentRepository creates a CRUD repository for a language scoped
// content model. order is the ORDER BY clause of list queries.
func NewContentRepository[T any](db *gorm.DB, order string) ContentRepository[T] {
	return &contentRepository[T]{db: db, order: order}
}

func (r *contentRepository[T]) ListByLanguage(languageID uint) ([]T, error) {
	var items []T
	err := r.db.Where("language_id = ?", languageID).Order(r.order).Find(&items).Error
	return items, err
}

func (r *contentRepository[T]) GetByID(id uint) (*T, error) {
	var item T
	if err := r.db.First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *contentRepository[T]) Create(item *T) error {
	return r.db.Create(item).Error
}

func (r *contentRepository[T]) Update(item *T) error {
	return r.db.Save(item).Error
}

// Delete removes the row with its associations, which cascades blog
// categories to their blogs.
func (r *contentRepository[T]) Delete(id uint) error {
	var item T
	if err := r.db.First(&item, id).Error; err != nil {
		return err
	}
	return r.db.Select(clause.Associations).Delete(&item).Error
}

func (r *contentRepository[T]) ExistsExcept(column, value string, id uint) (bool, error) {
	var count int64
	var model T
	err := r.db.Model(&model).Where(column+" = ? AND id <> ?", value, id).Count(&count).Error
	return count > 0, err
}
