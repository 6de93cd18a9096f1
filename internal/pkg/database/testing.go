package database

import (
	"fmt"
	"sync/atomic"

	"gorm.io/gorm"
)

var memSeq atomic.Int64

// OpenMemory returns a migrated, isolated in-memory sqlite database.
func OpenMemory() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:netportal_mem_%d?mode=memory&cache=shared", memSeq.Add(1))
	db, err := Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
