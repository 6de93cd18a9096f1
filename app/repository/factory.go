package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory builds the repository set for one connection on first use.
type Factory struct {
	db    *gorm.DB
	once  sync.Once
	repos *Repositories
}

func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() { f.repos = NewRepositories(f.db) })
	return f.repos
}

// DB returns the connection the factory was created with.
func (f *Factory) DB() *gorm.DB {
	return f.db
}

var (
	globalFactory *Factory
	globalMu      sync.RWMutex
)

// InitializeFactory installs the process wide factory. The first call wins.
func InitializeFactory(db *gorm.DB) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalFactory == nil {
		globalFactory = NewFactory(db)
	}
}

// GetGlobalFactory panics when called before InitializeFactory, which
// main does right after connecting the database.
func GetGlobalFactory() *Factory {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalFactory == nil {
		panic("repository: GetGlobalFactory called before InitializeFactory")
	}
	return globalFactory
}
