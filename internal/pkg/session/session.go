package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/NetPortal/internal/pkg/cache"
	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
)

const (
	sessionCookie   = "netportal_session"
	defaultLifetime = 2 * time.Hour
)

var sessionStore *session.Store

// NewSessionStore keeps customer sessions in Redis, on the same server as the
// cache but in its own database. SESSION_MINUTES overrides the lifetime.
func NewSessionStore() *session.Store {
	cfg := cache.CurrentConfig()
	storage := redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: cache.SessionDB,
	})

	return UseStore(session.New(Config(storage)))
}

// Config is the session configuration over storage.
func Config(storage fiber.Storage) session.Config {
	lifetime := defaultLifetime
	if minutes := env.GetInt("SESSION_MINUTES", 0); minutes > 0 {
		lifetime = time.Duration(minutes) * time.Minute
	}
	return session.Config{
		Storage:        storage,
		Expiration:     lifetime,
		KeyLookup:      "cookie:" + sessionCookie,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: "Lax",
	}
}

// UseStore installs store as the process wide session store. Tests pass a
// memory backed store.
func UseStore(store *session.Store) *session.Store {
	sessionStore = store
	return sessionStore
}

func GetSessionStore() *session.Store {
	return sessionStore
}

func current(c *fiber.Ctx) (*session.Session, error) {
	if sessionStore == nil {
		return nil, fmt.Errorf("session store not initialized")
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// LoginUser starts an authenticated session for the user. The session id is
// rotated so an id planted before login cannot be reused.
func LoginUser(c *fiber.Ctx, userID uint, username string, isAdmin bool) error {
	sess, err := current(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, userID)
	sess.Set(usercontext.KeyUsername, username)
	sess.Set(usercontext.KeyIsAdmin, isAdmin)
	return sess.Save()
}

// LogoutUser destroys the current session.
func LogoutUser(c *fiber.Ctx) error {
	sess, err := current(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
