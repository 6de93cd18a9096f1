package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/database"
	"github.com/ManuelReschke/NetPortal/internal/pkg/statistics"
)

const (
	stuckJobMaxAge        = 10 * time.Minute
	passwordResetLifetime = time.Hour
)

// maintenanceTask is a periodic job run by the manager's cron scheduler.
type maintenanceTask struct {
	spec string
	name string
	run  func() error
}

// Manager owns the portal's job queue and its maintenance schedule.
type Manager struct {
	queue *Queue

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the process wide manager. The worker count comes from
// the admin settings.
func GetManager() *Manager {
	managerOnce.Do(func() {
		workers := defaultConcurrency
		if settings := models.GetAppSettings(); settings != nil {
			workers = settings.GetJobQueueWorkerCount()
		}
		globalManager = newManager(NewQueue(workers))
	})
	return globalManager
}

func newManager(q *Queue) *Manager {
	return &Manager{queue: q}
}

func (m *Manager) GetQueue() *Queue {
	return m.queue
}

func (m *Manager) tasks() []maintenanceTask {
	return []maintenanceTask{
		{"@every 1m", "requeue stuck jobs", m.recoverStuckJobs},
		{"@every 5m", "refresh statistics", m.refreshStatistics},
		{"@hourly", "purge expired credentials", m.purgeExpiredCredentials},
	}
}

// scheduler registers every maintenance task on a fresh cron instance.
func (m *Manager) scheduler() *cron.Cron {
	c := cron.New()
	for _, task := range m.tasks() {
		task := task
		_, err := c.AddFunc(task.spec, func() {
			if err := task.run(); err != nil {
				log.Errorf("[Maintenance] %s: %v", task.name, err)
			}
		})
		if err != nil {
			log.Errorf("[Maintenance] Cannot schedule %s (%s): %v", task.name, task.spec, err)
		}
	}
	return c
}

// Start runs the queue workers and the maintenance schedule.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}

	m.queue.Start()
	m.cron = m.scheduler()
	m.cron.Start()
	m.running = true
	log.Infof("[Maintenance] %d tasks scheduled", len(m.cron.Entries()))
}

// Stop waits for a running maintenance task, then stops the queue.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}

	<-m.cron.Stop().Done()
	m.queue.Stop()
	m.cron = nil
	m.running = false
	log.Info("[Maintenance] Stopped")
}

func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) recoverStuckJobs() error {
	n, err := m.queue.RecoverStuckJobs(context.Background(), stuckJobMaxAge)
	if n > 0 {
		log.Infof("[Maintenance] Requeued %d stuck jobs", n)
	}
	return err
}

func (m *Manager) refreshStatistics() error {
	statistics.ResetCacheUpdateTimer()
	statistics.UpdateCacheIfNeeded()
	return nil
}

// purgeExpiredCredentials removes expired access tokens and stale reset links.
func (m *Manager) purgeExpiredCredentials() error {
	db := database.GetDB()
	if db == nil {
		return nil
	}
	now := time.Now()
	tokens, err := repository.NewTokenRepository(db).DeleteExpired(now)
	if err != nil {
		return err
	}
	resets, err := repository.NewPasswordResetRepository(db).DeleteOlderThan(now.Add(-passwordResetLifetime))
	if err != nil {
		return err
	}
	if tokens > 0 || resets > 0 {
		log.Infof("[Maintenance] Purged %d expired tokens and %d password resets", tokens, resets)
	}
	return nil
}
