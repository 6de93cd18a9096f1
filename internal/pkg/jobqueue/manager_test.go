package jobqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetManager(t *testing.T) {
	t.Helper()
	globalManager = nil
	managerOnce = sync.Once{}
	t.Cleanup(func() {
		globalManager = nil
		managerOnce = sync.Once{}
	})
}

func TestGetManagerIsSingleton(t *testing.T) {
	resetManager(t)

	m := GetManager()
	require.NotNil(t, m)
	assert.Same(t, m, GetManager())
	assert.NotNil(t, m.GetQueue())
	assert.False(t, m.IsRunning())
}

func TestManagerSchedule(t *testing.T) {
	m := newManager(newQueueWithClient(nil, 1))

	names := make([]string, 0)
	for _, task := range m.tasks() {
		names = append(names, task.name)
	}
	assert.Equal(t, []string{"requeue stuck jobs", "refresh statistics", "purge expired credentials"}, names)

	c := m.scheduler()
	assert.Len(t, c.Entries(), len(m.tasks()))
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := newManager(newQueueWithClient(nil, 1))
	assert.NotPanics(t, m.Stop)
	assert.False(t, m.IsRunning())
}

func TestManagerStartStop(t *testing.T) {
	m := newManager(testQueue(t, 1))

	m.Start()
	assert.True(t, m.IsRunning())
	assert.True(t, m.GetQueue().running)

	m.Stop()
	assert.False(t, m.IsRunning())
	assert.False(t, m.GetQueue().running)
}
