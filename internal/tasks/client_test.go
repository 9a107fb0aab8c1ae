package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookclub/internal/config"
	"github.com/mrlokans/bookclub/internal/logging"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test-tasks.db"), cfg, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestDatabasePath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "bookclub-tasks.db"), DatabasePath("data/bookclub.db"))
	assert.Equal(t, "bookclub-tasks.db", DatabasePath(":memory:"))
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	path := DatabasePath(filepath.Join(tmpDir, "test.db"))

	client, err := NewClient(path, DefaultConfig(), logging.Nop())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, "test-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")
	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

type fakePurger struct {
	called chan struct{}
}

func (f *fakePurger) PurgeExpiredTokens(context.Context) (int64, error) {
	f.called <- struct{}{}
	return 3, nil
}

func TestEnqueuePurge(t *testing.T) {
	client := newTestClient(t)
	purger := &fakePurger{called: make(chan struct{}, 1)}
	client.Register(NewPurgeTokensQueue(purger, logging.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	require.NoError(t, client.EnqueuePurge(ctx))

	select {
	case <-purger.called:
	case <-time.After(5 * time.Second):
		t.Fatal("purge task was not executed within timeout")
	}
}

func TestTaskConfigs(t *testing.T) {
	tests := []struct {
		task backlite.Task
		name string
	}{
		{task: NotifyFriendsTask{}, name: "notify_friends"},
		{task: PurgeTokensTask{}, name: "purge_tokens"},
	}
	for _, tt := range tests {
		cfg := tt.task.Config()
		assert.Equal(t, tt.name, cfg.Name)
		assert.Equal(t, 3, cfg.MaxAttempts)
		assert.NotNil(t, cfg.Retention)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.Tasks{Workers: 4})
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
