// FILE: lixenwraith/blockconf/watch_test.go
package blockconf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:  100 * time.Millisecond,
		Debounce:      50 * time.Millisecond,
		MaxWatchers:   10,
		ReloadTimeout: time.Second,
	}
}

// collect reads events until want is seen or the deadline passes
func collect(t *testing.T, ch <-chan string, want string, timeout time.Duration) []string {
	t.Helper()
	var events []string
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
			if strings.HasPrefix(ev, want) {
				return events
			}
		case <-deadline:
			return events
		}
	}
}

func TestAutoUpdate(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "watch.conf")
	require.NoError(t, os.WriteFile(configPath, []byte("port = 8080\n<server main>\nhost = localhost\n</server>\n"), 0644))

	cfg := New()
	require.NoError(t, cfg.LoadFile(configPath))

	cfg.AutoUpdateWithOptions(fastWatchOptions())
	defer cfg.StopAutoUpdate()
	assert.True(t, cfg.IsWatching())

	changes := cfg.Watch()
	assert.Equal(t, 1, cfg.WatcherCount())

	// Sleep past mtime granularity
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(configPath, []byte("port = 9090\n<server main>\nhost = localhost\nhost = backup\n</server>\n"), 0644))

	events := collect(t, changes, "server/main/host", 3*time.Second)
	assert.Equal(t, []string{"port", "server/main/host"}, events)

	assert.Eventually(t, func() bool {
		port, _ := cfg.Value("port")
		return port == "9090"
	}, 2*time.Second, 50*time.Millisecond)
	hosts, _ := cfg.Entries("server/main/host")
	assert.Equal(t, []string{"localhost", "backup"}, hosts)
}

func TestReloadErrorKeepsDocument(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "watch.conf")
	require.NoError(t, os.WriteFile(configPath, []byte("port = 8080\n"), 0644))

	cfg := New()
	require.NoError(t, cfg.LoadFile(configPath))
	changes := cfg.WatchWithOptions(fastWatchOptions())
	defer cfg.StopAutoUpdate()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(configPath, []byte("port = 9090\n<broken block>\n"), 0644))

	events := collect(t, changes, EventReloadError, 3*time.Second)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.True(t, strings.HasPrefix(last, EventReloadError+":"))
	assert.Contains(t, last, "Not all tags are closed")

	port, _ := cfg.Value("port")
	assert.Equal(t, "8080", port)
}

func TestFileDeletedEvent(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "watch.conf")
	require.NoError(t, os.WriteFile(configPath, []byte("a = b\n"), 0644))

	cfg := New()
	require.NoError(t, cfg.LoadFile(configPath))
	changes := cfg.WatchWithOptions(fastWatchOptions())
	defer cfg.StopAutoUpdate()

	require.NoError(t, os.Remove(configPath))

	events := collect(t, changes, EventFileDeleted, 2*time.Second)
	assert.Contains(t, events, EventFileDeleted)

	value, _ := cfg.Value("a")
	assert.Equal(t, "b", value)
}

func TestWatchLifecycle(t *testing.T) {
	t.Run("NoFileGivesClosedChannel", func(t *testing.T) {
		cfg := New()
		ch := cfg.Watch()
		_, ok := <-ch
		assert.False(t, ok)
		assert.False(t, cfg.IsWatching())
		assert.Equal(t, 0, cfg.WatcherCount())
	})

	t.Run("StopClosesChannels", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "watch.conf")
		require.NoError(t, os.WriteFile(configPath, []byte("a = b\n"), 0644))

		cfg := New()
		require.NoError(t, cfg.LoadFile(configPath))
		ch1 := cfg.WatchWithOptions(fastWatchOptions())
		ch2 := cfg.WatchWithOptions(fastWatchOptions())
		assert.Equal(t, 2, cfg.WatcherCount())

		cfg.StopAutoUpdate()
		assert.False(t, cfg.IsWatching())
		assert.Equal(t, 0, cfg.WatcherCount())

		for _, ch := range []<-chan string{ch1, ch2} {
			select {
			case _, ok := <-ch:
				assert.False(t, ok)
			case <-time.After(time.Second):
				t.Fatal("channel not closed after StopAutoUpdate")
			}
		}
	})

	t.Run("MaxWatchers", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "watch.conf")
		require.NoError(t, os.WriteFile(configPath, []byte("a = b\n"), 0644))

		cfg := New()
		require.NoError(t, cfg.LoadFile(configPath))
		defer cfg.StopAutoUpdate()

		opts := fastWatchOptions()
		opts.MaxWatchers = 2
		cfg.WatchWithOptions(opts)
		cfg.WatchWithOptions(opts)
		extra := cfg.WatchWithOptions(opts)

		_, ok := <-extra
		assert.False(t, ok)
		assert.Equal(t, 2, cfg.WatcherCount())
	})

	t.Run("WatchFileSwitchesTarget", func(t *testing.T) {
		dir := t.TempDir()
		first := filepath.Join(dir, "first.conf")
		second := filepath.Join(dir, "second.conf")
		require.NoError(t, os.WriteFile(first, []byte("name = first\n"), 0644))
		require.NoError(t, os.WriteFile(second, []byte("name = second\n"), 0644))

		cfg := New()
		require.NoError(t, cfg.LoadFile(first))
		cfg.AutoUpdateWithOptions(fastWatchOptions())
		defer cfg.StopAutoUpdate()

		require.NoError(t, cfg.WatchFile(second))
		assert.True(t, cfg.IsWatching())
		assert.Equal(t, second, cfg.FilePath())
		name, _ := cfg.Value("name")
		assert.Equal(t, "second", name)

		err := cfg.WatchFile(filepath.Join(dir, "missing.conf"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})
}

func TestDiffPaths(t *testing.T) {
	oldValues := map[string][]string{
		"a":        {"1"},
		"b":        {"1", "2"},
		"x/y/gone": {"z"},
	}
	newValues := map[string][]string{
		"a":       {"1"},
		"b":       {"2", "1"},
		"x/y/new": {"z"},
	}
	assert.Equal(t, []string{"b", "x/y/gone", "x/y/new"}, diffPaths(oldValues, newValues))
	assert.Empty(t, diffPaths(oldValues, oldValues))
}
