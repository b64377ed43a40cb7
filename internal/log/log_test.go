package log

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logPath string

// TestMain initializes the global logger once; Init is once-only so every
// test shares it.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "boxtop-log-test")
	if err != nil {
		panic(err)
	}
	logPath = filepath.Join(dir, "boxtop.log")

	cleanup, err := Init(logPath)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	cleanup()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func resetLogger() {
	ClearBuffer()
	SetEnabled(true)
	SetMinLevel(LevelDebug)
}

func TestLog_EntryFormat(t *testing.T) {
	resetLogger()

	Info(CatStream, "Log stream connected", "url", "http://box:5000", "attempt", 3)

	entries := GetRecentLogs(10)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Contains(t, entry, "[INFO]")
	assert.Contains(t, entry, "[stream]")
	assert.Contains(t, entry, "Log stream connected")
	assert.Contains(t, entry, "url=http://box:5000")
	assert.Contains(t, entry, "attempt=3")
}

func TestLog_OddFieldCount(t *testing.T) {
	resetLogger()

	Debug(CatControl, "odd fields", "dangling")

	entries := GetRecentLogs(1)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "dangling=<missing>")
}

func TestLog_ConcurrentLevelChanges(t *testing.T) {
	resetLogger()

	// Writers log while another goroutine flips the level and enable flag;
	// the filter checks and the level fields share one lock.
	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				Info(CatUI, "concurrent entry", "writer", w, "i", i)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range 50 {
			SetMinLevel(Level(i % 4))
			SetEnabled(i%2 == 0)
		}
	}()
	wg.Wait()

	resetLogger()
	Info(CatUI, "after churn")
	entries := GetRecentLogs(1)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "after churn")
}

func TestLog_MinLevelFilters(t *testing.T) {
	resetLogger()
	SetMinLevel(LevelWarn)

	Debug(CatUI, "too quiet")
	Info(CatUI, "still too quiet")
	Warn(CatUI, "loud enough")
	Error(CatUI, "very loud")

	entries := GetRecentLogs(10)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0], "[WARN]")
	assert.Contains(t, entries[1], "[ERROR]")
}

func TestLog_DisabledDropsEverything(t *testing.T) {
	resetLogger()
	SetEnabled(false)
	defer SetEnabled(true)

	Error(CatAPI, "should vanish")

	assert.Empty(t, GetRecentLogs(10))
}

func TestLog_ErrorErr(t *testing.T) {
	resetLogger()

	ErrorErr(CatConfig, "load failed", os.ErrNotExist, "path", "/tmp/x")

	entries := GetRecentLogs(1)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "error=file does not exist")
	assert.Contains(t, entries[0], "path=/tmp/x")

	ErrorErr(CatConfig, "nil error", nil)
	entries = GetRecentLogs(1)
	assert.Contains(t, entries[0], "error=<nil>")
}

func TestLog_GetRecentLogsBounded(t *testing.T) {
	resetLogger()

	for range 5 {
		Info(CatUI, "entry")
	}

	assert.Len(t, GetRecentLogs(3), 3)
	assert.Len(t, GetRecentLogs(100), 5)
}

func TestLog_ClearBuffer(t *testing.T) {
	resetLogger()

	Info(CatUI, "before clear")
	require.NotEmpty(t, GetRecentLogs(10))

	ClearBuffer()
	assert.Empty(t, GetRecentLogs(10))
}

func TestLog_WritesToFile(t *testing.T) {
	resetLogger()

	Info(CatWatcher, "persisted entry")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "persisted entry")
}

func TestLog_ListenerReceivesEntries(t *testing.T) {
	resetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewListener(ctx)
	require.NotNil(t, listener)

	Warn(CatStream, "published entry")

	msg := listener.Listen()()
	entry, ok := msg.(Entry)
	require.True(t, ok, "msg should be a log Entry")
	assert.Equal(t, EntryAppended, entry.Kind)
	assert.True(t, strings.Contains(entry.Payload, "published entry"))
}
