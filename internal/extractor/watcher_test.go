package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RerunsOnChange(t *testing.T) {
	cfg, _ := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{
		"ops.py": "@oneflow_export(\"ops.add\")\ndef add(a, b):\n    return a + b\n",
	})

	cache, err := NewParseCache(DefaultCacheCapacity)
	require.NoError(t, err)
	defer cache.Close()

	ex, err := New(cfg, WithParseCache(cache))
	require.NoError(t, err)
	_, err = ex.Run(context.Background())
	require.NoError(t, err)

	runs := make(chan *Result, 4)
	w, err := NewWatcher(ex, cfg.OutDir, func(r *Result, err error) {
		if err == nil {
			runs <- r
		}
	})
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(cfg.SrcDir, "more.py"),
		[]byte("@oneflow_export(\"ops.sub\")\ndef sub(a, b):\n    return a - b\n"), 0644))

	select {
	case r := <-runs:
		assert.Equal(t, 2, r.SourceFiles)
		assert.Equal(t, 2, r.Exported)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not rerun the extraction")
	}

	content, err := os.ReadFile(filepath.Join(cfg.OutDir, "oneflow", "ops.py"))
	require.NoError(t, err)
	assert.Equal(t, "def sub(a, b):\n    return a - b\n\ndef add(a, b):\n    return a + b\n", string(content))
}

func TestWatcher_FiltersEvents(t *testing.T) {
	t.Parallel()

	cfg, _ := testConfig(t)
	writeTree(t, cfg.SrcDir, map[string]string{"x.py": "x = 1\n"})

	ex, err := New(cfg)
	require.NoError(t, err)
	w, err := NewWatcher(ex, cfg.OutDir, nil)
	require.NoError(t, err)
	defer w.Stop()

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"python write", fsnotify.Event{Name: filepath.Join(cfg.SrcDir, "x.py"), Op: fsnotify.Write}, true},
		{"python remove", fsnotify.Event{Name: filepath.Join(cfg.SrcDir, "x.py"), Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: filepath.Join(cfg.SrcDir, "x.py"), Op: fsnotify.Chmod}, false},
		{"not python", fsnotify.Event{Name: filepath.Join(cfg.SrcDir, "notes.txt"), Op: fsnotify.Write}, false},
		{"excluded", fsnotify.Event{Name: filepath.Join(cfg.SrcDir, "test", "t.py"), Op: fsnotify.Write}, false},
		{"output tree", fsnotify.Event{Name: filepath.Join(cfg.OutDir, "oneflow", "x.py"), Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, w.shouldProcessEvent(tt.event), tt.name)
	}
}
