package watch

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

func tempRoot(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

func TestHandle_FiltersAndBatches(t *testing.T) {
	root := tempRoot(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "e2e"), 0o755))
	w, err := New(Config{Root: root})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.handle(fsnotify.Event{Name: filepath.Join(root, "e2e", "login.cy.js"), Op: fsnotify.Write}))
	assert.True(t, w.handle(fsnotify.Event{Name: filepath.Join(root, "cart.cy.ts"), Op: fsnotify.Create}))
	assert.True(t, w.handle(fsnotify.Event{Name: filepath.Join(root, "e2e", "login.cy.js"), Op: fsnotify.Write}))

	assert.False(t, w.handle(fsnotify.Event{Name: filepath.Join(root, "README.md"), Op: fsnotify.Write}))
	assert.False(t, w.handle(fsnotify.Event{Name: filepath.Join(root, "node_modules", "x", "a.js"), Op: fsnotify.Write}))
	assert.False(t, w.handle(fsnotify.Event{Name: filepath.Join(root, "a.js"), Op: fsnotify.Chmod}))
	assert.False(t, w.handle(fsnotify.Event{Name: filepath.Join(filepath.Dir(root), "other.js"), Op: fsnotify.Write}))

	assert.Equal(t, []string{"cart.cy.ts", "e2e/login.cy.js"}, w.drain())
	assert.Empty(t, w.drain())
}

func TestHandle_SingleFileRoot(t *testing.T) {
	root := tempRoot(t)
	file := filepath.Join(root, "login.cy.js")
	require.NoError(t, os.WriteFile(file, []byte("it('a', () => {});"), 0o644))

	w, err := New(Config{Root: file})
	require.NoError(t, err)
	defer w.Close()

	assert.False(t, w.handle(fsnotify.Event{Name: filepath.Join(root, "other.cy.js"), Op: fsnotify.Write}))
	assert.True(t, w.handle(fsnotify.Event{Name: file, Op: fsnotify.Write}))
	assert.Equal(t, []string{"login.cy.js"}, w.drain())
}

func TestNew_MissingRoot(t *testing.T) {
	_, err := New(Config{Root: filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_DebouncesChanges(t *testing.T) {
	root := tempRoot(t)
	w, err := New(Config{Root: root, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) { calls <- changed })
	}()

	// New directories are picked up while running.
	sub := filepath.Join(root, "e2e")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "login.cy.js"), []byte("it('a', () => {});"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	select {
	case changed := <-calls:
		assert.Equal(t, []string{"e2e/login.cy.js"}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change callback")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
