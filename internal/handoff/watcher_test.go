package handoff

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/moodlight/internal/mood"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) RunEffect(feeling, wanted string) error {
	if _, err := mood.Parse(wanted); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, wanted+"/"+feeling)
	return nil
}

func (r *recorder) StopEffect() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "stop")
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestApply(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "want_feeling.txt")
	current := filepath.Join(dir, "current_feeling.txt")
	r := &recorder{}
	w := New(want, current, r, zerolog.Nop())

	write(t, want, "focus\nHealing\n")
	require.NoError(t, w.Apply(), "a missing current file means no feeling")
	write(t, current, "sad\n")
	require.NoError(t, w.Apply())
	require.NoError(t, w.Apply())

	write(t, want, "disco\n")
	assert.ErrorIs(t, w.Apply(), mood.ErrUnknown)

	write(t, want, "stop\n")
	require.NoError(t, w.Apply())
	require.NoError(t, w.Apply())

	write(t, want, "\n")
	require.NoError(t, w.Apply())

	assert.Equal(t, []string{"healing/", "healing/sad", "stop"}, r.got())
}

func TestRunFollowsWrites(t *testing.T) {
	dir := t.TempDir()
	want := filepath.Join(dir, "want_feeling.txt")
	current := filepath.Join(dir, "current_feeling.txt")
	write(t, current, "angry\n")

	r := &recorder{}
	w := New(want, current, r, zerolog.Nop(), WithDebounce(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	write(t, want, "relief\n")
	require.Eventually(t, func() bool { return len(r.got()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "relief/angry", r.got()[0])

	write(t, filepath.Join(dir, "unrelated.txt"), "love\n")
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, r.got(), 1)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
