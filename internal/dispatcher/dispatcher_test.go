package dispatcher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/moodlight/internal/link"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/receiver"
	"github.com/coreman2200/moodlight/internal/strip"
)

type chanLink struct {
	in     chan string
	mu     sync.Mutex
	sent   []string
	closed chan struct{}
}

func newChanLink() *chanLink {
	return &chanLink{in: make(chan string, 16), closed: make(chan struct{})}
}

func (c *chanLink) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, line)
	return nil
}

func (c *chanLink) Receive(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case s := <-c.in:
		return s, nil
	case <-c.closed:
		return "", link.ErrClosed
	case <-time.After(timeout):
		return "", link.ErrTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func setup(t *testing.T) (*Dispatcher, *receiver.Receivers, *chanLink) {
	t.Helper()
	l := newChanLink()
	cfg := receiver.DefaultConfig()
	cfg.Poll = 5 * time.Millisecond
	cfg.FocusDwell = 5 * time.Millisecond
	c := strip.New("C", 16, strip.NewSim())
	d := strip.New("D", 24, strip.NewSim())
	r := receiver.New(c, d, l, cfg, zerolog.Nop(), nil)
	return New(r, l, zerolog.Nop(), WithPoll(5*time.Millisecond)), r, l
}

func run(ctx context.Context, d *Dispatcher) <-chan error {
	out := make(chan error, 1)
	go func() { out <- d.Run(ctx) }()
	return out
}

func waitState(t *testing.T, d *Dispatcher, s State, m mood.Mood) {
	t.Helper()
	require.Eventually(t, func() bool {
		gs, gm := d.State()
		return gs == s && gm == m
	}, 2*time.Second, time.Millisecond)
}

func TestModeLinesDriveStateMachine(t *testing.T) {
	d, r, l := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	out := run(ctx, d)

	s, _ := d.State()
	assert.Equal(t, Idle, s)

	l.in <- "energy"
	waitState(t, d, Active, mood.Energy)
	l.in <- "C,0,0,255"
	require.Eventually(t, func() bool { return !r.C.IsDark() }, time.Second, time.Millisecond)

	l.in <- "mode:Relief"
	waitState(t, d, Active, mood.Relief)
	assert.True(t, r.C.IsDark(), "switching clears the previous mood's pixels")

	l.in <- "relief"
	time.Sleep(20 * time.Millisecond)
	waitState(t, d, Active, mood.Relief)

	cancel()
	select {
	case err := <-out:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
	s, _ = d.State()
	assert.Equal(t, Idle, s)
	assert.True(t, r.C.IsDark())
	assert.True(t, r.D.IsDark())
}

func TestUnknownModeStaysIdle(t *testing.T) {
	d, _, l := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	run(ctx, d)

	l.in <- "disco"
	l.in <- "C,100"
	time.Sleep(30 * time.Millisecond)
	s, m := d.State()
	assert.Equal(t, Idle, s)
	assert.Equal(t, mood.Mood(""), m)
}

func TestFocusRoundTripThroughDispatcher(t *testing.T) {
	d, _, l := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	run(ctx, d)

	l.in <- "focus"
	waitState(t, d, Active, mood.Focus)
	l.in <- "C,100"
	require.Eventually(t, func() bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		return len(l.sent) == 1 && l.sent[0] == link.AckLine
	}, 2*time.Second, time.Millisecond)
}

func TestExternalStopReturnsToIdle(t *testing.T) {
	d, r, l := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	run(ctx, d)

	l.in <- "love"
	waitState(t, d, Active, mood.Love)
	l.in <- "D,80"
	require.Eventually(t, func() bool { return !r.D.IsDark() }, time.Second, time.Millisecond)

	d.Stop()
	waitState(t, d, Idle, "")
	assert.True(t, r.D.IsDark())

	l.in <- "healing"
	waitState(t, d, Active, mood.Healing)
}

func TestClosedLinkEndsRun(t *testing.T) {
	d, _, l := setup(t)
	out := run(context.Background(), d)
	close(l.closed)

	select {
	case err := <-out:
		assert.ErrorIs(t, err, link.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
