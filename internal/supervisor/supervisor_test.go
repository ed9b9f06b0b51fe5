package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/moodlight/internal/effect"
	"github.com/coreman2200/moodlight/internal/metrics"
	"github.com/coreman2200/moodlight/internal/mood"
	"github.com/coreman2200/moodlight/internal/strip"
	"github.com/coreman2200/moodlight/internal/token"
)

// countingRunner tracks how many runs overlap.
type countingRunner struct {
	running  int32
	peak     int32
	starts   int32
	darkened int32
	stuck    bool
	mu       sync.Mutex
	feelings []string
}

func (r *countingRunner) Run(tok *token.Token, m mood.Mood, feeling string) error {
	n := atomic.AddInt32(&r.running, 1)
	defer atomic.AddInt32(&r.running, -1)
	atomic.AddInt32(&r.starts, 1)
	for {
		p := atomic.LoadInt32(&r.peak)
		if n <= p || atomic.CompareAndSwapInt32(&r.peak, p, n) {
			break
		}
	}
	r.mu.Lock()
	r.feelings = append(r.feelings, feeling)
	r.mu.Unlock()
	if r.stuck {
		time.Sleep(200 * time.Millisecond)
		return nil
	}
	for tok.Sleep(token.Step) {
	}
	return nil
}

func (r *countingRunner) Has(m mood.Mood) bool { return m.Valid() }

func (r *countingRunner) Dark() { atomic.AddInt32(&r.darkened, 1) }

type closeCounter struct{ n int }

func (c *closeCounter) Close() error { c.n++; return nil }

func TestStopWhenIdleIsNoop(t *testing.T) {
	r := &countingRunner{}
	s := New(r, nil, zerolog.Nop())
	s.Stop()
	s.StopEffect()
	_, ok := s.Active()
	assert.False(t, ok)
	select {
	case <-s.Done():
	default:
		t.Fatal("idle supervisor should report done")
	}
}

func TestAtMostOneActive(t *testing.T) {
	r := &countingRunner{}
	s := New(r, nil, zerolog.Nop())

	for _, m := range []mood.Mood{mood.Energy, mood.Focus, mood.Love, mood.Healing, mood.Relief, mood.Energy} {
		require.NoError(t, s.Request(m, mood.Happy))
		time.Sleep(5 * time.Millisecond)
	}
	active, ok := s.Active()
	assert.True(t, ok)
	assert.Equal(t, mood.Energy, active)

	s.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&r.peak))
	assert.Equal(t, int32(6), atomic.LoadInt32(&r.starts))
	assert.Equal(t, int32(0), atomic.LoadInt32(&r.running))
}

func TestRunEffectParsesNames(t *testing.T) {
	r := &countingRunner{}
	s := New(r, nil, zerolog.Nop())

	require.NoError(t, s.RunEffect(" Sad ", "HEALING"))
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, mood.Healing, active)

	assert.ErrorIs(t, s.RunEffect("happy", "disco"), mood.ErrUnknown)
	active, _ = s.Active()
	assert.Equal(t, mood.Healing, active, "a bad request leaves the running effect alone")

	s.Stop()
	r.mu.Lock()
	assert.Equal(t, []string{"sad"}, r.feelings)
	r.mu.Unlock()
}

func TestStuckEffectIsAbandoned(t *testing.T) {
	r := &countingRunner{stuck: true}
	m := metrics.New()
	s := New(r, nil, zerolog.Nop(), WithJoinTimeout(20*time.Millisecond), WithMetrics(m))

	require.NoError(t, s.Request(mood.Love, ""))
	time.Sleep(5 * time.Millisecond)
	begin := time.Now()
	s.Stop()
	assert.Less(t, time.Since(begin), 150*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Abandoned))
	_, ok := s.Active()
	assert.False(t, ok)
}

func TestActiveAnswersDuringSwitch(t *testing.T) {
	r := &countingRunner{stuck: true}
	s := New(r, nil, zerolog.Nop())

	require.NoError(t, s.Request(mood.Love, ""))
	time.Sleep(5 * time.Millisecond)
	switched := make(chan error, 1)
	go func() { switched <- s.Request(mood.Energy, "") }()
	time.Sleep(20 * time.Millisecond)

	begin := time.Now()
	active, ok := s.Active()
	_ = s.Done()
	assert.Less(t, time.Since(begin), 50*time.Millisecond)
	assert.True(t, ok)
	assert.Equal(t, mood.Love, active, "the old effect is still winding down")

	select {
	case err := <-switched:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("switch never finished")
	}
	active, _ = s.Active()
	assert.Equal(t, mood.Energy, active)
	s.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&r.peak))
}

func TestCleanupClosesOnce(t *testing.T) {
	r := &countingRunner{}
	c := &closeCounter{}
	s := New(r, c, zerolog.Nop())

	require.NoError(t, s.Request(mood.Relief, ""))
	require.NoError(t, s.Cleanup())
	require.NoError(t, s.Cleanup())

	assert.Equal(t, 1, c.n)
	assert.Equal(t, int32(2), atomic.LoadInt32(&r.darkened))
	assert.ErrorIs(t, s.Request(mood.Energy, ""), ErrClosed)
}

// nopLink swallows every line; effects never see a reply.
type nopLink struct{}

func (nopLink) Send(string) error          { return nil }
func (nopLink) TryReceive() (string, bool) { return "", false }
func (nopLink) Receive(ctx context.Context, _ time.Duration) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestStripsDarkAfterStop(t *testing.T) {
	a := strip.New("A", 8, strip.NewSim())
	b := strip.New("B", 12, strip.NewSim())
	eng := effect.New(a, b, nopLink{}, effect.DefaultConfig(), zerolog.Nop(), nil)
	s := New(eng, nil, zerolog.Nop())

	for _, m := range mood.All() {
		require.NoError(t, s.Request(m, mood.Angry))
		time.Sleep(30 * time.Millisecond)
		s.Stop()
		assert.True(t, a.IsDark(), m.String())
		assert.True(t, b.IsDark(), m.String())
	}
}
