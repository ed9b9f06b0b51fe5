package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetIsIdempotent(t *testing.T) {
	tok := New()
	assert.False(t, tok.IsSet())
	tok.Set()
	tok.Set()
	assert.True(t, tok.IsSet())
	assert.Error(t, tok.Context().Err())
}

func TestSleepFullDuration(t *testing.T) {
	tok := New()
	start := time.Now()
	assert.True(t, tok.Sleep(20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestSleepInterruptedWithinOneStep(t *testing.T) {
	tok := New()
	go func() {
		time.Sleep(30 * time.Millisecond)
		tok.Set()
	}()

	start := time.Now()
	ok := tok.Sleep(5 * time.Second)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Less(t, elapsed, 30*time.Millisecond+5*Step)
}

func TestSleepAfterSet(t *testing.T) {
	tok := New()
	tok.Set()
	start := time.Now()
	assert.False(t, tok.Sleep(time.Second))
	assert.Less(t, time.Since(start), Step)
}
