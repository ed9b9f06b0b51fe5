package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/moodlight/internal/effect"
	"github.com/coreman2200/moodlight/internal/receiver"
	"github.com/coreman2200/moodlight/internal/strip"
)

func TestDefaultsMatchComponents(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, effect.DefaultConfig(), c.EffectConfig())
	assert.Equal(t, receiver.DefaultConfig(), c.ReceiverConfig())
	assert.Equal(t, 8, c.DriverStrips[0].Count)
	assert.Equal(t, 24, c.FollowerStrips[1].Count)
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moodlight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
link:
  port: /dev/ttyUSB0
effects:
  energy:
    color: [0, 255, 0]
    delay: 250ms
  focus:
    ack_timeout: 20s
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", c.Link.Port)
	assert.Equal(t, 115200, c.Link.Baud, "untouched keys keep defaults")

	ef := c.EffectConfig()
	assert.Equal(t, strip.Color{G: 255}, ef.Energy.Color)
	assert.Equal(t, 250*time.Millisecond, ef.Energy.Delay)
	assert.Equal(t, 20*time.Second, ef.Focus.AckTimeout)
	assert.Equal(t, 1, ef.Focus.AckRetries)
}

func TestSaveLoadKeepsDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moodlight.yaml")
	c := Default()
	c.Effects.Relief.PauseD = 3 * time.Second
	require.NoError(t, Save(path, c))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, got.Effects.Relief.PauseD)
	assert.Equal(t, c.Effects.Love.Ramps, got.Effects.Love.Ramps)
}

func TestValidate(t *testing.T) {
	c := Default()
	c.DriverStrips[0].Count = 0
	c.FollowerStrips[1].Driver = "pwm"
	c.FollowerStrips = c.FollowerStrips[:1]
	c.Link.Baud = 0

	err := c.Validate()
	require.Error(t, err)
	for _, want := range []string{"link.baud", "count must be positive", "exactly 2 strips"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateAckTimeoutOutlastsFollowerFill(t *testing.T) {
	c := Default()
	assert.Equal(t, 9600*time.Millisecond, c.FollowerFill())
	assert.Greater(t, c.Effects.Focus.AckTimeout, c.FollowerFill())

	c.Effects.Focus.AckTimeout = 5 * time.Second
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "effects.focus.ack_timeout")

	c.Effects.Focus.AckTimeout = 0
	assert.NoError(t, c.Validate(), "zero waits forever")
}

func TestRGBClamps(t *testing.T) {
	assert.Equal(t, strip.Color{R: 255, B: 0}, RGB{300, -4}.Color())
}
