package strip_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"

	. "github.com/coreman2200/moodlight/internal/strip"
)

var TestScaleIsExpectedColor = []struct {
	Base   Color
	Level  float64
	Expect Color
}{
	{Color{255, 255, 0}, 100, Color{255, 255, 0}},
	{Color{255, 255, 0}, 50, Color{127, 127, 0}},
	{Color{0, 0, 255}, 10, Color{0, 0, 25}},
	{Color{255, 0, 0}, 0, Color{}},
	{Color{255, 0, 0}, -5, Color{}},
	{Color{255, 0, 0}, 150, Color{255, 0, 0}},
}

func TestColorScale(t *testing.T) {
	for k, v := range TestScaleIsExpectedColor {
		t.Run("Given level"+strconv.Itoa(k), func(t *testing.T) {
			assert.Equal(t, v.Expect, v.Base.Scale(v.Level))
		})
	}
	assert.Equal(t, Color{R: 127}, Color{R: 255}.Dim(0.5))
}

func TestStripCommitWritesDriver(t *testing.T) {
	drv := NewSim()
	var seen []byte
	s := New("A", 3, drv, WithObserver(func(name string, rgb []byte) {
		assert.Equal(t, "A", name)
		seen = rgb
	}))

	s.Set(0, Color{R: 1, G: 2, B: 3})
	s.Set(2, Color{B: 9})
	s.Set(7, Color{R: 255})
	require.NoError(t, s.Commit())

	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0, 9}, drv.Last())
	assert.Equal(t, drv.Last(), seen)
	assert.Equal(t, 1, drv.Frames())
	assert.False(t, s.IsDark())

	require.NoError(t, s.Clear())
	assert.True(t, s.IsDark())
	assert.Equal(t, make([]byte, 9), drv.Last())
}

func TestStripWhiteCap(t *testing.T) {
	drv := NewSim()
	s := New("B", 1, drv, WithWhiteCap(0.5))
	s.Fill(Color{255, 255, 255})
	require.NoError(t, s.Commit())

	last := drv.Last()
	sum := int(last[0]) + int(last[1]) + int(last[2])
	assert.LessOrEqual(t, sum, 383)
	assert.Equal(t, Color{255, 255, 255}, s.Get(0), "buffer keeps the requested color")
}

func TestNRZWrite(t *testing.T) {
	buf := bytes.Buffer{}
	n, err := NewNRZ(spitest.NewRecordRaw(&buf), 2, 2500*physic.KiloHertz)
	require.NoError(t, err)

	before := buf.Len()
	require.NoError(t, n.Write([]byte{255, 0, 0, 0, 0, 255}))
	assert.Greater(t, buf.Len(), before)
	require.NoError(t, n.Close())
}

func TestNRZRejectsEmptyStrip(t *testing.T) {
	buf := bytes.Buffer{}
	_, err := NewNRZ(spitest.NewRecordRaw(&buf), 0, 2500*physic.KiloHertz)
	assert.Error(t, err)
}
