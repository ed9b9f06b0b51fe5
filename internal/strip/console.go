package strip

import (
	"image"

	"periph.io/x/extra/devices/screen"
)

// Console renders frames as ANSI color blocks on stdout.
type Console struct {
	dev   *screen.Dev
	count int
}

func NewConsole(count int) *Console {
	return &Console{dev: screen.New(count), count: count}
}

func (c *Console) Write(rgb []byte) error {
	im := image.NewNRGBA(image.Rect(0, 0, c.count, 1))
	for x := 0; x < c.count && x*3+2 < len(rgb); x++ {
		im.SetNRGBA(x, 0, Color{R: rgb[x*3], G: rgb[x*3+1], B: rgb[x*3+2]}.NRGBA())
	}
	return c.dev.Draw(c.dev.Bounds(), im, image.Point{})
}

func (c *Console) Close() error {
	return c.dev.Halt()
}
