package strip

import (
	"fmt"
	"sync"
)

// Strip is an in-memory pixel buffer bound to an output Driver. Only Commit
// touches hardware.
type Strip struct {
	mu       sync.Mutex
	name     string
	pixels   []Color
	drv      Driver
	whiteCap float64
	observer func(name string, rgb []byte)
}

// Option configures a Strip.
type Option func(*Strip)

// WithWhiteCap limits each pixel's channel sum to cap*3*255 on commit.
func WithWhiteCap(cap float64) Option {
	return func(s *Strip) { s.whiteCap = cap }
}

// WithObserver is called with a copy of every committed frame.
func WithObserver(f func(name string, rgb []byte)) Option {
	return func(s *Strip) { s.observer = f }
}

func New(name string, count int, drv Driver, opts ...Option) *Strip {
	s := &Strip{
		name:   name,
		pixels: make([]Color, count),
		drv:    drv,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Strip) Name() string { return s.name }

func (s *Strip) Len() int { return len(s.pixels) }

// Set writes pixel i. Out-of-range indexes are ignored.
func (s *Strip) Set(i int, c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.pixels) {
		return
	}
	s.pixels[i] = c
}

func (s *Strip) Get(i int) Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.pixels) {
		return Off
	}
	return s.pixels[i]
}

// Fill sets every pixel to c.
func (s *Strip) Fill(c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pixels {
		s.pixels[i] = c
	}
}

// Snapshot returns a copy of the buffer.
func (s *Strip) Snapshot() []Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Color, len(s.pixels))
	copy(out, s.pixels)
	return out
}

// IsDark reports whether every pixel is off.
func (s *Strip) IsDark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pixels {
		if !p.IsOff() {
			return false
		}
	}
	return true
}

// Commit pushes the buffer to the driver.
func (s *Strip) Commit() error {
	s.mu.Lock()
	rgb := make([]byte, len(s.pixels)*3)
	for i, p := range s.pixels {
		rgb[i*3+0] = p.R
		rgb[i*3+1] = p.G
		rgb[i*3+2] = p.B
	}
	drv, obs := s.drv, s.observer
	s.mu.Unlock()

	applyWhiteCap(rgb, s.whiteCap)

	if obs != nil {
		obs(s.name, append([]byte(nil), rgb...))
	}
	if drv == nil {
		return nil
	}
	if err := drv.Write(rgb); err != nil {
		return fmt.Errorf("strip %s: %w", s.name, err)
	}
	return nil
}

// Clear fills the strip dark and commits.
func (s *Strip) Clear() error {
	s.Fill(Off)
	return s.Commit()
}

// Close releases the driver.
func (s *Strip) Close() error {
	if s.drv == nil {
		return nil
	}
	return s.drv.Close()
}
