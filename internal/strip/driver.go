package strip

import "sync"

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Sim keeps the last written frame in memory. It stands in for hardware on
// benches and in tests.
type Sim struct {
	mu     sync.Mutex
	last   []byte
	frames int
	closed bool
}

func NewSim() *Sim { return &Sim{} }

func (d *Sim) Write(rgb []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = append(d.last[:0], rgb...)
	d.frames++
	return nil
}

func (d *Sim) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Last returns a copy of the most recent frame.
func (d *Sim) Last() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.last...)
}

// Frames counts writes so far.
func (d *Sim) Frames() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

func (d *Sim) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
