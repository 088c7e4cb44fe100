package audio

// Source delivers the latest mono samples once per frame. Implementations
// are filled from an audio callback and safe to read from the frame loop.
type Source interface {
	Samples() []float32
	SampleRate() float64
	// Playing reports whether sound is currently flowing.
	Playing() bool
	// Label names the source for status lines.
	Label() string
	Close() error
}

var (
	_ Source = (*Capture)(nil)
	_ Source = (*FilePlayer)(nil)
)
