package audio

import (
	"math"
	"sync"
)

// silence is the peak level below which a source counts as quiet.
const silence = 1e-4

// ring keeps the most recent mono samples written by an audio callback.
type ring struct {
	mu    sync.RWMutex
	buf   []float32
	index int
	peak  float32
}

func newRing(size int) *ring {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &ring{buf: make([]float32, size)}
}

// write appends samples, overwriting the oldest ones.
func (r *ring) write(in []float32) {
	if len(in) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var peak float32
	for _, v := range in {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	r.peak = peak

	if len(in) >= len(r.buf) {
		copy(r.buf, in[len(in)-len(r.buf):])
		r.index = 0
		return
	}
	if r.index+len(in) <= len(r.buf) {
		copy(r.buf[r.index:], in)
		r.index += len(in)
		if r.index == len(r.buf) {
			r.index = 0
		}
		return
	}
	remaining := len(r.buf) - r.index
	copy(r.buf[r.index:], in[:remaining])
	copy(r.buf, in[remaining:])
	r.index = len(in) - remaining
}

// snapshot copies the buffer out, oldest sample first.
func (r *ring) snapshot() []float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]float32, len(r.buf))
	n := copy(out, r.buf[r.index:])
	copy(out[n:], r.buf[:r.index])
	return out
}

// loud reports whether the last write carried signal.
func (r *ring) loud() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peak > silence
}

// downmix averages interleaved channels into mono, reusing dst.
func downmix(dst, in []float32, channels int) []float32 {
	if channels <= 1 {
		return append(dst[:0], in...)
	}
	n := len(in) / channels
	dst = dst[:0]
	for i := 0; i < n; i++ {
		var sum float32
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			sum += in[base+ch]
		}
		dst = append(dst, sum/float32(channels))
	}
	return dst
}
