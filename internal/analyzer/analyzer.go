package analyzer

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Analyzer turns mono sample windows into smoothed band energies.
//
// Spectrum bins are smoothed over time, converted to decibels and mapped onto
// 0..255 between MinDecibels and MaxDecibels, then averaged per band.
type Analyzer struct {
	sampleRate float64
	smoothing  float64
	minDB      float64
	maxDB      float64
	maxSize    int

	bands Bands

	buffer   []complex128
	window   []float64
	smoothed []float64
	bytes    []float64
}

// Band is a frequency range in Hz.
type Band struct {
	Low  float64
	High float64
}

// Bands selects the ranges reduced into bass, mid and treble.
type Bands struct {
	Bass   Band
	Mid    Band
	Treble Band
}

// DefaultBands returns the ranges used by the installation.
func DefaultBands() Bands {
	return Bands{
		Bass:   Band{Low: 20, High: 140},
		Mid:    Band{Low: 400, High: 2600},
		Treble: Band{Low: 5200, High: 14000},
	}
}

// Config controls Analyzer behavior. Smoothing blends each spectrum with the
// previous one: zero selects 0.8 and a negative value turns it off.
type Config struct {
	SampleRate  float64
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
	MaxFFTSize  int
	Bands       *Bands
}

// New creates an Analyzer, filling unset fields with defaults.
func New(cfg Config) *Analyzer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	switch {
	case cfg.Smoothing < 0:
		cfg.Smoothing = 0
	case cfg.Smoothing == 0 || cfg.Smoothing >= 1:
		cfg.Smoothing = 0.8
	}
	if cfg.MinDecibels == 0 && cfg.MaxDecibels == 0 {
		cfg.MinDecibels = -100
		cfg.MaxDecibels = -30
	}
	if cfg.MaxDecibels <= cfg.MinDecibels {
		cfg.MaxDecibels = cfg.MinDecibels + 70
	}
	if cfg.MaxFFTSize <= 0 {
		cfg.MaxFFTSize = 2048
	}
	bands := DefaultBands()
	if cfg.Bands != nil {
		bands = *cfg.Bands
	}
	return &Analyzer{
		sampleRate: cfg.SampleRate,
		smoothing:  cfg.Smoothing,
		minDB:      cfg.MinDecibels,
		maxDB:      cfg.MaxDecibels,
		maxSize:    nextPow2(cfg.MaxFFTSize),
		bands:      bands,
	}
}

// Analyze returns the band energies for the provided mono samples.
func (a *Analyzer) Analyze(samples []float32) Energies {
	if len(samples) == 0 {
		return Energies{}
	}

	size := nextPow2(min(len(samples), a.maxSize))
	if size < 256 {
		size = 256
	}

	a.ensureWorkspace(size)

	buffer := a.buffer[:size]
	window := a.window[:size]

	// most recent samples land at the end of the window
	offset := 0
	if len(samples) > size {
		offset = len(samples) - size
	}
	for i := 0; i < size; i++ {
		idx := offset + i
		if idx < len(samples) {
			buffer[i] = complex(float64(samples[idx])*window[i], 0)
			continue
		}
		buffer[i] = 0
	}

	spectrum := fft.FFT(buffer)

	bins := size / 2
	scale := 1.0 / float64(size)
	dbRange := a.maxDB - a.minDB
	for k := 0; k < bins; k++ {
		mag := cmag(spectrum[k]) * scale
		a.smoothed[k] = a.smoothed[k]*a.smoothing + mag*(1-a.smoothing)
		db := a.minDB
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		a.bytes[k] = clamp(255*(db-a.minDB)/dbRange, 0, 255)
	}

	return Energies{
		Bass:   a.bandEnergy(a.bands.Bass),
		Mid:    a.bandEnergy(a.bands.Mid),
		Treble: a.bandEnergy(a.bands.Treble),
	}
}

// bandEnergy averages the byte spectrum between two frequencies (inclusive bins).
func (a *Analyzer) bandEnergy(b Band) float64 {
	bins := len(a.bytes)
	if bins == 0 || b.Low >= b.High {
		return 0
	}
	nyquist := a.sampleRate / 2
	lo := int(math.Round(b.Low / nyquist * float64(bins)))
	hi := int(math.Round(b.High / nyquist * float64(bins)))
	if lo < 0 {
		lo = 0
	}
	if hi > bins-1 {
		hi = bins - 1
	}
	if lo > hi {
		return 0
	}
	return average(a.bytes[lo : hi+1])
}

func hann(i, size float64) float64 {
	return 0.5 * (1.0 - math.Cos(2.0*math.Pi*i/size))
}

func (a *Analyzer) ensureWorkspace(size int) {
	if len(a.buffer) != size {
		a.buffer = make([]complex128, size)
	}
	if len(a.window) != size {
		a.window = make([]float64, size)
		sizeF := float64(size)
		for i := range a.window {
			a.window[i] = hann(float64(i), sizeF)
		}
	}
	if len(a.smoothed) != size/2 {
		a.smoothed = make([]float64, size/2)
		a.bytes = make([]float64, size/2)
	}
}

func cmag(c complex128) float64 {
	return math.Sqrt(real(c)*real(c) + imag(c)*imag(c))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
