package app

import (
	"math"
	"math/rand"
	"time"

	"github.com/guidoenr/habitateq/internal/analyzer"
)

// fakeGenerator produces drifting band energies with occasional kicks for
// running without an audio device.
type fakeGenerator struct {
	rng       *rand.Rand
	phaseBass float64
	phaseMid  float64
	phaseHigh float64
}

func newFakeGenerator() *fakeGenerator {
	return newSeededGenerator(time.Now().UnixNano())
}

func newSeededGenerator(seed int64) *fakeGenerator {
	return &fakeGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (f *fakeGenerator) Next(delta float64) analyzer.Energies {
	f.phaseBass += delta * 0.7
	f.phaseMid += delta * 1.2
	f.phaseHigh += delta * 2.1

	bass := 0.5 + 0.4*math.Sin(f.phaseBass) + f.rng.Float64()*0.1
	mid := 0.4 + 0.4*math.Sin(f.phaseMid+0.5) + f.rng.Float64()*0.1
	treble := 0.3 + 0.3*math.Sin(f.phaseHigh+1.0) + f.rng.Float64()*0.1

	// kick
	if f.rng.Float64() < 0.02 {
		bass = 1
	}

	return analyzer.Energies{
		Bass:   clamp01(bass) * 255,
		Mid:    clamp01(mid) * 255,
		Treble: clamp01(treble) * 255,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
