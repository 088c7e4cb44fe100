package analyzer

import (
	"math"
	"testing"
)

func TestAverage(t *testing.T) {
	vals := []float64{0.2, 0.4, 0.6, 0.8}
	want := 0.5
	if got := average(vals); math.Abs(got-want) > 1e-6 {
		t.Fatalf("average=%f want=%f", got, want)
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{
		0:   1,
		1:   1,
		2:   2,
		3:   4,
		5:   8,
		16:  16,
		31:  32,
		257: 512,
	}
	for input, want := range cases {
		if got := nextPow2(input); got != want {
			t.Fatalf("nextPow2(%d)=%d want=%d", input, got, want)
		}
	}
}

func TestClamp(t *testing.T) {
	if clamp(2, 0, 1) != 1 {
		t.Fatalf("expected clamp high to be 1")
	}
	if clamp(-1, 0, 1) != 0 {
		t.Fatalf("expected clamp low to be 0")
	}
	if clamp(0.5, 0, 1) != 0.5 {
		t.Fatalf("expected clamp middle to be unchanged")
	}
}

func TestAnalyzeSilenceIsZero(t *testing.T) {
	a := New(Config{SampleRate: 44_100})
	got := a.Analyze(make([]float32, 2048))
	if got != (Energies{}) {
		t.Fatalf("silence produced %+v", got)
	}
}

func TestAnalyzeLowSineLandsInBass(t *testing.T) {
	const rate = 44_100.0
	a := New(Config{SampleRate: rate})
	samples := make([]float32, 2048)
	for i := range samples {
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*80*float64(i)/rate))
	}
	var got Energies
	for i := 0; i < 8; i++ {
		got = a.Analyze(samples)
	}
	if got.Bass < 100 {
		t.Fatalf("bass=%f want >= 100", got.Bass)
	}
	if got.Treble >= got.Bass || got.Treble > 20 {
		t.Fatalf("treble=%f bass=%f, want treble near zero", got.Treble, got.Bass)
	}
}

func TestAnalyzeSmoothsByDefault(t *testing.T) {
	const rate = 44_100.0
	tone := make([]float32, 2048)
	for i := range tone {
		tone[i] = float32(0.8 * math.Sin(2*math.Pi*80*float64(i)/rate))
	}
	silence := make([]float32, 2048)

	a := New(Config{SampleRate: rate, MaxFFTSize: 1024})
	if a.smoothing != 0.8 {
		t.Fatalf("smoothing=%f want 0.8", a.smoothing)
	}
	loud := a.Analyze(tone)
	tail := a.Analyze(silence)
	if tail.Bass <= 0 || tail.Bass >= loud.Bass {
		t.Fatalf("bass after tone=%f then silence=%f, want a decaying tail", loud.Bass, tail.Bass)
	}

	raw := New(Config{SampleRate: rate, MaxFFTSize: 1024, Smoothing: -1})
	raw.Analyze(tone)
	if got := raw.Analyze(silence); got != (Energies{}) {
		t.Fatalf("unsmoothed silence produced %+v", got)
	}
}

func TestEnergiesOverallWeights(t *testing.T) {
	e := Energies{Bass: 255, Mid: 0, Treble: 0}
	if got := e.Overall(); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("overall=%f want 0.5", got)
	}
	e = Energies{Bass: 255, Mid: 255, Treble: 255}
	if got := e.Overall(); math.Abs(got-1) > 1e-9 {
		t.Fatalf("overall=%f want 1", got)
	}
}

func TestGateZeroesWeakBands(t *testing.T) {
	e := Gate(Energies{Bass: 20, Mid: 200, Treble: 255}, 0.2)
	if e.Bass != 0 {
		t.Fatalf("bass should be gated, got %f", e.Bass)
	}
	if e.Mid <= 0 || e.Mid >= 200 {
		t.Fatalf("mid should be rescaled into (0,200), got %f", e.Mid)
	}
	if math.Abs(e.Treble-255) > 1e-9 {
		t.Fatalf("treble should stay at full scale, got %f", e.Treble)
	}
}
