package scene

import (
	"math"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/params"
)

// Floor is one horizontal band. Index 0 is the bottom band.
type Floor struct {
	Index int
	// Y and Height are in source-image pixels, measured from the top.
	Y      int
	Height int

	Bass   float64
	Treble float64
	Mid    float64
	Total  float64
}

// FloorBands animates bass rising from the bottom, treble falling from the
// top and mid spreading from the center.
type FloorBands struct {
	floors []Floor
	p      params.Parameters
}

// NewFloorBands partitions the image height into p.Floors bands.
func NewFloorBands(imgH int, p params.Parameters) *FloorBands {
	n := p.Floors
	if n <= 0 {
		n = 1
	}
	if imgH < n {
		n = max(1, imgH)
	}
	floors := make([]Floor, n)
	for i := range floors {
		// band i counted from the bottom
		top := imgH - (i+1)*imgH/n
		bottom := imgH - i*imgH/n
		floors[i] = Floor{Index: i, Y: top, Height: bottom - top}
	}
	return &FloorBands{floors: floors, p: p}
}

// Floors exposes the bands for drawing.
func (f *FloorBands) Floors() []Floor { return f.floors }

// Reset zeroes every band's energies.
func (f *FloorBands) Reset() {
	for i := range f.floors {
		fl := &f.floors[i]
		fl.Bass, fl.Treble, fl.Mid, fl.Total = 0, 0, 0, 0
	}
}

// Update recomputes the travelling waves for this frame.
func (f *FloorBands) Update(e analyzer.Energies, frame int) {
	bass, mid, treble := e.Norm()
	time := float64(frame) * f.p.FloorTimeScale
	n := len(f.floors)
	half := float64(n) / 2

	for i := range f.floors {
		fl := &f.floors[i]
		fromBottom := 0.0
		if n > 1 {
			fromBottom = float64(i) / float64(n-1)
		}
		fromTop := 1 - fromBottom
		fromCenter := math.Abs(float64(i)-half) / half

		fl.Bass = bass * math.Max(0, math.Sin(time-fromBottom*2*math.Pi)) * (1 - fromBottom*0.2)
		fl.Treble = treble * math.Max(0, math.Sin(time-fromTop*2*math.Pi)) * (1 - fromTop*0.2)
		fl.Mid = mid * math.Max(0, math.Sin(time-fromCenter*2*math.Pi)) * (1 - fromCenter*0.1)

		total := fl.Bass*0.5 + fl.Treble*0.4 + fl.Mid*0.4 + fl.Bass*fl.Treble*0.8
		fl.Total = clamp01(total * f.p.FloorGain)
	}
}

// Band names the dominant contribution of a floor.
type Band int

const (
	BandMid Band = iota
	BandBass
	BandTreble
)

// Dominant returns bass when it strictly exceeds both others, treble likewise,
// otherwise mid.
func (fl Floor) Dominant() Band {
	switch {
	case fl.Bass > fl.Treble && fl.Bass > fl.Mid:
		return BandBass
	case fl.Treble > fl.Bass && fl.Treble > fl.Mid:
		return BandTreble
	default:
		return BandMid
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

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
