package scene

import (
	"image"
	"math"
	"sort"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/params"
)

// Region is the band a strip responds to.
type Region int

const (
	RegionBass Region = iota
	RegionMid
	RegionTreble
)

// Strip is one vertical slice of the source image.
type Strip struct {
	Index int
	// Slice is the strip's rectangle in source-image pixels.
	Slice image.Rectangle

	CurrentY  float64
	VelocityY float64
	TargetY   float64
	Z         float64

	// Energy is the quantized level used for drawing, Raw the unclamped sum.
	Energy float64
	Raw    float64
}

// ColumnGrid animates the strips like LED equalizer bars.
type ColumnGrid struct {
	strips []Strip
	imgH   float64
	noise  Noise2D
	p      params.Parameters
	order  []int
}

// NewColumnGrid partitions an imgW x imgH image into p.Columns strips whose
// slices tile the width exactly.
func NewColumnGrid(imgW, imgH int, p params.Parameters, noise Noise2D) *ColumnGrid {
	n := p.Columns
	if n <= 0 {
		n = 1
	}
	if imgW < n {
		n = max(1, imgW)
	}
	strips := make([]Strip, n)
	for i := range strips {
		x0 := i * imgW / n
		x1 := (i + 1) * imgW / n
		strips[i] = Strip{
			Index: i,
			Slice: image.Rect(x0, 0, x1, imgH),
		}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return &ColumnGrid{
		strips: strips,
		imgH:   float64(imgH),
		noise:  noise,
		p:      p,
		order:  order,
	}
}

// Strips exposes the strips for drawing. Callers must not modify them.
func (g *ColumnGrid) Strips() []Strip { return g.strips }

// Len returns the strip count.
func (g *ColumnGrid) Len() int { return len(g.strips) }

// Position is the normalized strip position t = i/(N-1).
func (g *ColumnGrid) Position(i int) float64 {
	if len(g.strips) <= 1 {
		return 0
	}
	return float64(i) / float64(len(g.strips)-1)
}

// RegionOf returns floor(t*8) mod 3 as a Region.
func RegionOf(t float64) Region {
	return Region(int(math.Floor(t*8)) % 3)
}

func regionEnergy(r Region, bass, mid, treble float64) float64 {
	switch r {
	case RegionBass:
		return bass
	case RegionMid:
		return mid
	default:
		return treble
	}
}

// Update recomputes every strip's energy and advances its spring.
func (g *ColumnGrid) Update(e analyzer.Energies, frame int) {
	bass, mid, treble := e.Norm()
	overall := e.Overall()
	time := float64(frame) * g.p.ColumnTimeScale
	steps := float64(g.p.QuantizeSteps)
	maxDisp := g.p.MaxDisplacement * g.imgH

	for i := range g.strips {
		s := &g.strips[i]
		t := g.Position(i)
		band := regionEnergy(RegionOf(t), bass, mid, treble)

		noise := 0.0
		if g.noise != nil {
			noise = g.noise.At(float64(i)*0.5, time)
		}
		travel := (0.5 + 0.5*math.Sin(t*math.Pi*6-time*2)) * g.p.TravelWeight * overall

		s.Raw = band*g.p.BandWeight + noise*g.p.NoiseWeight*overall + travel + overall*g.p.AmplitudeWeight
		s.Energy = Quantize(clamp01(s.Raw), steps)

		s.TargetY = -s.Energy * maxDisp
		s.VelocityY += (s.TargetY - s.CurrentY) * g.p.SpringStiffness
		s.VelocityY *= g.p.SpringDamping
		s.CurrentY += s.VelocityY
	}
}

// Quantize floors e onto steps discrete levels.
func Quantize(e, steps float64) float64 {
	if steps <= 0 {
		return e
	}
	return math.Floor(e*steps) / steps
}

// UpdateDepth eases each strip's z toward its wave target.
func (g *ColumnGrid) UpdateDepth(e analyzer.Energies, frame int) {
	bass, mid, treble := e.Norm()
	overall := e.Overall()
	time := float64(frame) * g.p.ColumnTimeScale
	for i := range g.strips {
		t := g.Position(i)
		wave := math.Sin(t*math.Pi*4-time*1.5) * 150 * overall
		base := math.Abs(t-0.5) * 2 * 200
		push := -regionEnergy(RegionOf(t), bass, mid, treble) * 100
		target := base + wave + push
		g.strips[i].Z += (target - g.strips[i].Z) * g.p.DepthLerp
	}
}

// ResetDepth puts every strip back on the z=0 plane.
func (g *ColumnGrid) ResetDepth() {
	for i := range g.strips {
		g.strips[i].Z = 0
	}
}

// BackToFront returns strip indices ordered by descending z.
func (g *ColumnGrid) BackToFront() []int {
	sort.SliceStable(g.order, func(a, b int) bool {
		return g.strips[g.order[a]].Z > g.strips[g.order[b]].Z
	})
	return g.order
}

// Perspective returns focal/(focal+z).
func (g *ColumnGrid) Perspective(z float64) float64 {
	f := g.p.FocalLength
	if f+z <= 0 {
		return 0
	}
	return f / (f + z)
}
