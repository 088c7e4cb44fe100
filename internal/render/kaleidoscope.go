package render

import (
	"image"
	"image/color"
	"math"
)

// Source window offset as a fraction of the frame: wedge content starts at
// (0.3W, 0.2H) from the center.
const (
	wedgeOffsetX = 0.3
	wedgeOffsetY = 0.2
)

// Kaleidoscope mirrors a source frame into Segments wedges around the center.
// Wedge i is rotated by i*2π/N; odd wedges are mirrored about their center
// line so neighbours meet seamlessly.
type Kaleidoscope struct {
	Segments int
	Rotation float64

	screen polarTable
}

// NewKaleidoscope returns a kaleidoscope with the given wedge count.
func NewKaleidoscope(segments int) *Kaleidoscope {
	return &Kaleidoscope{Segments: segments}
}

// Advance adds spin to the rotation.
func (k *Kaleidoscope) Advance(spin float64) {
	k.Rotation = math.Mod(k.Rotation+spin, 2*math.Pi)
}

// segments rounds the wedge count up to an even number of at least 2 so the
// mirror parity wraps around.
func (k *Kaleidoscope) segments() int {
	n := k.Segments
	if n < 2 {
		n = 2
	}
	return n + n%2
}

// Map returns the source pixel shown at screen position (x, y) of a w x h
// frame.
func (k *Kaleidoscope) Map(x, y float64, w, h int) (u, v float64) {
	dx, dy := x-float64(w)/2, y-float64(h)/2
	return fold(math.Hypot(dx, dy), math.Atan2(dy, dx), k.Rotation, k.segments(), float64(w), float64(h))
}

// fold maps the polar position (r, theta) relative to the center into the
// source frame.
func fold(r, theta, rotation float64, n int, w, h float64) (u, v float64) {
	step := 2 * math.Pi / float64(n)
	a := theta - rotation
	j := math.Floor(a/step + 0.5)
	alpha := a - j*step
	if int64(j)&1 != 0 {
		alpha = -alpha
	}
	sin, cos := math.Sincos(alpha)
	return r*cos + w*(0.5-wedgeOffsetX), r*sin + h*(0.5-wedgeOffsetY)
}

// Compose fills dst with the mirrored wedges of src. Pixels whose source
// falls outside src get the background color.
func (k *Kaleidoscope) Compose(dst, src *Surface, bg color.RGBA) {
	w, h := dst.Width(), dst.Height()
	k.screen.build(w, h, 1)
	k.compose(dst.img, &k.screen, src, k.Rotation, bg, math.Inf(1))
}

// compose writes every pixel of dst through the table. Table radii beyond
// limit are left transparent.
func (k *Kaleidoscope) compose(dst *image.RGBA, tab *polarTable, src *Surface, rotation float64, bg color.RGBA, limit float64) {
	n := k.segments()
	sw, sh := src.Width(), src.Height()
	fw, fh := float64(sw), float64(sh)
	spix := src.img.Pix
	stride := src.img.Stride
	dpix := dst.Pix
	for y := 0; y < tab.h; y++ {
		row := y * dst.Stride
		for x := 0; x < tab.w; x++ {
			i := y*tab.w + x
			o := row + x*4
			r := float64(tab.radius[i])
			if r > limit {
				dpix[o], dpix[o+1], dpix[o+2], dpix[o+3] = 0, 0, 0, 0
				continue
			}
			u, v := fold(r, float64(tab.theta[i]), rotation, n, fw, fh)
			su, sv := int(math.Floor(u)), int(math.Floor(v))
			if su < 0 || sv < 0 || su >= sw || sv >= sh {
				dpix[o], dpix[o+1], dpix[o+2], dpix[o+3] = bg.R, bg.G, bg.B, bg.A
				continue
			}
			so := sv*stride + su*4
			copy(dpix[o:o+4], spix[so:so+4])
		}
	}
}

// polarTable caches the polar coordinates of every pixel center relative to
// the middle of a w x h grid. unit is the number of screen pixels per grid
// pixel.
type polarTable struct {
	w, h   int
	unit   float64
	radius []float32
	theta  []float32
}

func (t *polarTable) build(w, h int, unit float64) {
	if t.w == w && t.h == h && t.unit == unit {
		return
	}
	t.w, t.h, t.unit = w, h, unit
	t.radius = make([]float32, w*h)
	t.theta = make([]float32, w*h)
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		dy := (float64(y) + 0.5 - cy) * unit
		for x := 0; x < w; x++ {
			dx := (float64(x) + 0.5 - cx) * unit
			t.radius[y*w+x] = float32(math.Hypot(dx, dy))
			t.theta[y*w+x] = float32(math.Atan2(dy, dx))
		}
	}
}
