package particles

import (
	"image/color"
	"math"

	"github.com/guidoenr/habitateq/internal/render"
)

// Kind selects a particle's motion and drawing rules.
type Kind uint8

const (
	// Spark is a point thrown off a hot column; it falls and fades.
	Spark Kind = iota
	// RiseColumn is an LED bar climbing above an equalizer column.
	RiseColumn
	// RiseRadial is an LED bar flying outward along a kaleidoscope wedge.
	RiseRadial
	// Dust is a pixel shed from the image that drifts upward.
	Dust
	// Droplet belongs to a fountain emitter.
	Droplet
)

var kindNames = [...]string{"spark", "rise-column", "rise-radial", "dust", "droplet"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Particle is a tagged variant; only the fields of its Kind are meaningful.
type Particle struct {
	Kind Kind

	X, Y   float64
	VX, VY float64
	// Size is the diameter for round kinds and the width for bars.
	Size   float64
	Height float64

	// Life runs from 1 down to 0 and drops by Decay every step.
	Life  float64
	Decay float64

	Color  color.RGBA
	Glow   color.RGBA
	Energy float64

	// Angle is the polar angle for radial bars and the drift phase for dust.
	Angle  float64
	Radius float64
	VR     float64

	Gravity float64
	Shrink  float64
}

// Env is the per-step context shared by every particle.
type Env struct {
	Width, Height float64
	// CX, CY is the radial center.
	CX, CY float64

	Bass, Mid, Treble, Overall float64
	// Scale converts the reference 800 px canvas to framebuffer pixels.
	Scale float64
}

func (e Env) scale() float64 {
	if e.Scale <= 0 {
		return 1
	}
	return e.Scale
}

var defaultDecay = [...]float64{
	Spark:      0.02,
	RiseColumn: 0.012,
	RiseRadial: 0.015,
	Dust:       0.008,
	Droplet:    1.0 / 60,
}

// step advances one particle and reports whether it is still alive.
func step(pt *Particle, env Env) bool {
	s := env.scale()
	switch pt.Kind {
	case Spark:
		pt.X += pt.VX
		pt.Y += pt.VY
		pt.VY += 0.1 * s
	case RiseColumn:
		pt.Y += pt.VY
		pt.VY -= 0.01 * s
		if pt.Y < -pt.Height {
			return false
		}
	case RiseRadial:
		pt.Radius += pt.VR
		pt.VR += 0.05 * s
		pt.Angle += 0.005 + env.Overall*0.01
		pt.X = env.CX + math.Cos(pt.Angle)*pt.Radius
		pt.Y = env.CY + math.Sin(pt.Angle)*pt.Radius
		if pt.Radius > math.Max(env.Width, env.Height)*0.7 {
			return false
		}
	case Dust:
		pt.Angle += 0.05 + env.Mid*0.1
		pt.VX += math.Cos(pt.Angle) * 0.1 * env.Overall * s
		pt.VY += (math.Sin(pt.Angle)*0.05 - 0.02) * s
		pt.X += pt.VX
		pt.Y += pt.VY
	case Droplet:
		pt.VY += pt.Gravity
		pt.X += pt.VX
		pt.Y += pt.VY
		pt.Size *= pt.Shrink
		if pt.Size < 0.1 {
			return false
		}
	}
	pt.Life -= pt.Decay
	return pt.Life > 0
}

// draw renders one particle with its life as opacity.
func draw(dst *render.Surface, pt *Particle, scale float64) {
	alpha := pt.Life * 255
	c := render.WithAlpha(pt.Color, alpha)
	switch pt.Kind {
	case Spark:
		dst.FillCircle(pt.X, pt.Y, pt.Size*pt.Life/2, render.Style{
			Color: c, Glow: 15 * scale, GlowColor: render.WithAlpha(pt.Color, alpha*0.8),
		})
	case RiseColumn:
		dst.FillRect(pt.X-pt.Size/2, pt.Y-pt.Height/2, pt.Size, pt.Height, render.Style{
			Color: c, Glow: (12 + pt.Energy*8) * scale,
		})
	case RiseRadial:
		dst.FillRotatedRect(pt.X, pt.Y, pt.Size, pt.Height, pt.Angle+math.Pi/2, render.Style{
			Color: c, Glow: (12 + pt.Energy*8) * scale,
		})
	case Dust:
		dst.FillCircle(pt.X, pt.Y, pt.Size*pt.Life/2, render.Style{Color: c, Glow: 4 * scale})
	case Droplet:
		st := render.Style{Color: c, Glow: 10 * scale}
		if pt.Glow != (color.RGBA{}) {
			st.GlowColor = render.WithAlpha(pt.Glow, alpha)
		}
		dst.FillCircle(pt.X, pt.Y, pt.Size/2, st)
	}
}

// Pool is a bounded particle collection.
type Pool struct {
	items []Particle
	cap   int
}

// NewPool returns an empty pool holding at most limit particles.
func NewPool(limit int) *Pool {
	return &Pool{cap: limit}
}

// Spawn adds pt unless the pool is full. A non-positive decay is replaced by
// the kind's default so every particle eventually dies.
func (p *Pool) Spawn(pt Particle) bool {
	if p.cap > 0 && len(p.items) >= p.cap {
		return false
	}
	if pt.Life <= 0 {
		pt.Life = 1
	}
	if pt.Decay <= 0 && int(pt.Kind) < len(defaultDecay) {
		pt.Decay = defaultDecay[pt.Kind]
	}
	if pt.Decay <= 0 {
		pt.Decay = 0.01
	}
	p.items = append(p.items, pt)
	return true
}

// Step advances every particle and removes the dead ones in the same pass.
func (p *Pool) Step(env Env) {
	for i := 0; i < len(p.items); {
		if step(&p.items[i], env) {
			i++
			continue
		}
		last := len(p.items) - 1
		p.items[i] = p.items[last]
		p.items = p.items[:last]
	}
}

// Draw renders every particle.
func (p *Pool) Draw(dst *render.Surface, scale float64) {
	for i := range p.items {
		draw(dst, &p.items[i], scale)
	}
}

// Len returns the live particle count.
func (p *Pool) Len() int { return len(p.items) }

// Cap returns the pool limit; zero means unbounded.
func (p *Pool) Cap() int { return p.cap }

// Clear drops every particle.
func (p *Pool) Clear() { p.items = p.items[:0] }

// Items exposes the live particles for inspection.
func (p *Pool) Items() []Particle { return p.items }
