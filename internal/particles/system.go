package particles

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/mode"
	"github.com/guidoenr/habitateq/internal/params"
	"github.com/guidoenr/habitateq/internal/render"
	"github.com/guidoenr/habitateq/internal/scene"
)

// referenceSize is the canvas size the motion constants were tuned for.
const referenceSize = 800.0

// Input is everything a particle mode reads in one frame.
type Input struct {
	Energies analyzer.Energies
	Frame    int

	// Layout places Picture on the framebuffer.
	Layout  scene.Layout
	Picture *scene.Picture
	Grid    *scene.ColumnGrid

	Kaleidoscope bool
	Segments     int
	Rotation     float64
}

type rocket struct {
	f       *Fountain
	targetY float64
}

// System owns every particle collection and the active mode.
type System struct {
	rng   *rand.Rand
	p     params.Parameters
	mode  mode.Particle
	w, h  float64
	scale float64

	sparks *Pool
	rise   *Pool
	radial *Pool
	dust   *Pool

	explosions []*Fountain
	vortex     *Fountain
	rockets    []rocket
	bursts     []*Fountain
}

// NewSystem returns a system for a w x h framebuffer with particles off.
func NewSystem(w, h int, p params.Parameters, rng *rand.Rand) *System {
	s := &System{
		rng:    rng,
		p:      p,
		sparks: NewPool(p.SparkCap),
		rise:   NewPool(p.RiseColumnCap),
		radial: NewPool(p.RiseRadialCap),
		dust:   NewPool(p.DustCap),
	}
	s.Resize(w, h)
	s.vortex = s.newVortex()
	return s
}

// Resize adapts spawn positions and motion scale to a new framebuffer.
func (s *System) Resize(w, h int) {
	s.w, s.h = float64(w), float64(h)
	s.scale = math.Min(s.w, s.h) / referenceSize
	if s.scale <= 0 {
		s.scale = 1
	}
}

// Mode returns the active particle mode.
func (s *System) Mode() mode.Particle { return s.mode }

// SetMode switches mode and clears every collection.
func (s *System) SetMode(m mode.Particle) {
	s.mode = m
	s.Clear()
}

// Clear drops every particle and emitter.
func (s *System) Clear() {
	s.sparks.Clear()
	s.rise.Clear()
	s.radial.Clear()
	s.dust.Clear()
	for _, f := range s.explosions {
		f.Stop()
	}
	s.explosions = s.explosions[:0]
	for _, r := range s.rockets {
		r.f.Stop()
	}
	s.rockets = s.rockets[:0]
	for _, f := range s.bursts {
		f.Stop()
	}
	s.bursts = s.bursts[:0]
	s.vortex.Stop()
	s.vortex = s.newVortex()
}

// Count returns the live particles across all collections.
func (s *System) Count() int {
	n := s.sparks.Len() + s.rise.Len() + s.radial.Len() + s.dust.Len() + s.vortex.Len()
	for _, f := range s.explosions {
		n += f.Len()
	}
	for _, r := range s.rockets {
		n += r.f.Len()
	}
	for _, f := range s.bursts {
		n += f.Len()
	}
	return n
}

func (s *System) env(e analyzer.Energies) Env {
	bass, mid, treble := e.Norm()
	return Env{
		Width: s.w, Height: s.h,
		CX: s.w / 2, CY: s.h / 2,
		Bass: bass, Mid: mid, Treble: treble,
		Overall: e.Overall(),
		Scale:   s.scale,
	}
}

func (s *System) between(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

// SpawnSpark throws a spark off a column top. energy is in [0,1].
func (s *System) SpawnSpark(x, y, energy float64) bool {
	c := render.Cyan
	if energy > 220.0/255 {
		c = render.Magenta
	}
	return s.sparks.Spawn(Particle{
		Kind:   Spark,
		X:      x,
		Y:      y,
		VX:     s.between(-2, 2) * s.scale,
		VY:     s.between(-5, -2) * s.scale,
		Size:   s.between(3, 8) * s.scale,
		Life:   1,
		Color:  c,
		Energy: energy,
	})
}

// StepSparks advances the column sparks.
func (s *System) StepSparks(e analyzer.Energies) { s.sparks.Step(s.env(e)) }

// ClearSparks drops the column sparks only.
func (s *System) ClearSparks() { s.sparks.Clear() }

// DrawSparks renders the column sparks.
func (s *System) DrawSparks(dst *render.Surface) { s.sparks.Draw(dst, s.scale) }

// Update spawns and steps the particles of the active mode.
func (s *System) Update(in Input) {
	env := s.env(in.Energies)
	switch s.mode {
	case mode.ParticleRise:
		if in.Kaleidoscope {
			s.spawnRadial(in, env)
		} else {
			s.spawnColumns(in, env)
		}
		s.rise.Step(env)
		s.radial.Step(env)
	case mode.ParticleExplosion:
		s.updateExplosions(in, env)
	case mode.ParticleDisintegrate:
		s.spawnDust(in, env)
		s.dust.Step(env)
	case mode.ParticleVortex:
		s.updateVortex(in, env)
	case mode.ParticleFireworks:
		s.updateFireworks(env)
	}
}

// Draw renders the active mode's particles.
func (s *System) Draw(dst *render.Surface) {
	switch s.mode {
	case mode.ParticleRise:
		s.rise.Draw(dst, s.scale)
		s.radial.Draw(dst, s.scale)
	case mode.ParticleExplosion:
		for _, f := range s.explosions {
			f.Draw(dst)
		}
	case mode.ParticleDisintegrate:
		s.dust.Draw(dst, s.scale)
	case mode.ParticleVortex:
		s.vortex.Draw(dst)
	case mode.ParticleFireworks:
		for _, r := range s.rockets {
			r.f.Draw(dst)
		}
		for _, f := range s.bursts {
			f.Draw(dst)
		}
	}
}

func regionColor(r scene.Region) color.RGBA {
	switch r {
	case scene.RegionBass:
		return render.Magenta
	case scene.RegionMid:
		return render.Orange
	default:
		return render.Cyan
	}
}

func channelSum(c color.RGBA) int { return int(c.R) + int(c.G) + int(c.B) }

func (s *System) spawnColumns(in Input, env Env) {
	if in.Grid == nil || in.Picture == nil {
		return
	}
	strips := in.Grid.Strips()
	n := len(strips)
	time := float64(in.Frame) * 0.05
	_, imgH := in.Picture.Size()
	for i := n * 6 / 64; i < n*54/64; i++ {
		st := strips[i]
		t := in.Grid.Position(i)
		region := scene.RegionOf(t)
		var base float64
		switch region {
		case scene.RegionBass:
			base = env.Bass
		case scene.RegionMid:
			base = env.Mid
		default:
			base = env.Treble
		}
		energy := base*0.7 + math.Sin(t*4*math.Pi-time)*0.3*env.Overall + 0.2*env.Overall
		if energy <= 0.25 || s.rng.Float64() >= energy*0.15 {
			continue
		}
		cx := float64(st.Slice.Min.X+st.Slice.Max.X) / 2
		x, _ := in.Layout.ToScreen(cx, 0)
		y := in.Layout.Y + in.Layout.H/2 + st.CurrentY*in.Layout.Scale + 0.09*in.Layout.H
		c := render.Brighten(in.Picture.Sample(cx, s.rng.Float64()*float64(imgH)), 1.5, 50)
		if channelSum(c) < 300 {
			c = regionColor(region)
		}
		size := float64(st.Slice.Dx()) * in.Layout.Scale * 0.8
		s.rise.Spawn(Particle{
			Kind:   RiseColumn,
			X:      x,
			Y:      y,
			VY:     -(4 + 5*energy) * s.scale,
			Size:   size,
			Height: size / 3,
			Life:   1,
			Color:  c,
			Energy: energy,
		})
	}
}

func (s *System) spawnRadial(in Input, env Env) {
	segs := in.Segments
	if segs <= 0 {
		return
	}
	step := 2 * math.Pi / float64(segs)
	time := float64(in.Frame) * 0.05
	maxDim := math.Max(s.w, s.h)
	const rings = 8
	for seg := 0; seg < segs; seg++ {
		for ring := 0; ring < rings; ring++ {
			t := float64(ring) / rings
			base := env.Treble
			switch {
			case t < 0.33:
				base = env.Bass
			case t < 0.66:
				base = env.Mid
			}
			wave := math.Sin(t*3*math.Pi-time+float64(seg)*0.5) * 0.3
			energy := base*0.7 + wave*env.Overall + 0.2*env.Overall
			if energy <= 0.3 || s.rng.Float64() >= 0.15*energy {
				continue
			}
			radius := 50*s.scale + t*0.4*maxDim
			angle := in.Rotation + float64(seg)*step + s.between(-0.3, 0.3)*step
			x := env.CX + math.Cos(angle)*radius
			y := env.CY + math.Sin(angle)*radius

			c := color.RGBA{}
			if in.Picture != nil {
				ix, iy := in.Layout.ToImage(x, y)
				c = render.Brighten(in.Picture.Sample(ix, iy), 1.5, 50)
			}
			if channelSum(c) < 150 {
				c = [...]color.RGBA{render.Magenta, render.Cyan, render.Orange}[(seg+ring)%3]
			}
			size := (12 + 8*env.Overall) * (0.8 + 0.4*energy) * s.scale
			s.radial.Spawn(Particle{
				Kind:   RiseRadial,
				X:      x,
				Y:      y,
				Size:   size,
				Height: size / 3,
				Life:   1,
				Color:  c,
				Energy: energy,
				Angle:  angle,
				Radius: radius,
				VR:     (2 + 4*energy) * s.scale,
			})
		}
	}
}

func (s *System) updateExplosions(in Input, env Env) {
	if env.Bass > s.p.ExplosionThreshold && s.rng.Float64() < s.p.ExplosionChance {
		l := in.Layout
		f := NewFountain(FountainConfig{
			AngleMin: 0, AngleMax: 360,
			Speed:   5 + 10*env.Bass,
			SpeedX:  3,
			SizeMin: 4, SizeMax: 12,
			SizePercent: 0.96,
			Gravity:     0.15,
			Lifetime:    60,
			Limit:       30 + int(math.Floor(40*env.Bass)),
			Colors:      render.Palette("explosion"),
			Glow:        render.Magenta,
		}, s.rng, s.scale)
		f.CreateN(l.X+s.between(0.2, 0.8)*l.W, l.Y+s.between(0.2, 0.6)*l.H)
		s.explosions = append(s.explosions, f)
	}
	live := s.explosions[:0]
	for _, f := range s.explosions {
		f.Step(env)
		if !f.Done() {
			live = append(live, f)
		}
	}
	s.explosions = live
}

func (s *System) spawnDust(in Input, env Env) {
	if in.Picture == nil {
		return
	}
	w, h := in.Picture.Size()
	n := int(math.Floor(env.Overall*10)) + 1
	for i := 0; i < n; i++ {
		px := s.between(0.1, 0.9) * float64(w)
		py := s.between(0.1, 0.7) * float64(h)
		c := in.Picture.Sample(px, py)
		if scene.Brightness(c) <= 30 {
			continue
		}
		x, y := in.Layout.ToScreen(px, py)
		if !s.dust.Spawn(Particle{
			Kind:  Dust,
			X:     x,
			Y:     y,
			VX:    (s.between(-1, 1) + (env.Bass-0.5)*4) * s.scale,
			VY:    (s.between(-2, 0) - 3*env.Treble) * s.scale,
			Size:  s.between(2, 6) * s.scale,
			Life:  1,
			Color: c,
			Angle: s.rng.Float64() * 2 * math.Pi,
		}) {
			return
		}
	}
}

func (s *System) newVortex() *Fountain {
	return NewFountain(FountainConfig{
		AngleMin: 0, AngleMax: 360,
		Speed:   2,
		SpeedX:  3,
		SizeMin: 2, SizeMax: 6,
		SizePercent: 0.995,
		Lifetime:    150,
		Cap:         1500,
		Colors:      render.Palette("synthwave"),
		Glow:        render.Cyan,
	}, s.rng, s.scale)
}

func (s *System) updateVortex(in Input, env Env) {
	palette := render.Palette("synthwave")
	phase := math.Mod(float64(in.Frame)*0.05, 1)
	s.vortex.SetGlow(palette[int(phase*float64(len(palette)))%len(palette)])

	if env.Overall > 0.2 {
		n := int(math.Floor(env.Overall * 8))
		for i := 0; i < n; i++ {
			a := s.rng.Float64() * 2 * math.Pi
			d := s.between(200*s.scale, 0.6*math.Max(s.w, s.h))
			s.vortex.Create(env.CX+math.Cos(a)*d, env.CY+math.Sin(a)*d, a*180/math.Pi+90)
		}
	}

	inward := (0.1 + 0.3*env.Bass) * s.scale
	tangent := (0.15 + 0.2*env.Treble) * s.scale
	pts := s.vortex.Particles()
	for i := range pts {
		pt := &pts[i]
		dx, dy := env.CX-pt.X, env.CY-pt.Y
		d := math.Hypot(dx, dy)
		if d <= 10*s.scale {
			continue
		}
		nx, ny := dx/d, dy/d
		pt.VX += nx*inward - ny*tangent
		pt.VY += ny*inward + nx*tangent
		pt.VX *= 0.98
		pt.VY *= 0.98
	}
	s.vortex.Step(env)
}

func (s *System) updateFireworks(env Env) {
	if env.Bass > s.p.RocketThreshold && s.rng.Float64() < s.p.RocketChance {
		f := NewFountain(FountainConfig{
			AngleMin: -95, AngleMax: -85,
			Speed:   8 + 5*env.Bass,
			SpeedX:  1,
			SizeMin: 3, SizeMax: 5,
			SizePercent: 0.99,
			Gravity:     0.1,
			Lifetime:    40,
			Limit:       1,
			Colors:      render.Palette("rocket"),
			Glow:        render.White,
		}, s.rng, s.scale)
		f.CreateRandom(s.between(0.2, 0.8)*s.w, s.h)
		s.rockets = append(s.rockets, rocket{f: f, targetY: s.between(0.2, 0.5) * s.h})
	}

	live := s.rockets[:0]
	for _, r := range s.rockets {
		r.f.Step(env)
		if pts := r.f.Particles(); len(pts) > 0 {
			pt := pts[0]
			// a rocket also bursts on its last frames of life
			if pt.VY >= 0 || pt.Y < r.targetY || pt.Life <= 2*pt.Decay {
				s.burst(pt.X, pt.Y)
				r.f.Stop()
			}
		}
		if !r.f.Done() {
			live = append(live, r)
		}
	}
	s.rockets = live

	bursts := s.bursts[:0]
	for _, f := range s.bursts {
		f.Step(env)
		if !f.Done() {
			bursts = append(bursts, f)
		}
	}
	s.bursts = bursts
}

func (s *System) burst(x, y float64) {
	palettes := render.BurstPalettes()
	colors := palettes[s.rng.Intn(len(palettes))]
	f := NewFountain(FountainConfig{
		AngleMin: 0, AngleMax: 360,
		Speed:   4 + s.rng.Float64()*4,
		SpeedX:  2,
		SizeMin: 2, SizeMax: 6,
		SizePercent: 0.97,
		Gravity:     0.08,
		Lifetime:    50,
		Limit:       50 + s.rng.Intn(30),
		Colors:      colors,
		Glow:        colors[0],
	}, s.rng, s.scale)
	f.CreateN(x, y)
	s.bursts = append(s.bursts, f)
}
