package particles

import (
	"image/color"
	"math"
	"math/rand"

	"github.com/guidoenr/habitateq/internal/render"
)

// FountainConfig describes an emitter. Angles are in degrees, lengths in
// reference pixels scaled by the fountain's scale.
type FountainConfig struct {
	AngleMin, AngleMax float64
	Speed              float64
	// SpeedX is the spread around Speed.
	SpeedX float64

	SizeMin, SizeMax float64
	// SizePercent multiplies the size every step.
	SizePercent float64
	Gravity     float64
	// Lifetime is in frames.
	Lifetime int
	// Limit bounds the total number ever created; zero is unlimited.
	Limit int
	// Cap bounds the live count; zero is unlimited.
	Cap int

	Colors []color.RGBA
	Glow   color.RGBA
}

// Fountain emits droplets and steps them.
type Fountain struct {
	cfg     FountainConfig
	pool    *Pool
	rng     *rand.Rand
	scale   float64
	created int
	stopped bool
}

// NewFountain returns an idle emitter.
func NewFountain(cfg FountainConfig, rng *rand.Rand, scale float64) *Fountain {
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = 60
	}
	if cfg.SizePercent <= 0 {
		cfg.SizePercent = 1
	}
	if len(cfg.Colors) == 0 {
		cfg.Colors = render.Palette("synthwave")
	}
	if scale <= 0 {
		scale = 1
	}
	return &Fountain{cfg: cfg, pool: NewPool(cfg.Cap), rng: rng, scale: scale}
}

// Create emits one droplet at (x, y) heading angle degrees.
func (f *Fountain) Create(x, y, angle float64) bool {
	if f.stopped || (f.cfg.Limit > 0 && f.created >= f.cfg.Limit) {
		return false
	}
	rad := angle * math.Pi / 180
	speed := (f.cfg.Speed + (f.rng.Float64()*2-1)*f.cfg.SpeedX*0.5) * f.scale
	size := (f.cfg.SizeMin + f.rng.Float64()*(f.cfg.SizeMax-f.cfg.SizeMin)) * f.scale
	pt := Particle{
		Kind:    Droplet,
		X:       x,
		Y:       y,
		VX:      math.Cos(rad) * speed,
		VY:      math.Sin(rad) * speed,
		Size:    size,
		Life:    1,
		Decay:   1 / float64(f.cfg.Lifetime),
		Color:   f.cfg.Colors[f.rng.Intn(len(f.cfg.Colors))],
		Glow:    f.cfg.Glow,
		Gravity: f.cfg.Gravity * f.scale,
		Shrink:  f.cfg.SizePercent,
	}
	if !f.pool.Spawn(pt) {
		return false
	}
	f.created++
	return true
}

// CreateRandom emits one droplet in a random direction within the
// configured angle range.
func (f *Fountain) CreateRandom(x, y float64) bool {
	a := f.cfg.AngleMin + f.rng.Float64()*(f.cfg.AngleMax-f.cfg.AngleMin)
	return f.Create(x, y, a)
}

// CreateN emits the whole remaining limit at once.
func (f *Fountain) CreateN(x, y float64) int {
	n := 0
	for f.CreateRandom(x, y) {
		n++
		if f.cfg.Limit <= 0 {
			break
		}
	}
	return n
}

// Step advances the droplets.
func (f *Fountain) Step(env Env) { f.pool.Step(env) }

// Draw renders the droplets.
func (f *Fountain) Draw(dst *render.Surface) { f.pool.Draw(dst, f.scale) }

// Done reports whether the emitter is spent and empty.
func (f *Fountain) Done() bool {
	spent := f.stopped || (f.cfg.Limit > 0 && f.created >= f.cfg.Limit)
	return spent && f.pool.Len() == 0
}

// Stop ends emission and drops the live droplets.
func (f *Fountain) Stop() {
	f.stopped = true
	f.pool.Clear()
}

// SetGlow changes the glow of droplets created from now on.
func (f *Fountain) SetGlow(c color.RGBA) { f.cfg.Glow = c }

// Len returns the live droplet count.
func (f *Fountain) Len() int { return f.pool.Len() }

// Particles exposes the droplets for external forces.
func (f *Fountain) Particles() []Particle { return f.pool.items }
