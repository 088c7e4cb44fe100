package visualizer

import (
	"errors"
	"image"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/geometry"
	"github.com/guidoenr/habitateq/internal/mode"
	"github.com/guidoenr/habitateq/internal/params"
	"github.com/guidoenr/habitateq/internal/particles"
	"github.com/guidoenr/habitateq/internal/physics"
	"github.com/guidoenr/habitateq/internal/render"
	"github.com/guidoenr/habitateq/internal/scene"
)

// WorldFactory creates the physics world used when physics mode starts.
type WorldFactory func(p params.Parameters) physics.World

// Config configures the visualizer.
type Config struct {
	Width  int
	Height int
	FPS    int
	Params params.Parameters

	// Picture is the photo every effect samples. A placeholder is generated
	// when nil.
	Picture *scene.Picture
	// Mask gates the floor bands; nil draws everywhere.
	Mask *scene.Mask
	// Outline feeds the neon wireframe, Layers the physics bodies.
	Outline geometry.Document
	Layers  geometry.Layers

	NewWorld WorldFactory
	Noise    scene.Noise2D
	Seed     int64
	Log      *log.Logger
}

// Status is an immutable summary of the last frame.
type Status struct {
	Frame     int               `json:"frame"`
	Width     int               `json:"width"`
	Height    int               `json:"height"`
	Playing   bool              `json:"playing"`
	Mode      mode.State        `json:"mode"`
	Preset    string            `json:"preset"`
	Particle  string            `json:"particle"`
	Energies  analyzer.Energies `json:"energies"`
	Levels    [3]float64        `json:"levels"`
	Particles int               `json:"particles"`
	Physics   physics.Stats     `json:"physics"`
	Paths     int               `json:"paths"`
}

// State owns every model and buffer of the installation. It is driven from a
// single goroutine: Apply between frames, Step once per frame.
type State struct {
	cfg Config
	p   params.Parameters
	log *log.Logger
	rng *rand.Rand

	sel     *mode.Selector
	pic     *scene.Picture
	mask    *scene.Mask
	grid    *scene.ColumnGrid
	floors  *scene.FloorBands
	parts   *particles.System
	bridge  *physics.Bridge
	kaleido *render.Kaleidoscope
	tunnel  *render.Tunnel
	neon    *render.Neon
	meter   *render.LevelMeter

	target *render.Surface
	buffer *render.Surface

	energies analyzer.Energies
	depth    float64
	frame    int
	playing  bool
	// physicsErr remembers why physics could not start so it is logged once.
	physicsErr error
}

// New builds the state with every effect reset to its start-up value.
func New(cfg Config) (*State, error) {
	if cfg.Width <= 0 {
		cfg.Width = 320
	}
	if cfg.Height <= 0 {
		cfg.Height = 180
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.Params == (params.Parameters{}) {
		cfg.Params = params.Defaults()
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stderr, "", 0)
	}
	if cfg.Picture == nil {
		cfg.Picture = scene.Placeholder(1920, 1080)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.NewWorld == nil {
		cfg.NewWorld = func(p params.Parameters) physics.World {
			return physics.NewCPWorld(p.Gravity, p.AirFriction)
		}
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Noise == nil {
		cfg.Noise = scene.NewPerlin(cfg.Seed)
	}

	s := &State{
		cfg:    cfg,
		log:    cfg.Log,
		rng:    rng,
		pic:    cfg.Picture,
		mask:   cfg.Mask,
		neon:   render.NewNeon(cfg.Outline),
		target: render.NewSurface(cfg.Width, cfg.Height),
		buffer: render.NewSurface(cfg.Width, cfg.Height),
	}
	s.sel = mode.NewSelector(cfg.Params.Segments, cfg.Params.NeonActivePaths, cfg.Params.OverlayFrames)
	s.sel.SetPathCount(s.neon.Len())
	s.build(cfg.Params)
	return s, nil
}

// build recreates every parameter-dependent component.
func (s *State) build(p params.Parameters) {
	s.p = p
	s.mask = s.mask.WithThreshold(p.MaskThreshold)
	imgW, imgH := s.pic.Size()
	s.grid = scene.NewColumnGrid(imgW, imgH, p, s.cfg.Noise)
	s.floors = scene.NewFloorBands(imgH, p)
	s.parts = particles.NewSystem(s.cfg.Width, s.cfg.Height, p, s.rng)
	s.parts.SetMode(s.sel.Snapshot().Particle)
	s.bridge = physics.NewBridge(p, s.rng)
	s.physicsErr = nil
	rotation := 0.0
	if s.kaleido != nil {
		rotation = s.kaleido.Rotation
	}
	s.kaleido = render.NewKaleidoscope(s.sel.Snapshot().Segments)
	s.kaleido.Rotation = rotation
	s.tunnel = render.NewTunnel(p)
	s.meter = render.NewLevelMeter(s.cfg.FPS, p.MeterFrequency, p.MeterDamping)
	if s.sel.Snapshot().Physics {
		s.initPhysics()
	}
}

// Params returns the active parameters.
func (s *State) Params() params.Parameters { return s.p }

// SetParams validates p and rebuilds the models with it. Effect flags survive,
// animation state starts over.
func (s *State) SetParams(p params.Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.build(p)
	return nil
}

// Resize changes the framebuffer size.
func (s *State) Resize(w, h int) {
	if w <= 0 || h <= 0 || (w == s.cfg.Width && h == s.cfg.Height) {
		return
	}
	s.cfg.Width, s.cfg.Height = w, h
	s.target.Resize(w, h)
	s.buffer.Resize(w, h)
	s.parts.Resize(w, h)
	// bodies were laid out for the old viewport
	if s.bridge.Initialized() {
		s.bridge = physics.NewBridge(s.p, s.rng)
		if s.sel.Snapshot().Physics {
			s.initPhysics()
		}
	}
}

// Size returns the framebuffer size.
func (s *State) Size() (int, int) { return s.cfg.Width, s.cfg.Height }

// Mode returns the current effect flags.
func (s *State) Mode() mode.State { return s.sel.Snapshot() }

// Apply performs a trigger and resets whatever the mutation invalidated.
func (s *State) Apply(t mode.Trigger, arg int) mode.Effect {
	fx := s.sel.Apply(t, arg)
	st := s.sel.Snapshot()
	if fx.Has(mode.ClearBuffer) {
		s.buffer.Clear(render.DarkPurple)
	}
	if fx.Has(mode.ClearParticles) || st.Particle != s.parts.Mode() {
		s.parts.SetMode(st.Particle)
	}
	if fx.Has(mode.ResetDepth) {
		s.grid.ResetDepth()
		s.depth = 0
	}
	if fx.Has(mode.ResetFloors) {
		s.floors.Reset()
	}
	if fx.Has(mode.InitPhysics) {
		s.initPhysics()
	}
	if fx.Has(mode.ResetPhysicsBodies) {
		s.bridge.Reset()
	}
	if fx.Has(mode.Explode) {
		s.bridge.Explode(s.p.ManualExplode)
	}
	if fx.Has(mode.RefreshPaths) {
		s.sel.SetPathCount(s.neon.Len())
	}
	if fx.Has(mode.ResetTunnel) {
		s.tunnel.Reset()
	}
	s.kaleido.Segments = st.Segments
	return fx
}

func (s *State) initPhysics() {
	if s.bridge.Initialized() {
		return
	}
	world := s.cfg.NewWorld(s.p)
	err := s.bridge.Init(world, s.cfg.Layers, float64(s.cfg.Width), float64(s.cfg.Height))
	if err == nil {
		s.log.Printf("physics started with %d bodies", len(s.bridge.Pieces()))
		return
	}
	if s.physicsErr == nil || !errors.Is(err, s.physicsErr) {
		s.log.Printf("physics unavailable: %v", err)
	}
	s.physicsErr = err
}

// Step renders one frame for the given energies and returns the framebuffer.
// The returned image is reused by the next call.
func (s *State) Step(e analyzer.Energies, playing bool) *image.RGBA {
	s.frame++
	e = e.Clamp()
	s.energies = e
	s.playing = playing
	s.meter.Update(e)

	st := s.sel.Snapshot()
	s.kaleido.Segments = st.Segments
	ui := render.UIScale(s.cfg.Width, s.cfg.Height)
	// sparks only live while columns are drawn straight to the screen
	if st.Physics || st.Kaleidoscope || st.VerticalFlow {
		s.parts.ClearSparks()
	}
	if st.Physics {
		s.drawPhysics(e, ui)
	} else {
		s.drawEffects(st, e, ui)
	}
	s.sel.Tick()
	return s.target.Image()
}

// Status summarizes the last frame.
func (s *State) Status() Status {
	st := s.sel.Snapshot()
	return Status{
		Frame:     s.frame,
		Width:     s.cfg.Width,
		Height:    s.cfg.Height,
		Playing:   s.playing,
		Mode:      st,
		Preset:    st.PresetName(),
		Particle:  st.Particle.String(),
		Energies:  s.energies,
		Levels:    s.meter.Levels(),
		Particles: s.parts.Count(),
		Physics:   s.bridge.Stats(),
		Paths:     s.neon.Len(),
	}
}
