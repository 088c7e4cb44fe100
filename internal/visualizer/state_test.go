package visualizer

import (
	"bytes"
	"image"
	"log"
	"strings"
	"testing"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/geometry"
	"github.com/guidoenr/habitateq/internal/mode"
	"github.com/guidoenr/habitateq/internal/params"
	"github.com/guidoenr/habitateq/internal/physics"
	"github.com/guidoenr/habitateq/internal/render"
	"github.com/guidoenr/habitateq/internal/scene"
)

type stubBody struct {
	x, y, a, vx, vy, av float64
}

func (b *stubBody) Position() (float64, float64) { return b.x, b.y }
func (b *stubBody) Angle() float64 { return b.a }
func (b *stubBody) Velocity() (float64, float64) { return b.vx, b.vy }
func (b *stubBody) AngularVelocity() float64 { return b.av }
func (b *stubBody) Mass() float64 { return 1 }
func (b *stubBody) SetPosition(x, y float64) { b.x, b.y = x, y }
func (b *stubBody) SetAngle(a float64) { b.a = a }
func (b *stubBody) SetVelocity(vx, vy float64) { b.vx, b.vy = vx, vy }
func (b *stubBody) SetAngularVelocity(w float64) { b.av = w }
func (b *stubBody) ApplyForce(fx, fy float64) { b.vx += fx; b.vy += fy }
func (b *stubBody) SetHoming(bool) {}

type stubWorld struct {
	bodies []*stubBody
	steps  int
}

func (w *stubWorld) CreateBox(b physics.Box, _ physics.Material) physics.Body {
	body := &stubBody{x: b.X, y: b.Y, a: b.Angle}
	w.bodies = append(w.bodies, body)
	return body
}

func (w *stubWorld) AddBounds(float64, float64) {}

func (w *stubWorld) Step(float64) {
	w.steps++
	for _, b := range w.bodies {
		b.x += b.vx
		b.y += b.vy
		b.a += b.av
	}
}

func newTestState(t *testing.T, mutate func(*Config)) (*State, *stubWorld, *bytes.Buffer) {
	t.Helper()
	world := &stubWorld{}
	var logs bytes.Buffer
	layers := geometry.Generated()
	cfg := Config{
		Width:    96,
		Height:   64,
		Picture:  scene.Placeholder(64, 48),
		Layers:   layers,
		Outline:  geometry.Outline(layers),
		NewWorld: func(params.Parameters) physics.World { return world },
		Seed:     7,
		Log:      log.New(&logs, "", 0),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, world, &logs
}

var loud = analyzer.Energies{Bass: 240, Mid: 180, Treble: 160}

func TestStepRendersEveryModeCombination(t *testing.T) {
	s, _, _ := newTestState(t, nil)
	triggers := [][]mode.Trigger{
		nil,
		{mode.ToggleVerticalFlow},
		{mode.ToggleVerticalFlow, mode.Toggle3D},
		{mode.ToggleNeon},
		{mode.ToggleKaleidoscope},
		{mode.ToggleTunnel},
		{mode.Toggle3D},
		{mode.CycleParticleMode},
		{mode.CycleParticleMode},
		{mode.CycleParticleMode},
		{mode.CycleParticleMode},
		{mode.CycleParticleMode},
	}
	for _, set := range triggers {
		for _, tr := range set {
			s.Apply(tr, 1)
		}
		for i := 0; i < 3; i++ {
			img := s.Step(loud, true)
			if img.Rect.Dx() != 96 || img.Rect.Dy() != 64 {
				t.Fatalf("framebuffer is %v", img.Rect)
			}
		}
	}
	if got := s.Status().Frame; got != 36 {
		t.Fatalf("frame=%d want 36", got)
	}
}

func TestPhysicsStartsLazilyAndExplodes(t *testing.T) {
	s, world, _ := newTestState(t, nil)
	if s.bridge.Initialized() {
		t.Fatalf("physics initialized before it was requested")
	}
	fx := s.Apply(mode.TogglePhysics, 0)
	if !fx.Has(mode.InitPhysics) {
		t.Fatalf("toggle physics effect=%v", fx)
	}
	if len(world.bodies) == 0 {
		t.Fatalf("no bodies created")
	}
	st := s.Mode()
	if st.Kaleidoscope || st.Neon || st.ThreeD || st.Tunnel {
		t.Fatalf("physics left exclusive modes on: %+v", st)
	}

	s.Step(analyzer.Energies{}, true)
	if s.bridge.State() != physics.Idle {
		t.Fatalf("quiet frame state=%v", s.bridge.State())
	}
	s.Apply(mode.ManualExplode, 0)
	if s.bridge.State() != physics.Exploding {
		t.Fatalf("manual explode state=%v", s.bridge.State())
	}
	s.Step(analyzer.Energies{}, true)
	if world.steps == 0 {
		t.Fatalf("world was not stepped while exploding")
	}
	s.Apply(mode.ResetPhysics, 0)
	if got := s.Status().Physics.Displaced; got != 0 {
		t.Fatalf("displaced after reset=%d", got)
	}
}

func TestPhysicsWithoutLayoutLogsOnce(t *testing.T) {
	s, _, logs := newTestState(t, func(c *Config) { c.Layers = geometry.Layers{} })
	s.Apply(mode.TogglePhysics, 0)
	s.Apply(mode.TogglePhysics, 0)
	s.Apply(mode.TogglePhysics, 0)
	s.Step(loud, false)
	if n := strings.Count(logs.String(), "physics unavailable"); n != 1 {
		t.Fatalf("logged %d times: %q", n, logs.String())
	}
	if s.bridge.Initialized() {
		t.Fatalf("bridge initialized without pieces")
	}
}

func TestPresetOverlayCountsDown(t *testing.T) {
	s, _, _ := newTestState(t, func(c *Config) {
		c.Params = params.Defaults()
		c.Params.OverlayFrames = 3
	})
	s.Apply(mode.CycleTouchPreset, 0)
	if st := s.Mode(); !st.Kaleidoscope || st.Overlay != 3 {
		t.Fatalf("after cycle: %+v", st)
	}
	for i := 0; i < 3; i++ {
		s.Step(loud, true)
	}
	if st := s.Mode(); st.Overlay != 0 {
		t.Fatalf("overlay=%d after three frames", st.Overlay)
	}
	s.Apply(mode.ResetTouchPreset, 0)
	if st := s.Mode(); !st.VerticalFlow || st.Kaleidoscope {
		t.Fatalf("after reset: %+v", st)
	}
}

func TestParticleModeFollowsSelector(t *testing.T) {
	s, _, _ := newTestState(t, nil)
	s.Apply(mode.CycleParticleMode, 0)
	if s.parts.Mode() != mode.ParticleRise {
		t.Fatalf("particle mode=%v", s.parts.Mode())
	}
	s.Apply(mode.ToggleVerticalFlow, 0)
	for i := 0; i < 20; i++ {
		s.Step(loud, true)
	}
	if s.Status().Particles == 0 {
		t.Fatalf("rise mode spawned nothing on loud input")
	}
}

func TestSparksDropWhenColumnsLeaveScreen(t *testing.T) {
	s, _, _ := newTestState(t, nil)
	s.Apply(mode.ToggleVerticalFlow, 0)
	if !s.parts.SpawnSpark(48, 40, 1) {
		t.Fatalf("spark not spawned")
	}
	s.Step(analyzer.Energies{}, true)
	if s.parts.Count() == 0 {
		t.Fatalf("spark dropped while columns are on screen")
	}
	s.Apply(mode.ToggleKaleidoscope, 0)
	s.Step(analyzer.Energies{}, true)
	if n := s.parts.Count(); n != 0 {
		t.Fatalf("%d sparks survived leaving column mode", n)
	}
}

func TestDepthResetsWith3DToggle(t *testing.T) {
	s, _, _ := newTestState(t, nil)
	s.Apply(mode.ToggleVerticalFlow, 0)
	s.Apply(mode.Toggle3D, 0)
	for i := 0; i < 5; i++ {
		s.Step(loud, true)
	}
	if s.depth == 0 {
		t.Fatalf("depth did not advance")
	}
	s.Apply(mode.Toggle3D, 0)
	if s.depth != 0 {
		t.Fatalf("depth=%f after toggle", s.depth)
	}
}

func TestNeonRotatesOnBeat(t *testing.T) {
	s, _, _ := newTestState(t, nil)
	s.Apply(mode.ToggleVerticalFlow, 0)
	s.Apply(mode.ToggleNeon, 0)
	before := s.Mode().PathRotation
	for i := 0; i < 10; i++ {
		s.Step(analyzer.Energies{Bass: 255}, true)
	}
	want := (before + s.p.NeonRotateOnBeat) % s.neon.Len()
	if got := s.Mode().PathRotation; got != want {
		t.Fatalf("rotation=%d want %d", got, want)
	}
}

func TestMaskFollowsThresholdParam(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	s, _, _ := newTestState(t, func(c *Config) {
		c.Mask = scene.NewMask(scene.NewPicture(img), 128)
	})
	if s.mask.Allows(0.5, 0.5) {
		t.Fatalf("gray 100 drawn at threshold %d", s.p.MaskThreshold)
	}
	p := s.Params()
	p.MaskThreshold = 50
	if err := s.SetParams(p); err != nil {
		t.Fatalf("SetParams: %v", err)
	}
	if !s.mask.Allows(0.5, 0.5) {
		t.Fatalf("threshold change not applied to the mask")
	}
}

func TestSetParamsRejectsInvalid(t *testing.T) {
	s, _, _ := newTestState(t, nil)
	bad := params.Defaults()
	bad.Columns = 0
	if err := s.SetParams(bad); err == nil {
		t.Fatalf("invalid parameters accepted")
	}
	good := params.Defaults()
	good.Columns = 16
	if err := s.SetParams(good); err != nil {
		t.Fatalf("SetParams: %v", err)
	}
	if s.grid.Len() != 16 {
		t.Fatalf("columns=%d", s.grid.Len())
	}
}

func TestResizeKeepsFramebufferInSync(t *testing.T) {
	s, _, _ := newTestState(t, nil)
	s.Resize(40, 30)
	img := s.Step(loud, true)
	if img.Rect.Dx() != 40 || img.Rect.Dy() != 30 {
		t.Fatalf("framebuffer is %v", img.Rect)
	}
}

func TestIndicatorLabels(t *testing.T) {
	st := mode.State{Kaleidoscope: true, Tunnel: true, Neon: true, Particle: mode.ParticleVortex}
	labels := indicatorLabels(st)
	want := []string{"KALEIDOSCOPE MODE [K]", "NEON WIREFRAME [N]", "TUNNEL MODE [T]", "PARTICLES: VORTEX [P]"}
	if len(labels) != len(want) {
		t.Fatalf("labels=%v", labels)
	}
	for i, l := range labels {
		if l.Text != want[i] {
			t.Fatalf("label %d=%q want %q", i, l.Text, want[i])
		}
	}
	if labels[3].Color != render.Pink {
		t.Fatalf("vortex color=%v", labels[3].Color)
	}
	if got := indicatorLabels(mode.State{Tunnel: true}); len(got) != 0 {
		t.Fatalf("tunnel without kaleidoscope labelled: %v", got)
	}
}
