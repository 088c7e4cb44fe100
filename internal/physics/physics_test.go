package physics

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/geometry"
	"github.com/guidoenr/habitateq/internal/params"
	"github.com/guidoenr/habitateq/internal/scene"
)

type fakeBody struct {
	x, y, a    float64
	vx, vy, av float64
	fx, fy     float64
	mass       float64
	homing     bool
}

func (b *fakeBody) Position() (float64, float64) { return b.x, b.y }
func (b *fakeBody) Angle() float64 { return b.a }
func (b *fakeBody) Velocity() (float64, float64) { return b.vx, b.vy }
func (b *fakeBody) AngularVelocity() float64 { return b.av }
func (b *fakeBody) Mass() float64 { return b.mass }
func (b *fakeBody) SetPosition(x, y float64) { b.x, b.y = x, y }
func (b *fakeBody) SetAngle(a float64) { b.a = a }
func (b *fakeBody) SetVelocity(vx, vy float64) { b.vx, b.vy = vx, vy }
func (b *fakeBody) SetAngularVelocity(w float64) { b.av = w }
func (b *fakeBody) ApplyForce(fx, fy float64) { b.fx += fx; b.fy += fy }
func (b *fakeBody) SetHoming(on bool) { b.homing = on }

// fakeWorld integrates like the per-step convention with no gravity or
// collisions.
type fakeWorld struct {
	bodies []*fakeBody
	bounds int
	steps  int
}

func (w *fakeWorld) CreateBox(b Box, m Material) Body {
	fb := &fakeBody{x: b.X, y: b.Y, a: b.Angle, mass: math.Max(b.W*b.H*0.001, 1e-4)}
	w.bodies = append(w.bodies, fb)
	return fb
}

func (w *fakeWorld) AddBounds(width, height float64) { w.bounds++ }

func (w *fakeWorld) Step(dt float64) {
	w.steps++
	for _, b := range w.bodies {
		b.vx += b.fx / b.mass * dt * dt
		b.vy += b.fy / b.mass * dt * dt
		b.x += b.vx
		b.y += b.vy
		b.a += b.av
		b.fx, b.fy = 0, 0
	}
}

func testLayers() geometry.Layers {
	return geometry.Layers{
		ViewBox: geometry.ViewBox{W: geometry.DesignWidth, H: geometry.DesignHeight},
		Units: []geometry.Rect{
			{X: 1000, Y: 800, W: 400, H: 200, Class: geometry.ClassUnit},
			{X: 4000, Y: 2500, W: 400, H: 200, Class: geometry.ClassUnit},
		},
		Slabs: []geometry.Rect{
			{X: 2560, Y: 1600, W: 1200, H: 100, Angle: math.Pi / 2, Class: geometry.ClassSlab},
		},
	}
}

func newTestBridge(t *testing.T) (*Bridge, *fakeWorld) {
	t.Helper()
	b := NewBridge(params.Defaults(), rand.New(rand.NewSource(1)))
	w := &fakeWorld{}
	if err := b.Init(w, testLayers(), 1024, 640); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return b, w
}

func TestInitBuildsPiecesOnce(t *testing.T) {
	b, w := newTestBridge(t)
	if b.State() != Idle || len(b.Pieces()) != 3 || w.bounds != 1 {
		t.Fatalf("state=%v pieces=%d bounds=%d", b.State(), len(b.Pieces()), w.bounds)
	}
	// 1024/5120 = 0.2 fits exactly
	x, y, a := b.Pieces()[2].Original()
	if x != 512 || y != 320 || a != math.Pi/2 {
		t.Fatalf("slab original=(%f,%f,%f)", x, y, a)
	}
	if err := b.Init(&fakeWorld{}, testLayers(), 10, 10); err != nil || len(w.bodies) != 3 {
		t.Fatalf("second Init should be a no-op")
	}
}

func TestInitWithoutPieces(t *testing.T) {
	b := NewBridge(params.Defaults(), rand.New(rand.NewSource(1)))
	if err := b.Init(&fakeWorld{}, geometry.Layers{}, 100, 100); !errors.Is(err, ErrNoPieces) {
		t.Fatalf("err=%v", err)
	}
	if ev := b.Update(analyzer.Energies{Bass: 255}, 0); ev != EventNone || b.State() != Uninitialized {
		t.Fatalf("uninitialized bridge reacted: %v %v", ev, b.State())
	}
}

func TestIdleDoesNotStepWorld(t *testing.T) {
	b, w := newTestBridge(t)
	for f := 0; f < 10; f++ {
		b.Update(analyzer.Energies{}, f)
	}
	if w.steps != 0 {
		t.Fatalf("idle bridge stepped the world %d times", w.steps)
	}
}

func TestSingleExplosionPerCooldown(t *testing.T) {
	b, _ := newTestBridge(t)
	loud := analyzer.Energies{Bass: 255, Mid: 255, Treble: 255}
	var hits []int
	for f := 0; f < 200; f++ {
		if b.Update(loud, f) == EventExploded {
			hits = append(hits, f)
		}
	}
	if len(hits) == 0 || hits[0] != 0 {
		t.Fatalf("first explosion at %v, want frame 0", hits)
	}
	for i := 1; i < len(hits); i++ {
		if gap := hits[i] - hits[i-1]; gap <= 30 {
			t.Fatalf("explosions at %d and %d are only %d frames apart", hits[i-1], hits[i], gap)
		}
	}
	if len(hits) != 7 {
		t.Fatalf("hits=%v want one every 31 frames", hits)
	}
}

func TestReassemblyConvergesMonotonically(t *testing.T) {
	b, w := newTestBridge(t)
	offsets := [][2]float64{{120, -80}, {-200, 40}, {60, 150}}
	for i, pc := range b.Pieces() {
		x, y, _ := pc.Original()
		pc.Body.SetPosition(x+offsets[i][0], y+offsets[i][1])
		pc.Body.SetAngle(0.7)
	}
	b.state = Exploding
	b.lastHit = 0

	prev := make([]float64, len(b.Pieces()))
	for i, pc := range b.Pieces() {
		prev[i] = pc.Displacement()
	}
	settled := false
	for f := 100; f < 2000; f++ {
		ev := b.Update(analyzer.Energies{}, f)
		if f == 100 && ev != EventReassemblyStarted {
			t.Fatalf("first quiet frame: event=%v", ev)
		}
		for i, pc := range b.Pieces() {
			d := pc.Displacement()
			if d > prev[i]+1e-9 {
				t.Fatalf("frame %d piece %d: distance grew %f -> %f", f, i, prev[i], d)
			}
			prev[i] = d
		}
		if ev == EventSettled {
			settled = true
			break
		}
	}
	if !settled || b.State() != Idle {
		t.Fatalf("never settled, state=%v", b.State())
	}
	for i, fb := range w.bodies {
		x, y, a := b.Pieces()[i].Original()
		if fb.x != x || fb.y != y || fb.a != a || fb.vx != 0 || fb.vy != 0 || fb.av != 0 {
			t.Fatalf("piece %d not snapped exactly: %+v", i, fb)
		}
	}
}

func TestExplodeThrowsOutward(t *testing.T) {
	b, w := newTestBridge(t)
	b.Explode(0.05)
	if b.State() != Exploding {
		t.Fatalf("state=%v", b.State())
	}
	w.Step(StepMillis)
	// the first unit sits up and left of center
	if fb := w.bodies[0]; fb.vx >= 0 || fb.vy >= 0 {
		t.Fatalf("unit moved (%f,%f), want up-left", fb.vx, fb.vy)
	}
	if fb := w.bodies[1]; fb.vx <= 0 {
		t.Fatalf("second unit moved vx=%f, want right", fb.vx)
	}
	// the slab sits exactly on the center and is skipped
	if fb := w.bodies[2]; fb.vx != 0 || fb.vy != 0 {
		t.Fatalf("centered slab moved (%f,%f)", fb.vx, fb.vy)
	}
	b.Reset()
	if b.State() != Idle || b.Stats().Displaced != 0 {
		t.Fatalf("reset left %+v", b.Stats())
	}
}

func TestPieceColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 512, 320))
	for x := 256; x < 512; x++ {
		for y := 0; y < 320; y++ {
			img.SetRGBA(x, y, color.RGBA{100, 150, 200, 255})
		}
	}
	pic := scene.NewPicture(img)
	dark := &Piece{Class: geometry.ClassUnit, DesignX: 100, DesignY: 100}
	if got := PieceColor(pic, dark, 1, 0); got != (color.RGBA{255, 100, 50, 255}) {
		t.Fatalf("dark unit color=%v", got)
	}
	slab := &Piece{Class: geometry.ClassSlab, DesignX: 100, DesignY: 100}
	if got := PieceColor(pic, slab, 0, 0); got != (color.RGBA{0, 255, 255, 255}) {
		t.Fatalf("dark slab color=%v", got)
	}
	lit := &Piece{Class: geometry.ClassUnit, DesignX: 4000, DesignY: 100}
	if got := PieceColor(pic, lit, 0, 0); got != (color.RGBA{120, 180, 240, 255}) {
		t.Fatalf("lit color=%v", got)
	}
	far := &Piece{Class: geometry.ClassUnit, DesignX: 99999, DesignY: -50}
	if got := PieceColor(pic, far, 0, 0); got != (color.RGBA{120, 180, 240, 255}) {
		t.Fatalf("out of range lookup should clamp, got %v", got)
	}
}

func TestReassemblyTogglesHoming(t *testing.T) {
	b, w := newTestBridge(t)
	b.Update(analyzer.Energies{Bass: 255}, 0)
	for i, fb := range w.bodies {
		if fb.homing {
			t.Fatalf("body %d homing while exploding", i)
		}
	}
	for f := 1; b.State() == Exploding; f++ {
		if f > 1000 {
			t.Fatalf("reassembly never started")
		}
		b.Update(analyzer.Energies{}, f)
	}
	for i, fb := range w.bodies {
		if !fb.homing {
			t.Fatalf("body %d not homing during reassembly", i)
		}
	}
	b.Reset()
	for i, fb := range w.bodies {
		if fb.homing {
			t.Fatalf("body %d still homing after reset", i)
		}
	}
}

func TestChipmunkReassemblySettles(t *testing.T) {
	p := params.Defaults()
	for _, size := range [][2]float64{{320, 180}, {1280, 720}} {
		b := NewBridge(p, rand.New(rand.NewSource(7)))
		if err := b.Init(NewCPWorld(p.Gravity, p.AirFriction), geometry.Generated(), size[0], size[1]); err != nil {
			t.Fatalf("Init: %v", err)
		}
		if ev := b.Update(analyzer.Energies{Bass: 255, Mid: 255, Treble: 255}, 1); ev != EventExploded {
			t.Fatalf("%v: event=%v want explosion", size, ev)
		}
		settled := false
		for f := 2; f < 6000 && !settled; f++ {
			settled = b.Update(analyzer.Energies{}, f) == EventSettled
		}
		if !settled || b.State() != Idle {
			t.Fatalf("%v: never settled, stats=%+v", size, b.Stats())
		}
		if st := b.Stats(); st.Displaced != 0 {
			t.Fatalf("%v: %d pieces away from home", size, st.Displaced)
		}
	}
}
