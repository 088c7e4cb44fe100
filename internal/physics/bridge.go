package physics

import (
	"errors"
	"math"
	"math/rand"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/geometry"
	"github.com/guidoenr/habitateq/internal/params"
	"github.com/guidoenr/habitateq/internal/scene"
)

// State is the bridge's lifecycle stage.
type State int

const (
	Uninitialized State = iota
	Idle
	Exploding
	Reassembling
)

var stateNames = [...]string{"uninitialized", "idle", "exploding", "reassembling"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Event reports what a call to Update did.
type Event int

const (
	EventNone Event = iota
	EventExploded
	EventReassemblyStarted
	EventSettled
)

// minDistance guards direction normalization.
const minDistance = 1e-6

// ErrNoPieces is returned by Init when the layout has nothing to simulate.
var ErrNoPieces = errors.New("layout has no units or slabs")

// Piece is one rigid body built from a layout rectangle. Its original pose is
// fixed at creation.
type Piece struct {
	Body  Body
	Class geometry.Class
	// W, H are the on-screen size.
	W, H float64
	// DesignX, DesignY locate the piece in design space for color lookup.
	DesignX, DesignY float64

	origX, origY, origAngle float64
}

// Original returns the pose the piece returns to.
func (p *Piece) Original() (x, y, angle float64) {
	return p.origX, p.origY, p.origAngle
}

// Displacement is the distance from the original position.
func (p *Piece) Displacement() float64 {
	x, y := p.Body.Position()
	return math.Hypot(p.origX-x, p.origY-y)
}

func (p *Piece) snap() {
	p.Body.SetPosition(p.origX, p.origY)
	p.Body.SetAngle(p.origAngle)
	p.Body.SetVelocity(0, 0)
	p.Body.SetAngularVelocity(0)
}

// Bridge turns a static layout into bodies and drives the explode and
// reassemble cycle from the bass.
type Bridge struct {
	p      params.Parameters
	rng    *rand.Rand
	world  World
	pieces []*Piece
	state  State

	width, height float64
	lastHit       int
	frame         int
}

// NewBridge returns an uninitialized bridge.
func NewBridge(p params.Parameters, rng *rand.Rand) *Bridge {
	return &Bridge{
		p:   p,
		rng: rng,
		// lets the first hit fire at frame 0
		lastHit: -p.ExplodeCooldown - 1,
	}
}

// State returns the lifecycle stage.
func (b *Bridge) State() State { return b.state }

// Pieces exposes the bodies for drawing.
func (b *Bridge) Pieces() []*Piece { return b.pieces }

// Initialized reports whether Init has built the bodies.
func (b *Bridge) Initialized() bool { return b.state != Uninitialized }

// Init builds one body per unit and slab, fitting the design space into a
// w x h viewport, and walls the viewport off. Later calls are no-ops.
func (b *Bridge) Init(world World, layers geometry.Layers, w, h float64) error {
	if b.state != Uninitialized {
		return nil
	}
	rects := layers.Pieces()
	if len(rects) == 0 {
		return ErrNoPieces
	}
	vw, vh := layers.ViewBox.W, layers.ViewBox.H
	if vw <= 0 || vh <= 0 {
		vw, vh = geometry.DesignWidth, geometry.DesignHeight
	}
	fit := scene.Fit(int(vw), int(vh), int(w), int(h))
	mat := Material{
		Restitution: b.p.Restitution,
		Friction:    b.p.Friction,
		AirFriction: b.p.AirFriction,
	}

	b.pieces = make([]*Piece, 0, len(rects))
	for _, r := range rects {
		x, y := fit.ToScreen(r.X, r.Y)
		pw, ph := r.W*fit.Scale, r.H*fit.Scale
		body := world.CreateBox(Box{X: x, Y: y, W: pw, H: ph, Angle: r.Angle}, mat)
		b.pieces = append(b.pieces, &Piece{
			Body:      body,
			Class:     r.Class,
			W:         pw,
			H:         ph,
			DesignX:   r.X * geometry.DesignWidth / vw,
			DesignY:   r.Y * geometry.DesignHeight / vh,
			origX:     x,
			origY:     y,
			origAngle: r.Angle,
		})
	}
	world.AddBounds(w, h)
	b.world = world
	b.width, b.height = w, h
	b.state = Idle
	return nil
}

// Update steps the world once and runs the state machine for this frame.
// The pieces rest untouched while idle.
func (b *Bridge) Update(e analyzer.Energies, frame int) Event {
	if b.state == Uninitialized {
		return EventNone
	}
	b.frame = frame
	bass, _, _ := e.Norm()
	overall := e.Overall()

	if b.state != Idle {
		b.world.Step(StepMillis)
	}

	ev := EventNone
	switch {
	case bass > b.p.ExplodeThreshold && frame-b.lastHit > b.p.ExplodeCooldown:
		b.explode(b.p.ExplodeBase+bass*b.p.ExplodeBassGain, frame)
		ev = EventExploded
	case b.state == Exploding && overall < b.p.ReassembleBelow && frame-b.lastHit > b.p.ReassembleAfter:
		b.state = Reassembling
		b.setHoming(true)
		ev = EventReassemblyStarted
	}

	if b.state == Reassembling {
		strength := b.p.ReassembleBase + (1-overall)*b.p.ReassembleCalmGain
		if b.reassemble(strength) {
			b.setHoming(false)
			b.state = Idle
			if ev == EventNone {
				ev = EventSettled
			}
		}
	}
	return ev
}

// Explode throws every piece outward from the viewport center.
func (b *Bridge) Explode(strength float64) {
	if b.state == Uninitialized {
		return
	}
	b.explode(strength, b.frame)
}

func (b *Bridge) explode(strength float64, frame int) {
	b.setHoming(false)
	cx, cy := b.width/2, b.height/2
	for _, pc := range b.pieces {
		x, y := pc.Body.Position()
		dx, dy := x-cx, y-cy
		d := math.Hypot(dx, dy)
		if d <= minDistance {
			continue
		}
		mag := strength * (0.5 + b.rng.Float64()*0.5)
		pc.Body.ApplyForce(dx/d*mag, dy/d*mag-strength*0.3)
		pc.Body.SetAngularVelocity((b.rng.Float64() - 0.5) * 0.3)
	}
	b.state = Exploding
	b.lastHit = frame
}

// reassemble pulls each piece home and reports whether all of them snapped.
func (b *Bridge) reassemble(strength float64) bool {
	settled := true
	for _, pc := range b.pieces {
		x, y := pc.Body.Position()
		dx, dy := pc.origX-x, pc.origY-y
		d := math.Hypot(dx, dy)

		// spin decays even inside the snap radius so nothing stalls there
		pc.Body.SetAngularVelocity(pc.Body.AngularVelocity() * 0.95)
		if d > 1 {
			mag := strength * math.Min(d/100, 1)
			pc.Body.ApplyForce(dx/d*mag, dy/d*mag)

			vx, vy := pc.Body.Velocity()
			limit := b.p.ApproachRatio * d
			if speed := math.Hypot(vx, vy); speed > limit && speed > minDistance {
				k := limit / speed
				pc.Body.SetVelocity(vx*k, vy*k)
			}
		}

		if d < b.p.SnapDistance && math.Abs(pc.Body.AngularVelocity()) < b.p.SnapAngularVelocity {
			pc.snap()
			continue
		}
		settled = false
	}
	return settled
}

// Reset snaps every piece home and returns to idle.
func (b *Bridge) Reset() {
	if b.state == Uninitialized {
		return
	}
	b.setHoming(false)
	for _, pc := range b.pieces {
		pc.snap()
	}
	b.state = Idle
}

func (b *Bridge) setHoming(on bool) {
	for _, pc := range b.pieces {
		pc.Body.SetHoming(on)
	}
}

// Stats summarizes the bridge for status displays.
type Stats struct {
	State     string `json:"state"`
	Pieces    int    `json:"pieces"`
	Displaced int    `json:"displaced"`
}

// Stats counts the pieces away from home.
func (b *Bridge) Stats() Stats {
	s := Stats{State: b.state.String(), Pieces: len(b.pieces)}
	for _, pc := range b.pieces {
		if pc.Displacement() >= b.p.SnapDistance {
			s.Displaced++
		}
	}
	return s
}
