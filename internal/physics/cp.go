package physics

import (
	"math"

	"github.com/jakecoffman/cp"
)

const (
	stepsPerSecond = 1000 / StepMillis
	// density turns box area into mass.
	density = 0.001
	// gravityScale turns the per-step gravity setting into px/step^2.
	gravityScale  = 0.001
	wallThickness = 100.0
)

// homingGroup is shared by homing pieces so they pass through each other.
const homingGroup uint = 1

// CPWorld runs the pieces on the Chipmunk2D port.
type CPWorld struct {
	space *cp.Space
}

// NewCPWorld creates a space with downward gravity g (per-step units) and
// the given air friction.
func NewCPWorld(g, airFriction float64) *CPWorld {
	space := cp.NewSpace()
	accel := g * gravityScale * StepMillis * StepMillis * stepsPerSecond * stepsPerSecond
	space.SetGravity(cp.Vector{X: 0, Y: accel})
	if airFriction > 0 && airFriction < 1 {
		space.SetDamping(math.Pow(1-airFriction, stepsPerSecond))
	}
	space.Iterations = 10
	return &CPWorld{space: space}
}

// CreateBox adds a dynamic box.
func (w *CPWorld) CreateBox(b Box, m Material) Body {
	mass := math.Max(b.W*b.H*density, 1e-4)
	body := w.space.AddBody(cp.NewBody(mass, cp.MomentForBox(mass, b.W, b.H)))
	body.SetPosition(cp.Vector{X: b.X, Y: b.Y})
	body.SetAngle(b.Angle)
	shape := w.space.AddShape(cp.NewBox(body, b.W, b.H, 0))
	shape.SetElasticity(m.Restitution)
	shape.SetFriction(m.Friction)
	return &cpBody{body: body}
}

// AddBounds walls off the viewport with static segments.
func (w *CPWorld) AddBounds(width, height float64) {
	r := wallThickness / 2
	static := w.space.StaticBody
	edges := [][2]cp.Vector{
		{{X: -width / 2, Y: height + r}, {X: width * 1.5, Y: height + r}},
		{{X: -width / 2, Y: -r}, {X: width * 1.5, Y: -r}},
		{{X: -r, Y: -height / 2}, {X: -r, Y: height * 1.5}},
		{{X: width + r, Y: -height / 2}, {X: width + r, Y: height * 1.5}},
	}
	for _, e := range edges {
		seg := w.space.AddShape(cp.NewSegment(static, e[0], e[1], r))
		seg.SetElasticity(0.6)
		seg.SetFriction(0.1)
	}
}

// Step advances the space by dtMillis.
func (w *CPWorld) Step(dtMillis float64) {
	w.space.Step(dtMillis / 1000)
}

type cpBody struct {
	body *cp.Body
}

func (b *cpBody) Position() (float64, float64) {
	p := b.body.Position()
	return p.X, p.Y
}

func (b *cpBody) Angle() float64 { return b.body.Angle() }

func (b *cpBody) Velocity() (float64, float64) {
	v := b.body.Velocity()
	return v.X / stepsPerSecond, v.Y / stepsPerSecond
}

func (b *cpBody) AngularVelocity() float64 {
	return b.body.AngularVelocity() / stepsPerSecond
}

func (b *cpBody) Mass() float64 { return b.body.Mass() }

func (b *cpBody) SetPosition(x, y float64) {
	b.body.SetPosition(cp.Vector{X: x, Y: y})
}

func (b *cpBody) SetAngle(a float64) { b.body.SetAngle(a) }

func (b *cpBody) SetVelocity(vx, vy float64) {
	b.body.SetVelocity(vx*stepsPerSecond, vy*stepsPerSecond)
}

func (b *cpBody) SetAngularVelocity(w float64) {
	b.body.SetAngularVelocity(w * stepsPerSecond)
}

// ApplyForce delivers the per-step force as an impulse of equal effect.
func (b *cpBody) ApplyForce(fx, fy float64) {
	k := StepMillis * StepMillis * stepsPerSecond
	b.body.ApplyImpulseAtWorldPoint(cp.Vector{X: fx * k, Y: fy * k}, b.body.Position())
}

func (b *cpBody) SetHoming(on bool) {
	filter := cp.SHAPE_FILTER_ALL
	velocity := cp.BodyUpdateVelocity
	if on {
		filter = cp.NewShapeFilter(homingGroup, cp.ALL_CATEGORIES, cp.ALL_CATEGORIES)
		velocity = weightless
	}
	b.body.SetVelocityUpdateFunc(velocity)
	b.body.EachShape(func(s *cp.Shape) { s.SetFilter(filter) })
}

// weightless integrates like cp.BodyUpdateVelocity without gravity.
func weightless(body *cp.Body, _ cp.Vector, damping, dt float64) {
	cp.BodyUpdateVelocity(body, cp.Vector{}, damping, dt)
}
