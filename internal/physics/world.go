package physics

// Units follow the per-step convention: positions in pixels, velocities in
// pixels per step, angular velocities in radians per step, and a force F
// changes a body's velocity by F/mass*dt^2 over a step of dt milliseconds.

// StepMillis is the fixed simulation step.
const StepMillis = 1000.0 / 60

// Box is a rectangle centered on (X, Y) rotated by Angle.
type Box struct {
	X, Y, W, H float64
	Angle      float64
}

// Material holds the contact and drag properties of a body.
type Material struct {
	Restitution float64
	Friction    float64
	// AirFriction is the fraction of velocity lost per step.
	AirFriction float64
}

// World is the slice of a rigid-body engine the bridge drives.
type World interface {
	CreateBox(b Box, m Material) Body
	// AddBounds walls off a w x h area so pieces stay on screen.
	AddBounds(w, h float64)
	Step(dtMillis float64)
}

// Body is a dynamic rigid body owned by a World.
type Body interface {
	Position() (x, y float64)
	Angle() float64
	Velocity() (vx, vy float64)
	AngularVelocity() float64
	Mass() float64

	SetPosition(x, y float64)
	SetAngle(a float64)
	SetVelocity(vx, vy float64)
	SetAngularVelocity(w float64)
	// ApplyForce acts at the center of mass during the next step.
	ApplyForce(fx, fy float64)
	// SetHoming exempts the body from gravity and from contact with other
	// pieces while it is pulled back to its original pose.
	SetHoming(on bool)
}
