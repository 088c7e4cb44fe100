package mode

// Limits for adjustable counts.
const (
	MinSegments      = 4
	MaxSegments      = 16
	SegmentStep      = 2
	MinActivePaths   = 10
	MaxActivePaths   = 200
	ActivePathStep   = 10
	PathRotationStep = 20
)

// State is an immutable view of the selector read once per frame.
type State struct {
	Kaleidoscope bool     `json:"kaleidoscope"`
	Neon         bool     `json:"neon"`
	ThreeD       bool     `json:"threeD"`
	VerticalFlow bool     `json:"verticalFlow"`
	Tunnel       bool     `json:"tunnel"`
	Physics      bool     `json:"physics"`
	Particle     Particle `json:"particle"`
	Segments     int      `json:"segments"`
	ActivePaths  int      `json:"activePaths"`
	PathRotation int      `json:"pathRotation"`
	Preset       int      `json:"preset"`
	Overlay      int      `json:"overlay"`
}

// PresetName is the label of the current touch preset.
func (s State) PresetName() string {
	if s.Preset < 0 || s.Preset >= len(presets) {
		return presets[0].name
	}
	return presets[s.Preset].name
}

type preset struct {
	name   string
	state  State
	effect Effect
}

var presets = []preset{
	{name: "VERTICAL FLOW", state: State{VerticalFlow: true}, effect: ClearParticles},
	{name: "KALEIDOSCOPE", state: State{Kaleidoscope: true}, effect: ClearParticles | ClearBuffer},
	{name: "NEON WIREFRAME", state: State{Neon: true}, effect: ClearParticles | RefreshPaths},
	{name: "3D MODE", state: State{ThreeD: true}, effect: ClearParticles | ResetDepth},
	{name: "KALEIDOSCOPE + TUNNEL", state: State{Kaleidoscope: true, Tunnel: true}, effect: ClearParticles | ClearBuffer | ResetTunnel},
	{name: "PARTICLES: FIREWORKS", state: State{Particle: ParticleFireworks}, effect: ClearParticles},
	{name: "PARTICLES: VORTEX", state: State{Particle: ParticleVortex}, effect: ClearParticles},
	{name: "PHYSICS MODE", state: State{Physics: true}, effect: ClearParticles | InitPhysics},
}

// PresetNames lists the touch presets in cycle order.
func PresetNames() []string {
	out := make([]string, len(presets))
	for i, p := range presets {
		out[i] = p.name
	}
	return out
}

// Selector owns the effect flags. It is only mutated from the frame loop.
type Selector struct {
	st            State
	pathCount     int
	overlayFrames int
}

// NewSelector returns a selector in the start-up state: vertical flow on,
// everything else off.
func NewSelector(segments, activePaths, overlayFrames int) *Selector {
	if segments <= 0 {
		segments = 8
	}
	if activePaths <= 0 {
		activePaths = 50
	}
	if overlayFrames <= 0 {
		overlayFrames = 90
	}
	return &Selector{
		st: State{
			VerticalFlow: true,
			Segments:     clampInt(segments, MinSegments, MaxSegments),
			ActivePaths:  clampInt(activePaths, MinActivePaths, MaxActivePaths),
		},
		overlayFrames: overlayFrames,
	}
}

// Snapshot returns a copy of the current state.
func (s *Selector) Snapshot() State { return s.st }

// SetPathCount tells the selector how many wireframe paths exist so rotation
// can wrap. Zero disables rotation.
func (s *Selector) SetPathCount(n int) {
	if n < 0 {
		n = 0
	}
	s.pathCount = n
	if n == 0 {
		s.st.PathRotation = 0
		return
	}
	s.st.PathRotation = wrap(s.st.PathRotation, n)
}

// AdvancePathRotation moves the active path window by delta, wrapping.
func (s *Selector) AdvancePathRotation(delta int) {
	if s.pathCount == 0 {
		return
	}
	s.st.PathRotation = wrap(s.st.PathRotation+delta, s.pathCount)
}

// Tick counts the touch overlay down. Called once per frame.
func (s *Selector) Tick() {
	if s.st.Overlay > 0 {
		s.st.Overlay--
	}
}

// Apply performs a trigger. Physics never runs alongside kaleidoscope, neon,
// 3D or tunnel: entering either side leaves the other. arg carries the direction of adjust and rotate
// triggers (positive or negative) and is ignored otherwise.
func (s *Selector) Apply(t Trigger, arg int) Effect {
	switch t {
	case ToggleKaleidoscope:
		s.st.Kaleidoscope = !s.st.Kaleidoscope
		if s.st.Kaleidoscope {
			s.st.Physics = false
			return ClearBuffer
		}
	case ToggleNeon:
		s.st.Neon = !s.st.Neon
		if s.st.Neon {
			s.st.Physics = false
			return RefreshPaths
		}
	case Toggle3D:
		s.st.ThreeD = !s.st.ThreeD
		if s.st.ThreeD {
			s.st.Physics = false
		}
		return ResetDepth
	case ToggleVerticalFlow:
		s.st.VerticalFlow = !s.st.VerticalFlow
		if s.st.VerticalFlow {
			return ResetFloors
		}
	case ToggleTunnel:
		s.st.Tunnel = !s.st.Tunnel
		if s.st.Tunnel {
			s.st.Physics = false
		}
		return ResetTunnel
	case CycleParticleMode:
		s.st.Particle = (s.st.Particle + 1) % particleCount
		return ClearParticles
	case TogglePhysics:
		return s.togglePhysics()
	case ResetPhysics:
		if s.st.Physics {
			return ResetPhysicsBodies
		}
	case ManualExplode:
		if s.st.Physics {
			return Explode
		}
	case AdjustSegmentCount:
		if s.st.Kaleidoscope && arg != 0 {
			s.st.Segments = clampInt(s.st.Segments+sign(arg)*SegmentStep, MinSegments, MaxSegments)
		}
	case AdjustActivePathCount:
		if s.st.Neon && arg != 0 {
			s.st.ActivePaths = clampInt(s.st.ActivePaths+sign(arg)*ActivePathStep, MinActivePaths, MaxActivePaths)
			return RefreshPaths
		}
	case RotateActivePaths:
		if s.st.Neon && arg != 0 && s.pathCount > 0 {
			s.AdvancePathRotation(sign(arg) * PathRotationStep)
			return RefreshPaths
		}
	case CycleTouchPreset:
		return s.selectPreset((s.st.Preset + 1) % len(presets))
	case ResetTouchPreset:
		return s.selectPreset(0)
	}
	return None
}

func (s *Selector) togglePhysics() Effect {
	s.st.Physics = !s.st.Physics
	if !s.st.Physics {
		return None
	}
	s.st.Kaleidoscope = false
	s.st.Neon = false
	s.st.ThreeD = false
	s.st.Tunnel = false
	return InitPhysics
}

func (s *Selector) selectPreset(idx int) Effect {
	p := presets[idx]
	next := p.state
	next.Segments = s.st.Segments
	next.ActivePaths = s.st.ActivePaths
	next.PathRotation = s.st.PathRotation
	next.Preset = idx
	next.Overlay = s.overlayFrames
	s.st = next
	return p.effect | ShowOverlay
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
