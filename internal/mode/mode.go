package mode

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Particle selects the active particle subsystem.
type Particle int

const (
	ParticleOff Particle = iota
	ParticleRise
	ParticleExplosion
	ParticleDisintegrate
	ParticleVortex
	ParticleFireworks

	particleCount
)

var particleNames = [...]string{"off", "eq-rise", "explosion", "disintegrate", "vortex", "fireworks"}

func (p Particle) String() string {
	if p < 0 || p >= particleCount {
		return fmt.Sprintf("particle(%d)", int(p))
	}
	return particleNames[p]
}

// ParticleNames lists particle modes in cycle order.
func ParticleNames() []string {
	out := make([]string, len(particleNames))
	copy(out, particleNames[:])
	return out
}

// Trigger is a named user action. Keyboard and web input both resolve to triggers.
type Trigger int

const (
	ToggleKaleidoscope Trigger = iota
	ToggleNeon
	Toggle3D
	ToggleVerticalFlow
	ToggleTunnel
	CycleParticleMode
	TogglePhysics
	ResetPhysics
	ManualExplode
	AdjustSegmentCount
	AdjustActivePathCount
	RotateActivePaths
	CycleTouchPreset
	ResetTouchPreset
)

var triggerRegistry = map[string]Trigger{
	"toggle-kaleidoscope":      ToggleKaleidoscope,
	"toggle-neon":              ToggleNeon,
	"toggle-3d":                Toggle3D,
	"toggle-vertical-flow":     ToggleVerticalFlow,
	"toggle-tunnel":            ToggleTunnel,
	"cycle-particle-mode":      CycleParticleMode,
	"toggle-physics":           TogglePhysics,
	"reset-physics":            ResetPhysics,
	"manual-explode":           ManualExplode,
	"adjust-segment-count":     AdjustSegmentCount,
	"adjust-active-path-count": AdjustActivePathCount,
	"rotate-active-paths":      RotateActivePaths,
	"cycle-touch-preset":       CycleTouchPreset,
	"reset-touch-preset":       ResetTouchPreset,
}

func (t Trigger) String() string {
	for name, v := range triggerRegistry {
		if v == t {
			return name
		}
	}
	return fmt.Sprintf("trigger(%d)", int(t))
}

// ErrUnknownTrigger is returned for names no trigger is registered under.
var ErrUnknownTrigger = errors.New("unknown trigger")

// ParseTrigger resolves a wire name such as "toggle-neon".
func ParseTrigger(name string) (Trigger, error) {
	t, ok := triggerRegistry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownTrigger, name)
	}
	return t, nil
}

// TriggerNames returns all trigger wire names sorted.
func TriggerNames() []string {
	out := make([]string, 0, len(triggerRegistry))
	for name := range triggerRegistry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Effect names transient resources the owner of the selector must reset after
// a mutation. Several bits may be set at once.
type Effect uint16

const (
	ClearBuffer Effect = 1 << iota
	ClearParticles
	ResetDepth
	ResetFloors
	InitPhysics
	ResetPhysicsBodies
	Explode
	RefreshPaths
	ResetTunnel
	ShowOverlay

	None Effect = 0
)

// Has reports whether all bits of o are set.
func (e Effect) Has(o Effect) bool { return e&o == o && o != 0 }
