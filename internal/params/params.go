package params

import (
	"encoding/json"
	"fmt"
	"os"
)

// Parameters holds every tunable constant of the installation. Zero values are
// never meaningful, so partial JSON documents can be merged onto Defaults.
type Parameters struct {
	// column grid
	Columns           int     `json:"columns"`
	QuantizeSteps     int     `json:"quantizeSteps"`
	MaxDisplacement   float64 `json:"maxDisplacement"`
	SpringStiffness   float64 `json:"springStiffness"`
	SpringDamping     float64 `json:"springDamping"`
	BandWeight        float64 `json:"bandWeight"`
	NoiseWeight       float64 `json:"noiseWeight"`
	TravelWeight      float64 `json:"travelWeight"`
	AmplitudeWeight   float64 `json:"amplitudeWeight"`
	ColumnTimeScale   float64 `json:"columnTimeScale"`
	DepthLerp         float64 `json:"depthLerp"`
	FocalLength       float64 `json:"focalLength"`
	SparkThreshold    float64 `json:"sparkThreshold"`
	SparkChance       float64 `json:"sparkChance"`
	ColumnGlowAt      float64 `json:"columnGlowAt"`
	ColumnHotAt       float64 `json:"columnHotAt"`
	ColumnOverlayFrom float64 `json:"columnOverlayFrom"`

	// floor bands
	Floors          int     `json:"floors"`
	FloorTimeScale  float64 `json:"floorTimeScale"`
	FloorThreshold  float64 `json:"floorThreshold"`
	FloorGain       float64 `json:"floorGain"`
	MaskThreshold   uint8   `json:"maskThreshold"`
	GlitchThreshold float64 `json:"glitchThreshold"`

	// kaleidoscope and tunnel
	Segments          int     `json:"segments"`
	KaleidoSpin       float64 `json:"kaleidoSpin"`
	KaleidoBassSpin   float64 `json:"kaleidoBassSpin"`
	TunnelRings       int     `json:"tunnelRings"`
	TunnelMinScale    float64 `json:"tunnelMinScale"`
	TunnelMaxScale    float64 `json:"tunnelMaxScale"`
	TunnelBaseSpeed   float64 `json:"tunnelBaseSpeed"`
	TunnelBassSpeed   float64 `json:"tunnelBassSpeed"`
	TunnelSpiral      float64 `json:"tunnelSpiral"`
	TunnelMidSpiral   float64 `json:"tunnelMidSpiral"`
	NeonActivePaths   int     `json:"neonActivePaths"`
	NeonRotateOnBeat  int     `json:"neonRotateOnBeat"`
	NeonBeatThreshold float64 `json:"neonBeatThreshold"`

	// physics
	ExplodeThreshold    float64 `json:"explodeThreshold"`
	ExplodeCooldown     int     `json:"explodeCooldown"`
	ExplodeBase         float64 `json:"explodeBase"`
	ExplodeBassGain     float64 `json:"explodeBassGain"`
	ManualExplode       float64 `json:"manualExplode"`
	ReassembleBelow     float64 `json:"reassembleBelow"`
	ReassembleAfter     int     `json:"reassembleAfter"`
	ReassembleBase      float64 `json:"reassembleBase"`
	ReassembleCalmGain  float64 `json:"reassembleCalmGain"`
	SnapDistance        float64 `json:"snapDistance"`
	SnapAngularVelocity float64 `json:"snapAngularVelocity"`
	ApproachRatio       float64 `json:"approachRatio"`
	Gravity             float64 `json:"gravity"`
	Restitution         float64 `json:"restitution"`
	Friction            float64 `json:"friction"`
	AirFriction         float64 `json:"airFriction"`

	// particles
	RiseColumnCap      int     `json:"riseColumnCap"`
	RiseRadialCap      int     `json:"riseRadialCap"`
	DustCap            int     `json:"dustCap"`
	SparkCap           int     `json:"sparkCap"`
	ExplosionThreshold float64 `json:"explosionThreshold"`
	ExplosionChance    float64 `json:"explosionChance"`
	RocketThreshold    float64 `json:"rocketThreshold"`
	RocketChance       float64 `json:"rocketChance"`

	// overlays
	OverlayFrames  int     `json:"overlayFrames"`
	MeterFrequency float64 `json:"meterFrequency"`
	MeterDamping   float64 `json:"meterDamping"`
}

// Defaults returns the tuned values of the installation.
func Defaults() Parameters {
	return Parameters{
		Columns:           64,
		QuantizeSteps:     12,
		MaxDisplacement:   0.45,
		SpringStiffness:   0.15,
		SpringDamping:     0.75,
		BandWeight:        0.6,
		NoiseWeight:       0.4,
		TravelWeight:      0.3,
		AmplitudeWeight:   0.2,
		ColumnTimeScale:   0.05,
		DepthLerp:         0.1,
		FocalLength:       800,
		SparkThreshold:    0.75,
		SparkChance:       0.3,
		ColumnGlowAt:      0.4,
		ColumnHotAt:       0.7,
		ColumnOverlayFrom: 0.5,

		Floors:          20,
		FloorTimeScale:  0.1,
		FloorThreshold:  0.05,
		FloorGain:       1.5,
		MaskThreshold:   128,
		GlitchThreshold: 200,

		Segments:          8,
		KaleidoSpin:       0.002,
		KaleidoBassSpin:   0.01,
		TunnelRings:       24,
		TunnelMinScale:    0.3,
		TunnelMaxScale:    2.5,
		TunnelBaseSpeed:   0.004,
		TunnelBassSpeed:   0.015,
		TunnelSpiral:      0.15,
		TunnelMidSpiral:   0.2,
		NeonActivePaths:   50,
		NeonRotateOnBeat:  5,
		NeonBeatThreshold: 0.7,

		ExplodeThreshold:    0.75,
		ExplodeCooldown:     30,
		ExplodeBase:         0.02,
		ExplodeBassGain:     0.03,
		ManualExplode:       0.05,
		ReassembleBelow:     0.3,
		ReassembleAfter:     60,
		ReassembleBase:      0.0005,
		ReassembleCalmGain:  0.001,
		SnapDistance:        5,
		SnapAngularVelocity: 0.01,
		ApproachRatio:       0.2,
		Gravity:             0.3,
		Restitution:         0.6,
		Friction:            0.1,
		AirFriction:         0.02,

		RiseColumnCap:      800,
		RiseRadialCap:      1200,
		DustCap:            500,
		SparkCap:           600,
		ExplosionThreshold: 0.7,
		ExplosionChance:    0.3,
		RocketThreshold:    0.6,
		RocketChance:       0.2,

		OverlayFrames:  90,
		MeterFrequency: 8,
		MeterDamping:   0.6,
	}
}

// Validate reports parameters that would break an invariant of the models.
func (p Parameters) Validate() error {
	switch {
	case p.Columns <= 0:
		return fmt.Errorf("columns must be positive (got %d)", p.Columns)
	case p.Floors <= 0:
		return fmt.Errorf("floors must be positive (got %d)", p.Floors)
	case p.QuantizeSteps <= 0:
		return fmt.Errorf("quantizeSteps must be positive (got %d)", p.QuantizeSteps)
	case p.SpringDamping <= 0 || p.SpringDamping >= 1:
		return fmt.Errorf("springDamping must be in (0,1) (got %.3f)", p.SpringDamping)
	case p.Segments < 2:
		return fmt.Errorf("segments must be at least 2 (got %d)", p.Segments)
	case p.ExplodeCooldown < 0:
		return fmt.Errorf("explodeCooldown must not be negative (got %d)", p.ExplodeCooldown)
	case p.FocalLength <= 0:
		return fmt.Errorf("focalLength must be positive (got %.1f)", p.FocalLength)
	}
	return nil
}

// Load reads a JSON document and merges it onto Defaults.
func Load(path string) (Parameters, error) {
	p := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read params: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("decode params %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Defaults(), fmt.Errorf("params %s: %w", path, err)
	}
	return p, nil
}

// Save writes the parameters as indented JSON.
func Save(path string, p Parameters) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write params: %w", err)
	}
	return nil
}

// Merge overlays a partial JSON document onto p.
func (p Parameters) Merge(patch []byte) (Parameters, error) {
	next := p
	if err := json.Unmarshal(patch, &next); err != nil {
		return p, fmt.Errorf("decode patch: %w", err)
	}
	if err := next.Validate(); err != nil {
		return p, err
	}
	return next, nil
}
