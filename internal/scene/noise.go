package scene

import "github.com/aquilax/go-perlin"

// Noise2D yields smooth noise in [0,1].
type Noise2D interface {
	At(x, y float64) float64
}

// Perlin adapts go-perlin to the [0,1] range.
type Perlin struct {
	p *perlin.Perlin
}

// NewPerlin returns seeded three-octave Perlin noise.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{p: perlin.NewPerlin(2, 2, 3, seed)}
}

// At samples the noise field.
func (n *Perlin) At(x, y float64) float64 {
	return clamp01((n.p.Noise2D(x, y) + 1) / 2)
}
