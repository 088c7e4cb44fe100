package render

import "image/color"

var (
	DarkPurple = color.RGBA{13, 2, 33, 255}
	Magenta    = color.RGBA{255, 0, 110, 255}
	Cyan       = color.RGBA{0, 255, 255, 255}
	Orange     = color.RGBA{255, 95, 31, 255}
	Pink       = color.RGBA{255, 100, 200, 255}
	White      = color.RGBA{255, 255, 255, 255}
	Yellow     = color.RGBA{255, 255, 0, 255}
	Amber      = color.RGBA{255, 204, 0, 255}
	SkyBlue    = color.RGBA{0, 204, 255, 255}
	Gold       = color.RGBA{255, 200, 100, 255}
	WarmYellow = color.RGBA{255, 220, 150, 255}
	HotPink    = color.RGBA{255, 50, 150, 255}
	GridCyan   = color.RGBA{0, 255, 255, 150}
	Black      = color.RGBA{0, 0, 0, 255}
)

var (
	synthwavePalette = []color.RGBA{Cyan, Magenta, Orange}
	explosionPalette = []color.RGBA{Cyan, Magenta, Orange, White}
	rocketPalette    = []color.RGBA{White, Yellow}
	burstCyan        = []color.RGBA{Cyan, SkyBlue, White}
	burstMagenta     = []color.RGBA{Magenta, Pink, White}
	burstOrange      = []color.RGBA{Orange, Amber, White}
)

// Palette returns the named color set. Unknown names get synthwave.
func Palette(name string) []color.RGBA {
	switch name {
	case "explosion":
		return explosionPalette
	case "rocket":
		return rocketPalette
	case "burst-cyan":
		return burstCyan
	case "burst-magenta":
		return burstMagenta
	case "burst-orange":
		return burstOrange
	default:
		return synthwavePalette
	}
}

// PaletteNames returns all palette identifiers.
func PaletteNames() []string {
	return []string{"synthwave", "explosion", "rocket", "burst-cyan", "burst-magenta", "burst-orange"}
}

// BurstPalettes lists the firework burst color sets.
func BurstPalettes() [][]color.RGBA {
	return [][]color.RGBA{burstCyan, burstMagenta, burstOrange}
}

// WithAlpha returns c with its opacity replaced.
func WithAlpha(c color.RGBA, a float64) color.RGBA {
	c.A = uint8(clampF(a, 0, 255))
	return c
}

// Lerp mixes two colors; t is clamped to [0,1].
func Lerp(a, b color.RGBA, t float64) color.RGBA {
	t = clampF(t, 0, 1)
	mix := func(x, y uint8) uint8 { return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}

// Brighten scales a color's channels and adds an offset, saturating at 255.
func Brighten(c color.RGBA, k, add float64) color.RGBA {
	ch := func(v uint8) uint8 { return uint8(clampF(float64(v)*k+add, 0, 255)) }
	return color.RGBA{ch(c.R), ch(c.G), ch(c.B), c.A}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// colorRGB builds an opaque color from float channels.
func colorRGB(r, g, b float64) color.RGBA {
	return color.RGBA{uint8(clampF(r, 0, 255)), uint8(clampF(g, 0, 255)), uint8(clampF(b, 0, 255)), 255}
}
