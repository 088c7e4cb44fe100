package render

import (
	"math"
	"math/rand"
)

const (
	fadeSteps      = 60
	gridRows       = 20
	gridCols       = 40
	gridScroll     = 3
	gridSpread     = 1.8
	horizonSqueeze = 0.1
)

// BottomFade darkens everything below horizonY with a gradient that turns
// fully opaque at the bottom edge.
func BottomFade(dst *Surface, horizonY float64) {
	h := float64(dst.Height())
	span := h - horizonY
	if span <= 0 {
		return
	}
	w := float64(dst.Width())
	step := span / fadeSteps
	for i := 0; i < fadeSteps; i++ {
		t := float64(i) / fadeSteps
		alpha := mapRange(t, 0, 1, 180, 255)
		dst.FillRect(0, horizonY+t*span, w, step+1, Fill(WithAlpha(DarkPurple, alpha)))
	}
}

// Grid draws the scrolling neon floor from groundY down. bass is 0..255.
func Grid(dst *Surface, bass, groundY float64, frame int) {
	w, h := float64(dst.Width()), float64(dst.Height())
	depth := h - groundY
	if depth <= 0 {
		return
	}
	pulse := mapRange(bass, 0, 255, 0.7, 1.3)
	glow := mapRange(bass, 0, 255, 8, 25)
	scroll := math.Mod(float64(frame*gridScroll), depth/gridRows)

	for i := 0; i <= gridRows+1; i++ {
		t := float64(i) / gridRows
		y := groundY + math.Pow(t, 1.8)*depth + scroll*math.Pow(t, 1.5)
		if y > h || y < groundY {
			continue
		}
		alpha := mapRange(y, groundY, h, 30, 255)
		weight := mapRange(y, groundY, h, 0.5, 2.5)
		c := Cyan
		if i%4 == 0 {
			c = Magenta
		}
		dst.StrokeLine(-w/2, y, w*1.5, y, weight, Style{
			Color:     WithAlpha(c, alpha*pulse),
			Glow:      mapRange(y, groundY, h, glow*0.3, glow),
			GlowColor: WithAlpha(c, 204),
		})
	}

	total := w * gridSpread
	spacing := total / gridCols
	cx := w / 2
	for i := 0; i <= gridCols; i++ {
		xBottom := (w-total)/2 + float64(i)*spacing
		off := xBottom - cx
		dist := math.Abs(off) / (total / 2)
		alpha := mapRange(dist, 0, 1, 255, 80)
		c, k := Cyan, 0.7
		if i%5 == 0 {
			c, k = Magenta, 0.8
		}
		dst.StrokeLine(cx+off*horizonSqueeze, groundY, xBottom, h, mapRange(dist, 0, 1, 1.5, 0.8), Style{
			Color:     WithAlpha(c, alpha*pulse*k),
			Glow:      mapRange(dist, 0, 1, glow, glow*0.4),
			GlowColor: WithAlpha(c, 178),
		})
	}
}

// Glitch draws 1 to 5 full-width difference bars for bass between the
// glitch threshold and 255.
func Glitch(dst *Surface, bass float64, rng *rand.Rand) {
	n := int(math.Floor(mapRange(bass, 200, 255, 1, 5)))
	c := WithAlpha(colorRGB(rng.Float64()*255, 0, rng.Float64()*255), mapRange(bass, 200, 255, 10, 50))
	w := float64(dst.Width())
	for i := 0; i < n; i++ {
		y := rng.Float64() * float64(dst.Height())
		bh := 5 + rng.Float64()*25
		dst.FillRect(0, y, w, bh, Style{Color: c, Blend: BlendDifference})
	}
}

// mapRange maps v linearly from [a0,a1] to [b0,b1] without clamping.
func mapRange(v, a0, a1, b0, b1 float64) float64 {
	if a1 == a0 {
		return b0
	}
	return b0 + (v-a0)*(b1-b0)/(a1-a0)
}
