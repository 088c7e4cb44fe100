package render

import (
	"image/color"
	"math"
)

// Label is one line of the indicator stack.
type Label struct {
	Text  string
	Color color.RGBA
	// Small draws the line at the secondary text size.
	Small bool
}

// UIScale sizes overlays relative to an 800 pixel reference.
func UIScale(w, h int) float64 {
	return clampF(math.Min(float64(w), float64(h))/800, 0.4, 3)
}

// Indicators stacks labels in the top right corner, 20 units apart.
func Indicators(dst *Surface, labels []Label, ui float64) {
	x := float64(dst.Width()) - 20*ui
	for i, l := range labels {
		scale := ui
		if l.Small {
			scale *= 0.85
		}
		dst.Text(x, (20+float64(i)*20)*ui, l.Text, scale, l.Color, AlignRight)
	}
}

// Hint writes a line of help text in the bottom left corner.
func Hint(dst *Surface, text string, ui float64) {
	y := float64(dst.Height()) - 20*ui - float64(LineHeight())*ui
	dst.Text(20*ui, y, text, ui*0.85, color.RGBA{200, 200, 200, 255}, AlignLeft)
}

// ModeOverlay shows the selected preset in a centered box.
func ModeOverlay(dst *Surface, name string, ui float64) {
	cx, cy := float64(dst.Width())/2, float64(dst.Height())/2
	bw, bh := 400*ui, 80*ui
	dst.FillRect(cx-bw/2, cy-bh/2, bw, bh, Fill(color.RGBA{0, 0, 0, 150}))

	title := ui * 2
	// shrink long names to fit the box
	if w := float64(TextWidth(name)) * title; w > bw*0.9 {
		title *= bw * 0.9 / w
	}
	dst.Text(cx, cy-5*ui-float64(LineHeight())*title/2, name, title, Cyan, AlignCenter)
	dst.Text(cx, cy+25*ui-float64(LineHeight())*ui/2, "Tab to cycle modes - Backspace to reset", ui, color.RGBA{255, 255, 255, 180}, AlignCenter)
}

// StartPrompt pulses a waiting message near the bottom edge.
func StartPrompt(dst *Surface, frame int, ui float64) {
	cx := float64(dst.Width()) / 2
	h := float64(dst.Height())
	pulse := math.Sin(float64(frame)*0.05)*0.3 + 0.7
	dst.Text(cx, h-80*ui-float64(LineHeight())*ui, "WAITING FOR AUDIO", ui*2, WithAlpha(Cyan, 255*pulse), AlignCenter)
	dst.Text(cx, h-50*ui-float64(LineHeight())*ui/2, "Play a file with -audio-file or use the microphone", ui, color.RGBA{255, 255, 255, 200}, AlignCenter)
}
