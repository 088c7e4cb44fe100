package render

import (
	"image/color"

	"github.com/charmbracelet/harmonica"

	"github.com/guidoenr/habitateq/internal/analyzer"
)

const (
	meterWidth  = 150
	meterHeight = 10
)

var meterBands = [3]struct {
	label string
	color color.RGBA
}{
	{"BASS", Magenta},
	{"MID", Orange},
	{"HIGH", Cyan},
}

// LevelMeter shows the three band energies as spring-smoothed bars.
type LevelMeter struct {
	spring harmonica.Spring
	pos    [3]float64
	vel    [3]float64
}

// NewLevelMeter returns a meter whose bars follow the energies with the given
// spring frequency and damping ratio at fps updates per second.
func NewLevelMeter(fps int, frequency, damping float64) *LevelMeter {
	if fps <= 0 {
		fps = 30
	}
	return &LevelMeter{spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)}
}

// Update moves each bar toward its band energy.
func (m *LevelMeter) Update(e analyzer.Energies) {
	target := [3]float64{e.Bass, e.Mid, e.Treble}
	for i := range m.pos {
		m.pos[i], m.vel[i] = m.spring.Update(m.pos[i], m.vel[i], target[i])
	}
}

// Levels returns the smoothed energies on the 0..255 scale.
func (m *LevelMeter) Levels() [3]float64 {
	var out [3]float64
	for i, v := range m.pos {
		out[i] = clampF(v, 0, 255)
	}
	return out
}

// Draw places the meter in the lower left corner. ui scales every length.
func (m *LevelMeter) Draw(dst *Surface, ui float64) {
	x := 20 * ui
	y := float64(dst.Height()) - 80*ui
	levels := m.Levels()
	for i, b := range meterBands {
		row := y + float64(i)*20*ui
		dst.FillRect(x+50*ui, row, mapRange(levels[i], 0, 255, 0, meterWidth)*ui, meterHeight*ui, Fill(b.color))
		dst.Text(x, row+(meterHeight*ui-float64(LineHeight())*ui)/2, b.label, ui, White, AlignLeft)
	}
}
