package physics

import (
	"image/color"
	"math"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/geometry"
	"github.com/guidoenr/habitateq/internal/render"
	"github.com/guidoenr/habitateq/internal/scene"
)

// darkThreshold is the mean channel value below which a sample is too dark
// to show.
const darkThreshold = 30

// PieceColor samples the picture at the piece's design position. Dark
// samples fall back to the class color, which shifts with the music.
func PieceColor(pic *scene.Picture, pc *Piece, bass, treble float64) color.RGBA {
	var c color.RGBA
	if pic != nil {
		w, h := pic.Size()
		ix := math.Floor(pc.DesignX * float64(w) / geometry.DesignWidth)
		iy := math.Floor(pc.DesignY * float64(h) / geometry.DesignHeight)
		c = pic.Sample(ix, iy)
	}
	mean := (float64(c.R) + float64(c.G) + float64(c.B)) / 3
	if pic == nil || mean < darkThreshold {
		if pc.Class == geometry.ClassUnit {
			return color.RGBA{255, uint8(200 - bass*100), uint8(bass * 50), 255}
		}
		return color.RGBA{uint8(treble * 200), uint8(255 - treble*100), 255, 255}
	}
	return render.Brighten(c, 1.2, 0)
}

// Draw renders every piece as a glowing rotated rectangle. Faster pieces
// glow wider.
func (b *Bridge) Draw(dst *render.Surface, pic *scene.Picture, e analyzer.Energies) {
	if b.state == Uninitialized {
		return
	}
	bass, _, treble := e.Norm()
	scale := math.Min(b.width, b.height) / 800
	for _, pc := range b.pieces {
		c := PieceColor(pic, pc, bass, treble)
		x, y := pc.Body.Position()
		vx, vy := pc.Body.Velocity()
		glow := math.Min(20+math.Hypot(vx, vy)*5, 40) * scale
		dst.FillRotatedRect(x, y, pc.W, pc.H, pc.Body.Angle(), render.Style{
			Color:     render.WithAlpha(c, 220),
			Glow:      glow,
			GlowColor: render.WithAlpha(c, 204),
		})
	}
}
