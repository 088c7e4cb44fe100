package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Align anchors text horizontally.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

var face = basicfont.Face7x13

// TextWidth returns the advance of s in unscaled pixels.
func TextWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// LineHeight is the unscaled line height.
func LineHeight() int { return face.Metrics().Height.Ceil() }

// Text draws s with its top edge at y. Scales above 1 enlarge the glyphs.
func (s *Surface) Text(x, y float64, str string, scale float64, c color.RGBA, align Align) {
	if str == "" || c.A == 0 {
		return
	}
	if scale <= 0 {
		scale = 1
	}
	w := TextWidth(str)
	h := LineHeight()
	switch align {
	case AlignCenter:
		x -= float64(w) * scale / 2
	case AlignRight:
		x -= float64(w) * scale
	}

	if scale == 1 {
		d := &font.Drawer{
			Dst:  s.img,
			Src:  image.NewUniform(color.NRGBA{c.R, c.G, c.B, c.A}),
			Face: face,
			Dot:  fixed.P(int(x), int(y)+face.Metrics().Ascent.Ceil()),
		}
		d.DrawString(str)
		return
	}

	tile := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(tile, tile.Rect, image.Transparent, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(color.RGBA{c.R, c.G, c.B, 255}),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(str)
	s.DrawImage(tile, tile.Rect, x, y, float64(w)*scale, float64(h)*scale, c.A)
}
