package render

import (
	"image/color"
	"math"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/geometry"
	"github.com/guidoenr/habitateq/internal/scene"
)

const (
	neonLayers = 5
	neonFocal  = 800
	neonDepth  = 300
	// minStroke keeps thin outlines visible after rasterization.
	minStroke = 0.5
)

// Neon strokes a rotating window of outline paths with cycling synthwave
// colors.
type Neon struct {
	doc    geometry.Document
	active []int
	pts    []Point
}

// NewNeon wraps an outline drawing.
func NewNeon(doc geometry.Document) *Neon {
	return &Neon{doc: doc}
}

// Len is the number of available paths.
func (n *Neon) Len() int { return len(n.doc.Paths) }

// Window selects count paths starting at rotation, wrapping around.
func (n *Neon) Window(rotation, count int) []int {
	n.active = n.active[:0]
	total := len(n.doc.Paths)
	if total == 0 {
		return n.active
	}
	for i := 0; i < count; i++ {
		n.active = append(n.active, ((rotation+i)%total+total)%total)
	}
	return n.active
}

// NeonColor cycles cyan to magenta to orange and back as phase goes 0..1.
func NeonColor(phase float64) color.RGBA {
	switch {
	case phase < 0.33:
		return Lerp(Cyan, Magenta, phase/0.33)
	case phase < 0.66:
		return Lerp(Magenta, Orange, (phase-0.33)/0.33)
	default:
		return Lerp(Orange, Cyan, (phase-0.66)/0.34)
	}
}

// Draw strokes the active window on the image layout l, which covers the
// screen the way the photo does.
func (n *Neon) Draw(dst *Surface, l scene.Layout, e analyzer.Energies, frame int) {
	if len(n.active) == 0 || n.doc.ViewBox.W <= 0 {
		return
	}
	bass, _, _ := e.Norm()
	overall := e.Overall()
	scale := l.W / n.doc.ViewBox.W
	f := float64(frame)
	for i, idx := range n.active {
		t := float64(i) / float64(len(n.active))
		c := NeonColor(math.Mod(t+f*0.01, 1))
		intensity := (0.5 + 0.5*math.Sin(float64(i)*0.5+f*0.1)) * (0.5 + overall*0.5)
		n.stroke(dst, n.doc.Paths[idx], l.X, l.Y, scale, (0.8+bass*0.5)*scale, Style{
			Color:     WithAlpha(c, 200*intensity),
			Glow:      (8 + bass*15) * intensity,
			GlowColor: WithAlpha(c, 255*intensity),
		})
	}
}

// Draw3D splits the active window over five depth layers drawn back to
// front. depth scrolls the layers toward the viewer.
func (n *Neon) Draw3D(dst *Surface, l scene.Layout, e analyzer.Energies, frame int, depth float64) {
	if len(n.active) == 0 || n.doc.ViewBox.W <= 0 {
		return
	}
	bass, _, _ := e.Norm()
	overall := e.Overall()
	total := l.W / n.doc.ViewBox.W
	w, h := float64(dst.Width()), float64(dst.Height())
	f := float64(frame)
	per := len(n.active) / neonLayers
	if per == 0 {
		return
	}
	for layer := neonLayers - 1; layer >= 0; layer-- {
		lt := float64(layer) / (neonLayers - 1)
		pf := neonFocal / (neonFocal + lt*neonDepth)
		scale := total * pf
		ox := l.X + (1-pf)*w/2
		oy := l.Y + (1-pf)*h*0.4
		oy -= math.Mod(depth*(1-lt*0.5), 100) * pf

		start := layer * per
		end := min(start+per, len(n.active))
		for i := start; i < end; i++ {
			t := float64(i-start) / float64(per)
			c := NeonColor(math.Mod(t+f*0.01+float64(layer)*0.2, 1))
			intensity := pf * (0.5 + 0.5*math.Sin(float64(i)*0.5+f*0.1)) * (0.5 + overall*0.5)
			n.stroke(dst, n.doc.Paths[n.active[i]], ox, oy, scale, (0.8+bass*0.5)*pf*scale, Style{
				Color:     WithAlpha(c, 200*intensity*pf),
				Glow:      (8 + bass*15) * pf * intensity,
				GlowColor: WithAlpha(c, 255*intensity),
			})
		}
	}
}

func (n *Neon) stroke(dst *Surface, p geometry.Path, ox, oy, scale, width float64, st Style) {
	width = math.Max(width, minStroke)
	for _, sp := range p.Subpaths {
		n.pts = n.pts[:0]
		for _, q := range sp.Points {
			n.pts = append(n.pts, Point{ox + q.X*scale, oy + q.Y*scale})
		}
		dst.StrokePolyline(n.pts, sp.Closed, width, st)
	}
}
