package render

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

// Blend selects how a draw call combines with the framebuffer.
type Blend int

const (
	BlendNormal Blend = iota
	BlendAdd
	BlendDifference
)

// Style carries every draw parameter explicitly. Nothing persists between
// calls.
type Style struct {
	// Color is non-premultiplied; A is the opacity of the shape.
	Color color.RGBA
	// Glow is the halo radius in pixels drawn behind the shape.
	Glow float64
	// GlowColor defaults to Color when zero.
	GlowColor color.RGBA
	Blend     Blend
}

// Fill returns a plain normal-blend style.
func Fill(c color.RGBA) Style { return Style{Color: c} }

// Point is a position in surface pixels.
type Point struct{ X, Y float64 }

// Surface is an opaque RGBA framebuffer with anti-aliased shape drawing.
type Surface struct {
	img  *image.RGBA
	ras  *vector.Rasterizer
	mask *image.Alpha
}

// NewSurface allocates a w x h framebuffer.
func NewSurface(w, h int) *Surface {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Surface{
		img: image.NewRGBA(image.Rect(0, 0, w, h)),
		ras: vector.NewRasterizer(1, 1),
	}
}

// Image returns the backing framebuffer.
func (s *Surface) Image() *image.RGBA { return s.img }

// Width in pixels.
func (s *Surface) Width() int { return s.img.Rect.Dx() }

// Height in pixels.
func (s *Surface) Height() int { return s.img.Rect.Dy() }

// Resize reallocates the framebuffer when the size changes.
func (s *Surface) Resize(w, h int) {
	if w <= 0 || h <= 0 || (w == s.Width() && h == s.Height()) {
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Clear fills the framebuffer with an opaque color.
func (s *Surface) Clear(c color.RGBA) {
	pix := s.img.Pix
	if len(pix) < 4 {
		return
	}
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, 255
	for filled := 4; filled < len(pix); filled *= 2 {
		copy(pix[filled:], pix[:filled])
	}
}

// FillRect fills an axis-aligned rectangle.
func (s *Surface) FillRect(x, y, w, h float64, st Style) {
	if w <= 0 || h <= 0 {
		return
	}
	s.FillPolygon([]Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}, st)
}

// FillRotatedRect fills a w x h rectangle centered on (cx, cy) rotated by angle.
func (s *Surface) FillRotatedRect(cx, cy, w, h, angle float64, st Style) {
	if w <= 0 || h <= 0 {
		return
	}
	sin, cos := math.Sincos(angle)
	hw, hh := w/2, h/2
	corners := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	pts := make([]Point, 4)
	for i, c := range corners {
		pts[i] = Point{cx + c[0]*cos - c[1]*sin, cy + c[0]*sin + c[1]*cos}
	}
	s.FillPolygon(pts, st)
}

// FillCircle fills a circle of radius r.
func (s *Surface) FillCircle(cx, cy, r float64, st Style) {
	if r <= 0 {
		return
	}
	n := int(math.Min(48, math.Max(8, r*2)))
	pts := make([]Point, n)
	for i := range pts {
		a := float64(i) / float64(n) * 2 * math.Pi
		pts[i] = Point{cx + math.Cos(a)*r, cy + math.Sin(a)*r}
	}
	s.FillPolygon(pts, st)
}

// FillPolygon fills a closed polygon, drawing its glow halo first.
func (s *Surface) FillPolygon(pts []Point, st Style) {
	if len(pts) < 3 {
		return
	}
	if st.Glow > 0 {
		s.halo([][]Point{pts}, st)
	}
	s.fill([][]Point{pts}, st.Color, st.Blend)
}

// StrokeLine draws a segment of the given width.
func (s *Surface) StrokeLine(x0, y0, x1, y1, width float64, st Style) {
	s.StrokePolyline([]Point{{x0, y0}, {x1, y1}}, false, width, st)
}

// StrokePolyline strokes connected segments as one shape so overlaps do not
// double the alpha.
func (s *Surface) StrokePolyline(pts []Point, closed bool, width float64, st Style) {
	if len(pts) < 2 || width <= 0 {
		return
	}
	quads := make([][]Point, 0, len(pts))
	hw := width / 2
	add := func(a, b Point) {
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			return
		}
		nx, ny := -dy/l*hw, dx/l*hw
		// extend by half the width so joints close
		ex, ey := dx/l*hw, dy/l*hw
		quads = append(quads, []Point{
			{a.X + nx - ex, a.Y + ny - ey},
			{b.X + nx + ex, b.Y + ny + ey},
			{b.X - nx + ex, b.Y - ny + ey},
			{a.X - nx - ex, a.Y - ny - ey},
		})
	}
	for i := 1; i < len(pts); i++ {
		add(pts[i-1], pts[i])
	}
	if closed && len(pts) > 2 {
		add(pts[len(pts)-1], pts[0])
	}
	if len(quads) == 0 {
		return
	}
	if st.Glow > 0 {
		glow := st
		glow.Glow = 0
		gc := st.GlowColor
		if gc == (color.RGBA{}) {
			gc = st.Color
		}
		for k := 3; k >= 1; k-- {
			w := width + st.Glow*float64(k)/1.5
			gc.A = uint8(float64(gcAlpha(st)) * 0.35 / float64(k))
			glow.Color = gc
			glow.Blend = BlendAdd
			s.StrokePolyline(pts, closed, w, glow)
		}
	}
	s.fill(quads, st.Color, st.Blend)
}

func gcAlpha(st Style) uint8 {
	if st.GlowColor != (color.RGBA{}) {
		return st.GlowColor.A
	}
	return st.Color.A
}

// halo draws three enlarged, faint copies of the shape additively.
func (s *Surface) halo(paths [][]Point, st Style) {
	gc := st.GlowColor
	if gc == (color.RGBA{}) {
		gc = st.Color
	}
	base := float64(gc.A)
	for _, pts := range paths {
		var cx, cy float64
		for _, p := range pts {
			cx += p.X
			cy += p.Y
		}
		cx /= float64(len(pts))
		cy /= float64(len(pts))
		r := 0.0
		for _, p := range pts {
			r += math.Hypot(p.X-cx, p.Y-cy)
		}
		r /= float64(len(pts))
		if r < 0.5 {
			r = 0.5
		}
		for k := 3; k >= 1; k-- {
			f := (r + st.Glow*float64(k)/3) / r
			grown := make([]Point, len(pts))
			for i, p := range pts {
				grown[i] = Point{cx + (p.X-cx)*f, cy + (p.Y-cy)*f}
			}
			c := gc
			c.A = uint8(base * 0.3 / float64(k))
			s.fill([][]Point{grown}, c, BlendAdd)
		}
	}
}

// fill rasterizes the union of paths into a coverage mask over their bounding
// box and composites c through it.
func (s *Surface) fill(paths [][]Point, c color.RGBA, blend Blend) {
	if c.A == 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pts := range paths {
		for _, p := range pts {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}
	if math.IsInf(minX, 0) || math.IsNaN(minX+minY+maxX+maxY) {
		return
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	// the rasterizer clips to its own bounds
	box = box.Intersect(s.img.Rect)
	if box.Empty() {
		return
	}
	w, h := box.Dx(), box.Dy()

	s.ras.Reset(w, h)
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	for _, pts := range paths {
		if len(pts) < 3 {
			continue
		}
		s.ras.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
		for _, p := range pts[1:] {
			s.ras.LineTo(float32(p.X-ox), float32(p.Y-oy))
		}
		s.ras.ClosePath()
	}

	mask := s.scratch(w, h)
	s.ras.Draw(mask, mask.Rect, image.Opaque, image.Point{})
	s.composite(box, mask, c, blend)
}

func (s *Surface) scratch(w, h int) *image.Alpha {
	if s.mask == nil || cap(s.mask.Pix) < w*h {
		s.mask = image.NewAlpha(image.Rect(0, 0, w, h))
		return s.mask
	}
	s.mask.Pix = s.mask.Pix[:w*h]
	clear(s.mask.Pix)
	s.mask.Stride = w
	s.mask.Rect = image.Rect(0, 0, w, h)
	return s.mask
}

func (s *Surface) composite(box image.Rectangle, mask *image.Alpha, c color.RGBA, blend Blend) {
	clip := box.Intersect(s.img.Rect)
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		mrow := (y - box.Min.Y) * mask.Stride
		drow := s.img.PixOffset(clip.Min.X, y)
		for x := clip.Min.X; x < clip.Max.X; x++ {
			cov := mask.Pix[mrow+x-box.Min.X]
			i := drow + (x-clip.Min.X)*4
			if cov == 0 {
				continue
			}
			a := uint32(cov) * uint32(c.A) / 255
			blendPixel(s.img.Pix[i:i+4:i+4], c, a, blend)
		}
	}
}

// blendPixel combines c at alpha a (0..255) into an opaque destination pixel.
func blendPixel(d []uint8, c color.RGBA, a uint32, blend Blend) {
	if a == 0 {
		return
	}
	src := [3]uint32{uint32(c.R), uint32(c.G), uint32(c.B)}
	for k := 0; k < 3; k++ {
		dv := uint32(d[k])
		switch blend {
		case BlendAdd:
			v := dv + src[k]*a/255
			if v > 255 {
				v = 255
			}
			d[k] = uint8(v)
		case BlendDifference:
			diff := src[k] - dv
			if dv > src[k] {
				diff = dv - src[k]
			}
			d[k] = uint8((dv*(255-a) + diff*a) / 255)
		default:
			d[k] = uint8((dv*(255-a) + src[k]*a) / 255)
		}
	}
	d[3] = 255
}

// DrawImage scales the sr region of src into the destination rectangle
// (x, y, w, h) with the given opacity.
func (s *Surface) DrawImage(src image.Image, sr image.Rectangle, x, y, w, h float64, alpha uint8) {
	if w <= 0 || h <= 0 || alpha == 0 || sr.Empty() {
		return
	}
	dr := image.Rect(int(math.Floor(x)), int(math.Floor(y)), int(math.Ceil(x+w)), int(math.Ceil(y+h)))
	if !dr.Overlaps(s.img.Rect) {
		return
	}
	var opts *xdraw.Options
	if alpha < 255 {
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: alpha})}
	}
	xdraw.ApproxBiLinear.Scale(s.img, dr, src, sr, xdraw.Over, opts)
}

// DrawImageCentered draws sr scaled to w x h, rotated by angle around its
// center, which lands on (cx, cy).
func (s *Surface) DrawImageCentered(src image.Image, sr image.Rectangle, cx, cy, w, h, angle float64, alpha uint8) {
	if w <= 0 || h <= 0 || alpha == 0 || sr.Empty() {
		return
	}
	s.transform(src, sr, cx, cy, w/float64(sr.Dx()), h/float64(sr.Dy()), angle, alpha, xdraw.ApproxBiLinear)
}

// transform scales sr by (kx, ky), rotates it by angle and centers it on
// (cx, cy).
func (s *Surface) transform(src image.Image, sr image.Rectangle, cx, cy, kx, ky, angle float64, alpha uint8, q xdraw.Transformer) {
	sin, cos := math.Sincos(angle)
	a, b := cos*kx, -sin*ky
	d, e := sin*kx, cos*ky
	scx := float64(sr.Min.X) + float64(sr.Dx())/2
	scy := float64(sr.Min.Y) + float64(sr.Dy())/2
	m := f64.Aff3{
		a, b, cx - (a*scx + b*scy),
		d, e, cy - (d*scx + e*scy),
	}
	var opts *xdraw.Options
	if alpha < 255 {
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: alpha})}
	}
	q.Transform(s.img, m, src, sr, xdraw.Over, opts)
}

// Blit copies another surface of the same size.
func (s *Surface) Blit(src *Surface) {
	if src.img.Rect != s.img.Rect {
		xdraw.ApproxBiLinear.Scale(s.img, s.img.Rect, src.img, src.img.Rect, xdraw.Src, nil)
		return
	}
	copy(s.img.Pix, src.img.Pix)
}
