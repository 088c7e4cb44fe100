package geometry

import "math"

// Generated builds a stand-in pixel layout when no layout file is configured:
// a tower of unit windows flanked by horizontal slabs, centered in design
// space.
func Generated() Layers {
	l := Layers{ViewBox: ViewBox{DesignWidth, DesignHeight}}
	const (
		cols   = 14
		rows   = 9
		unitW  = 150.0
		unitH  = 110.0
		gapX   = 40.0
		floorH = 230.0
	)
	x0 := (DesignWidth - cols*(unitW+gapX) + gapX) / 2
	y0 := DesignHeight - 300 - rows*floorH
	for r := 0; r < rows; r++ {
		y := y0 + float64(r)*floorH
		// stagger the tower like terraced housing
		inset := math.Abs(float64(r)-float64(rows)/2) * 0.5
		for c := int(inset); c < cols-int(inset); c++ {
			l.Units = append(l.Units, Rect{
				X: x0 + float64(c)*(unitW+gapX) + unitW/2,
				Y: y + unitH/2,
				W: unitW, H: unitH,
				Class: ClassUnit,
			})
		}
		slabW := float64(cols-2*int(inset))*(unitW+gapX) + gapX
		l.Slabs = append(l.Slabs, Rect{
			X: DesignWidth / 2,
			Y: y + unitH + 50,
			W: slabW, H: 40,
			Class: ClassSlab,
		})
	}
	return l
}

// Outline turns every rectangle of a layout into a closed path, giving the
// wireframe effect something to trace when no outline drawing is configured.
func Outline(l Layers) Document {
	doc := Document{ViewBox: l.ViewBox}
	for _, r := range l.Pieces() {
		sin, cos := math.Sincos(r.Angle)
		hw, hh := r.W/2, r.H/2
		corners := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
		pts := make([]Point, 0, 4)
		for _, c := range corners {
			pts = append(pts, Point{r.X + c[0]*cos - c[1]*sin, r.Y + c[0]*sin + c[1]*cos})
		}
		doc.Paths = append(doc.Paths, Path{Class: r.Class.String(), Subpaths: []Subpath{{Points: pts, Closed: true}}})
	}
	doc.Paths = append(doc.Paths, l.Sun...)
	return doc
}
