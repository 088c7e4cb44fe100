package geometry

import (
	"fmt"
	"math"
	"strconv"
)

// Point is a position in design space.
type Point struct{ X, Y float64 }

// Path is one <path> element flattened into polylines.
type Path struct {
	Class    string
	Subpaths []Subpath
}

// Subpath is a polyline; Closed marks a trailing Z.
type Subpath struct {
	Points []Point
	Closed bool
}

// curveSegments is the number of line segments per flattened curve.
const curveSegments = 12

// ParsePathData flattens SVG path data. Arcs are approximated by a straight
// segment to their end point.
func ParsePathData(d string) ([]Subpath, error) {
	p := pathParser{src: d}
	return p.parse()
}

type pathParser struct {
	src string
	pos int

	subpaths []Subpath
	cur      []Point
	x, y     float64
	startX   float64
	startY   float64
	// last control point for S and T
	ctrlX, ctrlY float64
	lastCmd      byte
}

func (p *pathParser) parse() ([]Subpath, error) {
	var cmd byte
	for {
		p.skipSeparators()
		if p.pos >= len(p.src) {
			break
		}
		c := p.src[p.pos]
		if isCommand(c) {
			cmd = c
			p.pos++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path data: expected command at offset %d", p.pos)
		}
		if err := p.exec(cmd); err != nil {
			return nil, err
		}
		p.lastCmd = cmd
		// an implicit repeat of M is L
		switch cmd {
		case 'M':
			cmd = 'L'
		case 'm':
			cmd = 'l'
		}
	}
	p.flush(false)
	return p.subpaths, nil
}

func isCommand(c byte) bool {
	switch c {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

func (p *pathParser) exec(cmd byte) error {
	rel := cmd >= 'a'
	ox, oy := 0.0, 0.0
	if rel {
		ox, oy = p.x, p.y
	}
	switch cmd {
	case 'M', 'm':
		v, err := p.numbers(2)
		if err != nil {
			return err
		}
		p.flush(false)
		p.x, p.y = ox+v[0], oy+v[1]
		p.startX, p.startY = p.x, p.y
		p.cur = append(p.cur, Point{p.x, p.y})
	case 'L', 'l':
		v, err := p.numbers(2)
		if err != nil {
			return err
		}
		p.lineTo(ox+v[0], oy+v[1])
	case 'H', 'h':
		v, err := p.numbers(1)
		if err != nil {
			return err
		}
		p.lineTo(ox+v[0], p.y)
	case 'V', 'v':
		v, err := p.numbers(1)
		if err != nil {
			return err
		}
		p.lineTo(p.x, oy+v[0])
	case 'C', 'c':
		v, err := p.numbers(6)
		if err != nil {
			return err
		}
		p.cubic(ox+v[0], oy+v[1], ox+v[2], oy+v[3], ox+v[4], oy+v[5])
	case 'S', 's':
		v, err := p.numbers(4)
		if err != nil {
			return err
		}
		c1x, c1y := p.x, p.y
		switch p.lastCmd {
		case 'C', 'c', 'S', 's':
			c1x, c1y = 2*p.x-p.ctrlX, 2*p.y-p.ctrlY
		}
		p.cubic(c1x, c1y, ox+v[0], oy+v[1], ox+v[2], oy+v[3])
	case 'Q', 'q':
		v, err := p.numbers(4)
		if err != nil {
			return err
		}
		p.quad(ox+v[0], oy+v[1], ox+v[2], oy+v[3])
	case 'T', 't':
		v, err := p.numbers(2)
		if err != nil {
			return err
		}
		cx, cy := p.x, p.y
		switch p.lastCmd {
		case 'Q', 'q', 'T', 't':
			cx, cy = 2*p.x-p.ctrlX, 2*p.y-p.ctrlY
		}
		p.quad(cx, cy, ox+v[0], oy+v[1])
	case 'A', 'a':
		v, err := p.numbers(7)
		if err != nil {
			return err
		}
		p.lineTo(ox+v[5], oy+v[6])
	case 'Z', 'z':
		p.x, p.y = p.startX, p.startY
		p.flush(true)
		p.cur = append(p.cur, Point{p.x, p.y})
	}
	return nil
}

func (p *pathParser) lineTo(x, y float64) {
	if len(p.cur) == 0 {
		p.cur = append(p.cur, Point{p.x, p.y})
	}
	p.x, p.y = x, y
	p.cur = append(p.cur, Point{x, y})
}

func (p *pathParser) cubic(c1x, c1y, c2x, c2y, x, y float64) {
	x0, y0 := p.x, p.y
	for i := 1; i <= curveSegments; i++ {
		t := float64(i) / curveSegments
		u := 1 - t
		px := u*u*u*x0 + 3*u*u*t*c1x + 3*u*t*t*c2x + t*t*t*x
		py := u*u*u*y0 + 3*u*u*t*c1y + 3*u*t*t*c2y + t*t*t*y
		p.lineTo(px, py)
	}
	p.ctrlX, p.ctrlY = c2x, c2y
}

func (p *pathParser) quad(cx, cy, x, y float64) {
	x0, y0 := p.x, p.y
	for i := 1; i <= curveSegments; i++ {
		t := float64(i) / curveSegments
		u := 1 - t
		p.lineTo(u*u*x0+2*u*t*cx+t*t*x, u*u*y0+2*u*t*cy+t*t*y)
	}
	p.ctrlX, p.ctrlY = cx, cy
}

// flush ends the current polyline. A lone move-to point is dropped.
func (p *pathParser) flush(closed bool) {
	if len(p.cur) >= 2 {
		p.subpaths = append(p.subpaths, Subpath{Points: p.cur, Closed: closed})
	}
	p.cur = nil
}

func (p *pathParser) skipSeparators() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r', ',':
			p.pos++
		default:
			return
		}
	}
}

func (p *pathParser) numbers(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := p.number()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// number scans one float, honoring the compact forms "1.5.5" and "3-2".
func (p *pathParser) number() (float64, error) {
	p.skipSeparators()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	dot, digits := false, false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c >= '0' && c <= '9':
			digits = true
			p.pos++
		case c == '.' && !dot:
			dot = true
			p.pos++
		case (c == 'e' || c == 'E') && digits:
			p.pos++
			if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
				p.pos++
			}
			for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
				p.pos++
			}
			return p.parseFloat(start)
		default:
			return p.parseFloat(start)
		}
	}
	return p.parseFloat(start)
}

func (p *pathParser) parseFloat(start int) (float64, error) {
	if start == p.pos {
		return 0, fmt.Errorf("path data: expected number at offset %d", start)
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("path data: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("path data: invalid number %q", p.src[start:p.pos])
	}
	return v, nil
}
