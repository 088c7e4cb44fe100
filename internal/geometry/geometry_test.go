package geometry

import (
	"errors"
	"math"
	"strings"
	"testing"
)

const layoutSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 5120 3200">
  <g id="UNITS">
    <rect class="st7" x="100" y="200" width="40" height="20"/>
    <rect class="st7" x="300" y="200" width="40" height="20"/>
  </g>
  <g id="SLABS">
    <rect class="st0" x="1000" y="500" width="10" height="300" transform="translate(10 10) rotate(90)"/>
    <rect class="st0" x="0" y="0" width="50" height="5"/>
  </g>
  <g id="SUN">
    <path class="st3" d="M0 0 L10 0 L10 10 Z"/>
  </g>
</svg>`

func TestParseLayers(t *testing.T) {
	l, err := ParseLayers(strings.NewReader(layoutSVG))
	if err != nil {
		t.Fatalf("ParseLayers: %v", err)
	}
	if l.ViewBox != (ViewBox{5120, 3200}) {
		t.Fatalf("viewbox=%+v", l.ViewBox)
	}
	if len(l.Units) != 2 || len(l.Slabs) != 2 || len(l.Sun) != 1 {
		t.Fatalf("got %d units %d slabs %d sun", len(l.Units), len(l.Slabs), len(l.Sun))
	}
	u := l.Units[0]
	if u.X != 120 || u.Y != 210 || u.W != 40 || u.H != 20 || u.Class != ClassUnit {
		t.Fatalf("unit=%+v", u)
	}
	s := l.Slabs[0]
	if s.W != 300 || s.H != 10 || s.Angle != math.Pi/2 || s.X != 1005 || s.Y != 650 {
		t.Fatalf("rotated slab=%+v", s)
	}
	if l.Slabs[1].Angle != 0 || l.Slabs[1].W != 50 {
		t.Fatalf("plain slab=%+v", l.Slabs[1])
	}
	if got := len(l.Pieces()); got != 4 {
		t.Fatalf("pieces=%d", got)
	}
}

func TestParseLayersWithoutKnownGroups(t *testing.T) {
	_, err := ParseLayers(strings.NewReader(`<svg viewBox="0 0 10 10"><rect x="1"/></svg>`))
	if !errors.Is(err, ErrNoGeometry) {
		t.Fatalf("err=%v want ErrNoGeometry", err)
	}
}

func TestParseLayersRejectsNonSVG(t *testing.T) {
	if _, err := ParseLayers(strings.NewReader(`<html></html>`)); err == nil {
		t.Fatalf("expected error for non-svg root")
	}
}

func TestParsePathDataCommands(t *testing.T) {
	cases := []struct {
		d        string
		subpaths int
		last     Point
		closed   bool
	}{
		{"M0 0 L10 0 L10 10", 1, Point{10, 10}, false},
		{"M0,0 h10 v10 h-10 z", 1, Point{0, 10}, true},
		{"m5 5 10 0 0 10", 1, Point{15, 15}, false},
		{"M0 0L1 1M5 5L6 6", 2, Point{6, 6}, false},
		{"M0 0C0 10 10 10 10 0", 1, Point{10, 0}, false},
		{"M0 0Q5 10 10 0T20 0", 1, Point{20, 0}, false},
		{"M0 0c0 5 5 5 5 0s5-5 5 0", 1, Point{10, 0}, false},
		{"M0-1.5.5 2", 1, Point{0.5, 2}, false},
		{"M0 0A5 5 0 0 1 10 0", 1, Point{10, 0}, false},
	}
	for _, c := range cases {
		subs, err := ParsePathData(c.d)
		if err != nil {
			t.Fatalf("%q: %v", c.d, err)
		}
		if len(subs) != c.subpaths {
			t.Fatalf("%q: %d subpaths want %d", c.d, len(subs), c.subpaths)
		}
		lastSub := subs[len(subs)-1]
		got := lastSub.Points[len(lastSub.Points)-1]
		if math.Abs(got.X-c.last.X) > 1e-9 || math.Abs(got.Y-c.last.Y) > 1e-9 {
			t.Fatalf("%q: last point %+v want %+v", c.d, got, c.last)
		}
		if lastSub.Closed != c.closed {
			t.Fatalf("%q: closed=%v", c.d, lastSub.Closed)
		}
	}
}

func TestParsePathDataCurveIsFlattened(t *testing.T) {
	subs, err := ParsePathData("M0 0C0 10 10 10 10 0")
	if err != nil {
		t.Fatal(err)
	}
	pts := subs[0].Points
	if len(pts) != curveSegments+1 {
		t.Fatalf("points=%d want %d", len(pts), curveSegments+1)
	}
	mid := pts[curveSegments/2]
	if math.Abs(mid.X-5) > 1e-9 || math.Abs(mid.Y-7.5) > 1e-9 {
		t.Fatalf("curve midpoint=%+v want (5,7.5)", mid)
	}
}

func TestParsePathDataErrors(t *testing.T) {
	for _, d := range []string{"10 10", "M10", "M1 1 Lx"} {
		if _, err := ParsePathData(d); err == nil {
			t.Fatalf("%q: expected error", d)
		}
	}
}

func TestParsePathsSkipsBrokenData(t *testing.T) {
	doc, err := ParsePaths(strings.NewReader(`<svg viewBox="0 0 1280 800">
	  <path class="a" d="M0 0 L1 1"/>
	  <path class="b" d="garbage"/>
	  <g><path class="c" d="M2 2 L3 3"/></g>
	</svg>`))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Paths) != 2 || doc.Paths[0].Class != "a" || doc.Paths[1].Class != "c" {
		t.Fatalf("paths=%+v", doc.Paths)
	}
}

func TestGeneratedLayoutFitsDesignSpace(t *testing.T) {
	l := Generated()
	if len(l.Units) == 0 || len(l.Slabs) == 0 {
		t.Fatalf("generated layout is empty")
	}
	for _, r := range l.Pieces() {
		if r.X-r.W/2 < 0 || r.X+r.W/2 > DesignWidth || r.Y-r.H/2 < 0 || r.Y+r.H/2 > DesignHeight {
			t.Fatalf("piece outside design space: %+v", r)
		}
	}
	if got := len(Outline(l).Paths); got != len(l.Pieces()) {
		t.Fatalf("outline paths=%d want %d", got, len(l.Pieces()))
	}
}
