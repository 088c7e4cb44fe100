package geometry

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Design space of the pixel layout.
const (
	DesignWidth  = 5120
	DesignHeight = 3200
)

// Class tells units and slabs apart.
type Class int

const (
	ClassUnit Class = iota
	ClassSlab
)

func (c Class) String() string {
	if c == ClassSlab {
		return "slab"
	}
	return "unit"
}

// Rect is a rectangle centered on (X, Y) in design space, rotated by Angle.
type Rect struct {
	X, Y  float64
	W, H  float64
	Angle float64
	Class Class
}

// ViewBox is the SVG canvas size.
type ViewBox struct{ W, H float64 }

// Layers is the parsed pixel layout.
type Layers struct {
	ViewBox ViewBox
	Units   []Rect
	Slabs   []Rect
	Sun     []Path
}

// Document is a plain list of paths, used for the wireframe outline.
type Document struct {
	ViewBox ViewBox
	Paths   []Path
}

// ErrNoGeometry is returned when a layout file has none of the known layers.
var ErrNoGeometry = errors.New("svg has no UNITS, SLABS or SUN layer")

type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
}

func (n *node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (n *node) float(name string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(n.attr(name), "px")), 64)
	if err != nil {
		return 0
	}
	return v
}

func (n *node) walk(fn func(*node)) {
	fn(n)
	for i := range n.Children {
		n.Children[i].walk(fn)
	}
}

func (n *node) findID(id string) *node {
	var found *node
	n.walk(func(c *node) {
		if found == nil && c.attr("id") == id {
			found = c
		}
	})
	return found
}

func decode(r io.Reader) (*node, error) {
	var root node
	dec := xml.NewDecoder(r)
	dec.Strict = false
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode svg: %w", err)
	}
	if root.XMLName.Local != "svg" {
		return nil, fmt.Errorf("decode svg: root element is %q", root.XMLName.Local)
	}
	return &root, nil
}

func parseViewBox(root *node, fallback ViewBox) ViewBox {
	fields := strings.FieldsFunc(root.attr("viewBox"), func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return fallback
	}
	w, errW := strconv.ParseFloat(fields[2], 64)
	h, errH := strconv.ParseFloat(fields[3], 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return fallback
	}
	return ViewBox{W: w, H: h}
}

// ParseLayers reads the UNITS, SLABS and SUN layers of a pixel layout.
func ParseLayers(r io.Reader) (Layers, error) {
	root, err := decode(r)
	if err != nil {
		return Layers{}, err
	}
	out := Layers{ViewBox: parseViewBox(root, ViewBox{DesignWidth, DesignHeight})}

	units, slabs, sun := root.findID("UNITS"), root.findID("SLABS"), root.findID("SUN")
	if units == nil && slabs == nil && sun == nil {
		return out, ErrNoGeometry
	}
	if units != nil {
		units.walk(func(n *node) {
			if n.XMLName.Local != "rect" {
				return
			}
			w, h := n.float("width"), n.float("height")
			out.Units = append(out.Units, Rect{
				X: n.float("x") + w/2, Y: n.float("y") + h/2,
				W: w, H: h,
				Class: ClassUnit,
			})
		})
	}
	if slabs != nil {
		slabs.walk(func(n *node) {
			if n.XMLName.Local != "rect" {
				return
			}
			w, h := n.float("width"), n.float("height")
			rect := Rect{X: n.float("x") + w/2, Y: n.float("y") + h/2, W: w, H: h, Class: ClassSlab}
			if strings.Contains(n.attr("transform"), "rotate(90)") {
				rect.W, rect.H = h, w
				rect.Angle = math.Pi / 2
			}
			out.Slabs = append(out.Slabs, rect)
		})
	}
	if sun != nil {
		sun.walk(func(n *node) {
			if n.XMLName.Local != "path" {
				return
			}
			subs, err := ParsePathData(n.attr("d"))
			if err != nil || len(subs) == 0 {
				return
			}
			out.Sun = append(out.Sun, Path{Class: n.attr("class"), Subpaths: subs})
		})
	}
	return out, nil
}

// ParsePaths reads every <path d> of an outline drawing, in document order.
// Paths whose data cannot be parsed are skipped.
func ParsePaths(r io.Reader) (Document, error) {
	root, err := decode(r)
	if err != nil {
		return Document{}, err
	}
	doc := Document{ViewBox: parseViewBox(root, ViewBox{1280, 800})}
	root.walk(func(n *node) {
		if n.XMLName.Local != "path" {
			return
		}
		subs, err := ParsePathData(n.attr("d"))
		if err != nil || len(subs) == 0 {
			return
		}
		doc.Paths = append(doc.Paths, Path{Class: n.attr("class"), Subpaths: subs})
	})
	return doc, nil
}

// LoadLayers opens and parses a pixel layout file.
func LoadLayers(path string) (Layers, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layers{}, fmt.Errorf("open layout: %w", err)
	}
	defer f.Close()
	l, err := ParseLayers(f)
	if err != nil {
		return l, fmt.Errorf("parse %s: %w", path, err)
	}
	return l, nil
}

// LoadPaths opens and parses an outline drawing.
func LoadPaths(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open outline: %w", err)
	}
	defer f.Close()
	d, err := ParsePaths(f)
	if err != nil {
		return d, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// Pieces returns units followed by slabs.
func (l Layers) Pieces() []Rect {
	out := make([]Rect, 0, len(l.Units)+len(l.Slabs))
	out = append(out, l.Units...)
	return append(out, l.Slabs...)
}
