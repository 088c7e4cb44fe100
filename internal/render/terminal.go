package render

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrQuit is returned by a presenter when the user closed its window.
var ErrQuit = errors.New("renderer quit requested")

// Presenter shows finished framebuffers.
type Presenter interface {
	Present(img *image.RGBA, status string) error
	Close() error
}

// Resizer is implemented by presenters whose output can change size.
// Resized reports each new size once.
type Resizer interface {
	Resized() (width, height int, ok bool)
}

// Frame contains the encoded terminal lines and optional status text.
type Frame struct {
	Lines  []string
	Status string
}

const halfBlock = '▀'

var (
	resetANSI       = "\x1b[0m"
	precomputedANSI [256]string
	precomputedBG   [256]string
)

func init() {
	for i := range precomputedANSI {
		precomputedANSI[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
		precomputedBG[i] = "\x1b[48;5;" + strconv.Itoa(i) + "m"
	}
}

// Terminal draws the framebuffer with 256-color half blocks: every cell
// shows two vertically stacked pixels.
type Terminal struct {
	out        io.Writer
	cols, rows int
	status     bool
	screen     strings.Builder
}

// NewTerminal creates a presenter writing to out. rows excludes the status
// line.
func NewTerminal(out io.Writer, cols, rows int, status bool) (*Terminal, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("invalid dimensions: cols=%d rows=%d", cols, rows)
	}
	return &Terminal{out: out, cols: cols, rows: rows, status: status}, nil
}

// Resize updates the cell grid.
func (t *Terminal) Resize(cols, rows int) {
	if cols > 0 {
		t.cols = cols
	}
	if rows > 0 {
		t.rows = rows
	}
}

// Size returns the cell grid.
func (t *Terminal) Size() (cols, rows int) { return t.cols, t.rows }

// Encode samples img onto the cell grid.
func (t *Terminal) Encode(img *image.RGBA) Frame {
	lines := make([]string, t.rows)
	b := img.Bounds()
	sx := float64(b.Dx()) / float64(t.cols)
	sy := float64(b.Dy()) / float64(t.rows*2)

	var builder strings.Builder
	for y := 0; y < t.rows; y++ {
		builder.Reset()
		builder.Grow(t.cols * 12)
		lastFG, lastBG := -1, -1
		top := b.Min.Y + int((float64(2*y)+0.5)*sy)
		bottom := b.Min.Y + int((float64(2*y+1)+0.5)*sy)
		for x := 0; x < t.cols; x++ {
			px := b.Min.X + int((float64(x)+0.5)*sx)
			fg := pixelANSI(img, px, top)
			bg := pixelANSI(img, px, bottom)
			if fg != lastFG {
				builder.WriteString(colorCode(fg))
				lastFG = fg
			}
			if bg != lastBG {
				builder.WriteString(precomputedBG[bg])
				lastBG = bg
			}
			builder.WriteRune(halfBlock)
		}
		builder.WriteString(resetANSI)
		lines[y] = builder.String()
	}
	return Frame{Lines: lines}
}

// Present moves the cursor home and redraws every line.
func (t *Terminal) Present(img *image.RGBA, status string) error {
	frame := t.Encode(img)
	frame.Status = status

	s := &t.screen
	s.Reset()
	s.WriteString("\x1b[H")
	for _, line := range frame.Lines {
		s.WriteString(line)
		s.WriteByte('\n')
	}
	if t.status {
		s.WriteString(statusBar(frame.Status, t.cols))
	}
	_, err := io.WriteString(t.out, s.String())
	return err
}

// Close is a no-op; the caller restores the terminal state.
func (t *Terminal) Close() error { return nil }

func pixelANSI(img *image.RGBA, x, y int) int {
	if !(image.Point{x, y}.In(img.Rect)) {
		return 16
	}
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+3 : i+3]
	return rgbToANSI(float64(p[0])/255, float64(p[1])/255, float64(p[2])/255)
}

func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	if len(text) >= width {
		return text[:width]
	}
	return text + strings.Repeat(" ", width-len(text))
}

func colorCode(index int) string {
	if index < 0 {
		index = 0
	} else if index >= len(precomputedANSI) {
		index = len(precomputedANSI) - 1
	}
	return precomputedANSI[index]
}

func rgbToANSI(r, g, b float64) int {
	r = clamp01(r)
	g = clamp01(g)
	b = clamp01(b)

	// Grayscale palette for low saturation/contrast
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		gray := int(clampF(math.Round(r*23), 0, 23))
		return 232 + gray
	}

	ri := int(clampF(r*5+0.5, 0, 5))
	gi := int(clampF(g*5+0.5, 0, 5))
	bi := int(clampF(b*5+0.5, 0, 5))

	return 16 + 36*ri + 6*gi + bi
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
