package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Picture is a decoded source image with clamped pixel access.
type Picture struct {
	img *image.RGBA
}

// NewPicture copies img into an RGBA backing store.
func NewPicture(img image.Image) *Picture {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return &Picture{img: rgba}
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return &Picture{img: rgba}
}

// LoadPicture decodes a png, jpeg, webp or bmp file.
func LoadPicture(path string) (*Picture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return NewPicture(img), nil
}

// Placeholder renders a synthwave gradient with a dark skyline, used when the
// source image cannot be loaded.
func Placeholder(w, h int) *Picture {
	if w <= 0 {
		w = 512
	}
	if h <= 0 {
		h = 320
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	top := color.RGBA{R: 13, G: 2, B: 33, A: 255}
	bottom := color.RGBA{R: 255, G: 0, B: 110, A: 255}
	for y := 0; y < h; y++ {
		t := float64(y) / float64(max(1, h-1))
		row := lerpRGBA(top, bottom, t*t)
		for x := 0; x < w; x++ {
			// blocky towers
			tower := math.Abs(math.Sin(float64(x/(w/16+1))*1.7)) * 0.6
			if float64(y)/float64(h) > 1-tower {
				c := row
				if (x/4+y/6)%5 == 0 {
					c = color.RGBA{R: 255, G: 200, B: 80, A: 255}
				} else {
					c = color.RGBA{R: row.R / 4, G: row.G / 4, B: row.B / 3, A: 255}
				}
				img.SetRGBA(x, y, c)
				continue
			}
			img.SetRGBA(x, y, row)
		}
	}
	return &Picture{img: img}
}

// Image returns the backing image.
func (p *Picture) Image() *image.RGBA { return p.img }

// Size returns the width and height in pixels.
func (p *Picture) Size() (int, int) {
	return p.img.Rect.Dx(), p.img.Rect.Dy()
}

// At returns the pixel at (x, y), clamped to the image bounds.
func (p *Picture) At(x, y int) color.RGBA {
	w, h := p.Size()
	if w == 0 || h == 0 {
		return color.RGBA{}
	}
	x = clampInt(x, 0, w-1)
	y = clampInt(y, 0, h-1)
	return p.img.RGBAAt(x, y)
}

// Sample returns the pixel at fractional image coordinates, clamped.
func (p *Picture) Sample(x, y float64) color.RGBA {
	return p.At(int(math.Floor(x)), int(math.Floor(y)))
}

// Brightness is the HSB brightness (0..100) of c.
func Brightness(c color.RGBA) float64 {
	m := c.R
	if c.G > m {
		m = c.G
	}
	if c.B > m {
		m = c.B
	}
	return float64(m) / 255 * 100
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*t),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*t),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*t),
		A: 255,
	}
}
