package scene

import "math"

// Layout places an image on a screen: screen = offset + image*scale.
type Layout struct {
	X, Y  float64
	W, H  float64
	Scale float64
}

// Cover scales the image to fill the screen, cropping overflow.
func Cover(imgW, imgH, screenW, screenH int) Layout {
	if imgW <= 0 || imgH <= 0 {
		return Layout{Scale: 1}
	}
	s := math.Max(float64(screenW)/float64(imgW), float64(screenH)/float64(imgH))
	return place(imgW, imgH, screenW, screenH, s)
}

// Fit scales the image to fit entirely inside the screen.
func Fit(imgW, imgH, screenW, screenH int) Layout {
	if imgW <= 0 || imgH <= 0 {
		return Layout{Scale: 1}
	}
	s := math.Min(float64(screenW)/float64(imgW), float64(screenH)/float64(imgH))
	return place(imgW, imgH, screenW, screenH, s)
}

func place(imgW, imgH, screenW, screenH int, s float64) Layout {
	w := float64(imgW) * s
	h := float64(imgH) * s
	return Layout{
		X:     (float64(screenW) - w) / 2,
		Y:     (float64(screenH) - h) / 2,
		W:     w,
		H:     h,
		Scale: s,
	}
}

// ToScreen maps image coordinates to screen coordinates.
func (l Layout) ToScreen(ix, iy float64) (float64, float64) {
	return l.X + ix*l.Scale, l.Y + iy*l.Scale
}

// ToImage maps screen coordinates back to image coordinates.
func (l Layout) ToImage(sx, sy float64) (float64, float64) {
	if l.Scale == 0 {
		return 0, 0
	}
	return (sx - l.X) / l.Scale, (sy - l.Y) / l.Scale
}
