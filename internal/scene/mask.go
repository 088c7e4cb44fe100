package scene

import "math"

// Mask gates floor-band cells by a grayscale silhouette. A nil Mask allows
// every cell.
type Mask struct {
	pic       *Picture
	threshold uint8
}

// NewMask wraps a decoded silhouette. Pixels whose red channel is above
// threshold are drawable.
func NewMask(pic *Picture, threshold uint8) *Mask {
	if pic == nil {
		return nil
	}
	return &Mask{pic: pic, threshold: threshold}
}

// WithThreshold returns the same silhouette gated at threshold.
func (m *Mask) WithThreshold(threshold uint8) *Mask {
	if m == nil {
		return nil
	}
	return &Mask{pic: m.pic, threshold: threshold}
}

// Allows reports whether the cell centered at (u, v), given in normalized
// source-image coordinates, may be drawn. Samples outside the mask never draw.
func (m *Mask) Allows(u, v float64) bool {
	if m == nil {
		return true
	}
	w, h := m.pic.Size()
	x := int(math.Floor(u * float64(w)))
	y := int(math.Floor(v * float64(h)))
	if x < 0 || x >= w || y < 0 || y >= h {
		return false
	}
	return m.pic.img.RGBAAt(x, y).R > m.threshold
}
