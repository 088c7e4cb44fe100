package render

import (
	"image"
	"image/color"
	"math"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/params"
)

const (
	// tunnelUnit is the number of screen pixels per ring buffer pixel.
	tunnelUnit = 2
	// resetSpeed is the zoom speed right after the tunnel is switched on.
	resetSpeed = 0.02
)

// Tunnel zooms rings of kaleidoscope wedges out of the center.
type Tunnel struct {
	Speed float64
	Phase float64

	p     params.Parameters
	table polarTable
	rings *image.RGBA
}

// NewTunnel returns a tunnel at rest.
func NewTunnel(p params.Parameters) *Tunnel {
	return &Tunnel{Speed: resetSpeed, p: p}
}

// Reset restores the initial zoom speed.
func (t *Tunnel) Reset() {
	t.Speed = resetSpeed
}

// Advance eases the zoom speed toward the bass target, spins the wedges and
// moves the ring phase.
func (t *Tunnel) Advance(e analyzer.Energies, frame int, k *Kaleidoscope) {
	bass, mid, treble := e.Norm()
	target := t.p.TunnelBaseSpeed + bass*t.p.TunnelBassSpeed
	t.Speed += (target - t.Speed) * 0.1

	spin := 0.001 + bass*0.008 + mid*0.004 + treble*0.002
	wobble := 1 + math.Sin(float64(frame)*0.05)*treble*0.3
	k.Advance(spin * wobble)

	t.Phase = math.Mod(t.Phase+t.Speed, 1)
	if t.Phase < 0 {
		t.Phase += 1
	}
}

// RingScale is the exponential zoom of a ring at phase in [0,1).
func RingScale(phase, minScale, maxScale float64) float64 {
	return minScale * math.Pow(maxScale/minScale, phase)
}

// RingAlpha fades rings in near the center and out near the edge.
func RingAlpha(phase float64) float64 {
	return smoothstep(0, 0.3, phase) * smoothstep(1, 0.7, phase)
}

func smoothstep(e0, e1, x float64) float64 {
	t := clampF((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

// Draw composes the wedges of src once, then layers the rings from the last
// to the first onto dst.
func (t *Tunnel) Draw(dst, src *Surface, k *Kaleidoscope, mid float64) {
	w, h := dst.Width(), dst.Height()
	radius := float64(max(w, h))
	side := max(w, h)
	t.table.build(side, side, tunnelUnit)
	if t.rings == nil || t.rings.Rect.Dx() != side {
		t.rings = image.NewRGBA(image.Rect(0, 0, side, side))
	}
	k.compose(t.rings, &t.table, src, 0, color.RGBA{}, radius)

	n := t.p.TunnelRings
	if n <= 0 {
		return
	}
	spiral := t.p.TunnelSpiral + mid*t.p.TunnelMidSpiral
	for ring := n - 1; ring >= 0; ring-- {
		phase := math.Mod(t.Phase+float64(ring)/float64(n), 1)
		alpha := RingAlpha(phase) * 255
		if alpha < 1 {
			continue
		}
		scale := RingScale(phase, t.p.TunnelMinScale, t.p.TunnelMaxScale)
		t.blitRing(dst.img, scale, k.Rotation+phase*spiral, uint32(alpha), radius)
	}
}

// blitRing draws the ring buffer centered on dst, scaled by scale and rotated
// by angle, using nearest sampling.
func (t *Tunnel) blitRing(dst *image.RGBA, scale, angle float64, alpha uint32, radius float64) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	cx, cy := float64(w)/2, float64(h)/2
	reach := radius * scale
	box := image.Rect(int(cx-reach), int(cy-reach), int(cx+reach)+1, int(cy+reach)+1).Intersect(dst.Rect)
	if box.Empty() {
		return
	}
	// inverse of rotate-then-scale, expressed in ring buffer pixels
	sin, cos := math.Sincos(-angle)
	k := 1 / (scale * tunnelUnit)
	side := t.rings.Rect.Dx()
	half := float64(side) / 2
	src := t.rings.Pix
	stride := t.rings.Stride
	for y := box.Min.Y; y < box.Max.Y; y++ {
		dy := float64(y) + 0.5 - cy
		row := dst.PixOffset(box.Min.X, y)
		for x := box.Min.X; x < box.Max.X; x++ {
			dx := float64(x) + 0.5 - cx
			u := int(math.Floor((dx*cos-dy*sin)*k + half))
			v := int(math.Floor((dx*sin+dy*cos)*k + half))
			if u < 0 || v < 0 || u >= side || v >= side {
				continue
			}
			so := v*stride + u*4
			if src[so+3] == 0 {
				continue
			}
			o := row + (x-box.Min.X)*4
			d := dst.Pix[o : o+4 : o+4]
			for c := 0; c < 3; c++ {
				d[c] = uint8((uint32(d[c])*(255-alpha) + uint32(src[so+c])*alpha) / 255)
			}
			d[3] = 255
		}
	}
}
