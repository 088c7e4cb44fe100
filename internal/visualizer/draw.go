package visualizer

import (
	"fmt"
	"image/color"
	"math"

	"github.com/guidoenr/habitateq/internal/analyzer"
	"github.com/guidoenr/habitateq/internal/mode"
	"github.com/guidoenr/habitateq/internal/particles"
	"github.com/guidoenr/habitateq/internal/physics"
	"github.com/guidoenr/habitateq/internal/render"
	"github.com/guidoenr/habitateq/internal/scene"
)

const (
	// horizon is where the grid floor starts, as a fraction of the height.
	horizon = 0.8
	// depthWrap loops the 3D scroll distance.
	depthWrap = 500
	// sparkDrop offsets sparks below the column top in reference pixels.
	sparkDrop = 100
)

var (
	hotGlow  = color.RGBA{255, 0, 110, 204}
	coolGlow = color.RGBA{0, 255, 255, 128}
)

// drawEffects runs every non-physics frame: visualization, kaleidoscope or
// tunnel, neon overlay, particles and the HUD.
func (s *State) drawEffects(st mode.State, e analyzer.Energies, ui float64) {
	bass, mid, _ := e.Norm()
	if st.Kaleidoscope {
		s.buffer.Clear(render.DarkPurple)
		s.target.Clear(render.DarkPurple)
		if st.Tunnel {
			// the tunnel has no vertical flow source
			if st.ThreeD {
				s.drawColumns3D(s.buffer, e, false)
			} else {
				s.drawColumns(s.buffer, e, false)
			}
			s.tunnel.Advance(e, s.frame, s.kaleido)
			s.tunnel.Draw(s.target, s.buffer, s.kaleido, mid)
		} else {
			switch {
			case st.VerticalFlow:
				s.drawFloors(s.buffer, e)
			case st.ThreeD:
				s.drawColumns3D(s.buffer, e, false)
			default:
				s.drawColumns(s.buffer, e, false)
			}
			s.kaleido.Advance(s.p.KaleidoSpin + s.p.KaleidoBassSpin*bass)
			s.kaleido.Compose(s.target, s.buffer, render.DarkPurple)
		}
	} else {
		s.target.Clear(render.DarkPurple)
		switch {
		case st.VerticalFlow:
			s.drawFloors(s.target, e)
			s.drawNeon(st, e, false)
		case st.ThreeD:
			s.drawColumns3D(s.target, e, true)
			s.drawNeon(st, e, true)
		default:
			s.drawColumns(s.target, e, true)
			s.drawNeon(st, e, false)
		}
	}

	s.parts.Update(particles.Input{
		Energies:     e,
		Frame:        s.frame,
		Layout:       s.cover(),
		Picture:      s.pic,
		Grid:         s.grid,
		Kaleidoscope: st.Kaleidoscope,
		Segments:     st.Segments,
		Rotation:     s.kaleido.Rotation,
	})
	s.parts.Draw(s.target)

	if !s.playing {
		render.StartPrompt(s.target, s.frame, ui)
	}
	s.meter.Draw(s.target, ui)
	render.Indicators(s.target, indicatorLabels(st), ui)
	if st.Overlay > 0 {
		render.ModeOverlay(s.target, st.PresetName(), ui)
	}
}

func (s *State) cover() scene.Layout {
	w, h := s.pic.Size()
	return scene.Cover(w, h, s.cfg.Width, s.cfg.Height)
}

// drawColumns draws the equalizer strips flat. direct is false when dst is
// the kaleidoscope source, which never throws sparks.
func (s *State) drawColumns(dst *render.Surface, e analyzer.Energies, direct bool) {
	s.grid.Update(e, s.frame)
	l := s.cover()
	img := s.pic.Image()
	ui := render.UIScale(s.cfg.Width, s.cfg.Height)
	for _, strip := range s.grid.Strips() {
		x, y := l.ToScreen(float64(strip.Slice.Min.X), strip.CurrentY)
		w := float64(strip.Slice.Dx()) * l.Scale
		h := float64(strip.Slice.Dy()) * l.Scale
		energy := strip.Energy

		if energy > s.p.ColumnGlowAt {
			dst.FillRect(x, y, w, h, render.Style{
				Glow:      mapRange(energy, s.p.ColumnGlowAt, 1, 0, 30) * ui,
				GlowColor: s.glowColor(energy, 1),
			})
		}
		dst.DrawImage(img, strip.Slice, x, y, w, h, 255)
		if energy > s.p.ColumnOverlayFrom {
			dst.FillRect(x, y, w, h, render.Style{
				Color: render.WithAlpha(render.Cyan, mapRange(energy, s.p.ColumnOverlayFrom, 1, 0, 60)),
				Blend: render.BlendAdd,
			})
		}
		if direct && s.spark(energy) {
			s.parts.SpawnSpark(x+w/2, y+sparkDrop*ui, energy)
		}
	}
	s.finishColumns(dst, e, direct)
}

// drawColumns3D pushes the strips into depth and draws them back to front
// around a vanishing point on the horizon.
func (s *State) drawColumns3D(dst *render.Surface, e analyzer.Energies, direct bool) {
	bass, _, _ := e.Norm()
	s.depth += 2 + bass*5
	if s.depth > depthWrap {
		s.depth = 0
	}
	s.grid.Update(e, s.frame)
	s.grid.UpdateDepth(e, s.frame)

	l := s.cover()
	img := s.pic.Image()
	_, imgH := s.pic.Size()
	ui := render.UIScale(s.cfg.Width, s.cfg.Height)
	vx := float64(s.cfg.Width) / 2
	vy := float64(s.cfg.Height) * horizon
	time := float64(s.frame) * s.p.ColumnTimeScale
	strips := s.grid.Strips()

	for _, i := range s.grid.BackToFront() {
		strip := strips[i]
		t := s.grid.Position(i)
		energy := strip.Energy
		pf := s.grid.Perspective(strip.Z)
		if pf <= 0 {
			continue
		}
		cx, cy := l.ToScreen(float64(strip.Slice.Min.X)+float64(strip.Slice.Dx())/2, float64(imgH)/2+strip.CurrentY)
		sx := vx + (cx-vx)*pf
		sy := vy + (cy-vy)*pf
		sw := float64(strip.Slice.Dx()) * l.Scale * pf
		sh := float64(strip.Slice.Dy()) * l.Scale * pf
		alpha := clamp(mapRange(pf, 0.4, 1.2, 100, 255), 50, 255)
		angle := (t-0.5)*0.3*(1-pf) + math.Sin(time+float64(i)*0.2)*0.05*energy

		if energy > s.p.ColumnGlowAt {
			dst.FillRotatedRect(sx, sy, sw, sh, angle, render.Style{
				Glow:      mapRange(energy, s.p.ColumnGlowAt, 1, 0, 40) * pf * ui,
				GlowColor: s.glowColor(energy, pf),
			})
		}
		dst.DrawImageCentered(img, strip.Slice, sx, sy, sw, sh, angle, uint8(alpha))
		if energy > s.p.ColumnOverlayFrom {
			dst.FillRotatedRect(sx, sy, sw, sh, angle, render.Style{
				Color: render.WithAlpha(render.Cyan, mapRange(energy, s.p.ColumnOverlayFrom, 1, 0, 60)*pf),
				Blend: render.BlendAdd,
			})
		}
		if direct && s.spark(energy) {
			s.parts.SpawnSpark(sx, sy-sh/4, energy)
		}
	}
	s.finishColumns(dst, e, direct)
}

// finishColumns lays the floor grid over the strips, glitches on heavy bass
// and animates the sparks when drawing straight to the screen.
func (s *State) finishColumns(dst *render.Surface, e analyzer.Energies, direct bool) {
	ground := float64(dst.Height()) * horizon
	render.BottomFade(dst, ground)
	render.Grid(dst, e.Bass, ground, s.frame)
	if e.Bass > s.p.GlitchThreshold && s.playing {
		render.Glitch(dst, e.Bass, s.rng)
	}
	if direct {
		s.parts.StepSparks(e)
		s.parts.DrawSparks(dst)
	}
}

func (s *State) spark(energy float64) bool {
	return energy > s.p.SparkThreshold && s.rng.Float64() < s.p.SparkChance
}

func (s *State) glowColor(energy, k float64) color.RGBA {
	if energy > s.p.ColumnHotAt {
		return render.WithAlpha(hotGlow, float64(hotGlow.A)*k)
	}
	return render.WithAlpha(coolGlow, float64(coolGlow.A)*k)
}

// drawFloors lights the floor bands over the static photo, cell by cell,
// wherever the mask allows.
func (s *State) drawFloors(dst *render.Surface, e analyzer.Energies) {
	s.floors.Update(e, s.frame)
	l := s.cover()
	img := s.pic.Image()
	imgW, imgH := s.pic.Size()
	ui := render.UIScale(s.cfg.Width, s.cfg.Height)
	dst.DrawImage(img, img.Bounds(), l.X, l.Y, l.W, l.H, 255)

	strips := s.grid.Strips()
	for _, fl := range s.floors.Floors() {
		if fl.Total <= s.p.FloorThreshold {
			continue
		}
		c := bandColor(fl.Dominant())
		st := render.Style{
			Color:     render.WithAlpha(c, mapRange(fl.Total, s.p.FloorThreshold, 1, 60, 255)),
			Glow:      mapRange(fl.Total, s.p.FloorThreshold, 1, 10, 50) * ui,
			GlowColor: c,
			Blend:     render.BlendAdd,
		}
		v := (float64(fl.Y) + float64(fl.Height)/2) / float64(imgH)
		y := l.Y + float64(fl.Y)*l.Scale
		h := float64(fl.Height) * l.Scale
		for _, strip := range strips {
			u := (float64(strip.Slice.Min.X) + float64(strip.Slice.Dx())/2) / float64(imgW)
			if !s.mask.Allows(u, v) {
				continue
			}
			dst.FillRect(l.X+float64(strip.Slice.Min.X)*l.Scale, y, float64(strip.Slice.Dx())*l.Scale, h, st)
		}
	}

	ground := float64(dst.Height()) * horizon
	render.BottomFade(dst, ground)
	render.Grid(dst, e.Bass, ground, s.frame)
}

func bandColor(b scene.Band) color.RGBA {
	switch b {
	case scene.BandBass:
		return render.Magenta
	case scene.BandTreble:
		return render.Cyan
	default:
		return render.Orange
	}
}

// drawNeon strokes the wireframe window, rotating it on strong beats.
func (s *State) drawNeon(st mode.State, e analyzer.Energies, threeD bool) {
	if !st.Neon || s.neon.Len() == 0 {
		return
	}
	bass, _, _ := e.Norm()
	if bass > s.p.NeonBeatThreshold && s.frame%10 == 0 {
		s.sel.AdvancePathRotation(s.p.NeonRotateOnBeat)
		st = s.sel.Snapshot()
	}
	s.neon.Window(st.PathRotation, st.ActivePaths)
	if threeD {
		s.neon.Draw3D(s.target, s.cover(), e, s.frame, s.depth)
		return
	}
	s.neon.Draw(s.target, s.cover(), e, s.frame)
}

// drawPhysics shows the rigid bodies over a faded, fitted photo.
func (s *State) drawPhysics(e analyzer.Energies, ui float64) {
	s.target.Clear(render.DarkPurple)
	w, h := s.pic.Size()
	fit := scene.Fit(w, h, s.cfg.Width, s.cfg.Height)
	img := s.pic.Image()
	s.target.DrawImage(img, img.Bounds(), fit.X, fit.Y, fit.W, fit.H, 100)

	if s.bridge.Initialized() {
		s.bridge.Update(e, s.frame)
		s.bridge.Draw(s.target, s.pic, e)
	} else {
		cx, cy := float64(s.cfg.Width)/2, float64(s.cfg.Height)/2
		lh := float64(render.LineHeight()) * ui * 1.5
		s.target.Text(cx, cy-lh, "Loading physics...", ui*1.5, render.White, render.AlignCenter)
		line := fmt.Sprintf("Units: %d, Slabs: %d", len(s.cfg.Layers.Units), len(s.cfg.Layers.Slabs))
		s.target.Text(cx, cy+lh, line, ui*1.5, render.White, render.AlignCenter)
	}

	if !s.playing {
		render.StartPrompt(s.target, s.frame, ui)
	}
	s.meter.Draw(s.target, ui)
	render.Indicators(s.target, physicsLabels(s.bridge), ui)
	render.Hint(s.target, "[R] Reset  [SPACE] Manual Explode  [M] Exit Physics", ui)
	if st := s.sel.Snapshot(); st.Overlay > 0 {
		render.ModeOverlay(s.target, st.PresetName(), ui)
	}
}

var particleLabels = [...]string{"OFF", "EQ RISE", "EXPLOSION", "DISINTEGRATE", "VORTEX", "FIREWORKS"}

// indicatorLabels lists the active effects in a fixed order.
func indicatorLabels(st mode.State) []render.Label {
	var out []render.Label
	if st.Kaleidoscope {
		out = append(out, render.Label{Text: "KALEIDOSCOPE MODE [K]", Color: render.Magenta})
	}
	if st.Neon {
		out = append(out, render.Label{Text: "NEON WIREFRAME [N]", Color: render.Cyan})
	}
	if st.ThreeD {
		out = append(out, render.Label{Text: "3D MODE [3]", Color: render.Orange})
	}
	if st.VerticalFlow {
		out = append(out, render.Label{Text: "VERTICAL FLOW [V]", Color: color.RGBA{255, 255, 100, 255}})
	}
	if st.Tunnel && st.Kaleidoscope {
		out = append(out, render.Label{Text: "TUNNEL MODE [T]", Color: render.Pink})
	}
	if p := int(st.Particle); p > 0 && p < len(particleLabels) {
		colors := [...]color.RGBA{render.Cyan, render.Magenta, render.Orange, render.Pink, render.Cyan}
		out = append(out, render.Label{
			Text:  "PARTICLES: " + particleLabels[p] + " [P]",
			Color: colors[(p-1)%len(colors)],
		})
	}
	return out
}

func physicsLabels(b *physics.Bridge) []render.Label {
	out := []render.Label{{Text: "PHYSICS MODE [M]", Color: render.Yellow}}
	switch b.State() {
	case physics.Reassembling:
		out = append(out, render.Label{Text: "REASSEMBLING...", Color: render.Cyan})
	case physics.Exploding:
		out = append(out, render.Label{Text: "EXPLODING!", Color: render.Magenta})
	default:
		out = append(out, render.Label{Text: "STANDING", Color: render.White})
	}
	out = append(out, render.Label{
		Text:  fmt.Sprintf("Bodies: %d", len(b.Pieces())),
		Color: render.White,
		Small: true,
	})
	return out
}

func mapRange(v, a0, a1, b0, b1 float64) float64 {
	if a1 == a0 {
		return b0
	}
	return b0 + (v-a0)/(a1-a0)*(b1-b0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
