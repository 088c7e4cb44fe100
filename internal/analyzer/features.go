package analyzer

// Energies holds the three band energies of one frame on the 0..255 scale.
type Energies struct {
	Bass   float64 `json:"bass"`
	Mid    float64 `json:"mid"`
	Treble float64 `json:"treble"`
}

// Norm returns the energies scaled to [0,1].
func (e Energies) Norm() (bass, mid, treble float64) {
	return clamp(e.Bass/255, 0, 1), clamp(e.Mid/255, 0, 1), clamp(e.Treble/255, 0, 1)
}

// Overall is the weighted amplitude 0.5*bass + 0.3*mid + 0.2*treble in [0,1].
func (e Energies) Overall() float64 {
	b, m, t := e.Norm()
	return b*0.5 + m*0.3 + t*0.2
}

// Clamp limits every band to 0..255.
func (e Energies) Clamp() Energies {
	return Energies{
		Bass:   clamp(e.Bass, 0, 255),
		Mid:    clamp(e.Mid, 0, 255),
		Treble: clamp(e.Treble, 0, 255),
	}
}

// Gate applies a noise floor (normalized 0..1) so weak signals are ignored.
func Gate(e Energies, floor float64) Energies {
	if floor <= 0 {
		return e
	}
	if floor >= 1 {
		return Energies{}
	}
	gate := func(v float64) float64 {
		n := v / 255
		if n <= floor {
			return 0
		}
		return clamp((n-floor)/(1.0-floor), 0, 1) * 255
	}
	return Energies{
		Bass:   gate(e.Bass),
		Mid:    gate(e.Mid),
		Treble: gate(e.Treble),
	}
}
