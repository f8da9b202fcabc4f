package phys

import (
	"math"
	"math/cmplx"
	"time"
)

// Wavefunction constructs the Γ-4 consciousness wavefunction from phi-scaled
// neural oscillator modes.
type Wavefunction struct {
	NModes    int
	OmegaBase float64

	frequencies []float64
}

// NewWavefunction builds a constructor with nModes modes at the reference
// base frequency 251.327 rad/s; mode n oscillates at omega_base * phi^(-n).
func NewWavefunction(nModes int) *Wavefunction {
	w := &Wavefunction{NModes: nModes, OmegaBase: 251.327}
	for n := 1; n <= nModes; n++ {
		w.frequencies = append(w.frequencies, w.OmegaBase*PhiPow(-n))
	}
	return w
}

// ModeFrequencies returns the per-mode angular frequencies.
func (w *Wavefunction) ModeFrequencies() []float64 {
	out := make([]float64, len(w.frequencies))
	copy(out, w.frequencies)
	return out
}

// ModeAmplitude returns mode n's complex amplitude at time t:
// phi^(-n) * exp(i*(omega_n*t + pi*n/7)).
func (w *Wavefunction) ModeAmplitude(n int, t float64) complex128 {
	omega := w.frequencies[n]
	scale := PhiPow(-n)
	phase := omega*t + math.Pi*float64(n)/7
	return complex(scale, 0) * cmplx.Exp(complex(0, phase))
}

// ComplexValue is a JSON-friendly complex number.
type ComplexValue struct {
	Real float64 `json:"real"`
	Imag float64 `json:"imag"`
}

// WavefunctionState is the constructed state report.
type WavefunctionState struct {
	Timestamp          string       `json:"timestamp"`
	TotalAmplitude     ComplexValue `json:"total_amplitude"`
	AmplitudeMagnitude float64      `json:"amplitude_magnitude"`
	PhaseRadians       float64      `json:"phase_radians"`
	CoherencePhi       float64      `json:"coherence_phi"`

	Components struct {
		Neural struct {
			NModes            int          `json:"n_modes"`
			Amplitude         ComplexValue `json:"amplitude"`
			ModeFrequenciesHz []float64    `json:"mode_frequencies_Hz"`
		} `json:"neural"`
	} `json:"components"`
}

// Construct evaluates the total wavefunction at time t: the magnitude is
// the geometric mean of the mode magnitudes, the phase the sum of mode
// phases.
func (w *Wavefunction) Construct(t float64) *WavefunctionState {
	magProduct := 1.0
	phaseSum := 0.0
	for n := 0; n < w.NModes; n++ {
		a := w.ModeAmplitude(n, t)
		magProduct *= cmplx.Abs(a)
		phaseSum += cmplx.Phase(a)
	}
	psiAmplitude := math.Pow(magProduct, 1/float64(w.NModes))
	total := complex(psiAmplitude, 0) * cmplx.Exp(complex(0, phaseSum))

	state := &WavefunctionState{
		Timestamp:          time.Now().UTC().Format(time.RFC3339),
		TotalAmplitude:     ComplexValue{Real: real(total), Imag: imag(total)},
		AmplitudeMagnitude: cmplx.Abs(total),
		PhaseRadians:       cmplx.Phase(total),
		CoherencePhi:       PhiPow(-4),
	}
	state.Components.Neural.NModes = w.NModes
	state.Components.Neural.Amplitude = ComplexValue{Real: psiAmplitude}
	state.Components.Neural.ModeFrequenciesHz = w.ModeFrequencies()
	return state
}
