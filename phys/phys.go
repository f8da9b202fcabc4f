// Package phys implements the Γ-protocol numeric report generators: the
// biomineralization growth kinetics, the supraunified Hamiltonian
// integrator, the tripartite coupling validator and the consciousness
// wavefunction constructor. Each generator is a pure computation over its
// parameters producing a JSON-serializable report.
package phys

import "math"

// Golden-ratio constants shared by every Γ generator.
const (
	Phi    = 1.618033988749895
	PhiInv = 0.618033988749895
	Phi7   = 29.034095516850073

	// HBar is the reduced Planck constant in J*s.
	HBar = 1.054571817e-34

	// GasConstant is R in J/(mol*K).
	GasConstant = 8.314
)

// PhiPow returns Phi raised to n (n may be negative).
func PhiPow(n int) float64 {
	return math.Pow(Phi, float64(n))
}
