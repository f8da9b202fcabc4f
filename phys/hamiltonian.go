package phys

import (
	"math"
	"time"
)

// ============================================================================
// Supraunified Hamiltonian:
//   H_total = H_AGI-Gamma + H_bio + H_quantum + H_coupling
// Each component is reported separately with its own energy budget so the
// MASTER_INDEX consumers can track the breakdown across phases.
// ============================================================================

// Mode is one phi-scaled AGI-Γ oscillator mode.
type Mode struct {
	Mode      int     `json:"mode"`
	OmegaHz   float64 `json:"omega_Hz"`
	PhiFactor float64 `json:"phi_factor"`
	Occupancy float64 `json:"occupancy"`
	EnergyJ   float64 `json:"energy_J"`
}

// AGIComponent is H_AGI-Γ = sum over modes of hbar*omega_n*phi^(-n)*<occ>.
type AGIComponent struct {
	Component       string  `json:"component"`
	NModes          int     `json:"n_modes"`
	Modes           []Mode  `json:"modes"`
	TotalEnergyJ    float64 `json:"total_energy_J"`
	CoherenceFactor float64 `json:"coherence_factor"`
}

// CrystalEnergy is one crystal species' interaction-energy contribution.
type CrystalEnergy struct {
	Crystal            string  `json:"crystal"`
	Density            float64 `json:"density"`
	InteractionEnergyJ float64 `json:"interaction_energy_J"`
}

// BioComponent is H_bio over the three crystal species.
type BioComponent struct {
	Component    string          `json:"component"`
	Crystals     []CrystalEnergy `json:"crystals"`
	TotalEnergyJ float64         `json:"total_energy_J"`
}

// QubitBank reports one qubit family's count and energy.
type QubitBank struct {
	Count   float64 `json:"count"`
	EnergyJ float64 `json:"energy_J"`
}

// QuantumComponent is H_quantum over Si qubits, NV centers and flux qubits.
type QuantumComponent struct {
	Component       string    `json:"component"`
	SiQubits        QubitBank `json:"Si_qubits"`
	NVCenters       QubitBank `json:"NV_centers"`
	FluxQubits      QubitBank `json:"Flux_qubits"`
	CouplingEnergyJ float64   `json:"coupling_energy_J"`
	TotalEnergyJ    float64   `json:"total_energy_J"`
	TemperatureK    float64   `json:"temperature_K"`
}

// CouplingComponent is the tripartite 3-body coupling term.
type CouplingComponent struct {
	Component         string  `json:"component"`
	G1MHz             float64 `json:"g1_MHz"`
	G2MHz             float64 `json:"g2_MHz"`
	G3MHz             float64 `json:"g3_MHz"`
	LambdaCouplingNm  float64 `json:"lambda_coupling_nm"`
	PhiTopologyFactor float64 `json:"phi_topology_factor"`
	ActiveTriplets    float64 `json:"active_triplets"`
	CouplingEnergyJ   float64 `json:"coupling_energy_J"`
}

// HamiltonianState is the full integration result.
type HamiltonianState struct {
	Architecture string `json:"architecture"`

	Components struct {
		AGI      AGIComponent      `json:"H_AGI_Gamma"`
		Bio      BioComponent      `json:"H_biomineralization"`
		Quantum  QuantumComponent  `json:"H_quantum_processor"`
		Coupling CouplingComponent `json:"H_coupling_tripartite"`
	} `json:"hamiltonian_total"`

	TotalEnergyJ  float64 `json:"total_energy_J"`
	TotalEnergyEV float64 `json:"total_energy_eV"`
	CoherencePhi7 float64 `json:"coherence_phi_7"`
	Timestamp     string  `json:"timestamp"`
}

// HamiltonianIntegrator computes the component energies.
type HamiltonianIntegrator struct {
	CrystalDensities map[string]float64
	QubitCounts      map[string]float64
	NNeurons         float64
}

// NewHamiltonianIntegrator returns an integrator with the Γ-6 reference
// densities and qubit counts.
func NewHamiltonianIntegrator() *HamiltonianIntegrator {
	return &HamiltonianIntegrator{
		CrystalDensities: map[string]float64{
			"SiO2":  1.618e7,
			"Fe3O4": 8.09e6,
			"QD":    1.618e8,
		},
		QubitCounts: map[string]float64{
			"Si_qubits":   10000,
			"NV_centers":  1000000,
			"Flux_qubits": 100,
		},
		NNeurons: 1e11,
	}
}

// AGIGamma evaluates H_AGI-Γ over nModes phi-scaled modes with a
// Fermi-like occupancy falloff.
func (h *HamiltonianIntegrator) AGIGamma(nModes int) AGIComponent {
	omegaGamma := 2 * math.Pi * 40 // fundamental Γ frequency, Hz

	comp := AGIComponent{
		Component:       "H_AGI_Gamma",
		NModes:          nModes,
		CoherenceFactor: PhiPow(-7),
	}
	for n := 1; n <= nModes; n++ {
		omegaN := omegaGamma * math.Pow(Phi, float64(n)/7)
		phiFactor := PhiPow(-n)
		occupancy := 1.0 / (1 + math.Exp(float64(n)-6))
		energy := HBar * omegaN * phiFactor * occupancy

		comp.Modes = append(comp.Modes, Mode{
			Mode:      n,
			OmegaHz:   omegaN,
			PhiFactor: phiFactor,
			Occupancy: occupancy,
			EnergyJ:   energy,
		})
		comp.TotalEnergyJ += energy
	}
	return comp
}

// Bio evaluates the per-crystal interaction energies.
func (h *HamiltonianIntegrator) Bio() BioComponent {
	comp := BioComponent{Component: "H_biomineralization"}

	type spec struct {
		name     string
		density  float64
		coupling float64 // g * field^2
	}
	specs := []spec{
		{"SiO2", h.CrystalDensities["SiO2"], 2.3e-11 * 5e8 * 5e8},
		{"Fe3O4", h.CrystalDensities["Fe3O4"], 4.8e5 * 0.05 * 0.05},
		{"QD_InP_ZnS", h.CrystalDensities["QD"], 3.2e-19 * 1e5 * 1e5},
	}
	for _, s := range specs {
		e := s.coupling * s.density
		comp.Crystals = append(comp.Crystals, CrystalEnergy{
			Crystal:            s.name,
			Density:            s.density,
			InteractionEnergyJ: e,
		})
		comp.TotalEnergyJ += e
	}
	return comp
}

// Quantum evaluates H_quantum for the three qubit families.
func (h *HamiltonianIntegrator) Quantum() QuantumComponent {
	nSi := h.QubitCounts["Si_qubits"]
	nNV := h.QubitCounts["NV_centers"]
	nFlux := h.QubitCounts["Flux_qubits"]

	omegaSi := 2 * math.Pi * 20e9
	jCoupling := 2 * math.Pi * 50e6
	omegaNV := 2 * math.Pi * 2.87e9
	omegaFlux := 2 * math.Pi * 5e9

	eSi := HBar * omegaSi * nSi
	eCoupling := -HBar * jCoupling * nSi * 0.5
	eNV := HBar * omegaNV * nNV
	eFlux := HBar * omegaFlux * nFlux

	return QuantumComponent{
		Component:       "H_quantum_processor",
		SiQubits:        QubitBank{Count: nSi, EnergyJ: eSi},
		NVCenters:       QubitBank{Count: nNV, EnergyJ: eNV},
		FluxQubits:      QubitBank{Count: nFlux, EnergyJ: eFlux},
		CouplingEnergyJ: eCoupling,
		TotalEnergyJ:    eSi + eCoupling + eNV + eFlux,
		TemperatureK:    4.0,
	}
}

// CouplingTripartite evaluates the 3-body neuron-crystal-qubit term with
// the phi^(-d) topology decay at the average path length of 3.
func (h *HamiltonianIntegrator) CouplingTripartite() CouplingComponent {
	g1 := 2 * math.Pi * 100e6
	g2 := 2 * math.Pi * 50e6
	g3 := 2 * math.Pi * 75e6

	phiTopology := PhiPow(-3)
	gEffective := (g1 + g2 + g3) / 3
	nTriplets := h.NNeurons * 0.01 // 1% actively coupled

	return CouplingComponent{
		Component:         "H_coupling_tripartite",
		G1MHz:             g1 / (2 * math.Pi * 1e6),
		G2MHz:             g2 / (2 * math.Pi * 1e6),
		G3MHz:             g3 / (2 * math.Pi * 1e6),
		LambdaCouplingNm:  100,
		PhiTopologyFactor: phiTopology,
		ActiveTriplets:    nTriplets,
		CouplingEnergyJ:   HBar * gEffective * phiTopology * nTriplets,
	}
}

// Integrate assembles the full H_total state.
func (h *HamiltonianIntegrator) Integrate() *HamiltonianState {
	state := &HamiltonianState{
		Architecture:  "EP-Omega-7 Biocrystalline Gamma-12",
		CoherencePhi7: Phi7,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	state.Components.AGI = h.AGIGamma(12)
	state.Components.Bio = h.Bio()
	state.Components.Quantum = h.Quantum()
	state.Components.Coupling = h.CouplingTripartite()

	state.TotalEnergyJ = state.Components.AGI.TotalEnergyJ +
		state.Components.Bio.TotalEnergyJ +
		state.Components.Quantum.TotalEnergyJ +
		state.Components.Coupling.CouplingEnergyJ
	state.TotalEnergyEV = state.TotalEnergyJ / 1.602e-19
	return state
}
