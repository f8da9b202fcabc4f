package phys

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// KineticsParams holds the Γ-modulated parameters of the tri-crystal
// growth model (SiO2, Fe3O4, InP/ZnS quantum dots).
type KineticsParams struct {
	// Catalytic rates, per day.
	KCatSilicatein float64
	KCatFerritin   float64
	KCatQDot       float64

	// Carrying capacities, crystals per neuron.
	NMaxSiO2  float64
	NMaxFe3O4 float64
	NMaxQD    float64

	// Activation energies, J/mol.
	EaSiO2  float64
	EaFe3O4 float64
	EaQD    float64

	// Physiological temperature, K.
	Temperature float64

	// Enzyme concentrations, uM.
	EnzymeSilicatein float64
	EnzymeFerritin   float64
	EnzymeQDotLigase float64

	// Ionic substrates, mM.
	SiSubstrate  float64
	FeSubstrate  float64
	InPSubstrate float64
}

// DefaultKineticsParams returns the Γ-5 reference parameter set.
func DefaultKineticsParams() KineticsParams {
	return KineticsParams{
		KCatSilicatein: 0.05 * PhiPow(-2),
		KCatFerritin:   0.08 * PhiPow(-2),
		KCatQDot:       0.06 * PhiPow(-2),

		NMaxSiO2:  1e7 * Phi,
		NMaxFe3O4: 5e6 * Phi,
		NMaxQD:    1e8 * Phi,

		EaSiO2:  45000 * PhiInv,
		EaFe3O4: 48000 * PhiInv,
		EaQD:    42000 * PhiInv,

		Temperature: 310.15,

		EnzymeSilicatein: 1.0,
		EnzymeFerritin:   1.0,
		EnzymeQDotLigase: 0.8,

		SiSubstrate:  10.0,
		FeSubstrate:  5.0,
		InPSubstrate: 2.0,
	}
}

// Kinetics simulates coupled tri-crystal growth.
type Kinetics struct {
	Params KineticsParams
}

// NewKinetics builds a simulator with the Γ-5 defaults.
func NewKinetics() *Kinetics {
	return &Kinetics{Params: DefaultKineticsParams()}
}

func (k *Kinetics) arrhenius(ea float64) float64 {
	return math.Exp(-ea / (GasConstant * k.Params.Temperature))
}

// growthRateSiO2 is dN/dt = kcat*[E]*[S]*(1-N/Nmax)*exp(-Ea/RT)*psi(t),
// where psi is the 40 Hz Γ-mode oscillation. t is in days.
func (k *Kinetics) growthRateSiO2(n, t float64) float64 {
	sat := saturation(n, k.Params.NMaxSiO2)
	omega := 2 * math.Pi * 40
	psi := 1 + 0.1*math.Cos(omega*t*86400)
	return k.Params.KCatSilicatein * k.Params.EnzymeSilicatein * k.Params.SiSubstrate *
		sat * k.arrhenius(k.Params.EaSiO2) * psi
}

// growthRateFe3O4 includes the external-field magnetic enhancement.
func (k *Kinetics) growthRateFe3O4(n, t float64) float64 {
	sat := saturation(n, k.Params.NMaxFe3O4)
	const bExternal = 0.05 // T
	magnetic := 1 + 0.05*bExternal*PhiPow(-3)
	return k.Params.KCatFerritin * k.Params.EnzymeFerritin * k.Params.FeSubstrate *
		sat * k.arrhenius(k.Params.EaFe3O4) * magnetic
}

// growthRateQD includes the photonic-coupling term for neural illumination.
func (k *Kinetics) growthRateQD(n, t float64) float64 {
	sat := saturation(n, k.Params.NMaxQD)
	const photonFlux = 1e15 // photons/s
	photonic := 1 + 0.08*math.Log10(photonFlux/1e14)
	return k.Params.KCatQDot * k.Params.EnzymeQDotLigase * k.Params.InPSubstrate *
		sat * k.arrhenius(k.Params.EaQD) * photonic
}

// derivatives evaluates the coupled ODE right-hand side. The three crystal
// populations feed back on each other with phi-scaled coupling factors:
// piezoelectric SiO2 stimulates Fe3O4, magnetic Fe3O4 orients the quantum
// dots, and the dots photoactivate SiO2.
func (k *Kinetics) derivatives(state []float64, t float64, out []float64) {
	nSiO2, nFe3O4, nQD := state[0], state[1], state[2]

	rSiO2 := k.growthRateSiO2(nSiO2, t)
	rFe3O4 := k.growthRateFe3O4(nFe3O4, t)
	rQD := k.growthRateQD(nQD, t)

	piezoToMagnetic := 0.02 * (nSiO2 / k.Params.NMaxSiO2) * PhiPow(-2)
	magneticToPhotonic := 0.03 * (nFe3O4 / k.Params.NMaxFe3O4) * PhiPow(-2)
	photonicToPiezo := 0.01 * (nQD / k.Params.NMaxQD) * PhiPow(-3)

	out[0] = rSiO2 * (1 + photonicToPiezo)
	out[1] = rFe3O4 * (1 + piezoToMagnetic)
	out[2] = rQD * (1 + magneticToPhotonic)
}

// Simulation holds the integrated growth trajectories.
type Simulation struct {
	TimeDays []float64 `json:"time_days"`
	NSiO2    []float64 `json:"N_SiO2"`
	NFe3O4   []float64 `json:"N_Fe3O4"`
	NQD      []float64 `json:"N_QD"`

	SaturationTimes SaturationTimes `json:"saturation_times"`
	FinalDensities  FinalDensities  `json:"final_densities"`
}

// SaturationTimes records when each population reaches 95% of capacity.
type SaturationTimes struct {
	SiO2Days  float64 `json:"SiO2_days"`
	Fe3O4Days float64 `json:"Fe3O4_days"`
	QDDays    float64 `json:"QD_days"`
}

// FinalDensities records the end-of-run crystal densities per neuron.
type FinalDensities struct {
	SiO2PerNeuron  float64 `json:"SiO2_per_neuron"`
	Fe3O4PerNeuron float64 `json:"Fe3O4_per_neuron"`
	QDPerNeuron    float64 `json:"QD_per_neuron"`
}

// Simulate integrates the coupled ODEs with fixed-step RK4 from small
// crystallization seeds over tDays at step dt (both in days).
func (k *Kinetics) Simulate(tDays, dt float64) *Simulation {
	steps := int(math.Round(tDays / dt))
	state := []float64{1e4, 5e3, 1e5}

	sim := &Simulation{
		TimeDays: make([]float64, 0, steps),
		NSiO2:    make([]float64, 0, steps),
		NFe3O4:   make([]float64, 0, steps),
		NQD:      make([]float64, 0, steps),
	}

	k1 := make([]float64, 3)
	k2 := make([]float64, 3)
	k3 := make([]float64, 3)
	k4 := make([]float64, 3)
	tmp := make([]float64, 3)

	for i := 0; i < steps; i++ {
		t := float64(i) * dt

		sim.TimeDays = append(sim.TimeDays, t)
		sim.NSiO2 = append(sim.NSiO2, state[0])
		sim.NFe3O4 = append(sim.NFe3O4, state[1])
		sim.NQD = append(sim.NQD, state[2])

		k.derivatives(state, t, k1)
		floats.AddScaledTo(tmp, state, dt/2, k1)
		k.derivatives(tmp, t+dt/2, k2)
		floats.AddScaledTo(tmp, state, dt/2, k2)
		k.derivatives(tmp, t+dt/2, k3)
		floats.AddScaledTo(tmp, state, dt, k3)
		k.derivatives(tmp, t+dt, k4)

		for j := range state {
			state[j] += dt / 6 * (k1[j] + 2*k2[j] + 2*k3[j] + k4[j])
		}
	}

	sim.SaturationTimes = SaturationTimes{
		SiO2Days:  saturationTime(sim.TimeDays, sim.NSiO2, k.Params.NMaxSiO2, tDays),
		Fe3O4Days: saturationTime(sim.TimeDays, sim.NFe3O4, k.Params.NMaxFe3O4, tDays),
		QDDays:    saturationTime(sim.TimeDays, sim.NQD, k.Params.NMaxQD, tDays),
	}
	sim.FinalDensities = FinalDensities{
		SiO2PerNeuron:  state[0],
		Fe3O4PerNeuron: state[1],
		QDPerNeuron:    state[2],
	}
	return sim
}

// KineticsReport is the Γ-5 report serialized for downstream consumers.
type KineticsReport struct {
	Timestamp    string  `json:"timestamp"`
	Phase        string  `json:"phase"`
	CoherencePhi float64 `json:"coherence_phi"`

	KineticParameters map[string]float64 `json:"kinetic_parameters"`
	SaturationTimes   SaturationTimes    `json:"saturation_times"`
	FinalDensities    FinalDensities     `json:"final_crystal_densities"`

	SimulationData struct {
		TimeSpanDays [2]float64 `json:"time_span_days"`
		DataPoints   int        `json:"data_points"`
	} `json:"simulation_data"`
}

// GenerateReport runs the 50-day reference simulation and summarizes it.
func (k *Kinetics) GenerateReport() (*KineticsReport, *Simulation) {
	sim := k.Simulate(50, 0.1)

	report := &KineticsReport{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Phase:        "Gamma-5",
		CoherencePhi: PhiPow(-5),
		KineticParameters: map[string]float64{
			"k_cat_silicatein_per_day": k.Params.KCatSilicatein,
			"k_cat_ferritin_per_day":   k.Params.KCatFerritin,
			"k_cat_qdot_per_day":       k.Params.KCatQDot,
			"E_a_SiO2_kJ_mol":          k.Params.EaSiO2 / 1000,
			"E_a_Fe3O4_kJ_mol":         k.Params.EaFe3O4 / 1000,
			"E_a_QD_kJ_mol":            k.Params.EaQD / 1000,
		},
		SaturationTimes: sim.SaturationTimes,
		FinalDensities:  sim.FinalDensities,
	}
	report.SimulationData.TimeSpanDays = [2]float64{sim.TimeDays[0], sim.TimeDays[len(sim.TimeDays)-1]}
	report.SimulationData.DataPoints = len(sim.TimeDays)
	return report, sim
}

func saturation(n, nMax float64) float64 {
	s := 1 - n/nMax
	if s < 0 {
		return 0
	}
	return s
}

// saturationTime returns the first time the population reaches 95% of
// capacity, or the full span when it never does.
func saturationTime(times, values []float64, nMax, tDays float64) float64 {
	threshold := 0.95 * nMax
	for i, v := range values {
		if v >= threshold {
			return times[i]
		}
	}
	return tDays
}
