package phys

import "testing"

func TestKineticsGrowthIsMonotonic(t *testing.T) {
	k := NewKinetics()
	sim := k.Simulate(10, 0.1)

	if len(sim.TimeDays) != 100 {
		t.Fatalf("expected 100 samples, got %d", len(sim.TimeDays))
	}
	for i := 1; i < len(sim.NSiO2); i++ {
		if sim.NSiO2[i] < sim.NSiO2[i-1] {
			t.Fatalf("SiO2 population shrank at step %d", i)
		}
		if sim.NFe3O4[i] < sim.NFe3O4[i-1] {
			t.Fatalf("Fe3O4 population shrank at step %d", i)
		}
		if sim.NQD[i] < sim.NQD[i-1] {
			t.Fatalf("QD population shrank at step %d", i)
		}
	}
}

func TestKineticsRespectsCapacity(t *testing.T) {
	k := NewKinetics()
	sim := k.Simulate(50, 0.1)

	// RK4 with the saturation clamp should never materially overshoot the
	// carrying capacities.
	if sim.FinalDensities.SiO2PerNeuron > k.Params.NMaxSiO2*1.01 {
		t.Errorf("SiO2 overshot capacity: %g > %g", sim.FinalDensities.SiO2PerNeuron, k.Params.NMaxSiO2)
	}
	if sim.FinalDensities.Fe3O4PerNeuron > k.Params.NMaxFe3O4*1.01 {
		t.Errorf("Fe3O4 overshot capacity: %g > %g", sim.FinalDensities.Fe3O4PerNeuron, k.Params.NMaxFe3O4)
	}
	if sim.FinalDensities.QDPerNeuron > k.Params.NMaxQD*1.01 {
		t.Errorf("QD overshot capacity: %g > %g", sim.FinalDensities.QDPerNeuron, k.Params.NMaxQD)
	}
}

func TestKineticsReport(t *testing.T) {
	k := NewKinetics()
	report, sim := k.GenerateReport()

	if report.Phase != "Gamma-5" {
		t.Errorf("phase = %q", report.Phase)
	}
	if report.CoherencePhi <= 0 || report.CoherencePhi >= 1 {
		t.Errorf("coherence_phi out of range: %g", report.CoherencePhi)
	}
	if report.SimulationData.DataPoints != len(sim.TimeDays) {
		t.Errorf("data points %d != %d samples", report.SimulationData.DataPoints, len(sim.TimeDays))
	}
	if report.SaturationTimes.SiO2Days <= 0 || report.SaturationTimes.SiO2Days > 50 {
		t.Errorf("SiO2 saturation time out of span: %g", report.SaturationTimes.SiO2Days)
	}
	for key, v := range report.KineticParameters {
		if v <= 0 {
			t.Errorf("kinetic parameter %s not positive: %g", key, v)
		}
	}
}

func TestSaturationHelper(t *testing.T) {
	if got := saturation(2, 1); got != 0 {
		t.Errorf("over-capacity saturation = %g, want 0", got)
	}
	if got := saturation(0, 10); got != 1 {
		t.Errorf("empty saturation = %g, want 1", got)
	}
}
