package phys

import (
	"math"
	"testing"
)

func TestTripartiteValidation(t *testing.T) {
	v := NewTripartiteValidator()
	report := v.Report()

	if len(report.ValidatedTopologies) != 4 {
		t.Fatalf("expected 4 topologies, got %d", len(report.ValidatedTopologies))
	}

	for _, c := range report.ValidatedTopologies {
		wantPhi := math.Pow(Phi, -float64(c.DistanceGamma))
		if math.Abs(c.PhiFactor-wantPhi) > 1e-12 {
			t.Errorf("%s: phi factor %g, want %g", c.Topology, c.PhiFactor, wantPhi)
		}
		if c.EffectiveCouplingHz <= 0 {
			t.Errorf("%s: non-positive coupling", c.Topology)
		}
		if math.Abs(c.CoherenceTimeS*c.EffectiveCouplingHz-1) > 1e-9 {
			t.Errorf("%s: coherence time is not the inverse coupling", c.Topology)
		}
	}

	// Longer paths preserve less coherence.
	if report.ValidatedTopologies[0].PhiFactor <= report.ValidatedTopologies[2].PhiFactor {
		t.Error("distance-2 path should preserve more than distance-3 path")
	}
}

func TestPreservationAnalysis(t *testing.T) {
	v := NewTripartiteValidator()
	report := v.Report()
	p := report.CoherencePreservation

	if p == nil {
		t.Fatal("preservation analysis missing")
	}
	if len(p.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(p.Entries))
	}
	var sum float64
	for _, e := range p.Entries {
		if e.CoherencePreserved+e.DecoherenceRate != 1 {
			t.Errorf("%s: preserved+decoherence != 1", e.Topology)
		}
		sum += e.CoherencePreserved
	}
	if math.Abs(p.AveragePreservation-sum/4) > 1e-12 {
		t.Errorf("average preservation %g, want %g", p.AveragePreservation, sum/4)
	}
	if p.Phi7Compatibility <= 0 {
		t.Errorf("phi7 compatibility %g", p.Phi7Compatibility)
	}
}
