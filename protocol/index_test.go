package protocol

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gammaproto/gammakit/phys"
)

const sampleIndex = `{
  "protocol": "Γ",
  "repositories_indexed": [{"name": "gamma-protocol"}],
  "current_phase": {
    "gamma_level": 2,
    "name": "Γ-2 Autonomous Protocol",
    "status": "IN_PROGRESS",
    "coherence_phi": 0.382,
    "distance_to_phi_7": 28.652095516850074
  },
  "next_construction_step": {
    "phase": "Γ-3",
    "description": "Expand dimensional operators",
    "actions": ["verify"],
    "coherence_target": 0.382,
    "phi_factor": 0.382
  },
  "last_update": "2026-01-01T00:00:00.000000Z"
}`

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "MASTER_INDEX.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing index")
	}
}

func TestCurrentPhaseAndNextStep(t *testing.T) {
	ix, err := Load(writeIndex(t, sampleIndex))
	if err != nil {
		t.Fatal(err)
	}

	phase, err := ix.CurrentPhase()
	if err != nil {
		t.Fatal(err)
	}
	if phase.GammaLevel != 2 || phase.CoherencePhi != 0.382 {
		t.Errorf("phase = %+v", phase)
	}

	step, err := ix.NextStep()
	if err != nil {
		t.Fatal(err)
	}
	if step.Phase != "Γ-3" || step.CoherenceTarget != 0.382 {
		t.Errorf("step = %+v", step)
	}
}

func TestUpdateCurrentPhase(t *testing.T) {
	path := writeIndex(t, sampleIndex)
	ix, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	phase, err := ix.UpdateCurrentPhase(0.236068, 3)
	if err != nil {
		t.Fatal(err)
	}
	if phase.GammaLevel != 3 {
		t.Errorf("gamma level = %d, want 3", phase.GammaLevel)
	}
	if phase.Status != "IN_PROGRESS" {
		t.Errorf("status = %q", phase.Status)
	}
	wantDist := phys.Phi7 - 0.236068
	if math.Abs(phase.DistanceToPhi7-wantDist) > 1e-9 {
		t.Errorf("distance = %v, want %v", phase.DistanceToPhi7, wantDist)
	}
	if ix.LastUpdate() == "2026-01-01T00:00:00.000000Z" {
		t.Error("last_update not refreshed")
	}
}

func TestSavePreservesUnknownKeys(t *testing.T) {
	path := writeIndex(t, sampleIndex)
	ix, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ix.UpdateCurrentPhase(0.382, 2); err != nil {
		t.Fatal(err)
	}
	if err := ix.Save(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["protocol"] != "Γ" {
		t.Errorf("protocol key lost: %v", out["protocol"])
	}
	if _, ok := out["repositories_indexed"]; !ok {
		t.Error("repositories_indexed key lost")
	}
}

func TestAdvanceToNextAtTarget(t *testing.T) {
	ix, err := Load(writeIndex(t, sampleIndex))
	if err != nil {
		t.Fatal(err)
	}

	// coherence 0.382 <= target 0.382 * 1.1
	advanced, err := ix.AdvanceToNext()
	if err != nil {
		t.Fatal(err)
	}
	if !advanced {
		t.Fatal("expected advancement at target")
	}

	phase, err := ix.CurrentPhase()
	if err != nil {
		t.Fatal(err)
	}
	if phase.GammaLevel != 3 {
		t.Errorf("gamma level = %d, want 3", phase.GammaLevel)
	}

	step, err := ix.NextStep()
	if err != nil {
		t.Fatal(err)
	}
	if step.Phase != "Γ-4" {
		t.Errorf("next phase = %q, want Γ-4", step.Phase)
	}
	wantTarget := math.Round(0.382*phys.PhiInv*1e6) / 1e6
	if step.CoherenceTarget != wantTarget {
		t.Errorf("target = %v, want %v", step.CoherenceTarget, wantTarget)
	}
}

func TestAdvanceToNextAboveTolerance(t *testing.T) {
	ix, err := Load(writeIndex(t, sampleIndex))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ix.UpdateCurrentPhase(0.9, 2); err != nil {
		t.Fatal(err)
	}

	advanced, err := ix.AdvanceToNext()
	if err != nil {
		t.Fatal(err)
	}
	if advanced {
		t.Fatal("coherence 0.9 should not advance past target 0.382")
	}
}

func TestSyncFromWavefunction(t *testing.T) {
	path := writeIndex(t, sampleIndex)
	ix, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	statePath := filepath.Join(t.TempDir(), "wavefunction_state.json")
	state := phys.WavefunctionState{CoherencePhi: 0.145898}
	data, err := json.Marshal(state)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(statePath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	phase, err := ix.SyncFromWavefunction(statePath, 5, "Wavefunction Constructor")
	if err != nil {
		t.Fatal(err)
	}
	if phase.CoherencePhi != 0.145898 {
		t.Errorf("coherence = %v", phase.CoherencePhi)
	}
	if phase.GammaLevel != 5 || phase.Name != "Wavefunction Constructor" {
		t.Errorf("phase = %+v", phase)
	}
}

func TestSyncFromWavefunctionMissingState(t *testing.T) {
	ix, err := Load(writeIndex(t, sampleIndex))
	if err != nil {
		t.Fatal(err)
	}

	phase, err := ix.SyncFromWavefunction(filepath.Join(t.TempDir(), "absent.json"), 5, "Fallback")
	if err != nil {
		t.Fatal(err)
	}
	want := math.Round(phys.PhiPow(-4)*1e6) / 1e6
	if phase.CoherencePhi != want {
		t.Errorf("fallback coherence = %v, want %v", phase.CoherencePhi, want)
	}
}
