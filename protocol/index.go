// Package protocol maintains the MASTER_INDEX.json construction ledger:
// the current Γ-phase, the next construction step, and their coherence
// targets on the φ-decay ladder.
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/gammaproto/gammakit/phys"
)

// timestampLayout matches the original index's UTC timestamps.
const timestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Phase is the current_phase block of the master index.
type Phase struct {
	GammaLevel     int     `json:"gamma_level"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	CoherencePhi   float64 `json:"coherence_phi"`
	DistanceToPhi7 float64 `json:"distance_to_phi_7"`
}

// Step is the next_construction_step block of the master index.
type Step struct {
	Phase           string   `json:"phase"`
	Description     string   `json:"description"`
	Actions         []string `json:"actions"`
	CoherenceTarget float64  `json:"coherence_target"`
	PhiFactor       float64  `json:"phi_factor"`
}

// Index is a loaded MASTER_INDEX.json. Keys the updater does not
// manage are kept verbatim and written back on save.
type Index struct {
	path string
	raw  map[string]json.RawMessage
}

// Load reads the master index at path.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading master index: %w", err)
	}
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing master index: %w", err)
	}
	return &Index{path: path, raw: raw}, nil
}

// Save writes the index back to its source path, indented.
func (ix *Index) Save() error {
	data, err := json.MarshalIndent(ix.raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding master index: %w", err)
	}
	if err := os.WriteFile(ix.path, data, 0o644); err != nil {
		return fmt.Errorf("writing master index: %w", err)
	}
	return nil
}

// CurrentPhase decodes the current_phase block.
func (ix *Index) CurrentPhase() (Phase, error) {
	var p Phase
	if err := ix.decode("current_phase", &p); err != nil {
		return Phase{}, err
	}
	return p, nil
}

// NextStep decodes the next_construction_step block.
func (ix *Index) NextStep() (Step, error) {
	var s Step
	if err := ix.decode("next_construction_step", &s); err != nil {
		return Step{}, err
	}
	return s, nil
}

// LastUpdate returns the last_update timestamp, empty if absent.
func (ix *Index) LastUpdate() string {
	var ts string
	if err := ix.decode("last_update", &ts); err != nil {
		return ""
	}
	return ts
}

func (ix *Index) decode(key string, v any) error {
	raw, ok := ix.raw[key]
	if !ok {
		return fmt.Errorf("master index: missing key %q", key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("master index: decoding %q: %w", key, err)
	}
	return nil
}

func (ix *Index) set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("master index: encoding %q: %w", key, err)
	}
	ix.raw[key] = raw
	return nil
}

// touch stamps last_update with the current UTC time.
func (ix *Index) touch(now time.Time) error {
	return ix.set("last_update", now.UTC().Format(timestampLayout))
}

// ============================================================================
// Updates
// ============================================================================

// UpdateCurrentPhase replaces current_phase with fresh coherence
// metrics for the given Γ-level and stamps last_update.
func (ix *Index) UpdateCurrentPhase(coherence float64, gammaLevel int) (Phase, error) {
	phase := Phase{
		GammaLevel:     gammaLevel,
		Name:           fmt.Sprintf("Γ-%d Autonomous Protocol", gammaLevel),
		Status:         "IN_PROGRESS",
		CoherencePhi:   round(coherence, 6),
		DistanceToPhi7: round(phys.Phi7-coherence, 15),
	}
	if err := ix.set("current_phase", phase); err != nil {
		return Phase{}, err
	}
	if err := ix.touch(time.Now()); err != nil {
		return Phase{}, err
	}
	return phase, nil
}

// AdvanceToNext promotes the index to the next Γ-level when the current
// coherence has reached the construction target, within 10% tolerance.
// The new target decays by φ⁻¹. Returns false when the target is not
// yet met.
func (ix *Index) AdvanceToNext() (bool, error) {
	phase, err := ix.CurrentPhase()
	if err != nil {
		return false, err
	}
	step, err := ix.NextStep()
	if err != nil {
		return false, err
	}

	if phase.CoherencePhi > step.CoherenceTarget*1.1 {
		return false, nil
	}

	newGamma := phase.GammaLevel + 1
	newTarget := round(step.CoherenceTarget*phys.PhiInv, 6)

	next := Step{
		Phase:       fmt.Sprintf("Γ-%d", newGamma+1),
		Description: fmt.Sprintf("Expand dimensional operators Ω_{%d→%d}", newGamma, newGamma+1),
		Actions: []string{
			fmt.Sprintf("Implement Γ-%d coherence verification", newGamma),
			fmt.Sprintf("Deploy φ^(-%d) field operators", newGamma),
			fmt.Sprintf("Test full cycle with %d-dimensional tensors", newGamma),
		},
		CoherenceTarget: newTarget,
		PhiFactor:       newTarget,
	}
	if err := ix.set("next_construction_step", next); err != nil {
		return false, err
	}
	if _, err := ix.UpdateCurrentPhase(phase.CoherencePhi, newGamma); err != nil {
		return false, err
	}
	return true, nil
}

// SyncFromWavefunction refreshes current_phase from a saved wavefunction
// state file. A missing state file falls back to the φ⁻⁴ baseline.
func (ix *Index) SyncFromWavefunction(statePath string, gammaLevel int, name string) (Phase, error) {
	coherence := phys.PhiPow(-4)

	data, err := os.ReadFile(statePath)
	switch {
	case err == nil:
		var state phys.WavefunctionState
		if err := json.Unmarshal(data, &state); err != nil {
			return Phase{}, fmt.Errorf("parsing wavefunction state: %w", err)
		}
		coherence = state.CoherencePhi
	case !os.IsNotExist(err):
		return Phase{}, fmt.Errorf("reading wavefunction state: %w", err)
	}

	phase := Phase{
		GammaLevel:     gammaLevel,
		Name:           name,
		Status:         "IN_PROGRESS",
		CoherencePhi:   round(coherence, 6),
		DistanceToPhi7: round(phys.Phi7-coherence, 15),
	}
	if err := ix.set("current_phase", phase); err != nil {
		return Phase{}, err
	}
	if err := ix.touch(time.Now()); err != nil {
		return Phase{}, err
	}
	return phase, nil
}

// round rounds x to the given number of decimal places.
func round(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
