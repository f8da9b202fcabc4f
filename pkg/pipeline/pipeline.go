package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gammaproto/gammakit/coherence"
	"github.com/gammaproto/gammakit/memory"
	"github.com/gammaproto/gammakit/phys"
	"github.com/gammaproto/gammakit/pkg/config"
	"github.com/gammaproto/gammakit/protocol"
)

// Pipeline runs one Γ-protocol construction phase end to end:
// kinetics simulation, wavefunction construction, crystallization into
// holographic memory and master index synchronization.
type Pipeline struct {
	cfg    *config.Config
	store  *memory.Store
	logger *slog.Logger
}

// New creates a new Pipeline instance
func New(cfg *config.Config, store *memory.Store, logger *slog.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, store: store, logger: logger}
}

// RunPhase executes a full phase at the given Γ-level and returns a
// step-by-step trace.
func (p *Pipeline) RunPhase(ctx context.Context, gammaLevel int) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("=== Γ-%d Phase ===\n\n", gammaLevel))

	// Step 1: Biomineralization kinetics
	result.WriteString("Step 1: Biomineralization kinetics\n")
	kinetics := phys.NewKinetics()
	report, sim := kinetics.GenerateReport()
	result.WriteString(fmt.Sprintf("Simulated %d steps over %.1f days\n",
		len(sim.TimeDays), sim.TimeDays[len(sim.TimeDays)-1]))
	if err := p.writeReport("biomineralization_report.json", report); err != nil {
		return "", fmt.Errorf("kinetics report: %w", err)
	}
	result.WriteString("\n")

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	// Step 2: Wavefunction construction
	result.WriteString("Step 2: Wavefunction construction\n")
	wf := phys.NewWavefunction(12)
	state := wf.Construct(0)
	result.WriteString(fmt.Sprintf("Coherence φ: %.6f\n", state.CoherencePhi))
	statePath := filepath.Join(p.cfg.Protocol.ReportDir, "wavefunction_state.json")
	if err := p.writeReport("wavefunction_state.json", state); err != nil {
		return "", fmt.Errorf("wavefunction state: %w", err)
	}
	result.WriteString("\n")

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	// Step 3: Crystallize into holographic memory
	result.WriteString("Step 3: Crystallization\n")
	crystal, err := p.store.Crystallize(gammaLevel, state.CoherencePhi, map[string]any{
		"phase":          fmt.Sprintf("Gamma-%d", gammaLevel),
		"coherence_phi":  state.CoherencePhi,
		"amplitude":      state.AmplitudeMagnitude,
		"kinetics_phase": report.Phase,
	})
	if err != nil {
		return "", fmt.Errorf("crystallization failed: %w", err)
	}
	result.WriteString(fmt.Sprintf("Crystal %s stored\n\n", crystal.ID))

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	// Step 4: Coherence analysis over the freshly written reports
	result.WriteString("Step 4: Coherence analysis\n")
	analyzer := coherence.NewAnalyzer(filepath.Dir(p.cfg.Protocol.ReportDir))
	global, err := analyzer.FullReport(state.Timestamp,
		[]string{filepath.Base(p.cfg.Protocol.ReportDir)}, false)
	if err != nil {
		return "", fmt.Errorf("coherence analysis failed: %w", err)
	}
	if err := p.writeReport("coherence_report.json", global); err != nil {
		return "", fmt.Errorf("coherence report: %w", err)
	}
	result.WriteString(fmt.Sprintf("Global coherence: %.6f\n\n", global.GlobalCoherence))

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	// Step 5: Master index synchronization
	result.WriteString("Step 5: Index synchronization\n")
	ix, err := protocol.Load(p.cfg.Protocol.IndexPath)
	if err != nil {
		return "", fmt.Errorf("index load failed: %w", err)
	}
	phase, err := ix.SyncFromWavefunction(statePath, gammaLevel,
		fmt.Sprintf("Γ-%d Autonomous Protocol", gammaLevel))
	if err != nil {
		return "", fmt.Errorf("index sync failed: %w", err)
	}
	if err := ix.Save(); err != nil {
		return "", fmt.Errorf("index save failed: %w", err)
	}
	result.WriteString(fmt.Sprintf("Phase Γ-%d, coherence %.6f\n\n", phase.GammaLevel, phase.CoherencePhi))

	result.WriteString("=== Phase Complete ===\n")
	p.logger.Info("phase complete", "gamma_level", gammaLevel, "coherence", phase.CoherencePhi)

	return result.String(), nil
}

func (p *Pipeline) writeReport(name string, v any) error {
	if err := os.MkdirAll(p.cfg.Protocol.ReportDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(p.cfg.Protocol.ReportDir, name), data, 0o644)
}
