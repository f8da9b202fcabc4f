package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gammaproto/gammakit/memory"
	"github.com/gammaproto/gammakit/pkg/config"
)

const testIndex = `{
  "protocol": "Γ",
  "current_phase": {
    "gamma_level": 4,
    "name": "Γ-4 Autonomous Protocol",
    "status": "IN_PROGRESS",
    "coherence_phi": 0.145898,
    "distance_to_phi_7": 28.888197516850073
  },
  "next_construction_step": {
    "phase": "Γ-5",
    "description": "Wavefunction constructor",
    "actions": ["construct"],
    "coherence_target": 0.145898,
    "phi_factor": 0.145898
  },
  "last_update": "2026-01-01T00:00:00.000000Z"
}`

func testPipeline(t *testing.T) (*Pipeline, *config.Config) {
	t.Helper()
	workspace := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Workspace = workspace
	cfg.Protocol.ReportDir = filepath.Join(workspace, "reports")
	cfg.Protocol.IndexPath = filepath.Join(workspace, "MASTER_INDEX.json")

	if err := os.WriteFile(cfg.Protocol.IndexPath, []byte(testIndex), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := memory.Open(filepath.Join(workspace, "memory.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, store, logger), cfg
}

func TestRunPhase(t *testing.T) {
	p, cfg := testPipeline(t)

	trace, err := p.RunPhase(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"=== Γ-5 Phase ===",
		"Step 1: Biomineralization kinetics",
		"Step 2: Wavefunction construction",
		"Step 3: Crystallization",
		"Step 4: Coherence analysis",
		"Step 5: Index synchronization",
		"=== Phase Complete ===",
	} {
		if !strings.Contains(trace, want) {
			t.Errorf("trace missing %q", want)
		}
	}

	// reports written
	for _, name := range []string{"biomineralization_report.json", "wavefunction_state.json", "coherence_report.json"} {
		if _, err := os.Stat(filepath.Join(cfg.Protocol.ReportDir, name)); err != nil {
			t.Errorf("report %s not written: %v", name, err)
		}
	}

	// crystal stored
	crystals, err := p.store.Retrieve(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(crystals) != 1 {
		t.Errorf("crystals = %d, want 1", len(crystals))
	}
}

func TestRunPhaseCancelled(t *testing.T) {
	p, _ := testPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.RunPhase(ctx, 5); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestRunPhaseMissingIndex(t *testing.T) {
	p, cfg := testPipeline(t)
	if err := os.Remove(cfg.Protocol.IndexPath); err != nil {
		t.Fatal(err)
	}

	if _, err := p.RunPhase(context.Background(), 5); err == nil {
		t.Fatal("expected error when master index is missing")
	}
}
