package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gammaproto/gammakit/protocol"
)

func main() {
	var (
		indexPath = flag.String("index", "MASTER_INDEX.json", "master index file")
		statePath = flag.String("state", ".gamma/wavefunction_state.json", "wavefunction state file")
		level     = flag.Int("level", 5, "current Γ-level")
		name      = flag.String("name", "Wavefunction Constructor & Biomineralization Simulator", "phase name")
		advance   = flag.Bool("advance", false, "attempt advancement to the next Γ-level")
	)
	flag.Parse()

	ix, err := protocol.Load(*indexPath)
	if err != nil {
		fatal("%v", err)
	}

	phase, err := ix.SyncFromWavefunction(*statePath, *level, *name)
	if err != nil {
		fatal("sync: %v", err)
	}
	fmt.Printf("✓ MASTER_INDEX synced to Γ-%d\n", phase.GammaLevel)
	fmt.Printf("  Wavefunction coherence: %.6f\n", phase.CoherencePhi)
	fmt.Printf("  Distance to φ⁷: %.6f\n", phase.DistanceToPhi7)

	if *advance {
		advanced, err := ix.AdvanceToNext()
		if err != nil {
			fatal("advance: %v", err)
		}
		if advanced {
			next, err := ix.NextStep()
			if err != nil {
				fatal("advance: %v", err)
			}
			fmt.Printf("✓ Advanced; next target %.6f (%s)\n", next.CoherenceTarget, next.Phase)
		} else {
			fmt.Println("✗ Coherence not yet at target")
		}
	}

	if err := ix.Save(); err != nil {
		fatal("save: %v", err)
	}
	fmt.Printf("✓ MASTER_INDEX updated: %s\n", *indexPath)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
