package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gammaproto/gammakit/coherence"
	"github.com/gammaproto/gammakit/phys"
)

func main() {
	var (
		outDir  = flag.String("out", ".gamma", "report output directory")
		root    = flag.String("root", ".", "workspace root for coherence analysis")
		repos   = flag.String("repos", "", "comma-separated repository dirs to analyze")
		quantum = flag.Bool("quantum", false, "run the quantum coherence analysis")
	)
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fatal("creating output dir: %v", err)
	}

	fmt.Println("=== Γ-Protocol Report Generators ===")

	// kinetics
	kinetics := phys.NewKinetics()
	report, _ := kinetics.GenerateReport()
	writeReport(*outDir, "biomineralization_report.json", report)
	fmt.Printf("  SiO2 saturation: %.1f days\n", report.SaturationTimes.SiO2Days)

	// hamiltonian
	integrator := phys.NewHamiltonianIntegrator()
	hState := integrator.Integrate()
	writeReport(*outDir, "hamiltonian_state.json", hState)

	// tripartite coupling
	validator := phys.NewTripartiteValidator()
	validation := validator.Report()
	writeReport(*outDir, "tripartite_validation.json", validation)

	// wavefunction
	wf := phys.NewWavefunction(12)
	wfState := wf.Construct(0)
	writeReport(*outDir, "wavefunction_state.json", wfState)
	fmt.Printf("  Wavefunction coherence: %.6f\n", wfState.CoherencePhi)

	// coherence rollup
	if *repos != "" {
		names := splitList(*repos)
		analyzer := coherence.NewAnalyzer(*root)
		global, err := analyzer.FullReport(wfState.Timestamp, names, *quantum)
		if err != nil {
			fatal("coherence analysis: %v", err)
		}
		name := "coherence_report.json"
		if *quantum {
			name = "quantum_coherence_report.json"
		}
		writeReport(*outDir, name, global)
		fmt.Printf("  Global coherence: %.6f\n", global.GlobalCoherence)
	}

	fmt.Println("✓ All reports generated")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeReport(dir, name string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("encoding %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		fatal("writing %s: %v", name, err)
	}
	fmt.Printf("✓ %s\n", path)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
