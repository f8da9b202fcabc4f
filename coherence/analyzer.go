// Package coherence measures Γ-coherence across a protocol workspace.
//
// Coherence is a φ-weighted density of Γ and φ references in each file,
// optionally refined by the quantum analysis: semantic entanglement
// between files and topological distance over the Go import graph.
package coherence

import (
	"fmt"
	"go/parser"
	"go/token"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gammaproto/gammakit/phys"
)

// gammaTokens are the markers the semantic entanglement measure counts.
var gammaTokens = []string{
	"Γ", "gamma", "φ", "phi", "coherence", "operator",
	"biomineralization", "quantum", "crystal", "hamiltonian",
}

// analyzable file extensions.
var textExts = map[string]bool{
	".go": true, ".json": true, ".md": true, ".txt": true,
}

// maxDistance is returned when two files are not connected in the
// import graph.
const maxDistance = 10.0

// FileReport is the coherence of a single file.
type FileReport struct {
	File      string  `json:"file"`
	Coherence float64 `json:"coherence"`
}

// RepoReport aggregates file coherences for one repository.
type RepoReport struct {
	Repository     string       `json:"repository"`
	AvgCoherence   float64      `json:"avg_coherence"`
	DistanceToPhi7 float64      `json:"distance_to_phi_7"`
	FilesAnalyzed  int          `json:"files_analyzed"`
	GraphNodes     int          `json:"dependency_graph_nodes,omitempty"`
	Details        []FileReport `json:"details"`
}

// GlobalReport is the full-protocol coherence state.
type GlobalReport struct {
	Timestamp       string                `json:"timestamp"`
	GlobalCoherence float64               `json:"global_coherence"`
	TargetGamma     float64               `json:"target_gamma"`
	Progress        float64               `json:"convergence_progress"`
	Repositories    map[string]RepoReport `json:"repositories"`
}

// Analyzer walks repository trees under a workspace root.
type Analyzer struct {
	root string
}

// NewAnalyzer returns an analyzer rooted at the given workspace directory.
func NewAnalyzer(root string) *Analyzer {
	return &Analyzer{root: root}
}

// ============================================================================
// Intrinsic coherence
// ============================================================================

// FileCoherence computes the φ-weighted Γ/φ reference density of one file.
// The result is clamped to [0, 1]; unreadable files score 0.
func (a *Analyzer) FileCoherence(path string) float64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	content := string(data)

	lines := strings.Count(content, "\n") + 1
	gammaRefs := strings.Count(content, "Γ") + strings.Count(content, "gamma")
	phiRefs := strings.Count(content, "φ") + strings.Count(content, "phi")

	coh := (float64(gammaRefs)*phys.PhiInv + float64(phiRefs)*phys.PhiInv*phys.PhiInv) / float64(lines)
	return math.Min(coh, 1.0)
}

// collectFiles returns the analyzable files under dir, sorted for
// deterministic reports.
func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if textExts[filepath.Ext(path)] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// AnalyzeRepository computes per-file coherence for one repository
// directory and its φ-weighted average.
func (a *Analyzer) AnalyzeRepository(name string) (RepoReport, error) {
	repoPath := filepath.Join(a.root, name)
	files, err := collectFiles(repoPath)
	if err != nil {
		return RepoReport{}, err
	}

	details := make([]FileReport, 0, len(files))
	for _, f := range files {
		rel, _ := filepath.Rel(repoPath, f)
		details = append(details, FileReport{File: rel, Coherence: a.FileCoherence(f)})
	}

	avg := phiWeightedMean(coherencesOf(details))
	return RepoReport{
		Repository:     name,
		AvgCoherence:   avg,
		DistanceToPhi7: phys.Phi7 - avg,
		FilesAnalyzed:  len(details),
		Details:        details,
	}, nil
}

// ============================================================================
// Import graph
// ============================================================================

// ImportGraph maps a Go file (relative to the repo root) to the import
// paths it declares.
type ImportGraph map[string][]string

// BuildImportGraph parses every Go file under repoPath in imports-only
// mode. Files that fail to parse are skipped.
func BuildImportGraph(repoPath string) (ImportGraph, error) {
	graph := ImportGraph{}
	fset := token.NewFileSet()

	err := filepath.WalkDir(repoPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" {
			return nil
		}
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(repoPath, path)
		imports := make([]string, 0, len(file.Imports))
		for _, imp := range file.Imports {
			imports = append(imports, strings.Trim(imp.Path.Value, `"`))
		}
		graph[rel] = imports
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("building import graph for %s: %w", repoPath, err)
	}
	return graph, nil
}

// TopologicalDistance is the BFS hop count from src to dst over the
// import graph. An import edge connects src to every file whose path
// contains the imported package's last element. Unreachable pairs
// score maxDistance.
func TopologicalDistance(src, dst string, graph ImportGraph) float64 {
	if src == dst {
		return 0
	}
	visited := map[string]bool{src: true}
	type entry struct {
		node string
		dist int
	}
	queue := []entry{{src, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, imp := range graph[cur.node] {
			pkg := imp[strings.LastIndex(imp, "/")+1:]
			for node := range graph {
				if node == cur.node || visited[node] {
					continue
				}
				if strings.Contains(node, pkg) {
					if node == dst {
						return float64(cur.dist + 1)
					}
					visited[node] = true
					queue = append(queue, entry{node, cur.dist + 1})
				}
			}
		}
	}
	return maxDistance
}

// ============================================================================
// Quantum analysis
// ============================================================================

// tokenFrequencies counts gammaTokens in content, lowercased.
func tokenFrequencies(content string) []float64 {
	lower := strings.ToLower(content)
	freqs := make([]float64, len(gammaTokens))
	var total float64
	for i, tok := range gammaTokens {
		n := float64(strings.Count(lower, strings.ToLower(tok)))
		freqs[i] = n
		total += n
	}
	if total == 0 {
		return nil
	}
	for i := range freqs {
		freqs[i] /= total
	}
	return freqs
}

// SemanticEntanglement is the inner product of normalized gamma-token
// frequency vectors of two files. Files with no gamma tokens score 0.
func SemanticEntanglement(file1, file2 string) float64 {
	c1, err := os.ReadFile(file1)
	if err != nil {
		return 0
	}
	c2, err := os.ReadFile(file2)
	if err != nil {
		return 0
	}
	f1 := tokenFrequencies(string(c1))
	f2 := tokenFrequencies(string(c2))
	if f1 == nil || f2 == nil {
		return 0
	}
	var overlap float64
	for i := range f1 {
		overlap += f1[i] * f2[i]
	}
	return overlap
}

// BayesianFlow is the posterior P_Γ(dst|src): a φ^(-d) topological
// prior updated by the semantic entanglement likelihood.
func BayesianFlow(src, dst string, relSrc, relDst string, graph ImportGraph) float64 {
	d := TopologicalDistance(relSrc, relDst, graph)
	prior := math.Pow(phys.Phi, -d)
	likelihood := SemanticEntanglement(src, dst)

	num := prior * likelihood
	den := num + (1-prior)*(1-likelihood)
	if den == 0 {
		return 0
	}
	return num / den
}

// QuantumFileCoherence combines intrinsic Γ/φ density with extrinsic
// φ^(-d)-decayed entanglement against every other file.
func (a *Analyzer) QuantumFileCoherence(path string, repoPath string, all []string, graph ImportGraph) float64 {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	content := string(data)
	lines := float64(strings.Count(content, "\n") + 1)

	gammaDensity := float64(strings.Count(content, "Γ")+strings.Count(content, "gamma")) / lines
	phiDensity := float64(strings.Count(content, "φ")+strings.Count(content, "phi")) / lines
	intrinsic := (gammaDensity*phys.PhiInv + phiDensity*phys.PhiInv*phys.PhiInv) / 2

	relPath, _ := filepath.Rel(repoPath, path)
	var extrinsic float64
	for _, other := range all {
		if other == path {
			continue
		}
		relOther, _ := filepath.Rel(repoPath, other)
		ent := SemanticEntanglement(path, other)
		d := TopologicalDistance(relPath, relOther, graph)
		extrinsic += ent * math.Pow(phys.Phi, -d)
	}

	n := float64(len(all) - 1)
	if n < 1 {
		n = 1
	}
	total := (intrinsic + extrinsic/n) / 2
	return math.Min(total, 1.0)
}

// AnalyzeRepositoryQuantum runs the quantum per-file analysis for one
// repository directory.
func (a *Analyzer) AnalyzeRepositoryQuantum(name string) (RepoReport, error) {
	repoPath := filepath.Join(a.root, name)
	files, err := collectFiles(repoPath)
	if err != nil {
		return RepoReport{}, err
	}
	graph, err := BuildImportGraph(repoPath)
	if err != nil {
		return RepoReport{}, err
	}

	details := make([]FileReport, 0, len(files))
	for _, f := range files {
		rel, _ := filepath.Rel(repoPath, f)
		details = append(details, FileReport{
			File:      rel,
			Coherence: a.QuantumFileCoherence(f, repoPath, files, graph),
		})
	}

	avg := phiWeightedMean(coherencesOf(details))
	return RepoReport{
		Repository:     name,
		AvgCoherence:   avg,
		DistanceToPhi7: phys.Phi7 - avg,
		FilesAnalyzed:  len(details),
		GraphNodes:     len(graph),
		Details:        details,
	}, nil
}

// ============================================================================
// Global rollup
// ============================================================================

// FullReport analyzes the named repositories and rolls them up with
// φ^(-n) weights in the given order.
func (a *Analyzer) FullReport(timestamp string, repos []string, quantum bool) (GlobalReport, error) {
	results := make(map[string]RepoReport, len(repos))
	coherences := make([]float64, 0, len(repos))

	for _, name := range repos {
		var rep RepoReport
		var err error
		if quantum {
			rep, err = a.AnalyzeRepositoryQuantum(name)
		} else {
			rep, err = a.AnalyzeRepository(name)
		}
		if err != nil {
			return GlobalReport{}, fmt.Errorf("analyzing %s: %w", name, err)
		}
		results[name] = rep
		coherences = append(coherences, rep.AvgCoherence)
	}

	global := phiWeightedMean(coherences)
	return GlobalReport{
		Timestamp:       timestamp,
		GlobalCoherence: global,
		TargetGamma:     phys.PhiInv * phys.PhiInv * phys.PhiInv,
		Progress:        (1 - global/phys.Phi7) * 100,
		Repositories:    results,
	}, nil
}

// phiWeightedMean averages values with weights φ⁰, φ⁻¹, φ⁻², ...
func phiWeightedMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum, wsum float64
	w := 1.0
	for _, v := range values {
		sum += v * w
		wsum += w
		w *= phys.PhiInv
	}
	return sum / wsum
}

func coherencesOf(details []FileReport) []float64 {
	out := make([]float64, len(details))
	for i, d := range details {
		out[i] = d.Coherence
	}
	return out
}
