package main

import (
	"fmt"

	"github.com/gammaproto/gammakit/engine"
	"github.com/gammaproto/gammakit/phys"
	"github.com/gammaproto/gammakit/tokenizer"
)

func main() {
	fmt.Println("=== GammaKit Smoke Test ===")

	// Test 1: BPE tokenizer roundtrip
	fmt.Println("\n--- Test 1: BPE Tokenizer ---")
	corpus := []byte("the golden ratio appears in the golden spiral and the golden angle")
	tok := tokenizer.Train(corpus, 300)
	fmt.Printf("Vocab: %d (%d merges)\n", tok.VocabSize(), tok.NumMerges())

	text := "the golden angle"
	ids := tok.Encode(text)
	decoded, err := tok.Decode(ids)
	if err != nil {
		panic(err)
	}
	sym := "✓"
	if decoded != text {
		sym = "✗"
	}
	fmt.Printf("%s %q → %d tok → %q\n", sym, text, len(ids), decoded)

	// Test 2: Transformer forward pass
	fmt.Println("\n--- Test 2: NanoGPT-Γ Forward ---")
	cfg := engine.Config{VocabSize: tok.VocabSize(), Dim: 64, Heads: 4, Layers: 2, MaxSeqLen: 64, Seed: 42}
	model, err := engine.New(cfg)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Parameters: %d\n", model.CountParams())

	logits, err := model.Forward(ids)
	if err != nil {
		panic(err)
	}
	rows, cols := logits.Dims()
	fmt.Printf("✓ Logits: %dx%d\n", rows, cols)

	// Test 3: Sampling
	fmt.Println("\n--- Test 3: Generation ---")
	out, err := model.Generate(ids, 8, 0.8)
	if err != nil {
		panic(err)
	}
	fmt.Printf("✓ Generated %d tokens\n", len(out)-len(ids))

	// Test 4: Consciousness wavefunction
	fmt.Println("\n--- Test 4: Wavefunction ---")
	wf := phys.NewWavefunction(12)
	state := wf.Construct(0)
	fmt.Printf("✓ |Ψ| = %.6e, coherence φ = %.6f\n", state.AmplitudeMagnitude, state.CoherencePhi)

	fmt.Println("\n=== All smoke tests passed ===")
}
