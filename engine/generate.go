package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Generate extends idx by maxNewTokens sampled tokens. Each step runs the
// forward pass over the last MaxSeqLen tokens, divides the final position's
// logits by temperature and samples from the softmax distribution using the
// model's seeded generator, so generation is reproducible per model
// instance.
func (m *Model) Generate(idx []int64, maxNewTokens int, temperature float64) ([]int64, error) {
	if temperature <= 0 {
		return nil, fmt.Errorf("engine: temperature must be positive, got %g", temperature)
	}

	out := make([]int64, len(idx))
	copy(out, idx)

	for step := 0; step < maxNewTokens; step++ {
		window := out
		if len(window) > m.cfg.MaxSeqLen {
			window = window[len(window)-m.cfg.MaxSeqLen:]
		}

		logits, err := m.Forward(window)
		if err != nil {
			return nil, fmt.Errorf("engine: generate step %d: %w", step, err)
		}

		n, _ := logits.Dims()
		last := make([]float64, m.cfg.VocabSize)
		copy(last, logits.RawRowView(n-1))
		for i := range last {
			last[i] /= temperature
		}
		softmaxInPlace(last)

		out = append(out, m.sample(last))
	}
	return out, nil
}

// sample draws a token id from the probability vector.
func (m *Model) sample(probs []float64) int64 {
	r := m.rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += p
		if r < cum {
			return int64(i)
		}
	}
	return int64(len(probs) - 1)
}

// checkpoint is the JSON layout of a saved model.
type checkpoint struct {
	Config Config `json:"config"`

	WTE    [][]float64 `json:"wte"`
	WPE    [][]float64 `json:"wpe"`
	Blocks []blockData `json:"blocks"`
	LnFG   []float64   `json:"ln_f_g"`
	LnFB   []float64   `json:"ln_f_b"`
}

type blockData struct {
	AttnQ    [][]float64 `json:"attn_q"`
	AttnK    [][]float64 `json:"attn_k"`
	AttnV    [][]float64 `json:"attn_v"`
	AttnProj [][]float64 `json:"attn_proj"`
	FFN1     [][]float64 `json:"ffn_1"`
	FFN2     [][]float64 `json:"ffn_2"`
	Ln1G     []float64   `json:"ln1_g"`
	Ln1B     []float64   `json:"ln1_b"`
	Ln2G     []float64   `json:"ln2_g"`
	Ln2B     []float64   `json:"ln2_b"`
}

// Save writes the full weight set to path as JSON.
func (m *Model) Save(path string) error {
	ck := checkpoint{
		Config: m.cfg,
		WTE:    denseToRows(m.wte),
		WPE:    denseToRows(m.wpe),
		LnFG:   m.lnFG,
		LnFB:   m.lnFB,
	}
	for _, b := range m.blocks {
		ck.Blocks = append(ck.Blocks, blockData{
			AttnQ:    denseToRows(b.attnQ),
			AttnK:    denseToRows(b.attnK),
			AttnV:    denseToRows(b.attnV),
			AttnProj: denseToRows(b.attnProj),
			FFN1:     denseToRows(b.ffn1),
			FFN2:     denseToRows(b.ffn2),
			Ln1G:     b.ln1g,
			Ln1B:     b.ln1b,
			Ln2G:     b.ln2g,
			Ln2B:     b.ln2b,
		})
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(ck); err != nil {
		return fmt.Errorf("engine: encode checkpoint: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("engine: write checkpoint: %w", err)
	}
	return nil
}

func denseToRows(d *mat.Dense) [][]float64 {
	rows, cols := d.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, cols)
		copy(row, d.RawRowView(i))
		out[i] = row
	}
	return out
}
