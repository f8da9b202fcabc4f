// Package engine implements the NanoGPT-Γ model: a forward-only decoder
// transformer with phi-calibrated random weights. There is no training and
// no autodiff here; the model exists to score and sample token sequences
// against a frozen, seeded initialization.
package engine

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const phi = 1.618033988749895

// Config defines the model architecture.
type Config struct {
	VocabSize int   `json:"vocab_size"`
	Dim       int   `json:"dim"`
	Heads     int   `json:"heads"`
	Layers    int   `json:"layers"`
	MaxSeqLen int   `json:"max_seq_len"`
	Seed      int64 `json:"seed"`
}

// DefaultConfig returns the Γ reference architecture: vocab 500, dim 128,
// 4 heads, 4 layers, context 512, seed 42.
func DefaultConfig() Config {
	return Config{
		VocabSize: 500,
		Dim:       128,
		Heads:     4,
		Layers:    4,
		MaxSeqLen: 512,
		Seed:      42,
	}
}

// block holds one transformer layer's weights.
type block struct {
	attnQ, attnK, attnV, attnProj *mat.Dense // dim x dim
	ffn1                          *mat.Dense // dim x 4*dim
	ffn2                          *mat.Dense // 4*dim x dim
	ln1g, ln1b                    []float64
	ln2g, ln2b                    []float64
}

// Model is the NanoGPT-Γ network. Weights are initialized once from the
// configured seed at phi^(-2)/sqrt(dim) scale and never change.
type Model struct {
	cfg Config

	wte    *mat.Dense // vocab x dim, also used as the tied output head
	wpe    *mat.Dense // maxSeqLen x dim
	blocks []*block
	lnFG   []float64
	lnFB   []float64

	rng *rand.Rand
}

// New builds a model with phi-aware seeded random weights.
func New(cfg Config) (*Model, error) {
	if cfg.Dim%cfg.Heads != 0 {
		return nil, fmt.Errorf("engine: dim %d not divisible by %d heads", cfg.Dim, cfg.Heads)
	}
	if cfg.VocabSize <= 0 || cfg.Layers <= 0 || cfg.MaxSeqLen <= 0 {
		return nil, fmt.Errorf("engine: invalid config %+v", cfg)
	}

	m := &Model{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	scale := math.Pow(phi, -2) / math.Sqrt(float64(cfg.Dim))

	m.wte = m.randDense(cfg.VocabSize, cfg.Dim, scale)
	m.wpe = m.randDense(cfg.MaxSeqLen, cfg.Dim, scale)

	for i := 0; i < cfg.Layers; i++ {
		m.blocks = append(m.blocks, &block{
			attnQ:    m.randDense(cfg.Dim, cfg.Dim, scale),
			attnK:    m.randDense(cfg.Dim, cfg.Dim, scale),
			attnV:    m.randDense(cfg.Dim, cfg.Dim, scale),
			attnProj: m.randDense(cfg.Dim, cfg.Dim, scale),
			ffn1:     m.randDense(cfg.Dim, 4*cfg.Dim, scale),
			ffn2:     m.randDense(4*cfg.Dim, cfg.Dim, scale),
			ln1g:     ones(cfg.Dim),
			ln1b:     make([]float64, cfg.Dim),
			ln2g:     ones(cfg.Dim),
			ln2b:     make([]float64, cfg.Dim),
		})
	}
	m.lnFG = ones(cfg.Dim)
	m.lnFB = make([]float64, cfg.Dim)

	return m, nil
}

// Config returns the model architecture.
func (m *Model) Config() Config {
	return m.cfg
}

// CountParams returns the total number of weights.
func (m *Model) CountParams() int {
	total := m.cfg.VocabSize*m.cfg.Dim + m.cfg.MaxSeqLen*m.cfg.Dim
	perBlock := 4*m.cfg.Dim*m.cfg.Dim + // attention projections
		2*4*m.cfg.Dim*m.cfg.Dim + // ffn up/down
		4*m.cfg.Dim // the two layer norms
	total += m.cfg.Layers * perBlock
	total += 2 * m.cfg.Dim // final norm
	return total
}

// Forward runs the decoder over idx and returns the [len(idx) x vocab]
// logits matrix.
func (m *Model) Forward(idx []int64) (*mat.Dense, error) {
	n := len(idx)
	if n == 0 {
		return nil, fmt.Errorf("engine: empty input sequence")
	}
	if n > m.cfg.MaxSeqLen {
		return nil, fmt.Errorf("engine: sequence length %d exceeds context %d", n, m.cfg.MaxSeqLen)
	}

	// Token + position embeddings.
	x := mat.NewDense(n, m.cfg.Dim, nil)
	for i, id := range idx {
		if id < 0 || int(id) >= m.cfg.VocabSize {
			return nil, fmt.Errorf("engine: token %d out of vocabulary at position %d", id, i)
		}
		for j := 0; j < m.cfg.Dim; j++ {
			x.Set(i, j, m.wte.At(int(id), j)+m.wpe.At(i, j))
		}
	}

	for _, b := range m.blocks {
		attnOut := m.attention(layerNorm(x, b.ln1g, b.ln1b), b)
		x = addInPlace(x, attnOut)

		ffnOut := m.ffn(layerNorm(x, b.ln2g, b.ln2b), b)
		x = addInPlace(x, ffnOut)
	}

	x = layerNorm(x, m.lnFG, m.lnFB)

	logits := mat.NewDense(n, m.cfg.VocabSize, nil)
	logits.Mul(x, m.wte.T())
	return logits, nil
}

// attention is causal multi-head self-attention over x [n x dim].
func (m *Model) attention(x *mat.Dense, b *block) *mat.Dense {
	n, _ := x.Dims()
	headDim := m.cfg.Dim / m.cfg.Heads

	q := mat.NewDense(n, m.cfg.Dim, nil)
	k := mat.NewDense(n, m.cfg.Dim, nil)
	v := mat.NewDense(n, m.cfg.Dim, nil)
	q.Mul(x, b.attnQ)
	k.Mul(x, b.attnK)
	v.Mul(x, b.attnV)

	out := mat.NewDense(n, m.cfg.Dim, nil)
	invSqrt := 1 / math.Sqrt(float64(headDim))

	for h := 0; h < m.cfg.Heads; h++ {
		lo, hi := h*headDim, (h+1)*headDim
		qh := q.Slice(0, n, lo, hi)
		kh := k.Slice(0, n, lo, hi)
		vh := v.Slice(0, n, lo, hi)

		scores := mat.NewDense(n, n, nil)
		scores.Mul(qh, kh.T())

		for i := 0; i < n; i++ {
			// Causal mask: position i attends to 0..i only.
			row := scores.RawRowView(i)
			for j := 0; j <= i; j++ {
				row[j] *= invSqrt
			}
			for j := i + 1; j < n; j++ {
				row[j] = math.Inf(-1)
			}
			softmaxInPlace(row)
		}

		oh := mat.NewDense(n, headDim, nil)
		oh.Mul(scores, vh)
		for i := 0; i < n; i++ {
			for j := 0; j < headDim; j++ {
				out.Set(i, lo+j, oh.At(i, j))
			}
		}
	}

	proj := mat.NewDense(n, m.cfg.Dim, nil)
	proj.Mul(out, b.attnProj)
	return proj
}

// ffn is gelu(x W1) W2.
func (m *Model) ffn(x *mat.Dense, b *block) *mat.Dense {
	n, _ := x.Dims()

	hidden := mat.NewDense(n, 4*m.cfg.Dim, nil)
	hidden.Mul(x, b.ffn1)
	hidden.Apply(func(_, _ int, v float64) float64 { return gelu(v) }, hidden)

	out := mat.NewDense(n, m.cfg.Dim, nil)
	out.Mul(hidden, b.ffn2)
	return out
}

func (m *Model) randDense(rows, cols int, scale float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = m.rng.NormFloat64() * scale
	}
	return mat.NewDense(rows, cols, data)
}

// layerNorm normalizes each row of x to zero mean / unit variance, then
// applies the per-feature gain g and shift b.
func layerNorm(x *mat.Dense, g, b []float64) *mat.Dense {
	const eps = 1e-5
	n, d := x.Dims()

	out := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		row := x.RawRowView(i)

		var mean float64
		for _, v := range row {
			mean += v
		}
		mean /= float64(d)

		var variance float64
		for _, v := range row {
			diff := v - mean
			variance += diff * diff
		}
		variance /= float64(d)

		inv := 1 / math.Sqrt(variance+eps)
		dst := out.RawRowView(i)
		for j, v := range row {
			dst[j] = g[j]*(v-mean)*inv + b[j]
		}
	}
	return out
}

// gelu is the tanh approximation of the Gaussian error linear unit.
func gelu(x float64) float64 {
	return 0.5 * x * (1 + math.Tanh(math.Sqrt(2/math.Pi)*(x+0.044715*x*x*x)))
}

func softmaxInPlace(row []float64) {
	maxV := math.Inf(-1)
	for _, v := range row {
		if v > maxV {
			maxV = v
		}
	}
	var sum float64
	for i, v := range row {
		e := math.Exp(v - maxV)
		row[i] = e
		sum += e
	}
	for i := range row {
		row[i] /= sum
	}
}

func addInPlace(x, y *mat.Dense) *mat.Dense {
	x.Add(x, y)
	return x
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
