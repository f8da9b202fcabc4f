package tokenizer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidState reports a state file whose vocabulary and merge table
// are inconsistent with each other.
var ErrInvalidState = errors.New("invalid tokenizer state")

// tokenizerState is the on-disk JSON layout:
//
//	{
//	  "vocab_size": 500,
//	  "vocab":  {"97": [97], "256": [97, 97], ...},
//	  "merges": {"97,97": 256, ...}
//	}
//
// Consumers reconstruct vocabulary and merge table from this file without
// retraining.
type tokenizerState struct {
	VocabSize int              `json:"vocab_size"`
	Vocab     map[string][]int `json:"vocab"`
	Merges    map[string]int64 `json:"merges"`
}

// Save writes the tokenizer state to path as indented JSON.
func (t *BPETokenizer) Save(path string) error {
	state := tokenizerState{
		VocabSize: t.targetSize,
		Vocab:     make(map[string][]int, len(t.vocab)),
		Merges:    make(map[string]int64, len(t.merges)),
	}
	for id, b := range t.vocab {
		vals := make([]int, len(b))
		for i, v := range b {
			vals[i] = int(v)
		}
		state.Vocab[strconv.FormatInt(id, 10)] = vals
	}
	for p, id := range t.merges {
		state.Merges[fmt.Sprintf("%d,%d", p.A, p.B)] = id
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("encode tokenizer state: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write tokenizer state: %w", err)
	}
	return nil
}

// Load reads a state file written by Save and reconstructs the tokenizer.
//
// The merge-table invariant is checked: every merge (a,b) -> id must have
// vocab entries for a, b and id, and vocab[id] must be vocab[a] followed by
// vocab[b]. Violations fail with an error wrapping ErrInvalidState.
func Load(path string) (*BPETokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokenizer state: %w", err)
	}

	var state tokenizerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse tokenizer state: %w", err)
	}

	t := &BPETokenizer{
		vocab:      make(map[int64][]byte, len(state.Vocab)),
		merges:     make(map[Pair]int64, len(state.Merges)),
		targetSize: state.VocabSize,
	}

	for key, vals := range state.Vocab {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: vocab key %q", ErrInvalidState, key)
		}
		b := make([]byte, len(vals))
		for i, v := range vals {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("%w: vocab %d has byte value %d", ErrInvalidState, id, v)
			}
			b[i] = byte(v)
		}
		t.vocab[id] = b
	}

	for key, id := range state.Merges {
		a, b, ok := splitPairKey(key)
		if !ok {
			return nil, fmt.Errorf("%w: merge key %q", ErrInvalidState, key)
		}
		t.merges[Pair{a, b}] = id
	}

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate checks the vocabulary/merge-table invariant.
func (t *BPETokenizer) validate() error {
	for i := 0; i < NumBytes; i++ {
		b, ok := t.vocab[int64(i)]
		if !ok || len(b) != 1 || b[0] != byte(i) {
			return fmt.Errorf("%w: byte token %d missing or not identity", ErrInvalidState, i)
		}
	}
	for p, id := range t.merges {
		left, okL := t.vocab[p.A]
		right, okR := t.vocab[p.B]
		merged, okM := t.vocab[id]
		if !okL || !okR || !okM {
			return fmt.Errorf("%w: merge (%d,%d)->%d references missing vocab entry",
				ErrInvalidState, p.A, p.B, id)
		}
		if !bytes.Equal(merged, concatBytes(left, right)) {
			return fmt.Errorf("%w: vocab %d is not the concatenation of %d and %d",
				ErrInvalidState, id, p.A, p.B)
		}
	}
	return nil
}

func splitPairKey(key string) (int64, int64, bool) {
	left, right, found := strings.Cut(key, ",")
	if !found {
		return 0, 0, false
	}
	a, err := strconv.ParseInt(left, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.ParseInt(right, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return a, b, true
}
