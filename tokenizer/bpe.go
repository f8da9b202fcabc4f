package tokenizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ============================================================================
// Token ID layout:
//
//   0-255:  raw bytes (UTF-8 byte values)
//   256+:   BPE merged tokens, one id per merge, in creation order
//           (a lower id means the merge was learned earlier)
//
// The merge table maps an ordered pair of token ids to the id the pair
// merges into. Every merged id owns a vocab entry whose byte sequence is
// the concatenation of its two constituents' byte sequences; Load rejects
// state files that violate this.
// ============================================================================

const (
	// NumBytes is the number of reserved single-byte tokens.
	NumBytes = 256

	// FirstMergeID is the id assigned to the first learned merge.
	FirstMergeID = int64(256)
)

// ErrUnknownToken reports a token id with no vocabulary entry.
// Decode treats it as fatal: silently dropping the id would corrupt the
// output without any signal to the caller.
var ErrUnknownToken = errors.New("unknown token id")

// Pair is an ordered pair of adjacent token ids.
type Pair struct {
	A, B int64
}

// BPETokenizer is a byte-level BPE codec (Sennrich et al., 2016).
//
// Training: count adjacent pairs, merge the most frequent into a new token,
// repeat. Encoding: repeatedly apply whichever learned merge has the lowest
// id among the pairs present, which reproduces the training segmentation.
// Decoding: concatenate per-token byte sequences.
//
// Vocabulary and merge table are frozen after training (or Load); Encode
// and Decode never mutate them, so a tokenizer is safe for concurrent use
// once built.
type BPETokenizer struct {
	vocab      map[int64][]byte
	merges     map[Pair]int64
	targetSize int
}

// Train learns a merge table from corpus, growing the vocabulary until it
// reaches targetVocabSize or no adjacent pair occurs more than once.
//
// Tie-break contract: among pairs with the maximal count, the numerically
// lowest pair wins (compare A, then B). This makes training deterministic:
// two runs over the same corpus and target produce identical tables.
//
// An empty corpus or targetVocabSize <= 256 yields zero merges; both are
// valid, not errors.
func Train(corpus []byte, targetVocabSize int) *BPETokenizer {
	t := newBase(targetVocabSize)

	ids := bytesToIDs(corpus)

	numMerges := targetVocabSize - int(FirstMergeID)
	if numMerges <= 0 || len(ids) < 2 {
		return t
	}

	fmt.Printf("BPE training: %d bytes, up to %d merges\n", len(corpus), numMerges)

	for m := 0; m < numMerges; m++ {
		counts := pairCounts(ids)
		if len(counts) == 0 {
			break
		}

		best, bestCount := maxPair(counts)
		if bestCount < 2 {
			// No pair repeats; further merges would never apply.
			break
		}

		newID := FirstMergeID + int64(m)
		t.merges[best] = newID
		t.vocab[newID] = concatBytes(t.vocab[best.A], t.vocab[best.B])
		ids = mergePair(ids, best, newID)
	}

	fmt.Printf("BPE done: vocab=%d merges=%d (%d bytes -> %d tokens)\n",
		t.VocabSize(), len(t.merges), len(corpus), len(ids))

	return t
}

// Encode converts text to token ids.
//
// Starting from the raw UTF-8 bytes, it repeatedly finds the adjacent pair
// with the lowest merge id and replaces its non-overlapping occurrences,
// left to right, until no adjacent pair is in the merge table. Applying
// merges in creation order keeps the segmentation consistent with training.
//
// The result never has more tokens than text has bytes; empty input yields
// an empty sequence.
func (t *BPETokenizer) Encode(text string) []int64 {
	ids := bytesToIDs([]byte(text))

	for len(ids) >= 2 {
		var best Pair
		bestID := int64(-1)
		for i := 0; i < len(ids)-1; i++ {
			p := Pair{ids[i], ids[i+1]}
			if id, ok := t.merges[p]; ok && (bestID < 0 || id < bestID) {
				best, bestID = p, id
			}
		}
		if bestID < 0 {
			break
		}
		ids = mergePair(ids, best, bestID)
	}

	return ids
}

// Decode converts token ids back to text.
//
// An id without a vocabulary entry fails the whole call with an error
// wrapping ErrUnknownToken. Byte sequences that are not valid UTF-8 are
// recovered locally: each invalid run becomes one U+FFFD replacement
// character, never an error.
func (t *BPETokenizer) Decode(tokens []int64) (string, error) {
	var buf []byte
	for i, id := range tokens {
		b, ok := t.vocab[id]
		if !ok {
			return "", fmt.Errorf("decode: token %d at position %d: %w", id, i, ErrUnknownToken)
		}
		buf = append(buf, b...)
	}
	if utf8.Valid(buf) {
		return string(buf), nil
	}
	return strings.ToValidUTF8(string(buf), string(utf8.RuneError)), nil
}

// VocabSize returns the number of vocabulary entries (256 + learned merges).
func (t *BPETokenizer) VocabSize() int {
	return NumBytes + len(t.merges)
}

// TargetVocabSize returns the size the tokenizer was trained toward.
func (t *BPETokenizer) TargetVocabSize() int {
	return t.targetSize
}

// NumMerges returns the number of learned merge rules.
func (t *BPETokenizer) NumMerges() int {
	return len(t.merges)
}

// TokenBytes returns the byte sequence a token id stands for.
func (t *BPETokenizer) TokenBytes(id int64) ([]byte, bool) {
	b, ok := t.vocab[id]
	return b, ok
}

// ============================================================================
// Internal helpers
// ============================================================================

func newBase(targetVocabSize int) *BPETokenizer {
	t := &BPETokenizer{
		vocab:      make(map[int64][]byte, 2*NumBytes),
		merges:     make(map[Pair]int64),
		targetSize: targetVocabSize,
	}
	for i := 0; i < NumBytes; i++ {
		t.vocab[int64(i)] = []byte{byte(i)}
	}
	return t
}

func bytesToIDs(raw []byte) []int64 {
	ids := make([]int64, len(raw))
	for i, b := range raw {
		ids[i] = int64(b)
	}
	return ids
}

// pairCounts counts every adjacent pair in ids.
func pairCounts(ids []int64) map[Pair]int {
	counts := make(map[Pair]int)
	for i := 0; i < len(ids)-1; i++ {
		counts[Pair{ids[i], ids[i+1]}]++
	}
	return counts
}

// maxPair returns the most frequent pair, breaking count ties toward the
// numerically lowest pair so the selection is a total order.
func maxPair(counts map[Pair]int) (Pair, int) {
	var best Pair
	bestCount := 0
	for p, c := range counts {
		if c > bestCount || (c == bestCount && (p.A < best.A || (p.A == best.A && p.B < best.B))) {
			best = p
			bestCount = c
		}
	}
	return best, bestCount
}

// mergePair replaces every non-overlapping occurrence of p in ids with
// newID, scanning left to right. Returns ids unchanged if p never occurs.
func mergePair(ids []int64, p Pair, newID int64) []int64 {
	found := false
	for i := 0; i < len(ids)-1; i++ {
		if ids[i] == p.A && ids[i+1] == p.B {
			found = true
			break
		}
	}
	if !found {
		return ids
	}

	out := make([]int64, 0, len(ids))
	i := 0
	for i < len(ids) {
		if i+1 < len(ids) && ids[i] == p.A && ids[i+1] == p.B {
			out = append(out, newID)
			i += 2
		} else {
			out = append(out, ids[i])
			i++
		}
	}
	return out
}

func concatBytes(a, b []byte) []byte {
	c := make([]byte, len(a)+len(b))
	copy(c, a)
	copy(c[len(a):], b)
	return c
}
