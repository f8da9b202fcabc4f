package tokenizer

import "fmt"

// ByteTokenizer maps every byte to its own token id. Vocab size 256, no
// merging; its output is a valid subset of any BPETokenizer's output.
type ByteTokenizer struct{}

func NewByteTokenizer() *ByteTokenizer {
	return &ByteTokenizer{}
}

// Encode converts a string to one token per UTF-8 byte.
func (t *ByteTokenizer) Encode(text string) []int64 {
	return bytesToIDs([]byte(text))
}

// Decode converts byte token ids back to a string. Ids outside 0-255 fail
// with ErrUnknownToken, matching the BPE decode contract.
func (t *ByteTokenizer) Decode(tokens []int64) (string, error) {
	buf := make([]byte, len(tokens))
	for i, id := range tokens {
		if id < 0 || id >= NumBytes {
			return "", fmt.Errorf("decode: token %d at position %d: %w", id, i, ErrUnknownToken)
		}
		buf[i] = byte(id)
	}
	return string(buf), nil
}

// VocabSize returns 256.
func (t *ByteTokenizer) VocabSize() int {
	return NumBytes
}
