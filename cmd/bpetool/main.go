package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gammaproto/gammakit/tokenizer"
)

func main() {
	var (
		trainPath = flag.String("train", "", "corpus file to train on")
		vocabSize = flag.Int("vocab", 500, "target vocabulary size")
		statePath = flag.String("state", "bpe_state.json", "tokenizer state file")
		encode    = flag.String("encode", "", "text to encode with the saved state")
		decode    = flag.String("decode", "", "comma-separated token ids to decode")
		inspect   = flag.Bool("inspect", false, "print a summary of the saved state")
	)
	flag.Parse()

	switch {
	case *trainPath != "":
		train(*trainPath, *vocabSize, *statePath)
	case *encode != "":
		encodeText(*statePath, *encode)
	case *decode != "":
		decodeTokens(*statePath, *decode)
	case *inspect:
		inspectState(*statePath)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func train(corpusPath string, vocabSize int, statePath string) {
	fmt.Println("=== BPE Training ===")

	corpus, err := os.ReadFile(corpusPath)
	if err != nil {
		fatal("reading corpus: %v", err)
	}
	fmt.Printf("Corpus: %d bytes\n", len(corpus))

	start := time.Now()
	tok := tokenizer.Train(corpus, vocabSize)
	fmt.Printf("Trained %d merges in %v\n", tok.NumMerges(), time.Since(start))

	if err := tok.Save(statePath); err != nil {
		fatal("saving state: %v", err)
	}
	fmt.Printf("✓ State saved: %s (vocab %d)\n", statePath, tok.VocabSize())
}

func encodeText(statePath, text string) {
	tok, err := tokenizer.Load(statePath)
	if err != nil {
		fatal("loading state: %v", err)
	}

	tokens := tok.Encode(text)
	fmt.Printf("%d tokens\n", len(tokens))
	parts := make([]string, len(tokens))
	for i, id := range tokens {
		parts[i] = strconv.FormatInt(id, 10)
	}
	fmt.Println(strings.Join(parts, ","))
}

func decodeTokens(statePath, list string) {
	tok, err := tokenizer.Load(statePath)
	if err != nil {
		fatal("loading state: %v", err)
	}

	var tokens []int64
	for _, part := range strings.Split(list, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			fatal("bad token id %q: %v", part, err)
		}
		tokens = append(tokens, id)
	}

	text, err := tok.Decode(tokens)
	if err != nil {
		fatal("decoding: %v", err)
	}
	fmt.Println(text)
}

func inspectState(statePath string) {
	tok, err := tokenizer.Load(statePath)
	if err != nil {
		fatal("loading state: %v", err)
	}

	fmt.Println("=== BPE State ===")
	fmt.Printf("Vocab size: %d\n", tok.VocabSize())
	fmt.Printf("Merges:     %d\n", tok.NumMerges())

	// longest learned tokens
	type entry struct {
		id    int64
		bytes []byte
	}
	var longest []entry
	for id := tokenizer.FirstMergeID; int(id) < tok.VocabSize(); id++ {
		if b, ok := tok.TokenBytes(id); ok {
			longest = append(longest, entry{id, b})
		}
	}
	sort.Slice(longest, func(i, j int) bool { return len(longest[i].bytes) > len(longest[j].bytes) })
	if len(longest) > 10 {
		longest = longest[:10]
	}
	for _, e := range longest {
		fmt.Printf("  %4d → %q\n", e.id, e.bytes)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
