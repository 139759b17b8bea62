package corpus

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// DefaultBootstrap lists the symbols every vocabulary contains:
// silence, spoken noise and unknown word.
var DefaultBootstrap = []string{"!SIL", "<SPOKEN_NOISE>", "<UNK>"}

// Vocabulary is a set of distinct words.
type Vocabulary struct {
	words map[string]struct{}
}

// NewVocabulary creates a vocabulary seeded with the bootstrap symbols.
func NewVocabulary(bootstrap ...string) *Vocabulary {
	v := &Vocabulary{words: make(map[string]struct{})}
	for _, w := range bootstrap {
		v.Add(w)
	}
	return v
}

// Add inserts a single word. Empty strings are ignored.
func (v *Vocabulary) Add(word string) {
	if word == "" {
		return
	}
	v.words[word] = struct{}{}
}

// AddLine splits a cleaned utterance on whitespace and adds every token.
func (v *Vocabulary) AddLine(line string) {
	for _, w := range strings.Fields(line) {
		v.words[w] = struct{}{}
	}
}

// ReadFrom adds every word of a one-utterance-per-line stream.
func (v *Vocabulary) ReadFrom(r io.Reader) (int64, error) {
	var n int64
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		n += int64(len(scanner.Bytes())) + 1
		v.AddLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return n, errors.Wrap(err, "read vocabulary")
	}
	return n, nil
}

// Len returns the number of distinct words.
func (v *Vocabulary) Len() int { return len(v.words) }

// Contains reports whether word is in the vocabulary.
func (v *Vocabulary) Contains(word string) bool {
	_, ok := v.words[word]
	return ok
}

// Sorted returns the words in byte-wise lexicographic order.
func (v *Vocabulary) Sorted() []string {
	out := make([]string, 0, len(v.words))
	for w := range v.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// ExtractVocabulary returns the sorted distinct words of lines plus bootstrap.
func ExtractVocabulary(lines []string, bootstrap []string) []string {
	v := NewVocabulary(bootstrap...)
	for _, line := range lines {
		v.AddLine(line)
	}
	return v.Sorted()
}
