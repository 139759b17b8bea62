// Package language estimates and loads back-off n-gram language models
// over the words of a symbol table.
package language

import (
	"sort"

	"github.com/ieee0824/langprep/symtab"
)

// logZero stands in for log(0).
const logZero = -1e30

// Sentence boundary tokens written to and expected in ARPA files.
const (
	BOS = "<s>"
	EOS = "</s>"
)

// NGramModel is a back-off n-gram model with natural-log scores.
type NGramModel struct {
	Order    int // 1, 2 or 3
	Unigrams map[string]ngramEntry
	Bigrams  map[[2]string]ngramEntry
	Trigrams map[[3]string]ngramEntry
}

type ngramEntry struct {
	LogProb    float64
	LogBackoff float64
}

// NewNGramModel creates an empty model.
func NewNGramModel(order int) *NGramModel {
	return &NGramModel{
		Order:    order,
		Unigrams: make(map[string]ngramEntry),
		Bigrams:  make(map[[2]string]ngramEntry),
		Trigrams: make(map[[3]string]ngramEntry),
	}
}

// LogProb returns log P(word | history), backing off to shorter contexts.
func (m *NGramModel) LogProb(history []string, word string) float64 {
	n := len(history)
	if m.Order >= 3 && n >= 2 {
		if e, ok := m.Trigrams[[3]string{history[n-2], history[n-1], word}]; ok {
			return e.LogProb
		}
		if e, ok := m.Bigrams[[2]string{history[n-2], history[n-1]}]; ok {
			return e.LogBackoff + m.bigramLogProb(history[n-1], word)
		}
	}
	if m.Order >= 2 && n >= 1 {
		return m.bigramLogProb(history[n-1], word)
	}
	return m.unigramLogProb(word)
}

func (m *NGramModel) bigramLogProb(prev, word string) float64 {
	if e, ok := m.Bigrams[[2]string{prev, word}]; ok {
		return e.LogProb
	}
	if e, ok := m.Unigrams[prev]; ok {
		return e.LogBackoff + m.unigramLogProb(word)
	}
	return m.unigramLogProb(word)
}

func (m *NGramModel) unigramLogProb(word string) float64 {
	if e, ok := m.Unigrams[word]; ok {
		return e.LogProb
	}
	return logZero
}

// SentenceLogProb scores words wrapped in <s> ... </s>.
func (m *NGramModel) SentenceLogProb(words []string) float64 {
	total := 0.0
	history := []string{BOS}
	for _, w := range words {
		total += m.LogProb(history, w)
		history = append(history, w)
	}
	return total + m.LogProb(history, EOS)
}

// Vocab returns the unigram vocabulary, sorted.
func (m *NGramModel) Vocab() []string {
	words := make([]string, 0, len(m.Unigrams))
	for w := range m.Unigrams {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// CheckVocab returns the model words that t cannot map to an id, sorted.
// An LM compiled against t must have none.
func CheckVocab(m *NGramModel, t *symtab.Table) []string {
	var missing []string
	for _, w := range m.Vocab() {
		if _, ok := t.ID(w); !ok {
			missing = append(missing, w)
		}
	}
	return missing
}
