package language

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ieee0824/langprep/symtab"
	"github.com/pkg/errors"
)

// Builder accumulates sentences and estimates a Witten-Bell smoothed
// n-gram model.
type Builder struct {
	order    int
	table    *symtab.Table
	unk      string
	unigrams map[string]int
	bigrams  map[[2]string]int
	trigrams map[[3]string]int
	oov      int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSymbolTable maps words missing from t to unk before counting, so
// that every word of the resulting model has an id in t.
func WithSymbolTable(t *symtab.Table, unk string) BuilderOption {
	return func(b *Builder) {
		b.table = t
		b.unk = unk
	}
}

// NewBuilder creates a builder. order is clamped to 2 (bigram) .. 3 (trigram).
func NewBuilder(order int, opts ...BuilderOption) *Builder {
	if order < 2 {
		order = 2
	}
	if order > 3 {
		order = 3
	}
	b := &Builder{
		order:    order,
		unigrams: make(map[string]int),
		bigrams:  make(map[[2]string]int),
		trigrams: make(map[[3]string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Order returns the n-gram order.
func (b *Builder) Order() int { return b.order }

// OOVCount returns the number of tokens replaced by the unknown word.
func (b *Builder) OOVCount() int { return b.oov }

// AddLine adds a whitespace-tokenized sentence. Blank lines are ignored.
func (b *Builder) AddLine(line string) {
	b.AddSentence(strings.Fields(line))
}

// AddSentence adds a tokenized sentence; <s> and </s> are added here.
func (b *Builder) AddSentence(words []string) {
	if len(words) == 0 {
		return
	}
	seq := make([]string, 0, len(words)+2)
	seq = append(seq, BOS)
	for _, w := range words {
		if b.table != nil {
			if _, ok := b.table.ID(w); !ok {
				w = b.unk
				b.oov++
			}
		}
		seq = append(seq, w)
	}
	seq = append(seq, EOS)

	for i, w := range seq {
		b.unigrams[w]++
		if i >= 1 {
			b.bigrams[[2]string{seq[i-1], w}]++
		}
		if b.order >= 3 && i >= 2 {
			b.trigrams[[3]string{seq[i-2], seq[i-1], w}]++
		}
	}
}

// ReadSentences adds one sentence per line of r to b and returns the
// number of non-blank lines.
func ReadSentences(r io.Reader, b *Builder) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		words := strings.Fields(scanner.Text())
		if len(words) == 0 {
			continue
		}
		b.AddSentence(words)
		count++
	}
	return count, errors.Wrap(scanner.Err(), "read sentences")
}

// histStats holds Witten-Bell statistics of one history: N(h) tokens and
// T(h) distinct successors.
type histStats struct {
	total int
	types int
}

// discount returns the Witten-Bell denominator N(h)+T(h).
func (c histStats) discount() float64 { return float64(c.total + c.types) }

type arpaLine struct {
	words   []string
	logProb float64 // log10
	backoff float64 // log10, 0 = none
}

// WriteARPA writes the model in ARPA format with base-10 scores.
// Sections are sorted by word sequence so output is deterministic.
func (b *Builder) WriteARPA(w io.Writer) error {
	uniTotal := 0
	for _, c := range b.unigrams {
		uniTotal += c
	}
	if uniTotal == 0 {
		return fmt.Errorf("no sentences added")
	}
	uniProb := func(word string) float64 {
		return float64(b.unigrams[word]) / float64(uniTotal)
	}

	biCtx := make(map[string]histStats)
	biNext := make(map[string][]string)
	for key, c := range b.bigrams {
		ctx := biCtx[key[0]]
		ctx.total += c
		ctx.types++
		biCtx[key[0]] = ctx
		biNext[key[0]] = append(biNext[key[0]], key[1])
	}
	biProb := func(h, word string) float64 {
		return float64(b.bigrams[[2]string{h, word}]) / biCtx[h].discount()
	}

	triCtx := make(map[[2]string]histStats)
	triNext := make(map[[2]string][]string)
	for key, c := range b.trigrams {
		h := [2]string{key[0], key[1]}
		ctx := triCtx[h]
		ctx.total += c
		ctx.types++
		triCtx[h] = ctx
		triNext[h] = append(triNext[h], key[2])
	}

	unis := make([]arpaLine, 0, len(b.unigrams))
	for word := range b.unigrams {
		l := arpaLine{words: []string{word}, logProb: math.Log10(uniProb(word))}
		if next, ok := biNext[word]; ok {
			var seen, lower float64
			for _, v := range next {
				seen += biProb(word, v)
				lower += uniProb(v)
			}
			l.backoff = backoffWeight(seen, lower)
		}
		unis = append(unis, l)
	}

	bis := make([]arpaLine, 0, len(b.bigrams))
	for key := range b.bigrams {
		l := arpaLine{words: []string{key[0], key[1]}, logProb: math.Log10(biProb(key[0], key[1]))}
		if next, ok := triNext[key]; ok {
			ctx := triCtx[key]
			var seen, lower float64
			for _, v := range next {
				seen += float64(b.trigrams[[3]string{key[0], key[1], v}]) / ctx.discount()
				if _, ok := b.bigrams[[2]string{key[1], v}]; ok {
					lower += biProb(key[1], v)
				} else {
					lower += uniProb(v)
				}
			}
			l.backoff = backoffWeight(seen, lower)
		}
		bis = append(bis, l)
	}

	tris := make([]arpaLine, 0, len(b.trigrams))
	for key, c := range b.trigrams {
		ctx := triCtx[[2]string{key[0], key[1]}]
		tris = append(tris, arpaLine{
			words:   []string{key[0], key[1], key[2]},
			logProb: math.Log10(float64(c) / ctx.discount()),
		})
	}

	sections := [][]arpaLine{unis, bis}
	if len(tris) > 0 {
		sections = append(sections, tris)
	}
	for _, s := range sections {
		sortLines(s)
	}
	return writeSections(w, sections)
}

// backoffWeight returns log10((1-seen)/(1-lower)), or 0 when the lower
// order mass is exhausted.
func backoffWeight(seen, lower float64) float64 {
	if lower >= 1.0 {
		return 0
	}
	return math.Log10((1.0 - seen) / (1.0 - lower))
}

func sortLines(lines []arpaLine) {
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i].words, lines[j].words
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
}

func writeSections(w io.Writer, sections [][]arpaLine) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, `\data\`)
	for i, s := range sections {
		fmt.Fprintf(bw, "ngram %d=%d\n", i+1, len(s))
	}
	for i, s := range sections {
		fmt.Fprintf(bw, "\n\\%d-grams:\n", i+1)
		for _, l := range s {
			if l.backoff != 0 {
				fmt.Fprintf(bw, "%.6f\t%s\t%.6f\n", l.logProb, strings.Join(l.words, " "), l.backoff)
			} else {
				fmt.Fprintf(bw, "%.6f\t%s\n", l.logProb, strings.Join(l.words, " "))
			}
		}
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, `\end\`)
	return errors.Wrap(bw.Flush(), "write ARPA")
}
