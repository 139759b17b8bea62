// Package langprep compiles raw speech transcripts into the word symbol
// table and lexicon used to build decoding graphs.
package langprep

import (
	"bufio"
	"io"

	"github.com/ieee0824/langprep/corpus"
	"github.com/ieee0824/langprep/lexicon"
	"github.com/ieee0824/langprep/symtab"
	"github.com/pkg/errors"
)

const maxLineSize = 1024 * 1024

// Options configures Compile. Zero fields take the defaults.
type Options struct {
	Filter    *corpus.Filter
	Bootstrap []string
	Reserved  *symtab.Reserved
}

func (o Options) withDefaults() Options {
	if o.Filter == nil {
		f := corpus.DefaultFilter()
		o.Filter = &f
	}
	if o.Bootstrap == nil {
		o.Bootstrap = corpus.DefaultBootstrap
	}
	if o.Reserved == nil {
		r := symtab.DefaultReserved()
		o.Reserved = &r
	}
	return o
}

// Result is the output of Compile.
type Result struct {
	Table *symtab.Table
	Stats corpus.Stats
}

// Compile filters a raw transcript read from r and builds its symbol table.
// When filtered is non-nil the cleaned transcript is written to it as well.
// A reserved-symbol collision fails the whole compilation.
func Compile(r io.Reader, filtered io.Writer, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	vocab := corpus.NewVocabulary(opts.Bootstrap...)

	var bw *bufio.Writer
	if filtered != nil {
		bw = bufio.NewWriter(filtered)
	}
	var st corpus.Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		st.Read++
		line, ok := opts.Filter.Clean(scanner.Text())
		if !ok {
			st.Dropped++
			continue
		}
		vocab.AddLine(line)
		st.Written++
		if bw != nil {
			if _, err := bw.WriteString(line); err != nil {
				return nil, errors.Wrap(err, "write filtered transcript")
			}
			if err := bw.WriteByte('\n'); err != nil {
				return nil, errors.Wrap(err, "write filtered transcript")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read transcript")
	}
	if bw != nil {
		if err := bw.Flush(); err != nil {
			return nil, errors.Wrap(err, "write filtered transcript")
		}
	}

	table, err := symtab.Compile(vocab.Sorted(), *opts.Reserved)
	if err != nil {
		return nil, errors.Wrap(err, "compile symbol table")
	}
	return &Result{Table: table, Stats: st}, nil
}

// CompileLines is Compile over in-memory utterances.
func CompileLines(lines []string, opts Options) (*symtab.Table, error) {
	opts = opts.withDefaults()
	vocab := corpus.ExtractVocabulary(opts.Filter.Apply(lines), opts.Bootstrap)
	return symtab.Compile(vocab, *opts.Reserved)
}

// MergeLexicon merges base with the default bootstrap pronunciations.
func MergeLexicon(base io.Reader) (*lexicon.Lexicon, error) {
	return lexicon.Merge(base, lexicon.DefaultBootstrap())
}
