package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ieee0824/langprep"
	"github.com/ieee0824/langprep/corpus"
	"github.com/ieee0824/langprep/internal/stage"
)

func main() {
	filtered := flag.String("filtered", "", "also write the cleaned transcript here")
	noFilter := flag.Bool("no-filter", false, "do not drop or strip tags")
	bootstrap := flag.String("bootstrap", strings.Join(corpus.DefaultBootstrap, ","), "comma-separated bootstrap symbols")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: words [options] < transcript.txt > words.txt")
		fmt.Fprintln(os.Stderr, "  Builds a word symbol table from a raw transcript.")
		fmt.Fprintln(os.Stderr, "  Input: one utterance per line.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	opts := langprep.Options{Bootstrap: splitList(*bootstrap)}
	if *noFilter {
		opts.Filter = &corpus.Filter{}
	}

	res, err := run(os.Stdin, os.Stdout, *filtered, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Utterances: %d read, %d dropped; %d words, %d symbols\n",
		res.Stats.Read, res.Stats.Dropped, res.Table.NumWords(), res.Table.Len())
}

// run compiles the transcript from in and writes the table to out. When
// filteredPath is set the cleaned transcript goes there; the file is only
// created if compilation succeeds.
func run(in io.Reader, out io.Writer, filteredPath string, opts langprep.Options) (*langprep.Result, error) {
	var res *langprep.Result
	if filteredPath != "" {
		err := stage.WriteFileAtomic(filteredPath, func(w io.Writer) error {
			var err error
			res, err = langprep.Compile(in, w, opts)
			return err
		})
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		res, err = langprep.Compile(in, nil, opts)
		if err != nil {
			return nil, err
		}
	}

	if _, err := res.Table.WriteTo(out); err != nil {
		return nil, fmt.Errorf("write table: %w", err)
	}
	return res, nil
}

// splitList splits a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
