package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ieee0824/langprep/language"
	"github.com/ieee0824/langprep/symtab"
)

func main() {
	order := flag.Int("order", 2, "N-gram order (2=bigram, 3=trigram)")
	output := flag.String("output", "", "output file (default: stdout)")
	wordsPath := flag.String("words", "", "symbol table; words missing from it become -unk")
	unk := flag.String("unk", "<UNK>", "unknown word symbol used with -words")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lmbuild [options] [input-files...]")
		fmt.Fprintln(os.Stderr, "  Builds an ARPA N-gram language model from tokenized text.")
		fmt.Fprintln(os.Stderr, "  Input: one sentence per line, words separated by spaces.")
		fmt.Fprintln(os.Stderr, "  If no input files given, reads from stdin.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	var opts []language.BuilderOption
	var table *symtab.Table
	if *wordsPath != "" {
		var err error
		table, err = symtab.LoadFile(*wordsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load symbol table: %v\n", err)
			os.Exit(1)
		}
		if _, ok := table.ID(*unk); !ok {
			fmt.Fprintf(os.Stderr, "unknown word %q not in %s\n", *unk, *wordsPath)
			os.Exit(1)
		}
		opts = append(opts, language.WithSymbolTable(table, *unk))
	}
	b := language.NewBuilder(*order, opts...)

	var sentCount int
	if flag.NArg() == 0 {
		n, err := language.ReadSentences(os.Stdin, b)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read stdin: %v\n", err)
			os.Exit(1)
		}
		sentCount = n
	} else {
		for _, path := range flag.Args() {
			n, err := readFile(path, b)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
				continue
			}
			sentCount += n
		}
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", *output, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := b.WriteARPA(w); err != nil {
		fmt.Fprintf(os.Stderr, "write ARPA: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Built %d-gram model from %d sentences", b.Order(), sentCount)
	if table != nil {
		fmt.Fprintf(os.Stderr, " (%d OOV tokens mapped to %s)", b.OOVCount(), *unk)
	}
	fmt.Fprintln(os.Stderr)
}

func readFile(path string, b *language.Builder) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return language.ReadSentences(f, b)
}
