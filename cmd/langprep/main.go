package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ieee0824/langprep/corpus"
	"github.com/ieee0824/langprep/internal/config"
	"github.com/ieee0824/langprep/internal/stage"
	"github.com/ieee0824/langprep/language"
	"github.com/ieee0824/langprep/lexicon"
	"github.com/ieee0824/langprep/symtab"
	"github.com/pkg/errors"
)

// Output file names inside the lang directory.
const (
	transcriptFile = "transcript_words.txt"
	wordsFile      = "words.txt"
	lexiconFile    = "lexicon.txt"
	arpaFile       = "G.arpa"
)

func main() {
	configPath := flag.String("config", "", "JSON config file (optional)")
	transcript := flag.String("transcript", "", "raw transcript, one utterance per line")
	langDir := flag.String("lang-dir", "", "output directory")
	baseLexicon := flag.String("lexicon", "", "base lexicon to merge (optional)")
	lmOrder := flag.Int("lm-order", -1, "n-gram order for G.arpa (2 or 3, 0 disables)")
	startStage := flag.Int("stage", 0, "first stage to run")
	stopStage := flag.Int("stop-stage", -1, "last stage to run (-1 = all)")
	force := flag.Bool("force", false, "rerun stages whose outputs exist")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: langprep [options]")
		fmt.Fprintln(os.Stderr, "  Prepares a lang directory from a raw transcript:")
		fmt.Fprintln(os.Stderr, "    0 filter   -> "+transcriptFile)
		fmt.Fprintln(os.Stderr, "    1 words    -> "+wordsFile)
		fmt.Fprintln(os.Stderr, "    2 lexicon  -> "+lexiconFile+" (needs -lexicon)")
		fmt.Fprintln(os.Stderr, "    3 lm       -> "+arpaFile)
		fmt.Fprintln(os.Stderr, "  Stages whose outputs exist are skipped unless -force.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.New().String())

	cfg := config.Defaults()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath, nil)
		if err != nil {
			logger.Error("load config", "err", err)
			os.Exit(1)
		}
	}
	if *transcript != "" {
		cfg.Transcript = *transcript
	}
	if *langDir != "" {
		cfg.LangDir = *langDir
	}
	if *baseLexicon != "" {
		cfg.BaseLexicon = *baseLexicon
	}
	if *lmOrder >= 0 {
		cfg.LMOrder = *lmOrder
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := stage.NewRunner(logger, stage.WithRange(*startStage, *stopStage), stage.WithForce(*force))
	addStages(r, cfg, logger)
	if _, err := r.Run(ctx); err != nil {
		logger.Error("pipeline failed", "err", err)
		os.Exit(1)
	}
	logger.Info("done", "lang_dir", cfg.LangDir)
}

func addStages(r *stage.Runner, cfg config.Config, logger *slog.Logger) {
	filtered := filepath.Join(cfg.LangDir, transcriptFile)
	words := filepath.Join(cfg.LangDir, wordsFile)
	lex := filepath.Join(cfg.LangDir, lexiconFile)
	arpa := filepath.Join(cfg.LangDir, arpaFile)

	r.Add(stage.Stage{
		Name:    "filter",
		Outputs: []string{filtered},
		Run: func(ctx context.Context) error {
			in, err := os.Open(cfg.Transcript)
			if err != nil {
				return err
			}
			defer in.Close()
			return stage.WriteFileAtomic(filtered, func(w io.Writer) error {
				st, err := cfg.Filter().Stream(in, w)
				if err != nil {
					return err
				}
				logger.Info("filtered transcript", "read", st.Read, "dropped", st.Dropped, "written", st.Written)
				return nil
			})
		},
	})

	r.Add(stage.Stage{
		Name:    "words",
		Outputs: []string{words},
		Run: func(ctx context.Context) error {
			vocab, err := readVocabulary(filtered, cfg.BootstrapWords())
			if err != nil {
				return err
			}
			table, err := symtab.Compile(vocab.Sorted(), cfg.SymbolReserved())
			if err != nil {
				return err
			}
			logger.Info("symbol table", "words", table.NumWords(), "symbols", table.Len())
			return stage.WriteFileAtomic(words, func(w io.Writer) error {
				_, err := table.WriteTo(w)
				return err
			})
		},
	})

	r.Add(stage.Stage{
		Name:    "lexicon",
		Outputs: outputsIf(cfg.BaseLexicon != "", lex),
		Run: func(ctx context.Context) error {
			if cfg.BaseLexicon == "" {
				logger.Info("no base lexicon configured")
				return nil
			}
			in, err := os.Open(cfg.BaseLexicon)
			if err != nil {
				return err
			}
			defer in.Close()
			l, err := lexicon.Merge(in, cfg.BootstrapEntries())
			if err != nil {
				return err
			}
			table, err := symtab.LoadFile(words)
			if err != nil {
				return err
			}
			missing := l.Missing(table.Words())
			logger.Info("merged lexicon", "entries", l.Len(), "words", len(l.Words()), "oov", len(missing))
			for i, w := range missing {
				if i == 20 {
					logger.Warn("more words without pronunciation", "count", len(missing)-20)
					break
				}
				logger.Warn("word without pronunciation", "word", w)
			}
			return stage.WriteFileAtomic(lex, func(w io.Writer) error {
				_, err := l.WriteTo(w)
				return err
			})
		},
	})

	r.Add(stage.Stage{
		Name:    "lm",
		Outputs: outputsIf(cfg.LMOrder > 0, arpa),
		Run: func(ctx context.Context) error {
			if cfg.LMOrder == 0 {
				logger.Info("language model disabled")
				return nil
			}
			table, err := symtab.LoadFile(words)
			if err != nil {
				return err
			}
			b := language.NewBuilder(cfg.LMOrder, language.WithSymbolTable(table, cfg.Unk))
			if err := readSentences(filtered, b, logger); err != nil {
				return err
			}
			return stage.WriteFileAtomic(arpa, func(w io.Writer) error {
				var buf bytes.Buffer
				if err := b.WriteARPA(&buf); err != nil {
					return err
				}
				if err := checkARPA(buf.Bytes(), table, logger); err != nil {
					return err
				}
				_, err := w.Write(buf.Bytes())
				return err
			})
		},
	})
}

// outputsIf returns paths when the stage is enabled. A disabled stage has
// no outputs and so is never skipped; it only logs.
func outputsIf(enabled bool, paths ...string) []string {
	if !enabled {
		return nil
	}
	return paths
}

func readVocabulary(path string, bootstrap []string) (*corpus.Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	v := corpus.NewVocabulary(bootstrap...)
	if _, err := v.ReadFrom(f); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return v, nil
}

func readSentences(path string, b *language.Builder, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := language.ReadSentences(f, b)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	logger.Debug("read sentences", "count", n, "oov", b.OOVCount())
	return nil
}

// checkARPA parses the generated model and verifies every word has an id.
func checkARPA(data []byte, table *symtab.Table, logger *slog.Logger) error {
	model, err := language.LoadARPA(bytes.NewReader(data))
	if err != nil {
		return errors.Wrap(err, "reload generated model")
	}
	if missing := language.CheckVocab(model, table); len(missing) > 0 {
		return fmt.Errorf("model has %d words not in %s, first %q", len(missing), wordsFile, missing[0])
	}
	logger.Info("language model", "order", model.Order,
		"unigrams", len(model.Unigrams), "bigrams", len(model.Bigrams), "trigrams", len(model.Trigrams))
	return nil
}
