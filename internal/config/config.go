// Package config holds the corpus preparation settings.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ieee0824/langprep/corpus"
	"github.com/ieee0824/langprep/lexicon"
	"github.com/ieee0824/langprep/symtab"
	"github.com/pkg/errors"
)

// Bootstrap is an always-present word and its placeholder pronunciation.
type Bootstrap struct {
	Word   string   `json:"word"`
	Phones []string `json:"phones"`
}

// Reserved names the control symbols of the symbol table.
type Reserved struct {
	Epsilon       string `json:"epsilon"`
	Disambig      string `json:"disambig"`
	SentenceStart string `json:"sentence_start"`
	SentenceEnd   string `json:"sentence_end"`
}

// Config is the full pipeline configuration.
type Config struct {
	LangDir         string      `json:"lang_dir"`
	Transcript      string      `json:"transcript"`
	BaseLexicon     string      `json:"base_lexicon,omitempty"`
	GarbageTags     []string    `json:"garbage_tags"`
	PunctuationTags []string    `json:"punctuation_tags"`
	Bootstrap       []Bootstrap `json:"bootstrap"`
	Reserved        Reserved    `json:"reserved"`
	Unk             string      `json:"unk"`
	LMOrder         int         `json:"lm_order"`
}

// Defaults returns the GigaSpeech-style settings. Transcript has no default.
func Defaults() Config {
	res := symtab.DefaultReserved()
	var boot []Bootstrap
	for _, e := range lexicon.DefaultBootstrap() {
		boot = append(boot, Bootstrap{Word: e.Word, Phones: append([]string(nil), e.Phones...)})
	}
	return Config{
		LangDir:         "data/lang",
		GarbageTags:     append([]string(nil), corpus.DefaultGarbageTags...),
		PunctuationTags: append([]string(nil), corpus.DefaultPunctuationTags...),
		Bootstrap:       boot,
		Reserved: Reserved{
			Epsilon:       res.Epsilon,
			Disambig:      res.Disambig,
			SentenceStart: res.SentenceStart,
			SentenceEnd:   res.SentenceEnd,
		},
		Unk:     "<UNK>",
		LMOrder: 3,
	}
}

// Load decodes a JSON config from path or raw over Defaults. Unknown
// fields are rejected; fields absent from the JSON keep their defaults.
// A bootstrap list in the JSON replaces the default list as a whole.
func Load(path string, raw []byte) (Config, error) {
	cfg := Defaults()
	defaultBootstrap := cfg.Bootstrap
	// json reuses existing slice elements, which would leak default phones
	// into entries that omit them.
	cfg.Bootstrap = nil
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}
	if cfg.Bootstrap == nil {
		cfg.Bootstrap = defaultBootstrap
	}
	return cfg, nil
}

// Validate checks the fields every run needs.
func (c Config) Validate() error {
	if strings.TrimSpace(c.LangDir) == "" {
		return errors.New("lang_dir is required")
	}
	if strings.TrimSpace(c.Transcript) == "" {
		return errors.New("transcript is required")
	}
	if c.LMOrder != 0 && (c.LMOrder < 2 || c.LMOrder > 3) {
		return fmt.Errorf("lm_order must be 0, 2 or 3, got %d", c.LMOrder)
	}
	if err := c.SymbolReserved().Validate(); err != nil {
		return err
	}
	for i, b := range c.Bootstrap {
		if b.Word == "" || len(b.Phones) == 0 {
			return fmt.Errorf("bootstrap[%d]: word and phones are required", i)
		}
	}
	if c.LMOrder != 0 && !c.hasBootstrap(c.Unk) {
		return fmt.Errorf("unk %q must be one of the bootstrap words", c.Unk)
	}
	return nil
}

func (c Config) hasBootstrap(word string) bool {
	for _, b := range c.Bootstrap {
		if b.Word == word {
			return true
		}
	}
	return false
}

// Filter returns the tag filter described by c.
func (c Config) Filter() corpus.Filter {
	return corpus.Filter{GarbageTags: c.GarbageTags, PunctuationTags: c.PunctuationTags}
}

// BootstrapWords returns the bootstrap symbols in config order.
func (c Config) BootstrapWords() []string {
	out := make([]string, len(c.Bootstrap))
	for i, b := range c.Bootstrap {
		out[i] = b.Word
	}
	return out
}

// BootstrapEntries returns the bootstrap pronunciations.
func (c Config) BootstrapEntries() []lexicon.Entry {
	out := make([]lexicon.Entry, len(c.Bootstrap))
	for i, b := range c.Bootstrap {
		out[i] = lexicon.Entry{Word: b.Word, Phones: b.Phones}
	}
	return out
}

// SymbolReserved converts the reserved section for symtab.
func (c Config) SymbolReserved() symtab.Reserved {
	return symtab.Reserved{
		Epsilon:       c.Reserved.Epsilon,
		Disambig:      c.Reserved.Disambig,
		SentenceStart: c.Reserved.SentenceStart,
		SentenceEnd:   c.Reserved.SentenceEnd,
	}
}
