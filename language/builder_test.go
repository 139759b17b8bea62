package language

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/ieee0824/langprep/symtab"
)

func buildARPA(t *testing.T, b *Builder) string {
	t.Helper()
	var buf bytes.Buffer
	if err := b.WriteARPA(&buf); err != nil {
		t.Fatalf("WriteARPA error: %v", err)
	}
	return buf.String()
}

func TestBuilderBigram(t *testing.T) {
	b := NewBuilder(2)
	b.AddLine("the cat sat")
	b.AddLine("the cat ran away")
	b.AddLine("the dog")

	arpa := buildARPA(t, b)
	for _, section := range []string{`\data\`, `\1-grams:`, `\2-grams:`, `\end\`} {
		if !strings.Contains(arpa, section) {
			t.Errorf("missing %s section", section)
		}
	}
	if strings.Contains(arpa, `\3-grams:`) {
		t.Error("unexpected \\3-grams: section for bigram model")
	}

	model, err := LoadARPA(strings.NewReader(arpa))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	if model.Order != 2 {
		t.Errorf("Order = %d, want 2", model.Order)
	}
	if _, ok := model.Unigrams["cat"]; !ok {
		t.Error("cat not in vocabulary")
	}

	score := model.SentenceLogProb([]string{"the", "cat"})
	if math.IsNaN(score) || math.IsInf(score, 0) {
		t.Errorf("SentenceLogProb = %f (not finite)", score)
	}
}

func TestBuilderTrigram(t *testing.T) {
	b := NewBuilder(3)
	b.AddSentence([]string{"today", "is", "a", "nice", "day"})
	b.AddSentence([]string{"today", "is", "hot"})
	b.AddSentence([]string{"tomorrow", "is", "a", "nice", "day"})

	arpa := buildARPA(t, b)
	if !strings.Contains(arpa, `\3-grams:`) {
		t.Error("missing \\3-grams: section")
	}

	model, err := LoadARPA(strings.NewReader(arpa))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	if model.Order != 3 {
		t.Errorf("Order = %d, want 3", model.Order)
	}

	s1 := model.SentenceLogProb([]string{"today", "is", "a", "nice", "day"})
	s2 := model.SentenceLogProb([]string{"today", "is", "cold", "nice", "day"})
	if s1 <= s2 {
		t.Errorf("seen sentence should score higher: %.4f <= %.4f", s1, s2)
	}
}

func TestBuilderDeterministic(t *testing.T) {
	lines := []string{"a b c", "b c d", "a c", "d d a"}
	b1 := NewBuilder(3)
	b2 := NewBuilder(3)
	for _, l := range lines {
		b1.AddLine(l)
		b2.AddLine(l)
	}
	if buildARPA(t, b1) != buildARPA(t, b2) {
		t.Error("ARPA output is not deterministic")
	}
}

func TestBuilderProbabilities(t *testing.T) {
	b := NewBuilder(2)
	b.AddLine("a b")
	b.AddLine("a b c")
	b.AddLine("b c")

	model, err := LoadARPA(strings.NewReader(buildARPA(t, b)))
	if err != nil {
		t.Fatalf("LoadARPA round-trip error: %v", err)
	}
	for w, e := range model.Unigrams {
		if e.LogProb >= 0 || math.IsNaN(e.LogProb) || math.IsInf(e.LogProb, 0) {
			t.Errorf("unigram %q LogProb = %f, want finite negative", w, e.LogProb)
		}
	}
	for key, e := range model.Bigrams {
		if e.LogProb >= 0 {
			t.Errorf("bigram %v LogProb = %f, want negative", key, e.LogProb)
		}
	}
}

func TestBuilderEmpty(t *testing.T) {
	b := NewBuilder(2)
	b.AddLine("   ")
	var buf bytes.Buffer
	if err := b.WriteARPA(&buf); err == nil {
		t.Error("expected error for empty builder")
	}
}

func TestBuilderSymbolTable(t *testing.T) {
	tbl, err := symtab.Compile([]string{"!SIL", "<SPOKEN_NOISE>", "<UNK>", "cat", "the"}, symtab.DefaultReserved())
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}

	b := NewBuilder(2, WithSymbolTable(tbl, "<UNK>"))
	b.AddLine("the cat sat")
	b.AddLine("the dog")
	if b.OOVCount() != 2 {
		t.Errorf("OOVCount = %d, want 2", b.OOVCount())
	}

	model, err := LoadARPA(strings.NewReader(buildARPA(t, b)))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	if missing := CheckVocab(model, tbl); len(missing) != 0 {
		t.Errorf("CheckVocab = %v, want none", missing)
	}
	if _, ok := model.Unigrams["<UNK>"]; !ok {
		t.Error("<UNK> not in model")
	}
}

func TestCheckVocab(t *testing.T) {
	tbl, err := symtab.Compile([]string{"HELLO"}, symtab.DefaultReserved())
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}
	missing := CheckVocab(model, tbl)
	if strings.Join(missing, " ") != "WORLD" {
		t.Errorf("CheckVocab = %v, want [WORLD]", missing)
	}
}
