package symtab

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

var bootstrap = []string{"!SIL", "<SPOKEN_NOISE>", "<UNK>"}

func compileString(t *testing.T, vocab []string) string {
	t.Helper()
	tbl, err := Compile(vocab, DefaultReserved())
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	var buf bytes.Buffer
	if _, err := tbl.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	return buf.String()
}

func TestCompileEndToEnd(t *testing.T) {
	vocab := append([]string{"the", "cat", "sat", "the", "dog", "ran"}, bootstrap...)
	got := compileString(t, vocab)
	want := `<eps> 0
!SIL 1
<SPOKEN_NOISE> 2
<UNK> 3
cat 4
dog 5
ran 6
sat 7
the 8
#0 9
<s> 10
</s> 11
`
	if got != want {
		t.Errorf("table =\n%s\nwant\n%s", got, want)
	}
}

func TestCompileBootstrapOnly(t *testing.T) {
	tbl, err := Compile(bootstrap, DefaultReserved())
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if tbl.Len() != 7 {
		t.Errorf("Len = %d, want 7", tbl.Len())
	}
	if tbl.NumWords() != 3 {
		t.Errorf("NumWords = %d, want 3", tbl.NumWords())
	}
	want := []string{"<eps>", "!SIL", "<SPOKEN_NOISE>", "<UNK>", "#0", "<s>", "</s>"}
	for id, name := range want {
		got, ok := tbl.Name(id)
		if !ok || got != name {
			t.Errorf("Name(%d) = %q, want %q", id, got, name)
		}
	}
}

func TestCompileDeterministic(t *testing.T) {
	a := compileString(t, []string{"z", "a", "m", "<UNK>"})
	b := compileString(t, []string{"m", "<UNK>", "z", "a", "a"})
	if a != b {
		t.Errorf("tables differ:\n%s\n%s", a, b)
	}
}

func TestCompileInvariants(t *testing.T) {
	vocab := []string{"zebra", "Apple", "apple", "éclair", "_x", "#1", "10", "9"}
	tbl, err := Compile(vocab, DefaultReserved())
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	syms := tbl.Symbols()
	n := tbl.NumWords()

	if syms[0].Name != "<eps>" || syms[0].ID != 0 {
		t.Errorf("row 0 = %+v, want <eps> 0", syms[0])
	}
	for i := 1; i < n; i++ {
		if syms[i].Name >= syms[i+1].Name {
			t.Errorf("not sorted: %q (%d) >= %q (%d)", syms[i].Name, i, syms[i+1].Name, i+1)
		}
	}
	tail := []string{"#0", "<s>", "</s>"}
	for i, name := range tail {
		s := syms[n+1+i]
		if s.Name != name || s.ID != n+1+i {
			t.Errorf("row %d = %+v, want %s %d", n+1+i, s, name, n+1+i)
		}
	}
	for i, s := range syms {
		if s.ID != i {
			t.Errorf("row %d has id %d", i, s.ID)
		}
		if id, ok := tbl.ID(s.Name); !ok || id != i {
			t.Errorf("ID(%q) = %d, %v, want %d", s.Name, id, ok, i)
		}
	}
}

func TestCompileCollision(t *testing.T) {
	tests := []struct {
		vocab []string
		slot  string
		sym   string
	}{
		{[]string{"a", "<s>", "b"}, SlotSentenceStart, "<s>"},
		{[]string{"</s>", "a"}, SlotSentenceEnd, "</s>"},
		{[]string{"</s>", "<s>"}, SlotSentenceStart, "<s>"},
		{[]string{"<eps>"}, SlotEpsilon, "<eps>"},
		{[]string{"#0"}, SlotDisambig, "#0"},
	}

	for _, tt := range tests {
		tbl, err := Compile(tt.vocab, DefaultReserved())
		if tbl != nil {
			t.Errorf("Compile(%v) returned a table", tt.vocab)
		}
		if !errors.Is(err, ErrReservedSymbolCollision) {
			t.Errorf("Compile(%v) error = %v, want ErrReservedSymbolCollision", tt.vocab, err)
			continue
		}
		var ce *ReservedSymbolCollisionError
		if !errors.As(err, &ce) {
			t.Fatalf("error %T is not *ReservedSymbolCollisionError", err)
		}
		if ce.Slot != tt.slot || ce.Symbol != tt.sym {
			t.Errorf("collision = %s/%q, want %s/%q", ce.Slot, ce.Symbol, tt.slot, tt.sym)
		}
	}
}

func TestCompileRejectsWhitespace(t *testing.T) {
	if _, err := Compile([]string{"a b"}, DefaultReserved()); err == nil {
		t.Error("expected error for symbol with whitespace")
	}
}

func TestReservedValidate(t *testing.T) {
	r := DefaultReserved()
	r.Disambig = r.SentenceEnd
	if err := r.Validate(); err == nil {
		t.Error("expected error for duplicated reserved symbol")
	}
	r = DefaultReserved()
	r.Epsilon = ""
	if err := r.Validate(); err == nil {
		t.Error("expected error for empty reserved symbol")
	}
}

func TestCustomReserved(t *testing.T) {
	res := Reserved{Epsilon: "<epsilon>", Disambig: "#disambig", SentenceStart: "<bos>", SentenceEnd: "<eos>"}
	tbl, err := Compile([]string{"<s>", "a"}, res)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if id, _ := tbl.ID("<s>"); id != 1 {
		t.Errorf("ID(<s>) = %d, want 1", id)
	}
	if id, _ := tbl.ID("<eos>"); id != 5 {
		t.Errorf("ID(<eos>) = %d, want 5", id)
	}
}

func TestLoad(t *testing.T) {
	src := compileString(t, append([]string{"hello", "world"}, bootstrap...))
	tbl, err := Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if tbl.NumWords() != 5 {
		t.Errorf("NumWords = %d, want 5", tbl.NumWords())
	}
	words := tbl.Words()
	if strings.Join(words, " ") != "!SIL <SPOKEN_NOISE> <UNK> hello world" {
		t.Errorf("Words = %v", words)
	}
	var buf bytes.Buffer
	if _, err := tbl.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo error: %v", err)
	}
	if buf.String() != src {
		t.Errorf("reserialized table differs:\n%s", buf.String())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []string{
		"a 0\nb\n",
		"a 0\nb x\n",
		"a 0\nb 0\n",
		"a 0\na 1\n",
		"a 0\nb 2\n",
		"a -1\n",
	}
	for _, src := range tests {
		if _, err := Load(strings.NewReader(src)); err == nil {
			t.Errorf("Load(%q) should fail", src)
		}
	}
}
