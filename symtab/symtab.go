// Package symtab builds the word symbol table (words.txt) consumed by
// lexicon and grammar FST compilation.
package symtab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Reserved holds the control symbols placed outside the sorted vocabulary.
type Reserved struct {
	Epsilon       string // id 0
	Disambig      string // id N+1
	SentenceStart string // id N+2
	SentenceEnd   string // id N+3
}

// DefaultReserved returns the Kaldi/k2 control symbols.
func DefaultReserved() Reserved {
	return Reserved{
		Epsilon:       "<eps>",
		Disambig:      "#0",
		SentenceStart: "<s>",
		SentenceEnd:   "</s>",
	}
}

// Validate checks that every reserved symbol is a non-empty, distinct,
// whitespace-free string.
func (r Reserved) Validate() error {
	seen := make(map[string]string, 4)
	for _, s := range r.slots() {
		if s.name == "" || strings.ContainsAny(s.name, " \t\r\n") {
			return fmt.Errorf("reserved %s symbol %q must be non-empty and contain no whitespace", s.slot, s.name)
		}
		if prev, ok := seen[s.name]; ok {
			return fmt.Errorf("reserved symbol %q used for both %s and %s", s.name, prev, s.slot)
		}
		seen[s.name] = s.slot
	}
	return nil
}

type reservedSlot struct {
	slot string
	name string
}

// slots lists the reserved symbols in collision-check order.
func (r Reserved) slots() []reservedSlot {
	return []reservedSlot{
		{SlotSentenceStart, r.SentenceStart},
		{SlotSentenceEnd, r.SentenceEnd},
		{SlotEpsilon, r.Epsilon},
		{SlotDisambig, r.Disambig},
	}
}

// Symbol is one row of the table.
type Symbol struct {
	Name string
	ID   int
}

// Table maps symbols to ids. It is immutable once built.
type Table struct {
	symbols  []Symbol // ordered by id
	ids      map[string]int
	numWords int
}

// Compile builds the table from a vocabulary. The vocabulary is
// deduplicated and sorted byte-wise; it need not be sorted on input.
// No table is returned when a vocabulary word equals a reserved symbol:
// the sentence-start and sentence-end symbols, and also epsilon and the
// disambiguation symbol, since either would give one name two ids.
func Compile(vocab []string, res Reserved) (*Table, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}

	words := make([]string, 0, len(vocab))
	seen := make(map[string]struct{}, len(vocab))
	for _, w := range vocab {
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	sort.Strings(words)

	for _, s := range res.slots() {
		if _, ok := seen[s.name]; ok {
			return nil, &ReservedSymbolCollisionError{Symbol: s.name, Slot: s.slot}
		}
	}
	for _, w := range words {
		if strings.ContainsAny(w, " \t\r\n") {
			return nil, fmt.Errorf("symbol %q contains whitespace", w)
		}
	}

	n := len(words)
	t := &Table{
		symbols:  make([]Symbol, 0, n+4),
		ids:      make(map[string]int, n+4),
		numWords: n,
	}
	t.add(res.Epsilon)
	for _, w := range words {
		t.add(w)
	}
	t.add(res.Disambig)
	t.add(res.SentenceStart)
	t.add(res.SentenceEnd)
	return t, nil
}

func (t *Table) add(name string) {
	id := len(t.symbols)
	t.symbols = append(t.symbols, Symbol{Name: name, ID: id})
	t.ids[name] = id
}

// Symbols returns a copy of the rows in id order.
func (t *Table) Symbols() []Symbol {
	return append([]Symbol(nil), t.symbols...)
}

// Len returns the total number of rows, reserved symbols included.
func (t *Table) Len() int { return len(t.symbols) }

// NumWords returns N, the number of regular vocabulary symbols.
func (t *Table) NumWords() int { return t.numWords }

// ID returns the id assigned to name.
func (t *Table) ID(name string) (int, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Name returns the symbol with the given id.
func (t *Table) Name(id int) (string, bool) {
	if id < 0 || id >= len(t.symbols) {
		return "", false
	}
	return t.symbols[id].Name, true
}

// Words returns the regular vocabulary symbols (ids 1..N) in id order.
func (t *Table) Words() []string {
	out := make([]string, 0, t.numWords)
	for i := 1; i <= t.numWords; i++ {
		out = append(out, t.symbols[i].Name)
	}
	return out
}

// WriteTo serializes the table as "<symbol> <id>" lines.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, s := range t.symbols {
		c, err := fmt.Fprintf(bw, "%s %d\n", s.Name, s.ID)
		n += int64(c)
		if err != nil {
			return n, errors.Wrap(err, "write symbol table")
		}
	}
	if err := bw.Flush(); err != nil {
		return n, errors.Wrap(err, "write symbol table")
	}
	return n, nil
}

// Load reads a table written by WriteTo. Rows may appear in any order but
// ids must be unique and contiguous from 0. NumWords assumes the layout
// produced by Compile: epsilon first, three reserved symbols last.
func Load(r io.Reader) (*Table, error) {
	scanner := bufio.NewScanner(r)
	byID := make(map[int]string)
	ids := make(map[string]int)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields, got %d", lineNum, len(fields))
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil || id < 0 {
			return nil, fmt.Errorf("line %d: invalid id %q", lineNum, fields[1])
		}
		if prev, ok := byID[id]; ok {
			return nil, fmt.Errorf("line %d: id %d already assigned to %q", lineNum, id, prev)
		}
		if _, ok := ids[fields[0]]; ok {
			return nil, fmt.Errorf("line %d: duplicate symbol %q", lineNum, fields[0])
		}
		byID[id] = fields[0]
		ids[fields[0]] = id
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read symbol table")
	}

	t := &Table{
		symbols: make([]Symbol, len(byID)),
		ids:     ids,
	}
	for i := range t.symbols {
		name, ok := byID[i]
		if !ok {
			return nil, fmt.Errorf("symbol table ids are not contiguous: missing id %d", i)
		}
		t.symbols[i] = Symbol{Name: name, ID: i}
	}
	if len(t.symbols) >= 4 {
		t.numWords = len(t.symbols) - 4
	}
	return t, nil
}

// LoadFile is a convenience wrapper that opens a file path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return t, nil
}
