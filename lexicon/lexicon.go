// Package lexicon merges pronunciation lexicons in the Kaldi
// "word phone1 phone2 ..." format.
package lexicon

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Entry is a single pronunciation for a word.
type Entry struct {
	Word   string
	Phones []string
}

// String returns the entry as a lexicon line.
func (e Entry) String() string {
	if len(e.Phones) == 0 {
		return e.Word
	}
	return e.Word + " " + strings.Join(e.Phones, " ")
}

// DefaultBootstrap returns the silence, spoken-noise and unknown entries.
func DefaultBootstrap() []Entry {
	return []Entry{
		{Word: "!SIL", Phones: []string{"SIL"}},
		{Word: "<SPOKEN_NOISE>", Phones: []string{"SPN"}},
		{Word: "<UNK>", Phones: []string{"SPN"}},
	}
}

// ParseEntry parses one lexicon line. Whitespace runs separate fields.
func ParseEntry(line string) (Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Entry{}, false
	}
	return Entry{Word: fields[0], Phones: fields[1:]}, true
}

// Parse reads lexicon lines from r. Blank lines are skipped; a line with
// fewer than two fields aborts with a MalformedEntryError.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		e, ok := ParseEntry(line)
		if !ok {
			return nil, &MalformedEntryError{Line: lineNum, Text: line}
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read lexicon")
	}
	return entries, nil
}

// Lexicon is a sorted, deduplicated set of pronunciations. A word may
// have several pronunciations; all of them are kept.
type Lexicon struct {
	entries []Entry
	byWord  map[string][]int
}

// New builds a Lexicon from entries, dropping exact duplicates and
// sorting byte-wise by full line text.
func New(entries []Entry) *Lexicon {
	type keyed struct {
		line  string
		entry Entry
	}
	seen := make(map[string]bool, len(entries))
	uniq := make([]keyed, 0, len(entries))
	for _, e := range entries {
		line := e.String()
		if seen[line] {
			continue
		}
		seen[line] = true
		uniq = append(uniq, keyed{line, e})
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].line < uniq[j].line })

	l := &Lexicon{
		entries: make([]Entry, len(uniq)),
		byWord:  make(map[string][]int),
	}
	for i, k := range uniq {
		l.entries[i] = k.entry
		l.byWord[k.entry.Word] = append(l.byWord[k.entry.Word], i)
	}
	return l
}

// Merge combines the bootstrap entries with the base lexicon read from r.
func Merge(base io.Reader, bootstrap []Entry) (*Lexicon, error) {
	entries, err := Parse(base)
	if err != nil {
		return nil, errors.Wrap(err, "parse base lexicon")
	}
	all := make([]Entry, 0, len(bootstrap)+len(entries))
	all = append(all, bootstrap...)
	all = append(all, entries...)
	return New(all), nil
}

// LoadFile reads a lexicon file.
func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	entries, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return New(entries), nil
}

// Entries returns the entries in line order.
func (l *Lexicon) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// Len returns the number of pronunciations.
func (l *Lexicon) Len() int { return len(l.entries) }

// Lookup returns all pronunciations of a word.
func (l *Lexicon) Lookup(word string) []Entry {
	idx := l.byWord[word]
	out := make([]Entry, len(idx))
	for i, j := range idx {
		out[i] = l.entries[j]
	}
	return out
}

// Words returns the distinct words, sorted.
func (l *Lexicon) Words() []string {
	words := make([]string, 0, len(l.byWord))
	for w := range l.byWord {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

// Missing returns the words of vocab that have no pronunciation, in input order.
func (l *Lexicon) Missing(vocab []string) []string {
	var out []string
	for _, w := range vocab {
		if _, ok := l.byWord[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}

// WriteTo writes one entry per line.
func (l *Lexicon) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, e := range l.entries {
		c, err := bw.WriteString(e.String() + "\n")
		n += int64(c)
		if err != nil {
			return n, errors.Wrap(err, "write lexicon")
		}
	}
	if err := bw.Flush(); err != nil {
		return n, errors.Wrap(err, "write lexicon")
	}
	return n, nil
}
