// Package corpus cleans raw transcripts and extracts their vocabulary.
package corpus

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// maxLineSize bounds a single transcript line.
const maxLineSize = 1024 * 1024

// blankRe matches runs of horizontal whitespace.
var blankRe = regexp.MustCompile(`[ \t]+`)

// Filter removes meta-tags from transcript lines.
type Filter struct {
	// GarbageTags mark utterances that are discarded entirely.
	GarbageTags []string
	// PunctuationTags are deleted wherever they occur.
	PunctuationTags []string
}

// DefaultGarbageTags and DefaultPunctuationTags are the GigaSpeech-style tag sets.
var (
	DefaultGarbageTags     = []string{"<SIL>", "<MUSIC>", "<NOISE>", "<OTHER>"}
	DefaultPunctuationTags = []string{"<COMMA>", "<EXCLAMATIONPOINT>", "<PERIOD>", "<QUESTIONMARK>"}
)

// DefaultFilter returns a Filter using the default tag sets.
func DefaultFilter() Filter {
	return Filter{
		GarbageTags:     append([]string(nil), DefaultGarbageTags...),
		PunctuationTags: append([]string(nil), DefaultPunctuationTags...),
	}
}

// Clean normalizes one utterance. ok is false when the line carries a
// garbage tag and must be dropped.
func (f Filter) Clean(line string) (cleaned string, ok bool) {
	for _, tag := range f.GarbageTags {
		if tag != "" && strings.Contains(line, tag) {
			return "", false
		}
	}
	for _, tag := range f.PunctuationTags {
		if tag != "" {
			line = strings.ReplaceAll(line, tag, "")
		}
	}
	return blankRe.ReplaceAllString(line, " "), true
}

// Apply cleans every line, preserving order and dropping garbage lines.
func (f Filter) Apply(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if cleaned, ok := f.Clean(line); ok {
			out = append(out, cleaned)
		}
	}
	return out
}

// Stats counts lines seen by Stream.
type Stats struct {
	Read    int
	Dropped int
	Written int
}

// Stream reads one utterance per line from r and writes the cleaned
// utterances to w.
func (f Filter) Stream(r io.Reader, w io.Writer) (Stats, error) {
	var st Stats
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	bw := bufio.NewWriter(w)

	for scanner.Scan() {
		st.Read++
		cleaned, ok := f.Clean(scanner.Text())
		if !ok {
			st.Dropped++
			continue
		}
		if _, err := bw.WriteString(cleaned); err != nil {
			return st, errors.Wrap(err, "write transcript")
		}
		if err := bw.WriteByte('\n'); err != nil {
			return st, errors.Wrap(err, "write transcript")
		}
		st.Written++
	}
	if err := scanner.Err(); err != nil {
		return st, errors.Wrapf(err, "read transcript line %d", st.Read+1)
	}
	if err := bw.Flush(); err != nil {
		return st, errors.Wrap(err, "flush transcript")
	}
	return st, nil
}
