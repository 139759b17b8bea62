package lexicon

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedEntry matches any MalformedEntryError via errors.Is.
var ErrMalformedEntry = errors.New("malformed lexicon entry")

// MalformedEntryError reports a lexicon line with fewer than two fields.
type MalformedEntryError struct {
	Line int // 1-based
	Text string
}

func (e *MalformedEntryError) Error() string {
	return fmt.Sprintf("line %d: malformed lexicon entry %q: expected word and at least one phone", e.Line, e.Text)
}

// Is reports whether target is ErrMalformedEntry.
func (e *MalformedEntryError) Is(target error) bool {
	return target == ErrMalformedEntry
}
