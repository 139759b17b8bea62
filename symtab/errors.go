package symtab

import (
	"fmt"

	"github.com/pkg/errors"
)

// Reserved slot names reported by ReservedSymbolCollisionError.
const (
	SlotEpsilon       = "epsilon"
	SlotDisambig      = "disambig"
	SlotSentenceStart = "sentence-start"
	SlotSentenceEnd   = "sentence-end"
)

// ErrReservedSymbolCollision matches any ReservedSymbolCollisionError via errors.Is.
var ErrReservedSymbolCollision = errors.New("reserved symbol collision")

// ReservedSymbolCollisionError reports a vocabulary word equal to a
// reserved control symbol.
type ReservedSymbolCollisionError struct {
	Symbol string // the offending word
	Slot   string // which reserved slot it collides with
}

func (e *ReservedSymbolCollisionError) Error() string {
	return fmt.Sprintf("vocabulary contains reserved %s symbol %q", e.Slot, e.Symbol)
}

// Is reports whether target is ErrReservedSymbolCollision.
func (e *ReservedSymbolCollisionError) Is(target error) bool {
	return target == ErrReservedSymbolCollision
}
