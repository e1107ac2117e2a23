// Package visibility decides whether an item is hidden from the viewer under
// the host's real access rules.
package visibility

import (
	"fmt"
	"strings"

	"github.com/ppiankov/showhidden/internal/capability"
)

// Verdict is the outcome of Classify. It is always recomputed, never stored.
type Verdict int

const (
	Visible Verdict = iota
	Hidden
)

func (v Verdict) String() string {
	if v == Hidden {
		return "hidden"
	}
	return "visible"
}

// ParseVerdict reads "visible" or "hidden", case-insensitively.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "visible":
		return Visible, nil
	case "hidden":
		return Hidden, nil
	default:
		return Visible, fmt.Errorf("unknown visibility verdict %q", s)
	}
}

// Classify reports Hidden iff raw has none of bit's bits set. raw must be the
// unoverridden bitmask; bits outside bit have no effect.
func Classify(raw, bit capability.Bitmask) Verdict {
	if raw&bit == 0 {
		return Hidden
	}
	return Visible
}
