package capability

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bitmask is a set of independent capability bits.
type Bitmask uint64

// LegacyID is a capability as older host code encodes it: a plain number
// rather than a Bitmask.
type LegacyID int64

const (
	// ViewChannel lets a viewer see a channel exists and read it.
	ViewChannel Bitmask = 1 << 10

	// LegacyViewChannel is ViewChannel in the older numeric encoding.
	LegacyViewChannel LegacyID = 1024
)

// ErrInvalidBitmask is returned when a bitmask literal cannot be parsed.
var ErrInvalidBitmask = errors.New("invalid bitmask")

// Has reports whether every bit of bit is set in b.
func (b Bitmask) Has(bit Bitmask) bool {
	return b&bit == bit
}

// With returns b with bit set.
func (b Bitmask) With(bit Bitmask) Bitmask {
	return b | bit
}

// String renders single bits as "1<<n" and everything else in hex.
func (b Bitmask) String() string {
	if b != 0 && b&(b-1) == 0 {
		return fmt.Sprintf("1<<%d", bits.TrailingZeros64(uint64(b)))
	}
	return fmt.Sprintf("0x%x", uint64(b))
}

// ParseBitmask accepts decimal, 0x hex, 0b binary and "1<<n" shift literals.
func ParseBitmask(s string) (Bitmask, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidBitmask)
	}
	if base, shift, ok := strings.Cut(s, "<<"); ok {
		b, err := strconv.ParseUint(strings.TrimSpace(base), 0, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidBitmask, s)
		}
		n, err := strconv.ParseUint(strings.TrimSpace(shift), 10, 8)
		if err != nil || n > 63 || (b<<n)>>n != b {
			return 0, fmt.Errorf("%w: shift out of range in %q", ErrInvalidBitmask, s)
		}
		return Bitmask(b << n), nil
	}
	v, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBitmask, s)
	}
	return Bitmask(v), nil
}

// UnmarshalYAML accepts integers and any literal ParseBitmask understands.
func (b *Bitmask) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected a scalar", ErrInvalidBitmask, node.Line)
	}
	v, err := ParseBitmask(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*b = v
	return nil
}

// MarshalYAML writes the String form, which ParseBitmask reads back.
func (b Bitmask) MarshalYAML() (any, error) {
	return b.String(), nil
}
