// Package capability forces selected access-control bits to evaluate as
// granted while leaving every other capability to the host.
package capability

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDuplicateRule is returned when two rules target the same bit.
	ErrDuplicateRule = errors.New("duplicate override rule")

	// ErrSuppressingRule is returned for a rule that would force a denial.
	// Overrides are additive only.
	ErrSuppressingRule = errors.New("override rule must grant")

	// ErrEmptyRule is returned for a rule without a capability bit.
	ErrEmptyRule = errors.New("override rule has no capability bit")

	// ErrNoRules is returned where a policy must override at least one bit.
	ErrNoRules = errors.New("no override rules")
)

// Query is one access-control question as the host asks it.
// Capability is a Bitmask, or a LegacyID / plain integer in the older encoding.
type Query struct {
	Capability any
	Subject    any
}

// Evaluator answers a Query the way the host would without overrides.
type Evaluator func(Query) bool

// Rule forces one capability bit, and optionally its legacy alias, to a result.
type Rule struct {
	Bit    Bitmask  `yaml:"bit"`
	Grant  bool     `yaml:"grant"`
	Legacy LegacyID `yaml:"legacy,omitempty"`
}

// Matches reports whether capability names this rule's bit in either encoding.
func (r Rule) Matches(capability any) bool {
	switch v := capability.(type) {
	case Bitmask:
		return v == r.Bit
	case LegacyID:
		return r.Legacy != 0 && v == r.Legacy
	}
	n, ok := legacyNumber(capability)
	return ok && r.Legacy != 0 && n == r.Legacy
}

func legacyNumber(v any) (LegacyID, bool) {
	switch n := v.(type) {
	case int:
		return LegacyID(n), true
	case int8:
		return LegacyID(n), true
	case int16:
		return LegacyID(n), true
	case int32:
		return LegacyID(n), true
	case int64:
		return LegacyID(n), true
	case uint8:
		return LegacyID(n), true
	case uint16:
		return LegacyID(n), true
	case uint32:
		return LegacyID(n), true
	case uint:
		return legacyUnsigned(uint64(n))
	case uint64:
		return legacyUnsigned(n)
	case float64:
		// Numbers decoded from JSON arrive as float64.
		if n != float64(int64(n)) {
			return 0, false
		}
		return LegacyID(n), true
	default:
		return 0, false
	}
}

func legacyUnsigned(n uint64) (LegacyID, bool) {
	if n > math.MaxInt64 {
		return 0, false
	}
	return LegacyID(n), true
}

// Policy forces a narrow set of capabilities to evaluate as granted and
// passes every other query through untouched.
type Policy struct {
	rules  []Rule
	target Bitmask
}

// NewPolicy validates rules: each needs a bit, must grant, and no two rules
// may share a bit.
func NewPolicy(rules ...Rule) (*Policy, error) {
	p := &Policy{rules: make([]Rule, 0, len(rules))}
	seen := make(map[Bitmask]bool, len(rules))
	for i, r := range rules {
		if r.Bit == 0 {
			return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyRule)
		}
		if !r.Grant {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Bit, ErrSuppressingRule)
		}
		if seen[r.Bit] {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Bit, ErrDuplicateRule)
		}
		seen[r.Bit] = true
		p.rules = append(p.rules, r)
		p.target |= r.Bit
	}
	return p, nil
}

// DefaultPolicy forces ViewChannel and its legacy alias.
func DefaultPolicy() *Policy {
	p, _ := NewPolicy(Rule{Bit: ViewChannel, Grant: true, Legacy: LegacyViewChannel})
	return p
}

// Evaluate grants q outright when a rule covers its capability, without
// consulting fallback. Anything else is fallback's answer, unchanged.
// A nil fallback denies.
func (p *Policy) Evaluate(q Query, fallback Evaluator) bool {
	if p.Covers(q.Capability) {
		return true
	}
	if fallback == nil {
		return false
	}
	return fallback(q)
}

// Covers reports whether some rule matches capability.
func (p *Policy) Covers(capability any) bool {
	for _, r := range p.rules {
		if r.Matches(capability) {
			return true
		}
	}
	return false
}

// Augment sets every overridden bit in b. It never clears a bit.
func (p *Policy) Augment(b Bitmask) Bitmask {
	return b | p.target
}

// Target is the union of every overridden bit.
func (p *Policy) Target() Bitmask {
	return p.target
}

// Primary is the first rule's bit, the one visibility is classified against.
// Zero for an empty policy.
func (p *Policy) Primary() Bitmask {
	if len(p.rules) == 0 {
		return 0
	}
	return p.rules[0].Bit
}

// Rules returns a copy of the policy's rules.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}
