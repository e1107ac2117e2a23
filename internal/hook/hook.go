// Package hook intercepts calls to members of host-owned objects.
//
// The host never calls its own members directly: it resolves them through a
// Registry, which composes every installed Before, Instead and After handler
// around the original. Handlers are tagged with an owner so one owner can
// remove everything it installed without disturbing anyone else's chain.
//
// Usage:
//
//	reg := hook.New()
//	h, err := reg.InstallInstead("my-plugin", perms, "can",
//	    func(this any, args []any, next hook.Func) any {
//	        return next(this, args)
//	    })
//	out, err := reg.Call(perms, "can", bit, channel)
//	reg.RemoveAll("my-plugin")
package hook

import "fmt"

// Func is a host member as seen by the registry. this is the owning Target.
type Func func(this any, args []any) any

// Target is a host object whose members can be intercepted.
// Implementations must be comparable (pointer receivers are the norm),
// because the target's identity keys its hook chains.
type Target interface {
	Member(name string) (Func, bool)
}

// Kind selects where a handler runs relative to the original member.
type Kind int

const (
	Before Kind = iota
	After
	Instead
)

func (k Kind) String() string {
	switch k {
	case Before:
		return "before"
	case After:
		return "after"
	case Instead:
		return "instead"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// BeforeFunc observes the arguments before the original runs.
// Its return value is ignored; the original always runs afterwards.
type BeforeFunc func(this any, args []any)

// AfterFunc observes the current result. Returning ok=false keeps it.
type AfterFunc func(this any, args []any, result any) (replacement any, ok bool)

// InsteadFunc decides whether and how to call next, which is the next-older
// Instead handler or, at the innermost link, the original member.
type InsteadFunc func(this any, args []any, next Func) any

// EntryPoint names one member of one target.
type EntryPoint struct {
	Target Target
	Member string
}

func (p EntryPoint) String() string {
	return fmt.Sprintf("%T.%s", p.Target, p.Member)
}
