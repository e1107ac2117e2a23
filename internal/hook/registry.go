package hook

import (
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
)

type key struct {
	target Target
	member string
}

type entry struct {
	id      uint64
	owner   string
	kind    Kind
	before  BeforeFunc
	after   AfterFunc
	instead InsteadFunc
}

// table maps (target, member) to its chain in installation order.
// A published table and its chains are never mutated.
type table map[key][]*entry

// Registry holds every installed hook. It is safe for concurrent use.
//
// Writers copy the table, edit the copy and publish it atomically, so a
// dispatch that is already running keeps the chain it started with even if
// a handler installs or removes hooks mid-call.
type Registry struct {
	mu      sync.Mutex // serialises writers
	current atomic.Pointer[table]
	nextID  uint64
	logger  *slog.Logger
	onFault func(*Fault)
}

// Option configures a Registry at creation time.
type Option func(*Registry)

// WithLogger sets the logger used to report handler faults.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithFaultHandler replaces the default fault reporting (a warning log).
func WithFaultHandler(fn func(*Fault)) Option {
	return func(r *Registry) { r.onFault = fn }
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	empty := table{}
	r.current.Store(&empty)
	return r
}

// Handle identifies one installed hook.
type Handle struct {
	r  *Registry
	id uint64
}

// Remove uninstalls the hook. It reports whether anything was removed;
// calling it again, or on a zero Handle, is a no-op.
func (h Handle) Remove() bool {
	if h.r == nil {
		return false
	}
	return h.r.remove(func(e *entry) bool { return e.id == h.id }) > 0
}

// InstallBefore runs fn with the call's arguments ahead of the original.
func (r *Registry) InstallBefore(owner string, target Target, member string, fn BeforeFunc) (Handle, error) {
	if fn == nil {
		return Handle{}, ErrNilHandler
	}
	return r.install(target, member, &entry{owner: owner, kind: Before, before: fn})
}

// InstallAfter runs fn once the original (and any Instead handlers) returned.
// After handlers chain in installation order, each seeing the previous result.
func (r *Registry) InstallAfter(owner string, target Target, member string, fn AfterFunc) (Handle, error) {
	if fn == nil {
		return Handle{}, ErrNilHandler
	}
	return r.install(target, member, &entry{owner: owner, kind: After, after: fn})
}

// InstallInstead makes fn the decision point for the member. The newest
// Instead handler runs first and receives the next-older one as next.
func (r *Registry) InstallInstead(owner string, target Target, member string, fn InsteadFunc) (Handle, error) {
	if fn == nil {
		return Handle{}, ErrNilHandler
	}
	return r.install(target, member, &entry{owner: owner, kind: Instead, instead: fn})
}

// RemoveAll uninstalls every hook installed under owner and returns how many
// were removed. Hooks of other owners keep their relative order.
func (r *Registry) RemoveAll(owner string) int {
	return r.remove(func(e *entry) bool { return e.owner == owner })
}

// Installed returns the number of hooks currently installed under owner.
func (r *Registry) Installed(owner string) int {
	n := 0
	for _, chain := range *r.current.Load() {
		for _, e := range chain {
			if e.owner == owner {
				n++
			}
		}
	}
	return n
}

// Count returns the number of hooks installed on target's member.
func (r *Registry) Count(target Target, member string) int {
	if !comparableTarget(target) {
		return 0
	}
	return len((*r.current.Load())[key{target, member}])
}

// Original returns the member as the host defines it, bypassing every hook.
func (r *Registry) Original(target Target, member string) (Func, bool) {
	fn, err := resolve(target, member)
	return fn, err == nil
}

// Call invokes target's member through its hook chain. The only error is
// ErrTargetNotFound; handler faults are contained and reported, not returned.
func (r *Registry) Call(target Target, member string, args ...any) (any, error) {
	original, err := resolve(target, member)
	if err != nil {
		return nil, err
	}
	chain := (*r.current.Load())[key{target, member}]
	if len(chain) == 0 {
		return original(target, args), nil
	}
	return r.dispatch(target, member, original, chain, args), nil
}

func (r *Registry) install(target Target, member string, e *entry) (Handle, error) {
	if _, err := resolve(target, member); err != nil {
		return Handle{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	e.id = r.nextID

	old := *r.current.Load()
	next := make(table, len(old)+1)
	for k, chain := range old {
		next[k] = chain
	}
	k := key{target, member}
	chain := make([]*entry, len(old[k]), len(old[k])+1)
	copy(chain, old[k])
	next[k] = append(chain, e)

	r.current.Store(&next)
	return Handle{r: r, id: e.id}, nil
}

func (r *Registry) remove(match func(*entry) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.current.Load()
	next := make(table, len(old))
	removed := 0
	for k, chain := range old {
		kept := make([]*entry, 0, len(chain))
		for _, e := range chain {
			if match(e) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) > 0 {
			next[k] = kept
		}
	}
	if removed > 0 {
		r.current.Store(&next)
	}
	return removed
}

func (r *Registry) dispatch(this Target, member string, original Func, chain []*entry, args []any) any {
	for _, e := range chain {
		if e.kind == Before {
			r.runBefore(e, member, this, args)
		}
	}

	call := original
	for _, e := range chain {
		if e.kind == Instead {
			call = r.wrapInstead(e, member, call, original)
		}
	}
	result := call(this, args)

	for _, e := range chain {
		if e.kind == After {
			result = r.runAfter(e, member, this, args, result)
		}
	}
	return result
}

func (r *Registry) runBefore(e *entry, member string, this any, args []any) {
	defer r.contain(e, member)
	e.before(this, args)
}

func (r *Registry) runAfter(e *entry, member string, this any, args []any, result any) (out any) {
	out = result
	defer r.contain(e, member)
	if replacement, ok := e.after(this, args, result); ok {
		out = replacement
	}
	return out
}

// wrapInstead links e in front of next. A fault in e's own code falls back
// to the original member, or to next's result when e already called next;
// a panic raised further down the chain (by the
// host's original) is not ours to swallow and keeps propagating.
func (r *Registry) wrapInstead(e *entry, member string, next, original Func) Func {
	return func(this any, args []any) any {
		var result, nextResult any
		var downstream, nextDone, faulted bool

		guarded := func(this any, args []any) any {
			defer func() {
				if v := recover(); v != nil {
					downstream = true
					panic(v)
				}
			}()
			nextResult = next(this, args)
			nextDone = true
			return nextResult
		}

		func() {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if downstream {
					panic(v)
				}
				faulted = true
				r.fault(e, member, v)
			}()
			result = e.instead(this, args, guarded)
		}()

		switch {
		case faulted && nextDone:
			// The rest of the chain already ran; do not run it twice.
			return nextResult
		case faulted:
			return original(this, args)
		}
		return result
	}
}

func (r *Registry) contain(e *entry, member string) {
	if v := recover(); v != nil {
		r.fault(e, member, v)
	}
}

func (r *Registry) fault(e *entry, member string, v any) {
	f := &Fault{Owner: e.owner, Member: member, Kind: e.kind, Value: v}
	if r.onFault != nil {
		r.onFault(f)
		return
	}
	r.logger.Warn("hook handler fault",
		"owner", f.Owner,
		"member", f.Member,
		"kind", f.Kind.String(),
		"error", f,
	)
}

func resolve(target Target, member string) (Func, error) {
	if !comparableTarget(target) {
		return nil, targetNotFound(nil, member)
	}
	fn, ok := target.Member(member)
	if !ok || fn == nil {
		return nil, targetNotFound(target, member)
	}
	return fn, nil
}

// comparableTarget rejects nil (including typed nil pointers) and targets
// whose dynamic type cannot key a map.
func comparableTarget(target Target) bool {
	if target == nil {
		return false
	}
	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		if v.IsNil() {
			return false
		}
	}
	return v.Type().Comparable()
}
