// Package override installs the capability override and the hidden-item
// presentation onto a host, and removes all of it again on Stop.
package override

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ppiankov/showhidden/internal/capability"
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/host"
	"github.com/ppiankov/showhidden/internal/visibility"
)

// Namespace prefixes owner tags and injected style names.
const Namespace = "showhidden"

// Session owns every hook and stylesheet it installs.
// Lifecycle: Inactive -> Start -> Active -> Stop -> Inactive, and again.
type Session struct {
	mu       sync.Mutex
	owner    string
	registry *hook.Registry
	policy   *capability.Policy
	opts     options
	logger   *slog.Logger

	state  State
	status Status
	styles host.Styles // held only while the stylesheet is injected
	raw    *hook.EntryPoint
}

// New creates an inactive session. A nil policy means DefaultPolicy.
func New(registry *hook.Registry, policy *capability.Policy, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = capability.DefaultPolicy()
	}
	if o.css == "" {
		o.css = DefaultCSS(o.hiddenClass)
	}
	owner := Namespace + "/" + uuid.NewString()
	return &Session{
		owner:    owner,
		registry: registry,
		policy:   policy,
		opts:     o,
		logger:   logger.With("session", owner),
		status:   Status{State: Inactive},
	}
}

// Owner is the tag every hook of this session is installed under.
func (s *Session) Owner() string { return s.owner }

// Policy returns the capability policy the session enforces.
func (s *Session) Policy() *capability.Policy { return s.policy }

// Scope returns the configured override scope.
func (s *Session) Scope() Scope { return s.opts.scope }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns what the current activation installed.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.clone()
}

// StyleName is the namespaced name the stylesheet is injected under.
func (s *Session) StyleName() string {
	return Namespace + "/" + s.opts.styleName
}

// Start installs the override onto the entry points loc can find. Missing
// entry points are logged and skipped. Starting an active session returns
// its current status and changes nothing.
func (s *Session) Start(loc Locator) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Active {
		s.logger.Debug("start ignored, session already active")
		return s.status.clone()
	}

	st := Status{State: Active}
	if loc == nil {
		loc = emptyLocator{}
	}

	s.installOverride(loc, &st)
	s.installAugment(loc, &st)
	s.installMarking(loc, &st)
	if s.opts.lockScreen {
		s.installLockScreen(loc, &st)
	}
	if s.opts.scope == ScopeBroad {
		s.installSettings(loc, &st)
	}
	s.injectStyles(loc, &st)

	s.state = Active
	s.status = st

	s.logger.Info("override session started",
		"scope", string(s.opts.scope),
		"installed", joinFeatures(st.Installed),
		"missing", joinFeatures(st.Missing),
	)
	if s.opts.notify {
		s.notify(loc, st)
	}
	return st.clone()
}

// Stop removes every hook the session installed and releases its
// stylesheet. It is safe to call repeatedly and after a partial Start.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.registry.RemoveAll(s.owner)
	if s.styles != nil {
		s.styles.RemoveStyle(s.StyleName())
		s.styles = nil
	}
	s.raw = nil

	if s.state == Active {
		s.logger.Info("override session stopped", "hooks_removed", removed)
	}
	s.state = Inactive
	s.status = Status{State: Inactive}
}

// Classify computes item's verdict from the host's unoverridden bitmask.
// ok is false while the session is inactive or has no bitmask lookup.
func (s *Session) Classify(item *host.Item) (visibility.Verdict, bool) {
	s.mu.Lock()
	raw := s.raw
	s.mu.Unlock()
	if raw == nil || item == nil || s.policy.Primary() == 0 {
		return visibility.Visible, false
	}
	return s.classifyRaw(*raw, item)
}

func (s *Session) classifyRaw(raw hook.EntryPoint, item *host.Item) (visibility.Verdict, bool) {
	fn, ok := s.registry.Original(raw.Target, raw.Member)
	if !ok {
		return visibility.Visible, false
	}
	bits, ok := toBitmask(fn(raw.Target, []any{item}))
	if !ok {
		return visibility.Visible, false
	}
	return visibility.Classify(bits, s.policy.Primary()), true
}

// canClassify reports why hidden items cannot be told apart, if they cannot.
// Without a primary bit every item would classify as hidden.
func (s *Session) canClassify() error {
	if s.raw == nil {
		return fmt.Errorf("no raw bitmask lookup to classify against")
	}
	if s.policy.Primary() == 0 {
		return fmt.Errorf("policy has no capability bit: %w", capability.ErrNoRules)
	}
	return nil
}

func (s *Session) installOverride(loc Locator, st *Status) {
	ep, ok := loc.AccessControl()
	if !ok {
		s.missing(st, FeatureOverride, "access control", nil)
		return
	}
	policy := s.policy
	_, err := s.registry.InstallInstead(s.owner, ep.Target, ep.Member, func(this any, args []any, next hook.Func) any {
		var q capability.Query
		if len(args) > 0 {
			q.Capability = args[0]
		}
		if len(args) > 1 {
			q.Subject = args[1]
		}
		return policy.Evaluate(q, func(capability.Query) bool {
			granted, _ := next(this, args).(bool)
			return granted
		})
	})
	s.installed(st, FeatureOverride, ep, err)
}

func (s *Session) installAugment(loc Locator, st *Status) {
	ep, ok := loc.BitmaskLookup()
	if !ok {
		s.missing(st, FeatureAugment, "bitmask lookup", nil)
		return
	}
	policy := s.policy
	_, err := s.registry.InstallAfter(s.owner, ep.Target, ep.Member, func(this any, args []any, result any) (any, bool) {
		return augmentValue(policy, result)
	})
	if err == nil {
		s.raw = &ep
	}
	s.installed(st, FeatureAugment, ep, err)
}

func (s *Session) installMarking(loc Locator, st *Status) {
	ep, ok := loc.ItemRenderer()
	if !ok {
		s.missing(st, FeatureMarking, "item renderer", nil)
		return
	}
	if err := s.canClassify(); err != nil {
		s.missing(st, FeatureMarking, "item renderer", err)
		return
	}
	raw := *s.raw
	class := s.opts.hiddenClass
	_, err := s.registry.InstallAfter(s.owner, ep.Target, ep.Member, func(this any, args []any, result any) (any, bool) {
		node, ok := result.(*host.Node)
		if !ok || node == nil {
			return nil, false
		}
		item, ok := host.ItemFrom(args)
		if !ok {
			return nil, false
		}
		if v, ok := s.classifyRaw(raw, item); !ok || v != visibility.Hidden {
			return nil, false
		}
		return markHidden(node, class), true
	})
	s.installed(st, FeatureMarking, ep, err)
}

func (s *Session) installLockScreen(loc Locator, st *Status) {
	ep, ok := loc.ContentRenderer()
	if !ok {
		s.missing(st, FeatureLockScreen, "content renderer", nil)
		return
	}
	if err := s.canClassify(); err != nil {
		s.missing(st, FeatureLockScreen, "content renderer", err)
		return
	}
	raw := *s.raw
	_, err := s.registry.InstallAfter(s.owner, ep.Target, ep.Member, func(this any, args []any, result any) (any, bool) {
		item, ok := host.ItemFrom(args)
		if !ok {
			return nil, false
		}
		if v, ok := s.classifyRaw(raw, item); !ok || v != visibility.Hidden {
			return nil, false
		}
		return LockedView(item), true
	})
	s.installed(st, FeatureLockScreen, ep, err)
}

func (s *Session) installSettings(loc Locator, st *Status) {
	ep, ok := loc.Settings()
	if !ok {
		s.missing(st, FeatureSettings, "settings", nil)
		return
	}
	forced := make(map[string]bool, len(s.opts.forcedSettings))
	for _, k := range s.opts.forcedSettings {
		forced[k] = true
	}
	_, err := s.registry.InstallInstead(s.owner, ep.Target, ep.Member, func(this any, args []any, next hook.Func) any {
		if len(args) > 0 {
			if key, ok := args[0].(string); ok && forced[key] {
				return true
			}
		}
		return next(this, args)
	})
	s.installed(st, FeatureSettings, ep, err)
}

func (s *Session) injectStyles(loc Locator, st *Status) {
	styles := loc.Styles()
	if styles == nil {
		s.missing(st, FeatureStyles, "style service", nil)
		return
	}
	styles.AddStyle(s.StyleName(), s.opts.css)
	s.styles = styles
	st.Installed = append(st.Installed, FeatureStyles)
}

func (s *Session) installed(st *Status, f Feature, ep hook.EntryPoint, err error) {
	if err != nil {
		s.missing(st, f, ep.String(), err)
		return
	}
	st.Installed = append(st.Installed, f)
}

// missing records a skipped feature and logs it once for this activation.
func (s *Session) missing(st *Status, f Feature, what string, err error) {
	st.Missing = append(st.Missing, f)
	attrs := []any{"feature", string(f), "entry_point", what}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	s.logger.Warn("entry point not found, continuing without feature", attrs...)
}

func (s *Session) notify(loc Locator, st Status) {
	n := loc.Notifier()
	if n == nil {
		return
	}
	if st.Degraded() {
		n.ShowToast("ShowHidden is running with reduced functionality (missing: "+joinFeatures(st.Missing)+")",
			host.ToastOptions{Type: "warning"})
		return
	}
	n.ShowToast("ShowHidden is active", host.ToastOptions{Type: "info"})
}

func joinFeatures(fs []Feature) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}

type emptyLocator struct{}

func (emptyLocator) AccessControl() (hook.EntryPoint, bool)   { return hook.EntryPoint{}, false }
func (emptyLocator) BitmaskLookup() (hook.EntryPoint, bool)   { return hook.EntryPoint{}, false }
func (emptyLocator) ItemRenderer() (hook.EntryPoint, bool)    { return hook.EntryPoint{}, false }
func (emptyLocator) ContentRenderer() (hook.EntryPoint, bool) { return hook.EntryPoint{}, false }
func (emptyLocator) Settings() (hook.EntryPoint, bool)        { return hook.EntryPoint{}, false }
func (emptyLocator) Styles() host.Styles                      { return nil }
func (emptyLocator) Notifier() host.Notifier                  { return nil }
