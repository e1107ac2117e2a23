package override

import (
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/host"
)

// Locator finds the host entry points a Session hooks. Every lookup may come
// back empty; the session then runs with whatever it did find.
type Locator interface {
	// AccessControl is the member answering "may subject use capability".
	AccessControl() (hook.EntryPoint, bool)
	// BitmaskLookup is the member returning a target's raw capability bitmask.
	BitmaskLookup() (hook.EntryPoint, bool)
	// ItemRenderer renders one item in a list.
	ItemRenderer() (hook.EntryPoint, bool)
	// ContentRenderer renders an opened item.
	ContentRenderer() (hook.EntryPoint, bool)
	// Settings is the member returning a boolean host setting by key.
	Settings() (hook.EntryPoint, bool)
	// Styles may be nil.
	Styles() host.Styles
	// Notifier may be nil.
	Notifier() host.Notifier
}

// Feature is one piece of functionality a Session installs.
type Feature string

const (
	FeatureOverride   Feature = "capability-override"
	FeatureAugment    Feature = "bitmask-augment"
	FeatureMarking    Feature = "item-marking"
	FeatureLockScreen Feature = "content-lock"
	FeatureSettings   Feature = "forced-settings"
	FeatureStyles     Feature = "styles"
)

// State is the session lifecycle state.
type State int

const (
	Inactive State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "inactive"
}

// Status reports what the last Start installed and what it had to skip.
type Status struct {
	State     State
	Installed []Feature
	Missing   []Feature
}

// Has reports whether f was installed.
func (s Status) Has(f Feature) bool {
	for _, x := range s.Installed {
		if x == f {
			return true
		}
	}
	return false
}

// Degraded reports whether any wanted feature is missing.
func (s Status) Degraded() bool {
	return len(s.Missing) > 0
}

func (s Status) clone() Status {
	return Status{
		State:     s.State,
		Installed: append([]Feature(nil), s.Installed...),
		Missing:   append([]Feature(nil), s.Missing...),
	}
}
