package demohost

import (
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/host"
)

// Names accepted by Locator.Without besides the host member names.
const (
	ServiceStyles = "styles"
	ServiceToasts = "toasts"
)

// Locator exposes the client's entry points. Entry points can be withheld
// to reproduce a host build where a module could not be found.
type Locator struct {
	c      *Client
	hidden map[string]bool
}

// Locator returns a locator that finds every entry point.
func (c *Client) Locator() *Locator {
	return &Locator{c: c, hidden: map[string]bool{}}
}

// Without returns a copy of l that cannot find the named members or services.
func (l *Locator) Without(names ...string) *Locator {
	hidden := make(map[string]bool, len(l.hidden)+len(names))
	for k := range l.hidden {
		hidden[k] = true
	}
	for _, n := range names {
		hidden[n] = true
	}
	return &Locator{c: l.c, hidden: hidden}
}

func (l *Locator) find(target hook.Target, member string) (hook.EntryPoint, bool) {
	if l.hidden[member] {
		return hook.EntryPoint{}, false
	}
	return hook.EntryPoint{Target: target, Member: member}, true
}

func (l *Locator) AccessControl() (hook.EntryPoint, bool) {
	return l.find(l.c.Permissions, host.MemberCan)
}

func (l *Locator) BitmaskLookup() (hook.EntryPoint, bool) {
	return l.find(l.c.Permissions, host.MemberChannelPermissions)
}

func (l *Locator) ItemRenderer() (hook.EntryPoint, bool) {
	return l.find(l.c.Sidebar, host.MemberChannelItem)
}

func (l *Locator) ContentRenderer() (hook.EntryPoint, bool) {
	return l.find(l.c.Content, host.MemberChannelContent)
}

func (l *Locator) Settings() (hook.EntryPoint, bool) {
	return l.find(l.c.Settings, host.MemberGetSetting)
}

func (l *Locator) Styles() host.Styles {
	if l.hidden[ServiceStyles] {
		return nil
	}
	return l.c.Styles
}

func (l *Locator) Notifier() host.Notifier {
	if l.hidden[ServiceToasts] {
		return nil
	}
	return l.c.Toasts
}
