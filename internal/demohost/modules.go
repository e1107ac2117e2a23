package demohost

import (
	"context"
	"sort"
	"sync"

	"github.com/ppiankov/showhidden/internal/capability"
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/host"
)

// Permissions answers access-control questions from the store.
type Permissions struct {
	c *Client
}

// Member implements hook.Target.
func (p *Permissions) Member(name string) (hook.Func, bool) {
	switch name {
	case host.MemberCan:
		return p.can, true
	case host.MemberChannelPermissions:
		return p.channelPermissions, true
	}
	return nil, false
}

// can(permission, item) reports whether the viewer holds permission on item.
func (p *Permissions) can(this any, args []any) any {
	if len(args) < 2 {
		return false
	}
	item, ok := args[1].(*host.Item)
	if !ok || item == nil {
		return false
	}
	var want capability.Bitmask
	switch v := args[0].(type) {
	case capability.Bitmask:
		want = v
	case capability.LegacyID:
		want = capability.Bitmask(v)
	case int:
		want = capability.Bitmask(v)
	default:
		return false
	}
	if want == 0 {
		return false
	}
	return p.c.raw(item).Has(want)
}

// channelPermissions(item) returns the viewer's raw bitmask for item.
func (p *Permissions) channelPermissions(this any, args []any) any {
	item, ok := host.ItemFrom(args)
	if !ok {
		return capability.Bitmask(0)
	}
	return p.c.raw(item)
}

// Sidebar renders channel list entries.
type Sidebar struct {
	c *Client
}

// Member implements hook.Target.
func (s *Sidebar) Member(name string) (hook.Func, bool) {
	if name == host.MemberChannelItem {
		return s.channelItem, true
	}
	return nil, false
}

func (s *Sidebar) channelItem(this any, args []any) any {
	props, ok := host.PropsFrom(args)
	if !ok || props.Target == nil {
		return (*host.Node)(nil)
	}
	return &host.Node{
		Type:    "li",
		Classes: []string{"channel"},
		Attrs:   map[string]string{"data-id": props.Target.ID},
		Children: []*host.Node{
			{Type: "span", Text: "# " + props.Target.Name},
		},
	}
}

// Content renders an opened channel.
type Content struct {
	c *Client
}

// Member implements hook.Target.
func (c *Content) Member(name string) (hook.Func, bool) {
	if name == host.MemberChannelContent {
		return c.channelContent, true
	}
	return nil, false
}

func (c *Content) channelContent(this any, args []any) any {
	props, ok := host.PropsFrom(args)
	if !ok || props.Target == nil {
		return (*host.Node)(nil)
	}
	return &host.Node{
		Type:    "section",
		Classes: []string{"channel-content"},
		Attrs:   map[string]string{"data-id": props.Target.ID},
		Children: []*host.Node{
			{Type: "h2", Text: "#" + props.Target.Name},
			{Type: "ol", Classes: []string{"messages"}},
		},
	}
}

// Settings holds the viewer's boolean client settings.
type Settings struct {
	mu     sync.Mutex
	values map[string]bool
}

// Member implements hook.Target.
func (s *Settings) Member(name string) (hook.Func, bool) {
	if name == host.MemberGetSetting {
		return s.get, true
	}
	return nil, false
}

func (s *Settings) get(this any, args []any) any {
	if len(args) == 0 {
		return false
	}
	key, _ := args[0].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Set changes one setting.
func (s *Settings) Set(key string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]bool)
	}
	s.values[key] = value
}

// StyleSheet is the host's style injection service.
type StyleSheet struct {
	mu     sync.Mutex
	sheets map[string]string
}

// AddStyle injects or replaces the named stylesheet.
func (s *StyleSheet) AddStyle(name, css string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheets == nil {
		s.sheets = make(map[string]string)
	}
	s.sheets[name] = css
}

// RemoveStyle drops the named stylesheet. Unknown names are ignored.
func (s *StyleSheet) RemoveStyle(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sheets, name)
}

// CSS returns the named stylesheet.
func (s *StyleSheet) CSS(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	css, ok := s.sheets[name]
	return css, ok
}

// Names lists injected stylesheets in order.
func (s *StyleSheet) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.sheets))
	for n := range s.sheets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Toast is one notification shown by the host.
type Toast struct {
	Message string
	Options host.ToastOptions
}

// Toasts records notifications instead of displaying them.
type Toasts struct {
	mu    sync.Mutex
	shown []Toast
}

// ShowToast implements host.Notifier.
func (t *Toasts) ShowToast(message string, opts host.ToastOptions) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shown = append(t.shown, Toast{Message: message, Options: opts})
}

// Shown returns every toast so far.
func (t *Toasts) Shown() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Toast(nil), t.shown...)
}

var (
	_ hook.Target   = (*Permissions)(nil)
	_ hook.Target   = (*Sidebar)(nil)
	_ hook.Target   = (*Content)(nil)
	_ hook.Target   = (*Settings)(nil)
	_ host.Styles   = (*StyleSheet)(nil)
	_ host.Notifier = (*Toasts)(nil)
)

// raw looks the item up in the store. Unknown items have no permissions.
func (c *Client) raw(item *host.Item) capability.Bitmask {
	ch, err := c.store.GetChannel(context.Background(), item.ID)
	if err != nil {
		return 0
	}
	return ch.Permissions
}
