// Package host describes the host application as the override layer sees it:
// the member names it intercepts, the props passed to render members, an
// opaque renderable tree, and the style and toast services it borrows.
package host

import "time"

// Members intercepted on host objects.
const (
	MemberCan                = "can"
	MemberChannelPermissions = "getChannelPermissions"
	MemberChannelItem        = "ChannelItem"
	MemberChannelContent     = "ChannelContent"
	MemberGetSetting         = "getSetting"
)

// Settings the broad override scope forces on.
const (
	SettingOptedIn         = "opted_in"
	SettingShowAllChannels = "show_all_channels"
)

// Item is a channel-like target shown in a list and opened in a content view.
type Item struct {
	ID    string
	Name  string
	Topic string
	Kind  string
}

// Props is the argument of the host's render members.
type Props struct {
	Target *Item
}

// PropsFrom extracts the render props from a member call's arguments.
func PropsFrom(args []any) (Props, bool) {
	if len(args) == 0 {
		return Props{}, false
	}
	switch p := args[0].(type) {
	case Props:
		return p, true
	case *Props:
		if p == nil {
			return Props{}, false
		}
		return *p, true
	default:
		return Props{}, false
	}
}

// ItemFrom extracts the target item from a member call's arguments, which
// carry either props or the item itself.
func ItemFrom(args []any) (*Item, bool) {
	if props, ok := PropsFrom(args); ok {
		return props.Target, props.Target != nil
	}
	if len(args) == 0 {
		return nil, false
	}
	item, ok := args[0].(*Item)
	return item, ok && item != nil
}

// Styles injects and removes named stylesheets. RemoveStyle of an unknown
// name is a no-op.
type Styles interface {
	AddStyle(name, css string)
	RemoveStyle(name string)
}

// ToastOptions tunes a transient notification.
type ToastOptions struct {
	Type    string
	Timeout time.Duration
}

// Notifier shows transient notifications. Fire and forget.
type Notifier interface {
	ShowToast(message string, opts ToastOptions)
}
