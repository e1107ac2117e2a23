package override

import (
	"math"

	"github.com/ppiankov/showhidden/internal/capability"
	"github.com/ppiankov/showhidden/internal/host"
)

// LockedClass is carried by the substitute content view of a hidden item.
const LockedClass = "shc-locked-channel"

// HiddenAttr annotates a list item that is hidden under the real rules.
const HiddenAttr = "data-hidden"

const lockedNotice = "This channel is hidden. You can see that it exists, but not its messages."

// markHidden returns a copy of node annotated as hidden. The host's own
// node is left untouched.
func markHidden(node *host.Node, class string) *host.Node {
	marked := node.Clone()
	marked.AddClass(class)
	marked.SetAttr(HiddenAttr, "true")
	return marked
}

// LockedView is the content shown in place of a hidden item: its title, its
// stable identifier and, when it has one, its description.
func LockedView(item *host.Item) *host.Node {
	view := &host.Node{
		Type:    "section",
		Classes: []string{LockedClass},
		Attrs:   map[string]string{"data-item-id": item.ID},
		Children: []*host.Node{
			{Type: "h2", Text: "#" + item.Name},
		},
	}
	if item.Topic != "" {
		view.Children = append(view.Children, &host.Node{
			Type:    "p",
			Classes: []string{"topic"},
			Text:    item.Topic,
		})
	}
	view.Children = append(view.Children, &host.Node{Type: "p", Text: lockedNotice})
	return view
}

// augmentValue applies the policy to a raw bitmask result, preserving the
// integer type the host returned.
func augmentValue(p *capability.Policy, v any) (any, bool) {
	switch b := v.(type) {
	case capability.Bitmask:
		return p.Augment(b), true
	case uint64:
		return uint64(p.Augment(capability.Bitmask(b))), true
	case uint:
		return uint(p.Augment(capability.Bitmask(b))), true
	case uint32:
		// Bits the type cannot carry leave the value untouched.
		out := p.Augment(capability.Bitmask(b))
		if out > math.MaxUint32 {
			return nil, false
		}
		return uint32(out), true
	case int64:
		if b < 0 {
			return nil, false
		}
		return int64(p.Augment(capability.Bitmask(b))), true
	case int:
		if b < 0 {
			return nil, false
		}
		return int(p.Augment(capability.Bitmask(b))), true
	default:
		return nil, false
	}
}

func toBitmask(v any) (capability.Bitmask, bool) {
	switch b := v.(type) {
	case capability.Bitmask:
		return b, true
	case uint64:
		return capability.Bitmask(b), true
	case uint:
		return capability.Bitmask(b), true
	case uint32:
		return capability.Bitmask(b), true
	case int64:
		return capability.Bitmask(b), b >= 0
	case int:
		return capability.Bitmask(b), b >= 0
	default:
		return 0, false
	}
}
