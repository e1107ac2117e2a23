package host

import (
	"sort"
	"strings"
)

// Node is the host's renderable value. The override layer only adds classes
// and attributes to it or swaps it for another node.
type Node struct {
	Type     string
	Classes  []string
	Attrs    map[string]string
	Text     string
	Children []*Node
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Type: n.Type, Text: n.Text}
	if n.Classes != nil {
		c.Classes = append([]string(nil), n.Classes...)
	}
	if n.Attrs != nil {
		c.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			c.Attrs[k] = v
		}
	}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// HasClass reports whether n carries class.
func (n *Node) HasClass(class string) bool {
	if n == nil {
		return false
	}
	for _, c := range n.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends class unless n already has it.
func (n *Node) AddClass(class string) {
	if !n.HasClass(class) {
		n.Classes = append(n.Classes, class)
	}
}

// SetAttr sets one attribute.
func (n *Node) SetAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// Attr returns the attribute value, or "" when unset.
func (n *Node) Attr(key string) string {
	if n == nil {
		return ""
	}
	return n.Attrs[key]
}

// String renders n as compact markup, for logs and the CLI.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		return
	}
	b.WriteString("<" + n.Type)
	if len(n.Classes) > 0 {
		b.WriteString(` class="` + strings.Join(n.Classes, " ") + `"`)
	}
	keys := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" " + k + `="` + n.Attrs[k] + `"`)
	}
	b.WriteString(">")
	b.WriteString(n.Text)
	for _, c := range n.Children {
		c.write(b)
	}
	b.WriteString("</" + n.Type + ">")
}
