// Package demohost is a small in-process chat client standing in for the host
// application. Every call between its modules goes through a hook.Registry,
// so an override session can intercept it exactly as it would in the real
// host.
package demohost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/showhidden/internal/capability"
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/host"
)

// ErrNoAccess is returned when the viewer may not open a channel.
var ErrNoAccess = errors.New("missing access")

// Client is the simulated host.
type Client struct {
	registry *hook.Registry
	store    *Store
	logger   *slog.Logger

	Permissions *Permissions
	Sidebar     *Sidebar
	Content     *Content
	Settings    *Settings
	Styles      *StyleSheet
	Toasts      *Toasts
}

// New wires a client around store. All member calls dispatch through registry.
func New(registry *hook.Registry, store *Store, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		registry: registry,
		store:    store,
		logger:   logger,
		Settings: &Settings{},
		Styles:   &StyleSheet{},
		Toasts:   &Toasts{},
	}
	c.Permissions = &Permissions{c: c}
	c.Sidebar = &Sidebar{c: c}
	c.Content = &Content{c: c}
	return c
}

// Store returns the client's channel store.
func (c *Client) Store() *Store { return c.store }

// Registry returns the registry the client dispatches through.
func (c *Client) Registry() *hook.Registry { return c.registry }

// Can asks the access-control member whether the viewer holds permission.
func (c *Client) Can(permission any, item *host.Item) bool {
	out, err := c.registry.Call(c.Permissions, host.MemberCan, permission, item)
	if err != nil {
		c.logger.Error("access control unavailable", "error", err)
		return false
	}
	granted, _ := out.(bool)
	return granted
}

// ChannelPermissions returns the viewer's bitmask for item as the host sees it,
// hooks included.
func (c *Client) ChannelPermissions(item *host.Item) capability.Bitmask {
	out, err := c.registry.Call(c.Permissions, host.MemberChannelPermissions, item)
	if err != nil {
		return 0
	}
	bits, _ := out.(capability.Bitmask)
	return bits
}

// Setting reads one boolean setting.
func (c *Client) Setting(key string) bool {
	out, err := c.registry.Call(c.Settings, host.MemberGetSetting, key)
	if err != nil {
		return false
	}
	v, _ := out.(bool)
	return v
}

// Entry is one rendered sidebar row.
type Entry struct {
	Item *host.Item
	Node *host.Node
}

// RenderSidebar renders every channel the viewer can view. Opt-in channels
// are listed only once the viewer opted in or chose to see all channels.
func (c *Client) RenderSidebar(ctx context.Context) ([]Entry, error) {
	channels, err := c.store.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	showAll := c.Setting(host.SettingShowAllChannels)
	optedIn := c.Setting(host.SettingOptedIn)

	var out []Entry
	for _, ch := range channels {
		item := ItemOf(ch)
		if !c.Can(capability.ViewChannel, item) {
			continue
		}
		if ch.OptIn && !optedIn && !showAll {
			continue
		}
		node, err := c.render(c.Sidebar, host.MemberChannelItem, item)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Item: item, Node: node})
	}
	return out, nil
}

// OpenChannel renders the content view of one channel. This path predates
// the bitmask encoding and still asks with the legacy identifier.
func (c *Client) OpenChannel(ctx context.Context, id string) (*host.Node, error) {
	ch, err := c.store.GetChannel(ctx, id)
	if err != nil {
		return nil, err
	}
	item := ItemOf(ch)
	if !c.Can(capability.LegacyViewChannel, item) {
		return nil, fmt.Errorf("%w: channel %s", ErrNoAccess, id)
	}
	return c.render(c.Content, host.MemberChannelContent, item)
}

func (c *Client) render(target hook.Target, member string, item *host.Item) (*host.Node, error) {
	out, err := c.registry.Call(target, member, host.Props{Target: item})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", member, err)
	}
	node, _ := out.(*host.Node)
	return node, nil
}

// ItemOf converts a stored channel into the item the renderers receive.
func ItemOf(ch Channel) *host.Item {
	return &host.Item{ID: ch.ID, Name: ch.Name, Topic: ch.Topic, Kind: ch.Kind}
}
