package demohost

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/showhidden/internal/capability"
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/host"
)

const testFixture = `
settings:
  opted_in: false
channels:
  - id: "100"
    name: general
    topic: everyone welcome
    permissions: "1<<10"
  - id: "200"
    name: staff
    topic: moderators only
    permissions: "0"
  - id: "300"
    name: events
    opt_in: true
    permissions: "0x400"
`

func newTestClient(t *testing.T) *Client {
	t.Helper()
	f, err := ParseFixture([]byte(testFixture))
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.Open(context.Background(), hook.New(), nil)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	t.Cleanup(func() { c.Store().Close() })
	return c
}

func sidebarIDs(t *testing.T, c *Client) []string {
	t.Helper()
	entries, err := c.RenderSidebar(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.Item.ID)
	}
	return ids
}

func TestStoreRoundTrip(t *testing.T) {
	s, err := OpenStore()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	ch := Channel{ID: "1", Name: "a", Topic: "t", Position: 2, OptIn: true, Permissions: 1<<10 | 1<<63}
	if err := s.PutChannel(ctx, ch); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetChannel(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	ch.Kind = "text"
	if got != ch {
		t.Errorf("got %+v, want %+v", got, ch)
	}

	ch.Name = "renamed"
	if err := s.PutChannel(ctx, ch); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListChannels(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "renamed" {
		t.Errorf("expected upsert, got %+v", list)
	}
}

func TestStoreErrors(t *testing.T) {
	s, err := OpenStore()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.GetChannel(context.Background(), "missing"); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
	if err := s.PutChannel(context.Background(), Channel{ID: " "}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestSidebarWithoutOverride(t *testing.T) {
	c := newTestClient(t)
	ids := sidebarIDs(t, c)
	if len(ids) != 1 || ids[0] != "100" {
		t.Errorf("expected only general, got %v", ids)
	}

	c.Settings.Set(host.SettingOptedIn, true)
	ids = sidebarIDs(t, c)
	if len(ids) != 2 || ids[1] != "300" {
		t.Errorf("expected general and events after opting in, got %v", ids)
	}
}

func TestOpenChannelChecksLegacyPermission(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	node, err := c.OpenChannel(ctx, "100")
	if err != nil {
		t.Fatal(err)
	}
	if !node.HasClass("channel-content") {
		t.Errorf("unexpected node %s", node)
	}
	if _, err := c.OpenChannel(ctx, "200"); !errors.Is(err, ErrNoAccess) {
		t.Errorf("expected ErrNoAccess, got %v", err)
	}
	if _, err := c.OpenChannel(ctx, "999"); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("expected ErrChannelNotFound, got %v", err)
	}
}

func TestPermissionsMembers(t *testing.T) {
	c := newTestClient(t)
	general := &host.Item{ID: "100"}
	staff := &host.Item{ID: "200"}

	if !c.Can(capability.ViewChannel, general) || !c.Can(1024, general) {
		t.Error("general should be viewable in both encodings")
	}
	if c.Can(capability.ViewChannel, staff) {
		t.Error("staff should not be viewable")
	}
	if c.Can("bogus", general) {
		t.Error("unknown permission type should deny")
	}
	if got := c.ChannelPermissions(staff); got != 0 {
		t.Errorf("expected 0, got %s", got)
	}
	if got := c.ChannelPermissions(&host.Item{ID: "nope"}); got != 0 {
		t.Errorf("unknown channel should have no permissions, got %s", got)
	}
}

func TestLocatorWithout(t *testing.T) {
	c := newTestClient(t)
	full := c.Locator()
	partial := full.Without(host.MemberChannelItem, ServiceStyles)

	if _, ok := full.ItemRenderer(); !ok {
		t.Error("full locator should find the item renderer")
	}
	if _, ok := partial.ItemRenderer(); ok {
		t.Error("partial locator should not find the item renderer")
	}
	if partial.Styles() != nil {
		t.Error("partial locator should not expose styles")
	}
	if _, ok := partial.AccessControl(); !ok {
		t.Error("partial locator should still find access control")
	}
	if partial.Notifier() == nil {
		t.Error("notifier should still be available")
	}
}

func TestStyleSheetAndToasts(t *testing.T) {
	s := &StyleSheet{}
	s.RemoveStyle("missing")
	s.AddStyle("b", "x")
	s.AddStyle("a", "y")
	if names := s.Names(); len(names) != 2 || names[0] != "a" {
		t.Errorf("unexpected names %v", names)
	}
	s.RemoveStyle("a")
	if _, ok := s.CSS("a"); ok {
		t.Error("style a should be gone")
	}

	var n Toasts
	n.ShowToast("hi", host.ToastOptions{Type: "info"})
	if got := n.Shown(); len(got) != 1 || got[0].Message != "hi" {
		t.Errorf("unexpected toasts %+v", got)
	}
}

func TestFixtureKeepsExplicitPositions(t *testing.T) {
	f, err := ParseFixture([]byte(`
channels:
  - {id: "b", name: second, position: 1, permissions: "1<<10"}
  - {id: "a", name: first, position: 0, permissions: "1<<10"}
  - {id: "c", name: unplaced, permissions: "1<<10"}
  - {id: "d", name: last, position: 2, permissions: "1<<10"}
`))
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.Open(context.Background(), hook.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Store().Close()

	channels, err := c.Store().ListChannels(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, ch := range channels {
		ids = append(ids, ch.ID)
	}
	want := []string{"a", "c", "b", "d"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
	if channels[0].Position != 0 || channels[2].Position != 1 {
		t.Errorf("positions rewritten: %+v", channels)
	}
}

func TestLoadFixture(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte(testFixture), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadFixture(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Channels) != 3 || f.Channels[0].Permissions != capability.ViewChannel {
		t.Errorf("unexpected fixture %+v", f)
	}
	if _, err := LoadFixture(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := ParseFixture([]byte("channels: [{permissions: nope}]")); err == nil {
		t.Error("expected error for bad bitmask")
	}
}
