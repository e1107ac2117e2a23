package reload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/showhidden/internal/demohost"
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/host"
	"github.com/ppiankov/showhidden/internal/override"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestReloaderSkipsMissingPaths(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "scope: narrow\n")
	r, err := NewReloader(func() error { return nil }, nil, "", filepath.Join(t.TempDir(), "missing.yaml"), path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.watcher.Close()

	if got := r.Paths(); len(got) != 1 || got[0] != path {
		t.Errorf("expected only %s watched, got %v", path, got)
	}
}

func TestReloaderDebouncesWrites(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "scope: narrow\n")
	var calls atomic.Int32
	r, err := NewReloader(func() error {
		calls.Add(1)
		return nil
	}, nil, path)
	if err != nil {
		t.Fatal(err)
	}
	r.delay = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("scope: broad\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	waitFor(t, func() bool { return calls.Load() > 0 })
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected one reload for a burst of writes, got %d", n)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestReloaderSurvivesReloadError(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "scope: narrow\n")
	var calls atomic.Int32
	r, err := NewReloader(func() error {
		calls.Add(1)
		return errors.New("boom")
	}, nil, path)
	if err != nil {
		t.Fatal(err)
	}
	r.delay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	os.WriteFile(path, []byte("a: 1\n"), 0644)
	waitFor(t, func() bool { return calls.Load() == 1 })
	os.WriteFile(path, []byte("a: 2\n"), 0644)
	waitFor(t, func() bool { return calls.Load() == 2 })
}

func startReloader(t *testing.T, path string, calls *atomic.Int32) {
	t.Helper()
	r, err := NewReloader(func() error {
		calls.Add(1)
		return nil
	}, nil, path)
	if err != nil {
		t.Fatal(err)
	}
	r.delay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestReloaderSeesRenameSave(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "scope: narrow\n")
	var calls atomic.Int32
	startReloader(t, path, &calls)

	tmp := filepath.Join(filepath.Dir(path), ".config.yaml.swp")
	if err := os.WriteFile(tmp, []byte("scope: broad\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return calls.Load() == 1 })

	// The replaced file is still watched.
	if err := os.WriteFile(path, []byte("scope: narrow\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return calls.Load() == 2 })
}

func TestReloaderIgnoresSiblingFiles(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "scope: narrow\n")
	var calls atomic.Int32
	startReloader(t, path, &calls)

	other := filepath.Join(filepath.Dir(path), "other.yaml")
	if err := os.WriteFile(other, []byte("x: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("writes to other files must not reload, got %d", n)
	}

	if err := os.WriteFile(path, []byte("scope: broad\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return calls.Load() == 1 })
}

const fixtureYAML = `
channels:
  - id: "1"
    name: lobby
    permissions: "1<<10"
  - id: "2"
    name: vault
    permissions: "0"
  - id: "3"
    name: news
    opt_in: true
    permissions: "0"
`

func newHost(t *testing.T) *demohost.Client {
	t.Helper()
	f, err := demohost.ParseFixture([]byte(fixtureYAML))
	if err != nil {
		t.Fatal(err)
	}
	c, err := f.Open(context.Background(), hook.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Store().Close() })
	return c
}

func sidebarLen(t *testing.T, c *demohost.Client) int {
	t.Helper()
	entries, err := c.RenderSidebar(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestSupervisorSwapsSession(t *testing.T) {
	c := newHost(t)
	path := writeTempFile(t, "config.yaml", "scope: narrow\n")
	sup := NewSupervisor(c.Registry(), c.Locator(), path, nil)

	if sup.Session() != nil {
		t.Fatal("no session before first reload")
	}
	if err := sup.Reload(); err != nil {
		t.Fatal(err)
	}
	first := sup.Session()
	if first.Scope() != override.ScopeNarrow || sidebarLen(t, c) != 2 {
		t.Fatalf("narrow session should list lobby and vault")
	}

	os.WriteFile(path, []byte("scope: broad\n"), 0644)
	if err := sup.Reload(); err != nil {
		t.Fatal(err)
	}
	second := sup.Session()
	if first.State() != override.Inactive {
		t.Error("old session should be stopped")
	}
	if c.Registry().Installed(first.Owner()) != 0 {
		t.Error("old session hooks should be removed")
	}
	if second.Scope() != override.ScopeBroad || sidebarLen(t, c) != 3 {
		t.Error("broad session should also list the opt-in channel")
	}
	if !c.Setting(host.SettingShowAllChannels) {
		t.Error("broad session should force settings")
	}

	sup.Stop()
	if sidebarLen(t, c) != 1 {
		t.Error("host should be restored after stop")
	}
	sup.Stop()
}

func TestSupervisorKeepsSessionOnBadConfig(t *testing.T) {
	c := newHost(t)
	path := writeTempFile(t, "config.yaml", "scope: narrow\n")
	sup := NewSupervisor(c.Registry(), c.Locator(), path, nil)
	if err := sup.Reload(); err != nil {
		t.Fatal(err)
	}
	running := sup.Session()

	os.WriteFile(path, []byte("scope: everywhere\n"), 0644)
	if err := sup.Reload(); err == nil {
		t.Fatal("expected error for invalid scope")
	}
	if sup.Session() != running || running.State() != override.Active {
		t.Error("invalid config must leave the running session alone")
	}
	sup.Stop()
}

func TestSupervisorWithReloader(t *testing.T) {
	c := newHost(t)
	path := writeTempFile(t, "config.yaml", "scope: narrow\n")
	sup := NewSupervisor(c.Registry(), c.Locator(), path, nil)
	if err := sup.Reload(); err != nil {
		t.Fatal(err)
	}
	defer sup.Stop()

	r, err := NewReloader(sup.Reload, nil, path)
	if err != nil {
		t.Fatal(err)
	}
	r.delay = 50 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	os.WriteFile(path, []byte("scope: broad\n"), 0644)
	waitFor(t, func() bool {
		s := sup.Session()
		return s != nil && s.Scope() == override.ScopeBroad
	})
}
