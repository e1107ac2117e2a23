package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/showhidden/internal/config"
	"github.com/ppiankov/showhidden/internal/demohost"
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/host"
	"github.com/ppiankov/showhidden/internal/override"
)

// Run builds a host from the scenario's channels, starts a session on it
// configured by cfg, and checks every case. The scenario's scope, when set,
// replaces the configured one. A nil logger discards session logs.
func Run(ctx context.Context, s *Scenario, cfg *config.Config, logger *slog.Logger) (*RunResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}

	scope := cfg.Scope
	if s.Scope != "" {
		if !override.Scope(s.Scope).Valid() {
			return nil, fmt.Errorf("scenario %q: %w: %q", s.Name, config.ErrInvalidScope, s.Scope)
		}
		scope = s.Scope
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	fixture := demohost.Fixture{Settings: s.Settings, Channels: s.Channels}
	client, err := fixture.Open(ctx, hook.New(), logger)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	defer client.Store().Close()

	opts := append(cfg.SessionOptions(logger), override.WithScope(override.Scope(scope)))
	session := override.New(client.Registry(), policy, opts...)
	status := session.Start(client.Locator())
	defer session.Stop()

	entries, err := client.RenderSidebar(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: render sidebar: %w", s.Name, err)
	}
	rows := make(map[string]*host.Node, len(entries))
	for _, e := range entries {
		rows[e.Item.ID] = e.Node
	}

	result := &RunResult{
		Name:  s.Name,
		Scope: scope,
		Total: len(s.Cases),
	}
	for _, f := range status.Missing {
		result.Missing = append(result.Missing, string(f))
	}

	for i, c := range s.Cases {
		cr := evalCase(ctx, client, session, rows, c)
		cr.Index = i + 1
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result, nil
}

func evalCase(ctx context.Context, client *demohost.Client, session *override.Session, rows map[string]*host.Node, c Case) CaseResult {
	cr := CaseResult{Channel: c.Channel}

	ch, err := client.Store().GetChannel(ctx, c.Channel)
	if err != nil {
		cr.Reason = err.Error()
		return cr
	}
	item := demohost.ItemOf(ch)

	var expected, actual []string
	check := func(name, want, got string) {
		if want == "" {
			return
		}
		expected = append(expected, name+"="+strings.ToLower(want))
		actual = append(actual, name+"="+got)
	}

	if c.Expect != "" {
		got := "unknown"
		if v, ok := session.Classify(item); ok {
			got = v.String()
		}
		check("expect", c.Expect, got)
	}

	if c.Sidebar != "" {
		got := SidebarAbsent
		if node, ok := rows[c.Channel]; ok {
			got = SidebarPlain
			if node.Attr(override.HiddenAttr) == "true" {
				got = SidebarMarked
			}
		}
		check("sidebar", c.Sidebar, got)
	}

	if c.Content != "" {
		var got string
		node, err := client.OpenChannel(ctx, c.Channel)
		switch {
		case errors.Is(err, demohost.ErrNoAccess):
			got = ContentAbsent
		case err != nil:
			got = "error"
			cr.Reason = err.Error()
		case node.HasClass(override.LockedClass):
			got = ContentLocked
		default:
			got = ContentOpen
		}
		check("content", c.Content, got)
	}

	if c.Can != "" {
		got := CanDenied
		if client.Can(session.Policy().Primary(), item) {
			got = CanGranted
		}
		check("can", c.Can, got)
	}

	cr.Expected = strings.Join(expected, " ")
	cr.Actual = strings.Join(actual, " ")
	cr.Passed = cr.Expected == cr.Actual
	if len(expected) == 0 && cr.Reason == "" {
		cr.Reason = "case has no assertions"
		cr.Passed = false
	}
	return cr
}

// Load reads a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadAndRun loads a scenario YAML file and the config, and runs.
func LoadAndRun(ctx context.Context, path, configPath string, logger *slog.Logger) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	result, err := Run(ctx, s, cfg, logger)
	if err != nil {
		return nil, err
	}
	result.File = path

	return result, nil
}
