package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/showhidden/internal/capability"
	"github.com/ppiankov/showhidden/internal/override"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scope != "narrow" || !cfg.LockScreen || cfg.Notify {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].Bit != capability.ViewChannel {
		t.Errorf("expected view channel rule, got %+v", cfg.Rules)
	}
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := writeConfig(t, "scope: broad\nnotify: true\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scope != "broad" || !cfg.Notify {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if !cfg.LockScreen || cfg.Style.HiddenClass != override.DefaultHiddenClass {
		t.Errorf("unspecified fields should keep defaults: %+v", cfg)
	}
}

func TestLoadConfigRules(t *testing.T) {
	path := writeConfig(t, `
rules:
  - bit: "1<<11"
  - bit: 0x400
    legacy: 1024
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	p, err := cfg.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if p.Primary() != 1<<11 {
		t.Errorf("first rule should be primary, got %s", p.Primary())
	}
	if p.Target() != 1<<11|1<<10 {
		t.Errorf("unexpected target %s", p.Target())
	}
	if !p.Covers(capability.LegacyID(1024)) {
		t.Error("legacy alias should be covered")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"bad yaml", "scope: [unclosed", nil},
		{"bad scope", "scope: everything\n", ErrInvalidScope},
		{"denying rule", "rules:\n  - bit: 4\n    grant: false\n", capability.ErrSuppressingRule},
		{"duplicate rule", "rules:\n  - bit: 4\n  - bit: 4\n", capability.ErrDuplicateRule},
		{"bad bitmask", "rules:\n  - bit: lots\n", nil},
		{"no rules", "rules: []\n", capability.ErrNoRules},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "scope: narrow\nlock_screen: true\n")
	t.Setenv("SHOWHIDDEN_SCOPE", "broad")
	t.Setenv("SHOWHIDDEN_LOCK_SCREEN", "false")
	t.Setenv("SHOWHIDDEN_NOTIFY", "true")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scope != "broad" || cfg.LockScreen || !cfg.Notify {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestEnvParseError(t *testing.T) {
	t.Setenv("SHOWHIDDEN_NOTIFY", "perhaps")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestDefaultConfigYAMLMatchesDefaults(t *testing.T) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(DefaultConfigYAML()), &cfg); err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	def := DefaultConfig()
	if cfg.Scope != def.Scope || cfg.LockScreen != def.LockScreen || cfg.Notify != def.Notify {
		t.Errorf("template %+v differs from defaults %+v", cfg, def)
	}
	if cfg.Style != def.Style {
		t.Errorf("style %+v differs from %+v", cfg.Style, def.Style)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].Bit != def.Rules[0].Bit || cfg.Rules[0].Legacy != def.Rules[0].Legacy {
		t.Errorf("rules %+v differ from defaults", cfg.Rules)
	}
	if strings.Join(cfg.ForcedSettings, ",") != strings.Join(def.ForcedSettings, ",") {
		t.Errorf("forced settings %v differ from %v", cfg.ForcedSettings, def.ForcedSettings)
	}
}

func TestSessionOptionsApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scope = "broad"
	cfg.Style.Name = "custom"

	s := override.New(nil, nil, cfg.SessionOptions(nil)...)
	if s.Scope() != override.ScopeBroad {
		t.Errorf("expected broad scope, got %s", s.Scope())
	}
	if s.StyleName() != override.Namespace+"/custom" {
		t.Errorf("unexpected style name %s", s.StyleName())
	}
}
