package demohost

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/showhidden/internal/hook"
)

// Fixture seeds a client: channels with the viewer's raw permissions and the
// viewer's settings.
type Fixture struct {
	Settings map[string]bool `yaml:"settings"`
	Channels []Channel       `yaml:"channels"`
}

// LoadFixture reads a fixture YAML file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// ParseFixture decodes fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Apply loads the fixture into the client's store and settings. Channels
// sharing a position keep their fixture order.
func (f *Fixture) Apply(ctx context.Context, c *Client) error {
	for _, ch := range f.Channels {
		if err := c.store.PutChannel(ctx, ch); err != nil {
			return err
		}
	}
	for k, v := range f.Settings {
		c.Settings.Set(k, v)
	}
	return nil
}

// Open creates an in-memory store, wires a client around it and applies the
// fixture. The caller closes the client's store.
func (f *Fixture) Open(ctx context.Context, registry *hook.Registry, logger *slog.Logger) (*Client, error) {
	store, err := OpenStore()
	if err != nil {
		return nil, err
	}
	client := New(registry, store, logger)
	if err := f.Apply(ctx, client); err != nil {
		_ = store.Close()
		return nil, err
	}
	return client, nil
}
