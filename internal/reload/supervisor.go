package reload

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/ppiankov/showhidden/internal/config"
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/override"
)

// Supervisor keeps one session running against a host and replaces it
// whenever the configuration is reloaded.
type Supervisor struct {
	mu       sync.Mutex
	registry *hook.Registry
	locator  override.Locator
	path     string
	logger   *slog.Logger
	session  *override.Session
}

// NewSupervisor creates a supervisor. Nothing is installed until Reload.
func NewSupervisor(registry *hook.Registry, loc override.Locator, configPath string, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		registry: registry,
		locator:  loc,
		path:     configPath,
		logger:   logger,
	}
}

// Reload reads the config and swaps the running session for one built from
// it. An invalid config leaves the running session in place.
func (s *Supervisor) Reload() error {
	cfg, err := config.LoadConfig(s.path)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	policy, err := cfg.Policy()
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	next := override.New(s.registry, policy, cfg.SessionOptions(s.logger)...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Stop()
	}
	st := next.Start(s.locator)
	s.session = next
	if st.Degraded() {
		s.logger.Warn("session restarted with reduced functionality", "missing", len(st.Missing))
	}
	return nil
}

// Session returns the running session, nil before the first Reload.
func (s *Supervisor) Session() *override.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Stop stops the running session.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		s.session.Stop()
		s.session = nil
	}
}
