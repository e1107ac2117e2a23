package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ppiankov/showhidden/internal/config"
	"github.com/ppiankov/showhidden/internal/demohost"
	"github.com/ppiankov/showhidden/internal/hook"
	"github.com/ppiankov/showhidden/internal/override"
	"github.com/ppiankov/showhidden/internal/reload"
)

// sampleFixture is used when demo runs without --fixture.
const sampleFixture = `
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
    topic: opt in to follow events
    opt_in: true
    permissions: "0"
  - id: "400"
    name: announcements
    kind: news
    permissions: "0x400"
`

var (
	demoFixture string
	demoConfig  string
	demoWatch   bool
)

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringVar(&demoFixture, "fixture", "", "Path to host fixture YAML (default: built-in sample)")
	demoCmd.Flags().StringVar(&demoConfig, "config", "", "Path to config YAML (default: ~/.showhidden/config.yaml)")
	demoCmd.Flags().BoolVar(&demoWatch, "watch", false, "Reload the session when the config file changes")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Show a simulated host before, during and after a session",
	RunE:  runDemo,
}

// view prints host renderings, styled when out is a terminal.
type view struct {
	out     io.Writer
	heading lipgloss.Style
	hidden  lipgloss.Style
	denied  lipgloss.Style
}

func newView(out io.Writer) *view {
	r := lipgloss.NewRenderer(out)
	return &view{
		out:     out,
		heading: r.NewStyle().Bold(true),
		hidden:  r.NewStyle().Foreground(lipgloss.Color("244")),
		denied:  r.NewStyle().Faint(true),
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	v := newView(cmd.OutOrStdout())
	logger := newLogger()

	var (
		fixture *demohost.Fixture
		err     error
	)
	if demoFixture != "" {
		fixture, err = demohost.LoadFixture(demoFixture)
	} else {
		fixture, err = demohost.ParseFixture([]byte(sampleFixture))
	}
	if err != nil {
		return err
	}

	client, err := fixture.Open(ctx, hook.New(hook.WithLogger(logger)), logger)
	if err != nil {
		return fmt.Errorf("open host: %w", err)
	}
	defer client.Store().Close()

	v.title("=== host without showhidden ===")
	if err := v.host(ctx, client); err != nil {
		return err
	}

	path := demoConfig
	if path == "" {
		path = config.DefaultPath()
	}
	sup := reload.NewSupervisor(client.Registry(), client.Locator(), path, logger)
	if err := sup.Reload(); err != nil {
		return err
	}
	v.session(ctx, client, sup)

	if demoWatch {
		if err := v.watch(ctx, client, sup, path); err != nil {
			sup.Stop()
			return err
		}
	}

	sup.Stop()
	v.title("=== after stop ===")
	return v.host(ctx, client)
}

func (v *view) watch(ctx context.Context, client *demohost.Client, sup *reload.Supervisor, path string) error {
	r, err := reload.NewReloader(func() error {
		if err := sup.Reload(); err != nil {
			return err
		}
		v.session(ctx, client, sup)
		return nil
	}, newLogger(), path)
	if err != nil {
		return err
	}
	if len(r.Paths()) == 0 {
		return fmt.Errorf("config file %s does not exist, nothing to watch", path)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(v.out, "\nwatching %s, press Ctrl-C to stop\n", path)
	return r.Run(ctx)
}

func (v *view) title(s string) {
	fmt.Fprintf(v.out, "\n%s\n", v.heading.Render(s))
}

func (v *view) session(ctx context.Context, client *demohost.Client, sup *reload.Supervisor) {
	s := sup.Session()
	st := s.Status()
	v.title(fmt.Sprintf("=== with showhidden (scope %s, %s) ===", s.Scope(), st.State))
	if st.Degraded() {
		fmt.Fprintf(v.out, "missing: %v\n", st.Missing)
	}
	if err := v.host(ctx, client); err != nil {
		fmt.Fprintf(v.out, "render failed: %v\n", err)
	}
}

func (v *view) host(ctx context.Context, client *demohost.Client) error {
	entries, err := client.RenderSidebar(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(v.out, "sidebar:")
	for _, e := range entries {
		row := e.Node.String()
		if e.Node.Attr(override.HiddenAttr) == "true" {
			row = v.hidden.Render(row)
		}
		fmt.Fprintf(v.out, "  %s\n", row)
	}

	channels, err := client.Store().ListChannels(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(v.out, "content:")
	for _, ch := range channels {
		node, err := client.OpenChannel(ctx, ch.ID)
		switch {
		case errors.Is(err, demohost.ErrNoAccess):
			fmt.Fprintf(v.out, "  #%s: %s\n", ch.Name, v.denied.Render("no access"))
		case err != nil:
			return err
		default:
			fmt.Fprintf(v.out, "  #%s: %s\n", ch.Name, node)
		}
	}
	return nil
}
