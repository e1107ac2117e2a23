package override

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/showhidden/internal/host"
)

// Scope selects how far the override reaches.
type Scope string

const (
	// ScopeNarrow forces the capability and marks hidden items. Nothing else.
	ScopeNarrow Scope = "narrow"

	// ScopeBroad additionally forces the host's related settings on.
	ScopeBroad Scope = "broad"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeNarrow || s == ScopeBroad
}

// DefaultHiddenClass is the class attached to items hidden under real rules.
const DefaultHiddenClass = "shc-hidden-channel"

// DefaultStyleName is the stylesheet name inside the session namespace.
const DefaultStyleName = "styles"

// DefaultCSS returns the stylesheet that dims items carrying hiddenClass,
// appends a lock glyph to them and centres the lock screen.
func DefaultCSS(hiddenClass string) string {
	return fmt.Sprintf(`.%[1]s {
    opacity: 0.6;
    filter: grayscale(1);
}
.%[1]s::after {
    content: " 🔒";
    font-size: 10px;
    vertical-align: middle;
}
.%[2]s {
    text-align: center;
    padding: 24px;
}`, hiddenClass, LockedClass)
}

// Option configures a Session at creation time.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	scope          Scope
	forcedSettings []string
	styleName      string
	css            string
	hiddenClass    string
	lockScreen     bool
	notify         bool
}

func defaultOptions() options {
	return options{
		scope:          ScopeNarrow,
		forcedSettings: []string{host.SettingOptedIn, host.SettingShowAllChannels},
		styleName:      DefaultStyleName,
		hiddenClass:    DefaultHiddenClass,
		lockScreen:     true,
	}
}

// WithLogger sets the session logger. Nil means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithScope selects narrow or broad override. Unknown scopes are ignored.
func WithScope(scope Scope) Option {
	return func(o *options) {
		if scope.Valid() {
			o.scope = scope
		}
	}
}

// WithForcedSettings replaces the settings forced on in broad scope.
func WithForcedSettings(keys ...string) Option {
	return func(o *options) { o.forcedSettings = append([]string(nil), keys...) }
}

// WithStyle sets the stylesheet name and content. Empty values keep the
// defaults; the default content is generated for the hidden class.
func WithStyle(name, css string) Option {
	return func(o *options) {
		if name != "" {
			o.styleName = name
		}
		if css != "" {
			o.css = css
		}
	}
}

// WithHiddenClass sets the class attached to hidden items.
func WithHiddenClass(class string) Option {
	return func(o *options) {
		if class != "" {
			o.hiddenClass = class
		}
	}
}

// WithLockScreen toggles replacing the content view of hidden items.
func WithLockScreen(enabled bool) Option {
	return func(o *options) { o.lockScreen = enabled }
}

// WithNotify toggles start-up toasts.
func WithNotify(enabled bool) Option {
	return func(o *options) { o.notify = enabled }
}
