package scenario

import "github.com/ppiankov/showhidden/internal/demohost"

// Accepted values for the Case assertions.
const (
	SidebarMarked = "marked"
	SidebarPlain  = "plain"
	SidebarAbsent = "absent"

	ContentLocked = "locked"
	ContentOpen   = "open"
	ContentAbsent = "absent"

	CanGranted = "granted"
	CanDenied  = "denied"
)

// Case is one channel checked within a scenario. Empty assertions are skipped.
type Case struct {
	Channel string `yaml:"channel"`
	Expect  string `yaml:"expect,omitempty"`
	Sidebar string `yaml:"sidebar,omitempty"`
	Content string `yaml:"content,omitempty"`
	Can     string `yaml:"can,omitempty"`
}

// Scenario is a host fixture plus the outcomes expected once a session runs on it.
type Scenario struct {
	Name     string             `yaml:"name"`
	Scope    string             `yaml:"scope,omitempty"`
	Settings map[string]bool    `yaml:"settings,omitempty"`
	Channels []demohost.Channel `yaml:"channels"`
	Cases    []Case             `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Channel  string `json:"channel"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   string `json:"reason,omitempty"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File    string       `json:"file"`
	Name    string       `json:"name"`
	Scope   string       `json:"scope"`
	Total   int          `json:"total"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Missing []string     `json:"missing,omitempty"`
	Cases   []CaseResult `json:"cases"`
}
