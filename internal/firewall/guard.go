package firewall

import (
	"time"

	"golang.org/x/text/message"

	"grimm.is/palisade/internal/executor"
	"grimm.is/palisade/internal/i18n"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
)

// Options configures either backend.
type Options struct {
	Runner executor.CommandRunner
	// Elevated is captured once at construction and never re-checked.
	Elevated bool
	// ToolPath overrides netsh.exe or powershell.exe.
	ToolPath string
	// Timeout bounds each command; zero leaves the runner's default.
	Timeout time.Duration
	// Phrases replaces the built-in phrasebook of the backend.
	Phrases *Phrasebook
	// Sessions overrides how PowerShell sessions are opened.
	Sessions SessionFactory
	Printer *message.Printer
	Logger  *logging.Logger
	Metrics *metrics.Registry
}

// Operation names used in metrics and audit records.
const (
	opAdd     = "add"
	opDelete  = "delete"
	opList    = "list"
	opExists  = "exists"
	opSet     = "set"
	opExport  = "export"
	opImport  = "import"
	opReset   = "reset"
)

// base is the state and guard logic both backends share.
type base struct {
	backend  Backend
	runner   executor.CommandRunner
	elevated bool
	path     string
	timeout  time.Duration
	phrases  *Phrasebook
	printer  *message.Printer
	logger   *logging.Logger
	metrics  *metrics.Registry
}

func newBase(backend Backend, defaultPath string, defaultPhrases func() *Phrasebook, opts Options) base {
	b := base{
		backend:  backend,
		runner:   opts.Runner,
		elevated: opts.Elevated,
		path:     opts.ToolPath,
		timeout:  opts.Timeout,
		phrases:  opts.Phrases,
		printer:  opts.Printer,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
	if b.path == "" {
		b.path = defaultPath
	}
	if b.phrases == nil {
		b.phrases = defaultPhrases()
	}
	if b.printer == nil {
		b.printer = i18n.NewPrinter(i18n.DefaultLang)
	}
	if b.logger == nil {
		b.logger = logging.WithComponent(string(backend))
	}
	return b
}

// IsElevated reports the privilege flag captured at construction.
func (b *base) IsElevated() bool { return b.elevated }

// Backend identifies the tool this manager drives.
func (b *base) Backend() Backend { return b.backend }

// guard runs elevation then validation. When ok is false the returned Result
// is final and nothing may be dispatched.
func (b *base) guard(op, target string, validate func() error) (res Result, ok bool) {
	if !b.elevated {
		return b.done(op, target, Result{Message: b.printer.Sprintf(i18n.MsgNotElevated), Err: ErrNotElevated}), false
	}
	if validate != nil {
		if err := validate(); err != nil {
			return b.done(op, target, Result{Message: err.Error(), Err: err}), false
		}
	}
	return Result{}, true
}

func (b *base) succeed(op, target, msg string) Result {
	return b.done(op, target, Result{Success: true, Message: msg})
}

func (b *base) fail(op, target, failKey string, res executor.Result) Result {
	return b.done(op, target, Result{Message: b.printer.Sprintf(failKey, res.Output), Err: classifyExec(res)})
}

func (b *base) absent(op, target string) Result {
	return b.done(op, target, Result{Message: b.printer.Sprintf(i18n.MsgRuleNotFound), Err: ErrRuleNotFound})
}

// done records the outcome. Successful mutations are audited.
func (b *base) done(op, target string, res Result) Result {
	b.metrics.ObserveOperation(string(b.backend), op, outcome(res.Err))

	switch {
	case res.Err == nil && op != opList && op != opExists:
		b.logger.Audit(op, target, map[string]any{"backend": string(b.backend)})
	case res.Err != nil:
		b.logger.Debug("operation failed", "op", op, "target", target, "error", res.Err)
	}
	return res
}

func listFailure(res Result) RuleList {
	return RuleList{Message: res.Message, Err: res.Err}
}
