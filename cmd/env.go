package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/executor"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/health"
	"grimm.is/palisade/internal/host"
	"grimm.is/palisade/internal/i18n"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
)

// Printer prints CLI messages in the operator's locale.
var Printer = i18n.NewCLIPrinter()

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitAbsent  = 3
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// Usage wraps a usage problem.
func Usage(format string, args ...any) error {
	return &ExitError{Code: ExitUsage, Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a Run function to an exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}

// GlobalOptions are the flags every subcommand accepts.
type GlobalOptions struct {
	ConfigFile string
	Backend    string
	DryRun     bool
	Verbose    bool
}

// Register adds the global flags to fs.
func (g *GlobalOptions) Register(fs *flag.FlagSet) {
	fs.StringVar(&g.ConfigFile, "config", "", "Configuration file")
	fs.StringVar(&g.ConfigFile, "c", "", "Configuration file (short)")
	fs.StringVar(&g.Backend, "backend", "", "Backend: auto, netsh or powershell (overrides config)")
	fs.BoolVar(&g.DryRun, "dry-run", false, "Print the commands instead of running them")
	fs.BoolVar(&g.DryRun, "n", false, "Dry run (short)")
	fs.BoolVar(&g.Verbose, "v", false, "Verbose output")
}

// Env is everything a subcommand needs, wired once per invocation.
type Env struct {
	Config  *config.Config
	Logger  *logging.Logger
	Printer *message.Printer
	Metrics *metrics.Registry
	Runner  executor.CommandRunner
	Facts   host.Facts
	Out     io.Writer

	// dry is set in dry-run mode and records what would have run.
	dry *executor.FakeRunner
}

// Setup loads configuration and builds the runtime for one invocation.
func Setup(g GlobalOptions) (*Env, error) {
	cfg, err := config.Load(g.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	if g.Backend != "" {
		cfg.Backend = strings.ToLower(g.Backend)
		if err := cfg.Validate(); err != nil {
			return nil, Usage("%v", err)
		}
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	logging.SetPrefix(brand.BinaryName)
	logger := logging.New(logging.Config{Level: level, Output: os.Stderr, JSON: cfg.Log.JSON})
	if g.Verbose {
		logger.SetLevel(logging.LevelDebug)
	}
	logging.SetDefault(logger)

	printer := Printer
	if cfg.Locale != "" {
		printer = i18n.NewPrinter(i18n.MatchLanguage(cfg.Locale))
	}

	env := &Env{
		Config:  cfg,
		Logger:  logger,
		Printer: printer,
		Metrics: metrics.Get(),
		Facts:   host.System(),
		Out:     os.Stdout,
	}

	if g.DryRun {
		env.dry = &executor.FakeRunner{}
		env.Runner = env.dry
		env.Facts = dryRunFacts()
		return env, nil
	}

	runner, err := executor.NewRunner(executor.Options{
		Timeout:  cfg.Timeout(),
		Encoding: cfg.Encoding,
		Metrics:  env.Metrics,
		Logger:   logger.WithComponent("executor"),
	})
	if err != nil {
		return nil, err
	}
	env.Runner = runner
	return env, nil
}

// dryRunFacts describes an elevated, current Windows host so dry runs
// render commands on any machine.
func dryRunFacts() host.Facts {
	return host.Static{
		GOOS:     "windows",
		Elevated: true,
		Ver:      host.Version{Major: 10, Minor: 0, Build: 19045},
		Services: map[string]bool{health.FirewallService: true},
	}
}

// Manager runs the preflight and builds the configured backend.
func (e *Env) Manager(ctx context.Context) (firewall.Manager, error) {
	return e.ManagerFor(ctx, e.Config.Backend)
}

// ManagerFor builds a specific backend regardless of configuration.
func (e *Env) ManagerFor(ctx context.Context, backend string) (firewall.Manager, error) {
	netshPhrases, psPhrases, err := e.phrasebooks()
	if err != nil {
		return nil, err
	}
	return firewall.Select(ctx, firewall.SelectOptions{
		Backend:           backend,
		Facts:             e.Facts,
		Runner:            e.Runner,
		NetshPath:         e.Config.NetshPath,
		PowerShellPath:    e.Config.PowerShellPath,
		Timeout:           e.Config.Timeout(),
		NetshPhrases:      netshPhrases,
		PowerShellPhrases: psPhrases,
		Printer:           e.Printer,
		Logger:            e.Logger.WithComponent("firewall"),
		Metrics:           e.Metrics,
	})
}

// phrasebooks extends the built-in phrasebooks with configured locales.
func (e *Env) phrasebooks() (netsh, ps *firewall.Phrasebook, err error) {
	netsh = firewall.NetshPhrases()
	ps = firewall.PowerShellPhrases()
	for _, p := range e.Config.Phrases {
		tag, err := language.Parse(p.Locale)
		if err != nil {
			return nil, nil, fmt.Errorf("phrases %s: %w", p.Backend, err)
		}
		entry := firewall.Phrases{NoMatch: p.NoMatch}
		if p.RuleNameLabel != "" {
			entry.RuleNameLabels = []string{p.RuleNameLabel}
		}
		switch p.Backend {
		case config.BackendNetsh:
			netsh.Add(tag, entry)
		case config.BackendPowerShell:
			ps.Add(tag, entry)
		}
	}
	return netsh, ps, nil
}

// FlushDryRun prints the commands a dry run collected.
func (e *Env) FlushDryRun() {
	if e.dry == nil {
		return
	}
	calls := e.dry.Calls()
	if len(calls) == 0 {
		return
	}
	fmt.Fprintln(e.Out, "\n[DRY RUN] Commands:")
	for _, c := range calls {
		if c.Display == "" {
			fmt.Fprintln(e.Out, c.String())
			continue
		}
		fmt.Fprintln(e.Out, c.Path+":")
		fmt.Fprintln(e.Out, indent(c.Display))
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.Join(lines, "\n")
}
