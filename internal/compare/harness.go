// Package compare drives every rule contract operation against one or more
// backends and records what each reported, how long it took, and whether a
// policy round trip changed the rule set.
//
// The harness only touches rules it created itself, named with a per-run
// prefix. It never resets the firewall.
package compare

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"

	"grimm.is/palisade/internal/clock"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
)

// DefaultPerformanceRules is the number of rules the timing section adds
// when Options.Rules is zero.
const DefaultPerformanceRules = 10

// perfBasePort is the first local port used by timing rules.
const perfBasePort = 20000

// Options configures a comparison run.
type Options struct {
	// Rules is the size of the timing section. Negative disables it.
	Rules int
	// Program is an existing executable used for program rules.
	Program string
	// Scratch holds exported policy files. Defaults to the OS temp dir.
	Scratch string
	// Prefix starts every rule name the run creates. Defaults to
	// "PalisadeTest_" plus the first block of the run id.
	Prefix string

	Clock   clock.Clock
	Metrics *metrics.Registry
	Logger  *logging.Logger
}

// Step is one checked operation.
type Step struct {
	Name     string
	Passed   bool
	Detail   string
	Duration time.Duration
}

// Timing aggregates repeated calls to one operation.
type Timing struct {
	Operation string
	Count     int
	Total     time.Duration
	Failures  int
}

// Average is the mean duration per call.
func (t Timing) Average() time.Duration {
	if t.Count == 0 {
		return 0
	}
	return t.Total / time.Duration(t.Count)
}

// BackendReport is everything recorded for one backend.
type BackendReport struct {
	Backend firewall.Backend
	Steps   []Step
	Timings []Timing
	// Diff is the unified diff of the sorted rule list before and after the
	// policy round trip. Empty when nothing changed.
	Diff string
}

// Passed counts passing steps.
func (b *BackendReport) Passed() int {
	n := 0
	for _, s := range b.Steps {
		if s.Passed {
			n++
		}
	}
	return n
}

// OK reports whether every step passed.
func (b *BackendReport) OK() bool {
	return b.Passed() == len(b.Steps)
}

// Report is the outcome of one run over every backend.
type Report struct {
	RunID    uuid.UUID
	Started  time.Time
	Finished time.Time
	Backends []*BackendReport
	Metrics  []metrics.Sample
}

// OK reports whether every backend passed every step.
func (r *Report) OK() bool {
	for _, b := range r.Backends {
		if !b.OK() {
			return false
		}
	}
	return true
}

// Run executes the functional suite and then the timing section against
// each manager in order.
func Run(ctx context.Context, managers []firewall.Manager, opts Options) (*Report, error) {
	if len(managers) == 0 {
		return nil, errors.New("no backends to compare")
	}
	if opts.Program == "" {
		return nil, errors.New("a program path is required for program rules")
	}
	if _, err := os.Stat(opts.Program); err != nil {
		return nil, fmt.Errorf("program: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.WithComponent("compare")
	}
	if opts.Scratch == "" {
		opts.Scratch = os.TempDir()
	}
	if opts.Rules == 0 {
		opts.Rules = DefaultPerformanceRules
	}

	report := &Report{RunID: uuid.New(), Started: opts.Clock.Now()}
	if opts.Prefix == "" {
		opts.Prefix = "PalisadeTest_" + strings.SplitN(report.RunID.String(), "-", 2)[0] + "_"
	}

	for _, m := range managers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := &suite{
			m:      m,
			opts:   opts,
			runID:  report.RunID,
			logger: opts.Logger.WithFields(map[string]any{"backend": m.Backend().String()}),
			report: &BackendReport{Backend: m.Backend()},
		}
		s.functional(ctx)
		if opts.Rules > 0 {
			s.performance(ctx)
		}
		report.Backends = append(report.Backends, s.report)
	}

	if opts.Metrics != nil {
		samples, err := opts.Metrics.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("metrics snapshot: %w", err)
		}
		report.Metrics = samples
	}
	report.Finished = opts.Clock.Now()
	return report, nil
}

type suite struct {
	m       firewall.Manager
	opts    Options
	runID   uuid.UUID
	logger  *logging.Logger
	report  *BackendReport
	created []string
}

func (s *suite) name(suffix string) string {
	return s.opts.Prefix + suffix
}

// step runs fn, times it, and records the verdict.
func (s *suite) step(title string, fn func() (bool, string)) bool {
	start := s.opts.Clock.Now()
	passed, detail := fn()
	st := Step{Name: title, Passed: passed, Detail: detail, Duration: s.opts.Clock.Now().Sub(start)}
	s.report.Steps = append(s.report.Steps, st)
	if passed {
		s.logger.Debug("step passed", "step", title)
	} else {
		s.logger.Warn("step failed", "step", title, "detail", detail)
	}
	return passed
}

// expect records a step whose Result must succeed.
func (s *suite) expect(title string, call func() firewall.Result) bool {
	return s.step(title, func() (bool, string) {
		res := call()
		return res.Success, res.Message
	})
}

// add records an add step and remembers the rule for cleanup.
func (s *suite) add(title, name string, call func(name string) firewall.Result) {
	ok := s.expect(title, func() firewall.Result { return call(name) })
	if ok {
		s.created = append(s.created, name)
	}
}

// reject records a step that must fail validation.
func (s *suite) reject(title string, call func() firewall.Result) {
	s.step(title, func() (bool, string) {
		res := call()
		if res.Success {
			return false, "accepted: " + res.Message
		}
		if !errors.Is(res.Err, firewall.ErrInvalidInput) {
			return false, "rejected for another reason: " + res.Message
		}
		return true, res.Message
	})
}

func (s *suite) functional(ctx context.Context) {
	m, program := s.m, s.opts.Program

	s.add("add inbound program rule", s.name("ProgramIn"), func(n string) firewall.Result {
		return m.AddInboundProgramRule(ctx, n, program)
	})
	s.add("add outbound program rule", s.name("ProgramOut"), func(n string) firewall.Result {
		return m.AddOutboundProgramRule(ctx, n, program)
	})
	s.add("add inbound TCP port rule", s.name("PortTCP"), func(n string) firewall.Result {
		return m.AddPortRule(ctx, n, 8080, true, "TCP")
	})
	s.add("add outbound UDP port rule", s.name("PortUDP"), func(n string) firewall.Result {
		return m.AddPortRule(ctx, n, 5353, false, "UDP")
	})
	s.add("add remote keyword rule", s.name("RemoteKeyword"), func(n string) firewall.Result {
		return m.AddRemoteIPRule(ctx, n, "LocalSubnet", true, true)
	})
	s.add("add remote range rule", s.name("RemoteRange"), func(n string) firewall.Result {
		return m.AddRemoteIPRule(ctx, n, "10.0.0.1-10.0.0.255", true, false)
	})
	s.add("add remote subnet rule", s.name("RemoteSubnet"), func(n string) firewall.Result {
		return m.AddRemoteIPRule(ctx, n, "192.168.1.0/24", false, true)
	})
	s.add("add remote address rule", s.name("RemoteSingle"), func(n string) firewall.Result {
		return m.AddRemoteIPRule(ctx, n, "203.0.113.7", false, false)
	})
	s.add("add local address rule", s.name("LocalSingle"), func(n string) firewall.Result {
		return m.AddLocalIPRule(ctx, n, "192.168.1.10", true, true)
	})

	s.reject("reject port 0", func() firewall.Result {
		return m.AddPortRule(ctx, s.name("PortZero"), 0, true, "TCP")
	})
	s.reject("reject port 65536", func() firewall.Result {
		return m.AddPortRule(ctx, s.name("PortHigh"), 65536, true, "TCP")
	})
	s.reject("reject malformed address", func() firewall.Result {
		return m.AddRemoteIPRule(ctx, s.name("BadIP"), "999.1.1.1", true, true)
	})

	target := s.name("ProgramIn")
	s.expect("rule exists", func() firewall.Result { return m.RuleExists(ctx, target) })
	s.step("list contains created rules", func() (bool, string) {
		list := m.ListRules(ctx)
		if !list.Success {
			return false, list.Message
		}
		var missing []string
		for _, n := range s.created {
			if !slices.Contains(list.Names, n) {
				missing = append(missing, n)
			}
		}
		if len(missing) > 0 {
			return false, "missing: " + strings.Join(missing, ", ")
		}
		return true, list.Message
	})
	s.expect("disable rule", func() firewall.Result { return m.SetRuleEnabled(ctx, target, false) })
	s.expect("enable rule", func() firewall.Result { return m.SetRuleEnabled(ctx, target, true) })

	s.roundTrip(ctx)

	s.expect("delete rule", func() firewall.Result { return m.DeleteRule(ctx, target) })
	s.created = slices.DeleteFunc(s.created, func(n string) bool { return n == target })
	s.step("delete again reports absent", func() (bool, string) {
		res := m.DeleteRule(ctx, target)
		return res.Absent(), res.Message
	})
	s.step("exists after delete reports absent", func() (bool, string) {
		res := m.RuleExists(ctx, target)
		return res.Absent(), res.Message
	})

	s.cleanup(ctx)
}

// roundTrip exports the policy, imports it back, and checks the rule count
// did not change.
func (s *suite) roundTrip(ctx context.Context) {
	m := s.m
	path := filepath.Join(s.opts.Scratch, fmt.Sprintf("palisade-%s-%s.policy", s.runID, m.Backend()))
	defer os.Remove(path)

	before := m.ListRules(ctx)
	exported := s.expect("export policy", func() firewall.Result { return m.ExportPolicy(ctx, path) })
	if !exported {
		return
	}
	if !s.expect("import policy", func() firewall.Result { return m.ImportPolicy(ctx, path) }) {
		return
	}
	after := m.ListRules(ctx)

	s.report.Diff = diffNames(before.Names, after.Names)
	s.step("round trip keeps rule count", func() (bool, string) {
		if !before.Success || !after.Success {
			return false, "list failed: " + before.Message + after.Message
		}
		if len(before.Names) != len(after.Names) {
			return false, fmt.Sprintf("%d rules before, %d after", len(before.Names), len(after.Names))
		}
		return true, fmt.Sprintf("%d rules", len(after.Names))
	})
}

// diffNames is a unified diff of two sorted name lists.
func diffNames(before, after []string) string {
	a := slices.Clone(before)
	b := slices.Clone(after)
	slices.Sort(a)
	slices.Sort(b)
	if slices.Equal(a, b) {
		return ""
	}
	text, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        lines(a),
		B:        lines(b),
		FromFile: "before-import",
		ToFile:   "after-import",
		Context:  3,
	})
	return text
}

func lines(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n + "\n"
	}
	return out
}

// cleanup deletes every rule the run still owns.
func (s *suite) cleanup(ctx context.Context) {
	s.step("cleanup", func() (bool, string) {
		var failed []string
		for _, n := range s.created {
			res := s.m.DeleteRule(ctx, n)
			if !res.Success && !res.Absent() {
				failed = append(failed, n)
			}
		}
		s.created = nil
		if len(failed) > 0 {
			return false, "left behind: " + strings.Join(failed, ", ")
		}
		return true, ""
	})
}

// performance times N adds, one list, and N deletes.
func (s *suite) performance(ctx context.Context) {
	names := make([]string, s.opts.Rules)
	for i := range names {
		names[i] = s.name(fmt.Sprintf("Perf_%03d", i))
	}

	add := Timing{Operation: "add"}
	for i, n := range names {
		start := s.opts.Clock.Now()
		res := s.m.AddPortRule(ctx, n, perfBasePort+i, true, "TCP")
		add.Total += s.opts.Clock.Now().Sub(start)
		add.Count++
		if !res.Success {
			add.Failures++
		}
	}

	list := Timing{Operation: "list"}
	start := s.opts.Clock.Now()
	if res := s.m.ListRules(ctx); !res.Success {
		list.Failures++
	}
	list.Total = s.opts.Clock.Now().Sub(start)
	list.Count = 1

	del := Timing{Operation: "delete"}
	for _, n := range names {
		start := s.opts.Clock.Now()
		res := s.m.DeleteRule(ctx, n)
		del.Total += s.opts.Clock.Now().Sub(start)
		del.Count++
		if !res.Success {
			del.Failures++
		}
	}

	s.report.Timings = append(s.report.Timings, add, list, del)
	s.logger.Info("timing complete", "rules", len(names),
		"add_avg", add.Average().String(), "delete_avg", del.Average().String())
}
