package compare

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"grimm.is/palisade/internal/clock"
	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/executor"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/firewall/firewalltest"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
	"grimm.is/palisade/internal/testutil"
)

var started = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

type fixture struct {
	netshStore *firewalltest.Store
	psStore    *firewalltest.Store
	managers   []firewall.Manager
	reg        *metrics.Registry
	opts       Options
}

func newFixture(t *testing.T, elevated bool) *fixture {
	t.Helper()
	f := &fixture{
		netshStore: firewalltest.NewStore(),
		psStore:    firewalltest.NewStore(),
		reg:        metrics.New(),
	}
	f.managers = []firewall.Manager{
		firewall.NewNetshManager(firewall.Options{
			Runner:   &executor.FakeRunner{Handler: f.netshStore.Netsh(firewalltest.English)},
			Elevated: elevated,
			Logger:   logging.Discard(),
			Metrics:  f.reg,
		}),
		firewall.NewPowerShellManager(firewall.Options{
			Runner:   &executor.FakeRunner{Handler: f.psStore.PowerShell()},
			Elevated: elevated,
			Logger:   logging.Discard(),
			Metrics:  f.reg,
		}),
	}
	f.opts = Options{
		Rules:   5,
		Program: testutil.TempProgram(t),
		Scratch: t.TempDir(),
		Clock:   clock.NewSteppingClock(started, time.Millisecond),
		Metrics: f.reg,
		Logger:  logging.Discard(),
	}
	return f
}

func TestRunAllBackendsPass(t *testing.T) {
	f := newFixture(t, true)
	existing := firewalltest.Rule{Name: "Core Networking - DNS (UDP-Out)", Enabled: true}
	f.netshStore.Seed(existing)
	f.psStore.Seed(existing)

	report, err := Run(context.Background(), f.managers, f.opts)
	require.NoError(t, err)

	assert.Equal(t, started, report.Started)
	assert.True(t, report.Finished.After(report.Started))
	require.Len(t, report.Backends, 2)
	assert.Equal(t, firewall.BackendNetsh, report.Backends[0].Backend)
	assert.Equal(t, firewall.BackendPowerShell, report.Backends[1].Backend)

	for _, br := range report.Backends {
		for _, s := range br.Steps {
			assert.True(t, s.Passed, "%s: %s: %s", br.Backend, s.Name, s.Detail)
			assert.Equal(t, time.Millisecond, s.Duration)
		}
		assert.Empty(t, br.Diff)

		require.Len(t, br.Timings, 3)
		assert.Equal(t, "add", br.Timings[0].Operation)
		assert.Equal(t, 5, br.Timings[0].Count)
		assert.Zero(t, br.Timings[0].Failures)
		assert.Equal(t, 1, br.Timings[1].Count)
		assert.Equal(t, 5, br.Timings[2].Count)
		assert.Zero(t, br.Timings[2].Failures)
	}
	assert.True(t, report.OK())

	// Only the pre-existing rule survives; the harness cleans up after itself.
	assert.Equal(t, []string{existing.Name}, f.netshStore.Names())
	assert.Equal(t, []string{existing.Name}, f.psStore.Names())

	assert.NotEmpty(t, report.Metrics)
	var sawOps bool
	for _, m := range report.Metrics {
		if m.Name == "palisade_rule_operations_total" {
			sawOps = true
		}
	}
	assert.True(t, sawOps)
}

func TestRunStepNames(t *testing.T) {
	f := newFixture(t, true)
	f.opts.Rules = -1

	report, err := Run(context.Background(), f.managers[:1], f.opts)
	require.NoError(t, err)
	require.Len(t, report.Backends, 1)

	var names []string
	for _, s := range report.Backends[0].Steps {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "reject port 0")
	assert.Contains(t, names, "reject malformed address")
	assert.Contains(t, names, "delete again reports absent")
	assert.Contains(t, names, "round trip keeps rule count")
	assert.Equal(t, "cleanup", names[len(names)-1])
	assert.Empty(t, report.Backends[0].Timings)
}

func TestRunUsesPrefix(t *testing.T) {
	f := newFixture(t, true)
	f.opts.Prefix = "Probe_"
	f.opts.Rules = -1

	var seen []string
	netshStore := firewalltest.NewStore()
	handler := netshStore.Netsh(firewalltest.English)
	m := firewall.NewNetshManager(firewall.Options{
		Runner: &executor.FakeRunner{Handler: func(cmd executor.Command) executor.Result {
			for _, a := range cmd.Args {
				if n, ok := strings.CutPrefix(a, "name="); ok && n != "all" {
					seen = append(seen, n)
				}
			}
			return handler(cmd)
		}},
		Elevated: true,
		Logger:   logging.Discard(),
	})

	_, err := Run(context.Background(), []firewall.Manager{m}, f.opts)
	require.NoError(t, err)
	require.NotEmpty(t, seen)
	for _, n := range seen {
		assert.True(t, strings.HasPrefix(strings.Trim(n, `"`), "Probe_"), n)
	}
}

func TestRunNotElevatedFailsWithoutTouchingStore(t *testing.T) {
	f := newFixture(t, false)

	report, err := Run(context.Background(), f.managers, f.opts)
	require.NoError(t, err)

	assert.False(t, report.OK())
	for _, br := range report.Backends {
		assert.Less(t, br.Passed(), len(br.Steps))
		assert.Equal(t, 5, br.Timings[0].Failures)
	}
	assert.Zero(t, f.netshStore.Len())
	assert.Zero(t, f.psStore.Len())
}

func TestRunRequiresProgram(t *testing.T) {
	f := newFixture(t, true)

	f.opts.Program = ""
	_, err := Run(context.Background(), f.managers, f.opts)
	assert.Error(t, err)

	f.opts.Program = filepath.Join(t.TempDir(), "missing.exe")
	_, err = Run(context.Background(), f.managers, f.opts)
	assert.Error(t, err)

	_, err = Run(context.Background(), nil, f.opts)
	assert.Error(t, err)
}

func TestRunCanceled(t *testing.T) {
	f := newFixture(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, f.managers, f.opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiffNames(t *testing.T) {
	assert.Empty(t, diffNames([]string{"b", "a"}, []string{"a", "b"}))

	diff := diffNames([]string{"a", "b"}, []string{"a", "b", "b"})
	assert.Contains(t, diff, "--- before-import")
	assert.Contains(t, diff, "+++ after-import")
	assert.Contains(t, diff, "+b")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "FirewallTest_20260314_092653.txt", FileName(started, config.FormatText))
	assert.Equal(t, "FirewallTest_20260314_092653.yaml", FileName(started, config.FormatYAML))
}

func TestWriteReports(t *testing.T) {
	f := newFixture(t, true)
	report, err := Run(context.Background(), f.managers, f.opts)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "reports")

	path, err := Write(dir, report, config.FormatText)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "FirewallTest_20260314_092653.txt"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, report.RunID.String())
	assert.Contains(t, text, "== netsh:")
	assert.Contains(t, text, "== powershell:")
	assert.Contains(t, text, "[PASS] add inbound program rule")
	assert.Contains(t, text, "(no differences)")
	assert.Contains(t, text, "== Metrics ==")
	assert.NotContains(t, text, "[FAIL]")

	path, err = Write(dir, report, config.FormatYAML)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		RunID    string `yaml:"run_id"`
		OK       bool   `yaml:"ok"`
		Backends []struct {
			Backend string `yaml:"backend"`
			Passed  int    `yaml:"passed"`
			Total   int    `yaml:"total"`
		} `yaml:"backends"`
	}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, report.RunID.String(), decoded.RunID)
	assert.True(t, decoded.OK)
	require.Len(t, decoded.Backends, 2)
	assert.Equal(t, decoded.Backends[0].Total, decoded.Backends[0].Passed)

	_, err = Write(dir, report, "xml")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	f := newFixture(t, false)
	report, err := Run(context.Background(), f.managers[:1], f.opts)
	require.NoError(t, err)

	out := report.Summary()
	assert.Contains(t, out, "netsh")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "administrator privileges required")
}
