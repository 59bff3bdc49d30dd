package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/palisade/internal/config"
	"grimm.is/palisade/internal/executor"
	"grimm.is/palisade/internal/firewall"
	"grimm.is/palisade/internal/firewall/firewalltest"
	"grimm.is/palisade/internal/health"
	"grimm.is/palisade/internal/host"
	"grimm.is/palisade/internal/i18n"
	"grimm.is/palisade/internal/logging"
	"grimm.is/palisade/internal/metrics"
	"grimm.is/palisade/internal/testutil"
)

type testEnv struct {
	*Env
	out        *bytes.Buffer
	netshStore *firewalltest.Store
	psStore    *firewalltest.Store
}

func windowsHost(elevated bool) host.Static {
	return host.Static{
		GOOS:     "windows",
		Elevated: elevated,
		Ver:      host.Version{Major: 10, Minor: 0, Build: 22631},
		Services: map[string]bool{health.FirewallService: true},
	}
}

// newTestEnv routes netsh and powershell commands to separate simulated stores.
func newTestEnv(t *testing.T, backend string, facts host.Facts) *testEnv {
	t.Helper()
	te := &testEnv{
		out:        &bytes.Buffer{},
		netshStore: firewalltest.NewStore(),
		psStore:    firewalltest.NewStore(),
	}
	netsh := te.netshStore.Netsh(firewalltest.English)
	ps := te.psStore.PowerShell()

	cfg := config.Default()
	cfg.Backend = backend
	te.Env = &Env{
		Config:  cfg,
		Logger:  logging.Discard(),
		Printer: i18n.NewPrinter(i18n.DefaultLang),
		Metrics: metrics.New(),
		Facts:   facts,
		Out:     te.out,
		Runner: &executor.FakeRunner{Handler: func(c executor.Command) executor.Result {
			if c.Tool() == "netsh" {
				return netsh(c)
			}
			return ps(c)
		}},
	}
	return te
}

func TestRunAddAndDelete(t *testing.T) {
	for _, backend := range []string{config.BackendNetsh, config.BackendPowerShell} {
		t.Run(backend, func(t *testing.T) {
			te := newTestEnv(t, backend, windowsHost(true))
			ctx := context.Background()

			err := RunAdd(ctx, te.Env, AddArgs{Kind: "port", Name: "Web", Port: 8080, Protocol: "TCP", Inbound: true})
			require.NoError(t, err)
			assert.Contains(t, te.out.String(), "rule added")

			require.NoError(t, RunExists(ctx, te.Env, "Web"))

			require.NoError(t, RunDelete(ctx, te.Env, "Web"))
			err = RunDelete(ctx, te.Env, "Web")
			assert.Equal(t, ExitAbsent, ExitCode(err))

			err = RunExists(ctx, te.Env, "Web")
			assert.Equal(t, ExitAbsent, ExitCode(err))

			assert.Zero(t, te.netshStore.Len()+te.psStore.Len())
		})
	}
}

func TestRunAddKinds(t *testing.T) {
	te := newTestEnv(t, config.BackendNetsh, windowsHost(true))
	ctx := context.Background()
	program := testutil.TempProgram(t)

	require.NoError(t, RunAdd(ctx, te.Env, AddArgs{Kind: "program", Name: "App", Target: program, Inbound: true}))
	require.NoError(t, RunAdd(ctx, te.Env, AddArgs{Kind: "program", Name: "AppOut", Target: program}))
	require.NoError(t, RunAdd(ctx, te.Env, AddArgs{Kind: "remote-ip", Name: "Lan", Target: "192.168.1.0/24", Inbound: true, Allow: true}))
	require.NoError(t, RunAdd(ctx, te.Env, AddArgs{Kind: "local-ip", Name: "Local", Target: "10.0.0.1-10.0.0.9"}))

	assert.Equal(t, []string{"App", "AppOut", "Lan", "Local"}, te.netshStore.Names())
}

func TestRunAddRejectsInput(t *testing.T) {
	te := newTestEnv(t, config.BackendNetsh, windowsHost(true))
	ctx := context.Background()

	err := RunAdd(ctx, te.Env, AddArgs{Kind: "port", Name: "Zero", Port: 0})
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "invalid port")

	err = RunAdd(ctx, te.Env, AddArgs{Kind: "bogus", Name: "X"})
	assert.Equal(t, ExitUsage, ExitCode(err))

	err = RunAdd(ctx, te.Env, AddArgs{Kind: "port", Port: 80})
	assert.Equal(t, ExitUsage, ExitCode(err))

	assert.Zero(t, te.netshStore.Len())
}

func TestRunListAndToggle(t *testing.T) {
	te := newTestEnv(t, config.BackendNetsh, windowsHost(true))
	te.netshStore.Seed(firewalltest.Rule{Name: "One", Enabled: true}, firewalltest.Rule{Name: "Two", Enabled: true})
	ctx := context.Background()

	require.NoError(t, RunList(ctx, te.Env))
	assert.Equal(t, "One\nTwo\n", te.out.String())

	require.NoError(t, RunSetEnabled(ctx, te.Env, "Two", false))
	rule, ok := te.netshStore.Get("Two")
	require.True(t, ok)
	assert.False(t, rule.Enabled)

	err := RunSetEnabled(ctx, te.Env, "Three", true)
	assert.Equal(t, ExitAbsent, ExitCode(err))
}

func TestRunReset(t *testing.T) {
	te := newTestEnv(t, config.BackendNetsh, windowsHost(true))
	te.netshStore.Seed(firewalltest.Rule{Name: "Keep", Enabled: true})
	ctx := context.Background()

	var asked string
	decline := func(title, _ string) (bool, error) {
		asked = title
		return false, nil
	}
	require.NoError(t, RunReset(ctx, te.Env, false, decline))
	assert.NotEmpty(t, asked)
	assert.Contains(t, te.out.String(), "Reset cancelled.")
	assert.Equal(t, 1, te.netshStore.Len())

	failing := func(string, string) (bool, error) { return false, errors.New("no tty") }
	assert.Error(t, RunReset(ctx, te.Env, false, failing))
	assert.Equal(t, 1, te.netshStore.Len())

	require.NoError(t, RunReset(ctx, te.Env, true, nil))
	assert.Zero(t, te.netshStore.Len())
}

func TestRunExportImport(t *testing.T) {
	te := newTestEnv(t, config.BackendPowerShell, windowsHost(true))
	te.psStore.Seed(firewalltest.Rule{Name: "Keep", Enabled: true})
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.xml")

	require.NoError(t, RunExport(ctx, te.Env, path))
	require.NoError(t, RunImport(ctx, te.Env, path))
	assert.Equal(t, []string{"Keep"}, te.psStore.Names())

	err := RunImport(ctx, te.Env, filepath.Join(t.TempDir(), "missing.xml"))
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestNotElevatedMutationsFail(t *testing.T) {
	te := newTestEnv(t, config.BackendNetsh, windowsHost(false))

	err := RunAdd(context.Background(), te.Env, AddArgs{Kind: "port", Name: "Web", Port: 80})
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "administrator")
	assert.Empty(t, te.Runner.(*executor.FakeRunner).Calls())
}

func TestPreconditionFailureBuildsNoManager(t *testing.T) {
	te := newTestEnv(t, config.BackendAuto, host.Static{GOOS: "linux"})

	err := RunList(context.Background(), te.Env)
	assert.ErrorIs(t, err, firewall.ErrPrecondition)
	assert.Empty(t, te.Runner.(*executor.FakeRunner).Calls())
}

func TestRunCheck(t *testing.T) {
	t.Run("passes", func(t *testing.T) {
		te := newTestEnv(t, config.BackendAuto, windowsHost(true))
		require.NoError(t, RunCheck(context.Background(), te.Env, true))
		out := te.out.String()
		assert.Contains(t, out, "platform")
		assert.Contains(t, out, "elevation")
		assert.Contains(t, out, "Backend: powershell")
		assert.Contains(t, out, "Windows version: 10.0.22631")
	})

	t.Run("older windows uses netsh", func(t *testing.T) {
		facts := windowsHost(true)
		facts.Ver = host.Version{Major: 6, Minor: 1, Build: 7601}
		te := newTestEnv(t, config.BackendAuto, facts)
		require.NoError(t, RunCheck(context.Background(), te.Env, false))
		assert.Contains(t, te.out.String(), "Backend: netsh")
	})

	t.Run("service stopped", func(t *testing.T) {
		facts := windowsHost(true)
		facts.Services = nil
		te := newTestEnv(t, config.BackendAuto, facts)
		err := RunCheck(context.Background(), te.Env, false)
		assert.ErrorIs(t, err, firewall.ErrPrecondition)
		assert.Contains(t, te.out.String(), "FAIL")
		assert.Contains(t, te.out.String(), "SKIP")
	})
}

func TestDryRunPrintsCommands(t *testing.T) {
	te := newTestEnv(t, config.BackendNetsh, dryRunFacts())
	dry := &executor.FakeRunner{}
	te.dry = dry
	te.Runner = dry

	require.NoError(t, RunAdd(context.Background(), te.Env, AddArgs{Kind: "port", Name: "Web", Port: 443, Inbound: true}))
	out := te.out.String()
	assert.Contains(t, out, "[DRY RUN] Commands:")
	assert.Contains(t, out, "advfirewall firewall add rule name=Web dir=in action=allow protocol=tcp localport=443")
}

func TestDryRunPowerShellShowsScript(t *testing.T) {
	te := newTestEnv(t, config.BackendPowerShell, dryRunFacts())
	dry := &executor.FakeRunner{}
	te.dry = dry
	te.Runner = dry

	require.NoError(t, RunSetEnabled(context.Background(), te.Env, "Web", false))
	out := te.out.String()
	assert.Contains(t, out, "powershell.exe:")
	assert.Contains(t, out, "    ")
	assert.Contains(t, out, "Set-NetFirewallRule -DisplayName 'Web' -Enabled 'False'")
}

func TestRunCompare(t *testing.T) {
	te := newTestEnv(t, config.BackendAuto, windowsHost(true))
	dir := filepath.Join(t.TempDir(), "reports")

	err := RunCompare(context.Background(), te.Env, CompareArgs{
		Program: testutil.TempProgram(t),
		Dir:     dir,
		Rules:   3,
		Scratch: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Contains(t, te.out.String(), "Report: ")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^FirewallTest_\d{8}_\d{6}\.txt$`, entries[0].Name())

	assert.Zero(t, te.netshStore.Len())
	assert.Zero(t, te.psStore.Len())

	err = RunCompare(context.Background(), te.Env, CompareArgs{})
	assert.Equal(t, ExitUsage, ExitCode(err))

	err = RunCompare(context.Background(), te.Env, CompareArgs{Program: "x", Backends: []string{"iptables"}})
	assert.Equal(t, ExitUsage, ExitCode(err))
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "palisade.hcl")
	require.NoError(t, os.WriteFile(src, []byte("backend = \"netsh\"\ncommand_timeout = \"30s\"\n"), 0644))

	var out bytes.Buffer
	require.NoError(t, RunConfig(&out, src, ""))
	assert.Contains(t, out.String(), `backend`)
	assert.Contains(t, out.String(), `"netsh"`)

	dst := filepath.Join(dir, "out.hcl")
	out.Reset()
	require.NoError(t, RunConfig(&out, src, dst))
	assert.Contains(t, out.String(), dst)

	cfg, err := config.Load(dst)
	require.NoError(t, err)
	assert.Equal(t, config.BackendNetsh, cfg.Backend)

	assert.Error(t, RunConfig(&out, filepath.Join(dir, "missing.hcl"), ""))
}

func TestRunVersion(t *testing.T) {
	var out bytes.Buffer
	RunVersion(&out)
	assert.Contains(t, out.String(), "Palisade")
	assert.Contains(t, out.String(), "commit:")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitUsage, ExitCode(Usage("bad %s", "flag")))
	wrapped := &ExitError{Code: ExitAbsent, Err: errors.New("rule not found")}
	assert.Equal(t, ExitAbsent, ExitCode(wrapped))
	assert.Equal(t, "rule not found", wrapped.Error())
}
