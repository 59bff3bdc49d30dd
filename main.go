package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"grimm.is/palisade/cmd"
	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(cmd.ExitUsage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub, args := os.Args[1], os.Args[2:]
	err := run(ctx, sub, args)
	if err != nil {
		printer.Fprintf(os.Stderr, "%s: %v\n", sub, err)
	}
	stop()
	os.Exit(cmd.ExitCode(err))
}

func run(ctx context.Context, sub string, args []string) error {
	var g cmd.GlobalOptions

	switch sub {
	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		g.Register(fs)
		fs.Parse(args)
		env, err := cmd.Setup(g)
		if err != nil {
			return err
		}
		return cmd.RunCheck(ctx, env, g.Verbose)

	case "add":
		if len(args) < 1 {
			return cmd.Usage("usage: %s add program|port|remote-ip|local-ip [flags] <name>", brand.BinaryName)
		}
		kind := args[0]
		fs := flag.NewFlagSet("add "+kind, flag.ExitOnError)
		g.Register(fs)
		a := cmd.AddArgs{Kind: kind}
		fs.StringVar(&a.Target, "program", "", "Program path (program rules)")
		fs.StringVar(&a.Target, "ip", "", "IP keyword, address, A-B range or A/n subnet (IP rules)")
		fs.IntVar(&a.Port, "port", 0, "Local port (port rules)")
		fs.StringVar(&a.Protocol, "protocol", "TCP", "TCP or UDP (port rules)")
		dir := fs.String("dir", "in", "Direction: in or out")
		action := fs.String("action", "allow", "Action for IP rules: allow or block")
		fs.Parse(args[1:])
		if fs.NArg() != 1 {
			return cmd.Usage("exactly one rule name is required")
		}
		a.Name = fs.Arg(0)

		switch strings.ToLower(*dir) {
		case "in":
			a.Inbound = true
		case "out":
		default:
			return cmd.Usage("-dir must be in or out, got %q", *dir)
		}
		switch strings.ToLower(*action) {
		case "allow":
			a.Allow = true
		case "block":
		default:
			return cmd.Usage("-action must be allow or block, got %q", *action)
		}

		env, err := cmd.Setup(g)
		if err != nil {
			return err
		}
		return cmd.RunAdd(ctx, env, a)

	case "delete", "exists", "enable", "disable":
		fs := flag.NewFlagSet(sub, flag.ExitOnError)
		g.Register(fs)
		fs.Parse(args)
		if fs.NArg() != 1 {
			return cmd.Usage("usage: %s %s [flags] <name>", brand.BinaryName, sub)
		}
		env, err := cmd.Setup(g)
		if err != nil {
			return err
		}
		name := fs.Arg(0)
		switch sub {
		case "delete":
			return cmd.RunDelete(ctx, env, name)
		case "exists":
			return cmd.RunExists(ctx, env, name)
		case "enable":
			return cmd.RunSetEnabled(ctx, env, name, true)
		default:
			return cmd.RunSetEnabled(ctx, env, name, false)
		}

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		g.Register(fs)
		fs.Parse(args)
		env, err := cmd.Setup(g)
		if err != nil {
			return err
		}
		return cmd.RunList(ctx, env)

	case "export", "import":
		fs := flag.NewFlagSet(sub, flag.ExitOnError)
		g.Register(fs)
		fs.Parse(args)
		if fs.NArg() != 1 {
			return cmd.Usage("usage: %s %s [flags] <file>", brand.BinaryName, sub)
		}
		env, err := cmd.Setup(g)
		if err != nil {
			return err
		}
		if sub == "export" {
			return cmd.RunExport(ctx, env, fs.Arg(0))
		}
		return cmd.RunImport(ctx, env, fs.Arg(0))

	case "reset":
		fs := flag.NewFlagSet("reset", flag.ExitOnError)
		g.Register(fs)
		yes := fs.Bool("yes", false, "Skip the confirmation prompt")
		fs.BoolVar(yes, "y", false, "Skip the confirmation prompt (short)")
		fs.Parse(args)
		env, err := cmd.Setup(g)
		if err != nil {
			return err
		}
		return cmd.RunReset(ctx, env, *yes || g.DryRun, nil)

	case "compare":
		fs := flag.NewFlagSet("compare", flag.ExitOnError)
		g.Register(fs)
		var a cmd.CompareArgs
		fs.StringVar(&a.Program, "program", "", "Existing executable used for program rules")
		backends := fs.String("backends", "netsh,powershell", "Comma-separated backends to compare")
		fs.StringVar(&a.Dir, "out", "", "Report directory (default from config)")
		fs.StringVar(&a.Format, "format", "", "Report format: text or yaml")
		fs.IntVar(&a.Rules, "rules", 0, "Rules in the timing section")
		fs.StringVar(&a.Scratch, "scratch", "", "Directory for exported policy files")
		fs.Parse(args)
		for _, b := range strings.Split(*backends, ",") {
			if b = strings.TrimSpace(b); b != "" {
				a.Backends = append(a.Backends, b)
			}
		}
		env, err := cmd.Setup(g)
		if err != nil {
			return err
		}
		return cmd.RunCompare(ctx, env, a)

	case "config":
		fs := flag.NewFlagSet("config", flag.ExitOnError)
		configFile := fs.String("config", "", "Configuration file")
		fs.StringVar(configFile, "c", "", "Configuration file (short)")
		initPath := fs.String("init", "", "Write the effective configuration to this path")
		fs.Parse(args)
		return cmd.RunConfig(os.Stdout, *configFile, *initPath)

	case "version":
		cmd.RunVersion(os.Stdout)
		return nil

	case "help", "-h", "--help":
		printUsage()
		return nil
	}

	printUsage()
	return cmd.Usage("unknown command %q", sub)
}

func printUsage() {
	printer.Printf("%s - %s\n\n", brand.Name, brand.Description)
	printer.Printf("Usage: %s <command> [flags] [args]\n\n", brand.BinaryName)
	printer.Printf("Commands:\n")
	printer.Printf("  check                              Run the preflight checks and show the selected backend\n")
	printer.Printf("  add program -program <exe> <name>  Allow a program (-dir in|out)\n")
	printer.Printf("  add port -port <n> <name>          Allow a local port (-protocol TCP|UDP, -dir in|out)\n")
	printer.Printf("  add remote-ip -ip <expr> <name>    Match a remote address (-action allow|block)\n")
	printer.Printf("  add local-ip -ip <expr> <name>     Match a local address (-action allow|block)\n")
	printer.Printf("  delete <name>                      Delete every rule with this name (exit 3 if absent)\n")
	printer.Printf("  exists <name>                      Report whether a rule exists (exit 3 if absent)\n")
	printer.Printf("  enable|disable <name>              Toggle a rule\n")
	printer.Printf("  list                               List rule names\n")
	printer.Printf("  export <file>                      Export the policy\n")
	printer.Printf("  import <file>                      Import a policy\n")
	printer.Printf("  reset [-yes]                       Restore firewall defaults\n")
	printer.Printf("  compare -program <exe>             Compare both backends and write a report\n")
	printer.Printf("  config [-init <path>]              Show or write the effective configuration\n")
	printer.Printf("  version                            Show version information\n\n")
	printer.Printf("Common flags: -config <file>, -backend auto|netsh|powershell, -dry-run, -v\n")
}
