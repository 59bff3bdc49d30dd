package cmd

import (
	"fmt"
	"io"

	"grimm.is/palisade/internal/brand"
	"grimm.is/palisade/internal/config"
)

// RunConfig prints the effective configuration. With initPath set it writes
// the configuration there instead, keeping a .bak of any previous file.
func RunConfig(out io.Writer, configFile, initPath string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	if initPath == "" {
		_, err := out.Write(cfg.Render())
		return err
	}

	if err := cfg.SaveTo(initPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Configuration written to %s\n", initPath)
	return nil
}

// RunVersion prints build information.
func RunVersion(out io.Writer) {
	b := brand.Get()
	fmt.Fprintf(out, "%s %s\n", b.Name, brand.Version)
	fmt.Fprintf(out, "  commit: %s\n", brand.GitCommit)
	fmt.Fprintf(out, "  built:  %s\n", brand.BuildTime)
	fmt.Fprintf(out, "  %s\n", b.Tagline)
}
