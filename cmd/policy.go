package cmd

import (
	"context"
	"fmt"

	"grimm.is/palisade/internal/tui"
)

// Confirmer asks the operator a yes/no question.
type Confirmer func(title, description string) (bool, error)

// RunExport writes the current policy to path.
func RunExport(ctx context.Context, env *Env, path string) error {
	m, err := env.Manager(ctx)
	if err != nil {
		return err
	}
	return finish(env, m.ExportPolicy(ctx, path))
}

// RunImport loads a policy file. netsh replaces the whole policy;
// PowerShell adds rules whose display names are not present yet.
func RunImport(ctx context.Context, env *Env, path string) error {
	m, err := env.Manager(ctx)
	if err != nil {
		return err
	}
	return finish(env, m.ImportPolicy(ctx, path))
}

// RunReset restores the firewall defaults after confirmation. yes skips the
// prompt. A nil confirm uses the terminal prompt.
func RunReset(ctx context.Context, env *Env, yes bool, confirm Confirmer) error {
	m, err := env.Manager(ctx)
	if err != nil {
		return err
	}

	if !yes {
		if confirm == nil {
			confirm = tui.Confirm
		}
		ok, err := confirm(
			"Reset Windows Firewall?",
			fmt.Sprintf("Every rule is removed and the defaults restored using %s.", m.Backend()),
		)
		if err != nil {
			return fmt.Errorf("confirmation: %w", err)
		}
		if !ok {
			fmt.Fprintln(env.Out, "Reset cancelled.")
			return nil
		}
	}
	return finish(env, m.ResetPolicy(ctx))
}
