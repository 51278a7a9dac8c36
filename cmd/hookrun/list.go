package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codysoyland/hookrun/pkg/discovery"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [hook]",
	Short: "List discovered hook scripts",
	Long: `List shows the executable scripts the next fire would discover, with the
execution mode each one resolves to. With a hook name it lists that hook
only; otherwise it covers every hook the manifest declares.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd.Flags())
	if err != nil {
		return err
	}

	engine, err := newEngine(cmd.Flags(), s)
	if err != nil {
		return err
	}

	hooks := engine.Hooks()
	if len(args) == 1 {
		engine.Declare(args[0])
		hooks = args
	}

	out := cmd.OutOrStdout()
	if len(hooks) == 0 {
		fmt.Fprintln(out, "No hooks declared. Pass a hook name or declare hooks in the manifest.")
		return nil
	}

	for _, hookName := range hooks {
		impls, err := discovery.Scan(engine.ScriptsDir(), hookName)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s:\n", hookName)
		if len(impls) == 0 {
			fmt.Fprintln(out, "  (no scripts)")
			continue
		}
		for _, impl := range impls {
			fmt.Fprintf(out, "  %-32s %-6s %s\n", impl.Key, engine.ModeFor(impl.Key), impl.Path)
		}
	}
	return nil
}
