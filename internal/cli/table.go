package cli

import (
	"fmt"

	"amciuday/internal/ingredient"

	"github.com/spf13/cobra"
)

// TableCommand returns the "table" parent command.
func TableCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Inspect the ingredient synonym table",
	}
	cmd.AddCommand(tableCheckCommand())
	return cmd
}

func tableCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the synonym table and print its fingerprint",
		Long: "Load the synonym table (the --table file or the embedded default),\n" +
			"report every entry that had to be folded, dropped or shadowed, and\n" +
			"print the fingerprint stored alongside normalized keys.\n\n" +
			"Fails when the file cannot be parsed, or on any warning with --strict.",
		Args:         cobra.NoArgs,
		RunE:         runTableCheck,
		SilenceUsage: true,
	}
	cmd.Flags().Bool("strict", false, "Fail when the table produces warnings")
	return cmd
}

func runTableCheck(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("table")
	strict, _ := cmd.Flags().GetBool("strict")

	engine, err := ingredient.Load(path)
	if err != nil {
		return fmt.Errorf("load synonym table: %w", err)
	}
	table := engine.Table()
	out := cmd.OutOrStdout()

	source := path
	if source == "" {
		source = "(embedded)"
	}
	fmt.Fprintf(out, "table: %s\n", source)
	fmt.Fprintf(out, "entries: %d\n", table.Len())
	fmt.Fprintf(out, "fingerprint: %s\n", table.Fingerprint())

	warnings := table.Warnings()
	for _, w := range warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if strict && len(warnings) > 0 {
		return fmt.Errorf("synonym table has %d warning(s)", len(warnings))
	}
	return nil
}
