package cli

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
)

// NormalizeCommand returns the "normalize" command.
func NormalizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [name...]",
		Short: "Print the canonical key of ingredient names",
		Long: "Print each raw name and its canonical key separated by a tab.\n\n" +
			"Without arguments, names are read from stdin one per line.\n\n" +
			"Examples:\n" +
			"  amciu normalize Pomidory \"ząbek czosnku\"\n" +
			"  cat names.txt | amciu normalize",
		RunE:         runNormalize,
		SilenceUsage: true,
	}
}

func runNormalize(cmd *cobra.Command, args []string) error {
	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		for _, raw := range args {
			fmt.Fprintf(out, "%s\t%s\n", raw, engine.Normalize(raw))
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		raw := scanner.Text()
		fmt.Fprintf(out, "%s\t%s\n", raw, engine.Normalize(raw))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}
