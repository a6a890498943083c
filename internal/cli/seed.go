package cli

import (
	"fmt"

	"amciuday/internal/seed"

	"github.com/spf13/cobra"
)

// SeedCommand returns the "seed" command.
func SeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Import recipes from a seed JSON file",
		Long: "Import recipes from a seed file: a JSON array of recipes or an object\n" +
			"with a \"recipes\" array. Recipes whose URL is already stored are skipped.\n\n" +
			"The file defaults to $SEED_JSON, then ./recipes_expanded.json.",
		Args:         cobra.MaximumNArgs(1),
		RunE:         runSeed,
		SilenceUsage: true,
	}
	addDatabaseFlag(cmd)
	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := envOr("SEED_JSON", "./recipes_expanded.json")
	if len(args) == 1 {
		path = args[0]
	}

	recipes, err := seed.LoadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	st, pool, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer pool.Close()

	res, err := seed.NewImporter(st, engine, cmdLogger(cmd)).Import(ctx, recipes)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported: %d\nskipped: %d\ninvalid: %d\nprocessed: %d\n",
		res.Imported, res.Skipped, res.Invalid, res.Processed)
	return nil
}
