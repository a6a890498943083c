package cli

import (
	"fmt"

	"amciuday/internal/store"

	"github.com/spf13/cobra"
)

// RenormalizeCommand returns the "renormalize" command.
func RenormalizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renormalize",
		Short: "Recompute stored ingredient keys with the current synonym table",
		Long: "Recompute the normalized key of every stored ingredient from its name.\n" +
			"Ingredients whose keys now collide are merged into the oldest one, with\n" +
			"recipe links and preferences moved over. The table fingerprint is\n" +
			"recorded so the API stops reporting that a pass is required.",
		Args:         cobra.NoArgs,
		RunE:         runRenormalize,
		SilenceUsage: true,
	}
	addDatabaseFlag(cmd)
	cmd.Flags().Bool("dry-run", false, "Print the planned changes without applying them")
	return cmd
}

func runRenormalize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}
	st, pool, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer pool.Close()

	out := cmd.OutOrStdout()
	fingerprint := engine.Table().Fingerprint()

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		ingredients, err := st.AllIngredients(ctx)
		if err != nil {
			return fmt.Errorf("list ingredients: %w", err)
		}
		printPlan(cmd, ingredients, store.PlanRenormalization(ingredients, engine.Normalize))
		return nil
	}

	stats, err := st.Renormalize(ctx, engine.Normalize, fingerprint)
	if err != nil {
		return fmt.Errorf("renormalize: %w", err)
	}
	cmdLogger(cmd).Info("renormalize_done", "scanned", stats.Scanned, "updated", stats.Updated, "merged", stats.Merged)
	fmt.Fprintf(out, "scanned: %d\nupdated: %d\nmerged: %d\nfingerprint: %s\n", stats.Scanned, stats.Updated, stats.Merged, fingerprint)
	return nil
}

func printPlan(cmd *cobra.Command, ingredients []store.Ingredient, plan store.RenormalizationPlan) {
	out := cmd.OutOrStdout()
	for _, ing := range ingredients {
		if key, ok := plan.Updates[ing.ID]; ok {
			fmt.Fprintf(out, "update\t%d\t%s\t%s -> %s\n", ing.ID, ing.Name, ing.Normalized, key)
		}
		if survivor, ok := plan.Merges[ing.ID]; ok {
			fmt.Fprintf(out, "merge\t%d\t%s\tinto %d\n", ing.ID, ing.Name, survivor)
		}
	}
	fmt.Fprintf(out, "scanned: %d\nupdated: %d\nmerged: %d\n", len(ingredients), len(plan.Updates), len(plan.Merges))
}
