package cli

import (
	"fmt"

	"amciuday/internal/scrape"
	"amciuday/internal/seed"
	"amciuday/internal/spin"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const scrapeConcurrency = 4

// ScrapeCommand returns the "scrape" command.
func ScrapeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape --meal MEAL url...",
		Short: "Fetch recipe pages and print them as seed JSON",
		Long: "Fetch each recipe page, extract its title, image and ingredient list,\n" +
			"and write the result to stdout as a seed JSON array ready for\n" +
			"\"amciu seed\". Pages that fail are reported on stderr and left out.\n\n" +
			"Examples:\n" +
			"  amciu scrape --meal dinner https://example.com/przepis > dinner.json",
		Args:         cobra.MinimumNArgs(1),
		RunE:         runScrape,
		SilenceUsage: true,
	}
	cmd.Flags().String("meal", "", "Meal type for every page: breakfast, lunch, snack or dinner")
	cmd.Flags().StringSlice("tag", nil, "Tag to attach to every recipe (repeatable)")
	cmd.Flags().Int64("max-bytes", scrape.DefaultMaxBytes, "Largest page body accepted")
	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	mealFlag, _ := cmd.Flags().GetString("meal")
	meal, err := spin.ParseMeal(mealFlag)
	if err != nil {
		return fmt.Errorf("--meal %q: %w", mealFlag, err)
	}
	tags, _ := cmd.Flags().GetStringSlice("tag")
	maxBytes, _ := cmd.Flags().GetInt64("max-bytes")

	fetcher := scrape.New(maxBytes)
	log := cmdLogger(cmd)

	results := make([]*seed.Recipe, len(args))
	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(scrapeConcurrency)
	for i, url := range args {
		i, url := i, url
		g.Go(func() error {
			r, err := fetcher.Fetch(gctx, url)
			if err != nil {
				log.Warn("scrape_failed", "url", url, "error", err)
				return nil
			}
			r.MealType = meal
			if len(tags) > 0 {
				r.Tags = append([]string{}, tags...)
			}
			results[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	recipes := make([]seed.Recipe, 0, len(results))
	for _, r := range results {
		if r != nil {
			recipes = append(recipes, *r)
		}
	}
	if len(recipes) == 0 {
		return fmt.Errorf("no recipe could be scraped from %d url(s)", len(args))
	}
	return seed.Encode(cmd.OutOrStdout(), recipes)
}
