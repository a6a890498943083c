package seed

import (
	"context"
	"fmt"
	"log/slog"

	"amciuday/internal/store"
	"amciuday/internal/urlnorm"
)

// Store is the subset of store.Store the importer writes through.
type Store interface {
	GetOrCreateIngredient(ctx context.Context, name, normalized string) (store.Ingredient, error)
	CreateRecipe(ctx context.Context, r store.NewRecipe) (int64, bool, error)
}

type Normalizer interface {
	Normalize(raw string) string
}

type Result struct {
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
	Invalid   int `json:"invalid"`
	Processed int `json:"total_processed"`
}

type Importer struct {
	store  Store
	engine Normalizer
	logger *slog.Logger
}

func NewImporter(st Store, engine Normalizer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: st, engine: engine, logger: logger}
}

// Import stores every valid recipe whose canonical URL is not yet known.
// Invalid recipes are logged and counted; a store failure aborts the import.
func (im *Importer) Import(ctx context.Context, recipes []Recipe) (Result, error) {
	res := Result{Processed: len(recipes)}
	for i, r := range recipes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := r.Validate(); err != nil {
			im.logger.Warn("seed_recipe_invalid", "index", i, "title", r.Title, "error", err)
			res.Invalid++
			continue
		}
		canonicalURL, hash, err := urlnorm.Canonicalize(r.URL)
		if err != nil {
			im.logger.Warn("seed_recipe_invalid", "index", i, "url", r.URL, "error", err)
			res.Invalid++
			continue
		}

		ingredients, err := im.resolveIngredients(ctx, r.Ingredients)
		if err != nil {
			return res, fmt.Errorf("recipe %q: %w", r.Title, err)
		}

		_, created, err := im.store.CreateRecipe(ctx, store.NewRecipe{
			Title:         r.Title,
			Source:        r.Source,
			URL:           r.URL,
			CanonicalURL:  canonicalURL,
			CanonicalHash: hash,
			MealType:      r.MealType,
			TimeMinutes:   r.TimeMinutes,
			ImageURL:      r.ImageURL,
			Tags:          r.Tags,
			StepsExcerpt:  r.StepsExcerpt,
			Ingredients:   ingredients,
		})
		if err != nil {
			return res, fmt.Errorf("recipe %q: %w", r.Title, err)
		}
		if created {
			res.Imported++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

// resolveIngredients maps raw names to ingredient rows. Names that collapse
// to the same key keep only the first raw text.
func (im *Importer) resolveIngredients(ctx context.Context, names []string) ([]store.NewRecipeIngredient, error) {
	out := make([]store.NewRecipeIngredient, 0, len(names))
	seen := make(map[int64]bool, len(names))
	for _, raw := range names {
		key := im.engine.Normalize(raw)
		if key == "" {
			continue
		}
		ing, err := im.store.GetOrCreateIngredient(ctx, raw, key)
		if err != nil {
			return nil, err
		}
		if seen[ing.ID] {
			continue
		}
		seen[ing.ID] = true
		out = append(out, store.NewRecipeIngredient{IngredientID: ing.ID, AmountText: raw})
	}
	return out, nil
}
