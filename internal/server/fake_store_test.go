package server

import (
	"context"
	"sort"
	"time"

	"amciuday/internal/store"
)

type fakeStore struct {
	ingredients []store.Ingredient
	prefs       map[string][]int64
	recipes     []store.Recipe
	spins       []store.SpinHistoryEntry
	renormCalls int
	fingerprint string
	err         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{prefs: map[string][]int64{}}
}

func (f *fakeStore) GetOrCreateIngredient(ctx context.Context, name, normalized string) (store.Ingredient, error) {
	if f.err != nil {
		return store.Ingredient{}, f.err
	}
	for _, ing := range f.ingredients {
		if ing.Normalized == normalized {
			return ing, nil
		}
	}
	ing := store.Ingredient{ID: int64(len(f.ingredients) + 1), Name: name, Normalized: normalized}
	f.ingredients = append(f.ingredients, ing)
	return ing, nil
}

func (f *fakeStore) CreateRecipe(ctx context.Context, r store.NewRecipe) (int64, bool, error) {
	for _, rec := range f.recipes {
		if rec.CanonicalHash == r.CanonicalHash {
			return rec.ID, false, nil
		}
	}
	rec := store.Recipe{ID: int64(len(f.recipes) + 1), Title: r.Title, URL: r.URL, CanonicalHash: r.CanonicalHash, MealType: r.MealType, Tags: []string{}}
	for _, ing := range r.Ingredients {
		rec.IngredientIDs = append(rec.IngredientIDs, ing.IngredientID)
	}
	f.recipes = append(f.recipes, rec)
	return rec.ID, true, nil
}

func (f *fakeStore) PreferredIngredients(ctx context.Context, kind string) ([]store.Ingredient, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []store.Ingredient{}
	for _, id := range f.prefs[kind] {
		out = append(out, f.ingredients[id-1])
	}
	return out, nil
}

func (f *fakeStore) Preferences(ctx context.Context) (store.Preferences, error) {
	return store.Preferences{
		LikedIDs:  append([]int64{}, f.prefs[store.KindLiked]...),
		BannedIDs: append([]int64{}, f.prefs[store.KindBanned]...),
	}, f.err
}

func (f *fakeStore) AddPreference(ctx context.Context, kind string, id int64) error {
	for _, existing := range f.prefs[kind] {
		if existing == id {
			return nil
		}
	}
	f.prefs[kind] = append(f.prefs[kind], id)
	return nil
}

func (f *fakeStore) RemovePreference(ctx context.Context, kind string, id int64) error {
	kept := []int64{}
	for _, existing := range f.prefs[kind] {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	f.prefs[kind] = kept
	return nil
}

func (f *fakeStore) ListRecipesByMeal(ctx context.Context, meal string) ([]store.Recipe, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []store.Recipe{}
	for _, r := range f.recipes {
		if r.MealType == meal {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetRecipe(ctx context.Context, id int64) (store.RecipeDetail, error) {
	for _, r := range f.recipes {
		if r.ID == id {
			detail := store.RecipeDetail{Recipe: r, Ingredients: []store.RecipeIngredient{}}
			for _, ingID := range r.IngredientIDs {
				detail.Ingredients = append(detail.Ingredients, store.RecipeIngredient{Ingredient: f.ingredients[ingID-1]})
			}
			return detail, nil
		}
	}
	return store.RecipeDetail{}, store.ErrNotFound
}

func (f *fakeStore) RecentRecipeIDs(ctx context.Context, meal string, limit int) ([]int64, error) {
	out := []int64{}
	for i := len(f.spins) - 1; i >= 0 && len(out) < limit; i-- {
		if f.spins[i].MealType == meal {
			out = append(out, f.spins[i].Recipe.ID)
		}
	}
	return out, nil
}

func (f *fakeStore) AddSpin(ctx context.Context, recipeID int64, meal string, allowOneExtra bool) (int64, error) {
	id := int64(len(f.spins) + 1)
	f.spins = append(f.spins, store.SpinHistoryEntry{
		ID:            id,
		Recipe:        store.Recipe{ID: recipeID},
		MealType:      meal,
		AllowOneExtra: allowOneExtra,
		SpunAt:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	return id, nil
}

func (f *fakeStore) ListHistory(ctx context.Context, filter store.HistoryFilter) ([]store.SpinHistoryEntry, error) {
	out := []store.SpinHistoryEntry{}
	for _, e := range f.spins {
		if filter.Meal != "" && e.MealType != filter.Meal {
			continue
		}
		if !filter.From.IsZero() && e.SpunAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !e.SpunAt.Before(filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) ClearHistory(ctx context.Context) (int64, error) {
	n := int64(len(f.spins))
	f.spins = nil
	return n, nil
}

func (f *fakeStore) DeleteHistoryEntry(ctx context.Context, id int64) error {
	for i, e := range f.spins {
		if e.ID == id {
			f.spins = append(f.spins[:i], f.spins[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) Renormalize(ctx context.Context, normalize func(string) string, fingerprint string) (store.RenormalizeStats, error) {
	f.renormCalls++
	f.fingerprint = fingerprint
	plan := store.PlanRenormalization(f.ingredients, normalize)
	return store.RenormalizeStats{Scanned: len(f.ingredients), Updated: len(plan.Updates), Merged: len(plan.Merges)}, nil
}
