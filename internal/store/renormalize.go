package store

import (
	"context"
	"sort"
	"strconv"
)

type RenormalizeStats struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Merged  int `json:"merged"`
}

// RenormalizationPlan describes how stored keys change under a new synonym
// table. Merges maps a duplicate ingredient to the lowest id sharing its new
// key; Updates maps surviving ingredients to their new key.
type RenormalizationPlan struct {
	Updates map[int64]string
	Merges  map[int64]int64
}

// PlanRenormalization recomputes every key from the ingredient's display name.
func PlanRenormalization(ingredients []Ingredient, normalize func(string) string) RenormalizationPlan {
	sorted := make([]Ingredient, len(ingredients))
	copy(sorted, ingredients)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	plan := RenormalizationPlan{Updates: map[int64]string{}, Merges: map[int64]int64{}}
	owner := make(map[string]int64, len(sorted))
	for _, ing := range sorted {
		key := normalize(ing.Name)
		if survivor, ok := owner[key]; ok {
			plan.Merges[ing.ID] = survivor
			continue
		}
		owner[key] = ing.ID
		if key != ing.Normalized {
			plan.Updates[ing.ID] = key
		}
	}
	return plan
}

// Renormalize applies PlanRenormalization to the whole ingredients table in
// one transaction and records fingerprint as current.
func (s *Store) Renormalize(ctx context.Context, normalize func(string) string, fingerprint string) (RenormalizeStats, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return RenormalizeStats{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `LOCK TABLE ingredients IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return RenormalizeStats{}, err
	}
	rows, err := tx.Query(ctx, `SELECT id, name, normalized FROM ingredients ORDER BY id`)
	if err != nil {
		return RenormalizeStats{}, err
	}
	ingredients, err := collectIngredients(rows)
	if err != nil {
		return RenormalizeStats{}, err
	}

	plan := PlanRenormalization(ingredients, normalize)

	for loser, survivor := range plan.Merges {
		if _, err = tx.Exec(ctx, `
			DELETE FROM recipe_ingredients ri
			WHERE ri.ingredient_id=$1
			  AND EXISTS (SELECT 1 FROM recipe_ingredients o WHERE o.recipe_id=ri.recipe_id AND o.ingredient_id=$2)
		`, loser, survivor); err != nil {
			return RenormalizeStats{}, err
		}
		if _, err = tx.Exec(ctx, `UPDATE recipe_ingredients SET ingredient_id=$2 WHERE ingredient_id=$1`, loser, survivor); err != nil {
			return RenormalizeStats{}, err
		}
		if _, err = tx.Exec(ctx, `
			DELETE FROM ingredient_preferences p
			WHERE p.ingredient_id=$1
			  AND EXISTS (SELECT 1 FROM ingredient_preferences o WHERE o.kind=p.kind AND o.ingredient_id=$2)
		`, loser, survivor); err != nil {
			return RenormalizeStats{}, err
		}
		if _, err = tx.Exec(ctx, `UPDATE ingredient_preferences SET ingredient_id=$2 WHERE ingredient_id=$1`, loser, survivor); err != nil {
			return RenormalizeStats{}, err
		}
		if _, err = tx.Exec(ctx, `DELETE FROM ingredients WHERE id=$1`, loser); err != nil {
			return RenormalizeStats{}, err
		}
	}

	// Keys may swap between survivors, so park them first to keep the unique
	// index satisfied after every statement.
	for id := range plan.Updates {
		if _, err = tx.Exec(ctx, `UPDATE ingredients SET normalized=$2 WHERE id=$1`, id, "\x01renormalize:"+strconv.FormatInt(id, 10)); err != nil {
			return RenormalizeStats{}, err
		}
	}
	for id, key := range plan.Updates {
		if _, err = tx.Exec(ctx, `UPDATE ingredients SET normalized=$2 WHERE id=$1`, id, key); err != nil {
			return RenormalizeStats{}, err
		}
	}

	if _, err = tx.Exec(ctx, setFingerprintSQL, fingerprint); err != nil {
		return RenormalizeStats{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return RenormalizeStats{}, err
	}
	return RenormalizeStats{
		Scanned: len(ingredients),
		Updated: len(plan.Updates),
		Merged:  len(plan.Merges),
	}, nil
}
