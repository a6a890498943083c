package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

const (
	KindLiked  = "liked"
	KindBanned = "banned"
)

// ValidKind reports whether kind names a preference list.
func ValidKind(kind string) bool {
	return kind == KindLiked || kind == KindBanned
}

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type Ingredient struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Normalized string `json:"normalized"`
}

type Recipe struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Source        string    `json:"source"`
	URL           string    `json:"url"`
	CanonicalURL  string    `json:"-"`
	CanonicalHash string    `json:"-"`
	MealType      string    `json:"meal_type"`
	TimeMinutes   *int      `json:"time_minutes"`
	ImageURL      *string   `json:"image_url"`
	Tags          []string  `json:"tags"`
	StepsExcerpt  string    `json:"steps_excerpt"`
	IngredientIDs []int64   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

type RecipeIngredient struct {
	Ingredient
	AmountText string `json:"amount_text"`
}

type RecipeDetail struct {
	Recipe
	Ingredients []RecipeIngredient `json:"ingredients"`
}

// NewRecipe is a recipe ready for insertion. Ingredient ids must be unique.
type NewRecipe struct {
	Title         string
	Source        string
	URL           string
	CanonicalURL  string
	CanonicalHash string
	MealType      string
	TimeMinutes   *int
	ImageURL      *string
	Tags          []string
	StepsExcerpt  string
	Ingredients   []NewRecipeIngredient
}

type NewRecipeIngredient struct {
	IngredientID int64
	AmountText   string
}

type SpinHistoryEntry struct {
	ID            int64     `json:"id"`
	Recipe        Recipe    `json:"recipe"`
	MealType      string    `json:"meal_type"`
	AllowOneExtra bool      `json:"allow_one_extra"`
	SpunAt        time.Time `json:"spun_at"`
}

type Preferences struct {
	LikedIDs  []int64 `json:"liked_ids"`
	BannedIDs []int64 `json:"banned_ids"`
}

// HistoryFilter narrows ListHistory. Zero values are ignored; To is exclusive.
type HistoryFilter struct {
	Meal string
	From time.Time
	To   time.Time
}

// GetOrCreateIngredient returns the ingredient stored under normalized,
// inserting it with the given display name when absent.
func (s *Store) GetOrCreateIngredient(ctx context.Context, name, normalized string) (Ingredient, error) {
	ing := Ingredient{Name: name, Normalized: normalized}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO ingredients (name, normalized)
		VALUES ($1, $2)
		ON CONFLICT (normalized) DO NOTHING
		RETURNING id
	`, name, normalized)
	err := row.Scan(&ing.ID)
	if err == nil {
		return ing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Ingredient{}, err
	}
	row = s.DB.QueryRow(ctx, `SELECT id, name, normalized FROM ingredients WHERE normalized=$1`, normalized)
	if err := row.Scan(&ing.ID, &ing.Name, &ing.Normalized); err != nil {
		return Ingredient{}, err
	}
	return ing, nil
}

func (s *Store) ListIngredients(ctx context.Context, ids []int64) ([]Ingredient, error) {
	if len(ids) == 0 {
		return []Ingredient{}, nil
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, normalized FROM ingredients
		WHERE id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	return collectIngredients(rows)
}

func (s *Store) AllIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := s.DB.Query(ctx, `SELECT id, name, normalized FROM ingredients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectIngredients(rows)
}

func collectIngredients(rows pgx.Rows) ([]Ingredient, error) {
	defer rows.Close()
	out := []Ingredient{}
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Normalized); err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

func (s *Store) Preferences(ctx context.Context) (Preferences, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT kind, ingredient_id FROM ingredient_preferences
		ORDER BY created_at, ingredient_id
	`)
	if err != nil {
		return Preferences{}, err
	}
	defer rows.Close()

	prefs := Preferences{LikedIDs: []int64{}, BannedIDs: []int64{}}
	for rows.Next() {
		var kind string
		var id int64
		if err := rows.Scan(&kind, &id); err != nil {
			return Preferences{}, err
		}
		switch kind {
		case KindLiked:
			prefs.LikedIDs = append(prefs.LikedIDs, id)
		case KindBanned:
			prefs.BannedIDs = append(prefs.BannedIDs, id)
		}
	}
	return prefs, rows.Err()
}

// PreferredIngredients lists the ingredients on one preference list in the
// order they were added.
func (s *Store) PreferredIngredients(ctx context.Context, kind string) ([]Ingredient, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT i.id, i.name, i.normalized
		FROM ingredient_preferences p
		JOIN ingredients i ON i.id=p.ingredient_id
		WHERE p.kind=$1
		ORDER BY p.created_at, i.id
	`, kind)
	if err != nil {
		return nil, err
	}
	return collectIngredients(rows)
}

func (s *Store) AddPreference(ctx context.Context, kind string, ingredientID int64) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO ingredient_preferences (kind, ingredient_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, kind, ingredientID)
	return err
}

// RemovePreference is a no-op when the ingredient is not on the list.
func (s *Store) RemovePreference(ctx context.Context, kind string, ingredientID int64) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM ingredient_preferences WHERE kind=$1 AND ingredient_id=$2`, kind, ingredientID)
	return err
}

const recipeColumns = `r.id, r.title, r.source, r.url, r.canonical_url, r.canonical_hash, r.meal_type,
	r.time_minutes, r.image_url, r.tags, r.steps_excerpt, r.created_at`

func scanRecipe(row pgx.Row, extra ...any) (Recipe, error) {
	var r Recipe
	dest := []any{&r.ID, &r.Title, &r.Source, &r.URL, &r.CanonicalURL, &r.CanonicalHash, &r.MealType,
		&r.TimeMinutes, &r.ImageURL, &r.Tags, &r.StepsExcerpt, &r.CreatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Recipe{}, err
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

func (s *Store) ListRecipesByMeal(ctx context.Context, meal string) ([]Recipe, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+recipeColumns+`,
			COALESCE(array_agg(ri.ingredient_id ORDER BY ri.position) FILTER (WHERE ri.ingredient_id IS NOT NULL), '{}') AS ingredient_ids
		FROM recipes r
		LEFT JOIN recipe_ingredients ri ON ri.recipe_id=r.id
		WHERE r.meal_type=$1
		GROUP BY r.id
		ORDER BY r.id
	`, meal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipes := []Recipe{}
	for rows.Next() {
		var ids []int64
		r, err := scanRecipe(rows, &ids)
		if err != nil {
			return nil, err
		}
		r.IngredientIDs = ids
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

func (s *Store) GetRecipe(ctx context.Context, id int64) (RecipeDetail, error) {
	r, err := scanRecipe(s.DB.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RecipeDetail{}, ErrNotFound
		}
		return RecipeDetail{}, err
	}

	rows, err := s.DB.Query(ctx, `
		SELECT i.id, i.name, i.normalized, ri.amount_text
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id=ri.ingredient_id
		WHERE ri.recipe_id=$1
		ORDER BY ri.position, i.id
	`, id)
	if err != nil {
		return RecipeDetail{}, err
	}
	defer rows.Close()

	detail := RecipeDetail{Recipe: r, Ingredients: []RecipeIngredient{}}
	for rows.Next() {
		var ri RecipeIngredient
		if err := rows.Scan(&ri.ID, &ri.Name, &ri.Normalized, &ri.AmountText); err != nil {
			return RecipeDetail{}, err
		}
		detail.Ingredients = append(detail.Ingredients, ri)
		detail.IngredientIDs = append(detail.IngredientIDs, ri.ID)
	}
	return detail, rows.Err()
}

// CreateRecipe inserts r with its ingredient links. A recipe whose canonical
// hash already exists is left untouched and created is false.
func (s *Store) CreateRecipe(ctx context.Context, r NewRecipe) (int64, bool, error) {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var recipeID int64
	row := tx.QueryRow(ctx, `
		INSERT INTO recipes (title, source, url, canonical_url, canonical_hash, meal_type, time_minutes, image_url, tags, steps_excerpt)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (canonical_hash) DO NOTHING
		RETURNING id
	`, r.Title, r.Source, r.URL, r.CanonicalURL, r.CanonicalHash, r.MealType, r.TimeMinutes, r.ImageURL, tags, r.StepsExcerpt)
	if err = row.Scan(&recipeID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return 0, false, err
		}
		row = tx.QueryRow(ctx, `SELECT id FROM recipes WHERE canonical_hash=$1`, r.CanonicalHash)
		if err = row.Scan(&recipeID); err != nil {
			return 0, false, err
		}
		if err = tx.Commit(ctx); err != nil {
			return 0, false, err
		}
		return recipeID, false, nil
	}

	for i, ing := range r.Ingredients {
		_, err = tx.Exec(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, amount_text, position)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, recipeID, ing.IngredientID, ing.AmountText, i)
		if err != nil {
			return 0, false, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, false, err
	}
	return recipeID, true, nil
}

// RecentRecipeIDs returns the recipes of the last limit spins for meal,
// newest first. A recipe spun twice appears twice.
func (s *Store) RecentRecipeIDs(ctx context.Context, meal string, limit int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}
	rows, err := s.DB.Query(ctx, `
		SELECT recipe_id FROM spin_history
		WHERE meal_type=$1
		ORDER BY spun_at DESC, id DESC
		LIMIT $2
	`, meal, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) AddSpin(ctx context.Context, recipeID int64, meal string, allowOneExtra bool) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
		INSERT INTO spin_history (recipe_id, meal_type, allow_one_extra)
		VALUES ($1, $2, $3)
		RETURNING id
	`, recipeID, meal, allowOneExtra).Scan(&id)
	return id, err
}

func (s *Store) ListHistory(ctx context.Context, f HistoryFilter) ([]SpinHistoryEntry, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	if f.Meal != "" {
		args = append(args, f.Meal)
		where = append(where, fmt.Sprintf("h.meal_type = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("h.spun_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, fmt.Sprintf("h.spun_at < $%d", len(args)))
	}

	rows, err := s.DB.Query(ctx, fmt.Sprintf(`
		SELECT h.id, h.meal_type, h.allow_one_extra, h.spun_at, `+recipeColumns+`
		FROM spin_history h
		JOIN recipes r ON r.id=h.recipe_id
		WHERE %s
		ORDER BY h.spun_at DESC, h.id DESC
	`, strings.Join(where, " AND ")), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []SpinHistoryEntry{}
	for rows.Next() {
		var e SpinHistoryEntry
		r := &e.Recipe
		if err := rows.Scan(&e.ID, &e.MealType, &e.AllowOneExtra, &e.SpunAt,
			&r.ID, &r.Title, &r.Source, &r.URL, &r.CanonicalURL, &r.CanonicalHash, &r.MealType,
			&r.TimeMinutes, &r.ImageURL, &r.Tags, &r.StepsExcerpt, &r.CreatedAt); err != nil {
			return nil, err
		}
		if r.Tags == nil {
			r.Tags = []string{}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ClearHistory(ctx context.Context) (int64, error) {
	ct, err := s.DB.Exec(ctx, `DELETE FROM spin_history`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (s *Store) DeleteHistoryEntry(ctx context.Context, id int64) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM spin_history WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TableFingerprint returns the fingerprint of the synonym table the stored
// keys were computed with, or "" when none has been recorded.
func (s *Store) TableFingerprint(ctx context.Context) (string, error) {
	var fp string
	err := s.DB.QueryRow(ctx, `SELECT table_fingerprint FROM normalization_state WHERE id=1`).Scan(&fp)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return fp, err
}

func (s *Store) SetTableFingerprint(ctx context.Context, fingerprint string) error {
	_, err := s.DB.Exec(ctx, setFingerprintSQL, fingerprint)
	return err
}

const setFingerprintSQL = `
	INSERT INTO normalization_state (id, table_fingerprint, renormalized_at)
	VALUES (1, $1, NOW())
	ON CONFLICT (id) DO UPDATE SET table_fingerprint=EXCLUDED.table_fingerprint, renormalized_at=NOW()
`
