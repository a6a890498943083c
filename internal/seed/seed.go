// Package seed reads recipe seed files and imports them into the store.
package seed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"amciuday/internal/spin"
)

var (
	ErrEmpty          = errors.New("seed: empty document")
	ErrMissingRecipes = errors.New(`seed: object has no "recipes" field`)
)

// Recipe is one entry of a seed file. Ingredients are raw names as written
// in the source recipe.
type Recipe struct {
	Title        string   `json:"title"`
	Source       string   `json:"source"`
	URL          string   `json:"url"`
	MealType     string   `json:"meal_type"`
	TimeMinutes  *int     `json:"time_minutes"`
	ImageURL     *string  `json:"image_url"`
	Tags         []string `json:"tags"`
	StepsExcerpt string   `json:"steps_excerpt"`
	Ingredients  []string `json:"ingredients"`
}

func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("url is required")
	}
	if _, err := spin.ParseMeal(r.MealType); err != nil {
		return fmt.Errorf("meal_type %q: %w", r.MealType, err)
	}
	return nil
}

// Decode accepts either a JSON array of recipes or an object carrying the
// array under "recipes".
func Decode(r io.Reader) ([]Recipe, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, ErrEmpty
	}

	if body[0] == '{' {
		var doc struct {
			Recipes *[]Recipe `json:"recipes"`
		}
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		if doc.Recipes == nil {
			return nil, ErrMissingRecipes
		}
		return *doc.Recipes, nil
	}

	var recipes []Recipe
	if err := json.Unmarshal(body, &recipes); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return recipes, nil
}

func LoadFile(path string) ([]Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes recipes as an indented JSON array.
func Encode(w io.Writer, recipes []Recipe) error {
	if recipes == nil {
		recipes = []Recipe{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(recipes)
}
