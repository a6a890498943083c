package server

import (
	"errors"
	"net/http"

	"amciuday/internal/spin"
	"amciuday/internal/store"
)

type recipeMatch struct {
	store.Recipe
	ExtraIngredientsCount int    `json:"extra_ingredients_count"`
	TotalIngredientsCount int    `json:"total_ingredients_count"`
	MatchQuality          string `json:"match_quality"`
}

// handleRandomRecipe picks the best match for a meal and records the spin.
func (s *Server) handleRandomRecipe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	meal, err := spin.ParseMeal(q.Get("meal"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_meal_type")
		return
	}
	allowOneExtra, ok := parseBool(q.Get("allow_one_extra"), false)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	hideRecent, ok := parseBool(q.Get("hide_recent"), true)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	recipes, err := s.store.ListRecipesByMeal(ctx, meal)
	if err != nil {
		s.log(ctx).Error("recipes_list_failed", "error", err, "meal", meal)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	prefs, err := s.store.Preferences(ctx)
	if err != nil {
		s.log(ctx).Error("preferences_load_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	var recent []int64
	if hideRecent {
		recent, err = s.store.RecentRecipeIDs(ctx, meal, s.cfg.RecentSpinWindow)
		if err != nil {
			s.log(ctx).Error("recent_spins_failed", "error", err, "meal", meal)
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	byID := make(map[int64]store.Recipe, len(recipes))
	cands := make([]spin.Candidate, 0, len(recipes))
	for _, rec := range recipes {
		byID[rec.ID] = rec
		cands = append(cands, spin.Candidate{ID: rec.ID, IngredientIDs: rec.IngredientIDs})
	}
	criteria := spin.NewCriteria(prefs.LikedIDs, prefs.BannedIDs, recent, allowOneExtra)
	picked, found := criteria.Best(cands, s.intn)
	if !found {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	if _, err := s.store.AddSpin(ctx, picked.ID, meal, allowOneExtra); err != nil {
		s.log(ctx).Error("spin_record_failed", "error", err, "recipe_id", picked.ID)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	extra := criteria.CountExtra(picked)
	writeJSON(w, http.StatusOK, recipeMatch{
		Recipe:                byID[picked.ID],
		ExtraIngredientsCount: extra,
		TotalIngredientsCount: len(picked.IngredientIDs),
		MatchQuality:          criteria.MatchQuality(extra),
	})
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	detail, err := s.store.GetRecipe(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		s.log(r.Context()).Error("recipe_get_failed", "error", err, "recipe_id", id)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}
