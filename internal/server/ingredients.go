package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxNormalizeNames = 500

type normalizedName struct {
	Name       string `json:"name"`
	Normalized string `json:"normalized"`
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Names []string `json:"names"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Names == nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if len(req.Names) > maxNormalizeNames {
		writeError(w, http.StatusBadRequest, "too_many_names")
		return
	}
	out := make([]normalizedName, 0, len(req.Names))
	for _, name := range req.Names {
		out = append(out, normalizedName{Name: name, Normalized: s.engine.Normalize(name)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListPreferred(w http.ResponseWriter, r *http.Request) {
	ings, err := s.store.PreferredIngredients(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		s.log(r.Context()).Error("preferences_list_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, ings)
}

func (s *Server) handleAddPreferred(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	name := strings.TrimSpace(req.Name)
	key := s.engine.Normalize(name)
	if key == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	kind := chi.URLParam(r, "kind")
	ing, err := s.store.GetOrCreateIngredient(r.Context(), name, key)
	if err != nil {
		s.log(r.Context()).Error("ingredient_create_failed", "error", err, "normalized", key)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if err := s.store.AddPreference(r.Context(), kind, ing.ID); err != nil {
		s.log(r.Context()).Error("preference_add_failed", "error", err, "kind", kind, "ingredient_id", ing.ID)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, ing)
}

func (s *Server) handleRemovePreferred(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	kind := chi.URLParam(r, "kind")
	if err := s.store.RemovePreference(r.Context(), kind, id); err != nil {
		s.log(r.Context()).Error("preference_remove_failed", "error", err, "kind", kind, "ingredient_id", id)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
