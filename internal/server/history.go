package server

import (
	"errors"
	"net/http"
	"time"

	"amciuday/internal/spin"
	"amciuday/internal/store"
)

const dateLayout = "2006-01-02"

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.HistoryFilter

	if meal := q.Get("meal"); meal != "" {
		m, err := spin.ParseMeal(meal)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_meal_type")
			return
		}
		f.Meal = m
	}
	if v := q.Get("from_date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date")
			return
		}
		f.From = d
	}
	if v := q.Get("to_date"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date")
			return
		}
		// to_date is inclusive of the whole day.
		f.To = d.AddDate(0, 0, 1)
	}

	entries, err := s.store.ListHistory(r.Context(), f)
	if err != nil {
		s.log(r.Context()).Error("history_list_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.ClearHistory(r.Context())
	if err != nil {
		s.log(r.Context()).Error("history_clear_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if err := s.store.DeleteHistoryEntry(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		s.log(r.Context()).Error("history_delete_failed", "error", err, "history_id", id)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
