package server

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"net/http"

	"amciuday/internal/auth"
	"amciuday/internal/seed"
)

const maxSeedBody = 16 << 20

// handleImportSeed imports recipes from the request body, or from the
// configured seed file when the body is empty.
func (s *Server) handleImportSeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSeedBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request_too_large")
		return
	}

	var recipes []seed.Recipe
	if len(bytes.TrimSpace(body)) == 0 {
		recipes, err = seed.LoadFile(s.cfg.SeedJSON)
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusBadRequest, "seed_file_not_found")
			return
		}
	} else {
		recipes, err = seed.Decode(bytes.NewReader(body))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_seed")
		return
	}

	admin, _ := auth.AdminFromContext(ctx)
	res, err := seed.NewImporter(s.store, s.engine, s.log(ctx)).Import(ctx, recipes)
	if err != nil {
		s.log(ctx).Error("seed_import_failed", "error", err, "imported", res.Imported)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	s.log(ctx).Info("seed_import_done", "admin", admin.Subject, "imported", res.Imported, "skipped", res.Skipped, "invalid", res.Invalid)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRenormalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fingerprint := s.engine.Table().Fingerprint()
	stats, err := s.store.Renormalize(ctx, s.engine.Normalize, fingerprint)
	if err != nil {
		s.log(ctx).Error("renormalize_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	admin, _ := auth.AdminFromContext(ctx)
	s.log(ctx).Info("renormalize_done", "admin", admin.Subject, "scanned", stats.Scanned, "updated", stats.Updated, "merged", stats.Merged)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scanned":     stats.Scanned,
		"updated":     stats.Updated,
		"merged":      stats.Merged,
		"fingerprint": fingerprint,
	})
}
