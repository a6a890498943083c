package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"amciuday/internal/auth"
	"amciuday/internal/config"
	"amciuday/internal/ingredient"
	"amciuday/internal/logger"
	"amciuday/internal/ratelimit"
	"amciuday/internal/seed"
	"amciuday/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"log/slog"
)

// Store is everything the HTTP API needs from persistence.
type Store interface {
	seed.Store
	PreferredIngredients(ctx context.Context, kind string) ([]store.Ingredient, error)
	Preferences(ctx context.Context) (store.Preferences, error)
	AddPreference(ctx context.Context, kind string, ingredientID int64) error
	RemovePreference(ctx context.Context, kind string, ingredientID int64) error
	ListRecipesByMeal(ctx context.Context, meal string) ([]store.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (store.RecipeDetail, error)
	RecentRecipeIDs(ctx context.Context, meal string, limit int) ([]int64, error)
	AddSpin(ctx context.Context, recipeID int64, meal string, allowOneExtra bool) (int64, error)
	ListHistory(ctx context.Context, f store.HistoryFilter) ([]store.SpinHistoryEntry, error)
	ClearHistory(ctx context.Context) (int64, error)
	DeleteHistoryEntry(ctx context.Context, id int64) error
	Renormalize(ctx context.Context, normalize func(string) string, fingerprint string) (store.RenormalizeStats, error)
}

type Server struct {
	cfg     config.Config
	store   Store
	engine  *ingredient.Engine
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	// intn picks a recipe index; nil means math/rand.
	intn func(n int) int
}

func New(cfg config.Config, st Store, engine *ingredient.Engine, limiter *ratelimit.Limiter, log *slog.Logger) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		engine:  engine,
		limiter: limiter,
		logger:  log,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog(s.logger))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.cors)
		if s.limiter != nil {
			r.Use(s.limiter.Middleware(s.rejectRateLimited, http.MethodPost, http.MethodDelete))
		}

		r.Route("/ingredients", func(r chi.Router) {
			r.Post("/normalize", s.handleNormalize)
			r.Get("/{kind:liked|banned}", s.handleListPreferred)
			r.Post("/{kind:liked|banned}", s.handleAddPreferred)
			r.Delete("/{kind:liked|banned}/{id}", s.handleRemovePreferred)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/random", s.handleRandomRecipe)
			r.Get("/{id}", s.handleGetRecipe)
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.handleListHistory)
			r.Delete("/", s.handleClearHistory)
			r.Delete("/{id}", s.handleDeleteHistory)
		})

		r.Post("/import/seed", s.requireAdmin(s.handleImportSeed))
		r.Post("/admin/renormalize", s.requireAdmin(s.handleRenormalize))
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusTooManyRequests, "rate_limited")
}

func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.AdminEnabled() {
			writeError(w, http.StatusForbidden, "admin_disabled")
			return
		}
		admin, err := auth.ParseAdminToken(s.cfg.AdminJWTSecret, auth.BearerToken(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r.WithContext(auth.ContextWithAdmin(r.Context(), admin)))
	}
}

func (s *Server) cors(next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(s.cfg.AllowedOrigins))
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "":
			w.Header().Add("Vary", "Origin")
			if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
		}
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) log(ctx context.Context) *slog.Logger {
	return logger.WithRequestID(ctx, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseBool(v string, fallback bool) (bool, bool) {
	if v == "" {
		return fallback, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
