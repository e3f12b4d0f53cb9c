package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/starford/mealtime/internal/diet"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	// AuthEnabled controls whether Bearer token auth is enforced.
	AuthEnabled bool
	Token       string
	// AllowedOrigins lists the origins the presentation client may call from.
	// Empty means DefaultAllowedOrigins; "*" allows any origin.
	AllowedOrigins []string
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
	// Now is the clock used for "today" views. time.Now when nil.
	Now func() time.Time
}

// DefaultAllowedOrigins admits pages served from this machine only.
var DefaultAllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(store *diet.Store, cfg RouterConfig) chi.Router {
	h := NewHandler(store, cfg.Now)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = DefaultAllowedOrigins
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	r := chi.NewRouter()
	r.Use(c.Handler)
	r.Use(OriginGuard(c))
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Plans.
	r.Get("/diets", h.ListDiets)
	r.Post("/diets", h.SaveDiet)
	r.Get("/diets/active", h.ActiveDiet)
	r.Get("/diets/{id}", h.GetDiet)
	r.Delete("/diets/{id}", h.DeleteDiet)
	r.Post("/diets/{id}/duplicate", h.DuplicateDiet)
	r.Post("/diets/{id}/activate", h.ActivateDiet)
	r.Put("/diets/{id}/meals/{mealID}/alarm", h.SetMealAlarm)

	// Today and history.
	r.Get("/today", h.Today)
	r.Post("/today/ensure", h.EnsureToday)
	r.Post("/history/{date}/meals/{mealID}/toggle", h.ToggleMealDone)
	r.Put("/history/{date}/meals/{mealID}", h.MarkMeal)

	// Progress.
	r.Get("/progress", h.Adherence)
	r.Get("/progress/daily", h.DailyProgress)
	r.Get("/progress/report.pdf", h.Report)

	// Preferences.
	r.Get("/config", h.GetConfig)
	r.Patch("/config", h.PatchConfig)

	// Export / import.
	r.Post("/export", h.Export)
	r.Post("/import", h.Import)

	// Reminders.
	r.Post("/meals/{mealID}/snooze", h.Snooze)
	r.Post("/reminders/actions", h.ReminderAction)
	r.Post("/reminders/reconcile", h.Reconcile)

	// SSE endpoint (protected by same auth middleware).
	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}
