package api

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starford/mealtime/internal/diet"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/report"
	"github.com/starford/mealtime/internal/schedule"
)

// Handler holds API route handlers.
type Handler struct {
	store *diet.Store
	now   func() time.Time
}

// NewHandler creates a new Handler. now defaults to time.Now.
func NewHandler(store *diet.Store, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{store: store, now: now}
}

// pathDate extracts and validates the {date} URL parameter. It writes a 400
// and returns false when the date is not YYYY-MM-DD.
func pathDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := chi.URLParam(r, "date")
	if _, err := schedule.ParseDate(date, time.UTC); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("date must be YYYY-MM-DD"))
		return "", false
	}
	return date, true
}

// ListDiets handles GET /api/diets.
//
//	@Summary		List every diet plan
//	@Tags			diets
//	@Produce		json
//	@Success		200	{object}	DietListResponse
//	@Security		BearerAuth
//	@Router			/diets [get]
func (h *Handler) ListDiets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, DietListResponse{
		Diets:    h.store.Plans(),
		ActiveID: h.store.ActiveID(),
	})
}

// GetDiet handles GET /api/diets/{id}.
func (h *Handler) GetDiet(w http.ResponseWriter, r *http.Request) {
	plan := h.store.Plan(chi.URLParam(r, "id"))
	if plan == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// ActiveDiet handles GET /api/diets/active.
func (h *Handler) ActiveDiet(w http.ResponseWriter, _ *http.Request) {
	plan := h.store.ActivePlan()
	if plan == nil {
		writeJSON(w, http.StatusNotFound, errorBody("no active diet"))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// SaveDiet handles POST /api/diets.
//
//	@Summary		Create or fully replace a diet plan
//	@Tags			diets
//	@Accept			json
//	@Produce		json
//	@Param			activate	query		bool			false	"Make the saved plan active"
//	@Param			body		body		models.DietPlan	true	"Plan to save"
//	@Success		201			{object}	models.DietPlan
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/diets [post]
func (h *Handler) SaveDiet(w http.ResponseWriter, r *http.Request) {
	var plan models.DietPlan
	if !decodeJSON(w, r, &plan) {
		return
	}
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	activate, _ := strconv.ParseBool(r.URL.Query().Get("activate"))

	if err := h.store.SaveDiet(r.Context(), plan, diet.SaveOptions{SetActive: activate}); err != nil {
		writeError(w, "save diet", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.store.Plan(plan.ID))
}

// DeleteDiet handles DELETE /api/diets/{id}.
func (h *Handler) DeleteDiet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.store.Plan(id) == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if err := h.store.DeleteDiet(r.Context(), id); err != nil {
		writeError(w, "delete diet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateDiet handles POST /api/diets/{id}/duplicate.
func (h *Handler) DuplicateDiet(w http.ResponseWriter, r *http.Request) {
	plan, err := h.store.DuplicateDiet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "duplicate diet", err)
		return
	}
	if plan == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// ActivateDiet handles POST /api/diets/{id}/activate.
func (h *Handler) ActivateDiet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.store.Plan(id) == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if err := h.store.SetActiveDiet(r.Context(), id); err != nil {
		writeError(w, "activate diet", err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Plan(id))
}

// SetMealAlarm handles PUT /api/diets/{id}/meals/{mealID}/alarm.
//
//	@Summary		Turn a meal's reminder on or off
//	@Tags			diets
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Diet id"
//	@Param			mealID	path		string			true	"Meal id"
//	@Param			body	body		AlarmRequest	true	"Alarm state"
//	@Success		200		{object}	models.Meal
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/diets/{id}/meals/{mealID}/alarm [put]
func (h *Handler) SetMealAlarm(w http.ResponseWriter, r *http.Request) {
	id, mealID := chi.URLParam(r, "id"), chi.URLParam(r, "mealID")
	var req AlarmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	plan := h.store.Plan(id)
	if plan == nil || plan.Meal(mealID) == nil {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if err := h.store.ToggleMealAlarm(r.Context(), id, mealID, req.Enabled); err != nil {
		writeError(w, "toggle alarm", err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Plan(id).Meal(mealID))
}

// Today handles GET /api/today.
//
//	@Summary		Active plan's meals for today with their status
//	@Tags			today
//	@Produce		json
//	@Success		200	{object}	TodayResponse
//	@Security		BearerAuth
//	@Router			/today [get]
func (h *Handler) Today(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	resp := TodayResponse{
		Date:    schedule.DateISO(now),
		Weekday: schedule.WeekdayOf(now),
		Meals:   h.store.MealStatuses(now),
		Percent: h.store.Adherence(1, now),
	}
	if p := h.store.ActivePlan(); p != nil {
		resp.DietID, resp.DietName = p.ID, p.Name
	}
	writeJSON(w, http.StatusOK, resp)
}

// EnsureToday handles POST /api/today/ensure. It creates not-done history
// entries for every meal of today that has none.
func (h *Handler) EnsureToday(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	meals := h.store.TodayMeals(now)
	ids := make([]string, 0, len(meals))
	for _, m := range meals {
		ids = append(ids, m.ID)
	}
	if err := h.store.EnsureDailyHistory(r.Context(), schedule.DateISO(now), ids); err != nil {
		writeError(w, "ensure history", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleMealDone handles POST /api/history/{date}/meals/{mealID}/toggle.
func (h *Handler) ToggleMealDone(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}
	done, err := h.store.ToggleMealDone(r.Context(), chi.URLParam(r, "mealID"), date)
	if err != nil {
		writeError(w, "toggle done", err)
		return
	}
	writeJSON(w, http.StatusOK, DoneResponse{Done: done})
}

// MarkMeal handles PUT /api/history/{date}/meals/{mealID}.
func (h *Handler) MarkMeal(w http.ResponseWriter, r *http.Request) {
	date, ok := pathDate(w, r)
	if !ok {
		return
	}
	var req MarkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.MarkMeal(r.Context(), chi.URLParam(r, "mealID"), date, req.Done); err != nil {
		writeError(w, "mark meal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Adherence handles GET /api/progress?days=N. days defaults to 7.
func (h *Handler) Adherence(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("days must be a positive integer"))
			return
		}
		days = n
	}
	writeJSON(w, http.StatusOK, AdherenceResponse{
		Days:    days,
		Percent: h.store.Adherence(days, h.now()),
	})
}

// DailyProgress handles GET /api/progress/daily.
func (h *Handler) DailyProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, DailyProgressResponse{Days: h.store.DailyProgress()})
}

// Report handles GET /api/progress/report.pdf.
//
//	@Summary		Adherence report as PDF
//	@Tags			progress
//	@Produce		application/pdf
//	@Success		200
//	@Security		BearerAuth
//	@Router			/progress/report.pdf [get]
func (h *Handler) Report(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := report.WritePDF(&buf, report.Build(h.store, h.now())); err != nil {
		writeError(w, "render report", err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="mealtime-report.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GetConfig handles GET /api/config.
func (h *Handler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ConfigResponse{
		AppConfig:     h.store.Config(),
		SnoozePresets: h.store.SnoozePresets(),
	})
}

// PatchConfig handles PATCH /api/config.
//
//	@Summary		Update preferences
//	@Description	Turning notifications on asks for permission; a refusal returns 409 and leaves them off.
//	@Tags			config
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.ConfigPatch	true	"Keys to change"
//	@Success		200		{object}	ConfigResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/config [patch]
func (h *Handler) PatchConfig(w http.ResponseWriter, r *http.Request) {
	var patch models.ConfigPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := h.store.SetConfig(r.Context(), patch); err != nil {
		writeError(w, "set config", err)
		return
	}
	h.GetConfig(w, r)
}

// Export handles POST /api/export.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	locator, err := h.store.ExportData(r.Context())
	if err != nil {
		writeError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusCreated, ExportResponse{Locator: locator})
}

// Import handles POST /api/import.
//
// With a locator query parameter the export is read from the sink; otherwise
// the request body is the export document itself.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if locator := strings.TrimSpace(r.URL.Query().Get("locator")); locator != "" {
		if err := h.store.ImportData(r.Context(), diet.PickLocator(locator)); err != nil {
			writeError(w, "import", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if err := h.store.ImportBytes(r.Context(), data); err != nil {
		writeError(w, "import", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Snooze handles POST /api/meals/{mealID}/snooze. An empty body snoozes for
// the configured default.
func (h *Handler) Snooze(w http.ResponseWriter, r *http.Request) {
	var req SnoozeRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	if req.Minutes < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("minutes cannot be negative"))
		return
	}
	token, err := h.store.Snooze(r.Context(), chi.URLParam(r, "mealID"), req.Minutes, h.now())
	if err != nil {
		writeError(w, "snooze", err)
		return
	}
	if token == "" {
		writeJSON(w, http.StatusNotFound, errorBody("meal not found"))
		return
	}
	writeJSON(w, http.StatusCreated, SnoozeResponse{Token: token})
}

// ReminderAction handles POST /api/reminders/actions.
func (h *Handler) ReminderAction(w http.ResponseWriter, r *http.Request) {
	var req ReminderActionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Payload.MealID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("payload.mealId is required"))
		return
	}
	if err := h.store.HandleReminderAction(r.Context(), req.Action, req.Payload, h.now()); err != nil {
		writeError(w, "reminder action", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reconcile handles POST /api/reminders/reconcile.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ReconcileReminders(r.Context()); err != nil {
		writeError(w, "reconcile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
