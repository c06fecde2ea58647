package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/auth"
	"github.com/sakif/mindspace/internal/model"
	"github.com/sakif/mindspace/internal/service"
)

// MoodHandler serves /api/moods. Every route sits behind auth.RequireOwner,
// so the owner always comes from the token, never from the request body.
type MoodHandler struct {
	moods    *service.MoodService
	trends   *service.TrendService
	stats    *service.StatsService
	insights *service.InsightService
}

func NewMoodHandler(moods *service.MoodService, trends *service.TrendService, stats *service.StatsService, insights *service.InsightService) *MoodHandler {
	return &MoodHandler{moods: moods, trends: trends, stats: stats, insights: insights}
}

type createMoodRequest struct {
	Mood      string  `json:"mood"`
	Intensity int     `json:"intensity"`
	Notes     *string `json:"notes"`
}

type updateMoodRequest struct {
	Mood      *string `json:"mood"`
	Intensity *int    `json:"intensity"`
	Notes     *string `json:"notes"`
}

// HandleCreate logs today's mood.
//
// HTTP: POST /api/moods
// REQUEST BODY: {"mood": "good", "intensity": 7, "notes": "optional"}
//
// 201 when a new entry was created, 200 when today's entry was updated.
func (h *MoodHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req createMoodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	entry, created, err := h.moods.Create(r.Context(), owner, req.Mood, req.Intensity, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, entry)
}

// HandleList returns a page of entries.
//
// HTTP: GET /api/moods?limit=20&page=1
func (h *MoodHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.moods.List(r.Context(), owner, limit, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// HandleUpdate patches one entry. Only fields present in the body change.
//
// HTTP: PUT /api/moods/{id}
func (h *MoodHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req updateMoodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.moods.Update(r.Context(), chi.URLParam(r, "id"), owner, service.MoodPatch{
		Mood:      req.Mood,
		Intensity: req.Intensity,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entry)
}

// HandleDelete soft-deletes one entry.
//
// HTTP: DELETE /api/moods/{id}
func (h *MoodHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.moods.Delete(r.Context(), chi.URLParam(r, "id"), owner); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTrend returns one point per day, oldest first.
//
// HTTP: GET /api/moods/trend?days=7
func (h *MoodHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	days, err := queryInt(r, "days", service.DefaultTrendDays)
	if err != nil {
		writeError(w, r, err)
		return
	}

	trend, err := h.trends.Trend(r.Context(), owner, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, trend)
}

// HandleStats summarises a rolling window.
//
// HTTP: GET /api/moods/stats?period=week|month|year
func (h *MoodHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	period, err := model.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, r, apperror.ValidationFailed("period", "period must be one of week, month, year"))
		return
	}

	stats, err := h.stats.Stats(r.Context(), owner, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// HandleInsight returns a short reflection on the past week.
//
// HTTP: GET /api/moods/insight
func (h *MoodHandler) HandleInsight(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	reflection, err := h.insights.Reflect(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reflection)
}

func requireOwner(w http.ResponseWriter, r *http.Request) (model.Owner, bool) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, r, apperror.Unauthorized("valid authentication required"))
	}
	return owner, ok
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(name, name+" must be an integer")
	}
	return n, nil
}
