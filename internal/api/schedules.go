package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jeiary/jeiary/internal/schedule"
	"github.com/jeiary/jeiary/internal/storage"
)

type scheduleJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toScheduleJSON(sc storage.Schedule) scheduleJSON {
	return scheduleJSON{
		ID:        sc.ID,
		Title:     sc.Title,
		Date:      sc.Date,
		StartTime: sc.StartTime,
		EndTime:   sc.EndTime,
		Content:   sc.Content,
		CreatedAt: sc.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: sc.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toScheduleListJSON(scs []storage.Schedule) []scheduleJSON {
	out := make([]scheduleJSON, len(scs))
	for i, sc := range scs {
		out[i] = toScheduleJSON(sc)
	}
	return out
}

func handleCreateSchedule(deps AppDeps) http.HandlerFunc {
	type request struct {
		Title     string `json:"title"`
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Content   string `json:"content"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeBody(w, r, &req) {
			return
		}

		sc, err := deps.Schedules.Create(schedule.CreateInput{
			Title:     req.Title,
			Date:      req.Date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Content:   req.Content,
		}, requestUser(r).ID)
		if errors.Is(err, schedule.ErrInvalidInput) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "creating schedule: %v", err)
			return
		}

		writeJSON(w, http.StatusCreated, toScheduleJSON(sc))
	}
}

// handleListSchedules serves GET /v1/schedules. With ?date=YYYY-MM-DD it
// returns that day's schedules; with ?year=&month= the whole month.
func handleListSchedules(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := requestUser(r).ID
		q := r.URL.Query()

		var (
			schedules []storage.Schedule
			err       error
		)
		switch {
		case q.Get("date") != "":
			schedules, err = deps.Schedules.ByDate(userID, q.Get("date"))
		case q.Get("year") != "" && q.Get("month") != "":
			var year, month int
			if year, err = strconv.Atoi(q.Get("year")); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "year must be a number")
				return
			}
			if month, err = strconv.Atoi(q.Get("month")); err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "month must be a number")
				return
			}
			schedules, err = deps.Schedules.ByMonth(userID, year, month)
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "specify either ?date= or ?year=&month=")
			return
		}

		if errors.Is(err, schedule.ErrInvalidInput) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing schedules: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"schedules": toScheduleListJSON(schedules)})
	}
}

func handleGetSchedule(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sc, err := deps.Schedules.ByID(id, requestUser(r).ID)
		if errors.Is(err, schedule.ErrNotFound) {
			httpError(w, http.StatusNotFound, "invalid_request_error", "schedule %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading schedule: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleJSON(sc))
	}
}

func handleUpdateSchedule(deps AppDeps) http.HandlerFunc {
	type request struct {
		Title     *string `json:"title"`
		Date      *string `json:"date"`
		StartTime *string `json:"start_time"`
		EndTime   *string `json:"end_time"`
		Content   *string `json:"content"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req request
		if !decodeBody(w, r, &req) {
			return
		}

		sc, err := deps.Schedules.Update(id, schedule.UpdateInput{
			Title:     req.Title,
			Date:      req.Date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Content:   req.Content,
		}, requestUser(r).ID)
		if errors.Is(err, schedule.ErrNotFound) {
			httpError(w, http.StatusNotFound, "invalid_request_error", "schedule %s not found", id)
			return
		}
		if errors.Is(err, schedule.ErrInvalidInput) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "updating schedule: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleJSON(sc))
	}
}

func handleDeleteSchedule(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		err := deps.Schedules.Delete(id, requestUser(r).ID)
		if errors.Is(err, schedule.ErrNotFound) {
			httpError(w, http.StatusNotFound, "invalid_request_error", "schedule %s not found", id)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting schedule: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
	}
}
