// Package api exposes the schedule and assistant surface over HTTP (chi)
// and over MCP. All /v1 routes require a user bearer token.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jeiary/jeiary/internal/assistant"
	"github.com/jeiary/jeiary/internal/parser"
	"github.com/jeiary/jeiary/internal/schedule"
	"github.com/jeiary/jeiary/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// MessageProcessor is the orchestrator surface behind /v1/ai/chat.
type MessageProcessor interface {
	Process(ctx context.Context, userID, message string) (assistant.Reply, error)
}

// ScheduleParser is the standalone parse surface behind /v1/ai/parse.
type ScheduleParser interface {
	Parse(ctx context.Context, text string) (parser.Result, error)
}

// AppDeps holds the collaborators of the HTTP API.
type AppDeps struct {
	Store     *storage.Store
	Schedules *schedule.Service
	Assistant MessageProcessor
	Parser    ScheduleParser
}

// NewAppHandler returns the application router.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(TokenAuth(deps.Store))

		r.Post("/v1/schedules", handleCreateSchedule(deps))
		r.Get("/v1/schedules", handleListSchedules(deps))
		r.Get("/v1/schedules/{id}", handleGetSchedule(deps))
		r.Patch("/v1/schedules/{id}", handleUpdateSchedule(deps))
		r.Delete("/v1/schedules/{id}", handleDeleteSchedule(deps))

		r.Post("/v1/ai/chat", handleChat(deps))
		r.Post("/v1/ai/parse", handleParse(deps))

		r.Get("/v1/notifications", handleListNotifications(deps))
		r.Post("/v1/notifications/{id}/read", handleMarkNotificationRead(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid JSON body: %v", err)
		return false
	}
	return true
}
