package api

import (
	"errors"
	"net/http"

	"github.com/jeiary/jeiary/internal/assistant"
	"github.com/jeiary/jeiary/internal/parser"
)

// handleChat serves POST /v1/ai/chat: one natural-language turn through the
// assistant. Model connectivity problems map to 503 so clients can retry.
func handleChat(deps AppDeps) http.HandlerFunc {
	type request struct {
		Message string `json:"message"`
	}
	type response struct {
		Reply    string        `json:"reply"`
		Schedule *scheduleJSON `json:"schedule,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Message == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message is required")
			return
		}

		reply, err := deps.Assistant.Process(r.Context(), requestUser(r).ID, req.Message)
		if errors.Is(err, assistant.ErrConnectivity) {
			httpError(w, http.StatusServiceUnavailable, "api_error", "assistant unavailable: %v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "processing message: %v", err)
			return
		}

		resp := response{Reply: reply.Text}
		if reply.Schedule != nil {
			sc := toScheduleJSON(*reply.Schedule)
			resp.Schedule = &sc
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleParse serves POST /v1/ai/parse: structured extraction without any
// side effects. A clarification is a 200 (the model answered, the text was
// just not parseable into a schedule); ErrConnection is 503 and ErrMalformed
// is 502 because both mean the backend, not the caller, misbehaved.
func handleParse(deps AppDeps) http.HandlerFunc {
	type request struct {
		Text string `json:"text"`
	}
	type response struct {
		Schedule      *parser.ParsedSchedule `json:"schedule,omitempty"`
		Clarification string                 `json:"clarification,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Text == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "text is required")
			return
		}

		result, err := deps.Parser.Parse(r.Context(), req.Text)
		if errors.Is(err, parser.ErrConnection) {
			httpError(w, http.StatusServiceUnavailable, "api_error", "model unreachable: %v", err)
			return
		}
		if errors.Is(err, parser.ErrMalformed) {
			httpError(w, http.StatusBadGateway, "api_error", "model returned an unusable response: %v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "parsing text: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, response{
			Schedule:      result.Schedule,
			Clarification: result.Clarification,
		})
	}
}
