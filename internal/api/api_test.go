package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeiary/jeiary/internal/assistant"
	"github.com/jeiary/jeiary/internal/parser"
	"github.com/jeiary/jeiary/internal/schedule"
	"github.com/jeiary/jeiary/internal/storage"
)

type fakeAssistant struct {
	reply assistant.Reply
	err   error

	gotUserID  string
	gotMessage string
}

func (f *fakeAssistant) Process(ctx context.Context, userID, message string) (assistant.Reply, error) {
	f.gotUserID = userID
	f.gotMessage = message
	return f.reply, f.err
}

type fakeParser struct {
	result parser.Result
	err    error
}

func (f *fakeParser) Parse(ctx context.Context, text string) (parser.Result, error) {
	return f.result, f.err
}

type testAPI struct {
	handler   http.Handler
	store     *storage.Store
	assistant *fakeAssistant
	parser    *fakeParser
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	err = store.CreateUser(storage.User{ID: "u1", Name: "test", Token: "tok-1", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("creating user: %v", err)
	}

	asst := &fakeAssistant{}
	prs := &fakeParser{}
	return &testAPI{
		handler: NewAppHandler(AppDeps{
			Store:     store,
			Schedules: schedule.NewService(store),
			Assistant: asst,
			Parser:    prs,
		}),
		store:     store,
		assistant: asst,
		parser:    prs,
	}
}

func (a *testAPI) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoAuthRequired(t *testing.T) {
	a := newTestAPI(t)
	rec := a.request(t, "GET", "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuth_MissingOrInvalidToken(t *testing.T) {
	a := newTestAPI(t)

	if rec := a.request(t, "GET", "/v1/schedules?date=2025-12-04", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}
	if rec := a.request(t, "GET", "/v1/schedules?date=2025-12-04", "wrong", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestScheduleCRUD(t *testing.T) {
	a := newTestAPI(t)

	// Create.
	rec := a.request(t, "POST", "/v1/schedules", "tok-1", map[string]string{
		"title": "dentist", "date": "2025-12-04",
		"start_time": "10:00", "end_time": "11:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created scheduleJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	if created.ID == "" || created.Title != "dentist" {
		t.Errorf("created = %+v", created)
	}

	// Read back.
	rec = a.request(t, "GET", "/v1/schedules/"+created.ID, "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}

	// List by date.
	rec = a.request(t, "GET", "/v1/schedules?date=2025-12-04", "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var list struct {
		Schedules []scheduleJSON `json:"schedules"`
	}
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Schedules) != 1 {
		t.Errorf("listed %d schedules, want 1", len(list.Schedules))
	}

	// List by month.
	rec = a.request(t, "GET", "/v1/schedules?year=2025&month=12", "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("month list: status = %d", rec.Code)
	}

	// Patch.
	rec = a.request(t, "PATCH", "/v1/schedules/"+created.ID, "tok-1", map[string]string{"title": "dentist appointment"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var patched scheduleJSON
	json.Unmarshal(rec.Body.Bytes(), &patched)
	if patched.Title != "dentist appointment" {
		t.Errorf("patched title = %q", patched.Title)
	}

	// Delete, then the read 404s.
	rec = a.request(t, "DELETE", "/v1/schedules/"+created.ID, "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = a.request(t, "GET", "/v1/schedules/"+created.ID, "tok-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", rec.Code)
	}
}

func TestCreateSchedule_ValidationIs400(t *testing.T) {
	a := newTestAPI(t)
	rec := a.request(t, "POST", "/v1/schedules", "tok-1", map[string]string{
		"title": "x", "date": "2025-12-04",
		"start_time": "14:00", "end_time": "13:00",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_request_error") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestListSchedules_RequiresFilter(t *testing.T) {
	a := newTestAPI(t)
	rec := a.request(t, "GET", "/v1/schedules", "tok-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChat_ForwardsUserAndMessage(t *testing.T) {
	a := newTestAPI(t)
	a.assistant.reply = assistant.Reply{Text: "Done!", Schedule: &storage.Schedule{ID: "s1", Title: "lunch"}}

	rec := a.request(t, "POST", "/v1/ai/chat", "tok-1", map[string]string{"message": "add lunch tomorrow"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if a.assistant.gotUserID != "u1" || a.assistant.gotMessage != "add lunch tomorrow" {
		t.Errorf("assistant got (%q, %q)", a.assistant.gotUserID, a.assistant.gotMessage)
	}

	var resp struct {
		Reply    string        `json:"reply"`
		Schedule *scheduleJSON `json:"schedule"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Reply != "Done!" || resp.Schedule == nil || resp.Schedule.ID != "s1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestChat_ConnectivityErrorIs503(t *testing.T) {
	a := newTestAPI(t)
	a.assistant.err = fmt.Errorf("%w: refused", assistant.ErrConnectivity)

	rec := a.request(t, "POST", "/v1/ai/chat", "tok-1", map[string]string{"message": "hi"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestChat_EmptyMessageIs400(t *testing.T) {
	a := newTestAPI(t)
	rec := a.request(t, "POST", "/v1/ai/chat", "tok-1", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestParse_Schedule(t *testing.T) {
	a := newTestAPI(t)
	a.parser.result = parser.Result{Schedule: &parser.ParsedSchedule{
		Title: "dinner", Date: "2025-12-04", StartTime: "19:00", EndTime: "20:00",
	}}

	rec := a.request(t, "POST", "/v1/ai/parse", "tok-1", map[string]string{"text": "dinner at 7"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Schedule      *parser.ParsedSchedule `json:"schedule"`
		Clarification string                 `json:"clarification"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Schedule == nil || resp.Schedule.Title != "dinner" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestParse_ClarificationIs200(t *testing.T) {
	a := newTestAPI(t)
	a.parser.result = parser.Result{Clarification: "What time?"}

	rec := a.request(t, "POST", "/v1/ai/parse", "tok-1", map[string]string{"text": "meet a friend"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "What time?") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestParse_ErrorMapping(t *testing.T) {
	a := newTestAPI(t)

	a.parser.err = fmt.Errorf("%w: refused", parser.ErrConnection)
	rec := a.request(t, "POST", "/v1/ai/parse", "tok-1", map[string]string{"text": "x"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("ErrConnection: status = %d, want 503", rec.Code)
	}

	a.parser.err = fmt.Errorf("%w: empty", parser.ErrMalformed)
	rec = a.request(t, "POST", "/v1/ai/parse", "tok-1", map[string]string{"text": "x"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("ErrMalformed: status = %d, want 502", rec.Code)
	}
}

func TestNotifications_ListAndMarkRead(t *testing.T) {
	a := newTestAPI(t)
	id, err := a.store.CreateNotification("u1", "morning_briefing", "Good morning!")
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	rec := a.request(t, "GET", "/v1/notifications", "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var list struct {
		Notifications []notificationJSON `json:"notifications"`
	}
	json.Unmarshal(rec.Body.Bytes(), &list)
	if len(list.Notifications) != 1 || list.Notifications[0].IsRead {
		t.Fatalf("list = %+v", list.Notifications)
	}

	rec = a.request(t, "POST", "/v1/notifications/"+id+"/read", "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: status = %d", rec.Code)
	}

	rec = a.request(t, "POST", "/v1/notifications/missing/read", "tok-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("mark missing: status = %d, want 404", rec.Code)
	}
}
