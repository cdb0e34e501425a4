package intent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeiary/jeiary/internal/ollama"
)

// fakeToolChatter returns a canned result (or error) and captures the request.
type fakeToolChatter struct {
	result ollama.ChatResult
	err    error

	gotMessages []ollama.Message
	gotTools    []ollama.Tool
}

func (f *fakeToolChatter) ChatWithTools(ctx context.Context, model string, messages []ollama.Message, tools []ollama.Tool) (ollama.ChatResult, error) {
	f.gotMessages = messages
	f.gotTools = tools
	return f.result, f.err
}

func toolCall(name, args string) ollama.ToolCall {
	return ollama.ToolCall{Function: ollama.ToolCallFunction{
		Name:      name,
		Arguments: json.RawMessage(args),
	}}
}

func TestRoute_CreateSchedule(t *testing.T) {
	fake := &fakeToolChatter{result: ollama.ChatResult{ToolCalls: []ollama.ToolCall{
		toolCall("CreateSchedule", `{"title":"lunch with Sam","date":"2025-12-26","start_time":"12:00","end_time":"13:00"}`),
	}}}
	r := NewRouter(fake, "llama3.1:8b")

	it := r.Route(context.Background(), "book lunch with Sam tomorrow")
	if it.Kind != KindCreateSchedule {
		t.Fatalf("Kind = %v, want KindCreateSchedule", it.Kind)
	}
	if it.Create == nil || it.Create.Title != "lunch with Sam" || it.Create.Date != "2025-12-26" {
		t.Errorf("Create args = %+v", it.Create)
	}
	if it.Update != nil || it.Delete != nil {
		t.Error("non-matching intent fields must stay nil")
	}
}

func TestRoute_DeleteSchedule(t *testing.T) {
	fake := &fakeToolChatter{result: ollama.ChatResult{ToolCalls: []ollama.ToolCall{
		toolCall("DeleteSchedule", `{"search_keyword":"meeting","date":"2025-12-27"}`),
	}}}
	r := NewRouter(fake, "llama3.1:8b")

	it := r.Route(context.Background(), "cancel the meeting this Saturday")
	if it.Kind != KindDeleteSchedule {
		t.Fatalf("Kind = %v, want KindDeleteSchedule", it.Kind)
	}
	if it.Delete == nil || it.Delete.SearchKeyword != "meeting" {
		t.Errorf("Delete args = %+v", it.Delete)
	}
}

func TestRoute_NoToolCallIsGeneralChat(t *testing.T) {
	fake := &fakeToolChatter{result: ollama.ChatResult{Content: "Doing great!"}}
	r := NewRouter(fake, "llama3.1:8b")

	it := r.Route(context.Background(), "hey, how are you?")
	if it.Kind != KindGeneralChat {
		t.Errorf("Kind = %v, want KindGeneralChat", it.Kind)
	}
}

func TestRoute_ChatErrorFallsBackToGeneralChat(t *testing.T) {
	fake := &fakeToolChatter{err: errors.New("connection refused")}
	r := NewRouter(fake, "llama3.1:8b")

	it := r.Route(context.Background(), "add a meeting tomorrow")
	if it.Kind != KindGeneralChat {
		t.Errorf("Kind = %v, want KindGeneralChat on chat error", it.Kind)
	}
}

func TestRoute_MalformedArgumentsFallBack(t *testing.T) {
	fake := &fakeToolChatter{result: ollama.ChatResult{ToolCalls: []ollama.ToolCall{
		toolCall("CreateSchedule", `{"title": 42`),
	}}}
	r := NewRouter(fake, "llama3.1:8b")

	it := r.Route(context.Background(), "add a meeting tomorrow")
	if it.Kind != KindGeneralChat {
		t.Errorf("Kind = %v, want KindGeneralChat on malformed arguments", it.Kind)
	}
}

func TestRoute_UnknownToolFallsBack(t *testing.T) {
	fake := &fakeToolChatter{result: ollama.ChatResult{ToolCalls: []ollama.ToolCall{
		toolCall("LaunchRocket", `{}`),
	}}}
	r := NewRouter(fake, "llama3.1:8b")

	it := r.Route(context.Background(), "launch the rocket")
	if it.Kind != KindGeneralChat {
		t.Errorf("Kind = %v, want KindGeneralChat on unknown tool", it.Kind)
	}
}

func TestRoute_OnlyFirstToolCallCounts(t *testing.T) {
	fake := &fakeToolChatter{result: ollama.ChatResult{ToolCalls: []ollama.ToolCall{
		toolCall("DeleteSchedule", `{"search_keyword":"meeting","date":"2025-12-27"}`),
		toolCall("CreateSchedule", `{"title":"x","date":"2025-12-27","start_time":"10:00","end_time":"11:00"}`),
	}}}
	r := NewRouter(fake, "llama3.1:8b")

	it := r.Route(context.Background(), "replace my meeting")
	if it.Kind != KindDeleteSchedule {
		t.Errorf("Kind = %v, want the first call (KindDeleteSchedule)", it.Kind)
	}
}

func TestRoute_SystemPromptCarriesCurrentTime(t *testing.T) {
	fake := &fakeToolChatter{result: ollama.ChatResult{}}
	r := NewRouter(fake, "llama3.1:8b")
	r.now = func() time.Time {
		return time.Date(2025, 12, 25, 13, 16, 0, 0, time.UTC)
	}

	r.Route(context.Background(), "hello")

	if len(fake.gotMessages) != 2 || fake.gotMessages[0].Role != "system" {
		t.Fatalf("messages = %v, want [system, user]", fake.gotMessages)
	}
	if !strings.Contains(fake.gotMessages[0].Content, "2025-12-25 (Thursday) 13:16") {
		t.Errorf("system prompt missing current time:\n%s", fake.gotMessages[0].Content)
	}
	if len(fake.gotTools) != 4 {
		t.Errorf("offered %d tools, want 4", len(fake.gotTools))
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindGeneralChat:    "general_chat",
		KindCreateSchedule: "create_schedule",
		KindUpdateSchedule: "update_schedule",
		KindDeleteSchedule: "delete_schedule",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}
