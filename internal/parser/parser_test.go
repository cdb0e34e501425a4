package parser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeiary/jeiary/internal/ollama"
)

// scriptedChatter returns queued responses in order; a nil entry means error.
type scriptedChatter struct {
	replies []string
	errs    []error
	calls   int
	got     []ollama.Message
}

func (s *scriptedChatter) Chat(ctx context.Context, model string, messages []ollama.Message) (string, error) {
	i := s.calls
	s.calls++
	s.got = messages
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.replies) {
		return s.replies[i], nil
	}
	return "", errors.New("no scripted reply")
}

func newTestParser(chatter Chatter) *Parser {
	p := New(chatter, "llama3.1:8b")
	p.delay = 0 // no sleeping in tests
	p.now = func() time.Time {
		return time.Date(2025, 12, 4, 9, 0, 0, 0, time.UTC)
	}
	return p
}

func TestParse_ValidJSON(t *testing.T) {
	chatter := &scriptedChatter{replies: []string{`Here is the schedule:
{"title":"dinner with family","date":"2025-12-04","start_time":"19:00","end_time":"20:00","content":""}`}}
	p := newTestParser(chatter)

	result, err := p.Parse(context.Background(), "dinner with family today at 7")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Schedule == nil {
		t.Fatalf("Schedule = nil, clarification = %q", result.Clarification)
	}
	if result.Schedule.Title != "dinner with family" || result.Schedule.StartTime != "19:00" {
		t.Errorf("parsed = %+v", result.Schedule)
	}
	if result.Clarification != "" {
		t.Errorf("clarification set alongside schedule: %q", result.Clarification)
	}
}

func TestParse_QuestionBecomesClarification(t *testing.T) {
	chatter := &scriptedChatter{replies: []string{"What time are you meeting?"}}
	p := newTestParser(chatter)

	result, err := p.Parse(context.Background(), "meet a friend tomorrow")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Schedule != nil {
		t.Errorf("Schedule = %+v, want nil", result.Schedule)
	}
	if result.Clarification != "What time are you meeting?" {
		t.Errorf("clarification = %q", result.Clarification)
	}
}

func TestParse_InvalidJSONBecomesClarification(t *testing.T) {
	chatter := &scriptedChatter{replies: []string{`{"title": "broken`}}
	p := newTestParser(chatter)

	result, err := p.Parse(context.Background(), "something")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Schedule != nil || result.Clarification == "" {
		t.Errorf("result = %+v, want clarification", result)
	}
}

func TestParse_ValidationFailureBecomesClarification(t *testing.T) {
	// Well-formed JSON, but the end is not after the start.
	chatter := &scriptedChatter{replies: []string{
		`{"title":"mtg","date":"2025-12-04","start_time":"14:00","end_time":"13:00","content":""}`,
	}}
	p := newTestParser(chatter)

	result, err := p.Parse(context.Background(), "meeting 2pm to 1pm")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.Schedule != nil || result.Clarification == "" {
		t.Errorf("result = %+v, want clarification", result)
	}
}

func TestParse_EmptyCompletionIsMalformed(t *testing.T) {
	chatter := &scriptedChatter{replies: []string{"   "}}
	p := newTestParser(chatter)

	_, err := p.Parse(context.Background(), "something")
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

func TestParse_RetriesThenSucceeds(t *testing.T) {
	chatter := &scriptedChatter{
		errs:    []error{errors.New("refused"), errors.New("refused"), nil},
		replies: []string{"", "", "What time?"},
	}
	p := newTestParser(chatter)

	result, err := p.Parse(context.Background(), "something")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if chatter.calls != 3 {
		t.Errorf("made %d calls, want 3", chatter.calls)
	}
	if result.Clarification != "What time?" {
		t.Errorf("clarification = %q", result.Clarification)
	}
}

func TestParse_AllAttemptsFailIsConnectionError(t *testing.T) {
	chatter := &scriptedChatter{errs: []error{
		errors.New("refused"), errors.New("refused"), errors.New("refused"),
	}}
	p := newTestParser(chatter)

	_, err := p.Parse(context.Background(), "something")
	if !errors.Is(err, ErrConnection) {
		t.Errorf("error = %v, want ErrConnection", err)
	}
	if chatter.calls != maxAttempts {
		t.Errorf("made %d calls, want %d", chatter.calls, maxAttempts)
	}
}

func TestParse_SystemPromptCarriesDateTable(t *testing.T) {
	chatter := &scriptedChatter{replies: []string{"What time?"}}
	p := newTestParser(chatter)

	if _, err := p.Parse(context.Background(), "something"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(chatter.got) != 2 || chatter.got[0].Role != "system" {
		t.Fatalf("messages = %v", chatter.got)
	}
	prompt := chatter.got[0].Content
	if !strings.Contains(prompt, "- today (Thursday): 2025-12-04") {
		t.Errorf("prompt missing today row:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"date": "2025-12-04"`) {
		t.Errorf("prompt example not pinned to today:\n%s", prompt)
	}
}

func TestDateTable(t *testing.T) {
	// Thursday 2025-12-04: +3 lands on Sunday inside the same week.
	now := time.Date(2025, 12, 4, 9, 0, 0, 0, time.UTC)
	table := DateTable(now)

	wantLines := []string{
		"- today (Thursday): 2025-12-04",
		"- tomorrow (Friday): 2025-12-05",
		"- day after tomorrow (Saturday): 2025-12-06",
		"- this Sunday: 2025-12-07",
		"- this Monday: 2025-12-08",
		"- this Tuesday: 2025-12-09",
		"- this Wednesday: 2025-12-10",
		"- next Thursday: 2025-12-11",
	}
	got := strings.Split(table, "\n")
	if len(got) != len(wantLines) {
		t.Fatalf("table has %d lines, want %d:\n%s", len(got), len(wantLines), table)
	}
	for i, want := range wantLines {
		if got[i] != want {
			t.Errorf("line %d = %q, want %q", i, got[i], want)
		}
	}
}

func TestJSONBlock(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"prefix {\"a\":{\"b\":2}} suffix", `{"a":{"b":2}}`},
		{"no braces here", ""},
		{"} reversed {", ""},
	}
	for _, tc := range cases {
		if got := jsonBlock(tc.in); got != tc.want {
			t.Errorf("jsonBlock(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
