// Package parser turns one natural-language sentence into a structured
// schedule, or into a clarifying question when the text doesn't carry enough
// information. It is the standalone "parse and confirm" path; the chat
// orchestrator routes through intent instead.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jeiary/jeiary/internal/ollama"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

// ErrConnection is returned when the model stays unreachable after all retry
// attempts. Callers map it to a retry-later signal.
var ErrConnection = errors.New("ai service unreachable")

// ErrMalformed is returned when the model responded but the response
// envelope is unusable. Callers map it to a fix-your-input signal.
var ErrMalformed = errors.New("ai response malformed")

// ParsedSchedule is the structured extraction result.
type ParsedSchedule struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Content   string `json:"content"`
}

// Result is either a parsed schedule or a clarifying question for the user;
// exactly one of the two is set.
type Result struct {
	Schedule      *ParsedSchedule
	Clarification string
}

// Chatter is the plain-completion surface of the Ollama client.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message) (string, error)
}

// Parser extracts schedules from free text.
type Parser struct {
	client Chatter
	model  string
	logger *slog.Logger
	now    func() time.Time
	delay  time.Duration
}

// New creates a Parser using the given client and model name.
func New(client Chatter, model string) *Parser {
	return &Parser{
		client: client,
		model:  model,
		logger: slog.Default(),
		now:    time.Now,
		delay:  retryDelay,
	}
}

const systemPromptTemplate = `You are a schedule management assistant. Analyze the user's input and either extract exact JSON data or ask a question when information is missing.

# [1] Date reference (map relative dates using this table, never compute dates yourself)
%s

# [2] Rules
1. Title: put the user's activity (meal, meeting, doctor, workout...) into "title". Never leave it null.
2. End time: when the user didn't give one, set it to start time plus one hour.
3. AM/PM: "at 7" alone is ambiguous — use context (dinner/drinks -> 19:00, breakfast/school -> 07:00). Ask when unsure.

# [3] Examples

Input: "dinner with family today at 7"
Output:
{
  "date": "%s",
  "start_time": "19:00",
  "end_time": "20:00",
  "title": "dinner with family",
  "content": null
}

Input: "meet a friend tomorrow"
Output: What time are you meeting?

# [4] Respond with JSON or a single question only.`

// Parse extracts a schedule from text. The returned Result carries either
// the schedule or a clarifying question; ErrConnection and ErrMalformed are
// the only error conditions.
func (p *Parser) Parse(ctx context.Context, text string) (Result, error) {
	now := p.now()
	prompt := fmt.Sprintf(systemPromptTemplate, DateTable(now), now.Format(dateLayout))

	content, err := p.chatWithRetry(ctx, []ollama.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if strings.TrimSpace(content) == "" {
		return Result{}, fmt.Errorf("%w: empty completion", ErrMalformed)
	}

	block := jsonBlock(content)
	if block == "" {
		// No JSON at all: the model asked a question instead.
		return Result{Clarification: strings.TrimSpace(content)}, nil
	}

	var parsed ParsedSchedule
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		p.logger.Debug("schedule block is not valid JSON, treating as clarification", "error", err)
		return Result{Clarification: strings.TrimSpace(content)}, nil
	}
	if err := parsed.validate(); err != nil {
		p.logger.Debug("schedule block failed validation, treating as clarification", "error", err)
		return Result{Clarification: strings.TrimSpace(content)}, nil
	}

	return Result{Schedule: &parsed}, nil
}

// chatWithRetry wraps only the network call in a bounded fixed-delay retry.
func (p *Parser) chatWithRetry(ctx context.Context, messages []ollama.Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		content, err := p.client.Chat(ctx, p.model, messages)
		if err == nil {
			return content, nil
		}
		lastErr = err
		p.logger.Warn("parse chat attempt failed", "attempt", attempt, "error", err)

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.delay):
		}
	}
	return "", fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

// DateTable renders the rolling 8-day reference table (today through +7)
// used in the system prompt, so the model maps relative expressions without
// doing calendar arithmetic.
func DateTable(now time.Time) string {
	var b strings.Builder
	for i := 0; i < 8; i++ {
		day := now.AddDate(0, 0, i)
		weekday := day.Weekday().String()
		date := day.Format(dateLayout)

		switch {
		case i == 0:
			fmt.Fprintf(&b, "- today (%s): %s\n", weekday, date)
		case i == 1:
			fmt.Fprintf(&b, "- tomorrow (%s): %s\n", weekday, date)
		case i == 2:
			fmt.Fprintf(&b, "- day after tomorrow (%s): %s\n", weekday, date)
		case i < 7:
			fmt.Fprintf(&b, "- this %s: %s\n", weekday, date)
		default:
			fmt.Fprintf(&b, "- next %s: %s\n", weekday, date)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// jsonBlock returns the outermost {...} span of s, or "" when none exists.
// Matches from the first opening brace to the last closing brace, mirroring
// a greedy dot-all match, so nested objects stay intact.
func jsonBlock(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		return ""
	}
	return s[start : end+1]
}

func (ps *ParsedSchedule) validate() error {
	if strings.TrimSpace(ps.Title) == "" {
		return errors.New("missing title")
	}
	if _, err := time.Parse(dateLayout, ps.Date); err != nil {
		return fmt.Errorf("bad date %q", ps.Date)
	}
	start, err := time.Parse(timeLayout, ps.StartTime)
	if err != nil {
		return fmt.Errorf("bad start time %q", ps.StartTime)
	}
	end, err := time.Parse(timeLayout, ps.EndTime)
	if err != nil {
		return fmt.Errorf("bad end time %q", ps.EndTime)
	}
	if !end.After(start) {
		return fmt.Errorf("end %s not after start %s", ps.EndTime, ps.StartTime)
	}
	return nil
}
