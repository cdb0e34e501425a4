// Package intent classifies a free-text message into a schedule intent via a
// single tool-calling inference. Anything the model cannot express as a
// well-formed tool call degrades to general chat; routing never fails a
// request.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jeiary/jeiary/internal/ollama"
)

// Kind identifies the routed intent.
type Kind int

const (
	KindGeneralChat Kind = iota
	KindCreateSchedule
	KindUpdateSchedule
	KindDeleteSchedule
)

func (k Kind) String() string {
	switch k {
	case KindCreateSchedule:
		return "create_schedule"
	case KindUpdateSchedule:
		return "update_schedule"
	case KindDeleteSchedule:
		return "delete_schedule"
	default:
		return "general_chat"
	}
}

// CreateArgs are the arguments of a create intent. Date and times keep their
// wire format (YYYY-MM-DD, HH:MM); semantic validation happens at the
// schedule service.
type CreateArgs struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Content   string `json:"content"`
}

// UpdateArgs are the arguments of an update intent. Empty strings mean the
// field was not mentioned.
type UpdateArgs struct {
	SearchKeyword string `json:"search_keyword"`
	Date          string `json:"date"`
	Title         string `json:"title"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Content       string `json:"content"`
}

// DeleteArgs are the arguments of a delete intent.
type DeleteArgs struct {
	SearchKeyword string `json:"search_keyword"`
	Date          string `json:"date"`
}

// Intent is the closed result of routing one message. Exactly the field
// matching Kind is non-nil; KindGeneralChat carries no arguments.
type Intent struct {
	Kind   Kind
	Create *CreateArgs
	Update *UpdateArgs
	Delete *DeleteArgs
}

// ToolChatter is the tool-calling chat surface of the Ollama client.
type ToolChatter interface {
	ChatWithTools(ctx context.Context, model string, messages []ollama.Message, tools []ollama.Tool) (ollama.ChatResult, error)
}

// Router decides whether a message is a schedule mutation or plain chat.
type Router struct {
	client ToolChatter
	model  string
	logger *slog.Logger
	now    func() time.Time
}

// NewRouter creates a Router using the given client and model name.
func NewRouter(client ToolChatter, model string) *Router {
	return &Router{
		client: client,
		model:  model,
		logger: slog.Default(),
		now:    time.Now,
	}
}

const routerSystemPrompt = `You are a router that decides whether the user wants to manage their calendar.

[Current time]
%s
(When the user says "today", "tomorrow", "this Sunday" and so on, compute the exact date from the reference above and put it in the tool's date argument.)

[Rules]
1. Call CreateSchedule, UpdateSchedule, or DeleteSchedule only when the user clearly asks to create, change, or cancel a schedule.
2. Never call a schedule tool for greetings, weather, small talk, or questions unrelated to schedules — use GeneralChat for those.
3. Call at most one tool per message.
4. Dates must be YYYY-MM-DD and times must be 24-hour HH:MM.

[Examples, assuming current time 2025-12-25 (Thursday) 13:16]
User: "book lunch with Sam tomorrow" -> CreateSchedule(title="lunch with Sam", date="2025-12-26", start_time="12:00", end_time="13:00")
User: "add a workout today at 7pm" -> CreateSchedule(title="workout", date="2025-12-25", start_time="19:00", end_time="20:00")
User: "cancel the meeting this Saturday" -> DeleteSchedule(search_keyword="meeting", date="2025-12-27")
User: "hey, how are you?" -> GeneralChat(response="Doing great! How can I help?")`

// Route classifies message into an Intent. A model failure, an unknown tool
// name, or malformed arguments all fall back to KindGeneralChat.
func (r *Router) Route(ctx context.Context, message string) Intent {
	now := r.now()
	system := fmt.Sprintf(routerSystemPrompt, now.Format("2006-01-02 (Monday) 15:04"))

	result, err := r.client.ChatWithTools(ctx, r.model, []ollama.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: message},
	}, toolSchemas())
	if err != nil {
		r.logger.Warn("intent routing chat failed", "error", err)
		return Intent{Kind: KindGeneralChat}
	}

	if len(result.ToolCalls) == 0 {
		return Intent{Kind: KindGeneralChat}
	}

	// The model is instructed to pick at most one tool; ignore any extras.
	call := result.ToolCalls[0]
	intent, err := coerce(call)
	if err != nil {
		r.logger.Warn("discarding malformed tool call", "tool", call.Function.Name, "error", err)
		return Intent{Kind: KindGeneralChat}
	}

	r.logger.Debug("message routed", "kind", intent.Kind.String())
	return intent
}

// coerce validates a raw tool call into the typed Intent union.
func coerce(call ollama.ToolCall) (Intent, error) {
	args := call.Function.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch call.Function.Name {
	case toolCreateSchedule:
		var a CreateArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return Intent{}, fmt.Errorf("decoding create arguments: %w", err)
		}
		return Intent{Kind: KindCreateSchedule, Create: &a}, nil

	case toolUpdateSchedule:
		var a UpdateArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return Intent{}, fmt.Errorf("decoding update arguments: %w", err)
		}
		return Intent{Kind: KindUpdateSchedule, Update: &a}, nil

	case toolDeleteSchedule:
		var a DeleteArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return Intent{}, fmt.Errorf("decoding delete arguments: %w", err)
		}
		return Intent{Kind: KindDeleteSchedule, Delete: &a}, nil

	case toolGeneralChat:
		return Intent{Kind: KindGeneralChat}, nil

	default:
		return Intent{}, fmt.Errorf("unknown tool %q", call.Function.Name)
	}
}
