// Package assistant ties the intent router, the entity resolver, the
// schedule service, and the chat agent into one request/response cycle.
// Every branch ends in either a structured result or a plain-language reply;
// the only error that crosses this boundary is the model being unreachable.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jeiary/jeiary/internal/intent"
	"github.com/jeiary/jeiary/internal/schedule"
	"github.com/jeiary/jeiary/internal/storage"
)

// ErrConnectivity is returned when the conversational model cannot be
// reached. Callers map it to a retry-later signal.
var ErrConnectivity = errors.New("assistant unavailable")

// Reply is the outcome of one processed message. Schedule is set on the
// create path; Text is always set.
type Reply struct {
	Text     string
	Schedule *storage.Schedule
}

// IntentRouter classifies a message into an intent.
type IntentRouter interface {
	Route(ctx context.Context, message string) intent.Intent
}

// TargetResolver narrows update/delete targets to at most one schedule.
type TargetResolver interface {
	Resolve(userID, keyword, date string) *storage.Schedule
}

// Schedules is the mutation surface of the schedule service.
type Schedules interface {
	Create(in schedule.CreateInput, userID string) (storage.Schedule, error)
	Update(id string, in schedule.UpdateInput, userID string) (storage.Schedule, error)
	Delete(id, userID string) error
}

// ChatAgent produces conversational replies.
type ChatAgent interface {
	Reply(ctx context.Context, userID, message string) (string, error)
}

// Assistant orchestrates one chat message end to end.
type Assistant struct {
	router    IntentRouter
	resolver  TargetResolver
	schedules Schedules
	agent     ChatAgent
	logger    *slog.Logger
}

// New creates an Assistant from its collaborators.
func New(router IntentRouter, resolver TargetResolver, schedules Schedules, agent ChatAgent) *Assistant {
	return &Assistant{
		router:    router,
		resolver:  resolver,
		schedules: schedules,
		agent:     agent,
		logger:    slog.Default(),
	}
}

// Process routes the message and executes the resulting intent. Collaborator
// failures on the mutation paths become user-facing text; only a failed chat
// completion on the conversational path returns an error, wrapped in
// ErrConnectivity.
func (a *Assistant) Process(ctx context.Context, userID, message string) (Reply, error) {
	it := a.router.Route(ctx, message)
	a.logger.Debug("processing message", "user_id", userID, "kind", it.Kind.String())

	switch it.Kind {
	case intent.KindCreateSchedule:
		return a.create(userID, it.Create), nil
	case intent.KindUpdateSchedule:
		return a.update(userID, it.Update), nil
	case intent.KindDeleteSchedule:
		return a.delete(userID, it.Delete), nil
	default:
		return a.chat(ctx, userID, message)
	}
}

func (a *Assistant) create(userID string, args *intent.CreateArgs) Reply {
	sc, err := a.schedules.Create(schedule.CreateInput{
		Title:     args.Title,
		Date:      args.Date,
		StartTime: args.StartTime,
		EndTime:   args.EndTime,
		Content:   args.Content,
	}, userID)
	if errors.Is(err, schedule.ErrInvalidInput) {
		return Reply{Text: "The date or time didn't look right (I need YYYY-MM-DD and HH:MM). Could you say that again?"}
	}
	if err != nil {
		a.logger.Error("schedule creation failed", "user_id", userID, "error", err)
		return Reply{Text: fmt.Sprintf("Something went wrong while saving the schedule: %v", err)}
	}

	return Reply{
		Text:     fmt.Sprintf("Done! I've added %q on %s from %s to %s.", sc.Title, sc.Date, sc.StartTime, sc.EndTime),
		Schedule: &sc,
	}
}

func (a *Assistant) update(userID string, args *intent.UpdateArgs) Reply {
	target := a.resolver.Resolve(userID, args.SearchKeyword, args.Date)
	if target == nil {
		return Reply{Text: "I couldn't pin down which schedule to change. Could you give me the exact date and a keyword from its title?"}
	}

	// args.Date both locates the schedule and stays its date after the patch.
	in := schedule.UpdateInput{
		Title:     optional(args.Title),
		Date:      optional(args.Date),
		StartTime: optional(args.StartTime),
		EndTime:   optional(args.EndTime),
		Content:   optional(args.Content),
	}
	updated, err := a.schedules.Update(target.ID, in, userID)
	if errors.Is(err, schedule.ErrInvalidInput) {
		return Reply{Text: "The new time didn't look right (I need HH:MM, and the end after the start). Could you say that again?"}
	}
	if err != nil {
		a.logger.Error("schedule update failed", "user_id", userID, "schedule_id", target.ID, "error", err)
		return Reply{Text: fmt.Sprintf("Something went wrong while updating the schedule: %v", err)}
	}

	return Reply{Text: fmt.Sprintf("Updated %q.", updated.Title)}
}

func (a *Assistant) delete(userID string, args *intent.DeleteArgs) Reply {
	target := a.resolver.Resolve(userID, args.SearchKeyword, args.Date)
	if target == nil {
		return Reply{Text: "I couldn't pin down which schedule to cancel. Could you give me the exact date and a keyword from its title?"}
	}

	if err := a.schedules.Delete(target.ID, userID); err != nil {
		a.logger.Error("schedule delete failed", "user_id", userID, "schedule_id", target.ID, "error", err)
		return Reply{Text: fmt.Sprintf("Something went wrong while cancelling the schedule: %v", err)}
	}

	return Reply{Text: fmt.Sprintf("Cancelled %q.", target.Title)}
}

func (a *Assistant) chat(ctx context.Context, userID, message string) (Reply, error) {
	text, err := a.agent.Reply(ctx, userID, message)
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrConnectivity, err)
	}
	return Reply{Text: text}, nil
}

// optional maps an empty routed field to "leave unchanged".
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
