// Package briefing implements the morning-briefing job: each user's
// schedules for the day are summarized by the model and stored as a
// notification they see when they open the app.
package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jeiary/jeiary/internal/ollama"
	"github.com/jeiary/jeiary/internal/storage"
)

// NotificationType tags briefing notifications in storage.
const NotificationType = "morning_briefing"

// Store is the persistence surface the briefing needs.
type Store interface {
	Users() ([]storage.User, error)
	SchedulesByOwnerAndDate(userID, date string) ([]storage.Schedule, error)
	CreateNotification(userID, notifType, content string) (string, error)
}

// Chatter is the plain-completion surface of the Ollama client.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ollama.Message) (string, error)
}

// Service generates and stores daily briefings.
type Service struct {
	store  Store
	client Chatter
	model  string
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a briefing Service.
func NewService(store Store, client Chatter, model string) *Service {
	return &Service{
		store:  store,
		client: client,
		model:  model,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// Run creates today's briefing for every user and reports the fan-out
// counts. It is the morning_briefing job logic; one user failing does not
// stop the rest.
func (s *Service) Run(ctx context.Context) (string, error) {
	users, err := s.store.Users()
	if err != nil {
		return "", fmt.Errorf("listing users: %w", err)
	}

	var success, failed int
	for _, u := range users {
		if err := s.CreateDailyBriefing(ctx, u.ID); err != nil {
			s.logger.Error("briefing failed", "user_id", u.ID, "error", err)
			failed++
			continue
		}
		success++
	}

	return fmt.Sprintf("Total Users: %d, Success: %d, Failed: %d", len(users), success, failed), nil
}

// CreateDailyBriefing summarizes today's schedules for the user and stores
// the text as a notification. A model failure degrades to a plain listing;
// only storage failures propagate.
func (s *Service) CreateDailyBriefing(ctx context.Context, userID string) error {
	today := s.now().Format("2006-01-02")
	schedules, err := s.store.SchedulesByOwnerAndDate(userID, today)
	if err != nil {
		return fmt.Errorf("loading today's schedules: %w", err)
	}

	content := s.generate(ctx, schedules)
	if _, err := s.store.CreateNotification(userID, NotificationType, content); err != nil {
		return fmt.Errorf("saving briefing notification: %w", err)
	}

	s.logger.Info("briefing created", "user_id", userID, "schedules", len(schedules))
	return nil
}

const briefingPrompt = `You are a warm personal assistant. Below are the user's schedules for today.
Write a short morning briefing that helps them start the day well.

[Today's schedules]
%s

[Rules]
1. Mention the schedules in time order.
2. Keep the tone polite and upbeat.
3. Close with a short word of encouragement.
4. Keep it to three to five sentences.`

func (s *Service) generate(ctx context.Context, schedules []storage.Schedule) string {
	if len(schedules) == 0 {
		return "No schedules today. Have a relaxing day!"
	}

	listing := formatListing(schedules)
	reply, err := s.client.Chat(ctx, s.model, []ollama.Message{
		{Role: "user", Content: fmt.Sprintf(briefingPrompt, listing)},
	})
	if err != nil {
		s.logger.Error("briefing generation failed, falling back to listing", "error", err)
		return fmt.Sprintf("You have %d schedule(s) today.\n%s", len(schedules), listing)
	}
	return reply
}

func formatListing(schedules []storage.Schedule) string {
	lines := make([]string, len(schedules))
	for i, sc := range schedules {
		lines[i] = fmt.Sprintf("- %s (%s ~ %s)", sc.Title, sc.StartTime, sc.EndTime)
	}
	return strings.Join(lines, "\n")
}
