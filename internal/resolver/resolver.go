// Package resolver narrows "which schedule did the user mean" from a date
// and an optional keyword. It deliberately refuses to guess: zero or more
// than one candidate yields no result, and the caller asks the user to
// clarify instead of mutating the wrong entry.
package resolver

import (
	"log/slog"
	"strings"
	"time"

	"github.com/jeiary/jeiary/internal/storage"
)

const dateLayout = "2006-01-02"

// ScheduleFinder is the read-only persistence surface the resolver needs.
type ScheduleFinder interface {
	SchedulesByOwnerAndDate(userID, date string) ([]storage.Schedule, error)
}

// Resolver disambiguates update/delete targets. It is stateless; every call
// starts from the owner's current schedule set.
type Resolver struct {
	finder ScheduleFinder
	logger *slog.Logger
}

// New creates a Resolver over the given finder.
func New(finder ScheduleFinder) *Resolver {
	return &Resolver{finder: finder, logger: slog.Default()}
}

// Resolve returns the single schedule owned by userID on date whose title
// contains keyword, or nil when the target is ambiguous or absent:
//
//   - date missing or not YYYY-MM-DD: nil (a date is required to narrow down)
//   - no schedules that day: nil
//   - keyword given: nil unless exactly one title contains it
//   - no keyword: nil unless the day has exactly one schedule
//
// A lookup error is reported as nil as well; the caller's reaction to "not
// resolved" (ask the user again) is the right reaction to a failed read too.
func (r *Resolver) Resolve(userID, keyword, date string) *storage.Schedule {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		r.logger.Debug("resolver got unparseable date", "date", date)
		return nil
	}

	candidates, err := r.finder.SchedulesByOwnerAndDate(userID, date)
	if err != nil {
		r.logger.Warn("resolver lookup failed", "user_id", userID, "date", date, "error", err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	if keyword != "" {
		var matched []storage.Schedule
		for _, sc := range candidates {
			if strings.Contains(sc.Title, keyword) {
				matched = append(matched, sc)
			}
		}
		if len(matched) != 1 {
			r.logger.Debug("keyword match ambiguous", "keyword", keyword, "matches", len(matched))
			return nil
		}
		return &matched[0]
	}

	if len(candidates) != 1 {
		r.logger.Debug("day has multiple schedules and no keyword", "count", len(candidates))
		return nil
	}
	return &candidates[0]
}
