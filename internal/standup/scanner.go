package standup

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/foxseedlab/standupbot/internal/config"
)

const (
	DefaultScanLimit = 100
	excerptMaxRunes  = 200
	asyncTimeLayout  = "15:04"
)

// AsyncUpdateScanner finds today's "yesterday:/today:" submissions posted
// before the cutoff. The first qualifying message per author, in the order
// the source yields them, wins.
type AsyncUpdateScanner struct {
	source MessageSource
	cutoff config.TimeOfDay
	limit  int
	loc    *time.Location
}

func NewAsyncUpdateScanner(source MessageSource, cutoff config.TimeOfDay, loc *time.Location) *AsyncUpdateScanner {
	if loc == nil {
		loc = time.UTC
	}
	return &AsyncUpdateScanner{
		source: source,
		cutoff: cutoff,
		limit:  DefaultScanLimit,
		loc:    loc,
	}
}

// Scan never fails outright: on a history error it returns what it collected
// so far along with a *ScanError.
func (s *AsyncUpdateScanner) Scan(ctx context.Context, now time.Time) (map[string]AsyncUpdate, error) {
	local := now.In(s.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
	cutoff := s.cutoff.On(local)

	slog.Debug("scanning async updates", "now", local.Format(time.RFC3339), "day_start", dayStart.Format(time.RFC3339), "cutoff", cutoff.Format(time.RFC3339), "limit", s.limit)

	updates := make(map[string]AsyncUpdate)
	checked := 0
	for msg, err := range s.source.History(ctx, dayStart, s.limit) {
		if err != nil {
			return updates, &ScanError{Checked: checked, Err: err}
		}
		checked++
		createdAt := msg.CreatedAt.In(s.loc)
		if !createdAt.Before(cutoff) {
			continue
		}
		if msg.AuthorIsBot || msg.AuthorID == "" {
			continue
		}
		if !isAsyncUpdate(msg.Content) {
			continue
		}
		if _, exists := updates[msg.AuthorID]; exists {
			continue
		}
		updates[msg.AuthorID] = AsyncUpdate{
			MemberID:    msg.AuthorID,
			DisplayName: msg.AuthorDisplayName,
			Excerpt:     truncateRunes(msg.Content, excerptMaxRunes),
			Timestamp:   createdAt.Format(asyncTimeLayout),
		}
	}
	slog.Info("async update scan finished", "messages_checked", checked, "updates_found", len(updates))
	return updates, nil
}

func isAsyncUpdate(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "yesterday:") && strings.Contains(lower, "today:")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
