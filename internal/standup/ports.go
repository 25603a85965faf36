package standup

import (
	"context"
	"iter"
	"time"
)

type Occupant struct {
	ID          string
	DisplayName string
	IsBot       bool
}

// RosterSource lists who is currently in the standup voice channel.
type RosterSource interface {
	ListOccupants(ctx context.Context) ([]Occupant, error)
}

type Message struct {
	AuthorID          string
	AuthorDisplayName string
	AuthorIsBot       bool
	Content           string
	CreatedAt         time.Time
}

// MessageSource yields at most limit messages created at or after the given
// instant. A non-nil error ends the sequence.
type MessageSource interface {
	History(ctx context.Context, after time.Time, limit int) iter.Seq2[Message, error]
}

type Directory interface {
	ResolveMemberName(ctx context.Context, memberID string) (string, bool)
}

type StartNotice struct {
	SessionID       string
	StartTime       time.Time
	PlannedDuration time.Duration
	AsyncUpdates    []AsyncUpdate
}

type Notifier interface {
	NotifyStarted(ctx context.Context, notice StartNotice) error
	NotifyReport(ctx context.Context, report Report) error
}

// VoicePresence keeps the bot itself in the standup voice channel while active.
type VoicePresence interface {
	Join(ctx context.Context) error
	Leave(ctx context.Context) error
}

type noopVoice struct{}

func (noopVoice) Join(context.Context) error  { return nil }
func (noopVoice) Leave(context.Context) error { return nil }
