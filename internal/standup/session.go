package standup

import (
	"maps"
	"slices"
	"time"

	"github.com/foxseedlab/standupbot/internal/repository"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
)

func (p Phase) String() string {
	if p == PhaseActive {
		return "active"
	}
	return "idle"
}

type AsyncUpdate = repository.AsyncUpdate

type Member struct {
	ID          string
	DisplayName string
}

// Session is the current or most recent standup occurrence. It is owned by
// Manager; other components only see it for the duration of one call.
type Session struct {
	ID        string
	Phase     Phase
	StartTime time.Time
	EndTime   time.Time
	// Attendance maps member id to the display name seen at the latest snapshot.
	Attendance   map[string]string
	AsyncUpdates map[string]AsyncUpdate
	// asyncDay is the local date the async updates were scanned for.
	asyncDay string
}

func newIdleSession() Session {
	return Session{
		Phase:        PhaseIdle,
		Attendance:   make(map[string]string),
		AsyncUpdates: make(map[string]AsyncUpdate),
	}
}

func (s *Session) addAttendee(id, name string) {
	if s.Attendance == nil {
		s.Attendance = make(map[string]string)
	}
	if name == "" {
		if _, ok := s.Attendance[id]; ok {
			return
		}
		name = id
	}
	s.Attendance[id] = name
}

// mergeAsyncUpdates adds updates for members without an entry; existing entries are kept.
func (s *Session) mergeAsyncUpdates(day string, updates map[string]AsyncUpdate) {
	if s.asyncDay != day || s.AsyncUpdates == nil {
		s.AsyncUpdates = make(map[string]AsyncUpdate, len(updates))
		s.asyncDay = day
	}
	for id, u := range updates {
		if _, ok := s.AsyncUpdates[id]; ok {
			continue
		}
		s.AsyncUpdates[id] = u
	}
}

// AttendeeIDs is sorted and never nil, so an empty day stores [].
func (s *Session) AttendeeIDs() []string {
	ids := slices.Sorted(maps.Keys(s.Attendance))
	if ids == nil {
		ids = []string{}
	}
	return ids
}

// ParticipantCount is |attendance ∪ async update authors|.
func (s *Session) ParticipantCount() int {
	n := len(s.Attendance)
	for id := range s.AsyncUpdates {
		if _, ok := s.Attendance[id]; !ok {
			n++
		}
	}
	return n
}

func (s *Session) clone() Session {
	c := *s
	c.Attendance = maps.Clone(s.Attendance)
	c.AsyncUpdates = maps.Clone(s.AsyncUpdates)
	if c.Attendance == nil {
		c.Attendance = make(map[string]string)
	}
	if c.AsyncUpdates == nil {
		c.AsyncUpdates = make(map[string]AsyncUpdate)
	}
	return c
}
