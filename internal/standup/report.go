package standup

import (
	"slices"
	"time"
)

type Status string

const (
	StatusExcellent        Status = "Excellent"
	StatusGood             Status = "Good"
	StatusNeedsImprovement Status = "Needs Improvement"
)

const (
	excellentThreshold = 90.0
	goodThreshold      = 70.0
)

// RosterEntry is a configured team member with a resolved display name.
type RosterEntry struct {
	ID   string
	Name string
}

type Report struct {
	SessionID         string
	StartTime         time.Time
	EndTime           time.Time
	VoiceAttendees    []string
	AsyncOnly         []string
	NoParticipation   []string
	AsyncUpdateCount  int
	TotalTeam         int
	ParticipationRate float64
	Status            Status
}

func (r Report) TotalParticipation() int {
	return len(r.VoiceAttendees) + len(r.AsyncOnly)
}

func (r Report) Duration() time.Duration {
	if r.StartTime.IsZero() || r.EndTime.Before(r.StartTime) {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

func StatusFor(rate float64) Status {
	switch {
	case rate >= excellentThreshold:
		return StatusExcellent
	case rate >= goodThreshold:
		return StatusGood
	default:
		return StatusNeedsImprovement
	}
}

// Aggregate categorises the participants of a finished session. An empty
// roster means no roster is configured: nobody is reported as absent and the
// team size is the number of observed participants.
func Aggregate(sess Session, roster []RosterEntry) Report {
	voice := make([]string, 0, len(sess.Attendance))
	for id, name := range sess.Attendance {
		voice = append(voice, displayNameOr(name, id))
	}

	asyncOnly := make([]string, 0)
	for id, u := range sess.AsyncUpdates {
		if _, inVoice := sess.Attendance[id]; inVoice {
			continue
		}
		asyncOnly = append(asyncOnly, displayNameOr(u.DisplayName, id))
	}

	absent := make([]string, 0)
	for _, m := range roster {
		_, inVoice := sess.Attendance[m.ID]
		_, sentAsync := sess.AsyncUpdates[m.ID]
		if inVoice || sentAsync {
			continue
		}
		absent = append(absent, displayNameOr(m.Name, m.ID))
	}

	slices.Sort(voice)
	slices.Sort(asyncOnly)
	slices.Sort(absent)

	participants := len(voice) + len(asyncOnly)
	totalTeam := participants
	if len(roster) > 0 {
		totalTeam = len(roster)
	}
	rate := 0.0
	if totalTeam > 0 {
		rate = float64(participants) / float64(totalTeam) * 100
	}

	return Report{
		SessionID:         sess.ID,
		StartTime:         sess.StartTime,
		EndTime:           sess.EndTime,
		VoiceAttendees:    voice,
		AsyncOnly:         asyncOnly,
		NoParticipation:   absent,
		AsyncUpdateCount:  len(sess.AsyncUpdates),
		TotalTeam:         totalTeam,
		ParticipationRate: rate,
		Status:            StatusFor(rate),
	}
}

func displayNameOr(name, id string) string {
	if name == "" {
		return id
	}
	return name
}
