package repository

import (
	"fmt"
	"time"
)

// AsyncUpdate is the first qualifying async submission of one member on one day.
type AsyncUpdate struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"name"`
	Excerpt     string `json:"message"`
	Timestamp   string `json:"time"`
}

// AttendanceRecord is the persisted snapshot of one completed standup.
type AttendanceRecord struct {
	SessionID          string                 `json:"session_id,omitempty"`
	Date               string                 `json:"date"`
	Weekday            string                 `json:"day"`
	StartTime          string                 `json:"start_time"`
	EndTime            string                 `json:"end_time"`
	VoiceAttendance    []string               `json:"voice_attendance"`
	VoiceCount         int                    `json:"voice_count"`
	AsyncUpdates       map[string]AsyncUpdate `json:"async_updates"`
	AsyncCount         int                    `json:"async_count"`
	TotalParticipation int                    `json:"total_participation"`
}

const recordDateLayout = "2006-01-02"

// MonthKey identifies one monthly history file.
type MonthKey struct {
	Year  int
	Month time.Month
}

func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// Month returns the key of the month the record belongs to.
func (r AttendanceRecord) Month() (MonthKey, error) {
	d, err := time.Parse(recordDateLayout, r.Date)
	if err != nil {
		return MonthKey{}, fmt.Errorf("record date %q is invalid: %w", r.Date, err)
	}
	return MonthKeyOf(d), nil
}

func (k MonthKey) Previous() MonthKey {
	if k.Month == time.January {
		return MonthKey{Year: k.Year - 1, Month: time.December}
	}
	return MonthKey{Year: k.Year, Month: k.Month - 1}
}

func (k MonthKey) String() string {
	return fmt.Sprintf("%04d_%02d", k.Year, int(k.Month))
}
