package standup

import (
	"maps"
	"time"

	"github.com/foxseedlab/standupbot/internal/repository"
)

const recordDateLayout = "2006-01-02"

func newAttendanceRecord(sess Session, loc *time.Location) repository.AttendanceRecord {
	end := sess.EndTime.In(loc)
	updates := maps.Clone(sess.AsyncUpdates)
	if updates == nil {
		updates = make(map[string]AsyncUpdate)
	}
	return repository.AttendanceRecord{
		SessionID:          sess.ID,
		Date:               end.Format(recordDateLayout),
		Weekday:            end.Weekday().String(),
		StartTime:          formatRecordTime(sess.StartTime, loc),
		EndTime:            formatRecordTime(sess.EndTime, loc),
		VoiceAttendance:    sess.AttendeeIDs(),
		VoiceCount:         len(sess.Attendance),
		AsyncUpdates:       updates,
		AsyncCount:         len(updates),
		TotalParticipation: sess.ParticipantCount(),
	}
}

func formatRecordTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}
