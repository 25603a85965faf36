package standup

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestMergeAsyncUpdates_NeverOverwritesSameDay(t *testing.T) {
	sess := newIdleSession()
	sess.mergeAsyncUpdates("2026-03-04", map[string]AsyncUpdate{
		"a": {MemberID: "a", Excerpt: "first", Timestamp: "09:00"},
	})
	sess.mergeAsyncUpdates("2026-03-04", map[string]AsyncUpdate{
		"a": {MemberID: "a", Excerpt: "second", Timestamp: "10:00"},
		"b": {MemberID: "b", Excerpt: "hello", Timestamp: "10:05"},
	})

	if got := sess.AsyncUpdates["a"].Excerpt; got != "first" {
		t.Fatalf("expected first entry to be kept, got %q", got)
	}
	if len(sess.AsyncUpdates) != 2 {
		t.Fatalf("expected two updates, got %+v", sess.AsyncUpdates)
	}
}

func TestMergeAsyncUpdates_ResetsOnNewDay(t *testing.T) {
	sess := newIdleSession()
	sess.mergeAsyncUpdates("2026-03-04", map[string]AsyncUpdate{"a": {MemberID: "a"}})
	sess.mergeAsyncUpdates("2026-03-05", map[string]AsyncUpdate{"b": {MemberID: "b"}})

	if _, ok := sess.AsyncUpdates["a"]; ok {
		t.Fatal("expected previous day's update to be dropped")
	}
	if _, ok := sess.AsyncUpdates["b"]; !ok {
		t.Fatal("expected new day's update")
	}
}

func TestParticipantCount_IsUnion(t *testing.T) {
	sess := newIdleSession()
	sess.addAttendee("a", "A")
	sess.addAttendee("b", "B")
	sess.mergeAsyncUpdates("d", map[string]AsyncUpdate{"b": {}, "c": {}})

	if got := sess.ParticipantCount(); got != 3 {
		t.Fatalf("expected 3 participants, got %d", got)
	}
	if got := sess.AttendeeIDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected attendee ids: %v", got)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	sess := newIdleSession()
	sess.addAttendee("a", "A")
	c := sess.clone()
	sess.addAttendee("b", "B")

	if len(c.Attendance) != 1 {
		t.Fatalf("expected clone to be unaffected, got %+v", c.Attendance)
	}
}

func TestAttendanceRecord_EmptyDayWritesEmptyList(t *testing.T) {
	sess := newIdleSession()
	sess.ID = "session-1"
	sess.StartTime = at(t, 0, 11, 0, 0)
	sess.EndTime = at(t, 0, 11, 15, 0)

	b, err := json.Marshal(newAttendanceRecord(sess, dhaka(t)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(b), `"voice_attendance":[]`) || !strings.Contains(string(b), `"async_updates":{}`) {
		t.Fatalf("expected empty collections, got %s", b)
	}
}
