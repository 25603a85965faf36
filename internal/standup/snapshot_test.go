package standup

import (
	"context"
	"errors"
	"testing"
)

func TestSnapshot_ExcludesBotsAndGrowsByUnion(t *testing.T) {
	roster := &mockRoster{}
	roster.set(
		Occupant{ID: "a", DisplayName: "Alice"},
		Occupant{ID: "bot", DisplayName: "Standup Bot", IsBot: true},
	)
	snap := NewAttendanceSnapshotter(roster)
	sess := newIdleSession()

	present, err := snap.Snapshot(context.Background(), &sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(present) != 1 || present[0].ID != "a" {
		t.Fatalf("unexpected present list: %+v", present)
	}

	roster.set(Occupant{ID: "b", DisplayName: "Bob"})
	present, err = snap.Snapshot(context.Background(), &sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(present) != 1 || present[0].ID != "b" {
		t.Fatalf("unexpected present list: %+v", present)
	}
	if len(sess.Attendance) != 2 || sess.Attendance["a"] != "Alice" || sess.Attendance["b"] != "Bob" {
		t.Fatalf("expected attendance to keep both members, got %+v", sess.Attendance)
	}
	if _, ok := sess.Attendance["bot"]; ok {
		t.Fatal("bot must never be recorded as attending")
	}
}

func TestSnapshot_RosterFailureLeavesAttendanceUntouched(t *testing.T) {
	boom := errors.New("guild not cached")
	snap := NewAttendanceSnapshotter(&mockRoster{err: boom})
	sess := newIdleSession()
	sess.addAttendee("a", "Alice")

	present, err := snap.Snapshot(context.Background(), &sess)
	if !errors.Is(err, ErrCollaboratorUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped collaborator error, got %v", err)
	}
	if present == nil || len(present) != 0 {
		t.Fatalf("expected empty present list, got %#v", present)
	}
	if len(sess.Attendance) != 1 {
		t.Fatalf("expected attendance unchanged, got %+v", sess.Attendance)
	}
}

func TestSnapshot_KeepsKnownNameWhenOccupantHasNone(t *testing.T) {
	roster := &mockRoster{}
	roster.set(Occupant{ID: "a", DisplayName: ""})
	sess := newIdleSession()
	sess.addAttendee("a", "Alice")

	present, err := NewAttendanceSnapshotter(roster).Snapshot(context.Background(), &sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if present[0].DisplayName != "Alice" || sess.Attendance["a"] != "Alice" {
		t.Fatalf("expected known name to be kept, got %+v / %+v", present, sess.Attendance)
	}
}
