package standup

import "context"

// AttendanceSnapshotter folds the current non-bot voice occupants into a session.
// Attendance only grows: members who left since the last snapshot stay counted.
type AttendanceSnapshotter struct {
	source RosterSource
}

func NewAttendanceSnapshotter(source RosterSource) *AttendanceSnapshotter {
	return &AttendanceSnapshotter{source: source}
}

// Snapshot returns the non-bot occupants seen now. When the roster cannot be
// read it returns an empty list together with an ErrCollaboratorUnavailable error.
func (a *AttendanceSnapshotter) Snapshot(ctx context.Context, sess *Session) ([]Member, error) {
	occupants, err := a.source.ListOccupants(ctx)
	if err != nil {
		return []Member{}, unavailable("list voice occupants", err)
	}
	present := make([]Member, 0, len(occupants))
	for _, o := range occupants {
		if o.IsBot || o.ID == "" {
			continue
		}
		sess.addAttendee(o.ID, o.DisplayName)
		present = append(present, Member{ID: o.ID, DisplayName: sess.Attendance[o.ID]})
	}
	return present, nil
}
