package standup

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/foxseedlab/standupbot/internal/config"
	"github.com/foxseedlab/standupbot/internal/repository"
)

type mockRoster struct {
	mu        sync.Mutex
	occupants []Occupant
	err       error
	calls     int
}

func (m *mockRoster) ListOccupants(_ context.Context) ([]Occupant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]Occupant(nil), m.occupants...), nil
}

func (m *mockRoster) set(occupants ...Occupant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occupants = occupants
}

func (m *mockRoster) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockHistory struct {
	messages []Message
	// failAt yields err in place of the message at this index when err is set.
	failAt    int
	err       error
	lastAfter time.Time
	lastLimit int
	calls     int
}

func (m *mockHistory) History(_ context.Context, after time.Time, limit int) iter.Seq2[Message, error] {
	m.calls++
	m.lastAfter = after
	m.lastLimit = limit
	return func(yield func(Message, error) bool) {
		for i, msg := range m.messages {
			if m.err != nil && i == m.failAt {
				yield(Message{}, m.err)
				return
			}
			if !yield(msg, nil) {
				return
			}
		}
		if m.err != nil && m.failAt >= len(m.messages) {
			yield(Message{}, m.err)
		}
	}
}

type mockDirectory map[string]string

func (m mockDirectory) ResolveMemberName(_ context.Context, id string) (string, bool) {
	name, ok := m[id]
	return name, ok
}

type mockNotifier struct {
	started []StartNotice
	reports []Report
	err     error
}

func (m *mockNotifier) NotifyStarted(_ context.Context, notice StartNotice) error {
	m.started = append(m.started, notice)
	return m.err
}

func (m *mockNotifier) NotifyReport(_ context.Context, report Report) error {
	m.reports = append(m.reports, report)
	return m.err
}

type mockRecords struct {
	appended  []repository.AttendanceRecord
	months    map[repository.MonthKey][]repository.AttendanceRecord
	loads     []repository.MonthKey
	appendErr error
	loadErr   error
}

func (m *mockRecords) AppendRecord(_ context.Context, record repository.AttendanceRecord) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appended = append(m.appended, record)
	return nil
}

func (m *mockRecords) LoadMonth(_ context.Context, month repository.MonthKey) ([]repository.AttendanceRecord, error) {
	m.loads = append(m.loads, month)
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if records, ok := m.months[month]; ok {
		return records, nil
	}
	return []repository.AttendanceRecord{}, nil
}

type mockVoice struct {
	joins  int
	leaves int
	err    error
}

func (m *mockVoice) Join(_ context.Context) error {
	m.joins++
	return m.err
}

func (m *mockVoice) Leave(_ context.Context) error {
	m.leaves++
	return m.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func dhaka(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	return loc
}

// at returns the given wall time on 2026-03-04 (a Wednesday) plus dayOffset days, in Dhaka.
func at(t *testing.T, dayOffset, hour, minute, second int) time.Time {
	t.Helper()
	return time.Date(2026, time.March, 4+dayOffset, hour, minute, second, 0, dhaka(t))
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                   "test",
		DiscordToken:          "token",
		DiscordGuildID:        "guild-1",
		StandupVoiceChannelID: "vc-1",
		AsyncUpdateChannelID:  "async-1",
		ReportChannelID:       "report-1",
		Timezone:              "Asia/Dhaka",
		StandupStart:          config.TimeOfDay{Hour: 11, Minute: 0},
		StandupEnd:            config.TimeOfDay{Hour: 11, Minute: 15},
		AsyncCutoff:           config.TimeOfDay{Hour: 11, Minute: 0},
		Precheck:              config.TimeOfDay{Hour: 10, Minute: 55},
		DataDir:               "data",
		JoinVoiceChannel:      true,
		TestStandupSeconds:    30,
		CollaboratorTimeout:   5 * time.Second,
	}
}

type harness struct {
	cfg      *config.Config
	clock    *fakeClock
	roster   *mockRoster
	history  *mockHistory
	dir      mockDirectory
	notifier *mockNotifier
	records  *mockRecords
	voice    *mockVoice
	ids      int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		cfg:      testConfig(),
		clock:    &fakeClock{now: at(t, 0, 9, 0, 0)},
		roster:   &mockRoster{},
		history:  &mockHistory{},
		dir:      mockDirectory{},
		notifier: &mockNotifier{},
		records:  &mockRecords{},
		voice:    &mockVoice{},
	}
}

func (h *harness) manager() *Manager {
	m := NewManager(h.cfg, Dependencies{
		Clock:     h.clock,
		Roster:    h.roster,
		Messages:  h.history,
		Directory: h.dir,
		Notifier:  h.notifier,
		Records:   h.records,
		Voice:     h.voice,
	})
	m.newID = func() string {
		h.ids++
		return fmt.Sprintf("session-%d", h.ids)
	}
	return m
}

func asyncMessage(id, name string, created time.Time) Message {
	return Message{
		AuthorID:          id,
		AuthorDisplayName: name,
		Content:           "Yesterday: fixed bug. Today: deploy.",
		CreatedAt:         created,
	}
}
