package standup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/foxseedlab/standupbot/internal/clock"
	"github.com/foxseedlab/standupbot/internal/config"
	"github.com/foxseedlab/standupbot/internal/repository"
	"github.com/google/uuid"
)

type Dependencies struct {
	Clock     clock.Clock
	Roster    RosterSource
	Messages  MessageSource
	Directory Directory
	Notifier  Notifier
	Records   repository.Repository
	// Voice is optional; nil keeps the bot out of the voice channel.
	Voice VoicePresence
}

// Manager owns the single standup Session and serialises every operation on it.
type Manager struct {
	cfg         *config.Config
	loc         *time.Location
	clock       clock.Clock
	snapshotter *AttendanceSnapshotter
	scanner     *AsyncUpdateScanner
	directory   Directory
	notifier    Notifier
	records     repository.Repository
	voice       VoicePresence
	newID       func() string
	wait        func(ctx context.Context, d time.Duration) error

	background sync.WaitGroup
	runMu      sync.Mutex
	runCtx     context.Context

	mu        sync.Mutex
	session   Session
	lastFired map[scheduledAction]string
}

func NewManager(cfg *config.Config, deps Dependencies) *Manager {
	loc := cfg.Location()
	clk := deps.Clock
	if clk == nil {
		clk = clock.System{}
	}
	voice := deps.Voice
	if voice == nil {
		voice = noopVoice{}
	}
	return &Manager{
		cfg:         cfg,
		loc:         loc,
		clock:       clk,
		snapshotter: NewAttendanceSnapshotter(deps.Roster),
		scanner:     NewAsyncUpdateScanner(deps.Messages, cfg.AsyncCutoff, loc),
		directory:   deps.Directory,
		notifier:    deps.Notifier,
		records:     deps.Records,
		voice:       voice,
		newID:       uuid.NewString,
		wait:        sleepContext,
		session:     newIdleSession(),
		lastFired:   make(map[scheduledAction]string),
	}
}

func (m *Manager) now() time.Time {
	return m.clock.Now().In(m.loc)
}

func (m *Manager) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.CollaboratorTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.cfg.CollaboratorTimeout)
}

// Phase reports the current phase.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Phase
}

func (m *Manager) StartStandup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Phase == PhaseActive {
		return ErrAlreadyActive
	}
	m.start(ctx)
	return nil
}

// EndStandup completes the active session. The session always returns to
// idle; a returned error means the record could not be persisted.
func (m *Manager) EndStandup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Phase != PhaseActive || m.session.StartTime.IsZero() {
		return ErrNotActive
	}
	return m.end(ctx)
}

func (m *Manager) start(ctx context.Context) {
	now := m.now()
	prev := m.session
	m.session = Session{
		ID:           m.newID(),
		Phase:        PhaseActive,
		StartTime:    now,
		Attendance:   make(map[string]string),
		AsyncUpdates: prev.AsyncUpdates,
		asyncDay:     prev.asyncDay,
	}
	sessionID := m.session.ID
	slog.Info("standup starting", "session_id", sessionID, "start_time", now.Format(time.RFC3339))

	m.joinVoice(ctx, sessionID)
	m.snapshot(ctx)
	m.scanAsync(ctx, now)

	notice := StartNotice{
		SessionID:       sessionID,
		StartTime:       now,
		PlannedDuration: m.cfg.StandupDuration(),
		AsyncUpdates:    orderedAsyncUpdates(m.session.AsyncUpdates),
	}
	cctx, cancel := m.callContext(ctx)
	defer cancel()
	if err := m.notifier.NotifyStarted(cctx, notice); err != nil {
		slog.Error("failed to send standup start notice", "error", unavailable("notify started", err), "session_id", sessionID)
	}
	slog.Info("standup started", "session_id", sessionID, "attendance", len(m.session.Attendance), "async_updates", len(m.session.AsyncUpdates))
}

func (m *Manager) end(ctx context.Context) error {
	now := m.now()
	m.session.EndTime = now
	sessionID := m.session.ID
	slog.Info("standup ending", "session_id", sessionID, "end_time", now.Format(time.RFC3339))

	m.snapshot(ctx)
	m.leaveVoice(ctx, sessionID)

	frozen := m.session.clone()
	report := Aggregate(frozen, m.resolveRoster(ctx))
	cctx, cancel := m.callContext(ctx)
	defer cancel()
	if err := m.notifier.NotifyReport(cctx, report); err != nil {
		slog.Error("failed to send standup report", "error", unavailable("notify report", err), "session_id", sessionID)
	}

	var persistErr error
	record := newAttendanceRecord(frozen, m.loc)
	if err := m.records.AppendRecord(ctx, record); err != nil {
		persistErr = fmt.Errorf("save attendance record: %w", err)
		slog.Error("failed to save attendance record", "error", err, "session_id", sessionID, "date", record.Date)
	} else {
		slog.Info("attendance record saved", "session_id", sessionID, "date", record.Date, "total_participation", record.TotalParticipation)
	}

	m.session.Phase = PhaseIdle
	slog.Info("standup ended", "session_id", sessionID, "participation_rate", report.ParticipationRate, "status", report.Status)
	return persistErr
}

func (m *Manager) snapshot(ctx context.Context) []Member {
	cctx, cancel := m.callContext(ctx)
	defer cancel()
	present, err := m.snapshotter.Snapshot(cctx, &m.session)
	if err != nil {
		slog.Warn("attendance snapshot failed", "error", err, "session_id", m.session.ID)
	}
	slog.Info("attendance snapshot", "session_id", m.session.ID, "present", len(present), "attendance", len(m.session.Attendance))
	return present
}

func (m *Manager) scanAsync(ctx context.Context, now time.Time) {
	cctx, cancel := m.callContext(ctx)
	defer cancel()
	updates, err := m.scanner.Scan(cctx, now)
	if err != nil {
		slog.Error("async update scan incomplete", "error", err, "collected", len(updates), "session_id", m.session.ID)
	}
	m.session.mergeAsyncUpdates(now.Format(recordDateLayout), updates)
}

func (m *Manager) joinVoice(ctx context.Context, sessionID string) {
	cctx, cancel := m.callContext(ctx)
	defer cancel()
	if err := m.voice.Join(cctx); err != nil {
		slog.Warn("failed to join standup voice channel", "error", unavailable("join voice", err), "session_id", sessionID)
	}
}

func (m *Manager) leaveVoice(ctx context.Context, sessionID string) {
	cctx, cancel := m.callContext(ctx)
	defer cancel()
	if err := m.voice.Leave(cctx); err != nil {
		slog.Warn("failed to leave standup voice channel", "error", unavailable("leave voice", err), "session_id", sessionID)
	}
}

// resolveRoster returns the configured team with display names, preferring the
// live directory, then the configured name, then the raw id.
func (m *Manager) resolveRoster(ctx context.Context) []RosterEntry {
	if !m.cfg.HasTeamRoster() {
		return nil
	}
	cctx, cancel := m.callContext(ctx)
	defer cancel()
	roster := make([]RosterEntry, 0, len(m.cfg.TeamMembers))
	for _, tm := range m.cfg.TeamMembers {
		name := tm.Name
		if m.directory != nil {
			if resolved, ok := m.directory.ResolveMemberName(cctx, tm.ID); ok && resolved != "" {
				name = resolved
			}
		}
		roster = append(roster, RosterEntry{ID: tm.ID, Name: displayNameOr(name, tm.ID)})
	}
	return roster
}

// CurrentAttendance takes a snapshot of the voice channel without changing phase.
func (m *Manager) CurrentAttendance(ctx context.Context) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Phase != PhaseActive {
		return nil, ErrNotActive
	}
	present := m.snapshot(ctx)
	slices.SortFunc(present, func(a, b Member) int {
		return strings.Compare(a.DisplayName, b.DisplayName)
	})
	return present, nil
}

// TodayAsyncUpdates rescans the async channel; the session is left untouched.
func (m *Manager) TodayAsyncUpdates(ctx context.Context) map[string]AsyncUpdate {
	cctx, cancel := m.callContext(ctx)
	defer cancel()
	updates, err := m.scanner.Scan(cctx, m.now())
	if err != nil {
		slog.Error("async update scan incomplete", "error", err, "collected", len(updates))
	}
	return updates
}

// Stats returns the last days records, oldest first, reading back across
// monthly files as needed.
func (m *Manager) Stats(ctx context.Context, days int) ([]repository.AttendanceRecord, error) {
	if days <= 0 {
		return []repository.AttendanceRecord{}, nil
	}
	month := repository.MonthKeyOf(m.now())
	var collected []repository.AttendanceRecord
	for i := 0; i < maxStatsMonths && len(collected) < days; i++ {
		records, err := m.records.LoadMonth(ctx, month)
		if err != nil {
			return nil, fmt.Errorf("load attendance history %s: %w", month, err)
		}
		collected = append(slices.Clone(records), collected...)
		month = month.Previous()
	}
	if collected == nil {
		collected = []repository.AttendanceRecord{}
	}
	return lastN(collected, days), nil
}

func orderedAsyncUpdates(updates map[string]AsyncUpdate) []AsyncUpdate {
	list := slices.Collect(maps.Values(updates))
	slices.SortFunc(list, func(a, b AsyncUpdate) int {
		if c := strings.Compare(a.Timestamp, b.Timestamp); c != 0 {
			return c
		}
		if c := strings.Compare(a.DisplayName, b.DisplayName); c != 0 {
			return c
		}
		return strings.Compare(a.MemberID, b.MemberID)
	})
	return list
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isOutOfPhase(err error) bool {
	return errors.Is(err, ErrAlreadyActive) || errors.Is(err, ErrNotActive)
}
