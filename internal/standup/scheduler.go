package standup

import (
	"context"
	"log/slog"
	"time"
)

const (
	TickInterval     = 30 * time.Second
	snapshotInterval = 5
	// matchWindowSeconds bounds how late in the minute a tick may still match.
	matchWindowSeconds = 30
)

type scheduledAction int

const (
	actionStart scheduledAction = iota
	actionEnd
	actionSnapshot
	actionPrecheck
)

func (a scheduledAction) String() string {
	switch a {
	case actionStart:
		return "start"
	case actionEnd:
		return "end"
	case actionSnapshot:
		return "snapshot"
	case actionPrecheck:
		return "precheck"
	default:
		return "unknown"
	}
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func minuteKey(t time.Time) string {
	return t.Format("2006-01-02T15:04")
}

// markFired records that action ran in the minute of now. It reports false
// when the action already ran in that minute.
func (m *Manager) markFired(action scheduledAction, now time.Time) bool {
	key := minuteKey(now)
	if m.lastFired[action] == key {
		return false
	}
	m.lastFired[action] = key
	return true
}

// Tick evaluates the schedule once. Start and end only fire on the exact
// configured minute; a tick missed in that minute skips the transition for the day.
func (m *Manager) Tick(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if isWeekend(now) {
		return
	}
	if now.Second() >= matchWindowSeconds {
		return
	}

	switch {
	case m.session.Phase == PhaseIdle && m.cfg.StandupStart.Matches(now):
		if m.markFired(actionStart, now) {
			m.start(ctx)
		}
	case m.session.Phase == PhaseActive && m.cfg.StandupEnd.Matches(now):
		if m.markFired(actionEnd, now) {
			if err := m.end(ctx); err != nil {
				slog.Error("standup ended without a saved record", "error", err)
			}
		}
	case m.session.Phase == PhaseActive && now.Minute()%snapshotInterval == 0:
		if m.markFired(actionSnapshot, now) {
			m.snapshot(ctx)
		}
	}
}

// Precheck pre-populates today's async updates ahead of the start transition.
// It runs in either phase and does nothing on weekends.
func (m *Manager) Precheck(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if isWeekend(now) {
		slog.Debug("skipping async precheck on weekend", "date", now.Format(recordDateLayout))
		return
	}
	if !m.markFired(actionPrecheck, now) {
		return
	}
	slog.Info("running async update precheck", "phase", m.session.Phase.String())
	m.scanAsync(ctx, now)
}

// untilNextPrecheck returns the delay to the next configured precheck instant after now.
func (m *Manager) untilNextPrecheck(now time.Time) time.Duration {
	local := now.In(m.loc)
	next := m.cfg.Precheck.On(local)
	if !next.After(local) {
		next = m.cfg.Precheck.On(local.AddDate(0, 0, 1))
	}
	return next.Sub(local)
}

// Run drives Tick every TickInterval and Precheck once a day until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	m.runMu.Lock()
	m.runCtx = ctx
	m.runMu.Unlock()

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	precheck := time.NewTimer(m.untilNextPrecheck(m.clock.Now()))
	defer precheck.Stop()

	slog.Info("standup scheduler started",
		"timezone", m.loc.String(),
		"start", m.cfg.StandupStart.String(),
		"end", m.cfg.StandupEnd.String(),
		"precheck", m.cfg.Precheck.String(),
	)
	for {
		select {
		case <-ctx.Done():
			slog.Info("standup scheduler stopped")
			return
		case <-ticker.C:
			m.Tick(ctx)
		case <-precheck.C:
			m.Precheck(ctx)
			precheck.Reset(m.untilNextPrecheck(m.clock.Now()))
		}
	}
}
