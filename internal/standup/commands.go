package standup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/foxseedlab/standupbot/internal/discord"
)

const (
	commandAttendance   = "attendance"
	commandAsyncCheck   = "async-check"
	commandStandupStats = "standup-stats"
	commandStandupTest  = "standup-test"
	commandStandupHelp  = "standup-help"

	optionDays = "days"
)

func SlashCommandDefinitions() []discord.SlashCommandDefinition {
	return []discord.SlashCommandDefinition{
		{Name: commandAttendance, Description: slashCommandAttendanceDescription},
		{Name: commandAsyncCheck, Description: slashCommandAsyncCheckDescription},
		{
			Name:        commandStandupStats,
			Description: slashCommandStatsDescription,
			IntOptions: []discord.SlashCommandOption{
				{Name: optionDays, Description: slashCommandStatsDaysDescription},
			},
		},
		{Name: commandStandupTest, Description: slashCommandTestDescription},
		{Name: commandStandupHelp, Description: slashCommandHelpDescription},
	}
}

func SlashCommandNames() []string {
	defs := SlashCommandDefinitions()
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names
}

func (m *Manager) HandleSlashCommand(event discord.SlashCommandEvent) {
	slog.Info("slash command received", "guild_id", event.GuildID, "channel_id", event.ChannelID, "user_id", event.UserID, "command", event.CommandName)
	if event.GuildID != m.cfg.DiscordGuildID {
		_ = event.RespondEphemeral(messageEphemeralWrongGuild)
		return
	}

	ctx := m.commandContext()
	switch event.CommandName {
	case commandAttendance:
		m.handleAttendanceCommand(ctx, event)
	case commandAsyncCheck:
		m.handleAsyncCheckCommand(ctx, event)
	case commandStandupStats:
		m.handleStatsCommand(ctx, event)
	case commandStandupTest:
		m.handleTestCommand(ctx, event)
	case commandStandupHelp:
		_ = event.Respond(formatHelp(m.cfg.StandupStart.String(), m.cfg.StandupEnd.String(), m.cfg.AsyncCutoff.String(), m.loc))
	default:
		_ = event.RespondEphemeral(messageEphemeralUnknownCommand)
	}
}

func (m *Manager) handleAttendanceCommand(ctx context.Context, event discord.SlashCommandEvent) {
	present, err := m.CurrentAttendance(ctx)
	if errors.Is(err, ErrNotActive) {
		_ = event.Respond(messageStandupNotActive)
		return
	}
	if err != nil {
		slog.Error("failed to read current attendance", "error", err)
		_ = event.RespondEphemeral(messageEphemeralCommandFailed)
		return
	}
	_ = event.Respond(formatAttendance(present))
}

func (m *Manager) handleAsyncCheckCommand(ctx context.Context, event discord.SlashCommandEvent) {
	if err := event.Defer(); err != nil {
		slog.Error("failed to defer slash command response", "error", err, "command", event.CommandName)
		return
	}
	_ = event.Followup(formatAsyncCheck(m.TodayAsyncUpdates(ctx)))
}

func (m *Manager) handleStatsCommand(ctx context.Context, event discord.SlashCommandEvent) {
	days := defaultStatsDays
	if v, ok := event.IntOptions[optionDays]; ok && v > 0 {
		days = int(v)
	}
	if err := event.Defer(); err != nil {
		slog.Error("failed to defer slash command response", "error", err, "command", event.CommandName)
		return
	}
	records, err := m.Stats(ctx, days)
	if err != nil {
		slog.Error("failed to load attendance history", "error", err, "days", days)
		_ = event.Followup(messageStatsLoadFailed)
		return
	}
	_ = event.Followup(formatStats(records))
}

// handleTestCommand starts a standup immediately and ends it after the
// configured test duration.
func (m *Manager) handleTestCommand(ctx context.Context, event discord.SlashCommandEvent) {
	if !event.UserIsAdmin {
		_ = event.RespondEphemeral(messageEphemeralNoPermission)
		return
	}
	if m.Phase() == PhaseActive {
		_ = event.Respond(messageStandupAlreadyActive)
		return
	}
	_ = event.Respond(messageTestChecking)

	if err := m.StartStandup(ctx); err != nil {
		if isOutOfPhase(err) {
			_ = event.Followup(messageStandupAlreadyActive)
			return
		}
		slog.Error("failed to start test standup", "error", err)
		_ = event.Followup(messageEphemeralCommandFailed)
		return
	}

	m.mu.Lock()
	asyncCount := len(m.session.AsyncUpdates)
	sessionID := m.session.ID
	m.mu.Unlock()
	_ = event.Followup(formatTestStarted(asyncCount, m.cfg.TestStandupSeconds))

	m.background.Add(1)
	go func() {
		defer m.background.Done()
		m.finishTestStandup(ctx, sessionID, time.Duration(m.cfg.TestStandupSeconds)*time.Second)
	}()
}

func (m *Manager) finishTestStandup(ctx context.Context, sessionID string, after time.Duration) {
	if err := m.wait(ctx, after); err != nil {
		slog.Warn("test standup auto-end cancelled", "error", err, "session_id", sessionID)
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Phase != PhaseActive || m.session.ID != sessionID {
		slog.Info("test standup already ended", "session_id", sessionID)
		return
	}
	if err := m.end(ctx); err != nil {
		slog.Error("test standup ended without a saved record", "error", err, "session_id", sessionID)
	}
}

// commandContext is cancelled when the scheduler loop stops.
func (m *Manager) commandContext() context.Context {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.runCtx != nil {
		return m.runCtx
	}
	return context.Background()
}

// WaitBackground blocks until auto-end tasks started by commands have returned.
func (m *Manager) WaitBackground() {
	m.background.Wait()
}
