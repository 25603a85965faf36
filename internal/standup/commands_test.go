package standup

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/foxseedlab/standupbot/internal/discord"
	"github.com/foxseedlab/standupbot/internal/repository"
)

type recordedResponses struct {
	ephemeral []string
	public    []string
	followups []string
	deferred  int
}

func (r *recordedResponses) event(command string) discord.SlashCommandEvent {
	return discord.SlashCommandEvent{
		GuildID:     "guild-1",
		ChannelID:   "text-1",
		CommandName: command,
		UserID:      "user-1",
		RespondEphemeral: func(content string) error {
			r.ephemeral = append(r.ephemeral, content)
			return nil
		},
		Respond: func(content string) error {
			r.public = append(r.public, content)
			return nil
		},
		Defer: func() error {
			r.deferred++
			return nil
		},
		Followup: func(content string) error {
			r.followups = append(r.followups, content)
			return nil
		},
	}
}

func TestHandleSlashCommand_WrongGuild(t *testing.T) {
	m := newHarness(t).manager()
	var r recordedResponses
	ev := r.event(commandAttendance)
	ev.GuildID = "other-guild"

	m.HandleSlashCommand(ev)

	if len(r.ephemeral) != 1 || r.ephemeral[0] != messageEphemeralWrongGuild {
		t.Fatalf("unexpected responses: %+v", r)
	}
}

func TestHandleSlashCommand_Unknown(t *testing.T) {
	m := newHarness(t).manager()
	var r recordedResponses

	m.HandleSlashCommand(r.event("mojiokoshi"))

	if len(r.ephemeral) != 1 || r.ephemeral[0] != messageEphemeralUnknownCommand {
		t.Fatalf("unexpected responses: %+v", r)
	}
}

func TestHandleSlashCommand_AttendanceWhenIdle(t *testing.T) {
	m := newHarness(t).manager()
	var r recordedResponses

	m.HandleSlashCommand(r.event(commandAttendance))

	if len(r.public) != 1 || r.public[0] != messageStandupNotActive {
		t.Fatalf("unexpected responses: %+v", r)
	}
}

func TestHandleSlashCommand_AttendanceWhenActive(t *testing.T) {
	h := newHarness(t)
	h.roster.set(Occupant{ID: "a", DisplayName: "Alice"})
	m := h.manager()
	if err := m.StartStandup(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var r recordedResponses

	m.HandleSlashCommand(r.event(commandAttendance))

	want := ":bar_chart: **Current Attendance**\n**In Voice Channel:** 1\n\n• Alice"
	if len(r.public) != 1 || r.public[0] != want {
		t.Fatalf("unexpected response: %q", r.public)
	}
}

func TestHandleSlashCommand_AsyncCheck(t *testing.T) {
	h := newHarness(t)
	h.clock.set(at(t, 0, 10, 0, 0))
	h.history.messages = []Message{asyncMessage("a", "Alice", at(t, 0, 9, 0, 0))}
	m := h.manager()
	var r recordedResponses

	m.HandleSlashCommand(r.event(commandAsyncCheck))

	if r.deferred != 1 || len(r.followups) != 1 {
		t.Fatalf("expected deferred followup, got %+v", r)
	}
	if !strings.Contains(r.followups[0], "Found 1 updates before cutoff") || !strings.Contains(r.followups[0], "**Alice** at 09:00") {
		t.Fatalf("unexpected followup: %q", r.followups[0])
	}
}

func TestHandleSlashCommand_StatsUsesDaysOption(t *testing.T) {
	h := newHarness(t)
	h.records.months = map[repository.MonthKey][]repository.AttendanceRecord{
		{Year: 2026, Month: time.March}: {
			statsRecord("2026-03-02", 3, 1),
			statsRecord("2026-03-03", 2, 2),
		},
	}
	m := h.manager()
	var r recordedResponses
	ev := r.event(commandStandupStats)
	ev.IntOptions = map[string]int64{optionDays: 1}

	m.HandleSlashCommand(ev)

	if len(r.followups) != 1 {
		t.Fatalf("expected one followup, got %+v", r)
	}
	got := r.followups[0]
	if !strings.Contains(got, "(Last 1 days)") || !strings.Contains(got, "`2026-03-03`") || strings.Contains(got, "`2026-03-02`") {
		t.Fatalf("unexpected stats response: %q", got)
	}
}

func TestHandleSlashCommand_StatsWithoutData(t *testing.T) {
	m := newHarness(t).manager()
	var r recordedResponses

	m.HandleSlashCommand(r.event(commandStandupStats))

	if len(r.followups) != 1 || r.followups[0] != messageNoStatsData {
		t.Fatalf("unexpected responses: %+v", r)
	}
}

func TestHandleSlashCommand_TestStandupRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	m := h.manager()
	var r recordedResponses

	m.HandleSlashCommand(r.event(commandStandupTest))

	if len(r.ephemeral) != 1 || r.ephemeral[0] != messageEphemeralNoPermission {
		t.Fatalf("unexpected responses: %+v", r)
	}
	if m.Phase() != PhaseIdle {
		t.Fatal("expected no standup to start")
	}
}

func TestHandleSlashCommand_TestStandupRunsAndAutoEnds(t *testing.T) {
	h := newHarness(t)
	h.clock.set(at(t, 0, 14, 0, 0))
	h.roster.set(Occupant{ID: "a", DisplayName: "Alice"})
	m := h.manager()
	var waited time.Duration
	release := make(chan struct{})
	m.wait = func(_ context.Context, d time.Duration) error {
		waited = d
		<-release
		return nil
	}
	var r recordedResponses
	ev := r.event(commandStandupTest)
	ev.UserIsAdmin = true

	m.HandleSlashCommand(ev)

	if m.Phase() != PhaseActive {
		t.Fatal("expected test standup to be active")
	}
	if len(r.public) != 1 || r.public[0] != messageTestChecking {
		t.Fatalf("unexpected responses: %+v", r)
	}
	if len(r.followups) != 1 || !strings.Contains(r.followups[0], "Will end in 30 seconds") {
		t.Fatalf("unexpected followups: %+v", r.followups)
	}

	var again recordedResponses
	ev2 := again.event(commandStandupTest)
	ev2.UserIsAdmin = true
	m.HandleSlashCommand(ev2)
	if len(again.public) != 1 || again.public[0] != messageStandupAlreadyActive {
		t.Fatalf("expected already active response, got %+v", again)
	}

	close(release)
	m.WaitBackground()

	if waited != 30*time.Second {
		t.Fatalf("expected 30s auto-end delay, got %s", waited)
	}
	if m.Phase() != PhaseIdle {
		t.Fatal("expected test standup to end")
	}
	if len(h.records.appended) != 1 || len(h.notifier.reports) != 1 {
		t.Fatalf("expected one report and record, got %d/%d", len(h.notifier.reports), len(h.records.appended))
	}
}

func TestHandleSlashCommand_Help(t *testing.T) {
	m := newHarness(t).manager()
	var r recordedResponses

	m.HandleSlashCommand(r.event(commandStandupHelp))

	if len(r.public) != 1 {
		t.Fatalf("unexpected responses: %+v", r)
	}
	for _, want := range []string{"`/attendance`", "`/standup-stats`", "11:00 - 11:15 (Asia/Dhaka)", "**Async Cutoff:** 11:00"} {
		if !strings.Contains(r.public[0], want) {
			t.Fatalf("expected help to contain %q, got %q", want, r.public[0])
		}
	}
}

func TestSlashCommandDefinitions(t *testing.T) {
	defs := SlashCommandDefinitions()
	if len(defs) != 5 {
		t.Fatalf("expected 5 commands, got %d", len(defs))
	}
	for _, d := range defs {
		if d.Name == commandStandupStats && (len(d.IntOptions) != 1 || d.IntOptions[0].Name != optionDays) {
			t.Fatalf("expected days option on stats command, got %+v", d.IntOptions)
		}
	}
}
