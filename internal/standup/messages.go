package standup

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/foxseedlab/standupbot/internal/repository"
)

const (
	slashCommandAttendanceDescription = "Check current standup attendance"
	slashCommandAsyncCheckDescription = "Check today's async updates"
	slashCommandStatsDescription      = "Get standup statistics"
	slashCommandStatsDaysDescription  = "Number of days to include (default 7)"
	slashCommandTestDescription       = "Test standup manually (Admin only)"
	slashCommandHelpDescription       = "Show standup bot commands and schedule"

	messageEphemeralWrongGuild     = ":warning: **This command cannot be used in this server.**"
	messageEphemeralUnknownCommand = ":warning: **Unknown command.**"
	messageEphemeralNoPermission   = ":x: You don't have permission to use this command."
	messageEphemeralCommandFailed  = ":warning: **Something went wrong while running this command.**"

	messageStandupNotActive     = "Standup is not currently active."
	messageStandupAlreadyActive = ":warning: Standup is already active!"
	messageNobodyInVoice        = "No one is currently in the standup channel."
	messageNoAsyncUpdates       = "No async updates found for today before cutoff time."
	messageNoStatsData          = "No attendance data available yet."
	messageStatsLoadFailed      = ":warning: **Failed to load attendance history.**"

	messageStartTitle        = ":dart: **Daily Standup Started**"
	messageStartTracking     = "**Status:** Tracking attendance..."
	messageStartNoHighlights = "No async updates received before cutoff"

	messageReportTitle = ":bar_chart: **Daily Standup Report**"

	messageTestChecking = ":mag: Checking for async updates..."

	reportFieldMaxRunes  = 1024
	messageMaxRunes      = 2000
	startPreviewLimit    = 5
	asyncCheckLimit      = 10
	asyncCheckExcerpt    = 100
	statsBreakdownDays   = 5
	defaultStatsDays     = 7
	startTimeLayout      = "03:04 PM"
	reportDateLayout     = "January 02, 2006"
	messageFooterPattern = "-# Standup Bot | %s"
)

func formatStartNotice(notice StartNotice, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(messageStartTitle + "\n")
	fmt.Fprintf(&b, "**Time:** %s\n", notice.StartTime.In(loc).Format(startTimeLayout))
	fmt.Fprintf(&b, "**Duration:** %d minutes\n", int(notice.PlannedDuration.Minutes()))
	b.WriteString(messageStartTracking + "\n\n")

	if len(notice.AsyncUpdates) == 0 {
		b.WriteString(":pencil: **Day Highlights**\n")
		b.WriteString(messageStartNoHighlights + "\n")
	} else {
		fmt.Fprintf(&b, ":pencil: **Day Highlights Received (%d)**\n", len(notice.AsyncUpdates))
		for i, u := range notice.AsyncUpdates {
			if i == startPreviewLimit {
				break
			}
			fmt.Fprintf(&b, ":white_check_mark: **%s** at %s\n", displayNameOr(u.DisplayName, u.MemberID), u.Timestamp)
		}
	}
	fmt.Fprintf(&b, messageFooterPattern, loc.String())
	return b.String()
}

func statusEmoji(s Status) string {
	switch s {
	case StatusExcellent:
		return ":green_circle:"
	case StatusGood:
		return ":yellow_circle:"
	default:
		return ":red_circle:"
	}
}

func bulletList(names []string) string {
	lines := make([]string, 0, len(names))
	for _, n := range names {
		lines = append(lines, "• "+n)
	}
	return truncateRunes(strings.Join(lines, "\n"), reportFieldMaxRunes)
}

func formatReport(report Report, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(messageReportTitle + "\n")
	fmt.Fprintf(&b, "**Date:** %s\n", report.EndTime.In(loc).Format(reportDateLayout))
	fmt.Fprintf(&b, "**Duration:** %.0f minutes\n", report.Duration().Minutes())
	fmt.Fprintf(&b, "**Total Participation:** %d\n", report.TotalParticipation())

	sections := []struct {
		title string
		names []string
	}{
		{":microphone2: **Voice Attendance (%d)**", report.VoiceAttendees},
		{":pencil: **Async Only (%d)**", report.AsyncOnly},
		{":x: **No Participation (%d)**", report.NoParticipation},
	}
	for _, s := range sections {
		if len(s.names) == 0 {
			continue
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, s.title+"\n", len(s.names))
		b.WriteString(bulletList(s.names) + "\n")
	}

	b.WriteString("\n:chart_with_upwards_trend: **Statistics**\n")
	fmt.Fprintf(&b, "**Participation Rate:** %.1f%%\n", report.ParticipationRate)
	fmt.Fprintf(&b, "**Voice Attendees:** %d\n", len(report.VoiceAttendees))
	fmt.Fprintf(&b, "**Async Updates:** %d\n", report.AsyncUpdateCount)
	fmt.Fprintf(&b, "**No Shows:** %d\n", len(report.NoParticipation))
	fmt.Fprintf(&b, "**Status:** %s %s\n", statusEmoji(report.Status), report.Status)
	fmt.Fprintf(&b, messageFooterPattern, loc.String())
	return b.String()
}

func formatAttendance(present []Member) string {
	if len(present) == 0 {
		return messageNobodyInVoice
	}
	names := make([]string, 0, len(present))
	for _, m := range present {
		names = append(names, displayNameOr(m.DisplayName, m.ID))
	}
	return fmt.Sprintf(":bar_chart: **Current Attendance**\n**In Voice Channel:** %d\n\n%s", len(present), bulletList(names))
}

func formatAsyncCheck(updates map[string]AsyncUpdate) string {
	if len(updates) == 0 {
		return messageNoAsyncUpdates
	}
	var b strings.Builder
	b.WriteString(":pencil: **Today's Async Updates**\n")
	fmt.Fprintf(&b, "Found %d updates before cutoff\n", len(updates))
	for i, u := range orderedAsyncUpdates(updates) {
		if i == asyncCheckLimit {
			break
		}
		excerpt := u.Excerpt
		if truncated := truncateRunes(excerpt, asyncCheckExcerpt); truncated != excerpt {
			excerpt = truncated + "..."
		}
		fmt.Fprintf(&b, "\n**%s** at %s\n%s\n", displayNameOr(u.DisplayName, u.MemberID), u.Timestamp, excerpt)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatStats(records []repository.AttendanceRecord) string {
	if len(records) == 0 {
		return messageNoStatsData
	}
	summary := Summarize(records)
	var b strings.Builder
	fmt.Fprintf(&b, ":chart_with_upwards_trend: **Standup Statistics (Last %d days)**\n\n", summary.Days)
	b.WriteString("**Summary**\n")
	fmt.Fprintf(&b, "**Total Voice Attendance:** %d\n", summary.TotalVoice)
	fmt.Fprintf(&b, "**Total Async Updates:** %d\n", summary.TotalAsync)
	fmt.Fprintf(&b, "**Avg. Participation:** %.1f\n", summary.AvgParticipation)

	b.WriteString("\n**Recent Days**\n")
	for _, r := range lastN(records, statsBreakdownDays) {
		fmt.Fprintf(&b, "`%s`: :microphone2: %d | :pencil: %d\n", r.Date, r.VoiceCount, r.AsyncCount)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTestStarted(asyncCount, seconds int) string {
	return fmt.Sprintf(":white_check_mark: Found %d async update(s)\n:stopwatch: Standup test started! Will end in %d seconds...", asyncCount, seconds)
}

func formatHelp(start, end, cutoff string, loc *time.Location) string {
	var b strings.Builder
	b.WriteString(":robot: **Standup Bot Commands**\n")
	for _, def := range SlashCommandDefinitions() {
		fmt.Fprintf(&b, "`/%s` %s\n", def.Name, def.Description)
	}
	b.WriteString("\n:alarm_clock: **Schedule**\n")
	fmt.Fprintf(&b, "**Daily Standup:** %s - %s (%s)\n", start, end, loc.String())
	fmt.Fprintf(&b, "**Async Cutoff:** %s\n", cutoff)
	b.WriteString("\n:bulb: Post an async update in the updates channel with `Yesterday:` and `Today:` before the cutoff.")
	return b.String()
}

// splitMessage breaks content on line boundaries into chunks of at most max
// runes. A single line longer than max is cut.
func splitMessage(content string, max int) []string {
	if utf8.RuneCountInString(content) <= max {
		return []string{content}
	}
	var chunks []string
	var cur strings.Builder
	curRunes := 0
	flush := func() {
		if chunk := strings.Trim(cur.String(), "\n"); chunk != "" {
			chunks = append(chunks, chunk)
		}
		cur.Reset()
		curRunes = 0
	}
	for _, line := range strings.Split(content, "\n") {
		line = truncateRunes(line, max)
		n := utf8.RuneCountInString(line)
		if curRunes > 0 && curRunes+1+n > max {
			flush()
		}
		if curRunes > 0 {
			cur.WriteString("\n")
			curRunes++
		}
		cur.WriteString(line)
		curRunes += n
	}
	flush()
	return chunks
}
