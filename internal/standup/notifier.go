package standup

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/foxseedlab/standupbot/internal/discord"
	"github.com/foxseedlab/standupbot/internal/webhook"
)

// channelNotifier posts start notices and reports to the report text channel.
type channelNotifier struct {
	client    discord.Client
	channelID string
	loc       *time.Location
}

func NewChannelNotifier(client discord.Client, channelID string, loc *time.Location) Notifier {
	return &channelNotifier{client: client, channelID: channelID, loc: loc}
}

func (n *channelNotifier) NotifyStarted(ctx context.Context, notice StartNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.send(formatStartNotice(notice, n.loc))
}

func (n *channelNotifier) NotifyReport(ctx context.Context, report Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.send(formatReport(report, n.loc))
}

func (n *channelNotifier) send(content string) error {
	chunks := splitMessage(content, messageMaxRunes)
	for i, chunk := range chunks {
		if err := n.client.SendChannelMessage(n.channelID, chunk); err != nil {
			return fmt.Errorf("send message part %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return nil
}

// webhookNotifier forwards reports as JSON. Start notices are not sent.
type webhookNotifier struct {
	sender webhook.Sender
	loc    *time.Location
}

func NewWebhookNotifier(sender webhook.Sender, loc *time.Location) Notifier {
	return &webhookNotifier{sender: sender, loc: loc}
}

func (n *webhookNotifier) NotifyStarted(context.Context, StartNotice) error {
	return nil
}

func (n *webhookNotifier) NotifyReport(ctx context.Context, report Report) error {
	return n.sender.SendReport(ctx, reportPayload(report, n.loc))
}

func reportPayload(report Report, loc *time.Location) webhook.ReportWebhookPayload {
	return webhook.ReportWebhookPayload{
		SchemaVersion:     webhook.ReportWebhookSchemaVersion,
		SessionID:         report.SessionID,
		Date:              report.EndTime.In(loc).Format(recordDateLayout),
		Timezone:          loc.String(),
		StartAt:           formatRecordTime(report.StartTime, loc),
		EndAt:             formatRecordTime(report.EndTime, loc),
		DurationMinutes:   int(math.Round(report.Duration().Minutes())),
		VoiceAttendees:    report.VoiceAttendees,
		AsyncOnly:         report.AsyncOnly,
		NoParticipation:   report.NoParticipation,
		AsyncUpdateCount:  report.AsyncUpdateCount,
		TotalTeam:         report.TotalTeam,
		ParticipationRate: math.Round(report.ParticipationRate*10) / 10,
		Status:            string(report.Status),
	}
}

// multiNotifier delivers to every notifier and joins their errors.
type multiNotifier []Notifier

func NewMultiNotifier(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

func (m multiNotifier) NotifyStarted(ctx context.Context, notice StartNotice) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyStarted(ctx, notice); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiNotifier) NotifyReport(ctx context.Context, report Report) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyReport(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
