package webhook

import "context"

const ReportWebhookSchemaVersion = 1

type ReportWebhookPayload struct {
	SchemaVersion     int      `json:"schema_version"`
	SessionID         string   `json:"session_id"`
	Date              string   `json:"date"`
	Timezone          string   `json:"timezone"`
	StartAt           string   `json:"start_at"`
	EndAt             string   `json:"end_at"`
	DurationMinutes   int      `json:"duration_minutes"`
	VoiceAttendees    []string `json:"voice_attendees"`
	AsyncOnly         []string `json:"async_only"`
	NoParticipation   []string `json:"no_participation"`
	AsyncUpdateCount  int      `json:"async_update_count"`
	TotalTeam         int      `json:"total_team"`
	ParticipationRate float64  `json:"participation_rate"`
	Status            string   `json:"status"`
}

type Sender interface {
	SendReport(ctx context.Context, payload ReportWebhookPayload) error
}
