package config

import (
	"fmt"
	"time"
)

type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("hour must be within 0-23, got %d", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("minute must be within 0-59, got %d", t.Minute)
	}
	return nil
}

// MinutesOfDay returns the number of minutes elapsed since midnight.
func (t TimeOfDay) MinutesOfDay() int {
	return t.Hour*60 + t.Minute
}

// On returns the instant at this time of day on the calendar day of ref, in ref's location.
func (t TimeOfDay) On(ref time.Time) time.Time {
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, ref.Location())
}

// Matches reports whether now falls in the same hour and minute.
func (t TimeOfDay) Matches(now time.Time) bool {
	return now.Hour() == t.Hour && now.Minute() == t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

type TeamMember struct {
	ID   string
	Name string
}

type Config struct {
	Env                   string
	DiscordToken          string
	DiscordGuildID        string
	StandupVoiceChannelID string
	AsyncUpdateChannelID  string
	ReportChannelID       string
	Timezone              string
	StandupStart          TimeOfDay
	StandupEnd            TimeOfDay
	AsyncCutoff           TimeOfDay
	Precheck              TimeOfDay
	TeamMembers           []TeamMember
	DataDir               string
	ReportWebhookURL      string
	JoinVoiceChannel      bool
	TestStandupSeconds    int
	CollaboratorTimeout   time.Duration
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}
	for _, tc := range c.timeChecks() {
		if err := tc.value.Validate(); err != nil {
			return fmt.Errorf("%s is invalid: %w", tc.name, err)
		}
	}
	if c.StandupEnd.MinutesOfDay() <= c.StandupStart.MinutesOfDay() {
		return fmt.Errorf("standup end %s must be after start %s", c.StandupEnd, c.StandupStart)
	}
	if c.TestStandupSeconds <= 0 {
		return fmt.Errorf("TEST_STANDUP_SECONDS must be positive, got %d", c.TestStandupSeconds)
	}
	if c.CollaboratorTimeout <= 0 {
		return fmt.Errorf("COLLABORATOR_TIMEOUT_SECONDS must be positive, got %s", c.CollaboratorTimeout)
	}
	for i, m := range c.TeamMembers {
		if m.ID == "" {
			return fmt.Errorf("team member #%d has an empty id", i+1)
		}
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "DISCORD_GUILD_ID", value: c.DiscordGuildID},
		{name: "STANDUP_VOICE_CHANNEL_ID", value: c.StandupVoiceChannelID},
		{name: "ASYNC_UPDATE_CHANNEL_ID", value: c.AsyncUpdateChannelID},
		{name: "REPORT_CHANNEL_ID", value: c.ReportChannelID},
		{name: "TIMEZONE", value: c.Timezone},
		{name: "DATA_DIR", value: c.DataDir},
	}
}

type timeField struct {
	name  string
	value TimeOfDay
}

func (c *Config) timeChecks() []timeField {
	return []timeField{
		{name: "STANDUP_START", value: c.StandupStart},
		{name: "STANDUP_END", value: c.StandupEnd},
		{name: "ASYNC_CUTOFF", value: c.AsyncCutoff},
		{name: "PRECHECK", value: c.Precheck},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location returns the configured zone, falling back to UTC for an unvalidated config.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StandupDuration is the planned length of one standup.
func (c *Config) StandupDuration() time.Duration {
	return time.Duration(c.StandupEnd.MinutesOfDay()-c.StandupStart.MinutesOfDay()) * time.Minute
}

func (c *Config) HasTeamRoster() bool {
	return len(c.TeamMembers) > 0
}
