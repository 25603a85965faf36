package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/standupbot/internal/config"
	"gopkg.in/yaml.v3"
)

type envConfig struct {
	Env                   string `env:"ENV" envDefault:"production"`
	DiscordToken          string `env:"DISCORD_TOKEN,required"`
	DiscordGuildID        string `env:"DISCORD_GUILD_ID,required"`
	StandupVoiceChannelID string `env:"STANDUP_VOICE_CHANNEL_ID,required"`
	AsyncUpdateChannelID  string `env:"ASYNC_UPDATE_CHANNEL_ID,required"`
	ReportChannelID       string `env:"REPORT_CHANNEL_ID,required"`
	Timezone              string `env:"TIMEZONE" envDefault:"Asia/Dhaka"`
	StandupStartHour      int    `env:"STANDUP_START_HOUR" envDefault:"11"`
	StandupStartMinute    int    `env:"STANDUP_START_MINUTE" envDefault:"0"`
	StandupEndHour        int    `env:"STANDUP_END_HOUR" envDefault:"11"`
	StandupEndMinute      int    `env:"STANDUP_END_MINUTE" envDefault:"15"`
	AsyncCutoffHour       *int   `env:"ASYNC_CUTOFF_HOUR"`
	AsyncCutoffMinute     *int   `env:"ASYNC_CUTOFF_MINUTE"`
	PrecheckHour          int    `env:"PRECHECK_HOUR" envDefault:"10"`
	PrecheckMinute        int    `env:"PRECHECK_MINUTE" envDefault:"55"`
	TeamMemberIDs         string `env:"TEAM_MEMBER_IDS"`
	TeamRosterFile        string `env:"TEAM_ROSTER_FILE"`
	DataDir               string `env:"DATA_DIR" envDefault:"data"`
	ReportWebhookURL      string `env:"REPORT_WEBHOOK_URL"`
	JoinVoiceChannel      bool   `env:"JOIN_VOICE_CHANNEL" envDefault:"true"`
	TestStandupSeconds    int    `env:"TEST_STANDUP_SECONDS" envDefault:"30"`
	CollaboratorTimeout   int    `env:"COLLABORATOR_TIMEOUT_SECONDS" envDefault:"30"`
}

type rosterFile struct {
	Members []struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"members"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	start := internalconfig.TimeOfDay{Hour: raw.StandupStartHour, Minute: raw.StandupStartMinute}
	cutoff := resolveCutoff(raw.AsyncCutoffHour, raw.AsyncCutoffMinute, start)
	members, err := resolveTeamMembers(raw.TeamMemberIDs, raw.TeamRosterFile)
	if err != nil {
		return nil, err
	}

	cfg := &internalconfig.Config{
		Env:                   raw.Env,
		DiscordToken:          raw.DiscordToken,
		DiscordGuildID:        raw.DiscordGuildID,
		StandupVoiceChannelID: raw.StandupVoiceChannelID,
		AsyncUpdateChannelID:  raw.AsyncUpdateChannelID,
		ReportChannelID:       raw.ReportChannelID,
		Timezone:              raw.Timezone,
		StandupStart:          start,
		StandupEnd:            internalconfig.TimeOfDay{Hour: raw.StandupEndHour, Minute: raw.StandupEndMinute},
		AsyncCutoff:           cutoff,
		Precheck:              internalconfig.TimeOfDay{Hour: raw.PrecheckHour, Minute: raw.PrecheckMinute},
		TeamMembers:           members,
		DataDir:               raw.DataDir,
		ReportWebhookURL:      raw.ReportWebhookURL,
		JoinVoiceChannel:      raw.JoinVoiceChannel,
		TestStandupSeconds:    raw.TestStandupSeconds,
		CollaboratorTimeout:   time.Duration(raw.CollaboratorTimeout) * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveCutoff defaults each unset cutoff component to the standup start.
func resolveCutoff(hour, minute *int, start internalconfig.TimeOfDay) internalconfig.TimeOfDay {
	cutoff := start
	if hour != nil {
		cutoff.Hour = *hour
	}
	if minute != nil {
		cutoff.Minute = *minute
	}
	return cutoff
}

func resolveTeamMembers(idsEnv, rosterPath string) ([]internalconfig.TeamMember, error) {
	names := map[string]string{}
	var fileOrder []string
	if rosterPath != "" {
		b, err := os.ReadFile(rosterPath)
		if err != nil {
			return nil, fmt.Errorf("TEAM_ROSTER_FILE could not be read: %w", err)
		}
		var rf rosterFile
		if err := yaml.Unmarshal(b, &rf); err != nil {
			return nil, fmt.Errorf("TEAM_ROSTER_FILE is not valid yaml: %w", err)
		}
		for _, m := range rf.Members {
			id := strings.TrimSpace(m.ID)
			if id == "" {
				continue
			}
			if _, seen := names[id]; !seen {
				fileOrder = append(fileOrder, id)
			}
			names[id] = strings.TrimSpace(m.Name)
		}
	}

	ids := parseIDList(idsEnv)
	if len(ids) == 0 {
		ids = fileOrder
	}
	members := make([]internalconfig.TeamMember, 0, len(ids))
	for _, id := range ids {
		members = append(members, internalconfig.TeamMember{ID: id, Name: names[id]})
	}
	return members, nil
}

func parseIDList(s string) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, part := range strings.Split(s, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
