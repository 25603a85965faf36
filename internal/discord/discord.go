package discord

import (
	"context"
	"time"
)

type SlashCommandOption struct {
	Name        string
	Description string
	Required    bool
}

// SlashCommandDefinition describes a guild command. Options are integer-typed.
type SlashCommandDefinition struct {
	Name        string
	Description string
	IntOptions  []SlashCommandOption
}

type SlashCommandEvent struct {
	GuildID          string
	ChannelID        string
	CommandName      string
	UserID           string
	UserIsAdmin      bool
	IntOptions       map[string]int64
	RespondEphemeral func(content string) error
	Respond          func(content string) error
	Defer            func() error
	Followup         func(content string) error
}

type VoiceParticipant struct {
	UserID      string
	DisplayName string
	IsBot       bool
}

type ChannelMessage struct {
	ID                string
	AuthorID          string
	AuthorDisplayName string
	AuthorIsBot       bool
	Content           string
	CreatedAt         time.Time
}

type Member struct {
	UserID      string
	DisplayName string
	IsBot       bool
}

type Client interface {
	Connect(ctx context.Context) error
	Close() error
	JoinVoiceChannel(guildID, channelID string) (VoiceConnection, error)
	SendChannelMessage(channelID, content string) error
	RegisterSlashCommandHandler(handler func(SlashCommandEvent))
	UpsertGuildSlashCommands(guildID string, defs []SlashCommandDefinition) error
	ListVoiceChannelParticipants(guildID, channelID string) ([]VoiceParticipant, error)
	// ListChannelMessages returns up to limit messages created after the given instant, oldest first.
	ListChannelMessages(guildID, channelID string, after time.Time, limit int) ([]ChannelMessage, error)
	ResolveMember(guildID, userID string) (Member, bool)
	GetBotUserID() (string, error)
}

type VoiceConnection interface {
	Disconnect() error
}
