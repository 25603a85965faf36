package standup

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/standupbot/internal/discord"
)

// discordRoster reads the standup voice channel occupants.
type discordRoster struct {
	client    discord.Client
	guildID   string
	channelID string
}

func NewDiscordRoster(client discord.Client, guildID, channelID string) RosterSource {
	return &discordRoster{client: client, guildID: guildID, channelID: channelID}
}

func (r *discordRoster) ListOccupants(ctx context.Context) ([]Occupant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	participants, err := r.client.ListVoiceChannelParticipants(r.guildID, r.channelID)
	if err != nil {
		return nil, fmt.Errorf("voice channel %s: %w", r.channelID, err)
	}
	occupants := make([]Occupant, 0, len(participants))
	for _, p := range participants {
		occupants = append(occupants, Occupant{ID: p.UserID, DisplayName: p.DisplayName, IsBot: p.IsBot})
	}
	return occupants, nil
}

// discordHistory reads the async update text channel.
type discordHistory struct {
	client    discord.Client
	guildID   string
	channelID string
}

func NewDiscordHistory(client discord.Client, guildID, channelID string) MessageSource {
	return &discordHistory{client: client, guildID: guildID, channelID: channelID}
}

func (h *discordHistory) History(ctx context.Context, after time.Time, limit int) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(Message{}, err)
			return
		}
		msgs, err := h.client.ListChannelMessages(h.guildID, h.channelID, after, limit)
		if err != nil {
			yield(Message{}, fmt.Errorf("channel %s history: %w", h.channelID, err))
			return
		}
		for _, msg := range msgs {
			if !yield(Message{
				AuthorID:          msg.AuthorID,
				AuthorDisplayName: msg.AuthorDisplayName,
				AuthorIsBot:       msg.AuthorIsBot,
				Content:           msg.Content,
				CreatedAt:         msg.CreatedAt,
			}, nil) {
				return
			}
		}
	}
}

type discordDirectory struct {
	client  discord.Client
	guildID string
}

func NewDiscordDirectory(client discord.Client, guildID string) Directory {
	return &discordDirectory{client: client, guildID: guildID}
}

func (d *discordDirectory) ResolveMemberName(ctx context.Context, memberID string) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	member, ok := d.client.ResolveMember(d.guildID, memberID)
	if !ok || member.DisplayName == "" {
		return "", false
	}
	return member.DisplayName, true
}

// discordVoice holds the bot's own voice connection between Join and Leave.
type discordVoice struct {
	client    discord.Client
	guildID   string
	channelID string

	mu   sync.Mutex
	conn discord.VoiceConnection
}

func NewDiscordVoice(client discord.Client, guildID, channelID string) VoicePresence {
	return &discordVoice{client: client, guildID: guildID, channelID: channelID}
}

func (v *discordVoice) Join(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conn != nil {
		return nil
	}
	conn, err := v.client.JoinVoiceChannel(v.guildID, v.channelID)
	if err != nil {
		return fmt.Errorf("join voice channel %s: %w", v.channelID, err)
	}
	v.conn = conn
	slog.Info("joined standup voice channel", "guild_id", v.guildID, "channel_id", v.channelID)
	return nil
}

func (v *discordVoice) Leave(_ context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conn == nil {
		return nil
	}
	conn := v.conn
	v.conn = nil
	if err := conn.Disconnect(); err != nil {
		return fmt.Errorf("leave voice channel %s: %w", v.channelID, err)
	}
	slog.Info("left standup voice channel", "guild_id", v.guildID, "channel_id", v.channelID)
	return nil
}
