package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	discordpkg "github.com/foxseedlab/standupbot/internal/discord"
)

// discordEpochMillis is 2015-01-01T00:00:00Z, the origin of snowflake timestamps.
const discordEpochMillis int64 = 1420070400000

const maxMessagesPerRequest = 100

type Client struct {
	session   *discordgo.Session
	token     string
	botUserID string
}

func NewClient(token string) discordpkg.Client {
	return &Client{
		token: token,
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(
		discordgo.IntentsGuilds |
			discordgo.IntentsGuildVoiceStates |
			discordgo.IntentsGuildMembers |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsMessageContent,
	)
	s.State.TrackVoice = true
	s.State.TrackMembers = true
	if err := s.Open(); err != nil {
		return err
	}
	userID, err := c.GetBotUserID()
	if err != nil {
		return err
	}
	c.botUserID = userID
	return nil
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) JoinVoiceChannel(guildID, channelID string) (discordpkg.VoiceConnection, error) {
	if c.session == nil {
		return nil, fmt.Errorf("discord session is not initialized")
	}
	vc, err := c.session.ChannelVoiceJoin(guildID, channelID, true, true)
	if err != nil {
		return nil, err
	}
	return &voiceConnectionImpl{vc: vc}, nil
}

func (c *Client) SendChannelMessage(channelID, content string) error {
	if c.session == nil {
		return fmt.Errorf("discord session is not initialized")
	}
	_, err := c.session.ChannelMessageSend(channelID, content)
	return err
}

func (c *Client) RegisterSlashCommandHandler(handler func(discordpkg.SlashCommandEvent)) {
	c.session.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic == nil || ic.Type != discordgo.InteractionApplicationCommand {
			return
		}
		data := ic.ApplicationCommandData()
		if data.Name == "" {
			return
		}
		userID := ""
		isAdmin := false
		if ic.Member != nil && ic.Member.User != nil {
			userID = ic.Member.User.ID
			isAdmin = ic.Member.Permissions&discordgo.PermissionAdministrator != 0
		}
		if userID == "" && ic.User != nil {
			userID = ic.User.ID
		}
		if userID == "" {
			return
		}
		slog.Info("slash command interaction received", "guild_id", ic.GuildID, "channel_id", ic.ChannelID, "command", data.Name, "user_id", userID)
		handler(discordpkg.SlashCommandEvent{
			GuildID:     ic.GuildID,
			ChannelID:   ic.ChannelID,
			CommandName: data.Name,
			UserID:      userID,
			UserIsAdmin: isAdmin,
			IntOptions:  intOptions(data.Options),
			RespondEphemeral: func(content string) error {
				return respond(s, ic.Interaction, content, discordgo.MessageFlagsEphemeral)
			},
			Respond: func(content string) error {
				return respond(s, ic.Interaction, content, 0)
			},
			Defer: func() error {
				return s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
					Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
				})
			},
			Followup: func(content string) error {
				_, err := s.FollowupMessageCreate(ic.Interaction, false, &discordgo.WebhookParams{Content: content})
				return err
			},
		})
	})
}

func respond(s *discordgo.Session, interaction *discordgo.Interaction, content string, flags discordgo.MessageFlags) error {
	return s.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func intOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]int64 {
	out := make(map[string]int64, len(opts))
	for _, opt := range opts {
		if opt == nil || opt.Type != discordgo.ApplicationCommandOptionInteger {
			continue
		}
		out[opt.Name] = opt.IntValue()
	}
	return out
}

func (c *Client) UpsertGuildSlashCommands(guildID string, defs []discordpkg.SlashCommandDefinition) error {
	appID := c.applicationID()
	if appID == "" {
		return fmt.Errorf("discord application id is not available")
	}
	existing, err := c.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return err
	}
	existingByName := make(map[string]*discordgo.ApplicationCommand, len(existing))
	for _, cmd := range existing {
		if cmd == nil || cmd.Name == "" {
			continue
		}
		existingByName[cmd.Name] = cmd
	}
	for _, def := range defs {
		if err := c.upsertGuildSlashCommand(appID, guildID, def, existingByName); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) upsertGuildSlashCommand(appID, guildID string, def discordpkg.SlashCommandDefinition, existingByName map[string]*discordgo.ApplicationCommand) error {
	if def.Name == "" {
		return nil
	}
	payload := applicationCommandPayload(def)
	cmd, ok := existingByName[def.Name]
	if !ok {
		_, err := c.session.ApplicationCommandCreate(appID, guildID, payload)
		return err
	}
	if sameCommandShape(cmd, payload) {
		return nil
	}
	_, err := c.session.ApplicationCommandEdit(appID, guildID, cmd.ID, payload)
	return err
}

func applicationCommandPayload(def discordpkg.SlashCommandDefinition) *discordgo.ApplicationCommand {
	payload := &discordgo.ApplicationCommand{
		Name:        def.Name,
		Description: def.Description,
	}
	for _, opt := range def.IntOptions {
		payload.Options = append(payload.Options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        opt.Name,
			Description: opt.Description,
			Required:    opt.Required,
		})
	}
	return payload
}

func sameCommandShape(existing, desired *discordgo.ApplicationCommand) bool {
	if existing.Description != desired.Description || len(existing.Options) != len(desired.Options) {
		return false
	}
	for i, opt := range desired.Options {
		got := existing.Options[i]
		if got == nil || got.Name != opt.Name || got.Type != opt.Type || got.Description != opt.Description || got.Required != opt.Required {
			return false
		}
	}
	return true
}

func (c *Client) ListVoiceChannelParticipants(guildID, channelID string) ([]discordpkg.VoiceParticipant, error) {
	if c.session == nil || c.session.State == nil {
		return nil, fmt.Errorf("discord session is not initialized")
	}
	guild, err := c.session.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("guild %s is not available in state: %w", guildID, err)
	}
	participants := make([]discordpkg.VoiceParticipant, 0)
	seen := make(map[string]struct{})
	for _, state := range guild.VoiceStates {
		if state == nil || state.ChannelID != channelID || state.UserID == "" {
			continue
		}
		if _, exists := seen[state.UserID]; exists {
			continue
		}
		seen[state.UserID] = struct{}{}
		member := c.resolveMember(guildID, state.UserID, state.Member)
		participants = append(participants, discordpkg.VoiceParticipant{
			UserID:      state.UserID,
			DisplayName: member.DisplayName,
			IsBot:       c.resolveUserIsBot(guildID, state.UserID, state),
		})
	}
	return participants, nil
}

func (c *Client) ListChannelMessages(guildID, channelID string, after time.Time, limit int) ([]discordpkg.ChannelMessage, error) {
	if c.session == nil {
		return nil, fmt.Errorf("discord session is not initialized")
	}
	if limit <= 0 || limit > maxMessagesPerRequest {
		limit = maxMessagesPerRequest
	}
	msgs, err := c.session.ChannelMessages(channelID, limit, "", snowflakeBefore(after), "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return snowflakeLess(msgs[i].ID, msgs[j].ID)
	})

	authors := make(map[string]discordpkg.Member)
	out := make([]discordpkg.ChannelMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil || m.Author == nil {
			continue
		}
		author, ok := authors[m.Author.ID]
		if !ok {
			author = c.resolveMember(guildID, m.Author.ID, m.Member)
			if author.DisplayName == m.Author.ID {
				author.DisplayName = preferredDiscordName(m.Author.GlobalName, m.Author.Username, m.Author.ID)
			}
			author.IsBot = m.Author.Bot
			authors[m.Author.ID] = author
		}
		out = append(out, discordpkg.ChannelMessage{
			ID:                m.ID,
			AuthorID:          m.Author.ID,
			AuthorDisplayName: author.DisplayName,
			AuthorIsBot:       m.Author.Bot,
			Content:           m.Content,
			CreatedAt:         m.Timestamp,
		})
	}
	return out, nil
}

// snowflakeBefore returns the largest snowflake strictly older than t, so that
// an "after" query includes messages created exactly at t.
func snowflakeBefore(t time.Time) string {
	ms := t.UnixMilli() - discordEpochMillis
	if ms <= 0 {
		return "0"
	}
	return strconv.FormatUint(uint64(ms)<<22-1, 10)
}

func snowflakeLess(a, b string) bool {
	ai, errA := strconv.ParseUint(a, 10, 64)
	bi, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return ai < bi
}

func (c *Client) ResolveMember(guildID, userID string) (discordpkg.Member, bool) {
	if c.session == nil || userID == "" {
		return discordpkg.Member{}, false
	}
	if c.resolveGuildMember(guildID, userID) == nil {
		return discordpkg.Member{}, false
	}
	return c.resolveMember(guildID, userID, nil), true
}

func (c *Client) GetBotUserID() (string, error) {
	if c.botUserID != "" {
		return c.botUserID, nil
	}
	if c.session == nil {
		return "", fmt.Errorf("discord session is not initialized")
	}
	if c.session.State != nil && c.session.State.User != nil && c.session.State.User.ID != "" {
		c.botUserID = c.session.State.User.ID
		return c.botUserID, nil
	}
	u, err := c.session.User("@me")
	if err != nil {
		return "", err
	}
	c.botUserID = u.ID
	return c.botUserID, nil
}

func (c *Client) resolveUserIsBot(guildID, userID string, state *discordgo.VoiceState) bool {
	if isBot, ok := botFlagFromVoiceState(state); ok {
		return isBot
	}
	if isBot, ok := c.botFlagFromSessionState(guildID, userID); ok {
		return isBot
	}
	return c.botFlagFromUserAPI(userID)
}

func botFlagFromVoiceState(state *discordgo.VoiceState) (bool, bool) {
	if state != nil && state.Member != nil && state.Member.User != nil {
		return state.Member.User.Bot, true
	}
	return false, false
}

func (c *Client) botFlagFromSessionState(guildID, userID string) (bool, bool) {
	if c.session == nil || c.session.State == nil {
		return false, false
	}
	if c.session.State.User != nil && c.session.State.User.ID == userID {
		return true, true
	}
	member, err := c.session.State.Member(guildID, userID)
	if err == nil && member != nil && member.User != nil {
		return member.User.Bot, true
	}
	return false, false
}

func (c *Client) botFlagFromUserAPI(userID string) bool {
	u, err := c.session.User(userID)
	if err != nil {
		return false
	}
	return u.Bot
}

// resolveMember prefers a member already attached to the event, then the state
// cache, then REST, and finally falls back to the user id as display name.
func (c *Client) resolveMember(guildID, userID string, attached *discordgo.Member) discordpkg.Member {
	out := discordpkg.Member{UserID: userID, DisplayName: userID}
	member := attached
	if member == nil || member.User == nil {
		member = c.resolveGuildMember(guildID, userID)
	}
	if member == nil {
		return out
	}
	if member.Nick != "" {
		out.DisplayName = member.Nick
	}
	if member.User != nil {
		if out.DisplayName == userID {
			out.DisplayName = preferredDiscordName(member.User.GlobalName, member.User.Username, userID)
		}
		out.IsBot = member.User.Bot
	}
	return out
}

func (c *Client) resolveGuildMember(guildID, userID string) *discordgo.Member {
	if c.session == nil {
		return nil
	}
	if c.session.State != nil {
		member, err := c.session.State.Member(guildID, userID)
		if err == nil && member != nil {
			return member
		}
	}

	// Cache may be cold right after bot startup; ask Discord API directly as fallback.
	member, err := c.session.GuildMember(guildID, userID)
	if err != nil {
		if !isRESTNotFound(err) {
			slog.Warn("guild member lookup failed", "error", err, "guild_id", guildID, "user_id", userID)
		}
		return nil
	}
	return member
}

func isRESTNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == http.StatusNotFound
}

func preferredDiscordName(globalName, username, fallback string) string {
	if globalName != "" {
		return globalName
	}
	if username != "" {
		return username
	}
	return fallback
}

func (c *Client) applicationID() string {
	if c.session == nil || c.session.State == nil {
		return ""
	}
	if c.session.State.Application != nil && c.session.State.Application.ID != "" {
		return c.session.State.Application.ID
	}
	if c.session.State.User != nil {
		return c.session.State.User.ID
	}
	return ""
}

type voiceConnectionImpl struct {
	vc *discordgo.VoiceConnection
}

func (v *voiceConnectionImpl) Disconnect() error {
	return v.vc.Disconnect()
}
