package standup

import (
	"github.com/foxseedlab/standupbot/internal/clock"
	"github.com/foxseedlab/standupbot/internal/config"
	"github.com/foxseedlab/standupbot/internal/discord"
	"github.com/foxseedlab/standupbot/internal/repository"
	"github.com/foxseedlab/standupbot/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		clk := do.MustInvoke[clock.Clock](i)
		repo := do.MustInvoke[repository.Repository](i)
		dc := do.MustInvoke[discord.Client](i)
		wh := do.MustInvoke[webhook.Sender](i)

		loc := cfg.Location()
		deps := Dependencies{
			Clock:     clk,
			Roster:    NewDiscordRoster(dc, cfg.DiscordGuildID, cfg.StandupVoiceChannelID),
			Messages:  NewDiscordHistory(dc, cfg.DiscordGuildID, cfg.AsyncUpdateChannelID),
			Directory: NewDiscordDirectory(dc, cfg.DiscordGuildID),
			Notifier: NewMultiNotifier(
				NewChannelNotifier(dc, cfg.ReportChannelID, loc),
				NewWebhookNotifier(wh, loc),
			),
			Records: repo,
		}
		if cfg.JoinVoiceChannel {
			deps.Voice = NewDiscordVoice(dc, cfg.DiscordGuildID, cfg.StandupVoiceChannelID)
		}
		return NewManager(cfg, deps), nil
	})
}
