// Package app assembles MyDotaInfo from configuration: provider clients,
// reference tables, the report generator, the dialogue machine and the
// Telegram wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/mydotainfo/core/bootstrap"
	coreconfig "github.com/m3rciful/mydotainfo/core/config"
	"github.com/m3rciful/mydotainfo/core/logger"
	coretelegram "github.com/m3rciful/mydotainfo/core/telegram"
	"github.com/m3rciful/mydotainfo/core/telegram/router"
	"github.com/m3rciful/mydotainfo/core/telegram/state"
	"github.com/m3rciful/mydotainfo/internal/bot"
	"github.com/m3rciful/mydotainfo/internal/config"
	"github.com/m3rciful/mydotainfo/internal/dialogue"
	"github.com/m3rciful/mydotainfo/internal/opendota"
	"github.com/m3rciful/mydotainfo/internal/refdata"
	"github.com/m3rciful/mydotainfo/internal/report"
	"github.com/m3rciful/mydotainfo/internal/steam"
)

// App holds the assembled bot.
type App struct {
	cfg     *config.Config
	heroes  *refdata.HeroCatalog
	machine *dialogue.Machine
	bot     *bot.Bot
}

// New builds every component from cfg. It performs no network calls.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	lobbies, err := refdata.LoadLobbyTypes()
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	stats := opendota.New(opendota.Options{
		BaseURL: cfg.OpenDota.BaseURL,
		APIKey:  cfg.OpenDota.APIKey,
		Timeout: cfg.OpenDotaTimeout(),
	})
	steamClient := steam.New(steam.Options{
		BaseURL:  cfg.Steam.BaseURL,
		APIKey:   cfg.Steam.APIKey,
		Language: cfg.Steam.Language,
		Timeout:  cfg.SteamTimeout(),
	})
	heroes := refdata.NewHeroCatalog(steamClient)
	reports := report.New(stats, heroes, lobbies, cfg.Reports.MaxMatches)

	machine := dialogue.New(
		state.NewMemoryManager(dialogue.StateMenu),
		steam.NewResolver(steamClient),
		reports,
		dialogue.Options{MessageLimit: cfg.Reports.MessageLimit, MaxMatches: reports.MaxMatches()},
	)

	return &App{
		cfg:     cfg,
		heroes:  heroes,
		machine: machine,
		bot:     bot.New(machine, heroes),
	}, nil
}

// CoreConfig exposes the shared core configuration.
func (a *App) CoreConfig() *coreconfig.Config {
	return a.cfg.CoreConfig()
}

// Warmups lists what bootstrap prepares before serving: the hero table.
// Reports load it lazily anyway, so it only aborts startup when configured.
func (a *App) Warmups() []bootstrap.Warmup {
	return []bootstrap.Warmup{
		bootstrap.WarmupFunc{
			Label:    "heroes",
			Required: a.cfg.Bootstrap.RequireHeroes,
			Fn:       a.heroes.Warm,
		},
	}
}

// Bootstrap runs the logger init and warmups for a.
func (a *App) Bootstrap(ctx context.Context) error {
	return bootstrap.Run(ctx, bootstrap.Options{
		Config:  a.CoreConfig(),
		Warmups: a.Warmups(),
		Retry:   bootstrap.RetryOptions{MaxElapsed: a.cfg.WarmupBudget()},
	})
}

// TelegramRunOptions wires the registry, routes and middlewares.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.CoreConfig()
	reg := coretelegram.NewRegistry()
	if err := a.bot.Register(reg); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: %w", err)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID:       core.Telegram.AdminID,
		OnAdminReject: bot.AdminReject,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a.bot, reg, router.TextOptions{
		UnknownCommand:  reg.CommandNotFound(),
		UnexpectedMedia: a.bot.UnexpectedMedia(),
	})...)

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(core, nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			logger.APP.LogAttrs(ctx, slog.LevelInfo, "sessions dropped",
				slog.String("event", "sessions.drop"),
				slog.Int("count", a.machine.Sessions()),
			)
			return nil
		},
	}, nil
}
