package router

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/mydotainfo/core/logger"
	tg "github.com/m3rciful/mydotainfo/core/telegram"
	"github.com/m3rciful/mydotainfo/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures CommandRoutes.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes binds every registered command and each of its aliases.
// Admin-only commands are guarded by the admin check inside the summary, so
// rejections are logged like any other outcome.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	admin := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	var routes []tg.Route
	for name, def := range cmds {
		inner := def.Handler
		if def.AdminOnly {
			inner = admin(inner)
		}
		handlerName := normalizeHandlerName(name)
		h := middleware.RecoverMiddleware(func(c tele.Context) error {
			return serve(c, handlerName, inner)
		})

		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range def.Aliases {
			if alias = strings.TrimSpace(alias); alias != "" {
				routes = append(routes, tg.Route{Endpoint: "/" + strings.TrimPrefix(alias, "/"), Handler: h})
			}
		}
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "wire.complete",
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.ListCallbacks())),
	)
	return routes
}
