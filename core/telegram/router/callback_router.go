package router

import (
	"log/slog"

	tg "github.com/m3rciful/mydotainfo/core/telegram"
	"github.com/m3rciful/mydotainfo/core/telegram/callbacks"
	"github.com/m3rciful/mydotainfo/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackOptions configures CallbackRoute.
type CallbackOptions struct {
	// NotFound is used when the registry has no unknown callback fallback.
	NotFound tele.HandlerFunc
}

// CallbackRoute dispatches every inline button press by its unique key.
// Known keys get an empty answer first so the button stops spinning;
// unknown keys are left to the fallback, which may answer with a toast.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	if reg == nil {
		reg = tg.NewRegistry()
	}
	route := func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		key, _ := callbacks.ParseCallbackData(cb)
		tag := slog.String("cb_key", key)

		if h, ok := reg.GetCallback(key); ok {
			_ = c.Respond()
			return serve(c, "callback."+normalizeHandlerName(key), h, tag)
		}

		fallback := reg.CallbackNotFound()
		if fallback == nil {
			fallback = opts.NotFound
		}
		if fallback == nil {
			fallback = func(c tele.Context) error { return c.Respond() }
		}
		return serve(c, "callback.unknown", fallback, tag, slog.String("cause", "not_found"))
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: middleware.RecoverMiddleware(route)}
}
