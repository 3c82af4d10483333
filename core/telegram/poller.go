package telegram

import (
	"net"
	"strconv"
	"time"

	coreconfig "github.com/m3rciful/mydotainfo/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultPollTimeoutSeconds = 10

// BuildPoller picks the update source for cfg: a webhook listener when
// run_mode is webhook, otherwise long polling.
func BuildPoller(cfg *coreconfig.Config) tele.Poller {
	if cfg != nil && cfg.Telegram.RunMode == coreconfig.RunModeWebhook {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(cfg.Webhook.Listen, strconv.Itoa(cfg.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Webhook.URL},
		}
	}
	return &tele.LongPoller{Timeout: pollTimeout(cfg)}
}

func pollTimeout(cfg *coreconfig.Config) time.Duration {
	sec := defaultPollTimeoutSeconds
	if cfg != nil && cfg.Telegram.LongPollTimeoutSeconds > 0 {
		sec = cfg.Telegram.LongPollTimeoutSeconds
	}
	return time.Duration(sec) * time.Second
}
