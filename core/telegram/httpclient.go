package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/telegram/netutil"
)

// Telegram answers long polls within the poll timeout, so the client timeout
// only has to cover that plus a slow response.
const (
	clientTimeout  = 30 * time.Second
	headerTimeout  = 5 * time.Second
	dialTimeout    = 5 * time.Second
	retryAttempts  = 3
	retryFirstWait = time.Second
	retryMaxWait   = 4 * time.Second
)

// BuildHTTPClient returns the client telebot uses for Bot API calls.
// Transient failures are retried with jittered exponential backoff.
func BuildHTTPClient() *http.Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext
	base.TLSHandshakeTimeout = dialTimeout
	base.ResponseHeaderTimeout = headerTimeout
	base.MaxIdleConnsPerHost = 10

	return &http.Client{
		Timeout:   clientTimeout,
		Transport: &retryTransport{base: base, attempts: retryAttempts},
	}
}

type retryTransport struct {
	base     http.RoundTripper
	attempts uint64
}

func (t *retryTransport) policy(req *http.Request) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = retryFirstWait
	eb.MaxInterval = retryMaxWait
	eb.MaxElapsedTime = clientTimeout
	return backoff.WithContext(backoff.WithMaxRetries(eb, t.attempts), req.Context())
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// A streamed body cannot be replayed, so such requests get one shot.
	if req.Body != nil && req.GetBody == nil {
		return t.base.RoundTrip(req)
	}

	attempt := 0
	call := func() (*http.Response, error) {
		attempt++
		r := req
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			r = req.Clone(req.Context())
			r.Body = body
		}
		resp, err := t.base.RoundTrip(r)
		if err != nil && !netutil.ShouldRetry(err) {
			return nil, backoff.Permanent(err)
		}
		return resp, err
	}
	notify := func(err error, wait time.Duration) {
		logger.LogEvent(req.Context(), logger.TG, slog.LevelWarn, "http.retry",
			slog.String("status", "retry"),
			slog.String("endpoint", telegramMethod(req)),
			slog.String("err_code", netutil.Classify(err)),
			slog.Int("attempts", attempt),
			slog.Int64("backoff_ms", wait.Milliseconds()),
		)
	}
	return backoff.RetryNotifyWithData(call, t.policy(req), notify)
}

// telegramMethod names the Bot API method without the token-bearing path.
func telegramMethod(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	return path.Base(req.URL.Path)
}
