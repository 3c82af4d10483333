// Package upstream performs bounded JSON GET requests against the stats and
// Steam providers and maps every failure onto apperr.UpstreamError.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/metrics"
	"github.com/m3rciful/mydotainfo/internal/apperr"
)

// DefaultTimeout bounds a single provider call when none is configured.
const DefaultTimeout = 10 * time.Second

// Client is a fasthttp client bound to one provider.
type Client struct {
	service string
	timeout time.Duration
	http    *fasthttp.Client
	log     *slog.Logger
}

// New returns a Client for service; timeout <= 0 selects DefaultTimeout.
func New(service string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Component("client." + service)
	}
	return &Client{
		service: service,
		timeout: timeout,
		log:     log,
		http: &fasthttp.Client{
			Name:                "mydotainfo",
			MaxConnsPerHost:     64,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// Service returns the provider name used in logs and metrics.
func (c *Client) Service() string { return c.service }

type reply struct {
	code int
	body []byte
	err  error
}

// do runs the request on its own goroutine. The pooled request and response
// are released there, after the caller may have stopped waiting.
func (c *Client) do(url string, deadline time.Time) <-chan reply {
	done := make(chan reply, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(url)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("Accept", "application/json")

		if err := c.http.DoDeadline(req, resp, deadline); err != nil {
			done <- reply{err: err}
			return
		}
		done <- reply{code: resp.StatusCode(), body: append([]byte(nil), resp.Body()...)}
	}()
	return done
}

// GetJSON fetches url and decodes the JSON body into T. endpoint is a short
// label for logs and metrics; it never contains credentials.
func GetJSON[T any](ctx context.Context, c *Client, endpoint, url string) (*T, error) {
	var out T
	if err := c.get(ctx, endpoint, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	if err := ctx.Err(); err != nil {
		return apperr.Upstream(c.service, endpoint, 0, err)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	var (
		res  reply
		err  error
		done = c.do(url, deadline)
	)
	select {
	case res = <-done:
		err = res.err
	case <-ctx.Done():
		err = ctx.Err()
	}
	took := time.Since(start)

	if err != nil {
		metrics.ObserveUpstream(c.service, endpoint, 0, took)
		if errors.Is(err, fasthttp.ErrTimeout) {
			err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}
		c.log.LogAttrs(ctx, slog.LevelWarn, "upstream request failed",
			slog.String("event", "upstream.request"),
			slog.String("status", "fail"),
			slog.String("service", c.service),
			slog.String("endpoint", endpoint),
			slog.Duration("duration", took),
			slog.String("err", err.Error()),
		)
		return apperr.Upstream(c.service, endpoint, 0, err)
	}

	code := res.code
	metrics.ObserveUpstream(c.service, endpoint, code, took)
	if code != fasthttp.StatusOK {
		c.log.LogAttrs(ctx, slog.LevelWarn, "upstream non-200",
			slog.String("event", "upstream.request"),
			slog.String("status", "fail"),
			slog.String("service", c.service),
			slog.String("endpoint", endpoint),
			slog.Int("http_code", code),
			slog.Duration("duration", took),
		)
		return apperr.Upstream(c.service, endpoint, code, nil)
	}

	if err := json.Unmarshal(res.body, out); err != nil {
		return apperr.Upstream(c.service, endpoint, code, fmt.Errorf("decode: %w", err))
	}

	c.log.LogAttrs(ctx, slog.LevelDebug, "upstream ok",
		slog.String("event", "upstream.request"),
		slog.String("status", "ok"),
		slog.String("service", c.service),
		slog.String("endpoint", endpoint),
		slog.Int("http_code", code),
		slog.Duration("duration", took),
	)
	return nil
}
