// Package opendota is a read-only client for the OpenDota player endpoints.
package opendota

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/internal/dota"
	"github.com/m3rciful/mydotainfo/internal/upstream"
)

// DefaultBaseURL is the public OpenDota API root.
const DefaultBaseURL = "https://api.opendota.com/api"

// Options configures Client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client fetches player statistics keyed by account id.
type Client struct {
	base   string
	apiKey string
	http   *upstream.Client
}

// New builds a Client; zero options fall back to the public API and default timeout.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		base:   base,
		apiKey: opts.APIKey,
		http:   upstream.New("opendota", opts.Timeout, logger.STATS),
	}
}

func (c *Client) url(id dota.AccountID, suffix string) string {
	u := c.base + "/players/" + id.String() + suffix
	if c.apiKey != "" {
		u += "?" + url.Values{"api_key": {c.apiKey}}.Encode()
	}
	return u
}

// Player returns the profile summary.
func (c *Client) Player(ctx context.Context, id dota.AccountID) (*Player, error) {
	return upstream.GetJSON[Player](ctx, c.http, "players", c.url(id, ""))
}

// WinLoss returns lifetime win/loss totals.
func (c *Client) WinLoss(ctx context.Context, id dota.AccountID) (*WinLoss, error) {
	return upstream.GetJSON[WinLoss](ctx, c.http, "wl", c.url(id, "/wl"))
}

// RecentMatches returns the most recent matches, newest first.
func (c *Client) RecentMatches(ctx context.Context, id dota.AccountID) ([]RecentMatch, error) {
	out, err := upstream.GetJSON[[]RecentMatch](ctx, c.http, "recentMatches", c.url(id, "/recentMatches"))
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// WordCloud returns chat word counts.
func (c *Client) WordCloud(ctx context.Context, id dota.AccountID) (*WordCloud, error) {
	return upstream.GetJSON[WordCloud](ctx, c.http, "wordcloud", c.url(id, "/wordcloud"))
}

// Heroes returns per-hero totals in provider order.
func (c *Client) Heroes(ctx context.Context, id dota.AccountID) ([]HeroStat, error) {
	out, err := upstream.GetJSON[[]HeroStat](ctx, c.http, "heroes", c.url(id, "/heroes"))
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// Pros returns professional players the account has played with.
func (c *Client) Pros(ctx context.Context, id dota.AccountID) ([]ProPlayer, error) {
	out, err := upstream.GetJSON[[]ProPlayer](ctx, c.http, "pros", c.url(id, "/pros"))
	if err != nil {
		return nil, err
	}
	return *out, nil
}
