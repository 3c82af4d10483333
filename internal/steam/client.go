// Package steam talks to the Steam Web API: the hero reference table and
// vanity URL resolution.
package steam

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/internal/apperr"
	"github.com/m3rciful/mydotainfo/internal/upstream"
)

// DefaultBaseURL is the public Steam Web API root.
const DefaultBaseURL = "https://api.steampowered.com"

// Options configures Client.
type Options struct {
	BaseURL  string
	APIKey   string
	Language string
	Timeout  time.Duration
}

// Client is a Steam Web API client.
type Client struct {
	base     string
	apiKey   string
	language string
	http     *upstream.Client
}

// Hero is one entry of the GetHeroes table.
type Hero struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	LocalizedName string `json:"localized_name"`
}

type heroesResponse struct {
	Result struct {
		Heroes []Hero `json:"heroes"`
		Status int    `json:"status"`
	} `json:"result"`
}

type vanityResponse struct {
	Response struct {
		SteamID string `json:"steamid"`
		Success int    `json:"success"`
		Message string `json:"message"`
	} `json:"response"`
}

// New builds a Client.
func New(opts Options) *Client {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = "en_us"
	}
	return &Client{
		base:     base,
		apiKey:   opts.APIKey,
		language: lang,
		http:     upstream.New("steam", opts.Timeout, logger.STEAM),
	}
}

func (c *Client) url(method string, q url.Values) string {
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	q.Set("format", "json")
	return c.base + "/" + method + "/?" + q.Encode()
}

// Heroes returns the localized hero table. A rejected key surfaces as an
// upstream error with status 403.
func (c *Client) Heroes(ctx context.Context) ([]Hero, error) {
	q := url.Values{"language": {c.language}}
	resp, err := upstream.GetJSON[heroesResponse](ctx, c.http, "GetHeroes", c.url("IEconDOTA2_570/GetHeroes/v0001", q))
	if err != nil {
		return nil, err
	}
	if len(resp.Result.Heroes) == 0 {
		return nil, apperr.Upstream("steam", "GetHeroes", resp.Result.Status, fmt.Errorf("empty hero table"))
	}
	return resp.Result.Heroes, nil
}

// ResolveVanity maps a vanity name to a Steam64 id. An unknown name yields
// apperr.ErrInvalidHandle.
func (c *Client) ResolveVanity(ctx context.Context, vanity string) (uint64, error) {
	q := url.Values{"vanityurl": {vanity}}
	resp, err := upstream.GetJSON[vanityResponse](ctx, c.http, "ResolveVanityURL", c.url("ISteamUser/ResolveVanityURL/v0001", q))
	if err != nil {
		return 0, err
	}
	if resp.Response.Success != 1 {
		return 0, fmt.Errorf("steam: vanity %q: %w", vanity, apperr.ErrInvalidHandle)
	}
	id, err := parseSteam64(resp.Response.SteamID)
	if err != nil {
		return 0, fmt.Errorf("steam: vanity %q: %w", vanity, err)
	}
	return id, nil
}
