package steam

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/m3rciful/mydotainfo/internal/apperr"
	"github.com/m3rciful/mydotainfo/internal/dota"
)

// steam64Base is the Steam64 id of account 0 in the public universe.
const steam64Base = 76561197960265728

// HandleKind tells how a handle must be resolved.
type HandleKind int

const (
	// HandleVanity needs a ResolveVanityURL round trip.
	HandleVanity HandleKind = iota
	// HandleSteam64 came from a /profiles/ URL and converts locally.
	HandleSteam64
)

// Handle is a parsed profile handle.
type Handle struct {
	Kind    HandleKind
	Vanity  string
	Steam64 uint64
}

// ParseHandle strips every whitespace rune and accepts a bare vanity name,
// .../id/<vanity>[/] or .../profiles/<steam64>[/].
func ParseHandle(raw string) (Handle, error) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return Handle{}, apperr.ErrInvalidHandle
	}

	if rest, ok := after(s, "/profiles/"); ok {
		id, err := parseSteam64(rest)
		if err != nil {
			return Handle{}, err
		}
		return Handle{Kind: HandleSteam64, Steam64: id}, nil
	}
	if rest, ok := after(s, "/id/"); ok {
		if rest == "" {
			return Handle{}, apperr.ErrInvalidHandle
		}
		s = rest
	}
	if strings.Contains(s, "/") {
		return Handle{}, apperr.ErrInvalidHandle
	}
	return Handle{Kind: HandleVanity, Vanity: s}, nil
}

// after returns the path segment following marker with trailing slashes removed.
func after(s, marker string) (string, bool) {
	i := strings.Index(s, marker)
	if i < 0 {
		return "", false
	}
	rest := strings.TrimRight(s[i+len(marker):], "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", true
	}
	return rest, true
}

func parseSteam64(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id <= steam64Base || id-steam64Base > uint64(^uint32(0)) {
		return 0, fmt.Errorf("steam: bad steam64 %q: %w", s, apperr.ErrInvalidHandle)
	}
	return id, nil
}

// ToAccountID converts a Steam64 id into the Steam32 account id.
func ToAccountID(steam64 uint64) dota.AccountID {
	return dota.AccountID(steam64 - steam64Base)
}

// VanityResolver is satisfied by *Client.
type VanityResolver interface {
	ResolveVanity(ctx context.Context, vanity string) (uint64, error)
}

// Resolver turns user-supplied handles into account ids.
type Resolver struct {
	vanity VanityResolver
}

// NewResolver returns a Resolver backed by v.
func NewResolver(v VanityResolver) *Resolver {
	return &Resolver{vanity: v}
}

// Resolve maps handle to an account id. Unknown or malformed handles yield
// apperr.ErrInvalidHandle; provider failures yield apperr.ErrUpstreamUnavailable.
func (r *Resolver) Resolve(ctx context.Context, handle string) (dota.AccountID, error) {
	h, err := ParseHandle(handle)
	if err != nil {
		return 0, err
	}
	if h.Kind == HandleSteam64 {
		return ToAccountID(h.Steam64), nil
	}
	id, err := r.vanity.ResolveVanity(ctx, h.Vanity)
	if err != nil {
		return 0, err
	}
	return ToAccountID(id), nil
}
