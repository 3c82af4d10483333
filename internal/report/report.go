// Package report turns provider payloads into the plain-text reports sent to
// the user. Every generator is a function of an account id and an optional
// count; none of them keeps state between calls.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/mydotainfo/core/logger"
	"github.com/m3rciful/mydotainfo/core/telegram/format"
	"github.com/m3rciful/mydotainfo/internal/apperr"
	"github.com/m3rciful/mydotainfo/internal/dota"
	"github.com/m3rciful/mydotainfo/internal/opendota"
	"github.com/m3rciful/mydotainfo/internal/refdata"
)

// DefaultMaxMatches caps the recent matches report.
const DefaultMaxMatches = 20

// Fixed replies for empty results.
const (
	NoProsMessage   = "You have not matched up with any pro players yet. Don't worry, you'll get there soon!"
	NoWordsMessage  = "No chat words are recorded for this account."
	NoHeroesMessage = "No hero statistics are recorded for this account."
	NoMatchMessage  = "No recent matches are recorded for this account."
	NoLinesMessage  = "Ask for at least one line to see chat words."
)

// Stats is the subset of the OpenDota client used by the generators.
type Stats interface {
	Player(ctx context.Context, id dota.AccountID) (*opendota.Player, error)
	WinLoss(ctx context.Context, id dota.AccountID) (*opendota.WinLoss, error)
	RecentMatches(ctx context.Context, id dota.AccountID) ([]opendota.RecentMatch, error)
	WordCloud(ctx context.Context, id dota.AccountID) (*opendota.WordCloud, error)
	Heroes(ctx context.Context, id dota.AccountID) ([]opendota.HeroStat, error)
	Pros(ctx context.Context, id dota.AccountID) ([]opendota.ProPlayer, error)
}

// Heroes resolves the hero table.
type Heroes interface {
	Table(ctx context.Context) (refdata.HeroTable, error)
}

// Lobbies names lobby type codes.
type Lobbies interface {
	Name(code int) string
}

// Generator builds the five reports.
type Generator struct {
	stats      Stats
	heroes     Heroes
	lobbies    Lobbies
	maxMatches int
}

// New returns a Generator. maxMatches outside 1..DefaultMaxMatches selects
// DefaultMaxMatches, the most the provider returns.
func New(stats Stats, heroes Heroes, lobbies Lobbies, maxMatches int) *Generator {
	if maxMatches <= 0 || maxMatches > DefaultMaxMatches {
		maxMatches = DefaultMaxMatches
	}
	return &Generator{stats: stats, heroes: heroes, lobbies: lobbies, maxMatches: maxMatches}
}

// MaxMatches returns the recent matches cap.
func (g *Generator) MaxMatches() int { return g.maxMatches }

// ProfileSummary greets the player with profile details and the lifetime win
// rate. It fails with apperr.ErrNoMatchData when the profile is not exposed.
func (g *Generator) ProfileSummary(ctx context.Context, id dota.AccountID) (string, error) {
	start := time.Now()
	var (
		player *opendota.Player
		wl     *opendota.WinLoss
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		player, err = g.stats.Player(egctx, id)
		return err
	})
	eg.Go(func() (err error) {
		wl, err = g.stats.WinLoss(egctx, id)
		return err
	})
	if err := eg.Wait(); err != nil {
		return "", fmt.Errorf("report: profile %s: %w", id, err)
	}
	if player.Profile == nil {
		return "", fmt.Errorf("report: profile %s: %w", id, apperr.ErrNoMatchData)
	}

	p := player.Profile
	plus := "No"
	if p.Plus {
		plus = "Yes"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s, this is your Dota account ID: %d and your Steam profile: %s\n", p.PersonaName, p.AccountID, p.ProfileURL)
	fmt.Fprintf(&b, "Dota Plus: %s\n", plus)
	fmt.Fprintf(&b, "Region: %s\n", format.StringOr(p.CountryCode, notAvailable))
	fmt.Fprintf(&b, "Medal Rank: %s\n", dota.Medal(player.RankTier))
	fmt.Fprintf(&b, "Leaderboard: %s\n", format.IntOr(player.LeaderboardRank, notAvailable))
	fmt.Fprintf(&b, "Estimated MMR: %s\n", format.IntOr(player.MMREstimate.Estimate, notAvailable))
	fmt.Fprintf(&b, "Party MMR: %s\n", numberOrNA(player.CompetitiveRank))
	fmt.Fprintf(&b, "Solo Rank: %s\n", numberOrNA(player.SoloRank))
	fmt.Fprintf(&b, "Win/Lose Rate: %d/%d = %s%%", wl.Win, wl.Lose, FormatRate(dota.WinRate(wl.Win, wl.Lose)))

	g.logDone(ctx, "profile", id, 1, start)
	return b.String(), nil
}

// MatchRecords fetches the n most recent matches, n clamped to [1, max], in
// provider order.
func (g *Generator) MatchRecords(ctx context.Context, id dota.AccountID, n int) ([]dota.MatchRecord, error) {
	n = g.ClampMatches(n)
	var (
		matches []opendota.RecentMatch
		table   refdata.HeroTable
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		matches, err = g.stats.RecentMatches(egctx, id)
		return err
	})
	eg.Go(func() (err error) {
		table, err = g.heroes.Table(egctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("report: recent matches %s: %w", id, err)
	}
	if len(matches) > n {
		matches = matches[:n]
	}
	out := make([]dota.MatchRecord, 0, len(matches))
	for _, m := range matches {
		team := dota.TeamFromSlot(m.PlayerSlot)
		outcome := dota.Lost
		if m.RadiantWin != nil {
			outcome = dota.OutcomeFor(team, *m.RadiantWin)
		}
		skill := dota.SkillUnknown
		if m.Skill != nil {
			skill = dota.SkillFromCode(*m.Skill)
		}
		out = append(out, dota.MatchRecord{
			MatchID:         m.MatchID,
			StartTime:       time.Unix(m.StartTime, 0).UTC(),
			DurationSeconds: m.Duration,
			Team:            team,
			Outcome:         outcome,
			LobbyKind:       g.lobbies.Name(m.LobbyType),
			SkillBracket:    skill,
			HeroName:        table.Name(m.HeroID),
			Kills:           m.Kills,
			Deaths:          m.Deaths,
			Assists:         m.Assists,
		})
	}
	return out, nil
}

// ClampMatches bounds a requested match count to [1, max].
func (g *Generator) ClampMatches(n int) int {
	switch {
	case n < 1:
		return 1
	case n > g.maxMatches:
		return g.maxMatches
	}
	return n
}

// RecentMatches renders MatchRecords.
func (g *Generator) RecentMatches(ctx context.Context, id dota.AccountID, n int) (string, error) {
	start := time.Now()
	records, err := g.MatchRecords(ctx, id, n)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return NoMatchMessage, nil
	}
	var b strings.Builder
	for i, r := range records {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "MatchID: %d\n", r.MatchID)
		fmt.Fprintf(&b, "Game Played On: %s\n", FormatTime(r.StartTime))
		fmt.Fprintf(&b, "Player Team: %s\n", r.Team)
		fmt.Fprintf(&b, "Match Outcome: %s\n", r.Outcome)
		fmt.Fprintf(&b, "Match Duration: %s\n", FormatDuration(r.DurationSeconds))
		fmt.Fprintf(&b, "Lobby Type: %s\n", r.LobbyKind)
		fmt.Fprintf(&b, "Skill Bracket: %s\n", r.SkillBracket)
		fmt.Fprintf(&b, "Hero Played: %s\n", r.HeroName)
		fmt.Fprintf(&b, "KDA Ratio: %d/%d/%d", r.Kills, r.Deaths, r.Assists)
	}
	g.logDone(ctx, "recent", id, len(records), start)
	return b.String(), nil
}

// TopWords returns the n most used chat words, most used first. Equal counts
// keep the provider's order.
func (g *Generator) TopWords(ctx context.Context, id dota.AccountID, n int) ([]dota.WordCount, error) {
	wc, err := g.stats.WordCloud(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("report: words %s: %w", id, err)
	}
	return rankWords(wc.AllWordCounts, n), nil
}

func rankWords(counts opendota.OrderedCounts, n int) []dota.WordCount {
	if n <= 0 || len(counts) == 0 {
		return nil
	}
	ranked := make([]dota.WordCount, len(counts))
	for i, e := range counts {
		ranked[i] = dota.WordCount{Word: e.Word, Occurrences: e.Count}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Occurrences > ranked[j].Occurrences
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// WordFrequency renders TopWords as "word: count" lines.
func (g *Generator) WordFrequency(ctx context.Context, id dota.AccountID, n int) (string, error) {
	if n <= 0 {
		return NoLinesMessage, nil
	}
	start := time.Now()
	words, err := g.TopWords(ctx, id, n)
	if err != nil {
		return "", err
	}
	if len(words) == 0 {
		return NoWordsMessage, nil
	}
	lines := make([]string, len(words))
	for i, w := range words {
		lines[i] = fmt.Sprintf("%s: %d", w.Word, w.Occurrences)
	}
	g.logDone(ctx, "words", id, len(words), start)
	return strings.Join(lines, "\n"), nil
}

// HeroStats returns per-hero totals in provider order.
func (g *Generator) HeroStats(ctx context.Context, id dota.AccountID) ([]dota.HeroStat, error) {
	var (
		rows  []opendota.HeroStat
		table refdata.HeroTable
	)
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() (err error) {
		rows, err = g.stats.Heroes(egctx, id)
		return err
	})
	eg.Go(func() (err error) {
		table, err = g.heroes.Table(egctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("report: heroes %s: %w", id, err)
	}
	out := make([]dota.HeroStat, len(rows))
	for i, r := range rows {
		out[i] = dota.HeroStat{
			HeroName:       table.Name(int(r.HeroID)),
			GamesPlayed:    r.Games,
			Wins:           r.Win,
			WinRatePercent: dota.HeroWinRate(r.Win, r.Games),
		}
	}
	return out, nil
}

// HeroWinRates renders HeroStats one line per hero.
func (g *Generator) HeroWinRates(ctx context.Context, id dota.AccountID) (string, error) {
	start := time.Now()
	stats, err := g.HeroStats(ctx, id)
	if err != nil {
		return "", err
	}
	if len(stats) == 0 {
		return NoHeroesMessage, nil
	}
	lines := make([]string, len(stats))
	for i, s := range stats {
		lines[i] = fmt.Sprintf("You played %s %d times. Win rate: %s%%", s.HeroName, s.GamesPlayed, FormatRate(s.WinRatePercent))
	}
	g.logDone(ctx, "heroes", id, len(stats), start)
	return strings.Join(lines, "\n"), nil
}

// ProMatchups lists professional players the account has played with.
func (g *Generator) ProMatchups(ctx context.Context, id dota.AccountID) ([]dota.ProMatchup, error) {
	pros, err := g.stats.Pros(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("report: pros %s: %w", id, err)
	}
	out := make([]dota.ProMatchup, len(pros))
	for i, p := range pros {
		country := ""
		if p.CountryCode != nil {
			country = strings.ToUpper(strings.TrimSpace(*p.CountryCode))
		}
		out[i] = dota.ProMatchup{
			ProName:        p.Name,
			ProPersonaName: p.PersonaName,
			CountryCode:    country,
			GamesTogether:  p.Games,
			ProfileURL:     p.ProfileURL,
		}
	}
	return out, nil
}

// ProMatchHistory renders ProMatchups, or NoProsMessage when there are none.
func (g *Generator) ProMatchHistory(ctx context.Context, id dota.AccountID) (string, error) {
	start := time.Now()
	pros, err := g.ProMatchups(ctx, id)
	if err != nil {
		return "", err
	}
	if len(pros) == 0 {
		return NoProsMessage, nil
	}
	var b strings.Builder
	for i, p := range pros {
		if i > 0 {
			b.WriteString("\n\n")
		}
		from := p.CountryCode
		if from == "" {
			from = p.ProName + " did not provide a country."
		}
		fmt.Fprintf(&b, "You have matched up with %s AKA %s from %s for %d time(s)!\n", p.ProName, p.ProPersonaName, from, p.GamesTogether)
		fmt.Fprintf(&b, "Steam Profile: %s", p.ProfileURL)
	}
	g.logDone(ctx, "pros", id, len(pros), start)
	return b.String(), nil
}

func (g *Generator) logDone(ctx context.Context, name string, id dota.AccountID, count int, start time.Time) {
	if !logger.ShouldSampleDebug() {
		return
	}
	logger.LogEvent(ctx, logger.REPORT, slog.LevelDebug, "report.built",
		slog.String("report", name),
		slog.String("account_id", id.String()),
		slog.Int("count", count),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)
}
