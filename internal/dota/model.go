// Package dota holds the domain model shared by the resolver, the stats
// client and the report generators, together with the pure rules that derive
// teams, outcomes, skill brackets, medals and win rates from raw codes.
package dota

import (
	"math"
	"strconv"
	"time"
)

// AccountID is the Steam32 account id understood by the stats provider.
type AccountID uint32

func (id AccountID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Team is the side a player was on.
type Team int

const (
	TeamUnknown Team = iota
	TeamRadiant
	TeamDire
)

func (t Team) String() string {
	switch t {
	case TeamRadiant:
		return "Radiant"
	case TeamDire:
		return "Dire"
	}
	return "Unknown"
}

// Outcome is the result of a match for the player.
type Outcome int

const (
	Lost Outcome = iota
	Won
)

func (o Outcome) String() string {
	if o == Won {
		return "Won Match"
	}
	return "Lost Match"
}

// SkillBracket is the provider's coarse skill classification of a match.
type SkillBracket int

const (
	SkillUnknown SkillBracket = iota
	SkillNormal
	SkillHigh
	SkillVeryHigh
)

func (s SkillBracket) String() string {
	switch s {
	case SkillNormal:
		return "Normal Skill"
	case SkillHigh:
		return "High Skill"
	case SkillVeryHigh:
		return "Very High Skill"
	}
	return "Unknown"
}

// MatchRecord is one row of the recent matches report.
type MatchRecord struct {
	MatchID         int64
	StartTime       time.Time
	DurationSeconds int
	Team            Team
	Outcome         Outcome
	LobbyKind       string
	SkillBracket    SkillBracket
	HeroName        string
	Kills           int
	Deaths          int
	Assists         int
}

// HeroStat is one row of the hero win-rate report.
type HeroStat struct {
	HeroName       string
	GamesPlayed    int
	Wins           int
	WinRatePercent float64
}

// WordCount is one chat word with its number of occurrences.
type WordCount struct {
	Word        string
	Occurrences int
}

// ProMatchup is a professional player the account has shared matches with.
type ProMatchup struct {
	ProName        string
	ProPersonaName string
	// CountryCode is upper-cased; empty when the player did not provide one.
	CountryCode   string
	GamesTogether int
	ProfileURL    string
}

// TeamFromSlot decodes the player-slot bitfield: 0–127 Radiant, 128–255 Dire.
func TeamFromSlot(slot int) Team {
	switch {
	case slot >= 0 && slot <= 127:
		return TeamRadiant
	case slot >= 128 && slot <= 255:
		return TeamDire
	}
	return TeamUnknown
}

// OutcomeFor derives the player's result from their team and the radiant_win flag.
// Unknown teams always count as a loss.
func OutcomeFor(team Team, radiantWin bool) Outcome {
	if (team == TeamRadiant && radiantWin) || (team == TeamDire && !radiantWin) {
		return Won
	}
	return Lost
}

// SkillFromCode maps the provider skill code 1/2/3.
func SkillFromCode(code int) SkillBracket {
	switch code {
	case 1:
		return SkillNormal
	case 2:
		return SkillHigh
	case 3:
		return SkillVeryHigh
	}
	return SkillUnknown
}

// WinRate returns wins/(wins+losses)*100 rounded to two decimals, or 0 when
// no games were played.
func WinRate(wins, losses int) float64 {
	total := wins + losses
	if total <= 0 {
		return 0
	}
	return round2(float64(wins) / float64(total) * 100)
}

// HeroWinRate returns wins/games*100 rounded to two decimals, or 0 for no games.
func HeroWinRate(wins, games int) float64 {
	if games <= 0 {
		return 0
	}
	return round2(float64(wins) / float64(games) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var medalTiers = [...]string{
	1: "Herald",
	2: "Guardian",
	3: "Crusader",
	4: "Archon",
	5: "Legend",
	6: "Ancient",
	7: "Divine",
	8: "Immortal",
}

// Medal maps a rank-tier code to its medal name: the tens digit selects the
// tier and the ones digit is the star count, which Immortal does not have.
// A nil, zero or out-of-range code yields "None".
func Medal(rankTier *int) string {
	if rankTier == nil {
		return "None"
	}
	code := *rankTier
	if code < 10 || code > 89 {
		return "None"
	}
	tier, stars := code/10, code%10
	name := medalTiers[tier]
	if tier == 8 || stars == 0 {
		return name
	}
	return name + " " + strconv.Itoa(stars)
}
