package opendota

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Player is the /players/{id} payload. Profile is nil when the account does
// not expose match data.
type Player struct {
	Profile         *Profile     `json:"profile"`
	RankTier        *int         `json:"rank_tier"`
	LeaderboardRank *int         `json:"leaderboard_rank"`
	CompetitiveRank *json.Number `json:"competitive_rank"`
	SoloRank        *json.Number `json:"solo_competitive_rank"`
	MMREstimate     struct {
		Estimate *int `json:"estimate"`
	} `json:"mmr_estimate"`
}

// Profile is the Steam profile block embedded in Player.
type Profile struct {
	AccountID   int64   `json:"account_id"`
	PersonaName string  `json:"personaname"`
	ProfileURL  string  `json:"profileurl"`
	Plus        bool    `json:"plus"`
	CountryCode *string `json:"loccountrycode"`
}

// WinLoss is the /players/{id}/wl payload.
type WinLoss struct {
	Win  int `json:"win"`
	Lose int `json:"lose"`
}

// RecentMatch is one element of /players/{id}/recentMatches.
type RecentMatch struct {
	MatchID    int64 `json:"match_id"`
	PlayerSlot int   `json:"player_slot"`
	RadiantWin *bool `json:"radiant_win"`
	Duration   int   `json:"duration"`
	LobbyType  int   `json:"lobby_type"`
	HeroID     int   `json:"hero_id"`
	StartTime  int64 `json:"start_time"`
	Kills      int   `json:"kills"`
	Deaths     int   `json:"deaths"`
	Assists    int   `json:"assists"`
	Skill      *int  `json:"skill"`
}

// WordCloud is the /players/{id}/wordcloud payload.
type WordCloud struct {
	MyWordCounts  OrderedCounts `json:"my_word_counts"`
	AllWordCounts OrderedCounts `json:"all_word_counts"`
}

// HeroStat is one element of /players/{id}/heroes.
type HeroStat struct {
	HeroID FlexInt `json:"hero_id"`
	Games  int     `json:"games"`
	Win    int     `json:"win"`
}

// ProPlayer is one element of /players/{id}/pros.
type ProPlayer struct {
	AccountID   int64   `json:"account_id"`
	Name        string  `json:"name"`
	PersonaName string  `json:"personaname"`
	ProfileURL  string  `json:"profileurl"`
	CountryCode *string `json:"country_code"`
	Games       int     `json:"games"`
	Win         int     `json:"win"`
}

// WordEntry is one key of a word-count object.
type WordEntry struct {
	Word  string
	Count int
}

// OrderedCounts decodes a {"word": count} object keeping the provider's key
// order, which is the tie-break order of the word frequency report.
type OrderedCounts []WordEntry

// UnmarshalJSON implements json.Unmarshaler.
func (o *OrderedCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("opendota: word counts: expected object, got %v", tok)
	}
	out := OrderedCounts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("opendota: word counts: %q: %w", key, err)
		}
		out = append(out, WordEntry{Word: key, Count: n})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

// FlexInt accepts both JSON numbers and numeric strings; hero ids have been
// served as either.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("opendota: invalid integer %s", data)
	}
	*f = FlexInt(n)
	return nil
}
