package opendota

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m3rciful/mydotainfo/internal/apperr"
)

func newTestServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if key := r.URL.Query().Get("api_key"); key != "" && key != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPlayerWithoutProfile(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/players/42": `{"rank_tier":null,"leaderboard_rank":null}`,
	})
	c := New(Options{BaseURL: srv.URL + "/", Timeout: time.Second})
	p, err := c.Player(context.Background(), 42)
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if p.Profile != nil || p.RankTier != nil {
		t.Fatalf("expected empty player, got %+v", p)
	}
}

func TestPlayerDecodesNullableFields(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/players/42": `{"profile":{"account_id":42,"personaname":"zed","profileurl":"https://steamcommunity.com/id/zed/","plus":true,"loccountrycode":null},
			"rank_tier":55,"leaderboard_rank":null,"competitive_rank":"3100","solo_competitive_rank":null,"mmr_estimate":{"estimate":3200}}`,
	})
	c := New(Options{BaseURL: srv.URL, APIKey: "secret"})
	p, err := c.Player(context.Background(), 42)
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	if p.Profile == nil || p.Profile.PersonaName != "zed" || !p.Profile.Plus || p.Profile.CountryCode != nil {
		t.Fatalf("profile = %+v", p.Profile)
	}
	if p.RankTier == nil || *p.RankTier != 55 {
		t.Fatalf("rank tier = %v", p.RankTier)
	}
	if p.CompetitiveRank == nil || p.CompetitiveRank.String() != "3100" {
		t.Fatalf("competitive rank = %v", p.CompetitiveRank)
	}
	if p.MMREstimate.Estimate == nil || *p.MMREstimate.Estimate != 3200 {
		t.Fatalf("mmr = %v", p.MMREstimate.Estimate)
	}
}

func TestWordCloudKeepsKeyOrder(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/players/7/wordcloud": `{"my_word_counts":{},"all_word_counts":{"gg":3,"ez":5,"wp":3,"mid":1}}`,
	})
	c := New(Options{BaseURL: srv.URL})
	wc, err := c.WordCloud(context.Background(), 7)
	if err != nil {
		t.Fatalf("WordCloud: %v", err)
	}
	want := []string{"gg", "ez", "wp", "mid"}
	if len(wc.AllWordCounts) != len(want) {
		t.Fatalf("len = %d", len(wc.AllWordCounts))
	}
	for i, w := range want {
		if wc.AllWordCounts[i].Word != w {
			t.Fatalf("entry %d = %q, want %q", i, wc.AllWordCounts[i].Word, w)
		}
	}
	if wc.AllWordCounts[1].Count != 5 {
		t.Fatalf("ez count = %d", wc.AllWordCounts[1].Count)
	}
}

func TestOrderedCountsRejectsArray(t *testing.T) {
	var oc OrderedCounts
	if err := json.Unmarshal([]byte(`[1,2]`), &oc); err == nil {
		t.Fatal("expected error for array input")
	}
	if err := json.Unmarshal([]byte(`null`), &oc); err != nil || oc != nil {
		t.Fatalf("null: %v %v", oc, err)
	}
}

func TestHeroesAcceptStringIDs(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/players/7/heroes": `[{"hero_id":"14","games":3,"win":1},{"hero_id":8,"games":0,"win":0}]`,
	})
	c := New(Options{BaseURL: srv.URL})
	rows, err := c.Heroes(context.Background(), 7)
	if err != nil {
		t.Fatalf("Heroes: %v", err)
	}
	if len(rows) != 2 || rows[0].HeroID != 14 || rows[1].HeroID != 8 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestRecentMatchesAndPros(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/players/7/recentMatches": `[{"match_id":1,"player_slot":130,"radiant_win":false,"duration":3725,"lobby_type":7,"hero_id":1,"start_time":1600000000,"kills":1,"deaths":2,"assists":3,"skill":null}]`,
		"/players/7/pros":          `[]`,
		"/players/7/wl":            `{"win":7,"lose":3}`,
	})
	c := New(Options{BaseURL: srv.URL})
	ms, err := c.RecentMatches(context.Background(), 7)
	if err != nil || len(ms) != 1 || ms[0].PlayerSlot != 130 || ms[0].Skill != nil {
		t.Fatalf("recent = %+v, %v", ms, err)
	}
	pros, err := c.Pros(context.Background(), 7)
	if err != nil || len(pros) != 0 {
		t.Fatalf("pros = %+v, %v", pros, err)
	}
	wl, err := c.WinLoss(context.Background(), 7)
	if err != nil || wl.Win != 7 || wl.Lose != 3 {
		t.Fatalf("wl = %+v, %v", wl, err)
	}
}

func TestBadKeyIsUpstreamFault(t *testing.T) {
	srv := newTestServer(t, map[string]string{"/players/7/wl": `{}`})
	c := New(Options{BaseURL: srv.URL, APIKey: "wrong"})
	_, err := c.WinLoss(context.Background(), 7)
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v", err)
	}
}
