package refdata

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m3rciful/mydotainfo/internal/apperr"
	"github.com/m3rciful/mydotainfo/internal/steam"
)

func TestEmbeddedLobbyTypes(t *testing.T) {
	tbl, err := LoadLobbyTypes()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tbl.Len() == 0 {
		t.Fatal("empty lobby table")
	}
	if got := tbl.Name(7); got != "lobby_type_ranked" {
		t.Fatalf("7 = %q", got)
	}
	if got := tbl.Name(999); got != UnknownLobby {
		t.Fatalf("999 = %q", got)
	}
	var nilTable *LobbyTable
	if nilTable.Name(0) != UnknownLobby {
		t.Fatal("nil table should report unknown")
	}
}

func TestParseLobbyTypesBadKey(t *testing.T) {
	if _, err := ParseLobbyTypes([]byte(`{"x":{"id":1,"name":"a"}}`)); err == nil {
		t.Fatal("expected error")
	}
}

type countingSource struct {
	calls atomic.Int32
	fail  atomic.Bool
	delay time.Duration
}

func (s *countingSource) Heroes(context.Context) ([]steam.Hero, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	if s.fail.Load() {
		return nil, apperr.Upstream("steam", "GetHeroes", 403, nil)
	}
	return []steam.Hero{{ID: 1, LocalizedName: "Anti-Mage"}, {ID: 14, LocalizedName: "Pudge"}}, nil
}

func TestHeroCatalogLoadsOnce(t *testing.T) {
	src := &countingSource{delay: 20 * time.Millisecond}
	cat := NewHeroCatalog(src)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cat.Table(context.Background()); err != nil {
				t.Errorf("table: %v", err)
			}
		}()
	}
	wg.Wait()
	if _, err := cat.Table(context.Background()); err != nil {
		t.Fatalf("table: %v", err)
	}
	if n := src.calls.Load(); n != 1 {
		t.Fatalf("source called %d times, want 1", n)
	}
	tbl, _ := cat.Table(context.Background())
	if tbl.Name(14) != "Pudge" || tbl.Name(2) != UnknownHero {
		t.Fatalf("lookup mismatch: %v", tbl)
	}
	if cat.Len() != 2 {
		t.Fatalf("len = %d", cat.Len())
	}
}

func TestHeroCatalogRetriesAfterFailure(t *testing.T) {
	src := &countingSource{}
	src.fail.Store(true)
	cat := NewHeroCatalog(src)

	if err := cat.Warm(context.Background()); !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if cat.Len() != 0 {
		t.Fatal("failed load must not publish a table")
	}
	src.fail.Store(false)
	if err := cat.Warm(context.Background()); err != nil {
		t.Fatalf("second warm: %v", err)
	}
	if src.calls.Load() != 2 {
		t.Fatalf("calls = %d", src.calls.Load())
	}
}
