package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m3rciful/mydotainfo/internal/apperr"
)

type payload struct {
	Win  int `json:"win"`
	Lose int `json:"lose"`
}

func TestGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"win":7,"lose":3}`))
	}))
	defer srv.Close()

	c := New("opendota", time.Second, nil)
	got, err := GetJSON[payload](context.Background(), c, "wl", srv.URL)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if got.Win != 7 || got.Lose != 3 {
		t.Fatalf("got %+v", got)
	}
}

func TestGetJSONStatusMapsToUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New("steam", time.Second, nil)
	_, err := GetJSON[payload](context.Background(), c, "GetHeroes", srv.URL)
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want upstream unavailable", err)
	}
	var ue *apperr.UpstreamError
	if !errors.As(err, &ue) || ue.Status != http.StatusForbidden {
		t.Fatalf("expected status 403 in %v", err)
	}
}

func TestGetJSONTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New("opendota", 100*time.Millisecond, nil)
	start := time.Now()
	_, err := GetJSON[payload](context.Background(), c, "wl", srv.URL)
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want upstream unavailable", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("call was not bounded by the timeout: %v", time.Since(start))
	}
}

func TestGetJSONBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := New("opendota", time.Second, nil)
	if _, err := GetJSON[payload](context.Background(), c, "wl", srv.URL); !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want upstream unavailable", err)
	}
}

func TestGetJSONCancelledMidRequest(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	c := New("opendota", 5*time.Second, nil)
	start := time.Now()
	_, err := GetJSON[payload](ctx, c, "wl", srv.URL)
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want cancelled upstream error", err)
	}
	if took := time.Since(start); took > time.Second {
		t.Fatalf("cancellation not observed during the request: %v", took)
	}
}
