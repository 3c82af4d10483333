package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(UpstreamRequests.WithLabelValues("opendota", "wl", "200"))
	ObserveUpstream("opendota", "wl", 200, 120*time.Millisecond)
	after := testutil.ToFloat64(UpstreamRequests.WithLabelValues("opendota", "wl", "200"))
	if after-before != 1 {
		t.Fatalf("counter delta = %v, want 1", after-before)
	}
}

func TestServerExposesRegistry(t *testing.T) {
	MessagesSent.Inc()
	srv := NewServer("127.0.0.1:0", "/metrics")
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "mydotainfo_messages_sent_total") {
		t.Fatalf("scrape output missing bot metrics:\n%s", body)
	}
}
