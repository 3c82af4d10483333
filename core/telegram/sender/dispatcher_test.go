package sender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m3rciful/mydotainfo/core/logger"
)

func chatCtx(chatID int64) context.Context {
	return logger.WithUpdateMeta(context.Background(), 1, chatID, chatID)
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 128})

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 50; i++ {
		for chat := int64(1); chat <= 3; chat++ {
			chat, i := chat, i
			if err := d.Enqueue(chatCtx(chat), "send.text", "sendMessage", func() error {
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			}); err != nil {
				t.Fatalf("enqueue: %v", err)
			}
		}
	}
	d.Close()

	for chat, seq := range got {
		if len(seq) != 50 {
			t.Fatalf("chat %d: %d jobs", chat, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("chat %d: position %d = %d", chat, i, v)
			}
		}
	}
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	done := make(chan struct{})
	_ = d.Enqueue(chatCtx(1), "send.text", "sendMessage", func() error {
		if calls.Add(1) < 3 {
			return fmt.Errorf("telegram: Internal Server Error (500)")
		}
		close(done)
		return nil
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed")
	}
	d.Close()
	if calls.Load() != 3 || d.ErrorCount() != 0 {
		t.Fatalf("calls=%d errors=%d", calls.Load(), d.ErrorCount())
	}
}

func TestDispatcherCountsPermanentFailures(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	_ = d.Enqueue(chatCtx(1), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return errors.New("telegram: chat not found (400)")
	})
	d.Close()
	if calls.Load() != 1 || d.ErrorCount() != 1 {
		t.Fatalf("calls=%d errors=%d", calls.Load(), d.ErrorCount())
	}
}

func TestDispatcherClosed(t *testing.T) {
	d := NewDispatcher(Options{})
	d.Close()
	d.Close()
	if err := d.Enqueue(context.Background(), "x", "", func() error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v", err)
	}
}

func TestDispatcherRejectsWhenFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	started, release := make(chan struct{}), make(chan struct{})
	_ = d.Enqueue(chatCtx(1), "send.text", "", func() error {
		close(started)
		<-release
		return nil
	})
	<-started
	if err := d.Enqueue(chatCtx(1), "send.text", "", func() error { return nil }); err != nil {
		t.Fatalf("second job: %v", err)
	}
	if err := d.Enqueue(chatCtx(1), "send.text", "", func() error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	close(release)
	d.Close()
}

func TestShardHandlesNegativeChats(t *testing.T) {
	d := NewDispatcher(Options{Workers: 3})
	defer d.Close()
	for _, id := range []int64{-1001234567890, -1, 0, 7} {
		if s := d.shard(id); s < 0 || s >= 3 {
			t.Fatalf("shard(%d) = %d", id, s)
		}
	}
}
