package state

import (
	"sync"
	"testing"
	"time"
)

func TestMemoryManagerDefaults(t *testing.T) {
	m := NewMemoryManager("menu")
	if got := m.GetState(1); got != "menu" {
		t.Fatalf("state = %q", got)
	}
	if s := m.Get(1); s.State != "menu" || s.TempData == nil {
		t.Fatalf("fresh session = %+v", s)
	}
	if m.Count() != 0 {
		t.Fatalf("count = %d", m.Count())
	}
	if NewMemoryManager("").GetState(1) != StateIdle {
		t.Fatal("empty initial should fall back to idle")
	}
}

func TestMemoryManagerStateAndTemp(t *testing.T) {
	m := NewMemoryManager("menu")
	m.SetState(7, "player_menu")
	m.SetTemp(7, "account_id", int64(42))
	m.SetTemp(7, "label", "x")

	if m.GetState(7) != "player_menu" || m.Count() != 1 {
		t.Fatalf("state=%q count=%d", m.GetState(7), m.Count())
	}
	if v, ok := m.GetTempInt64(7, "account_id"); !ok || v != 42 {
		t.Fatalf("account = %d %v", v, ok)
	}
	if _, ok := m.GetTempInt64(7, "label"); ok {
		t.Fatal("string value must not assert as int64")
	}

	snap := m.Get(7)
	snap.TempData["account_id"] = int64(1)
	if v, _ := m.GetTempInt64(7, "account_id"); v != 42 {
		t.Fatal("Get must return a copy")
	}

	m.Clear(7)
	if m.GetState(7) != "menu" || m.Count() != 0 {
		t.Fatalf("after clear: state=%q count=%d", m.GetState(7), m.Count())
	}
	if _, ok := m.GetTempInt64(7, "account_id"); ok {
		t.Fatal("Clear must drop temp data")
	}
}

func TestLockSerializesPerUser(t *testing.T) {
	m := NewMemoryManager("menu")
	unlock := m.Lock(1)

	acquired := make(chan struct{})
	go func() {
		u := m.Lock(1)
		close(acquired)
		u()
	}()
	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(30 * time.Millisecond):
	}

	// Another user is not blocked.
	other := m.Lock(2)
	other()

	m.Clear(1)
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not released")
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := NewMemoryManager("menu")
	var wg sync.WaitGroup
	for u := int64(0); u < 16; u++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				unlock := m.Lock(id)
				m.SetState(id, "awaiting_handle")
				m.SetTemp(id, "n", int64(i))
				_ = m.Get(id)
				unlock()
			}
		}(u)
	}
	wg.Wait()
	if m.Count() != 16 {
		t.Fatalf("count = %d", m.Count())
	}
}

func slotCount(m Manager) int {
	mm := m.(*memoryManager)
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return len(mm.slots)
}

func TestIdleSlotsArePruned(t *testing.T) {
	m := NewMemoryManager("menu")
	for u := int64(1); u <= 100; u++ {
		m.Lock(u)()
	}
	if n := slotCount(m); n != 0 {
		t.Fatalf("slots after lock/unlock = %d", n)
	}

	unlock := m.Lock(7)
	m.SetState(7, "player_menu")
	unlock()
	if n := slotCount(m); n != 1 {
		t.Fatalf("slots with a live session = %d", n)
	}
	m.Clear(7)
	if n := slotCount(m); n != 0 {
		t.Fatalf("slots after clear = %d", n)
	}
}

func TestClearWhileLockedKeepsSerialization(t *testing.T) {
	m := NewMemoryManager("menu")
	unlock := m.Lock(1)
	m.SetState(1, "player_menu")
	m.Clear(1)
	if n := slotCount(m); n != 1 {
		t.Fatalf("held slot pruned: slots = %d", n)
	}

	acquired := make(chan struct{})
	go func() {
		u := m.Lock(1)
		close(acquired)
		u()
	}()
	select {
	case <-acquired:
		t.Fatal("lock acquired after clear while still held")
	case <-time.After(30 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not released")
	}
	deadline := time.Now().Add(time.Second)
	for slotCount(m) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("slots = %d after all holders released", slotCount(m))
		}
		time.Sleep(time.Millisecond)
	}
}
