package state

import (
	"sync"
	"testing"
	"time"
)

func TestUnknownChatIsUntrackedIdle(t *testing.T) {
	m := NewMemoryManager()
	if got := m.GetState(1); got != StateIdle {
		t.Fatalf("state = %q, want idle", got)
	}
	if _, ok := m.GetTemp(1, "path"); ok {
		t.Fatal("fresh chat should have no temp data")
	}
	if m.Tracked(1) {
		t.Fatal("reads must not create a session")
	}
}

func TestSetStateTracksChat(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(7, "waiting")
	if !m.Tracked(7) {
		t.Fatal("expected tracked chat")
	}
	if got := m.GetState(7); got != "waiting" {
		t.Fatalf("state = %q", got)
	}
	m.SetState(7, "")
	if got := m.GetState(7); got != StateIdle {
		t.Fatalf("empty state = %q, want idle", got)
	}
	if !m.Tracked(7) {
		t.Fatal("resetting to idle must keep the chat tracked")
	}
}

func TestTempData(t *testing.T) {
	m := NewMemoryManager()
	m.SetTemp(3, "path", "photos/a.jpg")
	m.SetTemp(3, "count", 2)

	if got, ok := m.GetTempString(3, "path"); !ok || got != "photos/a.jpg" {
		t.Fatalf("path = %q, %v", got, ok)
	}
	if _, ok := m.GetTempString(3, "count"); ok {
		t.Fatal("non-string value must not assert as string")
	}

	m.ClearTemp(3, "path")
	if _, ok := m.GetTemp(3, "path"); ok {
		t.Fatal("expected path cleared")
	}
}

func TestChatsAreIsolated(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(1, "a")
	m.SetTemp(1, "k", "one")
	m.SetState(2, "b")

	if got := m.GetState(1); got != "a" {
		t.Fatalf("chat 1 state = %q", got)
	}
	if _, ok := m.GetTemp(2, "k"); ok {
		t.Fatal("chat 2 must not see chat 1 temp data")
	}
}

func TestLockSerializesPerChat(t *testing.T) {
	m := NewMemoryManager()
	const workers = 50

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := m.Lock(9)
			defer unlock()
			n, _ := m.GetTemp(9, "n")
			count, _ := n.(int)
			m.SetTemp(9, "n", count+1)
		}()
	}
	wg.Wait()

	if n, _ := m.GetTemp(9, "n"); n != workers {
		t.Fatalf("n = %v, want %d", n, workers)
	}
}

func TestLockDoesNotBlockOtherChats(t *testing.T) {
	m := NewMemoryManager()
	unlock := m.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		release := m.Lock(2)
		release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on chat 2 blocked by chat 1")
	}
}
