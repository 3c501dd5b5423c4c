package session

import (
	"sync"
	"testing"
)

func TestGetReturnsSameSessionPerUser(t *testing.T) {
	m := NewManager()

	a := m.Get(1)
	b := m.Get(1)
	if a != b {
		t.Error("repeated Get for one user must return the same session")
	}

	other := m.Get(2)
	if a == other {
		t.Error("distinct users must get distinct sessions")
	}
}

func TestSessionStateDefaults(t *testing.T) {
	sess := NewManager().Get(1)
	sess.Lock()
	defer sess.Unlock()

	if sess.AwaitingWallet {
		t.Error("new session should not be awaiting a wallet")
	}
	if sess.ActiveTaskID != 0 {
		t.Error("new session should have no active task")
	}
}

func TestSessionLockSerializesOneUser(t *testing.T) {
	m := NewManager()
	const events = 100

	// Each event toggles the task marker under the session lock. With
	// serialization every event sees the marker state the previous one
	// left, so the final count is exact.
	var assigned int
	var wg sync.WaitGroup
	for i := 0; i < events; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := m.Get(7)
			sess.Lock()
			defer sess.Unlock()
			if sess.ActiveTaskID == 0 {
				sess.ActiveTaskID = 1
				assigned++
			} else {
				sess.ActiveTaskID = 0
			}
		}()
	}
	wg.Wait()

	sess := m.Get(7)
	sess.Lock()
	defer sess.Unlock()
	if assigned != events/2 {
		t.Errorf("expected %d assignments, got %d", events/2, assigned)
	}
	if sess.ActiveTaskID != 0 {
		t.Errorf("after an even number of toggles the marker should be clear, got %d", sess.ActiveTaskID)
	}
}

func TestManagerConcurrentGet(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	sessions := make([]*Session, 50)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = m.Get(9)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(sessions); i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("concurrent Get calls for one user returned different sessions")
		}
	}
}
