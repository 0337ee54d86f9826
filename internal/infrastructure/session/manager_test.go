package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func userTurn(text string) domain.SessionTurn {
	return domain.SessionTurn{Role: domain.RoleUser, Text: text}
}

func TestAppendEvictsOldestBeyondBound(t *testing.T) {
	m := NewManager(3, time.Hour)

	for i := 0; i < 5; i++ {
		m.Append("s1", userTurn(fmt.Sprintf("turn-%d", i)))
	}

	turns := m.Context("s1")
	if len(turns) != 3 {
		t.Fatalf("len(turns) = %d, want 3", len(turns))
	}
	for i, want := range []string{"turn-2", "turn-3", "turn-4"} {
		if turns[i].Text != want {
			t.Fatalf("turns[%d].Text = %q, want %q", i, turns[i].Text, want)
		}
	}
}

func TestExpiredSessionStartsFresh(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(10, time.Hour, WithClock(clock.Now))

	m.Append("s1", userTurn("before"))
	clock.Advance(2 * time.Hour)

	if got := m.Context("s1"); len(got) != 0 {
		t.Fatalf("Context after expiry returned %d turns, want 0", len(got))
	}
	if info := m.Info("s1"); info.Exists {
		t.Fatal("Info reported an expired session as existing")
	}

	m.Append("s1", userTurn("after"))
	turns := m.Context("s1")
	if len(turns) != 1 || turns[0].Text != "after" {
		t.Fatalf("fresh history = %+v, want single %q turn", turns, "after")
	}
}

func TestReadsDoNotRefreshActivity(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(10, time.Hour, WithClock(clock.Now))

	m.Append("s1", userTurn("hello"))
	clock.Advance(55 * time.Minute)
	if got := m.Context("s1"); len(got) != 1 {
		t.Fatalf("Context before expiry returned %d turns, want 1", len(got))
	}

	clock.Advance(10 * time.Minute)
	if info := m.Info("s1"); info.Exists {
		t.Fatal("read refreshed activity; session should have expired")
	}
	if got := m.Context("s1"); len(got) != 0 {
		t.Fatalf("expired session still served %d turns", len(got))
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	m := NewManager(10, time.Hour)

	m.Append("a", userTurn("from-a"))
	m.Append("b", userTurn("from-b"))
	m.Clear("a")

	if got := m.Context("a"); len(got) != 0 {
		t.Fatalf("cleared session has %d turns, want 0", len(got))
	}
	turns := m.Context("b")
	if len(turns) != 1 || turns[0].Text != "from-b" {
		t.Fatalf("session b = %+v, want single %q turn", turns, "from-b")
	}
}

func TestInfoCountsTurns(t *testing.T) {
	m := NewManager(10, time.Hour)

	if info := m.Info("missing"); info.Exists {
		t.Fatal("Info for an unknown session reported Exists")
	}

	m.Append("s1", userTurn("hello"))
	m.Append("s1", domain.SessionTurn{Role: domain.RoleAssistant, Text: "hi"})

	info := m.Info("s1")
	if !info.Exists || info.TurnCount != 2 {
		t.Fatalf("Info = %+v, want Exists with 2 turns", info)
	}
}

func TestConcurrentAppendsLoseNothing(t *testing.T) {
	m := NewManager(1000, time.Hour)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.Append(fmt.Sprintf("s%d", g%2), userTurn(fmt.Sprintf("g%d-%d", g, i)))
			}
		}(g)
	}
	wg.Wait()

	total := len(m.Context("s0")) + len(m.Context("s1"))
	if total != 400 {
		t.Fatalf("total turns = %d, want 400", total)
	}
}

func TestSnapshotsSurviveRestart(t *testing.T) {
	dir := t.TempDir()

	m := NewManager(10, time.Hour, WithSnapshotDir(dir))
	m.Append("persisted", userTurn("hello"))
	m.Append("persisted", domain.SessionTurn{Role: domain.RoleAssistant, Text: "hi"})

	restarted := NewManager(10, time.Hour, WithSnapshotDir(dir))
	turns := restarted.Context("persisted")
	if len(turns) != 2 || turns[0].Text != "hello" || turns[1].Text != "hi" {
		t.Fatalf("restored history = %+v, want the two original turns", turns)
	}
}

func TestSweepDropsExpiredSessions(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(10, time.Hour, WithClock(clock.Now))

	m.Append("old", userTurn("x"))
	clock.Advance(30 * time.Minute)
	m.Append("fresh", userTurn("y"))
	clock.Advance(45 * time.Minute)

	if removed := m.Sweep(); removed != 1 {
		t.Fatalf("Sweep removed %d sessions, want 1", removed)
	}
	if got := m.Context("fresh"); len(got) != 1 {
		t.Fatalf("fresh session lost its history: %+v", got)
	}
}
