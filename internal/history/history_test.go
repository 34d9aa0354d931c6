package history

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func turn(i int) Turn {
	return Turn{
		UserMessage: fmt.Sprintf("msg-%d", i),
		AIResponse:  fmt.Sprintf("reply-%d", i),
		Timestamp:   time.Unix(int64(i), 0).UTC(),
	}
}

func TestAppendGetClear(t *testing.T) {
	s := NewStore()
	s.Append("a", turn(1))
	s.Append("a", turn(2))
	s.Append("b", turn(3))

	got, err := s.Get("a")
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if len(got) != 2 || got[0].UserMessage != "msg-1" || got[1].UserMessage != "msg-2" {
		t.Fatalf("unexpected turns: %+v", got)
	}

	// Ensure copy semantics (modifying returned slice does not affect internal state)
	got[0] = Turn{UserMessage: "mutated"}
	again, _ := s.Get("a")
	if again[0].UserMessage != "msg-1" {
		t.Fatalf("internal state mutated via returned slice")
	}

	if err := s.Clear("a"); err != nil {
		t.Fatalf("clear a: %v", err)
	}
	if _, err := s.Get("a"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound after clear, got %v", err)
	}
	if b, err := s.Get("b"); err != nil || len(b) != 1 {
		t.Fatalf("clear should not affect other sessions: %v %+v", err, b)
	}

	s.Append("a", turn(4))
	if fresh, _ := s.Get("a"); len(fresh) != 1 || fresh[0].UserMessage != "msg-4" {
		t.Fatalf("expected fresh history after clear, got %+v", fresh)
	}
}

func TestAppendOrder(t *testing.T) {
	s := NewStore()
	const n = 50
	for i := 0; i < n; i++ {
		s.Append("x", turn(i))
	}
	got, err := s.Get("x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != n {
		t.Fatalf("want %d turns, got %d", n, len(got))
	}
	for i, tr := range got {
		if tr.UserMessage != fmt.Sprintf("msg-%d", i) {
			t.Fatalf("turn %d out of order: %q", i, tr.UserMessage)
		}
	}
}

func TestGetUnknownSession(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func TestClearUnknownLeavesStoreUnchanged(t *testing.T) {
	s := NewStore()
	s.Append("kept", turn(1))
	if err := s.Clear("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
	if st := s.Stats(); st.Sessions != 1 || st.Turns != 1 {
		t.Fatalf("store changed: %+v", st)
	}
}

func TestResolveOrCreate(t *testing.T) {
	s := NewStore()
	if got := s.ResolveOrCreate("X"); got != "X" {
		t.Fatalf("want X, got %q", got)
	}
	s.Append("X", turn(1))
	if got := s.ResolveOrCreate("X"); got != "X" {
		t.Fatalf("want X for existing session, got %q", got)
	}

	id := s.ResolveOrCreate("")
	if id == "" {
		t.Fatalf("generated id is empty")
	}
	if _, err := s.Get(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("fresh id should have no turns, got %v", err)
	}
	if other := s.ResolveOrCreate(""); other == id {
		t.Fatalf("two generated ids collided: %q", id)
	}
}

func TestResolveOrCreateSkipsTakenIDs(t *testing.T) {
	s := NewStore()
	s.Append("taken", turn(1))
	ids := []string{"taken", "free"}
	s.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	if got := s.ResolveOrCreate(""); got != "free" {
		t.Fatalf("want free, got %q", got)
	}
}

func TestConcurrentAppend(t *testing.T) {
	s := NewStore()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			s.Append("shared", turn(i))
		}()
	}
	wg.Wait()

	got, err := s.Get("shared")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != n {
		t.Fatalf("want %d turns, got %d", n, len(got))
	}
	seen := make(map[string]bool, n)
	for _, tr := range got {
		if seen[tr.UserMessage] {
			t.Fatalf("duplicate turn %q", tr.UserMessage)
		}
		seen[tr.UserMessage] = true
	}
}

func TestConcurrentAppendAndClear(t *testing.T) {
	s := NewStore()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := range n {
		go func() {
			defer wg.Done()
			s.Append("race", turn(i))
		}()
		go func() {
			defer wg.Done()
			_ = s.Clear("race")
		}()
	}
	wg.Wait()

	turns, err := s.Get("race")
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("unexpected error: %v", err)
		}
		return
	}
	if len(turns) == 0 {
		t.Fatalf("present session must have at least one turn")
	}
}

func TestStats(t *testing.T) {
	s := NewStore()
	s.Append("a", turn(1))
	s.Append("a", turn(2))
	s.Append("b", turn(3))
	if st := s.Stats(); st.Sessions != 2 || st.Turns != 3 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}
