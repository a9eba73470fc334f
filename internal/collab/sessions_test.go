package collab

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestCreateAndGet(t *testing.T) {
	m := NewManager()

	s := m.Create("Epic Battle", "aria")
	if s.ID == "" || s.HostName != "aria" {
		t.Fatalf("session = %+v", s)
	}
	if len(s.Participants) != 1 || s.Participants[0] != "aria" {
		t.Errorf("participants = %v", s.Participants)
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Theme != "Epic Battle" {
		t.Errorf("theme = %q", got.Theme)
	}

	if _, err := m.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v", err)
	}
}

func TestJoin(t *testing.T) {
	m := NewManager()
	s := m.Create("t", "host")

	joined, err := m.Join(s.ID, "guest")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(joined.Participants) != 2 {
		t.Errorf("participants = %v", joined.Participants)
	}

	// Joining twice is idempotent.
	again, err := m.Join(s.ID, "guest")
	if err != nil {
		t.Fatalf("second Join: %v", err)
	}
	if len(again.Participants) != 2 {
		t.Errorf("duplicate join grew session: %v", again.Participants)
	}

	if _, err := m.Join("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Join(missing) = %v", err)
	}
}

func TestJoinFullSession(t *testing.T) {
	m := NewManager()
	s := m.Create("t", "host")

	for i := 1; i < MaxParticipants; i++ {
		if _, err := m.Join(s.ID, fmt.Sprintf("p%d", i)); err != nil {
			t.Fatalf("Join %d: %v", i, err)
		}
	}
	if _, err := m.Join(s.ID, "overflow"); !errors.Is(err, ErrFull) {
		t.Errorf("overflow join = %v, want ErrFull", err)
	}
}

func TestConcurrentJoins(t *testing.T) {
	m := NewManager()
	s := m.Create("t", "host")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Join(s.ID, fmt.Sprintf("p%d", i))
		}(i)
	}
	wg.Wait()

	got, _ := m.Get(s.ID)
	if len(got.Participants) > MaxParticipants {
		t.Errorf("session exceeded limit: %d participants", len(got.Participants))
	}
}
