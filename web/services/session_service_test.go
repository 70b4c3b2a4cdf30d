package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"csv-insights/web/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestSessionServiceRoundTrip(t *testing.T) {
	ss, err := NewSessionService(4, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionService() error = %v", err)
	}

	id := uuid.New()
	s := ss.Get(id)
	if s.ID != id || len(s.Transcript) != 0 {
		t.Fatalf("fresh session = %+v", s)
	}

	s.Append(types.Turn{Speaker: types.SpeakerUser, Text: "Hi"})
	// Not saved yet.
	if got := ss.Get(id); len(got.Transcript) != 0 {
		t.Errorf("unsaved change leaked into store")
	}

	ss.Save(s)
	got := ss.Get(id)
	if len(got.Transcript) != 1 || got.Transcript[0].Text != "Hi" {
		t.Errorf("saved transcript = %+v", got.Transcript)
	}

	got.Append(types.Turn{Speaker: types.SpeakerBot, Text: "x"})
	if again := ss.Get(id); len(again.Transcript) != 1 {
		t.Errorf("mutating a copy changed the stored session")
	}

	if !ss.Delete(id) || ss.Len() != 0 {
		t.Errorf("Delete failed, Len = %d", ss.Len())
	}
}

func TestSessionServiceEvictsAndFindsStale(t *testing.T) {
	ss, err := NewSessionService(2, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionService() error = %v", err)
	}
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		ss.Save(ss.Get(id))
	}
	if ss.Len() != 2 {
		t.Errorf("Len = %d, want 2", ss.Len())
	}

	if stale := ss.StaleSessions(time.Now().Add(-time.Hour)); len(stale) != 0 {
		t.Errorf("nothing should be stale yet, got %v", stale)
	}
	stale := ss.StaleSessions(time.Now().Add(time.Second))
	if len(stale) != 2 {
		t.Errorf("StaleSessions = %v, want both cached sessions", stale)
	}

	if _, err := NewSessionService(0, zap.NewNop()); err == nil {
		t.Error("capacity 0 should fail")
	}
}

func TestSessionServiceConcurrentUpdates(t *testing.T) {
	ss, err := NewSessionService(4, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionService() error = %v", err)
	}
	id := uuid.New()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ss.Update(id, func(s *types.Session) {
				s.Append(types.Turn{Speaker: types.SpeakerUser, Text: fmt.Sprintf("msg %d", i)})
				time.Sleep(time.Millisecond)
			})
		}(i)
	}
	wg.Wait()

	got := ss.Get(id)
	if len(got.Transcript) != writers {
		t.Fatalf("transcript has %d turns, want %d", len(got.Transcript), writers)
	}
	seen := make(map[string]bool)
	for _, turn := range got.Transcript {
		seen[turn.Text] = true
	}
	if len(seen) != writers {
		t.Errorf("transcript has %d distinct turns, want %d", len(seen), writers)
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if len(ss.locks) != 0 {
		t.Errorf("%d session locks left after all updates finished", len(ss.locks))
	}
}

func TestSessionServiceUpdateDoesNotBlockOtherSessions(t *testing.T) {
	ss, err := NewSessionService(4, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionService() error = %v", err)
	}
	busy, other := uuid.New(), uuid.New()

	release := make(chan struct{})
	held := make(chan struct{})
	go ss.Update(busy, func(*types.Session) {
		close(held)
		<-release
	})
	<-held

	done := make(chan struct{})
	go func() {
		ss.Update(other, func(s *types.Session) {
			s.Append(types.Turn{Speaker: types.SpeakerUser, Text: "Hi"})
		})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Update on another session waited for the busy one")
	}
	close(release)
}
