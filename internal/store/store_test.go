package store

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/relabs-tech/gesture_computer/internal/gesture"
	"github.com/relabs-tech/gesture_computer/internal/recording"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func session(id string, started time.Time, labels ...gesture.Label) recording.Session {
	return recording.Session{
		ID:        id,
		StartedAt: started,
		EndedAt:   started.Add(3 * time.Second),
		Samples:   30,
		Gestures:  labels,
	}
}

func TestSaveAndGetSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 5, 2, 10, 30, 0, 0, time.UTC)

	want := session("sess-1", t0, gesture.Flip, gesture.Up, gesture.Left)
	if err := s.SaveSession(ctx, want); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := s.Session(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.ID != want.ID || got.Samples != want.Samples {
		t.Errorf("got = %+v, want %+v", got, want)
	}
	if !got.StartedAt.Equal(want.StartedAt) || !got.EndedAt.Equal(want.EndedAt) {
		t.Errorf("times = %v..%v, want %v..%v", got.StartedAt, got.EndedAt, want.StartedAt, want.EndedAt)
	}
	if !slices.Equal(got.Gestures, want.Gestures) {
		t.Errorf("gestures = %v, want %v", got.Gestures, want.Gestures)
	}
}

func TestSessionNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Session(context.Background(), "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSaveSessionWithoutGestures(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveSession(ctx, session("quiet", time.Now())); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	got, err := s.Session(ctx, "quiet")
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if got.Gestures == nil || len(got.Gestures) != 0 {
		t.Errorf("gestures = %#v, want empty non-nil", got.Gestures)
	}
}

func TestSaveSessionReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Now()

	s.SaveSession(ctx, session("dup", t0, gesture.Up))
	if err := s.SaveSession(ctx, session("dup", t0, gesture.Down)); err != nil {
		t.Fatalf("second SaveSession: %v", err)
	}

	all, err := s.RecentSessions(ctx, 10)
	if err != nil {
		t.Fatalf("RecentSessions: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d sessions, want 1", len(all))
	}
	if !slices.Equal(all[0].Gestures, []gesture.Label{gesture.Down}) {
		t.Errorf("gestures = %v, want [DOWN]", all[0].Gestures)
	}
}

func TestRecentSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c", "d"} {
		if err := s.SaveSession(ctx, session(id, t0.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveSession %s: %v", id, err)
		}
	}

	tests := []struct {
		limit int
		want  []string
	}{
		{limit: 2, want: []string{"d", "c"}},
		{limit: 10, want: []string{"d", "c", "b", "a"}},
		{limit: 0, want: []string{}},
	}

	for _, tt := range tests {
		got, err := s.RecentSessions(ctx, tt.limit)
		if err != nil {
			t.Fatalf("RecentSessions(%d): %v", tt.limit, err)
		}
		ids := []string{}
		for _, sess := range got {
			ids = append(ids, sess.ID)
		}
		if !slices.Equal(ids, tt.want) {
			t.Errorf("RecentSessions(%d) = %v, want %v", tt.limit, ids, tt.want)
		}
	}
}
