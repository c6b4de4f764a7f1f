package app

import (
	"testing"

	"github.com/relabs-tech/gesture_computer/internal/gesture"
)

func TestFormatGestureEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   GestureEvent
		want string
	}{
		{
			name: "sequence",
			ev:   GestureEvent{SessionID: "abc", Samples: 42, Gestures: []gesture.Label{gesture.Flip, gesture.Left}},
			want: "[MOVE] session=abc samples=  42  FLIP LEFT",
		},
		{
			name: "nothing detected",
			ev:   GestureEvent{SessionID: "abc", Samples: 3, Gestures: []gesture.Label{}},
			want: "[MOVE] session=abc samples=   3  (none)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatGestureEvent(tt.ev); got != tt.want {
				t.Errorf("got = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatStateEvent(t *testing.T) {
	if got := formatStateEvent(StateEvent{State: "ready"}); got != "[STATE] ready" {
		t.Errorf("got = %q", got)
	}
	if got := formatStateEvent(StateEvent{State: "recording", SessionID: "s1"}); got != "[STATE] recording session=s1" {
		t.Errorf("got = %q", got)
	}
}
