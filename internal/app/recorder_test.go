package app

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/gesture"
	"github.com/relabs-tech/gesture_computer/internal/imu"
	"github.com/relabs-tech/gesture_computer/internal/recording"
	"github.com/relabs-tech/gesture_computer/internal/sensors"
)

type fakeControls struct {
	simControls
	confirms  int
	ledErr    error
	lastState string
}

func (c *fakeControls) ShowReady() error     { c.lastState = "ready"; return c.ledErr }
func (c *fakeControls) ShowRecording() error { c.lastState = "recording"; return c.ledErr }
func (c *fakeControls) Confirm() error       { c.confirms++; return c.ledErr }

type published struct {
	topic   string
	payload any
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, payload any) error {
	p.msgs = append(p.msgs, published{topic, payload})
	return p.err
}

func (p *fakePublisher) topic(name string) []any {
	var out []any
	for _, m := range p.msgs {
		if m.topic == name {
			out = append(out, m.payload)
		}
	}
	return out
}

type fakeSaver struct {
	sessions []recording.Session
	err      error
}

func (s *fakeSaver) SaveSession(_ context.Context, sess recording.Session) error {
	s.sessions = append(s.sessions, sess)
	return s.err
}

type failingSource struct{}

func (failingSource) Next() (imu.Sample, error) { return imu.Sample{}, errors.New("bus error") }

// runScript presses start, records exactly the scripted samples, presses
// stop and returns the finished event.
func runScript(t *testing.T, loop *RecorderLoop, c *fakeControls, samples int) GestureEvent {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	c.start = true
	for i := 0; i < samples; i++ {
		if _, done := loop.Step(ctx, now); done {
			t.Fatalf("finished early at tick %d", i)
		}
		now = now.Add(100 * time.Millisecond)
	}
	c.stop = true
	ev, done := loop.Step(ctx, now)
	if !done {
		t.Fatal("stop press did not finish the recording")
	}
	return ev
}

func TestRecorderLoopDetectsScript(t *testing.T) {
	cfg := config.Default()
	script := []gesture.Label{gesture.Flip, gesture.Forward, gesture.Down}
	c := &fakeControls{}
	pub := &fakePublisher{}
	saver := &fakeSaver{}
	loop := NewRecorderLoop(cfg, sensors.NewScriptedSource(script, 6), c, pub, saver)

	n := sensors.ScriptLen(script, 6)
	ev := runScript(t, loop, c, n)

	if !slices.Equal(ev.Gestures, script) {
		t.Errorf("gestures = %v, want %v", ev.Gestures, script)
	}
	if ev.Samples != n {
		t.Errorf("samples = %d, want %d", ev.Samples, n)
	}
	if c.confirms != len(script) {
		t.Errorf("confirm blinks = %d, want %d", c.confirms, len(script))
	}
	if c.lastState != "ready" || loop.State() != recording.Ready {
		t.Errorf("after stop: LEDs %q, state %v", c.lastState, loop.State())
	}

	if got := pub.topic(cfg.TopicGestures); len(got) != 1 {
		t.Fatalf("gesture events = %d, want 1", len(got))
	} else if got[0].(GestureEvent).SessionID != ev.SessionID {
		t.Errorf("published session = %q, want %q", got[0].(GestureEvent).SessionID, ev.SessionID)
	}
	if got := len(pub.topic(cfg.TopicIMU)); got != n {
		t.Errorf("published samples = %d, want %d", got, n)
	}
	states := pub.topic(cfg.TopicState)
	if len(states) != 2 || states[0].(StateEvent).State != "recording" || states[1].(StateEvent).State != "ready" {
		t.Errorf("state events = %+v", states)
	}

	if len(saver.sessions) != 1 {
		t.Fatalf("saved sessions = %d, want 1", len(saver.sessions))
	}
	if saved := saver.sessions[0]; saved.ID != ev.SessionID || !slices.Equal(saved.Gestures, script) {
		t.Errorf("saved = %+v", saved)
	}
}

func TestRecorderLoopIgnoresPressesInWrongState(t *testing.T) {
	cfg := config.Default()
	c := &fakeControls{}
	pub := &fakePublisher{}
	loop := NewRecorderLoop(cfg, sensors.NewScriptedSource(nil, 4), c, pub, nil)
	ctx := context.Background()

	c.stop = true
	if _, done := loop.Step(ctx, time.Now()); done {
		t.Fatal("stop while ready finished a recording")
	}
	if len(pub.msgs) != 0 {
		t.Errorf("published %d messages while ready", len(pub.msgs))
	}
	c.stop = false

	c.start = true
	loop.Step(ctx, time.Now())
	c.start = true
	loop.Step(ctx, time.Now())
	if got := len(pub.topic(cfg.TopicState)); got != 1 {
		t.Errorf("state events = %d, want 1", got)
	}
	if got := len(pub.topic(cfg.TopicIMU)); got != 2 {
		t.Errorf("samples = %d, want 2", got)
	}
}

func TestRecorderLoopSurvivesFailures(t *testing.T) {
	cfg := config.Default()
	c := &fakeControls{ledErr: errors.New("led stuck")}
	pub := &fakePublisher{err: errors.New("broker gone")}
	saver := &fakeSaver{err: errors.New("disk full")}
	loop := NewRecorderLoop(cfg, failingSource{}, c, pub, saver)

	ev := runScript(t, loop, c, 5)

	if ev.Samples != 0 {
		t.Errorf("samples = %d, want 0 when every read fails", ev.Samples)
	}
	if len(ev.Gestures) != 0 || ev.Gestures == nil {
		t.Errorf("gestures = %#v, want empty", ev.Gestures)
	}
	if len(saver.sessions) != 1 {
		t.Errorf("save attempts = %d, want 1", len(saver.sessions))
	}
	if loop.State() != recording.Ready {
		t.Errorf("state = %v, want ready", loop.State())
	}
}
