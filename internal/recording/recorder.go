// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package recording collects IMU samples between a start and a stop press and
// hands the finished window to the gesture detector.
package recording

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/gesture_computer/internal/gesture"
	"github.com/relabs-tech/gesture_computer/internal/imu"
)

// DefaultMaxSamples is 10s of data at the default 100ms sample interval.
const DefaultMaxSamples = 1000

// State of a Recorder.
type State int

const (
	Ready State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Recording:
		return "recording"
	default:
		return "unknown"
	}
}

// Session describes one finished recording and what was detected in it.
type Session struct {
	ID        string          `json:"session_id"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
	Samples   int             `json:"samples"`
	Gestures  []gesture.Label `json:"gestures"`
}

// Recorder accumulates samples while recording. It is not safe for
// concurrent use; the sampling loop owns it.
type Recorder struct {
	maxSamples int
	state      State
	buf        gesture.Buffer
	sessionID  string
	startedAt  time.Time
}

// New returns a Recorder in the Ready state. maxSamples <= 0 selects DefaultMaxSamples.
func New(maxSamples int) *Recorder {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Recorder{maxSamples: maxSamples}
}

func (r *Recorder) State() State { return r.state }

// Len returns the number of samples held in the current window.
func (r *Recorder) Len() int { return r.buf.Len() }

// SessionID returns the id of the recording in progress, or "" when ready.
func (r *Recorder) SessionID() string { return r.sessionID }

// Start begins a new window. It reports false if a recording is already running.
func (r *Recorder) Start(now time.Time) bool {
	if r.state == Recording {
		return false
	}
	r.state = Recording
	r.buf = gesture.Buffer{}
	r.sessionID = uuid.NewString()
	r.startedAt = now
	return true
}

// Stop ends the window and returns a copy of the collected samples together
// with the session metadata (Gestures is left for the caller to fill in).
// It reports false if no recording was running.
func (r *Recorder) Stop(now time.Time) (gesture.Buffer, Session, bool) {
	if r.state != Recording {
		return gesture.Buffer{}, Session{}, false
	}
	snapshot := gesture.Buffer{
		AX: slices.Clone(r.buf.AX),
		AY: slices.Clone(r.buf.AY),
		AZ: slices.Clone(r.buf.AZ),
		GX: slices.Clone(r.buf.GX),
		GY: slices.Clone(r.buf.GY),
		GZ: slices.Clone(r.buf.GZ),
	}
	sess := Session{
		ID:        r.sessionID,
		StartedAt: r.startedAt,
		EndedAt:   now,
		Samples:   snapshot.Len(),
	}

	r.state = Ready
	r.buf = gesture.Buffer{}
	r.sessionID = ""
	return snapshot, sess, true
}

// Add appends s to the window, rounded to 0.1 units. When the window is
// already full it is discarded first and Add reports true.
// Samples added while ready are ignored.
func (r *Recorder) Add(s imu.Sample) (overflowed bool) {
	if r.state != Recording {
		return false
	}
	if r.buf.Len() >= r.maxSamples {
		r.buf = gesture.Buffer{}
		overflowed = true
	}
	r.buf.AX = append(r.buf.AX, round1(s.Ax))
	r.buf.AY = append(r.buf.AY, round1(s.Ay))
	r.buf.AZ = append(r.buf.AZ, round1(s.Az))
	r.buf.GX = append(r.buf.GX, round1(s.Gx))
	r.buf.GY = append(r.buf.GY, round1(s.Gy))
	r.buf.GZ = append(r.buf.GZ, round1(s.Gz))
	return overflowed
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
