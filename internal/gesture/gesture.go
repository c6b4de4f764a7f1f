// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gesture turns a finished recording of accelerometer samples into
// the ordered list of gestures performed during it.
//
// Detection runs in two stages. Scan walks every axis independently and
// reports candidate spikes. Resolve merges those candidates, drops the ones
// caused by the shake of a flip and keeps the strongest spike of every
// time-local cluster. Both stages are pure functions of their input.
package gesture

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when a buffer or parameter set cannot be scanned.
var ErrInvalidInput = errors.New("invalid input")

// Buffer is one recording window. Index i of every channel is the same
// sampling instant, so all channels must have the same length.
type Buffer struct {
	AX []float64 `json:"ax"` // linear acceleration, m/s²
	AY []float64 `json:"ay"`
	AZ []float64 `json:"az"`

	GX []float64 `json:"gx"` // angular rate, rad/s
	GY []float64 `json:"gy"`
	GZ []float64 `json:"gz"`
}

// Len returns the number of samples in the buffer (the AX channel length).
func (b Buffer) Len() int {
	return len(b.AX)
}

// Validate checks that all six channels have the same length.
func (b Buffer) Validate() error {
	n := len(b.AX)
	channels := []struct {
		name string
		data []float64
	}{
		{"AY", b.AY}, {"AZ", b.AZ}, {"GX", b.GX}, {"GY", b.GY}, {"GZ", b.GZ},
	}
	for _, ch := range channels {
		if len(ch.data) != n {
			return fmt.Errorf("%w: channel %s has %d samples, AX has %d", ErrInvalidInput, ch.name, len(ch.data), n)
		}
	}
	return nil
}

// Candidate is a provisional detection on a single axis.
// Magnitude is only comparable between candidates of the same cluster.
type Candidate struct {
	Label     Label   `json:"label"`
	Index     int     `json:"index"`
	Magnitude float64 `json:"magnitude"`
}

// Params holds the detection constants.
type Params struct {
	Sensitivity   float64 `json:"sensitivity"`    // motion threshold
	BufferOffset  int     `json:"buffer_offset"`  // refractory length in samples
	ZOffset       float64 `json:"z_offset"`       // gravity compensation on AZ
	FlipTolerance int     `json:"flip_tolerance"` // samples around a flip that are discarded
	ClusterWindow int     `json:"cluster_window"` // cluster width from its first member
}

// DefaultParams returns the tuned values for a handheld sensor sampled every 100ms.
func DefaultParams() Params {
	return Params{
		Sensitivity:   4,
		BufferOffset:  4,
		ZOffset:       10,
		FlipTolerance: 4,
		ClusterWindow: 3,
	}
}

// Validate rejects parameter sets the detector cannot run with.
func (p Params) Validate() error {
	if !(p.Sensitivity > 0) || math.IsInf(p.Sensitivity, 1) {
		return fmt.Errorf("%w: sensitivity must be positive and finite, got %v", ErrInvalidInput, p.Sensitivity)
	}
	if math.IsNaN(p.ZOffset) || math.IsInf(p.ZOffset, 0) {
		return fmt.Errorf("%w: z offset must be finite, got %v", ErrInvalidInput, p.ZOffset)
	}
	if p.BufferOffset < 0 {
		return fmt.Errorf("%w: buffer offset must not be negative, got %d", ErrInvalidInput, p.BufferOffset)
	}
	if p.FlipTolerance < 0 {
		return fmt.Errorf("%w: flip tolerance must not be negative, got %d", ErrInvalidInput, p.FlipTolerance)
	}
	if p.ClusterWindow < 0 {
		return fmt.Errorf("%w: cluster window must not be negative, got %d", ErrInvalidInput, p.ClusterWindow)
	}
	return nil
}

// Result carries the intermediate candidates alongside the final sequence.
type Result struct {
	Candidates []Candidate `json:"candidates"`
	Gestures   []Label     `json:"gestures"`
}

// Detect scans buf and resolves the candidates into the final gesture sequence.
func Detect(buf Buffer, p Params) ([]Label, error) {
	res, err := Analyze(buf, p)
	if err != nil {
		return nil, err
	}
	return res.Gestures, nil
}

// Analyze is Detect but also returns the candidates found by the scanner.
func Analyze(buf Buffer, p Params) (Result, error) {
	cands, err := Scan(buf, p)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Candidates: cands,
		Gestures:   Resolve(cands, p),
	}, nil
}
