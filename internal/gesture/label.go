// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gesture

import (
	"fmt"
	"strings"
)

// Label is one of the fixed gestures the detector can report.
type Label int

const (
	Flip Label = iota
	Up
	Down
	Left
	Right
	Forward
	Backward
)

var labelNames = [...]string{"FLIP", "UP", "DOWN", "LEFT", "RIGHT", "FORWARD", "BACKWARD"}

// Labels lists every gesture in declaration order.
func Labels() []Label {
	return []Label{Flip, Up, Down, Left, Right, Forward, Backward}
}

func (l Label) String() string {
	if l >= 0 && int(l) < len(labelNames) {
		return labelNames[l]
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// ParseLabel parses a gesture name such as "FLIP" or "forward".
func ParseLabel(s string) (Label, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range labelNames {
		if n == name {
			return Label(i), nil
		}
	}
	return 0, fmt.Errorf("unknown gesture label %q", s)
}

func (l Label) MarshalText() ([]byte, error) {
	if l < 0 || int(l) >= len(labelNames) {
		return nil, fmt.Errorf("invalid gesture label %d", int(l))
	}
	return []byte(labelNames[l]), nil
}

func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
