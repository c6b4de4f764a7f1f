// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Command simulate plays a scripted gesture sequence through the recorder
// without any hardware:
//
//	simulate FLIP UP LEFT
package main

import (
	"log"
	"os"

	"github.com/relabs-tech/gesture_computer/internal/app"
	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/gesture"
)

func main() {
	if err := config.InitGlobal("gesture_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var script []gesture.Label
	for _, arg := range os.Args[1:] {
		l, err := gesture.ParseLabel(arg)
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		script = append(script, l)
	}

	if err := app.RunSimulate(script); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
