// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package panel drives the wand's two push buttons and three status LEDs.
package panel

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_computer/internal/config"
)

// BlinkPeriod is how long an LED stays on, and then off, during one blink.
const BlinkPeriod = 100 * time.Millisecond

// Panel is the wand's button and LED board.
type Panel struct {
	start     gpio.PinIn
	stop      gpio.PinIn
	ready     gpio.PinOut
	recording gpio.PinOut
	correct   gpio.PinOut

	blink time.Duration
}

// Open initializes periph and looks up the pins named in cfg.
func Open(cfg *config.Config) (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("panel: periph host init: %w", err)
	}

	pins := make([]gpio.PinIO, 0, 5)
	for _, name := range []string{
		cfg.PinStartButton,
		cfg.PinStopButton,
		cfg.PinReadyLED,
		cfg.PinRecordingLED,
		cfg.PinCorrectLED,
	} {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("panel: pin %q not found", name)
		}
		pins = append(pins, p)
	}
	return New(pins[0], pins[1], pins[2], pins[3], pins[4])
}

// New configures the buttons as pulled-down inputs and turns all LEDs off.
func New(start, stop gpio.PinIn, ready, recording, correct gpio.PinOut) (*Panel, error) {
	for _, b := range []gpio.PinIn{start, stop} {
		if err := b.In(gpio.PullDown, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("panel: button %s: %w", b, err)
		}
	}
	p := &Panel{
		start:     start,
		stop:      stop,
		ready:     ready,
		recording: recording,
		correct:   correct,
		blink:     BlinkPeriod,
	}
	if err := p.set(gpio.Low, ready, recording, correct); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Panel) StartPressed() bool { return p.start.Read() == gpio.High }
func (p *Panel) StopPressed() bool  { return p.stop.Read() == gpio.High }

// ShowReady lights the ready LED only.
func (p *Panel) ShowReady() error {
	if err := p.set(gpio.Low, p.recording); err != nil {
		return err
	}
	return p.set(gpio.High, p.ready)
}

// ShowRecording lights the recording LED only.
func (p *Panel) ShowRecording() error {
	if err := p.set(gpio.Low, p.ready); err != nil {
		return err
	}
	return p.set(gpio.High, p.recording)
}

// Confirm blinks the correct LED once. It blocks for two blink periods.
func (p *Panel) Confirm() error {
	return p.blinkPins(1, p.correct)
}

// Greet blinks every LED three times and leaves them off.
func (p *Panel) Greet() error {
	return p.blinkPins(3, p.ready, p.recording, p.correct)
}

func (p *Panel) blinkPins(times int, pins ...gpio.PinOut) error {
	for i := 0; i < times; i++ {
		if err := p.set(gpio.High, pins...); err != nil {
			return err
		}
		time.Sleep(p.blink)
		if err := p.set(gpio.Low, pins...); err != nil {
			return err
		}
		time.Sleep(p.blink)
	}
	return nil
}

func (p *Panel) set(l gpio.Level, pins ...gpio.PinOut) error {
	for _, pin := range pins {
		if err := pin.Out(l); err != nil {
			return fmt.Errorf("panel: LED %s: %w", pin, err)
		}
	}
	return nil
}
