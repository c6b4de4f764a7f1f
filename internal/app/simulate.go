package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/gesture"
	"github.com/relabs-tech/gesture_computer/internal/sensors"
	"github.com/relabs-tech/gesture_computer/internal/store"
)

// DefaultScript is played by the simulator when no gestures are given.
var DefaultScript = []gesture.Label{gesture.Flip, gesture.Up, gesture.Right, gesture.Down, gesture.Left}

// simControls stands in for the panel: presses are one-shot and LEDs print.
type simControls struct {
	start, stop bool
}

func (c *simControls) StartPressed() bool {
	pressed := c.start
	c.start = false
	return pressed
}

func (c *simControls) StopPressed() bool {
	pressed := c.stop
	c.stop = false
	return pressed
}

func (c *simControls) ShowReady() error     { fmt.Println("[LED ] ready"); return nil }
func (c *simControls) ShowRecording() error { fmt.Println("[LED ] recording"); return nil }
func (c *simControls) Confirm() error       { fmt.Println("[LED ] correct"); return nil }

// logPublisher prints what would have gone to the broker.
type logPublisher struct{}

func (logPublisher) Publish(topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	log.Printf("simulate: %s %s", topic, b)
	return nil
}

// RunSimulate plays script through the full recorder loop without hardware.
// It publishes over MQTT and logs the session when a broker and database
// are reachable.
func RunSimulate(script []gesture.Label) error {
	if len(script) == 0 {
		script = DefaultScript
	}
	log.Printf("starting gesture simulator, script %v", script)

	cfg := config.Get()
	const rest = 8

	var pub Publisher = logPublisher{}
	if client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDRecorder); err != nil {
		log.Printf("simulate: %v, logging events instead", err)
	} else {
		defer client.Disconnect(250)
		pub = mqttPublisher{client: client}
	}

	var saver SessionSaver
	if sessions, err := store.Open(cfg.SessionDBPath); err != nil {
		log.Printf("simulate: session log disabled: %v", err)
	} else {
		defer sessions.Close()
		saver = sessions
	}

	controls := &simControls{start: true}
	loop := NewRecorderLoop(cfg, sensors.NewScriptedSource(script, rest), controls, pub, saver)
	samples := sensors.ScriptLen(script, rest)

	ticker := time.NewTicker(cfg.SampleInterval())
	defer ticker.Stop()

	ctx := context.Background()
	recorded := 0
	for t := range ticker.C {
		ev, done := loop.Step(ctx, t)
		if done {
			fmt.Printf("[MOVE] %v\n", ev.Gestures)
			if !slices.Equal(ev.Gestures, script) {
				return fmt.Errorf("detected %v, want %v", ev.Gestures, script)
			}
			return nil
		}
		recorded++
		if recorded == samples {
			controls.stop = true
		}
	}
	return nil
}
