// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_computer/internal/config"
	"github.com/relabs-tech/gesture_computer/internal/gesture"
	"github.com/relabs-tech/gesture_computer/internal/imu"
	"github.com/relabs-tech/gesture_computer/internal/panel"
	"github.com/relabs-tech/gesture_computer/internal/recording"
	"github.com/relabs-tech/gesture_computer/internal/sensors"
	"github.com/relabs-tech/gesture_computer/internal/store"
)

// GestureEvent is published on TOPIC_GESTURES when a recording ends.
type GestureEvent struct {
	SessionID string          `json:"session_id"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
	Samples   int             `json:"samples"`
	Gestures  []gesture.Label `json:"gestures"`
}

// StateEvent is published on TOPIC_STATE whenever the recorder changes state.
type StateEvent struct {
	State     string    `json:"state"`
	SessionID string    `json:"session_id,omitempty"`
	Time      time.Time `json:"time"`
}

// Controls are the wand's buttons and LEDs as seen by the recorder loop.
type Controls interface {
	StartPressed() bool
	StopPressed() bool
	ShowReady() error
	ShowRecording() error
	Confirm() error
}

// Publisher sends a JSON-encoded payload to a topic.
type Publisher interface {
	Publish(topic string, payload any) error
}

// SessionSaver persists finished sessions.
type SessionSaver interface {
	SaveSession(ctx context.Context, sess recording.Session) error
}

// RecorderLoop ties buttons, IMU and detector together. Call Step once per
// sample interval.
type RecorderLoop struct {
	source   imu.SampleSource
	controls Controls
	pub      Publisher
	saver    SessionSaver
	rec      *recording.Recorder
	params   gesture.Params

	topicGestures string
	topicState    string
	topicIMU      string
}

// NewRecorderLoop builds a loop from cfg. saver may be nil.
func NewRecorderLoop(cfg *config.Config, src imu.SampleSource, controls Controls, pub Publisher, saver SessionSaver) *RecorderLoop {
	return &RecorderLoop{
		source:        src,
		controls:      controls,
		pub:           pub,
		saver:         saver,
		rec:           recording.New(cfg.RecordingMaxSamples),
		params:        cfg.GestureParams(),
		topicGestures: cfg.TopicGestures,
		topicState:    cfg.TopicState,
		topicIMU:      cfg.TopicIMU,
	}
}

// State returns the recorder state.
func (l *RecorderLoop) State() recording.State { return l.rec.State() }

// Step handles one tick: button presses first, then sampling while recording.
// It reports the event when a recording finished during this tick.
func (l *RecorderLoop) Step(ctx context.Context, now time.Time) (GestureEvent, bool) {
	var (
		ev   GestureEvent
		done bool
	)

	switch {
	case l.rec.State() == recording.Ready && l.controls.StartPressed():
		l.rec.Start(now)
		if err := l.controls.ShowRecording(); err != nil {
			log.Printf("recorder: LED error: %v", err)
		}
		l.publishState(now)
		log.Printf("recorder: recording session %s", l.rec.SessionID())

	case l.rec.State() == recording.Recording && l.controls.StopPressed():
		ev = l.finish(ctx, now)
		done = true
	}

	if l.rec.State() == recording.Recording {
		l.sample()
	}
	return ev, done
}

func (l *RecorderLoop) finish(ctx context.Context, now time.Time) GestureEvent {
	buf, sess, _ := l.rec.Stop(now)
	if err := l.controls.ShowReady(); err != nil {
		log.Printf("recorder: LED error: %v", err)
	}
	l.publishState(now)

	labels, err := gesture.Detect(buf, l.params)
	if err != nil {
		// Recorder buffers always have matching lengths, so this is a bad config.
		log.Printf("recorder: detect error: %v", err)
		labels = []gesture.Label{}
	}
	sess.Gestures = labels
	log.Printf("recorder: session %s: %d samples, gestures %v", sess.ID, sess.Samples, labels)

	for range labels {
		if err := l.controls.Confirm(); err != nil {
			log.Printf("recorder: LED error: %v", err)
			break
		}
	}

	ev := GestureEvent{
		SessionID: sess.ID,
		StartedAt: sess.StartedAt,
		EndedAt:   sess.EndedAt,
		Samples:   sess.Samples,
		Gestures:  labels,
	}
	if err := l.pub.Publish(l.topicGestures, ev); err != nil {
		log.Printf("recorder: publish gestures: %v", err)
	}
	if l.saver != nil {
		if err := l.saver.SaveSession(ctx, sess); err != nil {
			log.Printf("recorder: save session: %v", err)
		}
	}
	return ev
}

func (l *RecorderLoop) sample() {
	s, err := l.source.Next()
	if err != nil {
		log.Printf("recorder: IMU read error: %v", err)
		return
	}
	if l.rec.Add(s) {
		log.Printf("recorder: session %s overflowed, restarting window", l.rec.SessionID())
	}
	if err := l.pub.Publish(l.topicIMU, s); err != nil {
		log.Printf("recorder: publish sample: %v", err)
	}
}

func (l *RecorderLoop) publishState(now time.Time) {
	ev := StateEvent{State: l.rec.State().String(), SessionID: l.rec.SessionID(), Time: now}
	if err := l.pub.Publish(l.topicState, ev); err != nil {
		log.Printf("recorder: publish state: %v", err)
	}
}

// mqttPublisher publishes JSON payloads with QoS 0.
type mqttPublisher struct {
	client mqtt.Client
}

func (p mqttPublisher) Publish(topic string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	token := p.client.Publish(topic, 0, false, b)
	token.Wait()
	return token.Error()
}

func connectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	return client, nil
}

// RunRecorder runs the wand: buttons, LEDs and IMU on the Pi, gestures out
// over MQTT and into the session log.
func RunRecorder() error {
	log.Println("starting gesture recorder")

	cfg := config.Get()

	controls, err := panel.Open(cfg)
	if err != nil {
		return err
	}
	if err := controls.Greet(); err != nil {
		log.Printf("recorder: LED error: %v", err)
	}
	if err := controls.ShowReady(); err != nil {
		log.Printf("recorder: LED error: %v", err)
	}

	src, err := sensors.NewIMU(cfg)
	if err != nil {
		return err
	}

	sessions, err := store.Open(cfg.SessionDBPath)
	if err != nil {
		return err
	}
	defer sessions.Close()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDRecorder)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("recorder: connected to MQTT broker at %s", cfg.MQTTBroker)

	loop := NewRecorderLoop(cfg, src, controls, mqttPublisher{client: client}, sessions)
	loop.publishState(time.Now())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.SampleInterval())
	defer ticker.Stop()

	log.Println("recorder: ready, press start")
	for {
		select {
		case <-ctx.Done():
			log.Println("recorder: shutting down")
			return nil
		case t := <-ticker.C:
			loop.Step(ctx, t)
		}
	}
}
