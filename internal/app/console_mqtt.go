package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gesture_computer/internal/config"
)

// formatGestureEvent renders one detected sequence as a console line.
func formatGestureEvent(ev GestureEvent) string {
	names := make([]string, len(ev.Gestures))
	for i, g := range ev.Gestures {
		names[i] = g.String()
	}
	seq := strings.Join(names, " ")
	if seq == "" {
		seq = "(none)"
	}
	return fmt.Sprintf("[MOVE] session=%s samples=%4d  %s",
		ev.SessionID, ev.Samples, seq)
}

func formatStateEvent(ev StateEvent) string {
	if ev.SessionID == "" {
		return fmt.Sprintf("[STATE] %s", ev.State)
	}
	return fmt.Sprintf("[STATE] %s session=%s", ev.State, ev.SessionID)
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to detected sequences
	movesToken := client.Subscribe(cfg.TopicGestures, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev GestureEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: gestures unmarshal error: %v", err)
			return
		}
		fmt.Println(formatGestureEvent(ev))
	})
	movesToken.Wait()
	if movesToken.Error() != nil {
		return movesToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicGestures)

	// Subscribe to recorder state
	stateToken := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev StateEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: state unmarshal error: %v", err)
			return
		}
		fmt.Println(formatStateEvent(ev))
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicState)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
