package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gesture_computer/internal/config"
)

const (
	displayWidth  = 128
	displayHeight = 64
	lineHeight    = 13
	lineChars     = displayWidth / 7 // basicfont glyphs are 7px wide
	displayLines  = displayHeight / lineHeight
)

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	state     StateEvent
	haveState bool

	last     GestureEvent
	haveLast bool
}

func (d *DisplayData) setState(ev StateEvent) {
	d.mu.Lock()
	d.state = ev
	d.haveState = true
	d.mu.Unlock()
}

func (d *DisplayData) setLast(ev GestureEvent) {
	d.mu.Lock()
	d.last = ev
	d.haveLast = true
	d.mu.Unlock()
}

// statusLines lays out the screen: recorder state first, then the last
// detected sequence wrapped on word boundaries.
func (d *DisplayData) statusLines() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	lines := make([]string, 0, displayLines)
	if d.haveState {
		lines = append(lines, "State: "+d.state.State)
	} else {
		lines = append(lines, "Gesture wand")
	}

	if !d.haveLast {
		return append(lines, "Waiting...")
	}
	if len(d.last.Gestures) == 0 {
		return append(lines, "No gestures")
	}

	names := make([]string, len(d.last.Gestures))
	for i, g := range d.last.Gestures {
		names[i] = g.String()
	}
	wrapped := wrapWords(names, lineChars)
	room := displayLines - len(lines)
	if len(wrapped) > room {
		wrapped = wrapped[:room]
		last := wrapped[room-1]
		if len(last)+4 > lineChars {
			last = last[:lineChars-4]
		}
		wrapped[room-1] = last + " ..."
	}
	return append(lines, wrapped...)
}

func wrapWords(words []string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
	)
	for _, w := range words {
		if cur.Len() > 0 && cur.Len()+1+len(w) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// renderLines draws one text line per 13px row.
func renderLines(lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	for i, line := range lines {
		drawer.Dot = fixed.P(0, lineHeight*(i+1))
		drawer.DrawString(line)
	}
	return img
}

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized at 0x%02X", cfg.DisplayI2CAddr)

	if err := dev.Draw(dev.Bounds(), renderLines([]string{"", "  Gesture wand", "  starting..."}), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev StateEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("display: state unmarshal error: %v", err)
			return
		}
		data.setState(ev)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicState)

	token = client.Subscribe(cfg.TopicGestures, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev GestureEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("display: gestures unmarshal error: %v", err)
			return
		}
		data.setLast(ev)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", cfg.TopicGestures)

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		if err := dev.Draw(dev.Bounds(), renderLines(data.statusLines()), image.Point{}); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}
