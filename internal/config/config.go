package config

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/relabs-tech/gesture_computer/internal/gesture"
)

// ssd1306Addr is the only I2C address the ssd1306 driver talks to.
const ssd1306Addr = 0x3C

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDRecorder string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string

	// Topics
	TopicGestures string
	TopicState    string
	TopicIMU      string

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string

	// IMU Sensor Ranges
	// Accelerometer: 0=±2g, 1=±4g, 2=±8g, 3=±16g
	IMUAccelRange byte
	// Gyroscope: 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
	IMUGyroRange byte

	// Panel GPIO
	PinStartButton  string
	PinStopButton   string
	PinReadyLED     string
	PinRecordingLED string
	PinCorrectLED   string

	// Recording
	IMUSampleInterval   int // milliseconds
	RecordingMaxSamples int

	// Gesture detection
	GestureSensitivity   float64
	GestureBufferOffset  int
	GestureZOffset       float64
	GestureFlipTolerance int
	GestureClusterWindow int

	// Storage
	SessionDBPath string

	// Web Server
	WebServerPort int

	// Display
	DisplayI2CAddr        uint16
	DisplayUpdateInterval int // milliseconds
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	p := gesture.DefaultParams()
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDRecorder: "gesture-recorder",
		MQTTClientIDConsole:  "gesture-console",
		MQTTClientIDWeb:      "gesture-web",
		MQTTClientIDDisplay:  "gesture-display",

		TopicGestures: "gesture/sequence",
		TopicState:    "gesture/state",
		TopicIMU:      "gesture/imu",

		IMUSPIDevice: "/dev/spidev0.0",
		IMUCSPin:     "8",

		PinStartButton:  "GPIO5",
		PinStopButton:   "GPIO6",
		PinReadyLED:     "GPIO12",
		PinRecordingLED: "GPIO16",
		PinCorrectLED:   "GPIO20",

		IMUSampleInterval:   100,
		RecordingMaxSamples: 1000,

		GestureSensitivity:   p.Sensitivity,
		GestureBufferOffset:  p.BufferOffset,
		GestureZOffset:       p.ZOffset,
		GestureFlipTolerance: p.FlipTolerance,
		GestureClusterWindow: p.ClusterWindow,

		SessionDBPath: "gesture_sessions.db",
		WebServerPort: 8080,

		DisplayI2CAddr:        ssd1306Addr,
		DisplayUpdateInterval: 250,
	}
}

// Load reads the configuration file on top of the defaults and returns a Config struct.
// The file holds KEY=VALUE lines; blank lines and # comments are ignored.
func Load(configPath string) (*Config, error) {
	values, err := godotenv.Read(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()

	// Apply in a stable order so the first bad key reported is deterministic.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := cfg.setValue(key, values[key]); err != nil {
			return nil, fmt.Errorf("config key %s: %w", key, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_RECORDER":
		c.MQTTClientIDRecorder = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_GESTURES":
		c.TopicGestures = value
	case "TOPIC_STATE":
		c.TopicState = value
	case "TOPIC_IMU":
		c.TopicIMU = value

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value

	// IMU Sensor Ranges
	case "IMU_ACCEL_RANGE":
		c.IMUAccelRange, err = parseSelector(value, "0=±2g, 1=±4g, 2=±8g, 3=±16g")
	case "IMU_GYRO_RANGE":
		c.IMUGyroRange, err = parseSelector(value, "0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s")

	// Panel GPIO
	case "PIN_START_BUTTON":
		c.PinStartButton = value
	case "PIN_STOP_BUTTON":
		c.PinStopButton = value
	case "PIN_READY_LED":
		c.PinReadyLED = value
	case "PIN_RECORDING_LED":
		c.PinRecordingLED = value
	case "PIN_CORRECT_LED":
		c.PinCorrectLED = value

	// Recording
	case "IMU_SAMPLE_INTERVAL":
		c.IMUSampleInterval, err = parsePositiveInt(value)
	case "RECORDING_MAX_SAMPLES":
		c.RecordingMaxSamples, err = parsePositiveInt(value)

	// Gesture detection
	case "GESTURE_SENSITIVITY":
		c.GestureSensitivity, err = strconv.ParseFloat(value, 64)
	case "GESTURE_BUFFER_OFFSET":
		c.GestureBufferOffset, err = strconv.Atoi(value)
	case "GESTURE_Z_OFFSET":
		c.GestureZOffset, err = strconv.ParseFloat(value, 64)
	case "GESTURE_FLIP_TOLERANCE":
		c.GestureFlipTolerance, err = strconv.Atoi(value)
	case "GESTURE_CLUSTER_WINDOW":
		c.GestureClusterWindow, err = strconv.Atoi(value)

	// Storage
	case "SESSION_DB_PATH":
		c.SessionDBPath = value

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parsePositiveInt(value)

	// Display
	case "DISPLAY_I2C_ADDR":
		var addr uint64
		addr, err = strconv.ParseUint(value, 0, 16)
		c.DisplayI2CAddr = uint16(addr)
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parsePositiveInt(value)

	default:
		return fmt.Errorf("unknown config key")
	}

	if err != nil {
		return fmt.Errorf("invalid value %q: %w", value, err)
	}
	return nil
}

func parseSelector(value, help string) (byte, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 3 {
		return 0, fmt.Errorf("must be 0-3 (%s), got %d", help, v)
	}
	return byte(v), nil
}

func parsePositiveInt(value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", v)
	}
	return v, nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicGestures == "" {
		return fmt.Errorf("TOPIC_GESTURES is required")
	}
	if c.IMUSPIDevice == "" {
		return fmt.Errorf("IMU_SPI_DEVICE is required")
	}
	if c.SessionDBPath == "" {
		return fmt.Errorf("SESSION_DB_PATH is required")
	}
	if c.DisplayI2CAddr != ssd1306Addr {
		return fmt.Errorf("DISPLAY_I2C_ADDR must be 0x%02X (the ssd1306 driver's fixed address), got 0x%02X", ssd1306Addr, c.DisplayI2CAddr)
	}
	if err := c.GestureParams().Validate(); err != nil {
		return fmt.Errorf("gesture parameters: %w", err)
	}
	return nil
}

// GestureParams returns the detection constants.
func (c *Config) GestureParams() gesture.Params {
	return gesture.Params{
		Sensitivity:   c.GestureSensitivity,
		BufferOffset:  c.GestureBufferOffset,
		ZOffset:       c.GestureZOffset,
		FlipTolerance: c.GestureFlipTolerance,
		ClusterWindow: c.GestureClusterWindow,
	}
}

// SampleInterval is the period of the recording loop.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.IMUSampleInterval) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
