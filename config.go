package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// defaultConfigPath is the default filename for persisted configuration.
const defaultConfigPath = "config.json"

// defaultStatusPassword is only usable while the status API is disabled.
const defaultStatusPassword = "admin"

// ConfigManager wraps the loaded configuration and a mutex for concurrent
// access.  The control loop only reads it; the status API reads it from its
// own goroutine.
type ConfigManager struct {
	Path   string // defaults to config.json
	mu     sync.RWMutex
	cfg    Config
	loaded bool
}

// defaultConfig returns the factory configuration: threshold 500, one second
// polling and the wiring used on the reference board.
func defaultConfig() Config {
	return Config{
		Threshold:      500,
		PollIntervalMs: 1000,
		Pins: Pins{
			SensorChannel: 0,
			LCDRS:         26,
			LCDE:          19,
			LCDD4:         13,
			LCDD5:         6,
			LCDD6:         5,
			LCDD7:         11,
			Buzzer:        18,
			Red:           23,
			Green:         24,
			Relay:         25,
		},
		Modem: ModemConfig{
			Port:      "/dev/serial0",
			BaudRate:  9600,
			Recipient: "+910000000000",
		},
		Alerts:        []AlertConfig{{Type: "sms"}},
		LogFile:       "events.log",
		LogMaxSizeMB:  5,
		LogMaxBackups: 3,
		MQTT: MQTTConfig{
			ClientID: "gasminder",
			Topic:    "gasminder/cycle",
		},
		Status: StatusConfig{
			Port:         0,
			Username:     "admin",
			PasswordHash: hashPassword(defaultStatusPassword),
		},
	}
}

func (cm *ConfigManager) path() string {
	if cm.Path == "" {
		return defaultConfigPath
	}
	return cm.Path
}

// Load reads configuration from disk.  If the file does not exist the
// defaults are written out so they can be edited.  Environment overrides
// (optionally from a .env file) are applied on top and the result validated.
func (cm *ConfigManager) Load() error {
	cm.mu.Lock()
	if cm.loaded {
		cm.mu.Unlock()
		return nil
	}
	data, err := os.ReadFile(cm.path())
	if err != nil {
		if !os.IsNotExist(err) {
			cm.mu.Unlock()
			return fmt.Errorf("unable to read config: %w", err)
		}
		cm.cfg = defaultConfig()
		// Release the write lock before saving: Save takes a read lock.
		cm.mu.Unlock()
		if err := cm.Save(); err != nil {
			return err
		}
		cm.mu.Lock()
	} else {
		cfg := defaultConfig()
		if err := json.Unmarshal(data, &cfg); err != nil {
			cm.mu.Unlock()
			return fmt.Errorf("invalid %s: %w", cm.path(), err)
		}
		cm.cfg = cfg
	}
	defer cm.mu.Unlock()

	// A missing .env is normal.
	_ = godotenv.Load()
	if err := applyEnv(&cm.cfg); err != nil {
		return err
	}
	if err := cm.cfg.Validate(); err != nil {
		return err
	}
	cm.loaded = true
	return nil
}

// Save writes the configuration to disk through a temporary file.
func (cm *ConfigManager) Save() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	bytes, err := json.MarshalIndent(cm.cfg, "", "  ")
	if err != nil {
		return err
	}
	tmpPath := cm.path() + ".tmp"
	if err := os.WriteFile(tmpPath, bytes, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, cm.path())
}

// Get returns a copy of the current configuration.  Callers must treat the
// returned Config as immutable.
func (cm *ConfigManager) Get() Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.cfg
}

// applyEnv overrides selected fields from GAS_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("GAS_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GAS_THRESHOLD: %w", err)
		}
		cfg.Threshold = n
	}
	if v := os.Getenv("GAS_RECIPIENT"); v != "" {
		cfg.Modem.Recipient = v
	}
	if v := os.Getenv("GAS_MODEM_PORT"); v != "" {
		cfg.Modem.Port = v
	}
	if v := os.Getenv("GAS_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	token := os.Getenv("GAS_TELEGRAM_TOKEN")
	chat := os.Getenv("GAS_TELEGRAM_CHAT_ID")
	if token != "" && chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return fmt.Errorf("GAS_TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Alerts = append(cfg.Alerts, AlertConfig{Type: "telegram", BotToken: token, ChatID: id})
	}
	return nil
}

// Validate reports the first setting that would make the loop misbehave.
func (c Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > MaxAnalog {
		return fmt.Errorf("threshold %d outside [0, %d]", c.Threshold, MaxAnalog)
	}
	if c.PollIntervalMs <= 0 {
		return errors.New("poll_interval_ms must be positive")
	}
	if c.LogFile != "" && c.LogMaxSizeMB <= 0 {
		return errors.New("log_max_size_mb must be positive")
	}
	if c.Status.Port != 0 && checkPasswordHash(defaultStatusPassword, c.Status.PasswordHash) == nil {
		return errors.New("status api enabled with the default password; set status.password_hash")
	}
	if c.Pins.SensorChannel < 0 || c.Pins.SensorChannel > 3 {
		return fmt.Errorf("sensor_channel %d outside [0, 3]", c.Pins.SensorChannel)
	}
	for _, a := range c.Alerts {
		if strings.EqualFold(a.Type, "sms") {
			if strings.TrimSpace(c.Modem.Recipient) == "" {
				return errors.New("modem recipient is required for sms alerts")
			}
			if c.Modem.BaudRate <= 0 {
				return errors.New("modem baud_rate must be positive")
			}
		}
	}
	return nil
}
