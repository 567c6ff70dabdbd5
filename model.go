package main

import "time"

// MaxAnalog is the largest value a reading can take.  The sensor is sampled
// with 10 bits of resolution regardless of the converter behind it.
const MaxAnalog = 1023

// Condition is the classification of a single reading.  It is derived fresh
// on every cycle and never stored.
type Condition string

const (
	ConditionSafe   Condition = "safe"
	ConditionDanger Condition = "danger"
)

// Pins maps each logical role to a GPIO line (BCM numbering).  The gas sensor
// is not a GPIO: it is a channel on the ADS1115 converter on the I2C bus.
type Pins struct {
	SensorChannel int `json:"sensor_channel"` // ADS1115 input (0-3)
	LCDRS         int `json:"lcd_rs"`
	LCDE          int `json:"lcd_e"`
	LCDD4         int `json:"lcd_d4"`
	LCDD5         int `json:"lcd_d5"`
	LCDD6         int `json:"lcd_d6"`
	LCDD7         int `json:"lcd_d7"`
	Buzzer        int `json:"buzzer"`
	Red           int `json:"red"`
	Green         int `json:"green"`
	Relay         int `json:"relay"`
}

// ModemConfig describes the serial link to the GSM modem and the number that
// receives the alert SMS.
type ModemConfig struct {
	Port      string `json:"port"`      // e.g. /dev/serial0
	BaudRate  int    `json:"baud_rate"` // 9600 for SIM800/SIM900 boards
	Recipient string `json:"recipient"` // international format, e.g. +15551234567
}

// AlertConfig configures one alert channel in addition to, or instead of, the
// SMS modem.  Type is one of "sms", "log", "email" or "telegram"; only the
// fields for that type are read.
type AlertConfig struct {
	Type       string `json:"type"`
	SMTPServer string `json:"smtp_server,omitempty"`
	SMTPPort   int    `json:"smtp_port,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
	Subject    string `json:"subject,omitempty"`
	BotToken   string `json:"bot_token,omitempty"`
	ChatID     int64  `json:"chat_id,omitempty"`
}

// MQTTConfig enables publishing of every cycle to a broker.  An empty Broker
// disables telemetry.
type MQTTConfig struct {
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// StatusConfig enables the read-only status API.  Port 0 disables it.  When
// CertFile and KeyFile are both set the API is served over TLS.
type StatusConfig struct {
	Port         int    `json:"port"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"` // bcrypt
	CertFile     string `json:"cert_file,omitempty"`
	KeyFile      string `json:"key_file,omitempty"`
}

// Config is the top-level structure serialized to config.json.
type Config struct {
	Threshold        int           `json:"threshold"`
	PollIntervalMs   int           `json:"poll_interval_ms"`
	Pins             Pins          `json:"pins"`
	Modem            ModemConfig   `json:"modem"`
	Alerts           []AlertConfig `json:"alerts"`
	LogFile          string        `json:"log_file"`
	LogMaxSizeMB     int           `json:"log_max_size_mb"`
	LogMaxBackups    int           `json:"log_max_backups"`
	MQTT             MQTTConfig    `json:"mqtt"`
	Status           StatusConfig  `json:"status"`
	SimulatedReading int           `json:"simulated_reading"` // used only by the desktop HAL
}

// PollInterval returns the nominal sleep between cycles.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// Cycle records one pass of the control loop.  It is handed to observers
// (event log, status API, telemetry) and then discarded.
type Cycle struct {
	Time      time.Time `json:"time"`
	Reading   int       `json:"reading"`
	Threshold int       `json:"threshold"`
	Condition Condition `json:"condition"`
	Notified  bool      `json:"notified"`
}
