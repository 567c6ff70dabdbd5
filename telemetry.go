package main

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// publishTimeout bounds how long a cycle waits for the broker.  Telemetry
// must not stretch the poll period by more than this.
const publishTimeout = 2 * time.Second

// mqttPublisher is the part of mqtt.Client used for telemetry.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Telemetry publishes each cycle as JSON.  Delivery is best effort at QoS 0.
type Telemetry struct {
	client mqttPublisher
	topic  string
	logger *EventLogger
}

// NewTelemetry connects to the configured broker.  The client reconnects on
// its own after the first successful connection.
func NewTelemetry(cfg MQTTConfig, logger *EventLogger) (*Telemetry, mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		logger.Zap().Info("connected to mqtt broker", zap.String("broker", cfg.Broker))
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Error("mqtt connection lost", err)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", cfg.Broker, token.Error())
	}
	return newTelemetry(client, cfg.Topic, logger), client, nil
}

func newTelemetry(client mqttPublisher, topic string, logger *EventLogger) *Telemetry {
	return &Telemetry{client: client, topic: topic, logger: logger}
}

// Observe publishes one cycle.
func (t *Telemetry) Observe(c Cycle) {
	payload, err := json.Marshal(c)
	if err != nil {
		t.logger.Error("encode telemetry", err)
		return
	}
	token := t.client.Publish(t.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		t.logger.Zap().Warn("telemetry publish timed out", zap.String("topic", t.topic))
		return
	}
	if err := token.Error(); err != nil {
		t.logger.Error("telemetry publish failed", err, zap.String("topic", t.topic))
	}
}
