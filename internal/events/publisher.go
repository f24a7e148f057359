// Package events publishes harness progress to MQTT.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"tatte-go/config"
)

// Event is one progress notification.
type Event struct {
	RunID     string                 `json:"run_id"`
	Phase     string                 `json:"phase"`
	Kind      string                 `json:"kind"` // "started", "progress" or "finished"
	Done      int                    `json:"done"`
	Total     int                    `json:"total"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(e Event) error
	Close()
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(Event) error { return nil }
func (Nop) Close()              {}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() {}

// Events returns a copy of what was published.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// MQTTPublisher sends events as JSON to <topic>/<phase>.
type MQTTPublisher struct {
	config config.MQTTConfig
	client mqtt.Client
}

// New returns an MQTT publisher when enabled in cfg, Nop otherwise.
func New(cfg config.MQTTConfig) (Publisher, error) {
	if !cfg.Enabled {
		log.Debug("MQTT events disabled")
		return Nop{}, nil
	}
	p := &MQTTPublisher{config: cfg}
	if err := p.Start(); err != nil {
		return nil, err
	}
	return p, nil
}

// Start connects to the broker.
func (p *MQTTPublisher) Start() error {
	opts := mqtt.NewClientOptions()
	brokerURL := fmt.Sprintf("tcp://%s:%d", p.config.Broker, p.config.Port)
	opts.AddBroker(brokerURL)
	opts.SetClientID(p.config.ClientID)
	if p.config.Username != "" {
		opts.SetUsername(p.config.Username)
		opts.SetPassword(p.config.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Errorf("MQTT connection lost: %v", err)
	})
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	opts.SetConnectTimeout(10 * time.Second)

	p.client = mqtt.NewClient(opts)
	log.Infof("Connecting to MQTT broker at %s", brokerURL)
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Info("MQTT publisher connected")
	return nil
}

// Topic returns the topic an event for phase is published on.
func Topic(base, phase string) string {
	return base + "/" + phase
}

// Publish sends e. The final event of a phase is retained.
func (p *MQTTPublisher) Publish(e Event) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client is not connected")
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	topic := Topic(p.config.Topic, e.Phase)
	token := p.client.Publish(topic, 1, e.Kind == "finished", payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	log.Debugf("Published %s event to %s", e.Kind, topic)
	return nil
}

// Close disconnects from the broker.
func (p *MQTTPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Info("MQTT publisher disconnected")
	}
}
