package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/yetanothergithubaccount/DSObest/internal/logging"
)

// MQTTConfig configures the MQTT dispatcher.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

// publisher is the part of mqtt.Client the dispatcher needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTDispatcher publishes messages to <prefix>/message and files to
// <prefix>/file/<name>. A disabled dispatcher drops everything.
type MQTTDispatcher struct {
	client      publisher
	conn        mqtt.Client
	topicPrefix string
	enabled     bool
	timeout     time.Duration
	log         *logging.Logger
}

// filePayload is the JSON envelope for a published file.
type filePayload struct {
	Name    string    `json:"name"`
	Size    int       `json:"size"`
	SentAt  time.Time `json:"sent_at"`
	Content []byte    `json:"content"` // base64 in JSON
}

// NewMQTTDispatcher connects to the broker when cfg.Enabled is set.
func NewMQTTDispatcher(cfg MQTTConfig, log *logging.Logger) (*MQTTDispatcher, error) {
	if log == nil {
		log = logging.Discard()
	}
	if !cfg.Enabled {
		return &MQTTDispatcher{enabled: false, log: log}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Warn("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Info("MQTT connected to %s", cfg.Broker)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timeout", cfg.Broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTTDispatcher{
		client:      client,
		conn:        client,
		topicPrefix: cfg.TopicPrefix,
		enabled:     true,
		timeout:     10 * time.Second,
		log:         log,
	}, nil
}

func newMQTTDispatcher(client publisher, prefix string) *MQTTDispatcher {
	return &MQTTDispatcher{
		client:      client,
		topicPrefix: prefix,
		enabled:     true,
		timeout:     time.Second,
		log:         logging.Discard(),
	}
}

// Text implements Dispatcher.
func (d *MQTTDispatcher) Text(ctx context.Context, msg string) error {
	if !d.enabled {
		return nil
	}
	return d.publish(ctx, d.topicPrefix+"/message", true, msg)
}

// File implements Dispatcher.
func (d *MQTTDispatcher) File(ctx context.Context, path string) error {
	if !d.enabled {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	name := filepath.Base(path)
	payload, err := json.Marshal(filePayload{Name: name, Size: len(data), SentAt: time.Now().UTC(), Content: data})
	if err != nil {
		return fmt.Errorf("failed to marshal file: %w", err)
	}
	return d.publish(ctx, d.topicPrefix+"/file/"+name, false, payload)
}

func (d *MQTTDispatcher) publish(ctx context.Context, topic string, retained bool, payload interface{}) error {
	token := d.client.Publish(topic, 1, retained, payload)

	timeout := d.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < timeout {
			timeout = until
		}
	}
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	d.log.Debug("published %s", topic)
	return nil
}

// IsConnected reports the broker connection state.
func (d *MQTTDispatcher) IsConnected() bool {
	if !d.enabled || d.conn == nil {
		return false
	}
	return d.conn.IsConnected()
}

func (d *MQTTDispatcher) Close() {
	if d.enabled && d.conn != nil {
		d.conn.Disconnect(1000)
	}
}
