// Package publish implements the MQTT publish sink the receiver core
// treats as an external collaborator, backed by the Paho MQTT client.
package publish

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Config configures the MQTT connection.
type Config struct {
	Broker   string // e.g. "tcp://localhost:1883"
	ClientID string
	Username string
	Password string

	// WillTopic/WillPayload are registered as the connection's Last Will
	// and Testament, so a disconnected gateway appears down to
	// subscribers without waiting on an application-level timeout.
	WillTopic   string
	WillPayload string

	ConnectTimeout time.Duration
}

// Client wraps a Paho MQTT client as a devicestate.Sink.
type Client struct {
	client mqtt.Client
	logger Logger
}

// Logger is the minimal logging surface publish needs; satisfied by a
// thin wrapper around the standard log package.
type Logger interface {
	Printf(format string, args ...any)
}

// noopLogger discards everything; used when no logger is supplied.
type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}

// Connect dials the broker and registers the configured LWT. The
// returned Client is ready to Publish immediately; MQTT publish failures
// are logged and otherwise swallowed, matching the spec's "transient,
// state is still updated" error policy (§7) — the caller never blocks
// or aborts demodulation on a broker hiccup.
func Connect(cfg Config, logger Logger) (*Client, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.WillTopic != "" {
		opts.SetWill(cfg.WillTopic, cfg.WillPayload, 1, true)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	c := mqtt.NewClient(opts)

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("mqtt connect timed out after %s", timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect failed: %w", err)
	}

	return &Client{client: c, logger: logger}, nil
}

// Publish implements devicestate.Sink. It does not block waiting for
// broker acknowledgment beyond a short bound, per the concurrency
// model's "non-blocking or bounded" requirement on the publish call.
func (c *Client) Publish(topic string, payload string, qos byte, retain bool) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			c.logger.Printf("mqtt publish to %s timed out", topic)
			return
		}
		if err := token.Error(); err != nil {
			c.logger.Printf("mqtt publish to %s failed: %v", topic, err)
		}
	}()
}

// Disconnect closes the connection, waiting up to waitMs for in-flight
// publishes to flush.
func (c *Client) Disconnect(waitMs uint) {
	c.client.Disconnect(waitMs)
}

// WillTopicFor derives the rx_status topic a gateway's LWT should target
// for a given base topic, per the topic tree in §6.
func WillTopicFor(baseTopic string) string {
	return baseTopic + "/rx_status"
}

// WillPayload is the fixed LWT payload: a disconnected gateway always
// appears as FAILED to subscribers, regardless of configured message
// strings for other fields.
const WillPayload = "FAILED"
