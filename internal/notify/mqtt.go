package notify

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/muurk/easyip/internal/logging"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	DefaultTopicPrefix = "easyip"
	DefaultClientID    = "easyip"
)

// MQTTConfig holds broker settings.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
	ClientID    string `yaml:"client_id,omitempty"`
}

func (c MQTTConfig) withDefaults() MQTTConfig {
	if c.TopicPrefix == "" {
		c.TopicPrefix = DefaultTopicPrefix
	}
	if c.ClientID == "" {
		c.ClientID = DefaultClientID
	}
	return c
}

// StateTopic is the retained online/offline topic.
func (c MQTTConfig) StateTopic() string {
	return c.withDefaults().TopicPrefix + "/bridge/state"
}

// EventTopic is the topic events of kind are published to.
func (c MQTTConfig) EventTopic(kind string) string {
	return c.withDefaults().TopicPrefix + "/" + kind
}

// mqttClient is the part of pahomqtt.Client the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher sends events as JSON to <prefix>/<kind>.
type MQTTPublisher struct {
	client mqttClient
	cfg    MQTTConfig
	logger *zap.Logger
}

// clientOptions builds the paho options, including an offline will on the
// state topic.
func clientOptions(cfg MQTTConfig, logger *zap.Logger) *pahomqtt.ClientOptions {
	logger = logging.OrNop(logger)
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(cfg.StateTopic(), "offline", 1, true).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			logger.Warn("MQTT connection lost", zap.Error(err))
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	return opts
}

// NewMQTTPublisher connects to the broker and marks the bridge online.
func NewMQTTPublisher(cfg MQTTConfig, logger *zap.Logger) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: broker address is required")
	}
	cfg = cfg.withDefaults()
	logger = logging.OrNop(logger).With(zap.String("component", "mqtt"))

	client := pahomqtt.NewClient(clientOptions(cfg, logger))
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	logger.Info("MQTT connected", zap.String("broker", cfg.Broker))

	p := newMQTTPublisher(client, cfg, logger)
	if err := p.publish(cfg.StateTopic(), []byte("online"), true); err != nil {
		client.Disconnect(250)
		return nil, err
	}
	return p, nil
}

func newMQTTPublisher(client mqttClient, cfg MQTTConfig, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{client: client, cfg: cfg.withDefaults(), logger: logging.OrNop(logger)}
}

// Publish sends e and waits for the broker to accept it.
func (p *MQTTPublisher) Publish(e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Kind, err)
	}
	return p.publish(p.cfg.EventTopic(e.Kind), payload, false)
}

func (p *MQTTPublisher) publish(topic string, payload []byte, retained bool) error {
	token := p.client.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warn("MQTT publish timeout", zap.String("topic", topic))
		return fmt.Errorf("mqtt publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		p.logger.Warn("MQTT publish error", zap.String("topic", topic), zap.Error(err))
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	p.logger.Debug("MQTT published", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	return nil
}

// Close marks the bridge offline and disconnects.
func (p *MQTTPublisher) Close() error {
	err := p.publish(p.cfg.StateTopic(), []byte("offline"), true)
	p.client.Disconnect(1000)
	return err
}
