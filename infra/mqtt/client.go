package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/svitlo/core/status"
	"github.com/kilianp07/svitlo/infra/logger"
)

const (
	// DefaultTopicPrefix roots every topic when none is configured.
	DefaultTopicPrefix = "svitlo"

	availabilityOnline  = "online"
	availabilityOffline = "offline"
)

// Config defines the broker connection and topic layout.
type Config struct {
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// Topics are the retained topics of one queue.
type Topics struct {
	State        string
	Attributes   string
	Availability string
}

// TopicsFor returns the topics under <prefix>/<region>/<queue>.
func TopicsFor(prefix, region, queue string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	base := strings.TrimSuffix(prefix, "/") + "/" + region + "/" + queue
	return Topics{
		State:        base + "/state",
		Attributes:   base + "/attributes",
		Availability: base + "/availability",
	}
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher mirrors status updates to retained MQTT topics.
type Publisher struct {
	cli        pahoClient
	topics     Topics
	qos        byte
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewPublisher connects to the broker. The availability topic is set to
// online on every (re)connect and to offline by the broker's last will.
func NewPublisher(cfg Config, region, queue string) (*Publisher, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "svitlo-" + uuid.NewString()
	}
	p := &Publisher{
		topics:     TopicsFor(cfg.TopicPrefix, region, queue),
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        logger.New("mqtt_publisher"),
	}
	if p.maxRetries <= 0 {
		p.maxRetries = 3
	}
	if p.backoff <= 0 {
		p.backoff = 100 * time.Millisecond
	}

	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.SetWill(p.topics.Availability, availabilityOffline, p.qos, true)
	opts.OnConnect = func(c paho.Client) {
		p.log.Infof("MQTT connected to %s", cfg.Broker)
		if token := c.Publish(p.topics.Availability, p.qos, true, availabilityOnline); token.Wait() && token.Error() != nil {
			p.log.Errorf("availability publish error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		p.log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		p.log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	p.cli = c
	return p, nil
}

// NewClientOptions builds paho options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration. Without a client certificate
// only the CA bundle is used for server verification.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.CABundle != "" {
		caBytes, err := os.ReadFile(c.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("ca bundle contains no certificates")
		}
		cfg.RootCAs = pool
	}
	if (c.ClientCert == "") != (c.ClientKey == "") {
		return nil, errors.New("tls config requires both client_cert and client_key")
	}
	if c.ClientCert != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// Topics returns the topics this publisher writes.
func (p *Publisher) Topics() Topics { return p.topics }

// PublishStatus writes the on/off state and the full status record.
func (p *Publisher) PublishStatus(st status.Status) error {
	attrs, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := p.publish(p.topics.State, []byte(st.NowStatus)); err != nil {
		return err
	}
	return p.publish(p.topics.Attributes, attrs)
}

// publish retries with exponential backoff.
func (p *Publisher) publish(topic string, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, true, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.log.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Close marks the queue offline and disconnects.
func (p *Publisher) Close() {
	if p.cli == nil || !p.cli.IsConnected() {
		return
	}
	token := p.cli.Publish(p.topics.Availability, p.qos, true, availabilityOffline)
	if token.WaitTimeout(time.Second) && token.Error() != nil {
		p.log.Warnf("offline publish error: %v", token.Error())
	}
	p.cli.Disconnect(250)
}
