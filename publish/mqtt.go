package publish

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/ftl/ais-nmea/message"
	"github.com/ftl/ais-nmea/sentence"
)

// DefaultTopicPrefix is used if no topic prefix is configured.
const DefaultTopicPrefix = "ais"

const publishTimeout = 5 * time.Second

// Options configure the MQTT publisher.
type Options struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retained    bool
}

type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes decoded messages as JSON to an MQTT broker, one topic per message type and station.
type MQTT struct {
	client     client
	disconnect func()
	options    Options
	log        *logrus.Entry
	now        func() time.Time
}

// Record is the JSON document published for each message.
type Record struct {
	Type      string          `json:"type"`
	Received  time.Time       `json:"received"`
	Channel   string          `json:"channel,omitempty"`
	Sentences []string        `json:"sentences,omitempty"`
	Message   message.Message `json:"message"`
}

// Connect connects to the broker.
func Connect(options Options, log *logrus.Entry) (*MQTT, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(options.Broker)
	opts.SetClientID(options.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	if options.Username != "" {
		opts.SetUsername(options.Username)
		opts.SetPassword(options.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	})

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("cannot connect to MQTT broker %s: timeout", options.Broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("cannot connect to MQTT broker %s: %w", options.Broker, token.Error())
	}
	log.WithField("broker", options.Broker).Info("connected to MQTT broker")

	result := newMQTT(c, options, log)
	result.disconnect = func() { c.Disconnect(250) }
	return result, nil
}

func newMQTT(c client, options Options, log *logrus.Entry) *MQTT {
	if options.TopicPrefix == "" {
		options.TopicPrefix = DefaultTopicPrefix
	}
	return &MQTT{
		client:  c,
		options: options,
		log:     log,
		now:     time.Now,
	}
}

// Topic returns the topic for the given message: <prefix>/<type>/<mmsi>.
func Topic(prefix string, m message.Message) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(prefix, "/"), message.TypeName(m), m.MessageHeader().UserID)
}

// Publish sends the message to the broker.
func (p *MQTT) Publish(m message.Message, payload sentence.Payload) error {
	record := Record{
		Type:      message.TypeName(m),
		Received:  p.now().UTC(),
		Channel:   payload.Channel,
		Sentences: payload.Sentences,
		Message:   m,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("cannot marshal message: %w", err)
	}

	topic := Topic(p.options.TopicPrefix, m)
	token := p.client.Publish(topic, p.options.QoS, p.options.Retained, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("cannot publish to %s: timeout", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("cannot publish to %s: %w", topic, token.Error())
	}
	p.log.WithField("topic", topic).Trace("published")
	return nil
}

// Close disconnects from the broker.
func (p *MQTT) Close() {
	if p.disconnect != nil {
		p.disconnect()
	}
}
