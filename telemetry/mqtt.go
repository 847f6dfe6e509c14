package telemetry

import (
	"context"
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	MQTT_RETRY_INTERVAL   = 5 * time.Second
	MQTT_PUBLISH_TIMEOUT  = 2 * time.Second
	MQTT_DISCONNECT_QUIET = 250
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

type MQTTPublisher struct {
	client mqtt.Client
}

func NewMQTTOptions(broker string, clientID string) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.OnConnect = func(client mqtt.Client) {
		log.Print("Connected to MQTT broker ", broker)
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Print("MQTT connection lost: ", err)
	}
	// initial connection attempts are retried by Connect, later drops by the client
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	return opts
}

// Connect retries until the broker accepts the connection or ctx is done.
func Connect(ctx context.Context, opts *mqtt.ClientOptions) (*MQTTPublisher, error) {
	return connect(ctx, mqtt.NewClient(opts), MQTT_RETRY_INTERVAL)
}

func connect(ctx context.Context, client mqtt.Client, retryInterval time.Duration) (*MQTTPublisher, error) {
	for {
		token := client.Connect()
		select {
		case <-ctx.Done():
			client.Disconnect(0)
			return nil, ctx.Err()
		case <-token.Done():
		}
		if token.Error() == nil {
			return NewMQTTPublisher(client), nil
		}
		log.Print("Could not connect to MQTT broker, retrying: ", token.Error())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func NewMQTTPublisher(client mqtt.Client) *MQTTPublisher {
	return &MQTTPublisher{client: client}
}

func (p *MQTTPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(MQTT_PUBLISH_TIMEOUT) {
		return ErrPublishTimeout
	}
	return token.Error()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(MQTT_DISCONNECT_QUIET)
}
