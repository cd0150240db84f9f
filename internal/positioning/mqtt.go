// Package positioning adapts external location feeds to stepout.Source.
package positioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/playperu/stepout/internal/stepout"
)

// DeviceToken is replaced by the session id in a topic pattern.
const DeviceToken = "{device}"

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 5 * time.Second
)

var errNotLocation = errors.New("not a location message")

// ownTracksMessage is the subset of the OwnTracks JSON payload we read.
type ownTracksMessage struct {
	Type string   `json:"_type"`
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
	Acc  float64  `json:"acc"`
	Tst  int64    `json:"tst"`
}

// DecodeOwnTracks turns an OwnTracks payload into a coordinate. Messages of
// other types return errNotLocation and should be skipped.
func DecodeOwnTracks(payload []byte) (stepout.Coordinate, error) {
	var m ownTracksMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return stepout.Coordinate{}, fmt.Errorf("decoding owntracks payload: %w", err)
	}
	if m.Type != "location" {
		return stepout.Coordinate{}, errNotLocation
	}
	if m.Lat == nil || m.Lon == nil {
		return stepout.Coordinate{}, fmt.Errorf("location without lat/lon")
	}
	if math.Abs(*m.Lat) > 90 || math.Abs(*m.Lon) > 180 {
		return stepout.Coordinate{}, fmt.Errorf("location out of range: %v,%v", *m.Lat, *m.Lon)
	}
	return stepout.Coordinate{Lat: *m.Lat, Lng: *m.Lon}, nil
}

// MQTT hands out per-device sources over one broker connection.
type MQTT struct {
	client  mqtt.Client
	pattern string
	logger  *slog.Logger
}

// ConnectMQTT connects to broker. pattern is a topic containing DeviceToken,
// for example "owntracks/+/{device}".
func ConnectMQTT(ctx context.Context, broker, pattern string, logger *slog.Logger) (*MQTT, error) {
	if !strings.Contains(pattern, DeviceToken) {
		return nil, fmt.Errorf("topic pattern %q has no %s", pattern, DeviceToken)
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("stepout-" + uuid.NewString()).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		})

	client := mqtt.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := wait(ctx, client.Connect()); err != nil {
		return nil, fmt.Errorf("connecting to mqtt broker: %w", err)
	}
	logger.Info("connected to mqtt", "broker", broker)
	return NewMQTT(client, pattern, logger), nil
}

func NewMQTT(client mqtt.Client, pattern string, logger *slog.Logger) *MQTT {
	return &MQTT{client: client, pattern: pattern, logger: logger}
}

// Device returns the source for one device's location topic.
func (m *MQTT) Device(id string) stepout.Source {
	return deviceSource{m: m, topic: strings.ReplaceAll(m.pattern, DeviceToken, id)}
}

func (m *MQTT) Close() {
	m.client.Disconnect(250)
}

type deviceSource struct {
	m     *MQTT
	topic string
}

func (d deviceSource) Subscribe(ctx context.Context, onFix func(stepout.Coordinate), onError func(error)) (func(), error) {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		c, err := DecodeOwnTracks(msg.Payload())
		switch {
		case errors.Is(err, errNotLocation):
		case err != nil:
			onError(err)
		default:
			onFix(c)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, subscribeTimeout)
	defer cancel()
	if err := wait(ctx, d.m.client.Subscribe(d.topic, 1, handler)); err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", d.topic, err)
	}
	d.m.logger.Debug("mqtt subscribed", "topic", d.topic)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
		defer cancel()
		if err := wait(ctx, d.m.client.Unsubscribe(d.topic)); err != nil {
			d.m.logger.Warn("mqtt unsubscribe failed", "topic", d.topic, "error", err)
		}
	}, nil
}

// wait blocks on a paho token until it completes or ctx ends.
func wait(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
