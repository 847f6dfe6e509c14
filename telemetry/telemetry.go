package telemetry

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
	"xwkbot/battery"
	"xwkbot/streamer"
	"xwkbot/twowheeled"
)

var json jsoniter.API = jsoniter.ConfigCompatibleWithStandardLibrary

const STREAM_BUFFER_LENGTH = 8

type Snapshot struct {
	Battery battery.Status   `json:"battery"`
	Motion  twowheeled.State `json:"motion"`
	Time    time.Time        `json:"time"`
}

type BatterySource interface {
	Status() battery.Status
}

type MotionSource interface {
	State(ctx context.Context) (twowheeled.State, error)
}

// Hub samples the robot periodically and fans snapshots out to subscribers.
type Hub struct {
	streamer *streamer.Streamer[Snapshot]
	battery  BatterySource
	motion   MotionSource
	now      func() time.Time
}

func NewHub(b BatterySource, m MotionSource) *Hub {
	return &Hub{
		streamer: streamer.NewStreamer[Snapshot](STREAM_BUFFER_LENGTH),
		battery:  b,
		motion:   m,
		now:      time.Now,
	}
}

func (h *Hub) Subscribe(buffSize int) *streamer.Client[Snapshot] {
	return h.streamer.NewClient(buffSize)
}

func (h *Hub) Sample(ctx context.Context) Snapshot {
	snapshot := Snapshot{Battery: h.battery.Status(), Time: h.now()}
	motion, err := h.motion.State(ctx)
	if err != nil {
		log.WithError(err).Debug("Motion state unavailable")
	}
	snapshot.Motion = motion
	return snapshot
}

// Run broadcasts a snapshot every period until ctx is done.
func (h *Hub) Run(ctx context.Context, period time.Duration) {
	go h.streamer.Run(ctx)
	defer h.streamer.Stop()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.streamer.Running() {
				log.Debug("Telemetry streamer is not running")
				continue
			}
			snapshot := h.Sample(ctx)
			h.streamer.Broadcast(&snapshot)
		}
	}
}

type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Forward publishes every snapshot received by client as JSON on topic.
func Forward(client *streamer.Client[Snapshot], p Publisher, topic string) {
	defer client.Close()
	for snapshot := range client.C {
		payload, err := json.Marshal(snapshot)
		if err != nil {
			log.Print("Could not encode telemetry: ", err)
			continue
		}
		if err := p.Publish(topic, payload); err != nil {
			log.WithField("topic", topic).Print("Could not publish telemetry: ", err)
		}
	}
}
