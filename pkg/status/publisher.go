// Package status publishes meter events for monitoring.
package status

import (
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/display"
	"github.com/robotalks/meter.go/pkg/fault"
	"github.com/robotalks/meter.go/pkg/feed/mqtt"
	fx "github.com/robotalks/meter.go/pkg/framework"
)

// Event types.
const (
	EventOnline   = "online"
	EventOffline  = "offline"
	EventPower    = "power"
	EventFault    = "fault"
	EventRecovery = "recovery"
	EventRecord   = "record"
)

// Event is published as JSON.
type Event struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`

	On     *bool  `json:"on,omitempty"`
	Faults int    `json:"faults,omitempty"`
	Error  string `json:"error,omitempty"`

	Away      string  `json:"away,omitempty"`
	AwayRatio float64 `json:"away_ratio,omitempty"`
	Home      string  `json:"home,omitempty"`
	HomeRatio float64 `json:"home_ratio,omitempty"`
}

// Sink delivers encoded events.
type Sink interface {
	Publish(topic string, payload []byte, retain bool) error
}

// SinkFunc is the func form of Sink.
type SinkFunc func(topic string, payload []byte, retain bool) error

// Publish implements Sink.
func (f SinkFunc) Publish(topic string, payload []byte, retain bool) error {
	return f(topic, payload, retain)
}

// Publisher turns fault, power and display notifications into events.
// Failures are logged and never reach the caller.
type Publisher struct {
	Sink  Sink
	Topic string
	Clock fx.TimeSource
}

// NewPublisher creates a Publisher for the controller id.
func NewPublisher(sink Sink, id string, clock fx.TimeSource) *Publisher {
	return &Publisher{Sink: sink, Topic: Topic(id), Clock: clock}
}

// Topic is the status topic of a controller, relative to the queue prefix.
func Topic(id string) string {
	return id + "/" + mqtt.StatusTopic
}

// Publish sends an event. Only power events are retained.
func (p *Publisher) Publish(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = p.Clock.Time()
	}
	payload, err := json.Marshal(&evt)
	if err != nil {
		glog.Errorf("status: encode %s: %v", evt.Type, err)
		return
	}
	retain := evt.Type == EventPower
	if err = p.Sink.Publish(p.Topic, payload, retain); err != nil {
		glog.Warningf("status: publish %s: %v", evt.Type, err)
	}
}

// PowerChanged implements power.Listener.
func (p *Publisher) PowerChanged(on bool) {
	p.Publish(Event{Type: EventPower, On: &on})
}

// FaultObserved implements fault.Listener.
func (p *Publisher) FaultObserved(err error, state fault.State) {
	evt := Event{Type: EventFault, Faults: state.Count}
	if err != nil {
		evt.Error = err.Error()
	}
	p.Publish(evt)
}

// RecoveryStarted implements fault.Listener.
func (p *Publisher) RecoveryStarted() {
	p.Publish(Event{Type: EventRecovery})
}

// RecordShown implements display.Listener.
func (p *Publisher) RecordShown(rec display.Record) {
	p.Publish(Event{
		Type:      EventRecord,
		Away:      rec.Away,
		AwayRatio: rec.AwayRatio,
		Home:      rec.Home,
		HomeRatio: rec.HomeRatio,
	})
}
