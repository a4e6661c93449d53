package status

import (
	"context"
	"encoding/json"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/feed/mqtt"
)

// MQTT is a Sink publishing to a broker. The broker publishes an offline
// event as the will message when the connection drops.
type MQTT struct {
	Queue *mqtt.Queue
	ID    string
}

// NewMQTT creates the Sink from broker URL.
func NewMQTT(brokerURL, id string) (*MQTT, error) {
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+Topic(id), lifecycleEvent(EventOffline), 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("meter:" + id)
	}
	m := &MQTT{Queue: mqtt.NewQueue(opts, topicPrefix), ID: id}
	m.Queue.OnConnect = func(q *mqtt.Queue) {
		q.PubWith(Topic(id), lifecycleEvent(EventOnline), 1, true)
	}
	return m, nil
}

// Publish implements Sink without waiting for delivery.
func (m *MQTT) Publish(topic string, payload []byte, retain bool) error {
	token := m.Queue.PubWith(topic, payload, 0, retain)
	go func() {
		if token.Wait() && token.Error() != nil {
			glog.Warningf("status: %s: %v", topic, token.Error())
		}
	}()
	return nil
}

// Run implements Runnable.
func (m *MQTT) Run(ctx context.Context) error {
	m.Queue.Connect()
	<-ctx.Done()
	m.Queue.PubWith(Topic(m.ID), lifecycleEvent(EventOffline), 1, true).WaitTimeout(time.Second)
	m.Queue.Close()
	return nil
}

func lifecycleEvent(typ string) []byte {
	payload, err := json.Marshal(&Event{Type: typ})
	if err != nil {
		panic(err)
	}
	return payload
}
