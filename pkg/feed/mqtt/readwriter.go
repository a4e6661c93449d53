package mqtt

import (
	"context"
	"io"
	"sync"
)

// Topics relative to the queue prefix.
const (
	RecordsTopic = "records"
	StatusTopic  = "status"
)

// ReadWriter delivers payloads received on SubTopic as packets and
// publishes packets to PubTopic. Snapshots supersede each other, so only
// the newest unread payload is kept.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	latest chan []byte
	closed bool
	lock   sync.Mutex
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{Queue: q, latest: make(chan []byte, 1)}
}

// WithTopics sets the subscribed and published topics.
func (rw *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	rw.SubTopic, rw.PubTopic = sub, pub
	return rw
}

// ReadPacket blocks for the next payload, io.EOF after Run returns.
func (rw *ReadWriter) ReadPacket() ([]byte, error) {
	if pkt, ok := <-rw.latest; ok {
		return pkt, nil
	}
	return nil, io.EOF
}

// WritePacket publishes a retained packet at QoS 1, so late subscribers
// get the latest snapshot.
func (rw *ReadWriter) WritePacket(pkt []byte) error {
	token := rw.Queue.PubWith(rw.PubTopic, pkt, 1, true)
	token.Wait()
	return token.Error()
}

// Run subscribes SubTopic until ctx is done.
func (rw *ReadWriter) Run(ctx context.Context) error {
	sub := rw.Queue.Sub(rw.SubTopic, rw.receive)
	<-ctx.Done()
	sub.Close()
	rw.lock.Lock()
	rw.closed = true
	close(rw.latest)
	rw.lock.Unlock()
	return ctx.Err()
}

func (rw *ReadWriter) receive(_ string, payload []byte) {
	rw.lock.Lock()
	defer rw.lock.Unlock()
	if rw.closed {
		return
	}
	// Drop the unread payload, if any, then queue the new one. Both
	// never block as the only other party is a reader.
	select {
	case <-rw.latest:
	default:
	}
	rw.latest <- payload
}
