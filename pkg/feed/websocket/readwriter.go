// Package websocket receives record snapshots over a websocket, one
// binary message per snapshot.
package websocket

import (
	"context"
	"fmt"

	"golang.org/x/net/websocket"
)

// DefaultOrigin is sent when dialing.
const DefaultOrigin = "http://localhost/"

// MaxPayload bounds a single message.
const MaxPayload = 1 << 20

// ReadWriter reads and writes packets as websocket messages.
type ReadWriter struct {
	Conn *websocket.Conn
}

// New wraps conn.
func New(conn *websocket.Conn) *ReadWriter {
	conn.MaxPayloadBytes = MaxPayload
	return &ReadWriter{Conn: conn}
}

// Dial connects to a websocket URL (ws:// or wss://).
func Dial(ctx context.Context, url string) (*ReadWriter, error) {
	config, err := websocket.NewConfig(url, DefaultOrigin)
	if err != nil {
		return nil, fmt.Errorf("websocket %q: %v", url, err)
	}
	conn, err := config.DialContext(ctx)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader. Text messages are accepted as well.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var pkt []byte
	if err := websocket.Message.Receive(p.Conn, &pkt); err != nil {
		return nil, err
	}
	return pkt, nil
}

// WritePacket sends pkt as a binary message.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.Conn, pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return p.Conn.Close()
}
