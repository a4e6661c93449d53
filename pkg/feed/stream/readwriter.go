// Package stream frames record snapshots on a byte stream. Each packet
// is preceded by its length as a 4-byte little-endian integer.
package stream

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxPacketSize bounds a single snapshot.
const MaxPacketSize = 1 << 20

const headerSize = 4

// ReadWriter reads and writes length-prefixed packets.
type ReadWriter struct {
	Stream io.ReadWriter

	header [headerSize]byte
}

// New creates a ReadWriter on s.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{Stream: s}
}

// ReadPacket implements PacketReader. A stream ending between packets
// returns io.EOF, inside a packet io.ErrUnexpectedEOF.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	if _, err := io.ReadFull(p.Stream, p.header[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(p.header[:])
	if size > MaxPacketSize {
		return nil, fmt.Errorf("packet too large: %d", size)
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p.Stream, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}

// WritePacket writes header and payload in a single write.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if len(pkt) > MaxPacketSize {
		return fmt.Errorf("packet too large: %d", len(pkt))
	}
	buf := make([]byte, headerSize+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[headerSize:], pkt)
	_, err := p.Stream.Write(buf)
	return err
}

// Close closes the stream if it is closable.
func (p *ReadWriter) Close() error {
	if closer, ok := p.Stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
