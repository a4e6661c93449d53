// Package matrix pushes text to the LED matrix controller.
//
// A message longer than one transfer is split into blocks. All blocks but
// the last are sent with OpAppend and accumulate on the device; the last
// block is sent with OpCommit followed by the row selector, which makes the
// device render the assembled buffer on that row.
package matrix

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/bus"
	"github.com/robotalks/meter.go/pkg/fault"
	fx "github.com/robotalks/meter.go/pkg/framework"
)

// Opcodes understood by the matrix controller.
const (
	OpAppend byte = 0x01
	OpCommit byte = 0x03
)

// BlockSize is the number of text bytes per transfer.
const BlockSize = 30

// DefaultChunkDelay is the bus turnaround pause between transfers.
const DefaultChunkDelay = 500 * time.Microsecond

// Row selectors.
const (
	SelectorTop    byte = '1'
	SelectorBottom byte = '0'
)

// Channel is one row of the display with its own write timer.
type Channel struct {
	Name     string
	Selector byte
	Timer    bus.WriteTimer
}

// NewChannelA creates the top row channel.
func NewChannelA() *Channel {
	return &Channel{Name: "A", Selector: SelectorTop}
}

// NewChannelB creates the bottom row channel.
func NewChannelB() *Channel {
	return &Channel{Name: "B", Selector: SelectorBottom}
}

// Frame is a single transfer to the matrix.
type Frame struct {
	Cmd  byte
	Data []byte
}

func (f Frame) String() string {
	return fmt.Sprintf("%02x %q", f.Cmd, f.Data)
}

// Unprintable replaces runes the device font doesn't cover.
const Unprintable = '?'

// Encode converts text to the bytes sent on the wire, one byte per rune.
// The device font covers Latin-1 only; other runes and invalid UTF-8 are
// sent as Unprintable.
func Encode(text string) []byte {
	b := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xff {
			r = Unprintable
		}
		b = append(b, byte(r))
	}
	return b
}

// Chunks splits data into transfers. An empty message yields a single
// commit carrying only the selector so the device clears the row.
func Chunks(data []byte, selector byte) []Frame {
	n := len(data)
	blocks := n / BlockSize
	if n%BlockSize > 0 {
		blocks++
	}
	if blocks == 0 {
		blocks = 1
	}
	frames := make([]Frame, 0, blocks)
	for b := 0; b < blocks-1; b++ {
		frames = append(frames, Frame{Cmd: OpAppend, Data: data[b*BlockSize : (b+1)*BlockSize]})
	}
	last := make([]byte, 0, BlockSize+1)
	last = append(last, data[(blocks-1)*BlockSize:]...)
	last = append(last, selector)
	return append(frames, Frame{Cmd: OpCommit, Data: last})
}

// Framer writes messages to the matrix controller.
type Framer struct {
	Transport   bus.Transport
	Reporter    fault.Reporter
	Clock       fx.Clock
	Addr        bus.Address
	ChunkDelay  time.Duration
	MinInterval time.Duration
}

// NewFramer creates a Framer for the matrix address.
func NewFramer(t bus.Transport, r fault.Reporter, clock fx.Clock) *Framer {
	return &Framer{
		Transport:  t,
		Reporter:   r,
		Clock:      clock,
		Addr:       bus.MatrixAddr,
		ChunkDelay: DefaultChunkDelay,
	}
}

// Display sends text to the row of ch. It returns true if the commit
// transfer went through, which is the only case ch.Timer is updated.
// A failed transfer aborts the remaining ones; the row keeps its previous
// content, though the device may hold a partial buffer until the next commit.
func (f *Framer) Display(ctx context.Context, text string, ch *Channel) bool {
	if !ch.Timer.Allow(f.Clock.Time(), f.MinInterval) {
		glog.V(2).Infof("matrix %s: write skipped, last write %v ago", ch.Name, ch.Timer.Elapsed(f.Clock.Time()))
		return false
	}
	frames := Chunks(Encode(text), ch.Selector)
	for _, frame := range frames {
		if err := f.Transport.Send(f.Addr, frame.Cmd, frame.Data); err != nil {
			if f.Reporter != nil {
				f.Reporter.Report(ctx, err)
			}
			return false
		}
		if frame.Cmd == OpCommit {
			ch.Timer.LastWrite = f.Clock.Time()
		}
		f.Clock.Sleep(ctx, f.ChunkDelay)
	}
	glog.V(2).Infof("matrix %s: %q (%d frames)", ch.Name, text, len(frames))
	return true
}
