package matrix

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/meter.go/pkg/bus"
	fx "github.com/robotalks/meter.go/pkg/framework"
)

var start = time.Date(2021, 5, 22, 19, 0, 0, 0, time.UTC)

type recordTransport struct {
	packets []bus.Packet
	failAt  int // 1-based index of the failing transfer, 0 never fails.
	calls   int
}

func (r *recordTransport) Send(addr bus.Address, cmd byte, payload []byte) error {
	r.calls++
	if r.calls == r.failAt {
		return &bus.BusFault{Addr: addr, Cmd: cmd, Err: errors.New("remote I/O error")}
	}
	data := append([]byte(nil), payload...)
	r.packets = append(r.packets, bus.Packet{Addr: addr, Cmd: cmd, Data: data})
	return nil
}

type recordReporter []error

func (r *recordReporter) Report(ctx context.Context, err error) { *r = append(*r, err) }

func TestEncode(t *testing.T) {
	require.Equal(t, []byte("Giants (3)"), Encode("Giants (3)"))
	require.Equal(t, []byte{0xe9}, Encode("é"))
	require.Equal(t, []byte("5?"), Encode("5€"))
	require.Equal(t, []byte("?"), Encode("Ω"))
	require.Equal(t, []byte("??"), Encode("\xff\xfe"))
	require.Len(t, Chunks(Encode(strings.Repeat("€", 31)), SelectorTop), 2)
	require.Empty(t, Encode(""))
}

func TestChunks(t *testing.T) {
	testCases := []struct {
		name    string
		length  int
		appends int
		lastLen int
	}{
		{"empty", 0, 0, 0},
		{"short", 8, 0, 8},
		{"one block", 30, 0, 30},
		{"one over", 31, 1, 1},
		{"two blocks", 60, 1, 30},
		{"three partial", 75, 2, 15},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := []byte(strings.Repeat("x", tc.length))
			frames := Chunks(data, SelectorTop)
			require.Len(t, frames, tc.appends+1)
			for n, frame := range frames[:tc.appends] {
				require.Equalf(t, OpAppend, frame.Cmd, "frame[%d]", n)
				require.Lenf(t, frame.Data, BlockSize, "frame[%d]", n)
			}
			last := frames[len(frames)-1]
			require.Equal(t, OpCommit, last.Cmd)
			require.Len(t, last.Data, tc.lastLen+1)
			require.Equal(t, SelectorTop, last.Data[len(last.Data)-1])
		})
	}
}

func TestChunksTransferCount(t *testing.T) {
	for n := 0; n <= 120; n++ {
		frames := Chunks(make([]byte, n), SelectorBottom)
		var expect int
		switch {
		case n == 0:
			expect = 1
		case n%BlockSize == 0:
			expect = n / BlockSize
		default:
			expect = n/BlockSize + 1
		}
		require.Lenf(t, frames, expect, "length %d", n)
	}
}

func TestDisplay(t *testing.T) {
	clock := fx.NewManualClock(start)
	tr := &recordTransport{}
	var faults recordReporter
	f := NewFramer(tr, &faults, clock)
	ch := NewChannelA()

	text := "San Francisco Giants (5-3) W and a little more"
	require.True(t, f.Display(context.Background(), text, ch))
	require.Empty(t, faults)
	require.Len(t, tr.packets, 2)
	require.Equal(t, bus.MatrixAddr, tr.packets[0].Addr)
	require.Equal(t, OpAppend, tr.packets[0].Cmd)
	require.Equal(t, []byte(text[:30]), tr.packets[0].Data)
	require.Equal(t, OpCommit, tr.packets[1].Cmd)
	require.Equal(t, append([]byte(text[30:]), '1'), tr.packets[1].Data)
	// timer is set right after the commit, before the trailing pause.
	require.Equal(t, start.Add(DefaultChunkDelay), ch.Timer.LastWrite)
}

func TestDisplayEmpty(t *testing.T) {
	clock := fx.NewManualClock(start)
	tr := &recordTransport{}
	f := NewFramer(tr, nil, clock)
	ch := NewChannelB()
	require.True(t, f.Display(context.Background(), "", ch))
	require.Equal(t, []bus.Packet{{Addr: bus.MatrixAddr, Cmd: OpCommit, Data: []byte{'0'}}}, tr.packets)
	require.Equal(t, start, ch.Timer.LastWrite)
}

func TestDisplayFaultAborts(t *testing.T) {
	clock := fx.NewManualClock(start)
	tr := &recordTransport{failAt: 2}
	var faults recordReporter
	f := NewFramer(tr, &faults, clock)
	ch := NewChannelA()
	before := start.Add(-time.Minute)
	ch.Timer.LastWrite = before

	require.False(t, f.Display(context.Background(), strings.Repeat("y", 75), ch))
	require.Equal(t, 2, tr.calls)
	require.Len(t, tr.packets, 1)
	require.Equal(t, OpAppend, tr.packets[0].Cmd)
	require.Len(t, faults, 1)
	require.True(t, bus.IsFault(faults[0]))
	require.Equal(t, before, ch.Timer.LastWrite)
}

func TestDisplayCommitFault(t *testing.T) {
	clock := fx.NewManualClock(start)
	tr := &recordTransport{failAt: 1}
	var faults recordReporter
	f := NewFramer(tr, &faults, clock)
	ch := NewChannelA()
	require.False(t, f.Display(context.Background(), "Dodgers (2)", ch))
	require.Len(t, faults, 1)
	require.True(t, ch.Timer.LastWrite.IsZero())
}

func TestDisplayMinInterval(t *testing.T) {
	clock := fx.NewManualClock(start)
	tr := &recordTransport{}
	f := NewFramer(tr, nil, clock)
	f.MinInterval = time.Second
	ch := NewChannelA()

	require.True(t, f.Display(context.Background(), "one", ch))
	clock.Advance(100 * time.Millisecond)
	require.False(t, f.Display(context.Background(), "two", ch))
	clock.Advance(time.Second)
	require.True(t, f.Display(context.Background(), "three", ch))
	require.Len(t, tr.packets, 2)
}

func TestFrameString(t *testing.T) {
	frames := Chunks(Encode("Hi"), SelectorTop)
	require.Len(t, frames, 1)
	require.Equal(t, `03 "Hi1"`, frames[0].String())
}
