package feed

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/meter.go/pkg/display"
	fx "github.com/robotalks/meter.go/pkg/framework"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketReaderFunc is func form of PacketReader.
type PacketReaderFunc func() ([]byte, error)

// ReadPacket implements PacketReader.
func (f PacketReaderFunc) ReadPacket() ([]byte, error) {
	return f()
}

// PacketFeed keeps the latest snapshot received as packets.
type PacketFeed struct {
	records []display.Record
	updated time.Time
	lock    sync.RWMutex
}

// Fetch implements display.Source. It returns an empty list until the
// first snapshot arrives.
func (f *PacketFeed) Fetch(context.Context) ([]display.Record, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return append([]display.Record(nil), f.records...), nil
}

// Update replaces the snapshot.
func (f *PacketFeed) Update(records []display.Record) {
	f.lock.Lock()
	f.records, f.updated = records, time.Now()
	f.lock.Unlock()
	glog.V(2).Infof("feed: %d records", len(records))
}

// Updated returns the time of the last snapshot.
func (f *PacketFeed) Updated() time.Time {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.updated
}

// Consume reads snapshots from r until it fails or ctx is done. Bad
// snapshots are skipped. If r is an io.Closer it is closed on return.
func (f *PacketFeed) Consume(ctx context.Context, r PacketReader) error {
	fn := func() error {
		for {
			pkt, err := r.ReadPacket()
			if err != nil {
				return err
			}
			records, err := DecodeRecords(pkt)
			if err != nil {
				glog.Warningf("feed: %v", err)
				continue
			}
			f.Update(records)
		}
	}
	if closer, ok := r.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, fn)
	}
	return fx.RunWithContextCancel(ctx, nil, fn)
}

// Dialer opens a new packet connection.
type Dialer func(ctx context.Context) (PacketReader, error)

// Redial keeps a PacketFeed connected through a Dialer.
type Redial struct {
	Feed     *PacketFeed
	Dial     Dialer
	Clock    fx.Clock
	Interval time.Duration
}

// DefaultRedialInterval is the pause between connection attempts.
const DefaultRedialInterval = 5 * time.Second

// Run implements Runnable.
func (r *Redial) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultRedialInterval
	}
	for {
		reader, err := r.Dial(ctx)
		if err != nil {
			glog.Warningf("feed: dial error: %v", err)
		} else if err = r.Feed.Consume(ctx, reader); err != nil && err != context.Canceled {
			glog.Warningf("feed: connection lost: %v", err)
		}
		if err = r.Clock.Sleep(ctx, interval); err != nil {
			return err
		}
	}
}
