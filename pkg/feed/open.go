// Package feed provides the sources of records shown on the meter.
//
// A feed is selected by URL:
//
//   mqtt://host:1883/prefix/   snapshots retained on <prefix>records
//   ws://host/path             snapshots as websocket messages
//   tcp://host:port            length-prefixed snapshots on a stream
//   mlb://statsapi.mlb.com     MLB schedule, ?date=MM/DD/YYYY&spoiler=TEAMID
//
// Snapshots are protobuf encoded, see EncodeRecords.
package feed

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/robotalks/meter.go/pkg/display"
	"github.com/robotalks/meter.go/pkg/feed/mlb"
	"github.com/robotalks/meter.go/pkg/feed/mqtt"
	"github.com/robotalks/meter.go/pkg/feed/stream"
	"github.com/robotalks/meter.go/pkg/feed/websocket"
	fx "github.com/robotalks/meter.go/pkg/framework"
)

// Feed is an opened source with the background runners feeding it.
type Feed struct {
	display.Source
	Runners []fx.Runnable
}

// Open creates a Feed from URL.
func Open(feedURL string, clock fx.Clock) (*Feed, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %v", err)
	}
	switch u.Scheme {
	case "mqtt", "ssl", "tls":
		return openMQTT(feedURL)
	case "ws", "wss":
		pf := &PacketFeed{}
		return &Feed{Source: pf, Runners: []fx.Runnable{
			fx.NamedRun("feed-ws", &Redial{Feed: pf, Clock: clock, Dial: func(ctx context.Context) (PacketReader, error) {
				return websocket.Dial(ctx, feedURL)
			}}),
		}}, nil
	case "tcp":
		pf := &PacketFeed{}
		return &Feed{Source: pf, Runners: []fx.Runnable{
			fx.NamedRun("feed-tcp", &Redial{Feed: pf, Clock: clock, Dial: func(ctx context.Context) (PacketReader, error) {
				var d net.Dialer
				conn, err := d.DialContext(ctx, "tcp", u.Host)
				if err != nil {
					return nil, err
				}
				return stream.New(conn), nil
			}}),
		}}, nil
	case "mlb":
		c := mlb.NewClient(clock)
		if u.Host != "" {
			c.BaseURL = "https://" + u.Host
		}
		q := u.Query()
		c.Date = q.Get("date")
		if val := q.Get("spoiler"); val != "" {
			if c.SpoilerTeam, err = strconv.Atoi(val); err != nil {
				return nil, fmt.Errorf("invalid spoiler team %q: %v", val, err)
			}
		}
		return &Feed{Source: c}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, u.Scheme)
}

func openMQTT(brokerURL string) (*Feed, error) {
	q, err := mqtt.NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	pf := &PacketFeed{}
	rw := mqtt.NewPacketReadWriter(q).WithTopics(mqtt.RecordsTopic, mqtt.RecordsTopic)
	return &Feed{Source: pf, Runners: []fx.Runnable{
		fx.NamedRun("feed-mqtt", fx.RunFunc(func(ctx context.Context) error {
			q.Connect()
			defer q.Close()
			runner := fx.NewRunnerWith(ctx).Go(rw, fx.RunFunc(func(ctx context.Context) error {
				return pf.Consume(ctx, rw)
			}))
			if err := runner.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		})),
	}}, nil
}
