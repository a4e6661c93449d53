package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/robotalks/meter.go/pkg/feed"
	"github.com/robotalks/meter.go/pkg/feed/mqtt"
	"github.com/robotalks/meter.go/pkg/status"
)

var (
	mqttURL = "mqtt://localhost:1883/meter/"
)

func init() {
	if val := os.Getenv("METER_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		switch {
		case topic == mqtt.RecordsTopic:
			records, err := feed.DecodeRecords(payload)
			if err != nil {
				log.Printf("%s: %v", topic, err)
				return
			}
			log.Printf("%s: %d records", topic, len(records))
			for _, rec := range records {
				log.Printf("  %s", rec)
			}
		case strings.HasSuffix(topic, "/"+mqtt.StatusTopic):
			var evt status.Event
			if err := json.Unmarshal(payload, &evt); err != nil {
				log.Printf("%s: bad event: %v", topic, err)
				return
			}
			log.Printf("%s: %s", topic, formatEvent(evt))
		}
	}))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}

func formatEvent(evt status.Event) string {
	switch evt.Type {
	case status.EventPower:
		if evt.On != nil && *evt.On {
			return "power on"
		}
		return "power off"
	case status.EventFault:
		return fmt.Sprintf("fault #%d: %s", evt.Faults, evt.Error)
	case status.EventRecord:
		return fmt.Sprintf("[%s %.3f] [%s %.3f]", evt.Away, evt.AwayRatio, evt.Home, evt.HomeRatio)
	}
	return evt.Type
}
