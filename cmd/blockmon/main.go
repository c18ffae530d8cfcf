package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/blocks.go/pkg/telemetry"
	"github.com/robotalks/blocks.go/pkg/transport/mqtt"
	"github.com/robotalks/blocks.go/pkg/wire"
)

var (
	mqttURL = "mqtt://localhost:1883/blocks/"
)

func init() {
	if val := os.Getenv("BLOCKS_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func describe(topic string, payload []byte) string {
	suffix := topic[strings.LastIndex(topic, "/")+1:]
	switch suffix {
	case mqtt.TopicMeta, mqtt.TopicPeer:
		return string(payload)
	case mqtt.TopicRx:
		return wire.Describe(payload)
	case mqtt.TopicTx:
		hb, err := wire.DecodeHeartbeat(payload)
		if err != nil {
			return "bad heartbeat: " + err.Error()
		}
		return hb.String()
	case mqtt.TopicReport:
		report, err := telemetry.Decode(payload)
		if err != nil {
			return "bad report: " + err.Error()
		}
		return report.Time().Format("15:04:05.000") + " " + report.Heartbeat().String()
	}
	return "unknown topic"
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		log.Printf("%s: %s", topic, describe(topic, payload))
	}))
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
