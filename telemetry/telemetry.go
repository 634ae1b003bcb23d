// Package telemetry ships per-tick decisions to InfluxDB.
package telemetry

import (
	"log/slog"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/Jvsin/tank-agent-ai/model"
)

// Measurement is the InfluxDB measurement decisions are written to.
const Measurement = "decision"

type Options struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Influx writes decisions through the client's batching, non-blocking write
// API. Write failures are logged, never returned to the tick.
type Influx struct {
	client influxdb2.Client
	writer influxdb2_api.WriteAPI
	done   chan struct{}
}

func NewInflux(opts Options) *Influx {
	client := influxdb2.NewClientWithOptions(
		opts.URL,
		opts.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)
	writer := client.WriteAPI(opts.Org, opts.Bucket)

	i := &Influx{client: client, writer: writer, done: make(chan struct{})}
	go func() {
		defer close(i.done)
		for err := range writer.Errors() {
			slog.Error("influx write failed", "bucket", opts.Bucket, "error", err)
		}
	}()
	slog.Info("influx telemetry enabled", "url", opts.URL, "org", opts.Org, "bucket", opts.Bucket)
	return i
}

func (i *Influx) WriteDecision(d model.TickDecision) {
	i.writer.WritePoint(DecisionPoint(d))
}

// Close flushes pending points and releases the client.
func (i *Influx) Close() {
	i.writer.Flush()
	i.client.Close()
	<-i.done
}

// DecisionPoint converts d into a line-protocol point tagged by session, tank
// and mode.
func DecisionPoint(d model.TickDecision) *influxdb2_write.Point {
	p := influxdb2_write.NewPointWithMeasurement(Measurement)
	for _, tag := range [][2]string{{"mode", d.Mode}, {"session", d.Session}, {"tank", d.TankID}} {
		if tag[1] != "" {
			p.AddTag(tag[0], tag[1])
		}
	}
	p.AddField("tick", d.Tick).
		AddField("speed", d.Speed).
		AddField("turn", d.Turn).
		AddField("barrel", d.Barrel).
		AddField("fire", d.Fire).
		AddField("path_len", d.PathLen).
		AddField("hostiles", d.Hostiles).
		AddField("escaping", d.Escaping).
		SetTime(d.Timestamp)
	if d.Goal != "" {
		p.AddField("goal", d.Goal)
	}
	return p
}

// Nop discards decisions.
type Nop struct{}

func (Nop) WriteDecision(model.TickDecision) {}
