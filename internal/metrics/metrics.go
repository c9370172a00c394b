package metrics

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	config "github.com/lexora-app/moderation-server/internal/config"
)

// Metrics defines the contract for emitting moderation events.
type Metrics interface {
	LogEvent(eventName string, tags map[string]string, fields map[string]interface{})
	LogEnforcement(action string, userID int64, fields map[string]interface{})
	Close()
}

type metricsImpl struct {
	client      influxdb2.Client
	writeAPI    api.WriteAPI
	org         string
	bucket      string
	defaultTags map[string]string // Constant tags, like environment name
}

// Ensure the implementation satisfies the interface
var _ Metrics = (*metricsImpl)(nil)

// New picks the InfluxDB implementation or the no-op fake based on config.
func New(cfg *config.Config) Metrics {
	if !cfg.Metrics.Enabled || cfg.Metrics.URL == "" {
		return NewMetricsFake()
	}

	return NewMetricsImpl(cfg.Metrics.URL, cfg.Metrics.Token, cfg.Metrics.Org, cfg.Metrics.Bucket, map[string]string{
		"environment": cfg.Environment,
	})
}

// NewMetricsImpl initializes the InfluxDB-backed logger with constant tags.
func NewMetricsImpl(url string, token string, org string, bucket string, defaultTags map[string]string) Metrics {
	client := influxdb2.NewClient(url, token)
	writeAPI := client.WriteAPI(org, bucket)

	return &metricsImpl{
		client:      client,
		writeAPI:    writeAPI,
		org:         org,
		bucket:      bucket,
		defaultTags: defaultTags,
	}
}

// LogEvent logs an event with customizable tags and fields.
func (m *metricsImpl) LogEvent(eventName string, tags map[string]string, fields map[string]interface{}) {
	if len(fields) == 0 {
		return
	}

	point := influxdb2.NewPointWithMeasurement("moderation_event").
		AddTag("event", eventName).
		SetTime(time.Now())

	for key, value := range m.defaultTags {
		point.AddTag(key, value)
	}

	for key, value := range tags {
		point.AddTag(key, value)
	}

	for key, value := range fields {
		point.AddField(key, value)
	}

	m.writeAPI.WritePoint(point)
}

// LogEnforcement logs one enforcement action against an account.
func (m *metricsImpl) LogEnforcement(action string, userID int64, fields map[string]interface{}) {
	if userID == 0 {
		return
	}

	if fields == nil {
		fields = map[string]interface{}{}
	}

	fields["user_id"] = userID

	m.LogEvent(action, map[string]string{"action": action}, fields)
}

// Close flushes pending points and shuts the client down.
func (m *metricsImpl) Close() {
	m.writeAPI.Flush()
	m.client.Close()
}
