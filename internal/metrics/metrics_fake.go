package metrics

// metricsFake is a no-op implementation of Metrics
type metricsFake struct{}

// Ensure the fake implements Metrics
var _ Metrics = (*metricsFake)(nil)

// NewMetricsFake creates a no-op Metrics instance
func NewMetricsFake() Metrics {
	return &metricsFake{}
}

// LogEvent is a no-op
func (metrics *metricsFake) LogEvent(_ string, _ map[string]string, _ map[string]interface{}) {
	// No operation, this is a fake logger
}

// LogEnforcement is a no-op
func (metrics *metricsFake) LogEnforcement(_ string, _ int64, _ map[string]interface{}) {
	// No operation, this is a fake logger
}

// Close is a no-op
func (metrics *metricsFake) Close() {
	// No operation, this is a fake logger
}
