package metrics

import (
	"testing"

	config "github.com/lexora-app/moderation-server/internal/config"
	"github.com/stretchr/testify/require"
)

func TestFakeAcceptsNilTagsAndFields(t *testing.T) {
	m := NewMetricsFake()
	defer m.Close()

	m.LogEvent("test", nil, nil)
	m.LogEnforcement("strike_added", 1, nil)
	m.LogEnforcement("strike_added", 0, nil)
}

func TestDisabledConfigYieldsFake(t *testing.T) {
	m := New(&config.Config{})
	defer m.Close()

	_, ok := m.(*metricsFake)
	require.True(t, ok)
}
