package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/imitation/observability"
)

func TestPrometheusObserver_Outcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := observability.NewPrometheusObserver(reg, "imitation")
	require.NoError(t, err)

	ctx := context.Background()
	for range 3 {
		obs.OnEvent(ctx, observability.Event{
			Type:   "state.exit",
			Level:  observability.LevelVerbose,
			Source: "GAME",
			Data: map[string]any{
				"machine":  "GAME",
				"state":    "CHECK_POSE",
				"outcome":  "waiting",
				"duration": 50 * time.Millisecond,
			},
		})
	}
	obs.OnEvent(ctx, observability.Event{Type: "machine.start", Source: "GAME"})

	count, err := testutil.GatherAndCount(reg, "imitation_state_outcomes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "imitation_events_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per (type, source)")

	count, err = testutil.GatherAndCount(reg, "imitation_state_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheusObserver_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewPrometheusObserver(reg, "dup")
	require.NoError(t, err)

	_, err = observability.NewPrometheusObserver(reg, "dup")
	assert.Error(t, err)
}
