package agent

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/Jvsin/tank-agent-ai/agent"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// instruments are shared by every agent in the process; the global meter
// returns no-ops unless a provider is installed.
type instruments struct {
	ticks        metric.Int64Counter
	stuck        metric.Int64Counter
	shots        metric.Int64Counter
	replans      metric.Int64Counter
	planFailures metric.Int64Counter
	tickDuration metric.Float64Histogram
}

func newInstruments() (*instruments, error) {
	m := meter()
	ins := &instruments{}

	var err error
	ins.ticks, err = m.Int64Counter(
		"agent.ticks",
		metric.WithDescription("Ticks answered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	ins.stuck, err = m.Int64Counter(
		"agent.stuck_episodes",
		metric.WithDescription("Stuck episodes that started an escape"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stuck counter: %w", err)
	}

	ins.shots, err = m.Int64Counter(
		"agent.shots",
		metric.WithDescription("Fire commands issued"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating shots counter: %w", err)
	}

	ins.replans, err = m.Int64Counter(
		"agent.replans",
		metric.WithDescription("Planner invocations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating replans counter: %w", err)
	}

	ins.planFailures, err = m.Int64Counter(
		"agent.plan_failures",
		metric.WithDescription("Planner invocations that found no path"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plan failures counter: %w", err)
	}

	ins.tickDuration, err = m.Float64Histogram(
		"agent.tick.duration",
		metric.WithDescription("Time spent deciding one tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	return ins, nil
}
