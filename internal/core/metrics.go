package core

import (
	"time"

	"github.com/uber-go/tally/v4"
)

// Metric names reported by every container.
const (
	MetricIntentsSubmitted  = "intents_submitted"
	MetricIntentsHandled    = "intents_handled"
	MetricIntentFailures    = "intent_failures"
	MetricActionsDispatched = "actions_dispatched"
	MetricReductions        = "reductions"
	MetricReduceFailures    = "reduce_failures"
	MetricEventsEmitted     = "events_emitted"
	MetricEventsConsumed    = "events_consumed"
	MetricQueueOverflow     = "queue_overflow"
	MetricHandleLatency     = "handle_latency"
	MetricReduceLatency     = "reduce_latency"
)

// Metrics groups the tally instruments used by the runtime.
type Metrics struct {
	intentsSubmitted  tally.Counter
	intentsHandled    tally.Counter
	intentFailures    tally.Counter
	actionsDispatched tally.Counter
	reductions        tally.Counter
	reduceFailures    tally.Counter
	eventsEmitted     tally.Counter
	eventsConsumed    tally.Counter
	intentOverflow    tally.Counter
	actionOverflow    tally.Counter
	handleLatency     tally.Timer
	reduceLatency     tally.Timer
}

// NewMetrics creates the instruments on scope. A nil scope reports nowhere.
func NewMetrics(scope tally.Scope) *Metrics {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &Metrics{
		intentsSubmitted:  scope.Counter(MetricIntentsSubmitted),
		intentsHandled:    scope.Counter(MetricIntentsHandled),
		intentFailures:    scope.Counter(MetricIntentFailures),
		actionsDispatched: scope.Counter(MetricActionsDispatched),
		reductions:        scope.Counter(MetricReductions),
		reduceFailures:    scope.Counter(MetricReduceFailures),
		eventsEmitted:     scope.Counter(MetricEventsEmitted),
		eventsConsumed:    scope.Counter(MetricEventsConsumed),
		intentOverflow:    scope.Tagged(map[string]string{"queue": "intents"}).Counter(MetricQueueOverflow),
		actionOverflow:    scope.Tagged(map[string]string{"queue": "actions"}).Counter(MetricQueueOverflow),
		handleLatency:     scope.Timer(MetricHandleLatency),
		reduceLatency:     scope.Timer(MetricReduceLatency),
	}
}

func (m *Metrics) intentHandled(start time.Time, err error) {
	m.intentsHandled.Inc(1)
	m.handleLatency.Record(time.Since(start))
	if err != nil {
		m.intentFailures.Inc(1)
	}
}

func (m *Metrics) reduced(start time.Time, err error) {
	m.reduceLatency.Record(time.Since(start))
	if err != nil {
		m.reduceFailures.Inc(1)
		return
	}
	m.reductions.Inc(1)
}
