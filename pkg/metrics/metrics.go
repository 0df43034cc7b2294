// Package metrics reports traces, custom metrics and logs to New Relic. Every
// helper is a no-op unless ctx carries a New Relic transaction.
package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

func appFromContext(ctx context.Context) *newrelic.Application {
	if txn := newrelic.FromContext(ctx); txn != nil {
		return txn.Application()
	}
	return nil
}

func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app := appFromContext(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records duration in milliseconds.
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app := appFromContext(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(duration)/float64(time.Millisecond))
	}
}

func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	if app := appFromContext(ctx); app != nil {
		app.RecordCustomEvent(eventName, attributes)
	}
}
