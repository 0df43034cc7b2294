package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// TraceMethodCall opens a segment named "<component> <method>" on the New
// Relic transaction in ctx. Without a transaction it returns nil, and every
// MethodTracer method is a no-op on nil.
func TraceMethodCall(ctx context.Context, component, method string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		ctx:    ctx,
		txn:    txn,
		seg:    txn.StartSegment(component + " " + method),
		metric: component + "." + method,
		start:  time.Now(),
	}
}

// MethodTracer records one method call inside a transaction.
type MethodTracer struct {
	ctx    context.Context
	txn    *newrelic.Transaction
	seg    *newrelic.Segment
	metric string
	start  time.Time
	failed bool
}

func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}
	t.seg.AddAttribute(key, value)
}

func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	if t == nil {
		return
	}
	for key, value := range attributes {
		t.seg.AddAttribute(key, value)
	}
}

// OnError reports err on the transaction. A nil err is ignored.
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}
	t.failed = true
	t.seg.AddAttribute("error", err.Error())
	t.txn.NoticeError(err)
}

// End closes the segment and records the call's duration, plus a failure
// count when OnError saw an error.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}
	t.seg.End()

	RecordDuration(t.ctx, t.metric+".duration", time.Since(t.start))
	if t.failed {
		RecordCount(t.ctx, t.metric+".failures", 1)
	}
}
