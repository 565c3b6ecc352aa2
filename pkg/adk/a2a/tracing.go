package a2a

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys for task executions.
const (
	spanAttrUserID    = "kagent.user_id"
	spanAttrTaskID    = "kagent.task_id"
	spanAttrContextID = "kagent.context_id"
	spanAttrAppName   = "kagent.app_name"
)

// SetSpanAttributes records the given attributes on the span carried by ctx,
// if any, and returns the context. Recording on a non-recording span is a
// no-op, so callers never need to guard this.
func SetSpanAttributes(ctx context.Context, attrs map[string]string) context.Context {
	span := trace.SpanFromContext(ctx)

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kvs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		kvs = append(kvs, attribute.String(k, attrs[k]))
	}
	span.SetAttributes(kvs...)

	return ctx
}
