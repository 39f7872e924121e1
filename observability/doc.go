// Package observability wires OpenTelemetry tracing and metrics.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanSnapshotSave)
//	defer span.End()
//
// Packages that emit their own counters accept a metric.Meter and default to
// observability.Meter, which resolves against the global provider.
package observability
