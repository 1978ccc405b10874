// Package observability provides a metrics hook that counts run
// lifecycle events using OpenTelemetry instruments.
//
// Register it with the tracker like any other hook:
//
//	metrics := observability.NewMetricsHook()
//	tracker := lifecycle.New(store, guard, lifecycle.WithHook(metrics))
//
// The hook records one counter per terminal-ish event:
//
//   - harvest.run.triggered
//   - harvest.run.completed
//   - harvest.run.cancelled
//   - harvest.run.failed
//
// Counters carry the run type as an attribute so dashboards can split
// full syncs from incremental ones.
package observability
