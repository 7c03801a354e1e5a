// Package metrics records build and render metrics behind a Recorder
// interface.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so no call site needs a nil check:
//
//	b := build.New(cfg, build.Options{Recorder: metrics.NoopRecorder{}})
//
// PrometheusRecorder registers its collectors on a caller supplied registry.
// `docsite serve` exposes that registry on /metrics; `docsite build
// --metrics-file` writes it in the node_exporter textfile format.
package metrics
