package core

import "context"

// NopMetricsRecorder drops every dispatch counter and histogram. It is the
// default recorder so queue operations never need a nil guard before
// observing.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

var _ MetricsRecorder = NopMetricsRecorder{}
