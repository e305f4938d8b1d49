package otel

import "go.opentelemetry.io/otel/metric"

// Metrics holds all task server metric instruments.
type Metrics struct {
	ToolCallDuration metric.Float64Histogram
	ToolCallErrors   metric.Int64Counter
	GenerateDuration metric.Float64Histogram
	DocumentsWritten metric.Int64Counter
	JournalSweeps    metric.Int64Counter
}

// NewMetrics creates all metric instruments from the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.ToolCallDuration, err = meter.Float64Histogram("taskmd.tool.duration",
		metric.WithDescription("Tool call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.ToolCallErrors, err = meter.Int64Counter("taskmd.tool.errors",
		metric.WithDescription("Tool call error count"),
	)
	if err != nil {
		return nil, err
	}

	m.GenerateDuration, err = meter.Float64Histogram("taskmd.llm.duration",
		metric.WithDescription("LLM generation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.DocumentsWritten, err = meter.Int64Counter("taskmd.documents.written",
		metric.WithDescription("Task document writes"),
	)
	if err != nil {
		return nil, err
	}

	m.JournalSweeps, err = meter.Int64Counter("taskmd.journal.sweeps",
		metric.WithDescription("Journal retention sweeps executed"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
