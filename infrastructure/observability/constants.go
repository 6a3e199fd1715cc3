package observability

// Metric name prefixes
const (
	MetricPrefix = "diadesorte"
)

// Metric names
const (
	// Generation metrics
	BatchesTotal   = MetricPrefix + ".generation.batches_total"
	TicketsTotal   = MetricPrefix + ".generation.tickets_total"
	BatchDuration  = MetricPrefix + ".generation.batch_duration"
	TicketAttempts = MetricPrefix + ".generation.ticket_attempts"

	// History metrics
	HistoryDrawsSavedTotal = MetricPrefix + ".history.draws_saved_total"
	HistoryRefreshesTotal  = MetricPrefix + ".history.refreshes_total"
)

// Label keys
const (
	LabelOutcome = "outcome"
	LabelTrigger = "trigger"
)

// Refresh triggers
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)
