package infrastructure

import (
	"fmt"

	"diadesorte/domain/events"
)

// EventStreamName is the JetStream stream carrying domain events
const EventStreamName = "diadesorte_events"

const (
	SubjectBatchGenerated   = "diadesorte.batch.generated"
	SubjectHistoryRefreshed = "diadesorte.history.refreshed"
	SubjectNewContest       = "diadesorte.contest.new"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBatchGenerated:
		return SubjectBatchGenerated
	case events.EventTypeHistoryRefreshed:
		return SubjectHistoryRefreshed
	case events.EventTypeNewContest:
		return SubjectNewContest
	default:
		return fmt.Sprintf("diadesorte.unknown.%s", event.Type())
	}
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		SubjectBatchGenerated,
		SubjectHistoryRefreshed,
		SubjectNewContest,
	}
}
