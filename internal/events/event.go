package events

import (
	platformevents "estate_admin_backend/platform/events"
)

// RefreshRequested asks the leads module to re-fetch the collection after a
// mutation batch. Consistency is pull-based: mutations are observed only
// through the next full refresh.
type RefreshRequested struct {
	platformevents.BaseEvent
	Reason string `json:"reason"`
}

// EventName returns the event identifier.
func (RefreshRequested) EventName() string { return "leads.refresh_requested" }

// NewRefreshRequested creates a refresh request event.
func NewRefreshRequested(reason string) RefreshRequested {
	return RefreshRequested{BaseEvent: platformevents.NewBaseEvent(), Reason: reason}
}

// BulkCompleted records the settled outcome of a bulk operation.
type BulkCompleted struct {
	platformevents.BaseEvent
	Operation string   `json:"operation"`
	Requested int      `json:"requested"`
	FailedIDs []string `json:"failedIds,omitempty"`
}

// EventName returns the event identifier.
func (BulkCompleted) EventName() string { return "leads.bulk_completed" }

// NewBulkCompleted creates a bulk completion event.
func NewBulkCompleted(operation string, requested int, failedIDs []string) BulkCompleted {
	return BulkCompleted{
		BaseEvent: platformevents.NewBaseEvent(),
		Operation: operation,
		Requested: requested,
		FailedIDs: failedIDs,
	}
}

// ImportCompleted records the accounting of a finished CSV import batch.
type ImportCompleted struct {
	platformevents.BaseEvent
	BatchID  string `json:"batchId"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// EventName returns the event identifier.
func (ImportCompleted) EventName() string { return "leads.import_completed" }

// NewImportCompleted creates an import completion event.
func NewImportCompleted(batchID string, imported, skipped int) ImportCompleted {
	return ImportCompleted{
		BaseEvent: platformevents.NewBaseEvent(),
		BatchID:   batchID,
		Imported:  imported,
		Skipped:   skipped,
	}
}
