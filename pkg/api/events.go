package api

import "time"

// EventType identifies a wizard history event.
type EventType string

const (
	EventWizardStarted EventType = "wizard.started"
	EventWizardResumed EventType = "wizard.resumed"
	EventWizardReset   EventType = "wizard.reset"

	EventStepAdvanced  EventType = "step.advanced"
	EventStepRetreated EventType = "step.retreated"
	EventStepJumped    EventType = "step.jumped"
	EventStepRejected  EventType = "step.rejected"

	EventSubmissionStarted   EventType = "submission.started"
	EventSubmissionSucceeded EventType = "submission.succeeded"
	EventSubmissionFailed    EventType = "submission.failed"
)

// WizardEvent is a minimal append-only history record for audit/debugging.
type WizardEvent struct {
	WizardID   string
	StorageKey string
	At         time.Time
	Type       EventType

	// Step is the cursor index after the event.
	Step int

	// Small, human-oriented details (e.g. error string).
	// Keep this low-volume: do NOT dump form values here.
	Detail string
}
