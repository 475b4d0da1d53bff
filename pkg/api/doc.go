// Package api contains the core building blocks used by the stepform
// wizard engine: step definitions, the cumulative FormState, the snapshot
// and event store contracts, typed errors and the Observer interface.
//
// Most users interact with the higher-level stepform package, which
// re-exports selected types and helpers from this package. The api package
// is intended for custom store implementations, observers and contributors
// extending the engine itself.
//
// # Steps and validators
//
// A wizard is an ordered list of StepDefinition values. Each step declares
// the fields it renders and an optional Validator. Validators receive a copy
// of the entire FormState, because a step's rules may depend on data that
// was entered on another step or restored from an earlier session.
//
// Validators are expected to:
//
//   - Be read-only: they receive a copy and cannot change engine state.
//   - Be idempotent: a double-triggered transition may run them twice.
//   - Report field-level messages by returning FieldErrors as the error.
//
// # Submission
//
// The final step is submitted through a small state machine:
//
//	idle -> submitting -> success | error
//	error -> submitting (retry)
//
// success is terminal for a wizard instance.
//
// # Persistence
//
// SnapshotStore is the durable bridge used by resumable wizards. Saves are
// best-effort: failures are reported as *PersistenceError to the Observer
// and the wizard keeps working in memory.
//
// # Observability
//
// Observers can be used to:
//
//   - Log step transitions and submissions
//   - Collect metrics (e.g. validation failures, submission latency)
//   - Surface swallowed persistence errors
package api
