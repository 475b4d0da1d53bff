// Package stepform provides an embeddable engine for multi-step forms
// (wizards) in Go.
//
// A wizard walks a user through an ordered list of steps that all write to
// one cumulative FormState. Forward progress is gated by per-step
// validators, in-progress state can be persisted and resumed, and the final
// submission is coordinated through a small state machine with error
// recovery. The engine does no rendering and no network I/O of its own: a
// UI layer reads the current step and writes field values, and a
// caller-supplied callback performs the submission.
//
// # Core Concepts
//
//  1. Wizard
//  2. StepDefinition and Validator
//  3. SnapshotStore
//  4. WizardBuilder and Definition
//
// # Wizard
//
// A Wizard owns its FormState, its step cursor and its submission status.
// It exposes:
//   - NextStep, which validates the current step and advances
//   - PrevStep, which moves back without validation and never loses data
//   - GoToStep, which jumps to any step already reached
//   - SubmitForm, which validates the last step and calls OnComplete
//
// Transitions are serialized. A NextStep or SubmitForm that arrives while
// another transition is still waiting on a validator, the store or the
// completion callback returns ErrTransitionInFlight instead of being
// queued, so a double click can never advance twice or submit twice.
//
// # Validators
//
// A Validator receives a copy of the entire FormState:
//
//	type Validator func(ctx context.Context, state FormState) (bool, error)
//
// Returning FieldErrors as the error attaches messages to individual
// fields. Ready-made validators (Required, MinLength, MaxLength, Matches,
// OneOf, Predicate) can be combined with All.
//
// # Persistence
//
// With persistence enabled, a snapshot of the FormState and cursor is
// written after every step change and, debounced, after field edits. A new
// wizard with the same storage key resumes from it. Saves are best-effort:
// failures are logged and reported to the Observer while the wizard keeps
// working in memory.
//
// Stores can be backed by:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability)
//   - Postgres
//   - Redis (optionally with a TTL for abandoned wizards)
//   - MongoDB
//
// Storage keys must be unique among wizards open at the same time.
//
// # Defining wizards
//
// WizardBuilder provides a fluent API:
//
//	w, err := stepform.New().
//	    Step("account", "Account", []string{"email"},
//	        stepform.All(stepform.Required("email"), stepform.Matches("email", `.+@.+`))).
//	    Step("confirm", "Confirm", nil, nil).
//	    OnComplete(createAccount).
//	    Build(ctx)
//
// Definitions can also be loaded from YAML with LoadDefinitionFile.
//
// For a terminal driver, see cmd/stepform.
package stepform
