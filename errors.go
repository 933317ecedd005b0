package clubsync

import (
	"fmt"
	"strings"
)

// The engine reports four kinds of failures. All of them are fatal for the
// current run: nothing retries, nothing rolls back. Re-running the same
// command is the recovery path, which is safe because every write is an
// idempotent upsert (see Reconciler).

// ConfigurationError reports missing required configuration (credentials,
// collection identifiers). It is raised before any I/O is attempted.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

// NotFoundError reports a referenced week period or sheet that does not
// exist. Alternatives lists what is available so the user can pick one.
type NotFoundError struct {
	What         string // e.g. "week period"
	Key          string
	Alternatives []string
}

func (e *NotFoundError) Error() string {
	if len(e.Alternatives) == 0 {
		return fmt.Sprintf("%s %q not found", e.What, e.Key)
	}
	return fmt.Sprintf("%s %q not found (available: %s)", e.What, e.Key, strings.Join(e.Alternatives, ", "))
}

// ValidationError reports malformed input, typically a week-period string
// that does not parse. Malformed values are never silently defaulted.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// StoreOperationError wraps a failure from the workspace store or the
// ledger client with the operation that caused it.
type StoreOperationError struct {
	Op  string
	Err error
}

func (e *StoreOperationError) Error() string {
	return fmt.Sprintf("store operation %s: %v", e.Op, e.Err)
}

func (e *StoreOperationError) Unwrap() error { return e.Err }
