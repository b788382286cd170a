// Package sqlerr defines the typed error taxonomy raised by every stage
// of a run, following the shape of the teacher's SQLUserError/
// SQLCodeParseErrors: small structs that carry enough context (file,
// position, Task id, phase) to produce a precise user-facing message,
// rather than bare fmt.Errorf strings.
package sqlerr

import (
	"fmt"
	"strings"

	"github.com/sqlscheduler/sqlscheduler/internal/pgscan"
	"github.com/sqlscheduler/sqlscheduler/internal/task"
)

// LoadError reports a problem found while discovering or parsing the
// suite: a missing DDL/INSERT partner, a duplicate id, a malformed
// filename or directive, or a write-target mismatch. Load errors are
// accumulated rather than raised on the first one, so a user sees every
// problem in their suite in one pass.
type LoadError struct {
	File    string
	Pos     pgscan.Pos
	Message string
}

func (e LoadError) Error() string {
	if e.Pos.Line != 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Pos.Line, e.Pos.Col, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// LoadErrors is a non-empty batch of LoadError, reported together.
type LoadErrors struct {
	Errors []LoadError
}

func (e LoadErrors) Error() string {
	var msg strings.Builder
	msg.WriteString("sqlscheduler: suite failed to load:\n\n")
	for _, le := range e.Errors {
		msg.WriteString(le.Error())
		msg.WriteString("\n")
	}
	return msg.String()
}

// CycleError reports every cycle detected in the DAG, each as an ordered
// list of ids starting and ending at the same Task.
type CycleError struct {
	Cycles [][]task.ID
}

func (e CycleError) Error() string {
	var msg strings.Builder
	msg.WriteString("sqlscheduler: dependency cycle detected:\n")
	for _, cycle := range e.Cycles {
		msg.WriteString("  ")
		for i, id := range cycle {
			if i > 0 {
				msg.WriteString(" -> ")
			}
			msg.WriteString(id.String())
		}
		msg.WriteString("\n")
	}
	return msg.String()
}

// ConfigError reports an invalid or incomplete configuration, e.g. a
// missing dev_schema when stage is dev.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return "sqlscheduler: configuration error: " + e.Message
}

// Phase identifies which part of a Task's lifecycle a driver failure or
// test failure happened in, for user-facing messages.
type Phase string

const (
	PhaseDDL    Phase = "ddl"
	PhaseInsert Phase = "insert"
	PhaseTest   Phase = "test"
)

// DDLError and InsertError both report a driver failure while executing
// a Task's DDL or INSERT statement. They are Task-local: the Task fails
// and its downstream is skipped, but sibling Tasks are unaffected.
type DriverError struct {
	Task    task.ID
	Phase   Phase
	Wrapped error
}

func (e DriverError) Error() string {
	return fmt.Sprintf("%s: %s failed: %s", e.Task, e.Phase, e.Wrapped)
}

func (e DriverError) Unwrap() error {
	return e.Wrapped
}

// NewDDLError and NewInsertError construct a DriverError tagged with the
// relevant phase, so callers get DDLError/InsertError naming from §7
// while sharing one implementation.
func NewDDLError(id task.ID, wrapped error) DriverError {
	return DriverError{Task: id, Phase: PhaseDDL, Wrapped: wrapped}
}

func NewInsertError(id task.ID, wrapped error) DriverError {
	return DriverError{Task: id, Phase: PhaseInsert, Wrapped: wrapped}
}

// TestFailure reports a TestDirective whose assertion query returned a
// non-zero count.
type TestFailure struct {
	Task      task.ID
	Directive string
	Count     int64
}

func (e TestFailure) Error() string {
	return fmt.Sprintf("%s: test failed (%s): %d violating row(s)", e.Task, e.Directive, e.Count)
}

// Cancelled reports that a Task was aborted by an external cancel
// signal rather than completing or failing on its own.
type Cancelled struct {
	Task task.ID
}

func (e Cancelled) Error() string {
	return fmt.Sprintf("%s: cancelled", e.Task)
}

// LockError reports that the dev-stage advisory lock guarding dev_schema
// could not be obtained, because another run already holds it. No Task
// is started in this case.
type LockError struct {
	DevSchema string
}

func (e LockError) Error() string {
	return fmt.Sprintf("sqlscheduler: dev schema %q is locked by another run", e.DevSchema)
}
