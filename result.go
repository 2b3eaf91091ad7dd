package adaptergw

import (
	"bytes"
	"encoding/json"
)

// State of a request moving through the resolve-then-forward pipeline.
// Only Completed and Failed are terminal.
type State int

const (
	Resolving State = iota
	Forwarding
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Forwarding:
		return "forwarding"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the terminal outcome of dispatching one [OperationRequest]
type Result struct {
	State State
	Body  json.RawMessage // adapter response, verbatim; set when Completed
	Err   error           // set when Failed
}

// CompletedResult wraps the adapter's response body
func CompletedResult(body json.RawMessage) Result {
	return Result{State: Completed, Body: body}
}

// FailedResult wraps the cause of a failed request
func FailedResult(err error) Result {
	return Result{State: Failed, Err: err}
}

// Empty reports whether a completed result carries no JSON value.
// Whitespace-only bodies and a literal null count as empty.
func (r Result) Empty() bool {
	trimmed := bytes.TrimSpace(r.Body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
