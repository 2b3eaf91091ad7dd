package adaptergw

import (
	"errors"
	"fmt"
)

var (
	// ErrResolution marks a failure of hop 1 (registry unreachable, unknown name, malformed location)
	ErrResolution = errors.New("adapter could not be resolved")
	// ErrForwarding marks a failure of hop 2 (adapter unreachable, non-2xx, malformed response)
	ErrForwarding = errors.New("operation failed in adapter")
	// ErrInvalidRequest marks a request rejected before any hop ran
	ErrInvalidRequest = errors.New("invalid request")
)

// Hop identifies one outbound call of the resolve-then-forward protocol
type Hop string

const (
	ResolveHop Hop = "resolve"
	ForwardHop Hop = "forward"
)

// HopError carries the cause of a failed hop. It matches [ErrResolution] or
// [ErrForwarding] with errors.Is depending on the hop.
type HopError struct {
	Hop       Hop
	Operation Operation
	Adapter   string
	Location  *Location // set for forwarding failures only
	Err       error
}

func (e *HopError) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s %s on %q at %s: %v", e.Hop, e.Operation, e.Adapter, e.Location, e.Err)
	}
	return fmt.Sprintf("%s %s on %q: %v", e.Hop, e.Operation, e.Adapter, e.Err)
}

func (e *HopError) Unwrap() error {
	return e.Err
}

func (e *HopError) Is(target error) bool {
	switch e.Hop {
	case ResolveHop:
		return target == ErrResolution
	case ForwardHop:
		return target == ErrForwarding
	}
	return false
}
