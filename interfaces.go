package adaptergw

import (
	"context"
	"encoding/json"
)

// Forwarder performs a single outbound JSON call against a [Location].
// Implementations must be safe for concurrent use; they never retry.
type Forwarder interface {
	// Get issues a GET to path and returns the raw JSON response body,
	// which is empty when the target answered without content
	Get(ctx context.Context, loc Location, path string) (json.RawMessage, error)

	// Post issues a POST with a JSON body to path and returns the raw JSON response body
	Post(ctx context.Context, loc Location, path string, body json.RawMessage) (json.RawMessage, error)
}

// Resolver maps an adapter name to the location of a live adapter instance
type Resolver interface {
	Resolve(ctx context.Context, name string) (Location, error)
}

// Dispatcher runs the resolve-then-forward protocol for one request
type Dispatcher interface {
	Dispatch(ctx context.Context, req OperationRequest) Result
}
