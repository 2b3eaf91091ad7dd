// Package registry resolves adapter names against the remote registry service
package registry

import (
	"context"
	"fmt"
	"net/url"

	"github.com/brettbedarf/adaptergw"
	"github.com/brettbedarf/adaptergw/requests"
)

// AdapterPath is the registry endpoint prefix; the adapter name is appended
const AdapterPath = "/getAdapter/"

// Registry implements [adaptergw.Resolver] by asking the registry service.
// Nothing is cached: every call is a fresh lookup.
type Registry struct {
	loc       adaptergw.Location
	forwarder adaptergw.Forwarder
}

var _ adaptergw.Resolver = (*Registry)(nil)

// New creates a Registry reaching the registry service at loc through forwarder
func New(loc adaptergw.Location, forwarder adaptergw.Forwarder) *Registry {
	return &Registry{loc: loc, forwarder: forwarder}
}

// Resolve looks up the location of the adapter registered under name
func (r *Registry) Resolve(ctx context.Context, name string) (adaptergw.Location, error) {
	if name == "" {
		return adaptergw.Location{}, fmt.Errorf("%w: empty adapter name", adaptergw.ErrInvalidRequest)
	}

	raw, err := r.forwarder.Get(ctx, r.loc, AdapterPath+url.PathEscape(name))
	if err != nil {
		return adaptergw.Location{}, err
	}
	if len(raw) == 0 {
		return adaptergw.Location{}, fmt.Errorf("%w: registry returned no location for %q", requests.ErrMalformedLocation, name)
	}

	return requests.UnmarshalLocation(raw)
}
