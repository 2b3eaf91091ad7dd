// Package dispatch implements the resolve-then-forward protocol.
//
// Every request moves through two states: Resolving asks the registry where
// the named adapter lives, Forwarding sends the operation to that location.
// The states run strictly in sequence on the calling goroutine and the
// Forwarding target is taken only from the Resolving result. Any failure ends
// the request as Failed; nothing is retried.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/brettbedarf/adaptergw"
	"github.com/brettbedarf/adaptergw/internal/util"
	"github.com/brettbedarf/adaptergw/metrics"
)

// Dispatcher implements [adaptergw.Dispatcher]. It holds no per-request state
// and is safe for concurrent use.
type Dispatcher struct {
	resolver  adaptergw.Resolver
	forwarder adaptergw.Forwarder
	metrics   *metrics.Metrics
}

var _ adaptergw.Dispatcher = (*Dispatcher)(nil)

// New creates a Dispatcher. m may be nil.
func New(resolver adaptergw.Resolver, forwarder adaptergw.Forwarder, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		resolver:  resolver,
		forwarder: forwarder,
		metrics:   m,
	}
}

// Dispatch runs req through both hops and returns its terminal result
func (d *Dispatcher) Dispatch(ctx context.Context, req adaptergw.OperationRequest) adaptergw.Result {
	logger := util.LoggerFrom(ctx, "Dispatcher").With().
		Str("operation", req.Operation.String()).
		Str("adapter", req.AdapterName).
		Logger()

	res := d.run(ctx, req)
	d.metrics.ObserveResult(req.Operation, res)

	switch {
	case res.State == adaptergw.Completed:
		logger.Debug().Int("bytes", len(res.Body)).Msg("Request completed")
	case errors.Is(res.Err, adaptergw.ErrResolution):
		logger.Error().Err(res.Err).Msg("Adapter could not be retrieved")
	case errors.Is(res.Err, adaptergw.ErrForwarding):
		logger.Error().Err(res.Err).Msg("Operation failed in adapter")
	default:
		logger.Warn().Err(res.Err).Msg("Request rejected")
	}
	return res
}

func (d *Dispatcher) run(ctx context.Context, req adaptergw.OperationRequest) adaptergw.Result {
	if err := req.Validate(); err != nil {
		return adaptergw.FailedResult(err)
	}

	loc, err := d.resolve(ctx, req)
	if err != nil {
		return adaptergw.FailedResult(err)
	}

	body, err := d.forward(ctx, req, loc)
	if err != nil {
		return adaptergw.FailedResult(err)
	}
	return adaptergw.CompletedResult(body)
}

// resolve is hop 1
func (d *Dispatcher) resolve(ctx context.Context, req adaptergw.OperationRequest) (adaptergw.Location, error) {
	logger := util.LoggerFrom(ctx, "Dispatcher")
	logger.Trace().
		Stringer("state", adaptergw.Resolving).
		Str("adapter", req.AdapterName).
		Msg("Resolving adapter")

	start := time.Now()
	loc, err := d.resolver.Resolve(ctx, req.AdapterName)
	d.metrics.ObserveHop(adaptergw.ResolveHop, req.Operation, time.Since(start), err)
	if err != nil {
		return adaptergw.Location{}, &adaptergw.HopError{
			Hop:       adaptergw.ResolveHop,
			Operation: req.Operation,
			Adapter:   req.AdapterName,
			Err:       err,
		}
	}

	logger.Trace().
		Stringer("state", adaptergw.Forwarding).
		Str("adapter", req.AdapterName).
		Str("location", loc.Addr()).
		Msg("Adapter resolved")
	return loc, nil
}

// forward is hop 2
func (d *Dispatcher) forward(ctx context.Context, req adaptergw.OperationRequest, loc adaptergw.Location) (json.RawMessage, error) {
	call, err := req.Hop()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var body json.RawMessage
	switch call.Method {
	case http.MethodPost:
		body, err = d.forwarder.Post(ctx, loc, call.Path, call.Body)
	default:
		body, err = d.forwarder.Get(ctx, loc, call.Path)
	}
	d.metrics.ObserveHop(adaptergw.ForwardHop, req.Operation, time.Since(start), err)
	if err != nil {
		return nil, &adaptergw.HopError{
			Hop:       adaptergw.ForwardHop,
			Operation: req.Operation,
			Adapter:   req.AdapterName,
			Location:  &loc,
			Err:       err,
		}
	}
	return body, nil
}
