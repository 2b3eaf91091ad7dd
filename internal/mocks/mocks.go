package mocks

import (
	"context"
	"encoding/json"

	"github.com/brettbedarf/adaptergw"
	"github.com/stretchr/testify/mock"
)

// MockForwarder implements adaptergw.Forwarder for testing across packages
type MockForwarder struct {
	mock.Mock
}

func (m *MockForwarder) Get(ctx context.Context, loc adaptergw.Location, path string) (json.RawMessage, error) {
	args := m.Called(ctx, loc, path)
	return rawArg(args.Get(0)), args.Error(1)
}

func (m *MockForwarder) Post(ctx context.Context, loc adaptergw.Location, path string, body json.RawMessage) (json.RawMessage, error) {
	args := m.Called(ctx, loc, path, body)
	return rawArg(args.Get(0)), args.Error(1)
}

var _ adaptergw.Forwarder = (*MockForwarder)(nil)

// MockResolver implements adaptergw.Resolver for testing across packages
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, name string) (adaptergw.Location, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return adaptergw.Location{}, args.Error(1)
	}
	return args.Get(0).(adaptergw.Location), args.Error(1)
}

var _ adaptergw.Resolver = (*MockResolver)(nil)

// MockDispatcher implements adaptergw.Dispatcher for testing across packages
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, req adaptergw.OperationRequest) adaptergw.Result {
	args := m.Called(ctx, req)

	// Handle function return types (for tests inspecting the request)
	if fn, ok := args.Get(0).(func(context.Context, adaptergw.OperationRequest) adaptergw.Result); ok {
		return fn(ctx, req)
	}
	return args.Get(0).(adaptergw.Result)
}

var _ adaptergw.Dispatcher = (*MockDispatcher)(nil)

// rawArg accepts nil, string, []byte or json.RawMessage return values
func rawArg(v any) json.RawMessage {
	switch b := v.(type) {
	case nil:
		return nil
	case json.RawMessage:
		return b
	case []byte:
		return b
	case string:
		return json.RawMessage(b)
	default:
		panic("mocks: unsupported raw JSON return type")
	}
}
