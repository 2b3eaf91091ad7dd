package adaptergw

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// Operation is the closed set of operations the gateway forwards.
// Adding one means extending every switch over Operation in this package.
type Operation int

const (
	Create Operation = iota + 1
	Delete
	GetFile
	Supported
	GetDataSourceFormSchema
	GetDataAssetFormSchema
)

// Operations lists every forwarded operation in declaration order
var Operations = []Operation{
	Create,
	Delete,
	GetFile,
	Supported,
	GetDataSourceFormSchema,
	GetDataAssetFormSchema,
}

func (o Operation) String() string {
	switch o {
	case Create:
		return "create"
	case Delete:
		return "delete"
	case GetFile:
		return "getFile"
	case Supported:
		return "supported"
	case GetDataSourceFormSchema:
		return "getDataSourceFormSchema"
	case GetDataAssetFormSchema:
		return "getDataAssetFormSchema"
	default:
		return "unknown(" + strconv.Itoa(int(o)) + ")"
	}
}

// HasBody reports whether the operation forwards the inbound JSON body
func (o Operation) HasBody() bool {
	return o == Create || o == GetFile
}

// OperationRequest is one inbound call, transient for the lifetime of the request.
type OperationRequest struct {
	Operation   Operation
	AdapterName string
	// PathParam holds the numeric id for Delete
	PathParam string
	// Body holds the JSON payload for Create and GetFile
	Body json.RawMessage
}

// HopCall describes the adapter call (hop 2) derived from a request
type HopCall struct {
	Method string
	Path   string
	Body   json.RawMessage
}

// NewCreateRequest forwards body to the adapter's create endpoint
func NewCreateRequest(name string, body json.RawMessage) OperationRequest {
	return OperationRequest{Operation: Create, AdapterName: name, Body: body}
}

// NewDeleteRequest deletes the entity with the given id in the adapter
func NewDeleteRequest(name string, id int64) OperationRequest {
	return OperationRequest{Operation: Delete, AdapterName: name, PathParam: strconv.FormatInt(id, 10)}
}

// NewGetFileRequest forwards body to the adapter's getFile endpoint
func NewGetFileRequest(name string, body json.RawMessage) OperationRequest {
	return OperationRequest{Operation: GetFile, AdapterName: name, Body: body}
}

// NewSupportedRequest asks the adapter what it supports
func NewSupportedRequest(name string) OperationRequest {
	return OperationRequest{Operation: Supported, AdapterName: name}
}

// NewDataSourceFormSchemaRequest fetches the data source form schema of the adapter type
func NewDataSourceFormSchemaRequest(adapterType string) OperationRequest {
	return OperationRequest{Operation: GetDataSourceFormSchema, AdapterName: adapterType}
}

// NewDataAssetFormSchemaRequest fetches the data asset form schema of the adapter type
func NewDataAssetFormSchemaRequest(adapterType string) OperationRequest {
	return OperationRequest{Operation: GetDataAssetFormSchema, AdapterName: adapterType}
}

// Validate checks the request can be dispatched without contacting anyone
func (r OperationRequest) Validate() error {
	if r.AdapterName == "" {
		return fmt.Errorf("%w: empty adapter name", ErrInvalidRequest)
	}
	if r.Operation == Delete {
		if _, err := strconv.ParseInt(r.PathParam, 10, 64); err != nil {
			return fmt.Errorf("%w: delete id %q is not an integer", ErrInvalidRequest, r.PathParam)
		}
	}
	if r.Operation.HasBody() && len(r.Body) == 0 {
		return fmt.Errorf("%w: %s requires a body", ErrInvalidRequest, r.Operation)
	}
	_, err := r.Hop()
	return err
}

// Hop returns the adapter call for the request's operation
func (r OperationRequest) Hop() (HopCall, error) {
	switch r.Operation {
	case Create:
		return HopCall{Method: http.MethodPost, Path: "/create", Body: r.Body}, nil
	case Delete:
		return HopCall{Method: http.MethodGet, Path: "/delete/" + r.PathParam}, nil
	case GetFile:
		return HopCall{Method: http.MethodPost, Path: "/getFile", Body: r.Body}, nil
	case Supported:
		return HopCall{Method: http.MethodGet, Path: "/supported/"}, nil
	case GetDataSourceFormSchema:
		return HopCall{Method: http.MethodGet, Path: "/getDataSourceFormSchema/"}, nil
	case GetDataAssetFormSchema:
		return HopCall{Method: http.MethodGet, Path: "/getDataAssetFormSchema/"}, nil
	default:
		return HopCall{}, fmt.Errorf("%w: unknown operation %s", ErrInvalidRequest, r.Operation)
	}
}
