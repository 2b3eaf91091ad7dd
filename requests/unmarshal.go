package requests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/brettbedarf/adaptergw"
)

var (
	// ErrMalformedLocation is returned when the registry answer is not a usable location
	ErrMalformedLocation = errors.New("malformed adapter location")
	// ErrMalformedBody is returned when an inbound body is empty or not valid JSON
	ErrMalformedBody = errors.New("malformed JSON body")
	// ErrBodyTooLarge is returned when an inbound body exceeds the configured cap
	ErrBodyTooLarge = errors.New("request body too large")
)

// UnmarshalLocation decodes a registry getAdapter response into a Location.
// Both fields must be present, host non-empty and port a whole number within 1..65535.
func UnmarshalLocation(data []byte) (adaptergw.Location, error) {
	var dto LocationDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return adaptergw.Location{}, fmt.Errorf("%w: %v", ErrMalformedLocation, err)
	}
	if dto.Host == nil || dto.Port == nil {
		return adaptergw.Location{}, fmt.Errorf("%w: host and port are required", ErrMalformedLocation)
	}

	port := *dto.Port
	if port != math.Trunc(port) || port < 1 || port > math.MaxUint16 {
		return adaptergw.Location{}, fmt.Errorf("%w: port %v is not a valid port number", ErrMalformedLocation, port)
	}

	loc := adaptergw.Location{Host: *dto.Host, Port: int(port)}
	if !loc.Valid() {
		return adaptergw.Location{}, fmt.Errorf("%w: %q", ErrMalformedLocation, loc.Addr())
	}
	return loc, nil
}

// ParseDeleteID parses the id path segment of a delete request
func ParseDeleteID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: delete id %q is not an integer", adaptergw.ErrInvalidRequest, raw)
	}
	return id, nil
}

// ReadJSONBody reads at most limit bytes from r and checks they form a single JSON value.
// The returned bytes are the body as sent, not re-encoded.
func ReadJSONBody(r io.Reader, limit int64) (json.RawMessage, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrBodyTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedBody)
	}
	if !json.Valid(data) {
		return nil, ErrMalformedBody
	}
	return json.RawMessage(data), nil
}
