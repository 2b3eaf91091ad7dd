package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brettbedarf/adaptergw"
	"github.com/brettbedarf/adaptergw/internal/util"
	"github.com/brettbedarf/adaptergw/requests"
)

// writeResult maps a dispatched result onto the wire. Only a completed,
// non-empty result is a 200; everything else is a 404 with no body.
func writeResult(w http.ResponseWriter, r *http.Request, res adaptergw.Result) {
	if res.State != adaptergw.Completed || res.Empty() {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Body); err != nil {
		logger := util.LoggerFrom(r.Context(), "Server")
		logger.Warn().Err(err).Msg("Failed to write response")
	}
}

// writeRejection answers a request that failed before dispatch
func writeRejection(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, requests.ErrBodyTooLarge):
		w.WriteHeader(http.StatusRequestEntityTooLarge)
	case errors.Is(err, requests.ErrMalformedBody):
		w.WriteHeader(http.StatusBadRequest)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logger := util.LoggerFrom(r.Context(), "Server")
		logger.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
