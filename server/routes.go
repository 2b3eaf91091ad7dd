package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/brettbedarf/adaptergw"
	"github.com/brettbedarf/adaptergw/internal/util"
	"github.com/brettbedarf/adaptergw/requests"
)

// Headers browsers may send cross-origin
var allowedHeaders = []string{
	"x-requested-with",
	"Access-Control-Allow-Origin",
	"origin",
	"Content-Type",
	"accept",
	"X-PINGARUNER",
}

// requestBuilder turns an inbound request into an operation request
type requestBuilder func(r *http.Request) (adaptergw.OperationRequest, error)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.requestContext)
	r.Use(s.recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: allowedHeaders,
	}))
	r.Use(s.observe)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.trackInFlight)

		r.Post("/create/{name}", s.handle(s.withBody(adaptergw.NewCreateRequest)))
		r.HandleFunc("/delete/{name}/{id}", s.handle(deleteRequest))
		r.Post("/getFile/{name}", s.handle(s.withBody(adaptergw.NewGetFileRequest)))
		r.HandleFunc("/supported/{name}", s.handle(pathOnly("name", adaptergw.NewSupportedRequest)))
		r.HandleFunc("/getDataSourceFormSchema/{type}", s.handle(pathOnly("type", adaptergw.NewDataSourceFormSchemaRequest)))
		r.HandleFunc("/getDataAssetFormSchema/{type}", s.handle(pathOnly("type", adaptergw.NewDataAssetFormSchemaRequest)))
	})

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, s.cfg.MetricsPath, s.metrics.Handler())
	}

	return r
}

// handle builds the operation request, dispatches it and writes the normalized reply
func (s *Server) handle(build requestBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := build(r)
		if err != nil {
			logger := util.LoggerFrom(r.Context(), "Server")
			logger.Debug().Err(err).Msg("Rejected request")
			writeRejection(w, err)
			return
		}
		writeResult(w, r, s.dispatcher.Dispatch(r.Context(), req))
	}
}

// withBody reads the capped JSON body for Create and GetFile
func (s *Server) withBody(ctor func(string, json.RawMessage) adaptergw.OperationRequest) requestBuilder {
	return func(r *http.Request) (adaptergw.OperationRequest, error) {
		body, err := requests.ReadJSONBody(r.Body, s.cfg.MaxBodyBytes)
		if err != nil {
			return adaptergw.OperationRequest{}, err
		}
		return ctor(pathParam(r, "name"), body), nil
	}
}

func deleteRequest(r *http.Request) (adaptergw.OperationRequest, error) {
	id, err := requests.ParseDeleteID(pathParam(r, "id"))
	if err != nil {
		return adaptergw.OperationRequest{}, err
	}
	return adaptergw.NewDeleteRequest(pathParam(r, "name"), id), nil
}

func pathOnly(param string, ctor func(string) adaptergw.OperationRequest) requestBuilder {
	return func(r *http.Request) (adaptergw.OperationRequest, error) {
		return ctor(pathParam(r, param)), nil
	}
}

// pathParam returns the decoded URL parameter. chi routes on RawPath when
// the path carried escapes, so those params arrive still escaped.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, requests.HealthDTO{
		Status:   "ok",
		InFlight: s.inflight.Value(),
	})
}
