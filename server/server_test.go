package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/adaptergw"
	"github.com/brettbedarf/adaptergw/config"
	"github.com/brettbedarf/adaptergw/internal/mocks"
	"github.com/brettbedarf/adaptergw/internal/util"
	"github.com/brettbedarf/adaptergw/metrics"
)

func newTestServer(t *testing.T, d adaptergw.Dispatcher, overrides ...*config.ConfigOverride) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.NewConfig(overrides...)
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}
	s := NewWithDispatcher(cfg, d, m)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, string) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(data)
}

func TestRoutes_BuildRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   adaptergw.OperationRequest
	}{
		{"create", http.MethodPost, "/create/csv", `{"x":1}`, adaptergw.NewCreateRequest("csv", json.RawMessage(`{"x":1}`))},
		{"delete", http.MethodGet, "/delete/csv/42", "", adaptergw.NewDeleteRequest("csv", 42)},
		{"delete any method", http.MethodDelete, "/delete/csv/-7", "", adaptergw.NewDeleteRequest("csv", -7)},
		{"getFile", http.MethodPost, "/getFile/csv", `{"path":"a.csv"}`, adaptergw.NewGetFileRequest("csv", json.RawMessage(`{"path":"a.csv"}`))},
		{"supported", http.MethodGet, "/supported/csv", "", adaptergw.NewSupportedRequest("csv")},
		{"supported via post", http.MethodPost, "/supported/csv", "", adaptergw.NewSupportedRequest("csv")},
		{"data source schema", http.MethodGet, "/getDataSourceFormSchema/sql", "", adaptergw.NewDataSourceFormSchemaRequest("sql")},
		{"data asset schema", http.MethodGet, "/getDataAssetFormSchema/sql", "", adaptergw.NewDataAssetFormSchemaRequest("sql")},
		{"escaped name", http.MethodGet, "/supported/my%20adapter", "", adaptergw.NewSupportedRequest("my adapter")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := &mocks.MockDispatcher{}
			d.On("Dispatch", mock.Anything, tt.want).Return(adaptergw.CompletedResult([]byte(`{"ok":true}`))).Once()
			_, ts := newTestServer(t, d)

			resp, body := do(t, tt.method, ts.URL+tt.path, tt.body)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, `{"ok":true}`, body)
			d.AssertExpectations(t)
		})
	}
}

func TestRoutes_BodyVerbatim(t *testing.T) {
	t.Parallel()

	// Whitespace and key order must survive untouched in both directions
	in := "{ \"b\": 2,\n  \"a\": [1, 2] }"
	out := "{\"z\":null,  \"a\":1}"

	d := &mocks.MockDispatcher{}
	d.On("Dispatch", mock.Anything, mock.Anything).Return(func(_ context.Context, req adaptergw.OperationRequest) adaptergw.Result {
		assert.Equal(t, in, string(req.Body))
		return adaptergw.CompletedResult([]byte(out))
	})
	_, ts := newTestServer(t, d)

	resp, body := do(t, http.MethodPost, ts.URL+"/create/csv", in)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, out, body)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestRoutes_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"non-integer delete id", http.MethodGet, "/delete/csv/abc", "", http.StatusNotFound},
		{"overflowing delete id", http.MethodGet, "/delete/csv/99999999999999999999", "", http.StatusNotFound},
		{"malformed create body", http.MethodPost, "/create/csv", `{"x":`, http.StatusBadRequest},
		{"empty create body", http.MethodPost, "/create/csv", "", http.StatusBadRequest},
		{"malformed getFile body", http.MethodPost, "/getFile/csv", `not json`, http.StatusBadRequest},
		{"oversize body", http.MethodPost, "/create/csv", `{"data":"` + strings.Repeat("a", 64) + `"}`, http.StatusRequestEntityTooLarge},
		{"create via get", http.MethodGet, "/create/csv", "", http.StatusMethodNotAllowed},
		{"unknown route", http.MethodGet, "/nope/csv", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := &mocks.MockDispatcher{}
			_, ts := newTestServer(t, d, &config.ConfigOverride{MaxBodyBytes: util.Pointer(int64(32))})

			resp, body := do(t, tt.method, ts.URL+tt.path, tt.body)

			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Empty(t, body)
			d.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
		})
	}
}

func TestRoutes_FailuresCollapseTo404(t *testing.T) {
	t.Parallel()

	results := map[string]adaptergw.Result{
		"resolution": adaptergw.FailedResult(&adaptergw.HopError{Hop: adaptergw.ResolveHop, Err: io.EOF}),
		"forwarding": adaptergw.FailedResult(&adaptergw.HopError{Hop: adaptergw.ForwardHop, Err: io.EOF}),
		"empty":      adaptergw.CompletedResult(nil),
	}

	for name, res := range results {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			d := &mocks.MockDispatcher{}
			d.On("Dispatch", mock.Anything, mock.Anything).Return(res)
			_, ts := newTestServer(t, d)

			resp, body := do(t, http.MethodGet, ts.URL+"/supported/csv", "")

			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Empty(t, body)
		})
	}
}

func TestRoutes_CORS(t *testing.T) {
	t.Parallel()

	d := &mocks.MockDispatcher{}
	d.On("Dispatch", mock.Anything, mock.Anything).Return(adaptergw.CompletedResult([]byte(`{}`)))
	_, ts := newTestServer(t, d)

	t.Run("preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, ts.URL+"/create/csv", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://ui.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-PINGARUNER")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.MethodPost, resp.Header.Get("Access-Control-Allow-Methods"))
		allowed := strings.ToLower(resp.Header.Get("Access-Control-Allow-Headers"))
		assert.Contains(t, allowed, "content-type")
		assert.Contains(t, allowed, "x-pingaruner")
	})

	t.Run("simple request", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/supported/csv", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://ui.example")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestRoutes_RequestID(t *testing.T) {
	t.Parallel()

	d := &mocks.MockDispatcher{}
	d.On("Dispatch", mock.Anything, mock.Anything).Return(func(ctx context.Context, _ adaptergw.OperationRequest) adaptergw.Result {
		return adaptergw.CompletedResult([]byte(`"` + adaptergw.RequestID(ctx) + `"`))
	})
	_, ts := newTestServer(t, d)

	t.Run("propagated", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/supported/csv", nil)
		require.NoError(t, err)
		req.Header.Set(adaptergw.RequestIDHeader, "req-123")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Equal(t, "req-123", resp.Header.Get(adaptergw.RequestIDHeader))
		assert.Equal(t, `"req-123"`, string(body))
	})

	t.Run("generated", func(t *testing.T) {
		resp, body := do(t, http.MethodGet, ts.URL+"/supported/csv", "")

		id := resp.Header.Get(adaptergw.RequestIDHeader)
		assert.NotEmpty(t, id)
		assert.Equal(t, `"`+id+`"`, body)
	})
}

func TestHealth_InFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	entered := make(chan struct{})
	d := &mocks.MockDispatcher{}
	d.On("Dispatch", mock.Anything, mock.Anything).Return(func(context.Context, adaptergw.OperationRequest) adaptergw.Result {
		entered <- struct{}{}
		<-release
		return adaptergw.CompletedResult([]byte(`{}`))
	})
	s, ts := newTestServer(t, d)

	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","inflight":0}`, body)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := http.Get(ts.URL + "/supported/csv")
		if err == nil {
			resp.Body.Close()
		}
	}()

	<-entered
	assert.Equal(t, int64(1), s.InFlight())
	_, body = do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.JSONEq(t, `{"status":"ok","inflight":1}`, body)

	close(release)
	wg.Wait()
	assert.Eventually(t, func() bool { return s.InFlight() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()
		d := &mocks.MockDispatcher{}
		d.On("Dispatch", mock.Anything, mock.Anything).Return(adaptergw.FailedResult(io.EOF))
		_, ts := newTestServer(t, d)

		do(t, http.MethodGet, ts.URL+"/supported/csv", "")
		resp, body := do(t, http.MethodGet, ts.URL+"/metrics", "")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `adaptergw_http_responses_total{code="404",route="/supported/{name}"} 1`)
	})

	t.Run("custom path", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestServer(t, &mocks.MockDispatcher{}, &config.ConfigOverride{MetricsPath: util.Pointer("/internal/metrics")})

		resp, _ := do(t, http.MethodGet, ts.URL+"/internal/metrics", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		_, ts := newTestServer(t, &mocks.MockDispatcher{}, &config.ConfigOverride{MetricsEnabled: util.Pointer(false)})

		resp, _ := do(t, http.MethodGet, ts.URL+"/metrics", "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRoutes_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	d := &mocks.MockDispatcher{}
	d.On("Dispatch", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("boom")
	})
	_, ts := newTestServer(t, d)

	resp, body := do(t, http.MethodGet, ts.URL+"/supported/csv", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, body)

	// The server keeps serving after a recovered panic
	resp, _ = do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_ServeListenerAndShutdown(t *testing.T) {
	t.Parallel()

	d := &mocks.MockDispatcher{}
	d.On("Dispatch", mock.Anything, adaptergw.NewSupportedRequest("csv")).Return(adaptergw.CompletedResult([]byte(`["csv"]`)))
	s := NewWithDispatcher(config.NewConfig(), d, nil)
	assert.Nil(t, s.Addr())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ln) }()

	require.Eventually(t, func() bool { return s.Addr() != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, ln.Addr().String(), s.Addr().String())

	resp, body := do(t, http.MethodGet, "http://"+s.Addr().String()+"/supported/csv", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `["csv"]`, body)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err, "a clean shutdown is not a serve error")
	case <-time.After(time.Second):
		t.Fatal("ServeListener did not return after Shutdown")
	}
}
