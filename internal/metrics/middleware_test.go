package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/verify/bad/0x1" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.Write([]byte("OK"))
	})
	wrapped := Middleware(handler)

	okCounter := HTTPRequestsTotal.WithLabelValues("GET", "/verify/:documentId/:hash", "200")
	failCounter := HTTPRequestsTotal.WithLabelValues("GET", "/verify/:documentId/:hash", "422")
	initialOK := testutil.ToFloat64(okCounter)
	initialFail := testutil.ToFloat64(failCounter)

	for _, path := range []string{"/verify/arTx1/0xabc", "/verify/arTx2/0xdef", "/verify/bad/0x1"} {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, initialOK+2, testutil.ToFloat64(okCounter))
	assert.Equal(t, initialFail+1, testutil.ToFloat64(failCounter))
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/metrics", "/metrics"},
		{"/verify/arTx123/0xdeadbeef", "/verify/:documentId/:hash"},
		{"/verify/", "/verify/:documentId/:hash"},
		{"/", "/other"},
		{"/api/upload", "/other"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePath(tt.path), tt.path)
	}
}

func TestInstrumentTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	counter := BackendRequestsTotal.WithLabelValues("get", "202")
	initial := testutil.ToFloat64(counter)

	client := &http.Client{Transport: InstrumentTransport(nil)}
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, initial+1, testutil.ToFloat64(counter))
}
