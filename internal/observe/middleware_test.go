package observe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// requestPoint returns the only data point of the request duration histogram.
func requestPoint(t *testing.T, reader *sdkmetric.ManualReader) metricdata.HistogramDataPoint[float64] {
	t.Helper()
	found := findMetric(collect(t, reader), "ttsbroker.http.request.duration")
	require.NotNil(t, found, "request duration histogram not recorded")
	h, ok := found.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	return h.DataPoints[0]
}

func attr(set attribute.Set, key string) attribute.Value {
	v, _ := set.Value(attribute.Key(key))
	return v
}

func TestMiddleware_RouteAndStatus(t *testing.T) {
	m, reader := newTestMetrics(t)
	exp := useRecorder(t)
	buf := captureLog(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /tts", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	rec := httptest.NewRecorder()
	Middleware(m)(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/tts", nil))

	id := rec.Header().Get("X-Correlation-ID")
	assert.Len(t, id, 32)

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP POST /tts", spans[0].Name)

	dp := requestPoint(t, reader)
	assert.Equal(t, "POST /tts", attr(dp.Attributes, "path").AsString())
	assert.Equal(t, int64(http.StatusBadRequest), attr(dp.Attributes, "status").AsInt64())
	assert.Equal(t, "POST", attr(dp.Attributes, "method").AsString())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request completed", line["msg"])
	assert.Equal(t, id, line["trace_id"])
	assert.EqualValues(t, http.StatusBadRequest, line["status"])
}

func TestMiddleware_HandlerSeesCorrelationID(t *testing.T) {
	m, _ := newTestMetrics(t)
	useRecorder(t)
	captureLog(t)

	var inside string
	h := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inside = CorrelationID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, inside)
	assert.Equal(t, inside, rec.Header().Get("X-Correlation-ID"))
}

func TestMiddleware_UnmatchedPathIsNotALabel(t *testing.T) {
	m, reader := newTestMetrics(t)
	exp := useRecorder(t)
	captureLog(t)

	rec := httptest.NewRecorder()
	Middleware(m)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/random/path", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unmatched", attr(requestPoint(t, reader).Attributes, "path").AsString())
	require.Len(t, exp.GetSpans(), 1)
	assert.Equal(t, "HTTP GET", exp.GetSpans()[0].Name)
}
