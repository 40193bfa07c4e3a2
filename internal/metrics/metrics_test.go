package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedAuth bool

func (f fixedAuth) Authenticate(string, string) bool { return bool(f) }

func TestInit(t *testing.T) {
	assert.IsType(t, Noop{}, Init(false))
	assert.IsType(t, &Metrics{}, Init(true))
}

func TestHTTPCounters(t *testing.T) {
	m := New()

	m.HTTPStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsInFlight))

	m.HTTPFinished(http.MethodGet, "GET /api/v1/files/list", http.StatusOK, 10*time.Millisecond)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.HTTPRequestsInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "GET /api/v1/files/list", "200")))

	m.HTTPStarted()
	m.HTTPFinished(http.MethodGet, "", http.StatusNotFound, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unknown", "404")))
}

func TestUploadAndDeleteCounters(t *testing.T) {
	m := New()
	m.RecordUpload(2, 1024)
	m.RecordUpload(1, 6)
	m.RecordDirDeleted()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.UploadFilesTotal))
	assert.Equal(t, 1030.0, testutil.ToFloat64(m.UploadBytesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeletedDirsTotal))
}

func TestCountAuth(t *testing.T) {
	m := New()

	assert.True(t, CountAuth(fixedAuth(true), m).Authenticate("alice", "secret1"))
	assert.False(t, CountAuth(fixedAuth(false), m).Authenticate("alice", "nope"))
	assert.False(t, CountAuth(fixedAuth(false), m).Authenticate("bob", "nope"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuthAttemptsTotal.WithLabelValues("failure")))
}

func TestCountAuthNoopPassthrough(t *testing.T) {
	inner := fixedAuth(true)
	assert.Equal(t, Authenticator(inner), CountAuth(inner, Noop{}))
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordDirDeleted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dumbserve_deleted_dirs_total 1")

	rec = httptest.NewRecorder()
	Noop{}.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordDirDeleted()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.DeletedDirsTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.DeletedDirsTotal))
}
