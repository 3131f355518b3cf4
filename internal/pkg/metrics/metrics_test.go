package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.MarkRecorded(ResultCreated)
	m.StatsRecomputeFailed()
	assert.Nil(t, m.Registry())

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkCounters(t *testing.T) {
	m := New()
	m.MarkRecorded(ResultCreated)
	m.MarkRecorded(ResultCreated)
	m.MarkRecorded(ResultConflict)
	m.StatsRecomputeFailed()

	expected := `
# HELP attendance_marks_total Attendance mark attempts by result.
# TYPE attendance_marks_total counter
attendance_marks_total{result="conflict"} 1
attendance_marks_total{result="created"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "attendance_marks_total"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.statsRecomputeFailures))
}

func TestGinMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/v1/attendance/class/:classId", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/attendance/class/"+id, nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2, testutil.CollectAndCount(m.httpRequestDuration))
}
