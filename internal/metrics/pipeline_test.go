package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineMetricsCounts(t *testing.T) {
	m := NewPipelineMetrics("mock")
	m.ObserveFetch(time.Second, nil)
	m.ObserveFetch(time.Second, errors.New("boom"))
	m.ObservePost(OutcomeDrafted)
	m.ObservePost(OutcomeDrafted)
	m.ObservePost(OutcomeNoPrice)
	m.AddImported(3)
	m.AddImported(-1)

	if got := testutil.ToFloat64(m.fetchTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.postsTotal.WithLabelValues(OutcomeDrafted)); got != 2 {
		t.Fatalf("drafted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.importedTotal); got != 3 {
		t.Fatalf("imported = %v, want 3", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "importer_caption_posts_total") {
		t.Fatalf("metrics output missing posts counter")
	}
}

func TestNilPipelineMetricsIsSafe(t *testing.T) {
	var m *PipelineMetrics
	m.ObserveFetch(time.Second, nil)
	m.ObservePost(OutcomeNotImage)
	m.AddImported(1)
	if m.Handler() == nil {
		t.Fatalf("expected a handler")
	}
}
