package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goGate "github.com/MrEthical07/goGate"
	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

type fakeSource struct {
	snapshot goGate.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goGate.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }

func gather(t *testing.T, src fakeSource) map[string]*dto.MetricFamily {
	t.Helper()
	registry := prom.NewRegistry()
	if err := registry.Register(NewCollectorFromSource(src)); err != nil {
		t.Fatalf("register: %v", err)
	}
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	families := gather(t, fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters:   map[goGate.MetricID]uint64{},
			Histograms: map[goGate.MetricID][]uint64{},
		},
	})
	if len(families) != 0 {
		t.Fatalf("expected no families for disabled metrics, got %d", len(families))
	}
}

func TestCollectCountersAndHistogram(t *testing.T) {
	families := gather(t, fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters: map[goGate.MetricID]uint64{
				goGate.MetricReissueSuccess:  7,
				goGate.MetricReissueMismatch: 2,
			},
			Histograms: map[goGate.MetricID][]uint64{
				goGate.MetricReissueLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	if got := families["gogate_reissue_success_total"].GetMetric()[0].GetCounter().GetValue(); got != 7 {
		t.Fatalf("reissue success = %v", got)
	}
	if got := families["gogate_reissue_mismatch_total"].GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("reissue mismatch = %v", got)
	}
	if got := families["gogate_audit_dropped_total"].GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Fatalf("audit dropped = %v", got)
	}

	h := families["gogate_reissue_latency_seconds"].GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 36 {
		t.Fatalf("sample count = %d", h.GetSampleCount())
	}
	byBound := map[float64]uint64{}
	for _, b := range h.GetBucket() {
		byBound[b.GetUpperBound()] = b.GetCumulativeCount()
	}
	if byBound[0.005] != 1 || byBound[0.05] != 10 || byBound[0.5] != 28 {
		t.Fatalf("unexpected cumulative buckets %v", byBound)
	}
	if _, ok := families["gogate_authenticate_latency_seconds"]; ok {
		t.Fatal("absent histograms must not be exported")
	}
}

func TestHandlerServesExpositionFormat(t *testing.T) {
	h := HandlerFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters:   map[goGate.MetricID]uint64{goGate.MetricLoginSuccess: 1},
			Histograms: map[goGate.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "gogate_login_success_total 1") {
		t.Fatalf("expected login counter, got:\n%s", body)
	}
}

func BenchmarkCollect(b *testing.B) {
	c := NewCollectorFromSource(fakeSource{
		snapshot: goGate.MetricsSnapshot{
			Counters: map[goGate.MetricID]uint64{
				goGate.MetricAuthenticateSuccess: 100000,
				goGate.MetricReissueSuccess:      800,
				goGate.MetricReissueFailure:      10,
			},
			Histograms: map[goGate.MetricID][]uint64{
				goGate.MetricAuthenticateLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ch := make(chan prom.Metric, 32)
		c.Collect(ch)
		close(ch)
	}
}
