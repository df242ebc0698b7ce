package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily は収集結果から指定名のメトリクスファミリーを探す。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("%s metric not found", name)
	return nil
}

// labelValue はメトリクスから指定ラベルの値を取得する。
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordGarageCreated_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordGarageCreated()
	c.RecordGarageCreated()

	mf := findMetricFamily(t, reg, "garagesale_garages_created_total")
	if v := mf.GetMetric()[0].GetCounter().GetValue(); v != 2 {
		t.Errorf("garages_created_total = %v, want 2", v)
	}
}

func TestRecordSlugProbesAndConflicts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSlugProbes(3)
	c.RecordSlugProbes(1)
	c.RecordSlugConflict()

	probes := findMetricFamily(t, reg, "garagesale_slug_probes_total")
	if v := probes.GetMetric()[0].GetCounter().GetValue(); v != 4 {
		t.Errorf("slug_probes_total = %v, want 4", v)
	}
	conflicts := findMetricFamily(t, reg, "garagesale_slug_conflicts_total")
	if v := conflicts.GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("slug_conflicts_total = %v, want 1", v)
	}
}

// TestRecordOwnerLogin_LabelsByResult はログイン結果ごとにラベルが分かれることを検証する。
func TestRecordOwnerLogin_LabelsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordOwnerLogin(LoginResultSuccess)
	c.RecordOwnerLogin(LoginResultInvalid)
	c.RecordOwnerLogin(LoginResultInvalid)

	mf := findMetricFamily(t, reg, "garagesale_owner_logins_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "result")] = m.GetCounter().GetValue()
	}
	if got[LoginResultSuccess] != 1 || got[LoginResultInvalid] != 2 {
		t.Errorf("owner_logins_total = %v", got)
	}
}

func TestRecordItemMutation_LabelsByOp(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordItemMutation(ItemOpCreate)
	c.RecordItemMutation(ItemOpUpdate)
	c.RecordItemMutation(ItemOpUpdate)
	c.RecordItemMutation(ItemOpDelete)

	mf := findMetricFamily(t, reg, "garagesale_item_mutations_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "op")] = m.GetCounter().GetValue()
	}
	if got[ItemOpCreate] != 1 || got[ItemOpUpdate] != 2 || got[ItemOpDelete] != 1 {
		t.Errorf("item_mutations_total = %v", got)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はステータスコードラベル付きで記録されることを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	mf := findMetricFamily(t, reg, "garagesale_http_status_total")
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "status_code")] = m.GetCounter().GetValue()
	}
	if got["200"] != 2 || got["404"] != 1 {
		t.Errorf("http_status_total = %v", got)
	}
}

func TestRecordPhotoFetch_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPhotoFetch(120*time.Millisecond, true)
	c.RecordPhotoFetch(2*time.Second, false)

	mf := findMetricFamily(t, reg, "garagesale_photo_fetch_latency_seconds")
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 series, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		if m.GetHistogram().GetSampleCount() != 1 {
			t.Errorf("outcome %q sample count = %d, want 1", labelValue(m, "outcome"), m.GetHistogram().GetSampleCount())
		}
	}
}

func TestRecordInterestsAndCleanup(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordInterestCreated()
	c.RecordParticipantsCleaned(5)

	if v := findMetricFamily(t, reg, "garagesale_interests_total").GetMetric()[0].GetCounter().GetValue(); v != 1 {
		t.Errorf("interests_total = %v, want 1", v)
	}
	if v := findMetricFamily(t, reg, "garagesale_participants_cleaned_total").GetMetric()[0].GetCounter().GetValue(); v != 5 {
		t.Errorf("participants_cleaned_total = %v, want 5", v)
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat はHandlerがPrometheus形式で出力することを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordGarageCreated()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "garagesale_garages_created_total 1") {
		t.Errorf("body should contain garagesale_garages_created_total 1, got:\n%s", body)
	}
}

// TestMultipleCollectors_IndependentRegistries は別レジストリ同士が干渉しないことを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	c1 := NewCollector(reg1)
	_ = NewCollector(reg2)

	c1.RecordGarageCreated()

	if v := findMetricFamily(t, reg2, "garagesale_garages_created_total").GetMetric()[0].GetCounter().GetValue(); v != 0 {
		t.Errorf("reg2 garages_created_total = %v, want 0", v)
	}
}
