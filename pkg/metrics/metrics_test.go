package metrics

import (
	"testing"
	"time"

	io_prometheus_client "github.com/prometheus/client_model/go"
)

func TestNilMetricsIsNoOp(t *testing.T) {
	var m *Metrics
	m.ObserveTask(true, time.Millisecond)
	m.ObserveResolution("npm")
	m.IncSkipOracleHit()
	m.ObserveInstallRun(time.Second)
	m.ServeHTTP("", nil)
}

func TestObserveTaskIncrementsCounter(t *testing.T) {
	m := New()
	m.ObserveTask(true, 10*time.Millisecond)
	m.ObserveTask(false, 20*time.Millisecond)

	families, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var found *io_prometheus_client.MetricFamily
	for _, f := range families {
		if f.GetName() == "pantry_install_tasks_total" {
			found = f
		}
	}
	if found == nil {
		t.Fatal("expected pantry_install_tasks_total to be registered")
	}
	if len(found.Metric) != 2 {
		t.Fatalf("expected 2 label combinations (success/failure), got %d", len(found.Metric))
	}
}
