package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
}

func gatherValue(t *testing.T, reg *Registry, name string, labels map[string]string) (float64, bool) {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := 0
			for _, label := range m.GetLabel() {
				if labels[label.GetName()] == label.GetValue() {
					matched++
				}
			}
			if matched != len(labels) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue(), true
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue(), true
			}
		}
	}
	return 0, false
}

func TestRegistry_RecordRequest(t *testing.T) {
	reg := NewRegistry()
	reg.RecordRequest("GET", "/api/latest", 200, 0.05)

	v, ok := gatherValue(t, reg, "http_requests_total",
		map[string]string{"method": "GET", "path": "/api/latest", "status": "2xx"})
	if !ok || v != 1 {
		t.Errorf("http_requests_total = %v (found %v)", v, ok)
	}
}

func TestRegistry_RecordRequest_StatusCodes(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			reg := NewRegistry()
			reg.RecordRequest("GET", "/test", tt.status, 0.01)

			_, ok := gatherValue(t, reg, "http_requests_total",
				map[string]string{"status": tt.expected})
			if !ok {
				t.Errorf("expected status label %s for status code %d", tt.expected, tt.status)
			}
		})
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	v, ok := gatherValue(t, reg, "http_requests_in_flight", nil)
	if !ok || v != 1 {
		t.Errorf("in-flight gauge = %v (found %v), want 1", v, ok)
	}
}

func TestRegistry_RecordProduced(t *testing.T) {
	reg := NewRegistry()
	reg.RecordProduced("cu", "ok")
	reg.RecordProduced("cu", "ok")
	reg.RecordProduced("cu", "degraded")

	v, ok := gatherValue(t, reg, "futusense_records_total",
		map[string]string{"symbol": "cu", "status": "ok"})
	if !ok || v != 2 {
		t.Errorf("records ok = %v (found %v), want 2", v, ok)
	}
	v, _ = gatherValue(t, reg, "futusense_records_total",
		map[string]string{"symbol": "cu", "status": "degraded"})
	if v != 1 {
		t.Errorf("records degraded = %v, want 1", v)
	}
}

func TestRegistry_RecordAgentResult(t *testing.T) {
	reg := NewRegistry()
	reg.RecordAgentResult("market", "heuristic", "ok")

	v, ok := gatherValue(t, reg, "futusense_agent_results_total",
		map[string]string{"agent": "market", "mode": "heuristic", "status": "ok"})
	if !ok || v != 1 {
		t.Errorf("agent results = %v (found %v)", v, ok)
	}
}

func TestRegistry_RecordLLMFallback(t *testing.T) {
	reg := NewRegistry()
	reg.RecordLLMFallback("macro", "llm_timeout")

	v, ok := gatherValue(t, reg, "futusense_llm_fallbacks_total",
		map[string]string{"agent": "macro", "reason": "llm_timeout"})
	if !ok || v != 1 {
		t.Errorf("llm fallbacks = %v (found %v)", v, ok)
	}
}

func TestRegistry_RecordRun(t *testing.T) {
	reg := NewRegistry()
	reg.RecordRun("ok", 12.5)

	v, ok := gatherValue(t, reg, "futusense_runs_total", map[string]string{"status": "ok"})
	if !ok || v != 1 {
		t.Errorf("runs = %v (found %v)", v, ok)
	}
}

func TestRegistry_SetWatchSize(t *testing.T) {
	reg := NewRegistry()
	reg.SetWatchSize(5)

	v, ok := gatherValue(t, reg, "futusense_watch_symbols", nil)
	if !ok || v != 5 {
		t.Errorf("watch symbols = %v (found %v), want 5", v, ok)
	}
}

// Ensure the registry implements prometheus.Gatherer interface
func TestRegistry_ImplementsGatherer(t *testing.T) {
	reg := NewRegistry()
	var _ prometheus.Gatherer = reg
}
