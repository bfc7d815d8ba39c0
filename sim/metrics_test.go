package sim

import "testing"

func TestNewMetrics_StartsZeroed(t *testing.T) {
	m := NewMetrics()

	if m.StartedThreads != 0 || m.CompletedThreads != 0 {
		t.Errorf("thread counts: got started=%d completed=%d, want 0 and 0", m.StartedThreads, m.CompletedThreads)
	}
	if m.PerThread == nil {
		t.Fatal("PerThread map not initialized")
	}
	if len(m.PerThread) != 0 {
		t.Errorf("PerThread: got %d entries, want 0", len(m.PerThread))
	}
}

func TestMetrics_CarrierUtilization_RatioOfBusyTicks(t *testing.T) {
	// GIVEN 2 carriers busy for 30 of 2*20 possible carrier ticks
	m := NewMetrics()
	m.CarrierCount = 2
	m.Ticks = 20
	m.BusyCarrierTicks = 30

	// THEN utilization is 30/40
	if got, want := m.CarrierUtilization(), 0.75; got != want {
		t.Errorf("CarrierUtilization: got %v, want %v", got, want)
	}
}

func TestMetrics_CarrierUtilization_GuardsEmptyRun(t *testing.T) {
	m := NewMetrics()

	if got := m.CarrierUtilization(); got != 0 {
		t.Errorf("CarrierUtilization on empty run: got %v, want 0", got)
	}

	m.CarrierCount = 4
	if got := m.CarrierUtilization(); got != 0 {
		t.Errorf("CarrierUtilization with zero ticks: got %v, want 0", got)
	}
}
