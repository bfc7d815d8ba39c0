package sim

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/threadsim/threadsim/sim/trace"
)

func TestNewRunReport_CarriesOutcomeAndTimeline(t *testing.T) {
	// GIVEN a finished contended run with a recorded timeline
	cfg := Config{
		Model:    NewModelConfig("one-to-one", 2, 0),
		Workload: NewWorkloadConfig("contended", 1),
		Sync:     NewSyncConfig(1, 0),
	}
	tl := trace.NewTimeline()
	eng, err := NewEngine(cfg, nil, TimelineSink{Timeline: tl})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// WHEN a report is assembled
	report := NewRunReport(eng, tl)

	// THEN it names the model, carries the metrics, and embeds the timeline
	if report.RunID == "" {
		t.Error("RunID empty")
	}
	if report.Model != "one-to-one" {
		t.Errorf("Model: got %q, want one-to-one", report.Model)
	}
	if report.Metrics.CompletedThreads != 2 {
		t.Errorf("CompletedThreads: got %d, want 2", report.Metrics.CompletedThreads)
	}
	if len(report.Timeline) != len(tl.Records) {
		t.Errorf("Timeline length: got %d, want %d", len(report.Timeline), len(tl.Records))
	}
	if report.Summary == nil || report.Summary.TotalTransitions != len(tl.Records) {
		t.Errorf("Summary: got %+v, want %d total transitions", report.Summary, len(tl.Records))
	}
	if report.Deadlock != nil {
		t.Errorf("Deadlock: got %+v, want nil for a clean run", report.Deadlock)
	}
}

func TestNewRunReport_NilTimeline_OmitsTrace(t *testing.T) {
	cfg := Config{
		Model:    NewModelConfig("one-to-one", 1, 0),
		Workload: NewWorkloadConfig("independent", 1),
	}
	eng, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report := NewRunReport(eng, nil)

	if report.Timeline != nil {
		t.Errorf("Timeline: got %d records, want none", len(report.Timeline))
	}
	if report.Summary != nil {
		t.Errorf("Summary: got %+v, want nil", report.Summary)
	}
}

func TestNewRunReport_DeadlockedRun_RecordsStall(t *testing.T) {
	// GIVEN a run that stalls on crossed monitors
	cfg := Config{Model: NewModelConfig("one-to-one", 2, 0)}
	setup := &Setup{
		Monitors: []MonitorSetup{{Name: "A"}, {Name: "B"}},
		Threads: []ThreadSetup{
			{Name: "t1", Program: []Op{{Kind: OpEnter, Target: "A"}, {Kind: OpCompute, Units: 1}, {Kind: OpEnter, Target: "B"}}},
			{Name: "t2", Program: []Op{{Kind: OpEnter, Target: "B"}, {Kind: OpCompute, Units: 1}, {Kind: OpEnter, Target: "A"}}},
		},
	}
	eng, err := NewEngine(cfg, setup)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if runErr := eng.Run(context.Background()); !IsDeadlockError(runErr) {
		t.Fatalf("Run: got err=%v, want DeadlockError", runErr)
	}

	// WHEN a report is assembled
	report := NewRunReport(eng, nil)

	// THEN the stall is embedded with its thread set
	if report.Deadlock == nil {
		t.Fatal("Deadlock: got nil, want record")
	}
	if report.Deadlock.Tick != 2 {
		t.Errorf("Deadlock.Tick: got %d, want 2", report.Deadlock.Tick)
	}
	if len(report.Deadlock.Threads) != 2 {
		t.Errorf("Deadlock.Threads: got %v, want 2 entries", report.Deadlock.Threads)
	}
}

func TestRunReport_WriteFile_RoundTrips(t *testing.T) {
	// GIVEN a report from a short run
	cfg := Config{
		Model:    NewModelConfig("many-to-one", 2, 0),
		Workload: NewWorkloadConfig("independent", 2),
	}
	tl := trace.NewTimeline()
	eng, err := NewEngine(cfg, nil, TimelineSink{Timeline: tl})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := eng.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	report := NewRunReport(eng, tl)

	// WHEN it is written to disk and read back
	path := filepath.Join(t.TempDir(), "report.json")
	if err := report.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var back RunReport
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	// THEN the parsed report matches what was written
	if back.RunID != report.RunID {
		t.Errorf("RunID: got %q, want %q", back.RunID, report.RunID)
	}
	if back.Model != "many-to-one" {
		t.Errorf("Model: got %q, want many-to-one", back.Model)
	}
	if back.Metrics == nil || back.Metrics.CompletedThreads != 2 {
		t.Errorf("Metrics.CompletedThreads: got %+v, want 2", back.Metrics)
	}
	if len(back.Timeline) != len(report.Timeline) {
		t.Errorf("Timeline length: got %d, want %d", len(back.Timeline), len(report.Timeline))
	}
}
