package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/threadsim/threadsim/sim"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidYAML_LoadsCorrectly(t *testing.T) {
	path := writeScenario(t, `
model: many-to-many
carriers: 2
quantum: 3
semaphores:
  - name: db
    permits: 2
    max: 4
monitors:
  - name: buffer
threads:
  - name: producer
    steps:
      - compute 5
      - acquire db
      - release db
  - name: consumer
    start: 2
    steps:
      - enter buffer
      - wait buffer
      - exit buffer
`)

	spec, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Model != "many-to-many" {
		t.Errorf("model = %q, want %q", spec.Model, "many-to-many")
	}
	if spec.Carriers != 2 {
		t.Errorf("carriers = %d, want 2", spec.Carriers)
	}
	if spec.Quantum != 3 {
		t.Errorf("quantum = %d, want 3", spec.Quantum)
	}
	if len(spec.Semaphores) != 1 {
		t.Fatalf("semaphores count = %d, want 1", len(spec.Semaphores))
	}
	if spec.Semaphores[0].Name != "db" || spec.Semaphores[0].Permits != 2 || spec.Semaphores[0].Max != 4 {
		t.Errorf("semaphore fields mismatch: %+v", spec.Semaphores[0])
	}
	if len(spec.Threads) != 2 {
		t.Fatalf("threads count = %d, want 2", len(spec.Threads))
	}
	if spec.Threads[1].Name != "consumer" || spec.Threads[1].Start != 2 {
		t.Errorf("thread fields mismatch: %+v", spec.Threads[1])
	}
	if spec.Threads[0].Steps[0] != "compute 5" {
		t.Errorf("first step = %q, want %q", spec.Threads[0].Steps[0], "compute 5")
	}
}

func TestLoad_UnknownKey_ReturnsError(t *testing.T) {
	path := writeScenario(t, `
model: one-to-one
quantums: 3
threads:
  - steps:
      - compute 1
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestParseStep_ValidSteps(t *testing.T) {
	cases := []struct {
		step string
		want sim.Op
	}{
		{"compute 5", sim.Op{Kind: sim.OpCompute, Units: 5}},
		{"  compute   12  ", sim.Op{Kind: sim.OpCompute, Units: 12}},
		{"yield", sim.Op{Kind: sim.OpYield}},
		{"acquire db", sim.Op{Kind: sim.OpAcquire, Target: "db"}},
		{"release db", sim.Op{Kind: sim.OpRelease, Target: "db"}},
		{"enter buffer", sim.Op{Kind: sim.OpEnter, Target: "buffer"}},
		{"exit buffer", sim.Op{Kind: sim.OpExit, Target: "buffer"}},
		{"wait buffer", sim.Op{Kind: sim.OpWait, Target: "buffer"}},
		{"notify buffer", sim.Op{Kind: sim.OpNotify, Target: "buffer"}},
		{"notify_all buffer", sim.Op{Kind: sim.OpNotifyAll, Target: "buffer"}},
	}
	for _, tc := range cases {
		op, err := ParseStep(tc.step)
		if err != nil {
			t.Errorf("ParseStep(%q): unexpected error: %v", tc.step, err)
			continue
		}
		if op != tc.want {
			t.Errorf("ParseStep(%q) = %+v, want %+v", tc.step, op, tc.want)
		}
	}
}

func TestParseStep_InvalidSteps(t *testing.T) {
	cases := []string{
		"",
		"compute",
		"compute many",
		"compute 0",
		"compute -3",
		"yield now",
		"acquire",
		"wait a b",
		"sleep 5",
	}
	for _, step := range cases {
		if _, err := ParseStep(step); err == nil {
			t.Errorf("ParseStep(%q): expected error, got nil", step)
		}
	}
}

func TestSpecValidate_UndeclaredPrimitive_ReturnsError(t *testing.T) {
	spec := &Spec{
		Model: "one-to-one",
		Threads: []ThreadSpec{
			{Steps: []string{"acquire ghost"}},
		},
	}

	err := spec.Validate()
	if err == nil {
		t.Fatal("expected validation error for undeclared primitive")
	}
	if !strings.Contains(err.Error(), "undeclared primitive") {
		t.Errorf("error = %q, want mention of undeclared primitive", err.Error())
	}
}

func TestSpecValidate_DuplicateNameAcrossKinds_ReturnsError(t *testing.T) {
	spec := &Spec{
		Model:      "one-to-one",
		Semaphores: []SemaphoreSpec{{Name: "db", Permits: 1}},
		Monitors:   []MonitorSpec{{Name: "db"}},
		Threads: []ThreadSpec{
			{Steps: []string{"acquire db"}},
		},
	}

	err := spec.Validate()
	if err == nil {
		t.Fatal("expected validation error for duplicate primitive name")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error = %q, want mention of duplicate", err.Error())
	}
}

func TestSpecValidate_PermitsExceedMax_ReturnsError(t *testing.T) {
	spec := &Spec{
		Model:      "one-to-one",
		Semaphores: []SemaphoreSpec{{Name: "db", Permits: 5, Max: 2}},
		Threads: []ThreadSpec{
			{Steps: []string{"acquire db"}},
		},
	}

	if err := spec.Validate(); err == nil {
		t.Fatal("expected validation error for permits above max")
	}
}

func TestSpecValidate_UnknownModel_ReturnsError(t *testing.T) {
	spec := &Spec{
		Model:   "two-to-two",
		Threads: []ThreadSpec{{Steps: []string{"compute 1"}}},
	}

	if err := spec.Validate(); err == nil {
		t.Fatal("expected validation error for unknown model")
	}
}

func TestBuild_CompilesConfigAndSetup(t *testing.T) {
	spec := &Spec{
		Model:    "many-to-one",
		Quantum:  2,
		Horizon:  100,
		HaltAt:   50,
		Monitors: []MonitorSpec{{Name: "lock"}},
		Threads: []ThreadSpec{
			{Name: "a", Steps: []string{"enter lock", "compute 3", "exit lock"}},
			{Name: "b", Start: 4, Steps: []string{"compute 1"}},
		},
	}

	cfg, setup, err := spec.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Model.Name != "many-to-one" || cfg.Model.Threads != 2 {
		t.Errorf("model config mismatch: %+v", cfg.Model)
	}
	if cfg.Run.Quantum != 2 || cfg.Run.Horizon != 100 {
		t.Errorf("run config mismatch: %+v", cfg.Run)
	}
	if setup.HaltAt != 50 {
		t.Errorf("halt_at = %d, want 50", setup.HaltAt)
	}
	if len(setup.Monitors) != 1 || setup.Monitors[0].Name != "lock" {
		t.Errorf("monitors mismatch: %+v", setup.Monitors)
	}
	if len(setup.Threads) != 2 {
		t.Fatalf("threads count = %d, want 2", len(setup.Threads))
	}
	wantProgram := []sim.Op{
		{Kind: sim.OpEnter, Target: "lock"},
		{Kind: sim.OpCompute, Units: 3},
		{Kind: sim.OpExit, Target: "lock"},
	}
	if len(setup.Threads[0].Program) != len(wantProgram) {
		t.Fatalf("program length = %d, want %d", len(setup.Threads[0].Program), len(wantProgram))
	}
	for i, op := range setup.Threads[0].Program {
		if op != wantProgram[i] {
			t.Errorf("program[%d] = %+v, want %+v", i, op, wantProgram[i])
		}
	}
	if setup.Threads[1].StartTick != 4 {
		t.Errorf("thread b start = %d, want 4", setup.Threads[1].StartTick)
	}

	// AND the compiled pair is accepted by the engine
	if _, err := sim.NewEngine(cfg, setup); err != nil {
		t.Errorf("NewEngine rejected built scenario: %v", err)
	}
}

func TestBuild_InvalidSpec_ReturnsError(t *testing.T) {
	spec := &Spec{
		Model:   "one-to-one",
		Threads: []ThreadSpec{{Steps: []string{"acquire ghost"}}},
	}

	if _, _, err := spec.Build(); err == nil {
		t.Fatal("expected build error for invalid spec")
	}
}
