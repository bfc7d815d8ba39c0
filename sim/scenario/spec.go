package scenario

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/threadsim/threadsim/sim"
)

// Spec is the top-level scenario configuration.
// Loaded from YAML via Load(path).
type Spec struct {
	Model      string          `yaml:"model"`
	Carriers   int             `yaml:"carriers,omitempty"`
	Quantum    int64           `yaml:"quantum,omitempty"`
	Horizon    int64           `yaml:"horizon,omitempty"`
	HaltAt     int64           `yaml:"halt_at,omitempty"`
	Semaphores []SemaphoreSpec `yaml:"semaphores,omitempty"`
	Monitors   []MonitorSpec   `yaml:"monitors,omitempty"`
	Threads    []ThreadSpec    `yaml:"threads"`
}

// SemaphoreSpec declares one counting semaphore.
type SemaphoreSpec struct {
	Name    string `yaml:"name"`
	Permits int64  `yaml:"permits"`
	Max     int64  `yaml:"max,omitempty"` // 0 = unbounded
}

// MonitorSpec declares one monitor.
type MonitorSpec struct {
	Name string `yaml:"name"`
}

// ThreadSpec defines a single thread's program.
// Steps are written one op per line, e.g. "compute 5", "acquire db", "yield".
type ThreadSpec struct {
	Name  string   `yaml:"name,omitempty"`
	Start int64    `yaml:"start,omitempty"` // spawn tick (default 0)
	Steps []string `yaml:"steps"`
}

// Load reads and parses a YAML scenario file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var spec Spec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *Spec) Validate() error {
	if !sim.IsValidThreadModel(s.Model) {
		return fmt.Errorf("unknown model %q; valid: one-to-one, many-to-one, one-to-many, many-to-many", s.Model)
	}
	if s.Carriers < 0 {
		return fmt.Errorf("carriers must be non-negative, got %d", s.Carriers)
	}
	if s.Quantum < 0 {
		return fmt.Errorf("quantum must be non-negative, got %d", s.Quantum)
	}
	if s.Horizon < 0 {
		return fmt.Errorf("horizon must be non-negative, got %d", s.Horizon)
	}
	if s.HaltAt < 0 {
		return fmt.Errorf("halt_at must be non-negative, got %d", s.HaltAt)
	}
	if len(s.Threads) == 0 {
		return fmt.Errorf("at least one thread required")
	}

	seen := make(map[string]bool)
	for i, sem := range s.Semaphores {
		prefix := fmt.Sprintf("semaphore[%d]", i)
		if sem.Name == "" {
			return fmt.Errorf("%s: name required", prefix)
		}
		if seen[sem.Name] {
			return fmt.Errorf("%s: duplicate name %q", prefix, sem.Name)
		}
		seen[sem.Name] = true
		if sem.Permits < 0 {
			return fmt.Errorf("%s: permits must be non-negative, got %d", prefix, sem.Permits)
		}
		if sem.Max < 0 {
			return fmt.Errorf("%s: max must be non-negative, got %d", prefix, sem.Max)
		}
		if sem.Max > 0 && sem.Permits > sem.Max {
			return fmt.Errorf("%s: permits %d exceed max %d", prefix, sem.Permits, sem.Max)
		}
	}
	for i, mon := range s.Monitors {
		prefix := fmt.Sprintf("monitor[%d]", i)
		if mon.Name == "" {
			return fmt.Errorf("%s: name required", prefix)
		}
		if seen[mon.Name] {
			return fmt.Errorf("%s: duplicate name %q", prefix, mon.Name)
		}
		seen[mon.Name] = true
	}

	for i, t := range s.Threads {
		if err := validateThread(&t, i, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateThread(t *ThreadSpec, idx int, primitives map[string]bool) error {
	prefix := fmt.Sprintf("thread[%d]", idx)
	if t.Start < 0 {
		return fmt.Errorf("%s: start must be non-negative, got %d", prefix, t.Start)
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("%s: at least one step required", prefix)
	}
	for j, step := range t.Steps {
		op, err := ParseStep(step)
		if err != nil {
			return fmt.Errorf("%s.steps[%d]: %w", prefix, j, err)
		}
		if op.Target != "" && !primitives[op.Target] {
			return fmt.Errorf("%s.steps[%d]: undeclared primitive %q", prefix, j, op.Target)
		}
	}
	return nil
}

// ParseStep parses one step line into an op.
// The grammar is "compute <units>", "yield", or "<verb> <primitive>" for
// acquire, release, enter, exit, wait, notify, and notify_all.
func ParseStep(step string) (sim.Op, error) {
	fields := strings.Fields(step)
	if len(fields) == 0 {
		return sim.Op{}, fmt.Errorf("empty step")
	}
	kind := sim.OpKind(fields[0])
	switch kind {
	case sim.OpCompute:
		if len(fields) != 2 {
			return sim.Op{}, fmt.Errorf("step %q: expected 'compute <units>'", step)
		}
		units, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || units < 1 {
			return sim.Op{}, fmt.Errorf("step %q: units must be a positive integer", step)
		}
		return sim.Op{Kind: kind, Units: units}, nil
	case sim.OpYield:
		if len(fields) != 1 {
			return sim.Op{}, fmt.Errorf("step %q: yield takes no arguments", step)
		}
		return sim.Op{Kind: kind}, nil
	case sim.OpAcquire, sim.OpRelease, sim.OpEnter, sim.OpExit, sim.OpWait, sim.OpNotify, sim.OpNotifyAll:
		if len(fields) != 2 {
			return sim.Op{}, fmt.Errorf("step %q: expected '%s <primitive>'", step, kind)
		}
		return sim.Op{Kind: kind, Target: fields[1]}, nil
	default:
		return sim.Op{}, fmt.Errorf("unknown op %q; valid: compute, acquire, release, enter, exit, wait, notify, notify_all, yield", fields[0])
	}
}

// Build compiles a validated spec into an engine configuration and setup.
func (s *Spec) Build() (sim.Config, *sim.Setup, error) {
	if err := s.Validate(); err != nil {
		return sim.Config{}, nil, err
	}

	cfg := sim.Config{
		Model: sim.NewModelConfig(s.Model, len(s.Threads), s.Carriers),
		Run:   sim.NewRunConfig(s.Quantum, s.Horizon, 0),
	}

	setup := &sim.Setup{HaltAt: s.HaltAt}
	for _, sem := range s.Semaphores {
		setup.Semaphores = append(setup.Semaphores, sim.SemaphoreSetup{
			Name:    sem.Name,
			Permits: sem.Permits,
			Max:     sem.Max,
		})
	}
	for _, mon := range s.Monitors {
		setup.Monitors = append(setup.Monitors, sim.MonitorSetup{Name: mon.Name})
	}
	for _, t := range s.Threads {
		program := make([]sim.Op, 0, len(t.Steps))
		for _, step := range t.Steps {
			op, err := ParseStep(step)
			if err != nil {
				return sim.Config{}, nil, err
			}
			program = append(program, op)
		}
		setup.Threads = append(setup.Threads, sim.ThreadSetup{
			Name:      t.Name,
			StartTick: t.Start,
			Program:   program,
		})
	}
	return cfg, setup, nil
}
