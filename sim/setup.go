package sim

import "fmt"

// ThreadSetup describes one thread to spawn.
type ThreadSetup struct {
	Name      string `json:"name"`
	StartTick int64  `json:"start_tick"`
	Program   []Op   `json:"program"`
}

// SemaphoreSetup describes one counting semaphore.
type SemaphoreSetup struct {
	Name    string `json:"name"`
	Permits int64  `json:"permits"`
	Max     int64  `json:"max"` // 0 = unbounded
}

// MonitorSetup describes one monitor.
type MonitorSetup struct {
	Name string `json:"name"`
}

// Setup is the full description of a run: the threads to spawn, the
// primitives they contend on, and an optional scripted halt.
type Setup struct {
	Threads    []ThreadSetup    `json:"threads"`
	Semaphores []SemaphoreSetup `json:"semaphores,omitempty"`
	Monitors   []MonitorSetup   `json:"monitors,omitempty"`
	HaltAt     int64            `json:"halt_at,omitempty"` // 0 = never
}

// Validate checks the setup for structural problems: duplicate primitive
// names, ops that reference primitives the setup never declares, negative
// start ticks, and non-positive compute units.
func (s *Setup) Validate() error {
	if len(s.Threads) == 0 {
		return &ConfigError{Field: "threads", Reason: "at least one thread required"}
	}
	if s.HaltAt < 0 {
		return &ConfigError{Field: "halt_at", Reason: fmt.Sprintf("must not be negative, got %d", s.HaltAt)}
	}

	semNames := make(map[string]bool)
	monNames := make(map[string]bool)
	for i, ss := range s.Semaphores {
		field := fmt.Sprintf("semaphores[%d]", i)
		if ss.Name == "" {
			return &ConfigError{Field: field, Reason: "name must not be empty"}
		}
		if semNames[ss.Name] {
			return &ConfigError{Field: field, Reason: fmt.Sprintf("duplicate semaphore name %q", ss.Name)}
		}
		semNames[ss.Name] = true
	}
	for i, ms := range s.Monitors {
		field := fmt.Sprintf("monitors[%d]", i)
		if ms.Name == "" {
			return &ConfigError{Field: field, Reason: "name must not be empty"}
		}
		if semNames[ms.Name] || monNames[ms.Name] {
			return &ConfigError{Field: field, Reason: fmt.Sprintf("duplicate primitive name %q", ms.Name)}
		}
		monNames[ms.Name] = true
	}

	for i, ts := range s.Threads {
		if ts.StartTick < 0 {
			return &ConfigError{
				Field:  fmt.Sprintf("threads[%d].start_tick", i),
				Reason: fmt.Sprintf("must not be negative, got %d", ts.StartTick),
			}
		}
		for j, op := range ts.Program {
			field := fmt.Sprintf("threads[%d].program[%d]", i, j)
			if !IsValidOpKind(string(op.Kind)) {
				return &ConfigError{Field: field, Reason: fmt.Sprintf("unknown op kind %q", op.Kind)}
			}
			if op.Kind == OpCompute && op.Units < 1 {
				return &ConfigError{Field: field, Reason: fmt.Sprintf("compute units must be positive, got %d", op.Units)}
			}
			if semaphoreOps[op.Kind] && !semNames[op.Target] {
				return &ConfigError{Field: field, Reason: fmt.Sprintf("unknown semaphore %q", op.Target)}
			}
			if monitorOps[op.Kind] && !monNames[op.Target] {
				return &ConfigError{Field: field, Reason: fmt.Sprintf("unknown monitor %q", op.Target)}
			}
		}
	}
	return nil
}

// BuiltinSetup expands cfg.Workload into a concrete setup: N identical
// threads, all spawning at tick 0, plus the shared semaphore for the
// contended workload.
func BuiltinSetup(cfg Config) *Setup {
	s := &Setup{}
	for i := 0; i < cfg.Model.Threads; i++ {
		var program []Op
		switch cfg.Workload.Kind {
		case "", "independent":
			program = IndependentProgram(cfg.Workload.WorkUnits)
		case "contended":
			program = ContendedProgram("shared", cfg.Workload.WorkUnits)
		default:
			panic(fmt.Sprintf("Unknown workload kind: %s", cfg.Workload.Kind))
		}
		s.Threads = append(s.Threads, ThreadSetup{
			Name:    fmt.Sprintf("worker-%d", i+1),
			Program: program,
		})
	}
	if cfg.Workload.Kind == "contended" {
		s.Semaphores = []SemaphoreSetup{{
			Name:    "shared",
			Permits: cfg.Sync.SemaphorePermits,
			Max:     cfg.Sync.SemaphoreMax,
		}}
	}
	return s
}
