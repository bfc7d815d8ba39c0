package sim

import "fmt"

// ModelConfig groups thread model selection and sizing.
type ModelConfig struct {
	Name     string `json:"name"`     // "one-to-one", "many-to-one", "one-to-many", "many-to-many"
	Threads  int    `json:"threads"`  // threads the builtin workload spawns (must be > 0)
	Carriers int    `json:"carriers"` // carrier pool size (0 = derive from the model, where possible)
}

// WorkloadConfig groups builtin workload generation parameters.
// Ignored when the caller injects an explicit Setup (e.g. from a scenario file).
type WorkloadConfig struct {
	Kind      string `json:"kind"`       // "independent" (default) or "contended"
	WorkUnits int64  `json:"work_units"` // compute units per thread (must be > 0 for builtin workloads)
}

// SyncConfig groups parameters of the builtin "contended" workload's semaphore.
type SyncConfig struct {
	SemaphorePermits int64 `json:"semaphore_permits"` // initial permits
	SemaphoreMax     int64 `json:"semaphore_max"`     // upper bound on permits (0 = unbounded)
}

// RunConfig groups engine run parameters.
type RunConfig struct {
	Quantum int64 `json:"quantum"` // op steps per slice before preemption (0 = run to completion)
	Horizon int64 `json:"horizon"` // tick at which a runaway run is cancelled (0 = unlimited)
	TickMs  int64 `json:"tick_ms"` // wallms per tick for live pacing (0 = as fast as possible)
}

// Config is the full engine configuration.
type Config struct {
	Model    ModelConfig    `json:"model"`
	Workload WorkloadConfig `json:"workload"`
	Sync     SyncConfig     `json:"sync"`
	Run      RunConfig      `json:"run"`
}

// NewModelConfig creates a ModelConfig.
func NewModelConfig(name string, threads, carriers int) ModelConfig {
	return ModelConfig{
		Name:     name,
		Threads:  threads,
		Carriers: carriers,
	}
}

// NewWorkloadConfig creates a WorkloadConfig.
func NewWorkloadConfig(kind string, workUnits int64) WorkloadConfig {
	return WorkloadConfig{
		Kind:      kind,
		WorkUnits: workUnits,
	}
}

// NewSyncConfig creates a SyncConfig.
func NewSyncConfig(permits, max int64) SyncConfig {
	return SyncConfig{
		SemaphorePermits: permits,
		SemaphoreMax:     max,
	}
}

// NewRunConfig creates a RunConfig.
func NewRunConfig(quantum, horizon, tickMs int64) RunConfig {
	return RunConfig{
		Quantum: quantum,
		Horizon: horizon,
		TickMs:  tickMs,
	}
}

// validWorkloads defines the builtin workload registry.
var validWorkloads = map[string]bool{
	"":            true, // alias for "independent"
	"independent": true,
	"contended":   true,
}

// IsValidWorkload checks whether the given workload kind is supported.
func IsValidWorkload(kind string) bool {
	return validWorkloads[kind]
}

// Validate checks the configuration and returns a ConfigError describing the
// first problem found.
func (c Config) Validate() error {
	if !IsValidThreadModel(c.Model.Name) {
		return &ConfigError{
			Field:  "model.name",
			Reason: fmt.Sprintf("unknown model %q; valid: one-to-one, many-to-one, one-to-many, many-to-many", c.Model.Name),
		}
	}
	if c.Model.Threads < 1 {
		return &ConfigError{Field: "model.threads", Reason: fmt.Sprintf("must be at least 1, got %d", c.Model.Threads)}
	}
	if c.Model.Carriers < 0 {
		return &ConfigError{Field: "model.carriers", Reason: fmt.Sprintf("must not be negative, got %d", c.Model.Carriers)}
	}
	switch c.Model.Name {
	case "one-to-many", "many-to-many":
		if c.Model.Carriers == 0 {
			return &ConfigError{Field: "model.carriers", Reason: fmt.Sprintf("model %q has no implied pool size; set carriers explicitly", c.Model.Name)}
		}
	}
	if !IsValidWorkload(c.Workload.Kind) {
		return &ConfigError{
			Field:  "workload.kind",
			Reason: fmt.Sprintf("unknown workload %q; valid: independent, contended", c.Workload.Kind),
		}
	}
	if c.Workload.WorkUnits < 0 {
		return &ConfigError{Field: "workload.work_units", Reason: fmt.Sprintf("must not be negative, got %d", c.Workload.WorkUnits)}
	}
	if c.Sync.SemaphorePermits < 0 {
		return &ConfigError{Field: "sync.semaphore_permits", Reason: fmt.Sprintf("must not be negative, got %d", c.Sync.SemaphorePermits)}
	}
	if c.Sync.SemaphoreMax < 0 {
		return &ConfigError{Field: "sync.semaphore_max", Reason: fmt.Sprintf("must not be negative, got %d", c.Sync.SemaphoreMax)}
	}
	if c.Run.Quantum < 0 {
		return &ConfigError{Field: "run.quantum", Reason: fmt.Sprintf("must not be negative, got %d", c.Run.Quantum)}
	}
	if c.Run.Horizon < 0 {
		return &ConfigError{Field: "run.horizon", Reason: fmt.Sprintf("must not be negative, got %d", c.Run.Horizon)}
	}
	if c.Run.TickMs < 0 {
		return &ConfigError{Field: "run.tick_ms", Reason: fmt.Sprintf("must not be negative, got %d", c.Run.TickMs)}
	}
	return nil
}
