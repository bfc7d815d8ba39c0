// Serializes an end-of-run report to JSON for offline analysis.

package sim

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/threadsim/threadsim/sim/trace"
)

// RunReport bundles everything a run produced: the configuration it ran
// under, the outcome, aggregate metrics, and the transition timeline when
// one was recorded.
type RunReport struct {
	RunID    string                `json:"run_id"`
	Model    string                `json:"model"`
	Config   Config                `json:"config"`
	Deadlock *trace.DeadlockRecord `json:"deadlock,omitempty"`
	Metrics  *Metrics              `json:"metrics"`
	Timeline []trace.Record        `json:"timeline,omitempty"`
	Summary  *trace.Summary        `json:"summary,omitempty"`
}

// NewRunReport assembles a report from a finished engine. tl may be nil when
// no timeline was recorded.
func NewRunReport(eng *Engine, tl *trace.Timeline) *RunReport {
	r := &RunReport{
		RunID:   uuid.Must(uuid.NewV7()).String(),
		Model:   eng.Model.Name(),
		Config:  eng.Config,
		Metrics: eng.Metrics,
	}
	if d := eng.Deadlock(); d != nil {
		r.Deadlock = &trace.DeadlockRecord{Tick: d.Tick, Threads: d.ThreadIDs, Notes: d.Notes}
	}
	if tl != nil {
		r.Timeline = tl.Records
		r.Summary = trace.Summarize(tl)
	}
	return r
}

// WriteFile marshals the report with indentation and writes it to path.
func (r *RunReport) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	return nil
}
