package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ThreadModel decides how user-level threads are placed onto kernel-level
// carriers. Implementations own the carrier pool and perform the actual
// binding; the engine drives them from the dispatch loop and applies the
// resulting thread state transitions.
//
// want is the fan-out the thread could use this tick (remaining compute
// units); models that never fan out treat anything above 1 as 1.
type ThreadModel interface {
	Name() string
	// AssignCarriers binds carriers for the ready thread t and returns them.
	// An empty result means no capacity right now: t stays at the head of
	// the ready queue and dispatch stops for this tick.
	AssignCarriers(t *Thread, want int) []*Carrier
	// Resize adjusts the binding of a running thread at an op boundary.
	// Only the fan-out model changes anything; the rest keep the binding.
	Resize(t *Thread, want int)
	// OnBlock frees t's carriers when it leaves the running state
	// (block, wait, yield, or preemption).
	OnBlock(t *Thread)
	// OnTerminate frees t's carriers and drops any per-thread placement
	// bookkeeping. Called exactly once per thread.
	OnTerminate(t *Thread)
	// Carriers exposes the pool for accounting and snapshots.
	Carriers() []*Carrier
}

// carrierPool provides the placement helpers shared by every thread model.
// Binding leaves LastID untouched so the engine can detect context switches;
// unbinding records the departing thread as LastID.
type carrierPool struct {
	pool []*Carrier
}

func newCarrierPool(n int) carrierPool {
	pool := make([]*Carrier, n)
	for i := range pool {
		pool[i] = &Carrier{ID: i}
	}
	return carrierPool{pool: pool}
}

func (p *carrierPool) Carriers() []*Carrier {
	return p.pool
}

// firstIdle returns the lowest-index idle carrier, or nil.
func (p *carrierPool) firstIdle() *Carrier {
	for _, c := range p.pool {
		if c.Idle() {
			return c
		}
	}
	return nil
}

func (p *carrierPool) anyBusy() bool {
	for _, c := range p.pool {
		if !c.Idle() {
			return true
		}
	}
	return false
}

func (p *carrierPool) bind(t *Thread, c *Carrier) {
	c.Thread = t
	t.Carriers = append(t.Carriers, c)
}

func (p *carrierPool) unbindAll(t *Thread) {
	for _, c := range t.Carriers {
		c.LastID = t.ID
		c.Thread = nil
	}
	t.Carriers = nil
}

func (p *carrierPool) Resize(_ *Thread, _ int) {
	// binding kept until the thread blocks, yields, or terminates
}

func (p *carrierPool) OnBlock(t *Thread) {
	p.unbindAll(t)
}

func (p *carrierPool) OnTerminate(t *Thread) {
	p.unbindAll(t)
}

// Valid model name registry.
var validThreadModels = map[string]bool{
	"": true, "one-to-one": true, "many-to-one": true, "one-to-many": true, "many-to-many": true,
}

// IsValidThreadModel reports whether name is a recognized mapping model.
// Empty string is accepted and means the default, one-to-one.
func IsValidThreadModel(name string) bool {
	return validThreadModels[name]
}

// NewThreadModel creates a ThreadModel by name.
// Valid names: "one-to-one" (default), "many-to-one", "one-to-many",
// "many-to-many". Empty string defaults to one-to-one (for CLI flag default
// compatibility). Panics on unrecognized names.
//
// Models that fix their own carrier count normalize it here: one-to-one
// dedicates one carrier per thread, many-to-one funnels everything through
// a single carrier. A conflicting configured count is overridden with a
// warning.
func NewThreadModel(name string, threads, carriers int) ThreadModel {
	if !IsValidThreadModel(name) {
		panic(fmt.Sprintf("unknown thread model %q", name))
	}
	switch name {
	case "", "one-to-one":
		if carriers > 0 && carriers != threads {
			logrus.Warnf("one-to-one model dedicates a carrier per thread; overriding carriers=%d with %d", carriers, threads)
		}
		return &OneToOne{carrierPool: newCarrierPool(threads), dedicated: make(map[int]*Carrier)}
	case "many-to-one":
		if carriers > 1 {
			logrus.Warnf("many-to-one model uses a single carrier; overriding carriers=%d", carriers)
		}
		return &ManyToOne{carrierPool: newCarrierPool(1)}
	case "one-to-many":
		return &OneToMany{carrierPool: newCarrierPool(carriers)}
	case "many-to-many":
		return &ManyToMany{carrierPool: newCarrierPool(carriers)}
	default:
		panic(fmt.Sprintf("unhandled thread model %q", name))
	}
}
