// The four thread mapping models. Placement policy lives here; everything
// they have in common (the pool, bind/unbind bookkeeping) comes from
// carrierPool in model.go.

package sim

// OneToOne dedicates a carrier to each thread: the first dispatch picks an
// idle carrier and the thread keeps coming back to it. Blocking one thread
// never prevents another from running.
type OneToOne struct {
	carrierPool
	dedicated map[int]*Carrier // thread ID -> its carrier
}

func (m *OneToOne) Name() string { return "one-to-one" }

func (m *OneToOne) AssignCarriers(t *Thread, _ int) []*Carrier {
	c := m.dedicated[t.ID]
	if c == nil {
		c = m.firstIdle()
		if c == nil {
			return nil
		}
		m.dedicated[t.ID] = c
	}
	if !c.Idle() {
		return nil
	}
	m.bind(t, c)
	return t.Carriers
}

func (m *OneToOne) OnTerminate(t *Thread) {
	delete(m.dedicated, t.ID)
	m.unbindAll(t)
}

// ManyToOne multiplexes every thread onto a single carrier. At most one
// thread runs at a time, and one thread blocking on a primitive is the only
// way to let another in before it finishes (or is preempted by quantum expiry).
type ManyToOne struct {
	carrierPool
}

func (m *ManyToOne) Name() string { return "many-to-one" }

func (m *ManyToOne) AssignCarriers(t *Thread, _ int) []*Carrier {
	c := m.pool[0]
	if !c.Idle() {
		return nil
	}
	m.bind(t, c)
	return t.Carriers
}

// OneToMany fans a single logical thread out across the whole carrier pool:
// the head ready thread is granted up to min(want, pool size) carriers and a
// compute op advances one unit per bound carrier per tick. Distinct logical
// threads never run simultaneously; the next one starts only when the
// current one blocks, yields, or terminates. Carrier choice rotates so the
// pool wears evenly.
type OneToMany struct {
	carrierPool
	rr int // rotation index into the pool
}

func (m *OneToMany) Name() string { return "one-to-many" }

func (m *OneToMany) AssignCarriers(t *Thread, want int) []*Carrier {
	if m.anyBusy() {
		return nil
	}
	n := want
	if n < 1 {
		n = 1
	}
	if n > len(m.pool) {
		n = len(m.pool)
	}
	for i := 0; i < n; i++ {
		m.bind(t, m.pool[(m.rr+i)%len(m.pool)])
	}
	m.rr = (m.rr + n) % len(m.pool)
	return t.Carriers
}

// Resize grows or shrinks the fan-out when the running thread crosses an op
// boundary: sync ops execute at width one, a fresh compute op takes as many
// carriers as it has units to burn.
func (m *OneToMany) Resize(t *Thread, want int) {
	if len(t.Carriers) == 0 {
		return
	}
	target := want
	if target < 1 {
		target = 1
	}
	if target > len(m.pool) {
		target = len(m.pool)
	}
	for len(t.Carriers) > target {
		c := t.Carriers[len(t.Carriers)-1]
		c.LastID = t.ID
		c.Thread = nil
		t.Carriers = t.Carriers[:len(t.Carriers)-1]
	}
	for i := 0; i < len(m.pool) && len(t.Carriers) < target; i++ {
		c := m.pool[(m.rr+i)%len(m.pool)]
		if c.Idle() {
			m.bind(t, c)
		}
	}
	m.rr = (m.rr + len(t.Carriers)) % len(m.pool)
}

// ManyToMany runs threads on a fixed pool of carriers, FIFO and
// work-conserving: dispatch binds the head ready thread to the lowest-index
// idle carrier until the queue or the pool runs dry.
type ManyToMany struct {
	carrierPool
}

func (m *ManyToMany) Name() string { return "many-to-many" }

func (m *ManyToMany) AssignCarriers(t *Thread, _ int) []*Carrier {
	c := m.firstIdle()
	if c == nil {
		return nil
	}
	m.bind(t, c)
	return t.Carriers
}
