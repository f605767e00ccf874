package rob

import (
	"math"
	"sync"
)

// Access is one outstanding memory access visible to the latency oracle.
type Access struct {
	Timestamp int64  // retire-relative time the access was issued (ticks)
	Address   uint64 // physical address
}

// AccessSet is the set of outstanding accesses at a given retire timestamp.
type AccessSet []Access

// LatencyOracle estimates memory-access latency for the engine. It is an
// external collaborator: the engine calls it but never implements topology,
// address translation, or congestion modeling itself.
//
// The oracle may return zero or negative estimates; defensive clamping is the
// engine's responsibility. Implementations must be deterministic for a given
// access set. An oracle shared between engine contexts running in parallel
// must be internally synchronized.
type LatencyOracle interface {
	// OutstandingAccesses returns the accesses visible at retireTimestamp.
	OutstandingAccesses(retireTimestamp int64) AccessSet

	// EstimateLatency returns a base latency estimate in cycles for the given
	// access set. weight is a reference percentile in [0, 100] bounding how
	// much of the set contributes to the estimate.
	EstimateLatency(accesses AccessSet, weight float64) float64

	// Insert records a memory access so that later OutstandingAccesses
	// queries see it. index is a running per-engine access counter.
	Insert(timestamp int64, address uint64, index int)
}

// FixedOracle returns the same base latency for every query. It tracks no
// access state and is safe for concurrent use.
type FixedOracle struct {
	Latency float64
}

func (o *FixedOracle) OutstandingAccesses(retireTimestamp int64) AccessSet { return nil }

func (o *FixedOracle) EstimateLatency(accesses AccessSet, weight float64) float64 {
	return o.Latency
}

func (o *FixedOracle) Insert(timestamp int64, address uint64, index int) {}

// CongestionOracle models latency as a base cost plus a per-access congestion
// term over a sliding window: accesses inserted within Epoch ticks before the
// query timestamp count as outstanding. It is not a topology model; it exists
// so that replay and tests have a latency source whose estimates react to
// access density the way the full memory model's do.
type CongestionOracle struct {
	BaseLatency float64 // latency with an empty access window (cycles)
	PerAccess   float64 // added latency per outstanding access (cycles)
	Epoch       int64   // window width (ticks); accesses older than this are dropped

	mu       sync.Mutex
	accesses []Access
}

// NewCongestionOracle creates a CongestionOracle with the given parameters.
// Epoch must be positive.
func NewCongestionOracle(baseLatency, perAccess float64, epoch int64) *CongestionOracle {
	if epoch <= 0 {
		epoch = 1
	}
	return &CongestionOracle{
		BaseLatency: baseLatency,
		PerAccess:   perAccess,
		Epoch:       epoch,
	}
}

func (o *CongestionOracle) OutstandingAccesses(retireTimestamp int64) AccessSet {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Drop accesses that have fallen out of every possible future window.
	// Inserts arrive in non-decreasing timestamp order during replay, so the
	// prefix before the window start is dead.
	start := retireTimestamp - o.Epoch
	cut := 0
	for cut < len(o.accesses) && o.accesses[cut].Timestamp < start {
		cut++
	}
	o.accesses = o.accesses[cut:]

	var set AccessSet
	for _, a := range o.accesses {
		if a.Timestamp <= retireTimestamp {
			set = append(set, a)
		}
	}
	return set
}

func (o *CongestionOracle) EstimateLatency(accesses AccessSet, weight float64) float64 {
	if len(accesses) == 0 {
		return o.BaseLatency
	}
	if weight < 0 {
		weight = 0
	} else if weight > 100 {
		weight = 100
	}
	// The weight percentile bounds how many of the outstanding accesses are
	// charged as congestion.
	charged := int(math.Ceil(float64(len(accesses)) * weight / 100))
	return o.BaseLatency + o.PerAccess*float64(charged)
}

func (o *CongestionOracle) Insert(timestamp int64, address uint64, index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.accesses = append(o.accesses, Access{Timestamp: timestamp, Address: address})
}
