// Package trace reads and writes O3PipeView instruction traces, the format
// produced by the reference hardware-timing simulator and by the engine's own
// trace output. It stores pure data types and has no dependency on the engine.
package trace

// MemType classifies a memory record as a load or a store.
type MemType string

const (
	MemTypeLoad  MemType = "load"
	MemTypeStore MemType = "store"
)

// Record is one fetch/retire pair reconstructed from a trace.
type Record struct {
	FetchTimestamp  int64
	RetireTimestamp int64
	Address         uint64 // 0 for non-memory instructions
	CycleCount      int64
	Instruction     string
	MemType         MemType
}

// Latency returns the fetch-to-retire latency in ticks.
func (r Record) Latency() int64 {
	return r.RetireTimestamp - r.FetchTimestamp
}

// IsMemory reports whether the record describes a memory access.
func (r Record) IsMemory() bool {
	return r.Address != 0
}

// MemoryOnly filters records down to memory accesses, the population the
// calibration harness operates on.
func MemoryOnly(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsMemory() {
			out = append(out, r)
		}
	}
	return out
}
