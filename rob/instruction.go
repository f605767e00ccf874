// Package rob implements the retirement timing engine: a reorder-buffer-style
// model that decides, per cycle, when each in-flight instruction may retire
// given an estimated memory-access latency, and accumulates the stall
// statistics used to scale emulated execution time.
package rob

// InstructionGroup is one in-flight (fetched, not yet retired) instruction.
// The engine borrows the head-of-window instruction mutably for the duration
// of its retirement decision; RetireTimestamp only ever moves forward.
type InstructionGroup struct {
	Address         uint64 // physical address; 0 means "not a memory instruction"
	CycleCount      int64  // cycle count reported by the trace producer at fetch
	FetchTimestamp  int64  // fetch time (ticks)
	RetireTimestamp int64  // scheduled retirement time (ticks); advanced as latency is charged
	Instruction     string // combined opcode and operand text, used for class matching
}

// IsMemory reports whether the instruction touches memory.
// Non-memory instructions bypass all latency accounting.
func (ig *InstructionGroup) IsMemory() bool {
	return ig.Address != 0
}
