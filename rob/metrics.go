// Engine-level counters exposed for calibration and reporting tooling.

package rob

import "fmt"

// Metrics is a point-in-time snapshot of the engine counters.
type Metrics struct {
	RetiredInstructions int64 // instructions that have left the window
	StallCycles         int64 // cumulative stall cycles from memory latency
	StallEvents         int64 // discrete stall episodes
	FinalCycle          int64 // engine clock at snapshot time
	TotalChargedLatency int64 // sum of all charged memory latencies (cycles)
	QueueDepth          int   // instructions still in flight
}

// Snapshot captures the engine's counters.
func (e *Engine) Snapshot() Metrics {
	return Metrics{
		RetiredInstructions: e.retiredCount,
		StallCycles:         e.stallCount,
		StallEvents:         e.stallEventCount,
		FinalCycle:          e.currentCycle,
		TotalChargedLatency: e.totalLatency,
		QueueDepth:          len(e.queue),
	}
}

// Print displays the engine counters at the end of a run.
func (m Metrics) Print() {
	fmt.Println("=== Retirement Engine Metrics ===")
	fmt.Printf("Retired Instructions : %d\n", m.RetiredInstructions)
	fmt.Printf("Stall Cycles         : %d\n", m.StallCycles)
	fmt.Printf("Stall Events         : %d\n", m.StallEvents)
	fmt.Printf("Final Cycle          : %d\n", m.FinalCycle)
	fmt.Printf("Charged Latency      : %d cycles\n", m.TotalChargedLatency)
	if m.RetiredInstructions > 0 {
		fmt.Printf("Avg Charged Latency  : %.2f cycles\n",
			float64(m.TotalChargedLatency)/float64(m.RetiredInstructions))
	}
}
