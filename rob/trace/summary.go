package trace

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// LatencyStats aggregates the latency distribution of a set of records.
type LatencyStats struct {
	Count  int
	Mean   float64
	Median float64
	Std    float64
	Min    float64
	Max    float64
}

// Summarize computes latency statistics over records. Safe for empty input
// (returns zero-value fields).
func Summarize(records []Record) LatencyStats {
	if len(records) == 0 {
		return LatencyStats{}
	}

	latencies := make([]float64, len(records))
	for i, r := range records {
		latencies[i] = float64(r.Latency())
	}
	sort.Float64s(latencies)

	return LatencyStats{
		Count:  len(latencies),
		Mean:   stat.Mean(latencies, nil),
		Median: stat.Quantile(0.5, stat.Empirical, latencies, nil),
		Std:    stat.StdDev(latencies, nil),
		Min:    latencies[0],
		Max:    latencies[len(latencies)-1],
	}
}

// Instruction classes used for per-class latency analysis. ClassOther
// collects everything that is neither a load nor a store.
const (
	ClassLoad  = "load"
	ClassStore = "store"
	ClassOther = "other"
)

// ClassOf groups a record by the opcode fragment of its instruction text.
func ClassOf(r Record) string {
	fields := strings.Fields(r.Instruction)
	if len(fields) == 0 {
		return ClassOther
	}
	opcode := strings.ToLower(fields[0])
	switch {
	case strings.Contains(opcode, "ld") || strings.Contains(opcode, "mov_r_m"):
		return ClassLoad
	case strings.Contains(opcode, "st") || strings.Contains(opcode, "mov_m_r"):
		return ClassStore
	default:
		return ClassOther
	}
}

// SummarizeByClass computes latency statistics per instruction class.
func SummarizeByClass(records []Record) map[string]LatencyStats {
	groups := map[string][]Record{}
	for _, r := range records {
		class := ClassOf(r)
		groups[class] = append(groups[class], r)
	}

	stats := make(map[string]LatencyStats, len(groups))
	for class, group := range groups {
		stats[class] = Summarize(group)
	}
	return stats
}

// String renders the stats the way the calibration report prints them.
func (s LatencyStats) String() string {
	return fmt.Sprintf("%.2f ± %.2f cycles (n=%d, min=%.0f, max=%.0f)",
		s.Mean, s.Std, s.Count, s.Min, s.Max)
}
