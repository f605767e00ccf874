// Package calib derives engine calibration parameters by comparing the
// memory-access latency distribution of a reference hardware trace against a
// candidate trace produced by the retirement engine.
package calib

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/SlugLab/CXLMemSim/rob"
	"github.com/SlugLab/CXLMemSim/rob/trace"
)

// Analysis holds the derived parameters alongside the statistics they were
// computed from, so reports can show both sides of the comparison.
type Analysis struct {
	Params      rob.CalibrationParams
	Reference   trace.LatencyStats
	Candidate   trace.LatencyStats
	RefByClass  map[string]trace.LatencyStats
	CandByClass map[string]trace.LatencyStats
	TargetRatio float64
}

// Analyze computes calibration parameters that shift the candidate's mean
// memory latency toward targetRatio times the reference mean. Non-memory
// records are excluded before any statistic is taken.
//
// When either trace has a zero mean latency there is nothing to calibrate
// against and the neutral defaults are returned.
func Analyze(reference, candidate []trace.Record, targetRatio float64) Analysis {
	refMem := trace.MemoryOnly(reference)
	candMem := trace.MemoryOnly(candidate)

	a := Analysis{
		Reference:   trace.Summarize(refMem),
		Candidate:   trace.Summarize(candMem),
		RefByClass:  trace.SummarizeByClass(refMem),
		CandByClass: trace.SummarizeByClass(candMem),
		TargetRatio: targetRatio,
	}

	if a.Reference.Mean == 0 || a.Candidate.Mean == 0 {
		logrus.Warn("one of the traces has zero mean latency, using default parameters")
		a.Params = rob.DefaultCalibrationParams()
		return a
	}

	currentRatio := a.Candidate.Mean / a.Reference.Mean
	logrus.Infof("current candidate/reference latency ratio: %.3f", currentRatio)
	adjustment := targetRatio / currentRatio

	adjustments := map[string]float64{}
	for class, refStats := range a.RefByClass {
		candStats, ok := a.CandByClass[class]
		if !ok || candStats.Mean <= 0 {
			continue
		}
		adjustments[class] = refStats.Mean / candStats.Mean * targetRatio
	}

	minThreshold := int64(math.Floor(a.Reference.Min * 0.8))
	if minThreshold < 10 {
		minThreshold = 10
	}

	a.Params = rob.CalibrationParams{
		BaseLatencyMultiplier:        adjustment,
		CongestionFactor:             1.0,
		InstructionLatencyAdjustment: adjustments,
		MinLatencyThreshold:          minThreshold,
		// The stall scaling tracks the latency scaling: congestion analysis
		// would refine this, but the latency ratio is the usable estimate.
		StallMultiplier: adjustment,
		TargetRatio:     targetRatio,
	}

	logrus.Infof("calibration: base_latency_multiplier=%.3f min_latency_threshold=%d stall_multiplier=%.3f adjustments=%v",
		a.Params.BaseLatencyMultiplier, a.Params.MinLatencyThreshold,
		a.Params.StallMultiplier, a.Params.InstructionLatencyAdjustment)

	return a
}

// Print displays the latency comparison the way the calibration report does.
func (a Analysis) Print() {
	fmt.Println("=== Latency Analysis Summary ===")
	fmt.Printf("Reference latency : %s\n", a.Reference)
	fmt.Printf("Candidate latency : %s\n", a.Candidate)
	if a.Reference.Mean > 0 {
		fmt.Printf("Current ratio     : %.3f\n", a.Candidate.Mean/a.Reference.Mean)
	}
	fmt.Printf("Target ratio      : %.3f\n", a.TargetRatio)
	fmt.Printf("Suggested multiplier: %.3f\n", a.Params.BaseLatencyMultiplier)

	classes := make([]string, 0, len(a.RefByClass))
	for class := range a.RefByClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		fmt.Printf("  %-6s reference %s\n", class, a.RefByClass[class])
		if cand, ok := a.CandByClass[class]; ok {
			fmt.Printf("  %-6s candidate %s\n", class, cand)
		}
	}
}
