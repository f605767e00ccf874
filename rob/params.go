package rob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CalibrationParams is the immutable parameter snapshot the engine is
// constructed with. It is produced offline by comparing a reference and a
// candidate latency distribution (see rob/calib) and persisted as a flat
// key/value file.
type CalibrationParams struct {
	// BaseLatencyMultiplier scales the oracle's raw latency estimate.
	BaseLatencyMultiplier float64 `json:"base_latency_multiplier" yaml:"base_latency_multiplier"`

	// CongestionFactor is part of the persisted schema but is not read by the
	// engine. It is kept so parameter files round-trip unchanged.
	CongestionFactor float64 `json:"congestion_factor" yaml:"congestion_factor"`

	// InstructionLatencyAdjustment maps an instruction-class substring to a
	// multiplicative factor applied to that class's table latency.
	InstructionLatencyAdjustment map[string]float64 `json:"instruction_latency_adjustment" yaml:"instruction_latency_adjustment"`

	// MinLatencyThreshold is the floor (cycles) a charged memory latency is
	// clamped up to, regardless of what the oracle returned.
	MinLatencyThreshold int64 `json:"min_latency_threshold" yaml:"min_latency_threshold"`

	// StallMultiplier scales the charged latency when accumulating stall cycles.
	StallMultiplier float64 `json:"stall_multiplier" yaml:"stall_multiplier"`

	// TargetRatio records the candidate/reference ratio the parameters were
	// derived for. Informational only.
	TargetRatio float64 `json:"target_ratio,omitempty" yaml:"target_ratio,omitempty"`
}

// DefaultCalibrationParams returns the neutral parameter set: no scaling, a
// 10-cycle latency floor, and no per-class adjustments. The engine runs
// deterministically with these when no calibration has been applied.
func DefaultCalibrationParams() CalibrationParams {
	return CalibrationParams{
		BaseLatencyMultiplier:        1.0,
		CongestionFactor:             1.0,
		InstructionLatencyAdjustment: map[string]float64{},
		MinLatencyThreshold:          10,
		StallMultiplier:              1.0,
	}
}

// normalize fills in neutral values for fields a parameter file left unset.
// A non-positive threshold or multiplier is treated as unset rather than
// honored: the engine's latency floor is mandatory.
func (p CalibrationParams) normalize() CalibrationParams {
	def := DefaultCalibrationParams()
	if p.BaseLatencyMultiplier <= 0 {
		p.BaseLatencyMultiplier = def.BaseLatencyMultiplier
	}
	if p.CongestionFactor <= 0 {
		p.CongestionFactor = def.CongestionFactor
	}
	if p.MinLatencyThreshold <= 0 {
		p.MinLatencyThreshold = def.MinLatencyThreshold
	}
	if p.StallMultiplier <= 0 {
		p.StallMultiplier = def.StallMultiplier
	}
	if p.InstructionLatencyAdjustment == nil {
		p.InstructionLatencyAdjustment = map[string]float64{}
	}
	return p
}

// LoadCalibrationParams reads a parameter file. The calibration tooling emits
// JSON; files with a .yaml/.yml extension are parsed as YAML instead. Keys
// missing from the file default to the neutral values.
func LoadCalibrationParams(path string) (CalibrationParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CalibrationParams{}, fmt.Errorf("reading calibration params: %w", err)
	}

	var p CalibrationParams
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return CalibrationParams{}, fmt.Errorf("parsing calibration params %s: %w", path, err)
	}
	return p.normalize(), nil
}

// Save writes the parameters as indented JSON, the format the rest of the
// calibration tooling consumes.
func (p CalibrationParams) Save(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding calibration params: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing calibration params: %w", err)
	}
	return nil
}
