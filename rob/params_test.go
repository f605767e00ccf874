package rob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeParamsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCalibrationParams_JSON(t *testing.T) {
	path := writeParamsFile(t, "params.json", `{
  "base_latency_multiplier": 2.5,
  "congestion_factor": 1.0,
  "instruction_latency_adjustment": {"load": 1.2, "store": 0.8},
  "min_latency_threshold": 14,
  "stall_multiplier": 2.5,
  "target_ratio": 1.0
}`)

	p, err := LoadCalibrationParams(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, p.BaseLatencyMultiplier)
	assert.Equal(t, int64(14), p.MinLatencyThreshold)
	assert.Equal(t, 1.2, p.InstructionLatencyAdjustment["load"])
	assert.Equal(t, 0.8, p.InstructionLatencyAdjustment["store"])
}

// TestLoadCalibrationParams_MissingKeys verifies that keys absent from the
// file default to neutral values, so the engine still runs deterministically
// with no calibration applied.
func TestLoadCalibrationParams_MissingKeys(t *testing.T) {
	path := writeParamsFile(t, "partial.json", `{"base_latency_multiplier": 3.0}`)

	p, err := LoadCalibrationParams(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, p.BaseLatencyMultiplier)
	assert.Equal(t, 1.0, p.CongestionFactor)
	assert.Equal(t, 1.0, p.StallMultiplier)
	assert.Equal(t, int64(10), p.MinLatencyThreshold)
	assert.NotNil(t, p.InstructionLatencyAdjustment)
	assert.Empty(t, p.InstructionLatencyAdjustment)
}

func TestLoadCalibrationParams_YAML(t *testing.T) {
	path := writeParamsFile(t, "params.yaml", `
base_latency_multiplier: 1.5
min_latency_threshold: 12
instruction_latency_adjustment:
  load: 2.0
`)

	p, err := LoadCalibrationParams(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, p.BaseLatencyMultiplier)
	assert.Equal(t, int64(12), p.MinLatencyThreshold)
	assert.Equal(t, 2.0, p.InstructionLatencyAdjustment["load"])
	assert.Equal(t, 1.0, p.StallMultiplier)
}

func TestLoadCalibrationParams_Malformed(t *testing.T) {
	path := writeParamsFile(t, "bad.json", `{not json`)
	_, err := LoadCalibrationParams(path)
	assert.Error(t, err)
}

func TestCalibrationParams_SaveLoad(t *testing.T) {
	p := DefaultCalibrationParams()
	p.BaseLatencyMultiplier = 1.9
	p.InstructionLatencyAdjustment["load"] = 1.1
	path := filepath.Join(t.TempDir(), "out.json")

	require.NoError(t, p.Save(path))
	loaded, err := LoadCalibrationParams(path)
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

// TestNewEngine_NormalizesParams verifies the all-or-nothing application of
// a snapshot: a zeroed struct behaves as the neutral defaults.
func TestNewEngine_NormalizesParams(t *testing.T) {
	engine := newTestEngine(2.0, nil, CalibrationParams{})

	ins := InstructionGroup{Address: 0x1000, Instruction: "zzz"}
	cycleBefore := engine.CurrentCycle()
	require.False(t, engine.CanRetire(&ins))

	// The default 10-cycle floor applies even though the snapshot was empty.
	assert.Equal(t, int64(10), engine.CurrentCycle()-cycleBefore)
}
