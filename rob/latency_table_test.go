package rob

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyTable_FirstMatchWins(t *testing.T) {
	table := LatencyTable{
		{Substring: "ld", Latency: 5},
		{Substring: "mov", Latency: 1},
	}

	class, ok := table.Lookup("ld_mov_r1")
	require.True(t, ok)
	assert.Equal(t, "ld", class.Substring)
	assert.Equal(t, int64(5), class.Latency)
}

func TestLatencyTable_NoMatch(t *testing.T) {
	_, ok := DefaultLatencyTable().Lookup("unknown_opcode_xyzq")
	assert.False(t, ok)
}

func TestLatencyTable_EmptyInstruction(t *testing.T) {
	_, ok := DefaultLatencyTable().Lookup("")
	assert.False(t, ok)
}

// TestDefaultLatencyTable_SpecificBeforeGeneric pins the scan-order contract:
// mnemonics resolve to their specific class, not a fragment they contain.
func TestDefaultLatencyTable_SpecificBeforeGeneric(t *testing.T) {
	table := DefaultLatencyTable()

	cases := []struct {
		instruction string
		wantClass   string
		wantLatency int64
	}{
		{"fadd f1, f2", "fadd", 2},
		{"fmadd f1, f2, f3", "fmadd", 5},
		{"imul r1, r2", "imul", 3},
		{"fdiv f1, f2", "fdiv", 12},
		{"fsqrt f1", "fsqrt", 24},
		{"cmov r1, r2", "cmov", 1},
		{"cpuid", "cpuid", 20},
		{"ld r1, [mem]", "ld", 1},
		{"mov_m_r r1", "mov", 1},
	}
	for _, tc := range cases {
		class, ok := table.Lookup(tc.instruction)
		require.True(t, ok, "no class for %q", tc.instruction)
		assert.Equal(t, tc.wantClass, class.Substring, "instruction %q", tc.instruction)
		assert.Equal(t, tc.wantLatency, class.Latency, "instruction %q", tc.instruction)
	}
}

// TestDefaultLatencyTable_MemoryClassesFirst pins that the memory classes
// lead the scan order.
func TestDefaultLatencyTable_MemoryClassesFirst(t *testing.T) {
	table := DefaultLatencyTable()
	require.GreaterOrEqual(t, len(table), 2)
	assert.Equal(t, "ld", table[0].Substring)
	assert.Equal(t, "st", table[1].Substring)
}
