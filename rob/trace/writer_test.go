package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_StageSequence(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Record{{
		FetchTimestamp:  816000,
		RetireTimestamp: 820000,
		Address:         0x1000,
		CycleCount:      1686,
		Instruction:     "ld_m_r r1, [mem]",
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "O3PipeView:fetch:816000:0x1000:0:1686:  ld_m_r r1, [mem]", lines[0])
	assert.Equal(t, "O3PipeView:decode:816500", lines[1])
	assert.Equal(t, "O3PipeView:rename:817000", lines[2])
	assert.Equal(t, "O3PipeView:dispatch:817500", lines[3])
	assert.Equal(t, "O3PipeView:issue:817500", lines[4])
	assert.Equal(t, "O3PipeView:complete:819500", lines[5])
	assert.Equal(t, "O3PipeView:retire:820000:load:821000", lines[6])
	assert.Equal(t, "O3PipeView:address:4096", lines[7])
}

func TestWrite_NonMemoryRetireLine(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Record{{
		FetchTimestamp:  1000,
		RetireTimestamp: 2000,
		Instruction:     "add r1, r2",
	}})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "O3PipeView:retire:2000:store:0\n")
	assert.NotContains(t, buf.String(), "O3PipeView:address:")
}

// TestWrite_SkipsUnprocessed verifies instructions that never got a retire
// timestamp are not emitted.
func TestWrite_SkipsUnprocessed(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, []Record{{FetchTimestamp: 1000, Instruction: "nop"}})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

// TestWriteParseRoundTrip verifies the parser reconstructs what the writer
// emitted, which is how the engine's own output feeds back into calibration.
func TestWriteParseRoundTrip(t *testing.T) {
	in := []Record{
		{FetchTimestamp: 1000, RetireTimestamp: 2000, Address: 0x1f40, CycleCount: 10, Instruction: "ld_m_r r1, [mem]"},
		{FetchTimestamp: 3000, RetireTimestamp: 3500, CycleCount: 12, Instruction: "add r1, r2"},
		{FetchTimestamp: 4000, RetireTimestamp: 6000, Address: 0x2000, CycleCount: 15, Instruction: "st_r_m r2, [mem]"},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, in))

	out, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].FetchTimestamp, out[i].FetchTimestamp, "record %d", i)
		assert.Equal(t, in[i].RetireTimestamp, out[i].RetireTimestamp, "record %d", i)
		assert.Equal(t, in[i].Address, out[i].Address, "record %d", i)
		assert.Equal(t, in[i].CycleCount, out[i].CycleCount, "record %d", i)
		assert.Equal(t, in[i].Instruction, out[i].Instruction, "record %d", i)
	}
}
