package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Stage offsets relative to the fetch timestamp, matching the reference trace
// producer. The intermediate stages carry no information the parser uses, but
// emitting them keeps the output byte-compatible with hardware traces.
const (
	decodeOffset   = 500
	renameOffset   = 1000
	dispatchOffset = 1500
	completeOffset = 500 // subtracted from the retire timestamp
	storeTailDelta = 1000
)

// Write emits records in O3PipeView format. Records whose RetireTimestamp is
// zero have not been processed by the engine and are skipped.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if r.RetireTimestamp == 0 {
			continue
		}

		fetchTS := r.FetchTimestamp
		fmt.Fprintf(bw, "O3PipeView:fetch:%d:0x%x:0:%d:  %s\n",
			fetchTS, r.Address, r.CycleCount, r.Instruction)
		fmt.Fprintf(bw, "O3PipeView:decode:%d\n", fetchTS+decodeOffset)
		fmt.Fprintf(bw, "O3PipeView:rename:%d\n", fetchTS+renameOffset)
		fmt.Fprintf(bw, "O3PipeView:dispatch:%d\n", fetchTS+dispatchOffset)
		fmt.Fprintf(bw, "O3PipeView:issue:%d\n", fetchTS+dispatchOffset)
		fmt.Fprintf(bw, "O3PipeView:complete:%d\n", r.RetireTimestamp-completeOffset)

		if r.IsMemory() {
			memType := classifyMemType(r)
			fmt.Fprintf(bw, "O3PipeView:retire:%d:%s:%d\n",
				r.RetireTimestamp, memType, r.RetireTimestamp+storeTailDelta)
			fmt.Fprintf(bw, "O3PipeView:address:%d\n", r.Address)
		} else {
			fmt.Fprintf(bw, "O3PipeView:retire:%d:store:0\n", r.RetireTimestamp)
		}
	}
	return bw.Flush()
}

// classifyMemType derives the retire-line memory type. Loads are recognized
// by mnemonic fragment; everything else is written as a store.
func classifyMemType(r Record) MemType {
	if r.MemType == MemTypeLoad || r.MemType == MemTypeStore {
		return r.MemType
	}
	if strings.Contains(r.Instruction, "ld") || strings.Contains(r.Instruction, "load") {
		return MemTypeLoad
	}
	return MemTypeStore
}

// WriteFile writes records to path, truncating or appending.
func WriteFile(path string, records []Record, appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("opening trace output: %w", err)
	}
	defer f.Close()
	return Write(f, records)
}
