package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	fetchPrefix   = "O3PipeView:fetch:"
	retirePrefix  = "O3PipeView:retire:"
	addressPrefix = "O3PipeView:address:"
)

// Parse reads an O3PipeView trace and reconstructs one Record per
// fetch/retire pair, in program order.
//
// Lines for intermediate pipeline stages (decode, rename, dispatch, issue,
// complete) are skipped. Malformed or truncated groups are dropped silently:
// a fetch without a retire, or fields that fail to parse, never produce a
// record. The engine downstream only ever sees validated records.
func Parse(r io.Reader) ([]Record, error) {
	var records []Record
	var current *Record

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, fetchPrefix):
			current = parseFetch(line)

		case strings.HasPrefix(line, addressPrefix):
			// Address override line. It trails the retire stage, so it may
			// belong to the record that was just completed.
			parts := strings.Split(line, ":")
			if len(parts) < 3 {
				continue
			}
			addr, err := strconv.ParseUint(parts[2], 10, 64)
			if err != nil {
				continue
			}
			if current != nil {
				current.Address = addr
			} else if len(records) > 0 {
				records[len(records)-1].Address = addr
			}

		case strings.HasPrefix(line, retirePrefix) && current != nil:
			parts := strings.Split(line, ":")
			if len(parts) >= 4 {
				if ts, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
					current.RetireTimestamp = ts
					current.MemType = MemType(parts[3])
					records = append(records, *current)
				}
			}
			current = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning trace: %w", err)
	}
	return records, nil
}

// parseFetch extracts the fetch timestamp, address, cycle count, and
// instruction text from a fetch header line:
//
//	O3PipeView:fetch:<timestamp>:<address>:<ignored>:<cycle_count>:<instruction>
func parseFetch(line string) *Record {
	parts := strings.SplitN(line, ":", 7)
	if len(parts) < 7 {
		return nil
	}

	fetchTS, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil
	}
	cycleCount, err := strconv.ParseInt(parts[5], 10, 64)
	if err != nil {
		return nil
	}

	var address uint64
	addrStr := parts[3]
	if strings.HasPrefix(addrStr, "0x") {
		address, _ = strconv.ParseUint(addrStr[2:], 16, 64)
	} else {
		address, _ = strconv.ParseUint(addrStr, 10, 64)
	}

	return &Record{
		FetchTimestamp: fetchTS,
		Address:        address,
		CycleCount:     cycleCount,
		Instruction:    strings.TrimSpace(parts[6]),
	}
}

// ParseFile parses the trace at path.
func ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
