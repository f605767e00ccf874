package rob

import "strings"

// LatencyClass maps an instruction mnemonic fragment to an additive base
// latency contribution in cycles.
type LatencyClass struct {
	Substring string // fragment matched against the instruction text
	Latency   int64  // additive latency (cycles)
}

// LatencyTable is an ordered list of instruction classes. Lookup scans in
// order and the FIRST class whose substring appears in the instruction text
// wins; later matches never contribute. The order is part of the table's
// contract, which is why the table is an explicit slice handed to the engine
// rather than a map with unspecified iteration order.
type LatencyTable []LatencyClass

// Lookup returns the first class matching instruction, if any.
func (t LatencyTable) Lookup(instruction string) (LatencyClass, bool) {
	for _, class := range t {
		if class.Substring != "" && strings.Contains(instruction, class.Substring) {
			return class, true
		}
	}
	return LatencyClass{}, false
}

// DefaultLatencyTable returns the built-in instruction-class latencies.
//
// Ordering matters: memory classes come first so that mixed mnemonics such as
// "ld_m_r" resolve as loads, and longer mnemonics precede fragments they
// contain ("fadd" before "add", "imul" before "mul") so the first-match scan
// picks the specific class.
func DefaultLatencyTable() LatencyTable {
	return LatencyTable{
		// Memory access base latency, excluding the cache/fabric cost the
		// oracle accounts for.
		{"ld", 1},
		{"st", 1},

		// Floating point, specific before generic.
		{"fmadd", 5},
		{"fadd", 2},
		{"fsub", 2},
		{"fcmp", 2},
		{"fcvt", 2},
		{"fmul", 4},
		{"fdiv", 12},
		{"fsqrt", 24},
		{"fmisc", 3},

		// SIMD.
		{"simd_add", 1},
		{"simd_mul", 1},
		{"simd_cmp", 1},
		{"simd_cvt", 1},
		{"simd_misc", 1},

		// Integer multiply/divide. x86 divide micro-ops are already split,
		// hence the 1-cycle div.
		{"imul", 3},
		{"mul", 3},
		{"idiv", 1},
		{"div", 1},

		// String ops before their fragments (movs/cmps contain mov/cmp).
		{"movs", 1},
		{"stos", 1},
		{"lods", 1},
		{"scas", 1},
		{"cmps", 1},
		{"cmov", 1},

		// Integer ALU.
		{"mov", 1},
		{"add", 1},
		{"sub", 1},
		{"and", 1},
		{"xor", 1},
		{"ror", 1},
		{"or", 1},
		{"cmp", 1},
		{"limm", 1},
		{"rdip", 1},
		{"wrip", 1},

		// Branches: condition-code setup only.
		{"jnz", 1},
		{"jz", 1},
		{"jmp", 1},
		{"jne", 1},
		{"je", 1},
		{"jle", 1},
		{"jge", 1},
		{"jl", 1},
		{"jg", 1},

		// x86 micro-ops.
		{"lea", 1},
		{"nop", 1},
		{"push", 1},
		{"pop", 1},
		{"call", 1},
		{"ret", 1},

		// Shifts and rotates.
		{"shl", 1},
		{"shr", 1},
		{"sar", 1},
		{"rol", 1},

		// Misc integer.
		{"inc", 1},
		{"dec", 1},
		{"neg", 1},
		{"not", 1},
		{"test", 1},

		// Special.
		{"cpuid", 20},
		{"rdtsc", 3},
		{"mfence", 1},
		{"sfence", 1},
		{"lfence", 1},
	}
}
