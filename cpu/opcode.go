package cpu

import (
	"fmt"
	"iter"
	"maps"
	"strings"
)

// OpCode is the instruction class held in the top three bits of a word.
type OpCode int

//go:generate go tool stringer -linecomment -type=OpCode
const (
	OP_AND = OpCode(0) // AND
	OP_TAD = OpCode(1) // TAD
	OP_ISZ = OpCode(2) // ISZ
	OP_DCA = OpCode(3) // DCA
	OP_JMS = OpCode(4) // JMS
	OP_JMP = OpCode(5) // JMP
	OP_IOT = OpCode(6) // IOT
	OP_OPR = OpCode(7) // OPR
)

// Instruction word fields.
const (
	WORD_MASK = uint16(07777) // All twelve bits of a word.
	SIGN_MASK = uint16(04000) // Two's complement sign bit.
	PAGE_MASK = uint16(07600) // Page number bits of an address.
	OP_MASK   = uint16(07000) // OpCode bits.
	OP_SHIFT  = 9             // OpCode shift.
	I_MASK    = uint16(00400) // Indirect bit.
	P_MASK    = uint16(00200) // Current page bit.
	ADDR_MASK = uint16(00177) // Page offset.
	BITS_MASK = uint16(00777) // Control field for OPR and IOT.
)

// OPR group selection, on the control field.
const (
	GROUP_BIT  = uint16(0400) // Clear for group 1.
	GROUP3_BIT = uint16(0001) // Set with GROUP_BIT for group 3 (EAE).
)

// OPR group 1 micro-operations, on the control field.
const (
	GRP1_NOP = uint16(0000) // No operation
	GRP1_CLA = uint16(0200) // Clear AC, sequence 1
	GRP1_CLL = uint16(0100) // Clear link, sequence 1
	GRP1_CMA = uint16(0040) // Complement AC, sequence 2
	GRP1_CML = uint16(0020) // Complement link, sequence 2
	GRP1_IAC = uint16(0001) // Increment AC, sequence 3
	GRP1_RAR = uint16(0010) // Rotate AC and L right 1, sequence 4
	GRP1_RTR = uint16(0012) // Rotate AC and L right 2, sequence 4
	GRP1_RAL = uint16(0004) // Rotate AC and L left 1, sequence 4
	GRP1_RTL = uint16(0006) // Rotate AC and L left 2, sequence 4
)

// OPR group 2 micro-operations, on the control field.
const (
	GRP2_SKP_BIT = uint16(0010) // Reverses the sense of the skip tests

	GRP2_SMA = uint16(0500) // Skip on minus AC, sequence 1
	GRP2_SZA = uint16(0440) // Skip on zero AC, sequence 1
	GRP2_SNL = uint16(0420) // Skip on non-zero link, sequence 1
	GRP2_SPA = uint16(0510) // Skip on plus AC, sequence 1
	GRP2_SNA = uint16(0450) // Skip on non-zero AC, sequence 1
	GRP2_SZL = uint16(0430) // Skip on zero link, sequence 1
	GRP2_SKP = uint16(0410) // Skip unconditionally, sequence 1
	GRP2_CLA = uint16(0600) // Clear AC, sequence 2
	GRP2_OSR = uint16(0404) // OR switch register into AC, sequence 3
	GRP2_HLT = uint16(0402) // Halt, sequence 3
)

// Memory layout.
const (
	MEMORY_SIZE      = 4096
	AUTO_INDEX_FIRST = uint16(0010) // First auto-increment location.
	AUTO_INDEX_LAST  = uint16(0017) // Last auto-increment location.
)

// Decoded is a single instruction word split into its fields.
type Decoded struct {
	Op       OpCode // Instruction class.
	Indirect bool   // Address is a pointer to the operand.
	Page     bool   // Address is on the current page.
	Address  uint16 // Effective address, before indirection.
	Bits     uint16 // Control field, for OPR and IOT.
}

// Decode splits an instruction word. The current page comes from pc,
// which is the program counter after it has moved past the word.
func Decode(word uint16, pc uint16) (d Decoded) {
	word &= WORD_MASK

	d.Op = OpCode((word & OP_MASK) >> OP_SHIFT)
	d.Indirect = (word & I_MASK) == I_MASK
	d.Page = (word & P_MASK) == P_MASK

	if d.Page {
		d.Address = pc & PAGE_MASK
	}
	d.Address |= word & ADDR_MASK
	d.Bits = word & BITS_MASK

	return
}

// Mri returns true for the memory reference instruction classes.
func (op OpCode) Mri() bool {
	return op <= OP_JMP
}

// Permanent symbols, as full instruction words.
var _cpu_defines = map[string]uint16{
	"AND": uint16(OP_AND) << OP_SHIFT,
	"TAD": uint16(OP_TAD) << OP_SHIFT,
	"ISZ": uint16(OP_ISZ) << OP_SHIFT,
	"DCA": uint16(OP_DCA) << OP_SHIFT,
	"JMS": uint16(OP_JMS) << OP_SHIFT,
	"JMP": uint16(OP_JMP) << OP_SHIFT,
	"IOT": uint16(OP_IOT) << OP_SHIFT,
	"OPR": uint16(OP_OPR) << OP_SHIFT,

	"NOP": OP_MASK | GRP1_NOP,
	"CLA": OP_MASK | GRP1_CLA,
	"CLL": OP_MASK | GRP1_CLL,
	"CMA": OP_MASK | GRP1_CMA,
	"CML": OP_MASK | GRP1_CML,
	"IAC": OP_MASK | GRP1_IAC,
	"RAR": OP_MASK | GRP1_RAR,
	"RTR": OP_MASK | GRP1_RTR,
	"RAL": OP_MASK | GRP1_RAL,
	"RTL": OP_MASK | GRP1_RTL,
	"CIA": OP_MASK | GRP1_CMA | GRP1_IAC,
	"STL": OP_MASK | GRP1_CLL | GRP1_CML,
	"GLK": OP_MASK | GRP1_CLA | GRP1_RAL,

	"SMA": OP_MASK | GRP2_SMA,
	"SZA": OP_MASK | GRP2_SZA,
	"SNL": OP_MASK | GRP2_SNL,
	"SPA": OP_MASK | GRP2_SPA,
	"SNA": OP_MASK | GRP2_SNA,
	"SZL": OP_MASK | GRP2_SZL,
	"SKP": OP_MASK | GRP2_SKP,
	"OSR": OP_MASK | GRP2_OSR,
	"HLT": OP_MASK | GRP2_HLT,
	"LAS": OP_MASK | GRP2_CLA | GRP2_OSR,
}

// Defines returns the permanent symbol table: every mnemonic and the
// instruction word it assembles to.
func Defines() iter.Seq2[string, uint16] {
	return maps.All(_cpu_defines)
}

// disasmGroup1 lists group 1 mnemonics in sequence order.
var disasmGroup1 = []struct {
	name string
	mask uint16
}{
	{"CLA", GRP1_CLA},
	{"CLL", GRP1_CLL},
	{"CMA", GRP1_CMA},
	{"CML", GRP1_CML},
	{"IAC", GRP1_IAC},
}

// Disassemble returns the mnemonic form of word, fetched from address.
func Disassemble(address uint16, word uint16) (text string) {
	word &= WORD_MASK
	pc := (address + 1) & WORD_MASK
	d := Decode(word, pc)

	var out []string

	switch d.Op {
	case OP_OPR:
		out = disasmOperate(d.Bits)
	case OP_IOT:
		out = []string{"IOT", fmt.Sprintf("%02o", (d.Bits>>3)&077), fmt.Sprintf("%o", d.Bits&07)}
	default:
		out = append(out, d.Op.String())
		if d.Indirect {
			out = append(out, "I")
		}
		out = append(out, fmt.Sprintf("%04o", d.Address))
	}

	return strings.Join(out, " ")
}

// disasmOperate names the micro-operations of an OPR control field.
func disasmOperate(bits uint16) (out []string) {
	switch {
	case bits&GROUP_BIT == 0:
		if bits == GRP1_NOP {
			return []string{"NOP"}
		}
		for _, op := range disasmGroup1 {
			if bits&op.mask == op.mask {
				out = append(out, op.name)
			}
		}
		switch {
		case bits&GRP1_RTR == GRP1_RTR:
			out = append(out, "RTR")
		case bits&GRP1_RAR == GRP1_RAR:
			out = append(out, "RAR")
		}
		switch {
		case bits&GRP1_RTL == GRP1_RTL:
			out = append(out, "RTL")
		case bits&GRP1_RAL == GRP1_RAL:
			out = append(out, "RAL")
		}
	case bits&GROUP3_BIT == 0:
		if bits&GRP2_SKP_BIT != 0 {
			any_test := false
			for _, op := range []struct {
				name string
				mask uint16
			}{{"SPA", GRP2_SPA}, {"SNA", GRP2_SNA}, {"SZL", GRP2_SZL}} {
				if bits&op.mask == op.mask {
					any_test = true
					out = append(out, op.name)
				}
			}
			if !any_test {
				out = append(out, "SKP")
			}
		} else {
			for _, op := range []struct {
				name string
				mask uint16
			}{{"SMA", GRP2_SMA}, {"SZA", GRP2_SZA}, {"SNL", GRP2_SNL}} {
				if bits&op.mask == op.mask {
					out = append(out, op.name)
				}
			}
		}
		if bits&GRP2_CLA == GRP2_CLA {
			out = append(out, "CLA")
		}
		if bits&GRP2_OSR == GRP2_OSR {
			out = append(out, "OSR")
		}
		if bits&GRP2_HLT == GRP2_HLT {
			out = append(out, "HLT")
		}
		if len(out) == 0 {
			out = append(out, "OPR", fmt.Sprintf("%04o", OP_MASK|bits))
		}
	default:
		out = []string{"OPR", fmt.Sprintf("%04o", OP_MASK|bits)}
	}

	return
}
