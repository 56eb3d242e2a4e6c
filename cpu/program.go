package cpu

import (
	"iter"
)

// Opcode is a line of assembled source, and the word it generated.
type Opcode struct {
	LineNo    int      // Source line number.
	Address   uint16   // Location of the word.
	Words     []string // Source words.
	Word      uint16   // Assembled word.
	LinkLabel string   // Label merged into Word at link time.
	Mri       bool     // LinkLabel is a memory reference operand.
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
	Start   uint16 // First origin of the program.
}

// Debug returns the opcode assembled at address, or nil.
func (prog *Program) Debug(address uint16) (op *Opcode) {
	address &= WORD_MASK
	for n := range prog.Opcodes {
		if prog.Opcodes[n].Address == address {
			op = &prog.Opcodes[n]
		}
	}

	return
}

// LineNo returns the source line for the word at address, or 0.
func (prog *Program) LineNo(address uint16) int {
	op := prog.Debug(address)
	if op == nil {
		return 0
	}

	return op.LineNo
}

// Codes iterates over the address and word of each opcode, in
// assembly order.
func (prog *Program) Codes() iter.Seq2[uint16, uint16] {
	return func(yield func(address uint16, word uint16) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Address, op.Word) {
				return
			}
		}
	}
}

// Binary stores the program into memory.
func (prog *Program) Binary(mem *Memory) {
	for address, word := range prog.Codes() {
		mem.Write(address, word)
	}
}
