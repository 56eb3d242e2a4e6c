// Package cpu implements the processor and assembler for a PDP-8 style
// 12-bit minicomputer.
//
// The processor has a program counter, accumulator, link, memory address and
// data latches, a front panel switch register and 4096 words of core. Each
// call to Step performs one major state: Fetch, Defer, Execute or Break.
// Memory reference instructions address page zero or the current page, with
// optional indirection through a pointer; pointers at 0010-0017 are
// incremented before use. OPR instructions are evaluated during Fetch from
// their group 1 or group 2 micro-operation bits. IOT and group 3 OPR return
// ErrNotImplemented.
//
// The assembler provides a PAL flavoured assembly language, supporting
// macros, labels, equates, and compile-time expression evaluation.
package cpu
