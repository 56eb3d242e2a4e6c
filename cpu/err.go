package cpu

import (
	"errors"

	"github.com/ezrec/pdp8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrNotImplemented = errors.New(f("not implemented"))
	ErrInvariant      = errors.New(f("internal invariant violated"))
	ErrOpcodeIot      = errors.New(f("iot"))
	ErrOpcodeGroup3   = errors.New(f("opr group 3"))

	// Assembler errors
	ErrEquateSyntax    = errors.New(f("equate syntax"))
	ErrEquateDuplicate = errors.New(f("equate duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrMacroSyntax     = errors.New(f(".macro syntax"))
	ErrMacroNesting    = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate  = errors.New(f(".macro duplicated"))
	ErrMacroLonely     = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm = errors.New(f(".endm without .macro"))
	ErrOriginSyntax    = errors.New(f("origin syntax"))
	ErrOpcodeExtraArgs = errors.New(f("excessive arguments"))
	ErrTargetMissing   = errors.New(f("target missing"))
	ErrTargetOffPage   = errors.New(f("target not on page zero or current page"))
	ErrLinkMultiple    = errors.New(f("more than one undefined symbol"))
)

// ErrInstruction locates an error raised while stepping an instruction.
type ErrInstruction struct {
	Address uint16 // Address the instruction was fetched from.
	Word    uint16 // Instruction word.
	State   State  // Major state that raised the error.
}

func (ei *ErrInstruction) Error() string {
	return f("%04o: %04o (%v) in %v", ei.Address, ei.Word, Disassemble(ei.Address, ei.Word), ei.State)
}

// ErrOpcodeState is an instruction class found in a state it cannot reach.
type ErrOpcodeState OpCode

func (eo ErrOpcodeState) Error() string {
	return f("%v in execute state", OpCode(eo))
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
