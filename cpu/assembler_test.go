package cpu

import (
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(asm *Assembler, program ...string) (*Program, error) {
	return asm.Parse(strings.NewReader(strings.Join(program, "\n")))
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))
	assert.Equal(uint16(0), prog.Start)

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("0", asm.Equate["LOC"])
}

func TestAssemblerProgram(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := assemble(asm,
		"/ add two numbers",
		"*200",
		"START,  CLA CLL     / clear",
		"        TAD A",
		"        TAD B",
		"        DCA C",
		"        HLT",
		"A,      2",
		"B,      3",
		"C,      0",
		"$",
		"this line is never read",
	)
	if !assert.NoError(err) {
		return
	}

	expected := map[uint16]uint16{
		0200: 07300,
		0201: 01205,
		0202: 01206,
		0203: 03207,
		0204: 07402,
		0205: 00002,
		0206: 00003,
		0207: 00000,
	}
	assert.Equal(expected, maps.Collect(prog.Codes()))
	assert.Equal(uint16(0200), prog.Start)
	assert.Equal(uint16(0200), asm.Label["START"])
	assert.Equal(uint16(0207), asm.Label["C"])

	assert.Equal(3, prog.LineNo(0200))
	assert.Equal([]string{"TAD", "A"}, prog.Debug(0201).Words)
	assert.Equal("A", prog.Debug(0201).LinkLabel)
	assert.True(prog.Debug(0201).Mri)

	cpu := NewCpu()
	prog.Binary(&cpu.Memory)
	cpu.Pc = prog.Start
	cpu.Run = true
	for cpu.Run {
		_, err = cpu.Step()
		if !assert.NoError(err) {
			return
		}
	}
	assert.Equal(uint16(5), cpu.Memory.Read(0207))
	assert.Equal(uint16(0205), cpu.Pc)
}

func TestAssemblerMri(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := assemble(asm,
		"*20",
		"PTR,    400",
		"*377",
		"        TAD I Z 10",
		"        JMP I PTR",
		"HERE,   ISZ HERE",
		"        JMS I Z PTR",
		"        AND 0400",
		"        JMP HERE",
	)
	if !assert.NoError(err) {
		return
	}

	expected := map[uint16]uint16{
		0020: 00400,
		0377: 01410,
		0400: 05420,
		0401: 02201,
		0402: 04420,
		0403: 00200,
		0404: 05201,
	}
	assert.Equal(expected, maps.Collect(prog.Codes()))
	assert.Equal(uint16(0020), prog.Start)

	assert.False(Decode(01410, 0400).Page)
	assert.True(Decode(02201, 0402).Page)
	assert.Equal(uint16(0401), Decode(02201, 0402).Address)
}

func TestAssemblerOffPage(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	_, err := assemble(asm,
		"*200",
		"        TAD X",
		"*400",
		"X,      1",
	)
	assert.ErrorIs(err, ErrTargetOffPage)

	var es *ErrSyntax
	if assert.True(errors.As(err, &es)) {
		assert.Equal(2, es.LineNo)
	}

	_, err = assemble(asm,
		"*200",
		"X,      1",
		"*400",
		"        TAD X",
	)
	assert.ErrorIs(err, ErrTargetOffPage)
}

func TestAssemblerEqu(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("SIZE", "0200")

	prog, err := assemble(asm,
		"N=12",
		"MINUS=-1",
		"*100",
		"        N",
		"        $(N*2)",
		"        'A'",
		"        MINUS",
		"        0x10",
		"        0b101",
		"        SIZE",
		"        TAD N",
		"        JMP $(LOC)",
		"        $(9//2)   / floor division",
		"        $(LINENO)",
	)
	if !assert.NoError(err) {
		return
	}

	expected := map[uint16]uint16{
		0100: 00012,
		0101: 00024,
		0102: 00101,
		0103: 07777,
		0104: 00020,
		0105: 00005,
		0106: 00200,
		0107: 01012,
		0110: 05110,
		0111: 00004,
		0112: 00016,
	}
	assert.Equal(expected, maps.Collect(prog.Codes()))
	assert.Equal("12", asm.Equate["N"])
	assert.Equal("0200", asm.Equate["SIZE"])
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := assemble(asm,
		".macro ADD2 X Y",
		"        CLA",
		"        TAD X",
		"        TAD Y",
		".endm",
		".macro LOOP",
		"@top,   ISZ @top",
		"        JMP @top",
		".endm",
		"*200",
		"        ADD2 A B",
		"        HLT",
		"A,      1",
		"B,      2",
		"        LOOP",
		"        LOOP",
	)
	if !assert.NoError(err) {
		return
	}

	expected := map[uint16]uint16{
		0200: 07200,
		0201: 01204,
		0202: 01205,
		0203: 07402,
		0204: 00001,
		0205: 00002,
		0206: 02206,
		0207: 05206,
		0210: 02210,
		0211: 05210,
	}
	assert.Equal(expected, maps.Collect(prog.Codes()))

	// Each expansion has its own '@' labels.
	assert.Equal(uint16(0206), asm.Label["LOOP_15_top"])
	assert.Equal(uint16(0210), asm.Label["LOOP_16_top"])

	// Macro arguments do not leak.
	_, ok := asm.Equate["X"]
	assert.False(ok)
}

func TestAssemblerErrSyntax(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		err     error
		lineno  int
	}){
		{"label_dup", []string{"A, 1", "A, 2"}, ErrLabelDuplicate, 2},
		{"label_missing", []string{"TAD NOWHERE"}, ErrLabelMissing("NOWHERE"), 1},
		{"label_bad", []string{"1A, 0"}, ErrLabelMissing("1A"), 1},
		{"link_multiple", []string{"A B"}, ErrLinkMultiple, 1},
		{"target_missing", []string{"", "TAD I"}, ErrTargetMissing, 2},
		{"extra_args", []string{"TAD 1 2"}, ErrOpcodeExtraArgs, 1},
		{"equate_dup", []string{"A=1", "A=2"}, ErrEquateDuplicate, 2},
		{"equate_syntax", []string{"1A=2"}, ErrEquateSyntax, 1},
		{"equate_value", []string{"A=1 2"}, ErrEquateSyntax, 1},
		{"origin_syntax", []string{"*200 300"}, ErrOriginSyntax, 1},
		{"origin_label", []string{"*WHERE"}, ErrLabelMissing("WHERE"), 1},
		{"number", []string{"7777 10000"}, ErrParseNumber("10000"), 1},
		{"expression", []string{"$(1.5)"}, ErrParseExpression("1.5"), 1},
		{"macro_nesting", []string{".macro A", ".macro B"}, ErrMacroNesting, 2},
		{"macro_syntax", []string{".macro"}, ErrMacroSyntax, 1},
		{"macro_dup", []string{".macro A", ".endm", ".macro A"}, ErrMacroDuplicate, 3},
		{"macro_lonely", []string{".macro A", "CLA"}, ErrMacroLonely, 2},
		{"macro_endm", []string{"CLA", ".endm"}, ErrMacroLonelyEndm, 2},
		{"macro_args", []string{".macro A X", ".endm", "A"}, ErrMacroSyntax, 3},
	}

	for _, entry := range table {
		asm := &Assembler{}
		_, err := assemble(asm, entry.program...)
		assert.ErrorIs(err, entry.err, entry.name)

		var es *ErrSyntax
		if assert.True(errors.As(err, &es), entry.name) {
			assert.Equal(entry.lineno, es.LineNo, entry.name)
		}
	}
}

func TestAssemblerMacroError(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	_, err := assemble(asm,
		".macro BAD",
		"        TAD 1 2",
		".endm",
		"        BAD",
	)
	assert.ErrorIs(err, ErrOpcodeExtraArgs)

	var em *ErrMacro
	if assert.True(errors.As(err, &em)) {
		assert.Equal("BAD", em.Macro)
		assert.Equal(2, em.Line)
	}
}

func TestStripComment(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("TAD A ", stripComment("TAD A / comment"))
	assert.Equal("$(4/2) ", stripComment("$(4/2) / comment"))
	assert.Equal("", stripComment("/ all comment"))
	assert.Equal("CLA", stripComment("CLA"))
}
