// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
	"LOC":    "0",
}

var symbolName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Assembler is a single pass macro assembler for PAL flavoured source.
//
// Source lines are of the form:
//
//	/ comment
//	*200                    / set the location counter
//	NAME=value              / define an equate
//	LABEL,  TAD I Z PTR     / memory reference
//	        CLA CLL IAC     / symbols are OR'd together
//	        $(COUNT * 2)    / starlark expression
//	$                       / end of program
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint16   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	location uint16 // Location counter.
	ended    bool   // Set after the '$' terminator.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a number or character word.
// Numbers are octal unless they carry a 0x, 0b or 0o prefix.
func (asm *Assembler) valueOf(word string) (value uint16, err error) {
	negate := false
	if len(word) > 1 && word[0] == '-' {
		negate = true
		word = word[1:]
	}
	if len(word) == 0 {
		err = ErrParseNumber(word)
		return
	}
	if word[0] == '\'' {
		// Character quotes should have been expanded into
		// values in parseLine()
		err = ErrParseCharacter(strings.Trim(word, "'"))
		return
	}

	base := 8
	lower := strings.ToLower(word)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") || strings.HasPrefix(lower, "0o") {
		base = 0
	}

	v64, err := strconv.ParseInt(word, base, 32)
	if err != nil || v64 < 0 || v64 > int64(WORD_MASK) {
		err = ErrParseNumber(word)
		return
	}

	value = uint16(v64)
	if negate {
		value = (^value + 1) & WORD_MASK
	}

	return
}

// symbolOf resolves a word to a value. Names that are not yet known are
// returned as a label to link once the whole program is read.
func (asm *Assembler) symbolOf(word string) (value uint16, label string, err error) {
	if value, ok := _cpu_defines[word]; ok {
		return value, "", nil
	}
	if value, ok := asm.Label[word]; ok {
		return value, "", nil
	}

	value, err = asm.valueOf(word)
	if err != nil && symbolName.MatchString(word) {
		label = word
		err = nil
	}

	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value12 uint16
		value12, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be symbols
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt(int(value12))
	}
	for key, address := range asm.Label {
		pred[key] = starlark.MakeInt(int(address))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64) & WORD_MASK
	return
}

// stripComment removes a '/' comment that is not inside a $(...) expression.
func stripComment(text string) string {
	depth := 0
	for n, c := range text {
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth == 0 {
				return text[:n]
			}
		}
	}

	return text
}

// parseLine parses a single line into words, handling equates, labels,
// origins and macro expansion.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number and location.
	asm.Equate["LINENO"] = fmt.Sprintf("%#o", lineno)
	asm.Equate["LOC"] = fmt.Sprintf("%#o", asm.location)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%#x", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#x", value)
	})
	if err != nil {
		return
	}

	// NAME=VALUE
	if name, value, ok := strings.Cut(line, "="); ok {
		name = strings.TrimSpace(name)
		value_words := strings.Fields(value)
		if !symbolName.MatchString(name) || len(value_words) != 1 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[name]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[name] = value_words[0]
		return
	}

	words = strings.Fields(line)

	if len(words) == 0 {
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ",") {
		label := strings.TrimSuffix(words[0], ",")
		if !symbolName.MatchString(label) {
			err = ErrLabelMissing(label)
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint16, 16)
		}
		asm.Label[label] = asm.location
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// *ORIGIN
	if strings.HasPrefix(words[0], "*") {
		origin := words[0][1:]
		if len(origin) == 0 && len(words) == 2 {
			origin = words[1]
		} else if len(words) != 1 {
			err = ErrOriginSyntax
			return
		}
		var value uint16
		var label string
		value, label, err = asm.symbolOf(origin)
		if err != nil {
			return
		}
		if len(label) != 0 {
			err = ErrLabelMissing(label)
			return
		}
		asm.location = value
		words = nil
		return
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// '@' labels are unique to the invoking line.
		local := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// pageEncode merges target into a memory reference word placed at
// address. The current page is the page of the word after it, which is
// where the program counter points when the word executes.
func pageEncode(word uint16, target uint16, address uint16) (out uint16, err error) {
	pc := (address + 1) & WORD_MASK
	target &= WORD_MASK

	switch {
	case target&PAGE_MASK == 0:
		out = word | target
	case target&PAGE_MASK == pc&PAGE_MASK:
		out = word | P_MASK | (target & ADDR_MASK)
	default:
		err = ErrTargetOffPage
	}

	return
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.location = 0
	asm.ended = false

	for !asm.ended && scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		words := strings.Fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if err = scanner.Err(); err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of forward references.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		label := op.LinkLabel
		target, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		if op.Mri {
			op.Word, err = pageEncode(op.Word, target, op.Address)
			if err != nil {
				return
			}
		} else {
			op.Word |= target
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}
	if len(prog.Opcodes) > 0 {
		prog.Start = prog.Opcodes[0].Address
	}

	return
}

// parseWords evaluates the words in a line of assembly text, and emits
// at most one word at the location counter.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var word uint16
	var label string
	var mri bool

	// no-op
	if len(words) == 0 {
		return
	}

	if words[0] == "$" {
		asm.ended = true
		return
	}

	initial_words := slices.Clone(words)
	address := asm.location

	defer func() {
		if err != nil {
			return
		}
		opcode := Opcode{LineNo: lineno, Address: address, Words: initial_words, Word: word, LinkLabel: label, Mri: mri}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.location = (asm.location + 1) & WORD_MASK
	}()

	op, is_op := _cpu_defines[words[0]]
	if is_op && OpCode(op>>OP_SHIFT).Mri() {
		// OPCODE [I] [Z] TARGET
		word = op
		args := words[1:]
		for len(args) > 0 && (args[0] == "I" || args[0] == "Z") {
			if args[0] == "I" {
				word |= I_MASK
			}
			args = args[1:]
		}
		if len(args) == 0 {
			err = ErrTargetMissing
			return
		}
		if len(args) > 1 {
			err = ErrOpcodeExtraArgs
			return
		}
		var target uint16
		target, label, err = asm.symbolOf(args[0])
		if err != nil {
			return
		}
		if len(label) != 0 {
			mri = true
			return
		}
		word, err = pageEncode(word, target, address)
		return
	}

	// Everything else is the inclusive OR of its symbols.
	for _, sym := range words {
		var value uint16
		var sym_label string
		value, sym_label, err = asm.symbolOf(sym)
		if err != nil {
			return
		}
		if len(sym_label) != 0 {
			if len(label) != 0 {
				err = ErrLinkMultiple
				return
			}
			label = sym_label
		}
		word |= value
	}

	return
}
