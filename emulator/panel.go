package emulator

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var panelHelp = []string{
	"number      -- Set SR (octal, or 0x/0b prefixed)",
	"?|h[elp]    -- Print help",
	"c[ont]      -- Continue",
	"la          -- Load Address",
	"ldaddr      -- Load Address",
	"[no]sinstr  -- Single Instruction",
	"[no]sstep   -- Single Step",
	"s[tart]     -- Start",
	"q[uit]      -- Exit",
	"<return>    -- Same as cont",
	"<ctrl-d>    -- Same as q[uit]",
}

// parseSwitches parses a switch register setting. Plain numbers are octal,
// not decimal, so "10" is 010; 0x, 0b and 0o prefixes select other bases.
// Negative values down to -2048 are two's complement.
func parseSwitches(text string) (word uint16, err error) {
	base := 8
	lower := strings.ToLower(strings.TrimPrefix(text, "-"))
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") || strings.HasPrefix(lower, "0o") {
		base = 0
	}

	value, err := strconv.ParseInt(text, base, 32)
	if err != nil {
		return
	}

	if value > 07777 || value < -04000 {
		err = ErrSwitchRange
		return
	}

	word = uint16(value) & 07777

	return
}

// Command performs a single front panel command. quit is set when the
// operator asks to leave.
func (emu *Emulator) Command(cmd string, out io.Writer) (quit bool, err error) {
	cmd = strings.TrimSpace(cmd)

	switch cmd {
	case "", "c", "cont":
		emu.Cpu.Run = true
	case "?", "h", "help":
		for _, line := range panelHelp {
			fmt.Fprintln(out, f(line))
		}
	case "nosinstr":
		emu.SingleInstruction = false
	case "nosstep":
		emu.SingleStep = false
	case "sinstr":
		emu.SingleInstruction = true
	case "sstep":
		emu.SingleStep = true
	case "s", "start":
		emu.Start()
	case "q", "quit":
		quit = true
	case "la", "ldaddr":
		emu.LoadAddress()
	default:
		word, perr := parseSwitches(cmd)
		switch {
		case perr == nil:
			emu.SetSwitchRegister(word)
		case perr == ErrSwitchRange:
			err = perr
		default:
			err = ErrCommand(cmd)
		}
	}

	return
}

// Panel runs the operator console: while the processor is stopped, it
// shows the registers and reads commands from in.
func (emu *Emulator) Panel(in io.Reader, out io.Writer) (err error) {
	scanner := bufio.NewScanner(in)

	for {
		for emu.Cpu.Run {
			rerr := emu.Run()
			if rerr != nil {
				fmt.Fprintln(out, rerr)
			}
		}

		err = emu.Dump(out)
		if err != nil {
			return
		}
		fmt.Fprint(out, "> ")

		if !scanner.Scan() {
			err = scanner.Err()
			return
		}

		quit, cerr := emu.Command(scanner.Text(), out)
		if cerr != nil {
			fmt.Fprintln(out, cerr)
		}
		if quit {
			return
		}
	}
}
