// Package tape reads and punches paper tapes in BIN format.
//
// A BIN tape is a byte stream. Leader bytes (0200) are ignored. Every
// other byte carries six data bits; a byte with bit 0100 set starts a two
// byte origin frame, and all remaining byte pairs are data words, high six
// bits first.
package tape

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"log"
	"maps"
	"os"
	"slices"

	"github.com/ezrec/pdp8/cpu"
)

// BIN format framing.
const (
	BIN_LEADER     = byte(0200) // Leader and trailer.
	BIN_ORIGIN     = byte(0100) // Set on the first byte of an origin frame.
	BIN_DATA_MASK  = byte(0077) // Six data bits per byte.
	BIN_HIGH_SHIFT = 6          // Shift of the first byte of a frame.
	LEADER_LENGTH  = 16         // Leader bytes punched before and after a tape.
)

// BinState is the loader's position within a frame.
type BinState int

const (
	BIN_ORIGIN_HIGH = BinState(0) // Expecting the high half of an origin.
	BIN_ORIGIN_LOW  = BinState(1) // Expecting the low half of an origin.
	BIN_DATA_HIGH   = BinState(2) // Expecting the high half of a word.
	BIN_DATA_LOW    = BinState(3) // Expecting the low half of a word.
)

// Tape is a paper tape reader and punch.
type Tape struct {
	Verbose bool // If set, logs origin frames.

	Input  io.Reader // Reader station.
	Output io.Writer // Punch station.

	Origin  uint16 // Last origin read from the tape.
	Address uint16 // Next load address.

	state BinState
	data  uint16
	err   error
}

// Defines returns the symbols describing the mounted tape.
func (tc *Tape) Defines() iter.Seq2[string, uint16] {
	return maps.All(map[string]uint16{
		"TAPE_ORIGIN":  tc.Origin,
		"TAPE_ADDRESS": tc.Address,
	})
}

// Rewind returns the loader to the start of a data frame. The load
// address is kept, so a tape without an origin continues where the
// previous one ended.
func (tc *Tape) Rewind() {
	tc.state = BIN_DATA_HIGH
	tc.data = 0
	tc.err = nil
}

// Receive returns an iterator that yields bytes from the input stream
// until end of tape. A read failure ends the sequence and is kept for
// Load to report.
func (tc *Tape) Receive() iter.Seq[byte] {
	return func(yield func(value byte) bool) {
		if tc.Input == nil {
			tc.err = ErrUnreadable
			return
		}
		reader := bufio.NewReader(tc.Input)
		for {
			value, err := reader.ReadByte()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					tc.err = errors.Join(ErrUnreadable, err)
				}
				return
			}
			if !yield(value) {
				return
			}
		}
	}
}

// Decode advances the loader by one tape byte, writing completed words
// into mem. Every word is stored at the load address and at the address
// after it, then the load address advances by one.
func (tc *Tape) Decode(value byte, mem *cpu.Memory) {
	if value == BIN_LEADER {
		return
	}

	if value&BIN_ORIGIN == BIN_ORIGIN {
		tc.state = BIN_ORIGIN_HIGH
	}

	switch tc.state {
	case BIN_ORIGIN_HIGH:
		tc.Address = uint16(value&BIN_DATA_MASK) << BIN_HIGH_SHIFT
		tc.state = BIN_ORIGIN_LOW
	case BIN_ORIGIN_LOW:
		tc.Address = (tc.Address | uint16(value)) & cpu.WORD_MASK
		tc.Origin = tc.Address
		tc.state = BIN_DATA_HIGH
		if tc.Verbose {
			log.Printf("tape: origin %04o", tc.Origin)
		}
	case BIN_DATA_HIGH:
		tc.data = uint16(value&BIN_DATA_MASK) << BIN_HIGH_SHIFT
		tc.state = BIN_DATA_LOW
	case BIN_DATA_LOW:
		tc.data |= uint16(value)
		mem.Write(tc.Address, tc.data)
		tc.Address = (tc.Address + 1) & cpu.WORD_MASK
		mem.Write(tc.Address, tc.data)
		tc.state = BIN_DATA_HIGH
	}
}

// Load reads the whole input tape into mem, and returns the last origin
// read. A partial frame at the end of the tape is dropped.
func (tc *Tape) Load(mem *cpu.Memory) (origin uint16, err error) {
	tc.Rewind()

	for value := range tc.Receive() {
		tc.Decode(value, mem)
	}

	err = tc.err
	origin = tc.Origin

	return
}

// Load reads a tape into a fresh memory image.
func Load(input io.Reader) (mem *cpu.Memory, origin uint16, err error) {
	mem = &cpu.Memory{}
	tc := &Tape{Input: input}

	origin, err = tc.Load(mem)
	if err != nil {
		mem = nil
	}

	return
}

// LoadFile mounts the named tape on the reader and loads it into mem.
func (tc *Tape) LoadFile(name string, mem *cpu.Memory) (origin uint16, err error) {
	inf, err := os.Open(name)
	if err != nil {
		err = errors.Join(ErrUnreadable, err)
		return
	}
	defer inf.Close()

	tc.Input = inf
	defer func() { tc.Input = nil }()

	return tc.Load(mem)
}

// Punch writes prog to the output as a BIN tape: leader, origin and data
// frames in address order, a checksum word, and trailer. The checksum is
// framed as data, so the loader stores it in the two cells following the
// highest block (wrapping to 0 and 1 after 07777).
func (tc *Tape) Punch(prog *cpu.Program) (err error) {
	if tc.Output == nil {
		err = ErrNoPunch
		return
	}

	type cell struct {
		address uint16
		word    uint16
	}

	// The loader also writes each word into the following cell, so words
	// are punched in ascending address order. Last definition wins.
	var cells []cell
	index := map[uint16]int{}
	for address, word := range prog.Codes() {
		n, ok := index[address]
		if ok {
			cells[n].word = word
			continue
		}
		index[address] = len(cells)
		cells = append(cells, cell{address: address, word: word})
	}
	slices.SortStableFunc(cells, func(a, b cell) int { return int(a.address) - int(b.address) })

	out := bufio.NewWriter(tc.Output)

	var checksum uint16
	frame := func(high, low byte) {
		checksum += uint16(high) + uint16(low)
		out.WriteByte(high)
		out.WriteByte(low)
	}

	for range LEADER_LENGTH {
		out.WriteByte(BIN_LEADER)
	}

	next := -1
	for _, c := range cells {
		if int(c.address) != next {
			if tc.Verbose {
				log.Printf("tape: punch origin %04o", c.address)
			}
			frame(BIN_ORIGIN|byte(c.address>>BIN_HIGH_SHIFT)&BIN_DATA_MASK, byte(c.address)&BIN_DATA_MASK)
		}
		frame(byte(c.word>>BIN_HIGH_SHIFT)&BIN_DATA_MASK, byte(c.word)&BIN_DATA_MASK)
		next = int(c.address) + 1
	}

	checksum &= cpu.WORD_MASK
	out.WriteByte(byte(checksum>>BIN_HIGH_SHIFT) & BIN_DATA_MASK)
	out.WriteByte(byte(checksum) & BIN_DATA_MASK)

	for range LEADER_LENGTH {
		out.WriteByte(BIN_LEADER)
	}

	err = out.Flush()

	return
}
