package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperate(t *testing.T) {
	assert := assert.New(t)

	type regs struct {
		ac uint16
		l  uint16
	}

	table := [](struct {
		name   string
		word   uint16
		before regs
		sr     uint16
		after  regs
		pc     uint16
		run    bool
	}){
		{"nop", 07000, regs{01234, 1}, 0, regs{01234, 1}, 0201, true},
		{"cla_cll", 07300, regs{01234, 1}, 0, regs{0, 0}, 0201, true},
		{"cma", 07040, regs{01234, 0}, 0, regs{06543, 0}, 0201, true},
		{"cml", 07020, regs{0, 0}, 0, regs{0, 1}, 0201, true},
		{"iac_no_carry", 07001, regs{07777, 0}, 0, regs{0, 0}, 0201, true},
		{"cia", 07041, regs{1, 0}, 0, regs{07777, 0}, 0201, true},
		{"cia_zero", 07041, regs{0, 1}, 0, regs{0, 1}, 0201, true},
		{"cla_iac", 07201, regs{01234, 0}, 0, regs{1, 0}, 0201, true},
		{"stl_clear", 07120, regs{0, 0}, 0, regs{0, 1}, 0201, true},
		{"stl_set", 07120, regs{0, 1}, 0, regs{0, 1}, 0201, true},
		{"glk", 07204, regs{01234, 1}, 0, regs{1, 0}, 0201, true},
		{"ral", 07004, regs{04001, 0}, 0, regs{00002, 1}, 0201, true},
		{"ral_link", 07004, regs{0, 1}, 0, regs{1, 0}, 0201, true},
		{"rar", 07010, regs{00001, 0}, 0, regs{0, 1}, 0201, true},
		{"rar_link", 07010, regs{0, 1}, 0, regs{04000, 0}, 0201, true},
		{"rtl", 07006, regs{1, 0}, 0, regs{4, 0}, 0201, true},
		{"rtl_wrap", 07006, regs{04000, 0}, 0, regs{1, 0}, 0201, true},
		{"rtr", 07012, regs{1, 0}, 0, regs{04000, 0}, 0201, true},
		{"rar_ral", 07014, regs{01234, 1}, 0, regs{01234, 1}, 0201, true},
		{"rtr_rtl", 07016, regs{00002, 1}, 0, regs{00002, 1}, 0201, true},
		{"cll_ral", 07104, regs{04000, 1}, 0, regs{0, 1}, 0201, true},

		{"sma_skip", 07500, regs{04000, 0}, 0, regs{04000, 0}, 0202, true},
		{"sma_none", 07500, regs{03777, 0}, 0, regs{03777, 0}, 0201, true},
		{"sza_skip", 07440, regs{0, 0}, 0, regs{0, 0}, 0202, true},
		{"sza_none", 07440, regs{1, 0}, 0, regs{1, 0}, 0201, true},
		{"snl_skip", 07420, regs{1, 1}, 0, regs{1, 1}, 0202, true},
		{"sza_snl_once", 07460, regs{0, 1}, 0, regs{0, 1}, 0202, true},
		{"sma_sza_snl_once", 07560, regs{0, 1}, 0, regs{0, 1}, 0202, true},
		{"spa_skip", 07510, regs{03777, 0}, 0, regs{03777, 0}, 0202, true},
		{"spa_none", 07510, regs{04000, 0}, 0, regs{04000, 0}, 0201, true},
		{"sna_skip", 07450, regs{1, 0}, 0, regs{1, 0}, 0202, true},
		{"sna_none", 07450, regs{0, 0}, 0, regs{0, 0}, 0201, true},
		{"szl_skip", 07430, regs{0, 0}, 0, regs{0, 0}, 0202, true},
		{"szl_none", 07430, regs{0, 1}, 0, regs{0, 1}, 0201, true},
		{"spa_sna_once", 07550, regs{1, 0}, 0, regs{1, 0}, 0202, true},
		{"skp", 07410, regs{04000, 1}, 0, regs{04000, 1}, 0202, true},
		{"sna_cla", 07650, regs{01234, 0}, 0, regs{0, 0}, 0202, true},
		{"sza_cla", 07640, regs{01234, 0}, 0, regs{0, 0}, 0201, true},
		{"osr", 07404, regs{00070, 0}, 00707, regs{00777, 0}, 0201, true},
		{"las", 07604, regs{07070, 0}, 00707, regs{00707, 0}, 0201, true},
		{"hlt", 07402, regs{01234, 1}, 0, regs{01234, 1}, 0201, false},
		{"cla_osr_hlt", 07606, regs{07777, 0}, 00005, regs{00005, 0}, 0201, false},
		{"sza_cla_osr_hlt", 07646, regs{0, 0}, 00005, regs{00005, 0}, 0202, false},
	}

	for _, entry := range table {
		cpu := newTestCpu(entry.word)
		cpu.Ac = entry.before.ac
		cpu.L = entry.before.l
		cpu.Sr = entry.sr

		state, err := cpu.Step()
		assert.NoError(err, entry.name)
		assert.Equal(STATE_FETCH, state, entry.name)
		assert.Equal(entry.after, regs{cpu.Ac, cpu.L}, entry.name)
		assert.Equal(entry.pc, cpu.Pc, entry.name)
		assert.Equal(entry.run, cpu.Run, entry.name)
		assert.Equal(1, cpu.Cycles, entry.name)
	}
}

func TestOperateIacTwice(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu(07001, 07001)
	cpu.Ac = 07777
	cpu.L = 1

	assert.NoError(instruction(cpu))
	assert.NoError(instruction(cpu))
	assert.Equal(uint16(1), cpu.Ac)
	assert.Equal(uint16(1), cpu.L)
}

func TestOperateRotateInverse(t *testing.T) {
	assert := assert.New(t)

	for ac := uint16(0); ac <= WORD_MASK; ac += 0107 {
		for _, l := range []uint16{0, 1} {
			cpu := newTestCpu(07004, 07010, 07006, 07012)
			cpu.Ac = ac
			cpu.L = l

			assert.NoError(instruction(cpu))
			assert.NoError(instruction(cpu))
			assert.Equal(ac, cpu.Ac, "%04o", ac)
			assert.Equal(l, cpu.L, "%04o", ac)

			assert.NoError(instruction(cpu))
			assert.NoError(instruction(cpu))
			assert.Equal(ac, cpu.Ac, "%04o", ac)
			assert.Equal(l, cpu.L, "%04o", ac)
		}
	}
}

func TestOperateGroup3(t *testing.T) {
	assert := assert.New(t)

	for _, word := range []uint16{07401, 07421, 07501, 07777} {
		cpu := newTestCpu(word)
		cpu.Ac = 01234

		state, err := cpu.Step()
		assert.ErrorIs(err, ErrNotImplemented, "%04o", word)
		assert.ErrorIs(err, ErrOpcodeGroup3, "%04o", word)
		assert.Equal(STATE_FETCH, state)
		assert.Equal(uint16(01234), cpu.Ac)
		assert.Equal(uint16(0201), cpu.Pc)
		assert.True(cpu.Run)
	}
}
