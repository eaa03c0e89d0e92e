package z80

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func aluTestCPU(a, f uint8) *Z80 {
	c := &Z80{}
	c.Init()
	c.regs[rA] = a
	c.regs[rF] = f
	return c
}

func TestALUAdd(t *testing.T) {
	tests := []struct {
		name    string
		a, val  uint8
		wantA   uint8
		wantF   uint8
	}{
		{"simple add", 0x12, 0x34, 0x46, 0x00},
		{"zero result", 0x00, 0x00, 0x00, FlagZ},
		{"carry out", 0xFF, 0x01, 0x00, FlagZ | FlagH | FlagC},
		{"half carry", 0x0F, 0x01, 0x10, FlagH},
		{"signed overflow", 0x7F, 0x01, 0x80, FlagS | FlagH | FlagPV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := aluTestCPU(tt.a, 0)
			c.alu8(0, tt.val)
			assert.Equal(t, tt.wantA, c.regs[rA], "A register")
			assert.Equal(t, tt.wantF, c.regs[rF]&^(FlagX|FlagY), "flags")
		})
	}
}

func TestALUAdc(t *testing.T) {
	c := aluTestCPU(0x10, FlagC)
	c.alu8(1, 0x10)
	assert.Equal(t, uint8(0x21), c.regs[rA])
	assert.Equal(t, uint8(0), c.regs[rF]&FlagC)
}

func TestALUSub(t *testing.T) {
	tests := []struct {
		name   string
		a, val uint8
		wantA  uint8
		wantF  uint8
	}{
		{"simple sub", 0x46, 0x34, 0x12, FlagN},
		{"zero result", 0x42, 0x42, 0x00, FlagZ | FlagN},
		{"borrow", 0x00, 0x01, 0xFF, FlagS | FlagH | FlagN | FlagC},
		{"signed overflow", 0x80, 0x01, 0x7F, FlagH | FlagPV | FlagN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := aluTestCPU(tt.a, 0)
			c.alu8(2, tt.val)
			assert.Equal(t, tt.wantA, c.regs[rA], "A register")
			assert.Equal(t, tt.wantF, c.regs[rF]&^(FlagX|FlagY), "flags")
		})
	}
}

func TestALUCompareKeepsA(t *testing.T) {
	c := aluTestCPU(0x42, 0)
	c.alu8(7, 0x42)
	assert.Equal(t, uint8(0x42), c.regs[rA], "CP must not modify A")
	assert.NotZero(t, c.regs[rF]&FlagZ, "Z set on equality")
}

func TestALULogic(t *testing.T) {
	t.Run("and sets H and parity", func(t *testing.T) {
		c := aluTestCPU(0xFF, 0)
		c.alu8(4, 0x0F)
		assert.Equal(t, uint8(0x0F), c.regs[rA])
		assert.Equal(t, FlagH|FlagPV, c.regs[rF]&^(FlagX|FlagY))
	})
	t.Run("xor clears carry", func(t *testing.T) {
		c := aluTestCPU(0xFF, FlagC)
		c.alu8(5, 0xFF)
		assert.Equal(t, uint8(0x00), c.regs[rA])
		assert.Equal(t, FlagZ|FlagPV, c.regs[rF])
	})
	t.Run("or", func(t *testing.T) {
		c := aluTestCPU(0x0F, 0)
		c.alu8(6, 0xF0)
		assert.Equal(t, uint8(0xFF), c.regs[rA])
		assert.Equal(t, FlagS|FlagPV, c.regs[rF]&^(FlagX|FlagY))
	})
}

func TestIncDec(t *testing.T) {
	t.Run("inc wraps and keeps carry", func(t *testing.T) {
		c := aluTestCPU(0, FlagC)
		r := c.inc8(0xFF)
		assert.Equal(t, uint8(0x00), r)
		assert.NotZero(t, c.regs[rF]&FlagZ)
		assert.NotZero(t, c.regs[rF]&FlagC, "INC must not touch carry")
	})
	t.Run("inc overflow at 0x7F", func(t *testing.T) {
		c := aluTestCPU(0, 0)
		r := c.inc8(0x7F)
		assert.Equal(t, uint8(0x80), r)
		assert.NotZero(t, c.regs[rF]&FlagPV)
	})
	t.Run("dec sets N", func(t *testing.T) {
		c := aluTestCPU(0, 0)
		r := c.dec8(0x01)
		assert.Equal(t, uint8(0x00), r)
		assert.NotZero(t, c.regs[rF]&FlagZ)
		assert.NotZero(t, c.regs[rF]&FlagN)
	})
}

func TestRotates(t *testing.T) {
	tests := []struct {
		name  string
		op    uint8
		in    uint8
		carry bool
		want  uint8
		wantC bool
	}{
		{"RLC", 0, 0x81, false, 0x03, true},
		{"RRC", 1, 0x01, false, 0x80, true},
		{"RL with carry in", 2, 0x80, true, 0x01, true},
		{"RR with carry in", 3, 0x01, true, 0x80, true},
		{"SLA", 4, 0xC0, false, 0x80, true},
		{"SRA keeps sign", 5, 0x81, false, 0xC0, true},
		{"SLL shifts in one", 6, 0x80, false, 0x01, true},
		{"SRL", 7, 0x81, false, 0x40, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f uint8
			if tt.carry {
				f = FlagC
			}
			c := aluTestCPU(0, f)
			got := c.rot(tt.op, tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantC, c.regs[rF]&FlagC != 0, "carry")
		})
	}
}

func TestDAA(t *testing.T) {
	tests := []struct {
		name  string
		a, f  uint8
		wantA uint8
	}{
		{"after BCD add", 0x3C, 0, 0x42},
		{"after add with carry", 0x9A, 0, 0x00},
		{"after BCD sub", 0x0F, FlagN | FlagH, 0x09},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := aluTestCPU(tt.a, tt.f)
			c.daa()
			assert.Equal(t, tt.wantA, c.regs[rA])
		})
	}
}

func TestAdc16Sbc16(t *testing.T) {
	t.Run("adc16 overflow", func(t *testing.T) {
		c := aluTestCPU(0, 0)
		r := c.adc16(0x7FFF, 0x0001)
		assert.Equal(t, uint16(0x8000), r)
		assert.NotZero(t, c.regs[rF]&FlagPV)
		assert.NotZero(t, c.regs[rF]&FlagS)
	})
	t.Run("sbc16 zero", func(t *testing.T) {
		c := aluTestCPU(0, 0)
		r := c.sbc16(0x1234, 0x1234)
		assert.Equal(t, uint16(0), r)
		assert.NotZero(t, c.regs[rF]&FlagZ)
		assert.NotZero(t, c.regs[rF]&FlagN)
	})
	t.Run("add16 keeps S Z PV", func(t *testing.T) {
		c := aluTestCPU(0, FlagS|FlagZ|FlagPV)
		r := c.add16(0xFFFF, 0x0001)
		assert.Equal(t, uint16(0), r)
		assert.NotZero(t, c.regs[rF]&FlagC)
		assert.Equal(t, FlagS|FlagZ|FlagPV, c.regs[rF]&(FlagS|FlagZ|FlagPV))
	})
}

func TestBit(t *testing.T) {
	c := aluTestCPU(0, 0)
	_, writeback := c.cbOp(0x47, 0x01) // BIT 0
	assert.False(t, writeback, "BIT has no writeback")
	assert.Zero(t, c.regs[rF]&FlagZ)

	_, _ = c.cbOp(0x7F, 0x00) // BIT 7
	assert.NotZero(t, c.regs[rF]&FlagZ)
}
