package z80

// flag register bits
const (
	FlagC  uint8 = 1 << 0 // carry
	FlagN  uint8 = 1 << 1 // add/subtract
	FlagPV uint8 = 1 << 2 // parity/overflow
	FlagX  uint8 = 1 << 3 // undocumented, copy of result bit 3
	FlagH  uint8 = 1 << 4 // half carry
	FlagY  uint8 = 1 << 5 // undocumented, copy of result bit 5
	FlagZ  uint8 = 1 << 6 // zero
	FlagS  uint8 = 1 << 7 // sign
)

func sz53(v uint8) uint8 {
	f := v & (FlagS | FlagX | FlagY)
	if v == 0 {
		f |= FlagZ
	}
	return f
}

func parity(v uint8) uint8 {
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	if v&1 == 0 {
		return FlagPV
	}
	return 0
}

// alu8 performs one of the eight ALU operations (ADD, ADC, SUB, SBC,
// AND, XOR, OR, CP in Z80 encoding order) on the accumulator.
func (c *Z80) alu8(op, val uint8) {
	switch op {
	case 0:
		c.add8(val, 0)
	case 1:
		c.add8(val, c.regs[rF]&FlagC)
	case 2:
		c.sub8(val, 0)
	case 3:
		c.sub8(val, c.regs[rF]&FlagC)
	case 4:
		r := c.regs[rA] & val
		c.regs[rA] = r
		c.regs[rF] = sz53(r) | FlagH | parity(r)
	case 5:
		r := c.regs[rA] ^ val
		c.regs[rA] = r
		c.regs[rF] = sz53(r) | parity(r)
	case 6:
		r := c.regs[rA] | val
		c.regs[rA] = r
		c.regs[rF] = sz53(r) | parity(r)
	case 7:
		c.cp8(val)
	}
}

func (c *Z80) add8(val, carry uint8) {
	a := c.regs[rA]
	r16 := uint16(a) + uint16(val) + uint16(carry)
	r := uint8(r16)
	f := sz53(r)
	if r16 > 0xFF {
		f |= FlagC
	}
	if (a&0x0F)+(val&0x0F)+carry > 0x0F {
		f |= FlagH
	}
	if (a^r)&(val^r)&0x80 != 0 {
		f |= FlagPV
	}
	c.regs[rA] = r
	c.regs[rF] = f
}

func (c *Z80) sub8(val, carry uint8) {
	c.regs[rA], c.regs[rF] = c.subFlags(c.regs[rA], val, carry)
}

// cp8 is subtraction without storing the result; the undocumented X/Y
// flags come from the operand, not the result.
func (c *Z80) cp8(val uint8) {
	_, f := c.subFlags(c.regs[rA], val, 0)
	c.regs[rF] = f&^(FlagX|FlagY) | val&(FlagX|FlagY)
}

func (c *Z80) subFlags(a, val, carry uint8) (uint8, uint8) {
	r16 := uint16(a) - uint16(val) - uint16(carry)
	r := uint8(r16)
	f := sz53(r) | FlagN
	if r16 > 0xFF {
		f |= FlagC
	}
	if int(a&0x0F)-int(val&0x0F)-int(carry) < 0 {
		f |= FlagH
	}
	if (a^val)&(a^r)&0x80 != 0 {
		f |= FlagPV
	}
	return r, f
}

func (c *Z80) inc8(v uint8) uint8 {
	r := v + 1
	f := sz53(r) | c.regs[rF]&FlagC
	if v&0x0F == 0x0F {
		f |= FlagH
	}
	if v == 0x7F {
		f |= FlagPV
	}
	c.regs[rF] = f
	return r
}

func (c *Z80) dec8(v uint8) uint8 {
	r := v - 1
	f := sz53(r) | FlagN | c.regs[rF]&FlagC
	if v&0x0F == 0 {
		f |= FlagH
	}
	if v == 0x80 {
		f |= FlagPV
	}
	c.regs[rF] = f
	return r
}

// add16 implements ADD HL,rr: only H, N, C (and X/Y from the high byte)
// are affected.
func (c *Z80) add16(acc, val uint16) uint16 {
	r32 := uint32(acc) + uint32(val)
	r := uint16(r32)
	f := c.regs[rF] & (FlagS | FlagZ | FlagPV)
	f |= uint8(r>>8) & (FlagX | FlagY)
	if r32 > 0xFFFF {
		f |= FlagC
	}
	if (acc&0x0FFF)+(val&0x0FFF) > 0x0FFF {
		f |= FlagH
	}
	c.regs[rF] = f
	return r
}

func (c *Z80) adc16(acc, val uint16) uint16 {
	carry := uint32(c.regs[rF] & FlagC)
	r32 := uint32(acc) + uint32(val) + carry
	r := uint16(r32)
	f := uint8(r>>8) & (FlagS | FlagX | FlagY)
	if r == 0 {
		f |= FlagZ
	}
	if r32 > 0xFFFF {
		f |= FlagC
	}
	if (acc&0x0FFF)+(val&0x0FFF)+uint16(carry) > 0x0FFF {
		f |= FlagH
	}
	if (acc^r)&(val^r)&0x8000 != 0 {
		f |= FlagPV
	}
	c.regs[rF] = f
	return r
}

func (c *Z80) sbc16(acc, val uint16) uint16 {
	carry := uint32(c.regs[rF] & FlagC)
	r32 := uint32(acc) - uint32(val) - carry
	r := uint16(r32)
	f := FlagN | uint8(r>>8)&(FlagS|FlagX|FlagY)
	if r == 0 {
		f |= FlagZ
	}
	if r32 > 0xFFFF {
		f |= FlagC
	}
	if int(acc&0x0FFF)-int(val&0x0FFF)-int(carry) < 0 {
		f |= FlagH
	}
	if (acc^val)&(acc^r)&0x8000 != 0 {
		f |= FlagPV
	}
	c.regs[rF] = f
	return r
}

// rot performs the eight CB-prefixed rotate/shift operations (RLC, RRC,
// RL, RR, SLA, SRA, SLL, SRL) with full flag results.
func (c *Z80) rot(op, v uint8) uint8 {
	var r uint8
	var carry bool
	switch op {
	case 0: // RLC
		carry = v&0x80 != 0
		r = v<<1 | v>>7
	case 1: // RRC
		carry = v&1 != 0
		r = v>>1 | v<<7
	case 2: // RL
		carry = v&0x80 != 0
		r = v << 1
		if c.regs[rF]&FlagC != 0 {
			r |= 1
		}
	case 3: // RR
		carry = v&1 != 0
		r = v >> 1
		if c.regs[rF]&FlagC != 0 {
			r |= 0x80
		}
	case 4: // SLA
		carry = v&0x80 != 0
		r = v << 1
	case 5: // SRA
		carry = v&1 != 0
		r = v&0x80 | v>>1
	case 6: // SLL (undocumented, shifts in a 1)
		carry = v&0x80 != 0
		r = v<<1 | 1
	case 7: // SRL
		carry = v&1 != 0
		r = v >> 1
	}
	f := sz53(r) | parity(r)
	if carry {
		f |= FlagC
	}
	c.regs[rF] = f
	return r
}

// rotA implements the 4-tick accumulator rotates RLCA, RRCA, RLA, RRA
// which only touch H, N, C (and X/Y from the accumulator).
func (c *Z80) rotA(op uint8) {
	a := c.regs[rA]
	var r uint8
	var carry bool
	switch op {
	case 0: // RLCA
		carry = a&0x80 != 0
		r = a<<1 | a>>7
	case 1: // RRCA
		carry = a&1 != 0
		r = a>>1 | a<<7
	case 2: // RLA
		carry = a&0x80 != 0
		r = a << 1
		if c.regs[rF]&FlagC != 0 {
			r |= 1
		}
	case 3: // RRA
		carry = a&1 != 0
		r = a >> 1
		if c.regs[rF]&FlagC != 0 {
			r |= 0x80
		}
	}
	f := c.regs[rF]&(FlagS|FlagZ|FlagPV) | r&(FlagX|FlagY)
	if carry {
		f |= FlagC
	}
	c.regs[rA] = r
	c.regs[rF] = f
}

// cbOp applies a CB-prefixed operation to a value. The second return
// value reports whether the result must be written back (false for BIT).
func (c *Z80) cbOp(op, v uint8) (uint8, bool) {
	x := op >> 6
	y := (op >> 3) & 7
	switch x {
	case 0:
		return c.rot(y, v), true
	case 1: // BIT y,v
		r := v & (1 << y)
		f := c.regs[rF]&FlagC | FlagH | v&(FlagX|FlagY)
		if r == 0 {
			f |= FlagZ | FlagPV
		}
		f |= r & FlagS
		c.regs[rF] = f
		return v, false
	case 2:
		return v &^ (1 << y), true
	default:
		return v | 1<<y, true
	}
}

func (c *Z80) daa() {
	a := c.regs[rA]
	f := c.regs[rF]
	var adjust uint8
	carry := f&FlagC != 0
	if f&FlagH != 0 || a&0x0F > 9 {
		adjust = 0x06
	}
	if carry || a > 0x99 {
		adjust |= 0x60
		carry = true
	}
	var r uint8
	var half bool
	if f&FlagN != 0 {
		half = f&FlagH != 0 && a&0x0F < 6
		r = a - adjust
	} else {
		half = a&0x0F > 9
		r = a + adjust
	}
	nf := sz53(r) | parity(r) | f&FlagN
	if carry {
		nf |= FlagC
	}
	if half {
		nf |= FlagH
	}
	c.regs[rA] = r
	c.regs[rF] = nf
}
