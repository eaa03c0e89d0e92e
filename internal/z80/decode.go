package z80

// The decoders translate a fetched opcode into an instruction plan.
// Decoding uses the regular structure of the Z80 opcode map: bits 6-7
// select the quadrant, bits 3-5 and 0-2 the row and column within it.

// regCode maps a 3-bit register operand field to a value code. Under a
// DD/FD prefix H and L refer to the halves of IX/IY.
func (c *Z80) regCode(z uint8) uint8 {
	if c.ixy != 0 {
		switch z {
		case rH:
			return rIXH + (c.ixy-1)*2
		case rL:
			return rIXL + (c.ixy-1)*2
		}
	}
	return z
}

// rpLoCode/rpHiCode map the BC,DE,HL,SP register pair field to the value
// codes of its low and high byte.
func (c *Z80) rpLoCode(p uint8) uint8 {
	switch p {
	case 0:
		return rC
	case 1:
		return rE
	case 2:
		return c.regCode(rL)
	default:
		return rSPl
	}
}

func (c *Z80) rpHiCode(p uint8) uint8 {
	switch p {
	case 0:
		return rB
	case 1:
		return rD
	case 2:
		return c.regCode(rH)
	default:
		return rSPh
	}
}

// rp2LoCode/rp2HiCode are the PUSH/POP variants where pair 3 is AF.
func (c *Z80) rp2LoCode(p uint8) uint8 {
	if p == 3 {
		return rF
	}
	return c.rpLoCode(p)
}

func (c *Z80) rp2HiCode(p uint8) uint8 {
	if p == 3 {
		return rA
	}
	return c.rpHiCode(p)
}

func (c *Z80) decodeMain(op uint8) {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	switch x {
	case 1:
		switch {
		case op == 0x76:
			c.exec(xHalt, 0)
		case y == 6: // LD (HL),r
			c.effHL()
			c.write(z) // the register partner of (IX+d) is never IXH/IXL
		case z == 6: // LD r,(HL)
			c.effHL()
			c.read(y)
		default:
			c.exec(xMov, c.regCode(y)<<4|c.regCode(z))
		}
	case 2: // ALU A,r
		if z == 6 {
			c.effHL()
			c.read(rDlatch)
			c.exec(xALU, y<<4|rDlatch)
		} else {
			c.exec(xALU, y<<4|c.regCode(z))
		}
	case 0:
		c.decodeX0(y, z, p, q)
	default:
		c.decodeX3(y, z, p, q)
	}
}

func (c *Z80) decodeX0(y, z, p, q uint8) {
	switch z {
	case 0:
		switch y {
		case 0: // NOP
		case 1: // EX AF,AF'
			c.exec(xExAF, 0)
		case 2: // DJNZ d
			c.internal(1)
			c.imm(rDlatch)
			c.exec(xDJNZ, 0)
			c.internal(5)
			c.exec(xJR, 0)
		case 3: // JR d
			c.imm(rDlatch)
			c.internal(5)
			c.exec(xJR, 0)
		default: // JR cc,d
			c.imm(rDlatch)
			c.exec(xCondEnd, y-4)
			c.internal(5)
			c.exec(xJR, 0)
		}
	case 1:
		if q == 0 { // LD rp,nn
			c.imm(c.rpLoCode(p))
			c.imm(c.rpHiCode(p))
		} else { // ADD HL,rp
			c.internal(7)
			c.exec(xAdd16, p)
		}
	case 2:
		switch y {
		case 0: // LD (BC),A
			c.exec(xAddrBC, 0)
			c.write(rA)
		case 1: // LD A,(BC)
			c.exec(xAddrBC, 0)
			c.read(rA)
		case 2: // LD (DE),A
			c.exec(xAddrDE, 0)
			c.write(rA)
		case 3: // LD A,(DE)
			c.exec(xAddrDE, 0)
			c.read(rA)
		case 4: // LD (nn),HL
			c.operandAddr()
			c.writeInc(c.rpLoCode(2))
			c.write(c.rpHiCode(2))
		case 5: // LD HL,(nn)
			c.operandAddr()
			c.readInc(c.rpLoCode(2))
			c.read(c.rpHiCode(2))
		case 6: // LD (nn),A
			c.operandAddr()
			c.write(rA)
		default: // LD A,(nn)
			c.operandAddr()
			c.read(rA)
		}
	case 3:
		c.internal(2)
		if q == 0 { // INC rp
			c.exec(xInc16, p)
		} else { // DEC rp
			c.exec(xDec16, p)
		}
	case 4: // INC r
		if y == 6 {
			c.effHL()
			c.add(sRead, rDlatch, 0, 4)
			c.exec(xInc, rDlatch)
			c.write(rDlatch)
		} else {
			c.exec(xInc, c.regCode(y))
		}
	case 5: // DEC r
		if y == 6 {
			c.effHL()
			c.add(sRead, rDlatch, 0, 4)
			c.exec(xDec, rDlatch)
			c.write(rDlatch)
		} else {
			c.exec(xDec, c.regCode(y))
		}
	case 6: // LD r,n
		switch {
		case y == 6 && c.ixy != 0: // LD (IX+d),n
			c.imm(rDSP)
			c.add(sImm, rDlatch, 0, 5)
			c.write(rDlatch)
		case y == 6: // LD (HL),n
			c.imm(rDlatch)
			c.exec(xAddrHL, 0)
			c.write(rDlatch)
		default:
			c.imm(c.regCode(y))
		}
	default:
		switch y {
		case 0, 1, 2, 3: // RLCA, RRCA, RLA, RRA
			c.exec(xRotA, y)
		case 4:
			c.exec(xDAA, 0)
		case 5:
			c.exec(xCPL, 0)
		case 6:
			c.exec(xSCF, 0)
		default:
			c.exec(xCCF, 0)
		}
	}
}

func (c *Z80) decodeX3(y, z, p, q uint8) {
	switch z {
	case 0: // RET cc
		c.internal(1)
		c.exec(xCondEnd, y)
		c.popWZ()
		c.exec(xJPWZ, 0)
	case 1:
		if q == 0 { // POP rp2
			c.exec(xAddrSPInc, 0)
			c.read(c.rp2LoCode(p))
			c.exec(xAddrSPInc, 0)
			c.read(c.rp2HiCode(p))
		} else {
			switch p {
			case 0: // RET
				c.popWZ()
				c.exec(xJPWZ, 0)
			case 1: // EXX
				c.exec(xExx, 0)
			case 2: // JP (HL)
				c.exec(xJPHL, 0)
			default: // LD SP,HL
				c.internal(2)
				c.exec(xSPHL, 0)
			}
		}
	case 2: // JP cc,nn
		c.imm(rZ)
		c.imm(rW)
		c.exec(xJPCondWZ, y)
	case 3:
		switch y {
		case 0: // JP nn
			c.imm(rZ)
			c.imm(rW)
			c.exec(xJPWZ, 0)
		case 1: // CB prefix
			if c.ixy == 0 {
				c.prefix = 0xCB
				c.contFetch = true
			} else {
				c.imm(rDSP)
				c.add(sOpCB, 0, 0, 5)
			}
		case 2: // OUT (n),A
			c.imm(rDlatch)
			c.exec(xAddrAN, 0)
			c.ioWrite(rA)
		case 3: // IN A,(n), no flags affected
			c.imm(rDlatch)
			c.exec(xAddrAN, 0)
			c.ioRead()
			c.exec(xMov, rA<<4|rDlatch)
		case 4: // EX (SP),HL
			c.exec(xAddrSP, 0)
			c.readInc(rZ)
			c.add(sRead, rW, 0, 4)
			c.add(sWrite, c.rpHiCode(2), 0, 3)
			c.exec(xAddrSP, 0)
			c.add(sWrite, c.rpLoCode(2), 0, 5)
			c.exec(xHLWZ, 0)
		case 5: // EX DE,HL
			c.exec(xExDEHL, 0)
		case 6:
			c.exec(xDI, 0)
		default:
			c.exec(xEI, 0)
		}
	case 4: // CALL cc,nn
		c.imm(rZ)
		c.imm(rW)
		c.exec(xCondEnd, y)
		c.internal(1)
		c.pushPC()
		c.exec(xJPWZ, 0)
	case 5:
		if q == 0 { // PUSH rp2
			c.internal(1)
			c.exec(xDecSPAddr, 0)
			c.write(c.rp2HiCode(p))
			c.exec(xDecSPAddr, 0)
			c.write(c.rp2LoCode(p))
		} else {
			switch p {
			case 0: // CALL nn
				c.imm(rZ)
				c.imm(rW)
				c.internal(1)
				c.pushPC()
				c.exec(xJPWZ, 0)
			case 1: // DD prefix
				c.ixy = 1
				c.contFetch = true
			case 2: // ED prefix
				c.prefix = 0xED
				c.ixy = 0
				c.contFetch = true
			default: // FD prefix
				c.ixy = 2
				c.contFetch = true
			}
		}
	case 6: // ALU A,n
		c.imm(rDlatch)
		c.exec(xALU, y<<4|rDlatch)
	default: // RST
		c.internal(1)
		c.pushPC()
		c.exec(xJPLit, y*8)
	}
}

// operandAddr fetches a 16-bit immediate into the operand address latch
// and makes it the effective bus address.
func (c *Z80) operandAddr() {
	c.imm(rZ)
	c.imm(rW)
	c.exec(xAddrWZ, 0)
}

// popWZ pops a 16-bit word off the stack into the operand address latch.
func (c *Z80) popWZ() {
	c.exec(xAddrSPInc, 0)
	c.read(rZ)
	c.exec(xAddrSPInc, 0)
	c.read(rW)
}

// pushPC pushes the current PC, high byte first.
func (c *Z80) pushPC() {
	c.exec(xDecSPAddr, 0)
	c.write(rPCh)
	c.exec(xDecSPAddr, 0)
	c.write(rPCl)
}

func (c *Z80) decodeCB(op uint8) {
	x := op >> 6
	z := op & 7
	if z == 6 {
		c.exec(xAddrHL, 0)
		c.add(sRead, rDlatch, 0, 4)
		c.exec(xCB, op)
		if x != 1 { // BIT has no writeback
			c.write(rDlatch)
		}
	} else {
		c.exec(xMov, rDlatch<<4|z)
		c.exec(xCB, op)
		if x != 1 {
			c.exec(xMov, z<<4|rDlatch)
		}
	}
}

// decodeDDCB handles the fourth byte of a DD/FD CB instruction; the
// displacement has already been fetched and turned into the effective
// address. It appends to the partially executed plan.
func (c *Z80) decodeDDCB(op uint8) {
	x := op >> 6
	z := op & 7
	c.add(sRead, rDlatch, 0, 4)
	c.exec(xCB, op)
	if x != 1 {
		c.write(rDlatch)
		if z != 6 { // undocumented: the result is also copied to a register
			c.exec(xMov, z<<4|rDlatch)
		}
	}
}

func (c *Z80) decodeED(op uint8) {
	x := op >> 6
	y := (op >> 3) & 7
	z := op & 7
	p := y >> 1
	q := y & 1

	if x == 2 {
		if y < 4 || z > 3 {
			return // NONI, behaves like NOP
		}
		c.decodeBlock(y, z)
		return
	}
	if x != 1 {
		return // NONI
	}

	switch z {
	case 0: // IN r,(C)
		dest := y
		if y == 6 {
			dest = 0xFF // flags only
		}
		c.exec(xAddrBC, 0)
		c.ioRead()
		c.exec(xInFlags, dest)
	case 1: // OUT (C),r
		src := y
		if y == 6 {
			src = rZero // undocumented OUT (C),0
		}
		c.exec(xAddrBC, 0)
		c.ioWrite(src)
	case 2: // SBC/ADC HL,rp
		c.internal(7)
		if q == 0 {
			c.exec(xSbc16, p)
		} else {
			c.exec(xAdc16, p)
		}
	case 3: // LD (nn),rp / LD rp,(nn)
		c.operandAddr()
		if q == 0 {
			c.writeInc(c.rpLoCode(p))
			c.write(c.rpHiCode(p))
		} else {
			c.readInc(c.rpLoCode(p))
			c.read(c.rpHiCode(p))
		}
	case 4: // NEG
		c.exec(xNeg, 0)
	case 5: // RETN, y == 1 is RETI
		c.popWZ()
		c.exec(xJPWZ, 0)
		if y == 1 {
			c.exec(xRetn, 1)
		} else {
			c.exec(xRetn, 0)
		}
	case 6: // IM
		switch y & 3 {
		case 2:
			c.exec(xIM, 1)
		case 3:
			c.exec(xIM, 2)
		default:
			c.exec(xIM, 0)
		}
	default:
		switch y {
		case 0: // LD I,A
			c.internal(1)
			c.exec(xLdIA, 0)
		case 1: // LD R,A
			c.internal(1)
			c.exec(xLdRA, 0)
		case 2: // LD A,I
			c.internal(1)
			c.exec(xLdAI, 0)
		case 3: // LD A,R
			c.internal(1)
			c.exec(xLdAR, 0)
		case 4: // RRD
			c.exec(xAddrHL, 0)
			c.read(rDlatch)
			c.internal(4)
			c.exec(xRRD, 0)
			c.write(rDlatch)
		case 5: // RLD
			c.exec(xAddrHL, 0)
			c.read(rDlatch)
			c.internal(4)
			c.exec(xRLD, 0)
			c.write(rDlatch)
		default: // NONI
		}
	}
}

// decodeBlock builds the plans for the LDI/CPI/INI/OUTI family; y bit 0
// selects the direction, y bit 1 the repeating variant.
func (c *Z80) decodeBlock(y, z uint8) {
	dir := y & 1
	repeat := y&2 != 0
	switch z {
	case 0: // LDI, LDD, LDIR, LDDR
		c.exec(xAddrHL, 0)
		c.read(rDlatch)
		c.exec(xAddrDE, 0)
		c.write(rDlatch)
		c.internal(2)
		c.exec(xBlockLd, dir)
		if repeat {
			c.exec(xBlockLdRep, 0)
			c.internal(5)
		}
	case 1: // CPI, CPD, CPIR, CPDR
		c.exec(xAddrHL, 0)
		c.read(rDlatch)
		c.internal(5)
		c.exec(xBlockCp, dir)
		if repeat {
			c.exec(xBlockCpRep, 0)
			c.internal(5)
		}
	case 2: // INI, IND, INIR, INDR
		c.internal(1)
		c.exec(xAddrBC, 0)
		c.ioRead()
		c.exec(xAddrHL, 0)
		c.write(rDlatch)
		c.exec(xBlockIn, dir)
		if repeat {
			c.exec(xBlockIORep, 0)
			c.internal(5)
		}
	default: // OUTI, OUTD, OTIR, OTDR
		c.internal(1)
		c.exec(xAddrHL, 0)
		c.read(rDlatch)
		c.exec(xBlockOut, dir)
		c.exec(xAddrBC, 0)
		c.ioWrite(rDlatch)
		if repeat {
			c.exec(xBlockIORep, 0)
			c.internal(5)
		}
	}
}
