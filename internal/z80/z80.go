// Package z80 emulates the Z80 CPU as a cycle-stepped state machine.
//
// The CPU does not own any memory or IO: all bus traffic flows through
// the pin word passed to Tick. When Tick returns with MREQ or IORQ
// asserted, the surrounding system is expected to service the request
// and present read data in the pin word of the next Tick call.
//
// Internally an instruction is a short plan of data-only micro steps
// (operand fetches, bus reads/writes, internal ticks, micro operations)
// that is rebuilt when an opcode has been fetched. Keeping the plan free
// of closures and pointers means a Z80 value can be copied with plain
// struct assignment at any tick, which the system snapshot codec relies
// on.
package z80

// value codes identify a register or internal latch as source or
// destination of a plan step
const (
	rB uint8 = iota // order matches the Z80 register encoding
	rC
	rD
	rE
	rH
	rL
	rF // Z80 encoding 6 is (HL) which is never a register operand
	rA
	rIXH
	rIXL
	rIYH
	rIYL
	rDlatch // data latch
	rZ      // operand address latch, low byte
	rW      // operand address latch, high byte
	rPCl
	rPCh
	rSPl
	rSPh
	rDSP  // writing this computes addr = IX/IY + signed displacement
	rZero // reads as constant zero
)

// plan step kinds
const (
	sImm    uint8 = iota // read at PC++ into value a
	sRead                // read at addr into value a, b != 0: addr++ after
	sWrite               // write value a at addr, b != 0: addr++ after
	sIORead              // IO read at addr into the data latch
	sIOWrite             // IO write value a at addr
	sInternal            // idle for n ticks
	sExec                // run micro operation a with argument b, no tick
	sOpCB                // read at PC++ and decode as DD/FD CB opcode
	sIntAck              // interrupt acknowledge cycle, vector into data latch
)

// micro operations executed by sExec steps
const (
	xMov        uint8 = iota // value b>>4 = value b&15
	xALU                     // ALU operation b>>4 on A with value b&15
	xInc                     // value b = value b + 1 (INC flags)
	xDec                     // value b = value b - 1 (DEC flags)
	xAddrBC                  // addr = BC
	xAddrDE                  // addr = DE
	xAddrHL                  // addr = HL (or IX/IY under a prefix)
	xAddrWZ                  // addr = operand address latch
	xAddrSP                  // addr = SP
	xAddrSPInc               // addr = SP, SP++
	xDecSPAddr               // SP--, addr = SP
	xAddrAN                  // addr = A<<8 | data latch
	xAddrIM2                 // addr = I<<8 | data latch
	xJPWZ                    // PC = operand address latch
	xJPCondWZ                // PC = operand address latch if condition b
	xJPLit                   // PC = b
	xJPHL                    // PC = HL (or IX/IY under a prefix)
	xJR                      // PC += signed data latch
	xCondEnd                 // end the plan unless condition b holds
	xDJNZ                    // B--, end the plan if B == 0
	xInc16                   // register pair b += 1
	xDec16                   // register pair b -= 1
	xAdd16                   // HL += register pair b
	xAdc16                   // HL = HL adc register pair b
	xSbc16                   // HL = HL sbc register pair b
	xSPHL                    // SP = HL
	xHLWZ                    // HL = operand address latch
	xExDEHL                  // EX DE,HL
	xExAF                    // EX AF,AF'
	xExx                     // EXX
	xInFlags                 // value b = data latch with IN flags (0xFF: discard)
	xCB                      // CB operation b on the data latch
	xRRD
	xRLD
	xDAA
	xCPL
	xSCF
	xCCF
	xNeg
	xRotA // accumulator rotate b (RLCA, RRCA, RLA, RRA)
	xDI
	xEI
	xIM   // interrupt mode = b
	xHalt
	xRetn // IFF1 = IFF2, b != 0 also emits the RETI pin
	xLdIA // I = A
	xLdRA // R = A
	xLdAI // A = I with interrupt state flags
	xLdAR // A = R with interrupt state flags

	// block transfer micro operations; b selects the direction
	// (0: increment, 1: decrement), the Rep variants are the repeat
	// checks that rewind PC or end the plan
	xBlockLd
	xBlockLdRep
	xBlockCp
	xBlockCpRep
	xBlockIn
	xBlockOut
	xBlockIORep
)

// execution modes
const (
	modeFetch uint8 = iota // M1 opcode fetch in progress
	modePlan               // stepping through the instruction plan
	modeHalt               // HALT executed, waiting for an interrupt
)

const planCap = 12

type step struct {
	kind uint8
	a    uint8
	b    uint8
	n    uint8 // tick length
}

// Z80 is the CPU state. The zero value is not usable, call Init first.
type Z80 struct {
	regs           [8]uint8 // B C D E H L F A
	a2, f2         uint8    // shadow AF
	bc2, de2, hl2  uint16   // shadow register pairs
	ix, iy, sp, pc uint16
	i, r           uint8
	im             uint8
	iff1, iff2     bool

	mode      uint8
	phase     uint8 // tick within the current machine cycle
	opcode    uint8
	prefix    uint8 // 0xCB or 0xED pending for the next fetch
	ixy       uint8 // 0: HL, 1: IX, 2: IY
	contFetch bool  // prefix seen, next fetch belongs to this instruction

	plan   [planCap]step
	nsteps uint8
	istep  uint8

	dlatch uint8  // data latch for bus reads
	addr   uint16 // effective bus address
	wz     uint16 // operand address latch

	eiDelay     bool // EI executed, interrupts enabled after next instruction
	halted      bool
	retiPending bool
	lastNMI     bool
}

// Init puts the CPU into its power-on state.
func (c *Z80) Init() {
	*c = Z80{}
	c.regs[rA] = 0xFF
	c.regs[rF] = 0xFF
	c.sp = 0xFFFF
	c.mode = modeFetch
}

// Reset performs a hardware reset: PC, I, R and the interrupt state are
// cleared, execution resumes at address 0.
func (c *Z80) Reset() {
	c.regs[rA] = 0xFF
	c.regs[rF] = 0xFF
	c.sp = 0xFFFF
	c.pc = 0
	c.wz = 0
	c.i = 0
	c.r = 0
	c.im = 0
	c.iff1 = false
	c.iff2 = false
	c.eiDelay = false
	c.halted = false
	c.mode = modeFetch
	c.phase = 0
	c.prefix = 0
	c.ixy = 0
	c.contFetch = false
	c.nsteps = 0
	c.istep = 0
}

// Prefetch redirects execution to addr: the next Tick starts the opcode
// fetch there. The returned pin word must be passed to that Tick call.
func (c *Z80) Prefetch(addr uint16) uint64 {
	c.pc = addr
	c.mode = modeFetch
	c.phase = 0
	c.prefix = 0
	c.ixy = 0
	c.contFetch = false
	c.nsteps = 0
	c.istep = 0
	c.halted = false
	c.eiDelay = false
	return SetAddr(PinM1|PinMREQ|PinRD, addr)
}

// Tick advances the CPU by one clock cycle.
//
// INT is level-triggered and dropped from the returned pin word every
// cycle; a requesting device must keep driving it on its own tick until
// the acknowledge cycle.
func (c *Z80) Tick(pins uint64) uint64 {
	out := pins &^ (PinM1 | PinMREQ | PinIORQ | PinRD | PinWR | PinRFSH | PinHALT | PinINT | PinRETI)
	if c.retiPending {
		out |= PinRETI
		c.retiPending = false
	}
	for {
		switch c.mode {
		case modeFetch:
			return c.tickFetch(pins, out)
		case modePlan:
			if c.istep >= c.nsteps {
				c.begin(pins)
				continue
			}
			st := &c.plan[c.istep]
			if st.kind == sExec {
				c.istep++
				c.phase = 0
				c.doExec(st.a, st.b)
				continue
			}
			return c.tickStep(st, pins, out)
		default: // modeHalt
			nmi := pins&PinNMI != 0
			if (pins&PinINT != 0 && c.iff1) || (nmi && !c.lastNMI) {
				c.begin(pins)
				continue
			}
			c.lastNMI = nmi
			return out | PinHALT
		}
	}
}

// begin starts the next instruction: it samples the interrupt pins at
// the instruction boundary and either builds an interrupt acceptance
// plan or falls through to a regular opcode fetch.
func (c *Z80) begin(pins uint64) {
	c.ixy = 0
	c.prefix = 0
	c.contFetch = false
	c.nsteps = 0
	c.istep = 0
	c.phase = 0
	c.mode = modeFetch

	eiDelay := c.eiDelay
	c.eiDelay = false

	nmi := pins&PinNMI != 0
	nmiEdge := nmi && !c.lastNMI
	c.lastNMI = nmi

	switch {
	case nmiEdge:
		c.halted = false
		c.iff2 = c.iff1
		c.iff1 = false
		c.mode = modePlan
		c.internal(5)
		c.exec(xDecSPAddr, 0)
		c.add(sWrite, rPCh, 0, 3)
		c.exec(xDecSPAddr, 0)
		c.add(sWrite, rPCl, 0, 3)
		c.exec(xJPLit, 0x66)
	case pins&PinINT != 0 && c.iff1 && !eiDelay:
		c.halted = false
		c.iff1 = false
		c.iff2 = false
		c.mode = modePlan
		c.add(sIntAck, 0, 0, 7)
		c.exec(xDecSPAddr, 0)
		c.add(sWrite, rPCh, 0, 3)
		c.exec(xDecSPAddr, 0)
		c.add(sWrite, rPCl, 0, 3)
		if c.im == 2 {
			c.exec(xAddrIM2, 0)
			c.add(sRead, rPCl, 1, 3)
			c.add(sRead, rPCh, 0, 3)
		} else {
			// IM 0 is treated like IM 1: the acknowledge cycle runs,
			// the data bus byte is ignored and RST 38h executes
			c.exec(xJPLit, 0x38)
		}
	case c.halted:
		c.mode = modeHalt
	}
}

func (c *Z80) tickFetch(pins, out uint64) uint64 {
	switch c.phase {
	case 0:
		out = SetAddr(out, c.pc) | PinM1 | PinMREQ | PinRD
		c.pc++
		c.phase = 1
	case 1:
		c.opcode = GetData(pins)
		c.r = c.r&0x80 | (c.r+1)&0x7F
		switch c.prefix {
		case 0xCB:
			c.decodeCB(c.opcode)
		case 0xED:
			c.decodeED(c.opcode)
		default:
			c.decodeMain(c.opcode)
		}
		c.phase = 2
	case 2:
		out = SetAddr(out, uint16(c.i)<<8|uint16(c.r)) | PinMREQ | PinRFSH
		c.phase = 3
	default:
		c.phase = 0
		switch {
		case c.contFetch:
			c.contFetch = false // next M1 fetches the prefixed opcode
		case c.nsteps > 0 && c.planBusFree():
			// an instruction without bus or internal cycles completes
			// within its own opcode fetch
			for c.istep < c.nsteps {
				st := &c.plan[c.istep]
				c.istep++
				c.doExec(st.a, st.b)
			}
			c.begin(pins)
			if c.mode == modeHalt {
				out |= PinHALT
			}
		case c.nsteps > 0:
			c.mode = modePlan
		default:
			c.begin(pins)
		}
	}
	return out
}

// planBusFree reports whether the remaining instruction plan consists
// only of zero-tick micro operations.
func (c *Z80) planBusFree() bool {
	for i := c.istep; i < c.nsteps; i++ {
		if c.plan[i].kind != sExec {
			return false
		}
	}
	return true
}

func (c *Z80) tickStep(st *step, pins, out uint64) uint64 {
	switch c.phase {
	case 0:
		switch st.kind {
		case sImm, sOpCB:
			out = SetAddr(out, c.pc) | PinMREQ | PinRD
			c.pc++
		case sRead:
			out = SetAddr(out, c.addr) | PinMREQ | PinRD
		case sWrite:
			out = SetData(SetAddr(out, c.addr)|PinMREQ|PinWR, c.getVal(st.a))
			if st.b != 0 {
				c.addr++
			}
		case sIORead:
			out = SetAddr(out, c.addr) | PinIORQ | PinRD
		case sIOWrite:
			out = SetData(SetAddr(out, c.addr)|PinIORQ|PinWR, c.getVal(st.a))
		case sIntAck:
			out = SetAddr(out, c.pc) | PinM1 | PinIORQ
		}
	case 1:
		switch st.kind {
		case sImm:
			c.setVal(st.a, GetData(pins))
		case sOpCB:
			c.decodeDDCB(GetData(pins))
		case sRead:
			c.setVal(st.a, GetData(pins))
			if st.b != 0 {
				c.addr++
			}
		case sIORead, sIntAck:
			c.dlatch = GetData(pins)
		}
	}
	c.phase++
	if c.phase >= st.n {
		c.istep++
		c.phase = 0
	}
	return out
}

// plan construction helpers

func (c *Z80) add(kind, a, b, n uint8) {
	c.plan[c.nsteps] = step{kind: kind, a: a, b: b, n: n}
	c.nsteps++
}

func (c *Z80) imm(dest uint8)     { c.add(sImm, dest, 0, 3) }
func (c *Z80) read(dest uint8)    { c.add(sRead, dest, 0, 3) }
func (c *Z80) readInc(dest uint8) { c.add(sRead, dest, 1, 3) }
func (c *Z80) write(src uint8)    { c.add(sWrite, src, 0, 3) }
func (c *Z80) writeInc(src uint8) { c.add(sWrite, src, 1, 3) }
func (c *Z80) ioRead()            { c.add(sIORead, 0, 0, 4) }
func (c *Z80) ioWrite(src uint8)  { c.add(sIOWrite, src, 0, 4) }
func (c *Z80) internal(n uint8)   { c.add(sInternal, 0, 0, n) }
func (c *Z80) exec(id, b uint8)   { c.add(sExec, id, b, 0) }

// effHL prepares addr for a (HL) access; under DD/FD this fetches the
// displacement byte and burns the address calculation ticks.
func (c *Z80) effHL() {
	if c.ixy == 0 {
		c.exec(xAddrHL, 0)
	} else {
		c.imm(rDSP)
		c.internal(5)
	}
}

// value and register pair access

func (c *Z80) getVal(code uint8) uint8 {
	switch code {
	case rIXH:
		return uint8(c.ix >> 8)
	case rIXL:
		return uint8(c.ix)
	case rIYH:
		return uint8(c.iy >> 8)
	case rIYL:
		return uint8(c.iy)
	case rDlatch:
		return c.dlatch
	case rZ:
		return uint8(c.wz)
	case rW:
		return uint8(c.wz >> 8)
	case rPCl:
		return uint8(c.pc)
	case rPCh:
		return uint8(c.pc >> 8)
	case rSPl:
		return uint8(c.sp)
	case rSPh:
		return uint8(c.sp >> 8)
	case rZero:
		return 0
	default:
		return c.regs[code]
	}
}

func (c *Z80) setVal(code, v uint8) {
	switch code {
	case rIXH:
		c.ix = c.ix&0x00FF | uint16(v)<<8
	case rIXL:
		c.ix = c.ix&0xFF00 | uint16(v)
	case rIYH:
		c.iy = c.iy&0x00FF | uint16(v)<<8
	case rIYL:
		c.iy = c.iy&0xFF00 | uint16(v)
	case rDlatch:
		c.dlatch = v
	case rZ:
		c.wz = c.wz&0xFF00 | uint16(v)
	case rW:
		c.wz = c.wz&0x00FF | uint16(v)<<8
	case rPCl:
		c.pc = c.pc&0xFF00 | uint16(v)
	case rPCh:
		c.pc = c.pc&0x00FF | uint16(v)<<8
	case rSPl:
		c.sp = c.sp&0xFF00 | uint16(v)
	case rSPh:
		c.sp = c.sp&0x00FF | uint16(v)<<8
	case rDSP:
		c.addr = c.ixyPair() + uint16(int16(int8(v)))
	default:
		c.regs[code] = v
	}
}

func (c *Z80) bc() uint16      { return uint16(c.regs[rB])<<8 | uint16(c.regs[rC]) }
func (c *Z80) de() uint16      { return uint16(c.regs[rD])<<8 | uint16(c.regs[rE]) }
func (c *Z80) hl() uint16      { return uint16(c.regs[rH])<<8 | uint16(c.regs[rL]) }
func (c *Z80) setBC(v uint16)  { c.regs[rB] = uint8(v >> 8); c.regs[rC] = uint8(v) }
func (c *Z80) setDE(v uint16)  { c.regs[rD] = uint8(v >> 8); c.regs[rE] = uint8(v) }
func (c *Z80) setHL(v uint16)  { c.regs[rH] = uint8(v >> 8); c.regs[rL] = uint8(v) }

// ixyPair returns HL, IX or IY depending on the active prefix.
func (c *Z80) ixyPair() uint16 {
	switch c.ixy {
	case 1:
		return c.ix
	case 2:
		return c.iy
	default:
		return c.hl()
	}
}

func (c *Z80) setIxyPair(v uint16) {
	switch c.ixy {
	case 1:
		c.ix = v
	case 2:
		c.iy = v
	default:
		c.setHL(v)
	}
}

// rpGet/rpSet access the BC,DE,HL,SP register pair group; index 2 is
// prefix-aware.
func (c *Z80) rpGet(i uint8) uint16 {
	switch i {
	case 0:
		return c.bc()
	case 1:
		return c.de()
	case 2:
		return c.ixyPair()
	default:
		return c.sp
	}
}

func (c *Z80) rpSet(i uint8, v uint16) {
	switch i {
	case 0:
		c.setBC(v)
	case 1:
		c.setDE(v)
	case 2:
		c.setIxyPair(v)
	default:
		c.sp = v
	}
}

// cond evaluates the Z80 condition codes NZ,Z,NC,C,PO,PE,P,M.
func (c *Z80) cond(cc uint8) bool {
	f := c.regs[rF]
	var set bool
	switch cc >> 1 {
	case 0:
		set = f&FlagZ != 0
	case 1:
		set = f&FlagC != 0
	case 2:
		set = f&FlagPV != 0
	default:
		set = f&FlagS != 0
	}
	return set == (cc&1 != 0)
}

// doExec runs one micro operation of the instruction plan.
func (c *Z80) doExec(id, b uint8) {
	switch id {
	case xMov:
		c.setVal(b>>4, c.getVal(b&0x0F))
	case xALU:
		c.alu8(b>>4, c.getVal(b&0x0F))
	case xInc:
		c.setVal(b, c.inc8(c.getVal(b)))
	case xDec:
		c.setVal(b, c.dec8(c.getVal(b)))
	case xAddrBC:
		c.addr = c.bc()
	case xAddrDE:
		c.addr = c.de()
	case xAddrHL:
		c.addr = c.hl()
	case xAddrWZ:
		c.addr = c.wz
	case xAddrSP:
		c.addr = c.sp
	case xAddrSPInc:
		c.addr = c.sp
		c.sp++
	case xDecSPAddr:
		c.sp--
		c.addr = c.sp
	case xAddrAN:
		c.addr = uint16(c.regs[rA])<<8 | uint16(c.dlatch)
	case xAddrIM2:
		c.addr = uint16(c.i)<<8 | uint16(c.dlatch)
	case xJPWZ:
		c.pc = c.wz
	case xJPCondWZ:
		if c.cond(b) {
			c.pc = c.wz
		}
	case xJPLit:
		c.pc = uint16(b)
	case xJPHL:
		c.pc = c.ixyPair()
	case xJR:
		c.pc += uint16(int16(int8(c.dlatch)))
	case xCondEnd:
		if !c.cond(b) {
			c.istep = c.nsteps
		}
	case xDJNZ:
		c.regs[rB]--
		if c.regs[rB] == 0 {
			c.istep = c.nsteps
		}
	case xInc16:
		c.rpSet(b, c.rpGet(b)+1)
	case xDec16:
		c.rpSet(b, c.rpGet(b)-1)
	case xAdd16:
		c.setIxyPair(c.add16(c.ixyPair(), c.rpGet(b)))
	case xAdc16:
		c.setHL(c.adc16(c.hl(), c.rpGet(b)))
	case xSbc16:
		c.setHL(c.sbc16(c.hl(), c.rpGet(b)))
	case xSPHL:
		c.sp = c.ixyPair()
	case xHLWZ:
		c.setIxyPair(c.wz)
	case xExDEHL:
		// the DD/FD prefix does not apply to EX DE,HL
		de, hl := c.de(), c.hl()
		c.setDE(hl)
		c.setHL(de)
	case xExAF:
		c.regs[rA], c.a2 = c.a2, c.regs[rA]
		c.regs[rF], c.f2 = c.f2, c.regs[rF]
	case xExx:
		bc, de, hl := c.bc(), c.de(), c.hl()
		c.setBC(c.bc2)
		c.setDE(c.de2)
		c.setHL(c.hl2)
		c.bc2, c.de2, c.hl2 = bc, de, hl
	case xInFlags:
		v := c.dlatch
		c.regs[rF] = sz53(v) | parity(v) | c.regs[rF]&FlagC
		if b != 0xFF {
			c.setVal(b, v)
		}
	case xCB:
		c.dlatch, _ = c.cbOp(b, c.dlatch)
	case xRRD:
		a := c.regs[rA]
		v := c.dlatch
		c.dlatch = a<<4 | v>>4
		a = a&0xF0 | v&0x0F
		c.regs[rA] = a
		c.regs[rF] = sz53(a) | parity(a) | c.regs[rF]&FlagC
	case xRLD:
		a := c.regs[rA]
		v := c.dlatch
		c.dlatch = v<<4 | a&0x0F
		a = a&0xF0 | v>>4
		c.regs[rA] = a
		c.regs[rF] = sz53(a) | parity(a) | c.regs[rF]&FlagC
	case xDAA:
		c.daa()
	case xCPL:
		a := ^c.regs[rA]
		c.regs[rA] = a
		c.regs[rF] = c.regs[rF]&(FlagS|FlagZ|FlagPV|FlagC) | FlagH | FlagN | a&(FlagX|FlagY)
	case xSCF:
		c.regs[rF] = c.regs[rF]&(FlagS|FlagZ|FlagPV) | FlagC | c.regs[rA]&(FlagX|FlagY)
	case xCCF:
		f := c.regs[rF]&(FlagS|FlagZ|FlagPV) | c.regs[rA]&(FlagX|FlagY)
		if c.regs[rF]&FlagC != 0 {
			f |= FlagH
		} else {
			f |= FlagC
		}
		c.regs[rF] = f
	case xNeg:
		a := c.regs[rA]
		c.regs[rA] = 0
		c.sub8(a, 0)
	case xRotA:
		c.rotA(b)
	case xDI:
		c.iff1 = false
		c.iff2 = false
	case xEI:
		c.iff1 = true
		c.iff2 = true
		c.eiDelay = true
	case xIM:
		c.im = b
	case xHalt:
		c.halted = true
	case xRetn:
		c.iff1 = c.iff2
		if b != 0 {
			c.retiPending = true
		}
	case xLdIA:
		c.i = c.regs[rA]
	case xLdRA:
		c.r = c.regs[rA]
	case xLdAI:
		c.regs[rA] = c.i
		c.ldAIRFlags()
	case xLdAR:
		c.regs[rA] = c.r
		c.ldAIRFlags()
	case xBlockLd:
		c.blockLd(b)
	case xBlockLdRep:
		if c.bc() != 0 {
			c.pc -= 2
		} else {
			c.istep = c.nsteps
		}
	case xBlockCp:
		c.blockCp(b)
	case xBlockCpRep:
		if c.bc() != 0 && c.regs[rF]&FlagZ == 0 {
			c.pc -= 2
		} else {
			c.istep = c.nsteps
		}
	case xBlockIn:
		c.blockIn(b)
	case xBlockOut:
		c.blockOut(b)
	case xBlockIORep:
		if c.regs[rB] != 0 {
			c.pc -= 2
		} else {
			c.istep = c.nsteps
		}
	}
}

func (c *Z80) ldAIRFlags() {
	f := sz53(c.regs[rA]) | c.regs[rF]&FlagC
	if c.iff2 {
		f |= FlagPV
	}
	c.regs[rF] = f
}

func (c *Z80) blockLd(dir uint8) {
	hl, de := c.hl(), c.de()
	if dir == 0 {
		hl++
		de++
	} else {
		hl--
		de--
	}
	c.setHL(hl)
	c.setDE(de)
	bc := c.bc() - 1
	c.setBC(bc)
	// X/Y come from the transferred byte plus A
	n := c.dlatch + c.regs[rA]
	f := c.regs[rF] & (FlagS | FlagZ | FlagC)
	if n&0x08 != 0 {
		f |= FlagX
	}
	if n&0x02 != 0 {
		f |= FlagY
	}
	if bc != 0 {
		f |= FlagPV
	}
	c.regs[rF] = f
}

func (c *Z80) blockCp(dir uint8) {
	hl := c.hl()
	if dir == 0 {
		hl++
	} else {
		hl--
	}
	c.setHL(hl)
	bc := c.bc() - 1
	c.setBC(bc)
	a := c.regs[rA]
	r := a - c.dlatch
	f := c.regs[rF]&FlagC | FlagN | r&FlagS
	if r == 0 {
		f |= FlagZ
	}
	if a&0x0F < c.dlatch&0x0F {
		f |= FlagH
	}
	n := r
	if f&FlagH != 0 {
		n--
	}
	if n&0x08 != 0 {
		f |= FlagX
	}
	if n&0x02 != 0 {
		f |= FlagY
	}
	if bc != 0 {
		f |= FlagPV
	}
	c.regs[rF] = f
}

func (c *Z80) blockIn(dir uint8) {
	c.regs[rB]--
	hl := c.hl()
	var t uint16
	if dir == 0 {
		hl++
		t = uint16(c.dlatch) + uint16(c.regs[rC]+1)
	} else {
		hl--
		t = uint16(c.dlatch) + uint16(c.regs[rC]-1)
	}
	c.setHL(hl)
	f := sz53(c.regs[rB])
	if c.dlatch&0x80 != 0 {
		f |= FlagN
	}
	if t > 0xFF {
		f |= FlagH | FlagC
	}
	f |= parity(uint8(t&7) ^ c.regs[rB])
	c.regs[rF] = f
}

func (c *Z80) blockOut(dir uint8) {
	c.regs[rB]--
	hl := c.hl()
	if dir == 0 {
		hl++
	} else {
		hl--
	}
	c.setHL(hl)
	t := uint16(c.dlatch) + uint16(c.regs[rL])
	f := sz53(c.regs[rB])
	if c.dlatch&0x80 != 0 {
		f |= FlagN
	}
	if t > 0xFF {
		f |= FlagH | FlagC
	}
	f |= parity(uint8(t&7) ^ c.regs[rB])
	c.regs[rF] = f
}

// register accessors for loaders, debuggers and tests

func (c *Z80) PC() uint16 { return c.pc }
func (c *Z80) SP() uint16 { return c.sp }
func (c *Z80) AF() uint16 { return uint16(c.regs[rA])<<8 | uint16(c.regs[rF]) }
func (c *Z80) BC() uint16 { return c.bc() }
func (c *Z80) DE() uint16 { return c.de() }
func (c *Z80) HL() uint16 { return c.hl() }
func (c *Z80) IX() uint16 { return c.ix }
func (c *Z80) IY() uint16 { return c.iy }

func (c *Z80) SetSP(v uint16) { c.sp = v }
func (c *Z80) SetAF(v uint16) { c.regs[rA] = uint8(v >> 8); c.regs[rF] = uint8(v) }
func (c *Z80) SetBC(v uint16) { c.setBC(v) }
func (c *Z80) SetDE(v uint16) { c.setDE(v) }
func (c *Z80) SetHL(v uint16) { c.setHL(v) }
func (c *Z80) SetIX(v uint16) { c.ix = v }
func (c *Z80) SetIY(v uint16) { c.iy = v }

// SetAF2, SetBC2, SetDE2, SetHL2 load the shadow register bank.
func (c *Z80) SetAF2(v uint16) { c.a2 = uint8(v >> 8); c.f2 = uint8(v) }
func (c *Z80) SetBC2(v uint16) { c.bc2 = v }
func (c *Z80) SetDE2(v uint16) { c.de2 = v }
func (c *Z80) SetHL2(v uint16) { c.hl2 = v }

// Halted reports whether the CPU sits in the HALT state.
func (c *Z80) Halted() bool { return c.mode == modeHalt }

// IM returns the current interrupt mode.
func (c *Z80) IM() uint8 { return c.im }

// SetIM sets the interrupt mode without executing an instruction.
func (c *Z80) SetIM(im uint8) { c.im = im }

// SetIFF sets both interrupt enable flip-flops.
func (c *Z80) SetIFF(enabled bool) {
	c.iff1 = enabled
	c.iff2 = enabled
}
