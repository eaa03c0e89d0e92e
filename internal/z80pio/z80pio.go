// Package z80pio emulates the Z80 PIO parallel I/O chip.
//
// The PIO has two 8-bit ports. Port A supports output, input and
// bidirectional mode, both ports support bit-control mode where the
// direction of every pin is programmable and a programmable logic
// condition over the input pins can request an interrupt. Both ports are
// stages in the Z80 interrupt daisy chain, port A before port B.
//
// Port pins are carried in the shared pin word (bits 48..55 for port A,
// 56..63 for port B) so the system can wire them to other hardware, like
// the Z9001 does with its keyboard matrix.
package z80pio

import "github.com/dvoelker/z9001/internal/z80"

const (
	PortA    = 0
	PortB    = 1
	NumPorts = 2
)

// chip-specific pins
const (
	PinCE    uint64 = 1 << 40 // chip enable
	PinBASel uint64 = 1 << 41 // 0: port A, 1: port B
	PinCDSel uint64 = 1 << 42 // 0: data, 1: control

	PinARDY uint64 = 1 << 43 // register A ready
	PinBRDY uint64 = 1 << 44 // register B ready
	PinASTB uint64 = 1 << 45 // port A strobe
	PinBSTB uint64 = 1 << 46 // port B strobe

	portAShift = 48
	portBShift = 56
)

// operating modes
const (
	ModeOutput        uint8 = 0
	ModeInput         uint8 = 1
	ModeBidirectional uint8 = 2
	ModeBitControl    uint8 = 3
)

// interrupt control word bits
const (
	IntctrlEI          uint8 = 1 << 7 // interrupt enable
	IntctrlANDOR       uint8 = 1 << 6 // 1: AND all monitored bits, 0: OR
	IntctrlHILO        uint8 = 1 << 5 // 1: monitor for high, 0: for low
	intctrlMaskFollows uint8 = 1 << 4
)

// interrupt daisy-chain state bits
const (
	intNeeded    uint8 = 1 << 0
	intRequested uint8 = 1 << 1
	intServiced  uint8 = 1 << 2
)

// Port is one PIO port. Fields are exported for inspection; mutate only
// through the chip tick.
type Port struct {
	Input      uint8 // data received from the port pins
	Output     uint8 // data driven onto the port pins
	Mode       uint8
	IOSelect   uint8 // bit-control direction mask, 1 bit = input
	IntVector  uint8
	IntControl uint8
	IntMask    uint8

	expectIOSelect bool
	expectIntMask  bool
	bctrlMatch     bool
	intState       uint8
}

// PIO is a Z80 PIO chip. The zero value is unusable, call Init first.
type PIO struct {
	Ports [NumPorts]Port
	Reset bool // chip is in reset state until the first control write
}

// SetPorts places port input data in the pin word.
func SetPorts(pins uint64, pa, pb uint8) uint64 {
	pins &^= uint64(0xFF)<<portAShift | uint64(0xFF)<<portBShift
	return pins | uint64(pa)<<portAShift | uint64(pb)<<portBShift
}

// GetPortA returns the port A pins.
func GetPortA(pins uint64) uint8 {
	return uint8(pins >> portAShift)
}

// GetPortB returns the port B pins.
func GetPortB(pins uint64) uint8 {
	return uint8(pins >> portBShift)
}

// Init puts the chip into its power-on state.
func (p *PIO) Init() {
	*p = PIO{}
	p.DoReset()
}

// DoReset implements the hardware reset: modes to input, interrupts
// disabled, output registers cleared.
func (p *PIO) DoReset() {
	p.Reset = true
	for i := range p.Ports {
		port := &p.Ports[i]
		port.Mode = ModeInput
		port.Output = 0
		port.IOSelect = 0
		port.IntControl &^= IntctrlEI
		port.IntMask = 0xFF
		port.expectIOSelect = false
		port.expectIntMask = false
		port.bctrlMatch = false
		port.intState = 0
	}
}

// Tick advances the chip by one system clock cycle.
func (p *PIO) Tick(pins uint64) uint64 {
	// latch port input pins and check the bit-control interrupt
	// condition before any register access
	p.setPortInput(PortA, GetPortA(pins))
	p.setPortInput(PortB, GetPortB(pins))

	// IO requests (not during an interrupt acknowledge cycle)
	if pins&(PinCE|z80.PinIORQ|z80.PinM1) == PinCE|z80.PinIORQ {
		portIndex := PortA
		if pins&PinBASel != 0 {
			portIndex = PortB
		}
		switch {
		case pins&z80.PinRD != 0 && pins&PinCDSel == 0:
			pins = z80.SetData(pins, p.readData(portIndex))
		case pins&z80.PinRD != 0:
			pins = z80.SetData(pins, p.readControl())
		case pins&z80.PinWR != 0 && pins&PinCDSel == 0:
			p.writeData(portIndex, z80.GetData(pins))
		case pins&z80.PinWR != 0:
			p.writeControl(portIndex, z80.GetData(pins))
		}
	}

	// drive the port output pins
	pins = SetPorts(pins, p.portPins(PortA), p.portPins(PortB))

	// interrupt daisy chain, port A before port B
	for i := range p.Ports {
		pins = p.Ports[i].daisyChain(pins)
	}
	return pins
}

// portPins computes the value visible on a port's pins: output register
// bits where the port drives, input pin state where it listens.
func (p *PIO) portPins(portIndex int) uint8 {
	port := &p.Ports[portIndex]
	switch port.Mode {
	case ModeOutput, ModeBidirectional:
		return port.Output
	case ModeBitControl:
		return port.Output&^port.IOSelect | port.Input&port.IOSelect
	default:
		return port.Input
	}
}

func (p *PIO) setPortInput(portIndex int, data uint8) {
	port := &p.Ports[portIndex]
	port.Input = data
	if port.Mode != ModeBitControl {
		return
	}
	// programmable logic condition over the monitored input bits; an
	// interrupt is requested on a low-to-high transition of the match
	monitored := ^port.IntMask
	value := port.portValueBitControl() & monitored
	if port.IntControl&IntctrlHILO == 0 {
		value = ^value & monitored
	}
	var match bool
	if port.IntControl&IntctrlANDOR != 0 {
		match = value == monitored && monitored != 0
	} else {
		match = value != 0
	}
	if match && !port.bctrlMatch && port.IntControl&IntctrlEI != 0 {
		port.intState |= intNeeded
	}
	port.bctrlMatch = match
}

func (port *Port) portValueBitControl() uint8 {
	return port.Input&port.IOSelect | port.Output&^port.IOSelect
}

func (p *PIO) readData(portIndex int) uint8 {
	port := &p.Ports[portIndex]
	switch port.Mode {
	case ModeOutput:
		return port.Output
	case ModeBitControl:
		return port.portValueBitControl()
	default:
		return port.Input
	}
}

// readControl returns the combined interrupt control state of both
// ports, as on the real chip.
func (p *PIO) readControl() uint8 {
	return p.Ports[PortA].IntControl&0xC0 | p.Ports[PortB].IntControl>>4
}

func (p *PIO) writeData(portIndex int, data uint8) {
	port := &p.Ports[portIndex]
	port.Output = data
	if port.Mode == ModeBitControl {
		// an output write can change the interrupt condition
		p.setPortInput(portIndex, port.Input)
	}
}

func (p *PIO) writeControl(portIndex int, data uint8) {
	p.Reset = false
	port := &p.Ports[portIndex]
	switch {
	case port.expectIOSelect:
		port.IOSelect = data
		port.expectIOSelect = false
	case port.expectIntMask:
		port.IntMask = data
		port.expectIntMask = false
	case data&0x0F == 0x0F:
		// mode control word
		port.Mode = data >> 6
		if port.Mode == ModeBitControl {
			port.expectIOSelect = true
			port.bctrlMatch = false
		}
	case data&0x0F == 0x07:
		// interrupt control word
		port.IntControl = data & 0xF0
		if data&intctrlMaskFollows != 0 {
			port.expectIntMask = true
		}
		port.bctrlMatch = false
	case data&0x0F == 0x03:
		// set/clear the interrupt enable flag only
		port.IntControl = data&IntctrlEI | port.IntControl&^IntctrlEI
	case data&0x01 == 0:
		// interrupt vector
		port.IntVector = data
	}
}

// daisyChain implements one stage of the Z80 interrupt daisy chain.
func (port *Port) daisyChain(pins uint64) uint64 {
	if pins&z80.PinRETI != 0 && port.intState&intServiced != 0 {
		port.intState &^= intServiced
		pins &^= z80.PinRETI
	}

	if port.intState&intNeeded != 0 && port.intState&intServiced == 0 {
		port.intState = port.intState&^intNeeded | intRequested
	}

	if pins&(z80.PinIORQ|z80.PinM1|z80.PinIEIO) == z80.PinIORQ|z80.PinM1|z80.PinIEIO {
		if port.intState&intRequested != 0 {
			pins = z80.SetData(pins, port.IntVector)
			port.intState = port.intState&^intRequested | intServiced
		}
	}

	if port.intState != 0 {
		pins &^= z80.PinIEIO
	}
	if port.intState&intRequested != 0 {
		pins |= z80.PinINT
	}
	return pins
}
