// Package z80ctc emulates the Z80 CTC counter/timer chip.
//
// The CTC has four channels. Each channel divides either the system clock
// (timer mode) or an external CLK/TRG input (counter mode) by a prescaler
// and an 8-bit down counter, pulses its ZC/TO output on terminal count
// and can request a prioritized, vectored interrupt through the Z80
// daisy chain.
//
// The chip is ticked once per system clock cycle with the shared pin
// word; chip select, channel select, CLK/TRG inputs and ZC/TO outputs are
// carried in chip-specific pins above the CPU pin group.
package z80ctc

import "github.com/dvoelker/z9001/internal/z80"

const NumChannels = 4

// chip-specific pins
const (
	PinCE  uint64 = 1 << 40 // chip enable
	PinCS0 uint64 = 1 << 41 // channel select bit 0
	PinCS1 uint64 = 1 << 42 // channel select bit 1

	PinCLKTRG0 uint64 = 1 << 43 // external clock/trigger inputs
	PinCLKTRG1 uint64 = 1 << 44
	PinCLKTRG2 uint64 = 1 << 45
	PinCLKTRG3 uint64 = 1 << 46

	PinZCTO0 uint64 = 1 << 47 // zero-count/timeout outputs (channel 3 has none)
	PinZCTO1 uint64 = 1 << 48
	PinZCTO2 uint64 = 1 << 49
)

// control register bits
const (
	CtrlEI           uint8 = 1 << 7 // interrupt enable
	CtrlModeCounter  uint8 = 1 << 6 // 1: counter mode, 0: timer mode
	CtrlPrescaler256 uint8 = 1 << 5 // 1: prescaler 256, 0: prescaler 16
	CtrlEdgeRising   uint8 = 1 << 4 // CLK/TRG edge selection
	CtrlTriggerWait  uint8 = 1 << 3 // 1: timer starts on CLK/TRG edge
	CtrlConstFollows uint8 = 1 << 2 // next write is the time constant
	CtrlReset        uint8 = 1 << 1 // channel stopped
	CtrlControlWord  uint8 = 1 << 0 // 1: control word, 0: vector
)

// interrupt daisy-chain state bits
const (
	intNeeded    uint8 = 1 << 0
	intRequested uint8 = 1 << 1
	intServiced  uint8 = 1 << 2
)

// Channel is one CTC counter/timer channel. Fields are exported for
// inspection by tests and debuggers; mutate only through the chip tick.
type Channel struct {
	Control     uint8
	Constant    uint8
	DownCounter uint8
	Vector      uint8

	prescaler         uint8
	waitingForTrigger bool
	extTrigger        bool
	intState          uint8
}

// CTC is a Z80 CTC chip. The zero value is unusable, call Init first.
type CTC struct {
	Chn [NumChannels]Channel
}

// Init puts the chip into its power-on state: all channels stopped,
// interrupts disabled.
func (c *CTC) Init() {
	*c = CTC{}
	for i := range c.Chn {
		c.Chn[i].Control = CtrlReset
		c.Chn[i].prescaler = 0
	}
}

// Reset is identical to the hardware reset: channels stop, interrupt
// state is cleared, vectors are preserved.
func (c *CTC) Reset() {
	for i := range c.Chn {
		chn := &c.Chn[i]
		chn.Control = CtrlReset
		chn.Constant = 0
		chn.DownCounter = 0
		chn.waitingForTrigger = false
		chn.intState = 0
	}
}

// Tick advances the chip by one system clock cycle.
func (c *CTC) Tick(pins uint64) uint64 {
	pins &^= PinZCTO0 | PinZCTO1 | PinZCTO2

	// IO requests (not during an interrupt acknowledge cycle)
	if pins&(PinCE|z80.PinIORQ|z80.PinM1) == PinCE|z80.PinIORQ {
		chnIndex := 0
		if pins&PinCS0 != 0 {
			chnIndex |= 1
		}
		if pins&PinCS1 != 0 {
			chnIndex |= 2
		}
		if pins&z80.PinRD != 0 {
			pins = z80.SetData(pins, c.Chn[chnIndex].DownCounter)
		} else if pins&z80.PinWR != 0 {
			c.write(chnIndex, z80.GetData(pins))
		}
	}

	// per-channel counting
	for i := range c.Chn {
		pins = c.tickChannel(i, pins)
	}

	// interrupt daisy chain, channel 0 has the highest priority
	for i := range c.Chn {
		pins = c.Chn[i].daisyChain(pins)
	}
	return pins
}

func (c *CTC) write(chnIndex int, data uint8) {
	chn := &c.Chn[chnIndex]
	switch {
	case chn.Control&CtrlConstFollows != 0:
		chn.Constant = data
		chn.Control &^= CtrlConstFollows | CtrlReset
		if chn.Control&CtrlModeCounter != 0 {
			chn.DownCounter = chn.Constant
		} else if chn.Control&CtrlTriggerWait != 0 {
			chn.waitingForTrigger = true
		} else {
			chn.DownCounter = chn.Constant
			chn.prescaler = 0
			chn.waitingForTrigger = false
		}
	case data&CtrlControlWord != 0:
		chn.Control = data
		if data&CtrlConstFollows == 0 && data&CtrlReset != 0 {
			chn.waitingForTrigger = false
		}
	case chnIndex == 0:
		// a write to channel 0 with bit 0 clear sets the interrupt
		// vector base for all channels
		for i := range c.Chn {
			c.Chn[i].Vector = (data & 0xF8) + uint8(2*i)
		}
	}
}

func (c *CTC) tickChannel(chnIndex int, pins uint64) uint64 {
	chn := &c.Chn[chnIndex]
	active := chn.Control&(CtrlReset|CtrlConstFollows) == 0

	// free-running system clock in timer mode
	if active && chn.Control&CtrlModeCounter == 0 && !chn.waitingForTrigger {
		prescalerMask := uint8(0x0F)
		if chn.Control&CtrlPrescaler256 != 0 {
			prescalerMask = 0xFF
		}
		chn.prescaler--
		if chn.prescaler&prescalerMask == 0 {
			chn.DownCounter--
			if chn.DownCounter == 0 {
				pins = c.terminalCount(chnIndex, pins)
				chn.DownCounter = chn.Constant
			}
		}
	}

	// CLK/TRG edge detection
	trigger := pins&(PinCLKTRG0<<uint(chnIndex)) != 0
	if trigger != chn.extTrigger {
		chn.extTrigger = trigger
		risingWanted := chn.Control&CtrlEdgeRising != 0
		if trigger == risingWanted && active {
			switch {
			case chn.Control&CtrlModeCounter != 0:
				chn.DownCounter--
				if chn.DownCounter == 0 {
					pins = c.terminalCount(chnIndex, pins)
					chn.DownCounter = chn.Constant
				}
			case chn.waitingForTrigger:
				chn.waitingForTrigger = false
				chn.DownCounter = chn.Constant
				chn.prescaler = 0
			}
		}
	}
	return pins
}

// terminalCount fires the ZC/TO pulse of a channel and raises its
// interrupt request if enabled. Channel 3 has no ZC/TO pin.
func (c *CTC) terminalCount(chnIndex int, pins uint64) uint64 {
	chn := &c.Chn[chnIndex]
	if chn.Control&CtrlEI != 0 {
		chn.intState |= intNeeded
	}
	if chnIndex < 3 {
		pins |= PinZCTO0 << uint(chnIndex)
	}
	return pins
}

// daisyChain implements one stage of the Z80 interrupt daisy chain.
func (chn *Channel) daisyChain(pins uint64) uint64 {
	// RETI resolves the highest-priority interrupt currently under
	// service; downstream stages must not see the RETI pin anymore
	if pins&z80.PinRETI != 0 && chn.intState&intServiced != 0 {
		chn.intState &^= intServiced
		pins &^= z80.PinRETI
	}

	if chn.intState&intNeeded != 0 && chn.intState&intServiced == 0 {
		chn.intState = chn.intState&^intNeeded | intRequested
	}

	// put the vector on the data bus during the CPU's interrupt
	// acknowledge cycle if this stage has the highest pending request
	if pins&(z80.PinIORQ|z80.PinM1|z80.PinIEIO) == z80.PinIORQ|z80.PinM1|z80.PinIEIO {
		if chn.intState&intRequested != 0 {
			pins = z80.SetData(pins, chn.Vector)
			chn.intState = chn.intState&^intRequested | intServiced
		}
	}

	// block downstream devices while requesting or being serviced
	if chn.intState != 0 {
		pins &^= z80.PinIEIO
	}
	if chn.intState&intRequested != 0 {
		pins |= z80.PinINT
	}
	return pins
}
