package z80pio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dvoelker/z9001/internal/z80"
)

func pioWriteControl(p *PIO, port int, data uint8) {
	pins := PinCE | PinCDSel | z80.PinIORQ | z80.PinWR
	if port == PortB {
		pins |= PinBASel
	}
	p.Tick(z80.SetData(pins, data))
}

func pioWriteData(p *PIO, port int, data uint8) uint64 {
	pins := PinCE | z80.PinIORQ | z80.PinWR
	if port == PortB {
		pins |= PinBASel
	}
	return p.Tick(z80.SetData(pins, data))
}

func pioReadData(p *PIO, port int, portPins uint64) uint8 {
	pins := PinCE | z80.PinIORQ | z80.PinRD | portPins
	if port == PortB {
		pins |= PinBASel
	}
	return z80.GetData(p.Tick(pins))
}

func TestResetState(t *testing.T) {
	var p PIO
	p.Init()

	assert.True(t, p.Reset)
	for i := range p.Ports {
		assert.Equal(t, ModeInput, p.Ports[i].Mode)
		assert.Zero(t, p.Ports[i].IntControl&IntctrlEI)
	}

	pioWriteControl(&p, PortA, 0x0F)
	assert.False(t, p.Reset, "first control write ends the reset state")
}

func TestOutputMode(t *testing.T) {
	var p PIO
	p.Init()

	pioWriteControl(&p, PortA, ModeOutput<<6|0x0F)
	pins := pioWriteData(&p, PortA, 0x55)

	assert.Equal(t, uint8(0x55), GetPortA(pins), "output register drives the pins")
	assert.Equal(t, uint8(0x55), pioReadData(&p, PortA, 0), "reading an output port returns the output register")
}

func TestInputMode(t *testing.T) {
	var p PIO
	p.Init()

	pioWriteControl(&p, PortB, ModeInput<<6|0x0F)
	got := pioReadData(&p, PortB, SetPorts(0, 0, 0xA5))
	assert.Equal(t, uint8(0xA5), got)
}

func TestReadControl(t *testing.T) {
	var p PIO
	p.Init()

	// interrupt control words without a mask
	pioWriteControl(&p, PortA, 0x87)
	pioWriteControl(&p, PortB, 0xA7)

	pins := PinCE | PinCDSel | z80.PinIORQ | z80.PinRD
	got := z80.GetData(p.Tick(pins))
	assert.Equal(t, uint8(0x8A), got, "A upper bits combined with B bits shifted down")
}

func TestVectorWrite(t *testing.T) {
	var p PIO
	p.Init()

	pioWriteControl(&p, PortA, 0x20)
	pioWriteControl(&p, PortB, 0x24)
	assert.Equal(t, uint8(0x20), p.Ports[PortA].IntVector)
	assert.Equal(t, uint8(0x24), p.Ports[PortB].IntVector)
}

func TestBitControlMode(t *testing.T) {
	var p PIO
	p.Init()

	pioWriteControl(&p, PortA, ModeBitControl<<6|0x0F)
	pioWriteControl(&p, PortA, 0x0F) // bits 0..3 input, 4..7 output
	pioWriteData(&p, PortA, 0xF0)

	pins := p.Tick(SetPorts(0, 0x0A, 0))
	assert.Equal(t, uint8(0xFA), GetPortA(pins), "output bits merged with input pin state")
}

func TestBitControlInterrupt(t *testing.T) {
	var p PIO
	p.Init()

	pioWriteControl(&p, PortA, 0x20)                   // vector
	pioWriteControl(&p, PortA, ModeBitControl<<6|0x0F) // bit-control mode
	pioWriteControl(&p, PortA, 0xFF)                   // all pins input
	// monitor bit 0 for high, OR condition, interrupts enabled
	pioWriteControl(&p, PortA, IntctrlEI|IntctrlHILO|0x17)
	pioWriteControl(&p, PortA, 0xFE) // mask: only bit 0 monitored

	pins := p.Tick(SetPorts(0, 0x00, 0))
	assert.Zero(t, pins&z80.PinINT)

	// low-to-high transition of the monitored bit raises the request
	pins = p.Tick(SetPorts(0, 0x01, 0))
	assert.NotZero(t, pins&z80.PinINT)

	// acknowledge: port A has chain priority and supplies its vector
	pins = p.Tick(SetPorts(z80.PinIORQ|z80.PinM1|z80.PinIEIO, 0x01, 0))
	assert.Equal(t, uint8(0x20), z80.GetData(pins))
	assert.Zero(t, pins&z80.PinIEIO)

	// RETI releases the chain
	pins = p.Tick(SetPorts(z80.PinRETI|z80.PinIEIO, 0x01, 0))
	assert.Zero(t, pins&z80.PinRETI)
	pins = p.Tick(SetPorts(z80.PinIEIO, 0x01, 0))
	assert.NotZero(t, pins&z80.PinIEIO)
}

func TestInterruptEnableWord(t *testing.T) {
	var p PIO
	p.Init()

	pioWriteControl(&p, PortA, 0x87)
	assert.NotZero(t, p.Ports[PortA].IntControl&IntctrlEI)

	// the short form only flips the enable bit
	pioWriteControl(&p, PortA, 0x03)
	assert.Zero(t, p.Ports[PortA].IntControl&IntctrlEI)
	pioWriteControl(&p, PortA, 0x83)
	assert.NotZero(t, p.Ports[PortA].IntControl&IntctrlEI)
}
