package z80ctc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dvoelker/z9001/internal/z80"
)

func ctcWrite(c *CTC, chn int, data uint8) {
	pins := PinCE | z80.PinIORQ | z80.PinWR
	if chn&1 != 0 {
		pins |= PinCS0
	}
	if chn&2 != 0 {
		pins |= PinCS1
	}
	c.Tick(z80.SetData(pins, data))
}

func ctcRead(c *CTC, chn int) uint8 {
	pins := PinCE | z80.PinIORQ | z80.PinRD
	if chn&1 != 0 {
		pins |= PinCS0
	}
	if chn&2 != 0 {
		pins |= PinCS1
	}
	return z80.GetData(c.Tick(pins))
}

func TestVectorWrite(t *testing.T) {
	var c CTC
	c.Init()

	// a write to channel 0 with bit 0 clear distributes the vector base
	ctcWrite(&c, 0, 0x10)
	for i := 0; i < NumChannels; i++ {
		assert.Equal(t, uint8(0x10+2*i), c.Chn[i].Vector, "channel %d", i)
	}
}

func TestTimerMode(t *testing.T) {
	var c CTC
	c.Init()

	// timer mode, prescaler 16, constant 2: ZC/TO every 32 ticks
	ctcWrite(&c, 0, CtrlConstFollows|CtrlControlWord)
	ctcWrite(&c, 0, 2)

	var pulses []int
	for i := 0; i < 200; i++ {
		if c.Tick(0)&PinZCTO0 != 0 {
			pulses = append(pulses, i)
		}
	}
	// the constant write tick already counts as the first timer tick
	assert.Equal(t, []int{30, 62, 94, 126, 158, 190}, pulses)
}

func TestTimerPrescaler256(t *testing.T) {
	var c CTC
	c.Init()

	ctcWrite(&c, 1, CtrlPrescaler256|CtrlConstFollows|CtrlControlWord)
	ctcWrite(&c, 1, 1)

	count := 0
	for i := 0; i < 1024; i++ {
		if c.Tick(0)&PinZCTO1 != 0 {
			count++
		}
	}
	assert.Equal(t, 4, count, "256 ticks per terminal count")
}

func TestCounterMode(t *testing.T) {
	var c CTC
	c.Init()

	ctcWrite(&c, 2, CtrlModeCounter|CtrlEdgeRising|CtrlConstFollows|CtrlControlWord)
	ctcWrite(&c, 2, 2)
	assert.Equal(t, uint8(2), c.Chn[2].DownCounter)

	// first rising edge decrements, falling edge is ignored
	pins := c.Tick(PinCLKTRG2)
	assert.Zero(t, pins&PinZCTO2)
	assert.Equal(t, uint8(1), c.Chn[2].DownCounter)
	c.Tick(0)

	// second rising edge reaches the terminal count
	pins = c.Tick(PinCLKTRG2)
	assert.NotZero(t, pins&PinZCTO2)
	assert.Equal(t, uint8(2), c.Chn[2].DownCounter, "counter reloads")
}

func TestReadDownCounter(t *testing.T) {
	var c CTC
	c.Init()

	ctcWrite(&c, 0, CtrlModeCounter|CtrlEdgeRising|CtrlConstFollows|CtrlControlWord)
	ctcWrite(&c, 0, 10)
	c.Tick(PinCLKTRG0)
	c.Tick(0)
	c.Tick(PinCLKTRG0)
	c.Tick(0)

	assert.Equal(t, uint8(8), ctcRead(&c, 0))
}

func TestInterruptAndDaisyChain(t *testing.T) {
	var c CTC
	c.Init()

	ctcWrite(&c, 0, 0x20)
	ctcWrite(&c, 0, CtrlEI|CtrlModeCounter|CtrlEdgeRising|CtrlConstFollows|CtrlControlWord)
	ctcWrite(&c, 0, 1)

	pins := c.Tick(PinCLKTRG0)
	assert.NotZero(t, pins&z80.PinINT, "terminal count requests an interrupt")

	// acknowledge cycle: the highest-priority requesting channel puts
	// its vector on the bus and eats IEIO for downstream stages
	pins = c.Tick(z80.PinIORQ | z80.PinM1 | z80.PinIEIO)
	assert.Equal(t, uint8(0x20), z80.GetData(pins))
	assert.Zero(t, pins&z80.PinIEIO)

	// still under service: IEIO stays blocked, no new request
	pins = c.Tick(z80.PinIEIO)
	assert.Zero(t, pins&z80.PinIEIO)
	assert.Zero(t, pins&z80.PinINT)

	// RETI ends the service and is consumed by this stage
	pins = c.Tick(z80.PinRETI | z80.PinIEIO)
	assert.Zero(t, pins&z80.PinRETI)
	pins = c.Tick(z80.PinIEIO)
	assert.NotZero(t, pins&z80.PinIEIO, "chain open again after RETI")
}

func TestResetStopsChannels(t *testing.T) {
	var c CTC
	c.Init()

	ctcWrite(&c, 0, 0x40)
	ctcWrite(&c, 0, CtrlConstFollows|CtrlControlWord)
	ctcWrite(&c, 0, 4)

	c.Reset()
	for i := 0; i < 1000; i++ {
		assert.Zero(t, c.Tick(0)&PinZCTO0)
	}
	assert.Equal(t, uint8(0x40), c.Chn[0].Vector, "reset keeps the vector")
}
