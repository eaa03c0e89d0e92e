// Package beeper implements a square-wave sound generator whose output
// is toggled by external hardware (on the Z9001 by a CTC channel's
// terminal count). The beeper is ticked at the system clock frequency and
// downsamples to the host sample rate with a fixed-point accumulator so
// the fractional tick/sample ratio does not drift.
package beeper

const fixedShift = 16

// Beeper is a toggle square-wave generator. Call Init before use.
type Beeper struct {
	on      bool
	volume  float32
	period  int // sample period in 16.16 fixed-point ticks
	counter int

	// Sample holds the most recent output sample, valid after Tick
	// returned true.
	Sample float32
}

// Init configures the generator for a system tick frequency and a host
// sample rate.
func (b *Beeper) Init(tickHz, soundHz int, volume float32) {
	if tickHz <= 0 || soundHz <= 0 {
		panic("beeper: invalid frequency")
	}
	*b = Beeper{volume: volume}
	b.period = (tickHz << fixedShift) / soundHz
	b.counter = b.period
}

// Reset silences the generator without losing its configuration.
func (b *Beeper) Reset() {
	b.on = false
	b.counter = b.period
	b.Sample = 0
}

// Toggle flips the output state.
func (b *Beeper) Toggle() {
	b.on = !b.on
}

// Tick advances the generator by one system clock cycle and reports
// whether a new output sample is ready in Sample.
func (b *Beeper) Tick() bool {
	b.counter -= 1 << fixedShift
	if b.counter <= 0 {
		b.counter += b.period
		if b.on {
			b.Sample = b.volume
		} else {
			b.Sample = -b.volume
		}
		return true
	}
	return false
}
