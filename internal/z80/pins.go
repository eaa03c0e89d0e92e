package z80

// The CPU communicates with the outside world through a single 64-bit pin
// word. Address bus, data bus and control signals occupy distinct bit
// groups; peripheral chips reuse the word and put their own chip-specific
// pins above bit 39, which the system masks off again after each chip
// tick (PinMask covers the CPU-visible pins only).
const (
	// address bus A0..A15 in bits 0..15
	PinA0 uint64 = 1 << iota
	PinA1
	PinA2
	PinA3
	PinA4
	PinA5
	PinA6
	PinA7
	PinA8
	PinA9
	PinA10
	PinA11
	PinA12
	PinA13
	PinA14
	PinA15
)

const (
	// data bus D0..D7 in bits 16..23
	dataShift = 16
	dataMask  = 0xFF << dataShift

	// system control
	PinM1   uint64 = 1 << 24 // machine cycle 1 (opcode fetch or int ack)
	PinMREQ uint64 = 1 << 25 // memory request
	PinIORQ uint64 = 1 << 26 // IO request
	PinRD   uint64 = 1 << 27 // read
	PinWR   uint64 = 1 << 28 // write
	PinRFSH uint64 = 1 << 29 // DRAM refresh cycle

	// CPU control
	PinHALT uint64 = 1 << 30 // CPU has executed HALT
	PinINT  uint64 = 1 << 31 // maskable interrupt request
	PinNMI  uint64 = 1 << 32 // non-maskable interrupt request
	PinWAIT uint64 = 1 << 33 // wait state request (unused here)

	// virtual pins for the peripheral daisy chain; these have no silicon
	// counterpart on the CPU but carry the interrupt-enable chain state
	// and RETI notification through the shared pin word
	PinIEIO uint64 = 1 << 37 // daisy-chain interrupt enable in/out
	PinRETI uint64 = 1 << 38 // set for one tick when RETI is executed

	// all pins a Z80 system bus carries; chip-specific pins above this
	// must be masked off after each chip tick
	PinMask uint64 = (1 << 40) - 1
)

// GetAddr returns the address bus value.
func GetAddr(pins uint64) uint16 {
	return uint16(pins)
}

// SetAddr replaces the address bus value.
func SetAddr(pins uint64, addr uint16) uint64 {
	return pins&^uint64(0xFFFF) | uint64(addr)
}

// GetData returns the data bus value.
func GetData(pins uint64) uint8 {
	return uint8(pins >> dataShift)
}

// SetData replaces the data bus value.
func SetData(pins uint64, data uint8) uint64 {
	return pins&^uint64(dataMask) | uint64(data)<<dataShift
}
