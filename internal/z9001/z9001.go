// Package z9001 emulates the Robotron Z9001 (KC85/1) and KC87 home
// computers: a U880 (Z80) CPU at 2.4576 MHz, two Z80 PIOs, a Z80 CTC,
// a beeper, an 8x8 keyboard matrix and a 40x24 character display with
// an optional color extension.
//
// The whole machine state lives in one System value. All bus traffic
// between the chips flows through a shared 64-bit pin word, one system
// tick equals one CPU clock cycle.
package z9001

import (
	"github.com/dvoelker/z9001/internal/beeper"
	"github.com/dvoelker/z9001/internal/kbd"
	"github.com/dvoelker/z9001/internal/mem"
	"github.com/dvoelker/z9001/internal/z80"
	"github.com/dvoelker/z9001/internal/z80ctc"
	"github.com/dvoelker/z9001/internal/z80pio"
)

// Model selects the emulated machine variant.
type Model int

const (
	ModelZ9001 Model = iota // monochrome, optional BASIC ROM module
	ModelKC87               // built-in BASIC and color extension
)

const (
	// Frequency is the CPU clock in Hz (the fastest East German 8-bitter).
	Frequency = 2457600

	// SnapshotVersion must be bumped whenever the System layout changes.
	SnapshotVersion uint32 = 1

	MaxAudioSamples     = 1024
	DefaultAudioSamples = 128

	FramebufferWidth  = 512
	FramebufferHeight = 192
	DisplayWidth      = 320
	DisplayHeight     = 192
)

// AudioCallback receives a filled buffer of audio samples.
type AudioCallback func(samples []float32)

// AudioDesc configures audio output. A zero value disables the callback
// and uses the defaults.
type AudioDesc struct {
	Callback   AudioCallback
	SampleRate int     // default 44100
	NumSamples int     // callback buffer size, default 128
	Volume     float32 // 0..1, default 0.5
}

// DebugHook is called after every system tick; Stopped aborts Exec
// between ticks.
type DebugHook struct {
	Func    func(pins uint64)
	Stopped *bool
}

// ROMDesc supplies the ROM images. The images for the selected model
// must be present and have the exact sizes, except the optional Z9001
// BASIC module ROM.
type ROMDesc struct {
	Z9001 struct {
		OS1   []byte // 0x0800 bytes, mapped at 0xF000
		OS2   []byte // 0x0800 bytes, mapped at 0xF800
		Font  []byte // 0x0800 bytes, not CPU-visible
		Basic []byte // optional 0x2800 bytes, mapped at 0xC000
	}
	KC87 struct {
		OS    []byte // 0x2000 bytes, mapped at 0xE000
		Basic []byte // 0x2000 bytes, mapped at 0xC000
		Font  []byte // 0x0800 bytes, not CPU-visible
	}
}

// Desc holds the configuration for Init.
type Desc struct {
	Model Model
	Debug DebugHook
	Audio AudioDesc
	ROMs  ROMDesc
}

// IO address decoding. The address decoder only looks at A6/A7 (plus
// A3..A5 for the chip selects), so each chip register is mapped multiple
// times into the IO space:
//
//	CTC:  ports 0x80..0x87
//	PIO1: ports 0x88..0x8F
//	PIO2: ports 0x90..0x97
const (
	ioSelMask = z80.PinIORQ | z80.PinM1 | z80.PinA7 | z80.PinA6
	ioSelPins = z80.PinIORQ | z80.PinA7

	ctcSelMask = ioSelMask | z80.PinA5 | z80.PinA4 | z80.PinA3
	ctcSelPins = ioSelPins

	pio1SelMask = ioSelMask | z80.PinA5 | z80.PinA4 | z80.PinA3
	pio1SelPins = ioSelPins | z80.PinA3

	pio2SelMask = ioSelMask | z80.PinA5 | z80.PinA4 | z80.PinA3
	pio2SelPins = ioSelPins | z80.PinA4
)

// System is a complete Z9001/KC87 machine. Everything except the
// callback hooks and the memory page table is plain data, so snapshots
// are value copies (see SaveSnapshot).
type System struct {
	cpu           z80.Z80
	pio1          z80pio.PIO
	pio2          z80pio.PIO
	ctc           z80ctc.CTC
	beeper        beeper.Beeper
	blinkFlipFlop uint8 // bit 7 toggles at 12.5 Hz
	model         Model
	pins          uint64
	ctcZCTO2      uint64 // ZCTO2 state carried into the next tick
	blinkCounter  uint32
	clockRem      uint32 // microsecond remainder of the tick conversion
	mem           mem.Mem
	kbd           kbd.Kbd

	valid       bool
	hasBasicROM bool
	debug       DebugHook

	audio struct {
		callback     AudioCallback
		numSamples   int
		samplePos    int
		sampleBuffer [MaxAudioSamples]float32
	}
	ram     [1 << 16]byte
	rom     [0x4000]byte
	romFont [0x0800]byte
	fb      [FramebufferWidth * FramebufferHeight]byte
}

// xorshift32 fills the initial RAM with a deterministic noise pattern.
func xorshift32(x uint32) uint32 {
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	return x
}

func defaultInt(val, def int) int {
	if val != 0 {
		return val
	}
	return def
}

func defaultFloat(val, def float32) float32 {
	if val != 0 {
		return val
	}
	return def
}

// Init puts the system into its power-on state. ROM images with wrong
// sizes panic, a debug hook without a Stopped flag panics.
func (s *System) Init(desc Desc) {
	if desc.Debug.Func != nil && desc.Debug.Stopped == nil {
		panic("z9001: debug hook without stopped flag")
	}
	*s = System{
		valid: true,
		model: desc.Model,
		debug: desc.Debug,
	}
	s.copyROMs(desc.ROMs)

	s.cpu.Init()
	s.ctc.Init()
	s.pio1.Init()
	s.pio2.Init()

	s.audio.callback = desc.Audio.Callback
	s.audio.numSamples = defaultInt(desc.Audio.NumSamples, DefaultAudioSamples)
	if s.audio.numSamples > MaxAudioSamples {
		panic("z9001: audio buffer too large")
	}
	s.beeper.Init(
		Frequency,
		defaultInt(desc.Audio.SampleRate, 44100),
		defaultFloat(desc.Audio.Volume, 0.5),
	)

	// initial memory state is random
	r := uint32(0x6D98302B)
	for i := 0; i < len(s.ram); i += 4 {
		r = xorshift32(r)
		s.ram[i] = uint8(r)
		s.ram[i+1] = uint8(r >> 8)
		s.ram[i+2] = uint8(r >> 16)
		s.ram[i+3] = uint8(r >> 24)
	}
	s.mapMemory()
	s.initKeyboardMatrix()

	// execution starts at the OS entry point
	s.pins = s.cpu.Prefetch(0xF000)
}

// copyROMs validates and installs the ROM images into the internal ROM
// area:
//
//	Z9001: BASIC module at 0x0000, OS1 at 0x3000, OS2 at 0x3800
//	KC87:  BASIC at 0x0000, OS at 0x2000
func (s *System) copyROMs(roms ROMDesc) {
	if s.model == ModelZ9001 {
		if len(roms.Z9001.Font) != len(s.romFont) {
			panic("z9001: invalid font ROM size")
		}
		copy(s.romFont[:], roms.Z9001.Font)
		if roms.Z9001.Basic != nil {
			if len(roms.Z9001.Basic) != 0x2800 {
				panic("z9001: invalid BASIC ROM size")
			}
			copy(s.rom[0x0000:], roms.Z9001.Basic)
			s.hasBasicROM = true
		}
		if len(roms.Z9001.OS1) != 0x0800 {
			panic("z9001: invalid OS1 ROM size")
		}
		copy(s.rom[0x3000:], roms.Z9001.OS1)
		if len(roms.Z9001.OS2) != 0x0800 {
			panic("z9001: invalid OS2 ROM size")
		}
		copy(s.rom[0x3800:], roms.Z9001.OS2)
	} else {
		if len(roms.KC87.Font) != len(s.romFont) {
			panic("z9001: invalid font ROM size")
		}
		copy(s.romFont[:], roms.KC87.Font)
		if len(roms.KC87.Basic) != 0x2000 {
			panic("z9001: invalid BASIC ROM size")
		}
		copy(s.rom[0x0000:], roms.KC87.Basic)
		if len(roms.KC87.OS) != 0x2000 {
			panic("z9001: invalid OS ROM size")
		}
		copy(s.rom[0x2000:], roms.KC87.OS)
	}
}

// mapMemory builds the static memory map. The map cannot be changed at
// runtime; it is rebuilt from the model flags after a snapshot load.
//
//	Z9001: 16 KB RAM + 16 KB RAM module, optional 10 KB BASIC ROM module
//	KC87:  48 KB RAM, color RAM, built-in BASIC and OS ROM
func (s *System) mapMemory() {
	s.mem.Init()
	if s.model == ModelZ9001 {
		s.mem.MapRAM(0, 0x0000, 0x8000, s.ram[:])
		if s.hasBasicROM {
			s.mem.MapROM(1, 0xC000, 0x2800, s.rom[0x0000:])
		}
		s.mem.MapROM(1, 0xF000, 0x0800, s.rom[0x3000:])
		s.mem.MapROM(1, 0xF800, 0x0800, s.rom[0x3800:])
	} else {
		s.mem.MapRAM(0, 0x0000, 0xC000, s.ram[:])
		// 1 KB color RAM
		s.mem.MapRAM(0, 0xE800, 0x0400, s.ram[0xE800:])
		s.mem.MapROM(1, 0xC000, 0x2000, s.rom[0x0000:])
		// the OS ROM is overlayed by the ASCII video RAM at 0xEC00
		s.mem.MapROM(1, 0xE000, 0x2000, s.rom[0x2000:])
	}
	// 1 KB ASCII video RAM
	s.mem.MapRAM(0, 0xEC00, 0x0400, s.ram[0xEC00:])
}

// initKeyboardMatrix registers the 8x8 key matrix. Pressed keys stay
// sticky for 3 frames so the OS scanning loop cannot miss them.
func (s *System) initKeyboardMatrix() {
	s.kbd.Init(3)
	// shift key is column 0, line 7
	s.kbd.RegisterModifier(0, 0, 7)
	const keymap = "" +
		// unshifted keys
		"01234567" +
		"89:;,=.?" +
		"@ABCDEFG" +
		"HIJKLMNO" +
		"PQRSTUVW" +
		"XYZ   ^ " +
		"        " +
		"        " +
		// shifted keys
		"_!\"#$%&'" +
		"()*+<->/" +
		" abcdefg" +
		"hijklmno" +
		"pqrstuvw" +
		"xyz     " +
		"        " +
		"        "
	for shift := 0; shift < 2; shift++ {
		for line := 0; line < 8; line++ {
			for column := 0; column < 8; column++ {
				c := keymap[shift*64+line*8+column]
				if c != 0x20 {
					mod := 0
					if shift != 0 {
						mod = 1 << 0
					}
					s.kbd.RegisterKey(int(c), column, line, mod)
				}
			}
		}
	}
	// special keys
	s.kbd.RegisterKey(0x03, 6, 6, 0) // stop (Esc)
	s.kbd.RegisterKey(0x08, 0, 6, 0) // cursor left
	s.kbd.RegisterKey(0x09, 1, 6, 0) // cursor right
	s.kbd.RegisterKey(0x0A, 2, 6, 0) // cursor up
	s.kbd.RegisterKey(0x0B, 3, 6, 0) // cursor down
	s.kbd.RegisterKey(0x0D, 5, 6, 0) // enter
	s.kbd.RegisterKey(0x13, 4, 5, 0) // pause
	s.kbd.RegisterKey(0x14, 1, 7, 0) // color
	s.kbd.RegisterKey(0x19, 3, 5, 0) // home
	s.kbd.RegisterKey(0x1A, 5, 5, 0) // insert
	s.kbd.RegisterKey(0x1B, 4, 6, 0) // esc (Shift+Esc)
	s.kbd.RegisterKey(0x1C, 4, 7, 0) // list
	s.kbd.RegisterKey(0x1D, 5, 7, 0) // run
	s.kbd.RegisterKey(0x20, 7, 6, 0) // space
}

// Discard invalidates the system.
func (s *System) Discard() {
	if !s.valid {
		panic("z9001: system not initialized")
	}
	s.valid = false
}

// Reset performs a hardware reset. Memory contents survive.
func (s *System) Reset() {
	if !s.valid {
		panic("z9001: system not initialized")
	}
	s.cpu.Reset()
	s.pio1.DoReset()
	s.pio2.DoReset()
	s.ctc.Reset()
	s.beeper.Reset()
	s.pins = s.cpu.Prefetch(0xF000)
}

// tick advances the whole machine by one clock cycle.
func (s *System) tick(pins uint64) uint64 {
	pins = s.cpu.Tick(pins)

	// memory requests
	if pins&z80.PinMREQ != 0 {
		addr := z80.GetAddr(pins)
		if pins&z80.PinRD != 0 {
			pins = z80.SetData(pins, s.mem.Rd(addr))
		} else if pins&z80.PinWR != 0 {
			s.mem.Wr(addr, z80.GetData(pins))
		}
	}

	// PIO1, the highest-priority daisy chain device
	{
		pins |= z80.PinIEIO
		if pins&pio1SelMask == pio1SelPins {
			pins |= z80pio.PinCE
		}
		if pins&z80.PinA0 != 0 {
			pins |= z80pio.PinBASel
		}
		if pins&z80.PinA1 != 0 {
			pins |= z80pio.PinCDSel
		}
		// no port inputs; port A carries display and border settings,
		// port B is reserved for user devices
		pins = s.pio1.Tick(pins)
		pins &= z80.PinMask
	}

	// PIO2, connected to the keyboard matrix with complemented ports
	{
		if pins&pio2SelMask == pio2SelPins {
			pins |= z80pio.PinCE
		}
		if pins&z80.PinA0 != 0 {
			pins |= z80pio.PinBASel
		}
		if pins&z80.PinA1 != 0 {
			pins |= z80pio.PinCDSel
		}
		paIn := ^s.kbd.ScanColumns()
		pbIn := ^s.kbd.ScanLines()
		pins = z80pio.SetPorts(pins, paIn, pbIn)
		pins = s.pio2.Tick(pins)
		s.kbd.SetActiveColumns(^z80pio.GetPortA(pins))
		s.kbd.SetActiveLines(^z80pio.GetPortB(pins))
		pins &= z80.PinMask
	}

	// CTC; channel 2's ZC/TO output feeds channel 3's CLK/TRG input to
	// form a timer cascade, so the ZCTO2 state must survive the mask
	{
		pins |= s.ctcZCTO2
		if pins&ctcSelMask == ctcSelPins {
			pins |= z80ctc.PinCE
		}
		if pins&z80.PinA0 != 0 {
			pins |= z80ctc.PinCS0
		}
		if pins&z80.PinA1 != 0 {
			pins |= z80ctc.PinCS1
		}
		if pins&z80ctc.PinZCTO2 != 0 {
			pins |= z80ctc.PinCLKTRG3
		}
		pins = s.ctc.Tick(pins)
		if pins&z80ctc.PinZCTO0 != 0 {
			// CTC channel 0 controls the beeper frequency
			s.beeper.Toggle()
		}
		s.ctcZCTO2 = pins & z80ctc.PinZCTO2
		pins &= z80.PinMask
	}

	// beeper and audio buffer
	if s.beeper.Tick() {
		s.audio.sampleBuffer[s.audio.samplePos] = s.beeper.Sample
		s.audio.samplePos++
		if s.audio.samplePos == s.audio.numSamples {
			if s.audio.callback != nil {
				s.audio.callback(s.audio.sampleBuffer[:s.audio.numSamples])
			}
			s.audio.samplePos = 0
		}
	}

	// the blink flip flop is driven by a binary counter on the bisync
	// video signal, toggling at 12.5 Hz; the reload tick itself does not
	// count down, giving a period of one tick over the reload value
	if s.blinkCounter == 0 {
		s.blinkCounter = (Frequency * 8) / 25
		s.blinkFlipFlop ^= 0x80
	} else {
		s.blinkCounter--
	}
	return pins
}

// Exec runs the machine for a duration given in microseconds and
// returns the number of clock cycles actually executed, which is less
// than the requested duration when the debug hook stops execution
// early. The sub-microsecond remainder is carried over, so consecutive
// calls add up exactly.
func (s *System) Exec(microSeconds uint32) uint32 {
	if !s.valid {
		panic("z9001: system not initialized")
	}
	total := uint64(Frequency)*uint64(microSeconds) + uint64(s.clockRem)
	numTicks := uint32(total / 1000000)
	s.clockRem = uint32(total % 1000000)

	pins := s.pins
	executed := numTicks
	if s.debug.Func == nil {
		for tick := uint32(0); tick < numTicks; tick++ {
			pins = s.tick(pins)
		}
	} else {
		executed = 0
		for ; executed < numTicks && !*s.debug.Stopped; executed++ {
			pins = s.tick(pins)
			s.debug.Func(pins)
		}
	}
	s.pins = pins
	s.kbd.Update(microSeconds)
	s.decodeVidmem()
	return executed
}

// KeyDown presses a key in the keyboard matrix; the OS picks it up by
// polling through PIO2.
func (s *System) KeyDown(keyCode int) {
	if !s.valid {
		panic("z9001: system not initialized")
	}
	s.kbd.KeyDown(keyCode)
}

// KeyUp releases a key.
func (s *System) KeyUp(keyCode int) {
	if !s.valid {
		panic("z9001: system not initialized")
	}
	s.kbd.KeyUp(keyCode)
}
