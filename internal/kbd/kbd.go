// Package kbd implements a keyboard matrix with up to 8 columns and
// 8 lines, modifier keys and sticky key state.
//
// Host key events are asynchronous to the emulated machine's matrix
// scanning, so a key that is pressed and released between two scans would
// be lost. To avoid that, released keys stay pressed in the matrix for a
// configurable number of frames ("sticky keys"). Update must be called
// periodically with the elapsed real time to age the sticky state.
//
// All state lives in fixed-size arrays so a keyboard can be copied by
// plain struct assignment (for whole-system snapshots).
package kbd

const (
	MaxKeys        = 256
	maxPressedKeys = 4
	maxModifiers   = 4

	// one sticky frame is one PAL-ish video frame
	frameDurationUs = 16667
)

// key matrix masks: column bits 0..7, line bits 8..15
func matrixMask(column, line int) uint16 {
	return 1<<uint(column) | 0x100<<uint(line)
}

type pressedKey struct {
	code      int
	mask      uint16
	down      bool   // host key is still held down
	released  bool   // host released the key, kept sticky
	frame     uint32 // frame count when the key was pressed
}

// Kbd is an 8x8 key matrix. Call Init before use.
type Kbd struct {
	frame        uint32
	usCounter    uint32
	stickyFrames uint32

	activeColumns uint8
	activeLines   uint8

	keyMap   [MaxKeys]uint16
	modMasks [maxModifiers]uint16
	pressed  [maxPressedKeys]pressedKey
}

// Init resets the matrix. stickyFrames is the number of frames a released
// key remains visible to the scanning code.
func (k *Kbd) Init(stickyFrames int) {
	*k = Kbd{stickyFrames: uint32(stickyFrames)}
}

// RegisterModifier registers a modifier key (e.g. shift) at a matrix
// position. Modifier layer indices start at 0.
func (k *Kbd) RegisterModifier(layer, column, line int) {
	if layer < 0 || layer >= maxModifiers {
		panic("kbd: modifier layer out of range")
	}
	k.modMasks[layer] = matrixMask(column, line)
}

// RegisterKey associates a host key code with a matrix position. mod is a
// bit mask of modifier layers that must be pressed together with the key
// (the modifier's own matrix position is merged into the key's mask).
func (k *Kbd) RegisterKey(code, column, line, mod int) {
	if code < 0 || code >= MaxKeys {
		panic("kbd: key code out of range")
	}
	mask := matrixMask(column, line)
	for layer := 0; layer < maxModifiers; layer++ {
		if mod&(1<<uint(layer)) != 0 {
			mask |= k.modMasks[layer]
		}
	}
	k.keyMap[code] = mask
}

// KeyDown presses a key. Unregistered key codes are ignored.
func (k *Kbd) KeyDown(code int) {
	if code < 0 || code >= MaxKeys || k.keyMap[code] == 0 {
		return
	}
	// reuse the slot if the key is already pressed
	for i := range k.pressed {
		if p := &k.pressed[i]; p.code == code && (p.down || p.released) {
			p.down = true
			p.released = false
			p.frame = k.frame
			return
		}
	}
	for i := range k.pressed {
		if p := &k.pressed[i]; !p.down && !p.released {
			*p = pressedKey{code: code, mask: k.keyMap[code], down: true, frame: k.frame}
			return
		}
	}
	// no free slot, drop the event
}

// KeyUp releases a key. The key stays sticky in the matrix until its
// sticky period has elapsed.
func (k *Kbd) KeyUp(code int) {
	for i := range k.pressed {
		if p := &k.pressed[i]; p.code == code && p.down {
			p.down = false
			p.released = true
		}
	}
}

// Update ages the sticky key state by the elapsed real time.
func (k *Kbd) Update(microSeconds uint32) {
	k.usCounter += microSeconds
	for k.usCounter >= frameDurationUs {
		k.usCounter -= frameDurationUs
		k.frame++
	}
	for i := range k.pressed {
		p := &k.pressed[i]
		if p.released && k.frame >= p.frame+k.stickyFrames {
			*p = pressedKey{}
		}
	}
}

// SetActiveColumns sets the column mask driven by the machine for the
// next line scan.
func (k *Kbd) SetActiveColumns(columns uint8) {
	k.activeColumns = columns
}

// SetActiveLines sets the line mask driven by the machine for the next
// column scan.
func (k *Kbd) SetActiveLines(lines uint8) {
	k.activeLines = lines
}

// ScanColumns returns the column bits of all pressed keys that sit on a
// currently active line.
func (k *Kbd) ScanColumns() uint8 {
	return uint8(k.scan(uint16(k.activeLines) << 8))
}

// ScanLines returns the line bits of all pressed keys that sit on a
// currently active column.
func (k *Kbd) ScanLines() uint8 {
	return uint8(k.scan(uint16(k.activeColumns)) >> 8)
}

func (k *Kbd) scan(activeMask uint16) uint16 {
	var result uint16
	for i := range k.pressed {
		p := &k.pressed[i]
		if (p.down || p.released) && p.mask&activeMask != 0 {
			result |= p.mask
		}
	}
	return result
}
