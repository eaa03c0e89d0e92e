package z9001

// The video hardware is a simple character generator: 24 rows of 40
// characters, each character cell is 8x8 pixels taken from the font ROM.
// The KC87 color extension adds a color RAM byte per character with a
// 3-bit foreground and background color and a blink flag.
//
// The framebuffer holds one palette index per pixel; only the left 320
// of the 512 pixels per line are visible.

// DisplayInfo describes the emulator's video output. It can be queried
// from a nil System to set up the host window before the emulator runs;
// the framebuffer is nil in that case.
type DisplayInfo struct {
	FrameWidth    int
	FrameHeight   int
	Framebuffer   []byte // one palette index per pixel, row-major
	ScreenX       int
	ScreenY       int
	ScreenWidth   int
	ScreenHeight  int
	Palette       []uint32 // 8 colors, 0xAABBGGRR
}

var palette = [8]uint32{
	0xFF000000, // black
	0xFF0000FF, // red
	0xFF00FF00, // green
	0xFF00FFFF, // yellow
	0xFFFF0000, // blue
	0xFFFF00FF, // purple
	0xFFFFFF00, // cyan
	0xFFFFFFFF, // white
}

// DisplayInfo returns the display properties, valid on a nil receiver.
func (s *System) DisplayInfo() DisplayInfo {
	info := DisplayInfo{
		FrameWidth:   FramebufferWidth,
		FrameHeight:  FramebufferHeight,
		ScreenWidth:  DisplayWidth,
		ScreenHeight: DisplayHeight,
		Palette:      palette[:],
	}
	if s != nil {
		info.Framebuffer = s.fb[:]
	}
	return info
}

// decode8Pixels expands one font byte into 8 palette indices, MSB first.
func decode8Pixels(dst []byte, pixels, colors uint8) {
	fg := (colors >> 4) & 7
	bg := colors & 7
	for i := 0; i < 8; i++ {
		if pixels&(0x80>>uint(i)) != 0 {
			dst[i] = fg
		} else {
			dst[i] = bg
		}
	}
}

// decodeVidmem renders the whole character RAM into the framebuffer.
func (s *System) decodeVidmem() {
	vidmem := s.ram[0xEC00 : 0xEC00+0x0400]
	offset := 0
	if s.model == ModelKC87 {
		colmem := s.ram[0xE800 : 0xE800+0x0400]
		for y := 0; y < 24; y++ {
			for py := 0; py < 8; py++ {
				dst := s.fb[(y*8+py)*FramebufferWidth:]
				for x := 0; x < 40; x++ {
					chr := vidmem[offset+x]
					pixels := s.romFont[int(chr)<<3|py]
					colors := colmem[offset+x]
					if colors&s.blinkFlipFlop&0x80 != 0 {
						// blinking swaps fore- and background color
						colors = (colors&7)<<4 | (colors>>4)&7
					}
					decode8Pixels(dst[x*8:], pixels, colors)
				}
			}
			offset += 40
		}
	} else {
		// monochrome: white on black
		for y := 0; y < 24; y++ {
			for py := 0; py < 8; py++ {
				dst := s.fb[(y*8+py)*FramebufferWidth:]
				for x := 0; x < 40; x++ {
					chr := vidmem[offset+x]
					pixels := s.romFont[int(chr)<<3|py]
					decode8Pixels(dst[x*8:], pixels, 0x70)
				}
			}
			offset += 40
		}
	}
}
