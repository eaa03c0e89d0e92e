// Package ui is the ebiten host frontend: it runs the emulator at video
// frame rate, renders the framebuffer, translates host key events into
// the emulated keyboard matrix and plays the beeper output.
//
// Extra host keys:
//
//	F1 - hardware reset
//	F5 - save an in-memory snapshot
//	F9 - restore the last snapshot
package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/dvoelker/z9001/internal/z9001"
)

// one 60 Hz host frame in emulated microseconds
const frameMicroSeconds = 16667

type UI struct {
	sys     *z9001.System
	display z9001.DisplayInfo

	frame  *ebiten.Image
	pixels []byte
	scale  int

	held map[ebiten.Key]int

	snapshot        *z9001.System
	snapshotVersion uint32

	quickload      []byte
	quickloadDelay int
}

// New creates the frontend for an initialized system.
func New(sys *z9001.System, scale int) *UI {
	if scale < 1 {
		scale = 2
	}
	display := sys.DisplayInfo()
	return &UI{
		sys:     sys,
		display: display,
		frame:   ebiten.NewImage(display.ScreenWidth, display.ScreenHeight),
		pixels:  make([]byte, display.ScreenWidth*display.ScreenHeight*4),
		scale:   scale,
		held:    make(map[ebiten.Key]int),
	}
}

// SetQuickload schedules a KCC/KC-TAP image to be loaded after the OS
// had a few frames to boot.
func (ui *UI) SetQuickload(data []byte, delayFrames int) {
	ui.quickload = data
	ui.quickloadDelay = delayFrames
}

func (ui *UI) Update() error {
	ui.handleKeys()

	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		ui.sys.Reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		ui.snapshot = new(z9001.System)
		ui.snapshotVersion = ui.sys.SaveSnapshot(ui.snapshot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) && ui.snapshot != nil {
		ui.sys.LoadSnapshot(ui.snapshotVersion, ui.snapshot)
	}

	if ui.quickload != nil {
		if ui.quickloadDelay > 0 {
			ui.quickloadDelay--
		} else {
			ui.sys.Quickload(ui.quickload)
			ui.quickload = nil
		}
	}

	ui.sys.Exec(frameMicroSeconds)
	return nil
}

// keyCode translates a host key to the emulated key code, honoring the
// machine's shift convention: unshifted letters are uppercase.
func keyCode(key ebiten.Key, shift bool) (int, bool) {
	switch {
	case key >= ebiten.KeyA && key <= ebiten.KeyZ:
		if shift {
			return int('a' + key - ebiten.KeyA), true
		}
		return int('A' + key - ebiten.KeyA), true
	case key >= ebiten.KeyDigit0 && key <= ebiten.KeyDigit9:
		return int('0' + key - ebiten.KeyDigit0), true
	}
	switch key {
	case ebiten.KeySpace:
		return 0x20, true
	case ebiten.KeyEnter:
		return 0x0D, true
	case ebiten.KeyEscape:
		return 0x03, true // stop
	case ebiten.KeyArrowLeft, ebiten.KeyBackspace:
		return 0x08, true
	case ebiten.KeyArrowRight:
		return 0x09, true
	case ebiten.KeyArrowUp:
		return 0x0A, true
	case ebiten.KeyArrowDown:
		return 0x0B, true
	case ebiten.KeyHome:
		return 0x19, true
	case ebiten.KeyInsert:
		return 0x1A, true
	case ebiten.KeyComma:
		return ',', true
	case ebiten.KeyPeriod:
		return '.', true
	case ebiten.KeySemicolon:
		return ';', true
	case ebiten.KeyEqual:
		return '=', true
	case ebiten.KeyMinus:
		return '-', true
	case ebiten.KeySlash:
		return '/', true
	}
	return 0, false
}

// handleKeys diffs the host key state against the previous frame and
// forwards presses and releases to the keyboard matrix.
func (ui *UI) handleKeys() {
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) ||
		ebiten.IsKeyPressed(ebiten.KeyShiftRight)

	for key := ebiten.Key(0); key <= ebiten.KeyMax; key++ {
		code, ok := keyCode(key, shift)
		if !ok {
			continue
		}
		heldCode, wasHeld := ui.held[key]
		pressed := ebiten.IsKeyPressed(key)
		switch {
		case pressed && !wasHeld:
			ui.sys.KeyDown(code)
			ui.held[key] = code
		case pressed && heldCode != code:
			// shift state changed while the key was held
			ui.sys.KeyUp(heldCode)
			ui.sys.KeyDown(code)
			ui.held[key] = code
		case !pressed && wasHeld:
			ui.sys.KeyUp(heldCode)
			delete(ui.held, key)
		}
	}
}

func (ui *UI) Draw(screen *ebiten.Image) {
	fb := ui.display.Framebuffer
	pal := ui.display.Palette
	stride := ui.display.FrameWidth
	for y := 0; y < ui.display.ScreenHeight; y++ {
		src := fb[y*stride:]
		dst := ui.pixels[y*ui.display.ScreenWidth*4:]
		for x := 0; x < ui.display.ScreenWidth; x++ {
			c := pal[src[x]&7] // 0xAABBGGRR
			dst[x*4+0] = uint8(c)
			dst[x*4+1] = uint8(c >> 8)
			dst[x*4+2] = uint8(c >> 16)
			dst[x*4+3] = uint8(c >> 24)
		}
	}
	ui.frame.WritePixels(ui.pixels)

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(ui.scale), float64(ui.scale))
	screen.DrawImage(ui.frame, op)
}

func (ui *UI) Layout(_, _ int) (int, int) {
	return ui.display.ScreenWidth * ui.scale, ui.display.ScreenHeight * ui.scale
}

// Run opens the window and drives the emulator until the window closes.
func Run(ui *UI, title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(ui.display.ScreenWidth*ui.scale, ui.display.ScreenHeight*ui.scale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(ui)
}
