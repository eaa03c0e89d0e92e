package kbd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestKbd() *Kbd {
	k := &Kbd{}
	k.Init(2)
	k.RegisterModifier(0, 0, 7)
	k.RegisterKey('A', 1, 0, 0)
	k.RegisterKey('a', 1, 0, 1)
	k.RegisterKey('B', 2, 3, 0)
	return k
}

func TestScan(t *testing.T) {
	k := newTestKbd()
	k.KeyDown('A')

	k.SetActiveColumns(0x02)
	assert.Equal(t, uint8(0x01), k.ScanLines(), "key A sits on line 0")

	k.SetActiveLines(0x01)
	assert.Equal(t, uint8(0x02), k.ScanColumns(), "key A sits on column 1")

	k.SetActiveColumns(0xFF &^ 0x02)
	assert.Zero(t, k.ScanLines(), "inactive column is invisible")
}

func TestModifier(t *testing.T) {
	k := newTestKbd()
	k.KeyDown('a')

	// the lowercase key carries the shift position along
	k.SetActiveColumns(0x02)
	assert.Equal(t, uint8(0x01|0x80), k.ScanLines())
	k.SetActiveColumns(0x01)
	assert.Equal(t, uint8(0x81), k.ScanLines(), "the shift column reports the full key mask")
}

func TestMultipleKeys(t *testing.T) {
	k := newTestKbd()
	k.KeyDown('A')
	k.KeyDown('B')

	k.SetActiveLines(0xFF)
	assert.Equal(t, uint8(0x02|0x04), k.ScanColumns())
}

func TestStickyRelease(t *testing.T) {
	k := newTestKbd()
	k.KeyDown('A')
	k.KeyUp('A')
	k.SetActiveColumns(0x02)

	// a released key stays visible for the sticky period
	assert.Equal(t, uint8(0x01), k.ScanLines())
	k.Update(16667)
	assert.Equal(t, uint8(0x01), k.ScanLines())
	k.Update(16667)
	assert.Zero(t, k.ScanLines(), "sticky period elapsed")
}

func TestStickyPartialFrames(t *testing.T) {
	k := newTestKbd()
	k.KeyDown('A')
	k.KeyUp('A')
	k.SetActiveColumns(0x02)

	// the frame counter accumulates sub-frame updates
	for i := 0; i < 33; i++ {
		k.Update(1000)
	}
	assert.Equal(t, uint8(0x01), k.ScanLines())
	k.Update(1000)
	assert.Zero(t, k.ScanLines())
}

func TestHeldKeyNotExpired(t *testing.T) {
	k := newTestKbd()
	k.KeyDown('A')
	k.SetActiveColumns(0x02)

	k.Update(10 * 16667)
	assert.Equal(t, uint8(0x01), k.ScanLines(), "held keys never expire")
}

func TestRepressResetsSticky(t *testing.T) {
	k := newTestKbd()
	k.KeyDown('A')
	k.KeyUp('A')
	k.Update(16667)
	k.KeyDown('A')
	k.KeyUp('A')
	k.Update(16667)

	k.SetActiveColumns(0x02)
	assert.Equal(t, uint8(0x01), k.ScanLines(), "re-press restarts the sticky period")
}

func TestUnregisteredKeyIgnored(t *testing.T) {
	k := newTestKbd()
	k.KeyDown('z')
	k.SetActiveColumns(0xFF)
	k.SetActiveLines(0xFF)
	assert.Zero(t, k.ScanLines())
	assert.Zero(t, k.ScanColumns())
}
