// Package mem implements a layered, page-table based 64 KB memory map.
//
// Address ranges are mapped per layer; layer 0 has the highest priority,
// so a RAM window mapped on layer 0 can be cut out of a ROM region mapped
// on layer 1. The mapping is resolved into a flat page table for fast
// per-access lookup. Reads from unmapped memory return 0xFF, writes to
// ROM (or unmapped memory) go to a junk page and are lost.
package mem

const (
	pageShift = 10 // 1 KB pages
	PageSize  = 1 << pageShift
	pageMask  = PageSize - 1

	AddrRange = 1 << 16
	NumPages  = AddrRange / PageSize
	NumLayers = 4
)

// page associates independent read and write backing storage with a
// 1 KB address window. ROM pages read from the ROM image but write into
// the shared junk page.
type page struct {
	read  []byte
	write []byte
}

// Mem is a layered memory map. The zero value is not usable, call Init
// first. Mem holds slices into caller-owned backing storage; after a
// whole-state value copy those slices still refer to the source instance,
// which is why snapshots must drop them (SnapshotOnSave) and rebuild the
// mapping against the live buffers on load.
type Mem struct {
	layers   [NumLayers][NumPages]page
	pages    [NumPages]page
	unmapped [PageSize]byte
	junk     [PageSize]byte
}

// Init puts the memory map into its initial state with the entire
// address range unmapped.
func (m *Mem) Init() {
	*m = Mem{}
	for i := range m.unmapped {
		m.unmapped[i] = 0xFF
	}
	for i := 0; i < NumPages; i++ {
		m.updatePage(i)
	}
}

// MapRAM maps a RAM region (readable and writable) into a layer.
// addr and size must be page-aligned and must not wrap the address range.
func (m *Mem) MapRAM(layer int, addr, size int, ram []byte) {
	m.mapRange(layer, addr, size, ram, ram)
}

// MapROM maps a ROM region (read-only, writes silently absorbed) into a
// layer.
func (m *Mem) MapROM(layer int, addr, size int, rom []byte) {
	m.mapRange(layer, addr, size, rom, nil)
}

// Unmap removes all mappings of a layer.
func (m *Mem) Unmap(layer int) {
	for i := 0; i < NumPages; i++ {
		m.layers[layer][i] = page{}
		m.updatePage(i)
	}
}

func (m *Mem) mapRange(layer, addr, size int, read, write []byte) {
	if layer < 0 || layer >= NumLayers {
		panic("mem: layer out of range")
	}
	if addr&pageMask != 0 || size&pageMask != 0 || size <= 0 || addr+size > AddrRange {
		panic("mem: address range not page aligned")
	}
	if len(read) < size {
		panic("mem: backing storage smaller than mapped range")
	}
	for offset := 0; offset < size; offset += PageSize {
		pageIndex := (addr + offset) >> pageShift
		p := &m.layers[layer][pageIndex]
		p.read = read[offset : offset+PageSize]
		if write != nil {
			p.write = write[offset : offset+PageSize]
		} else {
			p.write = m.junk[:]
		}
		m.updatePage(pageIndex)
	}
}

// updatePage resolves the effective mapping of one page from the layers,
// lowest layer index wins.
func (m *Mem) updatePage(pageIndex int) {
	for layer := 0; layer < NumLayers; layer++ {
		if p := m.layers[layer][pageIndex]; p.read != nil {
			m.pages[pageIndex] = p
			return
		}
	}
	m.pages[pageIndex] = page{read: m.unmapped[:], write: m.junk[:]}
}

// Rd reads one byte.
func (m *Mem) Rd(addr uint16) byte {
	return m.pages[addr>>pageShift].read[addr&pageMask]
}

// Wr writes one byte. Writes through ROM or unmapped pages are absorbed.
func (m *Mem) Wr(addr uint16, data byte) {
	m.pages[addr>>pageShift].write[addr&pageMask] = data
}

// SnapshotOnSave neutralizes all backing-storage references so a saved
// copy carries no addresses of the source instance. The owner is expected
// to rebuild the mapping against its own buffers when the copy is
// restored.
func (m *Mem) SnapshotOnSave() {
	*m = Mem{}
}
