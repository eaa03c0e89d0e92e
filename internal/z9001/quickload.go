package z9001

import "encoding/binary"

// Quickload support for the two common KC file formats:
//
//   - KCC: a 128-byte header (name, load/end/exec address) followed by
//     the raw memory image. The format has no magic number and can only
//     be validated heuristically.
//   - KC-TAP: a 16-byte signature and a type byte in front of a KCC
//     header; the payload is stored in 128-byte blocks, each preceded
//     by one block-number lead byte.

const (
	kccHeaderSize   = 128
	kctapHeaderSize = 16 + 1 + kccHeaderSize
)

var kctapSig = [16]byte{0xC3, 'K', 'C', '-', 'T', 'A', 'P', 'E', 0x20, 'b', 'y', 0x20, 'A', 'F', '.', 0x20}

type kccHeader struct {
	name     [16]byte
	numAddr  uint8
	loadAddr uint16
	endAddr  uint16
	execAddr uint16
}

func parseKCCHeader(data []byte) kccHeader {
	var hdr kccHeader
	copy(hdr.name[:], data[:16])
	hdr.numAddr = data[16]
	hdr.loadAddr = binary.LittleEndian.Uint16(data[17:])
	hdr.endAddr = binary.LittleEndian.Uint16(data[19:])
	hdr.execAddr = binary.LittleEndian.Uint16(data[21:])
	return hdr
}

// validKCCHeader checks the plausibility rules shared by KCC and KC-TAP:
// an ASCII name, at most 3 addresses, a non-empty address range and an
// exec address inside it.
func validKCCHeader(hdr kccHeader) bool {
	for _, c := range hdr.name {
		if c >= 128 {
			return false
		}
	}
	if hdr.numAddr > 3 {
		return false
	}
	if hdr.endAddr <= hdr.loadAddr {
		return false
	}
	if hdr.numAddr > 2 {
		if hdr.execAddr < hdr.loadAddr || hdr.execAddr > hdr.endAddr {
			return false
		}
	}
	return true
}

func isValidKCC(data []byte) bool {
	if len(data) <= kccHeaderSize {
		return false
	}
	hdr := parseKCCHeader(data)
	if !validKCCHeader(hdr) {
		return false
	}
	requiredLen := int(hdr.endAddr-hdr.loadAddr) + kccHeaderSize
	return requiredLen <= len(data)
}

func (s *System) loadKCC(data []byte) bool {
	hdr := parseKCCHeader(data)
	payload := data[kccHeaderSize:]
	addr := hdr.loadAddr
	for i := 0; addr < hdr.endAddr; i++ {
		// payload data is continuous
		s.mem.Wr(addr, payload[i])
		addr++
	}
	return true
}

func isValidKCTAP(data []byte) bool {
	if len(data) <= kctapHeaderSize {
		return false
	}
	for i, c := range kctapSig {
		if data[i] != c {
			return false
		}
	}
	hdr := parseKCCHeader(data[17:])
	if !validKCCHeader(hdr) {
		return false
	}
	requiredLen := int(hdr.endAddr-hdr.loadAddr) + kctapHeaderSize
	return requiredLen <= len(data)
}

func (s *System) loadKCTAP(data []byte) bool {
	hdr := parseKCCHeader(data[17:])
	payload := data[kctapHeaderSize:]
	addr := hdr.loadAddr
	pos := 0
	// each block is one lead byte plus 128 bytes of data; the last block
	// is written in full even when it extends past the end address
	for addr < hdr.endAddr && pos+129 <= len(payload) {
		pos++
		for i := 0; i < 128; i++ {
			s.mem.Wr(addr, payload[pos])
			addr++
			pos++
		}
	}
	// a file with an exec address starts immediately
	if hdr.numAddr > 2 {
		s.loadStart(hdr.execAddr)
	}
	return true
}

// loadStart puts the CPU into the state the OS loader would leave behind
// and redirects execution to the program's entry point.
func (s *System) loadStart(execAddr uint16) {
	s.cpu.SetAF(0x0010)
	s.cpu.SetBC(0x0000)
	s.cpu.SetDE(0x0000)
	s.cpu.SetHL(0x0000)
	s.cpu.SetAF2(0x0000)
	s.cpu.SetBC2(0x0000)
	s.cpu.SetDE2(0x0000)
	s.cpu.SetHL2(0x0000)
	s.pins = s.cpu.Prefetch(execAddr)
}

// Quickload loads a KC-TAP or KCC image directly into memory, bypassing
// the tape interface. It returns false if the data is empty or not
// recognized as either format.
func (s *System) Quickload(data []byte) bool {
	if !s.valid {
		panic("z9001: quickload on invalid system")
	}
	// check KC-TAP first, it is the only format with a signature
	if isValidKCTAP(data) {
		return s.loadKCTAP(data)
	}
	if isValidKCC(data) {
		return s.loadKCC(data)
	}
	return false
}
