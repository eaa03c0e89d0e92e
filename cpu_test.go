package z9001

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dvoelker/z9001/internal/z80"
)

// Test_CPU_SingleStepTest runs externally provided single-instruction
// test vectors against the CPU core. Each JSON file holds a list of
// tests; a test sets up a full register and memory state, executes one
// instruction for a known number of clock cycles and compares the
// resulting state.
//
// The vector directory is passed in SINGLE_STEP_TEST_DIR; without it the
// test is skipped.
func Test_CPU_SingleStepTest(t *testing.T) {
	t.Parallel()

	type cpuState struct {
		PC   uint16 `json:"pc"`
		SP   uint16 `json:"sp"`
		AF   uint16 `json:"af"`
		BC   uint16 `json:"bc"`
		DE   uint16 `json:"de"`
		HL   uint16 `json:"hl"`
		IX   uint16 `json:"ix"`
		IY   uint16 `json:"iy"`
		AF2  uint16 `json:"af_"`
		BC2  uint16 `json:"bc_"`
		DE2  uint16 `json:"de_"`
		HL2  uint16 `json:"hl_"`
		IM   uint8  `json:"im"`
		IFF1 bool   `json:"iff1"`

		// slice of elements where
		// element[0] is address
		// element[1] is value
		RAM [][2]uint16 `json:"ram"`
	}

	type testInstance struct {
		Name    string   `json:"name"`
		Cycles  int      `json:"cycles"`
		Initial cpuState `json:"initial"`
		Final   cpuState `json:"final"`
	}

	dir := os.Getenv("SINGLE_STEP_TEST_DIR")
	if dir == "" {
		t.Skip("skipping test because SINGLE_STEP_TEST_DIR is not set")
		return
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	var mem [1 << 16]byte
	doTest := func(t *testing.T, test testInstance) {
		for i := range mem {
			mem[i] = 0
		}
		for _, addrVal := range test.Initial.RAM {
			mem[addrVal[0]] = uint8(addrVal[1])
		}

		cpu := &z80.Z80{}
		cpu.Init()
		cpu.SetSP(test.Initial.SP)
		cpu.SetAF(test.Initial.AF)
		cpu.SetBC(test.Initial.BC)
		cpu.SetDE(test.Initial.DE)
		cpu.SetHL(test.Initial.HL)
		cpu.SetIX(test.Initial.IX)
		cpu.SetIY(test.Initial.IY)
		cpu.SetAF2(test.Initial.AF2)
		cpu.SetBC2(test.Initial.BC2)
		cpu.SetDE2(test.Initial.DE2)
		cpu.SetHL2(test.Initial.HL2)
		cpu.SetIM(test.Initial.IM)
		cpu.SetIFF(test.Initial.IFF1)
		pins := cpu.Prefetch(test.Initial.PC)

		for i := 0; i < test.Cycles; i++ {
			pins = cpu.Tick(pins)
			if pins&z80.PinMREQ != 0 {
				addr := z80.GetAddr(pins)
				if pins&z80.PinRD != 0 {
					pins = z80.SetData(pins, mem[addr])
				} else if pins&z80.PinWR != 0 {
					mem[addr] = z80.GetData(pins)
				}
			}
		}

		if got, want := cpu.PC(), test.Final.PC; got != want {
			t.Errorf("PC: got %04X, want %04X", got, want)
		}
		if got, want := cpu.SP(), test.Final.SP; got != want {
			t.Errorf("SP: got %04X, want %04X", got, want)
		}
		if got, want := cpu.AF(), test.Final.AF; got != want {
			t.Errorf("AF: got %04X, want %04X", got, want)
		}
		if got, want := cpu.BC(), test.Final.BC; got != want {
			t.Errorf("BC: got %04X, want %04X", got, want)
		}
		if got, want := cpu.DE(), test.Final.DE; got != want {
			t.Errorf("DE: got %04X, want %04X", got, want)
		}
		if got, want := cpu.HL(), test.Final.HL; got != want {
			t.Errorf("HL: got %04X, want %04X", got, want)
		}
		if got, want := cpu.IX(), test.Final.IX; got != want {
			t.Errorf("IX: got %04X, want %04X", got, want)
		}
		if got, want := cpu.IY(), test.Final.IY; got != want {
			t.Errorf("IY: got %04X, want %04X", got, want)
		}
		for _, addrVal := range test.Final.RAM {
			if got, want := mem[addrVal[0]], uint8(addrVal[1]); got != want {
				t.Errorf("ram[%04X]: got %02X, want %02X", addrVal[0], got, want)
			}
		}
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) != ".json" {
			continue
		}
		file := file
		t.Run(file.Name(), func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join(dir, file.Name()))
			if err != nil {
				t.Fatal(err)
			}
			var tests []testInstance
			if err := json.Unmarshal(data, &tests); err != nil {
				t.Fatal(err)
			}
			for _, test := range tests {
				t.Run(test.Name, func(t *testing.T) {
					doTest(t, test)
				})
			}
		})
	}
}
