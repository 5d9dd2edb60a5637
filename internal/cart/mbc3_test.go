package cart

import "testing"

func TestMBC3_ROMBanking(t *testing.T) {
	rom := make([]byte, 0x8000*4)
	for bank := 0; bank < 4; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC3(rom, 0)

	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default bank read got %02X want 01", got)
	}
	m.Write(0x2000, 0x03)
	if got := m.Read(0x4000); got != 0x03 {
		t.Fatalf("bank3 read got %02X want 03", got)
	}
	m.Write(0x2000, 0x00) // 0 remaps to 1
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("bank0->1 remap failed: got %02X", got)
	}
}

func TestMBC3_RAMBankingAndRTCSelectTreatedAsBank0(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 4*0x2000)
	m.Write(0x0000, 0x0A) // RAM enable

	m.Write(0x4000, 0x02) // select RAM bank 2
	m.Write(0xA000, 0x55)
	if got := m.Read(0xA000); got != 0x55 {
		t.Fatalf("RAM bank2 RW failed: got %02X", got)
	}

	m.Write(0x4000, 0x08) // RTC register select; not modeled, falls back to bank 0
	m.Write(0xA000, 0x77)
	m.Write(0x4000, 0x00)
	if got := m.Read(0xA000); got != 0x77 {
		t.Fatalf("RTC-select fallback bank0 RW failed: got %02X", got)
	}
}

func TestMBC3_RAMPersistsThroughSaveLoad(t *testing.T) {
	rom := make([]byte, 0x8000)
	m := NewMBC3(rom, 0x2000)
	m.Write(0x0000, 0x0A)
	m.Write(0xA010, 0x42)

	saved := m.SaveRAM()
	n := NewMBC3(rom, 0x2000)
	n.LoadRAM(saved)
	n.Write(0x0000, 0x0A)
	if got := n.Read(0xA010); got != 0x42 {
		t.Fatalf("RAM not restored: got %02X want 42", got)
	}
}
