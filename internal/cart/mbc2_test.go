package cart

import "testing"

func TestMBC2_ROMBanking(t *testing.T) {
	rom := make([]byte, 256*1024)
	for bank := 0; bank < 16; bank++ {
		rom[bank*0x4000] = byte(bank)
	}
	m := NewMBC2(rom)

	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("default bank read got %02X want 01", got)
	}
	m.Write(0x2100, 0x05) // bit8 set -> ROM bank select
	if got := m.Read(0x4000); got != 0x05 {
		t.Fatalf("bank5 read got %02X want 05", got)
	}
	m.Write(0x2100, 0x00) // 0 remaps to 1
	if got := m.Read(0x4000); got != 0x01 {
		t.Fatalf("bank0->1 remap failed: got %02X", got)
	}
}

func TestMBC2_BuiltInRAMIsNibbleWide(t *testing.T) {
	rom := make([]byte, 32*1024)
	m := NewMBC2(rom)

	m.Write(0x0000, 0x0A) // bit8 clear -> RAM enable
	m.Write(0xA000, 0xFF)
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("RAM byte got %02X want FF (low nibble all set, high nibble forced)", got)
	}
	m.Write(0xA000, 0x3)
	if got := m.Read(0xA000); got != 0xF3 {
		t.Fatalf("RAM byte got %02X want F3 (high nibble reads as 1s)", got)
	}
}

func TestMBC2_RAMMirrorsAcrossWindow(t *testing.T) {
	rom := make([]byte, 32*1024)
	m := NewMBC2(rom)
	m.Write(0x0000, 0x0A)
	m.Write(0xA000, 0x7)
	if got := m.Read(0xA200); got != 0xF7 {
		t.Fatalf("RAM not mirrored at A200: got %02X", got)
	}
}

func TestMBC2_RAMDisabledReadsFF(t *testing.T) {
	rom := make([]byte, 32*1024)
	m := NewMBC2(rom)
	if got := m.Read(0xA000); got != 0xFF {
		t.Fatalf("disabled RAM read got %02X want FF", got)
	}
}
