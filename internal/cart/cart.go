// Package cart decodes the cartridge header and implements the memory
// bank controllers (MBCs) a DMG cartridge may carry.
package cart

// Cartridge is the minimal interface the bus needs for ROM/RAM banking.
// Addresses are CPU addresses.
type Cartridge interface {
	// Read returns a byte for ROM (0x0000-0x7FFF) and external RAM
	// (0xA000-0xBFFF).
	Read(addr uint16) byte
	// Write handles MBC control writes (0x0000-0x7FFF) and external
	// RAM writes (0xA000-0xBFFF).
	Write(addr uint16, value byte)
}

// BatteryBacked is implemented by cartridges whose external RAM should
// be persisted across runs. SaveRAM returns a copy (nil if there is no
// RAM); LoadRAM restores a previously saved image.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// New picks an implementation based on the ROM header's cartridge type
// byte, falling back to ROM-only for anything unrecognized so
// homebrew and test ROMs with odd headers still run.
func New(rom []byte) Cartridge {
	h, err := ParseHeader(rom)
	if err != nil {
		return NewROMOnly(rom)
	}
	switch h.CartType {
	case 0x00:
		return NewROMOnly(rom)
	case 0x01, 0x02, 0x03: // MBC1 (+RAM, +RAM+battery)
		return NewMBC1(rom, h.RAMSizeBytes)
	case 0x05, 0x06: // MBC2 (+battery); RAM is the built-in 512x4-bit array
		return NewMBC2(rom)
	case 0x0F, 0x10, 0x11, 0x12, 0x13: // MBC3 (+RAM, +battery, +RTC not modeled)
		return NewMBC3(rom, h.RAMSizeBytes)
	case 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E: // MBC5 (+RAM, +battery, +rumble)
		return NewMBC5(rom, h.RAMSizeBytes)
	default:
		return NewROMOnly(rom)
	}
}
