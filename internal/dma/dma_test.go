package dma

import "testing"

type fakeBus struct{ mem [0x10000]byte }

func (b *fakeBus) Read(addr uint16) byte { return b.mem[addr] }

type fakeOAM struct{ bytes [0xA0]byte }

func (o *fakeOAM) WriteOAM(offset byte, v byte) { o.bytes[offset] = v }

func TestTransferCopiesAllBytes(t *testing.T) {
	var bus fakeBus
	for i := 0; i < 0xA0; i++ {
		bus.mem[0xC000+i] = byte(i + 1)
	}
	var oam fakeOAM
	d := New()
	d.Start(0xC0)

	if !d.Active() {
		t.Fatalf("DMA not active right after Start")
	}

	d.Tick(0xA0*4, &bus, &oam)

	if d.Active() {
		t.Fatalf("DMA still active after full transfer duration")
	}
	for i := 0; i < 0xA0; i++ {
		if oam.bytes[i] != byte(i+1) {
			t.Fatalf("OAM[%d] = %#02x, want %#02x", i, oam.bytes[i], byte(i+1))
		}
	}
}

func TestPartialTickCopiesPartially(t *testing.T) {
	var bus fakeBus
	bus.mem[0xC000] = 0x42
	var oam fakeOAM
	d := New()
	d.Start(0xC0)

	d.Tick(3, &bus, &oam) // not yet a full 4-cycle slice
	if oam.bytes[0] != 0 {
		t.Fatalf("byte copied before a full slice elapsed")
	}
	d.Tick(1, &bus, &oam)
	if oam.bytes[0] != 0x42 {
		t.Fatalf("byte not copied after a full 4-cycle slice")
	}
}
