package ppu

import "testing"

func buildOAMEntry(oam []byte, index int, y, x, tile, attr byte) {
	base := index * 4
	oam[base+0] = y
	oam[base+1] = x
	oam[base+2] = tile
	oam[base+3] = attr
}

func TestGatherSpritesVisibilityInterval(t *testing.T) {
	var oam [0xA0]byte
	// OAM Y=16 -> screen Y=0, height 8 -> visible on scanlines 0..7
	buildOAMEntry(oam[:], 0, 16, 8, 0, 0)

	if got := gatherSprites(oam[:], 0, false); len(got) != 1 {
		t.Fatalf("expected sprite visible at ly=0, got %d", len(got))
	}
	if got := gatherSprites(oam[:], 7, false); len(got) != 1 {
		t.Fatalf("expected sprite visible at ly=7, got %d", len(got))
	}
	if got := gatherSprites(oam[:], 8, false); len(got) != 0 {
		t.Fatalf("expected sprite not visible at ly=8 (half-open interval), got %d", len(got))
	}
}

func TestGatherSpritesTallMode(t *testing.T) {
	var oam [0xA0]byte
	buildOAMEntry(oam[:], 0, 16, 8, 0, 0)

	if got := gatherSprites(oam[:], 15, true); len(got) != 1 {
		t.Fatalf("expected 8x16 sprite visible at ly=15, got %d", len(got))
	}
	if got := gatherSprites(oam[:], 16, true); len(got) != 0 {
		t.Fatalf("expected 8x16 sprite not visible at ly=16, got %d", len(got))
	}
}

func TestGatherSpritesCapsAtTenAndSortsByXThenOAMIndex(t *testing.T) {
	var oam [0xA0]byte
	for i := 0; i < 12; i++ {
		// all on the same line, descending X so sort order is exercised
		buildOAMEntry(oam[:], i, 16, byte(200-i), 0, 0)
	}
	got := gatherSprites(oam[:], 0, false)
	if len(got) != 10 {
		t.Fatalf("expected cap of 10 sprites, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].X < got[i-1].X {
			t.Fatalf("sprites not sorted ascending by X: %d then %d", got[i-1].X, got[i].X)
		}
	}
}

func TestGatherSpritesOAMIndexTieBreak(t *testing.T) {
	var oam [0xA0]byte
	buildOAMEntry(oam[:], 5, 16, 8, 0, 0)
	buildOAMEntry(oam[:], 2, 16, 8, 0, 0)
	got := gatherSprites(oam[:], 0, false)
	if len(got) != 2 {
		t.Fatalf("expected 2 sprites, got %d", len(got))
	}
	if got[0].OAMIndex != 2 {
		t.Fatalf("expected lower OAM index first on X tie, got %d", got[0].OAMIndex)
	}
}
