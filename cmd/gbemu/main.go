// Command gbemu is the reference host: it loads a cartridge, drives a
// Machine forward, and either shows it in a window (ebiten) or runs it
// headless for CI/CRC-diff style checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hearthcore/dmgcore/internal/cart"
	"github.com/hearthcore/dmgcore/internal/emu"
	"github.com/hearthcore/dmgcore/internal/ui"
)

type cliFlags struct {
	ROMPath string
	BootROM string
	Scale   int
	Title   string
	Trace   bool
	SaveRAM bool

	Headless bool
	Frames   int
	PNGOut   string
	Expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.ROMPath, "rom", "", "path to ROM (.gb)")
	flag.StringVar(&f.BootROM, "bootrom", "", "optional DMG boot ROM override")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "gbemu", "window title")
	flag.BoolVar(&f.Trace, "trace", false, "CPU trace (no effect: the core does not read it)")
	flag.BoolVar(&f.SaveRAM, "save", true, "persist battery RAM to ROM.sav")

	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Frames, "frames", 300, "frames to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write the last frame to PNG at path")
	flag.StringVar(&f.Expect, "expect", "", "assert the last frame's CRC32 (hex)")
	flag.Parse()
	if f.ROMPath == "" {
		f.ROMPath = flag.Arg(0)
	}
	return f
}

func mustRead(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	return b
}

func runHeadless(m *emu.Machine, frames int, pngPath, expectCRC string) error {
	if frames <= 0 {
		frames = 1
	}

	ctx := context.Background()
	var fb []byte
	start := time.Now()
	for i := 0; i < frames; i++ {
		got, err := m.RunFrame(ctx)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		fb = got
	}
	dur := time.Since(start)

	crc := crc32.ChecksumIEEE(fb)
	fps := float64(frames) / dur.Seconds()
	log.Printf("headless: frames=%d elapsed=%s fps=%.2f fb_crc32=%08x",
		frames, dur.Truncate(time.Millisecond), fps, crc)

	if pngPath != "" {
		if err := saveFramePNG(fb, pngPath); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", pngPath)
	}

	if expectCRC != "" {
		want := strings.TrimPrefix(strings.ToLower(expectCRC), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

// saveFramePNG converts a packed 160x144 RGB buffer (as returned by
// Machine.Frame) into a PNG.
func saveFramePNG(rgb []byte, path string) error {
	const w, h = 160, 144
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := (y*w + x) * 3
			di := img.PixOffset(x, y)
			img.Pix[di+0] = rgb[si+0]
			img.Pix[di+1] = rgb[si+1]
			img.Pix[di+2] = rgb[si+2]
			img.Pix[di+3] = 0xFF
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func savPath(romPath string) string {
	return strings.TrimSuffix(romPath, ".gb") + ".sav"
}

func main() {
	f := parseFlags()
	if f.ROMPath == "" {
		log.Fatal("missing ROM path (positional argument or -rom)")
	}
	rom := mustRead(f.ROMPath)
	boot := mustRead(f.BootROM)

	if h, err := cart.ParseHeader(rom); err == nil {
		log.Printf("ROM: %q type=%s banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
	}

	m := emu.New(emu.Config{Trace: f.Trace})
	var bootOverride []byte
	if len(boot) >= 0x100 {
		bootOverride = boot
	}
	if err := m.LoadCartridge(rom, bootOverride); err != nil {
		log.Fatalf("load cart: %v", err)
	}
	m.SetSerialWriter(os.Stdout)

	sav := savPath(f.ROMPath)
	if f.SaveRAM {
		if data, err := os.ReadFile(sav); err == nil {
			if m.LoadBattery(data) {
				log.Printf("loaded save RAM: %s (%d bytes)", sav, len(data))
			}
		}
	}

	var runErr error
	if f.Headless {
		runErr = runHeadless(m, f.Frames, f.PNGOut, f.Expect)
	} else {
		app := ui.NewApp(ui.Config{Title: f.Title, Scale: f.Scale}, m)
		runErr = app.Run()
	}

	if f.SaveRAM {
		if data, ok := m.SaveBattery(); ok {
			if err := os.WriteFile(sav, data, 0644); err == nil {
				log.Printf("wrote %s", sav)
			}
		}
	}

	if runErr != nil {
		log.Fatal(runErr)
	}
}
