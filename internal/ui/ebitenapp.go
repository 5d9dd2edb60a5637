package ui

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/hearthcore/dmgcore/internal/emu"
	"github.com/hearthcore/dmgcore/internal/input"
)

// App is the windowed reference host: each Update drives the Machine
// one frame forward and translates keyboard state into input.Events;
// Draw blits whatever frame came back.
type App struct {
	cfg Config
	m   *emu.Machine

	tex    *ebiten.Image
	rgba   []byte // scratch RGBA conversion buffer for tex.WritePixels
	paused bool
	fatal  error // set once the CPU fetches an undefined opcode
}

// NewApp wires a Machine to an ebiten window of cfg.Scale times the
// native 160x144 resolution.
func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	return &App{cfg: cfg, m: m, rgba: make([]byte, 160*144*4)}
}

// Run starts the ebiten game loop; it blocks until the window closes.
func (a *App) Run() error { return ebiten.RunGame(a) }

// keyMap pairs each hardware button with the key the teacher's
// original host bound it to.
var keyMap = [...]struct {
	key ebiten.Key
	btn input.Button
}{
	{ebiten.KeyRight, input.Right},
	{ebiten.KeyLeft, input.Left},
	{ebiten.KeyUp, input.Up},
	{ebiten.KeyDown, input.Down},
	{ebiten.KeyZ, input.A},
	{ebiten.KeyX, input.B},
	{ebiten.KeyShiftRight, input.Select},
	{ebiten.KeyEnter, input.Start},
}

func (a *App) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		a.paused = !a.paused
		a.m.SetPaused(a.paused)
	}

	for _, km := range keyMap {
		switch {
		case inpututil.IsKeyJustPressed(km.key):
			a.m.Apply(input.Event{Kind: input.Press, Button: km.btn})
		case inpututil.IsKeyJustReleased(km.key):
			a.m.Apply(input.Event{Kind: input.Release, Button: km.btn})
		}
	}

	if a.fatal != nil || a.paused {
		return nil
	}
	if _, err := a.m.RunFrame(context.Background()); err != nil {
		a.fatal = err
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	if fb, ready := a.m.Frame(); ready {
		for i, j := 0, 0; i < len(fb); i, j = i+3, j+4 {
			a.rgba[j+0] = fb[i+0]
			a.rgba[j+1] = fb[i+1]
			a.rgba[j+2] = fb[i+2]
			a.rgba[j+3] = 0xFF
		}
		a.tex.WritePixels(a.rgba)
	}
	screen.DrawImage(a.tex, nil)

	if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED (D to resume)", 4, 4)
	}
	if a.fatal != nil {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("halted: %v", a.fatal), 4, 132)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }
