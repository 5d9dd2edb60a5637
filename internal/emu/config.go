package emu

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace        bool // CPU trace request; no code reads it, so no trace is logged
	LimitFPS     bool // frame throttle request; no code reads it, so frames run unthrottled
	UseFetcherBG bool // renderer choice; no code reads it, the PPU always uses its own scanline path
	SkipBootROM  bool // start in post-boot register state instead of running the boot ROM
	// Later: fast-forward, debugger flags, etc.
}
