/*
 * riscv-clic - Core-Local Interrupt Controller.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package clic implements the core-local interrupt controller described in
// the RISC-V CLIC specification: a single hart's pending/enable/attribute/
// control state for up to 4096 interrupt sources, multi-mode filtered
// views onto that state, and the arbitration that decides which interrupt
// (if any) to raise on the hart's outbound line.
//
// The controller owns all of its state directly; there is no package-level
// global (compare emu/memory's package-level `var memory mem` in the
// teacher machine, which spec §9's design notes explicitly call out as an
// anti-pattern to avoid here). The hart's current privilege is an inbound
// query (PrivilegeSource), not a global either.
package clic

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rcornwell/riscv-clic/internal/activeset"
	bf "github.com/rcornwell/riscv-clic/internal/bitfield"
	"github.com/rcornwell/riscv-clic/internal/irqstate"
	"github.com/rcornwell/riscv-clic/internal/modefilter"
)

// Mode re-exports bitfield.Mode so callers need not import the internal
// package to name a privilege level.
type Mode = bf.Mode

const (
	ModeU = bf.ModeU
	ModeS = bf.ModeS
	ModeM = bf.ModeM
)

// modeName renders a Mode for log output; unlike bf.Mode's zero-value
// numeric formatting, this matches the mnemonics spec.md uses throughout.
func modeName(m Mode) string {
	switch m {
	case ModeU:
		return "U"
	case ModeS:
		return "S"
	case ModeM:
		return "M"
	default:
		return fmt.Sprintf("reserved(%d)", m)
	}
}

// PrivilegeSource answers "what privilege mode is the hart running at right
// now". The CLIC never maintains this itself; it is supplied by whatever
// owns the CPU model (spec §9 design note: an inbound query, not a
// global).
type PrivilegeSource interface {
	CurrentPrivilege() Mode
}

// StaticPrivilege is a PrivilegeSource that always reports a fixed mode,
// useful for tests and for machines that have not wired up a real CPU
// model yet.
type StaticPrivilege Mode

// CurrentPrivilege implements PrivilegeSource.
func (s StaticPrivilege) CurrentPrivilege() Mode { return Mode(s) }

// Line is the CLIC's single outbound coupling to the CPU core: a level on
// the interrupt-pending wire plus an out-of-band exccode read when the CPU
// accepts the interrupt (spec §4.8).
type Line interface {
	SetLevel(raised bool, exccode uint32)
}

// LineFunc adapts a plain function to the Line interface.
type LineFunc func(raised bool, exccode uint32)

// SetLevel implements Line.
func (f LineFunc) SetLevel(raised bool, exccode uint32) { f(raised, exccode) }

// Config describes a single CLIC instance's immutable construction
// parameters (spec §3, §6).
type Config struct {
	HartID     uint32
	NumSources int    // <= 4096
	CtlBits    int    // [0,8]
	Version    string // "v0.8" (legacy, mintthresh only), "v0.9", "v0.9-jmp"
	SupportsS  bool
	SupportsU  bool
	ShvEnabled bool

	// Base addresses; 0 signals the mode is absent (sclicbase/uclicbase in
	// spec §6). MBase must be nonzero and 4 KiB-aligned; the others must
	// either be 0 or 4 KiB-aligned.
	MBase uint32
	SBase uint32
	UBase uint32
}

const maxSources = 4096

func (c Config) validate() error {
	if c.NumSources <= 0 || c.NumSources > maxSources {
		return fmt.Errorf("%w: num_sources %d out of range (0,%d]", ErrBadConfig, c.NumSources, maxSources)
	}
	if c.CtlBits < 0 || c.CtlBits > 8 {
		return fmt.Errorf("%w: ctlbits %d out of range [0,8]", ErrBadConfig, c.CtlBits)
	}
	switch c.Version {
	case "v0.8", "v0.9", "v0.9-jmp":
	default:
		return fmt.Errorf("%w: unknown version %q", ErrBadConfig, c.Version)
	}
	if c.MBase == 0 || c.MBase%0x1000 != 0 {
		return fmt.Errorf("%w: mclicbase %#x must be nonzero and 4 KiB-aligned", ErrBadConfig, c.MBase)
	}
	if c.SBase != 0 && c.SBase%0x1000 != 0 {
		return fmt.Errorf("%w: sclicbase %#x must be 4 KiB-aligned", ErrBadConfig, c.SBase)
	}
	if c.UBase != 0 && c.UBase%0x1000 != 0 {
		return fmt.Errorf("%w: uclicbase %#x must be 4 KiB-aligned", ErrBadConfig, c.UBase)
	}
	if c.SBase != 0 && !c.SupportsS {
		return fmt.Errorf("%w: sclicbase set without SupportsS", ErrBadConfig)
	}
	if c.UBase != 0 && !c.SupportsU {
		return fmt.Errorf("%w: uclicbase set without SupportsU", ErrBadConfig)
	}
	return nil
}

// MMIOSize returns the size in bytes of one view's MMIO region (spec §6).
func (c Config) MMIOSize() uint32 {
	return 0x1000 + uint32(c.NumSources)*4
}

// ErrBadConfig is wrapped by every construction-time validation failure, so
// callers can use errors.Is(err, clic.ErrBadConfig).
var ErrBadConfig = fmt.Errorf("clic: bad configuration")

// Stats is a read-only observability snapshot (SPEC_FULL §12.2).
type Stats struct {
	Pending    int
	Enabled    int
	Deliveries uint64
	ByMode     [3]uint64 // indexed by [ModeU, ModeS, ModeM] via modeIndex
}

// DecodeExccode unpacks an exccode delivered on the outbound Line, for
// callers (including tests and the console) that want to inspect what was
// delivered without importing the internal bitfield package.
func DecodeExccode(code uint32) (irq uint16, mode Mode, level uint8) {
	return bf.DecodeExccode(code)
}

func modeIndex(m Mode) int {
	switch m {
	case ModeU:
		return 0
	case ModeS:
		return 1
	default:
		return 2
	}
}

// CLIC is a single hart's complete interrupt controller state.
type CLIC struct {
	cfg     Config
	log     *slog.Logger
	priv    PrivilegeSource
	line    Line
	mu      sync.Mutex
	global  bf.GlobalCfg
	table   *irqstate.Table
	active  *activeset.Set
	lineIn  []bool // current external GPIO-in level per IRQ
	thresh  [3]uint8
	inttrig [32]bf.Inttrig
	stats   Stats
	views   map[Mode]*View
}

// New constructs a CLIC from cfg. Construction errors are fatal to the
// caller's wiring (spec §4.9, §7): the returned error wraps ErrBadConfig
// and the controller must not be used.
func New(cfg Config, priv PrivilegeSource, line Line, logger *slog.Logger) (*CLIC, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if priv == nil {
		priv = StaticPrivilege(ModeM)
	}
	if line == nil {
		line = LineFunc(func(bool, uint32) {})
	}

	c := &CLIC{
		cfg:    cfg,
		log:    logger,
		priv:   priv,
		line:   line,
		table:  irqstate.New(cfg.NumSources),
		active: activeset.New(cfg.NumSources),
		lineIn: make([]bool, cfg.NumSources),
		views:  make(map[Mode]*View),
	}

	c.views[ModeM] = newView(c, ModeM, cfg.MBase)
	if cfg.SupportsS && cfg.SBase != 0 {
		c.views[ModeS] = newView(c, ModeS, cfg.SBase)
	}
	if cfg.SupportsU && cfg.UBase != 0 {
		c.views[ModeU] = newView(c, ModeU, cfg.UBase)
	}

	c.log.Info("clic constructed",
		"hart", cfg.HartID, "num_sources", cfg.NumSources,
		"ctlbits", cfg.CtlBits, "version", cfg.Version,
		"supports_s", cfg.SupportsS, "supports_u", cfg.SupportsU)

	return c, nil
}

// View returns the view for the given access mode, or nil if that mode was
// not configured (no base address supplied, or the mode is unsupported).
func (c *CLIC) View(mode Mode) *View {
	return c.views[mode]
}

// supported returns which of S/U this CLIC exposes, for modefilter calls.
func (c *CLIC) supported() modefilter.Supported {
	return modefilter.Supported{S: c.cfg.SupportsS, U: c.cfg.SupportsU}
}

// Threshold returns the current interrupt threshold for mode (SPEC_FULL
// §12.1). Thresholds are a Go-level API, not memory-mapped, on v0.9;
// spec.md's v0.9 register layout has no slot for per-mode thresholds.
func (c *CLIC) Threshold(mode Mode) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thresh[modeIndex(mode)]
}

// SetThreshold sets the interrupt threshold for mode and re-arbitrates.
func (c *CLIC) SetThreshold(mode Mode, v uint8) {
	c.mu.Lock()
	c.thresh[modeIndex(mode)] = v
	c.arbitrateLocked()
	c.mu.Unlock()
}

// Stats returns a snapshot of delivery counters (SPEC_FULL §12.2).
func (c *CLIC) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Pending = 0
	s.Enabled = c.active.Len()
	for i := 0; i < c.table.Len(); i++ {
		if c.table.Pending(uint16(i)) != 0 {
			s.Pending++
		}
	}
	return s
}
