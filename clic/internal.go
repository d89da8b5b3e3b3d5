/*
 * riscv-clic - Lock-held orchestration tying the leaf packages together.
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

package clic

import (
	"github.com/rcornwell/riscv-clic/internal/activeset"
	"github.com/rcornwell/riscv-clic/internal/arbiter"
	bf "github.com/rcornwell/riscv-clic/internal/bitfield"
	"github.com/rcornwell/riscv-clic/internal/inputdriver"
	"github.com/rcornwell/riscv-clic/internal/modefilter"
)

// Every method in this file assumes c.mu is already held.

func (c *CLIC) effectiveMode(irq uint16) bf.Mode {
	attr := c.table.Attr(irq)
	return modefilter.EffectiveMode(attr.Mode, c.global.NMBits, c.supported())
}

func (c *CLIC) intcfgFor(irq uint16) uint16 {
	mode := c.effectiveMode(irq)
	ctl := c.table.CtlRaw(irq)
	return uint16(mode)<<8 | uint16(ctl)
}

func (c *CLIC) nlbitsForMode(m bf.Mode) uint8 {
	switch m {
	case ModeU:
		return c.global.UNLBits
	case ModeS:
		return c.global.SNLBits
	default:
		return c.global.MNLBits
	}
}

// arbitrateLocked re-runs the delivery scan and drives the outbound line.
// Called after every state change that could affect the winner: pending,
// enable, attr, ctl, cliccfg, or threshold writes, and line transitions.
func (c *CLIC) arbitrateLocked() {
	entries := c.active.Entries()
	candidates := make([]arbiter.Candidate, 0, len(entries))
	for _, e := range entries {
		mode := bf.Mode((e.Intcfg >> 8) & 0x3)
		_, level, _ := arbiter.Decode(e.Intcfg, int(c.nlbitsForMode(mode)), c.cfg.CtlBits)
		attr := c.table.Attr(e.IRQ)
		candidates = append(candidates, arbiter.Candidate{
			IRQ:     e.IRQ,
			Mode:    mode,
			Level:   level,
			Pending: c.table.Pending(e.IRQ) != 0,
			SHV:     attr.SHV,
			Edge:    attr.Trig.IsEdge(),
		})
	}

	floor := arbiter.Floor{U: c.thresh[0], S: c.thresh[1], M: c.thresh[2]}
	res := arbiter.Arbitrate(candidates, floor, c.priv.CurrentPrivilege())

	if !res.Delivered {
		c.line.SetLevel(false, 0)
		return
	}
	if res.AutoClear {
		c.table.ClearPendingDelivery(res.IRQ)
	}
	c.stats.Deliveries++
	_, mode, _ := bf.DecodeExccode(res.Exccode)
	c.stats.ByMode[modeIndex(mode)]++
	c.line.SetLevel(true, res.Exccode)
}

// rebuildActiveSetLocked recomputes the whole active set from scratch. Used
// after a cliccfg write, since nmbits changing can re-derive every enabled
// IRQ's effective mode at once; too broad an effect to patch incrementally.
func (c *CLIC) rebuildActiveSetLocked() {
	next := activeset.New(c.table.Len())
	for i := 0; i < c.table.Len(); i++ {
		irq := uint16(i)
		if c.table.Enable(irq) != 0 {
			next.Insert(c.intcfgFor(irq), irq)
		}
	}
	c.active = next
}

func (c *CLIC) setEnableLocked(irq uint16, v bool) {
	changed := c.table.SetEnable(irq, v)
	if !changed {
		return
	}
	if v {
		c.active.Insert(c.intcfgFor(irq), irq)
	} else {
		c.active.Remove(c.intcfgFor(irq), irq)
	}
	c.arbitrateLocked()
}

func (c *CLIC) setPendingSoftwareLocked(irq uint16, v bool) {
	if c.table.SetPendingSoftware(irq, v) {
		c.arbitrateLocked()
	}
}

func (c *CLIC) setAttrLocked(irq uint16, raw uint8) {
	prevMode := c.table.Attr(irq).Mode
	requestedMode := bf.Mode((raw >> 6) & 0x3)
	// spec §4.2/§7: a mode-raising write from a privilege lower than the
	// requested mode is silently dropped; the stored byte is left as it
	// was.
	if requestedMode > c.priv.CurrentPrivilege() {
		return
	}
	coerced := modefilter.CoerceModeOnWrite(requestedMode, prevMode)
	nb := (raw &^ 0xC0) | uint8(coerced)<<6
	nb = bf.MaskReservedAttr(nb)

	oldIntcfg := c.intcfgFor(irq)
	changed := c.table.SetAttrRaw(irq, nb)
	if !changed {
		return
	}
	if c.table.Enable(irq) != 0 {
		c.active.Reindex(oldIntcfg, c.intcfgFor(irq), irq)
	}
	c.arbitrateLocked()
}

func (c *CLIC) setCtlLocked(irq uint16, raw uint8) {
	oldIntcfg := c.intcfgFor(irq)
	changed := c.table.SetCtlRaw(irq, raw)
	if !changed {
		return
	}
	if c.table.Enable(irq) != 0 {
		c.active.Reindex(oldIntcfg, c.intcfgFor(irq), irq)
	}
	c.arbitrateLocked()
}

func (c *CLIC) setCliccfgLocked(raw uint32) {
	cfg := bf.DecodeCliccfg(raw)
	cfg.NMBits = modefilter.CoerceNMBits(cfg.NMBits, c.supported())
	c.global = cfg
	c.rebuildActiveSetLocked()
	c.arbitrateLocked()
}

func (c *CLIC) setMintthreshLocked(v uint8) {
	c.thresh[modeIndex(ModeM)] = v
	c.arbitrateLocked()
}

func (c *CLIC) setInttrigLocked(idx int, raw uint32) {
	c.inttrig[idx] = bf.DecodeInttrig(bf.MaskInttrigWrite(raw))
}

func (c *CLIC) setLineLocked(irq uint16, level bool) {
	c.lineIn[irq] = level
	attr := c.table.Attr(irq)
	cur := c.table.Pending(irq) != 0
	next := inputdriver.NextPending(attr.Trig, level, cur)
	if next != cur {
		c.table.SetPendingLine(irq, next)
		c.arbitrateLocked()
	}
}
