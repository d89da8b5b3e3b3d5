/*
 * riscv-clic - External interrupt line input.
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
	"fmt"

	bf "github.com/rcornwell/riscv-clic/internal/bitfield"
)

// SetLine drives IRQ irq's external input to level, translating it into a
// pending-bit update per the trigger configuration currently stored for
// that IRQ (spec §4.4) and re-arbitrating if anything changed. This is the
// GPIO-style entry point a board model calls when a peripheral asserts or
// deasserts its interrupt wire.
func (c *CLIC) SetLine(irq uint16, level bool) error {
	if int(irq) >= c.cfg.NumSources {
		return fmt.Errorf("clic: SetLine: irq %d out of range [0,%d)", irq, c.cfg.NumSources)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLineLocked(irq, level)
	return nil
}

// Line reports IRQ irq's last-driven external input level.
func (c *CLIC) Line(irq uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lineIn[irq]
}

// Pending reports IRQ irq's current clicintip bit (SPEC_FULL §12 item 4
// accessor, grounded on the teacher's device-status readback style).
func (c *CLIC) Pending(irq uint16) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.table.Pending(irq) != 0
}

// Level returns IRQ irq's currently effective interrupt level.
func (c *CLIC) Level(irq uint16) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	mode := c.effectiveMode(irq)
	return bf.Level(c.table.CtlRaw(irq), int(c.nlbitsForMode(mode)), c.cfg.CtlBits)
}
