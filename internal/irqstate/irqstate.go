/*
 * riscv-clic - Per-IRQ state table.
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

// Package irqstate holds the four parallel per-IRQ byte arrays
// (pending/enable/attr/ctl) for a CLIC and the state-transition rules from
// spec §4.2. It knows nothing about the active set or arbitration; callers
// observe the Changed return value of each setter and re-synchronize
// whatever derived structures need it. This keeps the table a plain data
// structure, the way the teacher keeps chanDev's devTab/devStatus arrays
// free of scheduling logic.
package irqstate

import bf "github.com/rcornwell/riscv-clic/internal/bitfield"

// Table holds the raw per-IRQ register bytes for num_sources IRQs.
type Table struct {
	pending []uint8
	enable  []uint8
	attr    []uint8
	ctl     []uint8
}

// New allocates a Table sized for numSources IRQs.
func New(numSources int) *Table {
	return &Table{
		pending: make([]uint8, numSources),
		enable:  make([]uint8, numSources),
		attr:    make([]uint8, numSources),
		ctl:     make([]uint8, numSources),
	}
}

// Len returns the number of IRQ sources this table holds.
func (t *Table) Len() int {
	return len(t.pending)
}

// Pending returns the raw intip bit for IRQ i.
func (t *Table) Pending(i uint16) uint8 {
	return t.pending[i]
}

// Enable returns the raw intie bit for IRQ i.
func (t *Table) Enable(i uint16) uint8 {
	return t.enable[i]
}

// AttrRaw returns the raw intattr byte for IRQ i.
func (t *Table) AttrRaw(i uint16) uint8 {
	return t.attr[i]
}

// Attr returns the decoded intattr for IRQ i.
func (t *Table) Attr(i uint16) bf.Attr {
	return bf.DecodeAttr(t.attr[i])
}

// CtlRaw returns the raw intctl byte for IRQ i.
func (t *Table) CtlRaw(i uint16) uint8 {
	return t.ctl[i]
}

// SetPendingLine is the InputDriver's path into the table: it sets the raw
// pending bit unconditionally, bypassing the level-triggered read-only
// rule, because the rule only restricts *software* writes via
// SetPendingSoftware. The line-level state is always the source of truth
// for a level-triggered IRQ.
func (t *Table) SetPendingLine(i uint16, v bool) (changed bool) {
	old := t.pending[i]
	var nv uint8
	if v {
		nv = 1
	}
	t.pending[i] = nv
	return old != nv
}

// SetPendingSoftware implements the software-write path to clicintip[i].
// Per spec §4.2/§4.4, a level-triggered IRQ's pending bit is read-only from
// software: writes are silently ignored. Edge-triggered IRQs accept the
// write.
func (t *Table) SetPendingSoftware(i uint16, v bool) (changed bool) {
	trig := bf.DecodeAttr(t.attr[i]).Trig
	if !trig.IsEdge() {
		return false
	}
	old := t.pending[i]
	var nv uint8
	if v {
		nv = 1
	}
	t.pending[i] = nv
	return old != nv
}

// ClearPendingDelivery auto-clears intip on delivery of a vectored edge
// interrupt (spec §4.4/§4.7). Always takes effect; callers only invoke it
// when shv && edge.
func (t *Table) ClearPendingDelivery(i uint16) {
	t.pending[i] = 0
}

// SetEnable implements the intie write path. Returns whether the bit
// changed, so the caller can resynchronize the active set.
func (t *Table) SetEnable(i uint16, v bool) (changed bool) {
	old := t.enable[i]
	var nv uint8
	if v {
		nv = 1
	}
	t.enable[i] = nv
	return old != nv
}

// SetAttrRaw stores a new intattr byte after the caller (clic package) has
// already applied reserved-bit masking and mode coercion/privilege checks.
// Returns whether the stored byte changed.
func (t *Table) SetAttrRaw(i uint16, raw uint8) (changed bool) {
	old := t.attr[i]
	t.attr[i] = raw
	return old != raw
}

// SetCtlRaw stores a new raw intctl byte. Returns whether it changed.
func (t *Table) SetCtlRaw(i uint16, raw uint8) (changed bool) {
	old := t.ctl[i]
	t.ctl[i] = raw
	return old != raw
}
