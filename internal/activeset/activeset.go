/*
 * riscv-clic - Sorted active-interrupt set.
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

// Package activeset keeps the sorted (intcfg, irq) pairs of every currently
// enabled IRQ, ordered by encoded priority descending, so the arbiter's hot
// path is a single linear scan instead of a rescan of all num_sources
// entries (spec §4.3, §9). Enablement changes are rare, so we keep the list
// as a sorted slice with insertion-sort placement rather than a heap: the
// teacher's channel scan (emu/sys_channel.ChanScan) favors the same
// trade-off of cheap mutation against a hot, simple delivery scan.
package activeset

import (
	"sort"

	bf "github.com/rcornwell/riscv-clic/internal/bitfield"
)

// Entry is one member of the active set.
type Entry struct {
	Intcfg uint16
	IRQ    uint16
}

func (e Entry) key() uint32 {
	return bf.EncodePriority(e.Intcfg, e.IRQ)
}

// Set is a slice of Entry kept sorted by encoded priority, descending.
type Set struct {
	entries []Entry
}

// New returns an empty active set with room for capacity entries.
func New(capacity int) *Set {
	return &Set{entries: make([]Entry, 0, capacity)}
}

// Len reports how many IRQs are currently active.
func (s *Set) Len() int {
	return len(s.entries)
}

// Insert adds (intcfg, irq) to the set, keeping it sorted descending by
// encoded priority. Callers must not insert an irq that is already
// present; the clic package enforces this by always Remove-ing before an
// Insert under a changed intcfg.
func (s *Set) Insert(intcfg, irq uint16) {
	e := Entry{Intcfg: intcfg, IRQ: irq}
	k := e.key()
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].key() <= k
	})
	s.entries = append(s.entries, Entry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = e
}

// Remove deletes the single entry matching (intcfg, irq) exactly. It is a
// no-op if no such entry exists.
func (s *Set) Remove(intcfg, irq uint16) {
	e := Entry{Intcfg: intcfg, IRQ: irq}
	k := e.key()
	i := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].key() <= k
	})
	for i < len(s.entries) && s.entries[i].key() == k {
		if s.entries[i].IRQ == irq {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
		i++
	}
}

// Reindex removes any entry for irq (under its previous intcfg, if known)
// and re-inserts it under newIntcfg. Used when intctl or effective mode
// changes for an already-enabled IRQ.
func (s *Set) Reindex(oldIntcfg, newIntcfg, irq uint16) {
	s.Remove(oldIntcfg, irq)
	s.Insert(newIntcfg, irq)
}

// Entries returns the active set in priority order (highest first). The
// returned slice aliases internal storage and must not be mutated by the
// caller.
func (s *Set) Entries() []Entry {
	return s.entries
}
