package arbiter_test

import (
	"testing"

	"github.com/rcornwell/riscv-clic/internal/arbiter"
	bf "github.com/rcornwell/riscv-clic/internal/bitfield"
)

func TestArbitratePicksHigherCtl(t *testing.T) {
	// Spec §8 scenario 4: IRQ 25 ctl=0xBF beats IRQ 26 ctl=0x3F, both mode M,
	// positive-level, shv=1, both pending.
	candidates := []arbiter.Candidate{
		{IRQ: 25, Mode: bf.ModeM, Level: 0xBF, Pending: true, SHV: true, Edge: false},
		{IRQ: 26, Mode: bf.ModeM, Level: 0x3F, Pending: true, SHV: true, Edge: false},
	}
	res := arbiter.Arbitrate(candidates, arbiter.Floor{}, bf.ModeU)
	if !res.Delivered || res.IRQ != 25 {
		t.Fatalf("Arbitrate() = %+v, want delivery of irq 25", res)
	}
}

func TestArbitrateSkipsNotPending(t *testing.T) {
	candidates := []arbiter.Candidate{
		{IRQ: 25, Mode: bf.ModeM, Level: 0xBF, Pending: false},
		{IRQ: 26, Mode: bf.ModeM, Level: 0x3F, Pending: true},
	}
	res := arbiter.Arbitrate(candidates, arbiter.Floor{}, bf.ModeU)
	if !res.Delivered || res.IRQ != 26 {
		t.Fatalf("Arbitrate() = %+v, want delivery of irq 26 (25 not pending)", res)
	}
}

func TestArbitrateStopsBelowCurrentPriv(t *testing.T) {
	candidates := []arbiter.Candidate{
		{IRQ: 1, Mode: bf.ModeS, Level: 0xff, Pending: true},
	}
	res := arbiter.Arbitrate(candidates, arbiter.Floor{}, bf.ModeM)
	if res.Delivered {
		t.Errorf("Arbitrate() delivered S-mode candidate while cpu.priv=M: %+v", res)
	}
}

func TestArbitrateStopsBelowFloor(t *testing.T) {
	candidates := []arbiter.Candidate{
		{IRQ: 1, Mode: bf.ModeM, Level: 0x10, Pending: true},
	}
	res := arbiter.Arbitrate(candidates, arbiter.Floor{M: 0x20}, bf.ModeM)
	if res.Delivered {
		t.Errorf("Arbitrate() delivered a below-floor candidate: %+v", res)
	}
}

func TestArbitrateAutoClearOnlyForVectoredEdge(t *testing.T) {
	candidates := []arbiter.Candidate{
		{IRQ: 25, Mode: bf.ModeM, Level: 0x10, Pending: true, SHV: true, Edge: true},
	}
	res := arbiter.Arbitrate(candidates, arbiter.Floor{}, bf.ModeU)
	if !res.Delivered || !res.AutoClear {
		t.Errorf("Arbitrate() = %+v, want delivered with AutoClear for vectored edge", res)
	}

	candidates[0].Edge = false
	res = arbiter.Arbitrate(candidates, arbiter.Floor{}, bf.ModeU)
	if !res.Delivered || res.AutoClear {
		t.Errorf("Arbitrate() = %+v, want AutoClear false for vectored level", res)
	}
}

func TestDecodeIntcfg(t *testing.T) {
	intcfg := uint16(bf.ModeM)<<8 | 0xBF
	mode, level, ctl := arbiter.Decode(intcfg, 3, 8)
	if mode != bf.ModeM {
		t.Errorf("Decode mode = %v, want M", mode)
	}
	if ctl != 0xBF {
		t.Errorf("Decode ctl = %#x, want 0xBF", ctl)
	}
	_ = level
}
