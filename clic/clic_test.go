package clic_test

import (
	"sync"
	"testing"

	"github.com/rcornwell/riscv-clic/clic"
)

func newTestCLIC(t *testing.T, cfg clic.Config, priv clic.PrivilegeSource) (*clic.CLIC, *lineRecorder) {
	t.Helper()
	rec := &lineRecorder{}
	c, err := clic.New(cfg, priv, clic.LineFunc(rec.record), nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c, rec
}

type lineRecorder struct {
	mu      sync.Mutex
	raised  bool
	exccode uint32
	calls   int
}

func (r *lineRecorder) record(raised bool, exccode uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raised = raised
	r.exccode = exccode
	r.calls++
}

func (r *lineRecorder) snapshot() (bool, uint32, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.raised, r.exccode, r.calls
}

// switchablePrivilege is a PrivilegeSource whose mode a test can change
// between accesses.
type switchablePrivilege struct {
	mode clic.Mode
}

func (p *switchablePrivilege) CurrentPrivilege() clic.Mode { return p.mode }

func baseConfig() clic.Config {
	return clic.Config{
		HartID:     0,
		NumSources: 64,
		CtlBits:    8,
		Version:    "v0.9",
		MBase:      0x02000000,
	}
}

func writeByte(t *testing.T, v *clic.View, offset uint32, b uint8) {
	t.Helper()
	v.Write(offset, 1, uint64(b))
}

func readByte(t *testing.T, v *clic.View, offset uint32) uint8 {
	t.Helper()
	return uint8(v.Read(offset, 1))
}

// TestBadConfigRejectsOutOfRangeSources matches spec §4.9/§6 construction
// validation.
func TestBadConfigRejectsOutOfRangeSources(t *testing.T) {
	cfg := baseConfig()
	cfg.NumSources = 5000
	if _, err := clic.New(cfg, nil, nil, nil); err == nil {
		t.Fatal("New() with num_sources=5000 succeeded, want error")
	}
}

func TestBadConfigRequiresAlignedBase(t *testing.T) {
	cfg := baseConfig()
	cfg.MBase = 0x02000001
	if _, err := clic.New(cfg, nil, nil, nil); err == nil {
		t.Fatal("New() with misaligned mclicbase succeeded, want error")
	}
}

// TestLevelPendingReadOnlyFromSoftware exercises the end-to-end MMIO path
// for spec §4.2/§4.4: a level-triggered IRQ's clicintip bit tracks the
// external line and ignores software writes.
func TestLevelPendingReadOnlyFromSoftware(t *testing.T) {
	c, _ := newTestCLIC(t, baseConfig(), clic.StaticPrivilege(clic.ModeM))
	v := c.View(clic.ModeM)
	const irq = 5

	writeByte(t, v, 0x1000+irq*4+2, 0x00) // intattr: pos-level, no shv
	if err := c.SetLine(irq, true); err != nil {
		t.Fatal(err)
	}
	if got := readByte(t, v, 0x1000+irq*4+0); got != 1 {
		t.Fatalf("clicintip after line raise = %d, want 1", got)
	}

	writeByte(t, v, 0x1000+irq*4+0, 0) // software clear attempt, should be ignored
	if got := readByte(t, v, 0x1000+irq*4+0); got != 1 {
		t.Fatalf("clicintip after software write = %d, want still 1 (read-only)", got)
	}

	if err := c.SetLine(irq, false); err != nil {
		t.Fatal(err)
	}
	if got := readByte(t, v, 0x1000+irq*4+0); got != 0 {
		t.Fatalf("clicintip after line drop = %d, want 0", got)
	}
}

// TestEdgeVectoredAutoClear exercises spec §4.4/§4.7: a vectored
// edge-triggered IRQ auto-clears its pending bit the instant it is
// delivered.
func TestEdgeVectoredAutoClear(t *testing.T) {
	c, rec := newTestCLIC(t, baseConfig(), clic.StaticPrivilege(clic.ModeM))
	v := c.View(clic.ModeM)
	const irq = 7

	writeByte(t, v, 0x1000+irq*4+2, 0x03) // pos-edge, shv=1
	writeByte(t, v, 0x1000+irq*4+3, 0xff)
	writeByte(t, v, 0x1000+irq*4+1, 1) // enable

	if err := c.SetLine(irq, true); err != nil {
		t.Fatal(err)
	}

	raised, exccode, _ := rec.snapshot()
	if !raised {
		t.Fatal("line not raised after enabling pending vectored edge irq")
	}
	gotIRQ, _, _ := clic.DecodeExccode(exccode)
	if gotIRQ != irq {
		t.Fatalf("delivered irq = %d, want %d", gotIRQ, irq)
	}
	if got := readByte(t, v, 0x1000+irq*4+0); got != 0 {
		t.Fatalf("clicintip after vectored-edge delivery = %d, want auto-cleared 0", got)
	}
}

// TestPriorityOrderingHigherCtlWins reproduces spec §8 scenario 4.
func TestPriorityOrderingHigherCtlWins(t *testing.T) {
	c, rec := newTestCLIC(t, baseConfig(), clic.StaticPrivilege(clic.ModeM))
	v := c.View(clic.ModeM)

	setup := func(irq uint16, ctl uint8) {
		writeByte(t, v, 0x1000+uint32(irq)*4+2, 0x00) // pos-level
		writeByte(t, v, 0x1000+uint32(irq)*4+3, ctl)
		writeByte(t, v, 0x1000+uint32(irq)*4+1, 1)
	}
	setup(25, 0xBF)
	setup(26, 0x3F)

	if err := c.SetLine(25, true); err != nil {
		t.Fatal(err)
	}
	if err := c.SetLine(26, true); err != nil {
		t.Fatal(err)
	}

	_, exccode, _ := rec.snapshot()
	gotIRQ, _, _ := clic.DecodeExccode(exccode)
	if gotIRQ != 25 {
		t.Fatalf("delivered irq = %d, want 25 (higher ctl)", gotIRQ)
	}
}

// TestCtlHardwiresLowBitsOnRead reproduces spec §8's concrete ctlbits
// examples through the MMIO surface.
func TestCtlHardwiresLowBitsOnRead(t *testing.T) {
	cfg := baseConfig()
	cfg.CtlBits = 3
	c, _ := newTestCLIC(t, cfg, clic.StaticPrivilege(clic.ModeM))
	v := c.View(clic.ModeM)
	const irq = 1

	writeByte(t, v, 0x1000+irq*4+3, 0x20)
	if got := readByte(t, v, 0x1000+irq*4+3); got != 0x3F {
		t.Errorf("clicintctl readback = %#x, want 0x3F", got)
	}
}

// TestMOnlyConfigRejectsNMBits reproduces spec §8 scenario 6.
func TestMOnlyConfigRejectsNMBits(t *testing.T) {
	c, _ := newTestCLIC(t, baseConfig(), clic.StaticPrivilege(clic.ModeM))
	v := c.View(clic.ModeM)

	writeByte(t, v, 0x0000, 0x20) // nmbits field = 2
	if got := readByte(t, v, 0x0000); got&0x30 != 0 {
		t.Errorf("cliccfg nmbits readback = %#x, want coerced to 0 on an M-only CLIC", got)
	}
}

// TestSViewCannotSeeMOwnedIRQ reproduces spec §8 scenario 3.
func TestSViewCannotSeeMOwnedIRQ(t *testing.T) {
	cfg := baseConfig()
	cfg.SupportsS = true
	cfg.SBase = 0x02010000
	c, _ := newTestCLIC(t, cfg, clic.StaticPrivilege(clic.ModeM))
	mview := c.View(clic.ModeM)
	sview := c.View(clic.ModeS)

	writeByte(t, mview, 0x0000, 0x10) // nmbits=1
	const irq = 3
	writeByte(t, mview, 0x1000+irq*4+2, 0xC0) // mode bits = M (3<<6)
	writeByte(t, mview, 0x1000+irq*4+1, 1)

	if got := readByte(t, sview, 0x1000+irq*4+1); got != 0 {
		t.Errorf("S-mode view sees M-owned irq's intie = %d, want 0 (invisible)", got)
	}
}

// TestPrivilegeEnforcementBlocksLowerAccessToHigherView exercises the
// privilege/view binding rule from spec §4.6: a view bound to a mode above
// the hart's current privilege degrades reads to zero and drops writes,
// rather than surfacing a Go error on the hot MMIO path.
func TestPrivilegeEnforcementBlocksLowerAccessToHigherView(t *testing.T) {
	cfg := baseConfig()
	cfg.SupportsS = true
	cfg.SBase = 0x02010000
	c, _ := newTestCLIC(t, cfg, clic.StaticPrivilege(clic.ModeU))
	mview := c.View(clic.ModeM)

	mview.Write(0x1000+4*4+3, 1, 0xBF) // attempted write from below, should be dropped
	if got := mview.Read(0x1000+4*4+3, 1); got != 0 {
		t.Fatalf("Read on M view from U privilege = %#x, want 0 (unreachable degrades to zero)", got)
	}
}

// TestAttrWriteDeniedWhenRequestedModeExceedsPrivilege exercises spec
// §4.2/§7: an intattr write whose mode bits request a mode above the
// hart's current privilege is silently dropped, keeping the IRQ's
// previous mode, even though the access itself is reachable and visible
// through the requesting view. Setup runs at M privilege (the M view is
// unreachable from S); the hart then drops to S for the denied write.
func TestAttrWriteDeniedWhenRequestedModeExceedsPrivilege(t *testing.T) {
	cfg := baseConfig()
	cfg.SupportsS = true
	cfg.SBase = 0x02010000
	priv := &switchablePrivilege{mode: clic.ModeM}
	c, _ := newTestCLIC(t, cfg, priv)
	mview := c.View(clic.ModeM)
	sview := c.View(clic.ModeS)
	const irq = 3

	writeByte(t, mview, 0x0000, 0x10)         // nmbits=1
	writeByte(t, mview, 0x1000+irq*4+2, 0x40) // mode bits = S (1<<6), pos-level

	// S privilege attempts to raise this irq to M ownership through the
	// S-view, which can still reach/see the irq (its effective mode is S).
	priv.mode = clic.ModeS
	writeByte(t, sview, 0x1000+irq*4+2, 0xC0) // mode bits = M (3<<6)

	priv.mode = clic.ModeM
	got := readByte(t, mview, 0x1000+irq*4+2)
	if (got>>6)&0x3 != uint8(clic.ModeS) {
		t.Fatalf("intattr mode bits after denied write = %d, want unchanged S (%d)", (got>>6)&0x3, clic.ModeS)
	}
}

// TestSnlbitsUnlbitsIndependentlyWritableFromOwningView exercises
// SPEC_FULL.md §13's open-question resolution: snlbits and unlbits are
// each writable from their own mode's view (in addition to M),
// independent of one another, even though mnlbits/nmbits stay M-only.
func TestSnlbitsUnlbitsIndependentlyWritableFromOwningView(t *testing.T) {
	cfg := baseConfig()
	cfg.SupportsS = true
	cfg.SupportsU = true
	cfg.SBase = 0x02010000
	cfg.UBase = 0x02020000
	c, _ := newTestCLIC(t, cfg, clic.StaticPrivilege(clic.ModeM))
	mview := c.View(clic.ModeM)
	sview := c.View(clic.ModeS)
	uview := c.View(clic.ModeU)

	writeByte(t, sview, 0x0002, 4) // snlbits, byte 2 of cliccfg
	writeByte(t, uview, 0x0003, 6) // unlbits, byte 3 of cliccfg

	if got := readByte(t, mview, 0x0002); got != 4 {
		t.Errorf("snlbits after S-view write = %d, want 4", got)
	}
	if got := readByte(t, mview, 0x0003); got != 6 {
		t.Errorf("unlbits after U-view write = %d, want 6", got)
	}

	// an S-view cannot touch unlbits, nor a U-view snlbits.
	writeByte(t, sview, 0x0003, 1)
	writeByte(t, uview, 0x0002, 1)
	if got := readByte(t, mview, 0x0002); got != 4 {
		t.Errorf("snlbits after U-view write attempt = %d, want unchanged 4", got)
	}
	if got := readByte(t, mview, 0x0003); got != 6 {
		t.Errorf("unlbits after S-view write attempt = %d, want unchanged 6", got)
	}
}

// TestConcurrentLineTogglesDoNotRace drives many goroutines through
// SetLine concurrently; run with -race to verify the single-mutex
// serialization model of spec §5.
func TestConcurrentLineTogglesDoNotRace(t *testing.T) {
	c, _ := newTestCLIC(t, baseConfig(), clic.StaticPrivilege(clic.ModeM))
	v := c.View(clic.ModeM)
	for i := uint32(0); i < 8; i++ {
		writeByte(t, v, 0x1000+i*4+1, 1)
	}

	var wg sync.WaitGroup
	for i := uint16(0); i < 8; i++ {
		wg.Add(1)
		go func(irq uint16) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.SetLine(irq, j%2 == 0)
			}
		}(i)
	}
	wg.Wait()

	_ = c.Stats()
}

func TestThresholdGatesDelivery(t *testing.T) {
	// Threshold only gates a candidate whose mode matches the hart's
	// current privilege (spec §4.7 step 3): a higher-mode candidate than
	// the running privilege always interrupts regardless of that mode's
	// floor. Use ModeM as both the irq's mode and current privilege so
	// the floor check actually applies, and set mnlbits=8 so the whole
	// ctl byte is level (no priority bits) for a direct ctl-to-level
	// comparison against the threshold.
	c, rec := newTestCLIC(t, baseConfig(), clic.StaticPrivilege(clic.ModeM))
	v := c.View(clic.ModeM)
	const irq = 9

	writeByte(t, v, 0x0000, 0x08) // cliccfg.mnlbits = 8
	writeByte(t, v, 0x1000+irq*4+2, 0x00)
	writeByte(t, v, 0x1000+irq*4+3, 0x10)
	writeByte(t, v, 0x1000+irq*4+1, 1)

	c.SetThreshold(clic.ModeM, 0x80)
	if err := c.SetLine(irq, true); err != nil {
		t.Fatal(err)
	}
	if raised, _, _ := rec.snapshot(); raised {
		t.Fatal("interrupt delivered below threshold")
	}

	c.SetThreshold(clic.ModeM, 0x00)
	if raised, _, _ := rec.snapshot(); !raised {
		t.Fatal("interrupt not delivered once threshold lowered")
	}
}
