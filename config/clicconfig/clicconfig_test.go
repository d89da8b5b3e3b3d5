package clicconfig_test

import (
	"strings"
	"testing"

	"github.com/rcornwell/riscv-clic/config/clicconfig"
)

const sample = `
# machine.cfg
clic 0x02000000 hart=0 sources=4096 ctlbits=4 version=v0.9 smode umode sbase=0x02010000 ubase=0x02020000
clic 0x03000000 hart=1 sources=64 ctlbits=8
`

func TestLoadParsesMultipleStanzas(t *testing.T) {
	configs, err := clicconfig.Load(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Load() returned %d configs, want 2", len(configs))
	}

	c0 := configs[0]
	if c0.MBase != 0x02000000 || c0.HartID != 0 || c0.NumSources != 4096 || c0.CtlBits != 4 {
		t.Errorf("configs[0] = %+v, unexpected fields", c0)
	}
	if !c0.SupportsS || !c0.SupportsU || c0.SBase != 0x02010000 || c0.UBase != 0x02020000 {
		t.Errorf("configs[0] = %+v, want S/U support with matching bases", c0)
	}

	c1 := configs[1]
	if c1.HartID != 1 || c1.NumSources != 64 || c1.CtlBits != 8 {
		t.Errorf("configs[1] = %+v, unexpected fields", c1)
	}
}

func TestLoadRejectsUnknownStanza(t *testing.T) {
	_, err := clicconfig.Load(strings.NewReader("plic 0x0c000000\n"))
	if err == nil {
		t.Fatal("Load() accepted an unknown stanza")
	}
}

func TestLoadRejectsUnknownOption(t *testing.T) {
	_, err := clicconfig.Load(strings.NewReader("clic 0x02000000 bogus=1\n"))
	if err == nil {
		t.Fatal("Load() accepted an unknown option")
	}
}

func TestLoadRejectsDuplicateHartID(t *testing.T) {
	const dup = `
clic 0x02000000 hart=0
clic 0x03000000 hart=0
`
	_, err := clicconfig.Load(strings.NewReader(dup))
	if err == nil {
		t.Fatal("Load() accepted two stanzas with the same hart id")
	}
}

func TestLoadDefaultsMatchSpec(t *testing.T) {
	configs, err := clicconfig.Load(strings.NewReader("clic 0x02000000\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	c := configs[0]
	if c.NumSources != 4096 || c.CtlBits != 8 || c.Version != "v0.9" {
		t.Errorf("defaults = %+v, want num_sources=4096 ctlbits=8 version=v0.9", c)
	}
}
