package inputdriver_test

import (
	"testing"

	bf "github.com/rcornwell/riscv-clic/internal/bitfield"
	"github.com/rcornwell/riscv-clic/internal/inputdriver"
)

func TestNextPendingTable(t *testing.T) {
	tests := []struct {
		name string
		trig bf.Trig
		line bool
		cur  bool
		want bool
	}{
		{"PosLevel high", bf.PosLevel, true, false, true},
		{"PosLevel low", bf.PosLevel, false, true, false},
		{"PosEdge high sets", bf.PosEdge, true, false, true},
		{"PosEdge low no-op keeps set", bf.PosEdge, false, true, true},
		{"PosEdge low no-op keeps clear", bf.PosEdge, false, false, false},
		{"NegLevel high clears", bf.NegLevel, true, true, false},
		{"NegLevel low sets", bf.NegLevel, false, false, true},
		{"NegEdge low sets", bf.NegEdge, false, false, true},
		{"NegEdge high no-op keeps set", bf.NegEdge, true, true, true},
		{"NegEdge high no-op keeps clear", bf.NegEdge, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inputdriver.NextPending(tt.trig, tt.line, tt.cur)
			if got != tt.want {
				t.Errorf("NextPending(%v, line=%v, cur=%v) = %v, want %v", tt.trig, tt.line, tt.cur, got, tt.want)
			}
		})
	}
}
