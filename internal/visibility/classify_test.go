package visibility

import (
	"testing"

	"github.com/ppiankov/showhidden/internal/capability"
)

func TestClassify(t *testing.T) {
	bit := capability.ViewChannel
	tests := []struct {
		name string
		raw  capability.Bitmask
		want Verdict
	}{
		{"no bits", 0, Hidden},
		{"target bit", 1 << 10, Visible},
		{"other bits only", 1<<11 | 1<<3 | 1, Hidden},
		{"target among others", 1<<10 | 1<<11, Visible},
		{"all bits", ^capability.Bitmask(0), Visible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.raw, bit); got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassifyIgnoresOtherBits(t *testing.T) {
	bit := capability.ViewChannel
	for _, raw := range []capability.Bitmask{0, bit} {
		base := Classify(raw, bit)
		for i := 0; i < 64; i++ {
			other := capability.Bitmask(1) << i
			if other == bit {
				continue
			}
			if got := Classify(raw|other, bit); got != base {
				t.Errorf("bit %d changed verdict for %s: %s vs %s", i, raw, got, base)
			}
		}
	}
}

func TestClassifyReadsRawNotAugmented(t *testing.T) {
	p := capability.DefaultPolicy()
	raw := capability.Bitmask(0)

	if Classify(raw, capability.ViewChannel) != Hidden {
		t.Fatal("expected hidden before augmentation")
	}
	augmented := p.Augment(raw)
	if augmented != 1<<10 {
		t.Fatalf("expected augmented 1<<10, got %s", augmented)
	}
	if Classify(raw, capability.ViewChannel) != Hidden {
		t.Error("raw value must still classify hidden after augmentation")
	}
	if Classify(augmented, capability.ViewChannel) != Visible {
		t.Error("augmented value classifies visible")
	}
}

func TestParseVerdict(t *testing.T) {
	for in, want := range map[string]Verdict{"hidden": Hidden, "Visible": Visible, " HIDDEN ": Hidden} {
		got, err := ParseVerdict(in)
		if err != nil || got != want {
			t.Errorf("ParseVerdict(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseVerdict("locked"); err == nil {
		t.Error("expected error for unknown verdict")
	}
}
