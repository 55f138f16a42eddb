package status

import (
	"errors"
	"testing"
)

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Sending, Sent},
		{Sending, Delivered},
		{Sending, Read},
		{Sent, Delivered},
		{Sent, Read},
		{Delivered, Read},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			changed, err := Advance(tt.from, tt.to)
			if err != nil {
				t.Fatalf("Advance(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if !changed {
				t.Errorf("Advance(%s -> %s) changed = false, want true", tt.from, tt.to)
			}
		})
	}
}

func TestBackwardTransitionsRejected(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Sent, Sending},
		{Delivered, Sent},
		{Delivered, Sending},
		{Read, Delivered},
		{Read, Sending},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			_, err := Advance(tt.from, tt.to)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Advance(%s -> %s) error = %v, want ErrInvalidTransition", tt.from, tt.to, err)
			}
		})
	}
}

func TestSameStateIsNoop(t *testing.T) {
	for _, s := range []State{Sending, Sent, Delivered, Read} {
		changed, err := Advance(s, s)
		if err != nil || changed {
			t.Errorf("Advance(%s -> %s) = (%v, %v), want (false, nil)", s, s, changed, err)
		}
	}
}

func TestRankOrder(t *testing.T) {
	seq := []State{Sending, Sent, Delivered, Read}
	for i := 1; i < len(seq); i++ {
		if seq[i-1].Rank() >= seq[i].Rank() {
			t.Errorf("Rank(%s) = %d not below Rank(%s) = %d", seq[i-1], seq[i-1].Rank(), seq[i], seq[i].Rank())
		}
	}
	if State("bogus").Rank() != -1 {
		t.Error("unknown state should rank -1")
	}
	if !Read.Terminal() || Delivered.Terminal() {
		t.Error("only read is terminal")
	}
}

func TestParse(t *testing.T) {
	if s, err := Parse("delivered"); err != nil || s != Delivered {
		t.Errorf("Parse(delivered) = (%q, %v)", s, err)
	}
	if _, err := Parse("failed"); err == nil {
		t.Error("Parse(failed) should fail")
	}
	if _, err := Advance(Sent, State("failed")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Advance to unknown state error = %v, want ErrInvalidTransition", err)
	}
}
