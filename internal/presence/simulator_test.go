package presence

import (
	"testing"
	"time"

	"github.com/matheus3301/mockchat/internal/conversation"
)

func typers(store *conversation.Store, viewer string) map[string][]string {
	out := make(map[string][]string)
	for _, c := range store.ListForUser(viewer) {
		if len(c.Typing) > 0 {
			out[c.ID] = c.Typing
		}
	}
	return out
}

func TestSimulatorTypesAndStops(t *testing.T) {
	agg, store, clk, _ := testAggregator(t, 0)
	cfg := SimConfig{Interval: 5 * time.Second, Probability: 1, MinDuration: 2 * time.Second, MaxDuration: 2 * time.Second, Seed: 42}
	sim := NewSimulator(agg, store, clk, nil, cfg, func() (string, bool) { return "u1", true })
	sim.Start()
	sim.Start()
	defer sim.Stop()

	clk.Advance(5 * time.Second)
	got := typers(store, "u1")
	if len(got) != 1 {
		t.Fatalf("typing chats = %v, want exactly one", got)
	}
	for _, who := range got {
		if len(who) != 1 || who[0] == "u1" {
			t.Fatalf("typing set = %v, want one participant other than the viewer", who)
		}
	}

	clk.Advance(2 * time.Second)
	if got := typers(store, "u1"); len(got) != 0 {
		t.Fatalf("typing chats = %v after duration, want none", got)
	}
}

func TestSimulatorIdle(t *testing.T) {
	tests := []struct {
		name   string
		prob   float64
		viewer func() (string, bool)
	}{
		{"zero probability", 0, func() (string, bool) { return "u1", true }},
		{"signed out", 1, func() (string, bool) { return "", false }},
		{"no chats", 1, func() (string, bool) { return "u9", true }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, store, clk, _ := testAggregator(t, 0)
			cfg := SimConfig{Interval: time.Second, Probability: tt.prob, MinDuration: time.Second, MaxDuration: 3 * time.Second, Seed: 7}
			sim := NewSimulator(agg, store, clk, nil, cfg, tt.viewer)
			sim.Start()
			clk.Advance(30 * time.Second)
			if got := typers(store, "u1"); len(got) != 0 {
				t.Errorf("typing chats = %v, want none", got)
			}
			sim.Stop()
		})
	}
}

func TestSimulatorStopCancelsTimers(t *testing.T) {
	agg, store, clk, _ := testAggregator(t, 0)
	cfg := SimConfig{Interval: time.Second, Probability: 1, MinDuration: 10 * time.Second, MaxDuration: 10 * time.Second, Seed: 1}
	sim := NewSimulator(agg, store, clk, nil, cfg, func() (string, bool) { return "u1", true })
	sim.Start()
	clk.Advance(time.Second)
	sim.Stop()
	if clk.Pending() != 0 {
		t.Errorf("pending timers after Stop = %d, want 0", clk.Pending())
	}
	clk.Advance(time.Minute)
	if got := typers(store, "u1"); len(got) == 0 {
		t.Error("stopping the simulator should leave existing indicators to the aggregator")
	}
}
