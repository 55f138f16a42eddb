package presence

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/matheus3301/mockchat/internal/conversation"
	"go.uber.org/zap"
)

// SimConfig controls the ambient typing simulation.
type SimConfig struct {
	Interval    time.Duration
	Probability float64
	MinDuration time.Duration
	MaxDuration time.Duration
	Seed        uint64
}

// DefaultSimConfig checks every 5s with a 10% chance of 2-5s of typing.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Interval:    5 * time.Second,
		Probability: 0.1,
		MinDuration: 2 * time.Second,
		MaxDuration: 5 * time.Second,
	}
}

// Simulator periodically makes a random participant of one of the viewer's
// chats type for a while. It only goes through Aggregator.SetTyping, so the
// typing set stays a subset of the participants.
type Simulator struct {
	agg    *Aggregator
	store  *conversation.Store
	clock  clock.Clock
	logger *zap.Logger
	cfg    SimConfig
	viewer func() (string, bool)

	mu      sync.Mutex
	rng     *rand.Rand
	tick    clock.Timer
	stops   map[clock.Timer]struct{}
	running bool
}

// NewSimulator creates a simulator. viewer reports the signed-in user, if any.
func NewSimulator(agg *Aggregator, store *conversation.Store, c clock.Clock, logger *zap.Logger, cfg SimConfig, viewer func() (string, bool)) *Simulator {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	if cfg.MaxDuration < cfg.MinDuration {
		cfg.MaxDuration = cfg.MinDuration
	}
	return &Simulator{
		agg:    agg,
		store:  store,
		clock:  c,
		logger: logger,
		cfg:    cfg,
		viewer: viewer,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		stops:  make(map[clock.Timer]struct{}),
	}
}

// Start begins the periodic check. Calling Start twice is a no-op.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.cfg.Interval <= 0 {
		return
	}
	s.running = true
	s.tick = s.clock.AfterFunc(s.cfg.Interval, s.step)
}

// Stop halts the simulation and cancels scheduled stop-typing callbacks.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
	for t := range s.stops {
		t.Stop()
		delete(s.stops, t)
	}
}

func (s *Simulator) step() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.tick = s.clock.AfterFunc(s.cfg.Interval, s.step)
	s.mu.Unlock()

	viewer, ok := s.viewer()
	if !ok {
		return
	}
	chats := s.store.ListForUser(viewer)
	if len(chats) == 0 {
		return
	}

	s.mu.Lock()
	c := chats[s.rng.IntN(len(chats))]
	others := slices.DeleteFunc(slices.Clone(c.Participants), func(id string) bool { return id == viewer })
	if len(others) == 0 || s.rng.Float64() >= s.cfg.Probability {
		s.mu.Unlock()
		return
	}
	who := others[s.rng.IntN(len(others))]
	d := s.cfg.MinDuration
	if span := s.cfg.MaxDuration - s.cfg.MinDuration; span > 0 {
		d += time.Duration(s.rng.Int64N(int64(span)))
	}
	s.mu.Unlock()

	if err := s.agg.SetTyping(c.ID, who, true); err != nil {
		s.logger.Debug("simulated typing rejected", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	var t clock.Timer
	t = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.stops, t)
		s.mu.Unlock()
		_ = s.agg.SetTyping(c.ID, who, false)
	})
	s.stops[t] = struct{}{}
}
