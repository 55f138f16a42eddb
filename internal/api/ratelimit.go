package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// LimiterStore keeps one token bucket per caller key and forgets keys idle
// for longer than the idle window.
type LimiterStore struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idle    time.Duration
	clients map[string]*limiterEntry
	stopCh  chan struct{}
	once    sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiterStore allows perMinute requests per key with the given burst.
// perMinute <= 0 disables limiting.
func NewLimiterStore(perMinute, burst int, cleanupInterval time.Duration) *LimiterStore {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst <= 0 {
		burst = 1
	}
	s := &LimiterStore{
		limit:   limit,
		burst:   burst,
		idle:    10 * time.Minute,
		clients: make(map[string]*limiterEntry),
		stopCh:  make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

func (s *LimiterStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(time.Now())
		case <-s.stopCh:
			return
		}
	}
}

func (s *LimiterStore) sweep(now time.Time) {
	cutoff := now.Add(-s.idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.clients {
		if e.lastSeen.Before(cutoff) {
			delete(s.clients, k)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (s *LimiterStore) Stop() {
	s.once.Do(func() { close(s.stopCh) })
}

// Allow reports whether key may make another request now.
func (s *LimiterStore) Allow(key string) bool {
	s.mu.Lock()
	e, ok := s.clients[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = e
	}
	e.lastSeen = time.Now()
	s.mu.Unlock()
	return e.limiter.Allow()
}

// RateLimitUnaryInterceptor rejects calls over the limit with ResourceExhausted.
// Login and Register are keyed by the email in the request so guessing
// against one account is throttled on its own; other calls by peer address.
func RateLimitUnaryInterceptor(store *LimiterStore) grpc.UnaryServerInterceptor {
	byEmail := map[string]bool{
		FullMethod(MethodLogin):    true,
		FullMethod(MethodRegister): true,
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		key := "local"
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil && p.Addr.String() != "" {
			key = p.Addr.Network() + ":" + p.Addr.String()
		}
		if byEmail[info.FullMethod] {
			if s, ok := req.(*structpb.Struct); ok {
				if email := str(s, "email"); email != "" {
					key = "email:" + email
				}
			}
		}
		if !store.Allow(key) {
			return nil, grpcstatus.Errorf(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}
