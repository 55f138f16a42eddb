package daemon

import (
	"context"
	"time"

	"github.com/matheus3301/mockchat/internal/api"
	"github.com/matheus3301/mockchat/internal/bus"
	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/matheus3301/mockchat/internal/config"
	"github.com/matheus3301/mockchat/internal/conversation"
	"github.com/matheus3301/mockchat/internal/fixture"
	"github.com/matheus3301/mockchat/internal/identity"
	"github.com/matheus3301/mockchat/internal/lifecycle"
	"github.com/matheus3301/mockchat/internal/lock"
	"github.com/matheus3301/mockchat/internal/logging"
	"github.com/matheus3301/mockchat/internal/presence"
	"github.com/matheus3301/mockchat/internal/profile"
	"github.com/matheus3301/mockchat/internal/session"
	"github.com/matheus3301/mockchat/internal/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	SocketPath  string // optional override for testing; empty = use default
	ConfigPath  string // optional override; empty = ~/.mockchat/config.toml
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideClock,
			provideLock,
			provideStore,
			provideConversations,
			provideIdentity,
			provideAggregator,
			provideEngine,
			provideSession,
			provideSimulator,
			provideLimiter,
			provideChatServer,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = profile.ConfigPath()
	}
	return config.LoadOrDefault(path)
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName, cfg.Log.Level)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideClock() clock.Clock {
	return clock.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

// provideStore depends on the lock so that only the owning daemon migrates.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("store initialized",
		zap.String("path", db.Path()),
		zap.Uint("schema_version", result.Version),
		zap.Bool("migrated", result.Changed),
	)
	return db, nil
}

func provideConversations(c clock.Clock, b *bus.Bus, logger *zap.Logger) *conversation.Store {
	return conversation.New(c, b, logger.Named("conversation"))
}

func provideIdentity(db *store.DB, c clock.Clock, cfg *config.Config, logger *zap.Logger) (*identity.Catalog, error) {
	return identity.New(db, fixture.Users(c.Now()), c, logger.Named("identity"), identity.Config{
		MinPasswordLength: cfg.Identity.MinPasswordLength,
		MinEntropyBits:    cfg.Identity.MinEntropyBits,
		VerifyPasswords:   cfg.Identity.VerifyPasswords,
	})
}

func provideAggregator(st *conversation.Store, ids *identity.Catalog, c clock.Clock, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *presence.Aggregator {
	return presence.NewAggregator(st, ids, c, b, logger.Named("presence"), cfg.Typing.Timeout.Duration)
}

func provideEngine(st *conversation.Store, c clock.Clock, cfg *config.Config, logger *zap.Logger) *lifecycle.Engine {
	return lifecycle.NewEngine(st, c, logger.Named("lifecycle"), lifecycle.Config{
		SentDelay:      cfg.Lifecycle.SentDelay.Duration,
		DeliveredDelay: cfg.Lifecycle.DeliveredDelay.Duration,
		ImageMaxBytes:  cfg.Limits.ImageMaxBytes,
		FileMaxBytes:   cfg.Limits.FileMaxBytes,
	})
}

func provideSession(st *conversation.Store, eng *lifecycle.Engine, agg *presence.Aggregator, ids *identity.Catalog, c clock.Clock, b *bus.Bus, cfg *config.Config, logger *zap.Logger) *session.Session {
	return session.New(session.Params{
		Store:         st,
		Engine:        eng,
		Presence:      agg,
		Identity:      ids,
		Clock:         c,
		Bus:           b,
		Logger:        logger.Named("session"),
		PreviewLength: cfg.Limits.PreviewLength,
	})
}

func provideSimulator(agg *presence.Aggregator, st *conversation.Store, sess *session.Session, c clock.Clock, cfg *config.Config, logger *zap.Logger) *presence.Simulator {
	return presence.NewSimulator(agg, st, c, logger.Named("simulator"), presence.SimConfig{
		Interval:    cfg.Typing.Interval.Duration,
		Probability: cfg.Typing.Probability,
		MinDuration: cfg.Typing.MinDuration.Duration,
		MaxDuration: cfg.Typing.MaxDuration.Duration,
		Seed:        cfg.Typing.Seed,
	}, sess.UserID)
}

func provideLimiter(cfg *config.Config) *api.LimiterStore {
	return api.NewLimiterStore(cfg.RPC.RequestsPerMinute, cfg.RPC.Burst, time.Minute)
}

func provideChatServer(p Params, sess *session.Session, b *bus.Bus, logger *zap.Logger) *api.Server {
	return api.NewServer(sess, b, p.ProfileName, logger.Named("api"))
}

type lifecycleParams struct {
	fx.In

	Server     *Server
	Lock       *lock.Lock
	DB         *store.DB
	Clock      clock.Clock
	Store      *conversation.Store
	Aggregator *presence.Aggregator
	Engine     *lifecycle.Engine
	Session    *session.Session
	Simulator  *presence.Simulator
	Limiter    *api.LimiterStore
	Config     *config.Config
	Logger     *zap.Logger
}

func registerLifecycle(lc fx.Lifecycle, p lifecycleParams) {
	logger := p.Logger
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			seeded := func(chatID, userID string) error {
				return p.Aggregator.SetTyping(chatID, userID, true)
			}
			if err := fixture.Seed(p.Store, p.Clock.Now(), seeded); err != nil {
				return err
			}
			logger.Info("demo conversations loaded", zap.Int("chats", len(p.Store.ChatIDs())))

			u, ok, err := p.Session.Restore()
			switch {
			case err != nil:
				logger.Warn("restoring signed-in user failed", zap.Error(err))
			case ok:
				logger.Info("session restored", zap.String("user_id", u.ID))
			default:
				logger.Info("no signed-in user, login required")
			}

			if p.Config.Typing.Simulate {
				p.Simulator.Start()
			}

			// Start gRPC server in background.
			go func() {
				if err := p.Server.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Server.Stop(ctx)
			p.Simulator.Stop()
			p.Aggregator.Stop()
			p.Engine.Stop()
			p.Limiter.Stop()
			if err := p.DB.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := p.Lock.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
