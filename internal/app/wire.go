package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	s3blob "github.com/juant72/sniperforge-sub004/internal/blob/s3"
	"github.com/juant72/sniperforge-sub004/internal/bus"
	"github.com/juant72/sniperforge-sub004/internal/config"
	"github.com/juant72/sniperforge-sub004/internal/cyclefind"
	"github.com/juant72/sniperforge-sub004/internal/domain"
	"github.com/juant72/sniperforge-sub004/internal/engine"
	"github.com/juant72/sniperforge-sub004/internal/feed"
	"github.com/juant72/sniperforge-sub004/internal/guard"
	"github.com/juant72/sniperforge-sub004/internal/profit"
	"github.com/juant72/sniperforge-sub004/internal/registry"
	"github.com/juant72/sniperforge-sub004/internal/score"
	"github.com/juant72/sniperforge-sub004/internal/store/postgres"
	"github.com/juant72/sniperforge-sub004/internal/telemetry"
)

// Dependencies bundles everything the engine needs to run, constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Engine   *engine.Engine
	Registry *registry.Registry
	Bus      domain.OpportunityBus
	Metrics  *telemetry.Recorder

	// LocalBus is set when the in-process bus is active; executors in the
	// same process subscribe to it directly.
	LocalBus *bus.ChannelBus
}

// Wire constructs the full detection pipeline from the configuration. The
// quote fetcher is the caller's: venue transport lives outside the engine.
func Wire(ctx context.Context, cfg *config.Config, fetcher domain.QuoteFetcher, logger *slog.Logger) (*Dependencies, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	anchors, err := anchorTokens(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: anchors: %w", err)
	}
	venues, err := venueSet(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: venues: %w", err)
	}

	metrics := telemetry.NewRecorder()

	// --- Opportunity bus ---
	var (
		oppBus   domain.OpportunityBus
		localBus *bus.ChannelBus
	)
	switch cfg.Bus.Kind {
	case "", "channel":
		localBus = bus.NewChannelBus(cfg.Bus.Buffer, logger)
		closers = append(closers, func() { _ = localBus.Close() })
		oppBus = localBus
	case "redis":
		rb, err := bus.NewRedisBus(ctx, bus.RedisConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			Channel:    cfg.Bus.Channel,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis bus: %w", err)
		}
		closers = append(closers, func() { _ = rb.Close() })
		oppBus = rb
	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unsupported bus kind %q", cfg.Bus.Kind)
	}

	// --- Optional PostgreSQL audit store ---
	var store domain.OpportunityStore
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
		store = postgres.NewOpportunityStore(pgClient.Pool())
	}

	// --- Optional S3 journal ---
	var journal domain.OpportunityJournal
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		j := s3blob.NewJournal(s3Client, cfg.S3.Prefix)
		closers = append(closers, func() { _ = j.Flush(context.Background()) })
		journal = j
	}

	// --- Pipeline stages ---
	venueIDs := make([]domain.VenueID, 0, len(venues))
	for id := range venues {
		venueIDs = append(venueIDs, id)
	}
	sort.Slice(venueIDs, func(i, j int) bool { return venueIDs[i] < venueIDs[j] })

	aggregator := feed.New(feed.Config{
		Fetcher:      fetcher,
		Venues:       venueIDs,
		MaxStaleness: cfg.Engine.MaxStaleness.Duration,
		VenueTimeout: cfg.Engine.VenueTimeout.Duration,
		Logger:       logger,
		Metrics:      metrics,
	})

	finder := cyclefind.New(cfg.Engine.MaxHops, cfg.Engine.MinProfitBps, logger)
	calculator := profit.NewCalculator(nil,
		cfg.Engine.NetworkCostUnits(), cfg.Engine.MinViableTradeUnits())
	g := guard.New(cfg.Engine.MinProfitBps, cfg.Engine.SafetyMargin)

	reliability := score.NewReliabilityTracker()
	scorer := score.NewScorer(reliability, cfg.Engine.MaxStaleness.Duration)

	reg := registry.New(registry.Config{
		CooldownWindow: cfg.Engine.CooldownWindow.Duration,
		OpportunityTTL: cfg.Engine.OpportunityTTL.Duration,
		QueueSize:      cfg.Engine.QueueSize,
		Bus:            oppBus,
		Logger:         logger,
		Metrics:        metrics,
	})

	eng := engine.New(engine.Config{
		Anchors:           anchors,
		Venues:            venues,
		DiscoveryInterval: cfg.Engine.DiscoveryInterval.Duration,
		DiscoveryBudget:   cfg.Engine.DiscoveryBudget.Duration,
	}, engine.Dependencies{
		Feed:        aggregator,
		Finder:      finder,
		Calculator:  calculator,
		Guard:       g,
		Scorer:      scorer,
		Reliability: reliability,
		Registry:    reg,
		Store:       store,
		Journal:     journal,
		Logger:      logger,
		Metrics:     metrics,
	})

	return &Dependencies{
		Engine:   eng,
		Registry: reg,
		Bus:      oppBus,
		Metrics:  metrics,
		LocalBus: localBus,
	}, cleanup, nil
}

// anchorTokens converts the configured anchor set to domain tokens.
func anchorTokens(cfg *config.Config) ([]domain.Token, error) {
	if len(cfg.Anchors) == 0 {
		return nil, domain.ErrNoAnchorTokens
	}
	out := make([]domain.Token, 0, len(cfg.Anchors))
	for _, a := range cfg.Anchors {
		out = append(out, domain.NewToken(a.Symbol, a.Address, a.Decimals))
	}
	return out, nil
}

// venueSet converts venue configs into the domain venue map, parsing fee
// tiers and ordering them deepest first.
func venueSet(cfg *config.Config) (map[domain.VenueID]domain.Venue, error) {
	if len(cfg.Venues) == 0 {
		return nil, domain.ErrNoVenues
	}
	out := make(map[domain.VenueID]domain.Venue, len(cfg.Venues))
	for _, vc := range cfg.Venues {
		fees := domain.FeeModel{
			FlatBps:                vc.FeeBps,
			LargeTradeSurchargeBps: vc.SurchargeBps,
		}
		if vc.SurchargeAbove != "" {
			threshold, ok := new(big.Int).SetString(vc.SurchargeAbove, 10)
			if !ok {
				return nil, fmt.Errorf("venue %s: bad surcharge_above %q", vc.ID, vc.SurchargeAbove)
			}
			fees.LargeTradeThreshold = threshold
		}
		for _, tc := range vc.Tiers {
			minLiq, ok := new(big.Int).SetString(tc.MinLiquidity, 10)
			if !ok {
				return nil, fmt.Errorf("venue %s: bad tier min_liquidity %q", vc.ID, tc.MinLiquidity)
			}
			fees.Tiers = append(fees.Tiers, domain.FeeTier{MinLiquidity: minLiq, Bps: tc.Bps})
		}
		sort.Slice(fees.Tiers, func(i, j int) bool {
			return fees.Tiers[i].MinLiquidity.Cmp(fees.Tiers[j].MinLiquidity) > 0
		})

		id := domain.VenueID(vc.ID)
		out[id] = domain.Venue{ID: id, Fees: fees}
	}
	return out, nil
}
