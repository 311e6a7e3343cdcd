package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/config"
	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/crawlsite"
	"github.com/pcrawley/contact-harvester/internal/fetch"
	memnotify "github.com/pcrawley/contact-harvester/internal/notify/memory"
	"github.com/pcrawley/contact-harvester/internal/notify/pubsub"
	"github.com/pcrawley/contact-harvester/internal/orchestrator"
	"github.com/pcrawley/contact-harvester/internal/progress"
	"github.com/pcrawley/contact-harvester/internal/ratelimit"
	"github.com/pcrawley/contact-harvester/internal/record"
	"github.com/pcrawley/contact-harvester/internal/resolve"
	"github.com/pcrawley/contact-harvester/internal/sources"
	memstore "github.com/pcrawley/contact-harvester/internal/storage/memory"
	pgstore "github.com/pcrawley/contact-harvester/internal/storage/postgres"
)

// services holds the wired pipeline plus everything that needs shutdown.
type services struct {
	orch     *orchestrator.Orchestrator
	store    contact.RecordStore
	hub      *progress.Hub
	headless *fetch.HeadlessFetcher
	cleanup  []func()
}

func (s *services) close(ctx context.Context, logger *zap.Logger) {
	if s.orch != nil {
		if err := s.orch.Shutdown(ctx); err != nil {
			logger.Warn("orchestrator shutdown incomplete", zap.Error(err))
		}
	}
	if s.hub != nil {
		if err := s.hub.Close(ctx); err != nil {
			logger.Warn("progress hub close incomplete", zap.Error(err))
		}
	}
	if s.headless != nil {
		s.headless.Close()
	}
	for _, fn := range s.cleanup {
		fn()
	}
}

// buildStore picks Postgres when a DSN is configured and falls back to the
// in-memory store otherwise.
func buildStore(ctx context.Context, cfg config.Config) (contact.RecordStore, func(), error) {
	if cfg.DB.DSN == "" {
		return memstore.NewRecordStore(), func() {}, nil
	}
	store, err := pgstore.NewRecordStore(ctx, pgstore.RecordStoreConfig{
		DSN:          cfg.DB.DSN,
		RecordsTable: cfg.DB.RecordsTable,
		MaxConns:     cfg.DB.MaxConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init record store: %w", err)
	}
	return store, store.Close, nil
}

// buildNotifier picks Pub/Sub when a project is configured and falls back to
// the in-memory notifier otherwise.
func buildNotifier(ctx context.Context, cfg config.Config) (contact.Notifier, func(), error) {
	if cfg.PubSub.ProjectID == "" {
		return memnotify.New(), func() {}, nil
	}
	notifier, client, err := pubsub.Connect(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
	if err != nil {
		return nil, nil, fmt.Errorf("init notifier: %w", err)
	}
	return notifier, func() { _ = client.Close() }, nil
}

// buildServices wires the full pipeline from configuration.
func buildServices(
	ctx context.Context,
	cfg config.Config,
	store contact.RecordStore,
	emitter progress.Emitter,
	logger *zap.Logger,
) (*services, error) {
	svc := &services{store: store}

	limiter := ratelimit.New(cfg.RateLimit())
	robots := fetch.NewRobotsPolicy(cfg.Scraping.RespectRobotsTxt, cfg.Scraping.UserAgent, logger)
	static := fetch.NewStaticFetcher(cfg.Scraping.UserAgent, cfg.FetchTimeout())

	var renderer fetch.Renderer
	var detector *fetch.Detector
	if cfg.Headless.Enabled {
		headless, err := fetch.NewHeadlessFetcher(
			cfg.Scraping.UserAgent,
			cfg.Headless.MaxParallel,
			time.Duration(cfg.Headless.NavTimeoutSec)*time.Second,
		)
		if err != nil {
			return nil, fmt.Errorf("init headless fetcher: %w", err)
		}
		svc.headless = headless
		renderer = headless
		detector = fetch.NewDetector(cfg.Headless.MinHTMLBytes)
	}

	client := fetch.NewClient(
		fetch.Config{
			UserAgent:  cfg.Scraping.UserAgent,
			Timeout:    cfg.FetchTimeout(),
			MaxRetries: cfg.Scraping.MaxRetries,
		},
		static, renderer, detector, robots, limiter,
		contact.SystemClock{}, logger,
	)

	searcher := resolve.NewWebSearcher(client, logger)
	resolver := resolve.New(searcher, logger)
	norm := record.Normalizer{DefaultRegion: cfg.Extract.DefaultRegion}

	crawler := crawlsite.New(client, norm, crawlsite.Config{
		MaxPages:           cfg.Crawler.MaxPagesPerDomain,
		MaxDepth:           cfg.Crawler.MaxDepth,
		StopWhenSufficient: cfg.Crawler.StopWhenSufficient,
	}, logger)

	var srcs []contact.Source
	if cfg.Sources.MapsEnabled {
		srcs = append(srcs, sources.NewMapsSource(client, ""))
	}
	if cfg.Sources.LinkedInEnabled {
		srcs = append(srcs, sources.NewLinkedInSource(client, ""))
	}
	if cfg.Sources.DirectoriesEnabled {
		srcs = append(srcs,
			sources.NewYellowPagesSource(client, ""),
			sources.NewYelpSource(client, ""),
		)
	}
	chain := sources.NewChain(norm, logger, srcs...)
	gate := sources.Gate{TriggerOnAnyMissing: cfg.Fallback.TriggerOnAnyMissing}

	notifier, cleanupNotifier, err := buildNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc.cleanup = append(svc.cleanup, cleanupNotifier)

	svc.orch = orchestrator.New(
		resolver, crawler, chain, gate,
		store, emitter, notifier,
		contact.SystemClock{}, contact.UUIDGenerator{},
		orchestrator.Config{Concurrency: cfg.Scraping.Concurrency},
		logger,
	)
	return svc, nil
}
