package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"dexlead/internal/bot"
	"dexlead/internal/config"
	"dexlead/internal/dexscreener"
	"dexlead/internal/metrics"
	"dexlead/internal/notify"
	"dexlead/internal/observability"
	"dexlead/internal/ratelimit"
	"dexlead/internal/social"
	"dexlead/internal/storage"
	chstore "dexlead/internal/storage/clickhouse"
	"dexlead/internal/storage/migrations"
	pgstore "dexlead/internal/storage/postgres"
	"dexlead/internal/storage/sqlite"
	"dexlead/internal/telegram"
	"dexlead/internal/wallet"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	counters := metrics.NewCounters()
	limiters := ratelimit.NewGroup()

	// Lead store
	store, closeStore, err := openLeadStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	// Optional outcome sink
	var outcomes storage.OutcomeStore
	if cfg.Analytics.Enabled {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Analytics.DSN)
		if err != nil {
			return fmt.Errorf("clickhouse: %w", err)
		}
		chOutcomes := chstore.NewOutcomeStore(conn)
		defer chOutcomes.Close()
		outcomes = chOutcomes
	}

	// Collaborators
	dex := dexscreener.New(dexscreener.Options{
		BaseURL:              cfg.Discovery.BaseURL,
		TrackedChains:        cfg.Discovery.TrackedChains,
		MaxTokenAge:          cfg.Discovery.MaxTokenAge.D(),
		MaxProfilesPerPoll:   cfg.Discovery.MaxProfilesPerPoll,
		FairChainSampling:    cfg.Discovery.FairChainSampling,
		PairFetchConcurrency: cfg.Discovery.PairFetchConcurrency,
		Limiters:             limiters,
		Counters:             counters,
		Logger:               logger,
	})

	socialExtractor := social.NewExtractor(social.Options{
		Strict:   cfg.Filters.StrictSocial,
		Limiters: limiters,
		Counters: counters,
		Logger:   logger,
	})

	notifier, err := notify.New(cfg.Telegram.BotToken, cfg.Telegram.ChannelID, logger)
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	var adminExtractor bot.AdminExtractor
	if cfg.Telegram.AdminExtraction {
		extractor, err := telegram.NewAdminExtractor(cfg.Telegram.BotToken, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("admin extraction unavailable, continuing without it")
		} else {
			adminExtractor = extractor
		}
	}

	var walletLookup bot.WalletLookup
	if cfg.Wallet.Enabled {
		walletLookup = wallet.NewLookup(wallet.Options{
			EtherscanKey: cfg.Wallet.EtherscanKey,
			BasescanKey:  cfg.Wallet.BasescanKey,
			BscscanKey:   cfg.Wallet.BscscanKey,
			SolanaRPCURL: cfg.Wallet.SolanaRPCURL,
			Limiters:     limiters,
			Counters:     counters,
			Logger:       logger,
		})
	}

	// Metrics endpoint
	if cfg.Metrics.Addr != "" {
		srv := observability.NewServer(cfg.Metrics.Addr, counters, logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	b := bot.New(bot.Options{
		Discoverer:          dex,
		Social:              socialExtractor,
		Admin:               adminExtractor,
		Wallet:              walletLookup,
		Notifier:            notifier,
		Store:               store,
		Outcomes:            outcomes,
		PollInterval:        cfg.Discovery.PollInterval.D(),
		EnforceFilters:      cfg.EnforceFilters(),
		RequireTelegram:     cfg.Filters.RequireTelegram,
		RequireVisibleAdmin: cfg.Filters.RequireVisibleAdmin,
		RejectHiddenAdmins:  cfg.Filters.RejectHiddenAdmins,
		RegisterSkipped:     cfg.Filters.RegisterSkipped,
		Counters:            counters,
		Logger:              logger,
	})

	logger.Info().
		Strs("chains", cfg.Discovery.TrackedChains).
		Str("storage", cfg.Storage.Backend).
		Bool("enforce_filters", cfg.EnforceFilters()).
		Bool("require_telegram", cfg.Filters.RequireTelegram).
		Bool("require_visible_admin", cfg.Filters.RequireVisibleAdmin).
		Bool("reject_hidden_admins", cfg.Filters.RejectHiddenAdmins).
		Msg("starting")

	b.Run(ctx)
	logger.Info().Msg("goodbye")
	return nil
}

func openLeadStore(ctx context.Context, cfg config.Storage) (storage.LeadStore, func(), error) {
	switch cfg.Backend {
	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.NewLeadStore(pool), pool.Close, nil
	default:
		store, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}

func newLogger(cfg config.Logging) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("logging.level: %w", err)
	}

	var logger zerolog.Logger
	if cfg.Console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger(), nil
}
