package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyberinferno/regionpush/display"
	"github.com/cyberinferno/regionpush/logger"
	"github.com/cyberinferno/regionpush/peerstats"
	"github.com/cyberinferno/regionpush/session"
	"github.com/cyberinferno/regionpush/tcpserver"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const serviceName = "regionpush"

var (
	serveConfigPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Accept region batches and paint them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServeConfig(serveConfigPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to a TOML config file")
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":80", "Address to listen on (overrides listen_addr)")
}

func newLogger(cfg serveConfig) (logger.Logger, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.LogDir != "" {
		return logger.NewZerologFileLogger(serviceName, cfg.LogDir, level)
	}
	if cfg.LogJSON {
		return logger.NewZerologLogger(zerolog.New(os.Stdout), serviceName, level), nil
	}
	return logger.NewConsoleLogger(os.Stdout, serviceName, level), nil
}

func newStatsStore(cfg serveConfig) (peerstats.Store, func() error) {
	switch cfg.StatsBackend {
	case statsMemory:
		return peerstats.NewMemoryStore(cfg.StatsTTL, 10*time.Minute), func() error { return nil }
	case statsRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return peerstats.NewRedisStore(client, cfg.RedisKeyPrefix, cfg.StatsTTL), client.Close
	default:
		return nil, func() error { return nil }
	}
}

func runServe(ctx context.Context, cfg serveConfig) error {
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	fb := display.NewFramebuffer(cfg.Limits.DisplayWidth, cfg.Limits.DisplayHeight)
	var sink display.Sink = fb
	if cfg.SnapshotPath != "" {
		sink = display.NewSnapshotSink(fb, cfg.SnapshotPath)
	}

	handler, err := session.NewHandler(cfg.Session, cfg.Limits, sink, log)
	if err != nil {
		return err
	}
	stats, closeStats := newStatsStore(cfg)
	defer func() { _ = closeStats() }()
	handler.Stats = stats

	srv := &tcpserver.TCPServer{
		Logger:     log,
		Name:       serviceName,
		Addr:       cfg.ListenAddr,
		NewSession: handler.NewSession,
	}
	if err := srv.Start(); err != nil {
		return err
	}

	limits := handler.Decoder.Limits()
	log.Info("display ready",
		logger.F("width", fb.Width()),
		logger.F("height", fb.Height()),
		logger.F("max_chunk", limits.MaxChunk),
		logger.F("stats", cfg.StatsBackend),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		srv.Stop()
		return nil
	})
	if stats != nil {
		g.Go(func() error {
			return reportStats(gctx, log, stats)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// reportStats logs per-peer counters every minute until ctx is done.
func reportStats(ctx context.Context, log logger.Logger, stats peerstats.Store) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			peers, err := stats.Peers(ctx)
			if err != nil {
				log.Warn("peer stats unavailable", logger.F("error", err))
				continue
			}
			for _, p := range peers {
				c, err := stats.Get(ctx, p)
				if err != nil {
					continue
				}
				log.Info("peer stats",
					logger.F("peer", p),
					logger.F("completed", c.Completed),
					logger.F("aborted", c.Aborted),
					logger.F("regions", c.Regions),
					logger.F("last_reason", c.LastReason),
				)
			}
		}
	}
}
