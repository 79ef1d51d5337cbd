package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/docqa/internal/ai"
	"github.com/xxxsen/docqa/internal/cache"
	"github.com/xxxsen/docqa/internal/config"
	"github.com/xxxsen/docqa/internal/db"
	"github.com/xxxsen/docqa/internal/handler"
	"github.com/xxxsen/docqa/internal/job"
	"github.com/xxxsen/docqa/internal/middleware"
	"github.com/xxxsen/docqa/internal/repo"
	"github.com/xxxsen/docqa/internal/schedule"
	"github.com/xxxsen/docqa/internal/search"
	"github.com/xxxsen/docqa/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docqa",
		Short: "document q&a query server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docqa server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx := context.Background()
	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("search_backend", cfg.Search.BaseURL),
		zap.String("redis", cfg.Redis.Addr),
	)

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	// cache is best-effort, an unreachable redis only costs hit rate
	if err := rdb.Ping(ctx).Err(); err != nil {
		logutil.GetLogger(ctx).Warn("redis unreachable, serving uncached until it recovers", zap.Error(err))
	}
	store := cache.NewRedisStore(rdb)
	if cfg.Cache.LocalSize > 0 {
		store = cache.WrapLocalTier(store, cfg.Cache.LocalSize, time.Duration(cfg.Cache.LocalTTLMinutes)*time.Minute)
	}
	metrics := cache.NewMetrics()
	ttl := cache.NewTTLPolicy(time.Duration(cfg.Cache.BaseTTLMinutes) * time.Minute)

	searchClient := search.NewClient(cfg.Search.BaseURL, time.Duration(cfg.Search.TimeoutSeconds)*time.Second)
	orchestrator := search.NewOrchestrator(searchClient, cfg.Search.CandidateCount)

	entries := make([]ai.GeneratorEntry, 0, len(cfg.AI))
	for _, pc := range cfg.AI {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			return fmt.Errorf("init ai provider %s: %w", pc.Provider, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      pc.Provider + "/" + pc.Model,
			Generator: ai.NewGenerator(provider, pc.Model),
		})
	}
	generator := ai.NewGroupGenerator(entries)
	if generator == nil {
		return fmt.Errorf("no ai generator configured")
	}

	conversations := repo.NewConversationRepo(conn)
	queryService := service.NewQueryService(store, ttl, metrics, orchestrator, generator, conversations, service.QueryServiceOptions{
		CoalesceMisses: cfg.Cache.CoalesceMisses,
	})
	historyService := service.NewHistoryService(conversations)
	cacheService := service.NewCacheService(store, metrics)

	deps := handler.RouterDeps{
		Query:           handler.NewQueryHandler(queryService, cfg.Search.DefaultTopK),
		Cache:           handler.NewCacheHandler(cacheService),
		Stats:           handler.NewStatsHandler(orchestrator, cacheService),
		History:         handler.NewHistoryHandler(historyService),
		AdminJWTSecret:  []byte(cfg.AdminJWTSecret),
		RateLimitWindow: time.Duration(cfg.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewScheduler()
	if err := scheduler.AddJob(job.NewCacheMetricsJob(metrics), "*/5 * * * *"); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewHistoryReportJob(historyService, 10), "0 * * * *"); err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	scheduler.Start(runCtx)

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-runCtx.Done()
	logutil.GetLogger(ctx).Info("server stopping...")
	scheduler.Stop()
	return nil
}
