package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/cache"
	"github.com/tribuna/internal/config"
	"github.com/tribuna/internal/db"
	"github.com/tribuna/internal/handler"
	"github.com/tribuna/internal/logger"
	"github.com/tribuna/internal/pdflink"
	"github.com/tribuna/internal/router"
	"github.com/tribuna/internal/service"
	"github.com/tribuna/internal/storage"
	"github.com/tribuna/internal/thumbnail"
)

func main() {
	// .env 不存在时直接使用进程环境变量
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Init(cfg.Environment)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	dsn := cfg.DatabasePath
	if cfg.DatabaseDriver == db.DriverPostgres {
		dsn = cfg.DatabaseURL
	}
	if err := db.Init(cfg.DatabaseDriver, dsn); err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to initialize database")
	}
	if err := db.EnsureUser(db.DB, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure admin user")
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("failed to initialize storage")
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	linkCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("link cache unavailable, continuing without cache")
		linkCache = cache.Noop{}
	}
	resolver := pdflink.NewResolver(linkCache)

	editions := service.NewEditionService(db.DB, resolver, store).
		WithMaxUploadBytes(cfg.MaxUploadBytes())

	apiOpts := handler.Options{
		DB:             db.DB,
		Editions:       editions,
		Visitors:       service.NewVisitorService(db.DB),
		Prober:         pdflink.NewProber(&http.Client{Timeout: 5 * time.Second}),
		SiteName:       cfg.SiteName,
		SiteBaseURL:    cfg.SiteBaseURL,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}

	raster := thumbnail.NewPdftoppm(cfg.Thumbnail.PdftoppmPath)
	if err := raster.Available(); err != nil {
		log.Warn().Err(err).Msg("pdftoppm not found, uploaded editions will use the placeholder cover")
	} else {
		covers := thumbnail.NewGenerator(raster, thumbnail.Options{
			MaxWidth:    cfg.Thumbnail.MaxWidth,
			Concurrency: cfg.Thumbnail.Concurrency,
			MaxBytes:    cfg.MaxUploadBytes(),
			Store:       store,
		})
		editions.WithCoverRenderer(covers)
		apiOpts.Covers = covers
	}

	routerOpts := router.Options{
		SessionSecret: cfg.SessionSecret,
		StaticDir:     "web/static",
	}
	if local, ok := store.(*storage.LocalStore); ok {
		routerOpts.UploadDir = local.Dir()
		routerOpts.UploadURLPath = local.URLPath()
	}

	r := router.SetupRouter(handler.NewAPI(apiOpts), routerOpts)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("storage", cfg.Storage.Backend).Str("cache", cfg.Cache.Backend).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to run server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
