package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"schoolerp_backend/internals/configs"
	database "schoolerp_backend/internals/databases"
	"schoolerp_backend/internals/features/notifications/email"
	helper "schoolerp_backend/internals/helpers"
	storage "schoolerp_backend/internals/helpers/oss"
	middlewares "schoolerp_backend/internals/middlewares"
	"schoolerp_backend/internals/observability"
	routes "schoolerp_backend/internals/route"
	"schoolerp_backend/internals/scheduler"
	"schoolerp_backend/internals/seeds"
)

// 12 MB leaves room for several 5 MB documents in one multipart request.
const bodyLimit = 12 * 1024 * 1024

func main() {
	cfg := configs.LoadEnv()

	lg, err := configs.InitLogger(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer lg.Closer()
	log := lg.Base

	if err := cfg.Validate(); err != nil {
		log.Fatal("[CONFIG] invalid configuration", zap.Error(err))
	}

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv, cfg.Release)
	if err != nil {
		log.Warn("[SENTRY] init failed", zap.Error(err))
	}
	defer flush()

	// DB connect + pool + warm-up
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		log.Fatal("[DB] connect failed", zap.Error(err))
	}
	if err := database.TunePool(db); err != nil {
		log.Fatal("[DB] pool tuning failed", zap.Error(err))
	}
	database.WarmUp(db, log)

	if cfg.DBAutoMigr {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := database.Migrate(ctx, db); err != nil {
			cancel()
			log.Fatal("[DB] migration failed", zap.Error(err))
		}
		cancel()
		log.Info("[DB] migrations applied")
	}
	if cfg.Seed {
		data, err := seeds.Load(cfg.SeedFile)
		if err != nil {
			log.Fatal("[SEED] load failed", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := seeds.Run(ctx, db, data); err != nil {
			cancel()
			log.Fatal("[SEED] failed", zap.Error(err))
		}
		cancel()
	}

	store, err := storage.NewStore(storage.Options{
		Endpoint:      cfg.OSSEndpoint,
		AccessKey:     cfg.OSSAccessKey,
		SecretKey:     cfg.OSSSecretKey,
		SecurityToken: cfg.OSSSecurityToken,
		Bucket:        cfg.OSSBucket,
		PublicBase:    cfg.OSSPublicBase,
		Dir:           cfg.UploadDir,
		BaseURL:       cfg.PublicBaseURL,
	})
	if err != nil {
		log.Fatal("[STORAGE] init failed", zap.Error(err))
	}

	mail := email.NewSender(cfg, log)

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		ProxyHeader:           fiber.HeaderXForwardedFor,
		BodyLimit:             bodyLimit,
		ErrorHandler:          helper.ErrorHandler,
	})
	middlewares.SetupMiddlewares(app, log)

	if _, ok := store.(*storage.LocalStore); ok {
		app.Static("/uploads", cfg.UploadDir)
	}

	deps := routes.BuildDeps(db, cfg, mail, store)
	routes.SetupRoutes(app, deps, cfg)

	// scheduler after DB is ready
	cron, err := scheduler.Start(db)
	if err != nil {
		log.Fatal("[SCHEDULER] start failed", zap.Error(err))
	}

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Info("[HTTP] listening", zap.String("port", cfg.Port))
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			log.Fatal("[HTTP] server error", zap.Error(err))
		}
	}()

	// graceful shutdown + close DB pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("[HTTP] shutting down")

	<-cron.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	database.Close(db)
}
