package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/theleywin/Backend-Pitch-Review/src/config"
	"github.com/theleywin/Backend-Pitch-Review/src/controllers"
	"github.com/theleywin/Backend-Pitch-Review/src/lib"
	"github.com/theleywin/Backend-Pitch-Review/src/middleware"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"github.com/theleywin/Backend-Pitch-Review/src/push"
	"github.com/theleywin/Backend-Pitch-Review/src/resolvers"
	"github.com/theleywin/Backend-Pitch-Review/src/routes"
	"github.com/theleywin/Backend-Pitch-Review/src/services"
	"github.com/theleywin/Backend-Pitch-Review/src/store"
	"github.com/theleywin/Backend-Pitch-Review/src/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const heartbeatInterval = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the push gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tmpl, err := loadTemplates(cfg)
	if err != nil {
		return err
	}

	client, db, err := lib.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())
	logger.Info("connected to mongo", zap.String("database", cfg.MongoDatabase))

	if err := store.EnsureIndexes(ctx, db, cfg.NotificationRetention); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	notifications := store.NewNotificationStore(db, cfg.NotificationListLimit, logger.Named("store"))
	connections := store.NewConnectionStore(db)
	devices := store.NewDeviceStore(db)
	users := resolvers.NewUserDirectory(db)
	pitches := resolvers.NewPitchRepository(db)
	reviews := resolvers.NewPitchReviewRepository(db)

	registry := resolvers.NewRegistry()
	registry.Register(models.ReferenceModelPitch, pitches)
	registry.Register(models.ReferenceModelPitchReview, reviews)
	registry.Register(models.ReferenceModelUserConnection, resolvers.NewConnectionResolver(connections))

	hub := push.NewHub(logger.Named("hub"))
	go hub.Heartbeat(ctx, heartbeatInterval)

	var transport push.Transport = push.NewLocalTransport(hub)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := push.NewRelay(rdb, cfg.RedisChannel, hub, logger.Named("relay")).Start(ctx); err != nil {
			return err
		}
		transport = push.NewRedisTransport(rdb, cfg.RedisChannel)
	}

	dispatcher := push.NewDispatcher(users, devices, transport, cfg.PushWorkers, logger.Named("push"))
	pusher := push.NewAsync(dispatcher, cfg.PushTimeout, logger.Named("push"))
	defer pusher.Wait()

	engine := services.NewEngine(services.Deps{
		Notifications: notifications,
		Connections:   connections,
		Users:         users,
		Pitches:       pitches,
		References:    registry,
		Templates:     tmpl,
		Pusher:        pusher,
		Logger:        logger.Named("engine"),
	})

	app := routes.NewApp(logger.Named("http"), cfg.CORSOrigins)
	routes.Register(app, routes.Handlers{
		Protect:       middleware.ProtectRoute(users, cfg.JWTSecret),
		Connections:   controllers.NewConnectionController(engine),
		Users:         controllers.NewUserController(engine),
		Pitches:       controllers.NewPitchController(engine),
		Notifications: controllers.NewNotificationController(engine, users),
		Devices:       controllers.NewDeviceController(devices),
		Health: controllers.NewHealthController(func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}),
	})

	verify := func(token string) (primitive.ObjectID, error) {
		return lib.UserIDFromToken(token, cfg.JWTSecret)
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", push.NewGateway(hub, devices, verify, cfg.AllowedOrigins(), logger.Named("gateway")))
	gateway := &http.Server{
		Addr:              cfg.PushAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info("push gateway listening", zap.String("addr", cfg.PushAddr))
		if err := gateway.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("push gateway: %w", err)
		}
	}()
	go func() {
		logger.Info("server is running", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-errc:
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := app.ShutdownWithContext(shutdownCtx); serr != nil {
		logger.Warn("http shutdown", zap.Error(serr))
	}
	if serr := gateway.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("push gateway shutdown", zap.Error(serr))
	}
	return err
}

func loadTemplates(cfg *config.Config) (*templates.Resolver, error) {
	if cfg.TemplatesPath != "" {
		return templates.LoadFile(cfg.TemplatesPath, cfg.DefaultLocale)
	}
	return templates.LoadDefault(cfg.DefaultLocale)
}
