package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goktugarikci/galeryBlog-sub000/configs"
	"github.com/goktugarikci/galeryBlog-sub000/events"
	"github.com/goktugarikci/galeryBlog-sub000/repository"
	"github.com/goktugarikci/galeryBlog-sub000/routes"
	"github.com/goktugarikci/galeryBlog-sub000/services"
	"github.com/goktugarikci/galeryBlog-sub000/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		panic(err)
	}
	log, err := configs.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := configs.ConnectDB(cfg.DBSource, !cfg.IsDevelopment())
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}

	// Realtime fan-out: local registry, optionally relayed through redis
	registry := ws.NewRegistry(log.Named("registry"))
	var out services.Broadcaster = registry
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("redis", zap.Error(err))
		}
		relay := ws.NewRedisRelay(rdb, cfg.RedisChannel, registry, log.Named("relay"))
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("relay stopped", zap.Error(err))
			}
		}()
		out = relay
	}

	// Services
	chatSvc := services.NewChatService(repository.NewChatRepository(db), out, log.Named("chat"))
	notifier := services.NewAdminNotifier(out, log.Named("notify"))
	contactSvc := services.NewContactService(repository.NewContactRepository(db), notifier)

	hub := ws.NewChatHub(registry, chatSvc, log.Named("ws"), ws.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		MaxMessageSize:   cfg.WSMaxMessageSize,
		SendBuffer:       cfg.WSSendBuffer,
		RateLimit:        cfg.WSRateLimit,
		RateBurst:        cfg.WSRateBurst,
		StrictValidation: cfg.ChatStrictValidate,
		AdminAuth:        cfg.WSAdminAuth,
		VerifyUserID:     cfg.WSVerifyUserID,
	})

	if len(cfg.KafkaBrokers) > 0 {
		consumer := events.NewOrderConsumer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, cfg.KafkaGroupID, notifier, log.Named("orders"))
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("order consumer stopped", zap.Error(err))
			}
		}()
	}

	// HTTP
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{
		Chat:           chatSvc,
		Contact:        contactSvc,
		Hub:            hub,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if err := hub.Shutdown(cfg.ShutdownTimeout); err != nil {
		log.Warn("websocket shutdown", zap.Error(err))
	}
	notifier.Wait()
}
