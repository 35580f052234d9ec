package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/task_manager/internal/blocklist"
	"github.com/Skotchmaster/task_manager/internal/config"
	pkgdb "github.com/Skotchmaster/task_manager/internal/db"
	"github.com/Skotchmaster/task_manager/internal/guard"
	"github.com/Skotchmaster/task_manager/internal/hash"
	"github.com/Skotchmaster/task_manager/internal/httpserver"
	"github.com/Skotchmaster/task_manager/internal/logging"
	"github.com/Skotchmaster/task_manager/internal/mail"
	hostsmw "github.com/Skotchmaster/task_manager/internal/middleware/hosts"
	loggingmw "github.com/Skotchmaster/task_manager/internal/middleware/logging"
	"github.com/Skotchmaster/task_manager/internal/mykafka"
	"github.com/Skotchmaster/task_manager/internal/repo"
	"github.com/Skotchmaster/task_manager/internal/search"
	"github.com/Skotchmaster/task_manager/internal/service"
	"github.com/Skotchmaster/task_manager/internal/tokens"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := pkgdb.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	redisClient, err := blocklist.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	store, err := blocklist.NewRedisStore(redisClient, "jti", cfg.BlocklistTTL, cfg.MaxTokenLifetime())
	if err != nil {
		log.Fatalf("blocklist: %v", err)
	}

	codec, err := tokens.NewCodec(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	hasher, err := hash.NewHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var events mykafka.Publisher = mykafka.Nop{}
	var queue mail.Queue = &mail.DirectQueue{Sender: mail.NewSMTPSender(cfg.Mail)}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		events = prod
		queue = &mail.KafkaQueue{Publisher: prod}
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty, mail is sent in-process")
	}

	ready := map[string]httpserver.Check{
		"db":    func(ctx context.Context) error { return pkgdb.Ping(ctx, db) },
		"redis": store.Ping,
	}

	var index search.Index = search.Nop{}
	if cfg.ESURL != "" {
		esClient, err := search.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		esIndex := search.NewESIndex(esClient, cfg.ESIndex)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := esIndex.EnsureIndex(ctx); err != nil {
			logger.Warn("search_index_unavailable", "error", err)
		}
		cancel()
		index = esIndex
		ready["elasticsearch"] = esIndex.Ping
	}

	rp := repo.New(db)
	jobs := &service.Background{}
	authSvc := &service.AuthService{
		Repo:       rp,
		Codec:      codec,
		Blocklist:  store,
		Mail:       queue,
		Events:     events,
		Jobs:       jobs,
		Hasher:     hasher,
		Domain:     cfg.Domain,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		EmailTTL:   cfg.EmailTokenTTL,
	}
	taskSvc := &service.TaskService{Repo: rp, Search: index, Events: events, Jobs: jobs}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(hostsmw.TrustedHosts(cfg.AllowedHosts))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: authSvc},
		TaskHandler: &httpserver.TaskHTTP{Svc: taskSvc},
		Guard:       guard.NewTokenGuard(codec, store),
		Users:       rp,
		Ready:       ready,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	jobs.Wait()
	closeAll(logger, db, redisClient.Close, events.Close)

	logger.Info("server_stopped")
}

func closeAll(logger *slog.Logger, db *gorm.DB, closers ...func() error) {
	if err := pkgdb.Close(db); err != nil {
		logger.Error("close_failed", "resource", "db", "error", err)
	}
	for _, c := range closers {
		if err := c(); err != nil {
			logger.Error("close_failed", "error", err)
		}
	}
}
