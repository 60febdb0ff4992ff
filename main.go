package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pokedex-companion/pokedexservice/pkg/config"
	"github.com/pokedex-companion/pokedexservice/pkg/httpapi"
	"github.com/pokedex-companion/pokedexservice/pkg/model"
	"github.com/pokedex-companion/pokedexservice/pkg/repo"
	"github.com/pokedex-companion/pokedexservice/pkg/service"
	"github.com/pokedex-companion/pokedexservice/pkg/worker"

	redisotel "github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Warnf("unknown LOG_LEVEL %q, keeping %s", cfg.LogLevel, log.GetLevel())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	if cfg.EnableTracing {
		tp, err := initTracing(ctx, cfg)
		if err != nil {
			log.Warnf("warn: failed to start tracer: %+v", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					log.Errorf("Error shutting down tracer provider: %v", err)
				}
			}()
		}

		mp, err := initMetrics(ctx, cfg)
		if err != nil {
			log.Warnf("warn: failed to start metric provider: %+v", err)
		} else {
			defer func() {
				if err := mp.Shutdown(context.Background()); err != nil {
					log.Errorf("Error shutting down metric provider: %v", err)
				}
			}()
		}
	}

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))

	if cfg.IsProduction() {
		log.Info("La aplicación está corriendo en entorno de producción.")
	} else {
		log.Info("La aplicación está corriendo en entorno de desarrollo.")
	}

	srv, grpcSrv := run(ctx, cfg, &wg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	log.Info("Gracefully shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("http shutdown: %v", err)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	cancel()
	wg.Wait()
}

func run(ctx context.Context, cfg *config.Config, wg *sync.WaitGroup) (*http.Server, *grpc.Server) {
	db := initDB(cfg)
	rdb := initRedis(cfg)

	users := repo.NewUserRepository(db)
	lists := repo.NewListRepository(db)
	history := repo.NewHistoryRepository(db)
	favorites := repo.NewFavoriteRepository(db)

	var limiter httpapi.Limiter
	if rdb != nil {
		favorites = repo.NewCachedFavoriteRepo(favorites, rdb, log)
		limiter = httpapi.NewRedisLimiter(rdb)
	} else {
		limiter = httpapi.NewLocalLimiter(log)
	}

	trims := worker.NewHistoryTrimWorker(service.NewHistoryRetention(history, log), log, cfg.TrimWorkers, cfg.TrimQueueSize)
	trims.Start(ctx, wg)

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	api := httpapi.NewServer(httpapi.Deps{
		Log:         log,
		Auth:        service.NewAuthService(users, tokens, cfg.BcryptCost, log),
		Tokens:      tokens,
		Favorites:   service.NewFavoritesService(favorites, log),
		Lists:       service.NewListsService(lists, log),
		History:     service.NewHistoryService(history, trims, log),
		Limiter:     limiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("starting http server at :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	var grpcSrv *grpc.Server
	if cfg.GRPCHealthPort != "" {
		grpcSrv = runHealth(cfg.GRPCHealthPort)
	}
	return srv, grpcSrv
}

// runHealth serves the standard grpc health protocol for orchestrators that
// probe over grpc.
func runHealth(port string) *grpc.Server {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		log.Fatal(err)
	}
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hsrv := health.NewServer()
	hsrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hsrv)
	reflection.Register(srv)

	log.Infof("starting grpc health server at :%s", port)
	go srv.Serve(listener)
	return srv
}

func initDB(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseURL)
	default:
		dialector = mysql.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", cfg.DBDriver, err)
	}
	log.Infof("connected to %s", cfg.DBDriver)

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	// spans for every sql statement
	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		log.Fatalf("failed to initialize otelgorm plugin: %v", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(model.Tables()...); err != nil {
			log.Fatalf("failed to migrate schema: %v", err)
		}
		log.Info("schema migrated")
	}
	return db
}

// initRedis returns nil when redis is not configured or never became
// reachable; callers then run without the cache and with in-process limits.
func initRedis(cfg *config.Config) *redis.Client {
	var rdb *redis.Client

	switch {
	case len(cfg.RedisSentinelAddrs) > 0:
		log.Infof("Initializing Redis in Sentinel Mode. Sentinels: %v", cfg.RedisSentinelAddrs)
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.RedisMasterName,
			SentinelAddrs: cfg.RedisSentinelAddrs,
			DB:            cfg.RedisDB,
		})
	case cfg.RedisAddr != "":
		log.Infof("Initializing Redis in Single Node Mode. Addr: %s", cfg.RedisAddr)
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
	default:
		log.Info("redis not configured, favorites cache disabled and rate limits kept in process")
		return nil
	}

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		panic(err)
	}

	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()

		if err == nil {
			log.Info("connected to redis")
			return rdb
		}

		if i == maxRetries-1 {
			log.Warnf("failed to connect to redis after %d retries: %v, running without it", maxRetries, err)
			_ = rdb.Close()
			return nil
		}

		backoff := time.Duration(1<<i) * time.Second
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
		log.Warnf("redis not ready, retry in %v... (%d/%d)", backoff, i+1, maxRetries)
		time.Sleep(backoff)
	}
	return nil
}
