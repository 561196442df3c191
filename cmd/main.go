package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/latoulicious/perso-wars/internal/config"
	"github.com/latoulicious/perso-wars/internal/version"
	"github.com/latoulicious/perso-wars/pkg/common"
	"github.com/latoulicious/perso-wars/pkg/database"
	"github.com/latoulicious/perso-wars/pkg/database/migration"
	"github.com/latoulicious/perso-wars/pkg/database/repository"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/service"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/latoulicious/perso-wars/pkg/logging"
	"github.com/latoulicious/perso-wars/pkg/notifier"
	"github.com/latoulicious/perso-wars/pkg/scheduler"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	if err := initializeApplication(); err != nil {
		log.Fatalf("Application initialization failed: %v", err)
	}
}

// initializeApplication wires the engine and blocks until a termination signal
func initializeApplication() error {
	// .env is read by the config manager
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewGormDBFromConfig(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	dbManager := database.NewDatabaseManager(db)
	defer dbManager.Close()

	if err := migration.RunMigration(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	loggers := initializeCentralizedLogging(cfg, db)
	systemLogger := loggers.CreateLogger("system")

	loc, err := cfg.Game.Location()
	if err != nil {
		return fmt.Errorf("failed to resolve timezone: %w", err)
	}

	locker, stopLocker, err := initializeTradeLocker(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize trade locker: %w", err)
	}
	defer stopLocker()

	svc := gacha.NewService(db, locker, shared.SystemClock{Location: loc}, gacha.Defaults{
		ClaimInterval: cfg.Game.ClaimInterval,
		TimeToClaim:   cfg.Game.TimeToClaim,
		RollsPerHour:  cfg.Game.RollsPerHour,
		MaxWish:       cfg.Game.MaxWish,
		TradeTimeout:  cfg.Game.TradeTimeout(),
	}, loggers)

	publisher, err := initializePublisher(cfg, loggers)
	if err != nil {
		return fmt.Errorf("failed to initialize publisher: %w", err)
	}

	engine := service.NewEngine(svc, publisher)

	var digestJob *scheduler.DigestJob
	if cfg.Digest.Enabled {
		digestJob, err = scheduler.NewDigestJob(engine.Digest, cfg.Digest.Schedule, cfg.Digest.DigestWindow(), loc, loggers.CreateLogger("digest"))
		if err != nil {
			return fmt.Errorf("failed to schedule digest: %w", err)
		}
		digestJob.Start()
	}

	healthServer := startHealthCheckServer(cfg.Health.Addr, dbManager, repository.NewLogRepository(db), engine)

	systemLogger.Info("Engine is running", map[string]interface{}{
		"version":        version.Get().Short(),
		"database":       cfg.Database.Driver,
		"redis_locks":    cfg.Redis.Enabled,
		"digest_enabled": cfg.Digest.Enabled,
		"health_addr":    cfg.Health.Addr,
	})

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	systemLogger.Info("Shutting down gracefully", nil)

	shutdownHealthServer(healthServer)
	if digestJob != nil {
		digestJob.Stop()
	}

	systemLogger.Info("Application shutdown complete", map[string]interface{}{
		"open_claim_windows": engine.Claims.OpenWindows(),
	})
	return nil
}

// initializeCentralizedLogging sets up the global logger factory, persisting
// entries to engine_logs when configured
func initializeCentralizedLogging(cfg *config.Config, db *gorm.DB) logging.LoggerFactory {
	var factory logging.LoggerFactory
	if cfg.Logger.SaveToDB {
		logRepo := gacha.NewLogRepositoryAdapter(repository.NewLogRepository(db))
		factory = logging.NewDatabaseLoggerFactory(cfg.Logger.Level, logRepo)
	} else {
		factory = logging.NewLoggerFactory(cfg.Logger.Level)
	}
	logging.SetGlobalLoggerFactory(factory)

	factory.CreateLogger("system").Info("Centralized logging system initialized", map[string]interface{}{
		"level":      cfg.Logger.Level,
		"save_to_db": cfg.Logger.SaveToDB,
	})
	return factory
}

// initializeTradeLocker picks Redis when several engine processes share a
// database, the in-process registry otherwise
func initializeTradeLocker(cfg *config.Config) (common.Locker, func(), error) {
	if !cfg.Redis.Enabled {
		locker := common.NewMemoryLocker()
		return locker, locker.StartCleanup(time.Minute), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	return common.NewRedisLocker(client, "perso"), func() { client.Close() }, nil
}

// initializePublisher sends digests through Discord when a token is set and
// to the log otherwise
func initializePublisher(cfg *config.Config, loggers logging.LoggerFactory) (gacha.Publisher, error) {
	logger := loggers.CreateLogger("notifier")
	if cfg.Discord.Token == "" {
		logger.Warn("No Discord token configured, digests will only be logged", nil)
		return notifier.NewLogPublisher(logger), nil
	}

	// only the REST client is used, no gateway connection is opened
	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.UserAgent = version.UserAgent()
	return notifier.NewDiscordPublisher(dg, logger), nil
}

// SystemHealth is the body of the /health endpoint
type SystemHealth struct {
	StartTime time.Time `json:"start_time"`
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Database  bool      `json:"database_connected"`
}

// startHealthCheckServer starts the HTTP server for health checks
func startHealthCheckServer(addr string, dbManager *database.DatabaseManager, logRepo *repository.LogRepository, engine *service.Engine) *http.Server {
	startTime := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health := SystemHealth{
			StartTime: startTime,
			Uptime:    time.Since(startTime).String(),
			Database:  dbManager.Ping(r.Context(), 2*time.Second) == nil,
		}

		status := http.StatusOK
		health.Status = "healthy"
		if !health.Database {
			status = http.StatusServiceUnavailable
			health.Status = "unhealthy"
		}
		writeJSON(w, status, health)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		stats, err := dbManager.GetStats(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"application":        version.Name,
			"version":            version.Get(),
			"uptime":             time.Since(startTime).String(),
			"start_time":         startTime.Format(time.RFC3339),
			"open_claim_windows": engine.Claims.OpenWindows(),
			"database":           stats,
		})
	})

	// /logs?component=claims&server=123&limit=50 lists persisted entries
	mux.HandleFunc("/logs", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		component := query.Get("component")
		if component == "" {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "component is required"})
			return
		}
		limit, err := strconv.Atoi(query.Get("limit"))
		if err != nil || limit <= 0 || limit > 500 {
			limit = 50
		}

		logs, err := logRepo.GetLogsByComponent(r.Context(), component, query.Get("server"), limit)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, logs)
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("Starting health check server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Health check server error: %v", err)
		}
	}()

	return server
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// shutdownHealthServer gracefully shuts down the health check server
func shutdownHealthServer(server *http.Server) {
	if server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Health server shutdown error: %v", err)
	} else {
		log.Println("Health check server shutdown complete")
	}
}
