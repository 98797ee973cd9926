package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/database"
	"github.com/Ramsey-B/clover/internal/handlers"
	"github.com/Ramsey-B/clover/internal/logger"
	"github.com/Ramsey-B/clover/internal/middleware"
	listingrepo "github.com/Ramsey-B/clover/internal/repositories/listing"
	matchrepo "github.com/Ramsey-B/clover/internal/repositories/match"
	searchrequestrepo "github.com/Ramsey-B/clover/internal/repositories/searchrequest"
	"github.com/Ramsey-B/clover/internal/startup"
	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/regions"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := tracing.Init(ctx, cfg.AppName, tracing.OTLPConfig{
			Endpoint: cfg.TracingOTLPEndpoint,
			Protocol: cfg.TracingOTLPProtocol,
			Insecure: cfg.TracingOTLPInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize tracing")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	app := &application{cfg: cfg, logger: log}

	boot := startup.New(log, cfg.StartupMaxAttempts)
	boot.AddDependency(&postgresDependency{app: app})
	boot.AddDependency(&kafkaDependency{app: app})
	boot.AddDependency(&serverDependency{app: app})

	if err := boot.Start(ctx); err != nil {
		log.WithError(err).Fatal("Startup failed")
	}

	<-ctx.Done()
	log.Info("Shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := boot.Stop(stopCtx); err != nil {
		log.WithError(err).Error("Shutdown finished with errors")
	}
}

// application holds the wired components shared across startup dependencies
type application struct {
	cfg    *config.Config
	logger ectologger.Logger

	db       *database.DatabaseInstance
	producer *kafka.Producer
	emitter  *events.Emitter
	server   *echo.Echo
	health   *handlers.HealthHandler
}

type postgresDependency struct {
	app *application
}

func (d *postgresDependency) GetName() string     { return "postgres" }
func (d *postgresDependency) DependsOn() []string { return nil }

func (d *postgresDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg

	db, err := database.Connect(ctx, database.ConnectConfig{
		Host:            cfg.DatabaseHost,
		Port:            cfg.DatabasePort,
		User:            cfg.DatabaseUserName,
		Password:        cfg.DatabasePassword,
		Name:            cfg.DatabaseName,
		SSLMode:         cfg.DatabaseSSLMode,
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
	}, d.app.logger)
	if err != nil {
		return err
	}
	d.app.db = db

	driver, err := migratepg.WithInstance(db.DB.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	migrations := database.NewMigrationService(d.app.logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
	})

	return migrations.Migrate(cfg.DatabaseName, driver)
}

func (d *postgresDependency) Stop(ctx context.Context) error {
	if d.app.db == nil {
		return nil
	}
	return d.app.db.Close()
}

type kafkaDependency struct {
	app *application
}

func (d *kafkaDependency) GetName() string     { return "kafka" }
func (d *kafkaDependency) DependsOn() []string { return nil }

func (d *kafkaDependency) Start(ctx context.Context) error {
	cfg := d.app.cfg
	if !cfg.KafkaEnabled {
		d.app.logger.Info("Kafka producer disabled, match events will not be emitted")
		return nil
	}

	d.app.producer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, d.app.logger)
	d.app.emitter = events.NewEmitter(d.app.producer, d.app.logger)

	return nil
}

func (d *kafkaDependency) Stop(ctx context.Context) error {
	if d.app.producer == nil {
		return nil
	}
	return d.app.producer.Close()
}

type serverDependency struct {
	app *application
}

func (d *serverDependency) GetName() string     { return "http-server" }
func (d *serverDependency) DependsOn() []string { return []string{"postgres", "kafka"} }

func (d *serverDependency) Start(ctx context.Context) error {
	app := d.app
	cfg := app.cfg

	classifier, err := regions.Load(cfg.RegionTablePath)
	if err != nil {
		return err
	}

	listings := listingrepo.NewRepository(app.db, app.logger)
	requests := searchrequestrepo.NewRepository(app.db, app.logger)
	matches := matchrepo.NewRepository(app.db, app.logger)

	scorer := matching.NewScorer(classifier, matching.DefaultWeights())

	var emitter matching.SuggestionEmitter
	if app.emitter != nil {
		emitter = app.emitter
	}
	engine := matching.NewEngine(app.logger, listings, requests, matches, emitter, scorer, matching.Config{
		AcceptanceThreshold: cfg.MatchAcceptanceThreshold,
		DefaultLimit:        cfg.MatchDefaultLimit,
		MaxLimit:            cfg.MatchMaxLimit,
		ScoreWorkers:        cfg.MatchScoreWorkers,
	})

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(app.logger)
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(app.logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	app.health = handlers.NewHealthHandler(app.db, "1.0.0")
	app.health.RegisterRoutes(e)

	api := e.Group("/api/v1")
	handlers.NewListingHandler(listings, engine).RegisterRoutes(api)
	handlers.NewSearchRequestHandler(requests, engine).RegisterRoutes(api)
	handlers.NewMatchHandler(matches, app.emitter).RegisterRoutes(api)

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	app.server = e
	app.health.SetReady(true)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			app.logger.WithError(err).Fatal("HTTP server stopped unexpectedly")
		}
	}()

	return nil
}

func (d *serverDependency) Stop(ctx context.Context) error {
	if d.app.server == nil {
		return nil
	}
	if d.app.health != nil {
		d.app.health.SetReady(false)
	}
	return d.app.server.Shutdown(ctx)
}
