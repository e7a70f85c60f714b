package main

import (
	"context"
	golog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog-site/backend"
	"catalog-site/config"
	"catalog-site/console"
	"catalog-site/database"
	"catalog-site/form"
	"catalog-site/handlers"
	"catalog-site/refresh"
	"catalog-site/store"
	"catalog-site/table"
	"catalog-site/users"
	"catalog-site/writelog"
)

func main() {

	if err := config.Load(); err != nil {
		golog.Fatalf("failed to load .env: %v", err)
	}
	initLogger()

	log.Infof("GitSHA: %s", config.GetGitSHA())
	log.Infof("BuildDate: %s", config.GetBuildDate())

	backend.Init(log)
	table.Init(log)
	form.Init(log)
	refresh.Init(log)
	writelog.Init(log)

	gormLogger := logger.New(
		golog.New(os.Stdout, "\r\n", golog.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,        // Don't include params in the SQL log
			Colorful:                  false,       // Disable color
		},
	)

	// Create data and config dirs
	for _, dir := range []string{config.GetDataDir(), config.GetConfigDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			log.Panicf("failed to create dir %s", dir)
		}
	}

	// Initialize database
	dbPath := filepath.Join(config.GetConfigDir(), "catalog.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Panicf("failed to connect to database %s", dbPath)
	}

	// set only a single connection so we don't actually have concurrent writes
	sqlDB, err := db.DB()
	if err != nil {
		log.Panicln("failed to retrieve database")
	}
	sqlDB.SetMaxOpenConns(1)

	// Migrate the schema
	if err := db.AutoMigrate(&users.User{}, &writelog.WriteFailure{}); err != nil {
		log.Panicf("failed to migrate database: %v", err)
	}

	database.Init(db, log)
	defer database.Fini()

	// create a user
	if err := users.EnsureAdmin(db, config.GetAdminInitialPassword); err != nil {
		log.Panicf("failed to create admin user: %v", err)
	}

	// catalog backend and the sessions that read from it
	_, writer := store.New()
	client := backend.New(config.GetBackendURL(), writer,
		backend.WithTimeout(config.GetRequestTimeout()),
		backend.WithRateLimit(config.GetBackendRateLimit()),
	)
	refresher := refresh.New(client)
	registry := console.NewRegistry(client, refresher)

	if err := handlers.Init(log, client, registry, refresher); err != nil {
		log.Panicf("failed to initialize handlers: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := refresher.Refresh(ctx); err != nil {
		log.Warnf("initial catalog load from %s failed: %v", client.BaseURL(), err)
	}

	go PeriodicCleanup(ctx)
	go refreshWorker(ctx, refresher)

	// Initialize Echo
	e := echo.New()

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Routes
	handlers.Register(e)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Errorln(err)
		}
	}()

	// Start server
	if err := e.Start(config.GetListenAddr()); err != nil && ctx.Err() == nil {
		e.Logger.Fatal(err)
	}
}
