package main

import (
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"datacheck/adapters/api"
	"datacheck/adapters/postgres"
	"datacheck/internal"
	"datacheck/internal/config"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Server.LogLevel))

	// The database is optional; without it only upload validation is served
	var db *sqlx.DB
	if cfg.Database.Enabled() {
		db, err = postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		logger.Info("database connected, query validation enabled")
	} else {
		logger.Info("no DATABASE_URL configured, query validation disabled")
	}

	server := api.NewServer(cfg.Engine, db, logger)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("starting datacheck server on %s", cfg.Server.Addr())
	log.Fatal(httpServer.ListenAndServe())
}
