package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hylin716/go-bank-ledger/internal/app/bank/adapter/in/httpapi"
	memory_adapter "github.com/hylin716/go-bank-ledger/internal/app/bank/adapter/out/memory"
	mysql_adapter "github.com/hylin716/go-bank-ledger/internal/app/bank/adapter/out/mysql"
	"github.com/hylin716/go-bank-ledger/internal/app/bank/usecase"
	"github.com/hylin716/go-bank-ledger/pkg/logger"
	"github.com/hylin716/go-bank-ledger/pkg/mysql"
	"github.com/hylin716/go-bank-ledger/pkg/wal"
)

// Config is the service configuration, read from a yaml file at startup.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	// Store selects the persistence backend: "mysql" or "memory".
	Store string `yaml:"store"`
	// WALPath enables the journal for the memory backend; empty disables it.
	WALPath  string       `yaml:"wal_path"`
	LogLevel string       `yaml:"log_level"`
	MySQL    mysql.Config `yaml:"mysql"`
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg := loadConfig(*configPath)
	log := logger.New(cfg.LogLevel)

	var store usecase.BankStore
	switch cfg.Store {
	case "mysql":
		client, err := mysql.NewClient(cfg.MySQL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to mysql")
		}
		defer client.Close()

		sqlStore := mysql_adapter.NewStore(client.DB())
		if err := sqlStore.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("migrate ledger tables")
		}
		store = sqlStore
		log.Info().Msg("using mysql store")

	case "memory":
		var journal *wal.WAL
		if cfg.WALPath != "" {
			var err error
			journal, err = wal.NewWAL(cfg.WALPath)
			if err != nil {
				log.Fatal().Err(err).Str("path", cfg.WALPath).Msg("open wal")
			}
			defer journal.Close()
		}
		memStore, err := memory_adapter.NewStore(journal)
		if err != nil {
			log.Fatal().Err(err).Msg("recover memory store")
		}
		store = memStore
		log.Info().Str("wal", cfg.WALPath).Msg("using memory store")

	default:
		log.Fatal().Str("store", cfg.Store).Msg("unknown store backend")
	}

	bank := usecase.NewBank(store, log)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: httpapi.NewHandler(bank, log),
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("server exited")
}

func loadConfig(path string) Config {
	var cfg Config

	cfgData, err := os.ReadFile(path)
	if err != nil {
		stdlog.Fatalf("Failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		stdlog.Fatalf("Failed to parse config: %v", err)
	}

	// Fill defaults the yaml may omit.
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Store == "" {
		cfg.Store = "memory"
	}
	if cfg.MySQL.MaxOpenConns == 0 {
		cfg.MySQL.MaxOpenConns = 100
	}
	if cfg.MySQL.MaxIdleConns == 0 {
		cfg.MySQL.MaxIdleConns = 10
	}
	if cfg.MySQL.ConnMaxLifetime == 0 {
		cfg.MySQL.ConnMaxLifetime = 30 * time.Minute
	}
	return cfg
}
