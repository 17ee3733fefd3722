package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/roomlog/internal/config"
	"github.com/BrandonDHaskell/roomlog/internal/db"
	"github.com/BrandonDHaskell/roomlog/internal/httpapi"
	"github.com/BrandonDHaskell/roomlog/internal/kioskrpc"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/roster"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store/jsonfile"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store/memory"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/store/sqlite"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "roomlog-server").Logger()

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("roomlog-server stopped")
	}
}

func run(logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)
	if cfg.Env == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	pattern, err := cfg.CardRegexp()
	if err != nil {
		return err
	}

	ledger := service.NewLedger(service.LedgerOptions{
		Store:    docs,
		Resolver: service.NewResolver(pattern),
		Engine:   service.NewSignEngine(service.ParseScope(cfg.SequenceScope)),
		Location: loc,
		Logger:   logger,
	})
	if err := ledger.Load(ctx); err != nil {
		return fmt.Errorf("load room log: %w", err)
	}

	if cfg.Env == "dev" && len(ledger.People()) == 0 {
		for _, name := range cfg.DefaultPeople {
			if err := ledger.AddPerson(ctx, name); err != nil {
				return fmt.Errorf("seed people: %w", err)
			}
		}
		logger.Info().Strs("people", cfg.DefaultPeople).Msg("seeded dev people")
	}

	if cfg.RosterFile != "" {
		ro, err := roster.LoadFile(cfg.RosterFile)
		if err != nil {
			return err
		}
		res, err := roster.Apply(ctx, ledger, ro, logger)
		if err != nil {
			return fmt.Errorf("apply roster: %w", err)
		}
		logger.Info().
			Int("people", res.People).
			Int("linked", res.Linked).
			Int("skipped", res.Skipped).
			Str("file", cfg.RosterFile).
			Msg("roster applied")
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger: logger,
		Addr:   cfg.HTTPAddr,
		Ledger: ledger,
	})

	errs := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.Storage).Msg("listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()

	// kioskDone is closed once GracefulStop has drained in-flight RPCs, so
	// the store is never closed under a running Scan.
	kioskDone := make(chan struct{})
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
		}
		kiosk := kioskrpc.NewServer(ledger, logger)
		go func() {
			defer close(kioskDone)
			if err := kiosk.Serve(ctx, lis); err != nil {
				errs <- err
			}
		}()
	} else {
		close(kioskDone)
	}

	select {
	case <-ctx.Done():
	case err := <-errs:
		logger.Error().Err(err).Msg("server error")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)

	select {
	case <-kioskDone:
	case <-shutdownCtx.Done():
		logger.Warn().Msg("kiosk gRPC did not drain before shutdown deadline")
	}
	return shutdownErr
}

// openStore builds the configured document store and a func releasing it.
func openStore(ctx context.Context, cfg config.Config) (store.DocumentStore, func(), error) {
	switch cfg.Storage {
	case "memory":
		return memory.New(), func() {}, nil
	case "json":
		return jsonfile.New(cfg.DataDir), func() {}, nil
	default:
		conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
		if err != nil {
			return nil, nil, err
		}
		writer := db.NewWorker(conn)
		return sqlite.NewDocumentStore(conn, writer), func() {
			writer.Close()
			_ = conn.Close()
		}, nil
	}
}
