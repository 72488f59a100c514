package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MetalBlockchain/metalgo/database"
	"github.com/MetalBlockchain/metalgo/database/leveldb"
	"github.com/MetalBlockchain/metalgo/database/memdb"
	"github.com/MetalBlockchain/metalgo/utils/logging"
	"github.com/MetalBlockchain/metalgo/utils/ulimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MetalBlockchain/accountlib/chain/config"
	"github.com/MetalBlockchain/accountlib/chain/constants"
	"github.com/MetalBlockchain/accountlib/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	version, err := PrintVersion()
	if err != nil {
		fmt.Printf("couldn't get config: %s", err)
		os.Exit(1)
	}
	if version {
		fmt.Println(constants.Version)
		os.Exit(0)
	}
	if err := ulimit.Set(ulimit.DefaultFDLimit, logging.NoLog{}); err != nil {
		fmt.Printf("failed to set fd limit correctly due to: %s", err)
		os.Exit(1)
	}

	v, err := getViper()
	if err != nil {
		fmt.Printf("couldn't get config: %s", err)
		os.Exit(1)
	}
	cfg, err := getConfig(v)
	if err != nil {
		fmt.Printf("couldn't get config: %s", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := run(ctx, v, cfg); err != nil {
		fmt.Printf("accountlib failed: %s", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, v *viper.Viper, cfg *config.Config) error {
	level, err := logging.ToLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logging.NewLogger(
		constants.ServiceName,
		logging.NewWrappedCore(level, os.Stdout, logging.Colors.ConsoleEncoder()),
	)
	registry := prometheus.NewRegistry()

	db, err := openDB(v.GetString(dataDirKey), log, registry)
	if err != nil {
		return fmt.Errorf("couldn't open database: %w", err)
	}

	s, err := server.New(log, db, cfg, registry)
	if err != nil {
		return err
	}
	handlers, err := s.CreateHandlers(ctx)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	for path, handler := range handlers {
		mux.Handle(path, handler)
	}
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:              cfg.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		log.Info("serving accountlib",
			zap.String("address", cfg.Address()),
			zap.String("version", constants.Version),
		)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err = <-errs:
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = httpServer.Shutdown(shutdownCtx)
	}
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return errors.Join(err, s.Shutdown(context.Background()))
}

func openDB(dir string, log logging.Logger, registerer prometheus.Registerer) (database.Database, error) {
	if dir == "" {
		return memdb.New(), nil
	}
	return leveldb.New(dir, nil, log, registerer)
}
