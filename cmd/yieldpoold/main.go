package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yieldpool/config"
	"yieldpool/native/staking"
	"yieldpool/observability/logging"
	"yieldpool/state"
	"yieldpool/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the pool configuration file")
	env := flag.String("env", "", "deployment environment label attached to log lines")
	flag.Parse()

	logger := logging.Setup("yieldpoold", *env)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	moduleAddr, err := cfg.ModuleAddressBytes()
	if err != nil {
		logger.Error("parse module address", "err", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("open ledger database", "dir", cfg.DataDir, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	engine := staking.NewEngine(moduleAddr)
	engine.SetState(state.NewManager(db))
	if err := engine.SetParams(cfg.Params()); err != nil {
		logger.Error("apply pool params", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.MetricsAddress, Handler: mux}

	go func() {
		logger.Info("serving metrics", "addr", cfg.MetricsAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
		}
	}()

	logger.Info("pool ledger ready", "data_dir", cfg.DataDir,
		"annual_rate_scaled", cfg.AnnualRateScaled,
		"wait_duration_seconds", cfg.WaitDurationSeconds)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown metrics server", "err", err)
	}
	logger.Info("shutdown complete")
}
