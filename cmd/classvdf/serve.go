package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/korthochain/classvdf/pkg/classgroup"
	"github.com/korthochain/classvdf/pkg/clock"
	"github.com/korthochain/classvdf/pkg/config"
	"github.com/korthochain/classvdf/pkg/hashtogroup"
	"github.com/korthochain/classvdf/pkg/logger"
	"github.com/korthochain/classvdf/pkg/server"
	"github.com/korthochain/classvdf/pkg/session"
	"github.com/korthochain/classvdf/pkg/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return serve(*configPath)
		},
	}
}

func serve(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := logger.InitLogger(cfg.LogConfig); err != nil {
		return err
	}
	defer logger.Sync()

	db, err := storage.Open(cfg.StoreCfg, logger.Logger)
	if err != nil {
		logger.Error("failed to open session store", zap.Error(err), zap.String("path", cfg.StoreCfg.Path))
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clk := clock.New(cfg.ClockCfg, logger.Logger)
	if c, ok := clk.(*clock.NTPClock); ok {
		go c.Run(ctx)
	}

	engine := classgroup.New()
	hasher, err := hashtogroup.NewHasher(engine, cfg.VDFCfg.Hash,
		hashtogroup.WithLogger(logger.Logger),
		hashtogroup.WithCache(cfg.VDFCfg.CacheSize))
	if err != nil {
		return err
	}

	srv, err := server.NewServer(server.Config{
		Address:             cfg.ServerCfg.Address,
		RateLimit:           cfg.ServerCfg.RateLimit,
		RateBurst:           cfg.ServerCfg.RateBurst,
		MaxIterations:       cfg.ServerCfg.MaxIterations,
		MaxDiscriminantBits: cfg.ServerCfg.MaxDiscriminantBits,
		Engine:              engine,
		Hasher:              hasher,
		Sessions:            session.NewManager(session.Config{DB: db, Engine: engine, Clock: clk, Logger: logger.Logger}),
		Logger:              logger.Logger,
	})
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.RunServer()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case s := <-sig:
		logger.Info("shutting down", zap.String("signal", s.String()))
		return db.Sync()
	}
}
