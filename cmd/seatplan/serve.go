package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cimillas/seatplan/internal/app"
	"github.com/cimillas/seatplan/internal/clock"
	"github.com/cimillas/seatplan/internal/events"
	"github.com/cimillas/seatplan/internal/metrics"
	"github.com/cimillas/seatplan/internal/planner"
	"github.com/cimillas/seatplan/internal/storage/postgres"
	transporthttp "github.com/cimillas/seatplan/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.cfg, rt.logger

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewPrometheus(reg, metrics.DefaultNamespace)

	opts := []app.Option{app.WithLogger(logger), app.WithMetrics(m)}
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name("seatplan"))
		if err != nil {
			return err
		}
		defer nc.Close()
		opts = append(opts, app.WithPublisher(events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)))
		logger.Info("publishing seat changes", zap.String("nats_url", cfg.NATS.URL))
	} else {
		logger.Warn("nats.url not set, seat changes are not published")
	}

	layout := cfg.Layout()
	clk := clock.NewSystem()
	adminSvc := app.NewAdminService(postgres.NewAdminRepository(rt.pool), clk)
	planSvc := app.NewPlanService(
		postgres.NewPlanRepository(rt.pool, cfg.Database.LockTimeout),
		planner.New(layout, cfg.PlannerOptions()...),
		clk,
		opts...,
	)
	seatSvc := app.NewSeatService(postgres.NewSeatRepository(rt.pool, cfg.Database.LockTimeout), layout, clk, opts...)

	server := &http.Server{
		Addr: ":" + strconv.Itoa(cfg.Server.Port),
		Handler: transporthttp.NewRouter(transporthttp.Deps{
			Plans:       planSvc,
			Seats:       seatSvc,
			Occasions:   adminSvc,
			Persons:     adminSvc,
			DB:          rt.pool,
			Layout:      layout,
			RatioBand:   cfg.RatioBand(),
			CORSOrigins: cfg.Server.CORSOrigins,
			Logger:      logger,
			Metrics:     m,
			Gatherer:    reg,
		}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
