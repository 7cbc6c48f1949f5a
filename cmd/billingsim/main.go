// Package main запускает симулятор погашения авансов.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/billing-simulator/internal/billing"
	"github.com/mmeshcher/billing-simulator/internal/config"
	"github.com/mmeshcher/billing-simulator/internal/gateway"
	"github.com/mmeshcher/billing-simulator/internal/ledger"
	"github.com/mmeshcher/billing-simulator/internal/model"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	startDate, err := model.ParseDate(cfg.StartDate)
	if err != nil {
		sugar.Fatalw("invalid start date", "value", cfg.StartDate, "error", err.Error())
	}

	endDate, err := model.ParseDate(cfg.EndDate)
	if err != nil {
		sugar.Fatalw("invalid end date", "value", cfg.EndDate, "error", err.Error())
	}

	if !startDate.Before(endDate) {
		sugar.Fatalw("start date must be before end date", "start", cfg.StartDate, "end", cfg.EndDate)
	}

	maxDailyCharge, err := decimal.NewFromString(cfg.MaxDailyCharge)
	if err != nil {
		sugar.Fatalw("invalid max daily charge", "value", cfg.MaxDailyCharge, "error", err.Error())
	}

	client := gateway.NewClient(cfg.GatewayAddress, logger)

	svc := billing.NewService(client, ledger.NewLedger(), ledger.NewChargeQueue(), maxDailyCharge, cfg.Concurrency, logger)
	simulator := billing.NewSimulator(svc, startDate, endDate, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return simulator.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("simulation terminated with error", "error", err)
	}
}
