package billing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/billing-simulator/internal/model"
)

// Simulator последовательно прогоняет биллинговый цикл по диапазону календарных дат.
type Simulator struct {
	service   *Service
	startDate model.Date
	endDate   model.Date
	logger    *zap.Logger
}

// NewSimulator создаёт симулятор для полуинтервала дат [startDate, endDate).
func NewSimulator(service *Service, startDate, endDate model.Date, logger *zap.Logger) *Simulator {
	return &Simulator{
		service:   service,
		startDate: startDate,
		endDate:   endDate,
		logger:    logger,
	}
}

// Run выполняет цикл для каждой даты диапазона строго по порядку:
// следующий день не начинается, пока не завершён предыдущий.
func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("simulating billing",
		zap.Stringer("from", s.startDate), zap.Stringer("to", s.endDate))

	for today := s.startDate; today.Before(s.endDate); today = today.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("simulation interrupted: %w", err)
		}

		s.logger.Info("starting simulation day", zap.Stringer("date", today))
		s.service.Process(ctx, today)
		s.logger.Info("finished simulation day", zap.Stringer("date", today))
	}

	s.logger.Info("simulation complete")
	return nil
}
