package billing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/billing-simulator/internal/ledger"
	"github.com/mmeshcher/billing-simulator/internal/model"
	"github.com/mmeshcher/billing-simulator/internal/validation"
)

const defaultConcurrency = 8

// Gateway описывает контракт удалённого биллингового сервиса, используемый циклом.
type Gateway interface {
	Advances(ctx context.Context, today model.Date) ([]*model.Advance, error)
	Revenue(ctx context.Context, today model.Date, customerID int, forDate model.Date) model.Revenue
	Charge(ctx context.Context, today model.Date, charge *model.Charge) bool
	ReportComplete(ctx context.Context, today model.Date, advanceID int) bool
}

// Service выполняет биллинговый цикл одного симулируемого дня.
// Реестр авансов и очередь списаний принадлежат сервису и мутируются только
// управляющей горутиной: параллельные задачи пишут лишь в собственные ячейки результата.
type Service struct {
	gateway        Gateway
	ledger         *ledger.Ledger
	queue          *ledger.ChargeQueue
	maxDailyCharge decimal.Decimal
	concurrency    int
	logger         *zap.Logger
}

// NewService создаёт сервис биллингового цикла с указанным шлюзом и дневным лимитом списания.
func NewService(gw Gateway, l *ledger.Ledger, q *ledger.ChargeQueue, maxDailyCharge decimal.Decimal, concurrency int, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		gateway:        gw,
		ledger:         l,
		queue:          q,
		maxDailyCharge: maxDailyCharge,
		concurrency:    concurrency,
		logger:         logger,
	}
}

// Process выполняет один биллинговый день: разрешает отложенные списания,
// загружает авансы, проводит списания по вчерашней выручке, фиксирует
// завершённые авансы и печатает итоговый отчёт по остаткам.
func (s *Service) Process(ctx context.Context, today model.Date) {
	s.processOutstandingCharges(ctx, today)

	s.retrieveAdvances(ctx, today)

	revenues := s.retrieveRevenues(ctx, today)

	for _, advance := range s.ledger.All() {
		s.billBasedOnRevenue(ctx, today, advance, revenues[advance.CustomerID])
	}

	s.processCompletedAdvances(ctx, today)

	s.logOutstandingReport(today)
}

// billBasedOnRevenue формирует списание для аванса по выручке его клиента.
// Без выручки списание без суммы уходит в очередь и ждёт данных.
func (s *Service) billBasedOnRevenue(ctx context.Context, today model.Date, advance *model.Advance, revenue *model.Revenue) {
	if advance.Completed {
		return
	}
	if today.Before(advance.RepaymentStartDate) {
		return
	}

	if revenue == nil {
		s.queue.Add(&model.Charge{Advance: advance, DateFor: today})
		return
	}

	amount := ChargeAmount(*revenue.Amount, advance.RepaymentPercentage)
	s.applyCharge(ctx, today, &model.Charge{Advance: advance, DateFor: today, Amount: &amount})
}

// processOutstandingCharges разрешает списания из очереди, получившие сумму,
// и проводит их; списания без суммы остаются в очереди.
func (s *Service) processOutstandingCharges(ctx context.Context, today model.Date) {
	s.resolveDelayedRevenues(ctx, today)

	for _, charge := range s.queue.Snapshot() {
		if charge.Amount == nil {
			continue
		}
		s.queue.Remove(charge)
		s.applyCharge(ctx, today, charge)
	}
}

type revenueKey struct {
	customerID int
	forDate    string
}

// resolveDelayedRevenues запрашивает выручку для списаний без суммы.
// Запросы идут по уникальным парам (клиент, дата выручки) и именно за ту дату,
// которую списание ждёт, а не за вчерашний день.
func (s *Service) resolveDelayedRevenues(ctx context.Context, today model.Date) {
	pending := make(map[revenueKey]model.Date)
	for _, charge := range s.queue.Snapshot() {
		if charge.Amount != nil {
			continue
		}
		key := revenueKey{customerID: charge.Advance.CustomerID, forDate: charge.DateFor.String()}
		pending[key] = charge.DateFor
	}
	if len(pending) == 0 {
		return
	}

	keys := make([]revenueKey, 0, len(pending))
	for key := range pending {
		keys = append(keys, key)
	}

	results := make([]model.Revenue, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			results[i] = s.gateway.Revenue(gctx, today, key.customerID, pending[key])
			return nil
		})
	}
	_ = g.Wait()

	available := make(map[revenueKey]decimal.Decimal)
	for i, revenue := range results {
		if revenue.Amount != nil {
			available[keys[i]] = *revenue.Amount
		}
	}

	for _, charge := range s.queue.Snapshot() {
		if charge.Amount != nil {
			continue
		}
		key := revenueKey{customerID: charge.Advance.CustomerID, forDate: charge.DateFor.String()}
		if revenueAmount, ok := available[key]; ok {
			amount := ChargeAmount(revenueAmount, charge.Advance.RepaymentPercentage)
			charge.Amount = &amount
		}
	}
}

// retrieveAdvances загружает актуальный список авансов.
// Ошибка шлюза означает «новых авансов в этом цикле нет» и не прерывает день.
func (s *Service) retrieveAdvances(ctx context.Context, today model.Date) {
	advances, err := s.gateway.Advances(ctx, today)
	if err != nil {
		s.logger.Warn("advances fetch failed, continuing with known advances", zap.Error(err))
		return
	}

	for _, advance := range advances {
		if err := validation.ValidateAdvance(advance); err != nil {
			s.logger.Warn("skipping invalid advance", zap.Int("advanceID", advance.ID), zap.Error(err))
			continue
		}
		s.ledger.Upsert(advance)
	}
}

// retrieveRevenues запрашивает вчерашнюю выручку клиентов всех активных авансов.
// Запросы выполняются ограниченным пулом горутин; записи без суммы отбрасываются.
func (s *Service) retrieveRevenues(ctx context.Context, today model.Date) map[int]*model.Revenue {
	unique := make(map[int]struct{})
	for _, advance := range s.ledger.All() {
		if advance.Completed {
			continue
		}
		if today.Before(advance.RepaymentStartDate) {
			continue
		}
		unique[advance.CustomerID] = struct{}{}
	}
	if len(unique) == 0 {
		return nil
	}

	customerIDs := make([]int, 0, len(unique))
	for customerID := range unique {
		customerIDs = append(customerIDs, customerID)
	}

	forDate := today.AddDays(-1)
	results := make([]model.Revenue, len(customerIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, customerID := range customerIDs {
		i, customerID := i, customerID
		g.Go(func() error {
			results[i] = s.gateway.Revenue(gctx, today, customerID, forDate)
			return nil
		})
	}
	_ = g.Wait()

	revenues := make(map[int]*model.Revenue)
	for i := range results {
		if results[i].Amount != nil {
			revenues[customerIDs[i]] = &results[i]
		}
	}
	return revenues
}

// applyCharge проводит списание с известной суммой.
// Порядок фиксирован: отмена по погашенному авансу, ограничение остатком,
// дробление по дневному лимиту, затем попытка проведения через шлюз.
// Неуспешное проведение возвращает списание в очередь с текущей суммой.
func (s *Service) applyCharge(ctx context.Context, today model.Date, charge *model.Charge) {
	advance := charge.Advance

	if advance.Completed || advance.Outstanding().IsZero() {
		s.logger.Info("advance fully repaid, cancelling charge",
			zap.Int("advanceID", advance.ID), zap.Stringer("charge", charge))
		return
	}

	if advance.Outstanding().LessThan(*charge.Amount) {
		s.logger.Info("charge exceeds outstanding amount, charging the remainder instead",
			zap.Int("advanceID", advance.ID),
			zap.String("outstanding", advance.Outstanding().String()),
			zap.String("charge", charge.Amount.String()))
		outstanding := advance.Outstanding()
		charge.Amount = &outstanding
	}

	headroom := s.maxDailyCharge.Sub(s.ledger.AmountChargedOn(advance.ID, today))
	if headroom.LessThan(*charge.Amount) {
		deferred := charge.Amount.Sub(headroom)
		s.queue.Add(&model.Charge{Advance: advance, DateFor: charge.DateFor, Amount: &deferred})
		charge.Amount = &headroom
		s.logger.Info("splitting charge to stay under the daily limit",
			zap.Int("advanceID", advance.ID),
			zap.String("limit", s.maxDailyCharge.String()),
			zap.String("today", headroom.String()),
			zap.String("deferred", deferred.String()))

		if charge.Amount.IsZero() {
			// Дневной лимит уже исчерпан, вся сумма уходит на будущие дни.
			return
		}
	}

	if !s.gateway.Charge(ctx, today, charge) {
		s.queue.Add(charge)
		return
	}

	if err := s.ledger.ApplyCharge(advance.ID, charge, today); err != nil {
		// Сюда можно попасть только при ошибке в самом алгоритме применения.
		s.logger.Panic("charge application violated a ledger invariant", zap.Error(err))
	}
}

// processCompletedAdvances сообщает шлюзу о полностью погашенных авансах.
// Отчёты уходят ограниченным пулом горутин; статус завершения проставляет
// управляющая горутина после барьера, неудачные отчёты повторяются на следующий день.
func (s *Service) processCompletedAdvances(ctx context.Context, today model.Date) {
	var candidates []*model.Advance
	for _, advance := range s.ledger.All() {
		if advance.Completed {
			continue
		}
		if !advance.Outstanding().IsZero() {
			continue
		}
		candidates = append(candidates, advance)
	}
	if len(candidates) == 0 {
		return
	}

	reported := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, advance := range candidates {
		i, advance := i, advance
		g.Go(func() error {
			reported[i] = s.gateway.ReportComplete(gctx, today, advance.ID)
			return nil
		})
	}
	_ = g.Wait()

	for i, advance := range candidates {
		if reported[i] {
			s.ledger.MarkCompleted(advance.ID)
			s.logger.Info("billing completed for advance", zap.Int("advanceID", advance.ID))
		}
	}
}

// logOutstandingReport печатает итоговый отчёт дня по остаткам задолженности.
func (s *Service) logOutstandingReport(today model.Date) {
	advances := s.ledger.All()
	report := make([]string, 0, len(advances))
	for _, advance := range advances {
		report = append(report, fmt.Sprintf("%d: %s", advance.ID, advance.Outstanding()))
	}
	s.logger.Info("end of day outstanding advance amounts report",
		zap.Stringer("date", today), zap.Strings("advances", report))
}
