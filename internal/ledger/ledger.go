// Package ledger реализует реестр авансов и очередь неразрешённых списаний в памяти.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/billing-simulator/internal/model"
)

var (
	// ErrAdvanceNotFound возвращается при обращении к неизвестному авансу.
	ErrAdvanceNotFound = errors.New("advance not found")
	// ErrChargeWithoutAmount возвращается при попытке применить списание без вычисленной суммы.
	ErrChargeWithoutAmount = errors.New("charge amount is not resolved")
	// ErrNegativeBalance возвращается при попытке списать больше остатка задолженности.
	ErrNegativeBalance = errors.New("charge exceeds outstanding amount")
)

// Ledger — реестр авансов, единственный владелец мутаций баланса и статуса завершения.
// Не является потокобезопасным: все мутации выполняет управляющая горутина цикла.
type Ledger struct {
	advances map[int]*model.Advance
}

// NewLedger создаёт пустой реестр авансов.
func NewLedger() *Ledger {
	return &Ledger{advances: make(map[int]*model.Advance)}
}

// Upsert добавляет аванс, если его ещё нет в реестре.
// Существующие записи не перезаписываются: повторная загрузка не должна затирать текущий баланс.
func (l *Ledger) Upsert(advance *model.Advance) {
	if _, ok := l.advances[advance.ID]; ok {
		return
	}
	l.advances[advance.ID] = advance
}

// Get возвращает аванс по идентификатору.
func (l *Ledger) Get(advanceID int) (*model.Advance, bool) {
	advance, ok := l.advances[advanceID]
	return advance, ok
}

// All возвращает все авансы, отсортированные по идентификатору.
func (l *Ledger) All() []*model.Advance {
	advances := make([]*model.Advance, 0, len(l.advances))
	for _, advance := range l.advances {
		advances = append(advances, advance)
	}
	sort.Slice(advances, func(i, j int) bool { return advances[i].ID < advances[j].ID })
	return advances
}

// ApplyCharge уменьшает остаток задолженности, добавляет списание в историю аванса
// и проставляет дату проведения. Сумма списания обязана помещаться в остаток:
// ограничение суммы — обязанность вызывающего, нарушение здесь является ошибкой программы.
func (l *Ledger) ApplyCharge(advanceID int, charge *model.Charge, chargedOn model.Date) error {
	advance, ok := l.advances[advanceID]
	if !ok {
		return fmt.Errorf("apply charge to advance %d: %w", advanceID, ErrAdvanceNotFound)
	}
	if charge.Amount == nil {
		return fmt.Errorf("apply charge to advance %d: %w", advanceID, ErrChargeWithoutAmount)
	}
	if charge.Amount.GreaterThan(advance.Outstanding()) {
		return fmt.Errorf("apply charge of %s to advance %d with outstanding %s: %w",
			charge.Amount, advanceID, advance.Outstanding(), ErrNegativeBalance)
	}

	date := chargedOn
	charge.DateCharged = &date
	advance.ChargesApplied = append(advance.ChargesApplied, charge)
	return nil
}

// MarkCompleted помечает аванс как полностью погашенный. Операция идемпотентна и необратима.
func (l *Ledger) MarkCompleted(advanceID int) {
	if advance, ok := l.advances[advanceID]; ok {
		advance.Completed = true
	}
}

// AmountChargedOn возвращает сумму списаний по авансу за указанную дату.
func (l *Ledger) AmountChargedOn(advanceID int, date model.Date) decimal.Decimal {
	advance, ok := l.advances[advanceID]
	if !ok {
		return decimal.Zero
	}
	return advance.AmountChargedOn(date)
}
