// Package model содержит доменные сущности биллингового симулятора.
package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Advance представляет денежный аванс мерчанту, погашаемый процентом от дневной выручки.
type Advance struct {
	ID                  int             `json:"id"`
	CustomerID          int             `json:"customer_id"`
	Created             Date            `json:"created"`
	TotalAdvanced       decimal.Decimal `json:"total_advanced"`
	Fee                 decimal.Decimal `json:"fee"`
	MandateID           int             `json:"mandate_id"`
	RepaymentStartDate  Date            `json:"repayment_start_date"`
	RepaymentPercentage decimal.Decimal `json:"repayment_percentage"`

	Completed      bool      `json:"-"`
	ChargesApplied []*Charge `json:"-"`
}

// Outstanding возвращает остаток задолженности: тело аванса плюс комиссия минус применённые списания.
func (a *Advance) Outstanding() decimal.Decimal {
	out := a.TotalAdvanced.Add(a.Fee)
	for _, c := range a.ChargesApplied {
		if c.Amount != nil {
			out = out.Sub(*c.Amount)
		}
	}
	return out
}

// AmountChargedOn возвращает сумму списаний, проведённых по авансу в указанную дату.
func (a *Advance) AmountChargedOn(date Date) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range a.ChargesApplied {
		if c.Amount != nil && c.DateCharged != nil && c.DateCharged.Equal(date) {
			sum = sum.Add(*c.Amount)
		}
	}
	return sum
}

// Charge представляет обязательство по списанию, привязанное к одному авансу и одной дате выручки.
// Amount равен nil, пока выручка за DateFor недоступна; DateCharged проставляется при проведении.
type Charge struct {
	Advance     *Advance         `json:"-"`
	DateFor     Date             `json:"-"`
	DateCharged *Date            `json:"-"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
}

// String возвращает краткое описание списания для журналирования.
func (c *Charge) String() string {
	amount := "?"
	if c.Amount != nil {
		amount = c.Amount.String()
	}
	if c.DateCharged != nil {
		return fmt.Sprintf("%s for advance %d, for %s, on %s", amount, c.Advance.ID, c.DateFor, c.DateCharged)
	}
	return fmt.Sprintf("%s for advance %d, for %s, not yet charged", amount, c.Advance.ID, c.DateFor)
}

// Revenue представляет выручку клиента за одну дату.
// Amount равен nil, пока у удалённой системы нет данных; это не то же самое, что нулевая выручка.
type Revenue struct {
	CustomerID int              `json:"-"`
	Date       Date             `json:"-"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
}
