// Package billing реализует дневной биллинговый цикл погашения авансов.
package billing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ChargeAmount вычисляет сумму списания как процент от выручки,
// округлённый до двух знаков (половина — вверх).
func ChargeAmount(revenue, repaymentPercentage decimal.Decimal) decimal.Decimal {
	return revenue.Mul(repaymentPercentage).Div(hundred).Round(2)
}
