// Package validation содержит проверки корректности данных, полученных от шлюза.
package validation

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/billing-simulator/internal/model"
)

var maxPercentage = decimal.NewFromInt(100)

// ValidateAdvance проверяет базовую корректность аванса перед добавлением в реестр.
func ValidateAdvance(advance *model.Advance) error {
	if advance == nil {
		return errors.New("advance is nil")
	}
	if advance.ID <= 0 {
		return errors.New("advance id must be positive")
	}
	if advance.CustomerID <= 0 {
		return errors.New("customer id must be positive")
	}
	if advance.TotalAdvanced.IsNegative() {
		return errors.New("total advanced must not be negative")
	}
	if advance.Fee.IsNegative() {
		return errors.New("fee must not be negative")
	}
	if advance.RepaymentPercentage.IsNegative() || advance.RepaymentPercentage.GreaterThan(maxPercentage) {
		return errors.New("repayment percentage must be between 0 and 100")
	}
	return nil
}
