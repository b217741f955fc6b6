package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// DaysPerMonth is the fixed divisor for the daily rate, whatever the
// actual length of the month.
const DaysPerMonth = 30

// TaxPercentageScale is the number of decimals a tax percentage may carry.
const TaxPercentageScale int32 = 2

var (
	daysPerMonth = decimal.NewFromInt(DaysPerMonth)
	hundred      = decimal.NewFromInt(100)
)

// CalculationInput carries already-validated inputs of Calculate.
type CalculationInput struct {
	BaseSalary      decimal.Decimal
	TaxPercentage   decimal.Decimal
	BonusAmounts    []decimal.Decimal
	UnpaidLeaveDays int
}

// Breakdown is the result of Calculate.
type Breakdown struct {
	TotalBonuses         decimal.Decimal
	DailyRate            decimal.Decimal
	UnpaidLeaveDays      int
	UnpaidLeaveDeduction decimal.Decimal
	TaxableAmount        decimal.Decimal
	TaxAmount            decimal.Decimal
	NetSalary            decimal.Decimal
}

// Calculate derives the salary breakdown. It is pure and has no error
// cases: negative inputs are a caller bug.
//
//	dailyRate  = round2(base / 30)
//	deduction  = round2(dailyRate * unpaidDays)
//	taxable    = max(0, base + bonuses - deduction)
//	tax        = round2(taxable * taxPct / 100)
//	net        = taxable - tax
//
// The daily rate is rounded before it is multiplied.
func Calculate(in CalculationInput) Breakdown {
	totalBonuses := generic.SumMoney(in.BonusAmounts...)
	dailyRate := generic.DivMoney(in.BaseSalary, daysPerMonth)
	deduction := generic.RoundMoney(dailyRate.Mul(decimal.NewFromInt(int64(in.UnpaidLeaveDays))))

	taxable := generic.FloorZero(in.BaseSalary.Add(totalBonuses).Sub(deduction))
	tax := generic.DivMoney(taxable.Mul(in.TaxPercentage), hundred)

	return Breakdown{
		TotalBonuses:         totalBonuses,
		DailyRate:            dailyRate,
		UnpaidLeaveDays:      in.UnpaidLeaveDays,
		UnpaidLeaveDeduction: deduction,
		TaxableAmount:        taxable,
		TaxAmount:            tax,
		NetSalary:            taxable.Sub(tax),
	}
}
