package service

import (
	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

type taxBracket struct {
	upTo float64
	rate float64
}

// Progressive annual income tax brackets. Each bracket taxes only the
// slice of income falling inside it.
var taxBrackets = []taxBracket{
	{upTo: 600000, rate: 0},
	{upTo: 1200000, rate: 0.025},
	{upTo: 2400000, rate: 0.125},
	{upTo: 3600000, rate: 0.20},
	{upTo: 6000000, rate: 0.25},
}

const topTaxRate = 0.35

// AnnualTax computes progressive income tax on an annual income.
// Negative income is rejected.
func AnnualTax(annualIncome float64) (float64, error) {
	if annualIncome < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "income cannot be negative")
	}
	var tax float64
	lower := 0.0
	for _, bracket := range taxBrackets {
		if annualIncome <= lower {
			break
		}
		slice := annualIncome
		if slice > bracket.upTo {
			slice = bracket.upTo
		}
		tax += (slice - lower) * bracket.rate
		lower = bracket.upTo
	}
	if annualIncome > lower {
		tax += (annualIncome - lower) * topTaxRate
	}
	return tax, nil
}

// MonthlyTax derives the monthly withholding from a monthly gross salary.
func MonthlyTax(monthlyGross float64) (float64, error) {
	annual, err := AnnualTax(monthlyGross * 12)
	if err != nil {
		return 0, err
	}
	return annual / 12, nil
}
