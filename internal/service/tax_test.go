package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/ahmad-watoo/ams-api/pkg/errors"
)

func TestAnnualTax(t *testing.T) {
	cases := []struct {
		income   float64
		expected float64
	}{
		{0, 0},
		{500000, 0},
		{600000, 0},
		{800000, 5000},
		{1200000, 15000},
		// 15000 + 1200000*0.125
		{2400000, 165000},
		// 165000 + 1200000*0.20
		{3600000, 405000},
		// 405000 + 2400000*0.25
		{6000000, 1005000},
		// 1005000 + 1000000*0.35
		{7000000, 1355000},
	}
	for _, tc := range cases {
		tax, err := AnnualTax(tc.income)
		require.NoError(t, err)
		assert.InDelta(t, tc.expected, tax, 0.001, "income %v", tc.income)
	}
}

func TestAnnualTaxNegativeIncome(t *testing.T) {
	_, err := AnnualTax(-1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMonthlyTax(t *testing.T) {
	// 100k a month is 1.2M a year, taxed 15000 annually.
	tax, err := MonthlyTax(100000)
	require.NoError(t, err)
	assert.InDelta(t, 1250, tax, 0.001)

	// Under the exempt threshold nothing is withheld.
	tax, err = MonthlyTax(50000)
	require.NoError(t, err)
	assert.Zero(t, tax)
}
