package services

import (
	"math"

	"github.com/ishan19r/apt-hunt/config"
	"github.com/ishan19r/apt-hunt/models"
)

// diningSplit is the share of post-fixed income that goes to dining out
// before the target cap. Empirical constant from the original planning
// spreadsheet; do not re-derive.
const diningSplit = 0.5

// CalculateBudget computes the monthly residuals left at a given rent.
// Dining and savings are floor-clamped at zero: an over-budget rent
// reports empty discretionary categories, never negative ones.
func CalculateBudget(rent int, bc config.BudgetConfig) models.Budget {
	afterFixed := bc.TakeHome - rent - bc.FixedExpenses()

	dining := 0
	if afterFixed > 0 {
		dining = int(math.Round(float64(afterFixed) * diningSplit))
	}
	if dining > bc.TargetDining {
		dining = bc.TargetDining
	}

	savings := afterFixed - dining
	if savings < 0 {
		savings = 0
	}

	return models.Budget{
		Rent:          rent,
		Utilities:     bc.Utilities,
		Groceries:     bc.Groceries,
		Transport:     bc.Transport,
		Dining:        dining,
		Savings:       savings,
		TotalExpenses: rent + bc.FixedExpenses() + dining,
	}
}
