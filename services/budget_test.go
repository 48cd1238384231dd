package services

import (
	"testing"

	"github.com/ishan19r/apt-hunt/config"
)

func testBudgetConfig() config.BudgetConfig {
	return config.BudgetConfig{
		TakeHome:      5250,
		Utilities:     150,
		Groceries:     400,
		Transport:     132,
		TargetDining:  500,
		TargetSavings: 1000,
	}
}

func TestBudgetAt2650(t *testing.T) {
	b := CalculateBudget(2650, testBudgetConfig())

	// after_fixed = 5250 - 2650 - 682 = 1918
	// dining = min(500, 1918*0.5=959) = 500
	// savings = max(0, 1918-500) = 1418
	if b.Dining != 500 {
		t.Errorf("dining: got %d, want 500", b.Dining)
	}
	if b.Savings != 1418 {
		t.Errorf("savings: got %d, want 1418", b.Savings)
	}
	if b.TotalExpenses != 2650+682+500 {
		t.Errorf("total expenses: got %d, want %d", b.TotalExpenses, 2650+682+500)
	}
}

func TestBudgetDiningHalfSplitBelowCap(t *testing.T) {
	// after_fixed = 5250 - 3900 - 682 = 668; dining = round(334) = 334
	b := CalculateBudget(3900, testBudgetConfig())
	if b.Dining != 334 {
		t.Errorf("dining: got %d, want 334", b.Dining)
	}
	if b.Savings != 334 {
		t.Errorf("savings: got %d, want 334", b.Savings)
	}
}

func TestBudgetResidualsNeverNegative(t *testing.T) {
	bc := testBudgetConfig()
	for rent := 0; rent <= 8000; rent += 100 {
		b := CalculateBudget(rent, bc)
		if b.Dining < 0 {
			t.Fatalf("rent %d: dining %d is negative", rent, b.Dining)
		}
		if b.Savings < 0 {
			t.Fatalf("rent %d: savings %d is negative", rent, b.Savings)
		}
		if b.Dining > bc.TargetDining {
			t.Fatalf("rent %d: dining %d exceeds target %d", rent, b.Dining, bc.TargetDining)
		}
	}
}

func TestBudgetOverBudgetRentClampsToZero(t *testing.T) {
	b := CalculateBudget(6000, testBudgetConfig())
	if b.Dining != 0 || b.Savings != 0 {
		t.Errorf("over-budget rent: dining %d savings %d, want 0/0", b.Dining, b.Savings)
	}
}

func TestBudgetSavingsDecreaseWithRent(t *testing.T) {
	bc := testBudgetConfig()
	low := CalculateBudget(2600, bc)
	high := CalculateBudget(3200, bc)
	if low.Savings <= high.Savings {
		t.Errorf("savings at 2600 (%d) should exceed savings at 3200 (%d)",
			low.Savings, high.Savings)
	}
}
