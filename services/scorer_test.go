package services

import (
	"testing"

	"github.com/ishan19r/apt-hunt/config"
	"github.com/ishan19r/apt-hunt/models"
)

func testCriteria() config.Criteria {
	return config.Criteria{
		MinRent:  2400,
		MaxRent:  3200,
		Bedrooms: 1,
		Income:   110000,
	}
}

func TestPassesBudgetRule(t *testing.T) {
	tests := []struct {
		rent int
		want bool
	}{
		{0, true},
		{2600, true},
		{2650, true},
		{2750, true}, // exactly 40x
		{2800, false},
		{3200, false},
	}

	for _, tt := range tests {
		if got := PassesBudgetRule(tt.rent, 110000); got != tt.want {
			t.Errorf("PassesBudgetRule(%d) = %v; want %v", tt.rent, got, tt.want)
		}
	}
}

func TestScoreBounded(t *testing.T) {
	cr := testCriteria()
	bc := testBudgetConfig()

	for rent := 0; rent <= 10000; rent += 250 {
		sl := ScoreListing(models.Listing{Rent: rent, NoFee: true}, cr, bc)
		if sl.Score < 0 || sl.Score > 100 {
			t.Fatalf("rent %d: score %d out of [0,100]", rent, sl.Score)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	cr := testCriteria()
	bc := testBudgetConfig()
	l := models.Listing{Rent: 2650, NoFee: true}

	first := ScoreListing(l, cr, bc)
	for i := 0; i < 10; i++ {
		if got := ScoreListing(l, cr, bc); got.Score != first.Score {
			t.Fatalf("score not reproducible: %d vs %d", got.Score, first.Score)
		}
	}
}

func TestScoreMonotonicInRent(t *testing.T) {
	cr := testCriteria()
	bc := testBudgetConfig()

	prev := -1
	for rent := 3200; rent >= 2400; rent -= 50 {
		sl := ScoreListing(models.Listing{Rent: rent}, cr, bc)
		if prev >= 0 && sl.Score < prev {
			t.Fatalf("rent %d scored %d, below the score %d of a higher rent", rent, sl.Score, prev)
		}
		prev = sl.Score
	}
}

func TestAffordabilityComponent(t *testing.T) {
	// ceiling = 110000/40 = 2750
	at2650 := affordabilityScore(2650, 110000)
	at3200 := affordabilityScore(3200, 110000)

	if at3200 >= at2650 {
		t.Errorf("affordability at 3200 (%d) must be strictly less than at 2650 (%d)", at3200, at2650)
	}
	if at2650 > affordabilityWeight {
		t.Errorf("component %d exceeds weight %d", at2650, affordabilityWeight)
	}
	if got := affordabilityScore(0, 110000); got != affordabilityWeight {
		t.Errorf("zero rent: got %d, want full weight %d", got, affordabilityWeight)
	}
	// Twice the ceiling and beyond: degraded all the way to zero, never negative.
	if got := affordabilityScore(5500, 110000); got != 0 {
		t.Errorf("rent at 2x ceiling: got %d, want 0", got)
	}
	if got := affordabilityScore(9000, 110000); got != 0 {
		t.Errorf("rent far above ceiling: got %d, want 0", got)
	}
	if got := affordabilityScore(2650, 0); got != 0 {
		t.Errorf("zero income: got %d, want 0", got)
	}
}

func TestPricePositionExtremes(t *testing.T) {
	cr := testCriteria() // window [2400, 3200]

	if got := pricePositionScore(2400, cr); got != pricePositionWeight {
		t.Errorf("bottom of range: got %d, want %d", got, pricePositionWeight)
	}
	if got := pricePositionScore(3200, cr); got != 0 {
		t.Errorf("top of range: got %d, want 0", got)
	}
	if got := pricePositionScore(2800, cr); got != pricePositionWeight/2 {
		t.Errorf("midpoint: got %d, want %d", got, pricePositionWeight/2)
	}
}

func TestPricePositionZeroWidthRange(t *testing.T) {
	cr := config.Criteria{MinRent: 2800, MaxRent: 2800, Income: 110000}
	if got := pricePositionScore(2800, cr); got != 0 {
		t.Errorf("zero-width range: got %d, want 0", got)
	}
}

func TestNoFeeBonus(t *testing.T) {
	cr := testCriteria()
	bc := testBudgetConfig()

	fee := ScoreListing(models.Listing{Rent: 2650}, cr, bc)
	noFee := ScoreListing(models.Listing{Rent: 2650, NoFee: true}, cr, bc)

	if noFee.Score-fee.Score != noFeeBonus {
		t.Errorf("no-fee bonus: got %d, want %d", noFee.Score-fee.Score, noFeeBonus)
	}
}

func TestScoreCarriesBudgetAndRule(t *testing.T) {
	sl := ScoreListing(models.Listing{Rent: 2650}, testCriteria(), testBudgetConfig())
	if !sl.PassesBudgetRule {
		t.Error("2650 should pass the 40x rule at 110k income")
	}
	if sl.Budget.Dining != 500 || sl.Budget.Savings != 1418 {
		t.Errorf("budget: got dining %d savings %d", sl.Budget.Dining, sl.Budget.Savings)
	}

	over := ScoreListing(models.Listing{Rent: 3200}, testCriteria(), testBudgetConfig())
	if over.PassesBudgetRule {
		t.Error("3200 should fail the 40x rule at 110k income")
	}
}
