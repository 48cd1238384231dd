package services

import (
	"math"

	"github.com/ishan19r/apt-hunt/config"
	"github.com/ishan19r/apt-hunt/models"
)

// Score component weights. Empirical constants carried over from the
// original ranking; do not re-derive.
const (
	affordabilityWeight = 40
	diningHealthWeight  = 15
	savingsHealthWeight = 15
	pricePositionWeight = 20
	noFeeBonus          = 10

	maxScore = 100

	// affordabilityMultiple is the 40x rule: annual income must cover
	// forty months of rent.
	affordabilityMultiple = 40
)

// PassesBudgetRule applies the 40x affordability heuristic.
func PassesBudgetRule(rent, income int) bool {
	return income >= rent*affordabilityMultiple
}

// ScoreListing computes the bounded desirability score for a listing.
// Deterministic: the same inputs always produce the same score.
func ScoreListing(l models.Listing, cr config.Criteria, bc config.BudgetConfig) models.ScoredListing {
	budget := CalculateBudget(l.Rent, bc)

	score := affordabilityScore(l.Rent, cr.Income)
	score += budgetHealthScore(budget, bc)
	score += pricePositionScore(l.Rent, cr)
	if l.NoFee {
		score += noFeeBonus
	}

	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}

	return models.ScoredListing{
		Listing:          l,
		Score:            score,
		PassesBudgetRule: PassesBudgetRule(l.Rent, cr.Income),
		Budget:           budget,
	}
}

// ScoreAll scores every listing against the current snapshot.
func ScoreAll(listings []models.Listing, cr config.Criteria, bc config.BudgetConfig) []models.ScoredListing {
	scored := make([]models.ScoredListing, 0, len(listings))
	for _, l := range listings {
		scored = append(scored, ScoreListing(l, cr, bc))
	}
	return scored
}

// affordabilityScore ramps linearly from the full weight at zero rent
// down through the 40x ceiling, reaching zero at twice the ceiling.
// Never negative.
func affordabilityScore(rent, income int) int {
	ceiling := income / affordabilityMultiple
	if ceiling <= 0 {
		return 0
	}

	comp := float64(affordabilityWeight) * (1 - float64(rent)/float64(2*ceiling))
	if comp < 0 {
		comp = 0
	}
	if comp > affordabilityWeight {
		comp = affordabilityWeight
	}
	return int(math.Round(comp))
}

// budgetHealthScore awards each residual sub-term when it meets its target.
func budgetHealthScore(b models.Budget, bc config.BudgetConfig) int {
	score := 0
	if b.Dining >= bc.TargetDining {
		score += diningHealthWeight
	}
	if b.Savings >= bc.TargetSavings {
		score += savingsHealthWeight
	}
	return score
}

// pricePositionScore rewards rents near the bottom of the search window.
// A zero-width window contributes nothing.
func pricePositionScore(rent int, cr config.Criteria) int {
	width := cr.MaxRent - cr.MinRent
	if width <= 0 {
		return 0
	}

	comp := float64(pricePositionWeight) * float64(cr.MaxRent-rent) / float64(width)
	if comp < 0 {
		comp = 0
	}
	if comp > pricePositionWeight {
		comp = pricePositionWeight
	}
	return int(math.Round(comp))
}
