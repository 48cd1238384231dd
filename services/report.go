package services

import (
	"fmt"
	"strings"

	"github.com/ishan19r/apt-hunt/config"
)

// PrintBudgetReport prints the pass/fail and residual picture across a
// few representative rents in the search window.
func PrintBudgetReport(cr config.Criteria, bc config.BudgetConfig) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏠 APARTMENT HUNTER\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Search Criteria\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Budget          : \033[1m$%d - $%d\033[0m\n", cr.MinRent, cr.MaxRent)
	fmt.Printf("  Max rent (40x)  : \033[1m$%d/mo\033[0m\n", cr.Income/affordabilityMultiple)
	fmt.Printf("  Neighborhoods   : %d configured\n", len(cr.Neighborhoods))
	fmt.Println()

	fmt.Printf("\033[1;33m  Budget Scenarios\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for rent := 2600; rent <= 3200; rent += 200 {
		b := CalculateBudget(rent, bc)
		status := "\033[1;31m❌ FAIL\033[0m"
		if PassesBudgetRule(rent, cr.Income) {
			status = "\033[1;32m✅ PASS\033[0m"
		}
		fmt.Printf("  $%d: %s | Dining: $%-4d | Savings: $%d\n",
			rent, status, b.Dining, b.Savings)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}
