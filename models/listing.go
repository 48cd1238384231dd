package models

import "time"

// Listing is a normalized rental record. URL doubles as the canonical
// identity used for dedup; a listing with an empty URL is never persisted.
type Listing struct {
	ID           int        `json:"id"`
	URL          string     `json:"url"`
	Address      string     `json:"address"`
	Rent         int        `json:"rent"`
	Neighborhood string     `json:"neighborhood"`
	ImageURL     string     `json:"image_url"`
	NoFee        bool       `json:"no_fee"`
	BrokerName   string     `json:"broker_name,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Status       string     `json:"status"`
	Selected     bool       `json:"selected"`
	DiscoveredAt time.Time  `json:"discovered_at"`
	ContactedAt  *time.Time `json:"contacted_at,omitempty"`
}

// Listing statuses.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
)

// Budget holds the monthly residuals left after a given rent.
type Budget struct {
	Rent          int `json:"rent"`
	Utilities     int `json:"utilities"`
	Groceries     int `json:"groceries"`
	Transport     int `json:"transport"`
	Dining        int `json:"dining_out"`
	Savings       int `json:"savings"`
	TotalExpenses int `json:"total_expenses"`
}

// ScoredListing is a Listing plus derived desirability fields. The score
// is recomputed from the current criteria on every read, never persisted
// as authoritative, so criteria changes re-rank existing data for free.
type ScoredListing struct {
	Listing
	Score            int    `json:"score"`
	PassesBudgetRule bool   `json:"40x_pass"`
	Budget           Budget `json:"budget"`
}

// SearchTarget is one crawlable sub-market, identified by its URL slug.
type SearchTarget struct {
	Slug    string `json:"slug" yaml:"slug"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

// InquiryState tracks where a single inquiry task is in its lifecycle.
type InquiryState string

const (
	InquiryPending        InquiryState = "pending"
	InquiryNavigated      InquiryState = "navigated"
	InquiryFormFound      InquiryState = "form_found"
	InquiryFormFilled     InquiryState = "form_filled"
	InquiryAwaitingReview InquiryState = "awaiting_review"
	InquiryConfirmed      InquiryState = "confirmed"
	InquirySkipped        InquiryState = "skipped"
	InquiryFailed         InquiryState = "failed"
)

// Terminal reports whether the state is final. Terminal tasks are never
// revisited.
func (s InquiryState) Terminal() bool {
	return s == InquiryConfirmed || s == InquirySkipped || s == InquiryFailed
}

// InquiryTask is the per-listing state machine record driven by the
// inquiry sequencer.
type InquiryTask struct {
	Listing     Listing      `json:"listing"`
	State       InquiryState `json:"state"`
	Reason      string       `json:"reason,omitempty"`
	ContactedAt *time.Time   `json:"contacted_at,omitempty"`
}

// RunStats summarises one completed crawl run.
type RunStats struct {
	TotalFound        int `json:"total"`
	NewAdded          int `json:"new"`
	PassingBudgetRule int `json:"passing_budget_rule"`
	TargetsFailed     int `json:"targets_failed"`
}
