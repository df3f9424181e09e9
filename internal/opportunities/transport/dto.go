// Package transport contains the view models of the opportunities module.
package transport

import "time"

// ScoredOpportunity is one dashboard row.
type ScoredOpportunity struct {
	ID          string
	Name        string
	AccountName string
	StageName   string
	Amount      float64
	CloseDate   string
	Score       float64
	Probability float64
	Priority    string
}

// KPIs are the summary cards above the dashboard table.
type KPIs struct {
	TotalOpportunities int
	TotalPipeline      float64
	AverageScore       float64
	AverageProbability float64
	TopPriorityCount   int
}

// ChartPoint is one bar of a chart aggregate.
type ChartPoint struct {
	Label   string
	Value   float64
	Count   int
	Percent float64 // Bar width relative to the largest value, 0..100
}

// DashboardPage is the scored table for one page plus the aggregates over
// all opportunities.
type DashboardPage struct {
	Opportunities []ScoredOpportunity
	Page          int
	TotalPages    int
	PageSize      int
	KPIs          KPIs
	AmountByStage []ChartPoint
	AmountByClose []ChartPoint
	GeneratedAt   time.Time
}

// HasPrev reports whether a previous page exists.
func (p DashboardPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p DashboardPage) HasNext() bool { return p.Page < p.TotalPages }

// Qualifier is a labelled raw qualifier value shown on the insights page.
type Qualifier struct {
	Label string
	Value string
}

// Insights is the detail view of one opportunity.
type Insights struct {
	Opportunity    ScoredOpportunity
	Qualifiers     []Qualifier
	NextSteps      []string
	AIEnabled      bool
	NextStepsError string
}
