package service

import (
	"context"
	"sort"
	"time"

	"propensia_dashboard/internal/opportunities/scoring"
	"propensia_dashboard/internal/opportunities/transport"
	"propensia_dashboard/platform/apperr"
)

var stageOrder = []string{
	"Prospecting",
	"Qualification",
	"Needs Analysis",
	"Id. Decision Makers",
	"Proposal",
	"Negotiation",
	"Negotiation/Review",
	"Closed Won",
	"Closed Lost",
}

// Dashboard scores every opportunity and returns the requested page together
// with KPIs and chart aggregates. Scores are computed for display only and are
// not written back. Out-of-range pages are clamped.
func (s *Service) Dashboard(ctx context.Context, page int) (*transport.DashboardPage, error) {
	records, err := s.crm.DashboardOpportunities(ctx)
	if err != nil {
		return nil, apperr.Upstream("could not load opportunities from Salesforce", err).WithOp("opportunities.Dashboard")
	}

	scored := make([]transport.ScoredOpportunity, 0, len(records))
	for _, record := range records {
		scored = append(scored, toScored(record, scoring.Calculate(record)))
	}

	totalPages := (len(scored) + s.pageSize - 1) / s.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * s.pageSize
	end := start + s.pageSize
	if end > len(scored) {
		end = len(scored)
	}

	return &transport.DashboardPage{
		Opportunities: scored[start:end],
		Page:          page,
		TotalPages:    totalPages,
		PageSize:      s.pageSize,
		KPIs:          computeKPIs(scored),
		AmountByStage: amountByStage(scored),
		AmountByClose: amountByCloseMonth(scored),
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

func computeKPIs(rows []transport.ScoredOpportunity) transport.KPIs {
	kpis := transport.KPIs{TotalOpportunities: len(rows)}
	if len(rows) == 0 {
		return kpis
	}

	var scoreSum, probSum float64
	for _, row := range rows {
		kpis.TotalPipeline += row.Amount
		scoreSum += row.Score
		probSum += row.Probability
		if row.Priority == scoring.PriorityTop {
			kpis.TopPriorityCount++
		}
	}
	kpis.AverageScore = round2(scoreSum / float64(len(rows)))
	kpis.AverageProbability = round2(probSum / float64(len(rows)))
	return kpis
}

func amountByStage(rows []transport.ScoredOpportunity) []transport.ChartPoint {
	totals := make(map[string]*transport.ChartPoint)
	for _, row := range rows {
		stage := row.StageName
		if stage == "" {
			stage = "Prospecting"
		}
		point, ok := totals[stage]
		if !ok {
			point = &transport.ChartPoint{Label: stage}
			totals[stage] = point
		}
		point.Value += row.Amount
		point.Count++
	}

	points := make([]transport.ChartPoint, 0, len(totals))
	for _, stage := range stageOrder {
		if point, ok := totals[stage]; ok {
			points = append(points, *point)
			delete(totals, stage)
		}
	}
	extra := make([]string, 0, len(totals))
	for stage := range totals {
		extra = append(extra, stage)
	}
	sort.Strings(extra)
	for _, stage := range extra {
		points = append(points, *totals[stage])
	}
	return withPercent(points)
}

// amountByCloseMonth groups amounts by CloseDate month. Rows without a
// parseable close date are grouped under "No close date" at the end.
func amountByCloseMonth(rows []transport.ScoredOpportunity) []transport.ChartPoint {
	const undated = "No close date"
	totals := make(map[string]*transport.ChartPoint)
	for _, row := range rows {
		label := undated
		if closeDate, err := time.Parse("2006-01-02", row.CloseDate); err == nil {
			label = closeDate.Format("2006-01")
		}
		point, ok := totals[label]
		if !ok {
			point = &transport.ChartPoint{Label: label}
			totals[label] = point
		}
		point.Value += row.Amount
		point.Count++
	}

	labels := make([]string, 0, len(totals))
	for label := range totals {
		if label != undated {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	if _, ok := totals[undated]; ok {
		labels = append(labels, undated)
	}

	points := make([]transport.ChartPoint, 0, len(labels))
	for _, label := range labels {
		points = append(points, *totals[label])
	}
	return withPercent(points)
}

func withPercent(points []transport.ChartPoint) []transport.ChartPoint {
	var maxValue float64
	for _, p := range points {
		if p.Value > maxValue {
			maxValue = p.Value
		}
	}
	if maxValue <= 0 {
		return points
	}
	for i := range points {
		points[i].Percent = round2(points[i].Value / maxValue * 100)
	}
	return points
}
