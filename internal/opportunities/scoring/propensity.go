// Package scoring computes the propensity-to-close score of an opportunity.
// Calculate is pure and safe for concurrent use.
package scoring

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"propensia_dashboard/internal/crm"
)

// Priority labels.
const (
	PriorityTop    = "Top Priority"
	PriorityHigh   = "High Priority"
	PriorityMedium = "Medium Priority"
	PriorityLow    = "Low Priority"
	PriorityWon    = "Won Deal"
	PriorityLost   = "Lost Deal"
	PriorityError  = "Error"
)

const (
	stageClosedWon  = "Closed Won"
	stageClosedLost = "Closed Lost"
	defaultStage    = "Prospecting"

	maxStageOrdinal = 5
	stageWeight     = 0.5
	maxScore        = 10
)

// Result is the computed score tuple.
type Result struct {
	Score       float64 // 0..10
	Probability float64 // 0..100
	Priority    string
	Amount      float64
}

type fieldKind int

const (
	kindBool fieldKind = iota
	kindNumeric
	kindTimeline
	kindShortList
)

type feature struct {
	field  string
	weight float64
	kind   fieldKind
}

var stageOrdinals = map[string]float64{
	"Prospecting":         1,
	"Qualification":       2,
	"Needs Analysis":      3,
	"Id. Decision Makers": 3,
	"Proposal":            4,
	"Negotiation":         5,
	"Negotiation/Review":  5,
}

var features = []feature{
	{"icp_fit__c", 0.0063, kindBool},
	{"Engagement_Score__c", 0.0063, kindNumeric},
	{"Intent_Data__c", 0.0063, kindBool},
	{"Past_Success__c", 0.0625, kindBool},
	{"Total_Sales_Touches__c", 0.0625, kindNumeric},
	{"Number_of_Meetings__c", 0.0625, kindNumeric},
	{"Contacts_Associated__c", 0.0625, kindNumeric},
	{"Budget_Defined__c", 0.0125, kindBool},
	{"Need_Defined__c", 0.0313, kindBool},
	{"Timeline_Defined__c", 0.0313, kindTimeline},
	{"Short_List_Defined__c", 0.0938, kindShortList},
	{"High_Intent__c", 0.0625, kindBool},
}

var timelineValues = map[string]float64{
	"Not Defined": 0,
	"Long Term":   0.5,
	"Medium Term": 0.75,
	"Short Term":  1,
}

var shortListValues = map[string]float64{
	"Not Considered": 0,
	"Likely":         0.5,
	"Confirmed":      1,
}

// Calculate scores a record. It never panics: a nil record or an internal
// failure yields the Error tuple (0, 0, "Error", 0).
func Calculate(record crm.Record) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("propensity calculation failed", "opportunity_id", record.ID(), "panic", fmt.Sprint(r))
			result = errorResult()
		}
	}()

	if record == nil {
		slog.Error("propensity calculation failed", "error", "nil record")
		return errorResult()
	}

	amount := ParseNumber(record["Amount"])

	stage := defaultStage
	if s, ok := record["StageName"].(string); ok && s != "" {
		stage = s
	}
	switch stage {
	case stageClosedWon:
		return Result{Score: maxScore, Probability: 100, Priority: PriorityWon, Amount: amount}
	case stageClosedLost:
		return Result{Score: 0, Probability: 0, Priority: PriorityLost, Amount: amount}
	}

	ordinal, ok := stageOrdinals[stage]
	if !ok {
		ordinal = stageOrdinals[defaultStage]
	}
	total := ordinal / maxStageOrdinal * maxScore * stageWeight

	for _, f := range features {
		total += featureValue(f, record[f.field]) * maxScore * f.weight
	}

	score := clamp(round2(total), 0, maxScore)
	probability := clamp(round2(score*10), 0, 100)

	return Result{
		Score:       score,
		Probability: probability,
		Priority:    ClassifyPriority(probability, amount),
		Amount:      amount,
	}
}

// ClassifyPriority maps a win probability and deal amount to a tier.
func ClassifyPriority(probability, amount float64) string {
	switch {
	case probability >= 55 && amount >= 500000:
		return PriorityTop
	case probability >= 40 && probability < 55 && amount >= 250000:
		return PriorityHigh
	case probability >= 30 && probability < 40 && amount >= 100000:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// featureValue normalizes a raw field value to [0,1].
func featureValue(f feature, raw any) float64 {
	switch f.kind {
	case kindBool:
		return parseFlag(raw)
	case kindNumeric:
		return clamp(ParseNumber(raw), 0, maxScore) / maxScore
	case kindTimeline:
		return lookup(timelineValues, raw)
	case kindShortList:
		return lookup(shortListValues, raw)
	}
	return 0
}

// ParseNumber reads a JSON number or numeric string. Null, malformed and
// non-finite values become 0.
func ParseNumber(raw any) float64 {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if r == ',' || r == ' ' || r == '\t' || r == '\n' {
				return -1
			}
			return r
		}, n)
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		v = parsed
	default:
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseFlag(raw any) float64 {
	if raw == nil {
		return 0
	}
	if strings.ToLower(strings.TrimSpace(fmt.Sprint(raw))) == "true" {
		return 1
	}
	return 0
}

func lookup(values map[string]float64, raw any) float64 {
	s, ok := raw.(string)
	if !ok {
		return 0
	}
	return values[strings.TrimSpace(s)]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func errorResult() Result {
	return Result{Score: 0, Probability: 0, Priority: PriorityError, Amount: 0}
}
