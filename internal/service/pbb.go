package service

import "sort"

// DecisionMatrix is the four-flag fiscal guidance attached to a PBB
// category.
type DecisionMatrix struct {
	InvestMore     bool `json:"invest_more"`
	ReduceSpending bool `json:"reduce_spending"`
	ShiftFromGF    bool `json:"shift_from_GF"`
	AvoidGF        bool `json:"avoid_GF"`
}

// Category is one of the sixteen PBB strategy categories. The index
// encodes the four high/low bits: reliance + mandate*2 + cost*4 +
// impact*8 + 1.
type Category struct {
	Name                    string         `json:"name"`
	PreferredRecommendation string         `json:"preferred_recommendation"`
	PrimaryInsights         []string       `json:"primary_insights"`
	SecondaryInsights       []string       `json:"secondary_insights"`
	DecisionMatrix          DecisionMatrix `json:"decision_matrix"`
	StrategicGuidance       string         `json:"strategic_guidance"`
}

// Categories is the fixed PBB category table, keyed 1-16.
var Categories = map[int]Category{
	1: {
		Name:                    "Low Impact + Low Cost + Low Mandate + Low Reliance",
		PreferredRecommendation: "Downsize/exit or outsource/use GP partners; avoid GF spend.",
		PrimaryInsights:         []string{"service_level", "sourcing", "efficiency"},
		SecondaryInsights:       []string{"cost_recovery"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: true, ShiftFromGF: true, AvoidGF: true},
		StrategicGuidance:       "Focus on service level adjustments, sourcing alternatives, and efficiency improvements. Avoid GF spend; reduce spending, prefer outsourcing, optional small fees for funding.",
	},
	2: {
		Name:                    "Low Impact + Low Cost + Low Mandate + High Reliance",
		PreferredRecommendation: "Preserve access but shift burden off GP via spin-off/partners/fees.",
		PrimaryInsights:         []string{"sourcing", "cost_recovery"},
		SecondaryInsights:       []string{"efficiency", "revenue_growth"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: true, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Prioritize sourcing options, cost recovery methods, and revenue growth strategies. Avoid Do not invest more, reduce spending, prefer outsourcing, optional small fees for funding, seek fee/sponsorships.",
	},
	3: {
		Name:                    "Low Impact + Low Cost + High Mandate + Low Reliance",
		PreferredRecommendation: "Meet mandate efficiently at lowest cost; share/contract if cheaper.",
		PrimaryInsights:         []string{"efficiency", "sourcing"},
		SecondaryInsights:       []string{"cost_recovery", "service_level"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: true, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Focus on efficiency improvements and sourcing options. Strategic Matrix: Avoid General Fund investments (lightest spending, prefer outsourcing, explore alternative funding where allowed.",
	},
	4: {
		Name:                    "Low Impact + Low Cost + High Mandate + High Reliance",
		PreferredRecommendation: "Maintain compliance & access; optimize and recover partial cost.",
		PrimaryInsights:         []string{"efficiency", "cost_recovery"},
		SecondaryInsights:       []string{"sourcing"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: false, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Decision Matrix: Invest only for compliance, avoid service harm when reducing spending, evaluate outsourcing, implement partial alternative funding.",
	},
	5: {
		Name:                    "Low Impact + High Cost + Low Mandate + Low Reliance",
		PreferredRecommendation: "Prime candidate to downsize/exit or outsource; repurpose assets.",
		PrimaryInsights:         []string{"service_level", "sourcing"},
		SecondaryInsights:       []string{"efficiency", "revenue_growth"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: true, ShiftFromGF: true, AvoidGF: true},
		StrategicGuidance:       "Decision Matrix: Do not invest more, reduce spending, prefer outsourcing, only consider alternative if retained at full cost.",
	},
	6: {
		Name:                    "Low Impact + High Cost + Low Mandate + High Reliance",
		PreferredRecommendation: "General Mandate: Rapidly subsidize, offer outsourcing, or exit service.",
		PrimaryInsights:         []string{"cost_recovery", "sourcing"},
		SecondaryInsights:       []string{"efficiency", "revenue_growth"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: true, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Strategic Matrix: Prioritize cost recovery methods and sourcing options. Decision Matrix: Avoid General Fund investments, do not subsidize without an ROI, subsidize shift to users/partners.",
	},
	7: {
		Name:                    "Low Impact + High Cost + High Mandate + Low Reliance",
		PreferredRecommendation: "Meet mandate efficiently; consider outsourcing, aggressively pursue alternative funding.",
		PrimaryInsights:         []string{"efficiency", "sourcing"},
		SecondaryInsights:       []string{"cost_recovery"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: true, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Decision Matrix: Meet mandate efficiently; regionalize/share to lower unit cost. Strategic Insights: Focus on sourcing options and efficiency improvements.",
	},
	8: {
		Name:                    "Low Impact + High Cost + High Mandate + High Reliance",
		PreferredRecommendation: "Maintain compliance & essential access at lowest sustainable cost.",
		PrimaryInsights:         []string{"efficiency", "cost_recovery"},
		SecondaryInsights:       []string{"sourcing"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: false, ShiftFromGF: false, AvoidGF: false},
		StrategicGuidance:       "Strategic Insights: Prioritize efficiency improvements and cost recovery methods. Decision Matrix: Invest only if cost-saving ROI, careful spending reductions, evaluate outsourcing, pursue alternative funding.",
	},
	9: {
		Name:                    "High Impact + Low Cost + Low Mandate + Low Reliance",
		PreferredRecommendation: "Maintain or grow cautiously with partners/fees; avoid GF growth.",
		PrimaryInsights:         []string{"cost_recovery", "sourcing"},
		SecondaryInsights:       []string{"efficiency", "revenue_growth"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: false, ShiftFromGF: true, AvoidGF: true},
		StrategicGuidance:       "Strategic Insights: Prioritize cost recovery, sourcing alternatives, and revenue growth. Decision Matrix: Invest cautiously only with ROI or cost recovery, no GF spending increases, prefer fee/partnership funding.",
	},
	10: {
		Name:                    "High Impact + Low Cost + Low Mandate + High Reliance",
		PreferredRecommendation: "Sustain and consider expansion via partnerships or fees.",
		PrimaryInsights:         []string{"cost_recovery", "revenue_growth"},
		SecondaryInsights:       []string{"efficiency", "sourcing"},
		DecisionMatrix:          DecisionMatrix{InvestMore: true, ReduceSpending: false, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Strategic Insights: Prioritize revenue growth and cost recovery strategies. Decision Matrix: Selective GF investment with ROI analysis, maintain spending, grow via partnerships/fees.",
	},
	11: {
		Name:                    "High Impact + Low Cost + High Mandate + Low Reliance",
		PreferredRecommendation: "Sustain service; seek efficiency gains and alternative funding.",
		PrimaryInsights:         []string{"efficiency", "cost_recovery"},
		SecondaryInsights:       []string{"sourcing"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: false, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Strategic Insights: Focus on efficiency improvements and cost recovery. Decision Matrix: Selective investment for mandate compliance, maintain spending, pursue alternative funding.",
	},
	12: {
		Name:                    "High Impact + Low Cost + High Mandate + High Reliance",
		PreferredRecommendation: "Protect and sustain; optimize operations for efficiency.",
		PrimaryInsights:         []string{"efficiency"},
		SecondaryInsights:       []string{"cost_recovery"},
		DecisionMatrix:          DecisionMatrix{InvestMore: true, ReduceSpending: false, ShiftFromGF: false, AvoidGF: false},
		StrategicGuidance:       "Strategic Insights: Focus on operational efficiency and service optimization. Decision Matrix: Protect from cuts, selective GF investment, maintain or grow spending carefully.",
	},
	13: {
		Name:                    "High Impact + High Cost + Low Mandate + Low Reliance",
		PreferredRecommendation: "Sustain with partnerships/fees; avoid GF growth unless strong ROI.",
		PrimaryInsights:         []string{"cost_recovery", "efficiency"},
		SecondaryInsights:       []string{"sourcing", "revenue_growth"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: false, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Strategic Insights: Prioritize cost recovery and efficiency improvements. Decision Matrix: Selective investment with strong ROI, maintain spending, pursue alternative funding.",
	},
	14: {
		Name:                    "High Impact + High Cost + Low Mandate + High Reliance",
		PreferredRecommendation: "Sustain core service; seek efficiency and alternative funding.",
		PrimaryInsights:         []string{"efficiency", "cost_recovery"},
		SecondaryInsights:       []string{"sourcing"},
		DecisionMatrix:          DecisionMatrix{InvestMore: true, ReduceSpending: false, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Strategic Insights: Focus on efficiency and cost recovery. Decision Matrix: Selective GF investment with ROI, maintain or grow cautiously, pursue alternative funding.",
	},
	15: {
		Name:                    "High Impact + High Cost + High Mandate + Low Reliance",
		PreferredRecommendation: "Sustain mandate; optimize and seek alternative funding.",
		PrimaryInsights:         []string{"efficiency", "cost_recovery"},
		SecondaryInsights:       []string{"sourcing"},
		DecisionMatrix:          DecisionMatrix{InvestMore: false, ReduceSpending: false, ShiftFromGF: true, AvoidGF: false},
		StrategicGuidance:       "Strategic Insights: Prioritize efficiency and cost recovery. Decision Matrix: Invest for mandate compliance, maintain spending, pursue alternative funding.",
	},
	16: {
		Name:                    "High Impact + High Cost + High Mandate + High Reliance",
		PreferredRecommendation: "Core mission-critical; protect and optimize.",
		PrimaryInsights:         []string{"efficiency"},
		SecondaryInsights:       []string{"cost_recovery"},
		DecisionMatrix:          DecisionMatrix{InvestMore: true, ReduceSpending: false, ShiftFromGF: false, AvoidGF: false},
		StrategicGuidance:       "Strategic Insights: Focus on operational excellence and service optimization. Decision Matrix: Protect from cuts, strategic GF investment, maintain or grow spending as needed.",
	},
}

// Classify places a program into one of the sixteen categories.
//
// Impact is high for quartiles 1-2, cost is high above the dataset
// median, mandate and reliance are high at score 3 or above. The bits
// weigh reliance 1, mandate 2, cost 4, impact 8, so categories 1-8 are
// the low impact programs and 9-16 the high impact ones.
func Classify(quartile string, totalCost, medianCost float64, mandate, reliance *int) int {
	impactBit := 0
	if QuartileRank(quartile) <= 2 {
		impactBit = 1
	}

	costBit := 0
	if totalCost > medianCost {
		costBit = 1
	}

	mandateBit := 0
	if mandate != nil && *mandate >= 3 {
		mandateBit = 1
	}

	relianceBit := 0
	if reliance != nil && *reliance >= 3 {
		relianceBit = 1
	}

	return relianceBit + mandateBit*2 + costBit*4 + impactBit*8 + 1
}

// medianCost returns the median of the non-zero values, 0 when none.
func medianCost(costs []float64) float64 {
	vals := make([]float64, 0, len(costs))
	for _, c := range costs {
		if c != 0 {
			vals = append(vals, c)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}
