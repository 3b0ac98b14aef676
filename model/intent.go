package model

// IntentKind is the classified purpose of a natural-language query,
// driving retrieval strategy selection
type IntentKind string

const (
	IntentEntityProfile  IntentKind = "entity_profile"
	IntentComparison     IntentKind = "comparison"
	IntentInvestmentInfo IntentKind = "investment_info"
	IntentTrendAnalysis  IntentKind = "trend_analysis"
	IntentMultiHop       IntentKind = "multi_hop"
	IntentGeneral        IntentKind = "general"
)

// Intent is the result of rule-based query classification.
// Confidence is a fixed heuristic value per rule, not a calibrated
// probability. Subjects are candidate entity names found in the question.
type Intent struct {
	Kind       IntentKind `json:"kind"`
	Confidence float64    `json:"confidence"`
	Subjects   []string   `json:"subjects,omitempty"`
}
