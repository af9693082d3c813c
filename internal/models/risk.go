package models

// RiskAction is the recommended response to a scored login attempt.
type RiskAction string

const (
	ActionAllow      RiskAction = "Allow"
	ActionRequireMFA RiskAction = "RequireMfa"
	ActionBlock      RiskAction = "Block"
)

// Valid reports whether the action is one of the defined values.
func (a RiskAction) Valid() bool {
	switch a {
	case ActionAllow, ActionRequireMFA, ActionBlock:
		return true
	}
	return false
}

// RiskFactor is a single named, weighted signal that fired during analysis.
// Name is the stable machine identifier; Description is for humans.
type RiskFactor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Weight      int    `json:"weight"`
}

// RiskAnalysisResult is the engine's verdict for one login attempt.
// Score is the capped sum of factor weights, always within [0, 100].
type RiskAnalysisResult struct {
	Score   int          `json:"risk_score"`
	Factors []RiskFactor `json:"risk_factors"`
	Action  RiskAction   `json:"recommended_action"`
}
