package kyc

import (
	"math"

	"kycore/internal/domain"
	"kycore/pkg/config"
)

// Rule names used in scoring configuration, match results, and the
// risk-factor audit trail persisted on the verification.
const (
	RuleFullNameMatch = "fullNameMatch"
	RuleDOBMatch      = "dobMatch"
	RuleNINMatch      = "ninMatch"
	RuleBVNMatch      = "bvnMatch"
	RuleEmailMatch    = "emailMatch"
)

// ruleOrder fixes the iteration order so contributions and emitted risk
// factors are deterministic.
var ruleOrder = []string{
	RuleFullNameMatch,
	RuleDOBMatch,
	RuleNINMatch,
	RuleBVNMatch,
	RuleEmailMatch,
}

// ScoringRule is the configured weight of one match rule. Threshold is the
// minimum match ratio the upstream verifier applies for this rule; scoring
// itself is all-or-nothing on the verifier's boolean outcome.
type ScoringRule struct {
	Weight    int
	Threshold float64
}

// LevelThresholds classify a normalized 0-100 score into a risk level.
// Score >= Low is low risk, >= Medium is medium, anything below is high.
type LevelThresholds struct {
	Low    int
	Medium int
}

// ScoringConfig is the complete risk-scoring configuration. Weights and
// thresholds are data, not code: the scorer accepts this as a parameter and
// hard-codes nothing.
type ScoringConfig struct {
	Rules      map[string]ScoringRule
	Thresholds LevelThresholds
}

// DefaultScoringConfig returns the baseline compliance configuration.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Rules: map[string]ScoringRule{
			RuleFullNameMatch: {Weight: 10, Threshold: SimilarityThreshold},
			RuleDOBMatch:      {Weight: 10, Threshold: 1.0},
			RuleNINMatch:      {Weight: 15, Threshold: 1.0},
			RuleBVNMatch:      {Weight: 15, Threshold: 1.0},
			RuleEmailMatch:    {Weight: 10, Threshold: 1.0},
		},
		Thresholds: LevelThresholds{Low: 70, Medium: 40},
	}
}

// ScoringConfigFromEnv builds a ScoringConfig from the loaded service
// configuration, preserving the verifier-side match thresholds.
func ScoringConfigFromEnv(cfg config.RiskScoringConfig) ScoringConfig {
	return ScoringConfig{
		Rules: map[string]ScoringRule{
			RuleFullNameMatch: {Weight: cfg.FullNameWeight, Threshold: SimilarityThreshold},
			RuleDOBMatch:      {Weight: cfg.DOBWeight, Threshold: 1.0},
			RuleNINMatch:      {Weight: cfg.NINWeight, Threshold: 1.0},
			RuleBVNMatch:      {Weight: cfg.BVNWeight, Threshold: 1.0},
			RuleEmailMatch:    {Weight: cfg.EmailWeight, Threshold: 1.0},
		},
		Thresholds: LevelThresholds{Low: cfg.LowThreshold, Medium: cfg.MediumThreshold},
	}
}

// MatchResult is the all-or-nothing outcome of an external identity check.
type MatchResult struct {
	FullNameMatch bool `json:"full_name_match"`
	DOBMatch      bool `json:"dob_match"`
	NINMatch      bool `json:"nin_match"`
	BVNMatch      bool `json:"bvn_match"`
	EmailMatch    bool `json:"email_match"`
}

// Outcomes returns the result as a map of named boolean outcomes.
func (m MatchResult) Outcomes() map[string]bool {
	return map[string]bool{
		RuleFullNameMatch: m.FullNameMatch,
		RuleDOBMatch:      m.DOBMatch,
		RuleNINMatch:      m.NINMatch,
		RuleBVNMatch:      m.BVNMatch,
		RuleEmailMatch:    m.EmailMatch,
	}
}

// RiskScore is the scored and classified outcome of a verification check.
// Factors lists the rules that contributed zero, which is the audit trail of
// why the score is below the maximum.
type RiskScore struct {
	Score         int              `json:"score"`
	Level         domain.RiskLevel `json:"level"`
	Contributions map[string]int   `json:"contributions"`
	Factors       []string         `json:"factors"`
}

// CalculateRiskScore converts match outcomes into a normalized 0-100 score
// and a qualitative level. Each matched rule contributes its full configured
// weight; failed rules contribute zero and are emitted as risk factors. The
// sum is normalized against the total configured weight and rounded to the
// nearest integer.
func CalculateRiskScore(result MatchResult, cfg ScoringConfig) RiskScore {
	outcomes := result.Outcomes()

	contributions := make(map[string]int, len(ruleOrder))
	factors := make([]string, 0)
	total := 0
	maxPossible := 0

	for _, name := range ruleOrder {
		rule, ok := cfg.Rules[name]
		if !ok {
			continue
		}
		maxPossible += rule.Weight

		if outcomes[name] {
			contributions[name] = rule.Weight
			total += rule.Weight
		} else {
			contributions[name] = 0
			factors = append(factors, name)
		}
	}

	score := 0
	if maxPossible > 0 {
		score = int(math.Round(float64(total) / float64(maxPossible) * 100))
	}

	return RiskScore{
		Score:         score,
		Level:         classify(score, cfg.Thresholds),
		Contributions: contributions,
		Factors:       factors,
	}
}

func classify(score int, t LevelThresholds) domain.RiskLevel {
	switch {
	case score >= t.Low:
		return domain.RiskLevelLow
	case score >= t.Medium:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelHigh
	}
}
