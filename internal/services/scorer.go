package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"alfredoptarigan/cv-screener/internal/models"
)

const (
	MandatoryWeight        = 70.0
	PreferredWeight        = 30.0
	DefaultAcceptThreshold = 60.0
)

// MatchScorer compares a candidate's skills with a job's requirements.
type MatchScorer struct {
	acceptThreshold float64
}

func NewMatchScorer(acceptThreshold float64) *MatchScorer {
	if acceptThreshold <= 0 || acceptThreshold > 100 {
		acceptThreshold = DefaultAcceptThreshold
	}
	return &MatchScorer{acceptThreshold: acceptThreshold}
}

// Score is total: empty or missing requirement lists count as fully satisfied.
//
// A requirement is met when any candidate skill contains it or is contained
// in it, ignoring case.
func (s *MatchScorer) Score(candidateSkills []string, reqs models.JobRequirements) models.MatchResult {
	candidate := normalizeSet(candidateSkills)
	mandatory := normalizeSet(reqs.MandatorySkills)
	preferred := normalizeSet(reqs.PreferredSkills)

	matchedMandatory, missingMandatory := partitionMatches(mandatory, candidate)
	matchedPreferred, _ := partitionMatches(preferred, candidate)

	mandatoryScore := MandatoryWeight
	if len(mandatory) > 0 {
		mandatoryScore = float64(len(matchedMandatory)) / float64(len(mandatory)) * MandatoryWeight
	}

	preferredScore := PreferredWeight
	if len(preferred) > 0 {
		preferredScore = float64(len(matchedPreferred)) / float64(len(preferred)) * PreferredWeight
	}

	score := clampScore(round2(mandatoryScore + preferredScore))
	hasAllMandatory := len(missingMandatory) == 0

	decision := models.DecisionReject
	if score >= s.acceptThreshold && hasAllMandatory {
		decision = models.DecisionAccept
	}

	return models.MatchResult{
		Score:            score,
		Decision:         decision,
		HasAllMandatory:  hasAllMandatory,
		MatchedMandatory: matchedMandatory,
		MissingMandatory: missingMandatory,
		MatchedPreferred: matchedPreferred,
	}
}

func partitionMatches(required, candidate []string) (matched, missing []string) {
	matched, missing = []string{}, []string{}
	for _, req := range required {
		if skillMatches(req, candidate) {
			matched = append(matched, req)
		} else {
			missing = append(missing, req)
		}
	}
	return matched, missing
}

func skillMatches(required string, candidate []string) bool {
	for _, c := range candidate {
		if strings.Contains(c, required) || strings.Contains(required, c) {
			return true
		}
	}
	return false
}

// normalizeSet lower-cases, trims, drops blanks and removes duplicates while
// keeping first-seen order.
func normalizeSet(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		s = normalizeSkill(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
