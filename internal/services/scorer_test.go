package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"alfredoptarigan/cv-screener/internal/models"
)

func TestMatchScorerScenarios(t *testing.T) {
	scorer := NewMatchScorer(DefaultAcceptThreshold)

	tests := []struct {
		name         string
		candidate    []string
		reqs         models.JobRequirements
		wantScore    float64
		wantDecision models.Decision
		wantAll      bool
		wantMissing  []string
	}{
		{
			name:      "half of mandatory, no preferred",
			candidate: []string{"react", "node.js"},
			reqs: models.JobRequirements{
				MandatorySkills: []string{"React", "TypeScript"},
				PreferredSkills: []string{"AWS"},
			},
			wantScore:    35,
			wantDecision: models.DecisionReject,
			wantAll:      false,
			wantMissing:  []string{"typescript"},
		},
		{
			name:      "no mandatory, all preferred",
			candidate: []string{"docker", "git"},
			reqs: models.JobRequirements{
				MandatorySkills: []string{},
				PreferredSkills: []string{"Docker"},
			},
			wantScore:    100,
			wantDecision: models.DecisionAccept,
			wantAll:      true,
			wantMissing:  []string{},
		},
		{
			name:         "empty requirements accept anyone",
			candidate:    nil,
			reqs:         models.JobRequirements{},
			wantScore:    100,
			wantDecision: models.DecisionAccept,
			wantAll:      true,
			wantMissing:  []string{},
		},
		{
			name:      "all mandatory, no preferred reaches threshold",
			candidate: []string{"go", "postgresql"},
			reqs: models.JobRequirements{
				MandatorySkills: []string{"Go", "PostgreSQL"},
				PreferredSkills: []string{"Kafka", "Redis"},
			},
			wantScore:    70,
			wantDecision: models.DecisionAccept,
			wantAll:      true,
			wantMissing:  []string{},
		},
		{
			name:      "high score but mandatory missing is rejected",
			candidate: []string{"python", "django", "docker", "aws"},
			reqs: models.JobRequirements{
				MandatorySkills: []string{"python", "django", "django rest", "kubernetes"},
				PreferredSkills: []string{"docker", "aws"},
			},
			wantScore:    82.5,
			wantDecision: models.DecisionReject,
			wantAll:      false,
			wantMissing:  []string{"kubernetes"},
		},
		{
			name:      "one of three preferred",
			candidate: []string{"go"},
			reqs: models.JobRequirements{
				MandatorySkills: []string{"go"},
				PreferredSkills: []string{"rust", "zig", "go"},
			},
			wantScore:    80,
			wantDecision: models.DecisionAccept,
			wantAll:      true,
			wantMissing:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(tt.candidate, tt.reqs)

			assert.InDelta(t, tt.wantScore, got.Score, 1e-9)
			assert.Equal(t, tt.wantDecision, got.Decision)
			assert.Equal(t, tt.wantAll, got.HasAllMandatory)
			assert.Equal(t, tt.wantMissing, got.MissingMandatory)
		})
	}
}

func TestMatchScorerSubstringMatching(t *testing.T) {
	scorer := NewMatchScorer(DefaultAcceptThreshold)

	// "react" is contained in "react native"; "node" is contained in "node.js".
	got := scorer.Score([]string{"React Native", "node"}, models.JobRequirements{
		MandatorySkills: []string{"react", "Node.js"},
	})

	assert.Equal(t, []string{"react", "node.js"}, got.MatchedMandatory)
	assert.Empty(t, got.MissingMandatory)
	assert.InDelta(t, 100.0, got.Score, 1e-9)
}

func TestMatchScorerNormalizesRequirements(t *testing.T) {
	scorer := NewMatchScorer(DefaultAcceptThreshold)

	got := scorer.Score([]string{"go"}, models.JobRequirements{
		MandatorySkills: []string{" Go ", "go", "", "  "},
	})

	assert.Equal(t, []string{"go"}, got.MatchedMandatory)
	assert.InDelta(t, 100.0, got.Score, 1e-9)
}

func TestMatchScorerThirdsRounding(t *testing.T) {
	scorer := NewMatchScorer(DefaultAcceptThreshold)

	got := scorer.Score([]string{"a1"}, models.JobRequirements{
		MandatorySkills: []string{"a1", "b2", "c3"},
	})

	// 1/3 * 70 + 30
	assert.InDelta(t, 53.33, got.Score, 1e-9)
	assert.Equal(t, models.DecisionReject, got.Decision)
}

func TestMatchScorerInvariants(t *testing.T) {
	scorer := NewMatchScorer(DefaultAcceptThreshold)
	pool := []string{"go", "python", "react", "docker", "aws", "sql", "kafka", "redis"}

	for m := 0; m <= 4; m++ {
		for p := 0; p <= 4; p++ {
			for c := 0; c <= len(pool); c++ {
				reqs := models.JobRequirements{
					MandatorySkills: pool[:m],
					PreferredSkills: pool[len(pool)-p:],
				}
				got := scorer.Score(pool[:c], reqs)

				name := fmt.Sprintf("m=%d p=%d c=%d", m, p, c)
				assert.GreaterOrEqual(t, got.Score, 0.0, name)
				assert.LessOrEqual(t, got.Score, 100.0, name)
				if got.Decision == models.DecisionAccept {
					assert.GreaterOrEqual(t, got.Score, DefaultAcceptThreshold, name)
					assert.True(t, got.HasAllMandatory, name)
				}
			}
		}
	}
}

func TestMatchScorerMonotonic(t *testing.T) {
	scorer := NewMatchScorer(DefaultAcceptThreshold)
	reqs := models.JobRequirements{
		MandatorySkills: []string{"go", "sql", "docker"},
		PreferredSkills: []string{"kafka", "aws"},
	}
	skills := []string{"go", "kafka", "sql", "aws", "docker"}

	prev := -1.0
	for i := 0; i <= len(skills); i++ {
		got := scorer.Score(skills[:i], reqs)
		assert.GreaterOrEqual(t, got.Score, prev, "adding a skill never lowers the score")
		prev = got.Score
	}
	assert.InDelta(t, 100.0, prev, 1e-9)
}

func TestNewMatchScorerThreshold(t *testing.T) {
	strict := NewMatchScorer(90)
	got := strict.Score([]string{"go"}, models.JobRequirements{
		MandatorySkills: []string{"go"},
		PreferredSkills: []string{"rust"},
	})
	assert.InDelta(t, 70.0, got.Score, 1e-9)
	assert.Equal(t, models.DecisionReject, got.Decision)

	invalid := NewMatchScorer(-5)
	got = invalid.Score([]string{"go"}, models.JobRequirements{
		MandatorySkills: []string{"go"},
		PreferredSkills: []string{"rust"},
	})
	assert.Equal(t, models.DecisionAccept, got.Decision, "out-of-range thresholds fall back to the default")
}

// Containment runs both ways, so a one-letter skill such as "c" satisfies
// every requirement that contains that letter.
func TestMatchScorerSingleLetterSkillMatchesBroadly(t *testing.T) {
	skills := DefaultSkillDictionary().ExtractSkills("Wrote embedded C firmware")
	assert.Contains(t, skills, "c")

	got := NewMatchScorer(DefaultAcceptThreshold).Score(skills, models.JobRequirements{
		MandatorySkills: []string{"React", "TypeScript", "Docker"},
	})

	assert.Equal(t, 100.0, got.Score)
	assert.Equal(t, models.DecisionAccept, got.Decision)
	assert.Equal(t, []string{"react", "typescript", "docker"}, got.MatchedMandatory)
}
