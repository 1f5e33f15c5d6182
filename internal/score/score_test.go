// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package score

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/cvlens/pkg/types"
)

func testProfile() types.JobProfile {
	return types.JobProfile{
		Title:              "Backend Engineer",
		Weights:            types.ProfileWeights{Skills: 6, Education: 2, Experience: 2},
		RequiredSkills:     []string{"Go", "PostgreSQL"},
		PreferredSkills:    []string{"Kubernetes", "Kafka"},
		EducationCriteria:  "bachelor degree computer science or equivalent",
		ExperienceCriteria: "five years backend services distributed systems",
	}
}

func testDoc(text string, skills []string) types.ExtractedDocument {
	return types.ExtractedDocument{
		SourceHash: "abc123",
		RawText:    text,
		Entities:   types.Entities{Skills: skills},
		Status:     types.ExtractionOK,
	}
}

func TestScore_Bounds(t *testing.T) {
	s := New(testProfile(), types.ScoreConfig{})

	docs := []types.ExtractedDocument{
		testDoc("Go PostgreSQL Kubernetes Kafka backend services distributed systems bachelor degree computer science", []string{"Go", "PostgreSQL", "Kubernetes", "Kafka"}),
		testDoc("watercolor painting and pottery classes", nil),
		testDoc("some go experience", []string{"Go"}),
	}
	for i, doc := range docs {
		report := s.Score(doc)
		assert.GreaterOrEqual(t, report.OverallScore, 0.0, "doc %d", i)
		assert.LessOrEqual(t, report.OverallScore, 100.0, "doc %d", i)
		for _, c := range []float64{report.ComponentScores.Skills, report.ComponentScores.Education, report.ComponentScores.Experience} {
			assert.GreaterOrEqual(t, c, 0.0)
			assert.LessOrEqual(t, c, 1.0)
		}
	}
}

func TestScore_EmptyDocumentScoresZero(t *testing.T) {
	s := New(testProfile(), types.ScoreConfig{})

	report := s.Score(types.ExtractedDocument{SourceHash: "abc123"})

	assert.Equal(t, "abc123", report.SourceHash)
	assert.Zero(t, report.OverallScore)
	assert.Zero(t, report.ComponentScores.Skills)
	assert.Empty(t, report.MatchedRequired)
	assert.True(t, report.ComputedAt.IsZero())
}

func TestScore_Deterministic(t *testing.T) {
	s := New(testProfile(), types.ScoreConfig{})
	doc := testDoc("Built Go services on PostgreSQL and Kafka for five years. Bachelor of computer science.",
		[]string{"Go", "PostgreSQL", "Kafka"})

	first := s.Score(doc)
	for i := 0; i < 10; i++ {
		again := s.Score(doc)
		// Bit-identical, not approximately equal.
		assert.Equal(t, first, again, "run %d", i)
	}
}

func TestScore_RequiredSkillsWeighHeavier(t *testing.T) {
	profile := types.JobProfile{
		Title:           "Backend Engineer",
		Weights:         types.ProfileWeights{Skills: 1},
		RequiredSkills:  []string{"Go"},
		PreferredSkills: []string{"Kafka"},
	}
	s := New(profile, types.ScoreConfig{})

	onlyRequired := s.Score(testDoc("deep Go expertise", []string{"Go"}))
	onlyPreferred := s.Score(testDoc("deep Kafka expertise", []string{"Kafka"}))

	assert.Greater(t, onlyRequired.OverallScore, onlyPreferred.OverallScore)
	assert.Equal(t, []string{"Go"}, onlyRequired.MatchedRequired)
	assert.Equal(t, []string{"Kafka"}, onlyPreferred.MatchedPreferred)
}

func TestScore_RequiredWeightConfigurable(t *testing.T) {
	profile := types.JobProfile{
		Title:           "Backend Engineer",
		Weights:         types.ProfileWeights{Skills: 1},
		RequiredSkills:  []string{"Go"},
		PreferredSkills: []string{"Kafka"},
	}
	doc := testDoc("deep Go expertise", []string{"Go"})

	low := New(profile, types.ScoreConfig{RequiredSkillWeight: 1.5}).Score(doc)
	high := New(profile, types.ScoreConfig{RequiredSkillWeight: 4.0}).Score(doc)

	// A heavier required weight raises the score of a required-only match.
	assert.Greater(t, high.OverallScore, low.OverallScore)
}

func TestScore_WeightNormalizationRankingEquivalence(t *testing.T) {
	strong := testDoc("Go PostgreSQL Kubernetes Kafka backend services bachelor computer science", []string{"Go", "PostgreSQL", "Kubernetes", "Kafka"})
	weak := testDoc("some go experience", []string{"Go"})

	small := testProfile()
	small.Weights = types.ProfileWeights{Skills: 6, Education: 2, Experience: 2}
	large := testProfile()
	large.Weights = types.ProfileWeights{Skills: 60, Education: 20, Experience: 20}

	for _, doc := range []types.ExtractedDocument{strong, weak} {
		a := New(small, types.ScoreConfig{}).Score(doc)
		b := New(large, types.ScoreConfig{}).Score(doc)
		assert.InDelta(t, a.OverallScore, b.OverallScore, 1e-9)
	}
}

func TestScore_AllZeroWeightsFallBackToThirds(t *testing.T) {
	profile := testProfile()
	profile.Weights = types.ProfileWeights{}
	s := New(profile, types.ScoreConfig{})

	report := s.Score(testDoc("Go PostgreSQL backend bachelor computer science", []string{"Go", "PostgreSQL"}))
	assert.Greater(t, report.OverallScore, 0.0)
}

func TestScore_MoreMatchesScoreHigher(t *testing.T) {
	s := New(testProfile(), types.ScoreConfig{})

	full := s.Score(testDoc("Go PostgreSQL Kubernetes Kafka", []string{"Go", "PostgreSQL", "Kubernetes", "Kafka"}))
	partial := s.Score(testDoc("Go only here", []string{"Go"}))

	assert.Greater(t, full.ComponentScores.Skills, partial.ComponentScores.Skills)
}

func TestMatchedSkills_FromTextWithoutEntities(t *testing.T) {
	doc := testDoc("Ten years writing Go and operating PostgreSQL clusters.", nil)
	matched := matchedSkills(doc, []string{"Go", "PostgreSQL", "Rust"})
	assert.Equal(t, []string{"Go", "PostgreSQL"}, matched)
}

func TestCosineTFIDF(t *testing.T) {
	assert.InDelta(t, 1.0, cosineTFIDF("go backend services", "go backend services"), 1e-9)
	assert.Zero(t, cosineTFIDF("go backend services", "watercolor pottery painting"))
	assert.Zero(t, cosineTFIDF("", "go backend"))

	sim := cosineTFIDF("go backend services kafka", "go backend deployment")
	assert.Greater(t, sim, 0.0)
	assert.Less(t, sim, 1.0)
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("The C# and C++ engineer, with Go!")
	assert.Equal(t, []string{"c#", "c++", "engineer", "go"}, tokens)
}

func TestScoreReport_StableAcrossMapOrder(t *testing.T) {
	// Exercise the sorted-term path with enough vocabulary that map
	// iteration order would otherwise vary between runs.
	var sb []byte
	for i := 0; i < 50; i++ {
		sb = append(sb, []byte(fmt.Sprintf("term%02d ", i))...)
	}
	a := string(sb) + " go backend"
	b := "go backend term25 term42"

	first := cosineTFIDF(a, b)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, cosineTFIDF(a, b))
	}
}
