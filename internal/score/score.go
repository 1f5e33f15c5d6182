// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes a candidate's 0-100 match score against a job
// profile using TF-IDF similarity over skill, education, and experience
// text. Scoring is a pure function of (document, profile): identical
// inputs always yield identical reports, and re-scoring overwrites the
// previous report rather than accumulating.
package score

import (
	"sort"
	"strings"

	"github.com/pdiddy/cvlens/pkg/types"
)

// defaultRequiredSkillWeight is how much heavier a required-skill match
// counts relative to a preferred one. Tunable policy, not a constant the
// algorithm depends on.
const defaultRequiredSkillWeight = 2.0

// coverageWeight blends direct skill-set overlap against the TF-IDF
// similarity of the full text; overlap dominates.
const coverageWeight = 0.7

// Scorer scores extracted documents against one job profile.
type Scorer struct {
	profile        types.JobProfile
	requiredWeight float64
}

// New builds a Scorer for the given validated profile.
func New(profile types.JobProfile, cfg types.ScoreConfig) *Scorer {
	rw := cfg.RequiredSkillWeight
	if rw <= 0 {
		rw = defaultRequiredSkillWeight
	}
	return &Scorer{profile: profile, requiredWeight: rw}
}

// Score computes the weighted match report for one document. An empty
// document scores zero on every component rather than erroring. The
// report's ComputedAt is left zero; the caller stamps it at persist time
// so scoring itself stays deterministic.
func (s *Scorer) Score(doc types.ExtractedDocument) types.ScoreReport {
	report := types.ScoreReport{SourceHash: doc.SourceHash}

	if strings.TrimSpace(doc.RawText) == "" {
		return report
	}

	skills, matchedReq, matchedPref := s.skillsComponent(doc)
	report.ComponentScores.Skills = skills
	report.MatchedRequired = matchedReq
	report.MatchedPreferred = matchedPref

	report.ComponentScores.Education = blockSimilarity(
		doc.Entities.Education, doc.RawText, s.profile.EducationCriteria)
	report.ComponentScores.Experience = blockSimilarity(
		doc.Entities.Experience, doc.RawText, s.profile.ExperienceCriteria)

	wSkills, wEdu, wExp := normalizeWeights(s.profile.Weights)
	overall := 100 * (wSkills*report.ComponentScores.Skills +
		wEdu*report.ComponentScores.Education +
		wExp*report.ComponentScores.Experience)
	report.OverallScore = clamp(overall, 0, 100)
	return report
}

// skillsComponent combines weighted coverage of the profile's skill sets
// with TF-IDF similarity between the resume text and the skill vocabulary.
func (s *Scorer) skillsComponent(doc types.ExtractedDocument) (float64, []string, []string) {
	matchedReq := matchedSkills(doc, s.profile.RequiredSkills)
	matchedPref := matchedSkills(doc, s.profile.PreferredSkills)

	denom := s.requiredWeight*float64(len(s.profile.RequiredSkills)) +
		float64(len(s.profile.PreferredSkills))

	var coverage float64
	if denom > 0 {
		coverage = (s.requiredWeight*float64(len(matchedReq)) +
			float64(len(matchedPref))) / denom
	}

	vocabulary := strings.Join(append(append([]string{},
		s.profile.RequiredSkills...), s.profile.PreferredSkills...), " ")
	similarity := cosineTFIDF(skillText(doc), vocabulary)

	component := coverageWeight*coverage + (1-coverageWeight)*similarity
	return clamp(component, 0, 1), matchedReq, matchedPref
}

// matchedSkills returns the profile skills present in the document's
// extracted skill set or raw text, sorted for determinism.
func matchedSkills(doc types.ExtractedDocument, profileSkills []string) []string {
	docSkills := make(map[string]bool, len(doc.Entities.Skills))
	for _, sk := range doc.Entities.Skills {
		docSkills[strings.ToLower(sk)] = true
	}
	lowerText := strings.ToLower(doc.RawText)

	var matched []string
	seen := make(map[string]bool)
	for _, sk := range profileSkills {
		lower := strings.ToLower(strings.TrimSpace(sk))
		if lower == "" || seen[lower] {
			continue
		}
		if docSkills[lower] || strings.Contains(lowerText, lower) {
			seen[lower] = true
			matched = append(matched, sk)
		}
	}
	sort.Strings(matched)
	return matched
}

// skillText is the document side of the skills similarity: the extracted
// skill set when present, the full text otherwise.
func skillText(doc types.ExtractedDocument) string {
	if len(doc.Entities.Skills) > 0 {
		return strings.Join(doc.Entities.Skills, " ") + " " + doc.RawText
	}
	return doc.RawText
}

// blockSimilarity compares an extracted section against the profile's
// free-text criteria, falling back to the whole document when the section
// heuristics found nothing.
func blockSimilarity(block []string, rawText, criteria string) float64 {
	if strings.TrimSpace(criteria) == "" {
		return 0
	}
	text := strings.Join(block, "\n")
	if strings.TrimSpace(text) == "" {
		text = rawText
	}
	return clamp(cosineTFIDF(text, criteria), 0, 1)
}

// normalizeWeights scales the raw profile weights to sum to 1.0, so
// {6,2,2} and {60,20,20} rank identically. All-zero weights fall back to
// equal thirds rather than dividing by zero.
func normalizeWeights(w types.ProfileWeights) (float64, float64, float64) {
	total := w.Skills + w.Education + w.Experience
	if total <= 0 {
		return 1.0 / 3, 1.0 / 3, 1.0 / 3
	}
	return w.Skills / total, w.Education / total, w.Experience / total
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
