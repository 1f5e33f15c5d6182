// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package profile loads the job profile document and validates it into an
// immutable typed configuration. Malformed or missing fields fail with a
// named validation error at load time; nothing defaults silently into the
// scoring path.
package profile

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cvlens/pkg/types"
)

// ValidationError names the profile field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid job profile: field %q %s", e.Field, e.Reason)
}

// document is the loosely-typed YAML shape the profile file uses.
type document struct {
	JobTitle string `yaml:"job_title"`
	Weights  struct {
		Skills     *float64 `yaml:"skills"`
		Education  *float64 `yaml:"education"`
		Experience *float64 `yaml:"experience"`
	} `yaml:"weights"`
	Skills struct {
		Required  []string `yaml:"required"`
		Preferred []string `yaml:"preferred"`
	} `yaml:"skills"`
	Education  string `yaml:"education"`
	Experience string `yaml:"experience"`
}

// Load reads and validates the job profile YAML at path.
func Load(path string) (types.JobProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.JobProfile{}, fmt.Errorf("reading job profile %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates a job profile document from raw YAML.
func Parse(data []byte) (types.JobProfile, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.JobProfile{}, fmt.Errorf("parsing job profile: %w", err)
	}

	if strings.TrimSpace(doc.JobTitle) == "" {
		return types.JobProfile{}, &ValidationError{Field: "job_title", Reason: "is required"}
	}
	for _, w := range []struct {
		name  string
		value *float64
	}{
		{"weights.skills", doc.Weights.Skills},
		{"weights.education", doc.Weights.Education},
		{"weights.experience", doc.Weights.Experience},
	} {
		if w.value == nil {
			return types.JobProfile{}, &ValidationError{Field: w.name, Reason: "is required"}
		}
		if *w.value < 0 {
			return types.JobProfile{}, &ValidationError{Field: w.name, Reason: "must be non-negative"}
		}
	}
	if len(doc.Skills.Required) == 0 && len(doc.Skills.Preferred) == 0 {
		return types.JobProfile{}, &ValidationError{Field: "skills", Reason: "must list at least one required or preferred skill"}
	}

	return types.JobProfile{
		Title: doc.JobTitle,
		Weights: types.ProfileWeights{
			Skills:     *doc.Weights.Skills,
			Education:  *doc.Weights.Education,
			Experience: *doc.Weights.Experience,
		},
		RequiredSkills:     cleanList(doc.Skills.Required),
		PreferredSkills:    cleanList(doc.Skills.Preferred),
		EducationCriteria:  strings.TrimSpace(doc.Education),
		ExperienceCriteria: strings.TrimSpace(doc.Experience),
	}, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
