// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProfileWeights are the raw component weights from a job profile. The
// scorer normalizes them to sum to 1.0 regardless of their raw total, so
// {6, 2, 2} and {60, 20, 20} rank identically.
type ProfileWeights struct {
	Skills     float64 `json:"skills" yaml:"skills"`
	Education  float64 `json:"education" yaml:"education"`
	Experience float64 `json:"experience" yaml:"experience"`
}

// JobProfile is the validated, immutable hiring profile candidates are
// scored against. It is parsed from a YAML document at load time; malformed
// or missing fields fail with a named validation error rather than
// defaulting silently.
type JobProfile struct {
	Title           string         `json:"job_title" yaml:"job_title"`
	Weights         ProfileWeights `json:"weights" yaml:"weights"`
	RequiredSkills  []string       `json:"required_skills" yaml:"required_skills"`
	PreferredSkills []string       `json:"preferred_skills" yaml:"preferred_skills"`

	// EducationCriteria and ExperienceCriteria are free-text descriptions
	// compared against the extracted education/experience blocks.
	EducationCriteria  string `json:"education_criteria" yaml:"education_criteria"`
	ExperienceCriteria string `json:"experience_criteria" yaml:"experience_criteria"`
}
