// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/cvlens/pkg/types"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// phoneRe tolerates international prefixes and common separators but
	// requires at least nine digits overall so street numbers and years
	// do not match.
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().\-/]{7,}\d`)
)

// sectionHeadings maps the entity field to the heading spellings that open
// its block in a typical resume.
var sectionHeadings = map[string][]string{
	"education": {
		"education", "academic background", "academic qualifications", "qualifications",
	},
	"experience": {
		"experience", "work experience", "professional experience",
		"employment", "employment history", "work history",
	},
}

// otherHeadings close a section without opening one we track.
var otherHeadings = []string{
	"skills", "technical skills", "summary", "profile", "objective",
	"projects", "certifications", "certificates", "languages", "interests",
	"references", "publications", "awards", "contact",
}

// baseSkills is the controlled vocabulary matched against resume text.
// ExtractConfig.ExtraSkills extends it per deployment.
var baseSkills = []string{
	"Go", "Golang", "Python", "Java", "JavaScript", "TypeScript", "C++", "C#",
	"Ruby", "Rust", "Scala", "Kotlin", "Swift", "PHP", "SQL",
	"React", "Vue", "Angular", "Node.js", "Django", "Flask", "Spring",
	"Docker", "Kubernetes", "Terraform", "Ansible", "Jenkins", "CI/CD",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch", "Kafka",
	"AWS", "Azure", "GCP", "Linux", "Git", "GraphQL", "REST", "gRPC",
	"Microservices", "Machine Learning", "Data Science", "DevOps", "Agile",
	"Scrum", "TDD", "NLP", "Spark", "Hadoop",
}

func skillsVocabulary(extra []string) []string {
	vocab := make([]string, 0, len(baseSkills)+len(extra))
	vocab = append(vocab, baseSkills...)
	vocab = append(vocab, extra...)
	return vocab
}

// extractEntities pulls structured fields out of normalized resume text.
// Email and phone are deterministic regex matches; the name is a
// best-effort heuristic and may be empty; skills match the controlled
// vocabulary; education and experience come from section headings.
func (e *Extractor) extractEntities(text string) types.Entities {
	var ent types.Entities

	ent.Email = emailRe.FindString(text)
	ent.Phone = strings.TrimSpace(phoneRe.FindString(text))
	ent.Name = guessName(text)
	ent.Skills = matchSkills(text, e.skills)

	sections := splitSections(text)
	ent.Education = sections["education"]
	ent.Experience = sections["experience"]
	return ent
}

// guessName scans the top of the document for a short title-cased line
// that is not an address, heading, or contact detail. Best effort only.
func guessName(text string) string {
	lines := strings.Split(text, "\n")
	limit := 10
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line, "@0123456789") {
			continue
		}
		if isHeading(line) != "" || isOtherHeading(line) {
			continue
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		titleCased := true
		for _, word := range words {
			r := []rune(word)[0]
			if !unicode.IsUpper(r) {
				titleCased = false
				break
			}
		}
		if titleCased {
			return line
		}
	}
	return ""
}

// matchSkills returns vocabulary entries present in the text,
// case-insensitive, deduplicated, and sorted for determinism.
func matchSkills(text string, vocab []string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var skills []string
	for _, skill := range vocab {
		if skill == "" || seen[skill] {
			continue
		}
		if strings.Contains(lower, strings.ToLower(skill)) {
			seen[skill] = true
			skills = append(skills, skill)
		}
	}
	sort.Strings(skills)
	return skills
}

// splitSections walks the document line by line, opening a tracked block
// when a known heading appears and closing it at the next heading of any
// kind. Line order within a block is preserved.
func splitSections(text string) map[string][]string {
	sections := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if field := isHeading(trimmed); field != "" {
			current = field
			continue
		}
		if isOtherHeading(trimmed) {
			current = ""
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], trimmed)
		}
	}
	return sections
}

// isHeading reports which tracked section a line opens, or "".
func isHeading(line string) string {
	normalized := normalizeHeading(line)
	for field, spellings := range sectionHeadings {
		for _, h := range spellings {
			if normalized == h {
				return field
			}
		}
	}
	return ""
}

func isOtherHeading(line string) bool {
	normalized := normalizeHeading(line)
	for _, h := range otherHeadings {
		if normalized == h {
			return true
		}
	}
	return false
}

func normalizeHeading(line string) string {
	line = strings.TrimRight(line, ":")
	return strings.ToLower(strings.TrimSpace(line))
}

// englishStopwords is the in-vocabulary set used for language tagging.
var englishStopwords = map[string]bool{
	"the": true, "and": true, "of": true, "to": true, "in": true, "a": true,
	"for": true, "with": true, "on": true, "at": true, "as": true, "is": true,
	"was": true, "an": true, "by": true, "from": true, "that": true,
	"this": true, "are": true, "be": true, "or": true, "have": true,
	"has": true, "had": true, "my": true, "i": true, "we": true,
}

// minStopwordRatio is the floor below which text is tagged "unknown".
const minStopwordRatio = 0.03

// detectLanguage tags text "en" when enough common English words appear,
// and "unknown" otherwise. Documents tagged unknown still flow through
// extraction and scoring; they are never dropped for language alone.
func detectLanguage(text string) string {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return "unknown"
	}
	hits := 0
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,;:!?()[]\"'")
		if englishStopwords[tok] {
			hits++
		}
	}
	if float64(hits)/float64(len(tokens)) >= minStopwordRatio {
		return "en"
	}
	return "unknown"
}
