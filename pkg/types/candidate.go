// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Stage identifies a pipeline stage for processing-log entries.
type Stage string

const (
	StageIngest  Stage = "ingest"
	StageExtract Stage = "extract"
	StageScore   Stage = "score"
)

// Outcome is the result of one stage attempt on one item.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeRetried Outcome = "retried"
	OutcomeFailed  Outcome = "failed"
)

// ExtractionStatus indicates how text extraction ended for a document.
type ExtractionStatus string

const (
	ExtractionOK          ExtractionStatus = "ok"
	ExtractionUnsupported ExtractionStatus = "unsupported_format"
	ExtractionEmpty       ExtractionStatus = "empty"
	ExtractionFailed      ExtractionStatus = "failed"
)

// DecisionStatus is the reviewer's decision state on a candidate.
type DecisionStatus string

const (
	DecisionNew        DecisionStatus = "new"
	DecisionInterested DecisionStatus = "interested"
	DecisionPass       DecisionStatus = "pass"
)

// IngestionRecord describes one unique attachment pulled from the mailbox.
// ContentHash is the SHA-256 of the raw attachment bytes and serves as the
// dedup key: a repeat hash is a no-op, not an error. RawBytes are owned by
// the ingest stage and handed to extraction; they are not retained once
// extraction succeeds.
type IngestionRecord struct {
	MessageID          string    `json:"message_id" yaml:"message_id"`
	AttachmentFilename string    `json:"attachment_filename" yaml:"attachment_filename"`
	ContentHash        string    `json:"content_hash" yaml:"content_hash"`
	RawBytes           []byte    `json:"-" yaml:"-"`
	SizeBytes          int64     `json:"size_bytes" yaml:"size_bytes"`
	ReceivedAt         time.Time `json:"received_at" yaml:"received_at"`
	SenderEmail        string    `json:"sender_email" yaml:"sender_email"`
	SenderName         string    `json:"sender_name" yaml:"sender_name"`
	Subject            string    `json:"subject" yaml:"subject"`

	// CachePath is where the raw attachment was saved on disk.
	CachePath string `json:"cache_path" yaml:"cache_path"`
}

// Entities holds the structured fields pulled out of resume text.
// Skills carries set semantics (unique, sorted); Education and Experience
// preserve document order.
type Entities struct {
	Name       string   `json:"name" yaml:"name"`
	Email      string   `json:"email" yaml:"email"`
	Phone      string   `json:"phone" yaml:"phone"`
	Skills     []string `json:"skills" yaml:"skills"`
	Education  []string `json:"education" yaml:"education"`
	Experience []string `json:"experience" yaml:"experience"`
}

// ExtractedDocument is the extraction stage's output for one ingestion record.
type ExtractedDocument struct {
	SourceHash  string           `json:"source_hash" yaml:"source_hash"`
	RawText     string           `json:"raw_text" yaml:"raw_text"`
	UsedOCR     bool             `json:"used_ocr" yaml:"used_ocr"`
	Entities    Entities         `json:"entities" yaml:"entities"`
	LanguageTag string           `json:"language_tag" yaml:"language_tag"`
	Status      ExtractionStatus `json:"status" yaml:"status"`

	// StatusDetail is a human-readable reason when Status is not ok.
	StatusDetail string `json:"status_detail,omitempty" yaml:"status_detail,omitempty"`
}

// ComponentScores are the per-dimension similarity scores, each in [0,1].
type ComponentScores struct {
	Skills     float64 `json:"skills" yaml:"skills"`
	Education  float64 `json:"education" yaml:"education"`
	Experience float64 `json:"experience" yaml:"experience"`
}

// ScoreReport is the scoring stage's output for one extracted document.
// Scoring is a pure function of (document, profile); identical inputs yield
// identical reports, and re-scoring overwrites the prior report.
type ScoreReport struct {
	SourceHash       string          `json:"source_hash" yaml:"source_hash"`
	OverallScore     float64         `json:"overall_score" yaml:"overall_score"`
	ComponentScores  ComponentScores `json:"component_scores" yaml:"component_scores"`
	MatchedRequired  []string        `json:"matched_required" yaml:"matched_required"`
	MatchedPreferred []string        `json:"matched_preferred" yaml:"matched_preferred"`
	ComputedAt       time.Time       `json:"computed_at" yaml:"computed_at"`
}

// Candidate joins an ingestion record, its extraction, its score, and the
// reviewer's mutable decision state. A candidate is created once its record
// first reaches extraction (a shell record on extraction failure, so the
// failure stays visible) and is never deleted implicitly.
type Candidate struct {
	ID string `json:"id" yaml:"id"`

	// Email metadata.
	MessageID   string    `json:"message_id" yaml:"message_id"`
	ReceivedAt  time.Time `json:"received_at" yaml:"received_at"`
	SenderEmail string    `json:"sender_email" yaml:"sender_email"`
	SenderName  string    `json:"sender_name" yaml:"sender_name"`
	Subject     string    `json:"subject" yaml:"subject"`

	// Resume metadata.
	ResumeFilename string `json:"resume_filename" yaml:"resume_filename"`
	ResumeHash     string `json:"resume_hash" yaml:"resume_hash"`
	ResumeSize     int64  `json:"resume_size_bytes" yaml:"resume_size_bytes"`

	// Extraction output.
	Name        string           `json:"name" yaml:"name"`
	Email       string           `json:"email" yaml:"email"`
	Phone       string           `json:"phone" yaml:"phone"`
	Skills      []string         `json:"skills" yaml:"skills"`
	Education   []string         `json:"education" yaml:"education"`
	Experience  []string         `json:"experience" yaml:"experience"`
	LanguageTag string           `json:"language_tag" yaml:"language_tag"`
	UsedOCR     bool             `json:"used_ocr" yaml:"used_ocr"`
	Extraction  ExtractionStatus `json:"extraction_status" yaml:"extraction_status"`

	// Scoring output.
	Score     float64         `json:"score" yaml:"score"`
	Breakdown ComponentScores `json:"breakdown" yaml:"breakdown"`
	Scored    bool            `json:"scored" yaml:"scored"`

	// Decision state.
	Status DecisionStatus `json:"status" yaml:"status"`
	Notes  string         `json:"notes" yaml:"notes"`
	Tags   []string       `json:"tags" yaml:"tags"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// ProcessingLogEntry is one append-only record of a stage attempt. Entries
// are never mutated or deleted by the pipeline.
type ProcessingLogEntry struct {
	Stage     Stage     `json:"stage" yaml:"stage"`
	Key       string    `json:"key" yaml:"key"`
	Outcome   Outcome   `json:"outcome" yaml:"outcome"`
	Detail    string    `json:"detail" yaml:"detail"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
