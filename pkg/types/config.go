package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "cvlens/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// IngestConfig holds settings for the ingest stage.
type IngestConfig struct {
	HTTPConfig `yaml:",inline"`

	// FolderID is the mail folder authorized for access. The ingest stage
	// never lists or downloads outside this folder's subtree.
	FolderID string `json:"folder_id" yaml:"folder_id"`

	// IncludeSubfolders extends the scope to the folder's subtree.
	IncludeSubfolders bool `json:"include_subfolders" yaml:"include_subfolders"`

	// MaxAttachmentBytes rejects larger attachments (default 25 MiB).
	MaxAttachmentBytes int64 `json:"max_attachment_bytes" yaml:"max_attachment_bytes"`

	// AllowedExtensions lists accepted attachment extensions, lowercase
	// with leading dot (default .pdf, .doc, .docx).
	AllowedExtensions []string `json:"allowed_extensions" yaml:"allowed_extensions"`

	// RetentionDays bounds message listing to the last N days (default 30).
	RetentionDays int `json:"retention_days" yaml:"retention_days"`

	// CacheDir is the base directory for downloaded attachments.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`
}

// ExtractConfig holds settings for the extract stage.
type ExtractConfig struct {
	// MinCharsPerPage is the text-density floor below which a PDF with
	// image streams is routed to OCR (default 50).
	MinCharsPerPage float64 `json:"min_chars_per_page" yaml:"min_chars_per_page"`

	// OCREnabled controls whether the OCR fallback runs at all.
	OCREnabled bool `json:"ocr_enabled" yaml:"ocr_enabled"`

	// OCRLanguage is the tesseract language code (default "eng").
	OCRLanguage string `json:"ocr_language" yaml:"ocr_language"`

	// TessdataDir overrides the tesseract language-data directory. Empty
	// means the system default.
	TessdataDir string `json:"tessdata_dir" yaml:"tessdata_dir"`

	// ExtraSkills extends the built-in skills vocabulary.
	ExtraSkills []string `json:"extra_skills" yaml:"extra_skills"`
}

// ScoreConfig holds settings for the score stage.
type ScoreConfig struct {
	// ProfilePath is the job profile YAML file.
	ProfilePath string `json:"profile_path" yaml:"profile_path"`

	// RequiredSkillWeight is how much heavier a required-skill match counts
	// relative to a preferred-skill match (default 2.0). Heuristic policy,
	// not an algorithmic constant.
	RequiredSkillWeight float64 `json:"required_skill_weight" yaml:"required_skill_weight"`
}

// StorageConfig holds settings for the persistence layer.
type StorageConfig struct {
	// DataDir is the base directory for durable state (contains db/, cache/).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all stage configurations for one sync invocation.
type PipelineConfig struct {
	Ingest  IngestConfig  `json:"ingest" yaml:"ingest"`
	Extract ExtractConfig `json:"extract" yaml:"extract"`
	Score   ScoreConfig   `json:"score" yaml:"score"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
}
