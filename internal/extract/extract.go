// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns raw attachment bytes into normalized resume text
// and structured entities. Decoding dispatches on file extension to a
// format-specific decoder; PDFs with a sparse text layer fall back to OCR.
// Extraction never lets a failure escape the per-document boundary: any
// decode error is folded into the document's status.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pdiddy/cvlens/pkg/types"
)

// decoder converts one format's raw bytes to plain text. usedOCR reports
// whether the OCR fallback ran, even when the decode ultimately failed.
type decoder interface {
	Decode(data []byte) (text string, usedOCR bool, err error)
}

// Extractor holds the decoder registry and entity-extraction settings.
type Extractor struct {
	cfg      types.ExtractConfig
	decoders map[string]decoder
	skills   []string
}

// New builds an Extractor with decoders for .pdf, .doc, and .docx.
func New(cfg types.ExtractConfig) *Extractor {
	if cfg.MinCharsPerPage <= 0 {
		cfg.MinCharsPerPage = defaultMinCharsPerPage
	}
	if cfg.OCRLanguage == "" {
		cfg.OCRLanguage = "eng"
	}

	var engine ocrEngine
	if cfg.OCREnabled {
		engine = &tesseractEngine{lang: cfg.OCRLanguage, tessdata: cfg.TessdataDir}
	}

	return &Extractor{
		cfg: cfg,
		decoders: map[string]decoder{
			".pdf":  &pdfDecoder{minCharsPerPage: cfg.MinCharsPerPage, ocr: engine},
			".doc":  &docDecoder{},
			".docx": &docxDecoder{},
		},
		skills: skillsVocabulary(cfg.ExtraSkills),
	}
}

// Extract converts one ingestion record into an extracted document. It
// never panics or returns an error: unsupported formats, empty documents,
// and decode failures are all reported through the document's status so
// the pipeline can continue with the next item.
func (e *Extractor) Extract(rec types.IngestionRecord) types.ExtractedDocument {
	doc := types.ExtractedDocument{
		SourceHash:  rec.ContentHash,
		LanguageTag: "unknown",
	}

	ext := strings.ToLower(filepath.Ext(rec.AttachmentFilename))
	dec, ok := e.decoders[ext]
	if !ok {
		// The ingest policy should have filtered these already.
		doc.Status = types.ExtractionUnsupported
		doc.StatusDetail = fmt.Sprintf("no decoder for %q", ext)
		return doc
	}

	text, usedOCR, err := dec.Decode(rec.RawBytes)
	doc.UsedOCR = usedOCR
	if err != nil {
		doc.Status = types.ExtractionFailed
		doc.StatusDetail = err.Error()
		return doc
	}

	doc.RawText = normalizeText(text)
	if doc.RawText == "" {
		doc.Status = types.ExtractionEmpty
		doc.StatusDetail = "document produced no text"
		return doc
	}

	doc.LanguageTag = detectLanguage(doc.RawText)
	doc.Entities = e.extractEntities(doc.RawText)
	doc.Status = types.ExtractionOK
	return doc
}

// normalizeText collapses line endings and trims trailing whitespace per
// line so the entity heuristics see a consistent shape.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
