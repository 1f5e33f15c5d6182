// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives one sync invocation through the ingest, extract,
// and score stages. The driver consults the processing log before each
// stage so an interrupted run resumes without repeating completed work;
// the ingest stage's hash index remains the safety net even if the log is
// lost. Items are processed one at a time with no shared mutable state
// beyond the store.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pdiddy/cvlens/internal/graph"
	"github.com/pdiddy/cvlens/internal/ingest"
	"github.com/pdiddy/cvlens/internal/score"
	"github.com/pdiddy/cvlens/pkg/types"
)

// Store is the slice of the persistence layer the driver needs.
type Store interface {
	ingest.Store
	SaveExtraction(ctx context.Context, rec types.IngestionRecord, doc types.ExtractedDocument) (string, error)
	SaveScore(ctx context.Context, report types.ScoreReport) error
	PendingExtractions(ctx context.Context) ([]types.IngestionRecord, error)
	Documents(ctx context.Context) ([]types.ExtractedDocument, error)
}

// Extractor is the extraction boundary; *extract.Extractor satisfies it.
type Extractor interface {
	Extract(rec types.IngestionRecord) types.ExtractedDocument
}

// Deps bundles the collaborators for one sync invocation. Scorer may be
// nil when the job profile failed validation; ingestion and extraction
// still run and their results remain valid.
type Deps struct {
	Source    graph.Source
	Store     Store
	Extractor Extractor
	Scorer    *score.Scorer
}

// Summary holds per-stage counts for one sync run.
type Summary struct {
	Ingest ingest.BatchResult

	Extracted      int
	ExtractSkipped int
	ExtractFailed  int

	Scored      int
	ScoreFailed int
}

// Sync executes the full pipeline for the configured folder scope:
// ingest new attachments, extract every pending document, and score the
// results. Failures are resolved per item and never abort the batch.
func Sync(ctx context.Context, deps Deps, cfg types.PipelineConfig, w io.Writer) (Summary, error) {
	var summary Summary

	result, records, err := ingest.Ingest(ctx, deps.Source, deps.Store, cfg.Ingest, w)
	if err != nil {
		return summary, fmt.Errorf("ingest: %w", err)
	}
	summary.Ingest = result

	// Fold in records from prior interrupted runs that never finished
	// extraction. Freshly ingested records carry their bytes; resumed
	// ones are reloaded from the attachment cache.
	byHash := make(map[string]bool, len(records))
	for _, rec := range records {
		byHash[rec.ContentHash] = true
	}
	pending, err := deps.Store.PendingExtractions(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing pending extractions: %w", err)
	}
	for _, rec := range pending {
		if byHash[rec.ContentHash] {
			continue
		}
		records = append(records, rec)
	}

	for _, rec := range records {
		processRecord(ctx, deps, rec, &summary, w)
	}

	fmt.Fprintf(w, "\nSync summary: %d ingested, %d extracted, %d scored (extract failures: %d, score failures: %d)\n",
		summary.Ingest.Ingested, summary.Extracted, summary.Scored,
		summary.ExtractFailed, summary.ScoreFailed)
	return summary, nil
}

// processRecord runs the extract and score stages for one item, checking
// the processing log before each stage.
func processRecord(ctx context.Context, deps Deps, rec types.IngestionRecord, summary *Summary, w io.Writer) {
	hash := rec.ContentHash

	if deps.Store.HasSucceeded(ctx, types.StageExtract, hash) {
		fmt.Fprintf(w, "skipped: %s (already extracted)\n", rec.AttachmentFilename)
		summary.ExtractSkipped++
		return
	}

	if len(rec.RawBytes) == 0 && rec.CachePath != "" {
		data, err := os.ReadFile(rec.CachePath)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", rec.AttachmentFilename, err)
			deps.Store.LogProcessing(ctx, types.ProcessingLogEntry{
				Stage: types.StageExtract, Key: hash,
				Outcome: types.OutcomeFailed, Detail: "reloading cached attachment: " + err.Error(),
			})
			summary.ExtractFailed++
			return
		}
		rec.RawBytes = data
	}

	doc := deps.Extractor.Extract(rec)

	// Even a failed extraction produces a candidate shell so the failure
	// is visible downstream rather than silently dropped.
	if _, err := deps.Store.SaveExtraction(ctx, rec, doc); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", rec.AttachmentFilename, err)
		deps.Store.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageExtract, Key: hash,
			Outcome: types.OutcomeFailed, Detail: err.Error(),
		})
		summary.ExtractFailed++
		return
	}
	rec.RawBytes = nil

	switch doc.Status {
	case types.ExtractionOK, types.ExtractionEmpty:
		fmt.Fprintf(w, "extracted: %s (ocr: %t, lang: %s)\n",
			rec.AttachmentFilename, doc.UsedOCR, doc.LanguageTag)
		deps.Store.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageExtract, Key: hash,
			Outcome: types.OutcomeSuccess, Detail: string(doc.Status),
		})
		summary.Extracted++
	default:
		fmt.Fprintf(w, "failed:  %s (%s: %s)\n",
			rec.AttachmentFilename, doc.Status, doc.StatusDetail)
		deps.Store.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageExtract, Key: hash,
			Outcome: types.OutcomeFailed, Detail: doc.StatusDetail,
		})
		summary.ExtractFailed++
	}

	if deps.Scorer == nil {
		return
	}
	scoreDocument(ctx, deps.Store, deps.Scorer, doc, summary, w)
}

// scoreDocument computes and persists the score for one document. Shell
// documents score zero on every component; they are still scored so the
// candidate is ranked rather than invisible.
func scoreDocument(ctx context.Context, st Store, scorer *score.Scorer, doc types.ExtractedDocument, summary *Summary, w io.Writer) {
	report := scorer.Score(doc)
	report.ComputedAt = time.Now().UTC()

	if err := st.SaveScore(ctx, report); err != nil {
		fmt.Fprintf(w, "failed:  scoring %s (%v)\n", shortHash(doc.SourceHash), err)
		st.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageScore, Key: doc.SourceHash,
			Outcome: types.OutcomeFailed, Detail: err.Error(),
		})
		summary.ScoreFailed++
		return
	}

	fmt.Fprintf(w, "scored: %s (%.1f)\n", shortHash(doc.SourceHash), report.OverallScore)
	st.LogProcessing(ctx, types.ProcessingLogEntry{
		Stage: types.StageScore, Key: doc.SourceHash,
		Outcome: types.OutcomeSuccess,
		Detail:  fmt.Sprintf("score %.2f", report.OverallScore),
	})
	summary.Scored++
}

// RescoreResult holds counts from a full re-score run.
type RescoreResult struct {
	Scored int
	Failed int
}

// Rescore recomputes every candidate's score against the given scorer,
// overwriting prior reports. Re-scoring after a profile edit is always a
// full recompute, never incremental.
func Rescore(ctx context.Context, st Store, scorer *score.Scorer, w io.Writer) (RescoreResult, error) {
	docs, err := st.Documents(ctx)
	if err != nil {
		return RescoreResult{}, fmt.Errorf("listing documents: %w", err)
	}

	var result RescoreResult
	var summary Summary
	for _, doc := range docs {
		scoreDocument(ctx, st, scorer, doc, &summary, w)
	}
	result.Scored = summary.Scored
	result.Failed = summary.ScoreFailed

	fmt.Fprintf(w, "\nRescore summary: %d scored, %d failed\n", result.Scored, result.Failed)
	return result, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
