// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest pulls resume attachments out of one mail folder and turns
// them into deduplicated ingestion records. The folder scope is a hard
// privacy boundary: listing and downloads never leave the configured
// folder's subtree. A single bad message or attachment never aborts the
// batch; it is logged and the run moves on.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/cvlens/internal/backoff"
	"github.com/pdiddy/cvlens/internal/graph"
	"github.com/pdiddy/cvlens/pkg/types"
)

const (
	defaultMaxAttachmentBytes = 25 << 20
	defaultRetentionDays      = 30
)

var defaultExtensions = []string{".pdf", ".doc", ".docx"}

// retryPolicy governs backoff on transient fetch failures. Tests override
// the base delay to avoid real sleeps.
var retryPolicy = backoff.Policy{Base: backoff.DefaultBase, MaxRetries: backoff.DefaultMaxRetries}

// Store is the slice of the persistence layer the ingest stage needs.
type Store interface {
	HasHash(ctx context.Context, hash string) (bool, error)
	HasSucceeded(ctx context.Context, stage types.Stage, key string) bool
	RegisterIngestion(ctx context.Context, rec types.IngestionRecord) error
	LogProcessing(ctx context.Context, entry types.ProcessingLogEntry)
}

// BatchResult holds the outcome of one ingest run.
type BatchResult struct {
	Ingested int
	Skipped  int
	Failed   int
}

// Total returns the number of attachments considered.
func (r BatchResult) Total() int {
	return r.Ingested + r.Skipped + r.Failed
}

// HasFailures reports whether any item failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Ingest lists messages in the configured folder scope, downloads
// attachments that pass the type/size policy, deduplicates them by content
// hash, and returns one ingestion record per unique attachment. Re-running
// over unchanged folder state yields no new records and no repeated
// downloads.
func Ingest(ctx context.Context, src graph.Source, st Store, cfg types.IngestConfig, w io.Writer) (BatchResult, []types.IngestionRecord, error) {
	cfg = withDefaults(cfg)
	if cfg.FolderID == "" {
		return BatchResult{}, nil, fmt.Errorf("folder scope is required")
	}

	folders, err := scopedFolders(ctx, src, cfg)
	if err != nil {
		return BatchResult{}, nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -cfg.RetentionDays)

	var (
		result  BatchResult
		records []types.IngestionRecord
	)

	for _, folderID := range folders {
		var messages []graph.Message
		err := retryFetch(ctx, st, "folder:"+folderID, func() error {
			var listErr error
			messages, listErr = src.Messages(ctx, folderID, since)
			return listErr
		}, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  folder %s (%v)\n", folderID, err)
			st.LogProcessing(ctx, types.ProcessingLogEntry{
				Stage: types.StageIngest, Key: "folder:" + folderID,
				Outcome: types.OutcomeFailed, Detail: err.Error(),
			})
			result.Failed++
			continue
		}

		for _, msg := range messages {
			// Messages are immutable once delivered, so a message that
			// completed cleanly on an earlier run is skipped before any
			// attachment listing or download happens.
			if st.HasSucceeded(ctx, types.StageIngest, msg.ID) {
				fmt.Fprintf(w, "skipped: %s (already ingested)\n", msg.ID)
				result.Skipped++
				continue
			}
			recs := processMessage(ctx, src, st, cfg, msg, &result, w)
			records = append(records, recs...)
		}
	}

	fmt.Fprintf(w, "\nIngest summary: %d ingested, %d skipped, %d failed (total: %d)\n",
		result.Ingested, result.Skipped, result.Failed, result.Total())
	return result, records, nil
}

// scopedFolders resolves the folder scope to a list of folder IDs. Only
// IDs reachable through ChildFolders of the configured root are included,
// so the scope cannot widen past the authorized subtree.
func scopedFolders(ctx context.Context, src graph.Source, cfg types.IngestConfig) ([]string, error) {
	folders := []string{cfg.FolderID}
	if !cfg.IncludeSubfolders {
		return folders, nil
	}

	queue := []string{cfg.FolderID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		children, err := src.ChildFolders(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("listing subfolders of %s: %w", id, err)
		}
		for _, child := range children {
			folders = append(folders, child.ID)
			if child.Children > 0 {
				queue = append(queue, child.ID)
			}
		}
	}
	return folders, nil
}

// processMessage applies the attachment policy to one message and ingests
// whatever passes it. Failures are confined to the single attachment.
func processMessage(ctx context.Context, src graph.Source, st Store, cfg types.IngestConfig, msg graph.Message, result *BatchResult, w io.Writer) []types.IngestionRecord {
	var attachments []graph.Attachment
	err := retryFetch(ctx, st, msg.ID, func() error {
		var listErr error
		attachments, listErr = src.Attachments(ctx, msg.ID)
		return listErr
	}, w)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", msg.ID, err)
		st.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageIngest, Key: msg.ID,
			Outcome: types.OutcomeFailed, Detail: err.Error(),
		})
		result.Failed++
		return nil
	}

	var records []types.IngestionRecord
	failedBefore := result.Failed
	for _, att := range attachments {
		rec, ok := ingestAttachment(ctx, src, st, cfg, msg, att, result, w)
		if ok {
			records = append(records, rec)
		}
	}

	// A message is marked done only when every attachment either ingested
	// or skipped. A failed attachment leaves the message unmarked so the
	// next run retries it.
	if result.Failed == failedBefore {
		st.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageIngest, Key: msg.ID,
			Outcome: types.OutcomeSuccess,
			Detail:  fmt.Sprintf("message complete, %d attachment(s)", len(attachments)),
		})
	}
	return records
}

func ingestAttachment(ctx context.Context, src graph.Source, st Store, cfg types.IngestConfig, msg graph.Message, att graph.Attachment, result *BatchResult, w io.Writer) (types.IngestionRecord, bool) {
	skip := func(detail string) {
		fmt.Fprintf(w, "skipped: %s (%s)\n", att.Name, detail)
		st.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageIngest, Key: msg.ID,
			Outcome: types.OutcomeSkipped, Detail: detail + ": " + att.Name,
		})
		result.Skipped++
	}

	ext := strings.ToLower(filepath.Ext(att.Name))
	if !extensionAllowed(ext, cfg.AllowedExtensions) {
		skip("extension not allowed")
		return types.IngestionRecord{}, false
	}
	if att.Size > cfg.MaxAttachmentBytes {
		skip(fmt.Sprintf("attachment too large: %d bytes", att.Size))
		return types.IngestionRecord{}, false
	}

	var data []byte
	err := retryFetch(ctx, st, msg.ID, func() error {
		var dlErr error
		data, dlErr = src.Download(ctx, msg.ID, att.ID)
		return dlErr
	}, w)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", att.Name, err)
		st.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageIngest, Key: msg.ID,
			Outcome: types.OutcomeFailed, Detail: "download " + att.Name + ": " + err.Error(),
		})
		result.Failed++
		return types.IngestionRecord{}, false
	}

	// The declared size is advisory; the policy applies to the bytes we
	// actually received.
	if int64(len(data)) > cfg.MaxAttachmentBytes {
		skip(fmt.Sprintf("attachment too large: %d bytes", len(data)))
		return types.IngestionRecord{}, false
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	known, err := st.HasHash(ctx, hash)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", att.Name, err)
		st.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageIngest, Key: hash,
			Outcome: types.OutcomeFailed, Detail: "hash check: " + err.Error(),
		})
		result.Failed++
		return types.IngestionRecord{}, false
	}
	if known {
		skip("duplicate resume")
		return types.IngestionRecord{}, false
	}

	cachePath, err := saveAttachment(cfg.CacheDir, msg.ID, att.Name, data)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", att.Name, err)
		st.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageIngest, Key: hash,
			Outcome: types.OutcomeFailed, Detail: "saving " + att.Name + ": " + err.Error(),
		})
		result.Failed++
		return types.IngestionRecord{}, false
	}

	rec := types.IngestionRecord{
		MessageID:          msg.ID,
		AttachmentFilename: att.Name,
		ContentHash:        hash,
		RawBytes:           data,
		SizeBytes:          int64(len(data)),
		ReceivedAt:         msg.ReceivedAt,
		SenderEmail:        msg.SenderEmail,
		SenderName:         msg.SenderName,
		Subject:            msg.Subject,
		CachePath:          cachePath,
	}
	if err := st.RegisterIngestion(ctx, rec); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", att.Name, err)
		st.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageIngest, Key: hash,
			Outcome: types.OutcomeFailed, Detail: err.Error(),
		})
		result.Failed++
		return types.IngestionRecord{}, false
	}

	fmt.Fprintf(w, "ingested: %s (%s)\n", att.Name, hash[:12])
	st.LogProcessing(ctx, types.ProcessingLogEntry{
		Stage: types.StageIngest, Key: hash,
		Outcome: types.OutcomeSuccess, Detail: att.Name,
	})
	result.Ingested++
	return rec, true
}

// retryFetch runs fn under the backoff policy, logging each retry.
func retryFetch(ctx context.Context, st Store, key string, fn func() error, w io.Writer) error {
	return backoff.Retry(ctx, retryPolicy, fn, func(attempt int, delay time.Duration) {
		fmt.Fprintf(w, "rate limited, retrying in %v (attempt %d/%d)\n",
			delay, attempt, retryPolicy.MaxRetries)
		st.LogProcessing(ctx, types.ProcessingLogEntry{
			Stage: types.StageIngest, Key: key,
			Outcome: types.OutcomeRetried,
			Detail:  fmt.Sprintf("attempt %d, backing off %v", attempt, delay),
		})
	})
}

// saveAttachment writes data to cacheDir/messageID/filename using a
// temporary file renamed on success.
func saveAttachment(cacheDir, messageID, filename string, data []byte) (string, error) {
	dir := filepath.Join(cacheDir, messageID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache directory: %w", err)
	}
	destPath := filepath.Join(dir, filepath.Base(filename))

	tmpFile, err := os.CreateTemp(dir, ".ingest-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing attachment: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return true
		}
	}
	return false
}

func withDefaults(cfg types.IngestConfig) types.IngestConfig {
	if cfg.MaxAttachmentBytes <= 0 {
		cfg.MaxAttachmentBytes = defaultMaxAttachmentBytes
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = defaultExtensions
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = defaultRetentionDays
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join("data", "cache")
	}
	return cfg
}
