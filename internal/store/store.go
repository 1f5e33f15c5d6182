// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists candidates, the dedup hash index, and the
// append-only processing log in SQLite. The store is the only durable
// state the pipeline has; every stage transition is recorded here so an
// interrupted sync resumes without repeating completed work.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/cvlens/internal/logger"
	"github.com/pdiddy/cvlens/pkg/types"
)

const (
	dbDir  = "db"
	dbFile = "cvlens.db"
)

// Store manages the pipeline's SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens or creates the database at dataDir/db/cvlens.db, creating the
// schema if it does not exist.
func New(cfg types.StorageConfig, logger *zap.Logger) (*Store, error) {
	dir := filepath.Join(cfg.DataDir, dbDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ingested (
			content_hash TEXT PRIMARY KEY,
			message_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			size_bytes INTEGER,
			received_at TEXT,
			sender_email TEXT,
			sender_name TEXT,
			subject TEXT,
			cache_path TEXT,
			ingested_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			id TEXT PRIMARY KEY,
			resume_hash TEXT NOT NULL UNIQUE REFERENCES ingested(content_hash),
			message_id TEXT,
			received_at TEXT,
			sender_email TEXT,
			sender_name TEXT,
			subject TEXT,
			resume_filename TEXT,
			resume_size INTEGER,
			name TEXT,
			email TEXT,
			phone TEXT,
			skills TEXT,
			education TEXT,
			experience TEXT,
			resume_text TEXT,
			language_tag TEXT,
			used_ocr INTEGER NOT NULL DEFAULT 0,
			extraction_status TEXT,
			score REAL NOT NULL DEFAULT 0,
			skills_score REAL NOT NULL DEFAULT 0,
			education_score REAL NOT NULL DEFAULT 0,
			experience_score REAL NOT NULL DEFAULT 0,
			matched_required TEXT,
			matched_preferred TEXT,
			scored INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'new',
			notes TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '[]',
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(status)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_score ON candidates(score)`,
		`CREATE TABLE IF NOT EXISTS processing_log (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			stage TEXT NOT NULL,
			key TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT,
			timestamp TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_log_stage_key ON processing_log(stage, key, outcome)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// HasHash reports whether an attachment with this content hash was already
// ingested. This is the dedup index read before every download.
func (s *Store) HasHash(ctx context.Context, hash string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM ingested WHERE content_hash = ?`, hash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking hash: %w", err)
	}
	return n > 0, nil
}

// RegisterIngestion records a successfully saved attachment in the dedup
// index. A repeat hash is a no-op, not an error.
func (s *Store) RegisterIngestion(ctx context.Context, rec types.IngestionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO ingested
			(content_hash, message_id, filename, size_bytes, received_at,
			 sender_email, sender_name, subject, cache_path, ingested_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ContentHash, rec.MessageID, rec.AttachmentFilename, rec.SizeBytes,
		rec.ReceivedAt.UTC().Format(time.RFC3339Nano),
		rec.SenderEmail, rec.SenderName, rec.Subject, rec.CachePath,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("registering ingestion: %w", err)
	}
	return nil
}

// PendingExtractions returns ingestion records that never reached a
// successful extraction, so an interrupted sync can pick them back up.
// RawBytes are not populated; callers reload from CachePath.
func (s *Store) PendingExtractions(ctx context.Context) ([]types.IngestionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.content_hash, i.message_id, i.filename, i.size_bytes, i.received_at,
			i.sender_email, i.sender_name, i.subject, i.cache_path
		 FROM ingested i
		 WHERE NOT EXISTS (
			SELECT 1 FROM processing_log l
			WHERE l.stage = ? AND l.key = i.content_hash AND l.outcome = ?
		 )
		 ORDER BY i.ingested_at`,
		string(types.StageExtract), string(types.OutcomeSuccess))
	if err != nil {
		return nil, fmt.Errorf("querying pending extractions: %w", err)
	}
	defer rows.Close()

	var records []types.IngestionRecord
	for rows.Next() {
		var rec types.IngestionRecord
		var receivedAt string
		if err := rows.Scan(&rec.ContentHash, &rec.MessageID, &rec.AttachmentFilename,
			&rec.SizeBytes, &receivedAt, &rec.SenderEmail, &rec.SenderName,
			&rec.Subject, &rec.CachePath); err != nil {
			return nil, fmt.Errorf("scanning pending extraction: %w", err)
		}
		rec.ReceivedAt = parseTime(receivedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LogProcessing appends one processing-log entry. Logging never fails the
// caller: a write error is surfaced as a warning only, because the hash
// index remains the safety net even if the log is lost.
func (s *Store) LogProcessing(ctx context.Context, entry types.ProcessingLogEntry) {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processing_log (stage, key, outcome, detail, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		string(entry.Stage), entry.Key, string(entry.Outcome), entry.Detail,
		ts.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.logger.Warn("processing log write failed",
			zap.String("stage", string(entry.Stage)),
			zap.String("key", entry.Key),
			zap.String("detail", logger.TruncateForLog(entry.Detail, 120)),
			zap.Error(err))
	}
}

// HasSucceeded reports whether a stage already completed successfully for
// key. The pipeline driver checks this before re-executing a stage. Query
// errors read as "not succeeded" so a corrupt log only costs repeated work.
func (s *Store) HasSucceeded(ctx context.Context, stage types.Stage, key string) bool {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM processing_log WHERE stage = ? AND key = ? AND outcome = ?`,
		string(stage), key, string(types.OutcomeSuccess)).Scan(&n)
	if err != nil {
		s.logger.Warn("processing log read failed",
			zap.String("stage", string(stage)), zap.String("key", key), zap.Error(err))
		return false
	}
	return n > 0
}

// LogEntries returns processing-log entries for a key, newest first, for
// inspection. An empty key returns the most recent entries across all keys.
func (s *Store) LogEntries(ctx context.Context, key string, limit int) ([]types.ProcessingLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT stage, key, outcome, detail, timestamp FROM processing_log`
	args := []any{}
	if key != "" {
		query += ` WHERE key = ?`
		args = append(args, key)
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying processing log: %w", err)
	}
	defer rows.Close()

	var entries []types.ProcessingLogEntry
	for rows.Next() {
		var e types.ProcessingLogEntry
		var stage, outcome, ts string
		if err := rows.Scan(&stage, &e.Key, &outcome, &e.Detail, &ts); err != nil {
			return nil, fmt.Errorf("scanning log entry: %w", err)
		}
		e.Stage = types.Stage(stage)
		e.Outcome = types.Outcome(outcome)
		e.Timestamp = parseTime(ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SaveExtraction upserts the candidate record for one extracted document.
// A new candidate starts in status "new"; on re-extraction the decision
// state (status, notes, tags) is preserved. A failed extraction still
// produces a candidate shell so the failure is visible downstream.
func (s *Store) SaveExtraction(ctx context.Context, rec types.IngestionRecord, doc types.ExtractedDocument) (string, error) {
	skillsJSON, _ := json.Marshal(doc.Entities.Skills)
	educationJSON, _ := json.Marshal(doc.Entities.Education)
	experienceJSON, _ := json.Marshal(doc.Entities.Experience)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidates
			(id, resume_hash, message_id, received_at, sender_email, sender_name,
			 subject, resume_filename, resume_size, name, email, phone,
			 skills, education, experience, resume_text, language_tag,
			 used_ocr, extraction_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(resume_hash) DO UPDATE SET
			name=excluded.name, email=excluded.email, phone=excluded.phone,
			skills=excluded.skills, education=excluded.education,
			experience=excluded.experience, resume_text=excluded.resume_text,
			language_tag=excluded.language_tag, used_ocr=excluded.used_ocr,
			extraction_status=excluded.extraction_status,
			updated_at=excluded.updated_at`,
		id, rec.ContentHash, rec.MessageID,
		rec.ReceivedAt.UTC().Format(time.RFC3339Nano),
		rec.SenderEmail, rec.SenderName, rec.Subject,
		rec.AttachmentFilename, rec.SizeBytes,
		doc.Entities.Name, doc.Entities.Email, doc.Entities.Phone,
		string(skillsJSON), string(educationJSON), string(experienceJSON),
		doc.RawText, doc.LanguageTag, boolToInt(doc.UsedOCR), string(doc.Status),
		now, now,
	)
	if err != nil {
		return "", fmt.Errorf("upserting candidate: %w", err)
	}

	var actualID string
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM candidates WHERE resume_hash = ?`, rec.ContentHash).Scan(&actualID)
	if err != nil {
		return "", fmt.Errorf("reading candidate id: %w", err)
	}
	return actualID, nil
}

// SaveScore overwrites the candidate's score report. Re-scoring replaces
// the prior report, never accumulates.
func (s *Store) SaveScore(ctx context.Context, report types.ScoreReport) error {
	requiredJSON, _ := json.Marshal(report.MatchedRequired)
	preferredJSON, _ := json.Marshal(report.MatchedPreferred)

	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET
			score = ?, skills_score = ?, education_score = ?, experience_score = ?,
			matched_required = ?, matched_preferred = ?, scored = 1, updated_at = ?
		 WHERE resume_hash = ?`,
		report.OverallScore,
		report.ComponentScores.Skills, report.ComponentScores.Education,
		report.ComponentScores.Experience,
		string(requiredJSON), string(preferredJSON),
		report.ComputedAt.UTC().Format(time.RFC3339Nano),
		report.SourceHash,
	)
	if err != nil {
		return fmt.Errorf("saving score: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("no candidate with hash %s", report.SourceHash)
	}
	return nil
}

// UpdateDecision sets the reviewer's decision state on one candidate.
func (s *Store) UpdateDecision(ctx context.Context, id string, status types.DecisionStatus, notes string, tags []string) error {
	switch status {
	case types.DecisionNew, types.DecisionInterested, types.DecisionPass:
	default:
		return fmt.Errorf("invalid decision status %q", status)
	}
	tagsJSON, _ := json.Marshal(tags)
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET status = ?, notes = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		string(status), notes, string(tagsJSON),
		time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("updating decision: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("no candidate with id %s", id)
	}
	return nil
}

// Documents reconstructs the extracted documents for all candidates, used
// by a full re-score after a profile edit.
func (s *Store) Documents(ctx context.Context) ([]types.ExtractedDocument, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resume_hash, resume_text, used_ocr, name, email, phone,
			skills, education, experience, language_tag, extraction_status
		 FROM candidates ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []types.ExtractedDocument
	for rows.Next() {
		var doc types.ExtractedDocument
		var usedOCR int
		var skills, education, experience, status string
		if err := rows.Scan(&doc.SourceHash, &doc.RawText, &usedOCR,
			&doc.Entities.Name, &doc.Entities.Email, &doc.Entities.Phone,
			&skills, &education, &experience, &doc.LanguageTag, &status); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.UsedOCR = usedOCR != 0
		doc.Status = types.ExtractionStatus(status)
		json.Unmarshal([]byte(skills), &doc.Entities.Skills)
		json.Unmarshal([]byte(education), &doc.Entities.Education)
		json.Unmarshal([]byte(experience), &doc.Entities.Experience)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
