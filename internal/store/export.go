// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/cvlens/pkg/types"
)

// ListOptions holds filters for candidate queries.
type ListOptions struct {
	// Status filters by decision status when non-empty.
	Status types.DecisionStatus

	// MinScore drops candidates below this overall score.
	MinScore float64

	// Limit caps the result count. Zero means no cap.
	Limit int
}

// ListCandidates returns candidates ranked by score, highest first.
func (s *Store) ListCandidates(ctx context.Context, opts ListOptions) ([]types.Candidate, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT id, resume_hash, message_id, received_at, sender_email, sender_name,
			subject, resume_filename, resume_size, name, email, phone,
			skills, education, experience, language_tag, used_ocr,
			extraction_status, score, skills_score, education_score,
			experience_score, scored, status, notes, tags, created_at, updated_at
		 FROM candidates WHERE 1=1`)

	if opts.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(opts.Status))
	}
	if opts.MinScore > 0 {
		qb.WriteString(` AND score >= ?`)
		args = append(args, opts.MinScore)
	}
	qb.WriteString(` ORDER BY score DESC, created_at`)
	if opts.Limit > 0 {
		qb.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var candidates []types.Candidate
	for rows.Next() {
		var (
			c                                   types.Candidate
			receivedAt, created, updated        string
			skills, education, experience, tags string
			usedOCR, scored                     int
			extraction, status                  string
		)
		if err := rows.Scan(&c.ID, &c.ResumeHash, &c.MessageID, &receivedAt,
			&c.SenderEmail, &c.SenderName, &c.Subject, &c.ResumeFilename,
			&c.ResumeSize, &c.Name, &c.Email, &c.Phone,
			&skills, &education, &experience, &c.LanguageTag, &usedOCR,
			&extraction, &c.Score, &c.Breakdown.Skills, &c.Breakdown.Education,
			&c.Breakdown.Experience, &scored, &status, &c.Notes, &tags,
			&created, &updated); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		c.ReceivedAt = parseTime(receivedAt)
		c.CreatedAt = parseTime(created)
		c.UpdatedAt = parseTime(updated)
		c.UsedOCR = usedOCR != 0
		c.Scored = scored != 0
		c.Extraction = types.ExtractionStatus(extraction)
		c.Status = types.DecisionStatus(status)
		json.Unmarshal([]byte(skills), &c.Skills)
		json.Unmarshal([]byte(education), &c.Education)
		json.Unmarshal([]byte(experience), &c.Experience)
		json.Unmarshal([]byte(tags), &c.Tags)
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// csvHeader lists the exported columns. The export collaborator owns the
// final ordering it presents; this is the record shape the core produces.
var csvHeader = []string{"name", "email", "score", "status", "date", "filename", "sender_email"}

// ExportCSV writes candidates matching opts to w as CSV.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer, opts ListOptions) error {
	candidates, err := s.ListCandidates(ctx, opts)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, c := range candidates {
		date := ""
		if !c.ReceivedAt.IsZero() {
			date = c.ReceivedAt.UTC().Format("2006-01-02")
		}
		row := []string{
			c.Name,
			c.Email,
			strconv.FormatFloat(c.Score, 'f', 2, 64),
			string(c.Status),
			date,
			c.ResumeFilename,
			c.SenderEmail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
