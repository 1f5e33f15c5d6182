// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cvlens/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(types.StorageConfig{DataDir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRecord(hash string) types.IngestionRecord {
	return types.IngestionRecord{
		MessageID:          "m-1",
		AttachmentFilename: "resume.pdf",
		ContentHash:        hash,
		SizeBytes:          2048,
		ReceivedAt:         time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		SenderEmail:        "jane@example.com",
		SenderName:         "Jane Doe",
		Subject:            "Application",
		CachePath:          "/tmp/cache/m-1/resume.pdf",
	}
}

func testDocument(hash string) types.ExtractedDocument {
	return types.ExtractedDocument{
		SourceHash: hash,
		RawText:    "Jane Doe resume text",
		Entities: types.Entities{
			Name:       "Jane Doe",
			Email:      "jane@example.com",
			Skills:     []string{"Go", "PostgreSQL"},
			Education:  []string{"BSc Computer Science"},
			Experience: []string{"Acme Corp, 2021-2026"},
		},
		LanguageTag: "en",
		Status:      types.ExtractionOK,
	}
}

const hash1 = "1111111111111111111111111111111111111111111111111111111111111111"

func TestHasHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	known, err := s.HasHash(ctx, hash1)
	require.NoError(t, err)
	assert.False(t, known)

	require.NoError(t, s.RegisterIngestion(ctx, testRecord(hash1)))

	known, err = s.HasHash(ctx, hash1)
	require.NoError(t, err)
	assert.True(t, known)
}

func TestRegisterIngestion_RepeatHashIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterIngestion(ctx, testRecord(hash1)))

	dup := testRecord(hash1)
	dup.MessageID = "m-2"
	require.NoError(t, s.RegisterIngestion(ctx, dup))

	// The original record wins.
	pending, err := s.PendingExtractions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "m-1", pending[0].MessageID)
}

func TestPendingExtractions_DropsCompleted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterIngestion(ctx, testRecord(hash1)))
	other := testRecord("2222222222222222222222222222222222222222222222222222222222222222")
	require.NoError(t, s.RegisterIngestion(ctx, other))

	s.LogProcessing(ctx, types.ProcessingLogEntry{
		Stage: types.StageExtract, Key: hash1, Outcome: types.OutcomeSuccess,
	})

	pending, err := s.PendingExtractions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, other.ContentHash, pending[0].ContentHash)
	assert.Equal(t, other.CachePath, pending[0].CachePath)
	assert.Empty(t, pending[0].RawBytes)
}

func TestHasSucceeded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.False(t, s.HasSucceeded(ctx, types.StageExtract, hash1))

	// A failure alone does not count as success.
	s.LogProcessing(ctx, types.ProcessingLogEntry{
		Stage: types.StageExtract, Key: hash1, Outcome: types.OutcomeFailed, Detail: "boom",
	})
	assert.False(t, s.HasSucceeded(ctx, types.StageExtract, hash1))

	s.LogProcessing(ctx, types.ProcessingLogEntry{
		Stage: types.StageExtract, Key: hash1, Outcome: types.OutcomeSuccess,
	})
	assert.True(t, s.HasSucceeded(ctx, types.StageExtract, hash1))
	// Success in one stage does not leak into another.
	assert.False(t, s.HasSucceeded(ctx, types.StageScore, hash1))
}

func TestLogEntries_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.LogProcessing(ctx, types.ProcessingLogEntry{Stage: types.StageIngest, Key: hash1, Outcome: types.OutcomeRetried, Detail: "attempt 1"})
	s.LogProcessing(ctx, types.ProcessingLogEntry{Stage: types.StageIngest, Key: hash1, Outcome: types.OutcomeSuccess})
	s.LogProcessing(ctx, types.ProcessingLogEntry{Stage: types.StageIngest, Key: "other", Outcome: types.OutcomeSkipped})

	entries, err := s.LogEntries(ctx, hash1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, types.OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, types.OutcomeRetried, entries[1].Outcome)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestSaveExtraction_NewCandidate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterIngestion(ctx, testRecord(hash1)))
	id, err := s.SaveExtraction(ctx, testRecord(hash1), testDocument(hash1))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	candidates, err := s.ListCandidates(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, id, c.ID)
	assert.Equal(t, "Jane Doe", c.Name)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, c.Skills)
	assert.Equal(t, types.DecisionNew, c.Status)
	assert.Equal(t, types.ExtractionOK, c.Extraction)
	assert.False(t, c.Scored)
}

func TestSaveExtraction_PreservesDecisionState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterIngestion(ctx, testRecord(hash1)))
	id, err := s.SaveExtraction(ctx, testRecord(hash1), testDocument(hash1))
	require.NoError(t, err)

	require.NoError(t, s.UpdateDecision(ctx, id, types.DecisionInterested, "call her", []string{"senior"}))

	// Re-extraction keeps the same id and the reviewer's decision.
	doc := testDocument(hash1)
	doc.Entities.Name = "Jane A. Doe"
	again, err := s.SaveExtraction(ctx, testRecord(hash1), doc)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	candidates, err := s.ListCandidates(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Jane A. Doe", candidates[0].Name)
	assert.Equal(t, types.DecisionInterested, candidates[0].Status)
	assert.Equal(t, "call her", candidates[0].Notes)
	assert.Equal(t, []string{"senior"}, candidates[0].Tags)
}

func TestSaveExtraction_FailedShell(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterIngestion(ctx, testRecord(hash1)))
	doc := types.ExtractedDocument{
		SourceHash:   hash1,
		Status:       types.ExtractionFailed,
		StatusDetail: "ocr on page 1: tesseract not found",
		UsedOCR:      true,
	}
	_, err := s.SaveExtraction(ctx, testRecord(hash1), doc)
	require.NoError(t, err)

	candidates, err := s.ListCandidates(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, types.ExtractionFailed, candidates[0].Extraction)
	assert.True(t, candidates[0].UsedOCR)
	assert.Zero(t, candidates[0].Score)
}

func TestSaveScore_OverwritesPriorReport(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterIngestion(ctx, testRecord(hash1)))
	_, err := s.SaveExtraction(ctx, testRecord(hash1), testDocument(hash1))
	require.NoError(t, err)

	first := types.ScoreReport{
		SourceHash:      hash1,
		OverallScore:    72.5,
		ComponentScores: types.ComponentScores{Skills: 0.9, Education: 0.5, Experience: 0.6},
		MatchedRequired: []string{"Go"},
		ComputedAt:      time.Now().UTC(),
	}
	require.NoError(t, s.SaveScore(ctx, first))

	second := first
	second.OverallScore = 41.0
	second.MatchedRequired = nil
	require.NoError(t, s.SaveScore(ctx, second))

	candidates, err := s.ListCandidates(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 41.0, candidates[0].Score)
	assert.True(t, candidates[0].Scored)
}

func TestSaveScore_UnknownHash(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveScore(context.Background(), types.ScoreReport{SourceHash: "nope"})
	assert.Error(t, err)
}

func TestUpdateDecision_RejectsUnknownStatus(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateDecision(context.Background(), "some-id", "hired", "", nil)
	assert.Error(t, err)
}

func TestDocuments_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterIngestion(ctx, testRecord(hash1)))
	orig := testDocument(hash1)
	_, err := s.SaveExtraction(ctx, testRecord(hash1), orig)
	require.NoError(t, err)

	docs, err := s.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, orig.SourceHash, docs[0].SourceHash)
	assert.Equal(t, orig.RawText, docs[0].RawText)
	assert.Equal(t, orig.Entities.Skills, docs[0].Entities.Skills)
	assert.Equal(t, orig.Status, docs[0].Status)
}

func TestListCandidates_FiltersAndRanks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hashes := []string{
		"aaaa111111111111111111111111111111111111111111111111111111111111",
		"bbbb222222222222222222222222222222222222222222222222222222222222",
		"cccc333333333333333333333333333333333333333333333333333333333333",
	}
	scores := []float64{55, 90, 20}
	for i, h := range hashes {
		rec := testRecord(h)
		rec.MessageID = h[:4]
		require.NoError(t, s.RegisterIngestion(ctx, rec))
		_, err := s.SaveExtraction(ctx, rec, testDocument(h))
		require.NoError(t, err)
		require.NoError(t, s.SaveScore(ctx, types.ScoreReport{
			SourceHash: h, OverallScore: scores[i], ComputedAt: time.Now().UTC(),
		}))
	}

	all, err := s.ListCandidates(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 90.0, all[0].Score)
	assert.Equal(t, 55.0, all[1].Score)
	assert.Equal(t, 20.0, all[2].Score)

	filtered, err := s.ListCandidates(ctx, ListOptions{MinScore: 50})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	limited, err := s.ListCandidates(ctx, ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 90.0, limited[0].Score)
}

func TestExportCSV(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RegisterIngestion(ctx, testRecord(hash1)))
	_, err := s.SaveExtraction(ctx, testRecord(hash1), testDocument(hash1))
	require.NoError(t, err)
	require.NoError(t, s.SaveScore(ctx, types.ScoreReport{
		SourceHash: hash1, OverallScore: 87.25, ComputedAt: time.Now().UTC(),
	}))

	var buf strings.Builder
	require.NoError(t, s.ExportCSV(ctx, &buf, ListOptions{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,email,score,status,date,filename,sender_email", lines[0])
	assert.Equal(t, "Jane Doe,jane@example.com,87.25,new,2026-08-20,resume.pdf,jane@example.com", lines[1])
}

func TestSchemaIdempotentAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := types.StorageConfig{DataDir: dir}

	s, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.RegisterIngestion(context.Background(), testRecord(hash1)))
	require.NoError(t, s.Close())

	// Reopening over the same file keeps the data.
	s, err = New(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	known, err := s.HasHash(context.Background(), hash1)
	require.NoError(t, err)
	assert.True(t, known)
}
