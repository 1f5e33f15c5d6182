// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/cvlens/internal/extract"
	"github.com/pdiddy/cvlens/internal/graph"
	"github.com/pdiddy/cvlens/internal/pipeline"
	"github.com/pdiddy/cvlens/internal/profile"
	"github.com/pdiddy/cvlens/internal/score"
	"github.com/pdiddy/cvlens/pkg/types"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the full pipeline for the configured mailbox folder",
	Long: `Sync lists recent messages in the authorized folder, downloads new
resume attachments, extracts their text, and scores each candidate against
the job profile. Already-processed items are skipped, so an interrupted run
resumes where it left off.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("folder-id", "", "mail folder authorized for access")
	syncCmd.Flags().Bool("include-subfolders", false, "also process the folder's subtree")
	syncCmd.Flags().Int("days", 0, "only list messages from the last N days (default 30)")
	syncCmd.Flags().String("profile", "", "job profile YAML file")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig(cmd)
	if err != nil {
		return err
	}
	token, err := graphToken()
	if err != nil {
		return err
	}

	log, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := openStore(cmd, log)
	if err != nil {
		return err
	}
	defer st.Close()

	deps := pipeline.Deps{
		Source:    graph.NewClient(token, cfg.Ingest.HTTPConfig),
		Store:     st,
		Extractor: extract.New(cfg.Extract),
		Scorer:    loadScorer(cfg.Score, log),
	}

	summary, err := pipeline.Sync(context.Background(), deps, cfg, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Ingest.HasFailures() || summary.ExtractFailed > 0 || summary.ScoreFailed > 0 {
		return fmt.Errorf("%d item(s) failed during sync",
			summary.Ingest.Failed+summary.ExtractFailed+summary.ScoreFailed)
	}
	return nil
}

// loadScorer builds the scorer from the configured profile. A missing or
// invalid profile disables scoring for the run rather than aborting it;
// ingestion and extraction results remain valid either way.
func loadScorer(cfg types.ScoreConfig, log *zap.Logger) *score.Scorer {
	if cfg.ProfilePath == "" {
		log.Warn("no job profile configured, scoring disabled")
		return nil
	}
	prof, err := profile.Load(cfg.ProfilePath)
	if err != nil {
		log.Warn("job profile rejected, scoring disabled",
			zap.String("path", cfg.ProfilePath), zap.Error(err))
		return nil
	}
	return score.New(prof, cfg)
}
