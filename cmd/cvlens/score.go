// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cvlens/internal/pipeline"
	"github.com/pdiddy/cvlens/internal/profile"
	"github.com/pdiddy/cvlens/internal/score"
	"github.com/pdiddy/cvlens/pkg/types"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Re-score all extracted candidates against the job profile",
	Long: `Score recomputes every stored candidate's score against the current
job profile, overwriting prior reports. Run it after editing the profile;
re-scoring is always a full recompute.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("profile", "", "job profile YAML file")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	profilePath := flagOrConfig(cmd, "profile", "score.profile_path")
	if profilePath == "" {
		return fmt.Errorf("job profile required: pass --profile or set score.profile_path in the config file")
	}

	scoreCfg := types.ScoreConfig{
		ProfilePath:         profilePath,
		RequiredSkillWeight: viper.GetFloat64("score.required_skill_weight"),
	}

	prof, err := profile.Load(profilePath)
	if err != nil {
		return fmt.Errorf("loading job profile: %w", err)
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

	result, err := pipeline.Rescore(context.Background(), st, score.New(prof, scoreCfg), os.Stdout)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d candidate(s) failed re-scoring", result.Failed)
	}
	return nil
}
