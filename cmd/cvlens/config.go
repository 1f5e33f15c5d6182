// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/cvlens/internal/store"
	"github.com/pdiddy/cvlens/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "cvlens/0.1"
	defaultDataDir   = "data"
)

// storageConfig resolves the data directory from the flag, config file,
// or default, in that order.
func storageConfig(cmd *cobra.Command) types.StorageConfig {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = viper.GetString("storage.data_dir")
	}
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	return types.StorageConfig{DataDir: dataDir}
}

// openStore opens the SQLite-backed store under the configured data directory.
func openStore(cmd *cobra.Command, logger *zap.Logger) (*store.Store, error) {
	return store.New(storageConfig(cmd), logger)
}

// graphToken resolves the Graph API token from .secrets/graph-token or the
// CVLENS_GRAPH_TOKEN environment variable.
func graphToken() (string, error) {
	token := loadedSecrets.GraphToken(viper.GetString("graph_token"))
	if token == "" {
		return "", fmt.Errorf("no Graph API token: create .secrets/graph-token or set CVLENS_GRAPH_TOKEN")
	}
	return token, nil
}

// pipelineConfig assembles the full stage configuration from the config
// file, with command flags taking precedence where set.
func pipelineConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	storage := storageConfig(cmd)

	folderID := flagOrConfig(cmd, "folder-id", "ingest.folder_id")
	if folderID == "" {
		return types.PipelineConfig{}, fmt.Errorf("folder ID required: pass --folder-id or set ingest.folder_id in the config file")
	}

	timeout := viper.GetDuration("ingest.timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	cfg := types.PipelineConfig{
		Ingest: types.IngestConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   timeout,
				UserAgent: defaultUserAgent,
			},
			FolderID:           folderID,
			IncludeSubfolders:  viper.GetBool("ingest.include_subfolders"),
			MaxAttachmentBytes: viper.GetInt64("ingest.max_attachment_bytes"),
			AllowedExtensions:  viper.GetStringSlice("ingest.allowed_extensions"),
			RetentionDays:      viper.GetInt("ingest.retention_days"),
			CacheDir:           filepath.Join(storage.DataDir, "cache"),
		},
		Extract: types.ExtractConfig{
			MinCharsPerPage: viper.GetFloat64("extract.min_chars_per_page"),
			OCREnabled:      !viper.GetBool("extract.ocr_disabled"),
			OCRLanguage:     viper.GetString("extract.ocr_language"),
			TessdataDir:     loadedSecrets.TessdataDir(viper.GetString("extract.tessdata_dir")),
			ExtraSkills:     viper.GetStringSlice("extract.extra_skills"),
		},
		Score: types.ScoreConfig{
			ProfilePath:         flagOrConfig(cmd, "profile", "score.profile_path"),
			RequiredSkillWeight: viper.GetFloat64("score.required_skill_weight"),
		},
		Storage: storage,
	}

	if include, err := cmd.Flags().GetBool("include-subfolders"); err == nil && cmd.Flags().Changed("include-subfolders") {
		cfg.Ingest.IncludeSubfolders = include
	}
	if days, err := cmd.Flags().GetInt("days"); err == nil && days > 0 {
		cfg.Ingest.RetentionDays = days
	}

	return cfg, nil
}

// flagOrConfig returns the flag value when set, falling back to the viper key.
func flagOrConfig(cmd *cobra.Command, flag, key string) string {
	if v, err := cmd.Flags().GetString(flag); err == nil && v != "" {
		return v
	}
	return viper.GetString(key)
}
