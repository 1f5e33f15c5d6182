// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export candidates to CSV",
	Long: `Export writes the candidate list as CSV, ranked by score. Supports the
same filter flags as candidates. Writes to stdout unless --out is given.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("out", "", "output file (default: stdout)")
	exportCmd.Flags().String("status", "", "filter by decision status: new, interested, or pass")
	exportCmd.Flags().Float64("min-score", 0, "drop candidates below this score")
	exportCmd.Flags().Int("limit", 0, "maximum number of results (default: all)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
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

	var w io.Writer = os.Stdout
	outPath, _ := cmd.Flags().GetString("out")
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	if err := st.ExportCSV(context.Background(), w, listOptsFromFlags(cmd)); err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", outPath)
	}
	return nil
}
