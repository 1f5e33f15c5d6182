// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cvlens/internal/logger"
	"github.com/pdiddy/cvlens/internal/store"
	"github.com/pdiddy/cvlens/pkg/types"
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List ranked candidates",
	Long: `Candidates lists stored candidates ranked by score, highest first.
Filter with --status (new, interested, pass) and --min-score; limit the
result count with --limit.`,
	RunE: runCandidates,
}

func init() {
	candidatesCmd.Flags().String("status", "", "filter by decision status: new, interested, or pass")
	candidatesCmd.Flags().Float64("min-score", 0, "drop candidates below this score")
	candidatesCmd.Flags().Int("limit", 0, "maximum number of results (default: all)")
	candidatesCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(candidatesCmd)
}

func runCandidates(cmd *cobra.Command, args []string) error {
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

	candidates, err := st.ListCandidates(context.Background(), listOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	}

	if len(candidates) == 0 {
		fmt.Println("No candidates found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-6s  %-25s  %-30s  %-10s  %-10s  %s\n",
		"Rank", "Score", "Name", "Email", "Status", "Received", "ID")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for i, c := range candidates {
		name := c.Name
		if name == "" {
			name = "(unknown)"
		}
		// Truncation is rune-aware so non-ASCII names are not cut mid-rune.
		name = logger.TruncateForLog(name, 22)
		email := logger.TruncateForLog(c.Email, 27)
		fmt.Fprintf(os.Stdout, "%-4d  %6.1f  %-25s  %-30s  %-10s  %-10s  %s\n",
			i+1, c.Score, name, email, c.Status, c.ReceivedAt.Format("2006-01-02"), c.ID)
	}

	fmt.Fprintf(os.Stdout, "\n%d candidates\n", len(candidates))
	return nil
}

func listOptsFromFlags(cmd *cobra.Command) store.ListOptions {
	status, _ := cmd.Flags().GetString("status")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	limit, _ := cmd.Flags().GetInt("limit")

	return store.ListOptions{
		Status:   types.DecisionStatus(status),
		MinScore: minScore,
		Limit:    limit,
	}
}
