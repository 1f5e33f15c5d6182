// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cvlens/pkg/types"
)

var decideCmd = &cobra.Command{
	Use:   "decide [candidate-id]",
	Short: "Record a decision on a candidate",
	Long: `Decide updates a candidate's decision state: status (new, interested,
pass), reviewer notes, and tags. Scores and extraction output are never
touched; only the decision fields change.`,
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().String("status", "", "decision status: new, interested, or pass")
	decideCmd.Flags().String("notes", "", "reviewer notes")
	decideCmd.Flags().StringSlice("tag", nil, "tag to attach (repeatable)")

	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one candidate ID (see cvlens candidates)")
	}
	id := args[0]

	status, _ := cmd.Flags().GetString("status")
	notes, _ := cmd.Flags().GetString("notes")
	tags, _ := cmd.Flags().GetStringSlice("tag")

	if status == "" {
		return fmt.Errorf("decision status required: pass --status new, interested, or pass")
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

	if err := st.UpdateDecision(context.Background(), id, types.DecisionStatus(status), notes, tags); err != nil {
		return err
	}

	fmt.Printf("Updated candidate %s\n", id)
	return nil
}
