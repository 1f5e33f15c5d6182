package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cvlens/internal/graph"
	"github.com/pdiddy/cvlens/pkg/types"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "List the mailbox folder tree",
	Long: `Folders walks the mailbox folder tree and prints each folder with its
ID, so the right folder can be picked for ingest.folder_id. With --root the
walk starts below the given folder instead of the mailbox top level.`,
	RunE: runFolders,
}

func init() {
	foldersCmd.Flags().String("root", "", "folder ID to start the walk from (default: mailbox top level)")
	foldersCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(foldersCmd)
}

func runFolders(cmd *cobra.Command, args []string) error {
	token, err := graphToken()
	if err != nil {
		return err
	}
	rootID, _ := cmd.Flags().GetString("root")

	client := graph.NewClient(token, types.HTTPConfig{
		Timeout:   defaultTimeout,
		UserAgent: defaultUserAgent,
	})

	folders, err := client.ListTree(context.Background(), rootID)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(folders)
	}

	if len(folders) == 0 {
		fmt.Println("No folders found.")
		return nil
	}
	for _, f := range folders {
		fmt.Fprintf(os.Stdout, "%s%-40s  %s\n", strings.Repeat("  ", f.Level), f.Name, f.ID)
	}
	fmt.Fprintf(os.Stdout, "\n%d folders\n", len(folders))
	return nil
}
