// Package audit handles the audit subcommands: listing, exporting, and
// resolving parse records.
package audit

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"hishab/cmd/root"
)

var (
	userID  string
	limit   int
	outFile string
)

// Cmd groups the audit subcommands.
var Cmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and manage the parse audit log",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent parse audit records",
	RunE:  listFunc,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export audit records to a CSV file",
	RunE:  exportFunc,
}

var applyCmd = &cobra.Command{
	Use:   "apply [record-id]",
	Short: "Mark a reviewed record as applied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return root.App().Orchestrator().MarkApplied(root.Context(cmd), args[0])
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject [record-id]",
	Short: "Mark a reviewed record as failed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return root.App().Orchestrator().MarkRejected(root.Context(cmd), args[0])
	},
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(exportCmd)
	Cmd.AddCommand(applyCmd)
	Cmd.AddCommand(rejectCmd)

	Cmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "Filter records by user")
	Cmd.PersistentFlags().IntVarP(&limit, "limit", "n", 50, "Maximum records to return (0 for all)")
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "audit.csv", "Output CSV file")
}

func listFunc(cmd *cobra.Command, args []string) error {
	records, err := root.App().Orchestrator().AuditTrail(root.Context(cmd), userID, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "no audit records")
		return nil
	}
	for _, r := range records {
		confidence := "-"
		if r.Confidence != nil {
			confidence = fmt.Sprintf("%.2f", *r.Confidence)
		}
		fmt.Fprintf(out, "%s  %s  %-14s  %s  %q\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Module, r.Status, confidence, r.RawText)
	}
	return nil
}

func exportFunc(cmd *cobra.Command, args []string) error {
	records, err := root.App().Orchestrator().AuditTrail(root.Context(cmd), userID, limit)
	if err != nil {
		return err
	}

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outFile, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&records, f); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(records), outFile)
	return nil
}
