// Package parse handles the parse subcommand for both domains.
package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hishab/cmd/root"
	"hishab/internal/models"
)

var (
	userID string
	domain string
	asJSON bool
)

// Cmd represents the parse command.
var Cmd = &cobra.Command{
	Use:   "parse [phrase]",
	Short: "Parse a natural-language phrase into transactions or tasks",
	Long: `Parse a phrase like "spent 500 taka on groceries" or "remind me to pay
the electricity bill tomorrow" into structured data. The phrase may be given
as one quoted argument or several words.`,
	Args: cobra.MinimumNArgs(1),
	RunE: parseFunc,
}

func init() {
	Cmd.Flags().StringVarP(&userID, "user", "u", "", "User the phrase belongs to (required)")
	Cmd.Flags().StringVarP(&domain, "domain", "d", "finance", "Parsing domain: finance or task")
	Cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	Cmd.MarkFlagRequired("user")
}

func parseFunc(cmd *cobra.Command, args []string) error {
	parsedDomain, ok := models.ParseDomain(domain)
	if !ok {
		return fmt.Errorf("unknown domain %q: use finance or task", domain)
	}

	outcome, err := root.App().Orchestrator().Parse(root.Context(cmd), models.ParseRequest{
		RawText: strings.Join(args, " "),
		UserID:  userID,
		Domain:  parsedDomain,
	})
	if err != nil {
		return err
	}

	if asJSON {
		payload, err := json.MarshalIndent(outcome, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	out := cmd.OutOrStdout()
	if outcome.CacheHit {
		fmt.Fprintln(out, "(cached result)")
	}
	for _, tx := range outcome.Result.Transactions {
		fmt.Fprintf(out, "%s  %s %s  [%s]  confidence %.2f%s\n",
			tx.Type, tx.Amount.StringFixed(2), tx.Currency, tx.Category,
			tx.Confidence, confirmSuffix(tx.RequiresConfirmation))
	}
	for _, task := range outcome.Result.Tasks {
		due := "no due date"
		if task.DueDate != nil {
			due = task.DueDate.Format("2006-01-02")
		}
		fmt.Fprintf(out, "%s  (%s, %s)  confidence %.2f%s\n",
			task.Title, task.Priority, due,
			task.Confidence, confirmSuffix(task.RequiresConfirmation))
	}
	if outcome.Result.FallbackUsed {
		fmt.Fprintln(out, "note: parsed with rules, review before saving")
	}
	if outcome.AuditID != "" {
		fmt.Fprintf(out, "audit: %s (%s)\n", outcome.AuditID, outcome.Status)
	}
	return nil
}

func confirmSuffix(required bool) string {
	if required {
		return "  NEEDS CONFIRMATION"
	}
	return ""
}
