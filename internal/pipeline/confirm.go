package pipeline

import (
	"context"
	"errors"
	"strings"

	"hishab/internal/models"
	"hishab/internal/parsererror"
)

var errNoClient = errors.New("no AI client configured")

// ConfirmTransaction validates a user-edited transaction and, if it passes,
// marks the originating audit record applied. Validation failures surface to
// the caller; they are user mistakes, not parse failures.
func (o *Orchestrator) ConfirmTransaction(ctx context.Context, auditID string, tx models.ParsedTransaction) error {
	if err := ValidateTransaction(tx); err != nil {
		return err
	}
	return o.MarkApplied(ctx, auditID)
}

// MarkApplied transitions an audit record to applied after the user accepts
// the parsed result.
func (o *Orchestrator) MarkApplied(ctx context.Context, auditID string) error {
	return o.audit.UpdateStatus(ctx, auditID, models.AuditApplied)
}

// MarkRejected transitions an audit record to failed after the user rejects
// the parsed result.
func (o *Orchestrator) MarkRejected(ctx context.Context, auditID string) error {
	return o.audit.UpdateStatus(ctx, auditID, models.AuditFailed)
}

// AuditTrail returns recent audit records, newest first.
func (o *Orchestrator) AuditTrail(ctx context.Context, userID string, limit int) ([]models.AuditRecord, error) {
	return o.audit.List(ctx, userID, limit)
}

// HealthCheck verifies the AI backend is reachable. Clients without a health
// probe (mocks, heuristic-only setups) report an error.
func (o *Orchestrator) HealthCheck(ctx context.Context) error {
	if o.client == nil {
		return errNoClient
	}
	probe, ok := o.client.(interface{ HealthCheck(context.Context) error })
	if !ok {
		return nil
	}
	return probe.HealthCheck(ctx)
}

// ValidateTransaction checks a transaction the user is about to commit.
func ValidateTransaction(tx models.ParsedTransaction) error {
	if !tx.Amount.IsPositive() {
		return &parsererror.ValidationError{Field: "amount", Value: tx.Amount.String(), Reason: "must be greater than zero"}
	}
	if tx.Type != models.TxIncome && tx.Type != models.TxExpense {
		return &parsererror.ValidationError{Field: "type", Value: string(tx.Type), Reason: "must be income or expense"}
	}
	if c := strings.ToUpper(tx.Currency); c != "BDT" && c != "USD" {
		return &parsererror.ValidationError{Field: "currency", Value: tx.Currency, Reason: "must be BDT or USD"}
	}
	if strings.TrimSpace(tx.Category) == "" {
		return &parsererror.ValidationError{Field: "category", Reason: "must not be empty"}
	}
	return nil
}

// ValidateTask checks a task the user is about to commit.
func ValidateTask(task models.ParsedTask) error {
	if strings.TrimSpace(task.Title) == "" {
		return &parsererror.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	switch task.Priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
	default:
		return &parsererror.ValidationError{Field: "priority", Value: string(task.Priority), Reason: "unknown priority"}
	}
	return nil
}
