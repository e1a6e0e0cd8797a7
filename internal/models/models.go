// Package models defines the domain types shared across the parsing pipeline:
// parse requests, structured results for the finance and task domains, and
// audit records capturing every parse attempt.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ParseRequest is one user submission to the pipeline. It is immutable and is
// never persisted directly; only the audit log records its raw text.
type ParseRequest struct {
	RawText string
	UserID  string
	Domain  Domain
}

// ParsedTransaction is the structured form of a financial phrase. Amount is
// strictly positive for a valid result; the pipeline treats zero or negative
// amounts as a parse failure, never as a zero-value transaction.
type ParsedTransaction struct {
	Type                 TxType          `json:"type" csv:"type"`
	Amount               decimal.Decimal `json:"amount" csv:"amount"`
	Currency             string          `json:"currency" csv:"currency"`
	Category             string          `json:"category" csv:"category"`
	Vendor               string          `json:"vendor,omitempty" csv:"vendor"`
	Description          string          `json:"description,omitempty" csv:"description"`
	Date                 time.Time       `json:"date" csv:"-"`
	Confidence           float64         `json:"confidence" csv:"confidence"`
	RequiresConfirmation bool            `json:"requires_confirmation" csv:"-"`
	FallbackUsed         bool            `json:"fallback_used" csv:"-"`
}

// ParsedTask is the structured form of a task phrase.
type ParsedTask struct {
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	DueDate              *time.Time `json:"due_date,omitempty"`
	Priority             Priority   `json:"priority"`
	Confidence           float64    `json:"confidence"`
	RequiresConfirmation bool       `json:"requires_confirmation"`
	FallbackUsed         bool       `json:"fallback_used"`
}

// ParseResult is the envelope returned by the orchestrator and stored in the
// result cache. A single phrase may yield several transactions ("500 on
// groceries and 200 on bus fare"), so Transactions is a slice; the task domain
// yields at most one task per phrase.
type ParseResult struct {
	Domain       Domain              `json:"domain"`
	Transactions []ParsedTransaction `json:"transactions,omitempty"`
	Tasks        []ParsedTask        `json:"tasks,omitempty"`
	FallbackUsed bool                `json:"fallback_used"`
}

// Empty reports whether the result carries no usable items.
func (r ParseResult) Empty() bool {
	return len(r.Transactions) == 0 && len(r.Tasks) == 0
}

// MinConfidence returns the lowest per-item confidence, or 0 for an empty
// result. The audit status of the whole attempt is driven by the weakest item.
func (r ParseResult) MinConfidence() float64 {
	if r.Empty() {
		return 0
	}
	min := 1.0
	for _, tx := range r.Transactions {
		if tx.Confidence < min {
			min = tx.Confidence
		}
	}
	for _, task := range r.Tasks {
		if task.Confidence < min {
			min = task.Confidence
		}
	}
	return min
}

// RequiresConfirmation reports whether any item in the result needs explicit
// user confirmation before it may be persisted.
func (r ParseResult) RequiresConfirmation() bool {
	for _, tx := range r.Transactions {
		if tx.RequiresConfirmation {
			return true
		}
	}
	for _, task := range r.Tasks {
		if task.RequiresConfirmation {
			return true
		}
	}
	return false
}
