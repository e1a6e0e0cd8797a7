package models

import "strings"

// Domain identifies which parsing vocabulary and result shape a request targets.
type Domain string

const (
	DomainFinance Domain = "finance"
	DomainTask    Domain = "task"
)

// ParseDomain maps a string onto a known Domain. Unknown values report ok=false.
func ParseDomain(s string) (Domain, bool) {
	switch Domain(strings.ToLower(strings.TrimSpace(s))) {
	case DomainFinance:
		return DomainFinance, true
	case DomainTask:
		return DomainTask, true
	}
	return "", false
}

// TxType is the direction of a financial transaction.
type TxType string

const (
	TxIncome  TxType = "income"
	TxExpense TxType = "expense"
)

// ParseTxType maps a string onto a known TxType. Unknown values fall back to
// TxExpense and report ok=false so callers can count the field as defaulted.
func ParseTxType(s string) (TxType, bool) {
	switch TxType(strings.ToLower(strings.TrimSpace(s))) {
	case TxIncome:
		return TxIncome, true
	case TxExpense:
		return TxExpense, true
	}
	return TxExpense, false
}

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority maps a string onto a known Priority. Unknown values fall back
// to PriorityMedium and report ok=false.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityUrgent:
		return PriorityUrgent, true
	}
	return PriorityMedium, false
}

// AuditStatus tracks the lifecycle of a parse attempt in the audit log.
type AuditStatus string

const (
	AuditParsed        AuditStatus = "parsed"
	AuditPendingReview AuditStatus = "pending_review"
	AuditFailed        AuditStatus = "failed"
	AuditApplied       AuditStatus = "applied"
)

// CategoryOther is the slug assigned when no category keyword matches.
const CategoryOther = "other"
