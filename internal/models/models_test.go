package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDomain(t *testing.T) {
	d, ok := ParseDomain("finance")
	assert.True(t, ok)
	assert.Equal(t, DomainFinance, d)

	d, ok = ParseDomain("TASK")
	assert.True(t, ok)
	assert.Equal(t, DomainTask, d)

	_, ok = ParseDomain("crypto")
	assert.False(t, ok)
}

func TestParseTxType(t *testing.T) {
	tt, ok := ParseTxType("income")
	assert.True(t, ok)
	assert.Equal(t, TxIncome, tt)

	tt, ok = ParseTxType("Expense")
	assert.True(t, ok)
	assert.Equal(t, TxExpense, tt)

	tt, ok = ParseTxType("transfer")
	assert.False(t, ok)
	assert.Equal(t, TxExpense, tt, "unknown types default to expense")
}

func TestParsePriority(t *testing.T) {
	p, ok := ParsePriority("urgent")
	assert.True(t, ok)
	assert.Equal(t, PriorityUrgent, p)

	p, ok = ParsePriority("someday")
	assert.False(t, ok)
	assert.Equal(t, PriorityMedium, p, "unknown priorities default to medium")
}

func TestParseResultHelpers(t *testing.T) {
	empty := ParseResult{Domain: DomainFinance}
	assert.True(t, empty.Empty())
	assert.Equal(t, 0.0, empty.MinConfidence())
	assert.False(t, empty.RequiresConfirmation())

	result := ParseResult{
		Domain: DomainFinance,
		Transactions: []ParsedTransaction{
			{Confidence: 0.9},
			{Confidence: 0.4, RequiresConfirmation: true},
		},
	}
	assert.False(t, result.Empty())
	assert.Equal(t, 0.4, result.MinConfidence())
	assert.True(t, result.RequiresConfirmation())

	tasks := ParseResult{
		Domain: DomainTask,
		Tasks:  []ParsedTask{{Confidence: 0.7}},
	}
	assert.False(t, tasks.Empty())
	assert.Equal(t, 0.7, tasks.MinConfidence())
	assert.False(t, tasks.RequiresConfirmation())
}

func TestAuditRecordTransitions(t *testing.T) {
	tests := []struct {
		from    AuditStatus
		to      AuditStatus
		allowed bool
	}{
		{AuditParsed, AuditApplied, true},
		{AuditParsed, AuditFailed, true},
		{AuditPendingReview, AuditApplied, true},
		{AuditPendingReview, AuditFailed, true},
		{AuditApplied, AuditFailed, false},
		{AuditFailed, AuditApplied, false},
		{AuditParsed, AuditPendingReview, false},
	}

	for _, tt := range tests {
		record := AuditRecord{Status: tt.from}
		assert.Equal(t, tt.allowed, record.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}
