package models

import "time"

// AuditRecord captures one parse attempt for traceability. The orchestrator
// writes it exactly once per attempt; afterwards only the status may change
// (to applied when the user confirms, or failed when they reject). Records
// are never deleted.
type AuditRecord struct {
	ID            string      `json:"id" csv:"id"`
	UserID        string      `json:"user_id" csv:"user_id"`
	Module        Domain      `json:"module" csv:"module"`
	RawText       string      `json:"raw_text" csv:"raw_text"`
	ParsedPayload string      `json:"parsed_payload,omitempty" csv:"parsed_payload"`
	ModelName     string      `json:"model_name" csv:"model_name"`
	Confidence    *float64    `json:"confidence,omitempty" csv:"confidence"`
	Status        AuditStatus `json:"status" csv:"status"`
	ErrorMessage  string      `json:"error_message,omitempty" csv:"error_message"`
	CreatedAt     time.Time   `json:"created_at" csv:"created_at"`
}

// CanTransitionTo reports whether a status change is a legal audit lifecycle
// transition. Terminal parse outcomes may only move when the user acts on a
// result awaiting review or confirmation.
func (r AuditRecord) CanTransitionTo(next AuditStatus) bool {
	switch r.Status {
	case AuditParsed, AuditPendingReview:
		return next == AuditApplied || next == AuditFailed
	default:
		return false
	}
}
