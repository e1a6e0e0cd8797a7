// Package pipeline orchestrates a parse attempt end to end: cache check,
// one AI call, normalization, and the deterministic fallback, with exactly
// one audit record written per fresh attempt.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"hishab/internal/ai"
	"hishab/internal/heuristic"
	"hishab/internal/logging"
	"hishab/internal/models"
	"hishab/internal/normalizer"
	"hishab/internal/parsererror"
)

// Default confidence thresholds. Below Review a result lands in
// pending_review and always requires confirmation; at or above AutoAccept a
// clean result needs none.
const (
	DefaultReviewThreshold     = 0.6
	DefaultAutoAcceptThreshold = 0.8
)

// Thresholds carries the confidence cutoffs for one Orchestrator. The zero
// value means defaults.
type Thresholds struct {
	Review     float64
	AutoAccept float64
}

func (t Thresholds) withDefaults() Thresholds {
	if t.Review <= 0 {
		t.Review = DefaultReviewThreshold
	}
	if t.AutoAccept <= 0 {
		t.AutoAccept = DefaultAutoAcceptThreshold
	}
	return t
}

// AuditStore persists parse-attempt records.
type AuditStore interface {
	Append(ctx context.Context, record models.AuditRecord) error
	UpdateStatus(ctx context.Context, id string, next models.AuditStatus) error
	Get(ctx context.Context, id string) (models.AuditRecord, error)
	List(ctx context.Context, userID string, limit int) ([]models.AuditRecord, error)
}

// ResultCache stores successful parse results keyed by request fingerprint.
type ResultCache interface {
	Get(ctx context.Context, fingerprint string) (models.ParseResult, bool, error)
	Put(ctx context.Context, fingerprint string, result models.ParseResult) error
}

// Outcome is what a parse attempt hands back to the caller. AuditID is empty
// on cache hits, which write no new record.
type Outcome struct {
	Result   models.ParseResult
	AuditID  string
	Status   models.AuditStatus
	CacheHit bool
}

// Orchestrator runs the parsing pipeline. A nil AI client degrades it to the
// heuristic path, which still audits and returns usable results.
type Orchestrator struct {
	client     ai.Client
	fallback   *heuristic.Parser
	normalizer *normalizer.Normalizer
	audit      AuditStore
	cache      ResultCache
	slugs      []string
	thresholds Thresholds
	logger     logging.Logger
}

// New assembles an Orchestrator. audit and cache are required; client may be
// nil when no API key is configured.
func New(client ai.Client, fallback *heuristic.Parser, norm *normalizer.Normalizer,
	audit AuditStore, cache ResultCache, categorySlugs []string,
	thresholds Thresholds, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Orchestrator{
		client:     client,
		fallback:   fallback,
		normalizer: norm,
		audit:      audit,
		cache:      cache,
		slugs:      categorySlugs,
		thresholds: thresholds.withDefaults(),
		logger:     logger,
	}
}

// Parse runs one request through the pipeline. The AI is called at most once
// and never retried; any recoverable failure there drops to the heuristic
// parser, so a valid request always produces a result.
func (o *Orchestrator) Parse(ctx context.Context, req models.ParseRequest) (Outcome, error) {
	if err := validateRequest(req); err != nil {
		return Outcome{}, err
	}

	fingerprint := Fingerprint(req)
	log := o.logger.WithFields(
		logging.Field{Key: logging.FieldUser, Value: req.UserID},
		logging.Field{Key: logging.FieldDomain, Value: string(req.Domain)},
	)

	if cached, hit, err := o.cache.Get(ctx, fingerprint); err == nil && hit {
		log.WithField(logging.FieldStrategy, "cache").Debug("cache hit")
		return Outcome{Result: cached, CacheHit: true, Status: o.statusFor(cached)}, nil
	} else if err != nil {
		log.WithError(err).Warn("cache lookup failed, parsing fresh")
	}

	result, aiErr := o.attemptAI(ctx, req, log)
	if aiErr != nil {
		if !parsererror.IsRecoverable(aiErr) {
			return Outcome{}, aiErr
		}
		log.WithError(aiErr).WithField(logging.FieldStrategy, "heuristic").
			Info("falling back to rule-based parse")
		result = o.fallback.Parse(req)
	}

	o.enforceReviewFloor(&result)

	status := o.statusFor(result)
	auditID := o.writeAudit(ctx, req, result, status, aiErr)

	// Fallback results stay uncached: the next identical request goes back
	// to the AI path instead of pinning a heuristic guess for the TTL.
	if !result.FallbackUsed {
		if err := o.cache.Put(ctx, fingerprint, result); err != nil {
			log.WithError(err).Warn("failed to cache parse result")
		}
	}

	log.WithFields(
		logging.Field{Key: logging.FieldStatus, Value: string(status)},
		logging.Field{Key: logging.FieldConfidence, Value: result.MinConfidence()},
	).Info("parse complete")

	return Outcome{Result: result, AuditID: auditID, Status: status}, nil
}

// attemptAI makes the single AI call and normalizes its output. Both API and
// malformed-response failures are recoverable; anything else is passed up.
func (o *Orchestrator) attemptAI(ctx context.Context, req models.ParseRequest, log logging.Logger) (models.ParseResult, error) {
	if o.client == nil {
		return models.ParseResult{}, &parsererror.ApiError{Operation: "generate", Err: errNoClient}
	}

	prompt := ai.BuildPrompt(req, o.slugs)
	raw, err := o.client.Complete(ctx, prompt)
	if err != nil {
		return models.ParseResult{}, err
	}

	result, err := o.normalizer.Normalize(raw, req)
	if err != nil {
		return models.ParseResult{}, err
	}

	log.WithFields(
		logging.Field{Key: logging.FieldStrategy, Value: "ai"},
		logging.Field{Key: logging.FieldModel, Value: o.client.ModelName()},
	).Debug("ai parse succeeded")
	return result, nil
}

// writeAudit records the attempt. Audit failures never fail a parse: the
// error is logged and an empty ID returned.
func (o *Orchestrator) writeAudit(ctx context.Context, req models.ParseRequest,
	result models.ParseResult, status models.AuditStatus, aiErr error) string {

	record := models.AuditRecord{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Module:    req.Domain,
		RawText:   req.RawText,
		ModelName: o.modelName(result),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if aiErr != nil {
		record.ErrorMessage = aiErr.Error()
	}
	if !result.Empty() {
		confidence := result.MinConfidence()
		record.Confidence = &confidence
		if payload, err := json.Marshal(result); err == nil {
			record.ParsedPayload = string(payload)
		}
	}

	if err := o.audit.Append(ctx, record); err != nil {
		o.logger.WithError(err).WithField(logging.FieldUser, req.UserID).
			Warn("audit write failed")
		return ""
	}
	return record.ID
}

func (o *Orchestrator) modelName(result models.ParseResult) string {
	if result.FallbackUsed || o.client == nil {
		return "heuristic"
	}
	return o.client.ModelName()
}

// enforceReviewFloor forces confirmation on every item scored below the
// review threshold, regardless of how it was produced.
func (o *Orchestrator) enforceReviewFloor(result *models.ParseResult) {
	for i := range result.Transactions {
		if result.Transactions[i].Confidence < o.thresholds.Review {
			result.Transactions[i].RequiresConfirmation = true
		}
	}
	for i := range result.Tasks {
		if result.Tasks[i].Confidence < o.thresholds.Review {
			result.Tasks[i].RequiresConfirmation = true
		}
	}
}

// statusFor derives the audit status from the weakest item in the result.
// A result with no actionable data at all is failed, however confident the
// parser that produced it.
func (o *Orchestrator) statusFor(result models.ParseResult) models.AuditStatus {
	if !usable(result) {
		return models.AuditFailed
	}
	if result.MinConfidence() >= o.thresholds.Review {
		return models.AuditParsed
	}
	return models.AuditPendingReview
}

// usable reports whether the result carries anything a caller can act on:
// at least one transaction with a positive amount, or one titled task. The
// heuristic path emits a transaction even when it found no amount in the
// text, so emptiness alone is not the test.
func usable(result models.ParseResult) bool {
	for _, tx := range result.Transactions {
		if tx.Amount.IsPositive() {
			return true
		}
	}
	for _, task := range result.Tasks {
		if task.Title != "" {
			return true
		}
	}
	return false
}

func validateRequest(req models.ParseRequest) error {
	if strings.TrimSpace(req.RawText) == "" {
		return &parsererror.ValidationError{Field: "raw_text", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.UserID) == "" {
		return &parsererror.ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if req.Domain != models.DomainFinance && req.Domain != models.DomainTask {
		return &parsererror.ValidationError{Field: "domain", Value: string(req.Domain), Reason: "must be finance or task"}
	}
	return nil
}
