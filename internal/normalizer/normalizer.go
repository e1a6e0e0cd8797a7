// Package normalizer turns raw model output into validated domain results.
// The decode is deliberately lenient: a sloppy but salvageable payload is
// coerced with defaults rather than rejected, and every defaulted field
// forces user confirmation downstream. The amount is the one hard gate: a
// transaction without a positive parseable amount is not salvageable.
package normalizer

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hishab/internal/ai"
	"hishab/internal/logging"
	"hishab/internal/models"
	"hishab/internal/parsererror"
)

// defaultConfidence is assigned when the model omits a usable score.
const defaultConfidence = 0.5

// defaultAutoAccept is the confidence at which a clean result skips user
// confirmation, used when the caller passes no threshold.
const defaultAutoAccept = 0.8

// rawTransaction mirrors the JSON shape requested from the model. Everything
// is loosely typed so one bad field does not sink the whole payload.
type rawTransaction struct {
	Type        string          `json:"type"`
	Amount      json.Number     `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Vendor      string          `json:"vendor"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Confidence  json.RawMessage `json:"confidence"`
}

type rawTask struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	DueDate     string          `json:"due_date"`
	Priority    string          `json:"priority"`
	Confidence  json.RawMessage `json:"confidence"`
}

// Normalizer validates and coerces model output for one domain vocabulary.
type Normalizer struct {
	defaultCurrency string
	knownCategories map[string]bool
	autoAccept      float64
	logger          logging.Logger
}

// New builds a Normalizer. categorySlugs is the closed set of category
// values accepted from the model; anything else is defaulted to other.
// autoAccept is the confidence floor for skipping confirmation; zero means
// the default.
func New(defaultCurrency string, categorySlugs []string, autoAccept float64, logger logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	if defaultCurrency == "" {
		defaultCurrency = "BDT"
	}
	if autoAccept <= 0 {
		autoAccept = defaultAutoAccept
	}
	known := make(map[string]bool, len(categorySlugs)+1)
	for _, slug := range categorySlugs {
		known[slug] = true
	}
	known[models.CategoryOther] = true

	return &Normalizer{
		defaultCurrency: defaultCurrency,
		knownCategories: known,
		autoAccept:      autoAccept,
		logger:          logger,
	}
}

// Normalize decodes the raw model response into a ParseResult for the
// request's domain. A payload that cannot be decoded at all yields a
// MalformedResponseError; individually bad fields are coerced instead.
func (n *Normalizer) Normalize(raw string, req models.ParseRequest) (models.ParseResult, error) {
	cleaned := ai.CleanResponse(raw)
	if cleaned == "" {
		return models.ParseResult{}, &parsererror.MalformedResponseError{Reason: "empty response"}
	}

	if req.Domain == models.DomainTask {
		return n.normalizeTasks(cleaned)
	}
	return n.normalizeTransactions(cleaned)
}

func (n *Normalizer) normalizeTransactions(cleaned string) (models.ParseResult, error) {
	rawList, err := decodeList[rawTransaction](cleaned)
	if err != nil {
		return models.ParseResult{}, err
	}

	result := models.ParseResult{Domain: models.DomainFinance}
	for _, r := range rawList {
		tx, defaulted, ok := n.coerceTransaction(r)
		if !ok {
			n.logger.WithField(logging.FieldAmount, r.Amount.String()).
				Debug("transaction dropped, amount not a positive number")
			continue
		}
		tx.RequiresConfirmation = tx.Confidence < n.autoAccept || defaulted
		result.Transactions = append(result.Transactions, tx)
	}
	if len(result.Transactions) == 0 {
		return models.ParseResult{}, &parsererror.MalformedResponseError{Reason: "no transaction with a positive amount", Snippet: snippet(cleaned)}
	}
	return result, nil
}

func (n *Normalizer) normalizeTasks(cleaned string) (models.ParseResult, error) {
	rawList, err := decodeList[rawTask](cleaned)
	if err != nil {
		return models.ParseResult{}, err
	}

	result := models.ParseResult{Domain: models.DomainTask}
	for _, r := range rawList {
		task, defaulted := n.coerceTask(r)
		if task.Title == "" {
			continue
		}
		task.RequiresConfirmation = task.Confidence < n.autoAccept || defaulted
		result.Tasks = append(result.Tasks, task)
	}
	if len(result.Tasks) == 0 {
		return models.ParseResult{}, &parsererror.MalformedResponseError{Reason: "no tasks in payload", Snippet: snippet(cleaned)}
	}
	return result, nil
}

// decodeList accepts either a JSON array or a single bare object.
func decodeList[T any](cleaned string) ([]T, error) {
	var list []T
	if err := json.Unmarshal([]byte(cleaned), &list); err == nil {
		return list, nil
	}

	var single T
	if err := json.Unmarshal([]byte(cleaned), &single); err != nil {
		return nil, &parsererror.MalformedResponseError{Reason: "invalid JSON", Snippet: snippet(cleaned), Err: err}
	}
	return []T{single}, nil
}

// coerceTransaction maps one raw object onto the domain type. The first bool
// reports whether any field was replaced with a default; the second reports
// whether the object is usable at all. A missing, unparseable, zero, or
// negative amount makes it unusable. Money is never repaired.
func (n *Normalizer) coerceTransaction(r rawTransaction) (models.ParsedTransaction, bool, bool) {
	if r.Amount == "" {
		return models.ParsedTransaction{}, false, false
	}
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil || !amount.IsPositive() {
		return models.ParsedTransaction{}, false, false
	}

	defaulted := false

	txType, ok := models.ParseTxType(r.Type)
	if !ok {
		defaulted = true
	}

	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency != "BDT" && currency != "USD" {
		currency = n.defaultCurrency
		defaulted = true
	}

	category := strings.ToLower(strings.TrimSpace(r.Category))
	if !n.knownCategories[category] {
		n.logger.WithField(logging.FieldCategory, category).Debug("unknown category defaulted")
		category = models.CategoryOther
		defaulted = true
	}

	date := time.Now()
	if r.Date != "" {
		if parsed, err := parseDate(r.Date); err == nil {
			date = parsed
		} else {
			defaulted = true
		}
	}

	confidence, confDefaulted := parseConfidence(r.Confidence)
	defaulted = defaulted || confDefaulted

	return models.ParsedTransaction{
		Type:        txType,
		Amount:      amount,
		Currency:    currency,
		Category:    category,
		Vendor:      strings.TrimSpace(r.Vendor),
		Description: strings.TrimSpace(r.Description),
		Date:        date,
		Confidence:  confidence,
	}, defaulted, true
}

func (n *Normalizer) coerceTask(r rawTask) (models.ParsedTask, bool) {
	defaulted := false

	priority, ok := models.ParsePriority(r.Priority)
	if !ok {
		defaulted = true
	}

	var dueDate *time.Time
	if r.DueDate != "" && !strings.EqualFold(r.DueDate, "null") {
		if parsed, err := parseDate(r.DueDate); err == nil {
			dueDate = &parsed
		} else {
			defaulted = true
		}
	}

	confidence, confDefaulted := parseConfidence(r.Confidence)
	defaulted = defaulted || confDefaulted

	return models.ParsedTask{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		DueDate:     dueDate,
		Priority:    priority,
		Confidence:  confidence,
	}, defaulted
}

// parseConfidence clamps a numeric confidence to [0, 1]. Missing or
// non-numeric values get defaultConfidence and count as defaulted.
func parseConfidence(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return defaultConfidence, true
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return defaultConfidence, true
	}
	switch {
	case v < 0:
		return 0, false
	case v > 1:
		return 1, false
	}
	return v, false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(s))
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// snippet bounds the payload fragment carried inside error values.
func snippet(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
