// Package heuristic implements the deterministic fallback parser. It never
// calls the network and never fails: whatever it cannot determine it leaves
// at a conservative default with a low confidence score.
package heuristic

import (
	"strings"
	"time"

	"hishab/internal/categorizer"
	"hishab/internal/extractor"
	"hishab/internal/logging"
	"hishab/internal/models"
)

// incomeKeywords flip the transaction type from the expense default.
var incomeKeywords = []string{"received", "earned", "salary", "payment", "income"}

// Confidence tiers for the deterministic path. Scores stay below the review
// threshold on purpose: a rule-based guess always deserves a human look.
const (
	confidenceFull       = 0.5  // amount and category both resolved
	confidenceAmountOnly = 0.35 // amount found, category fell through to other
	confidenceCategory   = 0.2  // category matched but no amount
	confidenceNone       = 0.05 // nothing usable in the text
)

// Parser is the rule-based transaction parser used when the AI path is
// unavailable or produced garbage.
type Parser struct {
	extractor  *extractor.Extractor
	expense    *categorizer.Categorizer
	income     *categorizer.Categorizer
	taskParser *TaskParser
	logger     logging.Logger
}

// New wires a Parser from its leaf components.
func New(ext *extractor.Extractor, expense, income *categorizer.Categorizer, logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Parser{
		extractor:  ext,
		expense:    expense,
		income:     income,
		taskParser: NewTaskParser(logger),
		logger:     logger,
	}
}

// Parse produces a single best-effort result for the phrase. It handles both
// domains and always returns a usable ParseResult.
func (p *Parser) Parse(req models.ParseRequest) models.ParseResult {
	if req.Domain == models.DomainTask {
		return p.parseTask(req)
	}
	return p.parseFinance(req)
}

func (p *Parser) parseFinance(req models.ParseRequest) models.ParseResult {
	lowered := strings.ToLower(req.RawText)

	txType := models.TxExpense
	for _, kw := range incomeKeywords {
		if strings.Contains(lowered, kw) {
			txType = models.TxIncome
			break
		}
	}

	extraction := p.extractor.Extract(req.RawText)

	var category string
	if txType == models.TxIncome {
		category = p.income.Categorize(req.RawText)
	} else {
		category = p.expense.Categorize(req.RawText)
	}

	confidence := scoreFinance(extraction.Amount != nil, category != models.CategoryOther)

	tx := models.ParsedTransaction{
		Type:                 txType,
		Currency:             extraction.Currency,
		Category:             category,
		Description:          strings.TrimSpace(req.RawText),
		Date:                 time.Now(),
		Confidence:           confidence,
		RequiresConfirmation: true,
		FallbackUsed:         true,
	}
	if extraction.Amount != nil {
		tx.Amount = *extraction.Amount
	}

	p.logger.WithFields(
		logging.Field{Key: logging.FieldUser, Value: req.UserID},
		logging.Field{Key: logging.FieldCategory, Value: category},
		logging.Field{Key: logging.FieldConfidence, Value: confidence},
	).Debug("heuristic finance parse")

	return models.ParseResult{
		Domain:       models.DomainFinance,
		Transactions: []models.ParsedTransaction{tx},
		FallbackUsed: true,
	}
}

func (p *Parser) parseTask(req models.ParseRequest) models.ParseResult {
	task := p.taskParser.Parse(req.RawText)

	p.logger.WithFields(
		logging.Field{Key: logging.FieldUser, Value: req.UserID},
		logging.Field{Key: logging.FieldConfidence, Value: task.Confidence},
	).Debug("heuristic task parse")

	return models.ParseResult{
		Domain:       models.DomainTask,
		Tasks:        []models.ParsedTask{task},
		FallbackUsed: true,
	}
}

func scoreFinance(hasAmount, hasCategory bool) float64 {
	switch {
	case hasAmount && hasCategory:
		return confidenceFull
	case hasAmount:
		return confidenceAmountOnly
	case hasCategory:
		return confidenceCategory
	default:
		return confidenceNone
	}
}
