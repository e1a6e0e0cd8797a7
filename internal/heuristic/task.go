package heuristic

import (
	"strings"
	"time"

	"hishab/internal/logging"
	"hishab/internal/models"
)

// priorityKeywords are scanned in declaration order; the first hit wins.
var priorityKeywords = []struct {
	keyword  string
	priority models.Priority
}{
	{"urgent", models.PriorityUrgent},
	{"asap", models.PriorityUrgent},
	{"immediately", models.PriorityUrgent},
	{"important", models.PriorityHigh},
	{"must", models.PriorityHigh},
	{"whenever", models.PriorityLow},
	{"someday", models.PriorityLow},
	{"eventually", models.PriorityLow},
}

const (
	taskConfidenceDated = 0.4
	taskConfidenceBase  = 0.25
)

// TaskParser is the rule-based task parser. Titles are the raw phrase with
// noise prefixes trimmed; due dates are only resolved for unambiguous
// relative words.
type TaskParser struct {
	logger logging.Logger
	now    func() time.Time
}

func NewTaskParser(logger logging.Logger) *TaskParser {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &TaskParser{logger: logger, now: time.Now}
}

// Parse builds a best-effort task from the phrase.
func (p *TaskParser) Parse(text string) models.ParsedTask {
	lowered := strings.ToLower(text)

	priority := models.PriorityMedium
	for _, pk := range priorityKeywords {
		if strings.Contains(lowered, pk.keyword) {
			priority = pk.priority
			break
		}
	}

	dueDate := p.resolveDueDate(lowered)

	confidence := taskConfidenceBase
	if dueDate != nil {
		confidence = taskConfidenceDated
	}

	return models.ParsedTask{
		Title:                trimTaskPrefix(text),
		Priority:             priority,
		DueDate:              dueDate,
		Confidence:           confidence,
		RequiresConfirmation: true,
		FallbackUsed:         true,
	}
}

// resolveDueDate maps unambiguous relative words onto end-of-day timestamps.
// Anything fuzzier is left nil for the user to fill in.
func (p *TaskParser) resolveDueDate(lowered string) *time.Time {
	now := p.now()

	var due time.Time
	switch {
	case strings.Contains(lowered, "today"), strings.Contains(lowered, "tonight"):
		due = endOfDay(now)
	case strings.Contains(lowered, "tomorrow"):
		due = endOfDay(now.AddDate(0, 0, 1))
	case strings.Contains(lowered, "next week"):
		due = endOfDay(now.AddDate(0, 0, 7))
	default:
		return nil
	}
	return &due
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// trimTaskPrefix strips conversational lead-ins so the title reads like a
// task, not a sentence.
func trimTaskPrefix(text string) string {
	trimmed := strings.TrimSpace(text)
	lowered := strings.ToLower(trimmed)
	for _, prefix := range []string{"remind me to ", "i need to ", "i have to ", "todo ", "to do "} {
		if strings.HasPrefix(lowered, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}
