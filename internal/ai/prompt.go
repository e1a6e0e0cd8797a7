package ai

import (
	"fmt"
	"strings"

	"hishab/internal/models"
)

const financePromptTemplate = `You are a bookkeeping assistant for users in Bangladesh.
Extract every financial transaction from the phrase below.

Respond with ONLY a JSON array, no prose, one object per transaction:
[{"type":"income|expense","amount":123.45,"currency":"BDT|USD","category":"<slug>","vendor":"<name or empty>","description":"<short summary>","confidence":0.0-1.0}]

Rules:
- amount is a positive number; currency defaults to BDT when the phrase has no marker.
- category must be one of: %s. Use "other" when unsure.
- confidence reflects how certain you are about the WHOLE object.

Phrase: %q`

const taskPromptTemplate = `You are a personal assistant.
Extract every actionable task from the phrase below.

Respond with ONLY a JSON array, no prose, one object per task:
[{"title":"<imperative title>","description":"<details or empty>","due_date":"YYYY-MM-DDTHH:MM:SSZ or null","priority":"low|medium|high|urgent","confidence":0.0-1.0}]

Rules:
- priority defaults to medium when the phrase gives no hint.
- due_date must be null unless the phrase names a date or an unambiguous relative day.
- confidence reflects how certain you are about the WHOLE object.

Phrase: %q`

// BuildPrompt renders the structured-output prompt for one parse request.
// categorySlugs constrains the model's category choices for finance phrases.
func BuildPrompt(req models.ParseRequest, categorySlugs []string) string {
	if req.Domain == models.DomainTask {
		return fmt.Sprintf(taskPromptTemplate, req.RawText)
	}
	return fmt.Sprintf(financePromptTemplate, strings.Join(categorySlugs, ", "), req.RawText)
}

// CleanResponse strips the markdown code fences models wrap JSON in, plus
// surrounding whitespace. The content is returned untouched otherwise.
func CleanResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}

	return strings.TrimSpace(cleaned)
}
