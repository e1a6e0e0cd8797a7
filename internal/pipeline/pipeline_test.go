package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hishab/internal/ai"
	"hishab/internal/categorizer"
	"hishab/internal/extractor"
	"hishab/internal/heuristic"
	"hishab/internal/logging"
	"hishab/internal/models"
	"hishab/internal/normalizer"
	"hishab/internal/parsererror"
	"hishab/internal/store"
	"hishab/internal/vocab"
)

type testHarness struct {
	orch  *Orchestrator
	mock  *ai.MockClient
	audit *store.MemoryAuditStore
	cache *store.MemoryCache
}

func newHarness(t *testing.T, mock *ai.MockClient) *testHarness {
	t.Helper()
	logger := logging.NewMockLogger()

	expense := vocab.DefaultExpenseCategories()
	income := vocab.DefaultIncomeSources()
	slugs := append(expense.Slugs(), income.Slugs()...)
	fallback := heuristic.New(
		extractor.New("BDT"),
		categorizer.New(expense, logger),
		categorizer.New(income, logger),
		logger,
	)
	norm := normalizer.New("BDT", slugs, 0, logger)

	audit := store.NewMemoryAuditStore()
	cache := store.NewMemoryCache(time.Minute)
	t.Cleanup(func() { cache.Close() })

	var client ai.Client
	if mock != nil {
		client = mock
	}
	return &testHarness{
		orch:  New(client, fallback, norm, audit, cache, slugs, Thresholds{}, logger),
		mock:  mock,
		audit: audit,
		cache: cache,
	}
}

func financeRequest(text string) models.ParseRequest {
	return models.ParseRequest{RawText: text, UserID: "u1", Domain: models.DomainFinance}
}

func auditCount(t *testing.T, h *testHarness) int {
	t.Helper()
	records, err := h.audit.List(context.Background(), "", 0)
	require.NoError(t, err)
	return len(records)
}

func TestParseHighConfidenceAI(t *testing.T) {
	mock := &ai.MockClient{
		Response: `[{"type":"income","amount":50000,"currency":"BDT","category":"salary","description":"monthly salary","confidence":0.95}]`,
	}
	h := newHarness(t, mock)

	outcome, err := h.orch.Parse(context.Background(), financeRequest("I received 50000 taka as salary"))
	require.NoError(t, err)

	require.Len(t, outcome.Result.Transactions, 1)
	tx := outcome.Result.Transactions[0]
	assert.Equal(t, models.TxIncome, tx.Type)
	assert.True(t, decimal.NewFromInt(50000).Equal(tx.Amount))
	assert.False(t, tx.RequiresConfirmation)
	assert.False(t, outcome.Result.FallbackUsed)
	assert.Equal(t, models.AuditParsed, outcome.Status)
	assert.False(t, outcome.CacheHit)
	assert.Equal(t, 1, mock.Calls)

	require.NotEmpty(t, outcome.AuditID)
	record, err := h.audit.Get(context.Background(), outcome.AuditID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditParsed, record.Status)
	assert.Equal(t, mock.ModelName(), record.ModelName)
	require.NotNil(t, record.Confidence)
	assert.Equal(t, 0.95, *record.Confidence)
	assert.Equal(t, 1, auditCount(t, h))
}

func TestParseCacheHitSkipsAIAndAudit(t *testing.T) {
	mock := &ai.MockClient{
		Response: `[{"type":"expense","amount":300,"currency":"BDT","category":"dining","confidence":0.9}]`,
	}
	h := newHarness(t, mock)
	ctx := context.Background()

	first, err := h.orch.Parse(ctx, financeRequest("dinner 300 taka"))
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	// Same phrase modulo case and spacing hits the cache.
	second, err := h.orch.Parse(ctx, financeRequest("  Dinner   300 TAKA "))
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Empty(t, second.AuditID)
	assert.Equal(t, first.Result, second.Result)

	assert.Equal(t, 1, mock.Calls, "cache hit must not call the model")
	assert.Equal(t, 1, auditCount(t, h), "cache hit must not write an audit record")
}

func TestParseFingerprintIsPerUser(t *testing.T) {
	mock := &ai.MockClient{
		Response: `[{"type":"expense","amount":300,"currency":"BDT","category":"dining","confidence":0.9}]`,
	}
	h := newHarness(t, mock)
	ctx := context.Background()

	_, err := h.orch.Parse(ctx, models.ParseRequest{RawText: "dinner 300", UserID: "u1", Domain: models.DomainFinance})
	require.NoError(t, err)
	outcome, err := h.orch.Parse(ctx, models.ParseRequest{RawText: "dinner 300", UserID: "u2", Domain: models.DomainFinance})
	require.NoError(t, err)

	assert.False(t, outcome.CacheHit, "cache keys include the user")
	assert.Equal(t, 2, mock.Calls)
}

func TestParseAPIErrorFallsBack(t *testing.T) {
	mock := &ai.MockClient{
		Err: &parsererror.ApiError{Operation: "generate", Model: "m", Err: errors.New("500 internal")},
	}
	h := newHarness(t, mock)

	outcome, err := h.orch.Parse(context.Background(), financeRequest("spent 500 taka on groceries"))
	require.NoError(t, err, "recoverable AI failures must not surface")

	require.Len(t, outcome.Result.Transactions, 1)
	tx := outcome.Result.Transactions[0]
	assert.True(t, tx.FallbackUsed)
	assert.True(t, tx.RequiresConfirmation)
	assert.True(t, outcome.Result.FallbackUsed)
	assert.Equal(t, models.AuditPendingReview, outcome.Status)
	assert.Equal(t, 1, mock.Calls, "exactly one AI attempt, no retry")

	record, err := h.audit.Get(context.Background(), outcome.AuditID)
	require.NoError(t, err)
	assert.Equal(t, "heuristic", record.ModelName)
	assert.Contains(t, record.ErrorMessage, "500 internal")
	assert.Equal(t, 1, auditCount(t, h))
}

func TestParseMalformedResponseFallsBack(t *testing.T) {
	mock := &ai.MockClient{Response: "sorry, I can't help with that"}
	h := newHarness(t, mock)

	outcome, err := h.orch.Parse(context.Background(), financeRequest("spent 500 taka on groceries"))
	require.NoError(t, err)
	assert.True(t, outcome.Result.FallbackUsed)
	assert.Equal(t, 1, mock.Calls)
}

func TestParseFallbackNotCached(t *testing.T) {
	mock := &ai.MockClient{Err: &parsererror.ApiError{Operation: "generate", Err: errors.New("boom")}}
	h := newHarness(t, mock)
	ctx := context.Background()

	_, err := h.orch.Parse(ctx, financeRequest("spent 500 taka on groceries"))
	require.NoError(t, err)

	outcome, err := h.orch.Parse(ctx, financeRequest("spent 500 taka on groceries"))
	require.NoError(t, err)
	assert.False(t, outcome.CacheHit, "fallback results are recomputed, not cached")
	assert.Equal(t, 2, mock.Calls)
	assert.Equal(t, 2, auditCount(t, h))
}

func TestParseLowConfidencePendingReview(t *testing.T) {
	mock := &ai.MockClient{
		Response: `[{"type":"expense","amount":150,"currency":"BDT","category":"other","confidence":0.35}]`,
	}
	h := newHarness(t, mock)

	outcome, err := h.orch.Parse(context.Background(), financeRequest("bought stuff for 150"))
	require.NoError(t, err)

	assert.Equal(t, models.AuditPendingReview, outcome.Status)
	require.Len(t, outcome.Result.Transactions, 1)
	assert.True(t, outcome.Result.Transactions[0].RequiresConfirmation,
		"below the review threshold confirmation is forced")
}

func TestParseNonPositiveModelAmountFallsBack(t *testing.T) {
	// A zero, negative, or missing amount from the model is a parse
	// failure, not a valid transaction: the heuristic takes over with the
	// amount actually present in the text, and nothing is cached.
	for name, response := range map[string]string{
		"zero":     `[{"type":"expense","amount":0,"currency":"BDT","category":"groceries","confidence":0.95}]`,
		"negative": `[{"type":"expense","amount":-500,"currency":"BDT","category":"groceries","confidence":0.95}]`,
		"missing":  `[{"type":"expense","currency":"BDT","category":"groceries","confidence":0.95}]`,
	} {
		t.Run(name, func(t *testing.T) {
			mock := &ai.MockClient{Response: response}
			h := newHarness(t, mock)
			ctx := context.Background()

			outcome, err := h.orch.Parse(ctx, financeRequest("spent 500 taka on groceries"))
			require.NoError(t, err)

			require.Len(t, outcome.Result.Transactions, 1)
			tx := outcome.Result.Transactions[0]
			assert.True(t, decimal.NewFromInt(500).Equal(tx.Amount))
			assert.True(t, tx.FallbackUsed)
			assert.True(t, tx.RequiresConfirmation)
			assert.Equal(t, models.AuditPendingReview, outcome.Status)

			second, err := h.orch.Parse(ctx, financeRequest("spent 500 taka on groceries"))
			require.NoError(t, err)
			assert.False(t, second.CacheHit, "a rejected model amount must not become sticky")
			assert.Equal(t, 2, mock.Calls)
		})
	}
}

func TestParseNoUsableAmountAuditsFailed(t *testing.T) {
	h := newHarness(t, nil)

	outcome, err := h.orch.Parse(context.Background(), financeRequest("went to the bazar today"))
	require.NoError(t, err)

	require.Len(t, outcome.Result.Transactions, 1)
	assert.True(t, outcome.Result.Transactions[0].Amount.IsZero())
	assert.Equal(t, models.AuditFailed, outcome.Status)

	record, err := h.audit.Get(context.Background(), outcome.AuditID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditFailed, record.Status)
	assert.Equal(t, 1, auditCount(t, h))

	second, err := h.orch.Parse(context.Background(), financeRequest("went to the bazar today"))
	require.NoError(t, err)
	assert.False(t, second.CacheHit, "failed results are never cached")
}

func TestParseNilClientUsesHeuristic(t *testing.T) {
	h := newHarness(t, nil)

	outcome, err := h.orch.Parse(context.Background(), financeRequest("received 50000 taka as salary"))
	require.NoError(t, err)

	require.Len(t, outcome.Result.Transactions, 1)
	tx := outcome.Result.Transactions[0]
	assert.Equal(t, models.TxIncome, tx.Type)
	assert.Equal(t, "salary", tx.Category)
	assert.True(t, tx.FallbackUsed)
	assert.Equal(t, models.AuditPendingReview, outcome.Status)
	assert.Equal(t, 1, auditCount(t, h))
}

func TestParseTaskDomain(t *testing.T) {
	mock := &ai.MockClient{
		Response: `[{"title":"Pay electricity bill","due_date":"2025-04-01T18:00:00Z","priority":"high","confidence":0.9}]`,
	}
	h := newHarness(t, mock)

	outcome, err := h.orch.Parse(context.Background(), models.ParseRequest{
		RawText: "pay the electricity bill by April 1st",
		UserID:  "u1",
		Domain:  models.DomainTask,
	})
	require.NoError(t, err)

	require.Len(t, outcome.Result.Tasks, 1)
	assert.Equal(t, "Pay electricity bill", outcome.Result.Tasks[0].Title)
	assert.Equal(t, models.AuditParsed, outcome.Status)

	record, err := h.audit.Get(context.Background(), outcome.AuditID)
	require.NoError(t, err)
	assert.Equal(t, models.DomainTask, record.Module)
}

func TestParseMultipleTransactions(t *testing.T) {
	mock := &ai.MockClient{
		Response: `[
			{"type":"expense","amount":300,"currency":"BDT","category":"dining","confidence":0.9},
			{"type":"expense","amount":150,"currency":"BDT","category":"transport","confidence":0.5}
		]`,
	}
	h := newHarness(t, mock)

	outcome, err := h.orch.Parse(context.Background(), financeRequest("dinner 300 and cng 150"))
	require.NoError(t, err)

	require.Len(t, outcome.Result.Transactions, 2)
	assert.False(t, outcome.Result.Transactions[0].RequiresConfirmation)
	assert.True(t, outcome.Result.Transactions[1].RequiresConfirmation)
	assert.Equal(t, models.AuditPendingReview, outcome.Status,
		"status follows the weakest item")
	assert.Equal(t, 1, auditCount(t, h), "one record covers all items of a phrase")
}

func TestParseValidation(t *testing.T) {
	h := newHarness(t, &ai.MockClient{Response: "[]"})

	tests := []struct {
		name  string
		req   models.ParseRequest
		field string
	}{
		{"empty text", models.ParseRequest{UserID: "u1", Domain: models.DomainFinance}, "raw_text"},
		{"blank text", models.ParseRequest{RawText: "   ", UserID: "u1", Domain: models.DomainFinance}, "raw_text"},
		{"missing user", models.ParseRequest{RawText: "x", Domain: models.DomainFinance}, "user_id"},
		{"bad domain", models.ParseRequest{RawText: "x", UserID: "u1", Domain: models.Domain("crypto")}, "domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.orch.Parse(context.Background(), tt.req)
			var verr *parsererror.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Equal(t, 0, h.mock.Calls)
	assert.Equal(t, 0, auditCount(t, h))
}

func TestConfirmTransaction(t *testing.T) {
	mock := &ai.MockClient{
		Response: `[{"type":"expense","amount":300,"currency":"BDT","category":"dining","confidence":0.7}]`,
	}
	h := newHarness(t, mock)
	ctx := context.Background()

	outcome, err := h.orch.Parse(ctx, financeRequest("dinner 300"))
	require.NoError(t, err)

	tx := outcome.Result.Transactions[0]
	require.NoError(t, h.orch.ConfirmTransaction(ctx, outcome.AuditID, tx))

	record, err := h.audit.Get(ctx, outcome.AuditID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditApplied, record.Status)
}

func TestConfirmTransactionRejectsBadAmount(t *testing.T) {
	mock := &ai.MockClient{
		Response: `[{"type":"expense","amount":300,"currency":"BDT","category":"dining","confidence":0.7}]`,
	}
	h := newHarness(t, mock)
	ctx := context.Background()

	outcome, err := h.orch.Parse(ctx, financeRequest("dinner 300"))
	require.NoError(t, err)

	tx := outcome.Result.Transactions[0]
	tx.Amount = decimal.NewFromInt(-5)
	err = h.orch.ConfirmTransaction(ctx, outcome.AuditID, tx)

	var verr *parsererror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "amount", verr.Field)

	record, err := h.audit.Get(ctx, outcome.AuditID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditPendingReview, record.Status, "rejected input leaves the record untouched")
}

func TestMarkRejected(t *testing.T) {
	mock := &ai.MockClient{
		Response: `[{"type":"expense","amount":300,"currency":"BDT","category":"dining","confidence":0.9}]`,
	}
	h := newHarness(t, mock)
	ctx := context.Background()

	outcome, err := h.orch.Parse(ctx, financeRequest("dinner 300"))
	require.NoError(t, err)

	require.NoError(t, h.orch.MarkRejected(ctx, outcome.AuditID))
	record, err := h.audit.Get(ctx, outcome.AuditID)
	require.NoError(t, err)
	assert.Equal(t, models.AuditFailed, record.Status)

	assert.Error(t, h.orch.MarkApplied(ctx, outcome.AuditID), "failed is terminal")
}

func TestValidateTransaction(t *testing.T) {
	valid := models.ParsedTransaction{
		Type:     models.TxExpense,
		Amount:   decimal.NewFromInt(100),
		Currency: "BDT",
		Category: "dining",
	}
	require.NoError(t, ValidateTransaction(valid))

	zeroAmount := valid
	zeroAmount.Amount = decimal.Zero
	assert.Error(t, ValidateTransaction(zeroAmount))

	badType := valid
	badType.Type = models.TxType("transfer")
	assert.Error(t, ValidateTransaction(badType))

	badCurrency := valid
	badCurrency.Currency = "EUR"
	assert.Error(t, ValidateTransaction(badCurrency))

	noCategory := valid
	noCategory.Category = " "
	assert.Error(t, ValidateTransaction(noCategory))
}

func TestValidateTask(t *testing.T) {
	require.NoError(t, ValidateTask(models.ParsedTask{Title: "Buy charger", Priority: models.PriorityMedium}))
	assert.Error(t, ValidateTask(models.ParsedTask{Priority: models.PriorityMedium}))
	assert.Error(t, ValidateTask(models.ParsedTask{Title: "x", Priority: models.Priority("next")}))
}

func TestHealthCheckWithoutClient(t *testing.T) {
	h := newHarness(t, nil)
	assert.Error(t, h.orch.HealthCheck(context.Background()))
}

func TestFingerprint(t *testing.T) {
	base := financeRequest("Dinner 300 Taka")

	same := financeRequest("  dinner   300 taka ")
	assert.Equal(t, Fingerprint(base), Fingerprint(same))

	otherText := financeRequest("lunch 300 taka")
	assert.NotEqual(t, Fingerprint(base), Fingerprint(otherText))

	otherDomain := base
	otherDomain.Domain = models.DomainTask
	assert.NotEqual(t, Fingerprint(base), Fingerprint(otherDomain))

	otherUser := base
	otherUser.UserID = "u2"
	assert.NotEqual(t, Fingerprint(base), Fingerprint(otherUser))
}
