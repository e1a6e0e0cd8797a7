package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hishab/internal/models"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	result := models.ParseResult{
		Domain: models.DomainFinance,
		Transactions: []models.ParsedTransaction{
			{Type: models.TxExpense, Category: "groceries", Confidence: 0.9},
		},
	}

	_, hit, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Put(ctx, "fp1", result))

	cached, hit, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, result, cached)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(10 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "fp1", models.ParseResult{Domain: models.DomainFinance}))

	time.Sleep(20 * time.Millisecond)

	_, hit, err := c.Get(ctx, "fp1")
	require.NoError(t, err)
	assert.False(t, hit, "entry past its TTL must miss")
}

func TestMemoryCacheCloseIdempotent(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestMemoryAuditStoreLifecycle(t *testing.T) {
	s := NewMemoryAuditStore()
	ctx := context.Background()

	record := models.AuditRecord{
		ID:        "a1",
		UserID:    "u1",
		Module:    models.DomainFinance,
		RawText:   "spent 500 taka",
		Status:    models.AuditPendingReview,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.Append(ctx, record))

	assert.Error(t, s.Append(ctx, record), "duplicate IDs are rejected")

	require.NoError(t, s.UpdateStatus(ctx, "a1", models.AuditApplied))

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AuditApplied, got.Status)

	assert.Error(t, s.UpdateStatus(ctx, "a1", models.AuditFailed), "applied is terminal")
	assert.Error(t, s.UpdateStatus(ctx, "missing", models.AuditApplied))
}

func TestMemoryAuditStoreList(t *testing.T) {
	s := NewMemoryAuditStore()
	ctx := context.Background()
	base := time.Now()

	for i, id := range []string{"a1", "a2", "a3"} {
		userID := "u1"
		if id == "a3" {
			userID = "u2"
		}
		require.NoError(t, s.Append(ctx, models.AuditRecord{
			ID:        id,
			UserID:    userID,
			Module:    models.DomainFinance,
			Status:    models.AuditParsed,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a3", all[0].ID, "newest first")

	mine, err := s.List(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	limited, err := s.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
