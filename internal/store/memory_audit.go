package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hishab/internal/models"
)

// MemoryAuditStore keeps audit records in memory. It backs tests and
// ephemeral runs where no database path is configured.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	records map[string]models.AuditRecord
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{records: make(map[string]models.AuditRecord)}
}

// Append stores a new record. Record IDs must be unique.
func (s *MemoryAuditStore) Append(_ context.Context, record models.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("audit record %s already exists", record.ID)
	}
	s.records[record.ID] = record
	return nil
}

// UpdateStatus applies a lifecycle transition to an existing record.
func (s *MemoryAuditStore) UpdateStatus(_ context.Context, id string, next models.AuditStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return fmt.Errorf("audit record %s not found", id)
	}
	if !record.CanTransitionTo(next) {
		return fmt.Errorf("audit record %s: illegal transition %s -> %s", id, record.Status, next)
	}
	record.Status = next
	s.records[id] = record
	return nil
}

// Get returns one record by ID.
func (s *MemoryAuditStore) Get(_ context.Context, id string) (models.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return models.AuditRecord{}, fmt.Errorf("audit record %s not found", id)
	}
	return record, nil
}

// List returns records newest-first, optionally filtered by user. A limit of
// zero means no limit.
func (s *MemoryAuditStore) List(_ context.Context, userID string, limit int) ([]models.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.AuditRecord
	for _, record := range s.records {
		if userID != "" && record.UserID != userID {
			continue
		}
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
