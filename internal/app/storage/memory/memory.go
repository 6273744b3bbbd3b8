// Package memory provides an in-memory VerificationStore used for tests and
// deployments without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/domain/verification"
	"github.com/Dante9988/AI-Content-Checker-Blockchain-Proof/internal/app/storage"
)

// Store is a mutex-guarded in-memory store.
type Store struct {
	mu      sync.RWMutex
	entries map[string]verification.Entry
}

var _ storage.VerificationStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{entries: make(map[string]verification.Entry)}
}

func (s *Store) SaveVerification(ctx context.Context, entry verification.Entry) (verification.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()
	s.entries[entry.ID] = entry
	return entry, nil
}

func (s *Store) GetVerification(ctx context.Context, fingerprint verification.Fingerprint) (verification.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *verification.Entry
	for _, entry := range s.entries {
		if entry.Fingerprint != fingerprint {
			continue
		}
		if found == nil || entry.CreatedAt.After(found.CreatedAt) {
			e := entry
			found = &e
		}
	}
	if found == nil {
		return verification.Entry{}, fmt.Errorf("verification not found: %s", fingerprint)
	}
	return *found, nil
}

func (s *Store) ListVerifications(ctx context.Context, limit int) ([]verification.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]verification.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
