package inbound

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

type claimState int

const (
	claimHeld claimState = iota
	claimDone
	claimRetry
)

type claimRecord struct {
	claimID   string
	state     claimState
	attempts  int
	lease     time.Duration
	leaseEnd  time.Time
	retryFrom time.Time
}

// MemoryClaimStore is an in-process ClaimStore for single-node deployments
// and tests. Completed keys are remembered for one lease window, then
// evicted.
type MemoryClaimStore struct {
	mu      sync.Mutex
	byKey   map[string]claimRecord
	byClaim map[string]string
	nextID  int

	// Now is overridable for tests.
	Now func() time.Time
}

func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{
		byKey:   map[string]claimRecord{},
		byClaim: map[string]string{},
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryClaimStore) Claim(_ context.Context, key string, lease time.Duration) (string, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, ingressBadInput("inbound: idempotency key is required", nil)
	}
	if lease <= 0 {
		lease = defaultClaimLease
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked(now)

	record, exists := s.byKey[key]
	if exists {
		switch record.state {
		case claimDone:
			return "", false, nil
		case claimHeld:
			if now.Before(record.leaseEnd) {
				return "", false, nil
			}
		case claimRetry:
			if now.Before(record.retryFrom) {
				return "", false, nil
			}
		}
		delete(s.byClaim, record.claimID)
	}

	s.nextID++
	claimID := fmt.Sprintf("claim_%d", s.nextID)
	s.byKey[key] = claimRecord{
		claimID:  claimID,
		state:    claimHeld,
		attempts: record.attempts + 1,
		lease:    lease,
		leaseEnd: now.Add(lease),
	}
	s.byClaim[claimID] = key
	return claimID, true, nil
}

func (s *MemoryClaimStore) Complete(_ context.Context, claimID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, record, ok := s.heldLocked(claimID)
	if !ok {
		return nil
	}
	record.state = claimDone
	record.leaseEnd = s.now().Add(record.lease)
	s.byKey[key] = record
	delete(s.byClaim, claimID)
	return nil
}

func (s *MemoryClaimStore) Fail(_ context.Context, claimID string, _ error, retryAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, record, ok := s.heldLocked(claimID)
	if !ok {
		return nil
	}
	if retryAt.IsZero() {
		retryAt = s.now()
	}
	record.state = claimRetry
	record.retryFrom = retryAt.UTC()
	record.leaseEnd = time.Time{}
	s.byKey[key] = record
	delete(s.byClaim, claimID)
	return nil
}

func (s *MemoryClaimStore) heldLocked(claimID string) (string, claimRecord, bool) {
	claimID = strings.TrimSpace(claimID)
	key, ok := s.byClaim[claimID]
	if !ok {
		return "", claimRecord{}, false
	}
	record, exists := s.byKey[key]
	if !exists || record.claimID != claimID || record.state != claimHeld {
		delete(s.byClaim, claimID)
		return "", claimRecord{}, false
	}
	return key, record, true
}

func (s *MemoryClaimStore) evictLocked(now time.Time) {
	for key, record := range s.byKey {
		if record.state != claimDone {
			continue
		}
		if !now.Before(record.leaseEnd) {
			delete(s.byClaim, record.claimID)
			delete(s.byKey, key)
		}
	}
}

func (s *MemoryClaimStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
