package ledger

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore defines a public type used by somaguard APIs.
//
// MemoryStore is a process-local TransactionProvider with the same CAS
// semantics as RedisStore. Intended for tests and single-node demos.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
//
// NewMemoryStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Put describes the put operation and its observable behavior.
//
// Put may return an error when input validation, dependency calls, or security checks fail.
func (s *MemoryStore) Put(_ context.Context, record Record) error {
	if record.CustomerReference == "" {
		return errors.New("customer reference must not be empty")
	}
	if !record.Status.Valid() {
		return errors.New("invalid record status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.CustomerReference] = record
	return nil
}

// GetByCustomerReference describes the getbycustomerreference operation and its observable behavior.
//
// GetByCustomerReference may return an error when input validation, dependency calls, or security checks fail.
func (s *MemoryStore) GetByCustomerReference(_ context.Context, customerReference string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[customerReference]
	if !ok {
		return Record{}, ErrNotFound
	}
	return record, nil
}

// CASTransition describes the castransition operation and its observable behavior.
//
// CASTransition may return an error when input validation, dependency calls, or security checks fail.
func (s *MemoryStore) CASTransition(
	_ context.Context,
	customerReference string,
	expected, next Status,
	internalReference string,
) (CASResult, error) {
	if !expected.Valid() || !next.Valid() {
		return CASConflict, errors.New("invalid transition status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[customerReference]
	if !ok {
		return CASConflict, ErrNotFound
	}
	if record.Status != expected {
		return CASConflict, nil
	}

	now := s.now().Unix()
	record.Status = next
	record.InternalReference = internalReference
	record.NotifiedAt = now
	record.UpdatedAt = now
	s.records[customerReference] = record

	return CASApplied, nil
}
