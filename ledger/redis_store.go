package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the ledger stores.
var ErrRedisUnavailable = errors.New("ledger redis unavailable")

// casTransitionLua moves a record between lifecycle states only when its
// current status matches the expected one, stamping the gateway reference
// and the notification claim in the same atomic step.
//
// Returns:
//
//	1 when the transition applied
//	error string: "not_found", "conflict"
var casTransitionLua = redis.NewScript(`
local status = redis.call('HGET', KEYS[1], 'status')
if not status then
  return {err='not_found'}
end
if status ~= ARGV[1] then
  return {err='conflict'}
end

redis.call('HSET', KEYS[1],
  'status', ARGV[2],
  'internal_reference', ARGV[3],
  'notified_at', ARGV[4],
  'updated_at', ARGV[4])
return 1
`)

// RedisStore defines a public type used by somaguard APIs.
//
// RedisStore keeps one hash per transaction, keyed by customer reference.
// It satisfies the engine's TransactionProvider contract.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore describes the newredisstore operation and its observable behavior.
//
// NewRedisStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRedisStore(redisClient redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sgo"
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisStore) key(customerReference string) string {
	return s.prefix + ":txn:" + customerReference
}

// Put describes the put operation and its observable behavior.
//
// Put may return an error when input validation, dependency calls, or security checks fail.
// Put does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) Put(ctx context.Context, record Record) error {
	if record.CustomerReference == "" {
		return errors.New("customer reference must not be empty")
	}
	if !record.Status.Valid() {
		return errors.New("invalid record status")
	}

	fields := map[string]interface{}{
		"status":             string(record.Status),
		"internal_reference": record.InternalReference,
		"amount_cents":       record.AmountCents,
		"currency":           record.Currency,
		"msisdn":             record.MSISDN,
		"kind":               record.Kind,
		"notified_at":        record.NotifiedAt,
		"created_at":         record.CreatedAt,
		"updated_at":         record.UpdatedAt,
	}

	if err := s.redis.HSet(ctx, s.key(record.CustomerReference), fields).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// GetByCustomerReference describes the getbycustomerreference operation and its observable behavior.
//
// GetByCustomerReference may return an error when input validation, dependency calls, or security checks fail.
// GetByCustomerReference does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) GetByCustomerReference(ctx context.Context, customerReference string) (Record, error) {
	fields, err := s.redis.HGetAll(ctx, s.key(customerReference)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(fields) == 0 {
		return Record{}, ErrNotFound
	}

	record := Record{
		CustomerReference: customerReference,
		InternalReference: fields["internal_reference"],
		Status:            Status(fields["status"]),
		Currency:          fields["currency"],
		MSISDN:            fields["msisdn"],
		Kind:              fields["kind"],
	}
	record.AmountCents = parseIntField(fields["amount_cents"])
	record.NotifiedAt = parseIntField(fields["notified_at"])
	record.CreatedAt = parseIntField(fields["created_at"])
	record.UpdatedAt = parseIntField(fields["updated_at"])

	return record, nil
}

// CASTransition describes the castransition operation and its observable behavior.
//
// CASTransition may return an error when input validation, dependency calls, or security checks fail.
// CASTransition does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) CASTransition(
	ctx context.Context,
	customerReference string,
	expected, next Status,
	internalReference string,
) (CASResult, error) {
	if !expected.Valid() || !next.Valid() {
		return CASConflict, errors.New("invalid transition status")
	}

	_, err := casTransitionLua.Run(ctx, s.redis,
		[]string{s.key(customerReference)},
		string(expected),
		string(next),
		internalReference,
		s.now().Unix(),
	).Result()

	if err != nil {
		switch err.Error() {
		case "not_found":
			return CASConflict, ErrNotFound
		case "conflict":
			return CASConflict, nil
		default:
			return CASConflict, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return CASApplied, nil
}

func parseIntField(raw string) int64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
