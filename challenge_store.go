package somaguard

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	challengeRecordVersionV1 = 1

	// Consumed and expired records are retained past the validity window so
	// a replayed code reports "already used" instead of "not found".
	challengeRetention = 10 * time.Minute
)

var (
	errChallengeNotFound         = errors.New("challenge record not found")
	errChallengeConsumed         = errors.New("challenge record already consumed")
	errChallengeExpired          = errors.New("challenge record expired")
	errChallengeCodeMismatch     = errors.New("challenge code mismatch")
	errChallengeRedisUnavailable = errors.New("challenge redis unavailable")
)

// otpChallengeRecord is the engine-owned persistence shape of one live OTP
// challenge. At most one record exists per user; generation overwrites.
type otpChallengeRecord struct {
	CodeHash   [32]byte
	CreatedAt  int64
	ConsumedAt int64
	Consumed   bool
}

type otpChallengeStore struct {
	redis  *redis.Client
	prefix string
}

func newOTPChallengeStore(redisClient *redis.Client, prefix string) *otpChallengeStore {
	return &otpChallengeStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *otpChallengeStore) key(userID string) string {
	return s.prefix + ":otp:" + userID
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *otpChallengeStore) Save(
	ctx context.Context,
	userID string,
	record *otpChallengeRecord,
	ttl time.Duration,
) error {
	encoded, err := encodeOTPChallengeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(userID), encoded, ttl+challengeRetention).Err(); err != nil {
		return fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
	}

	return nil
}

// Delete describes the delete operation and its observable behavior.
//
// Delete may return an error when input validation, dependency calls, or security checks fail.
// Delete does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *otpChallengeStore) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
	}
	return nil
}

// Consume atomically validates and single-uses the challenge: the
// check-and-set on the consumed flag runs under WATCH so two concurrent
// verifies cannot both succeed. The validity window is [createdAt,
// createdAt+ttl); a code presented at exactly ttl elapsed is expired.
func (s *otpChallengeStore) Consume(
	ctx context.Context,
	userID string,
	providedHash [32]byte,
	now time.Time,
	ttl time.Duration,
) error {
	const maxRetries = 4
	key := s.key(userID)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeOTPChallengeRecord(data)
			if err != nil {
				return err
			}

			if record.Consumed {
				return errChallengeConsumed
			}

			if now.Unix()-record.CreatedAt >= int64(ttl/time.Second) {
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				return errChallengeExpired
			}

			if subtle.ConstantTimeCompare(record.CodeHash[:], providedHash[:]) != 1 {
				// The challenge stays live after a mismatch; throttling wrong
				// guesses is the caller's concern, replay safety is ours.
				return errChallengeCodeMismatch
			}

			record.Consumed = true
			record.ConsumedAt = now.Unix()

			updated, err := encodeOTPChallengeRecord(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, redis.KeepTTL)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return errChallengeNotFound
			case errors.Is(err, errChallengeConsumed),
				errors.Is(err, errChallengeExpired),
				errors.Is(err, errChallengeCodeMismatch):
				return err
			default:
				return fmt.Errorf("%w: %v", errChallengeRedisUnavailable, err)
			}
		}

		return nil
	}

	// Contended beyond the retry limit: surface as already consumed, which is
	// what a lost race to another verifier means for this caller.
	return errChallengeConsumed
}

func encodeOTPChallengeRecord(record *otpChallengeRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(challengeRecordVersionV1)
	if record.Consumed {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.ConsumedAt); err != nil {
		return nil, err
	}
	buf.Write(record.CodeHash[:])

	return buf.Bytes(), nil
}

func decodeOTPChallengeRecord(data []byte) (*otpChallengeRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != challengeRecordVersionV1 {
		return nil, errors.New("invalid challenge record version")
	}

	consumed, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &otpChallengeRecord{
		Consumed: consumed == 1,
	}

	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.ConsumedAt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(reader, record.CodeHash[:]); err != nil {
		return nil, err
	}

	return record, nil
}
