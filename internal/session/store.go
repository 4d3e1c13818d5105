package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
)

// ErrNotFound は台帳に該当セッションが無いことを表します。
var ErrNotFound = errors.New("session not found")

// Store はセッション台帳を Redis に保存します。
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore は Store を作成します。ttl はセッションの絶対有効期限です。
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{
		rdb: rdb,
		ttl: ttl,
	}
}

// Get はセッション情報を取得します。存在しない場合は nil, nil を返します。
func (s *Store) Get(ctx context.Context, sessionID string) (*Record, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID is required")
	}
	data, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create は新しいセッションを登録します。
func (s *Store) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("record is nil")
	}
	if record.SessionID == "" {
		return fmt.Errorf("record.SessionID is required")
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.LastSeenAt = now
	if record.ExpiresAt.IsZero() && s.ttl > 0 {
		record.ExpiresAt = record.CreatedAt.Add(s.ttl)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(record.SessionID), payload, s.remaining(record, now)).Err()
}

// Touch は最終アクセス時刻を更新します。
func (s *Store) Touch(ctx context.Context, sessionID string) error {
	return s.updatePartial(ctx, sessionID, func(record *Record) {
		record.LastSeenAt = time.Now().UTC()
	})
}

// Revoke はセッションを台帳から削除します。存在しなくてもエラーにしません。
func (s *Store) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *Store) updatePartial(ctx context.Context, sessionID string, mutate func(*Record)) error {
	key := sessionKey(sessionID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		var record Record
		if err := json.Unmarshal(data, &record); err != nil {
			return err
		}
		mutate(&record)
		payload, err := json.Marshal(&record)
		if err != nil {
			return err
		}
		ttl := s.remaining(&record, time.Now().UTC())
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}

	for {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
}

// remaining は ExpiresAt までの残り時間を返します。期限が無い場合は ttl を使います。
func (s *Store) remaining(record *Record, now time.Time) time.Duration {
	if record.ExpiresAt.IsZero() {
		return s.ttl
	}
	left := record.ExpiresAt.Sub(now)
	if left < time.Second {
		return time.Second
	}
	return left
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
