package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/waste3d/courseforge/internal/domain"
)

// SessionStore хранит историю и черновик сборки курса в Redis.
// Каждая запись продлевает TTL обоих ключей сессии.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func historyKey(sessionID string) string { return "build:history:" + sessionID }
func draftKey(sessionID string) string   { return "build:draft:" + sessionID }

func (s *SessionStore) History(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	raw, err := s.client.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	turns := make([]domain.ChatTurn, 0, len(raw))
	for _, item := range raw {
		var turn domain.ChatTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("decode history turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *SessionStore) AppendHistory(ctx context.Context, sessionID string, turns ...domain.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return err
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, historyKey(sessionID), values...)
	pipe.Expire(ctx, historyKey(sessionID), s.ttl)
	pipe.Expire(ctx, draftKey(sessionID), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Draft(ctx context.Context, sessionID string) (map[string]any, bool, error) {
	val, err := s.client.Get(ctx, draftKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var draft map[string]any
	if err := json.Unmarshal([]byte(val), &draft); err != nil {
		return nil, false, fmt.Errorf("decode draft: %w", err)
	}
	return draft, true, nil
}

func (s *SessionStore) SetDraft(ctx context.Context, sessionID string, draft map[string]any) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, draftKey(sessionID), data, s.ttl)
	pipe.Expire(ctx, historyKey(sessionID), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *SessionStore) ClearDraft(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, draftKey(sessionID)).Err()
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, historyKey(sessionID), draftKey(sessionID)).Err()
}
