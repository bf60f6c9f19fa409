// Package redisstore keeps tips, news and messages as JSON documents in
// Redis. Read-modify-write operations run as WATCH/MULTI transactions and
// are retried when a concurrent writer touches the same key.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

// maxRetries bounds optimistic transaction attempts per operation
const maxRetries = 64

// ErrContention is returned when an update keeps losing WATCH races
var ErrContention = errors.New("too many concurrent updates")

// Config holds Redis backend configuration
type Config struct {
	Addr      string // e.g., "localhost:6379"
	Password  string
	DB        int
	KeyPrefix string // e.g., "maestro"
}

// Store implements service.Backend on Redis
type Store struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// New creates a new Redis-backed store
func New(config Config, logger zerolog.Logger) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "maestro"
	}

	return &Store{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("component", "redis_store").Logger(),
	}
}

func (s *Store) tipKey(id string) string     { return fmt.Sprintf("%s:tip:%s", s.prefix, id) }
func (s *Store) tipIndex() string            { return s.prefix + ":tips" }
func (s *Store) newsKey(id string) string    { return fmt.Sprintf("%s:news:%s", s.prefix, id) }
func (s *Store) newsIndex() string           { return s.prefix + ":news" }
func (s *Store) messageKey(id string) string { return fmt.Sprintf("%s:message:%s", s.prefix, id) }
func (s *Store) messageIndex() string        { return s.prefix + ":messages" }
func (s *Store) userMessageIndex(userID string) string {
	return fmt.Sprintf("%s:user:%s:messages", s.prefix, userID)
}

func (s *Store) Name() string { return "redis" }

// Ping checks Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) CreateTip(ctx context.Context, tip *models.Tip) error {
	return s.create(ctx, s.tipKey(tip.ID), tip.ID, tip, s.tipIndex())
}

func (s *Store) GetTip(ctx context.Context, id string) (*models.Tip, error) {
	var tip models.Tip
	if err := s.get(ctx, s.tipKey(id), &tip); err != nil {
		return nil, fmt.Errorf("tip %s: %w", id, err)
	}
	return tip.Normalize(), nil
}

func (s *Store) ListTips(ctx context.Context) ([]*models.Tip, error) {
	tips, err := list[models.Tip](ctx, s, s.tipIndex(), s.tipKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list tips: %w", err)
	}
	for _, tip := range tips {
		tip.Normalize()
	}
	return tips, nil
}

func (s *Store) VoteOnTip(ctx context.Context, id string, vote models.VoteType) (models.Votes, error) {
	if !vote.Valid() {
		return models.Votes{}, fmt.Errorf("%w: unknown vote %q", models.ErrValidation, vote)
	}

	var votes models.Votes
	err := update(ctx, s, s.tipKey(id), func(tip *models.Tip) error {
		if vote == models.VoteAgree {
			tip.Votes.Agree++
		} else {
			tip.Votes.Disagree++
		}
		votes = tip.Votes
		return nil
	})
	if err != nil {
		return models.Votes{}, fmt.Errorf("tip %s: %w", id, err)
	}
	return votes, nil
}

func (s *Store) SettleTip(ctx context.Context, id string, status models.TipStatus, score *string) (*models.Tip, error) {
	var settled *models.Tip
	err := update(ctx, s, s.tipKey(id), func(tip *models.Tip) error {
		if tip.Status != models.StatusPending {
			return fmt.Errorf("already %s: %w", tip.Status, models.ErrConflict)
		}
		tip.Status = status
		if score != nil {
			v := *score
			tip.ResultScore = &v
		}
		settled = tip.Clone()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tip %s: %w", id, err)
	}
	return settled.Normalize(), nil
}

func (s *Store) DeleteTip(ctx context.Context, id string) error {
	return s.remove(ctx, s.tipKey(id), s.tipIndex(), id)
}

func (s *Store) CreateNews(ctx context.Context, post *models.NewsPost) error {
	return s.create(ctx, s.newsKey(post.ID), post.ID, post, s.newsIndex())
}

func (s *Store) ListNews(ctx context.Context) ([]*models.NewsPost, error) {
	posts, err := list[models.NewsPost](ctx, s, s.newsIndex(), s.newsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return posts, nil
}

func (s *Store) DeleteNews(ctx context.Context, id string) error {
	return s.remove(ctx, s.newsKey(id), s.newsIndex(), id)
}

func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	return s.create(ctx, s.messageKey(msg.ID), msg.ID, msg, s.messageIndex(), s.userMessageIndex(msg.UserID))
}

func (s *Store) ListMessages(ctx context.Context) ([]*models.Message, error) {
	msgs, err := list[models.Message](ctx, s, s.messageIndex(), s.messageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

func (s *Store) ListMessagesByUser(ctx context.Context, userID string) ([]*models.Message, error) {
	msgs, err := list[models.Message](ctx, s, s.userMessageIndex(userID), s.messageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages for %s: %w", userID, err)
	}
	return msgs, nil
}

func (s *Store) ReplyToMessage(ctx context.Context, id, reply string) (*models.Message, error) {
	var answered models.Message
	err := update(ctx, s, s.messageKey(id), func(msg *models.Message) error {
		if msg.Answered() {
			return fmt.Errorf("already answered: %w", models.ErrConflict)
		}
		msg.Reply = &reply
		msg.IsRead = true
		answered = *msg
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", id, err)
	}
	return &answered, nil
}

// create writes a new document and its index entries in one MULTI under
// WATCH. Redis does not roll back a transaction when a single command
// fails, so a failed index write is undone by deleting the document.
func (s *Store) create(ctx context.Context, key, id string, v any, indexes ...string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	txf := func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return fmt.Errorf("%s: %w: already exists", key, models.ErrConflict)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			for _, index := range indexes {
				pipe.SAdd(ctx, index, id)
			}
			return nil
		})
		if err != nil && !errors.Is(err, redis.TxFailedErr) {
			s.rollbackCreate(ctx, key, id, indexes)
		}
		return err
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err = s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, models.ErrConflict) {
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", key, err)
		}
		s.logger.Debug().Str("key", key).Msg("document created")
		return nil
	}
	return fmt.Errorf("%s: %w", key, ErrContention)
}

func (s *Store) rollbackCreate(ctx context.Context, key, id string, indexes []string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("failed to roll back partial create")
	}
	for _, index := range indexes {
		// wrong-type indexes fail here too, nothing was added to them
		s.client.SRem(ctx, index, id)
	}
}

func (s *Store) get(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("failed to get from Redis: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// remove deletes a document and its index entry. Missing keys are not an error.
func (s *Store) remove(ctx context.Context, key, index, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, index, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// list loads every document named in an index set. Index entries whose
// document has vanished are skipped.
func list[T any](ctx context.Context, s *Store, index string, keyOf func(string) string) ([]*T, error) {
	ids, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", index, err)
	}

	out := make([]*T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyOf(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			s.logger.Warn().Str("key", keys[i]).Msg("indexed document missing")
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			s.logger.Warn().Err(err).Str("key", keys[i]).Msg("failed to unmarshal document")
			continue
		}
		out = append(out, &item)
	}
	return out, nil
}

// update applies fn to the document at key inside a WATCH transaction,
// retrying when another client modifies the key first
func update[T any](ctx context.Context, s *Store, key string, fn func(*T) error) error {
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return models.ErrNotFound
		} else if err != nil {
			return err
		}

		var doc T
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to unmarshal %s: %w", key, err)
		}
		if err := fn(&doc); err != nil {
			return err
		}

		next, err := json.Marshal(&doc)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.logger.Debug().Str("key", key).Int("attempt", attempt+1).Msg("optimistic lock lost, retrying")
	}
	return fmt.Errorf("%s: %w", key, ErrContention)
}
