package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"examclash-session-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question material from a backing store
// (e.g., the Postgres question bank).
type QuestionLoader interface {
	LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionRepository caches question sets in Redis and falls back to a
// loader on cache miss. Each set is a hash of full question records, since
// grading needs the key and keywords server-side:
//
//	HSET qset:{setID}:questions {order}:{questionID} {questionJSON}
//
// The order prefix keeps the fixed question sequence stable across the
// unordered hash.
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	key := r.questionsKey(setID)

	cached, err := r.client.HGetAll(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		return buildSetFromCache(setID, cached)
	}

	result, err, _ := r.sf.Do(setID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := r.client.HGetAll(ctx, key).Result()
		if err == nil && len(cached) > 0 {
			set, err := buildSetFromCache(setID, cached)
			if err != nil {
				return domain.QuestionSet{}, err
			}
			return set, nil
		}

		set, err := r.loader.LoadQuestionSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		for i, q := range set.Questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return domain.QuestionSet{}, fmt.Errorf("marshal question %s: %w", q.ID, err)
			}
			pipe.HSet(ctx, key, fmt.Sprintf("%06d:%s", i, q.ID), raw)
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (r *QuestionRepository) questionsKey(setID string) string {
	return "qset:" + setID + ":questions"
}

func buildSetFromCache(setID string, fields map[string]string) (domain.QuestionSet, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	// Field names are zero-padded order prefixes, so a plain sort restores
	// the original sequence.
	sort.Strings(keys)

	questions := make([]domain.Question, 0, len(keys))
	for _, k := range keys {
		var q domain.Question
		if err := json.Unmarshal([]byte(fields[k]), &q); err != nil {
			return domain.QuestionSet{}, fmt.Errorf("unmarshal cached question %s: %w", k, err)
		}
		questions = append(questions, q)
	}
	return domain.QuestionSet{ID: setID, Questions: questions}, nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
