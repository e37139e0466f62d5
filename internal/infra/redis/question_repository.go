package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"timed-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the ground-truth question set from a backing
// store (e.g., Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the ground-truth question set as JSON in
// Redis and falls back to a loader on cache miss. The cached blob carries
// the correctness flags, so the key must never be exposed to clients;
// the sanitized view is derived in-process on every read.
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

const questionsKey = "quiz:questions"

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListQuestions returns the sanitized presentation view of the set.
func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	questions, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Sanitize(questions), nil
}

// GroundTruth returns the full question set including correctness flags.
func (r *QuestionRepository) GroundTruth(ctx context.Context) ([]domain.Question, error) {
	return r.load(ctx)
}

func (r *QuestionRepository) load(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := r.fromCache(ctx); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.fromCache(ctx); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(questions)
		if err != nil {
			return nil, err
		}
		// best-effort cache fill; the loaded set is authoritative either way
		_ = r.client.Set(ctx, questionsKey, raw, r.ttlWithJitter()).Err()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) fromCache(ctx context.Context) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, questionsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

// Invalidate drops the cached set so the next read hits the loader.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, questionsKey).Err()
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
