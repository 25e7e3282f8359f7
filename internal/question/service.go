package question

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Generator produces question payloads from rendered prompts. Implemented
// by the llm client; stubbed in tests.
type Generator interface {
	GenerateQuestion(ctx context.Context, prompt string) (*QuestionResponse, error)
	GenerateQuestions(ctx context.Context, prompt string) ([]QuestionResponse, error)
}

// Store persists questions and per-user seen state.
type Store interface {
	Save(ctx context.Context, q Question) (Question, error)
	ListByFilters(ctx context.Context, language Language, topic TopicID, difficulty Difficulty, limit int) ([]Question, error)
	ListUnseenByUser(ctx context.Context, userID uuid.UUID, language Language, topic TopicID, difficulty Difficulty, limit int) ([]Question, error)
	MarkSeen(ctx context.Context, userID uuid.UUID, questionIDs []uuid.UUID) error
}

// UserStore resolves user identities from external numeric ids.
type UserStore interface {
	GetOrCreateByExternalID(ctx context.Context, externalID int64) (User, error)
}

// BatchCache caches assembled anonymous batches (implemented by the
// Redis-backed Cache).
type BatchCache interface {
	Get(ctx context.Context, req BatchRequest) ([]Question, error)
	Set(ctx context.Context, req BatchRequest, questions []Question) error
}

// Service orchestrates the delivery pipeline: existing questions first,
// remote generation for the shortfall.
type Service struct {
	store     Store
	users     UserStore
	generator Generator
	cache     BatchCache
	logger    zerolog.Logger
}

// NewService wires the service. cache may be nil to disable anonymous
// batch caching.
func NewService(store Store, users UserStore, generator Generator, cache BatchCache, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		users:     users,
		generator: generator,
		cache:     cache,
		logger:    logger.With().Str("component", "question_service").Logger(),
	}
}

// Generate produces and persists a single question. Request-shape errors,
// provider failures, cross-validation mismatches and the save failure all
// propagate: for a direct single-question request a question that could not
// be stored is a hard failure.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (Question, error) {
	if err := req.Validate(); err != nil {
		return Question{}, err
	}

	q, err := s.generateOne(ctx, req)
	if err != nil {
		return Question{}, err
	}

	saved, err := s.store.Save(ctx, q)
	if err != nil {
		return Question{}, fmt.Errorf("save generated question: %w", err)
	}

	s.logger.Info().
		Str("question_id", saved.ID.String()).
		Str("language", req.Language.String()).
		Str("topic", req.Topic.String()).
		Msg("question generated")

	return saved, nil
}

// generateOne runs the unit generation pipeline without persistence:
// build prompt, call the provider, cross-validate the echoed parameters.
func (s *Service) generateOne(ctx context.Context, req GenerateRequest) (Question, error) {
	prompt := BuildPrompt(req)

	resp, err := s.generator.GenerateQuestion(ctx, prompt)
	if err != nil {
		observeGeneration(outcomeProviderError)
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			observeGenerationError(genErr.Kind)
		}
		return Question{}, fmt.Errorf("generate question: %w", err)
	}

	if err := ValidateAgainstRequest(*resp, req); err != nil {
		observeGeneration(outcomeMismatch)
		return Question{}, err
	}

	observeGeneration(outcomeOK)
	return resp.ToQuestion(), nil
}

// GetBatch assembles a batch of questions across topics. The total count is
// split into per-topic buckets (remainder assigned to the earliest topics in
// request order); each bucket is filled from stored questions first, then by
// generation, one unit at a time. A failure inside one topic's bucket is
// logged and that topic contributes its partial result; a single bad topic
// never aborts the batch.
func (s *Service) GetBatch(ctx context.Context, req BatchRequest) ([]Question, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var userID *uuid.UUID
	if req.ExternalUserID != nil {
		user, err := s.users.GetOrCreateByExternalID(ctx, *req.ExternalUserID)
		if err != nil {
			return nil, fmt.Errorf("resolve user: %w", err)
		}
		userID = &user.ID
	} else if s.cache != nil {
		if cached, err := s.cache.Get(ctx, req); err == nil && cached != nil {
			return cached, nil
		}
	}

	buckets := splitCount(req.Count, len(req.Topics))

	result := make([]Question, 0, req.Count)
	included := make(map[uuid.UUID]struct{}, req.Count)
	for i, topic := range req.Topics {
		bucket := s.fillBucket(ctx, req, topic, buckets[i], userID)
		for _, q := range bucket {
			if _, ok := included[q.ID]; ok {
				continue
			}
			included[q.ID] = struct{}{}
			result = append(result, q)
		}
	}

	rand.Shuffle(len(result), func(i, j int) {
		result[i], result[j] = result[j], result[i]
	})
	if len(result) > req.Count {
		result = result[:req.Count]
	}

	if userID != nil && len(result) > 0 {
		ids := make([]uuid.UUID, len(result))
		for i, q := range result {
			ids[i] = q.ID
		}
		if err := s.store.MarkSeen(ctx, *userID, ids); err != nil {
			s.logger.Warn().Err(err).
				Str("user_id", userID.String()).
				Int("count", len(ids)).
				Msg("failed to mark questions as seen")
		}
	}

	if userID == nil && s.cache != nil && len(result) > 0 {
		if err := s.cache.Set(ctx, req, result); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache batch")
		}
	}

	return result, nil
}

// fillBucket gathers up to size questions for one topic: stored (unseen
// when user-scoped) questions first, generated ones for the shortfall.
// Every failure is contained here.
func (s *Service) fillBucket(ctx context.Context, req BatchRequest, topic TopicID, size int, userID *uuid.UUID) []Question {
	if size <= 0 {
		return nil
	}

	var (
		bucket []Question
		err    error
	)
	if userID != nil {
		bucket, err = s.store.ListUnseenByUser(ctx, *userID, req.Language, topic, req.Difficulty, size)
	} else {
		bucket, err = s.store.ListByFilters(ctx, req.Language, topic, req.Difficulty, size)
	}
	if err != nil {
		observeTopicFailure()
		s.logger.Error().Err(err).
			Str("topic", topic.String()).
			Msg("failed to fetch stored questions for topic")
		return nil
	}

	genReq := GenerateRequest{
		Language:   req.Language,
		Topic:      topic,
		Difficulty: req.Difficulty,
		AnswerType: req.AnswerType,
	}
	for shortfall := size - len(bucket); shortfall > 0; shortfall-- {
		observeShortfall()
		q, err := s.generateOne(ctx, genReq)
		if err != nil {
			observeTopicFailure()
			s.logger.Error().Err(err).
				Str("topic", topic.String()).
				Int("remaining", shortfall).
				Msg("generation failed for topic, keeping partial bucket")
			break
		}
		// Best effort: a generated question is still delivered even if
		// it could not be stored.
		if saved, err := s.store.Save(ctx, q); err != nil {
			s.logger.Warn().Err(err).
				Str("question_id", q.ID.String()).
				Msg("failed to persist generated question")
			bucket = append(bucket, q)
		} else {
			bucket = append(bucket, saved)
		}
	}

	if len(bucket) > size {
		bucket = bucket[:size]
	}
	return bucket
}

// splitCount distributes total across n buckets: every bucket gets the
// floor share and the first total%n buckets one extra.
func splitCount(total, n int) []int {
	buckets := make([]int, n)
	base := total / n
	remainder := total % n
	for i := range buckets {
		buckets[i] = base
		if i < remainder {
			buckets[i]++
		}
	}
	return buckets
}
