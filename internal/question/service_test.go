package question

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// memoryStore is an in-memory Store with the same observable semantics as
// the pgx repository: filtered queries, anti-join unseen lookups and
// insert-ignore-duplicates seen marking.
type memoryStore struct {
	questions   []Question
	seen        map[uuid.UUID]map[uuid.UUID]struct{}
	saveErr     error
	markSeenErr error
	listErr     error

	saveCalls     int
	markSeenCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{seen: map[uuid.UUID]map[uuid.UUID]struct{}{}}
}

func (s *memoryStore) Save(_ context.Context, q Question) (Question, error) {
	s.saveCalls++
	if s.saveErr != nil {
		return Question{}, s.saveErr
	}
	s.questions = append(s.questions, q)
	return q, nil
}

func (s *memoryStore) ListByFilters(_ context.Context, language Language, topic TopicID, difficulty Difficulty, limit int) ([]Question, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Question
	for _, q := range s.questions {
		if q.Language == language && q.Topic == topic && q.Difficulty == difficulty {
			out = append(out, q)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *memoryStore) ListUnseenByUser(ctx context.Context, userID uuid.UUID, language Language, topic TopicID, difficulty Difficulty, limit int) ([]Question, error) {
	all, err := s.ListByFilters(ctx, language, topic, difficulty, 0)
	if err != nil {
		return nil, err
	}
	var out []Question
	for _, q := range all {
		if _, ok := s.seen[userID][q.ID]; ok {
			continue
		}
		out = append(out, q)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *memoryStore) MarkSeen(_ context.Context, userID uuid.UUID, questionIDs []uuid.UUID) error {
	s.markSeenCalls++
	if s.markSeenErr != nil {
		return s.markSeenErr
	}
	if s.seen[userID] == nil {
		s.seen[userID] = map[uuid.UUID]struct{}{}
	}
	for _, id := range questionIDs {
		s.seen[userID][id] = struct{}{}
	}
	return nil
}

func (s *memoryStore) seenCount(userID uuid.UUID) int {
	return len(s.seen[userID])
}

type stubUsers struct {
	user  User
	err   error
	calls int
}

func (s *stubUsers) GetOrCreateByExternalID(_ context.Context, externalID int64) (User, error) {
	s.calls++
	if s.err != nil {
		return User{}, s.err
	}
	u := s.user
	u.ExternalID = externalID
	return u, nil
}

type stubGenerator struct {
	calls   int
	respond func(call int, prompt string) (*QuestionResponse, error)
}

func (g *stubGenerator) GenerateQuestion(_ context.Context, prompt string) (*QuestionResponse, error) {
	g.calls++
	return g.respond(g.calls, prompt)
}

func (g *stubGenerator) GenerateQuestions(context.Context, string) ([]QuestionResponse, error) {
	return nil, errors.New("not used")
}

// echoResponse builds a valid multiple-choice payload echoing the request
// parameters the way a well-behaved provider would.
func echoResponse(req GenerateRequest, seq int) *QuestionResponse {
	return &QuestionResponse{
		Code:           fmt.Sprintf("fmt.Println(%d)", seq),
		QuestionText:   fmt.Sprintf("What does snippet %d print?", seq),
		AnswerType:     req.AnswerType,
		Options:        []string{"a", "b", "c", "d"},
		CorrectAnswers: []string{"a"},
		Explanation:    "The first option is printed.",
		Difficulty:     req.Difficulty,
		Topic:          req.Topic,
		Language:       req.Language,
	}
}

// topicFromPrompt recovers the topic id a prompt was built for, mirroring
// the format section the builder embeds.
func topicFromPrompt(prompt string, language Language) TopicID {
	for _, t := range TopicsFor(language) {
		if strings.Contains(prompt, fmt.Sprintf("%q: %q", "topic", t.ID)) {
			return t.ID
		}
	}
	return ""
}

func newTestService(store Store, users UserStore, gen Generator, cache BatchCache) *Service {
	return NewService(store, users, gen, cache, zerolog.Nop())
}

func TestSplitCount(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{10, 3, []int{4, 3, 3}},
		{9, 3, []int{3, 3, 3}},
		{1, 1, []int{1}},
		{2, 3, []int{1, 1, 0}},
		{7, 2, []int{4, 3}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, splitCount(tc.total, tc.n), "splitCount(%d, %d)", tc.total, tc.n)
	}
}

func TestGetBatchGeneratesShortfall(t *testing.T) {
	store := newMemoryStore()
	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			req := GenerateRequest{
				Language:   LanguageGo,
				Topic:      topicFromPrompt(prompt, LanguageGo),
				Difficulty: DifficultyBeginner,
				AnswerType: AnswerMultipleChoice,
			}
			return echoResponse(req, call), nil
		},
	}
	svc := newTestService(store, &stubUsers{}, gen, nil)

	result, err := svc.GetBatch(context.Background(), BatchRequest{
		Language:   LanguageGo,
		Topics:     []TopicID{"goroutines"},
		Difficulty: DifficultyBeginner,
		Count:      2,
		AnswerType: AnswerMultipleChoice,
	})

	assert.NoError(t, err)
	assert.Len(t, result, 2)
	assert.Len(t, store.questions, 2, "both generated questions persisted")
	for _, q := range result {
		assert.Equal(t, LanguageGo, q.Language)
		assert.Equal(t, TopicID("goroutines"), q.Topic)
		assert.Equal(t, DifficultyBeginner, q.Difficulty)
	}
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, 0, store.markSeenCalls, "no seen marking without a user")
}

func TestGetBatchToleratesMidBatchProviderFailure(t *testing.T) {
	store := newMemoryStore()
	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			if call == 2 {
				return nil, NewGenerationError(GenErrTimeout, "request timed out after 30s", nil)
			}
			req := GenerateRequest{
				Language:   LanguageGo,
				Topic:      "goroutines",
				Difficulty: DifficultyBeginner,
				AnswerType: AnswerMultipleChoice,
			}
			return echoResponse(req, call), nil
		},
	}
	svc := newTestService(store, &stubUsers{}, gen, nil)

	result, err := svc.GetBatch(context.Background(), BatchRequest{
		Language:   LanguageGo,
		Topics:     []TopicID{"goroutines"},
		Difficulty: DifficultyBeginner,
		Count:      2,
		AnswerType: AnswerMultipleChoice,
	})

	assert.NoError(t, err, "partial failure must not escape the batch call")
	assert.Len(t, result, 1)
}

func TestGetBatchSkipsQuestionsSeenByUser(t *testing.T) {
	store := newMemoryStore()
	seen := Question{
		ID:             uuid.New(),
		Language:       LanguageGo,
		Topic:          "goroutines",
		Difficulty:     DifficultyBeginner,
		AnswerType:     AnswerMultipleChoice,
		QuestionText:   "Already delivered",
		Options:        []string{"a", "b"},
		CorrectAnswers: []string{"a"},
		Explanation:    "seen before",
	}
	store.questions = append(store.questions, seen)

	userID := uuid.New()
	store.seen[userID] = map[uuid.UUID]struct{}{seen.ID: {}}

	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			req := GenerateRequest{
				Language:   LanguageGo,
				Topic:      "goroutines",
				Difficulty: DifficultyBeginner,
				AnswerType: AnswerMultipleChoice,
			}
			return echoResponse(req, call), nil
		},
	}
	users := &stubUsers{user: User{ID: userID}}
	svc := newTestService(store, users, gen, nil)

	externalID := int64(42)
	result, err := svc.GetBatch(context.Background(), BatchRequest{
		Language:       LanguageGo,
		Topics:         []TopicID{"goroutines"},
		Difficulty:     DifficultyBeginner,
		Count:          1,
		AnswerType:     AnswerMultipleChoice,
		ExternalUserID: &externalID,
	})

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.NotEqual(t, seen.ID, result[0].ID, "previously delivered question must not repeat")
	assert.Equal(t, 1, gen.calls, "the shortfall triggers exactly one generation")
	assert.Equal(t, 1, users.calls)
	assert.Equal(t, 2, store.seenCount(userID), "newly delivered question marked seen")
}

func TestGetBatchBucketDistribution(t *testing.T) {
	store := newMemoryStore()
	perTopic := map[TopicID]int{}
	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			topic := topicFromPrompt(prompt, LanguageGo)
			perTopic[topic]++
			req := GenerateRequest{
				Language:   LanguageGo,
				Topic:      topic,
				Difficulty: DifficultyIntermediate,
				AnswerType: AnswerMultipleChoice,
			}
			return echoResponse(req, call), nil
		},
	}
	svc := newTestService(store, &stubUsers{}, gen, nil)

	result, err := svc.GetBatch(context.Background(), BatchRequest{
		Language:   LanguageGo,
		Topics:     []TopicID{"slices", "maps", "channels"},
		Difficulty: DifficultyIntermediate,
		Count:      10,
		AnswerType: AnswerMultipleChoice,
	})

	assert.NoError(t, err)
	assert.Len(t, result, 10)
	// Remainder goes to the earliest topics in request order.
	assert.Equal(t, 4, perTopic["slices"])
	assert.Equal(t, 3, perTopic["maps"])
	assert.Equal(t, 3, perTopic["channels"])

	ids := map[uuid.UUID]struct{}{}
	for _, q := range result {
		ids[q.ID] = struct{}{}
	}
	assert.Len(t, ids, 10, "no duplicate question ids")
}

func TestGetBatchRejectsInvalidRequests(t *testing.T) {
	gen := &stubGenerator{respond: func(int, string) (*QuestionResponse, error) {
		return nil, errors.New("must not be called")
	}}
	svc := newTestService(newMemoryStore(), &stubUsers{}, gen, nil)

	tests := []struct {
		name string
		req  BatchRequest
	}{
		{
			name: "zero count",
			req: BatchRequest{
				Language: LanguageGo, Topics: []TopicID{"maps"},
				Difficulty: DifficultyBeginner, Count: 0, AnswerType: AnswerMultipleChoice,
			},
		},
		{
			name: "empty topics",
			req: BatchRequest{
				Language: LanguageGo, Topics: nil,
				Difficulty: DifficultyBeginner, Count: 1, AnswerType: AnswerMultipleChoice,
			},
		},
		{
			name: "foreign topic",
			req: BatchRequest{
				Language: LanguageGo, Topics: []TopicID{"maps", "decorators"},
				Difficulty: DifficultyBeginner, Count: 2, AnswerType: AnswerMultipleChoice,
			},
		},
		{
			name: "unknown difficulty",
			req: BatchRequest{
				Language: LanguageGo, Topics: []TopicID{"maps"},
				Difficulty: Difficulty("expert"), Count: 1, AnswerType: AnswerMultipleChoice,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetBatch(context.Background(), tc.req)
			var reqErr *RequestError
			assert.ErrorAs(t, err, &reqErr)
			assert.Zero(t, gen.calls)
		})
	}
}

func TestGetBatchUserResolutionFailurePropagates(t *testing.T) {
	users := &stubUsers{err: errors.New("connection refused")}
	gen := &stubGenerator{respond: func(int, string) (*QuestionResponse, error) {
		return nil, errors.New("must not be called")
	}}
	svc := newTestService(newMemoryStore(), users, gen, nil)

	externalID := int64(7)
	_, err := svc.GetBatch(context.Background(), BatchRequest{
		Language:       LanguageGo,
		Topics:         []TopicID{"maps"},
		Difficulty:     DifficultyBeginner,
		Count:          1,
		AnswerType:     AnswerMultipleChoice,
		ExternalUserID: &externalID,
	})

	assert.ErrorContains(t, err, "resolve user")
	assert.Zero(t, gen.calls)
}

func TestGetBatchSurvivesMarkSeenFailure(t *testing.T) {
	store := newMemoryStore()
	store.markSeenErr = errors.New("unique constraint hiccup")
	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			req := GenerateRequest{
				Language:   LanguageGo,
				Topic:      "maps",
				Difficulty: DifficultyBeginner,
				AnswerType: AnswerMultipleChoice,
			}
			return echoResponse(req, call), nil
		},
	}
	users := &stubUsers{user: User{ID: uuid.New()}}
	svc := newTestService(store, users, gen, nil)

	externalID := int64(9)
	result, err := svc.GetBatch(context.Background(), BatchRequest{
		Language:       LanguageGo,
		Topics:         []TopicID{"maps"},
		Difficulty:     DifficultyBeginner,
		Count:          1,
		AnswerType:     AnswerMultipleChoice,
		ExternalUserID: &externalID,
	})

	assert.NoError(t, err)
	assert.Len(t, result, 1)
}

func TestGetBatchBestEffortSaveStillDelivers(t *testing.T) {
	store := newMemoryStore()
	store.saveErr = errors.New("disk full")
	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			req := GenerateRequest{
				Language:   LanguageGo,
				Topic:      "maps",
				Difficulty: DifficultyBeginner,
				AnswerType: AnswerMultipleChoice,
			}
			return echoResponse(req, call), nil
		},
	}
	svc := newTestService(store, &stubUsers{}, gen, nil)

	result, err := svc.GetBatch(context.Background(), BatchRequest{
		Language:   LanguageGo,
		Topics:     []TopicID{"maps"},
		Difficulty: DifficultyBeginner,
		Count:      1,
		AnswerType: AnswerMultipleChoice,
	})

	assert.NoError(t, err)
	assert.Len(t, result, 1, "a generated question is delivered even when it cannot be stored")
}

type staticListStore struct {
	*memoryStore
	fixed []Question
}

func (s *staticListStore) ListByFilters(context.Context, Language, TopicID, Difficulty, int) ([]Question, error) {
	return s.fixed, nil
}

func TestGetBatchDeduplicatesAcrossBuckets(t *testing.T) {
	shared := Question{
		ID:             uuid.New(),
		Language:       LanguageGo,
		Topic:          "maps",
		Difficulty:     DifficultyBeginner,
		AnswerType:     AnswerMultipleChoice,
		QuestionText:   "shared",
		Options:        []string{"a", "b"},
		CorrectAnswers: []string{"a"},
		Explanation:    "shared row",
	}
	store := &staticListStore{memoryStore: newMemoryStore(), fixed: []Question{shared}}
	gen := &stubGenerator{respond: func(int, string) (*QuestionResponse, error) {
		return nil, NewGenerationError(GenErrUpstream, "server error (status 503)", nil)
	}}
	svc := newTestService(store, &stubUsers{}, gen, nil)

	result, err := svc.GetBatch(context.Background(), BatchRequest{
		Language:   LanguageGo,
		Topics:     []TopicID{"maps", "slices"},
		Difficulty: DifficultyBeginner,
		Count:      2,
		AnswerType: AnswerMultipleChoice,
	})

	assert.NoError(t, err)
	assert.Len(t, result, 1, "the same question id appears once even when two buckets fetch it")
}

type memoryBatchCache struct {
	stored map[string][]Question
	sets   int
}

func (c *memoryBatchCache) key(req BatchRequest) string {
	parts := []string{string(req.Language), string(req.Difficulty), string(req.AnswerType), fmt.Sprint(req.Count)}
	for _, t := range req.Topics {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, "|")
}

func (c *memoryBatchCache) Get(_ context.Context, req BatchRequest) ([]Question, error) {
	return c.stored[c.key(req)], nil
}

func (c *memoryBatchCache) Set(_ context.Context, req BatchRequest, questions []Question) error {
	c.sets++
	c.stored[c.key(req)] = questions
	return nil
}

func TestGetBatchServesAnonymousRequestsFromCache(t *testing.T) {
	cache := &memoryBatchCache{stored: map[string][]Question{}}
	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			req := GenerateRequest{
				Language:   LanguageGo,
				Topic:      "maps",
				Difficulty: DifficultyBeginner,
				AnswerType: AnswerMultipleChoice,
			}
			return echoResponse(req, call), nil
		},
	}
	svc := newTestService(newMemoryStore(), &stubUsers{}, gen, cache)

	req := BatchRequest{
		Language:   LanguageGo,
		Topics:     []TopicID{"maps"},
		Difficulty: DifficultyBeginner,
		Count:      1,
		AnswerType: AnswerMultipleChoice,
	}

	first, err := svc.GetBatch(context.Background(), req)
	assert.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.GetBatch(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, gen.calls, "second request served from cache")
}

func TestGetBatchBypassesCacheForUsers(t *testing.T) {
	cache := &memoryBatchCache{stored: map[string][]Question{}}
	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			req := GenerateRequest{
				Language:   LanguageGo,
				Topic:      "maps",
				Difficulty: DifficultyBeginner,
				AnswerType: AnswerMultipleChoice,
			}
			return echoResponse(req, call), nil
		},
	}
	users := &stubUsers{user: User{ID: uuid.New()}}
	svc := newTestService(newMemoryStore(), users, gen, cache)

	externalID := int64(11)
	result, err := svc.GetBatch(context.Background(), BatchRequest{
		Language:       LanguageGo,
		Topics:         []TopicID{"maps"},
		Difficulty:     DifficultyBeginner,
		Count:          1,
		AnswerType:     AnswerMultipleChoice,
		ExternalUserID: &externalID,
	})

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Zero(t, cache.sets, "user-scoped batches are never cached")
}

func TestGenerateFailsOnTopicMismatch(t *testing.T) {
	store := newMemoryStore()
	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			resp := echoResponse(GenerateRequest{
				Language:   LanguageGo,
				Topic:      "channels", // requested goroutines
				Difficulty: DifficultyBeginner,
				AnswerType: AnswerMultipleChoice,
			}, call)
			return resp, nil
		},
	}
	svc := newTestService(store, &stubUsers{}, gen, nil)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Language:   LanguageGo,
		Topic:      "goroutines",
		Difficulty: DifficultyBeginner,
		AnswerType: AnswerMultipleChoice,
	})

	var mismatch *MismatchError
	assert.ErrorAs(t, err, &mismatch)
	assert.Contains(t, err.Error(), "goroutines")
	assert.Contains(t, err.Error(), "channels")
	assert.Empty(t, store.questions, "nothing persisted on mismatch")
}

func TestGenerateWrapsProviderErrors(t *testing.T) {
	gen := &stubGenerator{respond: func(int, string) (*QuestionResponse, error) {
		return nil, NewGenerationError(GenErrRateLimited, "rate limit exceeded", nil)
	}}
	svc := newTestService(newMemoryStore(), &stubUsers{}, gen, nil)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Language:   LanguageGo,
		Topic:      "goroutines",
		Difficulty: DifficultyBeginner,
		AnswerType: AnswerMultipleChoice,
	})

	var genErr *GenerationError
	assert.ErrorAs(t, err, &genErr)
	assert.Equal(t, GenErrRateLimited, genErr.Kind)
}

func TestGenerateSaveFailureIsFatal(t *testing.T) {
	store := newMemoryStore()
	store.saveErr = errors.New("disk full")
	gen := &stubGenerator{
		respond: func(call int, prompt string) (*QuestionResponse, error) {
			req := GenerateRequest{
				Language:   LanguageGo,
				Topic:      "goroutines",
				Difficulty: DifficultyBeginner,
				AnswerType: AnswerMultipleChoice,
			}
			return echoResponse(req, call), nil
		},
	}
	svc := newTestService(store, &stubUsers{}, gen, nil)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Language:   LanguageGo,
		Topic:      "goroutines",
		Difficulty: DifficultyBeginner,
		AnswerType: AnswerMultipleChoice,
	})

	assert.ErrorContains(t, err, "save generated question")
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	gen := &stubGenerator{respond: func(int, string) (*QuestionResponse, error) {
		return nil, errors.New("must not be called")
	}}
	svc := newTestService(newMemoryStore(), &stubUsers{}, gen, nil)

	_, err := svc.Generate(context.Background(), GenerateRequest{
		Language:   LanguageGo,
		Topic:      "decorators",
		Difficulty: DifficultyBeginner,
		AnswerType: AnswerMultipleChoice,
	})

	var reqErr *RequestError
	assert.ErrorAs(t, err, &reqErr)
	assert.Zero(t, gen.calls)
}
