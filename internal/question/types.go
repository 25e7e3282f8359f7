package question

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Language identifies a programming language questions are generated for.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageGo         Language = "go"
	LanguageJava       Language = "java"
	LanguageCpp        Language = "cpp"
	LanguageRust       Language = "rust"
	LanguageTypeScript Language = "typescript"
)

// AllLanguages lists every supported language.
func AllLanguages() []Language {
	return []Language{
		LanguagePython,
		LanguageJavaScript,
		LanguageGo,
		LanguageJava,
		LanguageCpp,
		LanguageRust,
		LanguageTypeScript,
	}
}

var languageNames = map[Language]string{
	LanguagePython:     "Python",
	LanguageJavaScript: "JavaScript",
	LanguageGo:         "Go",
	LanguageJava:       "Java",
	LanguageCpp:        "C++",
	LanguageRust:       "Rust",
	LanguageTypeScript: "TypeScript",
}

func (l Language) String() string { return string(l) }

// Name returns the human-readable language name used in prompts.
func (l Language) Name() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return string(l)
}

func (l Language) IsValid() bool {
	_, ok := languageNames[l]
	return ok
}

// Difficulty is the requested complexity level of a question.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) String() string { return string(d) }

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// Description returns the prose guidance for the difficulty, embedded in
// prompts so the model calibrates the question to the level.
func (d Difficulty) Description() string {
	switch d {
	case DifficultyBeginner:
		return "Basic operations and syntax: simple data types, basic data structures, " +
			"straightforward conditions and loops, small functions without complex logic, " +
			"elementary string and number operations."
	case DifficultyIntermediate:
		return "More involved data structures, nested loops and conditions, higher-order " +
			"functions, collection processing, basic OOP, exception handling, common design patterns."
	case DifficultyAdvanced:
		return "Complex algorithms and optimization, advanced language concepts, concurrent " +
			"and parallel programming, non-obvious language behavior, performance tuning, " +
			"memory layout and pointers."
	default:
		return ""
	}
}

// AnswerType distinguishes multiple-choice questions from free-text ones.
type AnswerType string

const (
	AnswerMultipleChoice AnswerType = "multiple_choice"
	AnswerFreeText       AnswerType = "free_text"
)

func (t AnswerType) String() string { return string(t) }

func (t AnswerType) IsValid() bool {
	switch t {
	case AnswerMultipleChoice, AnswerFreeText:
		return true
	default:
		return false
	}
}

// Option list bounds for multiple-choice questions.
const (
	MinOptions = 2
	MaxOptions = 5
)

// Question is the persisted, delivery-ready form of a generated question.
type Question struct {
	ID             uuid.UUID  `json:"id"`
	Language       Language   `json:"language"`
	Topic          TopicID    `json:"topic"`
	Difficulty     Difficulty `json:"difficulty"`
	AnswerType     AnswerType `json:"answer_type"`
	Code           string     `json:"code"`
	QuestionText   string     `json:"question_text"`
	Options        []string   `json:"options,omitempty"`
	CorrectAnswers []string   `json:"correct_answers"`
	Explanation    string     `json:"explanation"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Validate checks the question's shape invariants. Code may be an empty
// string (theory questions carry no snippet), everything else is required.
func (q Question) Validate() error {
	if q.QuestionText == "" {
		return fmt.Errorf("question text is required")
	}
	if q.Explanation == "" {
		return fmt.Errorf("explanation is required")
	}
	if err := ValidateAnswerShape(q.AnswerType, q.Options, q.CorrectAnswers); err != nil {
		return err
	}
	if !IsValidTopic(q.Language, q.Topic) {
		return fmt.Errorf("invalid topic %q for language %q", q.Topic, q.Language)
	}
	return nil
}

// ValidateAnswerShape enforces the answer invariants for the answer type:
// multiple choice needs 2-5 options and every correct answer must equal an
// option's exact text; both forms need a non-empty correct-answer list.
func ValidateAnswerShape(t AnswerType, options, correctAnswers []string) error {
	if len(correctAnswers) == 0 {
		return fmt.Errorf("correct answers must be a non-empty list")
	}
	switch t {
	case AnswerMultipleChoice:
		if len(options) == 0 {
			return fmt.Errorf("options are required for multiple choice questions")
		}
		if len(options) < MinOptions {
			return fmt.Errorf("multiple choice question must have at least %d options", MinOptions)
		}
		if len(options) > MaxOptions {
			return fmt.Errorf("multiple choice question must have at most %d options", MaxOptions)
		}
		for _, answer := range correctAnswers {
			if !containsExact(options, answer) {
				return fmt.Errorf("correct answer %q must be one of the options", answer)
			}
		}
	case AnswerFreeText:
		if len(options) != 0 {
			return fmt.Errorf("options are not allowed for free text questions")
		}
	default:
		return fmt.Errorf("unknown answer type %q", t)
	}
	return nil
}

func containsExact(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// User is an identity resolved from an external numeric id, created lazily
// on its first batch request.
type User struct {
	ID         uuid.UUID `json:"id"`
	ExternalID int64     `json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// GenerateRequest asks for one question with the given parameters.
type GenerateRequest struct {
	Language   Language   `json:"language"`
	Topic      TopicID    `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	AnswerType AnswerType `json:"answer_type"`
}

// Validate rejects the request before any provider call is issued.
func (r GenerateRequest) Validate() error {
	if !r.Language.IsValid() {
		return &RequestError{msg: fmt.Sprintf("unsupported language %q", r.Language)}
	}
	if !r.Difficulty.IsValid() {
		return &RequestError{msg: fmt.Sprintf("unsupported difficulty %q", r.Difficulty)}
	}
	if !r.AnswerType.IsValid() {
		return &RequestError{msg: fmt.Sprintf("unsupported answer type %q", r.AnswerType)}
	}
	if !IsValidTopic(r.Language, r.Topic) {
		return &RequestError{msg: fmt.Sprintf("invalid topic %q for language %q", r.Topic, r.Language)}
	}
	return nil
}

// BatchRequest asks for a batch of questions spread across topics.
type BatchRequest struct {
	Language   Language   `json:"language"`
	Topics     []TopicID  `json:"topics"`
	Difficulty Difficulty `json:"difficulty"`
	Count      int        `json:"count"`
	AnswerType AnswerType `json:"answer_type"`
	// ExternalUserID scopes unseen filtering and seen marking to a user.
	// Nil means no per-user tracking at all.
	ExternalUserID *int64 `json:"external_user_id,omitempty"`
}

// Validate checks shape and every topic independently.
func (r BatchRequest) Validate() error {
	if !r.Language.IsValid() {
		return &RequestError{msg: fmt.Sprintf("unsupported language %q", r.Language)}
	}
	if len(r.Topics) == 0 {
		return &RequestError{msg: "topics list must not be empty"}
	}
	if r.Count < 1 {
		return &RequestError{msg: "count must be at least 1"}
	}
	if !r.Difficulty.IsValid() {
		return &RequestError{msg: fmt.Sprintf("unsupported difficulty %q", r.Difficulty)}
	}
	if !r.AnswerType.IsValid() {
		return &RequestError{msg: fmt.Sprintf("unsupported answer type %q", r.AnswerType)}
	}
	for _, topic := range r.Topics {
		if !IsValidTopic(r.Language, topic) {
			return &RequestError{msg: fmt.Sprintf("invalid topic %q for language %q", topic, r.Language)}
		}
	}
	return nil
}

// RequestError marks a malformed or inconsistent request. The HTTP layer
// maps it to a client error.
type RequestError struct {
	msg string
}

func (e *RequestError) Error() string { return e.msg }

// MismatchError reports a generated response whose echoed parameters
// disagree with the originating request.
type MismatchError struct {
	Field    string
	Expected string
	Got      string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: expected %q, got %q", e.Field, e.Expected, e.Got)
}
