package question

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QuestionResponse is the structured payload the model returns for one
// question: the Question shape minus identity and timestamp, with the
// request parameters echoed back for cross-validation.
type QuestionResponse struct {
	Code           string     `json:"code"`
	QuestionText   string     `json:"question"`
	AnswerType     AnswerType `json:"answer_type"`
	Options        []string   `json:"options,omitempty"`
	CorrectAnswers []string   `json:"correct_answers"`
	Explanation    string     `json:"explanation"`
	Difficulty     Difficulty `json:"difficulty"`
	Topic          TopicID    `json:"topic"`
	Language       Language   `json:"language"`
}

// Validate checks the schema-level invariants of a generated payload.
func (r QuestionResponse) Validate() error {
	if r.QuestionText == "" {
		return fmt.Errorf("question is required")
	}
	if r.Explanation == "" {
		return fmt.Errorf("explanation is required")
	}
	if err := ValidateAnswerShape(r.AnswerType, r.Options, r.CorrectAnswers); err != nil {
		return err
	}
	if !IsValidTopic(r.Language, r.Topic) {
		return fmt.Errorf("invalid topic %q for language %q", r.Topic, r.Language)
	}
	return nil
}

// ToQuestion converts a validated response into the persisted shape,
// assigning identity and creation time.
func (r QuestionResponse) ToQuestion() Question {
	return Question{
		ID:             uuid.New(),
		Language:       r.Language,
		Topic:          r.Topic,
		Difficulty:     r.Difficulty,
		AnswerType:     r.AnswerType,
		Code:           r.Code,
		QuestionText:   r.QuestionText,
		Options:        r.Options,
		CorrectAnswers: r.CorrectAnswers,
		Explanation:    r.Explanation,
		CreatedAt:      time.Now().UTC(),
	}
}

// ValidateAgainstRequest cross-checks the echoed parameters of a generated
// response against the originating request, field by field. The model is
// not trusted to obey the prompt; a mismatch fails the generation attempt
// rather than silently delivering a question with different parameters.
func ValidateAgainstRequest(resp QuestionResponse, req GenerateRequest) error {
	if resp.Language != req.Language {
		return &MismatchError{Field: "language", Expected: req.Language.String(), Got: resp.Language.String()}
	}
	if resp.Topic != req.Topic {
		return &MismatchError{Field: "topic", Expected: req.Topic.String(), Got: resp.Topic.String()}
	}
	if resp.Difficulty != req.Difficulty {
		return &MismatchError{Field: "difficulty", Expected: req.Difficulty.String(), Got: resp.Difficulty.String()}
	}
	if resp.AnswerType != req.AnswerType {
		return &MismatchError{Field: "answer_type", Expected: req.AnswerType.String(), Got: resp.AnswerType.String()}
	}
	return nil
}
