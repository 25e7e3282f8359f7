package question

import (
	"strconv"
	"strings"
)

const promptTemplate = `You are an expert {language} programmer. Your task is to create a question for the game "Snippet War", where players guess what a piece of code outputs.

Question parameters:
- Programming language: {language}
- Topic: {topic}
- Difficulty level: {difficulty} ({difficulty_description})
- Answer type: {answer_type}

Question requirements:
1. Write a short but clear code snippet (at most 30 lines)
2. The code must demonstrate a concept from the given topic
3. The complexity must match the {difficulty} level
4. The question should be interesting and educational
5. The code must be valid and runnable

Answer requirements:
- If the answer type is "multiple_choice": provide 4 answer options with exactly one correct. Wrong options must be plausible but distinct from the correct one. Every entry of "correct_answers" must be the EXACT TEXT of an entry of "options" (the answer text itself, not an index).
- If the answer type is "free_text": put the exact correct answer first in "correct_answers", followed by acceptable spelling variants (casing, whitespace and so on).

Response format (JSON):
{
  "code": "code snippet in {language}",
  "question": "What does this code print? (or another question)",
  "answer_type": "{answer_type}",
  "options": ["option1", "option2", "option3", "option4"],
  "correct_answers": ["exact text of the correct option"],
  "explanation": "a detailed explanation of why the answer is correct: walk through the code and the concepts it demonstrates",
  "difficulty": "{difficulty}",
  "topic": "{topic_id}",
  "language": "{language_id}"
}

Important:
- The code must be properly formatted
- The explanation must be clear and educational
- For the beginner level the code must be simple and readable
- For the advanced level you may rely on non-obvious language behavior
- Omit "options" entirely for free_text questions
- Always return valid JSON with no extra text`

const batchPromptSuffix = `

Generate exactly {count} distinct questions with these parameters. Return one JSON object with a single key "questions" holding an array of {count} question objects in the format above. The questions must not repeat each other.`

// BuildPrompt renders the generation instruction for a single question.
// Deterministic: identical requests produce identical prompts. The caller
// is expected to have validated the request already.
func BuildPrompt(req GenerateRequest) string {
	replacer := strings.NewReplacer(
		"{language}", req.Language.Name(),
		"{topic}", TopicName(req.Language, req.Topic),
		"{difficulty}", req.Difficulty.String(),
		"{difficulty_description}", req.Difficulty.Description(),
		"{answer_type}", req.AnswerType.String(),
		"{topic_id}", req.Topic.String(),
		"{language_id}", req.Language.String(),
	)
	return replacer.Replace(promptTemplate)
}

// BuildBatchPrompt renders the multi-question form of the instruction,
// asking for exactly count questions under a "questions" container key.
func BuildBatchPrompt(req GenerateRequest, count int) string {
	prompt := BuildPrompt(req)
	return prompt + strings.ReplaceAll(batchPromptSuffix, "{count}", strconv.Itoa(count))
}
