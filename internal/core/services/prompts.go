package services

import (
	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Fallback templates used when no PromptStore is configured or a prompt
// file cannot be read.
const (
	defaultMultipleChoicePrompt = `Based on the context below, create one %s multiple-choice question.
Follow this exact format in your response:

Question: [The question text here]
Options:
(A) [Option A text]
(B) [Option B text]
(C) [Option C text]
(D) [Option D text]
Answer: [Correct letter (A, B, C, or D)]

Make sure the question tests understanding of the context, options are plausible, and exactly one answer is correct.

Context:
%s`

	defaultOpenAnswerPrompt = `Based on the context below, create one %s question and its answer.
Follow this exact format in your response:

QUESTION: [The question text here]
ANSWER: [The answer text here]

Make sure the question requires understanding of the context and the answer is accurate and complete.

Context:
%s`

	defaultTrueFalsePrompt = `Based on the context below, write one %s statement that is either true or false.
Follow this exact format in your response:

STATEMENT: [The statement here]
ANSWER: [True or False]

Context:
%s`

	defaultFillInBlankPrompt = `Based on the context below, write one %s fill-in-the-blank sentence.
Replace a single key term with ____ (four underscores).
Follow this exact format in your response:

SENTENCE: [The sentence with ____ in place of the term]
ANSWER: [The missing term]

Context:
%s`

	defaultGradePrompt = `Evaluate how well the user's answer matches the correct answer on a scale of 0-3:
0: Completely incorrect or unrelated
1: Partially correct but missing key points
2: Mostly correct with minor omissions
3: Completely correct

Question: %s
Correct answer: %s
User answer: %s

Score (respond with ONLY a single digit 0, 1, 2, or 3):`

	defaultSummarisePrompt = `Summarise the following study material in %d characters or less.
Capture the key concepts a student would need to revise.

Content:
%s

Summary:`

	defaultChatSystemPrompt = `You are a study assistant. Answer using only the document excerpts below.
If the excerpts do not contain the answer, say so.

Document excerpts:
%s`

	defaultGeneralChatPrompt = `You are a helpful assistant built into a study application.
You can help with studying, learning and general knowledge questions.
Give concise, accurate answers.`

	defaultStudyPlanPrompt = `Create a study plan for the following:

Subject: %s
Goal: %s
Timeframe: %s
Available hours per week: %d
%s
Respond with ONLY a JSON object in this shape:
{
  "overview": "one paragraph describing the approach",
  "weeks": [
    {"week_number": 1, "focus_areas": ["..."], "activities": ["..."], "resources": ["..."], "hours": 10}
  ],
  "techniques": ["study techniques suited to the subject"],
  "milestones": ["checkpoints that show progress"]
}`

	defaultTextSummarisePrompt = `Summarise the text below in around %d words.
%s

Text:
%s

Summary:`

	defaultTextCorrectPrompt = `Correct the grammar, spelling and punctuation of the text below.
Keep the author's meaning and voice.

Reply with the corrected text, then a line containing exactly
%s
followed by a JSON array of the changes you made, each as
{"original": "...", "corrected": "...", "explanation": "..."}.

Text:
%s`

	defaultTextRephrasePrompt = `Rewrite the text below in a %s.
Keep the meaning intact. Reply with only the rewritten text.

Text:
%s`

	defaultTextExplainPrompt = `Explain the text below so that %s can understand it.
Define any difficult terms and use an example where it helps.

Text:
%s`
)

type promptRef struct {
	name     string
	fallback string
}

// questionPrompts maps each kind to its prompt name and fallback template.
var questionPrompts = map[domain.QuestionKind]promptRef{
	domain.QuestionMultipleChoice: {driven.PromptQuestionMultipleChoice, defaultMultipleChoicePrompt},
	domain.QuestionOpenAnswer:     {driven.PromptQuestionOpenAnswer, defaultOpenAnswerPrompt},
	domain.QuestionTrueFalse:      {driven.PromptQuestionTrueFalse, defaultTrueFalsePrompt},
	domain.QuestionFillInBlank:    {driven.PromptQuestionFillInBlank, defaultFillInBlankPrompt},
}

// DefaultPrompts returns the built-in template for every well-known prompt
// name. File-backed prompt stores seed user-editable copies from it.
func DefaultPrompts() map[string]string {
	prompts := map[string]string{
		driven.PromptSummarise:   defaultSummarisePrompt,
		driven.PromptChatSystem:  defaultChatSystemPrompt,
		driven.PromptGradeAnswer: defaultGradePrompt,

		driven.PromptGeneralChat:   defaultGeneralChatPrompt,
		driven.PromptStudyPlan:     defaultStudyPlanPrompt,
		driven.PromptTextSummarise: defaultTextSummarisePrompt,
		driven.PromptTextCorrect:   defaultTextCorrectPrompt,
		driven.PromptTextRephrase:  defaultTextRephrasePrompt,
		driven.PromptTextExplain:   defaultTextExplainPrompt,
	}
	for _, ref := range questionPrompts {
		prompts[ref.name] = ref.fallback
	}
	return prompts
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func loadPrompt(store driven.PromptStore, name, fallback string) string {
	if store == nil {
		return fallback
	}
	prompt, err := store.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}
