package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptSummarise creates summaries of document content.
	// The prompt template expects %d (max length) and %s (content) placeholders.
	PromptSummarise = "summarise"

	// PromptChatSystem is the system prompt for document chat.
	// The prompt template expects a %s placeholder for the retrieved context.
	PromptChatSystem = "chat_system"

	// PromptQuestionMultipleChoice generates one multiple choice question.
	// Expects %s (difficulty) and %s (context).
	PromptQuestionMultipleChoice = "question_multiple_choice"

	// PromptQuestionOpenAnswer generates one open answer question.
	// Expects %s (difficulty) and %s (context).
	PromptQuestionOpenAnswer = "question_open_answer"

	// PromptQuestionTrueFalse generates one true/false statement.
	// Expects %s (difficulty) and %s (context).
	PromptQuestionTrueFalse = "question_true_false"

	// PromptQuestionFillInBlank generates one fill-in-the-blank sentence.
	// Expects %s (difficulty) and %s (context).
	PromptQuestionFillInBlank = "question_fill_in_blank"

	// PromptGradeAnswer scores a free-text answer from 0 to 3.
	// Expects %s (question), %s (reference answer) and %s (user answer).
	PromptGradeAnswer = "grade_answer"

	// PromptGeneralChat is the system prompt for chat without a document.
	// It has no placeholders.
	PromptGeneralChat = "general_chat"

	// PromptStudyPlan asks for a JSON study plan.
	// Expects %s (subject), %s (goal), %s (timeframe), %d (hours per week)
	// and %s (document context, possibly empty).
	PromptStudyPlan = "study_plan"

	// PromptTextSummarise summarises pasted text.
	// Expects %d (word budget), %s (format instruction) and %s (text).
	PromptTextSummarise = "text_summarise"

	// PromptTextCorrect corrects grammar and spelling.
	// Expects %s (marker line) and %s (text).
	PromptTextCorrect = "text_correct"

	// PromptTextRephrase rewrites text in a style.
	// Expects %s (style description) and %s (text).
	PromptTextRephrase = "text_rephrase"

	// PromptTextExplain explains text for an audience.
	// Expects %s (audience) and %s (text).
	PromptTextExplain = "text_explain"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use hardcoded default prompts.
	SetPromptStore(store PromptStore)
}
