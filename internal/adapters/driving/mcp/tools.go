package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

// SearchInput is the input schema for the search_document tool.
type SearchInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to search"`
	Query      string `json:"query" jsonschema:"what to look for"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 3)"`
}

// SearchOutput is the output schema for the search_document tool.
type SearchOutput struct {
	Status string      `json:"status"`
	Hits   []HitOutput `json:"hits"`
}

// HitOutput is one matching chunk.
type HitOutput struct {
	ChunkID  string  `json:"chunk_id"`
	Index    int     `json:"index"`
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
	Score    float64 `json:"score"`
}

// ListDocumentsInput takes no arguments.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises one document.
type DocumentOutput struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URI           string `json:"uri"`
	Chunks        int    `json:"chunks"`
	Questions     int    `json:"questions"`
	Indexed       bool   `json:"indexed"`
	Summary       string `json:"summary,omitempty"`
	ResourceURI   string `json:"resource_uri"`
	UpdatedAtUnix int64  `json:"updated_at"`
}

// DueInput is the input schema for the due_questions tool.
type DueInput struct {
	DocumentID string `json:"document_id,omitempty" jsonschema:"restrict to one document"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of questions (default 10)"`
}

// QuestionsOutput lists questions.
type QuestionsOutput struct {
	Questions []QuestionOutput `json:"questions"`
	Count     int              `json:"count"`
}

// QuestionOutput is a question without its answer.
type QuestionOutput struct {
	ID            string            `json:"id"`
	DocumentID    string            `json:"document_id"`
	Kind          string            `json:"kind"`
	Text          string            `json:"text"`
	Options       map[string]string `json:"options,omitempty"`
	Difficulty    string            `json:"difficulty"`
	TimesAnswered int               `json:"times_answered"`
	TimesCorrect  int               `json:"times_correct"`
}

// AnswerInput is the input schema for the answer_question tool.
type AnswerInput struct {
	QuestionID string `json:"question_id" jsonschema:"the question being answered"`
	Answer     string `json:"answer" jsonschema:"the answer, an option letter for choice questions"`
}

// AnswerOutput reports the grading and next review.
type AnswerOutput struct {
	Correct    bool   `json:"correct"`
	Score      int    `json:"score"`
	Feedback   string `json:"feedback"`
	Expected   string `json:"expected"`
	NextReview string `json:"next_review,omitempty"`
}

// GenerateInput is the input schema for the generate_questions tool.
type GenerateInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to quiz on"`
	Kind       string `json:"kind,omitempty" jsonschema:"multiple_choice, open_answer, true_false or fill_in_blank (default multiple_choice)"`
	Count      int    `json:"count,omitempty" jsonschema:"how many questions (default 5)"`
	Difficulty string `json:"difficulty,omitempty" jsonschema:"easy, medium or hard (default medium)"`
}

// AskInput is the input schema for the ask_document tool.
type AskInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to ask about"`
	Question   string `json:"question" jsonschema:"the question"`
}

// AskOutput is the grounded answer.
type AskOutput struct {
	Answer  string      `json:"answer"`
	Sources []HitOutput `json:"sources"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_document",
		Description: "Find the passages of a document closest to a query",
	}, s.handleSearch)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List ingested documents with chunk and question counts",
	}, s.handleListDocuments)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "due_questions",
		Description: "List questions due for review, unseen and weakest first",
	}, s.handleDueQuestions)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "answer_question",
		Description: "Grade an answer and schedule the question's next review",
	}, s.handleAnswer)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_questions",
		Description: "Generate quiz questions from a document",
	}, s.handleGenerate)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_document",
		Description: "Answer a question using the document's most relevant passages",
	}, s.handleAsk)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	result, err := s.ports.Search.Search(ctx, input.DocumentID, input.Query, domain.SearchOptions{TopK: input.TopK})
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return nil, SearchOutput{Status: result.Status, Hits: hitsOutput(result.Hits)}, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Document == nil {
		return nil, ListDocumentsOutput{}, errNotConfigured
	}
	summaries, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(summaries)),
		Count:     len(summaries),
	}
	for i := range summaries {
		doc := summaries[i].Document
		output.Documents[i] = DocumentOutput{
			ID:            doc.ID,
			Title:         doc.Title,
			URI:           doc.URI,
			Chunks:        summaries[i].ChunkCount,
			Questions:     summaries[i].QuestionCount,
			Indexed:       doc.EmbeddingStored,
			Summary:       doc.Summary,
			ResourceURI:   documentURI(doc.ID),
			UpdatedAtUnix: doc.UpdatedAt.Unix(),
		}
	}
	return nil, output, nil
}

func (s *Server) handleDueQuestions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DueInput,
) (*mcp.CallToolResult, QuestionsOutput, error) {
	if s.ports.Review == nil {
		return nil, QuestionsOutput{}, errNotConfigured
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	due, err := s.ports.Review.DueForReview(ctx, driving.DueOptions{DocumentID: input.DocumentID, Limit: limit})
	if err != nil {
		return nil, QuestionsOutput{}, err
	}
	return nil, questionsOutput(due), nil
}

func (s *Server) handleAnswer(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnswerInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if s.ports.Question == nil {
		return nil, AnswerOutput{}, errNotConfigured
	}
	result, err := s.ports.Question.Answer(ctx, input.QuestionID, input.Answer)
	if err != nil {
		return nil, AnswerOutput{}, err
	}

	output := AnswerOutput{
		Correct:  result.Evaluation.Correct,
		Score:    result.Evaluation.Score,
		Feedback: result.Evaluation.Feedback,
		Expected: result.Evaluation.Expected,
	}
	if next := result.Question.NextReview; next != nil {
		output.NextReview = next.UTC().Format(time.RFC3339)
	}
	return nil, output, nil
}

func (s *Server) handleGenerate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateInput,
) (*mcp.CallToolResult, QuestionsOutput, error) {
	if s.ports.Question == nil {
		return nil, QuestionsOutput{}, errNotConfigured
	}
	req := driving.GenerateRequest{
		DocumentID: input.DocumentID,
		Kind:       domain.QuestionMultipleChoice,
		Count:      input.Count,
		Difficulty: domain.DifficultyMedium,
	}
	if input.Kind != "" {
		kind, err := domain.ParseQuestionKind(input.Kind)
		if err != nil {
			return nil, QuestionsOutput{}, err
		}
		req.Kind = kind
	}
	if input.Difficulty != "" {
		req.Difficulty = domain.Difficulty(input.Difficulty)
		if !req.Difficulty.IsValid() {
			return nil, QuestionsOutput{}, fmt.Errorf("%w: difficulty %q", domain.ErrInvalidInput, input.Difficulty)
		}
	}
	if req.Count <= 0 {
		req.Count = 5
	}

	questions, err := s.ports.Question.Generate(ctx, req)
	if err != nil {
		return nil, QuestionsOutput{}, err
	}
	return nil, questionsOutput(questions), nil
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Chat == nil {
		return nil, AskOutput{}, errNotConfigured
	}
	if input.DocumentID == "" {
		return nil, AskOutput{}, fmt.Errorf("%w: document_id is required", domain.ErrInvalidInput)
	}
	answer, err := s.ports.Chat.Ask(ctx, driving.ChatRequest{DocumentID: input.DocumentID, Question: input.Question})
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: answer.Answer, Sources: hitsOutput(answer.Sources)}, nil
}

func hitsOutput(hits []domain.SearchHit) []HitOutput {
	out := make([]HitOutput, len(hits))
	for i, h := range hits {
		out[i] = HitOutput{ChunkID: h.ChunkID, Index: h.Index, Text: h.Text, Distance: h.Distance, Score: h.Score}
	}
	return out
}

// questionsOutput drops answers and explanations so an assistant can quiz
// without spoiling them.
func questionsOutput(questions []domain.Question) QuestionsOutput {
	out := QuestionsOutput{
		Questions: make([]QuestionOutput, len(questions)),
		Count:     len(questions),
	}
	for i := range questions {
		q := &questions[i]
		out.Questions[i] = QuestionOutput{
			ID:            q.ID,
			DocumentID:    q.DocumentID,
			Kind:          q.Kind.String(),
			Text:          q.Text,
			Options:       q.Options,
			Difficulty:    q.Difficulty.String(),
			TimesAnswered: q.TimesAnswered,
			TimesCorrect:  q.TimesCorrect,
		}
	}
	return out
}
