package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/recall/internal/core/domain"
	"github.com/custodia-labs/recall/internal/core/ports/driving"
)

var askSources bool

var askCmd = &cobra.Command{
	Use:   "ask [doc-id] [question]",
	Short: "Ask questions about a document",
	Long: `Answers a question using the document's most relevant chunks.

Without a question, starts an interactive chat that keeps the conversation
history. Type 'exit' or an empty line to leave.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Chat with the assistant without a document",
	Long: `Answers general study questions without document context.

Without a question, starts an interactive chat that keeps the conversation
history for the rest of the session. Type 'exit' or an empty line to leave.`,
	RunE: runChat,
}

func init() {
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the chunks used to answer")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	docID := args[0]
	if len(args) > 1 {
		answer, err := chatService.Ask(context.Background(), driving.ChatRequest{
			DocumentID: docID,
			Question:   strings.Join(args[1:], " "),
		})
		if err != nil {
			return fmt.Errorf("chat failed: %w", err)
		}
		printAnswer(cmd, answer)
		return nil
	}

	return chatLoop(cmd, docID, cmd.InOrStdin())
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	if len(args) > 0 {
		answer, err := chatService.Ask(context.Background(), driving.ChatRequest{
			Question: strings.Join(args, " "),
		})
		if err != nil {
			return fmt.Errorf("chat failed: %w", err)
		}
		printAnswer(cmd, answer)
		return nil
	}

	return chatLoop(cmd, "", cmd.InOrStdin())
}

// chatLoop reads questions line by line until EOF, exit or a blank line.
// An empty docID chats without a document.
func chatLoop(cmd *cobra.Command, docID string, in io.Reader) error {
	reader := bufio.NewReader(in)
	var history []domain.ChatTurn

	for {
		cmd.Print("> ")
		line, err := reader.ReadString('\n')
		question := strings.TrimSpace(line)
		if question == "" || question == "exit" || question == "quit" {
			return nil
		}

		answer, askErr := chatService.Ask(context.Background(), driving.ChatRequest{
			DocumentID: docID,
			Question:   question,
			History:    history,
		})
		if askErr != nil {
			cmd.PrintErrf("Error: %v\n", askErr)
		} else {
			printAnswer(cmd, answer)
			history = append(history,
				domain.ChatTurn{Role: "user", Content: question},
				domain.ChatTurn{Role: "assistant", Content: answer.Answer},
			)
		}

		if err != nil {
			return nil
		}
	}
}

func printAnswer(cmd *cobra.Command, answer *domain.ChatAnswer) {
	cmd.Println(answer.Answer)
	if askSources && len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i := range answer.Sources {
			cmd.Printf("  [chunk %d] %s\n", answer.Sources[i].Index, truncate(answer.Sources[i].Text, 120))
		}
	}
	cmd.Println()
}
