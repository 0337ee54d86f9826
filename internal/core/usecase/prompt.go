package usecase

import (
	"fmt"
	"strings"

	"github.com/lai-labs/sales-assistant/internal/core/domain"
)

// PromptBuilder composes the system and user prompts deterministically:
// the same context, history and question always produce the same bytes.
type PromptBuilder struct {
	responseLanguage string
}

func NewPromptBuilder(responseLanguage string) *PromptBuilder {
	responseLanguage = strings.TrimSpace(responseLanguage)
	if responseLanguage == "" {
		responseLanguage = "English"
	}
	return &PromptBuilder{responseLanguage: responseLanguage}
}

func (b *PromptBuilder) BuildSystem(retrieved domain.RetrievedContext) string {
	var sb strings.Builder
	sb.WriteString("You are an onboarding assistant for a sales team. ")
	sb.WriteString("Answer questions about products, processes and company materials using the knowledge excerpts below. ")
	sb.WriteString("If the excerpts do not contain the answer, say so instead of guessing. ")
	fmt.Fprintf(&sb, "Always respond in %s.\n", b.responseLanguage)

	if len(retrieved) == 0 {
		sb.WriteString("\nNo knowledge excerpts are available for this question.\n")
		return sb.String()
	}

	sb.WriteString("\nKnowledge excerpts:\n")
	for i, hit := range retrieved {
		fmt.Fprintf(&sb, "\n[Source %d: %s]\n%s\n", i+1, hit.Chunk.Filename, strings.TrimSpace(hit.Chunk.Text))
	}
	return sb.String()
}

func (b *PromptBuilder) BuildUser(history []domain.SessionTurn, question string) string {
	var sb strings.Builder
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "%s: %s\n", roleLabel(turn.Role), turn.Text)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Current question: %s", question)
	return sb.String()
}

func roleLabel(role domain.TurnRole) string {
	if role == domain.RoleAssistant {
		return "Assistant"
	}
	return "User"
}
