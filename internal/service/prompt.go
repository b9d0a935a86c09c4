package service

import (
	"fmt"
	"strings"

	"github.com/lumenfeed/newsrag/internal/domain"
)

// PromptOptions tunes how retrieved evidence is packed into the prompt.
type PromptOptions struct {
	Language        string
	Style           string
	IncludeSources  bool
	MaxContextChars int
	MaxBlocks       int
	MaxBlockChars   int
}

func DefaultPromptOptions() PromptOptions {
	return PromptOptions{
		Language:        "en",
		Style:           "bullets",
		IncludeSources:  true,
		MaxContextChars: 3000,
		MaxBlocks:       5,
		MaxBlockChars:   800,
	}
}

// PromptBuilder assembles the system and user messages for grounded
// question answering over retrieved news passages.
type PromptBuilder struct {
	opt PromptOptions
}

func NewPromptBuilder(opt PromptOptions) *PromptBuilder {
	if opt.MaxBlocks <= 0 {
		opt.MaxBlocks = DefaultPromptOptions().MaxBlocks
	}
	if opt.MaxBlockChars <= 0 {
		opt.MaxBlockChars = DefaultPromptOptions().MaxBlockChars
	}
	if opt.MaxContextChars <= 0 {
		opt.MaxContextChars = DefaultPromptOptions().MaxContextChars
	}
	return &PromptBuilder{opt: opt}
}

// BuildMessages returns the system and user prompts for one question with
// its retrieved evidence.
func (b *PromptBuilder) BuildMessages(question string, sources []domain.RetrievedPassage, extraInstructions string) (system string, user string) {
	var rules []string
	rules = append(rules,
		"You are a news assistant. Answer strictly from the Evidence blocks.",
		"If the evidence is insufficient, say so instead of guessing.",
	)
	if b.opt.Language != "" {
		rules = append(rules, fmt.Sprintf("Answer in language: %s.", b.opt.Language))
	}
	if b.opt.Style == "bullets" {
		rules = append(rules, "Prefer concise bullet points.")
	}
	if b.opt.IncludeSources {
		rules = append(rules, "End with a 'Sources:' section listing the URLs you used.")
	}
	rules = append(rules, "Think through the evidence step by step, but output only the final answer.")
	if extraInstructions != "" {
		rules = append(rules, extraInstructions)
	}
	system = strings.Join(rules, "\n")

	var sb strings.Builder
	sb.WriteString("Evidence:\n")
	total := 0
	blocks := 0
	for _, s := range sources {
		if blocks >= b.opt.MaxBlocks {
			break
		}
		text := s.Text
		if runes := []rune(text); len(runes) > b.opt.MaxBlockChars {
			text = string(runes[:b.opt.MaxBlockChars]) + "..."
		}
		block := fmt.Sprintf("[%d] %s (%s)\n%s\n", blocks+1, s.Title, s.URL, text)
		if total+len([]rune(block)) > b.opt.MaxContextChars && blocks > 0 {
			break
		}
		sb.WriteString(block)
		total += len([]rune(block))
		blocks++
	}
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	user = sb.String()
	return system, user
}
