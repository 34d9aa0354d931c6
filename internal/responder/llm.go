package responder

import (
	"context"

	"nova-api/internal/llm"
)

// LLM generates replies with a language model, sending the session's prior
// turns as conversation context.
type LLM struct {
	client       llm.Client
	systemPrompt string
}

func NewLLM(client llm.Client, systemPrompt string) *LLM {
	return &LLM{client: client, systemPrompt: systemPrompt}
}

func (l *LLM) Reply(ctx context.Context, p Prompt) (Reply, error) {
	resp, err := l.client.Generate(ctx, l.buildContext(p))
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: resp.Content, Model: resp.Model}, nil
}

func (l *LLM) buildContext(p Prompt) []llm.Message {
	msgs := make([]llm.Message, 0, 2*len(p.History)+2)
	if l.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: l.systemPrompt})
	}
	for _, t := range p.History {
		msgs = append(msgs,
			llm.Message{Role: llm.RoleUser, Content: t.UserMessage},
			llm.Message{Role: llm.RoleAssistant, Content: t.AIResponse},
		)
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: p.Message})
}
