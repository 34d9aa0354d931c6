package responder

import (
	"context"
	"fmt"
	"strings"

	"nova-api/internal/llm"
)

// Rule maps a keyword to a canned reply.
type Rule struct {
	Keyword string
	Reply   string
}

// DefaultRules is evaluated in order; the first keyword contained in the
// message wins.
var DefaultRules = []Rule{
	{Keyword: "bonjour", Reply: "🚀 Bonjour à toi ! "},
	{Keyword: "salut", Reply: "👋 Salut ! Comment puis-je vous assister ?"},
	{Keyword: "comment", Reply: "🤔 Excellente question ! Laissez-moi analyser cela "},
	{Keyword: "aide", Reply: "🆘 "},
	{Keyword: "mission", Reply: "📋 Mission reçue ! Analyse en cours... "},
	{Keyword: "test", Reply: "✅ Test système réussi ! "},
	{Keyword: "merci", Reply: "😊 De rien ! C'est un plaisir de travailler avec vous"},
}

// Simulator answers from a fixed keyword table without any I/O.
type Simulator struct {
	rules []Rule
}

func NewSimulator(rules []Rule) *Simulator {
	if rules == nil {
		rules = DefaultRules
	}
	return &Simulator{rules: rules}
}

func (s *Simulator) Reply(_ context.Context, p Prompt) (Reply, error) {
	return Reply{Content: s.Match(p.Message, p.SessionID), Model: llm.SimulatorModel}, nil
}

// Match returns the canned reply for message.
func (s *Simulator) Match(message, sessionID string) string {
	lower := strings.ToLower(message)
	for _, r := range s.rules {
		if strings.Contains(lower, strings.ToLower(r.Keyword)) {
			return fmt.Sprintf("%s\n\n💭 Analyse de votre message : '%s' - Session: %s", r.Reply, message, shortID(sessionID))
		}
	}
	return fmt.Sprintf(`Analyse terminée !

Votre message: "%s"

🔍 Résultat de l'analyse:
- Message traité avec succès

🎯 Comment puis-je vous assister davantage ?`, message)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
