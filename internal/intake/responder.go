package intake

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Elevated-Garage/contact-solomon/internal/domain"
	"github.com/Elevated-Garage/contact-solomon/internal/llm"
)

// PersonaProvider supplies the current system persona. The admin settings
// screen can override the built-in prompt at runtime.
type PersonaProvider interface {
	Persona() string
}

// staticPersona is the default provider returning the built-in prompt.
type staticPersona struct{}

func (staticPersona) Persona() string { return PersonaPrompt }

// Responder produces the next assistant message. Known prompt shapes (the
// re-ask for missing fields) are synthesized locally without an oracle
// call; free conversation is delegated to the oracle with the Solomon
// persona.
type Responder struct {
	oracle  llm.Client
	model   string
	persona PersonaProvider
}

// NewResponder creates a responder. persona may be nil, in which case the
// built-in Solomon prompt is used.
func NewResponder(oracle llm.Client, model string, persona PersonaProvider) *Responder {
	if persona == nil {
		persona = staticPersona{}
	}
	return &Responder{oracle: oracle, model: model, persona: persona}
}

// Reply generates the next assistant message. When missing is non-empty a
// deterministic re-ask is returned; otherwise the transcript goes to the
// oracle. Oracle failures yield a fixed apology, never an error.
func (r *Responder) Reply(ctx context.Context, transcript []domain.Message, missing []string) string {
	if len(missing) > 0 {
		return reAsk(missing)
	}

	messages := make([]llm.Message, 0, len(transcript)+1)
	messages = append(messages, llm.Message{Role: "system", Content: r.persona.Persona()})
	for _, m := range transcript {
		messages = append(messages, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	reply, err := r.oracle.Complete(ctx, messages, llm.CompleteOptions{Model: r.model, Temperature: 0.7})
	if err != nil {
		slog.Warn("Chat oracle call failed, using fallback reply", "error", err)
		return fallbackReply
	}
	if strings.TrimSpace(reply) == "" {
		return fallbackReply
	}
	return reply
}

// reAsk builds the deterministic prompt for still-missing fields.
func reAsk(missing []string) string {
	labels := make([]string, 0, len(missing))
	for _, name := range missing {
		labels = append(labels, domain.FieldLabel(name))
	}
	return "Thanks! To finish up your project profile, could you share your " +
		JoinNaturally(labels) + "?"
}

// JoinNaturally joins items with English list grammar: one item is bare,
// two become "X and Y", three or more become "X, Y, and Z".
func JoinNaturally(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
