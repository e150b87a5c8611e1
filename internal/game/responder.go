package game

import (
	"context"
	"strings"

	"github.com/edsim/edsim/internal/sim"
)

// characterInstructions pins the dialogue style regardless of which
// responder answers. Kept in Swedish to match the case prompts.
const characterInstructions = "Du är en patient på en akutmottagning. Svara alltid som din karaktär. " +
	"Dina svar måste vara extremt korta, helst bara en enda mening. Svara BARA på den direkta frågan som ställs. " +
	"Erbjud absolut ingen extra information som inte efterfrågas. Om du inte vet svaret, säg 'Jag vet inte'."

// RespondRequest is everything a responder gets for one turn. The
// system prompt already includes the character prompt, the dynamic
// state summary and the style instructions.
type RespondRequest struct {
	SystemPrompt string
	DynamicState string
	History      []sim.ChatMessage
	Message      string
}

// Responder produces the in-character reply to one player utterance.
// The default implementation is canned; deployments wire in an LLM
// client behind this interface.
type Responder interface {
	Respond(ctx context.Context, req RespondRequest) (string, error)
}

// CannedResponder answers from the patient's dynamic state without
// calling out anywhere. It keeps the game playable with no external
// dialogue service configured.
type CannedResponder struct{}

func (CannedResponder) Respond(_ context.Context, req RespondRequest) (string, error) {
	state := strings.TrimSpace(strings.TrimPrefix(req.DynamicState, "AKTUELLT TILLSTÅND:"))
	if state != "" {
		return state, nil
	}
	return "Jag vet inte riktigt, det känns ungefär som tidigare.", nil
}
