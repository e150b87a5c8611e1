package sim

import (
	"strconv"
	"strings"
	"sync"

	"github.com/edsim/edsim/internal/caselib"
)

// EffectTargetNarrative marks an effect that carries dialogue state
// instead of a numeric change.
const EffectTargetNarrative = "ai"

// Effect is a time-limited change applied to a patient, spread evenly
// across its duration in ticks.
type Effect struct {
	Target            string  // vital key, named value, or EffectTargetNarrative
	Change            float64 // total change over the full duration
	Duration          int     // ticks
	Remaining         int
	Description       string // narrative text, EffectTargetNarrative only
	CounterRegulatory bool
}

// ChatMessage is one turn of the encounter dialogue.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// LabComponent is one line of a multi-component lab panel.
type LabComponent struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Abnormal bool   `json:"isAbnormal"`
}

// LabResult is a returned lab value as shown on the lab list. Panel
// results carry components instead of a flat result string. Pending
// results are placeholders for tests whose answer never arrives
// during the encounter.
type LabResult struct {
	Name       string         `json:"name"`
	Result     string         `json:"result,omitempty"`
	Components []LabComponent `json:"components,omitempty"`
	Abnormal   bool           `json:"isAbnormal"`
	Pending    bool           `json:"pending,omitempty"`
}

// Patient is one live encounter. All mutation goes through the
// patient's lock: the tick engine and the action handlers race on the
// same state.
type Patient struct {
	mu sync.Mutex

	ID   string
	Case *caselib.Case

	Vitals  Vitals
	baseRLS float64
	PCO2    float64
	PO2     float64

	// Values holds the named clinical attributes the simulation can
	// mutate, keyed by lab name ("P-Glukos" etc). Stored as strings
	// the way they are displayed.
	Values map[string]string

	UrineML int

	Effects   []*Effect
	Therapies map[string]float64 // therapy id -> flow rate

	OrderedLabs map[string]*LabResult
	Actions     map[string]bool // lower-cased ids of everything performed
	ChatHistory []ChatMessage

	HomeMedsPaused map[string]bool
	CurrentSpeaker string

	Critical        bool
	CriticalSeconds int
	Failed          bool
	Triage          TriageLevel
}

// locked runs fn with the patient's lock held.
func (p *Patient) locked(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

// Value returns the named clinical attribute, parsed as a number.
func (p *Patient) value(key string) (float64, bool) {
	raw, ok := p.Values[key]
	if !ok {
		return 0, false
	}
	return parseNumber(raw)
}

func (p *Patient) setValue(key string, v float64) {
	p.Values[key] = strconv.FormatFloat(v, 'f', 1, 64)
}

// recordAction marks an action as performed for scoring.
func (p *Patient) recordAction(id string) {
	p.Actions[strings.ToLower(id)] = true
}

// ActionsTaken returns a copy of the performed-action set.
func (p *Patient) ActionsTaken() map[string]bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]bool, len(p.Actions))
	for id := range p.Actions {
		out[id] = true
	}
	return out
}

// SetSpeaker records who answered the last dialogue turn, "child" or
// "parent" on pediatric cases.
func (p *Patient) SetSpeaker(speaker string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CurrentSpeaker = speaker
}

// Chat returns a copy of the dialogue so far.
func (p *Patient) Chat() []ChatMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ChatMessage, len(p.ChatHistory))
	copy(out, p.ChatHistory)
	return out
}

// parseNumber reads a clinical value that may use a decimal comma.
func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
