// Package game coordinates one running session: the case deck, the
// live encounters, grading and result storage.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edsim/edsim/internal/caselib"
	"github.com/edsim/edsim/internal/catalog"
	"github.com/edsim/edsim/internal/results"
	"github.com/edsim/edsim/internal/scoring"
	"github.com/edsim/edsim/internal/sim"
)

// ErrInvalidRating is returned for ratings outside 1-5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// Service owns the session state and runs the game operations the API
// exposes.
type Service struct {
	lib       *caselib.Library
	reg       *sim.Registry
	sims      *sim.Service
	eval      *scoring.Evaluator
	store     results.Store
	responder Responder
	cat       *catalog.Catalog
	log       zerolog.Logger
}

func NewService(lib *caselib.Library, reg *sim.Registry, sims *sim.Service, eval *scoring.Evaluator, store results.Store, responder Responder, cat *catalog.Catalog, log zerolog.Logger) *Service {
	if responder == nil {
		responder = CannedResponder{}
	}
	return &Service{
		lib:       lib,
		reg:       reg,
		sims:      sims,
		eval:      eval,
		store:     store,
		responder: responder,
		cat:       cat,
		log:       log,
	}
}

// GameData is the static reference payload the client loads once.
type GameData struct {
	LabTests         []catalog.LabTest       `json:"labTests"`
	LabKits          []catalog.LabKit        `json:"labKits"`
	BedsideTests     []catalog.BedsideTest   `json:"bedsideTests"`
	Medications      []catalog.Medication    `json:"medications"`
	RadiologyTests   []catalog.RadiologyTest `json:"radiologyTests"`
	StandardFindings map[string]string       `json:"standardFindings"`
	PhysicalExams    []catalog.PhysicalExam  `json:"physicalExams"`
	Diagnoses        []string                `json:"allDiagnoses"`
	Prescriptions    []catalog.Prescription  `json:"allPrescriptions"`
}

// GameData assembles the reference tables for the client. Hidden lab
// tests stay off the menu.
func (s *Service) GameData() *GameData {
	return &GameData{
		LabTests:         s.cat.VisibleLabTests(),
		LabKits:          s.cat.LabKits,
		BedsideTests:     s.cat.BedsideTests,
		Medications:      s.cat.Medications,
		RadiologyTests:   s.cat.RadiologyTests,
		StandardFindings: s.cat.StandardFindings(),
		PhysicalExams:    s.cat.PhysicalExams,
		Diagnoses:        s.lib.Diagnoses(),
		Prescriptions:    s.cat.Prescriptions,
	}
}

// PatientView is the spawned encounter as shown to the player. Solution
// fields stay server-side.
type PatientView struct {
	ID          string          `json:"id"`
	CaseIndex   int             `json:"caseIndex"`
	Name        string          `json:"name"`
	Age         float64         `json:"age"`
	Sex         string          `json:"sex"`
	Description string          `json:"description"`
	Avatar      string          `json:"avatar,omitempty"`
	Pediatric   bool            `json:"isPediatric"`
	ParentName  string          `json:"parentName,omitempty"`
	Vitals      sim.Vitals      `json:"vitals"`
	TriageLevel sim.TriageLevel `json:"triageLevel"`
	Remaining   int             `json:"casesRemaining"`
}

// SpawnRandom draws the next case off the deck and starts a live
// encounter for it.
func (s *Service) SpawnRandom() (*PatientView, error) {
	c, err := s.lib.Draw()
	if err != nil {
		return nil, err
	}
	p := s.reg.Spawn(c)
	s.log.Info().Str("patient_id", p.ID).Int("case_index", c.Index).Msg("encounter started")
	return &PatientView{
		ID:          p.ID,
		CaseIndex:   c.Index,
		Name:        c.Name,
		Age:         c.Age,
		Sex:         c.Sex,
		Description: c.Description,
		Avatar:      c.Avatar,
		Pediatric:   c.Pediatric(),
		ParentName:  c.ParentName,
		Vitals:      p.Vitals,
		TriageLevel: p.Triage,
		Remaining:   s.lib.Remaining(),
	}, nil
}

// Reset reshuffles the deck and drops every live encounter.
func (s *Service) Reset() {
	s.lib.Reset()
	s.reg.Reset()
	s.log.Info().Int("cases", s.lib.Remaining()).Msg("session reset")
}

// Evaluation bundles the graded result with its storage id.
type Evaluation struct {
	*scoring.Result
	ResultID           uuid.UUID `json:"resultId"`
	HasBeenRatedBefore bool      `json:"hasBeenRatedBefore"`
}

// EvaluateCase grades the submission for one live encounter. Actions
// recorded server-side during play are merged with the submitted list
// so a stale client cannot lose credit, and the server-side chat
// history backs the anamnesis scan when the submission carries none.
func (s *Service) EvaluateCase(ctx context.Context, patientID string, sub *scoring.Submission) (*Evaluation, error) {
	p, ok := s.reg.Get(patientID)
	if !ok {
		return nil, sim.ErrPatientNotFound
	}

	merged := *sub
	merged.ActionsTaken = mergeActions(sub.ActionsTaken, p.ActionsTaken())
	if len(merged.Chat) == 0 {
		for _, m := range p.Chat() {
			merged.Chat = append(merged.Chat, scoring.ChatTurn{Role: m.Role, Content: m.Content})
		}
	}

	res := s.eval.Evaluate(p.Case, &merged)

	rec, err := s.store.Save(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("save result: %w", err)
	}
	rated, err := s.store.CaseRated(ctx, p.Case.Index)
	if err != nil {
		s.log.Warn().Err(err).Int("case_index", p.Case.Index).Msg("rating lookup failed")
		rated = false
	}

	s.log.Info().Str("patient_id", patientID).Int("score", res.FinalScore).
		Stringer("result_id", rec.ID).Msg("case evaluated")
	return &Evaluation{Result: res, ResultID: rec.ID, HasBeenRatedBefore: rated}, nil
}

func mergeActions(submitted []string, recorded map[string]bool) []string {
	seen := make(map[string]bool, len(submitted)+len(recorded))
	out := make([]string, 0, len(submitted)+len(recorded))
	for _, id := range submitted {
		id = strings.ToLower(id)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for id := range recorded {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// RateResult attaches a 1-5 rating with optional feedback to a stored
// result.
func (s *Service) RateResult(ctx context.Context, id uuid.UUID, rating int, feedback string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return s.store.Rate(ctx, id, rating, feedback)
}

// ChatReply is one answered dialogue turn.
type ChatReply struct {
	Reply   string `json:"reply"`
	Speaker string `json:"speaker"`
}

// Chat records the player's utterance, picks the speaker, and answers
// through the configured responder. On pediatric cases the question is
// routed to the child only when the child is addressed by name and old
// enough to answer; the parent fields everything else.
func (s *Service) Chat(ctx context.Context, patientID, message string) (*ChatReply, error) {
	p, ok := s.reg.Get(patientID)
	if !ok {
		return nil, sim.ErrPatientNotFound
	}
	if err := s.sims.AppendChat(patientID, "user", message); err != nil {
		return nil, err
	}

	prompt, speaker := s.routeSpeaker(p, message)

	state, err := s.sims.DynamicState(patientID)
	if err != nil {
		return nil, err
	}
	system := fmt.Sprintf("%s\n\n%s\n\n[VIKTIGA INSTRUKTIONER]:\n%s", prompt, state, characterInstructions)

	reply, err := s.responder.Respond(ctx, RespondRequest{
		SystemPrompt: system,
		DynamicState: state,
		History:      p.Chat(),
		Message:      message,
	})
	if err != nil {
		return nil, fmt.Errorf("responder: %w", err)
	}
	if err := s.sims.AppendChat(patientID, "assistant", reply); err != nil {
		return nil, err
	}
	return &ChatReply{Reply: reply, Speaker: speaker}, nil
}

// routeSpeaker decides who answers and with which character prompt.
func (s *Service) routeSpeaker(p *sim.Patient, message string) (prompt, speaker string) {
	c := p.Case
	if !c.Pediatric() {
		return c.Prompt, c.Name
	}
	if c.Age > 2 && addressesChild(message, c.Name) {
		p.SetSpeaker("child")
		return c.ChildPrompt, c.Name
	}
	p.SetSpeaker("parent")
	speaker = c.ParentName
	if speaker == "" {
		speaker = "Parent"
	}
	return c.ParentPrompt, speaker
}

// addressesChild reports whether the utterance names the child
// directly. The parent remains the default source of history.
func addressesChild(message, childName string) bool {
	if childName == "" {
		return false
	}
	first := strings.Fields(childName)
	if len(first) == 0 {
		return false
	}
	return strings.Contains(strings.ToLower(message), strings.ToLower(first[0]))
}
