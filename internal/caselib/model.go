package caselib

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Disposition is the correct discharge decision for a case.
type Disposition string

const (
	DispositionHome Disposition = "Home"
	DispositionWard Disposition = "Ward"
)

// Requirement is one entry of a solution action list: either a single
// required action or a group of alternatives where any one satisfies
// the entry. The shape is decided once at load time so scoring never
// branches on raw JSON types.
type Requirement struct {
	Alternatives []string
}

// Single reports whether the requirement names exactly one action.
func (r Requirement) Single() bool { return len(r.Alternatives) == 1 }

// SatisfiedBy returns the first alternative present in the player's
// action set, if any. Matching is case-insensitive; the action set is
// expected to hold lower-cased identifiers.
func (r Requirement) SatisfiedBy(actions map[string]bool) (string, bool) {
	for _, id := range r.Alternatives {
		if actions[strings.ToLower(id)] {
			return strings.ToLower(id), true
		}
	}
	return "", false
}

// UnmarshalJSON accepts either a bare identifier or a list of
// alternative identifiers.
func (r *Requirement) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		r.Alternatives = []string{single}
		return nil
	}
	var group []string
	if err := json.Unmarshal(b, &group); err == nil {
		r.Alternatives = group
		return nil
	}
	return fmt.Errorf("action requirement must be a string or a list of strings: %s", string(b))
}

// ChecklistItem is one anamnesis question and the keywords that mark
// it as covered in the player's dialogue.
type ChecklistItem struct {
	Question string   `json:"question"`
	Keywords []string `json:"keywords"`
}

// FlexStrings decodes a JSON string or list of strings. It models
// solution values that allow several acceptable answers.
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(b []byte) error {
	var single string
	if err := json.Unmarshal(b, &single); err == nil {
		*f = FlexStrings{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*f = FlexStrings(list)
		return nil
	}
	return fmt.Errorf("expected string or list of strings: %s", string(b))
}

// Contains reports whether v is an acceptable value.
func (f FlexStrings) Contains(v string) bool {
	for _, s := range f {
		if s == v {
			return true
		}
	}
	return false
}

// PlanMedication is one medication order in an admission plan.
type PlanMedication struct {
	ID        string  `json:"id"`
	Dose      float64 `json:"dose"`
	Frequency int     `json:"frequency"`
}

// MonitoringSolution defines which monitoring orders a case expects.
// A nil field means the flag is not scored at all; a defined value is
// scored whether it requires the order or its absence.
type MonitoringSolution struct {
	VitalsFrequency     *FlexStrings `json:"vitals_frequency,omitempty"`
	Fasting             *bool        `json:"fasting,omitempty"`
	UrineOutput         *bool        `json:"urine_output,omitempty"`
	DailyWeight         *bool        `json:"daily_weight,omitempty"`
	GlucoseCurve        *bool        `json:"glucose_curve,omitempty"`
	SurgeryNotification *bool        `json:"surgery_notification,omitempty"`
}

// AdmissionPlanSolution is the structured ward plan a case expects.
type AdmissionPlanSolution struct {
	Medications []PlanMedication    `json:"medications,omitempty"`
	Monitoring  *MonitoringSolution `json:"monitoring,omitempty"`
}

// Vitals are the scripted starting vital signs of a case.
type Vitals struct {
	AF          float64 `json:"af"`
	Saturation  float64 `json:"saturation"`
	Puls        float64 `json:"puls"`
	BTSystolic  float64 `json:"bt_systolic"`
	BTDiastolic float64 `json:"bt_diastolic"`
	Temp        float64 `json:"temp"`
	RLS         float64 `json:"rls"`
}

// Case is one scripted patient scenario. Loaded once at startup and
// never mutated; the simulation clones what it needs per encounter.
type Case struct {
	Index       int
	Name        string
	Age         float64 // years; fractional for infants
	Sex         string
	Diagnosis   string
	Description string
	Disposition Disposition
	COPD        bool
	Avatar      string

	Vitals    Vitals
	LabValues map[string]string // lab name -> scripted value
	Findings  map[string]string // exam/test name -> abnormal finding text
	UrineML   int

	ActionsCritical        []Requirement
	ActionsRecommended     []Requirement
	ActionsContraindicated []string // flattened, lower-cased at load
	AnamnesisChecklist     []ChecklistItem
	PrescriptionsSolution  []string
	AdmissionPlan          *AdmissionPlanSolution

	// Dialogue prompts, consumed by the external chat collaborator.
	Prompt       string
	ParentPrompt string
	ChildPrompt  string
	ParentName   string
}

// Pediatric reports whether the case uses the parent/child dialogue
// split.
func (c *Case) Pediatric() bool { return c.ParentPrompt != "" }
