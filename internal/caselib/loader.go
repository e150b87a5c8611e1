package caselib

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CasesFile is the case library file name under the content directory.
const CasesFile = "cases.json"

// caseJSON is the on-disk shape. Solution fields stay raw so a
// malformed entry degrades to empty instead of rejecting the whole
// library; each bad field produces a warning for the caller to log.
type caseJSON struct {
	Name        string  `json:"name"`
	Age         float64 `json:"age"`
	Sex         string  `json:"sex"`
	Diagnosis   string  `json:"diagnosis"`
	Description string  `json:"description"`
	Disposition string  `json:"disposition"`
	COPD        bool    `json:"copd"`
	Avatar      string  `json:"avatar"`

	Vitals    Vitals            `json:"vitals"`
	LabValues map[string]string `json:"lab_values"`
	Findings  map[string]string `json:"findings"`
	UrineML   int               `json:"urine_ml"`

	ActionsCritical        json.RawMessage `json:"actions_critical"`
	ActionsRecommended     json.RawMessage `json:"actions_recommended"`
	ActionsContraindicated json.RawMessage `json:"actions_contraindicated"`
	AnamnesisChecklist     json.RawMessage `json:"anamnesis_checklist"`
	PrescriptionsSolution  json.RawMessage `json:"prescriptions_solution"`
	AdmissionPlan          json.RawMessage `json:"admission_plan"`

	Prompt       string `json:"prompt"`
	ParentPrompt string `json:"parent_prompt"`
	ChildPrompt  string `json:"child_prompt"`
	ParentName   string `json:"parent_name"`
}

// Load reads the case library from dir. Cases with malformed solution
// fields are kept with those fields empty; the returned warnings name
// each dropped field.
func Load(dir string) (*Library, []string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, CasesFile))
	if err != nil {
		return nil, nil, fmt.Errorf("read case library: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a case library from JSON.
func Parse(raw []byte) (*Library, []string, error) {
	var entries []caseJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil, fmt.Errorf("decode case library: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("case library is empty")
	}

	var warnings []string
	cases := make([]*Case, 0, len(entries))
	for i, e := range entries {
		c, ws, err := buildCase(i, e)
		if err != nil {
			return nil, nil, err
		}
		warnings = append(warnings, ws...)
		cases = append(cases, c)
	}
	return NewLibrary(cases), warnings, nil
}

func buildCase(index int, e caseJSON) (*Case, []string, error) {
	var warnings []string
	warn := func(field string, err error) {
		warnings = append(warnings, fmt.Sprintf("case %d (%s): ignoring malformed %s: %v", index, e.Name, field, err))
	}

	c := &Case{
		Index:        index,
		Name:         e.Name,
		Age:          e.Age,
		Sex:          e.Sex,
		Diagnosis:    e.Diagnosis,
		Description:  e.Description,
		COPD:         e.COPD,
		Avatar:       e.Avatar,
		Vitals:       e.Vitals,
		LabValues:    e.LabValues,
		Findings:     e.Findings,
		UrineML:      e.UrineML,
		Prompt:       e.Prompt,
		ParentPrompt: e.ParentPrompt,
		ChildPrompt:  e.ChildPrompt,
		ParentName:   e.ParentName,
	}
	if c.Name == "" {
		return nil, nil, fmt.Errorf("case %d: missing name", index)
	}

	switch strings.ToLower(e.Disposition) {
	case "home", "hem":
		c.Disposition = DispositionHome
	case "ward", "", "inläggning":
		c.Disposition = DispositionWard
	default:
		warn("disposition", fmt.Errorf("unknown value %q", e.Disposition))
		c.Disposition = DispositionWard
	}

	if len(e.ActionsCritical) > 0 {
		if err := json.Unmarshal(e.ActionsCritical, &c.ActionsCritical); err != nil {
			warn("actions_critical", err)
			c.ActionsCritical = nil
		}
	}
	if len(e.ActionsRecommended) > 0 {
		if err := json.Unmarshal(e.ActionsRecommended, &c.ActionsRecommended); err != nil {
			warn("actions_recommended", err)
			c.ActionsRecommended = nil
		}
	}
	if len(e.ActionsContraindicated) > 0 {
		var reqs []Requirement
		if err := json.Unmarshal(e.ActionsContraindicated, &reqs); err != nil {
			warn("actions_contraindicated", err)
		} else {
			// Contraindications have no any-of semantics: every listed
			// action is individually penalised, so groups flatten.
			for _, r := range reqs {
				for _, id := range r.Alternatives {
					c.ActionsContraindicated = append(c.ActionsContraindicated, strings.ToLower(id))
				}
			}
		}
	}
	if len(e.AnamnesisChecklist) > 0 {
		if err := json.Unmarshal(e.AnamnesisChecklist, &c.AnamnesisChecklist); err != nil {
			warn("anamnesis_checklist", err)
			c.AnamnesisChecklist = nil
		}
	}
	if len(e.PrescriptionsSolution) > 0 {
		if err := json.Unmarshal(e.PrescriptionsSolution, &c.PrescriptionsSolution); err != nil {
			warn("prescriptions_solution", err)
			c.PrescriptionsSolution = nil
		}
	}
	if len(e.AdmissionPlan) > 0 {
		var plan AdmissionPlanSolution
		if err := json.Unmarshal(e.AdmissionPlan, &plan); err != nil {
			warn("admission_plan", err)
		} else {
			c.AdmissionPlan = &plan
		}
	}

	return c, warnings, nil
}
