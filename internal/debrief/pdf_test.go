package debrief

import (
	"bytes"
	"os"
	"testing"

	"github.com/edsim/edsim/internal/catalog"
	"github.com/edsim/edsim/internal/scoring"
)

func fontAvailable() bool {
	for _, path := range defaultFontPaths {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

func sampleResult() *scoring.Result {
	return &scoring.Result{
		CaseIndex:        1,
		CaseName:         "Bröstsmärta",
		FinalScore:       74,
		EarnedPoints:     35,
		MaxPoints:        47,
		CorrectDiagnosis: "Hjärtinfarkt",
		DiagnosisCorrect: true,
		Anamnesis: []scoring.AnamnesisEntry{
			{Question: "Frågade om smärtdebut?", Covered: true},
			{Question: "Frågade om allergier?", Covered: false},
		},
		Investigations: []scoring.CategorySection{
			{
				Category: catalog.CategoryLab,
				Title:    "Lab Tests",
				Critical: scoring.ActionList{
					Performed: []scoring.ActionEntry{{IDs: []string{"troponin"}, Name: "Troponin", Status: scoring.StatusPerformed}},
					Missed:    []scoring.ActionEntry{{IDs: []string{"krea"}, Name: "Krea", Status: scoring.StatusMissed}},
				},
			},
		},
		Interventions: []scoring.CategorySection{
			{
				Category: catalog.CategoryMedication,
				Title:    "Medications",
				Critical: scoring.ActionList{
					Performed: []scoring.ActionEntry{{IDs: []string{"morfin"}, Name: "Morfin", Status: scoring.StatusPerformed}},
				},
			},
		},
		Contraindicated: []scoring.ActionEntry{
			{IDs: []string{"seloken"}, Name: "Seloken", Status: scoring.StatusPerformed},
		},
		Prescriptions: []scoring.PlanEntry{
			{Name: "Trombyl", Status: scoring.StatusPerformed},
		},
		AdmissionPlan: &scoring.PlanSection{
			Ordered: []scoring.PlanEntry{{Name: "NEWS (Varje 4h)", Status: scoring.StatusPerformed}},
			Missed:  []scoring.PlanEntry{{Name: "Glukoskurva", Status: scoring.StatusMissed}},
		},
	}
}

func TestRenderProducesPDF(t *testing.T) {
	if !fontAvailable() {
		t.Skip("no TTF font installed")
	}
	data, err := NewRenderer("").Render(sampleResult())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", data[:min(8, len(data))])
	}
}

func TestRenderMissingFont(t *testing.T) {
	_, err := NewRenderer("/nonexistent/font.ttf").Render(sampleResult())
	if err == nil {
		t.Fatal("expected font load error")
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
