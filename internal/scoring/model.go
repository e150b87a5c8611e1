package scoring

import (
	"github.com/edsim/edsim/internal/caselib"
	"github.com/edsim/edsim/internal/catalog"
)

// Point weights. Carried over unchanged from the clinical content
// team's grading scheme.
const (
	PointsCritical        = 10
	PointsRecommended     = 5
	PointsContraindicated = -25
	PointsAnamnesis       = 5
	PointsPrescription    = 2
	PointsPlanItem        = 5
)

// ChatTurn is one turn of the encounter dialogue as submitted for
// grading.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MonitoringOrders are the monitoring boxes the player ticked on the
// ward plan.
type MonitoringOrders struct {
	VitalsFrequency     string `json:"vitals_frequency"`
	Fasting             bool   `json:"fasting"`
	UrineOutput         bool   `json:"urine_output"`
	DailyWeight         bool   `json:"daily_weight"`
	GlucoseCurve        bool   `json:"glucose_curve"`
	SurgeryNotification bool   `json:"surgery_notification"`
}

// AdmissionPlan is the player's ward plan.
type AdmissionPlan struct {
	Medications []caselib.PlanMedication `json:"medications"`
	Monitoring  MonitoringOrders         `json:"monitoring"`
}

// Submission is everything the player hands in at the end of an
// encounter.
type Submission struct {
	ActionsTaken  []string            `json:"actionsTaken"`
	Diagnosis     string              `json:"playerDiagnosis"`
	Disposition   caselib.Disposition `json:"playerChoice"`
	Prescriptions []string            `json:"playerPrescriptions"`
	AdmissionPlan *AdmissionPlan      `json:"playerAdmissionPlan"`
	Chat          []ChatTurn          `json:"chatHistory"`
}

// EntryStatus classifies one debrief line.
type EntryStatus string

const (
	StatusPerformed   EntryStatus = "performed"
	StatusMissed      EntryStatus = "missed"
	StatusUnnecessary EntryStatus = "unnecessary"
)

// ActionEntry is one graded action on the debrief. For a missed
// any-of group the IDs list all acceptable alternatives and the name
// joins them.
type ActionEntry struct {
	IDs    []string    `json:"ids"`
	Name   string      `json:"name"`
	Status EntryStatus `json:"status"`
}

// ActionList splits a tier's actions into performed and missed.
type ActionList struct {
	Performed []ActionEntry `json:"performed,omitempty"`
	Missed    []ActionEntry `json:"missed,omitempty"`
}

// Empty reports whether the list has no entries at all.
func (l ActionList) Empty() bool {
	return len(l.Performed) == 0 && len(l.Missed) == 0
}

// CategorySection groups graded actions of one clinical category.
type CategorySection struct {
	Category    catalog.Category `json:"category"`
	Title       string           `json:"title"`
	Critical    ActionList       `json:"critical"`
	Recommended ActionList       `json:"recommended"`
}

// AnamnesisEntry is one history-taking checklist line.
type AnamnesisEntry struct {
	Question string `json:"question"`
	Covered  bool   `json:"covered"`
}

// PlanEntry is one graded prescription or admission-plan line.
type PlanEntry struct {
	Name   string      `json:"name"`
	Status EntryStatus `json:"status"`
}

// PlanSection is the graded admission plan, split the way the debrief
// displays it.
type PlanSection struct {
	Ordered []PlanEntry `json:"ordered,omitempty"`
	Missed  []PlanEntry `json:"missed,omitempty"`
}

// Result is the full graded outcome of one encounter.
type Result struct {
	CaseIndex        int    `json:"caseIndex"`
	CaseName         string `json:"caseName"`
	CaseDescription  string `json:"caseDescription,omitempty"`
	FinalScore       int    `json:"finalScore"`
	EarnedPoints     int    `json:"earnedPoints"`
	MaxPoints        int    `json:"maxPoints"`
	CorrectDiagnosis string `json:"correctDiagnosis"`
	DiagnosisCorrect bool   `json:"isDiagnosisCorrect"`

	Anamnesis       []AnamnesisEntry  `json:"anamnesis,omitempty"`
	Investigations  []CategorySection `json:"investigations,omitempty"`
	Interventions   []CategorySection `json:"interventions,omitempty"`
	Contraindicated []ActionEntry     `json:"contraindicated,omitempty"`
	Prescriptions   []PlanEntry       `json:"prescriptions,omitempty"`
	AdmissionPlan   *PlanSection      `json:"admissionPlan,omitempty"`
}
