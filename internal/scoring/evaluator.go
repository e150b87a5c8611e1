package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/edsim/edsim/internal/caselib"
	"github.com/edsim/edsim/internal/catalog"
)

// Section order for the debrief. Investigations cover the diagnostic
// work, interventions the treatments.
var investigationCategories = []struct {
	cat   catalog.Category
	title string
}{
	{catalog.CategoryExam, "Physical Exams"},
	{catalog.CategoryLab, "Lab Tests"},
	{catalog.CategoryBedside, "Bedside Tests"},
	{catalog.CategoryRadiology, "Radiology"},
}

var interventionCategories = []struct {
	cat   catalog.Category
	title string
}{
	{catalog.CategoryMedication, "Medications"},
}

// Evaluator grades submissions against case solutions.
type Evaluator struct {
	cat *catalog.Catalog
}

func NewEvaluator(cat *catalog.Catalog) *Evaluator {
	return &Evaluator{cat: cat}
}

// tally accumulates earned and maximum points while the report is
// assembled.
type tally struct {
	earned int
	max    int
}

// Evaluate grades one submission. The function is pure: grading the
// same submission twice yields the same result.
func (ev *Evaluator) Evaluate(c *caselib.Case, sub *Submission) *Result {
	var t tally
	res := &Result{
		CaseIndex:        c.Index,
		CaseName:         c.Name,
		CaseDescription:  c.Description,
		CorrectDiagnosis: c.Diagnosis,
		DiagnosisCorrect: diagnosisCorrect(sub.Diagnosis, c.Diagnosis),
	}

	res.Anamnesis = ev.gradeAnamnesis(c, sub, &t)

	performed := actionSet(sub.ActionsTaken)
	critical := ev.gradeTier(c.ActionsCritical, performed, PointsCritical, &t)
	recommended := ev.gradeTier(c.ActionsRecommended, performed, PointsRecommended, &t)
	res.Contraindicated = ev.gradeContraindicated(c.ActionsContraindicated, performed, &t)

	res.Investigations = ev.buildSections(investigationCategories, critical, recommended)
	res.Interventions = ev.buildSections(interventionCategories, critical, recommended)

	if sub.Disposition == caselib.DispositionHome {
		res.Prescriptions = ev.gradePrescriptions(c, sub, &t)
	}
	if sub.Disposition == caselib.DispositionWard && sub.AdmissionPlan != nil {
		res.AdmissionPlan = ev.gradeAdmissionPlan(c, sub.AdmissionPlan, &t)
	}

	res.EarnedPoints = t.earned
	res.MaxPoints = t.max
	res.FinalScore = finalScore(t)
	return res
}

func diagnosisCorrect(player, solution string) bool {
	if player == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(player), strings.TrimSpace(solution))
}

func actionSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[strings.ToLower(id)] = true
	}
	return set
}

// gradeAnamnesis checks each checklist question's keywords against
// the concatenated lower-cased player dialogue.
func (ev *Evaluator) gradeAnamnesis(c *caselib.Case, sub *Submission, t *tally) []AnamnesisEntry {
	if len(c.AnamnesisChecklist) == 0 {
		return nil
	}
	t.max += len(c.AnamnesisChecklist) * PointsAnamnesis

	var parts []string
	for _, turn := range sub.Chat {
		if turn.Role == "user" {
			parts = append(parts, strings.ToLower(turn.Content))
		}
	}
	playerChat := strings.Join(parts, " ")

	entries := make([]AnamnesisEntry, 0, len(c.AnamnesisChecklist))
	for _, item := range c.AnamnesisChecklist {
		covered := false
		for _, kw := range item.Keywords {
			if kw != "" && strings.Contains(playerChat, strings.ToLower(kw)) {
				covered = true
				break
			}
		}
		if covered {
			t.earned += PointsAnamnesis
		}
		entries = append(entries, AnamnesisEntry{Question: item.Question, Covered: covered})
	}
	return entries
}

// gradeTier scores one requirement tier. An any-of group earns its
// points once, attributed to the alternative actually performed; a
// missed group is reported with every acceptable alternative.
func (ev *Evaluator) gradeTier(reqs []caselib.Requirement, performed map[string]bool, points int, t *tally) ActionList {
	var list ActionList
	t.max += len(reqs) * points
	for _, req := range reqs {
		if id, ok := req.SatisfiedBy(performed); ok {
			t.earned += points
			list.Performed = append(list.Performed, ActionEntry{
				IDs:    []string{id},
				Name:   ev.cat.DisplayName(id),
				Status: StatusPerformed,
			})
			continue
		}
		ids := make([]string, len(req.Alternatives))
		for i, alt := range req.Alternatives {
			ids[i] = strings.ToLower(alt)
		}
		list.Missed = append(list.Missed, ActionEntry{
			IDs:    ids,
			Name:   ev.cat.DisplayNameAny(ids),
			Status: StatusMissed,
		})
	}
	return list
}

// gradeContraindicated deducts for every contraindicated action
// performed. Deductions have no ceiling: they can push the raw score
// below zero before the final clamp.
func (ev *Evaluator) gradeContraindicated(ids []string, performed map[string]bool, t *tally) []ActionEntry {
	var entries []ActionEntry
	for _, id := range ids {
		if !performed[id] {
			continue
		}
		t.earned += PointsContraindicated
		entries = append(entries, ActionEntry{
			IDs:    []string{id},
			Name:   ev.cat.DisplayName(id),
			Status: StatusUnnecessary,
		})
	}
	return entries
}

// buildSections groups a tier pair into per-category report sections,
// dropping categories with nothing to show.
func (ev *Evaluator) buildSections(categories []struct {
	cat   catalog.Category
	title string
}, critical, recommended ActionList) []CategorySection {
	var sections []CategorySection
	for _, spec := range categories {
		section := CategorySection{
			Category:    spec.cat,
			Title:       spec.title,
			Critical:    ev.filterByCategory(critical, spec.cat),
			Recommended: ev.filterByCategory(recommended, spec.cat),
		}
		if section.Critical.Empty() && section.Recommended.Empty() {
			continue
		}
		sections = append(sections, section)
	}
	return sections
}

func (ev *Evaluator) filterByCategory(list ActionList, cat catalog.Category) ActionList {
	var out ActionList
	for _, e := range list.Performed {
		if ev.cat.ClassifyAny(e.IDs) == cat {
			out.Performed = append(out.Performed, e)
		}
	}
	for _, e := range list.Missed {
		if ev.cat.ClassifyAny(e.IDs) == cat {
			out.Missed = append(out.Missed, e)
		}
	}
	return out
}

// gradePrescriptions grades the discharge prescriptions over the
// union of the solution's and the player's choices.
func (ev *Evaluator) gradePrescriptions(c *caselib.Case, sub *Submission, t *tally) []PlanEntry {
	if sub.Prescriptions == nil {
		return nil
	}
	solution := make(map[string]bool, len(c.PrescriptionsSolution))
	order := make([]string, 0, len(c.PrescriptionsSolution)+len(sub.Prescriptions))
	for _, id := range c.PrescriptionsSolution {
		if !solution[id] {
			solution[id] = true
			order = append(order, id)
		}
	}
	chosen := make(map[string]bool, len(sub.Prescriptions))
	for _, id := range sub.Prescriptions {
		if !chosen[id] {
			chosen[id] = true
			if !solution[id] {
				order = append(order, id)
			}
		}
	}
	if len(order) == 0 {
		return nil
	}
	t.max += len(solution) * PointsPrescription

	entries := make([]PlanEntry, 0, len(order))
	for _, id := range order {
		name := ev.cat.DisplayName(id)
		switch {
		case solution[id] && chosen[id]:
			t.earned += PointsPrescription
			entries = append(entries, PlanEntry{Name: name, Status: StatusPerformed})
		case solution[id]:
			entries = append(entries, PlanEntry{Name: name, Status: StatusMissed})
		default:
			t.earned -= PointsPrescription
			entries = append(entries, PlanEntry{Name: name, Status: StatusUnnecessary})
		}
	}
	return entries
}

// gradeAdmissionPlan grades ward-plan medications against the
// solution's dosing and the monitoring orders against the scored
// flags.
func (ev *Evaluator) gradeAdmissionPlan(c *caselib.Case, plan *AdmissionPlan, t *tally) *PlanSection {
	solution := c.AdmissionPlan
	if solution == nil {
		return nil
	}
	section := &PlanSection{}

	for _, solMed := range solution.Medications {
		med, ok := ev.cat.MedicationByID(solMed.ID)
		if !ok {
			continue
		}
		t.max += PointsPlanItem

		var order *caselib.PlanMedication
		for i := range plan.Medications {
			if strings.EqualFold(plan.Medications[i].ID, solMed.ID) {
				order = &plan.Medications[i]
				break
			}
		}

		text := med.Name
		correct := false
		if order != nil {
			correct = ev.planMedCorrect(med, solMed, order)
			text = fmt.Sprintf("%s %v%s x %d", med.Name, order.Dose, med.DoseUnit, order.Frequency)
		}
		if correct {
			t.earned += PointsPlanItem
			section.Ordered = append(section.Ordered, PlanEntry{Name: text, Status: StatusPerformed})
		} else {
			section.Missed = append(section.Missed, PlanEntry{Name: text, Status: StatusMissed})
		}
	}

	if solution.Monitoring != nil {
		ev.gradeMonitoring(solution.Monitoring, plan.Monitoring, section, t)
	}

	if len(section.Ordered) == 0 && len(section.Missed) == 0 {
		return nil
	}
	return section
}

// planMedCorrect accepts either any total daily dose within the
// medication's reasonable range, or the exact scripted dose and
// frequency when no range is defined.
func (ev *Evaluator) planMedCorrect(med *catalog.Medication, sol caselib.PlanMedication, order *caselib.PlanMedication) bool {
	if med.ReasonableDoseMin != nil && med.ReasonableDoseMax != nil {
		if order.Frequency <= 0 {
			return false
		}
		daily := order.Dose * float64(order.Frequency)
		return daily >= *med.ReasonableDoseMin && daily <= *med.ReasonableDoseMax
	}
	return math.Abs(order.Dose-sol.Dose) < 0.01 && order.Frequency == sol.Frequency
}

// gradeMonitoring grades each scored flag. A required order earns a
// visible line; a correctly omitted one earns points silently; an
// unnecessary order shows up flagged without affecting the maximum.
func (ev *Evaluator) gradeMonitoring(sol *caselib.MonitoringSolution, mon MonitoringOrders, section *PlanSection, t *tally) {
	if sol.VitalsFrequency != nil {
		t.max += PointsPlanItem
		if sol.VitalsFrequency.Contains(mon.VitalsFrequency) {
			t.earned += PointsPlanItem
			label := fmt.Sprintf("NEWS (Varje %s)", mon.VitalsFrequency)
			if mon.VitalsFrequency == "none" {
				label = "NEWS (Never)"
			}
			section.Ordered = append(section.Ordered, PlanEntry{Name: label, Status: StatusPerformed})
		} else {
			section.Missed = append(section.Missed, PlanEntry{Name: "NEWS", Status: StatusMissed})
		}
	}

	flags := []struct {
		label    string
		player   bool
		solution *bool
	}{
		{"Fasta", mon.Fasting, sol.Fasting},
		{"Vätske- & urinmätning", mon.UrineOutput, sol.UrineOutput},
		{"Daglig vikt", mon.DailyWeight, sol.DailyWeight},
		{"Glukoskurva", mon.GlucoseCurve, sol.GlucoseCurve},
		{"Operationsanmälan", mon.SurgeryNotification, sol.SurgeryNotification},
	}
	for _, f := range flags {
		if f.solution == nil {
			continue
		}
		t.max += PointsPlanItem
		switch {
		case f.player == *f.solution:
			t.earned += PointsPlanItem
			if *f.solution {
				section.Ordered = append(section.Ordered, PlanEntry{Name: f.label, Status: StatusPerformed})
			}
			// A correctly omitted order earns points without a line.
		case *f.solution:
			section.Missed = append(section.Missed, PlanEntry{Name: f.label, Status: StatusMissed})
		default:
			section.Ordered = append(section.Ordered, PlanEntry{Name: f.label, Status: StatusUnnecessary})
		}
	}
}

// finalScore normalizes the tally to 0-100. A case with no scored
// content grades against a nominal maximum so the score stays
// defined.
func finalScore(t tally) int {
	max := t.max
	if max <= 0 {
		max = 100
	}
	pct := float64(t.earned) / float64(max) * 100
	return int(math.Round(math.Max(0, math.Min(100, pct))))
}
