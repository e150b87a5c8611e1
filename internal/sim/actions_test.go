package sim

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestService(t *testing.T) (*Service, *Registry) {
	t.Helper()
	cat := testCatalog()
	reg := NewRegistry(cat)
	return NewService(reg, cat, zerolog.Nop()), reg
}

func TestStatusReportsColorsAndTriage(t *testing.T) {
	svc, reg := newTestService(t)
	c := testCase()
	c.Vitals.Saturation = 88
	p := reg.Spawn(c)

	st, err := svc.Status(p.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.TriageLevel != TriageRed {
		t.Errorf("TriageLevel = %q, want red", st.TriageLevel)
	}
	if st.VitalColors[VitalSaturation] != AlertRed {
		t.Errorf("saturation color = %q, want red", st.VitalColors[VitalSaturation])
	}
	if _, ok := st.VitalColors["BT"]; !ok {
		t.Error("status should grade blood pressure under the BT key")
	}

	if _, err := svc.Status("missing"); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("Status(missing) err = %v, want ErrPatientNotFound", err)
	}
}

func TestPerformExamPrefersScriptedFinding(t *testing.T) {
	svc, reg := newTestService(t)
	c := testCase()
	c.Findings = map[string]string{"Abdomen": "Uttalad ömhet i epigastriet."}
	p := reg.Spawn(c)

	res, err := svc.PerformExam(p.ID, "abdomen")
	if err != nil {
		t.Fatalf("PerformExam: %v", err)
	}
	if res.Finding != "Uttalad ömhet i epigastriet." {
		t.Errorf("Finding = %q, want scripted override", res.Finding)
	}

	res, err = svc.PerformExam(p.ID, "lungor")
	if err != nil {
		t.Fatalf("PerformExam: %v", err)
	}
	if res.Finding != "Vesikulära andningsljud bilateralt." {
		t.Errorf("Finding = %q, want normal finding", res.Finding)
	}

	// Exams are recorded under their display name for scoring.
	actions := p.ActionsTaken()
	if !actions["abdomen"] || !actions["lungauskultation"] {
		t.Errorf("exam actions not recorded: %v", actions)
	}
}

func TestPerformBedsideEKGUsesScriptedText(t *testing.T) {
	svc, reg := newTestService(t)
	c := testCase()
	c.Findings = map[string]string{
		"EKG_finding_text":   "Förmaksflimmer, snabb kammarfrekvens.",
		"EKG_image_filename": "af.png",
	}
	p := reg.Spawn(c)

	res, err := svc.PerformBedside(p.ID, "ekg")
	if err != nil {
		t.Fatalf("PerformBedside: %v", err)
	}
	if res.Result != "Förmaksflimmer, snabb kammarfrekvens." {
		t.Errorf("Result = %q", res.Result)
	}
	if res.ImageFilename != "af.png" {
		t.Errorf("ImageFilename = %q, want af.png", res.ImageFilename)
	}
	if res.TestLabel != "EKG-tolkning" {
		t.Errorf("TestLabel = %q, want result label", res.TestLabel)
	}

	// Other bedside tests never carry the EKG image.
	res, err = svc.PerformBedside(p.ID, "urinsticka")
	if err != nil {
		t.Fatalf("PerformBedside: %v", err)
	}
	if res.ImageFilename != "" {
		t.Errorf("urinsticka ImageFilename = %q, want empty", res.ImageFilename)
	}
}

func TestBladderScanAndCatheter(t *testing.T) {
	svc, reg := newTestService(t)
	c := testCase()
	c.UrineML = 450
	c.Findings = map[string]string{"Sätt KAD": "blodtillblandad"}
	p := reg.Spawn(c)

	res, err := svc.PerformBedside(p.ID, "bladderscan")
	if err != nil {
		t.Fatalf("bladderscan: %v", err)
	}
	if res.Result != "Bladdervolym 450 ml" {
		t.Errorf("bladderscan = %q", res.Result)
	}

	res, err = svc.PerformBedside(p.ID, "KAD")
	if err != nil {
		t.Fatalf("KAD: %v", err)
	}
	if res.Result != "KAD satt, tömt 450 ml blodtillblandad urin." {
		t.Errorf("KAD = %q", res.Result)
	}

	// The catheter empties the bladder.
	res, _ = svc.PerformBedside(p.ID, "bladderscan")
	if res.Result != "Bladdervolym 0 ml" {
		t.Errorf("bladderscan after KAD = %q", res.Result)
	}
}

func TestBladderVolumeDefaults(t *testing.T) {
	svc, reg := newTestService(t)
	p := reg.Spawn(testCase())

	res, err := svc.PerformBedside(p.ID, "KAD")
	if err != nil {
		t.Fatalf("KAD: %v", err)
	}
	if res.Result != "KAD satt, tömt 300 ml ljusgul urin." {
		t.Errorf("KAD with defaults = %q", res.Result)
	}
}

func TestOrderRadiology(t *testing.T) {
	svc, reg := newTestService(t)
	c := testCase()
	c.Findings = map[string]string{"dt-thorax": "Lobär pneumoni höger underlob."}
	p := reg.Spawn(c)

	res, err := svc.OrderRadiology(p.ID, "dt-thorax")
	if err != nil {
		t.Fatalf("OrderRadiology: %v", err)
	}
	if res.Result != "Lobär pneumoni höger underlob." {
		t.Errorf("Result = %q", res.Result)
	}

	if _, err := svc.OrderRadiology(p.ID, "mr-hjärna"); !errors.Is(err, ErrUnknownTest) {
		t.Errorf("unknown radiology err = %v, want ErrUnknownTest", err)
	}
}

func TestOrderLabScriptedAndRandomized(t *testing.T) {
	svc, reg := newTestService(t)
	c := testCase()
	c.LabValues = map[string]string{"P-Glukos": "1.8"}
	p := reg.Spawn(c)

	labs, err := svc.OrderLab(p.ID, "p-glukos")
	if err != nil {
		t.Fatalf("OrderLab: %v", err)
	}
	glukos := labs["p-glukos"]
	if glukos == nil {
		t.Fatal("glucose result missing")
	}
	if glukos.Result != "1.8 mmol/L" || !glukos.Abnormal {
		t.Errorf("glucose = %+v, want abnormal 1.8 mmol/L", glukos)
	}

	labs, err = svc.OrderLab(p.ID, "crp")
	if err != nil {
		t.Fatalf("OrderLab: %v", err)
	}
	crp := labs["crp"]
	if crp == nil || crp.Abnormal {
		t.Errorf("unscripted CRP should be in range, got %+v", crp)
	}
}

func TestOrderLabDelayed(t *testing.T) {
	svc, reg := newTestService(t)
	p := reg.Spawn(testCase())

	labs, err := svc.OrderLab(p.ID, "blododling")
	if err != nil {
		t.Fatalf("OrderLab: %v", err)
	}
	culture := labs["blododling"]
	if culture == nil || !culture.Pending || culture.Result != "(Ordered)" || culture.Abnormal {
		t.Errorf("delayed lab = %+v", culture)
	}
}

func TestOrderBloodGasPanel(t *testing.T) {
	svc, reg := newTestService(t)
	c := testCase()
	c.Vitals.Saturation = 84 // PO2 7.9 kPa, below reference
	p := reg.Spawn(c)

	labs, err := svc.OrderLab(p.ID, "arteriell blodgas")
	if err != nil {
		t.Fatalf("OrderLab: %v", err)
	}
	gas := labs["arteriell blodgas"]
	if gas == nil || len(gas.Components) != 4 {
		t.Fatalf("blood gas = %+v, want 4 components", gas)
	}
	if !gas.Abnormal {
		t.Error("panel with low PO2 should be abnormal")
	}
	var po2Abnormal bool
	for _, comp := range gas.Components {
		if strings.HasPrefix(comp.Label, "PO") {
			po2Abnormal = comp.Abnormal
		}
	}
	if !po2Abnormal {
		t.Error("PO2 component should be flagged abnormal")
	}
}

func TestOrderCreatinineAddsEGFR(t *testing.T) {
	svc, reg := newTestService(t)
	c := testCase()
	c.Age = 70
	c.LabValues = map[string]string{"P-Kreatinin": "400"}
	p := reg.Spawn(c)

	labs, err := svc.OrderLab(p.ID, "krea")
	if err != nil {
		t.Fatalf("OrderLab: %v", err)
	}
	egfr := labs["egfr_calculated"]
	if egfr == nil {
		t.Fatal("eGFR entry missing")
	}
	if !egfr.Abnormal {
		t.Errorf("eGFR at creatinine 400 should be abnormal: %+v", egfr)
	}
}

func TestOrderLabKit(t *testing.T) {
	svc, reg := newTestService(t)
	p := reg.Spawn(testCase())

	labs, err := svc.OrderLabKit(p.ID, "intagningsprover")
	if err != nil {
		t.Fatalf("OrderLabKit: %v", err)
	}
	for _, id := range []string{"p-glukos", "krea", "crp", "egfr_calculated"} {
		if labs[id] == nil {
			t.Errorf("kit result missing %q", id)
		}
	}

	actions := p.ActionsTaken()
	if !actions["intagningsprover"] || !actions["p-glukos"] {
		t.Errorf("kit actions not recorded: %v", actions)
	}
}

func TestGiveMedicationScalesEffectByDose(t *testing.T) {
	svc, reg := newTestService(t)
	p := reg.Spawn(testCase())

	msg, err := svc.GiveMedication(p.ID, "seloken", 10) // double the standard 5 mg
	if err != nil {
		t.Fatalf("GiveMedication: %v", err)
	}
	if !strings.Contains(msg, "Seloken") {
		t.Errorf("message = %q", msg)
	}
	if len(p.Effects) != 1 {
		t.Fatalf("effects = %d, want 1", len(p.Effects))
	}
	if p.Effects[0].Change != -20 {
		t.Errorf("scaled change = %v, want -20", p.Effects[0].Change)
	}
	if p.Effects[0].Remaining != 5 {
		t.Errorf("remaining = %d, want 5", p.Effects[0].Remaining)
	}

	if _, err := svc.GiveMedication(p.ID, "seloken", 0); !errors.Is(err, ErrInvalidDose) {
		t.Errorf("zero dose err = %v, want ErrInvalidDose", err)
	}
	if _, err := svc.GiveMedication(p.ID, "okänd", 5); !errors.Is(err, ErrUnknownMed) {
		t.Errorf("unknown med err = %v, want ErrUnknownMed", err)
	}
}

func TestGiveMedicationAddsNarrativeEffect(t *testing.T) {
	svc, reg := newTestService(t)
	p := reg.Spawn(testCase())

	if _, err := svc.GiveMedication(p.ID, "morfin", 5); err != nil {
		t.Fatalf("GiveMedication: %v", err)
	}
	var narrative *Effect
	for _, ef := range p.Effects {
		if ef.Target == EffectTargetNarrative {
			narrative = ef
		}
	}
	if narrative == nil {
		t.Fatal("narrative effect missing")
	}
	if narrative.Description != "Du känner dig dåsig." || narrative.Remaining != 6 {
		t.Errorf("narrative = %+v", narrative)
	}
}

func TestSetTherapyStartsAndStops(t *testing.T) {
	svc, reg := newTestService(t)
	p := reg.Spawn(testCase())

	if err := svc.SetTherapy(p.ID, "oxygen", 2); err != nil {
		t.Fatalf("SetTherapy: %v", err)
	}
	if p.Therapies["oxygen"] != 2 {
		t.Errorf("therapy flow = %v, want 2", p.Therapies["oxygen"])
	}
	if !p.ActionsTaken()["oxygen"] {
		t.Error("starting a therapy should be recorded as an action")
	}

	if err := svc.SetTherapy(p.ID, "oxygen", 0); err != nil {
		t.Fatalf("SetTherapy stop: %v", err)
	}
	if _, ok := p.Therapies["oxygen"]; ok {
		t.Error("therapy should be stopped at zero flow")
	}
}

func TestToggleHomeMed(t *testing.T) {
	svc, reg := newTestService(t)
	p := reg.Spawn(testCase())

	state, err := svc.ToggleHomeMed(p.ID, "metoprolol")
	if err != nil {
		t.Fatalf("ToggleHomeMed: %v", err)
	}
	if !state["metoprolol"] {
		t.Error("first toggle should pause")
	}
	state, _ = svc.ToggleHomeMed(p.ID, "metoprolol")
	if state["metoprolol"] {
		t.Error("second toggle should resume")
	}
}

func TestDynamicState(t *testing.T) {
	svc, reg := newTestService(t)
	c := testCase()
	c.Vitals.BTSystolic = 85
	c.Vitals.AF = 30
	p := reg.Spawn(c)
	if _, err := svc.GiveMedication(p.ID, "morfin", 5); err != nil {
		t.Fatalf("GiveMedication: %v", err)
	}

	state, err := svc.DynamicState(p.ID)
	if err != nil {
		t.Fatalf("DynamicState: %v", err)
	}
	for _, want := range []string{
		"AKTUELLT TILLSTÅND:",
		"Du har nyligen fått medicin.",
		"Du känner dig yr och svag.",
		"Du känner dig andfådd.",
		"Du känner dig dåsig.",
	} {
		if !strings.Contains(state, want) {
			t.Errorf("DynamicState missing %q in %q", want, state)
		}
	}
}

func TestRegistryResetAndRemove(t *testing.T) {
	_, reg := newTestService(t)
	p1 := reg.Spawn(testCase())
	reg.Spawn(testCase())
	if reg.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reg.Len())
	}

	reg.Remove(p1.ID)
	if _, ok := reg.Get(p1.ID); ok {
		t.Error("removed patient still present")
	}

	reg.Reset()
	if reg.Len() != 0 {
		t.Errorf("Len after Reset = %d, want 0", reg.Len())
	}
}

func TestChatHistory(t *testing.T) {
	svc, reg := newTestService(t)
	p := reg.Spawn(testCase())

	if err := svc.AppendChat(p.ID, "user", "Har du ont i bröstet?"); err != nil {
		t.Fatalf("AppendChat: %v", err)
	}
	if err := svc.AppendChat(p.ID, "assistant", "Ja, det trycker."); err != nil {
		t.Fatalf("AppendChat: %v", err)
	}
	chat := p.Chat()
	if len(chat) != 2 || chat[0].Role != "user" || chat[1].Role != "assistant" {
		t.Errorf("chat = %+v", chat)
	}
}
