package sim

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edsim/edsim/internal/catalog"
)

// Bedside test ids with bespoke behavior.
const (
	bedsideBladderScan = "bladderscan"
	bedsideCatheter    = "KAD"
	bedsideEKG         = "ekg"
)

// Finding keys a case may script for the bespoke bedside tests.
const (
	findingEKGText       = "EKG_finding_text"
	findingEKGImage      = "EKG_image_filename"
	findingUrineColorKey = "Sätt KAD"
	defaultUrineColor    = "ljusgul"
)

// Lab ids that trigger derived results.
const (
	labBloodGas   = "arteriell blodgas"
	labCreatinine = "krea"
	labEGFRKey    = "egfr_calculated"
)

var (
	ErrPatientNotFound = errors.New("patient not found in active simulation")
	ErrUnknownTest     = errors.New("unknown test")
	ErrUnknownMed      = errors.New("unknown medication")
	ErrInvalidDose     = errors.New("invalid dose")
)

// Service exposes the clinical actions a player can perform on a live
// encounter. Every action is also recorded for scoring.
type Service struct {
	reg *Registry
	cat *catalog.Catalog
	log zerolog.Logger
}

func NewService(reg *Registry, cat *catalog.Catalog, log zerolog.Logger) *Service {
	return &Service{reg: reg, cat: cat, log: log}
}

func (s *Service) Registry() *Registry { return s.reg }

func (s *Service) patient(id string) (*Patient, error) {
	p, ok := s.reg.Get(id)
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

// Status is the polled view of one encounter.
type Status struct {
	Vitals      Vitals           `json:"vitals"`
	VitalColors map[string]Alert `json:"vitalColors"`
	IsFailed    bool             `json:"isFailed"`
	IsCritical  bool             `json:"isCritical"`
	TriageLevel TriageLevel      `json:"triageLevel"`
}

// Status reports current vitals with per-vital alert colors.
func (s *Service) Status(id string) (*Status, error) {
	p, err := s.patient(id)
	if err != nil {
		return nil, err
	}
	var st Status
	p.locked(func() {
		age := p.Case.Age
		st = Status{
			Vitals: p.Vitals,
			VitalColors: map[string]Alert{
				VitalAF:         VitalAlert(VitalAF, p.Vitals.AF, age),
				VitalSaturation: VitalAlert(VitalSaturation, p.Vitals.Saturation, age),
				VitalPuls:       VitalAlert(VitalPuls, p.Vitals.Puls, age),
				"BT":            VitalAlert(VitalBTSystolic, p.Vitals.BTSystolic, age),
				VitalTemp:       VitalAlert(VitalTemp, p.Vitals.Temp, age),
				VitalRLS:        VitalAlert(VitalRLS, p.Vitals.RLS, age),
			},
			IsFailed:    p.Failed,
			IsCritical:  p.Critical,
			TriageLevel: p.Triage,
		}
	})
	return &st, nil
}

// ExamResult is the outcome of a physical examination.
type ExamResult struct {
	ExamName string `json:"examName"`
	Finding  string `json:"finding"`
}

// PerformExam returns the case's scripted finding for the exam, or
// the standard normal one.
func (s *Service) PerformExam(id, examID string) (*ExamResult, error) {
	p, err := s.patient(id)
	if err != nil {
		return nil, err
	}
	exam, ok := s.cat.PhysicalExamByID(examID)
	if !ok {
		exam, ok = s.cat.PhysicalExamByName(examID)
	}
	if !ok {
		return nil, fmt.Errorf("%w: physical exam %q", ErrUnknownTest, examID)
	}

	finding := "No findings."
	if f, ok := p.Case.Findings[exam.Name]; ok && f != "" {
		finding = f
	} else if f, ok := p.Case.Findings[exam.ID]; ok && f != "" {
		finding = f
	} else if exam.NormalFinding != "" {
		finding = exam.NormalFinding
	}

	p.locked(func() { p.recordAction(exam.Name) })
	return &ExamResult{ExamName: exam.Name, Finding: finding}, nil
}

// BedsideResult is the outcome of a bedside test.
type BedsideResult struct {
	TestID        string `json:"testId"`
	TestLabel     string `json:"testLabel"`
	Result        string `json:"result"`
	ImageFilename string `json:"imageFilename,omitempty"`
}

// PerformBedside runs a bedside test. The bladder scan reads the live
// bladder volume and the catheter empties it.
func (s *Service) PerformBedside(id, testID string) (*BedsideResult, error) {
	p, err := s.patient(id)
	if err != nil {
		return nil, err
	}
	test, ok := s.cat.BedsideTestByID(testID)
	if !ok {
		return nil, fmt.Errorf("%w: bedside test %q", ErrUnknownTest, testID)
	}

	res := &BedsideResult{TestID: test.ID, TestLabel: test.ResultLabel}
	if res.TestLabel == "" {
		res.TestLabel = test.Name
	}

	p.locked(func() {
		switch test.ID {
		case bedsideBladderScan:
			res.Result = fmt.Sprintf("Bladdervolym %d ml", p.UrineML)
		case bedsideCatheter:
			color := p.Case.Findings[findingUrineColorKey]
			if color == "" {
				color = defaultUrineColor
			}
			res.Result = fmt.Sprintf("KAD satt, tömt %d ml %s urin.", p.UrineML, color)
			p.UrineML = 0
		default:
			key := test.Name
			if test.ID == bedsideEKG {
				key = findingEKGText
			}
			if f, ok := p.Case.Findings[key]; ok && f != "" {
				res.Result = f
			} else {
				res.Result = test.NormalFinding
			}
		}
		if test.ID == bedsideEKG {
			res.ImageFilename = p.Case.Findings[findingEKGImage]
		}
		p.recordAction(test.ID)
	})
	return res, nil
}

// RadiologyResult is the interpretation of an imaging study.
type RadiologyResult struct {
	TestID   string `json:"testId"`
	TestName string `json:"testName"`
	Result   string `json:"result"`
}

// OrderRadiology returns the scripted or normal interpretation.
func (s *Service) OrderRadiology(id, testID string) (*RadiologyResult, error) {
	p, err := s.patient(id)
	if err != nil {
		return nil, err
	}
	test, ok := s.cat.RadiologyTestByID(testID)
	if !ok {
		return nil, fmt.Errorf("%w: radiology test %q", ErrUnknownTest, testID)
	}
	result := test.NormalFinding
	if f, ok := p.Case.Findings[test.ID]; ok && f != "" {
		result = f
	}
	p.locked(func() { p.recordAction(test.ID) })
	return &RadiologyResult{TestID: test.ID, TestName: test.Name, Result: result}, nil
}

// OrderLab orders a single lab test and returns the patient's full
// updated lab list.
func (s *Service) OrderLab(id, testID string) (map[string]*LabResult, error) {
	p, err := s.patient(id)
	if err != nil {
		return nil, err
	}
	test, ok := s.cat.LabTestByID(testID)
	if !ok {
		return nil, fmt.Errorf("%w: lab test %q", ErrUnknownTest, testID)
	}

	var out map[string]*LabResult
	p.locked(func() {
		s.resolveLab(p, test)
		p.recordAction(test.ID)
		out = snapshotLabs(p)
	})
	return out, nil
}

// OrderLabKit orders every test in a kit in one round trip.
func (s *Service) OrderLabKit(id, kitID string) (map[string]*LabResult, error) {
	p, err := s.patient(id)
	if err != nil {
		return nil, err
	}
	kit, ok := s.cat.LabKitByID(kitID)
	if !ok {
		return nil, fmt.Errorf("%w: lab kit %q", ErrUnknownTest, kitID)
	}

	var out map[string]*LabResult
	p.locked(func() {
		for _, testID := range kit.TestIDs {
			test, ok := s.cat.LabTestByID(testID)
			if !ok {
				continue
			}
			s.resolveLab(p, test)
			p.recordAction(test.ID)
		}
		p.recordAction(kit.ID)
		out = snapshotLabs(p)
	})
	return out, nil
}

// resolveLab fills in the result entry for one lab test. Caller holds
// the patient lock.
func (s *Service) resolveLab(p *Patient, test *catalog.LabTest) {
	switch {
	case test.ID == labBloodGas:
		p.OrderedLabs[test.ID] = s.bloodGasPanel(p, test)
	case test.Delayed():
		p.OrderedLabs[test.ID] = &LabResult{Name: test.Name, Result: "(Ordered)", Pending: true}
	default:
		raw, ok := p.Values[test.Name]
		result := "N/A"
		abnormal := true
		if ok && raw != "" {
			result = formatLabValue(raw, test.Unit)
			if v, numeric := parseNumber(raw); numeric {
				abnormal = v < test.NormalMin || v > test.NormalMax
			}
		}
		p.OrderedLabs[test.ID] = &LabResult{Name: test.Name, Result: result, Abnormal: abnormal}
	}

	if test.ID == labCreatinine {
		s.addEGFR(p, test)
	}
}

// Blood gas reference intervals.
var bloodGasRef = struct {
	ph, pco2, po2, be span
}{
	ph:   span{7.35, 7.45},
	pco2: span{4.7, 6.0},
	po2:  span{10.0, 13.0},
	be:   span{-2.0, 2.0},
}

// bloodGasPanel builds the arterial blood gas from the simulated
// pCO2/PO2. pH and base excess are held at fixed near-normal values;
// acid-base chemistry beyond CO2 is not simulated.
func (s *Service) bloodGasPanel(p *Patient, test *catalog.LabTest) *LabResult {
	const ph, be = 7.38, 0.5
	outside := func(v float64, sp span) bool { return v < sp.min || v > sp.max }

	components := []LabComponent{
		{Label: "pH:", Value: fmt.Sprintf("%.2f", ph), Abnormal: outside(ph, bloodGasRef.ph)},
		{Label: "pCO₂:", Value: fmt.Sprintf("%.1f kPa", p.PCO2), Abnormal: outside(p.PCO2, bloodGasRef.pco2)},
		{Label: "PO₂:", Value: fmt.Sprintf("%.1f kPa", p.PO2), Abnormal: outside(p.PO2, bloodGasRef.po2)},
		{Label: "BE:", Value: fmt.Sprintf("%.1f mmol/L", be), Abnormal: outside(be, bloodGasRef.be)},
	}
	abnormal := false
	for _, c := range components {
		abnormal = abnormal || c.Abnormal
	}
	return &LabResult{Name: test.Name, Components: components, Abnormal: abnormal}
}

// addEGFR derives the estimated GFR whenever creatinine is ordered.
func (s *Service) addEGFR(p *Patient, kreaTest *catalog.LabTest) {
	raw := p.Values[kreaTest.Name]
	crea, ok := parseNumber(raw)
	if !ok {
		return
	}
	female := isFemale(p.Case.Sex)
	egfr := EGFR(crea, p.Case.Age, female)
	p.OrderedLabs[labEGFRKey] = &LabResult{
		Name:     "eGFR",
		Result:   fmt.Sprintf("%.0f mL/min/1.73 m²", egfr),
		Abnormal: egfr < 60,
	}
}

func isFemale(sex string) bool {
	switch strings.ToLower(strings.TrimSpace(sex)) {
	case "kvinna", "female", "f":
		return true
	}
	return false
}

func snapshotLabs(p *Patient) map[string]*LabResult {
	out := make(map[string]*LabResult, len(p.OrderedLabs))
	for id, r := range p.OrderedLabs {
		cp := *r
		out[id] = &cp
	}
	return out
}

// GiveMedication applies a medication's effects scaled by the given
// dose relative to the standard dose.
func (s *Service) GiveMedication(id, medID string, dose float64) (string, error) {
	p, err := s.patient(id)
	if err != nil {
		return "", err
	}
	med, ok := s.cat.MedicationByID(medID)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMed, medID)
	}
	if dose <= 0 || med.StandardDose <= 0 {
		return "", ErrInvalidDose
	}
	multiplier := dose / med.StandardDose

	p.locked(func() {
		for _, spec := range med.Effects {
			p.Effects = append(p.Effects, &Effect{
				Target:    spec.Target,
				Change:    spec.Change * multiplier,
				Duration:  spec.Duration,
				Remaining: spec.Duration,
			})
		}
		if med.NarrativeEffect != nil {
			p.Effects = append(p.Effects, &Effect{
				Target:      EffectTargetNarrative,
				Duration:    med.NarrativeEffect.Duration,
				Remaining:   med.NarrativeEffect.Duration,
				Description: med.NarrativeEffect.Text,
			})
		}
		p.recordAction(med.ID)
	})

	s.log.Info().Str("patient_id", p.ID).Str("med", med.ID).Float64("dose", dose).
		Msg("medication administered")
	return fmt.Sprintf("%s %v%s administered.", med.Name, dose, med.DoseUnit), nil
}

// SetTherapy starts, adjusts or stops a continuous therapy. A zero or
// negative value stops it.
func (s *Service) SetTherapy(id, therapyID string, value float64) error {
	p, err := s.patient(id)
	if err != nil {
		return err
	}
	p.locked(func() {
		if value > 0 {
			p.Therapies[therapyID] = value
			p.recordAction(therapyID)
		} else {
			delete(p.Therapies, therapyID)
		}
	})
	s.log.Info().Str("patient_id", p.ID).Str("therapy", therapyID).Float64("value", value).
		Msg("therapy updated")
	return nil
}

// ToggleHomeMed pauses or resumes one of the patient's home
// medications and returns the updated pause map.
func (s *Service) ToggleHomeMed(id, medID string) (map[string]bool, error) {
	p, err := s.patient(id)
	if err != nil {
		return nil, err
	}
	var out map[string]bool
	p.locked(func() {
		p.HomeMedsPaused[medID] = !p.HomeMedsPaused[medID]
		out = make(map[string]bool, len(p.HomeMedsPaused))
		for k, v := range p.HomeMedsPaused {
			out[k] = v
		}
	})
	return out, nil
}

// AppendChat records one dialogue turn.
func (s *Service) AppendChat(id, role, content string) error {
	p, err := s.patient(id)
	if err != nil {
		return err
	}
	p.locked(func() {
		p.ChatHistory = append(p.ChatHistory, ChatMessage{Role: role, Content: content})
	})
	return nil
}

// DynamicState summarizes the patient's subjective state for the
// dialogue layer, in the voice the prompts expect.
func (s *Service) DynamicState(id string) (string, error) {
	p, err := s.patient(id)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	p.locked(func() {
		b.WriteString("AKTUELLT TILLSTÅND: ")
		for _, ef := range p.Effects {
			if ef.Target != EffectTargetNarrative {
				b.WriteString("Du har nyligen fått medicin. ")
				break
			}
		}
		if p.Vitals.BTSystolic < 90 {
			b.WriteString("Du känner dig yr och svag. ")
		}
		if p.Vitals.AF > 28 {
			b.WriteString("Du känner dig andfådd. ")
		}
		for _, ef := range p.Effects {
			if ef.Target == EffectTargetNarrative && ef.Remaining > 0 {
				b.WriteString(ef.Description)
				b.WriteString(" ")
			}
		}
	})
	return strings.TrimSpace(b.String()), nil
}
