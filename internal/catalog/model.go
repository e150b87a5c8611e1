package catalog

// EffectSpec describes a timed change a medication applies to a vital
// sign or a named patient value when administered at standard dose.
type EffectSpec struct {
	Target   string  `json:"target"`
	Change   float64 `json:"change"`
	Duration int     `json:"duration"`
}

// NarrativeEffect is shown to the dialogue layer while it is active
// ("you feel drowsy"); it never changes vitals.
type NarrativeEffect struct {
	Text     string `json:"text"`
	Duration int    `json:"duration"`
}

// Medication is a reference record for a drug or continuous therapy.
type Medication struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	StandardDose      float64            `json:"standard_dose"`
	DoseUnit          string             `json:"dose_unit"`
	DoseOptions       []float64          `json:"dose_options,omitempty"`
	Effects           []EffectSpec       `json:"effects,omitempty"`
	TherapyType       string             `json:"therapy_type,omitempty"`
	TherapyParams     map[string]float64 `json:"therapy_params,omitempty"`
	ReasonableDoseMin *float64           `json:"reasonable_dose_min,omitempty"`
	ReasonableDoseMax *float64           `json:"reasonable_dose_max,omitempty"`
	NarrativeEffect   *NarrativeEffect   `json:"narrative_effect,omitempty"`
}

// TherapyContinuousFlow marks therapies whose effect scales with a flow
// rate applied every tick (oxygen).
const TherapyContinuousFlow = "continuous_flow"

// LabTest is a reference record for an orderable lab test.
type LabTest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Unit       string  `json:"unit,omitempty"`
	NormalMin  float64 `json:"normal_min"`
	NormalMax  float64 `json:"normal_max"`
	Decimals   int     `json:"decimals"`
	ResultType string  `json:"result_type,omitempty"` // "" or "delayed"
	Hidden     bool    `json:"hidden,omitempty"`
}

// Delayed reports whether the test result arrives after ordering
// instead of immediately.
func (t LabTest) Delayed() bool { return t.ResultType == "delayed" }

// LabKit is an orderable panel expanding to several lab tests.
type LabKit struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	TestIDs []string `json:"tests"`
}

// BedsideTest is a reference record for a bedside examination (EKG,
// urine dipstick, bladder scan, catheter).
type BedsideTest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ResultLabel   string `json:"result_label,omitempty"`
	NormalFinding string `json:"normal_finding"`
}

// RadiologyTest is a reference record for an orderable imaging study.
type RadiologyTest struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	NormalFinding string `json:"normal_finding"`
}

// PhysicalExam is a reference record for a physical examination.
type PhysicalExam struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	NormalFinding string `json:"normal_finding"`
}

// Prescription is a discharge prescription option shown to the player.
type Prescription struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
