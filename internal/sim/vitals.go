package sim

import "math"

// Vital key names used in effect targets, color maps and status
// payloads. They keep the Swedish clinical shorthand of the content
// files (AF = respiratory rate, Puls = heart rate, BT = blood
// pressure, RLS = reaction level scale).
const (
	VitalAF          = "AF"
	VitalSaturation  = "Saturation"
	VitalPuls        = "Puls"
	VitalBTSystolic  = "BT_systolic"
	VitalBTDiastolic = "BT_diastolic"
	VitalTemp        = "Temp"
	VitalRLS         = "RLS"
)

// Vitals is a patient's current vital signs.
type Vitals struct {
	AF          float64 `json:"AF"`
	Saturation  float64 `json:"Saturation"`
	Puls        float64 `json:"Puls"`
	BTSystolic  float64 `json:"BT_systolic"`
	BTDiastolic float64 `json:"BT_diastolic"`
	Temp        float64 `json:"Temp"`
	RLS         float64 `json:"RLS"`
}

// Get returns the vital named by key.
func (v *Vitals) Get(key string) (float64, bool) {
	switch key {
	case VitalAF:
		return v.AF, true
	case VitalSaturation:
		return v.Saturation, true
	case VitalPuls:
		return v.Puls, true
	case VitalBTSystolic:
		return v.BTSystolic, true
	case VitalBTDiastolic:
		return v.BTDiastolic, true
	case VitalTemp:
		return v.Temp, true
	case VitalRLS:
		return v.RLS, true
	}
	return 0, false
}

// Add shifts the vital named by key by delta. Unknown keys are a
// no-op; effect targets are validated upstream.
func (v *Vitals) Add(key string, delta float64) {
	switch key {
	case VitalAF:
		v.AF += delta
	case VitalSaturation:
		v.Saturation += delta
	case VitalPuls:
		v.Puls += delta
	case VitalBTSystolic:
		v.BTSystolic += delta
	case VitalBTDiastolic:
		v.BTDiastolic += delta
	case VitalTemp:
		v.Temp += delta
	case VitalRLS:
		v.RLS += delta
	}
}

// span is an inclusive normal range.
type span struct {
	min, max float64
}

// refRanges are the age-adjusted reference ranges used for alert
// colors and triage.
type refRanges struct {
	AF         span
	Puls       span
	BTSysMin   float64
	SatMin     float64
	TempYellow float64
	TempOrange float64
	TempRed    float64
}

var adultRanges = refRanges{
	AF:         span{12, 20},
	Puls:       span{60, 100},
	BTSysMin:   90,
	SatMin:     95,
	TempYellow: 38.0,
	TempOrange: 39.0,
	TempRed:    40.0,
}

// pediatricBrackets hold the AF/Puls/BT overrides per age band; the
// saturation and temperature references stay the adult ones. Ages are
// in years, fractional for infants.
var pediatricBrackets = []struct {
	ageMax   float64
	af       span
	puls     span
	btSysMin float64
}{
	{1.0 / 12, span{30, 60}, span{100, 180}, 60}, // newborn
	{1, span{25, 50}, span{100, 160}, 70},        // infant
	{3, span{20, 30}, span{80, 130}, 80},         // toddler
	{5, span{20, 25}, span{80, 120}, 80},         // preschool
	{12, span{15, 20}, span{70, 110}, 90},        // school age
	{18, span{12, 16}, span{60, 100}, 90},        // adolescent
}

func rangesForAge(age float64) refRanges {
	if age >= 18 {
		return adultRanges
	}
	for _, b := range pediatricBrackets {
		if age <= b.ageMax {
			r := adultRanges
			r.AF = b.af
			r.Puls = b.puls
			r.BTSysMin = b.btSysMin
			return r
		}
	}
	return adultRanges
}

// Alert is the warning color for a vital reading, empty when the
// reading is unremarkable.
type Alert string

const (
	AlertNone   Alert = ""
	AlertYellow Alert = "#FFEE58"
	AlertOrange Alert = "#FFC107"
	AlertRed    Alert = "#FF5252"
)

// VitalAlert grades a single vital reading against the age-adjusted
// reference ranges.
func VitalAlert(key string, value, age float64) Alert {
	refs := rangesForAge(age)
	switch key {
	case VitalAF:
		switch {
		case value > refs.AF.max+10 || value < refs.AF.min-8:
			return AlertRed
		case value > refs.AF.max+5 || value < refs.AF.min-4:
			return AlertOrange
		case value > refs.AF.max || value < refs.AF.min:
			return AlertYellow
		}
	case VitalSaturation:
		switch {
		case value < 90:
			return AlertRed
		case value < 92:
			return AlertOrange
		case value < 95:
			return AlertYellow
		}
	case VitalBTSystolic:
		switch {
		case value < refs.BTSysMin-20:
			return AlertRed
		case value < refs.BTSysMin-10:
			return AlertOrange
		case value < refs.BTSysMin:
			return AlertYellow
		}
	case VitalPuls:
		switch {
		case value > refs.Puls.max+40 || value < refs.Puls.min-30:
			return AlertRed
		case value > refs.Puls.max+20 || value < refs.Puls.min-15:
			return AlertOrange
		case value > refs.Puls.max || value < refs.Puls.min:
			return AlertYellow
		}
	case VitalRLS:
		if value > 1 {
			return AlertRed
		}
	case VitalTemp:
		switch {
		case value >= refs.TempRed:
			return AlertRed
		case value >= refs.TempOrange:
			return AlertOrange
		case value >= refs.TempYellow:
			return AlertYellow
		}
	}
	return AlertNone
}

// TriageLevel is the age-adjusted acuity of a patient.
type TriageLevel string

const (
	TriageRed    TriageLevel = "red"
	TriageYellow TriageLevel = "yellow"
	TriageGreen  TriageLevel = "green"
)

// TriageFor grades a full vitals set.
func TriageFor(v Vitals, age float64) TriageLevel {
	refs := rangesForAge(age)
	if v.RLS > 1 || v.Saturation < 90 || v.BTSystolic < refs.BTSysMin {
		return TriageRed
	}
	if v.AF > refs.AF.max+5 || v.Puls > refs.Puls.max+20 || v.Saturation < 95 {
		return TriageYellow
	}
	return TriageGreen
}

// PO2FromSaturation approximates arterial oxygen tension (kPa) from
// peripheral saturation. Below the 92% shoulder the curve is steep
// and the value returned sits just under the 8 kPa mark; above it a
// linear segment maps 100% to roughly 13 kPa.
func PO2FromSaturation(saturation float64) float64 {
	if saturation <= 92 {
		return 7.9
	}
	return 8 + (saturation-92)*0.625
}

// EGFR estimates glomerular filtration from plasma creatinine
// (umol/L) using the CKD-EPI equation. Returns 0 when inputs are
// missing.
func EGFR(creatinineUmolL, age float64, female bool) float64 {
	if creatinineUmolL <= 0 || age <= 0 {
		return 0
	}
	creatinineMgdl := creatinineUmolL / 88.4
	kappa, alpha, sexFactor := 0.9, -0.411, 1.0
	if female {
		kappa, alpha, sexFactor = 0.7, -0.329, 1.018
	}
	term1 := math.Pow(math.Min(creatinineMgdl/kappa, 1), alpha)
	term2 := math.Pow(math.Max(creatinineMgdl/kappa, 1), -1.209)
	ageFactor := math.Pow(0.993, age)
	return math.Round(141 * term1 * term2 * ageFactor * sexFactor)
}
