package sim

import (
	"math"
	"testing"
)

func TestPO2FromSaturation(t *testing.T) {
	tests := []struct {
		sat  float64
		want float64
	}{
		{80, 7.9},
		{92, 7.9},
		{93, 8.625},
		{96, 10.5},
		{100, 13.0},
	}
	for _, tt := range tests {
		if got := PO2FromSaturation(tt.sat); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("PO2FromSaturation(%v) = %v, want %v", tt.sat, got, tt.want)
		}
	}
}

func TestVitalAlertAdult(t *testing.T) {
	tests := []struct {
		key   string
		value float64
		want  Alert
	}{
		{VitalAF, 16, AlertNone},
		{VitalAF, 21, AlertYellow},
		{VitalAF, 26, AlertOrange},
		{VitalAF, 31, AlertRed},
		{VitalAF, 3, AlertRed},
		{VitalSaturation, 96, AlertNone},
		{VitalSaturation, 94, AlertYellow},
		{VitalSaturation, 91, AlertOrange},
		{VitalSaturation, 89, AlertRed},
		{VitalBTSystolic, 95, AlertNone},
		{VitalBTSystolic, 85, AlertYellow},
		{VitalBTSystolic, 75, AlertOrange},
		{VitalBTSystolic, 65, AlertRed},
		{VitalPuls, 80, AlertNone},
		{VitalPuls, 110, AlertYellow},
		{VitalPuls, 130, AlertOrange},
		{VitalPuls, 145, AlertRed},
		{VitalRLS, 1, AlertNone},
		{VitalRLS, 2, AlertRed},
		{VitalTemp, 37.5, AlertNone},
		{VitalTemp, 38.2, AlertYellow},
		{VitalTemp, 39.1, AlertOrange},
		{VitalTemp, 40.0, AlertRed},
	}
	for _, tt := range tests {
		if got := VitalAlert(tt.key, tt.value, 45); got != tt.want {
			t.Errorf("VitalAlert(%s, %v, adult) = %q, want %q", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestVitalAlertUsesPediatricRanges(t *testing.T) {
	// AF 40 is alarming in an adult but normal in a six-month-old.
	if got := VitalAlert(VitalAF, 40, 45); got != AlertRed {
		t.Errorf("adult AF 40 = %q, want red", got)
	}
	if got := VitalAlert(VitalAF, 40, 0.5); got != AlertNone {
		t.Errorf("infant AF 40 = %q, want none", got)
	}
	// Systolic BP 65 is acceptable only in a newborn.
	if got := VitalAlert(VitalBTSystolic, 65, 1.0/24); got != AlertNone {
		t.Errorf("newborn BT 65 = %q, want none", got)
	}
	if got := VitalAlert(VitalBTSystolic, 65, 10); got != AlertRed {
		t.Errorf("school-age BT 65 = %q, want red", got)
	}
}

func TestTriageFor(t *testing.T) {
	normal := Vitals{AF: 16, Saturation: 98, Puls: 70, BTSystolic: 120, BTDiastolic: 80, Temp: 37, RLS: 1}

	if got := TriageFor(normal, 45); got != TriageGreen {
		t.Errorf("normal vitals = %q, want green", got)
	}

	lowSat := normal
	lowSat.Saturation = 93
	if got := TriageFor(lowSat, 45); got != TriageYellow {
		t.Errorf("sat 93 = %q, want yellow", got)
	}

	unconscious := normal
	unconscious.RLS = 3
	if got := TriageFor(unconscious, 45); got != TriageRed {
		t.Errorf("RLS 3 = %q, want red", got)
	}

	hypotensive := normal
	hypotensive.BTSystolic = 85
	if got := TriageFor(hypotensive, 45); got != TriageRed {
		t.Errorf("BT 85 = %q, want red", got)
	}

	// The same pressure is fine in a toddler.
	toddler := normal
	toddler.AF = 25
	toddler.Puls = 110
	toddler.BTSystolic = 85
	if got := TriageFor(toddler, 2); got != TriageGreen {
		t.Errorf("toddler vitals = %q, want green", got)
	}
}

func TestEGFR(t *testing.T) {
	male := EGFR(90, 50, false)
	female := EGFR(90, 50, true)
	if male <= 0 || female <= 0 {
		t.Fatalf("EGFR returned non-positive values: male %v, female %v", male, female)
	}
	if female >= male {
		t.Errorf("female eGFR %v should be below male %v at equal creatinine", female, male)
	}
	if got := EGFR(0, 50, false); got != 0 {
		t.Errorf("EGFR without creatinine = %v, want 0", got)
	}

	// Renal failure level creatinine lands well under the referral
	// threshold.
	if got := EGFR(400, 70, false); got >= 60 {
		t.Errorf("EGFR(creatinine 400) = %v, want < 60", got)
	}
}
