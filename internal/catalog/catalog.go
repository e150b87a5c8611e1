package catalog

import "strings"

// Catalog bundles the reference data tables. It is loaded once at
// startup and read-only afterwards, so it is shared without locking.
type Catalog struct {
	Medications    []Medication
	LabTests       []LabTest
	LabKits        []LabKit
	BedsideTests   []BedsideTest
	RadiologyTests []RadiologyTest
	PhysicalExams  []PhysicalExam
	Prescriptions  []Prescription

	medsByID      map[string]*Medication
	labsByID      map[string]*LabTest
	labsByName    map[string]*LabTest
	kitsByID      map[string]*LabKit
	bedsideByID   map[string]*BedsideTest
	radiologyByID map[string]*RadiologyTest
	examsByID     map[string]*PhysicalExam
	examsByName   map[string]*PhysicalExam
}

// New indexes the given tables. All lookups are case-insensitive on the
// key used by the original content (id, or name for physical exams).
func New(meds []Medication, labs []LabTest, kits []LabKit, bedside []BedsideTest, radiology []RadiologyTest, exams []PhysicalExam, prescriptions []Prescription) *Catalog {
	c := &Catalog{
		Medications:    meds,
		LabTests:       labs,
		LabKits:        kits,
		BedsideTests:   bedside,
		RadiologyTests: radiology,
		PhysicalExams:  exams,
		Prescriptions:  prescriptions,
		medsByID:       make(map[string]*Medication, len(meds)),
		labsByID:       make(map[string]*LabTest, len(labs)),
		labsByName:     make(map[string]*LabTest, len(labs)),
		kitsByID:       make(map[string]*LabKit, len(kits)),
		bedsideByID:    make(map[string]*BedsideTest, len(bedside)),
		radiologyByID:  make(map[string]*RadiologyTest, len(radiology)),
		examsByID:      make(map[string]*PhysicalExam, len(exams)),
		examsByName:    make(map[string]*PhysicalExam, len(exams)),
	}
	for i := range meds {
		c.medsByID[lower(meds[i].ID)] = &c.Medications[i]
	}
	for i := range labs {
		c.labsByID[lower(labs[i].ID)] = &c.LabTests[i]
		c.labsByName[lower(labs[i].Name)] = &c.LabTests[i]
	}
	for i := range kits {
		c.kitsByID[lower(kits[i].ID)] = &c.LabKits[i]
	}
	for i := range bedside {
		c.bedsideByID[lower(bedside[i].ID)] = &c.BedsideTests[i]
	}
	for i := range radiology {
		c.radiologyByID[lower(radiology[i].ID)] = &c.RadiologyTests[i]
	}
	for i := range exams {
		c.examsByID[lower(exams[i].ID)] = &c.PhysicalExams[i]
		c.examsByName[lower(exams[i].Name)] = &c.PhysicalExams[i]
	}
	return c
}

func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (c *Catalog) MedicationByID(id string) (*Medication, bool) {
	m, ok := c.medsByID[lower(id)]
	return m, ok
}

func (c *Catalog) LabTestByID(id string) (*LabTest, bool) {
	t, ok := c.labsByID[lower(id)]
	return t, ok
}

func (c *Catalog) LabTestByName(name string) (*LabTest, bool) {
	t, ok := c.labsByName[lower(name)]
	return t, ok
}

func (c *Catalog) LabKitByID(id string) (*LabKit, bool) {
	k, ok := c.kitsByID[lower(id)]
	return k, ok
}

func (c *Catalog) BedsideTestByID(id string) (*BedsideTest, bool) {
	t, ok := c.bedsideByID[lower(id)]
	return t, ok
}

func (c *Catalog) RadiologyTestByID(id string) (*RadiologyTest, bool) {
	t, ok := c.radiologyByID[lower(id)]
	return t, ok
}

func (c *Catalog) PhysicalExamByID(id string) (*PhysicalExam, bool) {
	e, ok := c.examsByID[lower(id)]
	return e, ok
}

func (c *Catalog) PhysicalExamByName(name string) (*PhysicalExam, bool) {
	e, ok := c.examsByName[lower(name)]
	return e, ok
}

// VisibleLabTests filters out tests flagged hidden from player menus.
func (c *Catalog) VisibleLabTests() []LabTest {
	out := make([]LabTest, 0, len(c.LabTests))
	for _, t := range c.LabTests {
		if !t.Hidden {
			out = append(out, t)
		}
	}
	return out
}

// StandardFindings maps each physical exam name to its normal finding
// text, used when a case defines no override.
func (c *Catalog) StandardFindings() map[string]string {
	out := make(map[string]string, len(c.PhysicalExams))
	for _, e := range c.PhysicalExams {
		out[e.Name] = e.NormalFinding
	}
	return out
}
