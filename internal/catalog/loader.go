package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Content file names expected under the content directory.
const (
	medicationsFile   = "medications.json"
	labTestsFile      = "lab_tests.json"
	labKitsFile       = "lab_kits.json"
	bedsideTestsFile  = "bedside_tests.json"
	radiologyFile     = "radiology_tests.json"
	physicalExamsFile = "physical_exams.json"
	prescriptionsFile = "prescriptions.json"
)

// Load reads every reference table from dir and indexes it. A missing
// or unparsable table is a startup error; the game cannot run with a
// partial catalog.
func Load(dir string) (*Catalog, error) {
	var (
		meds          []Medication
		labs          []LabTest
		kits          []LabKit
		bedside       []BedsideTest
		radiology     []RadiologyTest
		exams         []PhysicalExam
		prescriptions []Prescription
	)

	if err := readTable(dir, medicationsFile, &meds); err != nil {
		return nil, err
	}
	if err := readTable(dir, labTestsFile, &labs); err != nil {
		return nil, err
	}
	if err := readTable(dir, labKitsFile, &kits); err != nil {
		return nil, err
	}
	if err := readTable(dir, bedsideTestsFile, &bedside); err != nil {
		return nil, err
	}
	if err := readTable(dir, radiologyFile, &radiology); err != nil {
		return nil, err
	}
	if err := readTable(dir, physicalExamsFile, &exams); err != nil {
		return nil, err
	}
	if err := readTable(dir, prescriptionsFile, &prescriptions); err != nil {
		return nil, err
	}

	c := New(meds, labs, kits, bedside, radiology, exams, prescriptions)
	if errs := c.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalog content: %v", errs[0])
	}
	return c, nil
}

func readTable(dir, name string, out any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// Validate reports structural problems in the loaded tables: blank or
// duplicate ids, kits referencing unknown tests, negative effect
// durations.
func (c *Catalog) Validate() []error {
	var errs []error

	seen := map[string]string{}
	check := func(table, id string) {
		if id == "" {
			errs = append(errs, fmt.Errorf("%s: record with empty id", table))
			return
		}
		key := table + "/" + lower(id)
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate id %q", table, id))
		}
		seen[key] = table
	}

	for _, m := range c.Medications {
		check("medications", m.ID)
		for _, e := range m.Effects {
			if e.Duration <= 0 {
				errs = append(errs, fmt.Errorf("medications: %s effect on %q has non-positive duration", m.ID, e.Target))
			}
		}
	}
	for _, t := range c.LabTests {
		check("lab_tests", t.ID)
	}
	for _, k := range c.LabKits {
		check("lab_kits", k.ID)
		for _, id := range k.TestIDs {
			if _, ok := c.LabTestByID(id); !ok {
				errs = append(errs, fmt.Errorf("lab_kits: %s references unknown test %q", k.ID, id))
			}
		}
	}
	for _, t := range c.BedsideTests {
		check("bedside_tests", t.ID)
	}
	for _, t := range c.RadiologyTests {
		check("radiology_tests", t.ID)
	}
	for _, e := range c.PhysicalExams {
		check("physical_exams", e.ID)
	}
	return errs
}
