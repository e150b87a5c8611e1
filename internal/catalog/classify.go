package catalog

import "strings"

// Category groups player actions for the evaluation report.
type Category string

const (
	CategoryLab        Category = "lab"
	CategoryBedside    Category = "bedside"
	CategoryRadiology  Category = "radiology"
	CategoryMedication Category = "med"
	CategoryExam       Category = "exam"
	CategoryUnknown    Category = "unknown"
)

// Classify resolves an action identifier to its category. The lookup
// order matters: ids can collide across tables, and the most specific
// tables are checked first. Physical exams are keyed by name, not id,
// matching how case content refers to them.
func (c *Catalog) Classify(id string) Category {
	key := lower(id)
	if key == "" {
		return CategoryUnknown
	}
	if _, ok := c.labsByID[key]; ok {
		return CategoryLab
	}
	if _, ok := c.bedsideByID[key]; ok {
		return CategoryBedside
	}
	if _, ok := c.radiologyByID[key]; ok {
		return CategoryRadiology
	}
	if _, ok := c.medsByID[key]; ok {
		return CategoryMedication
	}
	if _, ok := c.examsByName[key]; ok {
		return CategoryExam
	}
	return CategoryUnknown
}

// ClassifyAny classifies an OR-group of alternative identifiers. Every
// alternative in a group belongs to the same category by construction,
// so the first element decides.
func (c *Catalog) ClassifyAny(ids []string) Category {
	if len(ids) == 0 {
		return CategoryUnknown
	}
	return c.Classify(ids[0])
}

// DisplayName resolves an action identifier to its human-readable name,
// falling back to the raw identifier for unknown actions.
func (c *Catalog) DisplayName(id string) string {
	key := lower(id)
	if t, ok := c.labsByID[key]; ok {
		return t.Name
	}
	if m, ok := c.medsByID[key]; ok {
		return m.Name
	}
	if t, ok := c.bedsideByID[key]; ok {
		return t.Name
	}
	if t, ok := c.radiologyByID[key]; ok {
		return t.Name
	}
	if e, ok := c.examsByID[key]; ok {
		return e.Name
	}
	if e, ok := c.examsByName[key]; ok {
		return e.Name
	}
	return id
}

// DisplayNameAny renders an OR-group as its alternatives joined with
// "or", so feedback can show every valid choice.
func (c *Catalog) DisplayNameAny(ids []string) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = c.DisplayName(id)
	}
	return strings.Join(names, " or ")
}
