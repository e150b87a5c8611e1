// Package debrief renders a graded encounter as a PDF handout.
package debrief

import (
	"bytes"
	"fmt"
	"time"

	"github.com/signintech/gopdf"

	"github.com/edsim/edsim/internal/scoring"
)

const fontName = "debrief"

// Common font locations, tried in order when no explicit path is
// configured. DejaVuSans covers the Swedish characters in the case
// content.
var defaultFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
}

// Renderer turns scoring results into PDF debriefs.
type Renderer struct {
	fontPath string
}

// NewRenderer builds a renderer. fontPath may be empty, in which case
// the common DejaVuSans locations are tried at render time.
func NewRenderer(fontPath string) *Renderer {
	return &Renderer{fontPath: fontPath}
}

// Render produces the PDF bytes for one graded encounter.
func (r *Renderer) Render(res *scoring.Result) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := r.loadFont(&pdf); err != nil {
		return nil, err
	}

	d := &doc{pdf: &pdf}
	d.heading(20, "Falldebriefing")
	d.line(12, fmt.Sprintf("Datum: %s", time.Now().Format("2006-01-02 15:04")))
	d.line(12, fmt.Sprintf("Fall: %s", res.CaseName))
	d.line(12, fmt.Sprintf("Korrekt diagnos: %s", res.CorrectDiagnosis))
	if res.DiagnosisCorrect {
		d.line(12, "Din diagnos: korrekt")
	} else {
		d.line(12, "Din diagnos: fel")
	}
	d.line(14, fmt.Sprintf("Slutpoäng: %d / 100", res.FinalScore))
	d.space(10)

	if len(res.Anamnesis) > 0 {
		d.heading(14, "Anamnes")
		for _, item := range res.Anamnesis {
			d.entryLine(item.Covered, item.Question)
		}
		d.space(8)
	}

	if len(res.Investigations) > 0 {
		d.heading(14, "Utredning")
		for _, section := range res.Investigations {
			d.actionSection(section)
		}
	}
	if len(res.Interventions) > 0 {
		d.heading(14, "Åtgärder")
		for _, section := range res.Interventions {
			d.actionSection(section)
		}
	}

	if len(res.Contraindicated) > 0 {
		d.heading(14, "Kontraindicerade åtgärder")
		for _, e := range res.Contraindicated {
			d.entryLine(false, e.Name)
		}
		d.space(8)
	}

	if len(res.Prescriptions) > 0 {
		d.heading(14, "Recept")
		for _, e := range res.Prescriptions {
			d.planLine(e)
		}
		d.space(8)
	}

	if res.AdmissionPlan != nil {
		d.heading(14, "Inläggningsplan")
		for _, e := range res.AdmissionPlan.Ordered {
			d.planLine(e)
		}
		for _, e := range res.AdmissionPlan.Missed {
			d.planLine(e)
		}
	}

	if d.err != nil {
		return nil, d.err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) loadFont(pdf *gopdf.GoPdf) error {
	paths := defaultFontPaths
	if r.fontPath != "" {
		paths = []string{r.fontPath}
	}
	var lastErr error
	for _, path := range paths {
		err := pdf.AddTTFFont(fontName, path)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("load debrief font: %w", lastErr)
}

// doc carries the first render error so the call sites stay flat.
type doc struct {
	pdf *gopdf.GoPdf
	err error
}

func (d *doc) setFont(size float64) {
	if d.err != nil {
		return
	}
	d.err = d.pdf.SetFont(fontName, "", size)
}

func (d *doc) heading(size float64, text string) {
	d.setFont(size)
	if d.err != nil {
		return
	}
	d.pdf.Cell(nil, text)
	d.pdf.Br(size + 6)
}

func (d *doc) line(size float64, text string) {
	d.setFont(size)
	if d.err != nil {
		return
	}
	lines, _ := d.pdf.SplitText(text, 500)
	for _, l := range lines {
		d.pdf.Cell(nil, l)
		d.pdf.Br(size + 3)
	}
}

func (d *doc) space(h float64) {
	if d.err != nil {
		return
	}
	d.pdf.Br(h)
}

func (d *doc) entryLine(ok bool, text string) {
	mark := "[x]"
	if !ok {
		mark = "[ ]"
	}
	d.line(11, fmt.Sprintf("%s %s", mark, text))
}

func (d *doc) planLine(e scoring.PlanEntry) {
	switch e.Status {
	case scoring.StatusPerformed:
		d.entryLine(true, e.Name)
	case scoring.StatusUnnecessary:
		d.entryLine(false, e.Name+" (onödig)")
	default:
		d.entryLine(false, e.Name+" (missad)")
	}
}

func (d *doc) actionSection(section scoring.CategorySection) {
	d.line(12, section.Title)
	for _, e := range section.Critical.Performed {
		d.entryLine(true, e.Name)
	}
	for _, e := range section.Critical.Missed {
		d.entryLine(false, e.Name)
	}
	for _, e := range section.Recommended.Performed {
		d.entryLine(true, e.Name)
	}
	for _, e := range section.Recommended.Missed {
		d.entryLine(false, e.Name)
	}
	d.space(6)
}
