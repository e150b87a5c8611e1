package sim

import (
	"math/rand"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/edsim/edsim/internal/caselib"
	"github.com/edsim/edsim/internal/catalog"
)

// defaultUrineML is the bladder volume a case gets when it does not
// script one.
const defaultUrineML = 300

// Registry owns all live encounters.
type Registry struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	cat      *catalog.Catalog
	rng      *rand.Rand
	rngMu    sync.Mutex
}

func NewRegistry(cat *catalog.Catalog) *Registry {
	return &Registry{
		patients: make(map[string]*Patient),
		cat:      cat,
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// Spawn starts a live encounter from a case: scripted lab values are
// copied in, every other lab gets a random in-range value so ordering
// an unremarkable test still returns a plausible number, and the
// initial triage level is graded from the scripted vitals.
func (r *Registry) Spawn(c *caselib.Case) *Patient {
	p := &Patient{
		ID:   uuid.NewString(),
		Case: c,
		Vitals: Vitals{
			AF:          c.Vitals.AF,
			Saturation:  c.Vitals.Saturation,
			Puls:        c.Vitals.Puls,
			BTSystolic:  c.Vitals.BTSystolic,
			BTDiastolic: c.Vitals.BTDiastolic,
			Temp:        c.Vitals.Temp,
			RLS:         c.Vitals.RLS,
		},
		baseRLS:        c.Vitals.RLS,
		PCO2:           NormalPCO2,
		Values:         make(map[string]string),
		UrineML:        c.UrineML,
		Therapies:      make(map[string]float64),
		OrderedLabs:    make(map[string]*LabResult),
		Actions:        make(map[string]bool),
		HomeMedsPaused: make(map[string]bool),
	}
	if p.UrineML == 0 {
		p.UrineML = defaultUrineML
	}
	p.PO2 = PO2FromSaturation(p.Vitals.Saturation)
	p.Triage = TriageFor(p.Vitals, c.Age)

	for _, t := range r.cat.LabTests {
		if v, ok := c.LabValues[t.Name]; ok && v != "" {
			p.Values[t.Name] = v
			continue
		}
		p.Values[t.Name] = r.randomInRange(t.NormalMin, t.NormalMax, t.Decimals)
	}

	r.mu.Lock()
	r.patients[p.ID] = p
	r.mu.Unlock()
	return p
}

func (r *Registry) randomInRange(min, max float64, decimals int) string {
	r.rngMu.Lock()
	v := r.rng.Float64()*(max-min) + min
	r.rngMu.Unlock()
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Get returns the live encounter with the given id.
func (r *Registry) Get(id string) (*Patient, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	return p, ok
}

// Remove discharges one encounter.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.patients, id)
}

// Reset discharges every encounter.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patients = make(map[string]*Patient)
}

// List snapshots the live encounters.
func (r *Registry) List() []*Patient {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		out = append(out, p)
	}
	return out
}

// Len reports the number of live encounters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patients)
}
