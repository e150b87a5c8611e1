package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/edsim/edsim/internal/catalog"
)

// glucoseValueKey is the named attribute the hypoglycemia rules act
// on; it matches the lab name in the content files.
const glucoseValueKey = "P-Glukos"

// oxygenTherapyID names the continuous-flow oxygen entry in the
// medication table.
const oxygenTherapyID = "oxygen"

// Engine advances every live encounter on a fixed interval.
type Engine struct {
	reg      *Registry
	cat      *catalog.Catalog
	interval time.Duration
	log      zerolog.Logger
}

func NewEngine(reg *Registry, cat *catalog.Catalog, interval time.Duration, log zerolog.Logger) *Engine {
	if interval <= 0 {
		interval = TickSeconds * time.Second
	}
	return &Engine{reg: reg, cat: cat, interval: interval, log: log}
}

// Run ticks until the context is cancelled.
func (e *Engine) Run(ctx context.Context) {
	t := time.NewTicker(e.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.TickAll()
		}
	}
}

// Start launches Run on its own goroutine.
func (e *Engine) Start(ctx context.Context) {
	go e.Run(ctx)
}

// TickAll advances every live encounter by one tick. A panic in one
// patient's step is contained so the rest of the floor keeps moving.
func (e *Engine) TickAll() {
	for _, p := range e.reg.List() {
		e.tickOne(p)
	}
}

func (e *Engine) tickOne(p *Patient) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("patient_id", p.ID).Str("case", p.Case.Name).
				Err(fmt.Errorf("tick panic: %v", r)).Msg("patient tick failed")
		}
	}()
	p.locked(func() { e.step(p) })
}

// step is one tick of patient physiology. Order matters: therapy and
// medication effects move the raw numbers first, then the derived
// quantities (PO2, pCO2, RLS) are recomputed, then the failure clock
// and triage level are updated from the result.
func (e *Engine) step(p *Patient) {
	if p.Failed {
		return
	}

	e.applyOxygenTherapy(p)
	e.applyEffects(p)

	// COPD hyperoxia: supranormal oxygen tension suppresses the
	// hypoxic respiratory drive.
	p.PO2 = PO2FromSaturation(p.Vitals.Saturation)
	if p.Case.COPD && p.PO2 > HyperoxiaPO2ThresholdCOPD {
		p.Vitals.AF = math.Max(MinRespiratoryRate, p.Vitals.AF-RespiratoryDepressionRate)
	}

	// pCO2 follows ventilation: retention under hypoventilation,
	// washout under hyperventilation, otherwise a slow drift home.
	var pco2Change float64
	switch {
	case p.Vitals.AF < NormalAFMin:
		pco2Change = PCO2ChangePerTick
	case p.Vitals.AF > NormalAFMax:
		pco2Change = -PCO2ChangePerTick
	case p.PCO2 > NormalPCO2:
		pco2Change = -PCO2ChangePerTick / 2
	case p.PCO2 < NormalPCO2:
		pco2Change = PCO2ChangePerTick / 2
	}
	p.PCO2 = math.Max(MinPCO2, p.PCO2+pco2Change)

	// Consciousness is forced by the most severe of the scripted
	// baseline, hypoglycemia and CO2 narcosis.
	glucoseRLS := p.baseRLS
	if g, ok := p.value(glucoseValueKey); ok {
		if g < 2.0 {
			glucoseRLS = 3
		} else if g < 3.0 {
			glucoseRLS = 2
		}
	}
	co2RLS := p.baseRLS
	if p.PCO2 > RLS3PCO2Threshold {
		co2RLS = 3
	} else if p.PCO2 > RLS2PCO2Threshold {
		co2RLS = 2
	}
	p.Vitals.RLS = math.Max(p.baseRLS, math.Max(glucoseRLS, co2RLS))

	e.applyCounterRegulation(p)
	e.updateFailureState(p)

	p.Triage = TriageFor(p.Vitals, p.Case.Age)
}

// applyOxygenTherapy adds the per-tick share of the continuous-flow
// saturation gain, capped at full saturation.
func (e *Engine) applyOxygenTherapy(p *Patient) {
	flow, ok := p.Therapies[oxygenTherapyID]
	if !ok {
		return
	}
	med, ok := e.cat.MedicationByID(oxygenTherapyID)
	if !ok || med.TherapyType != catalog.TherapyContinuousFlow {
		return
	}
	base := med.TherapyParams["saturation_increase_per_L"]
	increase := base * flow / OxygenSpreadTicks
	p.Vitals.Saturation = math.Min(MaxSaturation, p.Vitals.Saturation+increase)
}

// applyEffects advances every active effect by one tick and drops the
// expired ones.
func (e *Engine) applyEffects(p *Patient) {
	if len(p.Effects) == 0 {
		return
	}
	live := p.Effects[:0]
	for _, ef := range p.Effects {
		if ef.Remaining <= 0 {
			continue
		}
		e.applyEffectTick(p, ef)
		ef.Remaining--
		if ef.Remaining > 0 {
			live = append(live, ef)
		}
	}
	p.Effects = live
}

func (e *Engine) applyEffectTick(p *Patient, ef *Effect) {
	if ef.Target == EffectTargetNarrative {
		return
	}
	perTick := ef.Change / float64(ef.Duration)

	if _, ok := p.Vitals.Get(ef.Target); ok {
		p.Vitals.Add(ef.Target, perTick)
		return
	}

	current, ok := p.value(ef.Target)
	if !ok {
		return
	}
	if ef.Target == glucoseValueKey && perTick < 0 {
		// A glucose-lowering effect loses potency as the level drops,
		// so glucose approaches zero asymptotically instead of going
		// negative in one tick.
		if current < GlucoseDiminishingThreshold && current > 0 {
			perTick *= current / GlucoseDiminishingThreshold
		}
	}
	current += perTick
	if ef.Target == glucoseValueKey && current < 0 {
		current = 0
	}
	p.setValue(ef.Target, current)

	// Refresh the displayed result if this lab is already on the
	// patient's lab list.
	if t, ok := e.cat.LabTestByName(ef.Target); ok {
		if lr, ordered := p.OrderedLabs[t.ID]; ordered && !lr.Pending {
			lr.Result = formatLabValue(p.Values[ef.Target], t.Unit)
		}
	}
}

// applyCounterRegulation mounts the body's own response to
// hypoglycemia: a slow glucose rise over several ticks. Only one
// counter-regulatory effect runs at a time.
func (e *Engine) applyCounterRegulation(p *Patient) {
	g, ok := p.value(glucoseValueKey)
	if !ok || g >= GlucoseCounterThreshold {
		return
	}
	for _, ef := range p.Effects {
		if ef.CounterRegulatory {
			return
		}
	}
	e.log.Info().Str("patient_id", p.ID).Str("case", p.Case.Name).
		Float64("glucose", g).Msg("hypoglycemia: starting counter-regulatory response")
	p.Effects = append(p.Effects, &Effect{
		Target:            glucoseValueKey,
		Change:            CounterRegulationChange,
		Duration:          CounterRegulationTicks,
		Remaining:         CounterRegulationTicks,
		CounterRegulatory: true,
	})
}

// updateFailureState advances the failure clock while any critical
// threshold is breached and marks the patient lost once the limit is
// reached.
func (e *Engine) updateFailureState(p *Patient) {
	critical := p.Vitals.BTSystolic < CriticalBTSystolicLower ||
		p.Vitals.Saturation < CriticalSaturationLower ||
		p.Vitals.Puls < CriticalPulsLower || p.Vitals.Puls > CriticalPulsUpper ||
		p.Vitals.AF < CriticalAFLower
	if g, ok := p.value(glucoseValueKey); ok && g < CriticalGlucoseLower {
		critical = true
	}

	if critical {
		p.Critical = true
		p.CriticalSeconds += TickSeconds
	} else {
		p.Critical = false
		p.CriticalSeconds = 0
	}

	if p.CriticalSeconds >= CriticalTimeLimitSeconds {
		p.Failed = true
		e.log.Warn().Str("patient_id", p.ID).Str("case", p.Case.Name).Msg("patient lost")
	}
}

func formatLabValue(raw, unit string) string {
	if unit == "" {
		return raw
	}
	return raw + " " + unit
}
