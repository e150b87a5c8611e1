package sim

// Simulation tuning constants. The tick runs every TickSeconds of
// in-game time; per-tick rates below are calibrated against that.
const (
	// TickSeconds is the in-game time that passes per simulation tick.
	TickSeconds = 5

	// Acid-base physiology.
	NormalPCO2        = 5.5 // kPa
	MinPCO2           = 2.0
	PCO2ChangePerTick = 1.0
	RLS2PCO2Threshold = 8.0  // drowsiness
	RLS3PCO2Threshold = 10.0 // CO2 narcosis

	// Respiratory rate band driving pCO2 drift.
	NormalAFMin = 12.0
	NormalAFMax = 20.0

	// COPD hyperoxia induces respiratory depression once arterial
	// oxygen tension exceeds this level.
	HyperoxiaPO2ThresholdCOPD = 8.0 // kPa
	RespiratoryDepressionRate = 2.0
	MinRespiratoryRate        = 8.0

	// Oxygen therapy spreads its full per-litre effect across this
	// many ticks.
	OxygenSpreadTicks = 20
	MaxSaturation     = 100.0

	// Hypoglycemia: glucose-lowering effects lose potency below the
	// diminishing threshold, and the body mounts a counter-regulatory
	// response below the counter threshold.
	GlucoseDiminishingThreshold = 4.0
	GlucoseCounterThreshold     = 3.5
	CounterRegulationChange     = 2.0
	CounterRegulationTicks      = 12

	// Failure: time a patient may stay critical before being lost.
	CriticalTimeLimitSeconds = 60
)

// Critical thresholds. A patient breaching any of these is in a
// critical state and the failure clock starts counting.
const (
	CriticalBTSystolicLower = 70.0
	CriticalSaturationLower = 85.0
	CriticalPulsLower       = 40.0
	CriticalPulsUpper       = 180.0
	CriticalAFLower         = MinRespiratoryRate + 2
	CriticalGlucoseLower    = 2.0
)
