package constants

// Centralized threshold values used across the application.
// Keep these stable; change deliberately and document why.
// These are not configuration knobs; use pkg/config for env-driven settings.

const (
	// Duplicate matching
	MatchMinConfidenceDefault = 50.0 // percent, ranked registry scans
	MatchEmissionMinimum      = 2    // matched fields before a pair is a candidate

	// Registry scan guardrails
	ScanMaxPopulation = 50000 // refuse full scans beyond this; O(n²) cost

	// Double-entry verification
	DoubleEntryMaxDiscrepancies = 0 // any mismatch aborts registration
)

// Milestone ages and the one-time cash gift granted at each.
// Republic Act no. 11982 expanded the octogenarian benefit; amounts are
// pesos.
var MilestonePayoutsPHP = map[int]float64{
	80:  10000,
	85:  10000,
	90:  10000,
	95:  10000,
	100: 100000,
}
