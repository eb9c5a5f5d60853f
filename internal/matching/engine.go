// Package matching implements the record similarity engine behind duplicate
// detection in the senior-citizen registry. Given a set of person records it
// computes pairwise similarity over a configurable field set and returns
// candidate duplicate pairs ranked by confidence.
//
// The engine is a pure function: it performs no I/O, keeps no state between
// calls, and never mutates its input, so concurrent invocations need no
// coordination.
package matching

import "sort"

const (
	// minMatchedFields is the emission floor: pairs agreeing on fewer
	// fields are never candidates, regardless of threshold.
	minMatchedFields = 2

	// DefaultMinConfidence is the policy default for ranked scans.
	DefaultMinConfidence = 50.0
)

// MatchResult is one candidate duplicate pair. RecordA always precedes
// RecordB in the input ordering.
type MatchResult struct {
	RecordA         PersonRecord `json:"record_a"`
	RecordB         PersonRecord `json:"record_b"`
	IndexA          int          `json:"index_a"`
	IndexB          int          `json:"index_b"`
	MatchedFields   []Field      `json:"matched_fields"`
	ConfidenceScore float64      `json:"confidence_score"` // 0-100
}

// FindMatches compares every unordered pair of records and returns those
// whose confidence meets minConfidence, sorted descending by confidence.
// Ties keep pair-enumeration order (input order, then index order).
//
// Confidence is matchedFieldCount/8 × 100. The denominator is fixed at
// ComparableFieldCount even when the selection disables fields, so scores
// stay comparable across selection configurations.
//
// Zero or one records yield an empty result. A minConfidence outside [0,100]
// is an InvalidArgumentError; a record with no decomposable birth date is a
// MalformedRecordError. Either failure aborts the whole call.
func FindMatches(records []PersonRecord, sel FieldSelection, minConfidence float64) ([]MatchResult, error) {
	const op = "matching.FindMatches"

	if minConfidence < 0 || minConfidence > 100 {
		return nil, &InvalidArgumentError{Op: op, Msg: "minConfidence must be within [0,100]"}
	}
	for i, r := range records {
		if r.BirthDate.IsZero() {
			return nil, &MalformedRecordError{Op: op, Index: i, RecordID: r.ID}
		}
	}

	results := []MatchResult{}
	forEachPair(len(records), func(i, j int) bool {
		fields := matchedFields(records[i], records[j], sel)
		if len(fields) < minMatchedFields {
			return true
		}
		score := float64(len(fields)) / float64(ComparableFieldCount) * 100
		if score < minConfidence {
			return true
		}
		results = append(results, MatchResult{
			RecordA:         records[i],
			RecordB:         records[j],
			IndexA:          i,
			IndexB:          j,
			MatchedFields:   fields,
			ConfidenceScore: score,
		})
		return true
	})

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].ConfidenceScore > results[b].ConfidenceScore
	})
	return results, nil
}
