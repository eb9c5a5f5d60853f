package matching

// Registration-time duplicate check. A degenerate case of the ranked engine:
// same comparison primitive, fixed to the three name fields keyed during
// entry, with a count-based trigger instead of a percentage ranking.

// entryCheckSelection restricts comparison to lastName/firstName/middleName.
var entryCheckSelection = FieldSelection{
	LastName:   true,
	FirstName:  true,
	MiddleName: true,
}

// DuplicateHit is an existing record the candidate collides with.
type DuplicateHit struct {
	Record        PersonRecord `json:"record"`
	MatchedFields []Field      `json:"matched_fields"`
}

// QuickDuplicateCheck compares a candidate entry against the existing
// registry and returns every record agreeing on at least two of
// lastName/firstName/middleName. Hits are returned in registry order; a
// non-empty result should raise a duplicate-resolution prompt before insert.
// Birth dates are not consulted, so unvalidated dates are acceptable here.
func QuickDuplicateCheck(candidate PersonRecord, existing []PersonRecord) []DuplicateHit {
	var hits []DuplicateHit
	for _, rec := range existing {
		if rec.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		fields := matchedFields(candidate, rec, entryCheckSelection)
		if len(fields) >= minMatchedFields {
			hits = append(hits, DuplicateHit{Record: rec, MatchedFields: fields})
		}
	}
	return hits
}
